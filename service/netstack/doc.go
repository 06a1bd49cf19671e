// Package netstack drives multi-pair entanglement sessions with peer nodes.
// It owns the session state machines of one node: the rendezvous handshake
// over the classical channel, per-pair qubit allocation with backpressure,
// submission to the entanglement generation service, Bell corrections and
// result writing. Sessions never block a goroutine; every wait is a parked
// continuation resumed by the event loop.
package netstack
