// Package linksched arbitrates link time between node pairs and is the only
// component allowed to open or close the physical links. Policies admit
// pairing requests into time slots; the board executes the slots on the
// event loop and announces openings and closings to the rest of the node.
package linksched
