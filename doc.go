// Package qnos simulates the control plane of a quantum network node.
//
// A simulation is assembled from a topology definition (for example in
// YAML) and comes with pluggable service layers such as:
//
//   - procsched – process scheduling and program execution
//   - memmgr    – qubit memory allocation and lifetime
//   - netstack  – the classical handshake between node pairs
//   - egp       – entanglement generation over scheduled link slots
//   - linksched – link schedulers arbitrating the entangling resource
//
// Everything runs on a single discrete-event loop, so a whole network
// executes deterministically inside one process. End-users typically
// interact via the high-level Service facade exposed by the root package:
//
//	srv, _ := qnos.New(qnos.WithTopologyLocation("lab"))
//	rt := srv.Runtime()
//	ctx, _ := srv.NewContext(context.Background())
//	prog, _ := rt.LoadProgram(ctx, "epr_client")
//	proc, _ := rt.StartProcess(ctx, "alice", prog, nil, nil)
//	rt.Run(ctx)
//
// For more details see the README and individual sub-packages.
package qnos
