// Package procsched schedules the processes of one node: it walks each
// program's task list against the simulated clock, submits entanglement
// requests to the netstack and parks processes that wait on pair results
// until the awaited range is complete. A parked process is a record with a
// cursor, not a blocked goroutine.
package procsched
