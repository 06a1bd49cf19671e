// Package progress keeps aggregated counters for one simulation run: how
// many processes are pending, running, waiting or finished, and how many
// entangled pairs have been delivered. The tracker travels in the context,
// so any component reached by the run's context can update it without a
// global registry.
package progress
