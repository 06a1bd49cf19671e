// Package policy provides optional declarative rules applied on top of a
// running node, bounding how entanglement sessions react to memory pressure
// instead of the default unbounded backpressure.
package policy
