// Package idgen produces the session and message identifiers used across
// the node services. Callers treat the ids as opaque strings; tests stub
// NewFunc to get stable ones.
package idgen
