// Package tracing integrates observability back-ends with the node runtime
// to provide distributed tracing of sessions and pair deliveries.  All
// instrumentation is kept in a separate package so that applications which
// do not require tracing can leave it uninitialised and pay nothing.
package tracing
