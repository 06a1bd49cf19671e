// Package extension provides run-time registries that let qnos work with
// user-defined Go types (for example custom request payloads) and with
// pluggable link scheduler policies.
//
// The registries are normally populated through the public APIs under the
// root qnos package, therefore most applications do not need to import
// this package directly.
package extension
