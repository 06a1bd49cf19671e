// Package model defines the shared domain artifacts of a node: physical
// qubit slots and their capability traits, the unit module a program declares
// for its virtual qubits, and the task-level program shape consumed by the
// process scheduler.
//
// Subpackages hold the request union (model/request), per-pair result
// records (model/result), the network topology (model/network) and program
// input parameters (model/state).
package model
