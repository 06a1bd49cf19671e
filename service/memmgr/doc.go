// Package memmgr owns the allocation table of a node and is the only
// component allowed to mutate the virtual-to-physical qubit mapping. Every
// other component reads the mapping through lookups and reacts to the
// memory-freed notifications this package publishes.
package memmgr
