package memmgr

import "errors"

// Allocation errors. ErrNoCapableSlot is the only recoverable member: the
// caller backs off and retries after a memory-freed notification. The rest
// signal caller bugs and are fatal to the calling session.
var (
	// ErrNoCapableSlot means no free slot covers the required traits.
	ErrNoCapableSlot = errors.New("memmgr: no capable slot free")

	// ErrAlreadyAllocated means the (process, virtual id) pair is mapped.
	ErrAlreadyAllocated = errors.New("memmgr: virtual id already allocated")

	// ErrNotAllocated means a free was issued for an absent mapping.
	ErrNotAllocated = errors.New("memmgr: virtual id not allocated")

	// ErrUnknownProcess means the process never registered a unit module.
	ErrUnknownProcess = errors.New("memmgr: unknown process")

	// ErrUnknownVirtID means the unit module does not declare the id.
	ErrUnknownVirtID = errors.New("memmgr: virtual id not declared by unit module")
)
