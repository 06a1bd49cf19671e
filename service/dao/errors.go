package dao

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("dao: not found")

	// ErrInvalidID rejects an empty or malformed key.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity rejects persisting a nil pointer.
	ErrNilEntity = errors.New("dao: nil entity")
)
