// Package dao defines the persistence contract shared by the node's record
// stores: a minimal generic CRUD surface with optional list filtering.
package dao

import (
	"context"
)

// Service is the store contract for keyed records.
type Service[K comparable, T any] interface {
	// Save stores or overwrites a record.
	Save(ctx context.Context, t *T) error

	// Load returns the record under id; in-memory stores return nil for an
	// absent record rather than an error.
	Load(ctx context.Context, id K) (*T, error)

	// Delete removes the record under id.
	Delete(ctx context.Context, id K) error

	// List returns the records admitted by the filter parameters.
	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
