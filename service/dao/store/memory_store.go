// Package store provides the generic in-memory record store backing the
// concrete DAOs.
package store

import (
	"context"
	"sync"

	"github.com/qnetlab/qnos/service/dao"
)

// MemoryStore keeps records of type *T mapped by a comparable key K drawn
// from each record by the key selector. List returns records in first-save
// order, so iterating a store yields a reproducible sequence. It carries no
// filtering logic; stores that need state-aware listing wrap it or
// implement dao.Service directly.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	order       []K
	keySelector func(*T) K
}

// NewMemoryStore creates a store keyed by keySelector, usually the record's
// id field.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K) *MemoryStore[K, T] {
	return &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
	}
}

// Save stores or overwrites a record. A nil record is ignored.
func (s *MemoryStore[K, T]) Save(_ context.Context, record *T) error {
	if record == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.keySelector(record)
	if _, ok := s.records[key]; !ok {
		s.order = append(s.order, key)
	}
	s.records[key] = record
	return nil
}

// Load returns a record by key, or nil when absent.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return record, nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return nil
	}
	delete(s.records, key)
	for i := range s.order {
		if s.order[i] == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns every record in first-save order.
func (s *MemoryStore[K, T]) List(_ context.Context, _ ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.records[key])
	}
	return out, nil
}
