// Package correlation is the waiters table of a node: every suspended
// computation parks a continuation here under a typed key, and the component
// that observes the awaited event resolves the key. Continuations never run
// inline; the store hands them to the event loop so resumption order is the
// loop's deterministic order.
package correlation

import (
	"context"
	"fmt"
	"sync"
)

// KeyKind discriminates what a parked continuation waits for.
type KeyKind string

const (
	// KindPeerCreate resumes a receiver session when the initiator's create
	// packet arrives.
	KindPeerCreate KeyKind = "peer_create"
	// KindPeerReady resumes an initiator session when the peer acknowledges.
	KindPeerReady KeyKind = "peer_ready"
	// KindDelivery resumes a session when its one-pair submission yields a
	// delivery.
	KindDelivery KeyKind = "delivery"
	// KindMemoryFreed wakes sessions backing off on allocation failure.
	KindMemoryFreed KeyKind = "memory_freed"
)

// Key scopes a wait. Node is the waiting node's name; Scope narrows the wait
// further (a session id, a submit id, empty for node-wide waits).
type Key struct {
	Kind  KeyKind
	Node  string
	Scope string
}

func (k Key) String() string { return fmt.Sprintf("%v:%v:%v", k.Kind, k.Node, k.Scope) }

// Continuation resumes a parked computation with the payload that resolved
// it.
type Continuation func(ctx context.Context, payload interface{})

// Scheduler defers a continuation to the event loop.
type Scheduler func(fn func(ctx context.Context))

// Store maps keys to parked continuations in park order.
type Store struct {
	schedule Scheduler
	mu       sync.Mutex
	waiting  map[Key][]Continuation
}

// New builds a store that defers resumptions through schedule.
func New(schedule Scheduler) *Store {
	return &Store{schedule: schedule, waiting: make(map[Key][]Continuation)}
}

// Park registers a continuation under key.
func (s *Store) Park(key Key, c Continuation) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waiting[key] = append(s.waiting[key], c)
}

// Resolve releases every continuation parked under key, in park order, and
// returns how many were released. Continuations parked again during
// resumption wait for the next resolve.
func (s *Store) Resolve(ctx context.Context, key Key, payload interface{}) int {
	s.mu.Lock()
	parked := s.waiting[key]
	delete(s.waiting, key)
	s.mu.Unlock()

	for _, c := range parked {
		c := c
		s.schedule(func(ctx context.Context) { c(ctx, payload) })
	}
	return len(parked)
}

// ResolveOne releases only the first parked continuation, keeping the rest
// waiting. It reports whether one was released.
func (s *Store) ResolveOne(ctx context.Context, key Key, payload interface{}) bool {
	s.mu.Lock()
	parked := s.waiting[key]
	if len(parked) == 0 {
		s.mu.Unlock()
		return false
	}
	first := parked[0]
	if len(parked) == 1 {
		delete(s.waiting, key)
	} else {
		s.waiting[key] = parked[1:]
	}
	s.mu.Unlock()

	s.schedule(func(ctx context.Context) { first(ctx, payload) })
	return true
}

// Pending returns the number of continuations parked under key.
func (s *Store) Pending(key Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiting[key])
}

// PendingTotal returns the number of parked continuations across all keys.
func (s *Store) PendingTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, parked := range s.waiting {
		total += len(parked)
	}
	return total
}

// Drop discards everything parked under key, returning how many were
// discarded. Used on session teardown.
func (s *Store) Drop(key Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.waiting[key])
	delete(s.waiting, key)
	return n
}
