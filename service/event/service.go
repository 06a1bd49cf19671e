// Package event is the typed notification bus of a node. Components publish
// domain events (a freed slot, an opened link slot, a delivered pair) and
// interested components subscribe by payload type.
//
// Dispatch is synchronous and deterministic: handlers run inline at the
// publish point, in subscription order. Handlers that need to advance the
// simulation schedule follow-up work on the event loop instead of doing it
// inside the handler.
package event

import (
	"context"
	"reflect"
	"sync"
)

// Service routes events to subscribers keyed by payload type.
type Service struct {
	mu          sync.RWMutex
	subscribers map[reflect.Type][]any
}

// New creates an empty bus.
func New() *Service {
	return &Service{subscribers: make(map[reflect.Type][]any)}
}

func keyOf[T any]() reflect.Type {
	var t T
	rType := reflect.TypeOf(t)
	if rType != nil && rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

// SubscribeTo registers a handler for payload type T. Handlers registered
// first fire first.
func SubscribeTo[T any](s *Service, handler func(ctx context.Context, e *Event[T])) {
	if handler == nil {
		return
	}
	key := keyOf[T]()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[key] = append(s.subscribers[key], handler)
}

// Publish delivers the event to every subscriber of T.
func Publish[T any](ctx context.Context, s *Service, e *Event[T]) {
	if s == nil || e == nil {
		return
	}
	key := keyOf[T]()
	s.mu.RLock()
	handlers := append([]any(nil), s.subscribers[key]...)
	s.mu.RUnlock()

	for _, h := range handlers {
		h.(func(ctx context.Context, e *Event[T]))(ctx, e)
	}
}
