// Package messaging defines the classical channel between the netstacks of
// two peer nodes: reliable, ordered, point-to-point. Implementations deliver
// through the event loop so that message arrival is a simulated event, not a
// goroutine hand-off.
package messaging

import (
	"context"
	"time"
)

// Vendor names a channel implementation.
type Vendor string

// Message wraps a payload in flight between two peers.
type Message[T any] struct {
	ID      string
	From    string
	To      string
	SentAt  time.Time
	Payload *T
}

// Handler consumes delivered messages, in send order.
type Handler[T any] func(ctx context.Context, m *Message[T]) error

// Channel is one directed endpoint of a peer link.
type Channel[T any] interface {
	// Send queues payload for ordered delivery to the remote endpoint.
	Send(ctx context.Context, payload *T) error

	// Subscribe registers the delivery handler of the local endpoint.
	// Messages delivered before any handler is registered are buffered and
	// flushed on subscription. A later call replaces the handler.
	Subscribe(h Handler[T])

	// Local and Remote name the endpoints.
	Local() string
	Remote() string
}
