// Package memory implements the peer channel in process memory, delivering
// through the event loop after a configurable latency.
package memory

import (
	"context"
	"time"

	"github.com/qnetlab/qnos/internal/ctxlog"
	"github.com/qnetlab/qnos/internal/idgen"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/service/messaging"
)

// Config tunes a duplex channel.
type Config struct {
	// Latency is the one-way classical delay between the two endpoints.
	Latency time.Duration
}

// DefaultConfig returns a zero-latency channel configuration.
func DefaultConfig() Config { return Config{} }

// Endpoint is one side of a duplex in-memory channel.
type Endpoint[T any] struct {
	local  string
	remote string
	cfg    Config
	loop   *loop.Loop
	peer   *Endpoint[T]

	handler messaging.Handler[T]
	inbox   []*messaging.Message[T]
}

var _ messaging.Channel[int] = (*Endpoint[int])(nil)

// NewDuplex wires two endpoints between nodes a and b and returns them in
// that order.
func NewDuplex[T any](l *loop.Loop, a, b string, cfg Config) (*Endpoint[T], *Endpoint[T]) {
	ea := &Endpoint[T]{local: a, remote: b, cfg: cfg, loop: l}
	eb := &Endpoint[T]{local: b, remote: a, cfg: cfg, loop: l}
	ea.peer = eb
	eb.peer = ea
	return ea, eb
}

// Local returns the name of this endpoint's node.
func (e *Endpoint[T]) Local() string { return e.local }

// Remote returns the name of the peer node.
func (e *Endpoint[T]) Remote() string { return e.remote }

// Send schedules delivery of payload at the remote endpoint after the
// configured latency.
func (e *Endpoint[T]) Send(_ context.Context, payload *T) error {
	m := &messaging.Message[T]{
		ID:      idgen.New(),
		From:    e.local,
		To:      e.remote,
		SentAt:  e.loop.Now(),
		Payload: payload,
	}
	e.loop.Schedule(e.cfg.Latency, func(ctx context.Context) {
		e.peer.deliver(ctx, m)
	})
	return nil
}

// Subscribe registers the delivery handler and flushes anything delivered
// before subscription.
func (e *Endpoint[T]) Subscribe(h messaging.Handler[T]) {
	e.handler = h
	if h == nil || len(e.inbox) == 0 {
		return
	}
	buffered := e.inbox
	e.inbox = nil
	e.loop.Schedule(0, func(ctx context.Context) {
		for _, m := range buffered {
			e.handle(ctx, m)
		}
	})
}

func (e *Endpoint[T]) deliver(ctx context.Context, m *messaging.Message[T]) {
	if e.handler == nil {
		e.inbox = append(e.inbox, m)
		return
	}
	e.handle(ctx, m)
}

func (e *Endpoint[T]) handle(ctx context.Context, m *messaging.Message[T]) {
	if err := e.handler(ctx, m); err != nil {
		ctxlog.From(ctx).Error("peer message handler failed",
			"from", m.From, "to", m.To, "id", m.ID, "err", err)
	}
}
