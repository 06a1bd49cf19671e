package loop

import (
	"container/heap"
	"context"
	"time"

	"github.com/qnetlab/qnos/internal/clock"
)

// Callback is a unit of work executed by the loop at a scheduled instant.
type Callback func(ctx context.Context)

// Loop is a discrete-event loop: the single logical thread of control of a
// simulation and its only source of time. Components never block a goroutine
// on simulation progress; a component that needs to wait schedules a callback
// (directly or through the correlation store) and returns.
//
// Events fire in ascending time order; events scheduled for the same instant
// fire in the order they were scheduled.
type Loop struct {
	now    time.Time
	seq    uint64
	queue  eventQueue
	ticks  uint64
	onTick func(now time.Time)
}

// Option customises a Loop.
type Option func(*Loop)

// WithStart sets the initial simulated instant (default clock.Epoch).
func WithStart(t time.Time) Option {
	return func(l *Loop) { l.now = t }
}

// WithTickObserver registers fn to be invoked after every processed event.
func WithTickObserver(fn func(now time.Time)) Option {
	return func(l *Loop) { l.onTick = fn }
}

// New creates an empty loop positioned at the simulation epoch.
func New(options ...Option) *Loop {
	l := &Loop{now: clock.Epoch}
	for _, opt := range options {
		opt(l)
	}
	return l
}

var _ clock.Clock = (*Loop)(nil)

// Now returns the current simulated time.
func (l *Loop) Now() time.Time { return l.now }

// Pending returns the number of scheduled, not yet fired events.
func (l *Loop) Pending() int { return len(l.queue) }

// Ticks returns the number of events processed so far.
func (l *Loop) Ticks() uint64 { return l.ticks }

// Schedule queues fn to run delay after the current instant. A negative
// delay is clamped to zero, which still defers fn until the current event
// finishes.
func (l *Loop) Schedule(delay time.Duration, fn Callback) {
	if delay < 0 {
		delay = 0
	}
	l.ScheduleAt(l.now.Add(delay), fn)
}

// ScheduleAt queues fn to run at the given instant. Instants in the past are
// clamped to the current time.
func (l *Loop) ScheduleAt(at time.Time, fn Callback) {
	if fn == nil {
		return
	}
	if at.Before(l.now) {
		at = l.now
	}
	l.seq++
	heap.Push(&l.queue, &event{at: at, seq: l.seq, fn: fn})
}

// Step fires the single next event, advancing the clock to its instant.
// It reports whether an event was processed.
func (l *Loop) Step(ctx context.Context) bool {
	if len(l.queue) == 0 {
		return false
	}
	ev := heap.Pop(&l.queue).(*event)
	l.now = ev.at
	l.ticks++
	ev.fn(ctx)
	if l.onTick != nil {
		l.onTick(l.now)
	}
	return true
}

// Drain runs the loop until no events remain or ctx is cancelled, returning
// the number of events processed. Callbacks may schedule further events;
// those are processed as part of the same drain.
func (l *Loop) Drain(ctx context.Context) int {
	processed := 0
	for ctx.Err() == nil && l.Step(ctx) {
		processed++
	}
	return processed
}

// RunUntil processes events up to and including instant t; later events stay
// queued. The clock never advances past the last fired event.
func (l *Loop) RunUntil(ctx context.Context, t time.Time) int {
	processed := 0
	for ctx.Err() == nil && len(l.queue) > 0 && !l.queue[0].at.After(t) {
		if !l.Step(ctx) {
			break
		}
		processed++
	}
	return processed
}

type event struct {
	at  time.Time
	seq uint64
	fn  Callback
}

type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}
