// Package fifo admits pairing requests first come first served, bounded by
// the multiplexing limit. Admitted pairs hold an open-ended slot that a
// delivery closes, freeing capacity for the next queued request.
package fifo

import (
	"context"
	"log/slog"

	"github.com/qnetlab/qnos/internal/ctxlog"
	"github.com/qnetlab/qnos/internal/observability"
	"github.com/qnetlab/qnos/model/network"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/service/linksched"
)

var _ linksched.Scheduler = (*Scheduler)(nil)

// Scheduler is the bounded FIFO policy.
type Scheduler struct {
	spec    network.SchedulerSpec
	loop    *loop.Loop
	board   *linksched.Board
	metrics *observability.Collector

	arrivals uint64
	queues   map[linksched.Pair][]queued
	active   map[linksched.Pair]linksched.Request
}

type queued struct {
	req     linksched.Request
	arrival uint64
}

// New creates the policy over the given board.
func New(spec network.SchedulerSpec, lp *loop.Loop, board *linksched.Board, metrics *observability.Collector) *Scheduler {
	return &Scheduler{
		spec:    spec,
		loop:    lp,
		board:   board,
		metrics: metrics,
		queues:  make(map[linksched.Pair][]queued),
		active:  make(map[linksched.Pair]linksched.Request),
	}
}

// RegisterRequest admits the request immediately when the pair is idle and
// fewer pairs than the multiplexing limit hold a slot; otherwise it queues
// in arrival order.
func (s *Scheduler) RegisterRequest(ctx context.Context, req linksched.Request) {
	if _, busy := s.active[req.Pair]; !busy && len(s.active) < s.spec.MaxMultiplexing {
		s.admit(ctx, req)
	} else {
		s.arrivals++
		s.queues[req.Pair] = append(s.queues[req.Pair], queued{req: req, arrival: s.arrivals})
		ctxlog.From(ctx).Debug("pairing request queued",
			slog.String("pair", req.Pair.String()),
			slog.String("submitID", req.SubmitID))
	}
	s.publishDepth()
}

// RegisterDelivery closes the pair's slot and admits the next queued
// request: the pair's own queue first, then the oldest request of any idle
// pair.
func (s *Scheduler) RegisterDelivery(ctx context.Context, delivery linksched.Delivery) {
	if !s.conclude(ctx, delivery.Pair, delivery.SubmitID) {
		ctxlog.From(ctx).Warn("delivery for unknown pairing request",
			slog.String("pair", delivery.Pair.String()),
			slog.String("submitID", delivery.SubmitID))
	}
	s.publishDepth()
}

// RegisterError discards the failed request. An active request releases its
// slot the same way a delivery does, so the link does not stay open for a
// request that can no longer conclude.
func (s *Scheduler) RegisterError(ctx context.Context, failure linksched.Failure) {
	ctxlog.From(ctx).Warn("pairing request failed",
		slog.String("pair", failure.Pair.String()),
		slog.String("submitID", failure.SubmitID),
		slog.Any("error", failure.Err))
	if s.conclude(ctx, failure.Pair, failure.SubmitID) {
		s.publishDepth()
		return
	}
	queue := s.queues[failure.Pair]
	for i := range queue {
		if queue[i].req.SubmitID == failure.SubmitID {
			s.queues[failure.Pair] = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	s.publishDepth()
}

// IsOpen reports whether the pair's slot is physically open.
func (s *Scheduler) IsOpen(pair linksched.Pair) bool {
	return s.board.IsOpen(pair)
}

// OpenSlot returns the pair's open slot, if any.
func (s *Scheduler) OpenSlot(pair linksched.Pair) (linksched.TimeSlot, bool) {
	return s.board.OpenSlot(pair)
}

// OpenCount returns the number of physically open pairs.
func (s *Scheduler) OpenCount() int {
	return s.board.OpenCount()
}

// Outstanding counts the pair's queued requests plus its active one.
func (s *Scheduler) Outstanding(pair linksched.Pair) int {
	n := len(s.queues[pair])
	if _, ok := s.active[pair]; ok {
		n++
	}
	return n
}

func (s *Scheduler) admit(ctx context.Context, req linksched.Request) {
	s.active[req.Pair] = req
	start := s.loop.Now().Add(s.spec.SwitchTime)
	s.board.Reserve(linksched.TimeSlot{Pair: req.Pair, Start: start, SubmitID: req.SubmitID})
	ctxlog.From(ctx).Debug("pairing request admitted",
		slog.String("pair", req.Pair.String()),
		slog.String("submitID", req.SubmitID),
		slog.Time("start", start))
}

// conclude releases the pair's slot when id names its active request and
// admits a successor. It reports whether anything was released.
func (s *Scheduler) conclude(ctx context.Context, pair linksched.Pair, id string) bool {
	req, ok := s.active[pair]
	if !ok || req.SubmitID != id {
		return false
	}
	delete(s.active, pair)
	s.board.CloseNow(ctx, pair)
	if next, ok := s.dequeue(pair); ok {
		s.admit(ctx, next)
		return true
	}
	if next, ok := s.dequeueOldest(); ok {
		s.admit(ctx, next)
	}
	return true
}

func (s *Scheduler) dequeue(pair linksched.Pair) (linksched.Request, bool) {
	queue := s.queues[pair]
	if len(queue) == 0 {
		return linksched.Request{}, false
	}
	head := queue[0]
	s.queues[pair] = queue[1:]
	return head.req, true
}

// dequeueOldest pops the longest waiting request among pairs that do not
// already hold a slot.
func (s *Scheduler) dequeueOldest() (linksched.Request, bool) {
	var (
		found   bool
		oldest  uint64
		bestKey linksched.Pair
	)
	for pair, queue := range s.queues {
		if len(queue) == 0 {
			continue
		}
		if _, busy := s.active[pair]; busy {
			continue
		}
		if !found || queue[0].arrival < oldest {
			found = true
			oldest = queue[0].arrival
			bestKey = pair
		}
	}
	if !found {
		return linksched.Request{}, false
	}
	return s.dequeue(bestKey)
}

func (s *Scheduler) publishDepth() {
	total := len(s.active)
	for _, queue := range s.queues {
		total += len(queue)
	}
	s.metrics.SetQueueDepth(total)
}
