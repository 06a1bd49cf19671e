// Package dtw is the weighted-window policy: each scheduling cycle opens a
// fixed-length slot for the node pair with the largest outstanding queue,
// ties broken by encounter order. The window is sized so one generation
// success is expected within it given the pair's link attenuation.
//
// The policy plans a single pair per cycle. Multiplexing limits above one
// are accepted but not honored.
package dtw

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/qnetlab/qnos/internal/ctxlog"
	"github.com/qnetlab/qnos/internal/observability"
	"github.com/qnetlab/qnos/model/network"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/service/linksched"
)

// DefaultCycleTime bounds a cycle when no window can be derived for the
// selected pair.
const DefaultCycleTime = 40 * time.Nanosecond

var _ linksched.Scheduler = (*Scheduler)(nil)

type lengths struct {
	aKm float64
	bKm float64
}

// Scheduler is the weighted-window policy.
type Scheduler struct {
	spec    network.SchedulerSpec
	loop    *loop.Loop
	board   *linksched.Board
	metrics *observability.Collector

	lengths map[linksched.Pair]lengths
	queues  map[linksched.Pair][]linksched.Request
	order   []linksched.Pair

	activePair  linksched.Pair
	activeID    string
	hasActive   bool
	cycling     bool
	kickPending bool
	remaining   int
	exhausted   bool
	warnedMux   bool
}

// New creates the policy over the given board. Links supply the per-pair
// segment lengths that size the windows.
func New(spec network.SchedulerSpec, links []network.Link, lp *loop.Loop, board *linksched.Board, metrics *observability.Collector) *Scheduler {
	byPair := make(map[linksched.Pair]lengths, len(links))
	for _, link := range links {
		pair := linksched.NewPair(link.NodeA, link.NodeB)
		entry := lengths{aKm: link.LengthAKm, bKm: link.LengthBKm}
		if pair.A != link.NodeA {
			entry.aKm, entry.bKm = entry.bKm, entry.aKm
		}
		byPair[pair] = entry
	}
	return &Scheduler{
		spec:      spec,
		loop:      lp,
		board:     board,
		metrics:   metrics,
		lengths:   byPair,
		queues:    make(map[linksched.Pair][]linksched.Request),
		remaining: spec.MaxRepeats,
	}
}

// RegisterRequest queues the request and kicks the cycle chain when it is
// idle. Queued requests stay outstanding until a delivery concludes them.
func (s *Scheduler) RegisterRequest(ctx context.Context, req linksched.Request) {
	if _, seen := s.queues[req.Pair]; !seen {
		s.order = append(s.order, req.Pair)
	}
	s.queues[req.Pair] = append(s.queues[req.Pair], req)
	s.publishDepth()
	s.kick(ctx)
}

// RegisterDelivery concludes the active request: the queue head pops and
// the slot closes early. The running cycle still ends at its planned
// instant, so switch dead time is always realized between windows.
func (s *Scheduler) RegisterDelivery(ctx context.Context, delivery linksched.Delivery) {
	if !s.conclude(ctx, delivery.Pair, delivery.SubmitID) {
		ctxlog.From(ctx).Warn("delivery for inactive pairing request",
			slog.String("pair", delivery.Pair.String()),
			slog.String("submitID", delivery.SubmitID))
		return
	}
	s.publishDepth()
}

// RegisterError discards the failed request so a dead request cannot pin
// the window selection.
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
		if queue[i].SubmitID == failure.SubmitID {
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

// Outstanding counts the pair's queued requests, including the active one.
func (s *Scheduler) Outstanding(pair linksched.Pair) int {
	return len(s.queues[pair])
}

// Exhausted reports whether the repeat bound stopped the cycle chain.
func (s *Scheduler) Exhausted() bool {
	return s.exhausted
}

// kick schedules a cycle start after the current instant settles, so every
// request registered at the same simulated time takes part in the
// selection.
func (s *Scheduler) kick(ctx context.Context) {
	if s.cycling || s.kickPending || s.exhausted {
		return
	}
	s.kickPending = true
	s.loop.Schedule(0, func(ctx context.Context) {
		s.kickPending = false
		if !s.cycling {
			s.startCycle(ctx)
		}
	})
}

func (s *Scheduler) startCycle(ctx context.Context) {
	pair, ok := s.selectPair()
	if !ok {
		s.cycling = false
		return
	}
	if s.spec.MaxMultiplexing > 1 && !s.warnedMux {
		s.warnedMux = true
		ctxlog.From(ctx).Warn("weighted-window policy plans a single pair per cycle",
			slog.Int("maxMultiplexing", s.spec.MaxMultiplexing))
	}

	head := s.queues[pair][0]
	window := s.window(ctx, pair)
	start := s.loop.Now().Add(s.spec.SwitchTime)
	end := start.Add(window)

	s.activePair = pair
	s.activeID = head.SubmitID
	s.hasActive = true
	s.cycling = true

	s.board.Reserve(linksched.TimeSlot{Pair: pair, Start: start, End: &end, SubmitID: head.SubmitID})
	s.loop.ScheduleAt(end, s.endCycle)
	s.metrics.IncSchedulerCycles()
	ctxlog.From(ctx).Debug("cycle planned",
		slog.String("pair", pair.String()),
		slog.String("submitID", head.SubmitID),
		slog.Time("start", start),
		slog.Duration("window", window))
}

func (s *Scheduler) endCycle(ctx context.Context) {
	s.cycling = false
	s.hasActive = false

	backlog := false
	for _, queue := range s.queues {
		if len(queue) > 0 {
			backlog = true
			break
		}
	}
	if !backlog {
		ctxlog.From(ctx).Debug("scheduling idle, all queues drained")
		return
	}
	if s.remaining <= 0 {
		s.exhausted = true
		s.metrics.IncSchedulerExhausted()
		ctxlog.From(ctx).Warn("scheduler repeat bound reached, queued requests stay unserviced",
			slog.Int("maxRepeats", s.spec.MaxRepeats))
		return
	}
	s.remaining--
	s.startCycle(ctx)
}

// selectPair returns the pair with the strictly largest queue, walking
// pairs in encounter order so ties keep the earlier pair.
func (s *Scheduler) selectPair() (linksched.Pair, bool) {
	var (
		best  linksched.Pair
		depth int
	)
	for _, pair := range s.order {
		if n := len(s.queues[pair]); n > depth {
			best = pair
			depth = n
		}
	}
	return best, depth > 0
}

// window derives the slot length for the pair: a safety multiple of the
// round-trip signalling time plus static delay, divided by the attempt
// success probability given exponential fibre attenuation on both
// segments.
func (s *Scheduler) window(ctx context.Context, pair linksched.Pair) time.Duration {
	entry, ok := s.lengths[pair]
	if !ok {
		ctxlog.From(ctx).Warn("no link lengths for pair, using default cycle time",
			slog.String("pair", pair.String()))
		return DefaultCycleTime
	}
	probSuccess := math.Exp(-entry.aKm/s.spec.AttenuationKm) *
		math.Exp(-entry.bKm/s.spec.AttenuationKm) *
		s.spec.ProbInit
	if probSuccess <= 0 {
		return DefaultCycleTime
	}
	roundTripNs := 2 * math.Max(entry.aKm, entry.bKm) * s.spec.CLightNsPerKm
	windowNs := 5 * s.spec.TimeWindowPrefix * (roundTripNs + float64(s.spec.StaticDelay.Nanoseconds())) / probSuccess
	window := time.Duration(math.Round(windowNs)) * time.Nanosecond
	if window <= 0 {
		return DefaultCycleTime
	}
	return window
}

func (s *Scheduler) conclude(ctx context.Context, pair linksched.Pair, id string) bool {
	if !s.hasActive || s.activePair != pair || s.activeID != id {
		return false
	}
	s.hasActive = false
	queue := s.queues[pair]
	if len(queue) > 0 {
		s.queues[pair] = queue[1:]
	}
	s.board.CloseNow(ctx, pair)
	return true
}

func (s *Scheduler) publishDepth() {
	total := 0
	for _, queue := range s.queues {
		total += len(queue)
	}
	s.metrics.SetQueueDepth(total)
}
