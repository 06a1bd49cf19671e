package linksched

import (
	"context"
	"log/slog"

	"github.com/qnetlab/qnos/internal/ctxlog"
	"github.com/qnetlab/qnos/internal/observability"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/service/event"
)

// Board executes time slots on the event loop. It tracks which pairs are
// currently open, publishes SlotOpened and SlotClosed, and guards against
// stale timed closings after a slot was closed early by a delivery.
type Board struct {
	loop    *loop.Loop
	events  *event.Service
	metrics *observability.Collector

	seq  uint64
	open map[Pair]openEntry
}

type openEntry struct {
	slot TimeSlot
	seq  uint64
}

// NewBoard creates a board bound to the loop and event bus.
func NewBoard(lp *loop.Loop, events *event.Service, metrics *observability.Collector) *Board {
	return &Board{
		loop:    lp,
		events:  events,
		metrics: metrics,
		open:    make(map[Pair]openEntry),
	}
}

// Reserve schedules the slot: the pair opens at slot.Start and, when
// slot.End is set, closes at that instant unless a delivery closed it
// first.
func (b *Board) Reserve(slot TimeSlot) {
	b.seq++
	seq := b.seq
	b.loop.ScheduleAt(slot.Start, func(ctx context.Context) {
		b.openSlot(ctx, slot, seq)
	})
	if slot.End != nil {
		b.loop.ScheduleAt(*slot.End, func(ctx context.Context) {
			b.closeSeq(ctx, slot.Pair, seq)
		})
	}
}

// CloseNow closes the pair's open slot, if any, and reports whether a slot
// was closed.
func (b *Board) CloseNow(ctx context.Context, pair Pair) bool {
	entry, ok := b.open[pair]
	if !ok {
		return false
	}
	return b.closeSeq(ctx, pair, entry.seq)
}

// IsOpen reports whether the pair currently holds an open slot.
func (b *Board) IsOpen(pair Pair) bool {
	_, ok := b.open[pair]
	return ok
}

// OpenSlot returns the pair's open slot, if any.
func (b *Board) OpenSlot(pair Pair) (TimeSlot, bool) {
	entry, ok := b.open[pair]
	if !ok {
		return TimeSlot{}, false
	}
	return entry.slot, true
}

// OpenCount returns the number of pairs holding an open slot.
func (b *Board) OpenCount() int {
	return len(b.open)
}

// OpenPairs returns the pairs currently open, in no particular order.
func (b *Board) OpenPairs() []Pair {
	pairs := make([]Pair, 0, len(b.open))
	for pair := range b.open {
		pairs = append(pairs, pair)
	}
	return pairs
}

func (b *Board) openSlot(ctx context.Context, slot TimeSlot, seq uint64) {
	if current, ok := b.open[slot.Pair]; ok {
		ctxlog.From(ctx).Warn("slot already open, ignoring reservation",
			slog.String("pair", slot.Pair.String()),
			slog.Uint64("openSeq", current.seq))
		return
	}
	b.open[slot.Pair] = openEntry{slot: slot, seq: seq}
	b.metrics.SetOpenSlots(len(b.open))
	ctxlog.From(ctx).Debug("link opened", slog.String("pair", slot.Pair.String()))
	event.Publish(ctx, b.events, event.NewEvent(event.Meta{Node: slot.Pair.String(), At: b.loop.Now()}, SlotOpened{Slot: slot}))
}

func (b *Board) closeSeq(ctx context.Context, pair Pair, seq uint64) bool {
	entry, ok := b.open[pair]
	if !ok || entry.seq != seq {
		return false
	}
	delete(b.open, pair)
	b.metrics.SetOpenSlots(len(b.open))
	ctxlog.From(ctx).Debug("link closed", slog.String("pair", pair.String()))
	event.Publish(ctx, b.events, event.NewEvent(event.Meta{Node: pair.String(), At: b.loop.Now()}, SlotClosed{Slot: entry.slot}))
	return true
}
