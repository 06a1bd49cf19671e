package linksched

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/service/event"
)

func TestPairCanonicalForm(t *testing.T) {
	assert.Equal(t, NewPair("alice", "bob"), NewPair("bob", "alice"))
	pair := NewPair("bob", "alice")
	assert.Equal(t, "alice", pair.A)
	assert.Equal(t, "bob", pair.Other("alice"))
	assert.Equal(t, "alice", pair.Other("bob"))
	assert.Equal(t, "", pair.Other("charlie"))
	assert.True(t, pair.Has("bob"))
	assert.False(t, pair.Has("charlie"))
}

func TestBoardOpensAndClosesOnSchedule(t *testing.T) {
	lp := loop.New()
	bus := event.New()
	board := NewBoard(lp, bus, nil)

	var opened, closed []time.Time
	event.SubscribeTo[SlotOpened](bus, func(ctx context.Context, e *event.Event[SlotOpened]) {
		opened = append(opened, lp.Now())
	})
	event.SubscribeTo[SlotClosed](bus, func(ctx context.Context, e *event.Event[SlotClosed]) {
		closed = append(closed, lp.Now())
	})

	pair := NewPair("alice", "bob")
	start := lp.Now().Add(time.Microsecond)
	end := start.Add(40 * time.Nanosecond)
	board.Reserve(TimeSlot{Pair: pair, Start: start, End: &end})

	assert.False(t, board.IsOpen(pair), "not open before start")
	lp.Drain(context.Background())

	assert.Equal(t, []time.Time{start}, opened)
	assert.Equal(t, []time.Time{end}, closed)
	assert.False(t, board.IsOpen(pair))
	assert.Equal(t, 0, board.OpenCount())
}

func TestBoardOpenEndedSlotStaysOpen(t *testing.T) {
	lp := loop.New()
	board := NewBoard(lp, event.New(), nil)
	pair := NewPair("alice", "bob")
	board.Reserve(TimeSlot{Pair: pair, Start: lp.Now()})

	lp.Drain(context.Background())
	assert.True(t, board.IsOpen(pair))
	assert.Equal(t, []Pair{pair}, board.OpenPairs())

	assert.True(t, board.CloseNow(context.Background(), pair))
	assert.False(t, board.IsOpen(pair))
	assert.False(t, board.CloseNow(context.Background(), pair), "second close is a no-op")
}

func TestBoardStaleTimedCloseIgnored(t *testing.T) {
	lp := loop.New()
	bus := event.New()
	board := NewBoard(lp, bus, nil)
	pair := NewPair("alice", "bob")

	start := lp.Now()
	end := start.Add(time.Millisecond)
	board.Reserve(TimeSlot{Pair: pair, Start: start, End: &end})
	lp.Step(context.Background())
	assert.True(t, board.IsOpen(pair))

	// A delivery closes the slot early; a fresh open-ended slot follows.
	assert.True(t, board.CloseNow(context.Background(), pair))
	board.Reserve(TimeSlot{Pair: pair, Start: lp.Now()})
	lp.Step(context.Background())
	assert.True(t, board.IsOpen(pair))

	// The stale timed close from the first slot must not affect it.
	lp.Drain(context.Background())
	assert.True(t, board.IsOpen(pair))
}
