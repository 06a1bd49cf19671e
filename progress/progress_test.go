package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerUpdates(t *testing.T) {
	ctx, tracker := WithNewTracker(context.Background(), "lab", nil)

	UpdateCtx(ctx, Delta{Processes: 2, Running: 2})
	UpdateCtx(ctx, Delta{Running: -1, Waiting: 1})
	UpdateCtx(ctx, Delta{Pairs: 1})
	UpdateCtx(ctx, Delta{Waiting: -1, Completed: 1})

	snapshot := tracker.Snapshot()
	assert.Equal(t, "lab", snapshot.Topology)
	assert.Equal(t, 2, snapshot.Processes)
	assert.Equal(t, 1, snapshot.Running)
	assert.Equal(t, 0, snapshot.Waiting)
	assert.Equal(t, 1, snapshot.Completed)
	assert.Equal(t, 1, snapshot.Pairs)
}

func TestOnChangeCallback(t *testing.T) {
	_, tracker := WithNewTracker(context.Background(), "lab", nil)

	var seen []Progress
	tracker.OnChange(func(p Progress) { seen = append(seen, p) })

	tracker.Update(Delta{Processes: 1})
	tracker.Update(Delta{Completed: 1})

	require.Len(t, seen, 2)
	assert.Equal(t, 1, seen[0].Processes)
	assert.Equal(t, 1, seen[1].Completed)
}

func TestNilAndMissingTrackerSafe(t *testing.T) {
	var tracker *Progress
	tracker.Update(Delta{Processes: 1})
	tracker.OnChange(nil)
	assert.Equal(t, Progress{}, tracker.Snapshot())

	UpdateCtx(context.Background(), Delta{Processes: 1})
	_, ok := GetSnapshot(context.Background())
	assert.False(t, ok)
}
