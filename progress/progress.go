package progress

import (
	"context"
	"sync"
	"time"
)

// Delta is an incremental counter change emitted by the process scheduler.
// Fields are signed so a state transition can decrement one counter while
// incrementing another.
type Delta struct {
	Processes int
	Running   int
	Waiting   int
	Completed int
	Failed    int
	Pairs     int
}

// Progress keeps aggregated counters for one simulation run across every
// node. It is safe for concurrent use.
type Progress struct {
	// Identification, filled when the run starts.
	Topology  string
	StartedAt time.Time

	// Counters, modified via Update.
	Processes int
	Running   int
	Waiting   int
	Completed int
	Failed    int
	Pairs     int

	sync.Mutex
	onChange func(Progress)
}

// Update applies the delta. A registered onChange callback is invoked with
// a copy of the updated tracker outside the critical section, so it may do
// slow work without blocking the run.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.Lock()
	p.Processes += d.Processes
	p.Running += d.Running
	p.Waiting += d.Waiting
	p.Completed += d.Completed
	p.Failed += d.Failed
	p.Pairs += d.Pairs
	snapshot := *p
	cb := p.onChange
	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return *p
}

// OnChange registers a callback invoked after every Update. Passing nil
// disables it; only one callback is active at a time.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a tracker, embeds it in a derived context and
// returns both. StartedAt is wall-clock time: the tracker describes the
// run, not the simulated timeline.
func WithNewTracker(ctx context.Context, topology string, onChange func(Progress)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tracker := &Progress{
		Topology:  topology,
		StartedAt: time.Now(),
		onChange:  onChange,
	}
	return context.WithValue(ctx, trackerKey, tracker), tracker
}

// FromContext extracts the tracker from ctx; ok is false when the context
// carries none.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tracker, ok := ctx.Value(trackerKey).(*Progress)
	return tracker, ok
}

// GetSnapshot combines FromContext and Snapshot.
func GetSnapshot(ctx context.Context) (Progress, bool) {
	if tracker, ok := FromContext(ctx); ok {
		return tracker.Snapshot(), true
	}
	return Progress{}, false
}

// UpdateCtx applies the delta to the tracker in ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tracker, ok := FromContext(ctx); ok {
		tracker.Update(d)
	}
}
