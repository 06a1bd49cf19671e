package procsched

import (
	"time"

	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/model/result"
	"github.com/qnetlab/qnos/runtime/session"
	"github.com/qnetlab/qnos/tracing"
)

// Process state constants.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateWaiting   = "waiting"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Process is one program instance running on a node. All fields are mutated
// solely by the owning scheduler between loop events; like the rest of the
// node runtime it carries no locking because the simulation is
// single-threaded.
type Process struct {
	PID        int                    `json:"pid"`
	Name       string                 `json:"name"`
	Node       string                 `json:"node"`
	State      string                 `json:"state"`
	Program    *model.Program         `json:"program"`
	Params     map[string]interface{} `json:"params,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
	FinishedAt *time.Time             `json:"finishedAt,omitempty"`
	Errors     map[string]string      `json:"errors,omitempty"`
	Span       *tracing.Span          `json:"-"`

	// cursor indexes the next task to run.
	cursor int
	// awaiting is the pair range a wait_pairs task parked on, nil otherwise.
	awaiting *model.PairRange
	// results is the buffer of the most recently activated session; wait
	// ranges refer to it.
	results *result.Buffer
	buffers map[session.Key]*result.Buffer
	keys    []session.Key
}

// NewProcess builds a pending process record.
func NewProcess(pid int, node string, program *model.Program, params map[string]interface{}, now time.Time) *Process {
	return &Process{
		PID:       pid,
		Name:      program.Name,
		Node:      node,
		State:     StatePending,
		Program:   program,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
		Errors:    make(map[string]string),
		buffers:   make(map[session.Key]*result.Buffer),
	}
}

// SetState updates the process state against the given simulated instant.
func (p *Process) SetState(state string, now time.Time) {
	p.State = state
	p.UpdatedAt = now
	switch state {
	case StateCompleted, StateFailed:
		finished := now
		p.FinishedAt = &finished
	}
}

// Terminal reports whether the process has ended.
func (p *Process) Terminal() bool {
	return p.State == StateCompleted || p.State == StateFailed
}

// Task returns the task the cursor points at, nil once the program is
// exhausted.
func (p *Process) Task() *model.Task {
	if p.cursor < 0 || p.cursor >= len(p.Program.Tasks) {
		return nil
	}
	return p.Program.Tasks[p.cursor]
}

// Results returns the buffer of the most recently activated session.
func (p *Process) Results() *result.Buffer { return p.results }

// ResultsFor returns the buffer of one specific session.
func (p *Process) ResultsFor(key session.Key) (*result.Buffer, bool) {
	b, ok := p.buffers[key]
	return b, ok
}

// Sessions returns the keys of every session the process started, in start
// order.
func (p *Process) Sessions() []session.Key {
	out := make([]session.Key, len(p.keys))
	copy(out, p.keys)
	return out
}

// Output is the caller-facing summary of a process run.
type Output struct {
	PID       int                 `json:"pid"`
	Name      string              `json:"name"`
	Node      string              `json:"node"`
	State     string              `json:"state"`
	Records   []result.PairResult `json:"records,omitempty"`
	Errors    map[string]string   `json:"errors,omitempty"`
	TimeTaken time.Duration       `json:"timeTaken"`
}

// Output summarises the process for callers outside the loop.
func (p *Process) Output() *Output {
	out := &Output{
		PID:       p.PID,
		Name:      p.Name,
		Node:      p.Node,
		State:     p.State,
		TimeTaken: p.UpdatedAt.Sub(p.CreatedAt),
	}
	if p.FinishedAt != nil {
		out.TimeTaken = p.FinishedAt.Sub(p.CreatedAt)
	}
	if p.results != nil {
		out.Records = p.results.Records()
	}
	if len(p.Errors) > 0 {
		out.Errors = make(map[string]string, len(p.Errors))
		for k, v := range p.Errors {
			out.Errors[k] = v
		}
	}
	return out
}

func (p *Process) adoptBuffer(key session.Key, b *result.Buffer) {
	if _, seen := p.buffers[key]; !seen {
		p.keys = append(p.keys, key)
	}
	p.buffers[key] = b
	p.results = b
}
