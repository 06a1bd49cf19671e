package model

import (
	"fmt"
	"time"

	"github.com/qnetlab/qnos/model/request"
	"github.com/qnetlab/qnos/model/state"
)

// TaskKind discriminates the scheduler-relevant instruction classes of a
// program. The set is closed; consumers switch exhaustively.
type TaskKind string

const (
	// TaskLocal is a classical or local-quantum block that only consumes
	// simulated time.
	TaskLocal TaskKind = "local"
	// TaskEprCreate hands an entanglement request to the netstack in the
	// initiator role.
	TaskEprCreate TaskKind = "epr_create"
	// TaskEprRecv registers the receiver side of a peer's request.
	TaskEprRecv TaskKind = "epr_recv"
	// TaskWaitPairs blocks the process until a contiguous range of pair
	// results is present in its result buffer.
	TaskWaitPairs TaskKind = "wait_pairs"
)

// PairRange is a half-open interval of pair indices.
type PairRange struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// Task is one program step. Exactly the fields matching Kind are set.
type Task struct {
	ID       string              `json:"id,omitempty" yaml:"id,omitempty"`
	Kind     TaskKind            `json:"kind" yaml:"kind"`
	Duration time.Duration       `json:"duration,omitempty" yaml:"duration,omitempty"`
	Request  *request.EprRequest `json:"request,omitempty" yaml:"request,omitempty"`
	Wait     *PairRange          `json:"wait,omitempty" yaml:"wait,omitempty"`
}

// Validate checks the task against its kind.
func (t *Task) Validate() error {
	switch t.Kind {
	case TaskLocal:
		if t.Duration < 0 {
			return fmt.Errorf("task %v: negative duration", t.ID)
		}
	case TaskEprCreate:
		if t.Request == nil {
			return fmt.Errorf("task %v: epr_create requires a request", t.ID)
		}
		if err := t.Request.ValidateInitiator(); err != nil {
			return fmt.Errorf("task %v: %w", t.ID, err)
		}
	case TaskEprRecv:
		if t.Request == nil {
			return fmt.Errorf("task %v: epr_recv requires a request", t.ID)
		}
		if err := t.Request.ValidateReceiver(); err != nil {
			return fmt.Errorf("task %v: %w", t.ID, err)
		}
	case TaskWaitPairs:
		if t.Wait == nil {
			return fmt.Errorf("task %v: wait_pairs requires a range", t.ID)
		}
		if t.Wait.From < 0 || t.Wait.To <= t.Wait.From {
			return fmt.Errorf("task %v: bad pair range [%d, %d)", t.ID, t.Wait.From, t.Wait.To)
		}
	default:
		return fmt.Errorf("task %v: unsupported kind %q", t.ID, t.Kind)
	}
	return nil
}

// Program is the task-level view of one process: its name, the unit module
// declaring its virtual qubits, optional input parameters and the ordered
// task list the process scheduler walks.
type Program struct {
	Name       string           `json:"name" yaml:"name"`
	UnitModule string           `json:"unitModule" yaml:"unitModule"`
	Params     state.Parameters `json:"params,omitempty" yaml:"params,omitempty"`
	Tasks      []*Task          `json:"tasks" yaml:"tasks"`
}

// Pairs returns the total number of pairs the program's entanglement
// requests deliver into its result buffer.
func (p *Program) Pairs() int {
	total := 0
	for _, t := range p.Tasks {
		if (t.Kind == TaskEprCreate || t.Kind == TaskEprRecv) && t.Request != nil {
			total += t.Request.NumPairs
		}
	}
	return total
}

// Validate checks the program and each task.
func (p *Program) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("program requires a name")
	}
	if len(p.Tasks) == 0 {
		return fmt.Errorf("program %v has no tasks", p.Name)
	}
	for i, t := range p.Tasks {
		if t == nil {
			return fmt.Errorf("program %v: task %d is nil", p.Name, i)
		}
		if t.ID == "" {
			t.ID = fmt.Sprintf("%s-%d", p.Name, i)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("program %v: %w", p.Name, err)
		}
	}
	return nil
}
