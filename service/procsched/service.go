package procsched

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/viant/structology/conv"

	"github.com/qnetlab/qnos/extension"
	"github.com/qnetlab/qnos/internal/ctxlog"
	"github.com/qnetlab/qnos/internal/observability"
	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/model/request"
	"github.com/qnetlab/qnos/model/result"
	"github.com/qnetlab/qnos/model/state"
	"github.com/qnetlab/qnos/progress"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/runtime/session"
	"github.com/qnetlab/qnos/service/dao"
	"github.com/qnetlab/qnos/service/dao/store"
	"github.com/qnetlab/qnos/service/memmgr"
	"github.com/qnetlab/qnos/tracing"
)

// ErrUnknownProcess is returned for pids the scheduler never started or has
// already torn down.
var ErrUnknownProcess = errors.New("procsched: unknown process")

// Netstack starts entanglement sessions on behalf of processes.
type Netstack interface {
	StartInitiator(ctx context.Context, pid int, req *request.EprRequest) (session.Key, error)
	StartReceiver(ctx context.Context, pid int, req *request.EprRequest) (session.Key, error)
}

// Option customises a scheduler.
type Option func(*Service)

// WithMetrics attaches the shared metrics collector.
func WithMetrics(c *observability.Collector) Option {
	return func(s *Service) {
		s.metrics = c
	}
}

// WithStore sets the process store implementation.
func WithStore(st dao.Service[int, Process]) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithTypes attaches the data type registry used to coerce program
// parameters to their declared types.
func WithTypes(types *extension.Types) Option {
	return func(s *Service) {
		s.types = types
	}
}

// WithPIDSource replaces the pid sequence, letting several schedulers share
// one so that pids stay unique across a whole run.
func WithPIDSource(next func() int) Option {
	return func(s *Service) {
		s.nextPID = next
	}
}

// NewPIDSequence returns a zero-based pid counter.
func NewPIDSequence() func() int {
	next := 0
	return func() int {
		pid := next
		next++
		return pid
	}
}

// Service walks program task lists for the processes of one node. Local
// tasks consume simulated time, entanglement tasks hand their request to the
// netstack and wait_pairs tasks park the process until the awaited range of
// result records is complete. The service is the netstack's notifier; pair
// progress and session failures arrive through that callback surface.
type Service struct {
	node      string
	lp        *loop.Loop
	mem       *memmgr.Manager
	net       Netstack
	store     dao.Service[int, Process]
	types     *extension.Types
	converter *conv.Converter
	metrics   *observability.Collector
	nextPID   func() int
}

// New creates a process scheduler for one node. The netstack is attached
// separately with Bind because the two services reference each other.
func New(node string, lp *loop.Loop, mem *memmgr.Manager, options ...Option) *Service {
	s := &Service{
		node: node,
		lp:   lp,
		mem:  mem,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.store == nil {
		s.store = store.NewMemoryStore[int, Process](func(p *Process) int { return p.PID })
	}
	if s.nextPID == nil {
		s.nextPID = NewPIDSequence()
	}
	if s.types != nil {
		s.converter = conv.NewConverter(conv.DefaultOptions())
	}
	return s
}

// Bind attaches the netstack that entanglement tasks submit their requests
// to.
func (s *Service) Bind(net Netstack) { s.net = net }

// Node returns the owning node's name.
func (s *Service) Node() string { return s.node }

// StartProcess registers the program as a new process, installs its unit
// module with the memory manager and schedules the first task. The returned
// record is live: the loop mutates it as the program advances.
func (s *Service) StartProcess(ctx context.Context, program *model.Program, um *model.UnitModule, input map[string]interface{}) (proc *Process, err error) {
	if program == nil {
		return nil, fmt.Errorf("program cannot be nil")
	}
	if err = program.Validate(); err != nil {
		return nil, err
	}
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("procsched.StartProcess %s", program.Name), "INTERNAL")
	defer tracing.EndSpan(span, err)

	pid := s.nextPID()
	span.WithAttributes(map[string]string{
		"node":         s.node,
		"process.pid":  fmt.Sprintf("%d", pid),
		"program.name": program.Name,
	})

	params := mergedParams(program.Params, input)
	if err = s.coerceParams(params, program.Params); err != nil {
		return nil, fmt.Errorf("invalid parameters for %s: %w", program.Name, err)
	}

	if err = s.mem.RegisterProcess(pid, um); err != nil {
		return nil, fmt.Errorf("failed to register unit module for %s: %w", program.Name, err)
	}

	proc = NewProcess(pid, s.node, program, params, s.lp.Now())
	_, proc.Span = tracing.StartSpan(ctx, fmt.Sprintf("process.run %s", program.Name), "INTERNAL")
	proc.Span.WithAttributes(map[string]string{"node": s.node, "process.pid": fmt.Sprintf("%d", pid)})

	if err = s.store.Save(ctx, proc); err != nil {
		return nil, fmt.Errorf("failed to save process: %w", err)
	}

	s.lp.Schedule(0, func(ctx context.Context) {
		s.activate(ctx, proc)
	})
	progress.UpdateCtx(ctx, progress.Delta{Processes: 1})
	ctxlog.From(ctx).Debug("process started",
		"node", s.node, "pid", pid, "program", program.Name, "tasks", len(program.Tasks))
	return proc, nil
}

// Process returns the record for pid.
func (s *Service) Process(ctx context.Context, pid int) (*Process, error) {
	proc, err := s.store.Load(ctx, pid)
	if err != nil {
		return nil, err
	}
	if proc == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProcess, pid)
	}
	return proc, nil
}

// Processes lists every live process record of the node.
func (s *Service) Processes(ctx context.Context, parameters ...*dao.Parameter) ([]*Process, error) {
	return s.store.List(ctx, parameters...)
}

// Teardown releases every qubit slot the process still holds and discards
// its record. Tearing down a process with sessions in flight fails those
// sessions on their next memory operation.
func (s *Service) Teardown(ctx context.Context, pid int) error {
	proc, err := s.Process(ctx, pid)
	if err != nil {
		return err
	}
	if !proc.Terminal() {
		ctxlog.From(ctx).Warn("tearing down unfinished process",
			"node", s.node, "pid", pid, "state", proc.State)
	}
	freed := s.mem.ReleaseProcess(ctx, pid)
	if err := s.store.Delete(ctx, pid); err != nil {
		return err
	}
	ctxlog.From(ctx).Debug("process torn down", "node", s.node, "pid", pid, "freedSlots", freed)
	return nil
}

// activate moves a pending process to running and walks its first tasks.
func (s *Service) activate(ctx context.Context, proc *Process) {
	if proc.State != StatePending {
		return
	}
	proc.SetState(StateRunning, s.lp.Now())
	progress.UpdateCtx(ctx, progress.Delta{Running: 1})
	s.step(ctx, proc)
}

// step advances the program until it parks, schedules, finishes or fails.
// Entanglement tasks are non-blocking submissions; only wait_pairs and timed
// local blocks suspend the walk.
func (s *Service) step(ctx context.Context, proc *Process) {
	for proc.State == StateRunning {
		task := proc.Task()
		if task == nil {
			s.complete(ctx, proc)
			return
		}
		switch task.Kind {
		case model.TaskLocal:
			proc.cursor++
			if task.Duration > 0 {
				s.lp.Schedule(task.Duration, func(ctx context.Context) {
					s.resume(ctx, proc)
				})
				return
			}
		case model.TaskEprCreate:
			key, err := s.net.StartInitiator(ctx, proc.PID, task.Request)
			if err != nil {
				s.fail(ctx, proc, task.ID, err)
				return
			}
			proc.keys = append(proc.keys, key)
			proc.cursor++
		case model.TaskEprRecv:
			key, err := s.net.StartReceiver(ctx, proc.PID, task.Request)
			if err != nil {
				s.fail(ctx, proc, task.ID, err)
				return
			}
			proc.keys = append(proc.keys, key)
			proc.cursor++
		case model.TaskWaitPairs:
			if proc.results != nil && proc.results.Complete(task.Wait.From, task.Wait.To) {
				proc.cursor++
				continue
			}
			proc.awaiting = task.Wait
			proc.SetState(StateWaiting, s.lp.Now())
			progress.UpdateCtx(ctx, progress.Delta{Running: -1, Waiting: 1})
			ctxlog.From(ctx).Debug("process waiting for pairs",
				"node", s.node, "pid", proc.PID, "from", task.Wait.From, "to", task.Wait.To)
			return
		default:
			s.fail(ctx, proc, task.ID, fmt.Errorf("unsupported task kind %q", task.Kind))
			return
		}
	}
}

// resume continues a running process after a timed local block.
func (s *Service) resume(ctx context.Context, proc *Process) {
	if proc.State != StateRunning {
		return
	}
	s.step(ctx, proc)
}

// SessionActivated records the session's result buffer; subsequent wait
// ranges refer to it.
func (s *Service) SessionActivated(ctx context.Context, pid int, key session.Key, results *result.Buffer) {
	proc := s.lookup(ctx, pid)
	if proc == nil {
		return
	}
	proc.adoptBuffer(key, results)
}

// NotifyPairsReady accounts the delivered pair, re-checks a parked wait
// range and resumes the process once every record in it is written.
// Notifications for ranges the process is not waiting on are harmless.
func (s *Service) NotifyPairsReady(ctx context.Context, pid int, pairs model.PairRange) {
	progress.UpdateCtx(ctx, progress.Delta{Pairs: 1})
	proc := s.lookup(ctx, pid)
	if proc == nil || proc.State != StateWaiting || proc.awaiting == nil {
		return
	}
	if proc.results == nil || !proc.results.Complete(proc.awaiting.From, proc.awaiting.To) {
		return
	}
	ctxlog.From(ctx).Debug("pair range complete, process resuming",
		"node", s.node, "pid", pid, "from", proc.awaiting.From, "to", proc.awaiting.To,
		"ready", pairs.To)
	proc.awaiting = nil
	proc.cursor++
	proc.SetState(StateRunning, s.lp.Now())
	progress.UpdateCtx(ctx, progress.Delta{Waiting: -1, Running: 1})
	s.step(ctx, proc)
}

// RequestFailed marks the whole process failed: a fatal session error never
// yields the remaining pairs a wait range would need.
func (s *Service) RequestFailed(ctx context.Context, pid int, key session.Key, err error) {
	proc := s.lookup(ctx, pid)
	if proc == nil || proc.Terminal() {
		return
	}
	delta := progress.Delta{Failed: 1}
	switch proc.State {
	case StateRunning:
		delta.Running = -1
	case StateWaiting:
		delta.Waiting = -1
	}
	proc.Errors[key.String()] = err.Error()
	proc.SetState(StateFailed, s.lp.Now())
	progress.UpdateCtx(ctx, delta)
	tracing.EndSpan(proc.Span, err)
	ctxlog.From(ctx).Error("process failed",
		"node", s.node, "pid", pid, "session", key, "err", err)
}

// RequestCompleted records the end of one session; the final pair's
// NotifyPairsReady has already resumed any parked wait.
func (s *Service) RequestCompleted(ctx context.Context, pid int, key session.Key) {
	ctxlog.From(ctx).Debug("entanglement request completed",
		"node", s.node, "pid", pid, "session", key)
}

func (s *Service) complete(ctx context.Context, proc *Process) {
	proc.SetState(StateCompleted, s.lp.Now())
	progress.UpdateCtx(ctx, progress.Delta{Running: -1, Completed: 1})
	tracing.EndSpan(proc.Span, nil)
	s.metrics.IncProcessesCompleted()
	ctxlog.From(ctx).Debug("process completed",
		"node", s.node, "pid", proc.PID, "program", proc.Name)
}

// fail is only reached from step, while the process is still running.
func (s *Service) fail(ctx context.Context, proc *Process, taskID string, err error) {
	proc.Errors[taskID] = err.Error()
	proc.SetState(StateFailed, s.lp.Now())
	progress.UpdateCtx(ctx, progress.Delta{Running: -1, Failed: 1})
	tracing.EndSpan(proc.Span, err)
	ctxlog.From(ctx).Error("process failed",
		"node", s.node, "pid", proc.PID, "task", taskID, "err", err)
}

// coerceParams converts resolved values to their declared data types using
// the shared type registry. Without a registry, declarations are taken as
// documentation only.
func (s *Service) coerceParams(values map[string]interface{}, declared state.Parameters) error {
	if s.types == nil {
		return nil
	}
	for _, p := range declared {
		if p.DataType == "" {
			continue
		}
		value, ok := values[p.Name]
		if !ok || value == nil {
			continue
		}
		xType := s.types.Lookup(p.DataType)
		if xType == nil {
			return fmt.Errorf("parameter %s declares unknown data type %q", p.Name, p.DataType)
		}
		if reflect.TypeOf(value) == xType.Type {
			continue
		}
		dest := reflect.New(xType.Type)
		if err := s.converter.Convert(value, dest.Interface()); err != nil {
			return fmt.Errorf("failed to convert parameter %s to %s: %w", p.Name, p.DataType, err)
		}
		values[p.Name] = dest.Elem().Interface()
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, pid int) *Process {
	proc, err := s.store.Load(ctx, pid)
	if err != nil {
		ctxlog.From(ctx).Warn("process store lookup failed", "node", s.node, "pid", pid, "err", err)
		return nil
	}
	return proc
}

// mergedParams overlays caller input onto the program's declared parameters
// without touching the shared program definition. A declared parameter with
// a location binding and no value resolves from the named source first, so
// explicit input still wins.
func mergedParams(declared state.Parameters, input map[string]interface{}) map[string]interface{} {
	params := make(state.Parameters, 0, len(declared))
	for _, p := range declared {
		cp := *p
		params = append(params, &cp)
	}
	for _, p := range params {
		if p.Value != nil || p.Location == nil {
			continue
		}
		switch p.Location.Kind {
		case "env":
			if v, ok := os.LookupEnv(p.Location.In); ok {
				p.Value = v
			}
		case "input":
			name := p.Location.In
			if name == "" {
				name = p.Name
			}
			if v, ok := input[name]; ok {
				p.Value = v
			}
		}
	}
	params.Merge(input)
	return params.AsMap()
}
