package qnos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/qnetlab/qnos/internal/observability"
	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/model/network"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/service/dao"
	networkdao "github.com/qnetlab/qnos/service/dao/network"
	"github.com/qnetlab/qnos/service/dao/program"
	"github.com/qnetlab/qnos/service/dao/unitmodule"
	"github.com/qnetlab/qnos/service/egp/perfect"
	"github.com/qnetlab/qnos/service/event"
	"github.com/qnetlab/qnos/service/linksched"
	"github.com/qnetlab/qnos/service/memmgr"
	"github.com/qnetlab/qnos/service/netstack"
	"github.com/qnetlab/qnos/service/procsched"
)

// ErrUnknownNode is returned for node names absent from the topology.
var ErrUnknownNode = errors.New("qnos: unknown node")

// Node bundles the services instantiated for one topology node.
type Node struct {
	Name      string
	Memory    *memmgr.Manager
	Netstack  *netstack.Processor
	Scheduler *procsched.Service
}

// Runtime drives an assembled simulation: it owns the event loop, the
// per-node services and the shared link layer, and loads the artifacts
// programs run from.
type Runtime struct {
	loop      *loop.Loop
	bus       *event.Service
	metrics   *observability.Collector
	topology  *network.Topology
	board     *linksched.Board
	linkSched linksched.Scheduler
	egs       *perfect.Service
	nodes     map[string]*Node

	programDAO  *program.Service
	moduleDAO   *unitmodule.Service
	topologyDAO *networkdao.Service
	archive     dao.Service[int, procsched.Output]

	maxEvents int
}

// Topology returns the built topology, nil when none was configured.
func (r *Runtime) Topology() *network.Topology {
	return r.topology
}

// Now returns the current simulated time.
func (r *Runtime) Now() time.Time {
	return r.loop.Now()
}

// Metrics returns the shared metrics collector.
func (r *Runtime) Metrics() *observability.Collector {
	return r.metrics
}

// Node returns the named node's services.
func (r *Runtime) Node(name string) (*Node, bool) {
	n, ok := r.nodes[name]
	return n, ok
}

// Nodes returns every node sorted by name.
func (r *Runtime) Nodes() []*Node {
	ret := make([]*Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		ret = append(ret, n)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}

// LoadProgram loads a program
func (r *Runtime) LoadProgram(ctx context.Context, location string) (*model.Program, error) {
	return r.programDAO.Load(ctx, location)
}

// DecodeYAMLProgram decodes a program from YAML bytes
func (r *Runtime) DecodeYAMLProgram(data []byte) (*model.Program, error) {
	return r.programDAO.DecodeYAML(data)
}

// LoadUnitModule loads a unit module definition
func (r *Runtime) LoadUnitModule(ctx context.Context, location string) (*model.UnitModule, error) {
	return r.moduleDAO.Load(ctx, location)
}

// LoadTopology loads a network topology
func (r *Runtime) LoadTopology(ctx context.Context, location string) (*network.Topology, error) {
	return r.topologyDAO.Load(ctx, location)
}

// StartProcess registers a program on the named node and schedules its
// first step. When module is nil the program's declared unit module is
// loaded via the meta service.
func (r *Runtime) StartProcess(ctx context.Context, node string, program *model.Program, module *model.UnitModule, input map[string]interface{}) (*procsched.Process, error) {
	n, ok := r.nodes[node]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, node)
	}
	if module == nil && program != nil && program.UnitModule != "" {
		loaded, err := r.moduleDAO.Load(ctx, program.UnitModule)
		if err != nil {
			return nil, fmt.Errorf("failed to load unit module %s: %w", program.UnitModule, err)
		}
		module = loaded
	}
	return n.Scheduler.StartProcess(ctx, program, module, input)
}

// Run fires queued events until the loop drains or ctx is cancelled,
// returning the number of events processed. A positive run.maxEvents
// configuration bounds the run instead.
func (r *Runtime) Run(ctx context.Context) int {
	if r.maxEvents <= 0 {
		return r.loop.Drain(ctx)
	}
	processed := 0
	for processed < r.maxEvents && ctx.Err() == nil && r.loop.Step(ctx) {
		processed++
	}
	return processed
}

// RunUntil fires events up to and including simulated instant t.
func (r *Runtime) RunUntil(ctx context.Context, t time.Time) int {
	return r.loop.RunUntil(ctx, t)
}

// Pending returns the number of queued events.
func (r *Runtime) Pending() int {
	return r.loop.Pending()
}

// Process returns the process with the given pid, searching every node.
func (r *Runtime) Process(ctx context.Context, pid int) (*procsched.Process, error) {
	for _, n := range r.Nodes() {
		proc, err := n.Scheduler.Process(ctx, pid)
		if err != nil {
			if errors.Is(err, procsched.ErrUnknownProcess) {
				continue
			}
			return nil, err
		}
		return proc, nil
	}
	return nil, fmt.Errorf("%w: %d", procsched.ErrUnknownProcess, pid)
}

// Processes lists the live processes of every node.
func (r *Runtime) Processes(ctx context.Context, parameters ...*dao.Parameter) ([]*procsched.Process, error) {
	var ret []*procsched.Process
	for _, n := range r.Nodes() {
		procs, err := n.Scheduler.Processes(ctx, parameters...)
		if err != nil {
			return nil, err
		}
		ret = append(ret, procs...)
	}
	return ret, nil
}

// Teardown releases the process's qubit slots and discards its record on
// whichever node owns it.
func (r *Runtime) Teardown(ctx context.Context, pid int) error {
	for _, n := range r.Nodes() {
		err := n.Scheduler.Teardown(ctx, pid)
		if err == nil {
			return nil
		}
		if !errors.Is(err, procsched.ErrUnknownProcess) {
			return err
		}
	}
	return fmt.Errorf("%w: %d", procsched.ErrUnknownProcess, pid)
}

// Archive saves the output of every terminal process to the archive store
// and returns how many records were written.
func (r *Runtime) Archive(ctx context.Context) (int, error) {
	if r.archive == nil {
		return 0, fmt.Errorf("no archive store configured")
	}
	procs, err := r.Processes(ctx)
	if err != nil {
		return 0, err
	}
	saved := 0
	for _, proc := range procs {
		if !proc.Terminal() {
			continue
		}
		if err := r.archive.Save(ctx, proc.Output()); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

// ArchivedOutput loads a previously archived process output.
func (r *Runtime) ArchivedOutput(ctx context.Context, pid int) (*procsched.Output, error) {
	if r.archive == nil {
		return nil, fmt.Errorf("no archive store configured")
	}
	return r.archive.Load(ctx, pid)
}
