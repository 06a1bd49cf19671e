package qnos

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/x"

	"github.com/qnetlab/qnos/extension"
	"github.com/qnetlab/qnos/internal/ctxlog"
	"github.com/qnetlab/qnos/internal/observability"
	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/model/network"
	"github.com/qnetlab/qnos/model/request"
	"github.com/qnetlab/qnos/model/result"
	"github.com/qnetlab/qnos/policy"
	"github.com/qnetlab/qnos/progress"
	"github.com/qnetlab/qnos/runtime/loop"
	networkdao "github.com/qnetlab/qnos/service/dao/network"
	pfs "github.com/qnetlab/qnos/service/dao/process/fs"
	pmemory "github.com/qnetlab/qnos/service/dao/process/memory"
	"github.com/qnetlab/qnos/service/dao/program"
	"github.com/qnetlab/qnos/service/dao/unitmodule"
	"github.com/qnetlab/qnos/service/egp/perfect"
	"github.com/qnetlab/qnos/service/event"
	"github.com/qnetlab/qnos/service/linksched"
	"github.com/qnetlab/qnos/service/linksched/dtw"
	"github.com/qnetlab/qnos/service/linksched/fifo"
	"github.com/qnetlab/qnos/service/memmgr"
	mmemory "github.com/qnetlab/qnos/service/messaging/memory"
	"github.com/qnetlab/qnos/service/meta"
	"github.com/qnetlab/qnos/service/netstack"
	"github.com/qnetlab/qnos/service/procsched"
)

// policyRegistration defers a scheduler factory override until the
// registries exist.
type policyRegistration struct {
	policy  network.Policy
	factory extension.PolicyFactory
}

// Service assembles a simulated network from a topology and exposes its
// runtime.
type Service struct {
	config  *Config
	runtime *Runtime

	metaService   *meta.Service
	metaBaseURL   string
	metaFsOptions []storage.Option

	policies        *extension.Policies
	extensionTypes  []*x.Type
	policyOverrides []policyRegistration

	netstackOptions []netstack.Option
	egpOptions      []perfect.Option

	registry prometheus.Registerer
	logger   *slog.Logger

	topology       *network.Topology
	topologyURL    string
	archiveURL     string
	channelLatency *time.Duration
}

// New creates a service with the supplied options and, when a topology was
// provided, builds its network.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.ensureBaseSetup(); err != nil {
		return err
	}
	return s.buildNetwork(context.Background())
}

func (s *Service) ensureBaseSetup() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.metaBaseURL == "" {
		s.metaBaseURL = s.config.Meta.BaseURL
	}
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), s.metaBaseURL, s.metaFsOptions...)
	}
	if s.archiveURL == "" {
		s.archiveURL = s.config.Archive.URL
	}
	if s.registry == nil {
		s.registry = prometheus.DefaultRegisterer
	}
	metrics, err := observability.NewCollector(s.registry)
	if err != nil {
		return err
	}
	s.policies = extension.NewPolicies(append(defaultTypes(), s.extensionTypes...)...)
	s.policies.Register(network.PolicyFIFO, func(spec network.SchedulerSpec, _ []network.Link, lp *loop.Loop, board *linksched.Board, metrics *observability.Collector) linksched.Scheduler {
		return fifo.New(spec, lp, board, metrics)
	})
	s.policies.Register(network.PolicyDTW, func(spec network.SchedulerSpec, links []network.Link, lp *loop.Loop, board *linksched.Board, metrics *observability.Collector) linksched.Scheduler {
		return dtw.New(spec, links, lp, board, metrics)
	})
	for _, registration := range s.policyOverrides {
		s.policies.Register(registration.policy, registration.factory)
	}

	s.runtime = &Runtime{
		loop:      loop.New(),
		bus:       event.New(),
		metrics:   metrics,
		nodes:     map[string]*Node{},
		maxEvents: s.config.Run.MaxEvents,
	}
	s.runtime.programDAO = program.New(program.WithMetaService(s.metaService))
	s.runtime.moduleDAO = unitmodule.New(unitmodule.WithMetaService(s.metaService))
	s.runtime.topologyDAO = networkdao.New(networkdao.WithMetaService(s.metaService))
	if s.archiveURL != "" {
		archive, err := pfs.New(s.archiveURL)
		if err != nil {
			return err
		}
		s.runtime.archive = archive
	}
	return nil
}

// buildNetwork instantiates the per-node services and wires the link layer
// for the configured topology.
func (s *Service) buildNetwork(ctx context.Context) error {
	if s.topology == nil && s.topologyURL != "" {
		topology, err := s.runtime.topologyDAO.Load(ctx, s.topologyURL)
		if err != nil {
			return err
		}
		s.topology = topology
	}
	if s.topology == nil {
		return nil
	}
	if err := s.topology.Validate(); err != nil {
		return err
	}
	r := s.runtime
	r.topology = s.topology
	factory := s.policies.Lookup(s.topology.Scheduler.Policy)
	if factory == nil {
		return fmt.Errorf("no factory registered for scheduler policy %q", s.topology.Scheduler.Policy)
	}
	r.board = linksched.NewBoard(r.loop, r.bus, r.metrics)
	r.linkSched = factory(s.topology.Scheduler, s.topology.Links, r.loop, r.board, r.metrics)
	r.egs = perfect.New(r.loop, r.bus, r.linkSched, r.metrics, s.egpOptions...)

	// One pid sequence across all nodes keeps process ids unique in
	// pid-keyed stores.
	pids := procsched.NewPIDSequence()
	for i := range s.topology.Nodes {
		n := &s.topology.Nodes[i]
		memory := memmgr.New(n.Name, &n.Hardware, r.bus, r.loop)
		scheduler := procsched.New(n.Name, r.loop, memory,
			procsched.WithMetrics(r.metrics),
			procsched.WithStore(pmemory.New()),
			procsched.WithTypes(s.policies.Types()),
			procsched.WithPIDSource(pids))
		stackOptions := append([]netstack.Option{
			netstack.WithCorrector(r.egs),
			netstack.WithNotifier(scheduler),
			netstack.WithMetrics(r.metrics),
		}, s.netstackOptions...)
		stack := netstack.New(n.Name, r.loop, r.bus, memory, r.egs, stackOptions...)
		scheduler.Bind(stack)
		r.nodes[n.Name] = &Node{
			Name:      n.Name,
			Memory:    memory,
			Netstack:  stack,
			Scheduler: scheduler,
		}
	}

	for _, link := range s.topology.Links {
		channelA, channelB := mmemory.NewDuplex[request.Packet](r.loop, link.NodeA, link.NodeB, mmemory.Config{Latency: s.linkLatency(link)})
		r.nodes[link.NodeA].Netstack.Connect(channelA)
		r.nodes[link.NodeB].Netstack.Connect(channelB)
	}
	return nil
}

func (s *Service) linkLatency(link network.Link) time.Duration {
	if s.channelLatency != nil {
		return *s.channelLatency
	}
	km := link.LengthAKm + link.LengthBKm
	return time.Duration(km*s.topology.Scheduler.CLightNsPerKm) * time.Nanosecond
}

// defaultTypes seeds the data type registry with the Go types programs
// commonly declare for parameters and results.
func defaultTypes() []*x.Type {
	return []*x.Type{
		x.NewType(reflect.TypeOf("")),
		x.NewType(reflect.TypeOf(0)),
		x.NewType(reflect.TypeOf(int64(0))),
		x.NewType(reflect.TypeOf(float64(0))),
		x.NewType(reflect.TypeOf(false)),
		x.NewType(reflect.TypeOf(time.Duration(0))),
		x.NewType(reflect.TypeOf(request.EprRequest{})),
		x.NewType(reflect.TypeOf(model.PairRange{})),
		x.NewType(reflect.TypeOf(result.PairResult{})),
		x.NewType(reflect.TypeOf(policy.Policy{})),
	}
}

// RegisterExtensionTypes adds Go types to the data type registry after
// construction.
func (s *Service) RegisterExtensionTypes(types ...*x.Type) {
	for i := range types {
		if types[i] == nil {
			continue
		}
		s.policies.Types().Register(types[i])
	}
}

// Runtime returns the assembled runtime.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// NewContext returns a context carrying the service logger and a fresh
// progress tracker for the topology.
func (s *Service) NewContext(ctx context.Context) (context.Context, *progress.Progress) {
	if s.logger != nil {
		ctx = ctxlog.With(ctx, s.logger)
	}
	name := ""
	if s.topology != nil {
		name = s.topology.Name
	}
	return progress.WithNewTracker(ctx, name, nil)
}
