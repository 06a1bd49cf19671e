package extension

import (
	"sync"

	"github.com/viant/x"

	"github.com/qnetlab/qnos/internal/observability"
	"github.com/qnetlab/qnos/model/network"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/service/linksched"
)

// PolicyFactory builds the link scheduler implementing one admission
// policy. Factories receive the topology's links because window based
// policies plan around signal travel times; others ignore them.
type PolicyFactory func(spec network.SchedulerSpec, links []network.Link, lp *loop.Loop, board *linksched.Board, metrics *observability.Collector) linksched.Scheduler

// Policies maps admission policy names to scheduler factories.
type Policies struct {
	types     *Types
	factories map[network.Policy]PolicyFactory
	mux       sync.RWMutex
}

func (s *Policies) Types() *Types {
	return s.types
}

// Lookup returns the factory registered for the policy, or nil.
func (s *Policies) Lookup(policy network.Policy) PolicyFactory {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.factories[policy]
}

// Register installs a factory under the policy name, replacing any
// previous registration.
func (s *Policies) Register(policy network.Policy, factory PolicyFactory) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.factories[policy] = factory
}

// NewPolicies creates a policy registry together with its data type
// registry, seeded with the given types.
func NewPolicies(goTypes ...*x.Type) *Policies {
	ret := &Policies{
		types:     NewTypes(),
		factories: make(map[network.Policy]PolicyFactory),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
