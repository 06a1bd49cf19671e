// Package network models the simulated network topology: the nodes, the
// physical links joining them and the parameters of the scheduler
// arbitrating link time between node pairs.
package network

import (
	"fmt"
	"time"

	"github.com/qnetlab/qnos/model"
)

// Policy names a link scheduler implementation.
type Policy string

const (
	// PolicyFIFO admits node pairs first-come-first-served up to a
	// concurrency limit, with open-ended slots.
	PolicyFIFO Policy = "fifo"
	// PolicyDTW serves the largest backlog first in fixed-length windows
	// derived from link attenuation.
	PolicyDTW Policy = "dtw"
)

// Valid reports whether p names a known policy.
func (p Policy) Valid() bool {
	switch p {
	case PolicyFIFO, PolicyDTW:
		return true
	}
	return false
}

// SchedulerSpec parameterizes the scheduler arbitrating link time across
// all node pairs of the topology. A single scheduler instance serves the
// whole network, mirroring a central entanglement generation switch.
type SchedulerSpec struct {
	Policy           Policy        `json:"policy" yaml:"policy"`
	MaxMultiplexing  int           `json:"maxMultiplexing" yaml:"maxMultiplexing"`
	SwitchTime       time.Duration `json:"switchTime" yaml:"switchTime"`
	TimeWindowPrefix float64       `json:"timeWindowPrefix" yaml:"timeWindowPrefix"`
	ProbInit         float64       `json:"probInit" yaml:"probInit"`
	CLightNsPerKm    float64       `json:"cLightNsPerKm" yaml:"cLightNsPerKm"`
	StaticDelay      time.Duration `json:"staticDelay" yaml:"staticDelay"`
	AttenuationKm    float64       `json:"attenuationKm" yaml:"attenuationKm"`
	MaxRepeats       int           `json:"maxRepeats" yaml:"maxRepeats"`
}

// Defaults fills unset fields with the standard operating point: a single
// multiplexed pair, 1 us of switch dead time, unit window prefix and success
// probability, fibre attenuation length of 30.5 km, light speed of 5000
// ns/km and a 10000-cycle safety bound.
func (s *SchedulerSpec) Defaults() {
	if s.Policy == "" {
		s.Policy = PolicyFIFO
	}
	if s.MaxMultiplexing <= 0 {
		s.MaxMultiplexing = 1
	}
	if s.SwitchTime <= 0 {
		s.SwitchTime = 1000 * time.Nanosecond
	}
	if s.TimeWindowPrefix <= 0 {
		s.TimeWindowPrefix = 1
	}
	if s.ProbInit <= 0 {
		s.ProbInit = 1
	}
	if s.CLightNsPerKm <= 0 {
		s.CLightNsPerKm = 5000
	}
	if s.AttenuationKm <= 0 {
		s.AttenuationKm = 30.5
	}
	if s.MaxRepeats <= 0 {
		s.MaxRepeats = 10000
	}
}

// Validate rejects unknown policies.
func (s *SchedulerSpec) Validate() error {
	if !s.Policy.Valid() {
		return fmt.Errorf("unsupported scheduler policy %q", s.Policy)
	}
	return nil
}

// Node couples a name with its physical qubit layout.
type Node struct {
	Name     string         `json:"name" yaml:"name"`
	Hardware model.Hardware `json:"hardware" yaml:"hardware"`
}

// Link joins two nodes. Lengths are the distances from each node to the
// midpoint source, in kilometres; they drive the weighted-window sizing.
type Link struct {
	NodeA     string  `json:"nodeA" yaml:"nodeA"`
	NodeB     string  `json:"nodeB" yaml:"nodeB"`
	LengthAKm float64 `json:"lengthAKm" yaml:"lengthAKm"`
	LengthBKm float64 `json:"lengthBKm" yaml:"lengthBKm"`
}

// Joins reports whether the link connects a and b, in either order.
func (l *Link) Joins(a, b string) bool {
	return (l.NodeA == a && l.NodeB == b) || (l.NodeA == b && l.NodeB == a)
}

// Topology is the loadable network artifact.
type Topology struct {
	Name      string        `json:"name" yaml:"name"`
	Nodes     []Node        `json:"nodes" yaml:"nodes"`
	Links     []Link        `json:"links" yaml:"links"`
	Scheduler SchedulerSpec `json:"scheduler" yaml:"scheduler"`
}

// Node returns the named node.
func (t *Topology) Node(name string) (*Node, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].Name == name {
			return &t.Nodes[i], true
		}
	}
	return nil, false
}

// Link returns the link joining a and b, in either order.
func (t *Topology) Link(a, b string) (*Link, bool) {
	for i := range t.Links {
		if t.Links[i].Joins(a, b) {
			return &t.Links[i], true
		}
	}
	return nil, false
}

// Validate checks node references, hardware layouts and scheduler specs;
// it also applies scheduler defaults so loaded topologies are ready to use.
func (t *Topology) Validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("topology has no nodes")
	}
	seen := map[string]bool{}
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Name == "" {
			return fmt.Errorf("node %d requires a name", i)
		}
		if seen[n.Name] {
			return fmt.Errorf("duplicate node %v", n.Name)
		}
		seen[n.Name] = true
		if err := n.Hardware.Validate(); err != nil {
			return fmt.Errorf("node %v: %w", n.Name, err)
		}
	}
	for i := range t.Links {
		l := &t.Links[i]
		if !seen[l.NodeA] || !seen[l.NodeB] {
			return fmt.Errorf("link %d references unknown node %v-%v", i, l.NodeA, l.NodeB)
		}
		if l.NodeA == l.NodeB {
			return fmt.Errorf("link %d joins node %v to itself", i, l.NodeA)
		}
	}
	t.Scheduler.Defaults()
	if err := t.Scheduler.Validate(); err != nil {
		return fmt.Errorf("topology %v: %w", t.Name, err)
	}
	return nil
}
