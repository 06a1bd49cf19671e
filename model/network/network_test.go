package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/qnetlab/qnos/model"
)

func twoNodeTopology() *Topology {
	return &Topology{
		Name: "pair",
		Nodes: []Node{
			{Name: "alice", Hardware: model.Hardware{Slots: []model.Slot{{ID: 0, Traits: model.TraitSet{model.CommCapable}}}}},
			{Name: "bob", Hardware: model.Hardware{Slots: []model.Slot{{ID: 0, Traits: model.TraitSet{model.CommCapable}}}}},
		},
		Links: []Link{
			{NodeA: "alice", NodeB: "bob", LengthAKm: 10, LengthBKm: 15},
		},
		Scheduler: SchedulerSpec{Policy: PolicyDTW},
	}
}

func TestTopologyValidateAppliesDefaults(t *testing.T) {
	topo := twoNodeTopology()
	assert.NoError(t, topo.Validate())

	_, ok := topo.Link("bob", "alice")
	assert.True(t, ok, "link lookup is order independent")
	assert.Equal(t, PolicyDTW, topo.Scheduler.Policy)
	assert.Equal(t, 1, topo.Scheduler.MaxMultiplexing)
	assert.Equal(t, 1000*time.Nanosecond, topo.Scheduler.SwitchTime)
	assert.Equal(t, 30.5, topo.Scheduler.AttenuationKm)
	assert.Equal(t, 10000, topo.Scheduler.MaxRepeats)
	assert.Equal(t, float64(5000), topo.Scheduler.CLightNsPerKm)
}

func TestTopologyValidateRejects(t *testing.T) {
	topo := twoNodeTopology()
	topo.Links[0].NodeB = "charlie"
	assert.Error(t, topo.Validate(), "unknown link endpoint")

	topo = twoNodeTopology()
	topo.Links[0].NodeB = "alice"
	assert.Error(t, topo.Validate(), "self link")

	topo = twoNodeTopology()
	topo.Nodes = append(topo.Nodes, Node{Name: "alice"})
	assert.Error(t, topo.Validate(), "duplicate node")

	topo = twoNodeTopology()
	topo.Scheduler.Policy = "round_robin"
	assert.Error(t, topo.Validate(), "unknown policy")
}

func TestPolicyValid(t *testing.T) {
	assert.True(t, PolicyFIFO.Valid())
	assert.True(t, PolicyDTW.Valid())
	assert.False(t, Policy("round_robin").Valid())
}
