package qnos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnetlab/qnos/internal/observability"
	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/model/network"
	"github.com/qnetlab/qnos/model/request"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/service/linksched"
	"github.com/qnetlab/qnos/service/linksched/fifo"
	"github.com/qnetlab/qnos/service/procsched"
)

func labSlots() []model.Slot {
	return []model.Slot{
		{ID: 0, Traits: model.TraitSet{model.CommCapable, model.StorageCapable}},
		{ID: 1, Traits: model.TraitSet{model.CommCapable, model.StorageCapable}},
	}
}

func labTopology() *network.Topology {
	return &network.Topology{
		Name: "lab",
		Nodes: []network.Node{
			{Name: "alice", Hardware: model.Hardware{Slots: labSlots()}},
			{Name: "bob", Hardware: model.Hardware{Slots: labSlots()}},
		},
		Links:     []network.Link{{NodeA: "alice", NodeB: "bob"}},
		Scheduler: network.SchedulerSpec{Policy: network.PolicyFIFO},
	}
}

func clientProgram() *model.Program {
	return &model.Program{
		Name:       "client",
		UnitModule: "comm",
		Tasks: []*model.Task{
			{Kind: model.TaskEprCreate, Request: &request.EprRequest{
				RemoteNode: "bob",
				PurposeID:  1,
				Kind:       request.CreateAndKeep,
				NumPairs:   1,
				VirtIDs:    []int{0},
			}},
			{Kind: model.TaskWaitPairs, Wait: &model.PairRange{From: 0, To: 1}},
		},
	}
}

func serverProgram() *model.Program {
	return &model.Program{
		Name:       "server",
		UnitModule: "comm",
		Tasks: []*model.Task{
			{Kind: model.TaskEprRecv, Request: &request.EprRequest{
				RemoteNode: "alice",
				PurposeID:  1,
				VirtIDs:    []int{0},
			}},
			{Kind: model.TaskWaitPairs, Wait: &model.PairRange{From: 0, To: 1}},
		},
	}
}

func commModule() *model.UnitModule {
	return &model.UnitModule{
		Name:   "comm",
		Qubits: []model.VirtualQubit{{ID: 0, Traits: model.TraitSet{model.CommCapable}}},
	}
}

func TestNewWithoutTopology(t *testing.T) {
	srv, err := New()
	require.NoError(t, err)

	r := srv.Runtime()
	assert.Nil(t, r.Topology())
	assert.Empty(t, r.Nodes())
	assert.Equal(t, 0, r.Run(context.Background()))

	_, err = r.Archive(context.Background())
	assert.EqualError(t, err, "no archive store configured")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(WithConfig(&Config{Run: RunConfig{MaxEvents: -1}}))
	assert.Error(t, err)
}

func TestRuntimeRunBounded(t *testing.T) {
	srv, err := New(WithConfig(&Config{Run: RunConfig{MaxEvents: 3}}))
	require.NoError(t, err)

	r := srv.Runtime()
	fired := 0
	for i := 0; i < 5; i++ {
		r.loop.Schedule(time.Duration(i)*time.Microsecond, func(context.Context) { fired++ })
	}
	assert.Equal(t, 3, r.Run(context.Background()))
	assert.Equal(t, 3, fired)
	assert.Equal(t, 2, r.Pending())
}

func TestRuntimeArchive(t *testing.T) {
	srv, err := New(WithTopology(labTopology()), WithArchiveURL(t.TempDir()))
	require.NoError(t, err)

	r := srv.Runtime()
	ctx, _ := srv.NewContext(context.Background())
	alice, err := r.StartProcess(ctx, "alice", clientProgram(), commModule(), nil)
	require.NoError(t, err)
	bob, err := r.StartProcess(ctx, "bob", serverProgram(), commModule(), nil)
	require.NoError(t, err)
	r.Run(ctx)
	require.Equal(t, procsched.StateCompleted, alice.State)
	require.Equal(t, procsched.StateCompleted, bob.State)

	saved, err := r.Archive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	out, err := r.ArchivedOutput(ctx, bob.PID)
	require.NoError(t, err)
	assert.Equal(t, "bob", out.Node)
	assert.Equal(t, procsched.StateCompleted, out.State)
	require.Len(t, out.Records, 1)
	assert.True(t, out.Records[0].Success)
}

func TestWithPolicyOverridesFactory(t *testing.T) {
	called := false
	custom := func(spec network.SchedulerSpec, links []network.Link, lp *loop.Loop, board *linksched.Board, metrics *observability.Collector) linksched.Scheduler {
		called = true
		return fifo.New(spec, lp, board, metrics)
	}
	srv, err := New(WithTopology(labTopology()), WithPolicy(network.PolicyFIFO, custom))
	require.NoError(t, err)
	assert.True(t, called)
	assert.NotNil(t, srv.Runtime())
}
