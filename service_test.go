package qnos_test

import (
	"context"
	"embed"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/viant/afs/embed"

	"github.com/qnetlab/qnos"
	"github.com/qnetlab/qnos/service/dao"
	"github.com/qnetlab/qnos/service/procsched"
)

//go:embed testdata/*
var embedFS embed.FS

func newLabService(t *testing.T, options ...qnos.Option) *qnos.Service {
	t.Helper()
	options = append([]qnos.Option{
		qnos.WithMetaFsOptions(&embedFS),
		qnos.WithMetaBaseURL("embed:///testdata"),
		qnos.WithTopologyLocation("lab"),
	}, options...)
	srv, err := qnos.New(options...)
	require.NoError(t, err)
	return srv
}

func TestServiceBuildsTopology(t *testing.T) {
	srv := newLabService(t)

	rt := srv.Runtime()
	topology := rt.Topology()
	require.NotNil(t, topology)
	assert.Equal(t, "lab", topology.Name)

	nodes := rt.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "alice", nodes[0].Name)
	assert.Equal(t, "bob", nodes[1].Name)

	alice, ok := rt.Node("alice")
	require.True(t, ok)
	assert.NotNil(t, alice.Memory)
	assert.NotNil(t, alice.Netstack)
	assert.NotNil(t, alice.Scheduler)
}

func TestServiceRunsPrograms(t *testing.T) {
	srv := newLabService(t)
	rt := srv.Runtime()
	ctx, tracker := srv.NewContext(context.Background())

	client, err := rt.LoadProgram(ctx, "epr_client")
	require.NoError(t, err)
	server, err := rt.LoadProgram(ctx, "epr_server")
	require.NoError(t, err)

	// A nil module argument loads the program's declared unit module.
	alice, err := rt.StartProcess(ctx, "alice", client, nil, nil)
	require.NoError(t, err)
	bob, err := rt.StartProcess(ctx, "bob", server, nil, nil)
	require.NoError(t, err)
	rt.Run(ctx)

	assert.Equal(t, procsched.StateCompleted, alice.State)
	assert.Equal(t, procsched.StateCompleted, bob.State)
	assert.NotEqual(t, alice.PID, bob.PID)
	for _, proc := range []*procsched.Process{alice, bob} {
		out := proc.Output()
		require.Len(t, out.Records, 2, out.Errors)
		for i, rec := range out.Records {
			assert.True(t, rec.Success, "pair %d", i)
			assert.Equal(t, i, rec.Pair)
		}
	}

	node, ok := rt.Node("alice")
	require.True(t, ok)
	assert.Equal(t, 2, node.Memory.AllocationCount(alice.PID))
	require.NoError(t, rt.Teardown(ctx, alice.PID))
	assert.Equal(t, 0, node.Memory.AllocationCount(alice.PID))

	snap := tracker.Snapshot()
	assert.Equal(t, 2, snap.Processes)
	assert.Equal(t, 2, snap.Completed)
	assert.Equal(t, 0, snap.Failed)
	// One record per pair per node.
	assert.Equal(t, 4, snap.Pairs)
}

func TestStartProcessUnknownNode(t *testing.T) {
	srv := newLabService(t)
	rt := srv.Runtime()
	ctx := context.Background()

	program, err := rt.LoadProgram(ctx, "epr_client")
	require.NoError(t, err)
	_, err = rt.StartProcess(ctx, "carol", program, nil, nil)
	assert.ErrorIs(t, err, qnos.ErrUnknownNode)
}

func TestProcessLookupAcrossNodes(t *testing.T) {
	srv := newLabService(t)
	rt := srv.Runtime()
	ctx, _ := srv.NewContext(context.Background())

	client, err := rt.LoadProgram(ctx, "epr_client")
	require.NoError(t, err)
	server, err := rt.LoadProgram(ctx, "epr_server")
	require.NoError(t, err)
	alice, err := rt.StartProcess(ctx, "alice", client, nil, nil)
	require.NoError(t, err)
	bob, err := rt.StartProcess(ctx, "bob", server, nil, nil)
	require.NoError(t, err)
	rt.Run(ctx)

	found, err := rt.Process(ctx, bob.PID)
	require.NoError(t, err)
	assert.Equal(t, "bob", found.Node)

	procs, err := rt.Processes(ctx)
	require.NoError(t, err)
	assert.Len(t, procs, 2)

	completed, err := rt.Processes(ctx, dao.ByState(procsched.StateCompleted))
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	_, err = rt.Process(ctx, alice.PID+bob.PID+100)
	assert.ErrorIs(t, err, procsched.ErrUnknownProcess)
}
