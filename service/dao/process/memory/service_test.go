package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnetlab/qnos/internal/clock"
	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/service/dao"
	"github.com/qnetlab/qnos/service/procsched"
)

func newProcess(pid int, state string) *procsched.Process {
	program := &model.Program{
		Name:  "noop",
		Tasks: []*model.Task{{Kind: model.TaskLocal}},
	}
	p := procsched.NewProcess(pid, "alice", program, nil, clock.Epoch)
	p.SetState(state, clock.Epoch)
	return p
}

func TestServiceCRUD(t *testing.T) {
	ctx := context.Background()
	service := New()

	require.NoError(t, service.Save(ctx, newProcess(0, procsched.StateRunning)))
	require.NoError(t, service.Save(ctx, newProcess(1, procsched.StateCompleted)))

	loaded, err := service.Load(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, procsched.StateRunning, loaded.State)

	missing, err := service.Load(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, service.Delete(ctx, 0))
	assert.ErrorIs(t, service.Delete(ctx, 0), dao.ErrNotFound)
}

func TestServiceValidation(t *testing.T) {
	ctx := context.Background()
	service := New()

	assert.ErrorIs(t, service.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, service.Save(ctx, newProcess(-1, procsched.StatePending)), dao.ErrInvalidID)
}

func TestServiceListFiltersByState(t *testing.T) {
	ctx := context.Background()
	service := New()

	require.NoError(t, service.Save(ctx, newProcess(0, procsched.StateRunning)))
	require.NoError(t, service.Save(ctx, newProcess(1, procsched.StateCompleted)))
	require.NoError(t, service.Save(ctx, newProcess(2, procsched.StateFailed)))

	all, err := service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	completed, err := service.List(ctx, dao.NewParameter("State", procsched.StateCompleted))
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, 1, completed[0].PID)

	terminal, err := service.List(ctx, dao.NewParameter("State", procsched.StateCompleted, procsched.StateFailed))
	require.NoError(t, err)
	assert.Len(t, terminal, 2)
}
