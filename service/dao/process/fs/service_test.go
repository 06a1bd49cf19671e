package fs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnetlab/qnos/model/result"
	"github.com/qnetlab/qnos/service/dao"
	"github.com/qnetlab/qnos/service/procsched"
)

func TestServiceArchive(t *testing.T) {
	ctx := context.Background()
	service, err := New(t.TempDir())
	require.NoError(t, err)

	first := &procsched.Output{
		PID:   0,
		Name:  "teleport",
		State: procsched.StateCompleted,
		Records: []result.PairResult{
			{Pair: 0, Success: true, BellLabel: 0, GoodnessUS: 3},
			{Pair: 1, Success: true, BellLabel: 0, GoodnessUS: 6},
		},
		TimeTaken: 8 * time.Microsecond,
	}
	second := &procsched.Output{
		PID:    1,
		Name:   "orphan",
		State:  procsched.StateFailed,
		Errors: map[string]string{"bob/5": "netstack: peer handshake timed out"},
	}
	require.NoError(t, service.Save(ctx, first))
	require.NoError(t, service.Save(ctx, second))

	loaded, err := service.Load(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, first, loaded)

	_, err = service.Load(ctx, 42)
	assert.ErrorIs(t, err, dao.ErrNotFound)

	all, err := service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := service.List(ctx, dao.NewParameter("State", procsched.StateFailed))
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "orphan", failed[0].Name)

	require.NoError(t, service.Delete(ctx, 0))
	assert.ErrorIs(t, service.Delete(ctx, 0), dao.ErrNotFound)
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
