package memmgr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/qnetlab/qnos/internal/clock"
	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/service/event"
)

func testHardware() *model.Hardware {
	return &model.Hardware{Slots: []model.Slot{
		{ID: 0, Traits: model.TraitSet{model.CommCapable, model.StorageCapable}},
		{ID: 1, Traits: model.TraitSet{model.StorageCapable}},
		{ID: 2, Traits: model.TraitSet{model.CommCapable}},
	}}
}

func testModule() *model.UnitModule {
	return &model.UnitModule{Name: "um", Qubits: []model.VirtualQubit{
		{ID: 0, Traits: model.TraitSet{model.CommCapable}},
		{ID: 1, Traits: model.TraitSet{model.StorageCapable}},
		{ID: 2, Traits: model.TraitSet{model.CommCapable}},
		{ID: 3, Traits: model.TraitSet{model.CommCapable}},
	}}
}

func newManager(t *testing.T) (*Manager, *event.Service) {
	bus := event.New()
	m := New("alice", testHardware(), bus, clock.Fixed(clock.Epoch))
	require.NoError(t, m.RegisterProcess(1, testModule()))
	return m, bus
}

func TestAllocatePrefersLowestCapableSlot(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	phys, err := m.Allocate(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, phys, "slot 0 is the lowest comm-capable")

	phys, err = m.Allocate(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, phys, "slot 1 lacks comm, slot 2 is next")

	_, err = m.Allocate(ctx, 1, 3)
	assert.ErrorIs(t, err, ErrNoCapableSlot)
}

func TestAllocateRespectsTraits(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	phys, err := m.Allocate(ctx, 1, 1)
	require.NoError(t, err)
	slot, ok := testHardware().Slot(phys)
	require.True(t, ok)
	assert.True(t, slot.Traits.Has(model.StorageCapable))
}

func TestAllocateContractViolations(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	_, err := m.Allocate(ctx, 99, 0)
	assert.ErrorIs(t, err, ErrUnknownProcess)

	_, err = m.Allocate(ctx, 1, 42)
	assert.ErrorIs(t, err, ErrUnknownVirtID)

	_, err = m.Allocate(ctx, 1, 0)
	require.NoError(t, err)
	_, err = m.Allocate(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrAlreadyAllocated)
}

func TestExclusiveOwnership(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.RegisterProcess(2, testModule()))
	ctx := context.Background()

	seen := map[int]Owner{}
	for _, pid := range []int{1, 2} {
		phys, err := m.Allocate(ctx, pid, 0)
		require.NoError(t, err)
		owner, ok := m.VirtFor(phys)
		require.True(t, ok)
		assert.Equal(t, pid, owner.PID)
		_, taken := seen[phys]
		assert.False(t, taken, "slot %d allocated twice", phys)
		seen[phys] = owner
	}
}

func TestFreeIsInverseOfAllocate(t *testing.T) {
	m, bus := newManager(t)
	ctx := context.Background()

	var freed []MemoryFreed
	event.SubscribeTo(bus, func(_ context.Context, e *event.Event[MemoryFreed]) {
		freed = append(freed, e.Data)
	})

	phys, err := m.Allocate(ctx, 1, 0)
	require.NoError(t, err)
	require.NoError(t, m.Free(ctx, 1, 0))

	_, ok := m.PhysFor(1, 0)
	assert.False(t, ok)
	_, ok = m.VirtFor(phys)
	assert.False(t, ok)
	require.Len(t, freed, 1)
	assert.Equal(t, phys, freed[0].PhysID)

	// The slot is reusable immediately.
	again, err := m.Allocate(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, phys, again)
}

func TestFreeUnallocated(t *testing.T) {
	m, _ := newManager(t)
	assert.ErrorIs(t, m.Free(context.Background(), 1, 0), ErrNotAllocated)
}

func TestReleaseProcess(t *testing.T) {
	m, bus := newManager(t)
	ctx := context.Background()

	var freed int
	event.SubscribeTo(bus, func(context.Context, *event.Event[MemoryFreed]) { freed++ })

	_, err := m.Allocate(ctx, 1, 0)
	require.NoError(t, err)
	_, err = m.Allocate(ctx, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, m.ReleaseProcess(ctx, 1))
	assert.Equal(t, 0, m.AllocationCount(1))
	assert.Equal(t, 3, m.FreeCount())
	assert.Equal(t, 2, freed)

	// Releasing a process that owns nothing never fails.
	assert.Equal(t, 0, m.ReleaseProcess(ctx, 1))
	assert.Equal(t, 0, m.ReleaseProcess(ctx, 77))
}

func TestSnapshot(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	phys, err := m.Allocate(ctx, 1, 0)
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.Equal(t, Owner{PID: 1, VirtID: 0}, snap[phys])

	// Mutating the snapshot must not touch the table.
	delete(snap, phys)
	_, ok := m.VirtFor(phys)
	assert.True(t, ok)
}
