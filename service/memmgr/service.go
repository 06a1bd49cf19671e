package memmgr

import (
	"context"
	"fmt"
	"sort"

	"github.com/qnetlab/qnos/internal/clock"
	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/service/event"
)

// Owner identifies the holder of a physical slot.
type Owner struct {
	PID    int
	VirtID int
}

// MemoryFreed is published once per slot returned to the free pool. Sessions
// backing off on ErrNoCapableSlot subscribe to retry.
type MemoryFreed struct {
	PID    int `json:"pid"`
	VirtID int `json:"virtID"`
	PhysID int `json:"physID"`
}

// Manager keeps the bidirectional (process, virtual id) to physical slot
// mapping of one node. Both directions are updated atomically within a
// single call; no partial allocation state is ever observable.
type Manager struct {
	node     string
	slots    []model.Slot
	events   *event.Service
	clk      clock.Clock
	modules  map[int]*model.UnitModule
	virt     map[Owner]int
	phys     map[int]Owner
}

// New builds a manager for the node's hardware. Slots are served in
// ascending physical id order.
func New(node string, hw *model.Hardware, bus *event.Service, clk clock.Clock) *Manager {
	slots := make([]model.Slot, len(hw.Slots))
	copy(slots, hw.Slots)
	sort.Slice(slots, func(i, j int) bool { return slots[i].ID < slots[j].ID })
	return &Manager{
		node:    node,
		slots:   slots,
		events:  bus,
		clk:     clk,
		modules: make(map[int]*model.UnitModule),
		virt:    make(map[Owner]int),
		phys:    make(map[int]Owner),
	}
}

// Node returns the owning node's name.
func (m *Manager) Node() string { return m.node }

// RegisterProcess installs the unit module declaring the process's virtual
// qubit space. Allocation requests for unregistered processes fail.
func (m *Manager) RegisterProcess(pid int, um *model.UnitModule) error {
	if um == nil {
		return fmt.Errorf("%w: pid %d has no unit module", ErrUnknownProcess, pid)
	}
	if _, ok := m.modules[pid]; ok {
		return fmt.Errorf("memmgr: pid %d already registered", pid)
	}
	if err := um.Validate(); err != nil {
		return err
	}
	m.modules[pid] = um
	return nil
}

// Allocate maps (pid, virtID) to the first free slot whose traits cover the
// id's declared requirement. It is safe to retry after ErrNoCapableSlot.
func (m *Manager) Allocate(_ context.Context, pid, virtID int) (int, error) {
	um, ok := m.modules[pid]
	if !ok {
		return -1, fmt.Errorf("%w: pid %d", ErrUnknownProcess, pid)
	}
	required, ok := um.Required(virtID)
	if !ok {
		return -1, fmt.Errorf("%w: pid %d virt %d", ErrUnknownVirtID, pid, virtID)
	}
	owner := Owner{PID: pid, VirtID: virtID}
	if phys, exists := m.virt[owner]; exists {
		return -1, fmt.Errorf("%w: pid %d virt %d -> phys %d", ErrAlreadyAllocated, pid, virtID, phys)
	}
	for _, slot := range m.slots {
		if _, taken := m.phys[slot.ID]; taken {
			continue
		}
		if !slot.Traits.Covers(required) {
			continue
		}
		m.virt[owner] = slot.ID
		m.phys[slot.ID] = owner
		return slot.ID, nil
	}
	return -1, fmt.Errorf("%w: pid %d virt %d", ErrNoCapableSlot, pid, virtID)
}

// Free removes the mapping and returns the slot to the free pool, then
// publishes a memory-freed notification.
func (m *Manager) Free(ctx context.Context, pid, virtID int) error {
	owner := Owner{PID: pid, VirtID: virtID}
	phys, ok := m.virt[owner]
	if !ok {
		return fmt.Errorf("%w: pid %d virt %d", ErrNotAllocated, pid, virtID)
	}
	delete(m.virt, owner)
	delete(m.phys, phys)
	m.notifyFreed(ctx, owner, phys)
	return nil
}

// PhysFor returns the physical slot backing (pid, virtID).
func (m *Manager) PhysFor(pid, virtID int) (int, bool) {
	phys, ok := m.virt[Owner{PID: pid, VirtID: virtID}]
	return phys, ok
}

// VirtFor returns the owner of a physical slot.
func (m *Manager) VirtFor(phys int) (Owner, bool) {
	owner, ok := m.phys[phys]
	return owner, ok
}

// ReleaseProcess frees every slot the process owns and forgets its unit
// module. It never fails; releasing an unknown process frees nothing. The
// number of freed slots is returned.
func (m *Manager) ReleaseProcess(ctx context.Context, pid int) int {
	var owned []Owner
	for owner := range m.virt {
		if owner.PID == pid {
			owned = append(owned, owner)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].VirtID < owned[j].VirtID })
	for _, owner := range owned {
		phys := m.virt[owner]
		delete(m.virt, owner)
		delete(m.phys, phys)
		m.notifyFreed(ctx, owner, phys)
	}
	delete(m.modules, pid)
	return len(owned)
}

// AllocationCount returns how many slots the process currently owns.
func (m *Manager) AllocationCount(pid int) int {
	n := 0
	for owner := range m.virt {
		if owner.PID == pid {
			n++
		}
	}
	return n
}

// FreeCount returns the number of unowned slots.
func (m *Manager) FreeCount() int { return len(m.slots) - len(m.phys) }

// Snapshot returns a copy of the physical ownership table.
func (m *Manager) Snapshot() map[int]Owner {
	out := make(map[int]Owner, len(m.phys))
	for phys, owner := range m.phys {
		out[phys] = owner
	}
	return out
}

func (m *Manager) notifyFreed(ctx context.Context, owner Owner, phys int) {
	meta := event.Meta{Node: m.node, At: m.clk.Now()}
	event.Publish(ctx, m.events, event.NewEvent(meta, MemoryFreed{PID: owner.PID, VirtID: owner.VirtID, PhysID: phys}))
}
