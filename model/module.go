package model

import "fmt"

// Trait is a capability of a physical qubit slot. A slot may carry several.
type Trait string

const (
	// CommCapable marks a slot usable as the local endpoint of entanglement
	// generation with a remote node.
	CommCapable Trait = "comm"
	// StorageCapable marks a slot that can hold a qubit between operations.
	StorageCapable Trait = "storage"
)

// KnownTrait reports whether t is one of the recognised traits.
func KnownTrait(t Trait) bool {
	switch t {
	case CommCapable, StorageCapable:
		return true
	}
	return false
}

// TraitSet is an unordered capability collection.
type TraitSet []Trait

// Has reports whether the set contains t.
func (s TraitSet) Has(t Trait) bool {
	for _, candidate := range s {
		if candidate == t {
			return true
		}
	}
	return false
}

// Covers reports whether every trait required by req is present in s.
func (s TraitSet) Covers(req TraitSet) bool {
	for _, t := range req {
		if !s.Has(t) {
			return false
		}
	}
	return true
}

// Validate rejects unknown trait names.
func (s TraitSet) Validate() error {
	for _, t := range s {
		if !KnownTrait(t) {
			return fmt.Errorf("unknown trait %q", t)
		}
	}
	return nil
}

// Slot describes one physical qubit position of a node's device.
type Slot struct {
	ID     int      `json:"id" yaml:"id"`
	Traits TraitSet `json:"traits" yaml:"traits"`
}

// Hardware is the physical qubit layout of a node.
type Hardware struct {
	Slots []Slot `json:"slots" yaml:"slots"`
}

// CommSlots returns the ids of comm-capable slots in ascending id order.
func (h *Hardware) CommSlots() []int {
	var ids []int
	for _, s := range h.Slots {
		if s.Traits.Has(CommCapable) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Slot returns the slot with the given id.
func (h *Hardware) Slot(id int) (*Slot, bool) {
	for i := range h.Slots {
		if h.Slots[i].ID == id {
			return &h.Slots[i], true
		}
	}
	return nil, false
}

// Validate checks slot ids are unique and traits are known.
func (h *Hardware) Validate() error {
	seen := map[int]bool{}
	for _, s := range h.Slots {
		if seen[s.ID] {
			return fmt.Errorf("duplicate slot id %d", s.ID)
		}
		seen[s.ID] = true
		if err := s.Traits.Validate(); err != nil {
			return fmt.Errorf("slot %d: %w", s.ID, err)
		}
	}
	return nil
}

// VirtualQubit declares the trait requirement of one process-local qubit id.
type VirtualQubit struct {
	ID     int      `json:"id" yaml:"id"`
	Traits TraitSet `json:"traits" yaml:"traits"`
}

// UnitModule declares the virtual qubit space of one program: which virtual
// ids exist and what traits the physical slot backing each of them must
// carry.
type UnitModule struct {
	Name   string         `json:"name" yaml:"name"`
	Qubits []VirtualQubit `json:"qubits" yaml:"qubits"`
}

// Qubit returns the declaration for the given virtual id.
func (u *UnitModule) Qubit(id int) (*VirtualQubit, bool) {
	for i := range u.Qubits {
		if u.Qubits[i].ID == id {
			return &u.Qubits[i], true
		}
	}
	return nil, false
}

// Required returns the traits the given virtual id demands. Unknown ids
// report false; the caller treats that as a contract violation.
func (u *UnitModule) Required(id int) (TraitSet, bool) {
	q, ok := u.Qubit(id)
	if !ok {
		return nil, false
	}
	return q.Traits, true
}

// Validate checks virtual ids are unique and traits are known.
func (u *UnitModule) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("unit module requires a name")
	}
	seen := map[int]bool{}
	for _, q := range u.Qubits {
		if seen[q.ID] {
			return fmt.Errorf("unit module %v: duplicate virtual id %d", u.Name, q.ID)
		}
		seen[q.ID] = true
		if err := q.Traits.Validate(); err != nil {
			return fmt.Errorf("unit module %v: virtual id %d: %w", u.Name, q.ID, err)
		}
	}
	return nil
}
