package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraitSetCovers(t *testing.T) {
	both := TraitSet{CommCapable, StorageCapable}
	comm := TraitSet{CommCapable}
	storage := TraitSet{StorageCapable}

	assert.True(t, both.Covers(comm))
	assert.True(t, both.Covers(storage))
	assert.True(t, both.Covers(nil))
	assert.False(t, storage.Covers(comm))
	assert.False(t, comm.Covers(both))
}

func TestTraitSetValidate(t *testing.T) {
	assert.NoError(t, TraitSet{CommCapable}.Validate())
	assert.Error(t, TraitSet{"psychic"}.Validate())
}

func TestHardwareCommSlots(t *testing.T) {
	hw := Hardware{Slots: []Slot{
		{ID: 0, Traits: TraitSet{CommCapable, StorageCapable}},
		{ID: 1, Traits: TraitSet{StorageCapable}},
		{ID: 2, Traits: TraitSet{CommCapable}},
	}}
	assert.Equal(t, []int{0, 2}, hw.CommSlots())
}

func TestHardwareValidateRejectsDuplicates(t *testing.T) {
	hw := Hardware{Slots: []Slot{{ID: 1}, {ID: 1}}}
	assert.Error(t, hw.Validate())
}

func TestUnitModuleRequired(t *testing.T) {
	um := UnitModule{
		Name: "client",
		Qubits: []VirtualQubit{
			{ID: 0, Traits: TraitSet{CommCapable}},
			{ID: 1, Traits: TraitSet{StorageCapable}},
		},
	}
	assert.NoError(t, um.Validate())

	req, ok := um.Required(0)
	assert.True(t, ok)
	assert.True(t, req.Has(CommCapable))

	_, ok = um.Required(7)
	assert.False(t, ok)
}

func TestUnitModuleValidate(t *testing.T) {
	assert.Error(t, (&UnitModule{}).Validate(), "missing name")
	assert.Error(t, (&UnitModule{Name: "m", Qubits: []VirtualQubit{{ID: 0}, {ID: 0}}}).Validate(), "duplicate virtual id")
}
