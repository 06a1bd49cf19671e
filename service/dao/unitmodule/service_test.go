package unitmodule

import (
	"context"
	"embed"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	_ "github.com/viant/afs/embed"

	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/service/meta"
)

//go:embed testdata/*
var testFS embed.FS

func TestServiceLoad(t *testing.T) {
	service := New(WithMetaService(meta.New(afs.New(), "embed:///testdata", &testFS)))
	um, err := service.Load(context.Background(), "comm")
	require.NoError(t, err)

	assert.Equal(t, "comm", um.Name)
	require.Len(t, um.Qubits, 3)

	assert.Equal(t, model.VirtualQubit{ID: 0, Traits: model.TraitSet{model.CommCapable, model.StorageCapable}}, um.Qubits[0])
	assert.Equal(t, model.VirtualQubit{ID: 1, Traits: model.TraitSet{model.StorageCapable}}, um.Qubits[1])
	assert.Equal(t, model.VirtualQubit{ID: 2, Traits: model.TraitSet{model.CommCapable}}, um.Qubits[2])
}

func TestDecodeYAML(t *testing.T) {
	service := New()
	um, err := service.DecodeYAML([]byte(`
qubits:
  - traits: comm, storage
`))
	require.Error(t, err)
	assert.Nil(t, um)

	um, err = service.DecodeYAML([]byte(`
name: pair
qubits:
  - traits: comm, storage
  - traits: storage
`))
	require.NoError(t, err)
	assert.Equal(t, "pair", um.Name)
	require.Len(t, um.Qubits, 2)
	assert.Equal(t, model.TraitSet{model.CommCapable, model.StorageCapable}, um.Qubits[0].Traits)

	_, err = service.DecodeYAML([]byte(`
name: bad
qubits:
  - traits: levitating
`))
	assert.Error(t, err)
}
