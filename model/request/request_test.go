package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindValid(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.Valid(), "kind %v", k)
	}
	assert.False(t, Kind("teleport").Valid())
	assert.False(t, Kind("").Valid())
}

func TestValidateInitiator(t *testing.T) {
	testCases := []struct {
		description string
		request     EprRequest
		valid       bool
	}{
		{
			description: "create and keep with one id per pair",
			request:     EprRequest{RemoteNode: "bob", Kind: CreateAndKeep, NumPairs: 2, VirtIDs: []int{0, 1}},
			valid:       true,
		},
		{
			description: "measure directly reusing one comm id",
			request:     EprRequest{RemoteNode: "bob", Kind: MeasureDirectly, NumPairs: 5, VirtIDs: []int{0}},
			valid:       true,
		},
		{
			description: "create and keep with too few ids",
			request:     EprRequest{RemoteNode: "bob", Kind: CreateAndKeep, NumPairs: 3, VirtIDs: []int{0, 1}},
		},
		{
			description: "unsupported kind",
			request:     EprRequest{RemoteNode: "bob", Kind: "swap", NumPairs: 1, VirtIDs: []int{0}},
		},
		{
			description: "missing remote node",
			request:     EprRequest{Kind: CreateAndKeep, NumPairs: 1, VirtIDs: []int{0}},
		},
		{
			description: "zero pairs",
			request:     EprRequest{RemoteNode: "bob", Kind: CreateAndKeep, VirtIDs: []int{0}},
		},
	}

	for _, tc := range testCases {
		err := tc.request.ValidateInitiator()
		if tc.valid {
			assert.NoError(t, err, tc.description)
		} else {
			assert.Error(t, err, tc.description)
		}
	}
}

func TestVirtIDReusesLastForMeasuringKinds(t *testing.T) {
	r := EprRequest{VirtIDs: []int{4}}
	assert.Equal(t, 4, r.VirtID(0))
	assert.Equal(t, 4, r.VirtID(3))

	r = EprRequest{VirtIDs: []int{1, 2, 3}}
	assert.Equal(t, 2, r.VirtID(1))
}

func TestAdopt(t *testing.T) {
	r := EprRequest{RemoteNode: "alice", VirtIDs: []int{0, 1}}
	r.Adopt(CreateAndKeep, 2, 0.9)
	assert.Equal(t, CreateAndKeep, r.Kind)
	assert.Equal(t, 2, r.NumPairs)
	assert.Equal(t, 0.9, r.MinFidelity)
}

func TestPacketValidate(t *testing.T) {
	assert.Error(t, (&Packet{Type: "noise"}).Validate())
	assert.Error(t, (&Packet{Type: PacketCreate}).Validate())
	assert.Error(t, (&Packet{Type: PacketReady}).Validate())
	assert.NoError(t, (&Packet{Type: PacketCreate, Create: &CreatePacket{}}).Validate())
	assert.NoError(t, (&Packet{Type: PacketReady, Ready: &ReadyPacket{}}).Validate())
}
