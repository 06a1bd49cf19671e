// Package request defines the entanglement-request union exchanged between a
// process, its local netstack and the peer node. The set of request kinds is
// closed: every consumer switches exhaustively and treats anything else as a
// programming error.
package request

import "fmt"

// Kind selects what happens to each delivered pair.
type Kind string

const (
	// CreateAndKeep delivers pairs that stay allocated for later use; raw
	// Bell labels are corrected to the canonical one.
	CreateAndKeep Kind = "create_keep"
	// MeasureDirectly measures each pair during generation; the record
	// carries outcome and basis, and the slot is released after the write.
	MeasureDirectly Kind = "measure_directly"
	// RemoteStatePrep uses each pair to prepare a state on the remote side;
	// result shape follows MeasureDirectly, without corrections.
	RemoteStatePrep Kind = "remote_state_prep"
)

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	switch k {
	case CreateAndKeep, MeasureDirectly, RemoteStatePrep:
		return true
	}
	return false
}

// KeepsQubits reports whether delivered qubits remain allocated after the
// result is written.
func (k Kind) KeepsQubits() bool { return k == CreateAndKeep }

// Kinds lists all members of the union.
func Kinds() []Kind {
	return []Kind{CreateAndKeep, MeasureDirectly, RemoteStatePrep}
}

// EprRequest is a process's declaration of one entanglement-generation
// request towards a single remote node. The initiator fills every field; a
// receiver-side declaration may leave Kind and NumPairs zero, both are
// adopted from the initiator during the rendezvous.
type EprRequest struct {
	LocalPID    int     `json:"localPID" yaml:"localPID"`
	RemoteNode  string  `json:"remoteNode" yaml:"remoteNode"`
	PurposeID   int     `json:"purposeID" yaml:"purposeID"`
	Kind        Kind    `json:"kind" yaml:"kind"`
	NumPairs    int     `json:"numPairs" yaml:"numPairs"`
	MinFidelity float64 `json:"minFidelity" yaml:"minFidelity"`
	// VirtIDs lists the virtual qubit ids backing each pair. CreateAndKeep
	// needs one id per pair; measuring kinds may reuse a single comm id.
	VirtIDs []int `json:"virtIDs" yaml:"virtIDs"`
}

// VirtID returns the virtual id backing pair i. When fewer ids than pairs
// are declared the last id is reused, which is only legal for kinds that do
// not keep their qubits.
func (r *EprRequest) VirtID(i int) int {
	if len(r.VirtIDs) == 0 {
		return 0
	}
	if i >= len(r.VirtIDs) {
		return r.VirtIDs[len(r.VirtIDs)-1]
	}
	return r.VirtIDs[i]
}

// ValidateInitiator checks a request that starts a session.
func (r *EprRequest) ValidateInitiator() error {
	if r.RemoteNode == "" {
		return fmt.Errorf("epr request: remote node is required")
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("epr request: unsupported kind %q", r.Kind)
	}
	if r.NumPairs <= 0 {
		return fmt.Errorf("epr request: numPairs must be positive, got %d", r.NumPairs)
	}
	if len(r.VirtIDs) == 0 {
		return fmt.Errorf("epr request: at least one virtual id is required")
	}
	if r.Kind.KeepsQubits() && len(r.VirtIDs) < r.NumPairs {
		return fmt.Errorf("epr request: %v needs %d virtual ids, got %d", r.Kind, r.NumPairs, len(r.VirtIDs))
	}
	return nil
}

// ValidateReceiver checks a receiver-side declaration; kind and pair count
// may still be unset at this point.
func (r *EprRequest) ValidateReceiver() error {
	if r.RemoteNode == "" {
		return fmt.Errorf("epr request: remote node is required")
	}
	if r.Kind != "" && !r.Kind.Valid() {
		return fmt.Errorf("epr request: unsupported kind %q", r.Kind)
	}
	if len(r.VirtIDs) == 0 {
		return fmt.Errorf("epr request: at least one virtual id is required")
	}
	return nil
}

// Adopt copies the negotiated kind and pair count from the initiator's
// create packet into a receiver-side declaration.
func (r *EprRequest) Adopt(kind Kind, numPairs int, minFidelity float64) {
	r.Kind = kind
	r.NumPairs = numPairs
	r.MinFidelity = minFidelity
}
