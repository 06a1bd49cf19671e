// Package egp defines the entanglement generation protocol surface: the
// netstack submits per-pair generation attempts and receives deliveries,
// without knowing how the pairs are produced.
package egp

import (
	"context"
	"errors"
	"time"

	"github.com/qnetlab/qnos/model/request"
	"github.com/qnetlab/qnos/service/linksched"
)

var (
	// ErrInvalidSpec rejects a malformed generation spec.
	ErrInvalidSpec = errors.New("invalid generation spec")
	// ErrDuplicateSubmission rejects a second submission from the same
	// side while one is pending for the pair and purpose.
	ErrDuplicateSubmission = errors.New("submission already pending for pair and purpose")
)

// CorrectionOp is a single-qubit Pauli operation applied during Bell state
// correction.
type CorrectionOp string

const (
	// PauliX is a bit flip.
	PauliX CorrectionOp = "X"
	// PauliZ is a phase flip.
	PauliZ CorrectionOp = "Z"
)

// Spec describes one generation attempt as seen from the submitting node.
// The initiator side drives link scheduling; the receiver side only
// announces readiness to take its half of the pair.
type Spec struct {
	Node      string
	Remote    string
	PurposeID int
	Kind      request.Kind
	Initiator bool
}

// Pair returns the canonical node pair of the attempt.
func (s *Spec) Pair() linksched.Pair {
	return linksched.NewPair(s.Node, s.Remote)
}

// Delivery resolves one submitted attempt. Success false records a failed
// attempt; the reason travels with the record instead of an error value so
// partial progress stays observable.
type Delivery struct {
	SubmitID  string
	Node      string
	Remote    string
	PurposeID int
	Success   bool
	BellLabel int
	Duration  time.Duration
	Outcome   int
	Basis     int
	Reason    string
}

// Service accepts generation attempts. Deliveries are published on the
// node's event bus as they resolve.
type Service interface {
	// Submit registers the attempt and returns its submit id. The
	// delivery referencing the id follows on the event bus.
	Submit(ctx context.Context, spec Spec) (string, error)
}

// Corrector applies Bell corrections to a local physical qubit.
type Corrector interface {
	ApplyCorrection(ctx context.Context, node string, physID int, ops []CorrectionOp) error
}
