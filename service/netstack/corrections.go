package netstack

import (
	"github.com/qnetlab/qnos/model/request"
	"github.com/qnetlab/qnos/service/egp"
)

// CanonicalLabel is the Bell label every kept pair is normalized to. The
// initiator corrects its half of the pair so that both sides record this
// label regardless of the raw label the delivery reported.
const CanonicalLabel = 0

// correctionsFor maps a raw Bell label to the single-qubit operations the
// initiator applies, in order. Label 0 needs none; labels outside the group
// indicate a delivery-service bug and also map to none.
func correctionsFor(label int) []egp.CorrectionOp {
	switch label {
	case 1:
		return []egp.CorrectionOp{egp.PauliX}
	case 2:
		return []egp.CorrectionOp{egp.PauliZ}
	case 3:
		return []egp.CorrectionOp{egp.PauliX, egp.PauliZ}
	}
	return nil
}

// kindSupported reports whether this processor can drive the kind.
// RemoteStatePrep is a valid member of the request union but has no
// handler here yet, so sessions carrying it fail with ErrUnsupportedKind.
func kindSupported(k request.Kind) bool {
	switch k {
	case request.CreateAndKeep, request.MeasureDirectly:
		return true
	case request.RemoteStatePrep:
		return false
	}
	return false
}
