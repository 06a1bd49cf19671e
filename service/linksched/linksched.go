package linksched

import (
	"context"
	"fmt"
	"time"
)

// Pair identifies an unordered node pair. A holds the lexicographically
// smaller endpoint so pairs compare equal regardless of argument order.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewPair returns the canonical form of the pair joining a and b.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Has reports whether node is one of the endpoints.
func (p Pair) Has(node string) bool {
	return p.A == node || p.B == node
}

// Other returns the peer of node, or the empty string when node is not an
// endpoint.
func (p Pair) Other(node string) string {
	switch node {
	case p.A:
		return p.B
	case p.B:
		return p.A
	}
	return ""
}

// String implements fmt.Stringer.
func (p Pair) String() string {
	return fmt.Sprintf("%s<->%s", p.A, p.B)
}

// TimeSlot is one scheduled window during which the link between a node
// pair may generate entanglement. A nil End keeps the slot open until a
// delivery closes it. SubmitID names the admitted request the slot
// serves.
type TimeSlot struct {
	Pair     Pair
	Start    time.Time
	End      *time.Time
	SubmitID string
}

// Request asks for link time on behalf of one entanglement generation
// attempt submitted by Node.
type Request struct {
	Node      string
	Pair      Pair
	SubmitID  string
	PurposeID int
}

// Delivery reports a generation attempt concluded under an admitted
// request.
type Delivery struct {
	Node     string
	Pair     Pair
	SubmitID string
}

// Failure reports a generation attempt that ended in an error.
type Failure struct {
	Node     string
	Pair     Pair
	SubmitID string
	Err      error
}

// Scheduler admits pairing requests into link time slots.
type Scheduler interface {
	// RegisterRequest enqueues or admits one generation attempt.
	RegisterRequest(ctx context.Context, req Request)
	// RegisterDelivery reports the attempt concluded; the policy releases
	// or re-plans the slot it occupied.
	RegisterDelivery(ctx context.Context, delivery Delivery)
	// RegisterError reports the attempt was refused by the link layer.
	RegisterError(ctx context.Context, failure Failure)
	// IsOpen reports whether the pair currently holds an open slot.
	IsOpen(pair Pair) bool
	// OpenSlot returns the pair's open slot, if any.
	OpenSlot(pair Pair) (TimeSlot, bool)
	// OpenCount returns the number of pairs holding an open slot.
	OpenCount() int
	// Outstanding returns the number of registered requests for the pair
	// not yet concluded by a delivery.
	Outstanding(pair Pair) int
}

// SlotOpened announces that a pair's time slot began and the link is
// available for generation attempts.
type SlotOpened struct {
	Slot TimeSlot
}

// SlotClosed announces that a pair's time slot ended.
type SlotClosed struct {
	Slot TimeSlot
}
