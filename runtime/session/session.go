// Package session models one entanglement-generation session as an explicit
// state machine. The netstack advances it; the event loop resumes it; tests
// inspect it directly.
package session

import (
	"fmt"
	"time"

	"github.com/qnetlab/qnos/model/request"
	"github.com/qnetlab/qnos/model/result"
)

// Role distinguishes which side of the rendezvous this node plays.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleReceiver  Role = "receiver"
)

// Key identifies a session on its node. Two concurrent requests towards the
// same peer are told apart by purpose id.
type Key struct {
	PID        int
	RemoteNode string
	PurposeID  int
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%v/%d", k.PID, k.RemoteNode, k.PurposeID)
}

// Change records one phase transition for inspection and tracing.
type Change struct {
	From Phase
	To   Phase
	At   time.Time
}

// Session is the per-request state machine. All fields are mutated solely by
// the owning netstack between suspension points; there is no internal
// locking because the simulation is single-threaded.
type Session struct {
	ID      string
	Key     Key
	Role    Role
	Request *request.EprRequest
	Results *result.Buffer

	Phase Phase
	// Pair is the index of the pair currently being produced.
	Pair int
	// AllocAttempts counts allocation tries for the current pair, including
	// the first one.
	AllocAttempts int
	// CurrentVirt/CurrentPhys describe the slot backing the current pair;
	// CurrentPhys is -1 while unallocated.
	CurrentVirt int
	CurrentPhys int
	// PendingDelivery is the submit id the session is parked on while in
	// PhaseAwaitingDelivery.
	PendingDelivery string

	StartedAt time.Time
	UpdatedAt time.Time
	// PairsStartedAt is the instant the per-pair loop began, once the
	// rendezvous completed. Goodness values measure from this point.
	PairsStartedAt time.Time
	PairStartedAt  time.Time
	Err            error

	history []Change
}

// New builds an idle session.
func New(id string, key Key, role Role, req *request.EprRequest, results *result.Buffer, now time.Time) *Session {
	return &Session{
		ID:          id,
		Key:         key,
		Role:        role,
		Request:     req,
		Results:     results,
		Phase:       PhaseIdle,
		CurrentPhys: -1,
		StartedAt:   now,
		UpdatedAt:   now,
	}
}

// Transition moves the session to next, recording the change. Illegal moves
// indicate a protocol bug and are returned as errors rather than applied.
func (s *Session) Transition(next Phase, now time.Time) error {
	if !CanTransition(s.Phase, next) {
		return fmt.Errorf("session %v: illegal transition %v -> %v", s.Key, s.Phase, next)
	}
	s.history = append(s.history, Change{From: s.Phase, To: next, At: now})
	s.Phase = next
	s.UpdatedAt = now
	return nil
}

// Fail moves the session to PhaseFailed with err. Failing a terminal
// session is ignored so that late timeout callbacks are harmless.
func (s *Session) Fail(err error, now time.Time) {
	if s.Phase.Terminal() {
		return
	}
	s.history = append(s.history, Change{From: s.Phase, To: PhaseFailed, At: now})
	s.Phase = PhaseFailed
	s.Err = err
	s.UpdatedAt = now
}

// BeginPair resets the per-pair cursor for pair index i.
func (s *Session) BeginPair(i int, now time.Time) {
	if i == 0 {
		s.PairsStartedAt = now
	}
	s.Pair = i
	s.AllocAttempts = 0
	s.CurrentVirt = s.Request.VirtID(i)
	s.CurrentPhys = -1
	s.PendingDelivery = ""
	s.PairStartedAt = now
}

// LastPair reports whether the current pair is the request's final one.
func (s *Session) LastPair() bool { return s.Pair >= s.Request.NumPairs-1 }

// Terminal reports whether the session has ended.
func (s *Session) Terminal() bool { return s.Phase.Terminal() }

// History returns a copy of the recorded transitions.
func (s *Session) History() []Change {
	out := make([]Change, len(s.history))
	copy(out, s.history)
	return out
}
