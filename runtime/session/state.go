package session

// Phase is the explicit suspension state of an entanglement session. A
// session that waits for anything does so as data: its phase names the event
// it is parked on, so tests can inspect progress without running the loop.
type Phase string

const (
	// PhaseIdle is the state before the rendezvous begins.
	PhaseIdle Phase = "idle"
	// PhaseWaitingPeerReady covers the rendezvous on both roles: the
	// initiator awaits the peer's ready packet, the receiver awaits the
	// initiator's create packet.
	PhaseWaitingPeerReady Phase = "waiting_peer_ready"
	// PhaseAllocating means the current pair needs a comm-capable slot;
	// the session may be parked on a memory-freed notification.
	PhaseAllocating Phase = "allocating"
	// PhaseAwaitingDelivery means a one-pair request has been submitted to
	// the entanglement-generation service.
	PhaseAwaitingDelivery Phase = "awaiting_delivery"
	// PhaseCorrecting normalizes the delivered Bell label; a no-op pass for
	// roles and kinds that do not correct.
	PhaseCorrecting Phase = "correcting"
	// PhaseWritingResult stores the pair record and notifies the process
	// scheduler.
	PhaseWritingResult Phase = "writing_result"
	// PhaseDone is the terminal state after the last pair.
	PhaseDone Phase = "done"
	// PhaseFailed is the terminal state after a fatal session error.
	PhaseFailed Phase = "failed"
)

var transitions = map[Phase][]Phase{
	PhaseIdle:             {PhaseWaitingPeerReady},
	PhaseWaitingPeerReady: {PhaseAllocating},
	PhaseAllocating:       {PhaseAwaitingDelivery},
	PhaseAwaitingDelivery: {PhaseCorrecting},
	PhaseCorrecting:       {PhaseWritingResult},
	PhaseWritingResult:    {PhaseAllocating, PhaseDone},
	PhaseDone:             {},
	PhaseFailed:           {},
}

// CanTransition reports whether moving from to next is legal. Any
// non-terminal phase may move to PhaseFailed.
func CanTransition(from, next Phase) bool {
	if next == PhaseFailed {
		return !from.Terminal()
	}
	for _, allowed := range transitions[from] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the phase ends the session.
func (p Phase) Terminal() bool { return p == PhaseDone || p == PhaseFailed }
