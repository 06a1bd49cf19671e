package netstack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/qnetlab/qnos/internal/ctxlog"
	"github.com/qnetlab/qnos/internal/idgen"
	"github.com/qnetlab/qnos/internal/observability"
	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/model/request"
	"github.com/qnetlab/qnos/model/result"
	"github.com/qnetlab/qnos/policy"
	"github.com/qnetlab/qnos/runtime/correlation"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/runtime/session"
	"github.com/qnetlab/qnos/service/egp"
	"github.com/qnetlab/qnos/service/event"
	"github.com/qnetlab/qnos/service/memmgr"
	"github.com/qnetlab/qnos/service/messaging"
	"github.com/qnetlab/qnos/tracing"
)

// DefaultHandshakeTimeout bounds the initiator's wait for the peer's ready
// acknowledgement. The receiver side waits for a create without bound.
const DefaultHandshakeTimeout = time.Second

// Notifier is the callback surface towards the process scheduler. The
// processor reports per-pair progress at the granularity a waiting process
// instruction unblocks at.
type Notifier interface {
	// SessionActivated hands over the result buffer once its size is
	// known: at session start for initiators, after adoption for
	// receivers.
	SessionActivated(ctx context.Context, pid int, key session.Key, results *result.Buffer)

	// NotifyPairsReady reports that every record in pairs is written.
	NotifyPairsReady(ctx context.Context, pid int, pairs model.PairRange)

	// RequestFailed reports a fatal session error; no further pairs
	// follow.
	RequestFailed(ctx context.Context, pid int, key session.Key, err error)

	// RequestCompleted reports that the request's final pair is written.
	RequestCompleted(ctx context.Context, pid int, key session.Key)
}

// Option customises a processor.
type Option func(*Processor)

// WithNotifier wires the process-scheduler callback surface.
func WithNotifier(n Notifier) Option {
	return func(p *Processor) { p.notifier = n }
}

// WithCorrector wires the hook that applies Bell corrections to local
// qubits. Without one, labels are recorded canonical but nothing touches
// the qubit.
func WithCorrector(c egp.Corrector) Option {
	return func(p *Processor) { p.corrector = c }
}

// WithMetrics attaches the node's metrics collector.
func WithMetrics(m *observability.Collector) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithHandshakeTimeout overrides DefaultHandshakeTimeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.handshakeTimeout = d
		}
	}
}

// Processor runs the entanglement sessions of one node. All state is
// mutated from loop callbacks only; a session that waits parks a
// continuation in the correlation store under the key naming the awaited
// event.
type Processor struct {
	node      string
	loop      *loop.Loop
	bus       *event.Service
	mem       *memmgr.Manager
	egs       egp.Service
	corrector egp.Corrector
	notifier  Notifier
	metrics   *observability.Collector
	waits     *correlation.Store

	handshakeTimeout time.Duration

	channels map[string]messaging.Channel[request.Packet]
	sessions map[session.Key]*session.Session
	// pendingCreates stashes create packets that arrived before the
	// local process registered the receiving side.
	pendingCreates map[string][]*request.CreatePacket
	spans          map[session.Key]*tracing.Span
}

// New builds the processor and subscribes it to the node's deliveries and
// memory-freed notifications.
func New(node string, lp *loop.Loop, bus *event.Service, mem *memmgr.Manager, egs egp.Service, options ...Option) *Processor {
	p := &Processor{
		node:             node,
		loop:             lp,
		bus:              bus,
		mem:              mem,
		egs:              egs,
		handshakeTimeout: DefaultHandshakeTimeout,
		channels:         make(map[string]messaging.Channel[request.Packet]),
		sessions:         make(map[session.Key]*session.Session),
		pendingCreates:   make(map[string][]*request.CreatePacket),
		spans:            make(map[session.Key]*tracing.Span),
	}
	p.waits = correlation.New(func(fn func(ctx context.Context)) { lp.Schedule(0, fn) })
	for _, option := range options {
		option(p)
	}
	event.SubscribeTo[egp.Delivery](bus, p.onDelivery)
	event.SubscribeTo[memmgr.MemoryFreed](bus, p.onMemoryFreed)
	return p
}

// Node returns the owning node's name.
func (p *Processor) Node() string { return p.node }

// Waits exposes the node's correlation store for inspection.
func (p *Processor) Waits() *correlation.Store { return p.waits }

// Connect wires the classical channel towards its remote endpoint and
// starts consuming packets. Call once per peer before sessions towards
// that peer start.
func (p *Processor) Connect(ch messaging.Channel[request.Packet]) {
	p.channels[ch.Remote()] = ch
	ch.Subscribe(p.onPacket)
}

// Session returns the active session for key.
func (p *Processor) Session(key session.Key) (*session.Session, bool) {
	s, ok := p.sessions[key]
	return s, ok
}

// ActiveSessions returns the number of sessions not yet concluded.
func (p *Processor) ActiveSessions() int { return len(p.sessions) }

// StartInitiator opens a session in the initiating role: it activates the
// result buffer, sends the create packet and parks until the peer's ready
// acknowledgement. Pairs are produced strictly one at a time once the
// rendezvous completes.
func (p *Processor) StartInitiator(ctx context.Context, pid int, req *request.EprRequest) (session.Key, error) {
	if err := req.ValidateInitiator(); err != nil {
		return session.Key{}, err
	}
	if !kindSupported(req.Kind) {
		return session.Key{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, req.Kind)
	}
	key := session.Key{PID: pid, RemoteNode: req.RemoteNode, PurposeID: req.PurposeID}
	if _, exists := p.sessions[key]; exists {
		return session.Key{}, fmt.Errorf("%w: %v", ErrSessionActive, key)
	}
	ch, ok := p.channels[req.RemoteNode]
	if !ok {
		return session.Key{}, fmt.Errorf("%w: %v", ErrUnknownPeer, req.RemoteNode)
	}

	now := p.loop.Now()
	s := session.New(idgen.New(), key, session.RoleInitiator, req, result.NewBuffer(req.NumPairs), now)
	p.sessions[key] = s
	p.startSpan(ctx, s)
	p.notify().SessionActivated(ctx, pid, key, s.Results)
	if !p.transition(ctx, s, session.PhaseWaitingPeerReady) {
		return key, nil
	}

	create := &request.Packet{Type: request.PacketCreate, Create: &request.CreatePacket{
		SessionID:   s.ID,
		FromNode:    p.node,
		PurposeID:   req.PurposeID,
		Kind:        req.Kind,
		NumPairs:    req.NumPairs,
		MinFidelity: req.MinFidelity,
	}}
	if err := ch.Send(ctx, create); err != nil {
		p.failSession(ctx, s, err)
		return key, nil
	}

	scope := rendezvousScope(req.RemoteNode, req.PurposeID)
	p.waits.Park(correlation.Key{Kind: correlation.KindPeerReady, Node: p.node, Scope: scope}, func(ctx context.Context, _ interface{}) {
		p.onPeerReady(ctx, s)
	})
	p.loop.Schedule(p.handshakeTimeout, func(ctx context.Context) {
		p.onHandshakeTimeout(ctx, s)
	})
	ctxlog.From(ctx).Debug("session initiated",
		slog.String("node", p.node),
		slog.String("session", s.ID),
		slog.String("peer", req.RemoteNode),
		slog.Int("purposeID", req.PurposeID),
		slog.String("kind", string(req.Kind)),
		slog.Int("numPairs", req.NumPairs))
	return key, nil
}

// StartReceiver registers the receiving side. The session adopts the
// kind and pair count announced by the initiator's create packet; a create
// that already arrived is consumed from the stash, otherwise the session
// parks until one does.
func (p *Processor) StartReceiver(ctx context.Context, pid int, req *request.EprRequest) (session.Key, error) {
	if err := req.ValidateReceiver(); err != nil {
		return session.Key{}, err
	}
	key := session.Key{PID: pid, RemoteNode: req.RemoteNode, PurposeID: req.PurposeID}
	if _, exists := p.sessions[key]; exists {
		return session.Key{}, fmt.Errorf("%w: %v", ErrSessionActive, key)
	}
	if _, ok := p.channels[req.RemoteNode]; !ok {
		return session.Key{}, fmt.Errorf("%w: %v", ErrUnknownPeer, req.RemoteNode)
	}

	now := p.loop.Now()
	s := session.New(idgen.New(), key, session.RoleReceiver, req, nil, now)
	p.sessions[key] = s
	p.startSpan(ctx, s)
	if !p.transition(ctx, s, session.PhaseWaitingPeerReady) {
		return key, nil
	}

	scope := rendezvousScope(req.RemoteNode, req.PurposeID)
	if stash := p.pendingCreates[scope]; len(stash) > 0 {
		cp := stash[0]
		if len(stash) == 1 {
			delete(p.pendingCreates, scope)
		} else {
			p.pendingCreates[scope] = stash[1:]
		}
		p.loop.Schedule(0, func(ctx context.Context) { p.adopt(ctx, s, cp) })
	} else {
		p.waits.Park(correlation.Key{Kind: correlation.KindPeerCreate, Node: p.node, Scope: scope}, func(ctx context.Context, payload interface{}) {
			cp, ok := payload.(*request.CreatePacket)
			if !ok {
				return
			}
			p.adopt(ctx, s, cp)
		})
	}
	ctxlog.From(ctx).Debug("receiver registered",
		slog.String("node", p.node),
		slog.String("session", s.ID),
		slog.String("peer", req.RemoteNode),
		slog.Int("purposeID", req.PurposeID))
	return key, nil
}

func (p *Processor) onPacket(ctx context.Context, m *messaging.Message[request.Packet]) error {
	pkt := m.Payload
	if err := pkt.Validate(); err != nil {
		ctxlog.From(ctx).Warn("dropping malformed peer packet",
			slog.String("node", p.node),
			slog.String("from", m.From),
			slog.Any("error", err))
		return nil
	}
	switch pkt.Type {
	case request.PacketCreate:
		p.onCreate(ctx, pkt.Create)
	case request.PacketReady:
		p.onReady(ctx, pkt.Ready)
	}
	return nil
}

func (p *Processor) onCreate(ctx context.Context, cp *request.CreatePacket) {
	scope := rendezvousScope(cp.FromNode, cp.PurposeID)
	key := correlation.Key{Kind: correlation.KindPeerCreate, Node: p.node, Scope: scope}
	if p.waits.ResolveOne(ctx, key, cp) {
		return
	}
	p.pendingCreates[scope] = append(p.pendingCreates[scope], cp)
	ctxlog.From(ctx).Debug("create before receiving side, stashed",
		slog.String("node", p.node),
		slog.String("from", cp.FromNode),
		slog.Int("purposeID", cp.PurposeID))
}

func (p *Processor) onReady(ctx context.Context, rp *request.ReadyPacket) {
	scope := rendezvousScope(rp.FromNode, rp.PurposeID)
	key := correlation.Key{Kind: correlation.KindPeerReady, Node: p.node, Scope: scope}
	if p.waits.Resolve(ctx, key, rp) == 0 {
		ctxlog.From(ctx).Debug("ready with no waiting session",
			slog.String("node", p.node),
			slog.String("from", rp.FromNode),
			slog.Int("purposeID", rp.PurposeID))
	}
}

// adopt completes the receiver's half of the rendezvous: it takes over the
// initiator's kind and pair count, activates the result buffer, replies
// ready and starts the per-pair loop.
func (p *Processor) adopt(ctx context.Context, s *session.Session, cp *request.CreatePacket) {
	if s.Phase.Terminal() || p.sessions[s.Key] != s {
		return
	}
	if !kindSupported(cp.Kind) {
		p.failSession(ctx, s, fmt.Errorf("%w: %q", ErrUnsupportedKind, cp.Kind))
		return
	}
	s.Request.Adopt(cp.Kind, cp.NumPairs, cp.MinFidelity)
	// The adopted request must satisfy the same constraints an
	// initiating one does.
	if err := s.Request.ValidateInitiator(); err != nil {
		p.failSession(ctx, s, err)
		return
	}
	s.Results = result.NewBuffer(s.Request.NumPairs)
	p.notify().SessionActivated(ctx, s.Key.PID, s.Key, s.Results)

	ready := &request.Packet{Type: request.PacketReady, Ready: &request.ReadyPacket{
		SessionID: cp.SessionID,
		FromNode:  p.node,
		PurposeID: cp.PurposeID,
	}}
	if err := p.channels[s.Key.RemoteNode].Send(ctx, ready); err != nil {
		p.failSession(ctx, s, err)
		return
	}
	if !p.transition(ctx, s, session.PhaseAllocating) {
		return
	}
	p.beginPair(ctx, s, 0)
}

func (p *Processor) onPeerReady(ctx context.Context, s *session.Session) {
	if s.Phase != session.PhaseWaitingPeerReady || p.sessions[s.Key] != s {
		return
	}
	if !p.transition(ctx, s, session.PhaseAllocating) {
		return
	}
	p.beginPair(ctx, s, 0)
}

func (p *Processor) onHandshakeTimeout(ctx context.Context, s *session.Session) {
	if s.Phase != session.PhaseWaitingPeerReady || p.sessions[s.Key] != s {
		return
	}
	scope := rendezvousScope(s.Key.RemoteNode, s.Key.PurposeID)
	p.waits.Drop(correlation.Key{Kind: correlation.KindPeerReady, Node: p.node, Scope: scope})
	p.failSession(ctx, s, fmt.Errorf("%w: peer %v purpose %d after %v",
		ErrPeerHandshakeTimeout, s.Key.RemoteNode, s.Key.PurposeID, p.handshakeTimeout))
}

func (p *Processor) beginPair(ctx context.Context, s *session.Session, i int) {
	s.BeginPair(i, p.loop.Now())
	p.allocatePair(ctx, s)
}

// allocatePair tries to back the current pair's virtual id with a capable
// slot. A full memory is backpressure, not an error: the attempt parks on
// the node's memory-freed notification and runs again, without bound
// unless the run's policy says otherwise.
func (p *Processor) allocatePair(ctx context.Context, s *session.Session) {
	if s.Phase.Terminal() || p.sessions[s.Key] != s {
		return
	}
	s.AllocAttempts++
	phys, err := p.mem.Allocate(ctx, s.Key.PID, s.CurrentVirt)
	if err == nil {
		s.CurrentPhys = phys
		p.submitPair(ctx, s)
		return
	}
	if !errors.Is(err, memmgr.ErrNoCapableSlot) {
		p.failSession(ctx, s, err)
		return
	}
	if !policy.FromContext(ctx).AllowRetry(s.AllocAttempts) {
		p.failSession(ctx, s, fmt.Errorf("%w: pair %d after %d attempts",
			ErrAllocationDenied, s.Pair, s.AllocAttempts))
		return
	}
	p.metrics.IncAllocRetries()
	ctxlog.From(ctx).Debug("no capable slot free, waiting",
		slog.String("node", p.node),
		slog.String("session", s.ID),
		slog.Int("pair", s.Pair),
		slog.Int("attempt", s.AllocAttempts))
	p.waits.Park(correlation.Key{Kind: correlation.KindMemoryFreed, Node: p.node}, func(ctx context.Context, _ interface{}) {
		p.allocatePair(ctx, s)
	})
}

func (p *Processor) submitPair(ctx context.Context, s *session.Session) {
	if !p.transition(ctx, s, session.PhaseAwaitingDelivery) {
		return
	}
	id, err := p.egs.Submit(ctx, egp.Spec{
		Node:      p.node,
		Remote:    s.Key.RemoteNode,
		PurposeID: s.Key.PurposeID,
		Kind:      s.Request.Kind,
		Initiator: s.Role == session.RoleInitiator,
	})
	if err != nil {
		p.failSession(ctx, s, err)
		return
	}
	s.PendingDelivery = id
	p.waits.Park(correlation.Key{Kind: correlation.KindDelivery, Node: p.node, Scope: id}, func(ctx context.Context, payload interface{}) {
		d, ok := payload.(egp.Delivery)
		if !ok {
			return
		}
		p.handleDelivery(ctx, s, d)
	})
}

// handleDelivery finishes one pair: corrections for kept pairs, outcome
// capture for measured ones, the result write and the per-pair
// notification. A failed delivery is recorded, never retried.
func (p *Processor) handleDelivery(ctx context.Context, s *session.Session, d egp.Delivery) {
	if s.Phase.Terminal() || p.sessions[s.Key] != s || d.SubmitID != s.PendingDelivery {
		return
	}
	if !p.transition(ctx, s, session.PhaseCorrecting) {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "netstack.pair", "CONSUMER")
	span.WithAttributes(map[string]string{
		"node":    p.node,
		"session": s.ID,
		"pair":    strconv.Itoa(s.Pair),
		"success": strconv.FormatBool(d.Success),
	})
	defer tracing.EndSpan(span, nil)

	record := result.New(s.Pair)
	record.Success = d.Success
	record.GoodnessUS = p.loop.Now().Sub(s.PairsStartedAt).Microseconds()

	freeAfterWrite := false
	if !d.Success {
		// The slot goes back to the pool; the record keeps the failure
		// observable.
		freeAfterWrite = true
		ctxlog.From(ctx).Debug("pair delivery failed",
			slog.String("node", p.node),
			slog.String("session", s.ID),
			slog.Int("pair", s.Pair),
			slog.String("reason", d.Reason))
	} else {
		switch s.Request.Kind {
		case request.CreateAndKeep:
			if s.Role == session.RoleInitiator && d.BellLabel != CanonicalLabel {
				if err := p.correct(ctx, s, d.BellLabel); err != nil {
					p.failSession(ctx, s, err)
					return
				}
			}
			record.BellLabel = CanonicalLabel
		case request.MeasureDirectly:
			record.BellLabel = d.BellLabel
			record.Outcome = d.Outcome
			record.Basis = d.Basis
			freeAfterWrite = true
		case request.RemoteStatePrep:
			p.failSession(ctx, s, fmt.Errorf("%w: %q", ErrUnsupportedKind, s.Request.Kind))
			return
		}
	}

	if !p.transition(ctx, s, session.PhaseWritingResult) {
		return
	}
	if err := s.Results.Write(record); err != nil {
		p.failSession(ctx, s, err)
		return
	}
	if freeAfterWrite {
		if err := p.mem.Free(ctx, s.Key.PID, s.CurrentVirt); err != nil {
			p.failSession(ctx, s, err)
			return
		}
		s.CurrentPhys = -1
	}
	p.notify().NotifyPairsReady(ctx, s.Key.PID, model.PairRange{From: s.Pair, To: s.Pair + 1})

	if s.LastPair() {
		p.completeSession(ctx, s)
		return
	}
	if !p.transition(ctx, s, session.PhaseAllocating) {
		return
	}
	p.beginPair(ctx, s, s.Pair+1)
}

// correct applies the corrective operations for a raw label to the local
// half of the pair. Only the initiating side corrects; the peer leaves its
// qubit untouched and records the canonical label on the strength of this
// correction.
func (p *Processor) correct(ctx context.Context, s *session.Session, label int) error {
	ops := correctionsFor(label)
	if len(ops) == 0 {
		return nil
	}
	if p.corrector == nil {
		ctxlog.From(ctx).Warn("no corrector wired, qubit left unnormalized",
			slog.String("node", p.node),
			slog.String("session", s.ID),
			slog.Int("bellLabel", label))
		return nil
	}
	return p.corrector.ApplyCorrection(ctx, p.node, s.CurrentPhys, ops)
}

func (p *Processor) completeSession(ctx context.Context, s *session.Session) {
	if !p.transition(ctx, s, session.PhaseDone) {
		return
	}
	delete(p.sessions, s.Key)
	p.endSpan(s.Key, nil)
	ctxlog.From(ctx).Debug("session complete",
		slog.String("node", p.node),
		slog.String("session", s.ID),
		slog.Int("pairs", s.Request.NumPairs))
	p.notify().RequestCompleted(ctx, s.Key.PID, s.Key)
}

// failSession concludes the session with err. Memory the session holds is
// deliberately not freed here; it stays with the process until teardown.
func (p *Processor) failSession(ctx context.Context, s *session.Session, err error) {
	if s.Phase.Terminal() {
		return
	}
	s.Fail(err, p.loop.Now())
	if p.sessions[s.Key] == s {
		delete(p.sessions, s.Key)
	}
	p.metrics.IncSessionsFailed()
	p.endSpan(s.Key, err)
	ctxlog.From(ctx).Error("session failed",
		slog.String("node", p.node),
		slog.String("session", s.ID),
		slog.String("peer", s.Key.RemoteNode),
		slog.Any("error", err))
	p.notify().RequestFailed(ctx, s.Key.PID, s.Key, err)
}

// transition applies a phase change, failing the session on an illegal
// move so protocol bugs surface instead of wedging the loop.
func (p *Processor) transition(ctx context.Context, s *session.Session, next session.Phase) bool {
	if err := s.Transition(next, p.loop.Now()); err != nil {
		p.failSession(ctx, s, err)
		return false
	}
	return true
}

func (p *Processor) onDelivery(ctx context.Context, e *event.Event[egp.Delivery]) {
	if e.Data.Node != p.node {
		return
	}
	p.waits.Resolve(ctx, correlation.Key{Kind: correlation.KindDelivery, Node: p.node, Scope: e.Data.SubmitID}, e.Data)
}

func (p *Processor) onMemoryFreed(ctx context.Context, e *event.Event[memmgr.MemoryFreed]) {
	if e.Meta.Node != p.node {
		return
	}
	// Node-wide wakeup: every parked allocation retries, whoever fits
	// the freed slot wins it.
	p.waits.Resolve(ctx, correlation.Key{Kind: correlation.KindMemoryFreed, Node: p.node}, e.Data)
}

func (p *Processor) notify() Notifier {
	if p.notifier != nil {
		return p.notifier
	}
	return noopNotifier{}
}

func (p *Processor) startSpan(ctx context.Context, s *session.Session) {
	_, span := tracing.StartSpan(ctx, "netstack.session", "INTERNAL")
	span.WithAttributes(map[string]string{
		"node":    p.node,
		"session": s.ID,
		"peer":    s.Key.RemoteNode,
		"purpose": strconv.Itoa(s.Key.PurposeID),
		"role":    string(s.Role),
	})
	p.spans[s.Key] = span
}

func (p *Processor) endSpan(key session.Key, err error) {
	span, ok := p.spans[key]
	if !ok {
		return
	}
	delete(p.spans, key)
	tracing.EndSpan(span, err)
}

// rendezvousScope keys handshake waits by peer node and purpose. Process
// ids stay local: the two sides never learn each other's pid.
func rendezvousScope(peer string, purpose int) string {
	return fmt.Sprintf("%s/%d", peer, purpose)
}

type noopNotifier struct{}

func (noopNotifier) SessionActivated(context.Context, int, session.Key, *result.Buffer) {}
func (noopNotifier) NotifyPairsReady(context.Context, int, model.PairRange)             {}
func (noopNotifier) RequestFailed(context.Context, int, session.Key, error)             {}
func (noopNotifier) RequestCompleted(context.Context, int, session.Key)                 {}
