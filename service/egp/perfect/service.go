// Package perfect generates entanglement without noise or loss: every
// admitted attempt succeeds as soon as the pair's slot is open, with a
// configurable Bell label and generation time. It backs tests and the
// reference two-node setup.
package perfect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qnetlab/qnos/internal/ctxlog"
	"github.com/qnetlab/qnos/internal/idgen"
	"github.com/qnetlab/qnos/internal/observability"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/service/egp"
	"github.com/qnetlab/qnos/service/event"
	"github.com/qnetlab/qnos/service/linksched"
)

var (
	_ egp.Service   = (*Service)(nil)
	_ egp.Corrector = (*Service)(nil)
)

// Correction records one applied Bell correction.
type Correction struct {
	PhysID int
	Ops    []egp.CorrectionOp
}

// Option customises the service.
type Option func(*Service)

// WithGenerationTime sets the simulated time between slot availability and
// delivery. Zero keeps deliveries in the same instant, one loop event
// later.
func WithGenerationTime(d time.Duration) Option {
	return func(s *Service) { s.genTime = d }
}

// WithBellLabels sets the raw Bell labels of successive generated pairs.
// The last label repeats once the sequence is consumed; the default is the
// canonical label 0.
func WithBellLabels(labels ...int) Option {
	return func(s *Service) { s.labels = labels }
}

// WithDeliveryHook installs fn, invoked for each side's delivery before it
// is published. seq counts generated pairs from zero; mutating the
// delivery lets tests inject failed attempts.
func WithDeliveryHook(fn func(seq int, d *egp.Delivery)) Option {
	return func(s *Service) { s.hook = fn }
}

// Service is the perfect entanglement generation service of one network.
type Service struct {
	loop    *loop.Loop
	bus     *event.Service
	sched   linksched.Scheduler
	metrics *observability.Collector

	genTime time.Duration
	labels  []int
	hook    func(seq int, d *egp.Delivery)
	seq     int

	pending     map[matchKey]*match
	byID        map[string]matchKey
	corrections map[string][]Correction
}

type matchKey struct {
	pair    linksched.Pair
	purpose int
}

type match struct {
	initiator   *submission
	receiver    *submission
	submittedAt time.Time
	generating  bool
}

type submission struct {
	id   string
	spec egp.Spec
}

// New creates the service and subscribes it to slot openings.
func New(lp *loop.Loop, bus *event.Service, sched linksched.Scheduler, metrics *observability.Collector, options ...Option) *Service {
	s := &Service{
		loop:        lp,
		bus:         bus,
		sched:       sched,
		metrics:     metrics,
		pending:     make(map[matchKey]*match),
		byID:        make(map[string]matchKey),
		corrections: make(map[string][]Correction),
	}
	for _, opt := range options {
		opt(s)
	}
	event.SubscribeTo[linksched.SlotOpened](bus, s.onSlotOpened)
	return s
}

// Submit registers one side of a generation attempt. Generation starts
// once both sides submitted and the pair's slot is open.
func (s *Service) Submit(ctx context.Context, spec egp.Spec) (string, error) {
	if spec.Node == "" || spec.Remote == "" || spec.Node == spec.Remote {
		return "", fmt.Errorf("%w: endpoints %q and %q", egp.ErrInvalidSpec, spec.Node, spec.Remote)
	}
	if spec.Initiator && !spec.Kind.Valid() {
		return "", fmt.Errorf("%w: kind %q", egp.ErrInvalidSpec, spec.Kind)
	}
	key := matchKey{pair: spec.Pair(), purpose: spec.PurposeID}
	m := s.pending[key]
	if m == nil {
		m = &match{submittedAt: s.loop.Now()}
		s.pending[key] = m
	}
	sub := &submission{id: idgen.New(), spec: spec}
	if spec.Initiator {
		if m.initiator != nil {
			return "", fmt.Errorf("%w: %v purpose %d", egp.ErrDuplicateSubmission, key.pair, key.purpose)
		}
		m.initiator = sub
		s.byID[sub.id] = key
		s.sched.RegisterRequest(ctx, linksched.Request{
			Node:      spec.Node,
			Pair:      key.pair,
			SubmitID:  sub.id,
			PurposeID: spec.PurposeID,
		})
	} else {
		if m.receiver != nil {
			return "", fmt.Errorf("%w: %v purpose %d", egp.ErrDuplicateSubmission, key.pair, key.purpose)
		}
		m.receiver = sub
	}
	ctxlog.From(ctx).Debug("generation attempt submitted",
		slog.String("node", spec.Node),
		slog.String("remote", spec.Remote),
		slog.Int("purposeID", spec.PurposeID),
		slog.Bool("initiator", spec.Initiator),
		slog.String("submitID", sub.id))
	s.tryGenerate(ctx, key)
	return sub.id, nil
}

// ApplyCorrection records the Pauli operations applied to the node's
// physical qubit. Perfect qubits carry no state, so recording is the whole
// effect.
func (s *Service) ApplyCorrection(ctx context.Context, node string, physID int, ops []egp.CorrectionOp) error {
	s.corrections[node] = append(s.corrections[node], Correction{PhysID: physID, Ops: append([]egp.CorrectionOp(nil), ops...)})
	ctxlog.From(ctx).Debug("correction applied",
		slog.String("node", node),
		slog.Int("physID", physID),
		slog.Any("ops", ops))
	return nil
}

// Corrections returns the corrections applied on the node, in order.
func (s *Service) Corrections(node string) []Correction {
	return append([]Correction(nil), s.corrections[node]...)
}

// Generated returns the number of pairs generated so far.
func (s *Service) Generated() int {
	return s.seq
}

func (s *Service) onSlotOpened(ctx context.Context, e *event.Event[linksched.SlotOpened]) {
	key, ok := s.byID[e.Data.Slot.SubmitID]
	if !ok {
		return
	}
	s.tryGenerate(ctx, key)
}

func (s *Service) tryGenerate(ctx context.Context, key matchKey) {
	m := s.pending[key]
	if m == nil || m.generating || m.initiator == nil || m.receiver == nil {
		return
	}
	slot, ok := s.sched.OpenSlot(key.pair)
	if !ok || slot.SubmitID != m.initiator.id {
		return
	}
	m.generating = true
	seq := s.seq
	s.seq++
	label := s.labelAt(seq)
	s.loop.Schedule(s.genTime, func(ctx context.Context) {
		s.deliver(ctx, key, m, seq, label)
	})
}

func (s *Service) deliver(ctx context.Context, key matchKey, m *match, seq int, label int) {
	delete(s.pending, key)
	delete(s.byID, m.initiator.id)

	waited := s.loop.Now().Sub(m.submittedAt)
	deliveries := [2]egp.Delivery{
		s.deliveryFor(m.initiator, label),
		s.deliveryFor(m.receiver, label),
	}
	if s.hook != nil {
		s.hook(seq, &deliveries[0])
		s.hook(seq, &deliveries[1])
	}
	if deliveries[0].Success {
		s.metrics.IncPairsDelivered()
	}
	s.metrics.ObservePairGeneration(waited)
	ctxlog.From(ctx).Debug("pair generated",
		slog.String("pair", key.pair.String()),
		slog.Int("purposeID", key.purpose),
		slog.Int("bellLabel", label),
		slog.Int("seq", seq))

	for i := range deliveries {
		d := deliveries[i]
		event.Publish(ctx, s.bus, event.NewEvent(event.Meta{Node: d.Node, At: s.loop.Now()}, d))
	}
	s.sched.RegisterDelivery(ctx, linksched.Delivery{
		Node:     m.initiator.spec.Node,
		Pair:     key.pair,
		SubmitID: m.initiator.id,
	})
}

func (s *Service) deliveryFor(sub *submission, label int) egp.Delivery {
	return egp.Delivery{
		SubmitID:  sub.id,
		Node:      sub.spec.Node,
		Remote:    sub.spec.Remote,
		PurposeID: sub.spec.PurposeID,
		Success:   true,
		BellLabel: label,
		Duration:  s.genTime,
	}
}

func (s *Service) labelAt(seq int) int {
	if len(s.labels) == 0 {
		return 0
	}
	if seq >= len(s.labels) {
		return s.labels[len(s.labels)-1]
	}
	return s.labels[seq]
}
