package netstack

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnetlab/qnos/model"
	"github.com/qnetlab/qnos/model/network"
	"github.com/qnetlab/qnos/model/request"
	"github.com/qnetlab/qnos/model/result"
	"github.com/qnetlab/qnos/policy"
	"github.com/qnetlab/qnos/runtime/loop"
	"github.com/qnetlab/qnos/runtime/session"
	"github.com/qnetlab/qnos/service/egp"
	"github.com/qnetlab/qnos/service/egp/perfect"
	"github.com/qnetlab/qnos/service/event"
	"github.com/qnetlab/qnos/service/linksched"
	"github.com/qnetlab/qnos/service/linksched/fifo"
	"github.com/qnetlab/qnos/service/memmgr"
	"github.com/qnetlab/qnos/service/messaging/memory"
)

type readyNote struct {
	pid   int
	pairs model.PairRange
}

type recordingNotifier struct {
	activated map[int]*result.Buffer
	ready     []readyNote
	completed []session.Key
	failed    map[session.Key]error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		activated: map[int]*result.Buffer{},
		failed:    map[session.Key]error{},
	}
}

func (n *recordingNotifier) SessionActivated(_ context.Context, pid int, _ session.Key, results *result.Buffer) {
	n.activated[pid] = results
}

func (n *recordingNotifier) NotifyPairsReady(_ context.Context, pid int, pairs model.PairRange) {
	n.ready = append(n.ready, readyNote{pid: pid, pairs: pairs})
}

func (n *recordingNotifier) RequestFailed(_ context.Context, _ int, key session.Key, err error) {
	n.failed[key] = err
}

func (n *recordingNotifier) RequestCompleted(_ context.Context, _ int, key session.Key) {
	n.completed = append(n.completed, key)
}

type fixture struct {
	loop   *loop.Loop
	egs    *perfect.Service
	memA   *memmgr.Manager
	memB   *memmgr.Manager
	alice  *Processor
	bob    *Processor
	notesA *recordingNotifier
	notesB *recordingNotifier
	// chA is alice's raw endpoint towards bob, for crafted packets.
	chA *memory.Endpoint[request.Packet]
}

func commHardware(slots int) *model.Hardware {
	hw := &model.Hardware{}
	for i := 0; i < slots; i++ {
		hw.Slots = append(hw.Slots, model.Slot{ID: i, Traits: model.TraitSet{model.CommCapable, model.StorageCapable}})
	}
	return hw
}

func commModule(virtIDs ...int) *model.UnitModule {
	um := &model.UnitModule{Name: "comm"}
	for _, id := range virtIDs {
		um.Qubits = append(um.Qubits, model.VirtualQubit{ID: id, Traits: model.TraitSet{model.CommCapable}})
	}
	return um
}

func newFixture(t *testing.T, aliceSlots, bobSlots int, egsOptions ...perfect.Option) *fixture {
	t.Helper()
	lp := loop.New()
	bus := event.New()
	board := linksched.NewBoard(lp, bus, nil)
	spec := network.SchedulerSpec{Policy: network.PolicyFIFO}
	spec.Defaults()
	sched := fifo.New(spec, lp, board, nil)
	egs := perfect.New(lp, bus, sched, nil, egsOptions...)

	fx := &fixture{
		loop:   lp,
		egs:    egs,
		memA:   memmgr.New("alice", commHardware(aliceSlots), bus, lp),
		memB:   memmgr.New("bob", commHardware(bobSlots), bus, lp),
		notesA: newRecordingNotifier(),
		notesB: newRecordingNotifier(),
	}
	fx.alice = New("alice", lp, bus, fx.memA, egs, WithCorrector(egs), WithNotifier(fx.notesA))
	fx.bob = New("bob", lp, bus, fx.memB, egs, WithCorrector(egs), WithNotifier(fx.notesB))

	chA, chB := memory.NewDuplex[request.Packet](lp, "alice", "bob", memory.DefaultConfig())
	fx.alice.Connect(chA)
	fx.bob.Connect(chB)
	fx.chA = chA
	return fx
}

func (fx *fixture) register(t *testing.T, pid int, virtIDs ...int) {
	t.Helper()
	require.NoError(t, fx.memA.RegisterProcess(pid, commModule(virtIDs...)))
	require.NoError(t, fx.memB.RegisterProcess(pid, commModule(virtIDs...)))
}

func ckRequest(remote string, purpose, numPairs int, virtIDs ...int) *request.EprRequest {
	return &request.EprRequest{
		RemoteNode: remote,
		PurposeID:  purpose,
		Kind:       request.CreateAndKeep,
		NumPairs:   numPairs,
		VirtIDs:    virtIDs,
	}
}

func recvRequest(remote string, purpose int, virtIDs ...int) *request.EprRequest {
	return &request.EprRequest{RemoteNode: remote, PurposeID: purpose, VirtIDs: virtIDs}
}

func TestTwoNodeCreateKeepDeliversAllPairs(t *testing.T) {
	fx := newFixture(t, 4, 4)
	fx.register(t, 1, 0, 1)
	ctx := context.Background()

	keyA, err := fx.alice.StartInitiator(ctx, 1, ckRequest("bob", 7, 2, 0, 1))
	require.NoError(t, err)
	keyB, err := fx.bob.StartReceiver(ctx, 1, recvRequest("alice", 7, 0, 1))
	require.NoError(t, err)
	fx.loop.Drain(ctx)

	assert.Equal(t, []session.Key{keyA}, fx.notesA.completed)
	assert.Equal(t, []session.Key{keyB}, fx.notesB.completed)
	assert.Equal(t, 0, fx.alice.ActiveSessions())
	assert.Equal(t, 0, fx.bob.ActiveSessions())

	for _, notes := range []*recordingNotifier{fx.notesA, fx.notesB} {
		buf := notes.activated[1]
		require.NotNil(t, buf)
		assert.True(t, buf.CompleteAll())
		for i := 0; i < 2; i++ {
			rec, written := buf.At(i)
			require.True(t, written)
			assert.True(t, rec.Success)
			assert.Equal(t, CanonicalLabel, rec.BellLabel)
		}
		// Pair i+1 is never announced before pair i.
		assert.Equal(t, []readyNote{
			{pid: 1, pairs: model.PairRange{From: 0, To: 1}},
			{pid: 1, pairs: model.PairRange{From: 1, To: 2}},
		}, notes.ready)
	}

	// Kept pairs stay allocated until teardown.
	assert.Equal(t, 2, fx.memA.AllocationCount(1))
	assert.Equal(t, 2, fx.memB.AllocationCount(1))
	fx.memA.ReleaseProcess(ctx, 1)
	fx.memB.ReleaseProcess(ctx, 1)
	assert.Equal(t, 0, fx.memA.AllocationCount(1))
	assert.Equal(t, 0, fx.memB.AllocationCount(1))
}

func TestBellLabelsCanonicalizedOnBothSides(t *testing.T) {
	fx := newFixture(t, 4, 4, perfect.WithBellLabels(1, 2, 3))
	fx.register(t, 1, 0, 1, 2)
	ctx := context.Background()

	_, err := fx.alice.StartInitiator(ctx, 1, ckRequest("bob", 1, 3, 0, 1, 2))
	require.NoError(t, err)
	_, err = fx.bob.StartReceiver(ctx, 1, recvRequest("alice", 1, 0, 1, 2))
	require.NoError(t, err)
	fx.loop.Drain(ctx)

	for _, notes := range []*recordingNotifier{fx.notesA, fx.notesB} {
		buf := notes.activated[1]
		require.NotNil(t, buf)
		for i := 0; i < 3; i++ {
			rec, written := buf.At(i)
			require.True(t, written)
			assert.Equal(t, CanonicalLabel, rec.BellLabel, "pair %d", i)
		}
	}

	// Only the initiating side corrects, one operation set per raw label.
	corrections := fx.egs.Corrections("alice")
	require.Len(t, corrections, 3)
	assert.Equal(t, []egp.CorrectionOp{egp.PauliX}, corrections[0].Ops)
	assert.Equal(t, []egp.CorrectionOp{egp.PauliZ}, corrections[1].Ops)
	assert.Equal(t, []egp.CorrectionOp{egp.PauliX, egp.PauliZ}, corrections[2].Ops)
	assert.Empty(t, fx.egs.Corrections("bob"))
}

func TestMeasureDirectlyRecordsOutcomeAndFreesSlots(t *testing.T) {
	fx := newFixture(t, 1, 1, perfect.WithDeliveryHook(func(seq int, d *egp.Delivery) {
		d.Outcome = seq % 2
		d.Basis = 1
	}))
	fx.register(t, 1, 0)
	ctx := context.Background()

	req := &request.EprRequest{
		RemoteNode: "bob",
		PurposeID:  2,
		Kind:       request.MeasureDirectly,
		NumPairs:   3,
		VirtIDs:    []int{0},
	}
	_, err := fx.alice.StartInitiator(ctx, 1, req)
	require.NoError(t, err)
	_, err = fx.bob.StartReceiver(ctx, 1, recvRequest("alice", 2, 0))
	require.NoError(t, err)
	fx.loop.Drain(ctx)

	buf := fx.notesA.activated[1]
	require.NotNil(t, buf)
	for i := 0; i < 3; i++ {
		rec, written := buf.At(i)
		require.True(t, written)
		assert.True(t, rec.Success)
		assert.Equal(t, 0, rec.BellLabel)
		assert.Equal(t, i%2, rec.Outcome)
		assert.Equal(t, 1, rec.Basis)
	}

	// Measured pairs release their slot after every write; with one slot
	// per node the request could not have completed otherwise.
	assert.Equal(t, 0, fx.memA.AllocationCount(1))
	assert.Equal(t, 0, fx.memB.AllocationCount(1))
	assert.Equal(t, 1, fx.memA.FreeCount())
	assert.Equal(t, 3, fx.egs.Generated())
}

func TestReceiverAdoptsInitiatorKind(t *testing.T) {
	fx := newFixture(t, 2, 2)
	fx.register(t, 1, 0)
	ctx := context.Background()

	req := &request.EprRequest{
		RemoteNode: "bob",
		PurposeID:  4,
		Kind:       request.MeasureDirectly,
		NumPairs:   2,
		VirtIDs:    []int{0},
	}
	_, err := fx.alice.StartInitiator(ctx, 1, req)
	require.NoError(t, err)
	keyB, err := fx.bob.StartReceiver(ctx, 1, recvRequest("alice", 4, 0))
	require.NoError(t, err)
	fx.loop.Drain(ctx)

	assert.Equal(t, []session.Key{keyB}, fx.notesB.completed)
	buf := fx.notesB.activated[1]
	require.NotNil(t, buf)
	assert.Equal(t, 2, buf.Size())
	assert.True(t, buf.CompleteAll())
	// Receiver measured too, so nothing stayed allocated.
	assert.Equal(t, 0, fx.memB.AllocationCount(1))
}

func TestCreateBeforeReceiverIsStashed(t *testing.T) {
	fx := newFixture(t, 2, 2)
	fx.register(t, 1, 0)
	ctx := context.Background()

	keyA, err := fx.alice.StartInitiator(ctx, 1, ckRequest("bob", 3, 1, 0))
	require.NoError(t, err)
	// Deliver the create before any receiver exists; it must wait in the
	// stash rather than being dropped.
	fx.loop.RunUntil(ctx, fx.loop.Now())
	assert.Equal(t, 0, fx.bob.ActiveSessions())

	keyB, err := fx.bob.StartReceiver(ctx, 1, recvRequest("alice", 3, 0))
	require.NoError(t, err)
	fx.loop.Drain(ctx)

	assert.Equal(t, []session.Key{keyA}, fx.notesA.completed)
	assert.Equal(t, []session.Key{keyB}, fx.notesB.completed)
}

func TestHandshakeTimeoutFailsWholeRequest(t *testing.T) {
	fx := newFixture(t, 2, 2)
	fx.register(t, 1, 0)
	ctx := context.Background()

	keyA, err := fx.alice.StartInitiator(ctx, 1, ckRequest("bob", 5, 2, 0))
	require.NoError(t, err)
	// No receiver ever registers.
	fx.loop.Drain(ctx)

	require.Contains(t, fx.notesA.failed, keyA)
	assert.ErrorIs(t, fx.notesA.failed[keyA], ErrPeerHandshakeTimeout)
	assert.Empty(t, fx.notesA.completed)
	assert.Empty(t, fx.notesA.ready)
	assert.Equal(t, 0, fx.alice.ActiveSessions())
	assert.Equal(t, 0, fx.memA.AllocationCount(1))
}

func TestUnsupportedKindFatal(t *testing.T) {
	fx := newFixture(t, 2, 2)
	fx.register(t, 1, 0)
	ctx := context.Background()

	// The initiating side rejects it before the session exists.
	req := ckRequest("bob", 6, 1, 0)
	req.Kind = request.RemoteStatePrep
	_, err := fx.alice.StartInitiator(ctx, 1, req)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	assert.Equal(t, 0, fx.alice.ActiveSessions())

	// The receiving side learns the kind from the wire and tears the
	// session down.
	keyB, err := fx.bob.StartReceiver(ctx, 1, recvRequest("alice", 6, 0))
	require.NoError(t, err)
	crafted := &request.Packet{Type: request.PacketCreate, Create: &request.CreatePacket{
		SessionID: "crafted",
		FromNode:  "alice",
		PurposeID: 6,
		Kind:      request.RemoteStatePrep,
		NumPairs:  1,
	}}
	require.NoError(t, fx.chA.Send(ctx, crafted))
	fx.loop.Drain(ctx)

	require.Contains(t, fx.notesB.failed, keyB)
	assert.ErrorIs(t, fx.notesB.failed[keyB], ErrUnsupportedKind)
	assert.Equal(t, 0, fx.bob.ActiveSessions())
}

func TestAllocationBackpressureWaitsForFreedMemory(t *testing.T) {
	fx := newFixture(t, 1, 2)
	fx.register(t, 1, 0)
	fx.register(t, 2, 0)
	ctx := context.Background()

	// Process 1 keeps alice's only slot.
	_, err := fx.alice.StartInitiator(ctx, 1, ckRequest("bob", 1, 1, 0))
	require.NoError(t, err)
	_, err = fx.bob.StartReceiver(ctx, 1, recvRequest("alice", 1, 0))
	require.NoError(t, err)
	fx.loop.Drain(ctx)
	require.Len(t, fx.notesA.completed, 1)

	// Process 2 needs a slot and must park, not fail.
	mdReq := &request.EprRequest{
		RemoteNode: "bob",
		PurposeID:  2,
		Kind:       request.MeasureDirectly,
		NumPairs:   1,
		VirtIDs:    []int{0},
	}
	keyA2, err := fx.alice.StartInitiator(ctx, 2, mdReq)
	require.NoError(t, err)
	_, err = fx.bob.StartReceiver(ctx, 2, recvRequest("alice", 2, 0))
	require.NoError(t, err)
	fx.loop.Drain(ctx)

	s2, ok := fx.alice.Session(keyA2)
	require.True(t, ok)
	assert.Equal(t, session.PhaseAllocating, s2.Phase)
	assert.Equal(t, 1, s2.AllocAttempts)
	assert.Empty(t, fx.notesA.failed)

	// Teardown of process 1 frees the slot and wakes the parked session.
	fx.memA.ReleaseProcess(ctx, 1)
	fx.loop.Drain(ctx)

	assert.Contains(t, fx.notesA.completed, keyA2)
	assert.Equal(t, 0, fx.alice.ActiveSessions())
	assert.Equal(t, 0, fx.memA.AllocationCount(2))
}

func TestAllocationDeniedByPolicy(t *testing.T) {
	fx := newFixture(t, 1, 2)
	fx.register(t, 1, 0)
	fx.register(t, 2, 0)
	ctx := policy.WithPolicy(context.Background(), &policy.Policy{Mode: policy.ModeDeny, MaxAttempts: 1})

	_, err := fx.alice.StartInitiator(ctx, 1, ckRequest("bob", 1, 1, 0))
	require.NoError(t, err)
	_, err = fx.bob.StartReceiver(ctx, 1, recvRequest("alice", 1, 0))
	require.NoError(t, err)
	fx.loop.Drain(ctx)

	keyA2, err := fx.alice.StartInitiator(ctx, 2, ckRequest("bob", 2, 1, 0))
	require.NoError(t, err)
	_, err = fx.bob.StartReceiver(ctx, 2, recvRequest("alice", 2, 0))
	require.NoError(t, err)
	fx.loop.Drain(ctx)

	require.Contains(t, fx.notesA.failed, keyA2)
	assert.ErrorIs(t, fx.notesA.failed[keyA2], ErrAllocationDenied)
}

func TestDeliveryFailureRecordedNotRetried(t *testing.T) {
	fx := newFixture(t, 4, 4, perfect.WithDeliveryHook(func(seq int, d *egp.Delivery) {
		if seq == 0 {
			d.Success = false
			d.Reason = "photon lost"
		}
	}))
	fx.register(t, 1, 0, 1)
	ctx := context.Background()

	keyA, err := fx.alice.StartInitiator(ctx, 1, ckRequest("bob", 9, 2, 0, 1))
	require.NoError(t, err)
	_, err = fx.bob.StartReceiver(ctx, 1, recvRequest("alice", 9, 0, 1))
	require.NoError(t, err)
	fx.loop.Drain(ctx)

	assert.Equal(t, []session.Key{keyA}, fx.notesA.completed)
	buf := fx.notesA.activated[1]
	require.NotNil(t, buf)

	failed, written := buf.At(0)
	require.True(t, written)
	assert.False(t, failed.Success)
	assert.Equal(t, result.Unset, failed.BellLabel)

	good, written := buf.At(1)
	require.True(t, written)
	assert.True(t, good.Success)
	assert.Equal(t, CanonicalLabel, good.BellLabel)

	// The failed pair's slot went back to the pool; only the kept pair
	// remains allocated.
	assert.Equal(t, 1, fx.memA.AllocationCount(1))
	assert.Equal(t, 1, fx.memB.AllocationCount(1))
}

func TestGoodnessAccumulatesAcrossPairs(t *testing.T) {
	fx := newFixture(t, 4, 4, perfect.WithGenerationTime(2*time.Microsecond))
	fx.register(t, 1, 0, 1)
	ctx := context.Background()

	_, err := fx.alice.StartInitiator(ctx, 1, ckRequest("bob", 1, 2, 0, 1))
	require.NoError(t, err)
	_, err = fx.bob.StartReceiver(ctx, 1, recvRequest("alice", 1, 0, 1))
	require.NoError(t, err)
	fx.loop.Drain(ctx)

	// Switch time 1us plus 2us generation per pair, measured from the
	// start of the per-pair loop: 3us for the first pair, 6us for the
	// second.
	buf := fx.notesA.activated[1]
	require.NotNil(t, buf)
	first, _ := buf.At(0)
	second, _ := buf.At(1)
	assert.Equal(t, int64(3), first.GoodnessUS)
	assert.Equal(t, int64(6), second.GoodnessUS)
}

func TestSessionKeyReusableAfterCompletion(t *testing.T) {
	fx := newFixture(t, 4, 4)
	fx.register(t, 1, 0)
	ctx := context.Background()

	for round := 0; round < 2; round++ {
		req := &request.EprRequest{
			RemoteNode: "bob",
			PurposeID:  1,
			Kind:       request.MeasureDirectly,
			NumPairs:   1,
			VirtIDs:    []int{0},
		}
		_, err := fx.alice.StartInitiator(ctx, 1, req)
		require.NoError(t, err, "round %d", round)
		_, err = fx.bob.StartReceiver(ctx, 1, recvRequest("alice", 1, 0))
		require.NoError(t, err, "round %d", round)
		fx.loop.Drain(ctx)
	}

	assert.Len(t, fx.notesA.completed, 2)
	assert.Len(t, fx.notesB.completed, 2)
	assert.Equal(t, 2, fx.egs.Generated())
}

func TestStartRejectsDuplicateAndUnknownPeer(t *testing.T) {
	fx := newFixture(t, 2, 2)
	fx.register(t, 1, 0)
	ctx := context.Background()

	_, err := fx.alice.StartInitiator(ctx, 1, ckRequest("bob", 1, 1, 0))
	require.NoError(t, err)
	_, err = fx.alice.StartInitiator(ctx, 1, ckRequest("bob", 1, 1, 0))
	assert.ErrorIs(t, err, ErrSessionActive)

	_, err = fx.alice.StartInitiator(ctx, 1, ckRequest("charlie", 1, 1, 0))
	assert.ErrorIs(t, err, ErrUnknownPeer)
}

func TestMalformedPacketDropped(t *testing.T) {
	fx := newFixture(t, 2, 2)
	fx.register(t, 1, 0)
	ctx := context.Background()

	require.NoError(t, fx.chA.Send(ctx, &request.Packet{Type: request.PacketCreate}))
	fx.loop.Drain(ctx)

	assert.Equal(t, 0, fx.bob.ActiveSessions())
	assert.Empty(t, fx.notesB.failed)
}
