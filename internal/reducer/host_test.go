package reducer

import (
	"testing"
	"time"

	"github.com/sonusmix/sonusmix/internal/adapter"
	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/identifier"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
	"github.com/sonusmix/sonusmix/internal/reconciler"
)

type fakeSink struct {
	cmds []adapter.Command
}

func newFakeSink() *fakeSink { return &fakeSink{} }

func (f *fakeSink) Enqueue(cmd adapter.Command) {
	f.cmds = append(f.cmds, cmd)
}

func nodeName(name string) identifier.Identifier {
	return identifier.Identifier{NodeName: &name}
}

func waitForState(t *testing.T, ch <-chan *desired.State, timeout time.Duration) *desired.State {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(timeout):
		t.Fatal("timed out waiting for published state")
		return nil
	}
}

func TestEmitPromotesEphemeralNodeAndPublishes(t *testing.T) {
	store := rawgraph.New()
	store.AddNode(7, nodeName("mic"), rawgraph.EndpointRef{Kind: rawgraph.RefClient, ClientID: 1})
	store.AddPort(1, "out", "FL", 7, rawgraph.Source)

	sink := newFakeSink()
	h := New(Config{Adapter: sink})
	sub := h.Subscribe()
	h.Run()
	defer h.Stop()

	h.PushSnapshot(store.Snapshot())
	waitForState(t, sub, time.Second)

	if err := h.Emit(reconciler.AddEphemeralNode{NodeID: 7, Kind: rawgraph.Source}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	state := waitForState(t, sub, time.Second)
	d := desired.EphemeralNode(7, rawgraph.Source)
	if _, ok := state.Endpoints[d]; !ok {
		t.Fatalf("expected endpoint for node 7 to exist after promotion")
	}
}

func TestEmitReturnsErrQueueFullWhenSaturated(t *testing.T) {
	h := New(Config{})
	// Fill the inbound buffer directly without a run loop draining it.
	for i := 0; i < inboundBuffer; i++ {
		h.inbound <- intentMsg{intent: reconciler.AddEphemeralNode{NodeID: uint32(i), Kind: rawgraph.Source}}
	}
	err := h.Emit(reconciler.AddEphemeralNode{NodeID: 999, Kind: rawgraph.Source})
	if err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := New(Config{})
	h.Run()
	h.Stop()
	h.Stop()
}

func TestSnapshotReflectsLatestPublishedState(t *testing.T) {
	store := rawgraph.New()
	store.AddNode(3, nodeName("speaker"), rawgraph.EndpointRef{Kind: rawgraph.RefClient, ClientID: 1})
	store.AddPort(1, "in", "FL", 3, rawgraph.Sink)

	h := New(Config{})
	sub := h.Subscribe()
	h.Run()
	defer h.Stop()

	h.PushSnapshot(store.Snapshot())
	waitForState(t, sub, time.Second)

	if err := h.Emit(reconciler.AddEphemeralNode{NodeID: 3, Kind: rawgraph.Sink}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	waitForState(t, sub, time.Second)

	got := h.Snapshot()
	d := desired.EphemeralNode(3, rawgraph.Sink)
	if _, ok := got.Endpoints[d]; !ok {
		t.Fatalf("Snapshot() did not reflect the promoted endpoint")
	}
}

func TestEmitRunsDiffAgainstLastSnapshotAfterIntent(t *testing.T) {
	// An AddGroupNode intent's own command creates the backing node, but
	// the snapshot the reducer holds at emit time still has no such node.
	// The post-intent diff (spec.md §4.7) must re-request creation via its
	// pending-group-node retry, so a single Emit should flush both the
	// intent's own CreateGroupNode and the diff's retry CreateGroupNode.
	store := rawgraph.New()
	sink := newFakeSink()
	h := New(Config{Adapter: sink})
	sub := h.Subscribe()
	h.Run()
	defer h.Stop()

	h.PushSnapshot(store.Snapshot())
	waitForState(t, sub, time.Second)

	if err := h.Emit(reconciler.AddGroupNode{Name: "Game Audio", Kind: desired.GroupSink}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	waitForState(t, sub, time.Second)

	var created int
	for _, cmd := range sink.cmds {
		if _, ok := cmd.(adapter.CreateGroupNode); ok {
			created++
		}
	}
	if created != 2 {
		t.Fatalf("expected 2 CreateGroupNode commands (intent + post-intent diff retry), got %d: %+v", created, sink.cmds)
	}
}

func TestSubscribeMsgReceivesNotificationOnPromotion(t *testing.T) {
	store := rawgraph.New()
	store.AddNode(9, nodeName("line-in"), rawgraph.EndpointRef{Kind: rawgraph.RefClient, ClientID: 1})
	store.AddPort(1, "out", "FL", 9, rawgraph.Source)

	h := New(Config{})
	stateSub := h.Subscribe()
	msgSub := h.SubscribeMsg()
	h.Run()
	defer h.Stop()

	h.PushSnapshot(store.Snapshot())
	waitForState(t, stateSub, time.Second)

	if err := h.Emit(reconciler.AddEphemeralNode{NodeID: 9, Kind: rawgraph.Source}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	select {
	case n := <-msgSub:
		if !n.Added {
			t.Fatalf("expected an endpoint-added notification")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}
