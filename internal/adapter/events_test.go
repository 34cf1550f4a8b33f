package adapter

import (
	"testing"

	"github.com/sonusmix/sonusmix/internal/identifier"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

func TestRawEventsApplyToStore(t *testing.T) {
	store := rawgraph.New()

	name := "mic"
	var events []rawEvent = []rawEvent{
		clientAdded{ID: 1, Name: "app"},
		deviceAdded{ID: 2, Name: "card"},
		nodeAdded{ID: 10, Identifier: identifier.Identifier{NodeName: &name}, Ref: rawgraph.EndpointRef{Kind: rawgraph.RefClient, ClientID: 1}},
		portAdded{ID: 100, Name: "in_FL", ChannelLabel: "FL", NodeID: 10, Kind: rawgraph.Source},
		nodeAdded{ID: 11, Identifier: identifier.Identifier{NodeName: &name}, Ref: rawgraph.EndpointRef{Kind: rawgraph.RefClient, ClientID: 1}},
		portAdded{ID: 101, Name: "out_FL", ChannelLabel: "FL", NodeID: 11, Kind: rawgraph.Sink},
		linkAdded{ID: 1000, StartNode: 10, StartPort: 100, EndNode: 11, EndPort: 101},
		nodeVolumesChanged{ID: 10, Volumes: []float64{0.5}},
		nodeMuteChanged{ID: 10, Mute: true},
	}

	for _, ev := range events {
		ev.applyTo(store)
	}

	snap := store.Snapshot()
	if _, ok := snap.Nodes[10]; !ok {
		t.Fatalf("expected node 10 in snapshot")
	}
	if _, ok := snap.Links[1000]; !ok {
		t.Fatalf("expected link 1000 in snapshot")
	}
	if v := snap.Nodes[10].ChannelVolumes; len(v) != 1 || v[0] != 0.5 {
		t.Fatalf("expected node 10 volume [0.5], got %v", v)
	}
	if !snap.Nodes[10].Mute {
		t.Fatalf("expected node 10 to be muted")
	}

	linkRemoved{ID: 1000}.applyTo(store)
	portRemoved{ID: 100}.applyTo(store)
	nodeRemoved{ID: 10}.applyTo(store)
	deviceRemoved{ID: 2}.applyTo(store)
	clientRemoved{ID: 1}.applyTo(store)

	snap = store.Snapshot()
	if _, ok := snap.Links[1000]; ok {
		t.Fatalf("expected link 1000 removed")
	}
	if _, ok := snap.Nodes[10]; ok {
		t.Fatalf("expected node 10 removed")
	}
	if _, ok := snap.Devices[2]; ok {
		t.Fatalf("expected device 2 removed")
	}
}

func TestNodeAddedSkipsUnidentifiableNode(t *testing.T) {
	store := rawgraph.New()
	nodeAdded{ID: 20, Identifier: identifier.Identifier{}, Ref: rawgraph.EndpointRef{Kind: rawgraph.RefClient, ClientID: 1}}.applyTo(store)

	snap := store.Snapshot()
	if _, ok := snap.Nodes[20]; ok {
		t.Fatalf("expected node 20 to be skipped for lacking identifying metadata")
	}
}

func TestSelfClientIDLearnedAppliesToStore(t *testing.T) {
	store := rawgraph.New()
	store.AddClient(5, "sonusmix")
	selfClientIDLearned{ID: 5}.applyTo(store)

	snap := store.Snapshot()
	if c, ok := snap.Clients[5]; !ok || !c.IsSelf {
		t.Fatalf("expected client 5 marked as self")
	}
}
