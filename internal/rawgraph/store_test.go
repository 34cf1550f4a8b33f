package rawgraph

import (
	"testing"

	"github.com/sonusmix/sonusmix/internal/identifier"
)

func sp(s string) *string { return &s }

func TestAddPortBeforeNodeIsAdopted(t *testing.T) {
	s := New()
	s.AddPort(1, "playback_FL", "FL", 10, Source)
	s.AddNode(10, identifier.Identifier{NodeName: sp("n10")}, EndpointRef{Kind: RefClient, ClientID: 1})

	snap := s.Snapshot()
	node, ok := snap.Nodes[10]
	if !ok {
		t.Fatal("node not present")
	}
	if kind, ok := node.Ports[1]; !ok || kind != Source {
		t.Errorf("port 1 not adopted by node 10: %+v", node.Ports)
	}
}

func TestAddLinkBeforePortsIsAdopted(t *testing.T) {
	s := New()
	s.AddLink(100, 1, 1, 2, 2)
	s.AddNode(1, identifier.Identifier{NodeName: sp("a")}, EndpointRef{Kind: RefClient, ClientID: 1})
	s.AddPort(1, "out", "FL", 1, Source)
	s.AddNode(2, identifier.Identifier{NodeName: sp("b")}, EndpointRef{Kind: RefClient, ClientID: 1})
	s.AddPort(2, "in", "FL", 2, Sink)

	snap := s.Snapshot()
	sp1 := snap.Ports[1]
	ep2 := snap.Ports[2]
	if _, ok := sp1.Links[100]; !ok {
		t.Error("link 100 not attached to start port")
	}
	if _, ok := ep2.Links[100]; !ok {
		t.Error("link 100 not attached to end port")
	}
}

func TestNodeAdoptedByDeviceOnArrival(t *testing.T) {
	s := New()
	s.AddNode(1, identifier.Identifier{NodeName: sp("n1")}, EndpointRef{Kind: RefDevice, DeviceID: 5})
	s.AddDevice(5, "Card", nil)

	snap := s.Snapshot()
	d := snap.Devices[5]
	if _, ok := d.Nodes[1]; !ok {
		t.Error("node 1 not adopted by device 5")
	}
}

func TestRemoveNodeDetachesFromDevice(t *testing.T) {
	s := New()
	s.AddDevice(5, "Card", nil)
	s.AddNode(1, identifier.Identifier{NodeName: sp("n1")}, EndpointRef{Kind: RefDevice, DeviceID: 5})
	s.RemoveNode(1)

	snap := s.Snapshot()
	if _, ok := snap.Nodes[1]; ok {
		t.Error("node 1 should be gone")
	}
	if _, ok := snap.Devices[5].Nodes[1]; ok {
		t.Error("device 5 should no longer reference node 1")
	}
}

func TestRemoveLinkDetachesFromPorts(t *testing.T) {
	s := New()
	s.AddNode(1, identifier.Identifier{NodeName: sp("a")}, EndpointRef{Kind: RefClient, ClientID: 1})
	s.AddPort(1, "out", "FL", 1, Source)
	s.AddNode(2, identifier.Identifier{NodeName: sp("b")}, EndpointRef{Kind: RefClient, ClientID: 1})
	s.AddPort(2, "in", "FL", 2, Sink)
	s.AddLink(100, 1, 1, 2, 2)
	s.RemoveLink(100)

	snap := s.Snapshot()
	if _, ok := snap.Links[100]; ok {
		t.Error("link 100 should be gone")
	}
	if _, ok := snap.Ports[1].Links[100]; ok {
		t.Error("start port should no longer reference link 100")
	}
}

func TestSnapshotIsolatedFromFurtherMutation(t *testing.T) {
	s := New()
	s.AddNode(1, identifier.Identifier{NodeName: sp("a")}, EndpointRef{Kind: RefClient, ClientID: 1})
	snap := s.Snapshot()

	s.SetNodeMute(1, true)
	s.SetNodeChannelVolumes(1, []float64{0.5})

	if snap.Nodes[1].Mute {
		t.Error("snapshot should not observe later mutation")
	}
	if len(snap.Nodes[1].ChannelVolumes) != 0 {
		t.Error("snapshot should not observe later volume mutation")
	}
}

func TestSelfClientIDMarksExistingClient(t *testing.T) {
	s := New()
	s.AddClient(7, "sonusmix")
	s.SetSelfClientID(7)

	snap := s.Snapshot()
	if !snap.Clients[7].IsSelf {
		t.Error("client 7 should be marked self")
	}
}

func TestSelfClientIDMarksLaterArrivingClient(t *testing.T) {
	s := New()
	s.SetSelfClientID(7)
	s.AddClient(7, "sonusmix")

	snap := s.Snapshot()
	if !snap.Clients[7].IsSelf {
		t.Error("client 7 should be marked self even though it arrived after SetSelfClientID")
	}
}
