package adapter

import (
	"fmt"
	"testing"
	"time"
)

type fakeConn struct {
	events chan<- rawEvent

	portLinks       [][2]uint32
	nodeLinks       [][2]uint32
	removedPortLink [][2]uint32
	removedNodeLink [][2]uint32
	groupsCreated   []string
	groupsRemoved   []string
	closed          bool
}

func (f *fakeConn) Connect(events chan<- rawEvent) error {
	f.events = events
	return nil
}

func (f *fakeConn) Close() error { f.closed = true; return nil }

func (f *fakeConn) CreatePortLink(src, dst uint32) error {
	f.portLinks = append(f.portLinks, [2]uint32{src, dst})
	return nil
}
func (f *fakeConn) CreateNodeLinks(src, dst uint32) error {
	f.nodeLinks = append(f.nodeLinks, [2]uint32{src, dst})
	return nil
}
func (f *fakeConn) RemovePortLink(src, dst uint32) error {
	f.removedPortLink = append(f.removedPortLink, [2]uint32{src, dst})
	return nil
}
func (f *fakeConn) RemoveNodeLinks(src, dst uint32) error {
	f.removedNodeLink = append(f.removedNodeLink, [2]uint32{src, dst})
	return nil
}
func (f *fakeConn) SetNodeChannelVolumes(node uint32, volumes []float64) error { return nil }
func (f *fakeConn) SetNodeMute(node uint32, mute bool) error                   { return nil }
func (f *fakeConn) CreateGroupNode(name, groupID string, kind int) error {
	f.groupsCreated = append(f.groupsCreated, groupID)
	return nil
}
func (f *fakeConn) RemoveGroupNode(groupID string) error {
	f.groupsRemoved = append(f.groupsRemoved, groupID)
	return nil
}

func TestAdapterPublishesSnapshotAfterEventBatch(t *testing.T) {
	conn := &fakeConn{}
	a := New(conn)
	if err := a.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer func() {
		a.Enqueue(Shutdown{})
		a.Wait()
	}()

	conn.events <- clientAdded{ID: 1, Name: "test"}
	conn.events <- deviceAdded{ID: 2, Name: "card"}

	select {
	case snap := <-a.Snapshots():
		if _, ok := snap.Clients[1]; !ok {
			t.Fatalf("expected client 1 in published snapshot")
		}
		if _, ok := snap.Devices[2]; !ok {
			t.Fatalf("expected device 2 in published snapshot")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}

func TestAdapterDispatchesCommandsToConn(t *testing.T) {
	conn := &fakeConn{}
	a := New(conn)
	if err := a.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	a.Enqueue(CreatePortLink{SrcPort: 1, DstPort: 2})
	a.Enqueue(CreateGroupNode{Name: "g", GroupID: "gid-1"})
	a.Enqueue(Shutdown{})
	a.Wait()

	if len(conn.portLinks) != 1 || conn.portLinks[0] != [2]uint32{1, 2} {
		t.Fatalf("expected CreatePortLink(1,2) dispatched, got %v", conn.portLinks)
	}
	if len(conn.groupsCreated) != 1 || conn.groupsCreated[0] != "gid-1" {
		t.Fatalf("expected CreateGroupNode dispatched, got %v", conn.groupsCreated)
	}
	if !conn.closed {
		t.Fatalf("expected conn to be closed after Shutdown")
	}
}

func TestAdapterConnectFailurePropagatesSynchronously(t *testing.T) {
	conn := &failingConn{}
	a := New(conn)
	if err := a.Connect(); err == nil {
		t.Fatalf("expected Connect to return an error")
	}
}

type failingConn struct {
	fakeConn
}

func (f *failingConn) Connect(events chan<- rawEvent) error {
	return fmt.Errorf("simulated connect failure")
}
