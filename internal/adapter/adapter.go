package adapter

import (
	"fmt"
	"sync"

	"github.com/sonusmix/sonusmix/internal/log"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

// serverConn is the narrow surface the adapter needs from the underlying
// PipeWire client library, isolated behind an interface so the adapter's
// event-loop and bookkeeping logic can be exercised without a live server
// (spec.md §4.1). pipewireConn, in pipewire_conn.go, is the concrete
// binding to github.com/vignemail1/pipewire-go.
type serverConn interface {
	// Connect performs the initial handshake. A failure here is fatal and
	// returned synchronously to the caller (spec.md §4.1 "Failure
	// semantics").
	Connect(events chan<- rawEvent) error
	Close() error

	CreatePortLink(srcPort, dstPort uint32) error
	CreateNodeLinks(srcNode, dstNode uint32) error
	RemovePortLink(srcPort, dstPort uint32) error
	RemoveNodeLinks(srcNode, dstNode uint32) error
	SetNodeChannelVolumes(node uint32, volumes []float64) error
	SetNodeMute(node uint32, mute bool) error
	CreateGroupNode(name string, groupID string, kind int) error
	RemoveGroupNode(groupID string) error
}

// Adapter confines all PipeWire interaction to one dedicated worker with
// a single-threaded cooperative loop, the hard requirement of the
// underlying client library (spec.md §4.1). The rest of the system talks
// to it only through Enqueue and Snapshots.
type Adapter struct {
	conn  serverConn
	shim  *shim
	store *rawgraph.Store

	events    chan rawEvent
	snapshots chan *rawgraph.Snapshot

	wg sync.WaitGroup
}

// New constructs an Adapter bound to conn. conn is nil-checked only by
// its caller; production code always passes a pipewireConn.
func New(conn serverConn) *Adapter {
	return &Adapter{
		conn:      conn,
		shim:      newShim(),
		store:     rawgraph.New(),
		events:    make(chan rawEvent, 64),
		snapshots: make(chan *rawgraph.Snapshot, 1),
	}
}

// Snapshots returns the channel GraphSnapshot values are published on,
// one per assimilated event batch (spec.md §4.1 outbound contract).
func (a *Adapter) Snapshots() <-chan *rawgraph.Snapshot {
	return a.snapshots
}

// Enqueue accepts a command from any goroutine (spec.md §4.1 cross-thread
// discipline). Never blocks past the shim's internal mutex.
func (a *Adapter) Enqueue(cmd Command) {
	a.shim.enqueue(cmd)
}

// Connect performs the initial server handshake and starts the shim
// forwarder and the event loop. A connection failure is returned
// synchronously and nothing is started (spec.md §4.1).
func (a *Adapter) Connect() error {
	if err := a.conn.Connect(a.events); err != nil {
		return fmt.Errorf("adapter: connect: %w", err)
	}

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.shim.run()
	}()
	go func() {
		defer a.wg.Done()
		a.loop()
	}()
	return nil
}

// Wait blocks until the adapter's worker goroutines have exited, which
// happens once a Shutdown command has drained through the shim.
func (a *Adapter) Wait() {
	a.wg.Wait()
}

// loop is the single-threaded cooperative event loop: it alternates
// between draining assimilated server events (publishing a snapshot after
// each batch) and executing inbound commands, until Shutdown.
func (a *Adapter) loop() {
	for {
		select {
		case cmd, ok := <-a.shim.out:
			if !ok {
				return
			}
			if _, isShutdown := cmd.(Shutdown); isShutdown {
				a.conn.Close()
				return
			}
			a.execute(cmd)
		case ev := <-a.events:
			a.drainEvents(ev)
		}
	}
}

// drainEvents applies ev and every other event already buffered in the
// channel (a "batch") before publishing one snapshot, matching the store
// invariant that it only yields a consistent snapshot at event boundaries
// (spec.md §4.2).
func (a *Adapter) drainEvents(first rawEvent) {
	first.applyTo(a.store)
	for {
		select {
		case ev := <-a.events:
			ev.applyTo(a.store)
		default:
			a.publishSnapshot()
			return
		}
	}
}

func (a *Adapter) publishSnapshot() {
	snap := a.store.Snapshot()
	select {
	case a.snapshots <- snap:
	default:
		// Drop the stale pending snapshot in favor of the fresh one; the
		// reducer only ever wants the latest.
		select {
		case <-a.snapshots:
		default:
		}
		a.snapshots <- snap
	}
}

func (a *Adapter) execute(cmd Command) {
	var err error
	switch c := cmd.(type) {
	case CreatePortLink:
		err = a.conn.CreatePortLink(c.SrcPort, c.DstPort)
	case CreateNodeLinks:
		err = a.conn.CreateNodeLinks(c.SrcNode, c.DstNode)
	case RemovePortLink:
		err = a.conn.RemovePortLink(c.SrcPort, c.DstPort)
	case RemoveNodeLinks:
		err = a.conn.RemoveNodeLinks(c.SrcNode, c.DstNode)
	case SetNodeChannelVolumes:
		err = a.conn.SetNodeChannelVolumes(c.Node, c.Volumes)
	case SetNodeMute:
		err = a.conn.SetNodeMute(c.Node, c.Mute)
	case CreateGroupNode:
		err = a.conn.CreateGroupNode(c.Name, string(c.GroupID), int(c.Kind))
	case RemoveGroupNode:
		err = a.conn.RemoveGroupNode(string(c.GroupID))
	case RequestSnapshot:
		a.publishSnapshot()
		return
	default:
		log.Errorf("adapter: unrecognized command %T", cmd)
		return
	}
	if err != nil {
		log.WithField("command", fmt.Sprintf("%T", cmd)).Errorf("adapter: command failed: %v", err)
	}
}
