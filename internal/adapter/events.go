package adapter

import (
	"github.com/sonusmix/sonusmix/internal/identifier"
	"github.com/sonusmix/sonusmix/internal/log"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

// rawEvent is the closed set of notifications forwarded into the adapter's
// single drain loop (spec.md §4.1b); only the adapter loop goroutine ever
// applies them to the Store. The production binding (pipewireConn) has only
// a registry callback, and it emits only nodeAdded, portAdded and linkAdded;
// it emits no removal, parameter, route or self-client-id events.
type rawEvent interface {
	applyTo(store *rawgraph.Store)
}

type clientAdded struct {
	ID   uint32
	Name string
}

func (e clientAdded) applyTo(s *rawgraph.Store) { s.AddClient(e.ID, e.Name) }

type clientRemoved struct{ ID uint32 }

func (e clientRemoved) applyTo(s *rawgraph.Store) { s.RemoveClient(e.ID) }

type deviceAdded struct {
	ID       uint32
	Name     string
	ClientID *uint32
}

func (e deviceAdded) applyTo(s *rawgraph.Store) { s.AddDevice(e.ID, e.Name, e.ClientID) }

type deviceRemoved struct{ ID uint32 }

func (e deviceRemoved) applyTo(s *rawgraph.Store) { s.RemoveDevice(e.ID) }

type deviceRoutesChanged struct {
	ID     uint32
	Routes []rawgraph.Route
}

func (e deviceRoutesChanged) applyTo(s *rawgraph.Store) { s.SetDeviceRoutes(e.ID, e.Routes) }

type nodeAdded struct {
	ID         uint32
	Identifier identifier.Identifier
	Ref        rawgraph.EndpointRef
}

// applyTo admits the node only if its Identifier carries the minimum
// metadata required for identity resolution (spec.md §7, "identifier
// starvation"); an unidentifiable node is logged at debug and skipped
// rather than added to the store.
func (e nodeAdded) applyTo(s *rawgraph.Store) {
	if !e.Identifier.Admitted() {
		log.Debugf("adapter: node %d lacks identifying metadata, skipping", e.ID)
		return
	}
	s.AddNode(e.ID, e.Identifier, e.Ref)
}

type nodeRemoved struct{ ID uint32 }

func (e nodeRemoved) applyTo(s *rawgraph.Store) { s.RemoveNode(e.ID) }

type nodeVolumesChanged struct {
	ID      uint32
	Volumes []float64
}

func (e nodeVolumesChanged) applyTo(s *rawgraph.Store) { s.SetNodeChannelVolumes(e.ID, e.Volumes) }

type nodeMuteChanged struct {
	ID   uint32
	Mute bool
}

func (e nodeMuteChanged) applyTo(s *rawgraph.Store) { s.SetNodeMute(e.ID, e.Mute) }

type portAdded struct {
	ID           uint32
	Name         string
	ChannelLabel string
	NodeID       uint32
	Kind         rawgraph.SourceOrSink
}

func (e portAdded) applyTo(s *rawgraph.Store) {
	s.AddPort(e.ID, e.Name, e.ChannelLabel, e.NodeID, e.Kind)
}

type portRemoved struct{ ID uint32 }

func (e portRemoved) applyTo(s *rawgraph.Store) { s.RemovePort(e.ID) }

type linkAdded struct {
	ID                    uint32
	StartNode, StartPort  uint32
	EndNode, EndPort      uint32
}

func (e linkAdded) applyTo(s *rawgraph.Store) {
	s.AddLink(e.ID, e.StartNode, e.StartPort, e.EndNode, e.EndPort)
}

type linkRemoved struct{ ID uint32 }

func (e linkRemoved) applyTo(s *rawgraph.Store) { s.RemoveLink(e.ID) }

type selfClientIDLearned struct{ ID uint32 }

func (e selfClientIDLearned) applyTo(s *rawgraph.Store) { s.SetSelfClientID(e.ID) }
