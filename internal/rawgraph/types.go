// Package rawgraph holds the passive, mutable in-memory projection of the
// PipeWire object graph: clients, devices, nodes, ports, links, plus
// per-node parameter state. It tolerates arrival in any order and performs
// eventual-consistency fix-up on every insert (spec.md §4.2).
package rawgraph

import "github.com/sonusmix/sonusmix/internal/identifier"

// SourceOrSink is the direction of a port or the kind of node/endpoint it
// belongs to.
type SourceOrSink int

const (
	Source SourceOrSink = iota
	Sink
)

func (k SourceOrSink) String() string {
	if k == Source {
		return "source"
	}
	return "sink"
}

// Opposite returns the other direction — used when walking links, whose
// start port is always a Source and end port always a Sink.
func (k SourceOrSink) Opposite() SourceOrSink {
	if k == Source {
		return Sink
	}
	return Source
}

// EndpointRefKind distinguishes what a node is attached to.
type EndpointRefKind int

const (
	RefDevice EndpointRefKind = iota
	RefClient
)

// EndpointRef is the node's attachment: either a device (optionally with a
// specific route/profile index) or a client process.
type EndpointRef struct {
	Kind       EndpointRefKind
	DeviceID   uint32
	RouteIndex *int // only meaningful when Kind == RefDevice
	ClientID   uint32
}

// Route describes one entry in a device's active-routes list (e.g. a
// "Speakers" or "Headphones" profile branch).
type Route struct {
	Index       int
	Name        string
	Description string
	Direction   SourceOrSink
	Available   bool
}

// Client is a user-space process connected to the server.
type Client struct {
	ID     uint32
	Name   string
	IsSelf bool
	Nodes  map[uint32]struct{}
}

func newClient(id uint32, name string, isSelf bool) *Client {
	return &Client{ID: id, Name: name, IsSelf: isSelf, Nodes: make(map[uint32]struct{})}
}

// Device is a hardware card or similar.
type Device struct {
	ID           uint32
	Name         string
	ClientID     *uint32
	Nodes        map[uint32]struct{}
	ActiveRoutes []Route
}

func newDevice(id uint32, name string, clientID *uint32) *Device {
	return &Device{ID: id, Name: name, ClientID: clientID, Nodes: make(map[uint32]struct{})}
}

// Node is a signal-processing unit: a playback stream, capture stream, or
// hardware-backed device node.
type Node struct {
	ID              uint32
	Identifier      identifier.Identifier
	EndpointRef     EndpointRef
	Ports           map[uint32]SourceOrSink // port id -> direction
	ChannelVolumes  []float64
	Mute            bool
}

func newNode(id uint32, ident identifier.Identifier, ref EndpointRef) *Node {
	return &Node{ID: id, Identifier: ident, EndpointRef: ref, Ports: make(map[uint32]SourceOrSink)}
}

// PortsOfKind returns the ids of this node's ports with the given
// direction.
func (n *Node) PortsOfKind(kind SourceOrSink) []uint32 {
	var out []uint32
	for id, k := range n.Ports {
		if k == kind {
			out = append(out, id)
		}
	}
	return out
}

// HasPortsOfKind reports whether the node has at least one port in the
// given direction.
func (n *Node) HasPortsOfKind(kind SourceOrSink) bool {
	for _, k := range n.Ports {
		if k == kind {
			return true
		}
	}
	return false
}

// Port is one audio channel's connection point on a node.
type Port struct {
	ID           uint32
	Name         string
	ChannelLabel string
	NodeID       uint32
	Kind         SourceOrSink
	Links        map[uint32]struct{}
}

func newPort(id uint32, name, channelLabel string, nodeID uint32, kind SourceOrSink) *Port {
	return &Port{ID: id, Name: name, ChannelLabel: channelLabel, NodeID: nodeID, Kind: kind, Links: make(map[uint32]struct{})}
}

// Link is a directed source-port -> sink-port connection.
type Link struct {
	ID        uint32
	StartNode uint32
	StartPort uint32
	EndNode   uint32
	EndPort   uint32
}
