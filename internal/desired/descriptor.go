// Package desired holds the user-facing data model: endpoints, groups,
// applications, devices, and links, addressed by EndpointDescriptor
// (spec.md §3). This is the model the reconciler reads and rewrites; the
// UI collaborator only ever sees a *State snapshot of it.
package desired

import "github.com/sonusmix/sonusmix/internal/rawgraph"

// DescriptorKind tags which of the five EndpointDescriptor variants a
// value holds.
type DescriptorKind int

const (
	KindEphemeralNode DescriptorKind = iota
	KindPersistentNode
	KindGroupNode
	KindApplication
	KindDevice
)

func (k DescriptorKind) String() string {
	switch k {
	case KindEphemeralNode:
		return "EphemeralNode"
	case KindPersistentNode:
		return "PersistentNode"
	case KindGroupNode:
		return "GroupNode"
	case KindApplication:
		return "Application"
	case KindDevice:
		return "Device"
	default:
		return "Unknown"
	}
}

// PersistentID, GroupID, AppID, and DeviceID are opaque stable identities
// assigned by sonusmix itself (not server ids, which churn across
// restarts).
type PersistentID string
type GroupID string
type AppID string
type DeviceID string

// EndpointDescriptor is the sum-typed primary key of the desired-state
// model. It is a plain comparable struct (not an interface) so it can be
// used directly as a map key, the way the teacher's protocol.Message uses
// a closed set of string tags rather than open polymorphism.
type EndpointDescriptor struct {
	Kind DescriptorKind

	NodeID       uint32
	PersistentID PersistentID
	GroupID      GroupID
	AppID        AppID
	DeviceID     DeviceID

	// PortKind is meaningful for every kind except GroupNode, which
	// appears on both the source and sink sides by convention (it is
	// simultaneously routable-from and routable-to).
	PortKind rawgraph.SourceOrSink
}

func EphemeralNode(nodeID uint32, kind rawgraph.SourceOrSink) EndpointDescriptor {
	return EndpointDescriptor{Kind: KindEphemeralNode, NodeID: nodeID, PortKind: kind}
}

func PersistentNode(id PersistentID, kind rawgraph.SourceOrSink) EndpointDescriptor {
	return EndpointDescriptor{Kind: KindPersistentNode, PersistentID: id, PortKind: kind}
}

// GroupNodeDescriptor builds the descriptor for a group node. Group nodes
// have no single PortKind: they resolve as both a source and a sink.
func GroupNodeDescriptor(id GroupID) EndpointDescriptor {
	return EndpointDescriptor{Kind: KindGroupNode, GroupID: id}
}

func ApplicationDescriptor(id AppID, kind rawgraph.SourceOrSink) EndpointDescriptor {
	return EndpointDescriptor{Kind: KindApplication, AppID: id, PortKind: kind}
}

func DeviceDescriptor(id DeviceID, kind rawgraph.SourceOrSink) EndpointDescriptor {
	return EndpointDescriptor{Kind: KindDevice, DeviceID: id, PortKind: kind}
}

// IsKind reports whether this descriptor can act as the given port kind.
// Group nodes answer true for both kinds.
func (d EndpointDescriptor) IsKind(kind rawgraph.SourceOrSink) bool {
	if d.Kind == KindGroupNode {
		return true
	}
	return d.PortKind == kind
}

func (d EndpointDescriptor) IsSource() bool { return d.IsKind(rawgraph.Source) }
func (d EndpointDescriptor) IsSink() bool   { return d.IsKind(rawgraph.Sink) }
