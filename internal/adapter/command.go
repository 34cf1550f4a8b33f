// Package adapter confines all PipeWire interaction to one dedicated
// worker with a single-threaded cooperative loop, the hard requirement of
// the underlying client library (spec.md §4.1). This file defines the
// command vocabulary the rest of the system uses to drive it.
package adapter

import (
	"github.com/sonusmix/sonusmix/internal/desired"
)

// Command is the closed set of imperative operations the reconciler may
// ask the adapter to perform. Each concrete type below is one row of the
// inbound-command table in spec.md §4.1.
type Command interface {
	commandTag()
}

// CreatePortLink links exactly the two named ports.
type CreatePortLink struct {
	SrcPort uint32
	DstPort uint32
}

func (CreatePortLink) commandTag() {}

// CreateNodeLinks connects every matching channel-labeled port pair
// between the two nodes once, skipping pairs that are already linked.
type CreateNodeLinks struct {
	SrcNode uint32
	DstNode uint32
}

func (CreateNodeLinks) commandTag() {}

// RemovePortLink removes the link between exactly the two named ports,
// if one exists.
type RemovePortLink struct {
	SrcPort uint32
	DstPort uint32
}

func (RemovePortLink) commandTag() {}

// RemoveNodeLinks removes every link between the two nodes.
type RemoveNodeLinks struct {
	SrcNode uint32
	DstNode uint32
}

func (RemoveNodeLinks) commandTag() {}

// SetNodeChannelVolumes sets a node's per-channel linear-amplitude
// volumes.
type SetNodeChannelVolumes struct {
	Node    uint32
	Volumes []float64
}

func (SetNodeChannelVolumes) commandTag() {}

// SetNodeMute sets a node's mute flag.
type SetNodeMute struct {
	Node uint32
	Mute bool
}

func (SetNodeMute) commandTag() {}

// CreateGroupNode creates the backing server object for a sonusmix group
// node, with the object properties specified in spec.md §6.
type CreateGroupNode struct {
	Name    string
	GroupID desired.GroupID
	Kind    desired.GroupKind
}

func (CreateGroupNode) commandTag() {}

// RemoveGroupNode destroys the backing server object for a group node.
type RemoveGroupNode struct {
	GroupID desired.GroupID
}

func (RemoveGroupNode) commandTag() {}

// RequestSnapshot asks the adapter to publish a fresh GraphSnapshot even
// absent any new event, e.g. right after startup.
type RequestSnapshot struct{}

func (RequestSnapshot) commandTag() {}

// Shutdown tells the adapter loop and its shim to terminate.
type Shutdown struct{}

func (Shutdown) commandTag() {}
