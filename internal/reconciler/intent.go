// Package reconciler is the central engine: it hosts update, which applies
// one user intent to desired state and emits commands, and Diff, which
// folds a fresh raw-graph snapshot into desired state (spec.md §4.4-§4.5).
package reconciler

import (
	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

// Intent is the closed set of user-initiated state transitions. Concrete
// types are unexported-tag structs, matching the desired package's
// EndpointDescriptor: a closed sum, not open polymorphism.
type Intent interface {
	intentTag()
}

type AddEphemeralNode struct {
	NodeID uint32
	Kind   rawgraph.SourceOrSink
}

func (AddEphemeralNode) intentTag() {}

type AddGroupNode struct {
	Name string
	Kind desired.GroupKind
}

func (AddGroupNode) intentTag() {}

// AddPersistentNode promotes a candidate node into a persistent-node
// record and endpoint, capturing its current Identifier as the stored
// match template for future resolution. This intent is additive: the
// repository this system was distilled from left the trigger undecided
// (see DESIGN.md), and this implementation resolves it as an explicit
// user action analogous to AddEphemeralNode.
type AddPersistentNode struct {
	NodeID uint32
	Kind   rawgraph.SourceOrSink
	ID     desired.PersistentID
}

func (AddPersistentNode) intentTag() {}

type AddApplication struct {
	AppID desired.AppID
	Kind  rawgraph.SourceOrSink
}

func (AddApplication) intentTag() {}

type RemoveEndpoint struct {
	Descriptor desired.EndpointDescriptor
}

func (RemoveEndpoint) intentTag() {}

// SetVolume sets an endpoint's volume directly in the stored linear
// amplitude domain. The perceptual slider<->amplitude cube mapping
// (spec.md §4.4) is a UI-boundary concern; callers convert before
// constructing this intent. See SliderToAmplitude/AmplitudeToSlider.
type SetVolume struct {
	Descriptor desired.EndpointDescriptor
	Volume     float64
}

func (SetVolume) intentTag() {}

type SetMute struct {
	Descriptor desired.EndpointDescriptor
	Mute       bool
}

func (SetMute) intentTag() {}

type SetVolumeLocked struct {
	Descriptor desired.EndpointDescriptor
	Locked     bool
}

func (SetVolumeLocked) intentTag() {}

type Link struct {
	Src desired.EndpointDescriptor
	Dst desired.EndpointDescriptor
}

func (Link) intentTag() {}

type RemoveLink struct {
	Src desired.EndpointDescriptor
	Dst desired.EndpointDescriptor
}

func (RemoveLink) intentTag() {}

type SetLinkLocked struct {
	Src    desired.EndpointDescriptor
	Dst    desired.EndpointDescriptor
	Locked bool
}

func (SetLinkLocked) intentTag() {}

type RenameEndpoint struct {
	Descriptor desired.EndpointDescriptor
	Name       *string
}

func (RenameEndpoint) intentTag() {}
