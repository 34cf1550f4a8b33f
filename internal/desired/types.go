package desired

import (
	"time"

	"github.com/sonusmix/sonusmix/internal/identifier"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

// Endpoint is a user-visible routing entity that may resolve to zero, one,
// or many server nodes.
type Endpoint struct {
	Descriptor        EndpointDescriptor
	IsPlaceholder     bool
	DisplayName       string
	CustomName        *string
	IconName          string
	Details           []string
	Volume            float64 // linear amplitude, 0..1+
	VolumeMixed       bool
	VolumeLockedMuted LockMuteState
	VolumePending     bool
	CreatedAt         time.Time
}

// Name returns the custom name if the user has set one, else the display
// name derived from server metadata.
func (e *Endpoint) Name() string {
	if e.CustomName != nil && *e.CustomName != "" {
		return *e.CustomName
	}
	return e.DisplayName
}

// LinkState is the four-valued connection state over the Cartesian
// product of a link's source- and sink-endpoint member nodes. There is no
// DisconnectedUnlocked: that state is represented by the link's absence
// from State.Links.
type LinkState int

const (
	LinkPartial LinkState = iota
	LinkConnectedUnlocked
	LinkConnectedLocked
	LinkDisconnectedLocked
)

func (s LinkState) String() string {
	switch s {
	case LinkPartial:
		return "PartiallyConnected"
	case LinkConnectedUnlocked:
		return "ConnectedUnlocked"
	case LinkConnectedLocked:
		return "ConnectedLocked"
	case LinkDisconnectedLocked:
		return "DisconnectedLocked"
	default:
		return "Unknown"
	}
}

// Link is a desired-state connection between a source endpoint and a
// sink endpoint.
type Link struct {
	Start   EndpointDescriptor
	End     EndpointDescriptor
	State   LinkState
	Pending bool
}

// GroupKind is the flavor of a sonusmix-owned virtual group node.
type GroupKind int

const (
	GroupSource GroupKind = iota
	GroupDuplex
	GroupSink
)

func (k GroupKind) String() string {
	switch k {
	case GroupSource:
		return "Source"
	case GroupDuplex:
		return "Duplex"
	case GroupSink:
		return "Sink"
	default:
		return "Unknown"
	}
}

// GroupNode is a sonusmix-owned virtual node, backed by a server object
// sonusmix creates and destroys.
type GroupNode struct {
	ID      GroupID
	Kind    GroupKind
	Pending bool
}

// Application aggregates all nodes sharing an {application_name,
// binary_name} pair, minus any nodes claimed as exceptions by other
// endpoints.
type Application struct {
	ID         AppID
	Kind       rawgraph.SourceOrSink
	IsActive   bool
	Name       string
	Binary     string
	IconName   string
	Exceptions []EndpointDescriptor
}

// Candidate is a server node not yet adopted as an endpoint.
type Candidate struct {
	NodeID     uint32
	Kind       rawgraph.SourceOrSink
	Identifier identifier.Identifier
}

// PersistentNodeRecord is the stored identity a PersistentNode descriptor
// resolves against: the Identifier captured at the moment the node was
// promoted (see SPEC_FULL.md §4.6, AddPersistentNode).
type PersistentNodeRecord struct {
	ID         PersistentID
	Identifier identifier.Identifier
}

// State is the complete desired-state model: the primary key space for
// every endpoint, plus links, group nodes, applications, candidates, and
// persistent-node records. It is always handled as an immutable value:
// the reconciler clones it before mutating and the reducer host publishes
// the result via an atomic pointer swap (spec.md §5, §9).
type State struct {
	Endpoints       map[EndpointDescriptor]Endpoint
	Links           []Link
	GroupNodes      map[GroupID]GroupNode
	Applications    map[AppID]Application
	Candidates      []Candidate
	PersistentNodes map[PersistentID]PersistentNodeRecord
}

// New returns an empty desired state.
func New() *State {
	return &State{
		Endpoints:       make(map[EndpointDescriptor]Endpoint),
		GroupNodes:      make(map[GroupID]GroupNode),
		Applications:    make(map[AppID]Application),
		PersistentNodes: make(map[PersistentID]PersistentNodeRecord),
	}
}

// Clone returns a deep copy safe to mutate independently of the
// receiver.
func (s *State) Clone() *State {
	next := &State{
		Endpoints:       make(map[EndpointDescriptor]Endpoint, len(s.Endpoints)),
		Links:           append([]Link(nil), s.Links...),
		GroupNodes:      make(map[GroupID]GroupNode, len(s.GroupNodes)),
		Applications:    make(map[AppID]Application, len(s.Applications)),
		Candidates:      append([]Candidate(nil), s.Candidates...),
		PersistentNodes: make(map[PersistentID]PersistentNodeRecord, len(s.PersistentNodes)),
	}
	for k, v := range s.Endpoints {
		v.Details = append([]string(nil), v.Details...)
		next.Endpoints[k] = v
	}
	for k, v := range s.GroupNodes {
		next.GroupNodes[k] = v
	}
	for k, v := range s.Applications {
		v.Exceptions = append([]EndpointDescriptor(nil), v.Exceptions...)
		next.Applications[k] = v
	}
	for k, v := range s.PersistentNodes {
		next.PersistentNodes[k] = v
	}
	return next
}

// ActiveSources returns the descriptors of every endpoint that can act as
// a source.
func (s *State) ActiveSources() []EndpointDescriptor {
	var out []EndpointDescriptor
	for d := range s.Endpoints {
		if d.IsSource() {
			out = append(out, d)
		}
	}
	return out
}

// ActiveSinks returns the descriptors of every endpoint that can act as a
// sink.
func (s *State) ActiveSinks() []EndpointDescriptor {
	var out []EndpointDescriptor
	for d := range s.Endpoints {
		if d.IsSink() {
			out = append(out, d)
		}
	}
	return out
}

// FindLink returns the index of the link between start and end, or -1.
func (s *State) FindLink(start, end EndpointDescriptor) int {
	for i, l := range s.Links {
		if l.Start == start && l.End == end {
			return i
		}
	}
	return -1
}

// RemoveLinkAt removes the link at index i, preserving order of the
// remainder (order is not semantically meaningful, but stable order keeps
// tests and diffs legible).
func (s *State) RemoveLinkAt(i int) {
	s.Links = append(s.Links[:i], s.Links[i+1:]...)
}

// LinksInvolving returns the indices of every link whose start or end is
// descriptor d — used when an endpoint is removed.
func (s *State) LinksInvolving(d EndpointDescriptor) []int {
	var out []int
	for i, l := range s.Links {
		if l.Start == d || l.End == d {
			out = append(out, i)
		}
	}
	return out
}
