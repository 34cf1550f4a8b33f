// Package persistence loads and periodically saves the locked subset of
// desired state, matching the wire-struct convention
// the teacher uses throughout internal/protocol: tagged structs plus
// encoding/json, no extra serialization library (spec.md §4.8, §6).
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/identifier"
	"github.com/sonusmix/sonusmix/internal/log"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

const stateFormatVersion = 1

// persistedState is the on-disk shape: only the locked subset of desired
// state survives a restart (spec.md §6). Links that are not locked and
// applications that are not active are dropped before save; ephemeral
// and device endpoints have no stable cross-restart identity and are
// never persisted at all.
type persistedState struct {
	Links           []persistedLink           `json:"links"`
	GroupNodes      []persistedGroupNode      `json:"group_nodes"`
	Applications    []persistedApplication    `json:"applications"`
	PersistentNodes []persistedPersistentNode `json:"persistent_nodes"`
}

type persistedDescriptor struct {
	Kind         string `json:"kind"`
	NodeID       uint32 `json:"node_id,omitempty"`
	PersistentID string `json:"persistent_id,omitempty"`
	GroupID      string `json:"group_id,omitempty"`
	AppID        string `json:"app_id,omitempty"`
	DeviceID     string `json:"device_id,omitempty"`
	PortKind     string `json:"port_kind,omitempty"`
}

type persistedLink struct {
	Start persistedDescriptor `json:"start"`
	End   persistedDescriptor `json:"end"`
	State string              `json:"state"`
}

type persistedGroupNode struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type persistedApplication struct {
	ID         string                `json:"id"`
	Kind       string                `json:"kind"`
	Name       string                `json:"name"`
	Binary     string                `json:"binary"`
	IconName   string                `json:"icon_name"`
	Exceptions []persistedDescriptor `json:"exceptions"`
}

type persistedIdentifier struct {
	NodeName        *string `json:"node_name,omitempty"`
	Nick            *string `json:"nick,omitempty"`
	Description     *string `json:"description,omitempty"`
	ObjectPath      *string `json:"object_path,omitempty"`
	ApplicationName *string `json:"application_name,omitempty"`
	BinaryName      *string `json:"binary_name,omitempty"`
	MediaName       *string `json:"media_name,omitempty"`
	MediaTitle      *string `json:"media_title,omitempty"`
	RouteName       *string `json:"route_name,omitempty"`
	IconName        *string `json:"icon_name,omitempty"`
	DeviceID        *string `json:"device_id,omitempty"`
	DeviceAttached  bool    `json:"device_attached"`
}

type persistedPersistentNode struct {
	ID         string              `json:"id"`
	Identifier persistedIdentifier `json:"identifier"`
}

type fileEnvelope struct {
	Version int            `json:"version"`
	State   persistedState `json:"state"`
}

func kindToString(k desired.DescriptorKind) string {
	return k.String()
}

func stringToKind(s string) desired.DescriptorKind {
	for _, k := range []desired.DescriptorKind{
		desired.KindEphemeralNode, desired.KindPersistentNode,
		desired.KindGroupNode, desired.KindApplication, desired.KindDevice,
	} {
		if k.String() == s {
			return k
		}
	}
	return desired.KindEphemeralNode
}

func portKindToString(k rawgraph.SourceOrSink) string { return k.String() }

func stringToPortKind(s string) rawgraph.SourceOrSink {
	if s == rawgraph.Source.String() {
		return rawgraph.Source
	}
	return rawgraph.Sink
}

func toPersistedDescriptor(d desired.EndpointDescriptor) persistedDescriptor {
	return persistedDescriptor{
		Kind:         kindToString(d.Kind),
		NodeID:       d.NodeID,
		PersistentID: string(d.PersistentID),
		GroupID:      string(d.GroupID),
		AppID:        string(d.AppID),
		DeviceID:     string(d.DeviceID),
		PortKind:     portKindToString(d.PortKind),
	}
}

func fromPersistedDescriptor(p persistedDescriptor) desired.EndpointDescriptor {
	return desired.EndpointDescriptor{
		Kind:         stringToKind(p.Kind),
		NodeID:       p.NodeID,
		PersistentID: desired.PersistentID(p.PersistentID),
		GroupID:      desired.GroupID(p.GroupID),
		AppID:        desired.AppID(p.AppID),
		DeviceID:     desired.DeviceID(p.DeviceID),
		PortKind:     stringToPortKind(p.PortKind),
	}
}

func toPersistedIdentifier(id identifier.Identifier) persistedIdentifier {
	return persistedIdentifier{
		NodeName:        id.NodeName,
		Nick:            id.Nick,
		Description:     id.Description,
		ObjectPath:      id.ObjectPath,
		ApplicationName: id.ApplicationName,
		BinaryName:      id.BinaryName,
		MediaName:       id.MediaName,
		MediaTitle:      id.MediaTitle,
		RouteName:       id.RouteName,
		IconName:        id.IconName,
		DeviceID:        id.DeviceID,
		DeviceAttached:  id.DeviceAttached,
	}
}

func fromPersistedIdentifier(p persistedIdentifier) identifier.Identifier {
	return identifier.Identifier{
		NodeName:        p.NodeName,
		Nick:            p.Nick,
		Description:     p.Description,
		ObjectPath:      p.ObjectPath,
		ApplicationName: p.ApplicationName,
		BinaryName:      p.BinaryName,
		MediaName:       p.MediaName,
		MediaTitle:      p.MediaTitle,
		RouteName:       p.RouteName,
		IconName:        p.IconName,
		DeviceID:        p.DeviceID,
		DeviceAttached:  p.DeviceAttached,
	}
}

// toPersisted extracts the locked subset of state into the on-disk shape
// (spec.md §6): unlocked links and inactive applications are dropped.
func toPersisted(state *desired.State) persistedState {
	var out persistedState
	for _, l := range state.Links {
		if l.State != desired.LinkConnectedLocked && l.State != desired.LinkDisconnectedLocked {
			continue
		}
		out.Links = append(out.Links, persistedLink{
			Start: toPersistedDescriptor(l.Start),
			End:   toPersistedDescriptor(l.End),
			State: l.State.String(),
		})
	}
	for _, g := range state.GroupNodes {
		out.GroupNodes = append(out.GroupNodes, persistedGroupNode{ID: string(g.ID), Kind: g.Kind.String()})
	}
	for _, app := range state.Applications {
		if !app.IsActive {
			continue
		}
		pa := persistedApplication{
			ID:       string(app.ID),
			Kind:     app.Kind.String(),
			Name:     app.Name,
			Binary:   app.Binary,
			IconName: app.IconName,
		}
		for _, e := range app.Exceptions {
			pa.Exceptions = append(pa.Exceptions, toPersistedDescriptor(e))
		}
		out.Applications = append(out.Applications, pa)
	}
	for _, rec := range state.PersistentNodes {
		out.PersistentNodes = append(out.PersistentNodes, persistedPersistentNode{
			ID:         string(rec.ID),
			Identifier: toPersistedIdentifier(rec.Identifier),
		})
	}
	return out
}

func linkStateFromString(s string) desired.LinkState {
	switch s {
	case desired.LinkConnectedLocked.String():
		return desired.LinkConnectedLocked
	case desired.LinkDisconnectedLocked.String():
		return desired.LinkDisconnectedLocked
	case desired.LinkConnectedUnlocked.String():
		return desired.LinkConnectedUnlocked
	default:
		return desired.LinkPartial
	}
}

func groupKindFromString(s string) desired.GroupKind {
	switch s {
	case desired.GroupSource.String():
		return desired.GroupSource
	case desired.GroupSink.String():
		return desired.GroupSink
	default:
		return desired.GroupDuplex
	}
}

func sourceOrSinkFromString(s string) rawgraph.SourceOrSink {
	return stringToPortKind(s)
}

// applyPersisted seeds an empty state with the loaded locked subset. The
// reconciler's next Diff call is responsible for resolving endpoints and
// filling in everything else.
func applyPersisted(p persistedState) *desired.State {
	state := desired.New()
	for _, l := range p.Links {
		state.Links = append(state.Links, desired.Link{
			Start: fromPersistedDescriptor(l.Start),
			End:   fromPersistedDescriptor(l.End),
			State: linkStateFromString(l.State),
		})
	}
	for _, g := range p.GroupNodes {
		id := desired.GroupID(g.ID)
		kind := groupKindFromString(g.Kind)
		state.GroupNodes[id] = desired.GroupNode{ID: id, Kind: kind, Pending: true}
		state.Endpoints[desired.GroupNodeDescriptor(id)] = desired.Endpoint{
			Descriptor:    desired.GroupNodeDescriptor(id),
			IsPlaceholder: true,
			DisplayName:   string(id),
		}
	}
	for _, app := range p.Applications {
		id := desired.AppID(app.ID)
		var exceptions []desired.EndpointDescriptor
		for _, e := range app.Exceptions {
			exceptions = append(exceptions, fromPersistedDescriptor(e))
		}
		state.Applications[id] = desired.Application{
			ID:         id,
			Kind:       sourceOrSinkFromString(app.Kind),
			IsActive:   true,
			Name:       app.Name,
			Binary:     app.Binary,
			IconName:   app.IconName,
			Exceptions: exceptions,
		}
	}
	for _, rec := range p.PersistentNodes {
		id := desired.PersistentID(rec.ID)
		state.PersistentNodes[id] = desired.PersistentNodeRecord{
			ID:         id,
			Identifier: fromPersistedIdentifier(rec.Identifier),
		}
	}
	return state
}

// Load reads state.json from path. A missing file is not an error: the
// reducer starts from empty state and the event is logged (spec.md §7,
// §4.8). A present-but-corrupt file is logged at error and also falls
// back to empty state, since a corrupt save must never block startup.
func Load(path string) *desired.State {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Infof("persistence: no state file at %s, starting empty", path)
		} else {
			log.Errorf("persistence: reading %s: %v", path, err)
		}
		return desired.New()
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Errorf("persistence: parsing %s: %v", path, err)
		return desired.New()
	}
	return applyPersisted(env.State)
}

// Save writes the locked subset of state to path, creating its parent
// directory if necessary.
func Save(path string, state *desired.State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("persistence: mkdir: %w", err)
	}
	env := fileEnvelope{Version: stateFormatVersion, State: toPersisted(state)}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshal: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("persistence: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persistence: rename: %w", err)
	}
	return nil
}
