package reconciler

import (
	"fmt"
	"sort"

	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/identifier"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

// groupNodeName is the node.name tag sonusmix assigns to a group node's
// backing server object (spec.md §6).
func groupNodeName(id desired.GroupID) string {
	return fmt.Sprintf("sonusmix.group.%s", id)
}

// ResolveNodes computes a descriptor's current backing node set against a
// raw-graph snapshot, dispatching on the descriptor's kind (spec.md §4.5
// Phase A). The result is sorted by node id for determinism.
func ResolveNodes(state *desired.State, snap *rawgraph.Snapshot, d desired.EndpointDescriptor) []uint32 {
	var out []uint32
	switch d.Kind {
	case desired.KindEphemeralNode:
		if n, ok := snap.Nodes[d.NodeID]; ok && n.HasPortsOfKind(d.PortKind) {
			out = append(out, d.NodeID)
		}
	case desired.KindPersistentNode:
		rec, ok := state.PersistentNodes[d.PersistentID]
		if !ok {
			break
		}
		for id, n := range snap.Nodes {
			if n.HasPortsOfKind(d.PortKind) && rec.Identifier.Matches(&n.Identifier) {
				out = append(out, id)
			}
		}
	case desired.KindGroupNode:
		want := groupNodeName(d.GroupID)
		for id, n := range snap.Nodes {
			if n.Identifier.NodeName != nil && *n.Identifier.NodeName == want {
				out = append(out, id)
			}
		}
	case desired.KindApplication:
		app, ok := state.Applications[d.AppID]
		if !ok {
			break
		}
		excluded := make(map[uint32]bool, len(app.Exceptions))
		for _, e := range app.Exceptions {
			for _, id := range ResolveNodes(state, snap, e) {
				excluded[id] = true
			}
		}
		for id, n := range snap.Nodes {
			if excluded[id] || !n.HasPortsOfKind(d.PortKind) {
				continue
			}
			if matchesApplication(n.Identifier, app.Name, app.Binary) {
				out = append(out, id)
			}
		}
	case desired.KindDevice:
		for _, dev := range snap.Devices {
			if string(d.DeviceID) != dev.Name {
				continue
			}
			for id := range dev.Nodes {
				if n, ok := snap.Nodes[id]; ok && n.HasPortsOfKind(d.PortKind) {
					out = append(out, id)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func matchesApplication(id identifier.Identifier, name, binary string) bool {
	return strPtrEquals(id.ApplicationName, name) && strPtrEquals(id.BinaryName, binary)
}

func strPtrEquals(s *string, want string) bool {
	return s != nil && *s == want
}
