package reconciler

import (
	"sort"

	"github.com/sonusmix/sonusmix/internal/adapter"
	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

// Diff folds a fresh raw-graph snapshot into desired state, in the three
// phases described in spec.md §4.5: resolve/classify, property
// reconciliation, and link reconciliation. It is called after every
// GraphSnapshot and is idempotent against an unchanging snapshot (spec.md
// §8), with one exception: a group node whose backing node is absent from
// the snapshot gets a fresh CreateGroupNode command on every call.
func Diff(state *desired.State, snap *rawgraph.Snapshot) (*desired.State, []adapter.Command) {
	next := state.Clone()
	var cmds []adapter.Command

	resolved := phaseAClassify(next, snap)
	cmds = append(cmds, phaseAGroupNodeRetry(next, resolved)...)
	cmds = append(cmds, phaseBReconcileProperties(next, snap, resolved)...)
	cmds = append(cmds, phaseCReconcileLinks(next, snap, resolved)...)

	return next, cmds
}

// phaseAClassify resolves every endpoint's node set, updates is_placeholder,
// rebuilds the candidate list, and seeds inactive application records for
// newly observed {application_name, binary_name} pairs.
func phaseAClassify(next *desired.State, snap *rawgraph.Snapshot) map[desired.EndpointDescriptor][]uint32 {
	resolved := make(map[desired.EndpointDescriptor][]uint32, len(next.Endpoints))
	consumedSingle := make(map[uint32]bool)

	for d, ep := range next.Endpoints {
		nodes := ResolveNodes(next, snap, d)
		resolved[d] = nodes
		ep.IsPlaceholder = len(nodes) == 0
		next.Endpoints[d] = ep
		if d.Kind == desired.KindEphemeralNode || d.Kind == desired.KindPersistentNode {
			for _, id := range nodes {
				consumedSingle[id] = true
			}
		}
	}
	seedApplications(next, snap)

	var candidates []desired.Candidate
	for id, n := range snap.Nodes {
		if consumedSingle[id] {
			continue
		}
		for _, kind := range []rawgraph.SourceOrSink{rawgraph.Source, rawgraph.Sink} {
			if n.HasPortsOfKind(kind) {
				candidates = append(candidates, desired.Candidate{NodeID: id, Kind: kind, Identifier: n.Identifier})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].NodeID != candidates[j].NodeID {
			return candidates[i].NodeID < candidates[j].NodeID
		}
		return candidates[i].Kind < candidates[j].Kind
	})
	next.Candidates = candidates

	return resolved
}

func seedApplications(next *desired.State, snap *rawgraph.Snapshot) {
	type seed struct {
		name, binary string
		kind         rawgraph.SourceOrSink
	}
	seen := make(map[seed]bool)
	for _, n := range snap.Nodes {
		if n.Identifier.ApplicationName == nil || n.Identifier.BinaryName == nil {
			continue
		}
		for _, kind := range []rawgraph.SourceOrSink{rawgraph.Source, rawgraph.Sink} {
			if !n.HasPortsOfKind(kind) {
				continue
			}
			s := seed{*n.Identifier.ApplicationName, *n.Identifier.BinaryName, kind}
			if seen[s] {
				continue
			}
			seen[s] = true
			id := desired.AppID(s.name + "|" + s.binary + "|" + kind.String())
			if _, ok := next.Applications[id]; ok {
				continue
			}
			next.Applications[id] = desired.Application{
				ID:       id,
				Kind:     kind,
				IsActive: false,
				Name:     s.name,
				Binary:   s.binary,
				IconName: n.Identifier.ResolvedIconName(),
			}
		}
	}
}

// phaseAGroupNodeRetry re-requests group-node creation for any group node
// whose endpoint still resolves to no backing node (spec.md §4.1, §4.5:
// "Group-node endpoints whose backing node is absent remain pending and
// cause a fresh CreateGroupNode").
func phaseAGroupNodeRetry(next *desired.State, resolved map[desired.EndpointDescriptor][]uint32) []adapter.Command {
	var cmds []adapter.Command
	for gid, g := range next.GroupNodes {
		d := desired.GroupNodeDescriptor(gid)
		if len(resolved[d]) > 0 {
			if g.Pending {
				g.Pending = false
				next.GroupNodes[gid] = g
			}
			continue
		}
		ep, ok := next.Endpoints[d]
		name := string(gid)
		if ok {
			name = ep.DisplayName
		}
		cmds = append(cmds, adapter.CreateGroupNode{Name: name, GroupID: gid, Kind: g.Kind})
	}
	return cmds
}

func phaseBReconcileProperties(next *desired.State, snap *rawgraph.Snapshot, resolved map[desired.EndpointDescriptor][]uint32) []adapter.Command {
	var cmds []adapter.Command
	for d, ep := range next.Endpoints {
		nodes := resolved[d]
		if len(nodes) == 0 {
			continue
		}
		locked := ep.VolumeLockedMuted.IsLocked()
		wantMute := ep.VolumeLockedMuted.IsMuted()

		if ep.VolumePending {
			if volumeExpectationMet(snap, nodes, ep.Volume, wantMute, locked) {
				ep.VolumePending = false
				next.Endpoints[d] = ep
			}
			continue
		}

		if locked {
			var emitted bool
			for _, nodeID := range nodes {
				n := snap.Nodes[nodeID]
				if !uniform(n.ChannelVolumes, ep.Volume) {
					volumes := make([]float64, len(n.ChannelVolumes))
					for i := range volumes {
						volumes[i] = ep.Volume
					}
					cmds = append(cmds, adapter.SetNodeChannelVolumes{Node: nodeID, Volumes: volumes})
					emitted = true
				}
				if n.Mute != wantMute {
					cmds = append(cmds, adapter.SetNodeMute{Node: nodeID, Mute: wantMute})
					emitted = true
				}
			}
			if emitted {
				ep.VolumePending = true
				next.Endpoints[d] = ep
			}
			continue
		}

		var allChannels []float64
		var mutes []bool
		nonUniformSeen := false
		for _, nodeID := range nodes {
			n := snap.Nodes[nodeID]
			allChannels = append(allChannels, n.ChannelVolumes...)
			mutes = append(mutes, n.Mute)
			if nonUniform(n.ChannelVolumes) {
				nonUniformSeen = true
			}
		}
		ep.Volume = cubeRootAverage(allChannels)
		ep.VolumeLockedMuted = desired.FromBoolsUnlocked(mutes)
		ep.VolumeMixed = nonUniformSeen
		next.Endpoints[d] = ep
	}
	return cmds
}

func volumeExpectationMet(snap *rawgraph.Snapshot, nodes []uint32, wantVolume float64, wantMute, locked bool) bool {
	var allChannels []float64
	for _, nodeID := range nodes {
		n := snap.Nodes[nodeID]
		allChannels = append(allChannels, n.ChannelVolumes...)
		if n.Mute != wantMute {
			return false
		}
	}
	if locked {
		return uniform(allChannels, wantVolume)
	}
	return floatsEqual(cubeRootAverage(allChannels), wantVolume)
}
