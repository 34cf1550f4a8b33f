package reconciler

import (
	"github.com/google/uuid"
	"github.com/sonusmix/sonusmix/internal/adapter"
	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/log"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

// Update applies one user intent to state (cloned internally; the caller's
// value is left untouched), returning the new state, at most one
// notification, and the commands to send to the Server Adapter (spec.md
// §4.4). Intent precondition failures are logged and leave state
// unchanged, per the error-handling design in spec.md §7.
func Update(state *desired.State, snap *rawgraph.Snapshot, intent Intent) (*desired.State, *Notification, []adapter.Command) {
	next := state.Clone()
	switch in := intent.(type) {
	case AddEphemeralNode:
		return updateAddEphemeralNode(next, snap, in)
	case AddPersistentNode:
		return updateAddPersistentNode(next, snap, in)
	case AddGroupNode:
		return updateAddGroupNode(next, in)
	case AddApplication:
		return updateAddApplication(next, snap, in)
	case RemoveEndpoint:
		return updateRemoveEndpoint(next, snap, in)
	case SetVolume:
		return updateSetVolume(next, snap, in)
	case SetMute:
		return updateSetMute(next, snap, in)
	case SetVolumeLocked:
		return updateSetVolumeLocked(next, snap, in)
	case Link:
		return updateLink(next, snap, in)
	case RemoveLink:
		return updateRemoveLink(next, snap, in)
	case SetLinkLocked:
		return updateSetLinkLocked(next, in)
	case RenameEndpoint:
		return updateRenameEndpoint(next, in)
	default:
		log.Errorf("reconciler: unknown intent type %T", intent)
		return state, nil, nil
	}
}

func populateFromNode(next *desired.State, d desired.EndpointDescriptor, n rawgraph.Node) {
	ep := desired.Endpoint{
		Descriptor:  d,
		DisplayName: n.Identifier.HumanName(),
		IconName:    n.Identifier.ResolvedIconName(),
		Details:     n.Identifier.Details(),
		Volume:      cubeRootAverage(n.ChannelVolumes),
		VolumeMixed: nonUniform(n.ChannelVolumes),
	}
	ep.VolumeLockedMuted = desired.FromBoolsUnlocked([]bool{n.Mute})
	next.Endpoints[d] = ep
}

func addSelfAsApplicationException(next *desired.State, d desired.EndpointDescriptor, n rawgraph.Node) {
	if n.Identifier.ApplicationName == nil || n.Identifier.BinaryName == nil {
		return
	}
	for id, app := range next.Applications {
		if !app.IsActive || app.Kind != d.PortKind {
			continue
		}
		if app.Name == *n.Identifier.ApplicationName && app.Binary == *n.Identifier.BinaryName {
			app.Exceptions = append(app.Exceptions, d)
			next.Applications[id] = app
		}
	}
}

func removeFromCandidates(next *desired.State, nodeID uint32) {
	out := next.Candidates[:0]
	for _, c := range next.Candidates {
		if c.NodeID != nodeID {
			out = append(out, c)
		}
	}
	next.Candidates = out
}

func updateAddEphemeralNode(next *desired.State, snap *rawgraph.Snapshot, in AddEphemeralNode) (*desired.State, *Notification, []adapter.Command) {
	n, ok := snap.Nodes[in.NodeID]
	if !ok || !n.HasPortsOfKind(in.Kind) {
		log.Errorf("reconciler: AddEphemeralNode(%d,%s): no such node with matching ports", in.NodeID, in.Kind)
		return next, nil, nil
	}
	d := desired.EphemeralNode(in.NodeID, in.Kind)
	populateFromNode(next, d, n)
	addSelfAsApplicationException(next, d, n)
	removeFromCandidates(next, in.NodeID)
	return next, endpointAdded(d), nil
}

func updateAddPersistentNode(next *desired.State, snap *rawgraph.Snapshot, in AddPersistentNode) (*desired.State, *Notification, []adapter.Command) {
	n, ok := snap.Nodes[in.NodeID]
	if !ok || !n.HasPortsOfKind(in.Kind) {
		log.Errorf("reconciler: AddPersistentNode(%d,%s): no such node with matching ports", in.NodeID, in.Kind)
		return next, nil, nil
	}
	next.PersistentNodes[in.ID] = desired.PersistentNodeRecord{ID: in.ID, Identifier: n.Identifier}
	d := desired.PersistentNode(in.ID, in.Kind)
	populateFromNode(next, d, n)
	addSelfAsApplicationException(next, d, n)
	removeFromCandidates(next, in.NodeID)
	return next, endpointAdded(d), nil
}

func updateAddGroupNode(next *desired.State, in AddGroupNode) (*desired.State, *Notification, []adapter.Command) {
	id := desired.GroupID(uuid.NewString())
	next.GroupNodes[id] = desired.GroupNode{ID: id, Kind: in.Kind, Pending: true}
	d := desired.GroupNodeDescriptor(id)
	next.Endpoints[d] = desired.Endpoint{
		Descriptor:    d,
		IsPlaceholder: true,
		DisplayName:   in.Name,
		IconName:      "audio-card",
	}
	return next, endpointAdded(d), []adapter.Command{adapter.CreateGroupNode{Name: in.Name, GroupID: id, Kind: in.Kind}}
}

func updateAddApplication(next *desired.State, snap *rawgraph.Snapshot, in AddApplication) (*desired.State, *Notification, []adapter.Command) {
	app, ok := next.Applications[in.AppID]
	if !ok {
		log.Errorf("reconciler: AddApplication(%s): unknown application", in.AppID)
		return next, nil, nil
	}
	app.IsActive = true
	var exceptions []desired.EndpointDescriptor
	for d2 := range next.Endpoints {
		if d2.Kind != desired.KindEphemeralNode && d2.Kind != desired.KindPersistentNode {
			continue
		}
		if d2.PortKind != in.Kind {
			continue
		}
		for _, nodeID := range ResolveNodes(next, snap, d2) {
			if matchesApplication(snap.Nodes[nodeID].Identifier, app.Name, app.Binary) {
				exceptions = append(exceptions, d2)
			}
		}
	}
	app.Exceptions = exceptions
	next.Applications[in.AppID] = app

	d := desired.ApplicationDescriptor(in.AppID, in.Kind)
	next.Endpoints[d] = desired.Endpoint{
		Descriptor:  d,
		DisplayName: app.Name,
		IconName:    app.IconName,
	}
	return next, endpointAdded(d), nil
}

func updateRemoveEndpoint(next *desired.State, snap *rawgraph.Snapshot, in RemoveEndpoint) (*desired.State, *Notification, []adapter.Command) {
	d := in.Descriptor
	if _, ok := next.Endpoints[d]; !ok {
		log.Errorf("reconciler: RemoveEndpoint(%v): no such endpoint", d)
		return next, nil, nil
	}
	delete(next.Endpoints, d)
	for {
		idxs := next.LinksInvolving(d)
		if len(idxs) == 0 {
			break
		}
		next.RemoveLinkAt(idxs[0])
	}
	for id, app := range next.Applications {
		var filtered []desired.EndpointDescriptor
		for _, e := range app.Exceptions {
			if e != d {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) != len(app.Exceptions) {
			app.Exceptions = filtered
			next.Applications[id] = app
		}
	}

	var cmds []adapter.Command
	switch d.Kind {
	case desired.KindEphemeralNode:
		if n, ok := snap.Nodes[d.NodeID]; ok {
			next.Candidates = append(next.Candidates, desired.Candidate{NodeID: d.NodeID, Kind: d.PortKind, Identifier: n.Identifier})
		}
	case desired.KindGroupNode:
		delete(next.GroupNodes, d.GroupID)
		cmds = append(cmds, adapter.RemoveGroupNode{GroupID: d.GroupID})
	case desired.KindApplication:
		app, ok := next.Applications[d.AppID]
		if ok {
			if len(ResolveNodes(next, snap, d)) > 0 {
				app.IsActive = false
				next.Applications[d.AppID] = app
			} else {
				delete(next.Applications, d.AppID)
			}
		}
	}
	return next, endpointRemoved(d), cmds
}

func updateSetVolume(next *desired.State, snap *rawgraph.Snapshot, in SetVolume) (*desired.State, *Notification, []adapter.Command) {
	ep, ok := next.Endpoints[in.Descriptor]
	if !ok {
		log.Errorf("reconciler: SetVolume(%v): no such endpoint", in.Descriptor)
		return next, nil, nil
	}
	ep.Volume = in.Volume
	ep.VolumeMixed = false

	var cmds []adapter.Command
	for _, nodeID := range ResolveNodes(next, snap, in.Descriptor) {
		n := snap.Nodes[nodeID]
		volumes := make([]float64, len(n.ChannelVolumes))
		for i := range volumes {
			volumes[i] = in.Volume
		}
		cmds = append(cmds, adapter.SetNodeChannelVolumes{Node: nodeID, Volumes: volumes})
	}
	if len(cmds) > 0 {
		ep.VolumePending = true
	}
	next.Endpoints[in.Descriptor] = ep
	return next, nil, cmds
}

func updateSetMute(next *desired.State, snap *rawgraph.Snapshot, in SetMute) (*desired.State, *Notification, []adapter.Command) {
	ep, ok := next.Endpoints[in.Descriptor]
	if !ok {
		log.Errorf("reconciler: SetMute(%v): no such endpoint", in.Descriptor)
		return next, nil, nil
	}
	ep.VolumeLockedMuted = ep.VolumeLockedMuted.WithMute(in.Mute)

	var cmds []adapter.Command
	for _, nodeID := range ResolveNodes(next, snap, in.Descriptor) {
		cmds = append(cmds, adapter.SetNodeMute{Node: nodeID, Mute: in.Mute})
	}
	if len(cmds) > 0 {
		ep.VolumePending = true
	}
	next.Endpoints[in.Descriptor] = ep
	return next, nil, cmds
}

func updateSetVolumeLocked(next *desired.State, snap *rawgraph.Snapshot, in SetVolumeLocked) (*desired.State, *Notification, []adapter.Command) {
	ep, ok := next.Endpoints[in.Descriptor]
	if !ok {
		log.Errorf("reconciler: SetVolumeLocked(%v): no such endpoint", in.Descriptor)
		return next, nil, nil
	}
	newState, okTransition := ep.VolumeLockedMuted.WithLock(in.Locked)
	if !okTransition {
		log.Errorf("reconciler: SetVolumeLocked(%v,%v): refused, endpoint is MuteMixed", in.Descriptor, in.Locked)
		return next, nil, nil
	}
	ep.VolumeLockedMuted = newState

	var cmds []adapter.Command
	if in.Locked {
		for _, nodeID := range ResolveNodes(next, snap, in.Descriptor) {
			n := snap.Nodes[nodeID]
			if uniform(n.ChannelVolumes, ep.Volume) {
				continue
			}
			volumes := make([]float64, len(n.ChannelVolumes))
			for i := range volumes {
				volumes[i] = ep.Volume
			}
			cmds = append(cmds, adapter.SetNodeChannelVolumes{Node: nodeID, Volumes: volumes})
		}
		if len(cmds) > 0 {
			ep.VolumePending = true
		}
	}
	next.Endpoints[in.Descriptor] = ep
	return next, nil, cmds
}

func updateLink(next *desired.State, snap *rawgraph.Snapshot, in Link) (*desired.State, *Notification, []adapter.Command) {
	if !in.Src.IsSource() || !in.Dst.IsSink() {
		log.Errorf("reconciler: Link(%v,%v): src must be a source and dst a sink", in.Src, in.Dst)
		return next, nil, nil
	}
	idx := next.FindLink(in.Src, in.Dst)
	if idx >= 0 {
		l := next.Links[idx]
		switch l.State {
		case desired.LinkPartial:
			l.State = desired.LinkConnectedUnlocked
		case desired.LinkDisconnectedLocked:
			l.State = desired.LinkConnectedLocked
		}
		next.Links[idx] = l
	} else {
		next.Links = append(next.Links, desired.Link{Start: in.Src, End: in.Dst, State: desired.LinkConnectedUnlocked})
		idx = len(next.Links) - 1
	}

	var cmds []adapter.Command
	for _, s := range ResolveNodes(next, snap, in.Src) {
		for _, d := range ResolveNodes(next, snap, in.Dst) {
			cmds = append(cmds, adapter.CreateNodeLinks{SrcNode: s, DstNode: d})
		}
	}
	if len(cmds) > 0 {
		l := next.Links[idx]
		l.Pending = true
		next.Links[idx] = l
	}
	return next, nil, cmds
}

func updateRemoveLink(next *desired.State, snap *rawgraph.Snapshot, in RemoveLink) (*desired.State, *Notification, []adapter.Command) {
	idx := next.FindLink(in.Src, in.Dst)
	if idx < 0 {
		log.Errorf("reconciler: RemoveLink(%v,%v): no such link", in.Src, in.Dst)
		return next, nil, nil
	}
	l := next.Links[idx]
	var cmds []adapter.Command
	for _, s := range ResolveNodes(next, snap, in.Src) {
		for _, d := range ResolveNodes(next, snap, in.Dst) {
			cmds = append(cmds, adapter.RemoveNodeLinks{SrcNode: s, DstNode: d})
		}
	}
	switch l.State {
	case desired.LinkConnectedLocked:
		l.State = desired.LinkDisconnectedLocked
		next.Links[idx] = l
	default:
		next.RemoveLinkAt(idx)
	}
	return next, nil, cmds
}

func updateSetLinkLocked(next *desired.State, in SetLinkLocked) (*desired.State, *Notification, []adapter.Command) {
	idx := next.FindLink(in.Src, in.Dst)
	if in.Locked {
		if idx < 0 {
			next.Links = append(next.Links, desired.Link{Start: in.Src, End: in.Dst, State: desired.LinkDisconnectedLocked})
			return next, nil, nil
		}
		l := next.Links[idx]
		if l.State == desired.LinkPartial {
			log.Errorf("reconciler: SetLinkLocked(%v,%v,true): refused, link is PartiallyConnected", in.Src, in.Dst)
			return next, nil, nil
		}
		if l.State == desired.LinkConnectedUnlocked {
			l.State = desired.LinkConnectedLocked
			next.Links[idx] = l
		}
		return next, nil, nil
	}
	if idx < 0 {
		return next, nil, nil
	}
	l := next.Links[idx]
	switch l.State {
	case desired.LinkConnectedLocked:
		l.State = desired.LinkConnectedUnlocked
		next.Links[idx] = l
	case desired.LinkDisconnectedLocked:
		next.RemoveLinkAt(idx)
	}
	return next, nil, nil
}

func updateRenameEndpoint(next *desired.State, in RenameEndpoint) (*desired.State, *Notification, []adapter.Command) {
	ep, ok := next.Endpoints[in.Descriptor]
	if !ok {
		log.Errorf("reconciler: RenameEndpoint(%v): no such endpoint", in.Descriptor)
		return next, nil, nil
	}
	if in.Descriptor.Kind != desired.KindGroupNode {
		ep.CustomName = in.Name
		next.Endpoints[in.Descriptor] = ep
		return next, nil, nil
	}

	gid := in.Descriptor.GroupID
	g, ok := next.GroupNodes[gid]
	if !ok {
		log.Errorf("reconciler: RenameEndpoint(%v): group node record missing", in.Descriptor)
		return next, nil, nil
	}
	name := ep.DisplayName
	if in.Name != nil {
		name = *in.Name
	}
	ep.DisplayName = name
	g.Pending = true
	next.GroupNodes[gid] = g
	next.Endpoints[in.Descriptor] = ep

	return next, nil, []adapter.Command{
		adapter.RemoveGroupNode{GroupID: gid},
		adapter.CreateGroupNode{Name: name, GroupID: gid, Kind: g.Kind},
	}
}
