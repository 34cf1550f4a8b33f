package rawgraph

// Snapshot is an immutable, deep-copied view of the store at one instant.
// The adapter publishes one of these after every assimilated event batch
// (spec.md §4.1); the reconciler only ever reads from a Snapshot, never
// from the live Store, so no reader locking is needed downstream.
type Snapshot struct {
	Clients map[uint32]Client
	Devices map[uint32]Device
	Nodes   map[uint32]Node
	Ports   map[uint32]Port
	Links   map[uint32]Link
}

// Snapshot copies the current store state into an immutable value safe to
// hand to other goroutines.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Clients: make(map[uint32]Client, len(s.clients)),
		Devices: make(map[uint32]Device, len(s.devices)),
		Nodes:   make(map[uint32]Node, len(s.nodes)),
		Ports:   make(map[uint32]Port, len(s.ports)),
		Links:   make(map[uint32]Link, len(s.links)),
	}

	for id, c := range s.clients {
		snap.Clients[id] = Client{
			ID:     c.ID,
			Name:   c.Name,
			IsSelf: c.IsSelf,
			Nodes:  copyUint32Set(c.Nodes),
		}
	}
	for id, d := range s.devices {
		snap.Devices[id] = Device{
			ID:           d.ID,
			Name:         d.Name,
			ClientID:     d.ClientID,
			Nodes:        copyUint32Set(d.Nodes),
			ActiveRoutes: append([]Route(nil), d.ActiveRoutes...),
		}
	}
	for id, n := range s.nodes {
		ports := make(map[uint32]SourceOrSink, len(n.Ports))
		for pid, k := range n.Ports {
			ports[pid] = k
		}
		snap.Nodes[id] = Node{
			ID:             n.ID,
			Identifier:     n.Identifier,
			EndpointRef:    n.EndpointRef,
			Ports:          ports,
			ChannelVolumes: append([]float64(nil), n.ChannelVolumes...),
			Mute:           n.Mute,
		}
	}
	for id, p := range s.ports {
		snap.Ports[id] = Port{
			ID:           p.ID,
			Name:         p.Name,
			ChannelLabel: p.ChannelLabel,
			NodeID:       p.NodeID,
			Kind:         p.Kind,
			Links:        copyUint32Set(p.Links),
		}
	}
	for id, l := range s.links {
		snap.Links[id] = *l
	}

	return snap
}

func copyUint32Set(m map[uint32]struct{}) map[uint32]struct{} {
	out := make(map[uint32]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// NodesOfDevice returns the node ids attached to a device with the given
// port direction present.
func (snap *Snapshot) NodesOfDevice(deviceID uint32, kind SourceOrSink) []uint32 {
	d, ok := snap.Devices[deviceID]
	if !ok {
		return nil
	}
	var out []uint32
	for nodeID := range d.Nodes {
		n, ok := snap.Nodes[nodeID]
		if ok && n.HasPortsOfKind(kind) {
			out = append(out, nodeID)
		}
	}
	return out
}
