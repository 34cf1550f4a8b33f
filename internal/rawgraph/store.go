package rawgraph

import (
	"sync"

	"github.com/sonusmix/sonusmix/internal/identifier"
)

// Store is the mutable in-memory projection of the server's object graph.
// It tolerates arrival in any order: an entity referencing a not-yet-seen
// parent is held in an orphan list and adopted the moment the parent
// arrives. All access is guarded by one sync.RWMutex: mutations take the
// write lock and Snapshot takes the read lock.
type Store struct {
	mu sync.RWMutex

	clients map[uint32]*Client
	devices map[uint32]*Device
	nodes   map[uint32]*Node
	ports   map[uint32]*Port
	links   map[uint32]*Link

	orphanPortsByNode   map[uint32][]uint32
	orphanNodesByDevice map[uint32][]uint32
	orphanNodesByClient map[uint32][]uint32
	pendingLinks        map[uint32]*Link

	selfClientID *uint32
}

// New creates an empty store.
func New() *Store {
	return &Store{
		clients:             make(map[uint32]*Client),
		devices:             make(map[uint32]*Device),
		nodes:               make(map[uint32]*Node),
		ports:               make(map[uint32]*Port),
		links:               make(map[uint32]*Link),
		orphanPortsByNode:   make(map[uint32][]uint32),
		orphanNodesByDevice: make(map[uint32][]uint32),
		orphanNodesByClient: make(map[uint32][]uint32),
		pendingLinks:        make(map[uint32]*Link),
	}
}

// SetSelfClientID records the adapter's own client id, learned from the
// core listener (spec.md §4.1c). Idempotent and safe to call before or
// after the client object itself is added.
func (s *Store) SetSelfClientID(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selfClientID = &id
	if c, ok := s.clients[id]; ok {
		c.IsSelf = true
	}
}

// AddClient inserts a client, adopting any nodes that arrived first and
// named this client as their parent.
func (s *Store) AddClient(id uint32, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	isSelf := s.selfClientID != nil && *s.selfClientID == id
	c := newClient(id, name, isSelf)
	s.clients[id] = c

	for _, nodeID := range s.orphanNodesByClient[id] {
		c.Nodes[nodeID] = struct{}{}
	}
	delete(s.orphanNodesByClient, id)
}

// RemoveClient detaches a client. Nodes that referenced it are left
// alone; their EndpointRef becomes unresolvable until a replacement
// client of the same id reappears, which is the expected churn pattern
// across server restarts.
func (s *Store) RemoveClient(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
	delete(s.orphanNodesByClient, id)
}

// AddDevice inserts a device, adopting any nodes that arrived first and
// named this device as their parent.
func (s *Store) AddDevice(id uint32, name string, clientID *uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := newDevice(id, name, clientID)
	s.devices[id] = d

	for _, nodeID := range s.orphanNodesByDevice[id] {
		d.Nodes[nodeID] = struct{}{}
	}
	delete(s.orphanNodesByDevice, id)
}

// RemoveDevice detaches a device.
func (s *Store) RemoveDevice(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.devices, id)
	delete(s.orphanNodesByDevice, id)
}

// SetDeviceRoutes updates a device's active-route list (a parameter
// event, spec.md §4.2).
func (s *Store) SetDeviceRoutes(deviceID uint32, routes []Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.devices[deviceID]; ok {
		d.ActiveRoutes = append([]Route(nil), routes...)
	}
}

// AddNode inserts a node, adopting any ports that arrived first and
// naming this node as their parent, and registering it into its parent
// device's or client's node set (or the relevant orphan list if the
// parent hasn't arrived yet).
func (s *Store) AddNode(id uint32, ident identifier.Identifier, ref EndpointRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := newNode(id, ident, ref)
	s.nodes[id] = n

	for _, portID := range s.orphanPortsByNode[id] {
		if p, ok := s.ports[portID]; ok {
			n.Ports[portID] = p.Kind
		}
	}
	delete(s.orphanPortsByNode, id)

	switch ref.Kind {
	case RefDevice:
		if d, ok := s.devices[ref.DeviceID]; ok {
			d.Nodes[id] = struct{}{}
		} else {
			s.orphanNodesByDevice[ref.DeviceID] = append(s.orphanNodesByDevice[ref.DeviceID], id)
		}
	case RefClient:
		if c, ok := s.clients[ref.ClientID]; ok {
			c.Nodes[id] = struct{}{}
		} else {
			s.orphanNodesByClient[ref.ClientID] = append(s.orphanNodesByClient[ref.ClientID], id)
		}
	}

	s.retryPendingLinksLocked()
}

// RemoveNode detaches a node from its parent's node set and drops it.
// Ports that referenced it are left in the store; the adapter will emit
// their own Removed events in due course.
func (s *Store) RemoveNode(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return
	}
	delete(s.nodes, id)

	switch n.EndpointRef.Kind {
	case RefDevice:
		if d, ok := s.devices[n.EndpointRef.DeviceID]; ok {
			delete(d.Nodes, id)
		}
		removeFromOrphanList(s.orphanNodesByDevice, n.EndpointRef.DeviceID, id)
	case RefClient:
		if c, ok := s.clients[n.EndpointRef.ClientID]; ok {
			delete(c.Nodes, id)
		}
		removeFromOrphanList(s.orphanNodesByClient, n.EndpointRef.ClientID, id)
	}
}

// SetNodeChannelVolumes updates a node's channel volume vector (linear
// amplitude, not slider units) — a parameter event.
func (s *Store) SetNodeChannelVolumes(nodeID uint32, volumes []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[nodeID]; ok {
		n.ChannelVolumes = append([]float64(nil), volumes...)
	}
}

// SetNodeMute updates a node's mute flag — a parameter event.
func (s *Store) SetNodeMute(nodeID uint32, mute bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[nodeID]; ok {
		n.Mute = mute
	}
}

// AddPort inserts a port, attaching it to its node if known or joining
// the orphan list keyed by node id otherwise.
func (s *Store) AddPort(id uint32, name, channelLabel string, nodeID uint32, kind SourceOrSink) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := newPort(id, name, channelLabel, nodeID, kind)
	s.ports[id] = p

	if n, ok := s.nodes[nodeID]; ok {
		n.Ports[id] = kind
	} else {
		s.orphanPortsByNode[nodeID] = append(s.orphanPortsByNode[nodeID], id)
	}

	s.retryPendingLinksLocked()
}

// RemovePort detaches a port from its node and drops it.
func (s *Store) RemovePort(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.ports[id]
	if !ok {
		return
	}
	delete(s.ports, id)

	if n, ok := s.nodes[p.NodeID]; ok {
		delete(n.Ports, id)
	}
	removeFromOrphanList(s.orphanPortsByNode, p.NodeID, id)
}

// AddLink inserts a link, registering it on both its ports if they
// already exist, or parking it as pending otherwise.
func (s *Store) AddLink(id, startNode, startPort, endNode, endPort uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := &Link{ID: id, StartNode: startNode, StartPort: startPort, EndNode: endNode, EndPort: endPort}
	s.links[id] = l
	if !s.attachLinkLocked(l) {
		s.pendingLinks[id] = l
	}
}

// RemoveLink detaches a link from both its ports and drops it.
func (s *Store) RemoveLink(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pendingLinks, id)
	l, ok := s.links[id]
	if !ok {
		return
	}
	delete(s.links, id)

	if sp, ok := s.ports[l.StartPort]; ok {
		delete(sp.Links, id)
	}
	if ep, ok := s.ports[l.EndPort]; ok {
		delete(ep.Links, id)
	}
}

func (s *Store) attachLinkLocked(l *Link) bool {
	sp, okS := s.ports[l.StartPort]
	ep, okE := s.ports[l.EndPort]
	if !okS || !okE {
		return false
	}
	sp.Links[l.ID] = struct{}{}
	ep.Links[l.ID] = struct{}{}
	return true
}

func (s *Store) retryPendingLinksLocked() {
	for id, l := range s.pendingLinks {
		if s.attachLinkLocked(l) {
			delete(s.pendingLinks, id)
		}
	}
}

func removeFromOrphanList(m map[uint32][]uint32, key, id uint32) {
	list, ok := m[key]
	if !ok {
		return
	}
	for i, v := range list {
		if v == id {
			m[key] = append(list[:i], list[i+1:]...)
			return
		}
	}
}
