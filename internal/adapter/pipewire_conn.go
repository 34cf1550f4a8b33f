package adapter

import (
	"fmt"
	"strconv"

	"github.com/vignemail1/pipewire-go/client"
	"github.com/vignemail1/pipewire-go/core"

	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/identifier"
	"github.com/sonusmix/sonusmix/internal/log"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

// pipewireConn is the production serverConn, binding the adapter to a
// real PipeWire server via github.com/vignemail1/pipewire-go. The command
// methods run on the adapter's own worker goroutine; onGlobal runs on the
// client library's event thread.
type pipewireConn struct {
	client *client.Client
	core   *core.Client

	events  chan<- rawEvent
	virtual map[string]*core.VirtualNode // keyed by group node id
}

func newPipewireConn(cl *client.Client, co *core.Client) *pipewireConn {
	return &pipewireConn{client: cl, core: co, virtual: make(map[string]*core.VirtualNode)}
}

// NewPipewireConn builds the production serverConn under the given
// client name, used by the top-level App to wire a real adapter
// (spec.md §4.1, §6).
func NewPipewireConn(name string) *pipewireConn {
	cl := client.NewClient(client.Config{Name: name})
	co := core.NewClient(cl)
	return newPipewireConn(cl, co)
}

func (p *pipewireConn) Connect(events chan<- rawEvent) error {
	p.events = events
	if err := p.client.Connect(); err != nil {
		return fmt.Errorf("pipewire: connect: %w", err)
	}
	p.client.RegisterRegistryListener(client.RegistryListener(p.onGlobal))
	return nil
}

func (p *pipewireConn) Close() error {
	return p.client.Disconnect()
}

// onGlobal is PipeWire's registry callback, translating a GlobalObject
// into the rawEvent vocabulary the adapter's drain loop understands
// (spec.md §4.1b). It is invoked on the client library's own event
// thread, never the adapter goroutine, so it only ever sends on the
// channel.
func (p *pipewireConn) onGlobal(obj *client.GlobalObject) {
	switch {
	case obj.IsNode():
		p.events <- nodeAdded{
			ID:         obj.ID,
			Identifier: identifierFromProperties(obj.Properties),
			Ref:        endpointRefFromProperties(obj.Properties),
		}
	case obj.IsPort():
		nodeID, _ := strconv.ParseUint(obj.GetProperty("node.id", "0"), 10, 32)
		kind := rawgraph.Sink
		if obj.GetProperty("port.direction", "") == "out" {
			kind = rawgraph.Source
		}
		p.events <- portAdded{
			ID:           obj.ID,
			Name:         obj.GetProperty("port.name", ""),
			ChannelLabel: obj.GetProperty("audio.channel", ""),
			NodeID:       uint32(nodeID),
			Kind:         kind,
		}
	case obj.IsLink():
		startNode, _ := strconv.ParseUint(obj.GetProperty("link.output.node", "0"), 10, 32)
		startPort, _ := strconv.ParseUint(obj.GetProperty("link.output.port", "0"), 10, 32)
		endNode, _ := strconv.ParseUint(obj.GetProperty("link.input.node", "0"), 10, 32)
		endPort, _ := strconv.ParseUint(obj.GetProperty("link.input.port", "0"), 10, 32)
		p.events <- linkAdded{
			ID:        obj.ID,
			StartNode: uint32(startNode),
			StartPort: uint32(startPort),
			EndNode:   uint32(endNode),
			EndPort:   uint32(endPort),
		}
	default:
		log.Debugf("pipewire: ignoring global object of type %s", obj.Type)
	}
}

func identifierFromProperties(props map[string]string) identifier.Identifier {
	id := identifier.Identifier{}
	if v, ok := props["node.name"]; ok {
		id.NodeName = &v
	}
	if v, ok := props["node.nick"]; ok {
		id.Nick = &v
	}
	if v, ok := props["node.description"]; ok {
		id.Description = &v
	}
	if v, ok := props["object.path"]; ok {
		id.ObjectPath = &v
	}
	if v, ok := props["application.name"]; ok {
		id.ApplicationName = &v
	}
	if v, ok := props["application.process.binary"]; ok {
		id.BinaryName = &v
	}
	if v, ok := props["media.name"]; ok {
		id.MediaName = &v
	}
	if v, ok := props["media.title"]; ok {
		id.MediaTitle = &v
	}
	if v, ok := props["application.icon-name"]; ok {
		id.IconName = &v
	}
	if _, ok := props["device.id"]; ok {
		id.DeviceAttached = true
	}
	return id
}

func endpointRefFromProperties(props map[string]string) rawgraph.EndpointRef {
	if v, ok := props["device.id"]; ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return rawgraph.EndpointRef{Kind: rawgraph.RefDevice, DeviceID: uint32(n)}
		}
	}
	var clientID uint64
	if v, ok := props["client.id"]; ok {
		clientID, _ = strconv.ParseUint(v, 10, 32)
	}
	return rawgraph.EndpointRef{Kind: rawgraph.RefClient, ClientID: uint32(clientID)}
}

func (p *pipewireConn) CreatePortLink(srcPort, dstPort uint32) error {
	return p.client.CreateLink(srcPort, dstPort, map[string]string{"object.linger": "true", "node.passive": "true"})
}

func (p *pipewireConn) CreateNodeLinks(srcNode, dstNode uint32) error {
	return p.client.CreateNodeLink(srcNode, dstNode, map[string]string{
		"object.linger": "true",
		"node.passive":  "true",
	})
}

func (p *pipewireConn) RemovePortLink(srcPort, dstPort uint32) error {
	return p.client.DestroyLinkByPorts(srcPort, dstPort)
}

func (p *pipewireConn) RemoveNodeLinks(srcNode, dstNode uint32) error {
	return p.client.DestroyNodeLinks(srcNode, dstNode)
}

func (p *pipewireConn) SetNodeChannelVolumes(node uint32, volumes []float64) error {
	return p.client.SetNodeParam(node, "channelVolumes", volumes)
}

func (p *pipewireConn) SetNodeMute(node uint32, mute bool) error {
	return p.client.SetNodeParam(node, "mute", mute)
}

// CreateGroupNode materializes a sonusmix-owned virtual node carrying the
// object properties spec.md §6 specifies: stable node.name, a
// user-visible node.nick, the right media.class for the requested
// GroupKind, a two-channel FL/FR layout, and monitor/linger flags so the
// node survives until explicitly removed.
func (p *pipewireConn) CreateGroupNode(name, groupID string, kind int) error {
	mediaClass := groupMediaClass(desired.GroupKind(kind))
	cfg := core.VirtualNodeConfig{
		Name:          groupNodeObjectName(groupID),
		Description:   name,
		Type:          core.VirtualNode_Filter,
		Factory:       core.Factory_Adapter,
		Channels:      2,
		SampleRate:    48000,
		BitDepth:      32,
		ChannelLayout: "FL FR",
		Passive:       false,
		Virtual:       true,
		CustomProps: map[string]interface{}{
			"node.nick":                  name,
			"media.class":                mediaClass,
			"monitor.channel-volumes":    true,
			"monitor.passthrough":        true,
			"object.linger":              true,
			"application.icon-name":      "sonusmix",
		},
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("pipewire: group node config: %w", err)
	}
	vn, err := p.core.CreateVirtualNode(cfg)
	if err != nil {
		return fmt.Errorf("pipewire: create group node: %w", err)
	}
	p.virtual[groupID] = vn
	return nil
}

func (p *pipewireConn) RemoveGroupNode(groupID string) error {
	vn, ok := p.virtual[groupID]
	if !ok {
		return nil
	}
	delete(p.virtual, groupID)
	return vn.Delete()
}

func groupNodeObjectName(groupID string) string {
	return "sonusmix.group." + groupID
}

func groupMediaClass(kind desired.GroupKind) string {
	switch kind {
	case desired.GroupSource:
		return "Audio/Source/Virtual"
	case desired.GroupSink:
		return "Audio/Sink"
	case desired.GroupDuplex:
		return "Audio/Duplex"
	default:
		return "Audio/Duplex"
	}
}
