package reconciler

import (
	"github.com/sonusmix/sonusmix/internal/adapter"
	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

// nodePairConnected reports the three-valued connectivity between one
// source node and one sink node: true if every relevant port on one side
// is incident on a link to the other, false if no link exists between
// them at all, nil (unknown/partial) otherwise (spec.md §4.5 Phase C).
func nodePairConnected(snap *rawgraph.Snapshot, srcNode, dstNode uint32) *bool {
	srcPorts := map[uint32]bool{}
	if n, ok := snap.Nodes[srcNode]; ok {
		for _, p := range n.PortsOfKind(rawgraph.Source) {
			srcPorts[p] = false
		}
	}
	dstPorts := map[uint32]bool{}
	if n, ok := snap.Nodes[dstNode]; ok {
		for _, p := range n.PortsOfKind(rawgraph.Sink) {
			dstPorts[p] = false
		}
	}

	var count int
	for _, l := range snap.Links {
		if l.StartNode == srcNode && l.EndNode == dstNode {
			count++
			if _, ok := srcPorts[l.StartPort]; ok {
				srcPorts[l.StartPort] = true
			}
			if _, ok := dstPorts[l.EndPort]; ok {
				dstPorts[l.EndPort] = true
			}
		}
	}
	if count == 0 {
		f := false
		return &f
	}
	allSrc := true
	for _, linked := range srcPorts {
		if !linked {
			allSrc = false
			break
		}
	}
	allDst := true
	for _, linked := range dstPorts {
		if !linked {
			allDst = false
			break
		}
	}
	if allSrc || allDst {
		t := true
		return &t
	}
	return nil
}

// endpointsConnected aggregates nodePairConnected across the Cartesian
// product of two endpoints' node sets: uniform true, uniform false, or nil
// (mixed/partial).
func endpointsConnected(snap *rawgraph.Snapshot, srcNodes, dstNodes []uint32) *bool {
	allTrue, allFalse := true, true
	for _, s := range srcNodes {
		for _, d := range dstNodes {
			b := nodePairConnected(snap, s, d)
			if b == nil {
				return nil
			}
			if *b {
				allFalse = false
			} else {
				allTrue = false
			}
		}
	}
	if allTrue {
		t := true
		return &t
	}
	if allFalse {
		f := false
		return &f
	}
	return nil
}

// anyIncidence reports whether at least one raw link exists between any
// node pair in the Cartesian product.
func anyIncidence(snap *rawgraph.Snapshot, srcNodes, dstNodes []uint32) bool {
	for _, s := range srcNodes {
		for _, d := range dstNodes {
			b := nodePairConnected(snap, s, d)
			if b == nil || *b {
				return true
			}
		}
	}
	return false
}

func phaseCReconcileLinks(next *desired.State, snap *rawgraph.Snapshot, resolved map[desired.EndpointDescriptor][]uint32) []adapter.Command {
	var cmds []adapter.Command
	var toRemove []int

	for i, l := range next.Links {
		srcNodes := resolved[l.Start]
		dstNodes := resolved[l.End]
		if len(srcNodes) == 0 || len(dstNodes) == 0 {
			continue
		}
		connected := endpointsConnected(snap, srcNodes, dstNodes)

		if l.Pending {
			expected := l.State == desired.LinkConnectedLocked || l.State == desired.LinkConnectedUnlocked
			if connected != nil && *connected == expected {
				l.Pending = false
				next.Links[i] = l
			}
			continue
		}

		switch l.State {
		case desired.LinkPartial:
			if connected != nil && *connected {
				l.State = desired.LinkConnectedUnlocked
				next.Links[i] = l
			} else if connected != nil && !*connected {
				toRemove = append(toRemove, i)
			}
		case desired.LinkConnectedUnlocked:
			if connected != nil && !*connected {
				toRemove = append(toRemove, i)
			} else if connected == nil {
				l.State = desired.LinkPartial
				next.Links[i] = l
			}
		case desired.LinkConnectedLocked:
			if connected == nil || !*connected {
				for _, s := range srcNodes {
					for _, d := range dstNodes {
						if b := nodePairConnected(snap, s, d); b == nil || !*b {
							cmds = append(cmds, adapter.CreateNodeLinks{SrcNode: s, DstNode: d})
						}
					}
				}
				l.Pending = true
				next.Links[i] = l
			}
		case desired.LinkDisconnectedLocked:
			if connected == nil || *connected {
				for _, s := range srcNodes {
					for _, d := range dstNodes {
						if b := nodePairConnected(snap, s, d); b == nil || *b {
							cmds = append(cmds, adapter.RemoveNodeLinks{SrcNode: s, DstNode: d})
						}
					}
				}
				l.Pending = true
				next.Links[i] = l
			}
		}
	}

	for i := len(toRemove) - 1; i >= 0; i-- {
		next.RemoveLinkAt(toRemove[i])
	}

	cmds = append(cmds, discoverNewLinks(next, snap, resolved)...)
	return cmds
}

// discoverNewLinks finds endpoint pairs for which the server reports
// incidence but which have no representation yet in desired state, and
// materializes them as ConnectedUnlocked (full) or Partial links
// (spec.md §4.5 Phase C, final paragraph).
func discoverNewLinks(next *desired.State, snap *rawgraph.Snapshot, resolved map[desired.EndpointDescriptor][]uint32) []adapter.Command {
	for _, src := range next.ActiveSources() {
		srcNodes := resolved[src]
		if len(srcNodes) == 0 {
			continue
		}
		for _, dst := range next.ActiveSinks() {
			if src == dst {
				continue
			}
			dstNodes := resolved[dst]
			if len(dstNodes) == 0 {
				continue
			}
			if next.FindLink(src, dst) >= 0 {
				continue
			}
			connected := endpointsConnected(snap, srcNodes, dstNodes)
			switch {
			case connected != nil && *connected:
				next.Links = append(next.Links, desired.Link{Start: src, End: dst, State: desired.LinkConnectedUnlocked})
			case connected == nil && anyIncidence(snap, srcNodes, dstNodes):
				next.Links = append(next.Links, desired.Link{Start: src, End: dst, State: desired.LinkPartial})
			}
		}
	}
	return nil
}
