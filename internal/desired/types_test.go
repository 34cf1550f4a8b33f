package desired

import (
	"testing"

	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

func TestStateCloneIsolatesEndpointDetails(t *testing.T) {
	s := New()
	d := EphemeralNode(1, rawgraph.Source)
	s.Endpoints[d] = Endpoint{Descriptor: d, Details: []string{"a"}}

	clone := s.Clone()
	e := clone.Endpoints[d]
	e.Details = append(e.Details, "b")
	clone.Endpoints[d] = e

	if len(s.Endpoints[d].Details) != 1 {
		t.Errorf("mutating clone's endpoint details leaked into original: %v", s.Endpoints[d].Details)
	}
}

func TestStateCloneIsolatesLinksAndCandidates(t *testing.T) {
	s := New()
	s.Links = append(s.Links, Link{Start: EphemeralNode(1, rawgraph.Source), End: EphemeralNode(2, rawgraph.Sink)})
	s.Candidates = append(s.Candidates, Candidate{NodeID: 3})

	clone := s.Clone()
	clone.Links = append(clone.Links, Link{})
	clone.Candidates = append(clone.Candidates, Candidate{NodeID: 4})

	if len(s.Links) != 1 {
		t.Errorf("mutating clone's links leaked into original: %d", len(s.Links))
	}
	if len(s.Candidates) != 1 {
		t.Errorf("mutating clone's candidates leaked into original: %d", len(s.Candidates))
	}
}

func TestStateCloneIsolatesApplicationExceptions(t *testing.T) {
	s := New()
	appID := AppID("firefox")
	s.Applications[appID] = Application{ID: appID, Exceptions: []EndpointDescriptor{EphemeralNode(1, rawgraph.Source)}}

	clone := s.Clone()
	app := clone.Applications[appID]
	app.Exceptions = append(app.Exceptions, EphemeralNode(2, rawgraph.Source))
	clone.Applications[appID] = app

	if len(s.Applications[appID].Exceptions) != 1 {
		t.Errorf("mutating clone's application exceptions leaked into original: %v", s.Applications[appID].Exceptions)
	}
}

func TestActiveSourcesAndSinks(t *testing.T) {
	s := New()
	src := EphemeralNode(1, rawgraph.Source)
	sink := EphemeralNode(2, rawgraph.Sink)
	group := GroupNodeDescriptor(GroupID("g1"))
	s.Endpoints[src] = Endpoint{Descriptor: src}
	s.Endpoints[sink] = Endpoint{Descriptor: sink}
	s.Endpoints[group] = Endpoint{Descriptor: group}

	sources := s.ActiveSources()
	sinks := s.ActiveSinks()

	if !containsDescriptor(sources, src) || !containsDescriptor(sources, group) {
		t.Errorf("expected source and group node in ActiveSources, got %+v", sources)
	}
	if containsDescriptor(sources, sink) {
		t.Errorf("sink endpoint should not appear in ActiveSources")
	}
	if !containsDescriptor(sinks, sink) || !containsDescriptor(sinks, group) {
		t.Errorf("expected sink and group node in ActiveSinks, got %+v", sinks)
	}
	if containsDescriptor(sinks, src) {
		t.Errorf("source endpoint should not appear in ActiveSinks")
	}
}

func containsDescriptor(list []EndpointDescriptor, d EndpointDescriptor) bool {
	for _, x := range list {
		if x == d {
			return true
		}
	}
	return false
}

func TestFindLinkAndRemoveLinkAt(t *testing.T) {
	s := New()
	a := EphemeralNode(1, rawgraph.Source)
	b := EphemeralNode(2, rawgraph.Sink)
	c := EphemeralNode(3, rawgraph.Sink)
	s.Links = []Link{
		{Start: a, End: b},
		{Start: a, End: c},
	}

	if i := s.FindLink(a, b); i != 0 {
		t.Errorf("FindLink(a,b) = %d, want 0", i)
	}
	if i := s.FindLink(a, c); i != 1 {
		t.Errorf("FindLink(a,c) = %d, want 1", i)
	}
	if i := s.FindLink(b, c); i != -1 {
		t.Errorf("FindLink(b,c) = %d, want -1", i)
	}

	s.RemoveLinkAt(0)
	if len(s.Links) != 1 || s.Links[0].End != c {
		t.Errorf("unexpected links after RemoveLinkAt(0): %+v", s.Links)
	}
}

func TestLinksInvolving(t *testing.T) {
	s := New()
	a := EphemeralNode(1, rawgraph.Source)
	b := EphemeralNode(2, rawgraph.Sink)
	c := EphemeralNode(3, rawgraph.Sink)
	s.Links = []Link{
		{Start: a, End: b},
		{Start: a, End: c},
		{Start: b, End: c},
	}

	idxs := s.LinksInvolving(a)
	if len(idxs) != 2 || idxs[0] != 0 || idxs[1] != 1 {
		t.Errorf("LinksInvolving(a) = %v, want [0 1]", idxs)
	}

	idxs = s.LinksInvolving(c)
	if len(idxs) != 2 || idxs[0] != 1 || idxs[1] != 2 {
		t.Errorf("LinksInvolving(c) = %v, want [1 2]", idxs)
	}
}

func TestEndpointNamePrefersCustomName(t *testing.T) {
	custom := "My Mic"
	e := Endpoint{DisplayName: "Built-in Microphone", CustomName: &custom}
	if e.Name() != "My Mic" {
		t.Errorf("Name() = %q, want %q", e.Name(), "My Mic")
	}

	e2 := Endpoint{DisplayName: "Built-in Microphone"}
	if e2.Name() != "Built-in Microphone" {
		t.Errorf("Name() = %q, want %q", e2.Name(), "Built-in Microphone")
	}

	empty := ""
	e3 := Endpoint{DisplayName: "Built-in Microphone", CustomName: &empty}
	if e3.Name() != "Built-in Microphone" {
		t.Errorf("Name() with empty custom name = %q, want fallback to display name", e3.Name())
	}
}
