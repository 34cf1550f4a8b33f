package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/identifier"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
)

func buildStateWithLockedLinkAndInactiveApp() *desired.State {
	s := desired.New()

	locked := desired.EphemeralNode(1, rawgraph.Source)
	unlocked := desired.EphemeralNode(2, rawgraph.Sink)
	s.Links = append(s.Links,
		desired.Link{Start: locked, End: unlocked, State: desired.LinkConnectedLocked},
		desired.Link{Start: unlocked, End: locked, State: desired.LinkConnectedUnlocked},
	)

	s.Applications[desired.AppID("firefox|firefox|source")] = desired.Application{
		ID: desired.AppID("firefox|firefox|source"), IsActive: true, Name: "firefox", Binary: "firefox",
	}
	s.Applications[desired.AppID("mpv|mpv|source")] = desired.Application{
		ID: desired.AppID("mpv|mpv|source"), IsActive: false, Name: "mpv", Binary: "mpv",
	}

	gid := desired.GroupID("group-1")
	s.GroupNodes[gid] = desired.GroupNode{ID: gid, Kind: desired.GroupSink}

	name := "headset-mic"
	pid := desired.PersistentID("persistent-1")
	s.PersistentNodes[pid] = desired.PersistentNodeRecord{
		ID:         pid,
		Identifier: identifier.Identifier{NodeName: &name},
	}

	return s
}

func TestSaveDropsUnlockedLinksAndInactiveApplications(t *testing.T) {
	state := buildStateWithLockedLinkAndInactiveApp()
	p := toPersisted(state)

	if len(p.Links) != 1 {
		t.Fatalf("expected exactly one locked link to survive, got %d", len(p.Links))
	}
	if p.Links[0].State != desired.LinkConnectedLocked.String() {
		t.Fatalf("expected the surviving link to be ConnectedLocked, got %s", p.Links[0].State)
	}
	if len(p.Applications) != 1 || p.Applications[0].Name != "firefox" {
		t.Fatalf("expected only the active application to survive, got %+v", p.Applications)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	state := buildStateWithLockedLinkAndInactiveApp()

	if err := Save(path, state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := Load(path)

	if len(loaded.Links) != 1 {
		t.Fatalf("expected 1 link after load, got %d", len(loaded.Links))
	}
	if loaded.Links[0].State != desired.LinkConnectedLocked {
		t.Fatalf("expected loaded link to be ConnectedLocked, got %v", loaded.Links[0].State)
	}
	if len(loaded.Applications) != 1 {
		t.Fatalf("expected 1 application after load, got %d", len(loaded.Applications))
	}
	if _, ok := loaded.GroupNodes[desired.GroupID("group-1")]; !ok {
		t.Fatalf("expected group node to survive round trip")
	}
	rec, ok := loaded.PersistentNodes[desired.PersistentID("persistent-1")]
	if !ok {
		t.Fatalf("expected persistent node record to survive round trip")
	}
	if rec.Identifier.NodeName == nil || *rec.Identifier.NodeName != "headset-mic" {
		t.Fatalf("expected persistent node identifier to round-trip, got %+v", rec.Identifier)
	}
}

func TestLoadMissingFileReturnsEmptyState(t *testing.T) {
	loaded := Load(filepath.Join(t.TempDir(), "nope.json"))
	if len(loaded.Endpoints) != 0 || len(loaded.Links) != 0 {
		t.Fatalf("expected an empty state for a missing file, got %+v", loaded)
	}
}

func TestLoadCorruptFileReturnsEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	loaded := Load(path)
	if len(loaded.Links) != 0 {
		t.Fatalf("expected empty state for a corrupt file")
	}
}

func TestDataDirHonorsEnvOverride(t *testing.T) {
	t.Setenv("SONUSMIX_DATA_DIR", "/tmp/custom-sonusmix-data")
	if got := DataDir(); got != "/tmp/custom-sonusmix-data" {
		t.Fatalf("expected env override to win, got %s", got)
	}
}

func TestConfigDirHonorsEnvOverride(t *testing.T) {
	t.Setenv("SONUSMIX_CONFIG_DIR", "/tmp/custom-sonusmix-config")
	if got := ConfigDir(); got != "/tmp/custom-sonusmix-config" {
		t.Fatalf("expected env override to win, got %s", got)
	}
}
