package persistence

import (
	"context"
	"time"

	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/log"
)

const defaultAutosaveInterval = 30 * time.Second

// Autosaver periodically writes the reducer's current state to disk,
// grounded on the teacher's Scheduler.Run shape: a ticker in a select
// against a context instead of draining a buffer heap (spec.md §4.8).
type Autosaver struct {
	path     string
	interval time.Duration
	snapshot func() *desired.State
}

// NewAutosaver builds an Autosaver that calls snapshot to obtain the
// state to persist on each tick. interval <= 0 selects the default of
// 30 seconds.
func NewAutosaver(path string, interval time.Duration, snapshot func() *desired.State) *Autosaver {
	if interval <= 0 {
		interval = defaultAutosaveInterval
	}
	return &Autosaver{path: path, interval: interval, snapshot: snapshot}
}

// Run blocks, saving on every tick, until ctx is canceled. Intended to be
// run in its own goroutine.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := Save(a.path, a.snapshot()); err != nil {
				log.Errorf("persistence: autosave failed: %v", err)
			}
		}
	}
}
