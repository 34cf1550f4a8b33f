// Package reducer hosts the single writer of desired state: every Intent
// and every GraphSnapshot passes through one goroutine, which folds it
// through reconciler.Update/Diff and publishes the result as an
// immutable, atomically-swapped snapshot (spec.md §4.7, §5, §9).
package reducer

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sonusmix/sonusmix/internal/adapter"
	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/log"
	"github.com/sonusmix/sonusmix/internal/rawgraph"
	"github.com/sonusmix/sonusmix/internal/reconciler"
)

// ErrQueueFull is returned by Emit when the inbound channel's buffer is
// saturated. Unlike a dropped network message, a dropped intent would
// silently violate "no partial state change; no command emitted"
// (spec.md §7), so it is surfaced here rather than swallowed the way the
// teacher's sendMessage swallows a full send buffer.
var ErrQueueFull = errors.New("reducer: inbound queue full")

const inboundBuffer = 64

// message is the closed set of things the run loop selects over.
type message interface{ messageTag() }

type snapshotMsg struct{ snap *rawgraph.Snapshot }

func (snapshotMsg) messageTag() {}

type intentMsg struct{ intent reconciler.Intent }

func (intentMsg) messageTag() {}

type exitMsg struct{ done chan struct{} }

func (exitMsg) messageTag() {}

// CommandSink is the narrow surface the host needs to flush reconciler
// output to, satisfied by *adapter.Adapter in production.
type CommandSink interface {
	Enqueue(cmd adapter.Command)
}

// Config bundles the host's external collaborators.
type Config struct {
	Adapter CommandSink
	// Persist is called with every published state after it settles, and
	// by SaveAndExit. May be nil.
	Persist func(*desired.State)
}

// Host is the state reducer: directly modeled on internal/server.Server's
// lifecycle (spec.md §4.7) — a Config, one run() goroutine, a sync.Once
// guarded Stop, and a sync.WaitGroup for clean join — but publishing an
// atomic.Pointer[desired.State] snapshot instead of maintaining a live
// connection table.
type Host struct {
	config Config

	inbound chan message

	state atomic.Pointer[desired.State]
	snap  atomic.Pointer[rawgraph.Snapshot]

	subsMu   sync.Mutex
	subs     []chan *desired.State
	msgSubs  []chan Notification

	stopOnce sync.Once
	stopped  chan struct{}
	wg       sync.WaitGroup
}

// Notification is republished verbatim from reconciler.Update for
// subscribers that want endpoint add/remove events rather than full state
// (spec.md §4.1 "a single notification").
type Notification = reconciler.Notification

// New constructs a Host with an empty initial state. Run must be called
// to start processing.
func New(config Config) *Host {
	h := &Host{
		config:  config,
		inbound: make(chan message, inboundBuffer),
		stopped: make(chan struct{}),
	}
	h.state.Store(desired.New())
	return h
}

// Seed replaces the current state before Run is called, used to install
// state loaded from disk at process startup (spec.md §4.10). Calling it
// after Run has started is a race and is the caller's responsibility to
// avoid.
func (h *Host) Seed(state *desired.State) {
	h.state.Store(state)
}

// Run starts the single writer goroutine. It returns immediately; call
// Stop or SaveAndExit to terminate it.
func (h *Host) Run() {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.run()
	}()
}

// Snapshot returns the most recently published desired state. Safe to
// call from any goroutine without locking, matching the "atomically
// swapped immutable snapshot, no reader locks" discipline (spec.md §9).
func (h *Host) Snapshot() *desired.State {
	return h.state.Load()
}

// Subscribe registers a channel that receives every published state.
// The channel is buffered with capacity 1 and only ever holds the latest
// value, so a slow subscriber sees the newest state once it catches up
// rather than a backlog.
func (h *Host) Subscribe() <-chan *desired.State {
	ch := make(chan *desired.State, 1)
	h.subsMu.Lock()
	h.subs = append(h.subs, ch)
	h.subsMu.Unlock()
	return ch
}

// SubscribeMsg registers a channel that receives Notifications, one per
// Update call that produced one (Diff never does).
func (h *Host) SubscribeMsg() <-chan Notification {
	ch := make(chan Notification, 16)
	h.subsMu.Lock()
	h.msgSubs = append(h.msgSubs, ch)
	h.subsMu.Unlock()
	return ch
}

// Emit sends intent onto the host's inbound channel without blocking the
// caller past a full-buffer check (spec.md §4.7). Returns ErrQueueFull if
// the buffer is saturated; the caller should treat this as "the intent
// did not happen" and retry or surface an error to the user.
func (h *Host) Emit(intent reconciler.Intent) error {
	select {
	case h.inbound <- intentMsg{intent: intent}:
		return nil
	default:
		log.WithField("intent", intent).Errorf("reducer: inbound queue full, dropping intent")
		return ErrQueueFull
	}
}

// PushSnapshot feeds a fresh raw-graph snapshot into the reducer. Called
// by the adapter every time it publishes one.
func (h *Host) PushSnapshot(snap *rawgraph.Snapshot) {
	select {
	case h.inbound <- snapshotMsg{snap: snap}:
	default:
		log.Errorf("reducer: inbound queue full, dropping graph snapshot")
	}
}

// Stop terminates the run loop and blocks until it has exited. Safe to
// call more than once.
func (h *Host) Stop() {
	h.stopOnce.Do(func() {
		done := make(chan struct{})
		h.inbound <- exitMsg{done: done}
		<-done
		close(h.stopped)
	})
	h.wg.Wait()
}

// SaveAndExit persists the current state via Config.Persist (if set) and
// then stops the host, matching the teacher's Stop-then-wait shutdown
// shape called from the process's signal handler (spec.md §4.10).
func (h *Host) SaveAndExit() {
	if h.config.Persist != nil {
		h.config.Persist(h.state.Load())
	}
	h.Stop()
}

func (h *Host) run() {
	for msg := range h.inbound {
		switch m := msg.(type) {
		case snapshotMsg:
			h.snap.Store(m.snap)
			next, cmds := reconciler.Diff(h.state.Load(), m.snap)
			h.settle(next, cmds, nil)
		case intentMsg:
			snap := h.snap.Load()
			if snap == nil {
				snap = rawgraph.New().Snapshot()
			}
			next, notif, cmds := reconciler.Update(h.state.Load(), snap, m.intent)
			next, diffCmds := reconciler.Diff(next, snap)
			cmds = append(cmds, diffCmds...)
			h.settle(next, cmds, notif)
		case exitMsg:
			close(m.done)
			return
		}
	}
}

func (h *Host) settle(next *desired.State, cmds []adapter.Command, notif *Notification) {
	h.state.Store(next)
	if h.config.Adapter != nil {
		for _, cmd := range cmds {
			h.config.Adapter.Enqueue(cmd)
		}
	}
	if h.config.Persist != nil {
		h.config.Persist(next)
	}
	h.publish(next, notif)
}

func (h *Host) publish(state *desired.State, notif *Notification) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
	if notif == nil {
		return
	}
	for _, ch := range h.msgSubs {
		select {
		case ch <- *notif:
		default:
			log.Warnf("reducer: notification subscriber channel full, dropping")
		}
	}
}
