// Package app wires together the server adapter, the reducer host, and
// persistence into the single process lifecycle spec.md §4.10 describes:
// load persistent state, launch adapter, launch reducer, publish initial
// snapshot, serve UI, and on shutdown persist and join cleanly.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sonusmix/sonusmix/internal/adapter"
	"github.com/sonusmix/sonusmix/internal/config"
	"github.com/sonusmix/sonusmix/internal/desired"
	"github.com/sonusmix/sonusmix/internal/log"
	"github.com/sonusmix/sonusmix/internal/persistence"
	"github.com/sonusmix/sonusmix/internal/reducer"
)

// Config holds the process-level settings main.go collects from flags
// and environment, mirroring the teacher's server.Config shape.
type Config struct {
	Debug             bool
	StatePath         string
	ConfigPath        string
	AutosaveInterval  time.Duration
}

// App is the top-level object main.go creates and runs.
type App struct {
	config   Config
	settings config.Settings

	adapter *adapter.Adapter
	host    *reducer.Host
	saver   *persistence.Autosaver

	cancelAutosave context.CancelFunc
}

// New loads settings and persisted state and assembles the adapter and
// reducer host, but does not start any goroutines yet.
func New(cfg Config) (*App, error) {
	settings, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("app: loading config: %w", err)
	}

	conn := adapter.NewPipewireConn("sonusmix")
	a := adapter.New(conn)

	initial := persistence.Load(cfg.StatePath)

	host := reducer.New(reducer.Config{
		Adapter: a,
		Persist: func(s *desired.State) {
			if err := persistence.Save(cfg.StatePath, s); err != nil {
				log.Errorf("app: save failed: %v", err)
			}
		},
	})
	host.Seed(initial)

	return &App{
		config:   cfg,
		settings: settings,
		adapter:  a,
		host:     host,
	}, nil
}

// Settings returns the loaded user settings.
func (app *App) Settings() config.Settings { return app.settings }

// Host returns the reducer host, the surface the UI collaborator emits
// intents through and subscribes to state on (spec.md §6).
func (app *App) Host() *reducer.Host { return app.host }

// Start connects to the audio server and launches the reducer and
// autosave workers. Returns immediately once everything is running;
// connection failures are returned synchronously (spec.md §4.1).
func (app *App) Start() error {
	if err := app.adapter.Connect(); err != nil {
		return fmt.Errorf("app: adapter connect: %w", err)
	}
	app.host.Run()

	go func() {
		for snap := range app.adapter.Snapshots() {
			app.host.PushSnapshot(snap)
		}
	}()
	app.adapter.Enqueue(adapter.RequestSnapshot{})

	ctx, cancel := context.WithCancel(context.Background())
	app.cancelAutosave = cancel
	app.saver = persistence.NewAutosaver(app.config.StatePath, app.config.AutosaveInterval, app.host.Snapshot)
	go app.saver.Run(ctx)

	return nil
}

// SaveAndExit persists state and joins every worker, the shutdown path
// invoked from the process's signal handler (spec.md §4.10).
func (app *App) SaveAndExit() {
	if app.cancelAutosave != nil {
		app.cancelAutosave()
	}
	app.host.SaveAndExit()
	app.adapter.Enqueue(adapter.Shutdown{})
	app.adapter.Wait()
}
