// ABOUTME: Entry point for the sonusmix PipeWire routing daemon
// ABOUTME: Parses CLI flags, wires the app, and runs until shutdown
package main

import (
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sonusmix/sonusmix/internal/app"
	"github.com/sonusmix/sonusmix/internal/log"
	"github.com/sonusmix/sonusmix/internal/persistence"
	"github.com/sonusmix/sonusmix/internal/version"
)

var (
	debug            = flag.Bool("debug", false, "Enable debug logging")
	logFile          = flag.String("log-file", "sonusmix.log", "Log file path")
	statePath        = flag.String("state-file", "", "Override the state.json path (default: XDG data dir)")
	configPath       = flag.String("config-file", "", "Override the config.json path (default: XDG config dir)")
	autosaveInterval = flag.Duration("autosave-interval", 30*time.Second, "How often to autosave state")
)

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		log.Errorf("error opening log file: %v", err)
		os.Exit(1)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(os.Stdout, f))
	if *debug {
		if err := log.SetLevel("debug"); err != nil {
			log.Errorf("invalid log level: %v", err)
		}
	}

	log.Infof("starting sonusmix %s", version.Version)
	log.Infof("logging to %s", *logFile)

	resolvedState := *statePath
	if resolvedState == "" {
		resolvedState = persistence.StatePath()
	}
	resolvedConfig := *configPath
	if resolvedConfig == "" {
		resolvedConfig = persistence.ConfigPath()
	}

	a, err := app.New(app.Config{
		Debug:            *debug,
		StatePath:        resolvedState,
		ConfigPath:       resolvedConfig,
		AutosaveInterval: *autosaveInterval,
	})
	if err != nil {
		log.Errorf("failed to build app: %v", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Infof("received %v, shutting down gracefully", sig)
		a.SaveAndExit()
		os.Exit(0)
	}()

	if err := a.Start(); err != nil {
		log.Errorf("failed to start app: %v", err)
		os.Exit(1)
	}

	log.Infof("sonusmix running, press Ctrl-C to stop")
	select {}
}
