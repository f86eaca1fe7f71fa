// Package main is the entry point for the notchlightd daemon.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/notchlight-io/notchlight/internal/alert"
	"github.com/notchlight-io/notchlight/internal/config"
	"github.com/notchlight-io/notchlight/internal/kv"
	"github.com/notchlight-io/notchlight/internal/models"
	"github.com/notchlight-io/notchlight/internal/pins"
	"github.com/notchlight-io/notchlight/internal/server"
	"github.com/notchlight-io/notchlight/internal/session"
	"github.com/notchlight-io/notchlight/internal/tray"
	"github.com/notchlight-io/notchlight/internal/updater"
)

const lastShutdownKey = "last_clean_shutdown"

func main() {
	foreground := flag.Bool("foreground", false, "Run in foreground (no menu bar item)")
	port := flag.Int("port", 0, "Port to listen on (0 uses the configured port)")
	flag.Parse()

	log.SetPrefix("[notchlightd] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := config.EnsureGlobalDir(); err != nil {
		log.Fatalf("Failed to create global directory: %v", err)
	}

	// Refuse to start twice
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon already running on port %d (PID %d)", info.Port, info.PID)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
		settings = models.NewSettings()
	}
	if *port != 0 {
		settings.Port = *port
	}

	d, err := newDaemon(settings)
	if err != nil {
		log.Fatalf("Failed to initialize daemon: %v", err)
	}

	if *foreground {
		log.Println("Running in foreground mode (no menu bar item)")
		d.runForeground()
	} else {
		log.Println("Running in background mode (with menu bar item)")
		d.runWithTray()
	}
}

// daemon wires the stores, the monitor, the control plane listener and the
// settings watcher together.
type daemon struct {
	settings *models.Settings
	store    *kv.Store
	registry *pins.Registry
	alerts   *alert.Switchable
	sessions *session.Store
	monitor  *session.Monitor
	srv      *server.Server
	watcher  *config.SettingsWatcher
	shutdown chan struct{}
	quitOnce sync.Once
}

func newDaemon(settings *models.Settings) (*daemon, error) {
	storePath, err := config.GlobalStoreFile()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store path: %w", err)
	}
	store, err := kv.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// The registry restores and re-normalizes persisted pins itself.
	registry := pins.New(store)

	alerts := alert.NewSwitchable(&alert.Logger{}, settings.Alerts.Enabled)
	sessions := session.New(registry, alerts)
	monitor := session.NewMonitor(sessions, monitorConfig(settings))
	srv := server.NewControlPlane(settings.Port, sessions, registry)

	return &daemon{
		settings: settings,
		store:    store,
		registry: registry,
		alerts:   alerts,
		sessions: sessions,
		monitor:  monitor,
		srv:      srv,
		shutdown: make(chan struct{}),
	}, nil
}

func monitorConfig(s *models.Settings) session.MonitorConfig {
	return session.MonitorConfig{
		Interval:        time.Duration(s.Timeouts.SweepInterval) * time.Second,
		ActivityTimeout: time.Duration(s.Timeouts.ActivityTimeout) * time.Second,
		IdleTimeout:     time.Duration(s.Timeouts.IdleTimeout) * time.Second,
	}
}

// start brings up the listener, the monitor and the settings watcher, and
// records the daemon info file. A listener bind failure is not fatal: the
// menu bar item stays up and reports the degraded state.
func (d *daemon) start() {
	if err := d.srv.Start(); err != nil {
		log.Printf("Failed to start listener on port %d: %v", d.settings.Port, err)
	} else {
		log.Printf("Listening on port %d", d.srv.Port())
	}

	d.monitor.Start()

	daemonInfo := models.NewDaemonInfo("127.0.0.1", d.settings.Port, os.Getpid())
	if err := config.SaveDaemonInfo(daemonInfo); err != nil {
		log.Printf("Failed to write daemon info: %v", err)
	}

	watcher, err := config.WatchSettings()
	if err != nil {
		log.Printf("Failed to watch settings: %v", err)
	} else {
		d.watcher = watcher
		go d.applySettingsChanges()
	}

	if value, ok, err := d.store.Get(lastShutdownKey); err == nil && ok {
		log.Printf("Previous clean shutdown: %s", value)
	}

	if d.settings.Updates.CheckOnStartup {
		go d.checkForUpdate()
	}

	log.Printf("Daemon started (PID %d)", os.Getpid())
}

// checkForUpdate logs when a newer release exists. Failures are ignored:
// update checks must never affect the daemon.
func (d *daemon) checkForUpdate() {
	result, err := updater.CheckForUpdate()
	if err != nil {
		log.Printf("Update check failed: %v", err)
		return
	}
	if result.Available {
		log.Printf("Update available: v%s -> v%s (%s)", result.CurrentVersion, result.LatestVersion, result.ReleaseURL)
	}
}

// applySettingsChanges reacts to settings file edits at runtime.
func (d *daemon) applySettingsChanges() {
	for s := range d.watcher.Changes() {
		log.Println("Settings changed, applying")
		d.settings = s
		d.monitor.UpdateConfig(monitorConfig(s))
		d.alerts.SetEnabled(s.Alerts.Enabled)
	}
}

func (d *daemon) stop() {
	if d.watcher != nil {
		d.watcher.Stop()
	}
	d.monitor.Stop()
	d.srv.Stop()
	if err := d.store.Set(lastShutdownKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		log.Printf("Failed to record shutdown time: %v", err)
	}
	if err := d.store.Close(); err != nil {
		log.Printf("Failed to close store: %v", err)
	}
	if err := config.RemoveDaemonInfo(); err != nil {
		log.Printf("Failed to remove daemon info: %v", err)
	}
}

// runForeground runs without a menu bar item, blocking on signals.
func (d *daemon) runForeground() {
	d.start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case <-d.shutdown:
		log.Println("Shutdown requested")
	}

	d.stop()
	fmt.Println("Daemon stopped")
}

// runWithTray runs with a menu bar item on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func (d *daemon) runWithTray() {
	onStart := func() {
		d.start()

		// Redraw the menu on every store change
		go func() {
			for range d.sessions.Subscribe() {
				tray.Refresh()
			}
		}()

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				log.Printf("Received signal %v, shutting down...", sig)
			case <-d.shutdown:
				log.Println("Shutdown requested")
			}
			tray.Quit()
		}()
	}

	onExit := func() {
		d.stop()
		fmt.Println("Daemon stopped")
	}

	// Blocks the main goroutine until the tray exits.
	tray.Run(&daemonState{d: d}, onStart, onExit)
}

// daemonState adapts the daemon's components to the tray's view interface.
type daemonState struct {
	d *daemon
}

func (s *daemonState) Port() int {
	return s.d.settings.Port
}

func (s *daemonState) ListenerRunning() bool {
	return s.d.srv.Running()
}

func (s *daemonState) Idle() bool {
	return s.d.sessions.Idle()
}

func (s *daemonState) Sessions() []tray.SessionInfo {
	snaps := s.d.sessions.Sessions()
	infos := make([]tray.SessionInfo, 0, len(snaps))
	for _, snap := range snaps {
		infos = append(infos, tray.SessionInfo{
			ID:          snap.ID,
			ProjectName: snap.ProjectName,
			ProjectPath: snap.ProjectPath,
			Active:      snap.Active,
			Waiting:     snap.WaitingForPermission,
			CurrentTool: snap.CurrentTool,
		})
	}
	return infos
}

func (s *daemonState) PinnedCount() int {
	return len(s.d.registry.Paths())
}

func (s *daemonState) UnpinPath(path string) {
	if _, err := s.d.registry.Unpin(path); err != nil {
		log.Printf("Failed to unpin %s: %v", path, err)
		return
	}
	tray.Refresh()
}

func (s *daemonState) UnpinAll() {
	s.d.registry.UnpinAll()
	tray.Refresh()
}

func (s *daemonState) RequestShutdown() {
	s.d.quitOnce.Do(func() { close(s.d.shutdown) })
}
