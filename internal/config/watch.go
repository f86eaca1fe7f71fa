package config

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/notchlight-io/notchlight/internal/models"
)

// SettingsWatcher watches settings.yaml and delivers reloaded settings.
type SettingsWatcher struct {
	fsWatcher  *fsnotify.Watcher
	changes    chan *models.Settings
	done       chan struct{}
	debounceMu sync.Mutex
	debounce   *time.Timer
}

// WatchSettings starts watching the global settings file for edits.
// Reloaded settings are delivered on the returned watcher's channel.
func WatchSettings() (*SettingsWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir, err := GlobalDir()
	if err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}
	// Watch the directory, not the file: atomic saves (write tmp → rename)
	// replace the file node, which would silently drop a file-level watch.
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	w := &SettingsWatcher{
		fsWatcher: fsWatcher,
		changes:   make(chan *models.Settings, 1),
		done:      make(chan struct{}),
	}
	go w.processEvents()
	return w, nil
}

// Changes returns the channel on which reloaded settings are delivered.
func (w *SettingsWatcher) Changes() <-chan *models.Settings {
	return w.changes
}

// Stop stops the watcher.
func (w *SettingsWatcher) Stop() {
	close(w.done)
	_ = w.fsWatcher.Close()
}

func (w *SettingsWatcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != SettingsFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.debounceReload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("Settings watcher error: %v", err)
		}
	}
}

// debounceReload coalesces the burst of events an editor save produces.
func (w *SettingsWatcher) debounceReload() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(100*time.Millisecond, func() {
		settings, err := LoadSettings()
		if err != nil {
			log.Printf("Failed to reload settings: %v", err)
			return
		}
		select {
		case w.changes <- settings:
		default:
			// Receiver is behind; drop the stale reload, a newer one follows.
		}
	})
}
