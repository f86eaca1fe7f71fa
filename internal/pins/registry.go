// Package pins tracks which project paths should be surfaced in the overlay.
// Membership is independent of the session lifecycle: a path can be pinned
// before, after, or without a live session, and pins survive restarts.
package pins

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"sync"
)

// Persister is the durable backing for the registry. Write failures are
// logged and swallowed; in-memory state stays authoritative (the next
// mutation retries the write path anyway).
type Persister interface {
	LoadPins() ([]string, error)
	AddPin(path string) error
	RemovePin(path string) error
	ClearPins() error
}

// Registry is the in-memory pin set, keyed by normalized absolute path.
type Registry struct {
	mu      sync.RWMutex
	paths   map[string]struct{}
	persist Persister
	onPin   func()
}

// New creates a registry loading any persisted pins from p.
// A nil Persister gives a purely in-memory registry (used by tests).
// Stored paths are re-normalized on load: a symlink target that moved
// between runs collapses into its current resolution instead of
// producing a second spelling of the same pin.
func New(p Persister) *Registry {
	r := &Registry{
		paths:   make(map[string]struct{}),
		persist: p,
	}
	if p != nil {
		stored, err := p.LoadPins()
		if err != nil {
			log.Printf("Failed to load persisted pins: %v", err)
			return r
		}
		for _, path := range stored {
			normalized, err := Normalize(path)
			if err != nil {
				log.Printf("Failed to normalize persisted pin %s: %v", path, err)
				continue
			}
			r.paths[normalized] = struct{}{}
		}
	}
	return r
}

// SetOnPin registers a callback invoked after every successful Pin.
// The session store uses it to clear the global idle flag: pinning alone
// is enough to make the overlay appear, even with no session events yet.
func (r *Registry) SetOnPin(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPin = fn
}

// Normalize resolves a path to the canonical form used as the registry key:
// absolute, symlinks resolved, cleaned. If the path does not exist the
// cleaned absolute form is used, so pins can be made ahead of the directory.
func Normalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return filepath.Clean(abs), nil
	}
	return resolved, nil
}

// Pin adds a path to the registry and returns its normalized form.
// Pinning an already-pinned path is a no-op that still reports activity.
func (r *Registry) Pin(path string) (string, error) {
	normalized, err := Normalize(path)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.paths[normalized] = struct{}{}
	persist := r.persist
	onPin := r.onPin
	r.mu.Unlock()

	if persist != nil {
		if err := persist.AddPin(normalized); err != nil {
			log.Printf("Failed to persist pin: %v", err)
		}
	}
	if onPin != nil {
		onPin()
	}
	return normalized, nil
}

// Unpin removes a path from the registry and returns its normalized form.
func (r *Registry) Unpin(path string) (string, error) {
	normalized, err := Normalize(path)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	delete(r.paths, normalized)
	persist := r.persist
	r.mu.Unlock()

	if persist != nil {
		if err := persist.RemovePin(normalized); err != nil {
			log.Printf("Failed to remove persisted pin: %v", err)
		}
	}
	return normalized, nil
}

// UnpinAll empties the registry.
func (r *Registry) UnpinAll() {
	r.mu.Lock()
	r.paths = make(map[string]struct{})
	persist := r.persist
	r.mu.Unlock()

	if persist != nil {
		if err := persist.ClearPins(); err != nil {
			log.Printf("Failed to clear persisted pins: %v", err)
		}
	}
}

// IsPinned reports whether a path (in any spelling) is pinned.
func (r *Registry) IsPinned(path string) bool {
	normalized, err := Normalize(path)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.paths[normalized]
	return ok
}

// Paths returns the pinned paths, sorted.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
