// Package alert defines the escalation collaborator invoked when a session
// enters or leaves the waiting-for-permission state. Actual sound playback
// lives outside the daemon; the store only needs start/stop semantics.
package alert

import (
	"log"
	"sync"
)

// Escalator receives waiting-for-permission transitions. Both methods are
// idempotent and must return quickly: the store calls them inline from its
// serialized mutation path.
type Escalator interface {
	StartWaitingAlerts()
	StopWaitingAlerts()
}

// Nop is an Escalator that does nothing. Used when alerts are disabled.
type Nop struct{}

// StartWaitingAlerts implements Escalator.
func (Nop) StartWaitingAlerts() {}

// StopWaitingAlerts implements Escalator.
func (Nop) StopWaitingAlerts() {}

// Logger is an Escalator that records transitions to the process log.
// The daemon uses it as the default; a playback implementation can wrap it.
type Logger struct {
	mu      sync.Mutex
	waiting bool
}

// StartWaitingAlerts implements Escalator. Repeated calls while already
// waiting are ignored.
func (l *Logger) StartWaitingAlerts() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.waiting {
		return
	}
	l.waiting = true
	log.Println("Alert escalation started: session waiting for permission")
}

// StopWaitingAlerts implements Escalator.
func (l *Logger) StopWaitingAlerts() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.waiting {
		return
	}
	l.waiting = false
	log.Println("Alert escalation stopped")
}

// Switchable wraps an Escalator behind an on/off toggle so the settings
// watcher can flip alerts at runtime without re-wiring the store.
type Switchable struct {
	mu      sync.Mutex
	inner   Escalator
	enabled bool
}

// NewSwitchable wraps inner, initially enabled or not.
func NewSwitchable(inner Escalator, enabled bool) *Switchable {
	return &Switchable{inner: inner, enabled: enabled}
}

// SetEnabled toggles escalation. Disabling stops any active alert.
func (s *Switchable) SetEnabled(enabled bool) {
	s.mu.Lock()
	inner := s.inner
	s.enabled = enabled
	s.mu.Unlock()
	if !enabled {
		inner.StopWaitingAlerts()
	}
}

// StartWaitingAlerts implements Escalator.
func (s *Switchable) StartWaitingAlerts() {
	s.mu.Lock()
	inner, enabled := s.inner, s.enabled
	s.mu.Unlock()
	if enabled {
		inner.StartWaitingAlerts()
	}
}

// StopWaitingAlerts implements Escalator.
func (s *Switchable) StopWaitingAlerts() {
	s.mu.Lock()
	inner := s.inner
	s.mu.Unlock()
	inner.StopWaitingAlerts()
}
