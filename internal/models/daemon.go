package models

import (
	"fmt"
	"time"
)

// DaemonInfo represents the daemon connection information.
// This corresponds to ~/.notchlight/daemon.yaml.
//
// Port records the configured listener port even when the bind failed;
// installed hook scripts hardcode it (see DefaultPort), so the CLI and
// installer read it from here rather than probing.
type DaemonInfo struct {
	Version   int       `yaml:"version"`
	Host      string    `yaml:"host"`
	Port      int       `yaml:"port"`
	PID       int       `yaml:"pid"`
	StartedAt time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates a new daemon info with current values.
func NewDaemonInfo(host string, port, pid int) *DaemonInfo {
	return &DaemonInfo{
		Version:   1,
		Host:      host,
		Port:      port,
		PID:       pid,
		StartedAt: time.Now().UTC(),
	}
}

// Addr returns the host:port the control plane listens on.
func (d *DaemonInfo) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}
