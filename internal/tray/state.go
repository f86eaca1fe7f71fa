// Package tray implements the menu-bar icon and menu for the daemon.
package tray

// SessionInfo describes a tracked session for display in the menu.
type SessionInfo struct {
	ID          string
	ProjectName string
	ProjectPath string
	Active      bool
	Waiting     bool
	CurrentTool string
}

// DaemonState provides the tray read access to daemon state plus the few
// actions the menu exposes.
type DaemonState interface {
	Port() int
	ListenerRunning() bool
	Idle() bool
	Sessions() []SessionInfo
	PinnedCount() int
	UnpinPath(path string)
	UnpinAll()
	RequestShutdown()
}
