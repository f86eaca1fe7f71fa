// Package session folds decoded hook events into per-session view models
// and derives the aggregate state the overlay renders.
package session

import (
	"path/filepath"
	"time"

	"github.com/notchlight-io/notchlight/internal/hooks"
)

// maxRecentTools caps the per-session history of completed tool calls.
const maxRecentTools = 10

// fallbackProjectName is shown when a session never reported a cwd.
const fallbackProjectName = "Session"

// ToolInput is the parsed subset of well-known tool input keys, plus the
// raw value for anything a tool sends that we don't model.
type ToolInput struct {
	FilePath    string
	Command     string
	Pattern     string
	Content     string
	Query       string
	URL         string
	Prompt      string
	Description string
	Raw         hooks.Value
}

func parseToolInput(v hooks.Value) ToolInput {
	return ToolInput{
		FilePath:    v.StringAt("file_path"),
		Command:     v.StringAt("command"),
		Pattern:     v.StringAt("pattern"),
		Content:     v.StringAt("content"),
		Query:       v.StringAt("query"),
		URL:         v.StringAt("url"),
		Prompt:      v.StringAt("prompt"),
		Description: v.StringAt("description"),
		Raw:         v,
	}
}

// ToolResponse is the parsed subset of a tool's result payload.
type ToolResponse struct {
	Success  bool
	FilePath string
	Error    string
	Output   string
}

func parseToolResponse(v hooks.Value) *ToolResponse {
	if v.IsNull() {
		return nil
	}
	return &ToolResponse{
		Success:  v.BoolAt("success"),
		FilePath: v.StringAt("filePath"),
		Error:    v.StringAt("error"),
		Output:   v.StringAt("output"),
	}
}

// ToolUse is one in-flight or completed tool invocation.
type ToolUse struct {
	UseID     string
	Name      string
	Input     ToolInput
	StartedAt time.Time
	EndedAt   *time.Time
	Response  *ToolResponse
}

// Complete reports whether the end event for this invocation arrived.
func (t *ToolUse) Complete() bool {
	return t.EndedAt != nil
}

// Duration returns how long the invocation ran, or 0 while still in flight.
func (t *ToolUse) Duration() time.Duration {
	if t.EndedAt == nil {
		return 0
	}
	return t.EndedAt.Sub(t.StartedAt)
}

// Session is the tracked view model for one assistant session.
//
// Invariants maintained by the store: token totals only increase and only at
// Stop; Active is cleared authoritatively only by Stop; Active and
// WaitingForPermission are mutually exclusive in steady state; ID and
// ProjectPath never change after creation.
type Session struct {
	ID             string
	ProjectPath    string
	ProjectName    string
	PermissionMode string
	StartedAt      time.Time
	LastActivity   time.Time

	Current     *ToolUse
	RecentTools []*ToolUse // most recent first

	Active               bool
	WaitingForPermission bool

	TotalInputTokens         int64
	TotalOutputTokens        int64
	TotalCacheCreationTokens int64
	TotalCacheReadTokens     int64

	ContextTokens  int64
	ContextPercent float64
}

func newSession(id string, ev *hooks.Event, now time.Time) *Session {
	s := &Session{
		ID:             id,
		ProjectPath:    ev.CWD,
		PermissionMode: ev.PermissionMode,
		StartedAt:      now,
		LastActivity:   now,
	}
	s.ProjectName = deriveProjectName(ev.ProjectName, ev.CWD)
	return s
}

func deriveProjectName(explicit, cwd string) string {
	if explicit != "" {
		return explicit
	}
	if cwd != "" {
		return filepath.Base(cwd)
	}
	return fallbackProjectName
}

// pushRecent prepends a completed tool to the history, evicting past the cap.
func (s *Session) pushRecent(t *ToolUse) {
	s.RecentTools = append([]*ToolUse{t}, s.RecentTools...)
	if len(s.RecentTools) > maxRecentTools {
		s.RecentTools = s.RecentTools[:maxRecentTools]
	}
}
