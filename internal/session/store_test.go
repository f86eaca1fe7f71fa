package session

import (
	"sync"
	"testing"
	"time"

	"github.com/notchlight-io/notchlight/internal/hooks"
	"github.com/notchlight-io/notchlight/internal/pins"
)

// recordingEscalator counts start/stop calls for assertions.
type recordingEscalator struct {
	mu     sync.Mutex
	starts int
	stops  int
}

func (r *recordingEscalator) StartWaitingAlerts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
}

func (r *recordingEscalator) StopWaitingAlerts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
}

func (r *recordingEscalator) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts, r.stops
}

func toolStart(sessionID, tool, useID string) *hooks.Event {
	return &hooks.Event{Kind: hooks.KindToolStart, SessionID: sessionID, ToolName: tool, ToolUseID: useID}
}

func toolEnd(sessionID, useID string) *hooks.Event {
	return &hooks.Event{Kind: hooks.KindToolEnd, SessionID: sessionID, ToolUseID: useID}
}

func TestToolStartSetsCurrent(t *testing.T) {
	s := New(nil, nil)

	s.Apply(toolStart("s1", "Bash", "t1"))

	sess := s.get("s1")
	if sess == nil {
		t.Fatal("session not created lazily")
	}
	if !sess.Active {
		t.Error("Active should be true after tool start")
	}
	if sess.Current == nil || sess.Current.Name != "Bash" || sess.Current.UseID != "t1" {
		t.Errorf("Current = %+v, want Bash/t1", sess.Current)
	}
}

func TestToolStartGeneratesUseID(t *testing.T) {
	s := New(nil, nil)
	s.Apply(toolStart("s1", "Edit", ""))

	sess := s.get("s1")
	if sess.Current == nil || sess.Current.UseID == "" {
		t.Error("missing tool use id should fall back to a generated one")
	}
}

func TestToolEndMatchesAndArchives(t *testing.T) {
	s := New(nil, nil)
	s.Apply(toolStart("s1", "Bash", "t1"))

	end := toolEnd("s1", "t1")
	end.ToolResponse = hooks.Object(map[string]hooks.Value{"success": hooks.Bool(true)})
	s.Apply(end)

	sess := s.get("s1")
	if sess.Current != nil {
		t.Error("Current should clear after matching end")
	}
	if len(sess.RecentTools) != 1 {
		t.Fatalf("RecentTools = %d entries, want 1", len(sess.RecentTools))
	}
	done := sess.RecentTools[0]
	if !done.Complete() {
		t.Error("archived tool should be complete")
	}
	if done.Response == nil || !done.Response.Success {
		t.Errorf("Response = %+v, want success", done.Response)
	}
	if !sess.Active {
		t.Error("tool end must not clear Active; only Stop does")
	}
}

func TestDuplicateToolEndIsIdempotent(t *testing.T) {
	s := New(nil, nil)
	s.Apply(toolStart("s1", "Bash", "t1"))
	s.Apply(toolEnd("s1", "t1"))
	s.Apply(toolEnd("s1", "t1")) // duplicate delivery

	sess := s.get("s1")
	if len(sess.RecentTools) != 1 {
		t.Errorf("duplicate end duplicated history: %d entries", len(sess.RecentTools))
	}
}

func TestStaleToolEndIsRejected(t *testing.T) {
	s := New(nil, nil)
	s.Apply(toolStart("s1", "Bash", "A"))
	s.Apply(toolStart("s1", "Edit", "B")) // supersedes A without an end
	s.Apply(toolEnd("s1", "A"))           // straggler for A

	sess := s.get("s1")
	if sess.Current == nil || sess.Current.UseID != "B" {
		t.Errorf("Current = %+v, want tool B untouched", sess.Current)
	}
	if len(sess.RecentTools) != 0 {
		t.Errorf("stale end produced a spurious history entry: %v", sess.RecentTools)
	}
}

func TestStopIsAuthoritative(t *testing.T) {
	s := New(nil, nil)
	s.Apply(toolStart("s1", "Bash", "t1"))
	s.Apply(&hooks.Event{Kind: hooks.KindStop, SessionID: "s1"})

	sess := s.get("s1")
	if sess.Active {
		t.Error("Active must be false after Stop")
	}
	if sess.Current != nil {
		t.Error("Current must be nil after Stop")
	}

	// A sweep afterwards must not resurrect activity.
	m := NewMonitor(s, MonitorConfig{})
	m.Sweep()
	if s.get("s1").Active {
		t.Error("sweep set Active after Stop")
	}
}

func TestTokensAccumulateOnlyAtStop(t *testing.T) {
	s := New(nil, nil)

	start := toolStart("s1", "Bash", "t1")
	start.Usage = hooks.Usage{InputTokens: 999, OutputTokens: 999}
	s.Apply(start)

	end := toolEnd("s1", "t1")
	end.Usage = hooks.Usage{InputTokens: 999, OutputTokens: 999}
	s.Apply(end)

	sess := s.get("s1")
	if sess.TotalInputTokens != 0 || sess.TotalOutputTokens != 0 {
		t.Errorf("tool events changed totals: %d/%d", sess.TotalInputTokens, sess.TotalOutputTokens)
	}

	s.Apply(&hooks.Event{Kind: hooks.KindStop, SessionID: "s1", Usage: hooks.Usage{InputTokens: 100, OutputTokens: 50}})
	s.Apply(&hooks.Event{Kind: hooks.KindStop, SessionID: "s1", Usage: hooks.Usage{InputTokens: 200, OutputTokens: 80}})

	sess = s.get("s1")
	if sess.TotalInputTokens != 300 || sess.TotalOutputTokens != 130 {
		t.Errorf("totals = %d/%d, want 300/130 cumulative", sess.TotalInputTokens, sess.TotalOutputTokens)
	}
}

func TestPermissionNotificationSetsWaiting(t *testing.T) {
	esc := &recordingEscalator{}
	s := New(nil, esc)
	s.Apply(toolStart("s1", "Bash", "t1"))

	notif := &hooks.Event{Kind: hooks.KindNotification, SessionID: "s1", Message: "Claude needs your permission to use Bash"}
	s.Apply(notif)

	sess := s.get("s1")
	if !sess.WaitingForPermission {
		t.Error("WaitingForPermission should be set")
	}
	if sess.Active {
		t.Error("Active and WaitingForPermission are mutually exclusive")
	}

	// Repeated permission notifications must not re-trigger escalation.
	s.Apply(notif)
	s.Apply(notif)
	starts, _ := esc.counts()
	if starts != 1 {
		t.Errorf("escalator starts = %d, want exactly 1 per waiting transition", starts)
	}
}

func TestWaitingClearsOnAnyNonNotificationEvent(t *testing.T) {
	clearing := []struct {
		name string
		ev   *hooks.Event
	}{
		{name: "tool start", ev: toolStart("s1", "Bash", "t2")},
		{name: "prompt submit", ev: &hooks.Event{Kind: hooks.KindUserPromptSubmit, SessionID: "s1"}},
		{name: "stop", ev: &hooks.Event{Kind: hooks.KindStop, SessionID: "s1"}},
		{name: "session start", ev: &hooks.Event{Kind: hooks.KindSessionStart, SessionID: "s1"}},
		{name: "unknown", ev: &hooks.Event{Kind: hooks.KindUnknown, SessionID: "s1"}},
	}

	for _, tt := range clearing {
		t.Run(tt.name, func(t *testing.T) {
			esc := &recordingEscalator{}
			s := New(nil, esc)
			s.Apply(&hooks.Event{Kind: hooks.KindNotification, SessionID: "s1", NotificationType: "permission_request"})
			if !s.get("s1").WaitingForPermission {
				t.Fatal("setup: session should be waiting")
			}

			s.Apply(tt.ev)
			if s.get("s1").WaitingForPermission {
				t.Errorf("%s did not clear waiting-for-permission", tt.name)
			}
			_, stops := esc.counts()
			if stops != 1 {
				t.Errorf("escalator stops = %d, want 1 (alerts silenced)", stops)
			}
		})
	}
}

func TestSessionEndSilencesAlerts(t *testing.T) {
	esc := &recordingEscalator{}
	s := New(nil, esc)

	s.Apply(&hooks.Event{Kind: hooks.KindNotification, SessionID: "s1", NotificationType: "permission_request"})
	if !s.get("s1").WaitingForPermission {
		t.Fatal("setup: session should be waiting")
	}

	s.Apply(&hooks.Event{Kind: hooks.KindSessionEnd, SessionID: "s1"})
	if s.get("s1") != nil {
		t.Fatal("session should be removed")
	}
	_, stops := esc.counts()
	if stops != 1 {
		t.Errorf("escalator stops = %d, want 1 (ending a waiting session must silence alerts)", stops)
	}

	// Ending a session that was not waiting leaves the escalator alone.
	s.Apply(&hooks.Event{Kind: hooks.KindSessionStart, SessionID: "s2"})
	s.Apply(&hooks.Event{Kind: hooks.KindSessionEnd, SessionID: "s2"})
	_, stops = esc.counts()
	if stops != 1 {
		t.Errorf("escalator stops = %d, want still 1 after non-waiting SessionEnd", stops)
	}
}

func TestAutoPinOnSessionStart(t *testing.T) {
	registry := pins.New(nil)
	s := New(registry, nil)
	dir := t.TempDir()

	s.Apply(&hooks.Event{Kind: hooks.KindSessionStart, SessionID: "s1", CWD: dir})
	if !registry.IsPinned(dir) {
		t.Errorf("IsPinned(%q) = false after SessionStart", dir)
	}

	s.Apply(&hooks.Event{Kind: hooks.KindSessionStart, SessionID: "s2"})
	if len(registry.Paths()) != 1 {
		t.Errorf("empty-cwd SessionStart added a pin: %v", registry.Paths())
	}
}

func TestSessionEnd(t *testing.T) {
	s := New(nil, nil)
	s.Apply(&hooks.Event{Kind: hooks.KindSessionStart, SessionID: "s2"})
	s.Apply(&hooks.Event{Kind: hooks.KindSessionStart, SessionID: "s1"})

	// s1 is now globally active; ending it reassigns deterministically.
	s.Apply(&hooks.Event{Kind: hooks.KindSessionEnd, SessionID: "s1"})
	if s.get("s1") != nil {
		t.Error("SessionEnd should remove the session")
	}
	s.mu.Lock()
	active := s.activeID
	s.mu.Unlock()
	if active != "s2" {
		t.Errorf("activeID = %q, want s2", active)
	}

	// Ending an absent session is a no-op.
	s.Apply(&hooks.Event{Kind: hooks.KindSessionEnd, SessionID: "ghost"})
	if got := len(s.Sessions()); got != 1 {
		t.Errorf("session count = %d, want 1", got)
	}
}

func TestProjectPathNeverRetroactivelyUpdated(t *testing.T) {
	s := New(nil, nil)
	s.Apply(&hooks.Event{Kind: hooks.KindSessionStart, SessionID: "s1", CWD: "/first"})
	s.Apply(&hooks.Event{Kind: hooks.KindUserPromptSubmit, SessionID: "s1", CWD: "/second"})

	if got := s.get("s1").ProjectPath; got != "/first" {
		t.Errorf("ProjectPath = %q, want original /first", got)
	}
}

func TestContextOccupancyUpdatesOnAnyEvent(t *testing.T) {
	s := New(nil, nil)
	end := toolEnd("s1", "nope")
	end.ContextPercent = 42.5
	end.ContextTokens = 85000
	s.Apply(end)

	sess := s.get("s1")
	if sess.ContextPercent != 42.5 || sess.ContextTokens != 85000 {
		t.Errorf("context = %v/%v, want 42.5/85000", sess.ContextPercent, sess.ContextTokens)
	}
}

func TestRecentToolsCap(t *testing.T) {
	s := New(nil, nil)
	for i := 0; i < 15; i++ {
		id := string(rune('a' + i))
		s.Apply(toolStart("s1", "Bash", id))
		s.Apply(toolEnd("s1", id))
	}

	sess := s.get("s1")
	if len(sess.RecentTools) != maxRecentTools {
		t.Errorf("history length = %d, want %d", len(sess.RecentTools), maxRecentTools)
	}
	// Most recent first.
	if sess.RecentTools[0].UseID != "o" {
		t.Errorf("newest entry = %q, want %q", sess.RecentTools[0].UseID, "o")
	}
}

func TestStatusSnapshot(t *testing.T) {
	s := New(nil, nil)
	s.Apply(toolStart("s1", "Bash", "t1"))

	st := s.Status()
	if st.SessionCount != 1 || !st.AnyActive || st.CurrentTool != "Bash" {
		t.Errorf("Status = %+v, want 1 session, active, Bash", st)
	}

	s.Apply(&hooks.Event{Kind: hooks.KindStop, SessionID: "s1"})
	st = s.Status()
	if st.AnyActive || st.CurrentTool != "" {
		t.Errorf("Status after Stop = %+v, want inactive with no tool", st)
	}
}

func TestChangeStream(t *testing.T) {
	s := New(nil, nil)
	ch := s.Subscribe()

	s.Apply(toolStart("s1", "Bash", "t1"))

	select {
	case c := <-ch:
		if c.Kind != ChangeSession || c.SessionID != "s1" {
			t.Errorf("change = %+v, want session change for s1", c)
		}
	case <-time.After(time.Second):
		t.Fatal("no change notification delivered")
	}
}
