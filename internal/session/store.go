package session

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notchlight-io/notchlight/internal/alert"
	"github.com/notchlight-io/notchlight/internal/hooks"
	"github.com/notchlight-io/notchlight/internal/pins"
)

// ChangeKind identifies what part of the aggregate state changed.
type ChangeKind int

// Change kinds delivered on the subscription stream.
const (
	ChangeSession ChangeKind = iota
	ChangeIdle
	ChangePins
)

// Change is one state-change notification for rendering observers.
type Change struct {
	Kind      ChangeKind
	SessionID string // set for ChangeSession
}

// Store owns every session view model. All mutation — event ingestion and
// monitor sweeps alike — is serialized behind one mutex, so no two updates
// ever interleave on a single session's fields.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	activeID string // globally active session, last-write-wins

	lastActivity time.Time
	idle         bool

	registry *pins.Registry
	alerts   alert.Escalator
	subs     []chan Change

	now func() time.Time
}

// New creates a store. The registry receives auto-pins from SessionStart
// events, and its explicit pins feed back here as activity.
func New(registry *pins.Registry, alerts alert.Escalator) *Store {
	if alerts == nil {
		alerts = alert.Nop{}
	}
	s := &Store{
		sessions:     make(map[string]*Session),
		registry:     registry,
		alerts:       alerts,
		lastActivity: time.Now(),
		now:          time.Now,
	}
	if registry != nil {
		registry.SetOnPin(s.notePinActivity)
	}
	return s
}

// Subscribe returns a channel of state-change notifications. Delivery is
// best-effort: a slow subscriber loses notifications rather than blocking
// event ingestion.
func (s *Store) Subscribe() <-chan Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Change, 32)
	s.subs = append(s.subs, ch)
	return ch
}

// broadcast must be called with s.mu held.
func (s *Store) broadcast(c Change) {
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Apply folds one decoded event into the store.
func (s *Store) Apply(ev *hooks.Event) {
	var autoPin string
	var startAlerts, stopAlerts bool

	s.mu.Lock()
	now := s.now()

	if ev.Kind == hooks.KindSessionEnd {
		wasWaiting := s.applySessionEnd(ev)
		s.mu.Unlock()
		// Ending a waiting session dismisses its prompt like any other
		// non-Notification event; without this the escalation outlives
		// the session.
		if wasWaiting {
			s.alerts.StopWaitingAlerts()
		}
		return
	}

	sess := s.ensureSession(ev, now)

	// Any event except Notification dismisses a stale permission prompt,
	// before kind-specific handling.
	if ev.Kind != hooks.KindNotification && sess.WaitingForPermission {
		sess.WaitingForPermission = false
		stopAlerts = true
	}

	// Context occupancy rides along on any event kind. It is parsed from a
	// richer transcript source upstream and is always the freshest reading.
	if ev.ContextPercent > 0 {
		sess.ContextPercent = ev.ContextPercent
		sess.ContextTokens = ev.ContextTokens
	}

	switch ev.Kind {
	case hooks.KindToolStart:
		if ev.ToolName != "" {
			useID := ev.ToolUseID
			if useID == "" {
				useID = uuid.NewString()
			}
			sess.Current = &ToolUse{
				UseID:     useID,
				Name:      ev.ToolName,
				Input:     parseToolInput(ev.ToolInput),
				StartedAt: now,
			}
		}
		sess.Active = true
		sess.LastActivity = now
		s.activeID = sess.ID
		s.touchLocked(now)

	case hooks.KindToolEnd:
		if cur := sess.Current; cur != nil && cur.UseID == ev.ToolUseID {
			ended := now
			cur.EndedAt = &ended
			cur.Response = parseToolResponse(ev.ToolResponse)
			sess.pushRecent(cur)
			sess.Current = nil
		}
		// A mismatched id is a straggling end for a superseded tool; drop it.
		sess.LastActivity = now

	case hooks.KindStop, hooks.KindSubagentStop:
		// The only authoritative "not active" source. No timeout overrides it.
		sess.Current = nil
		sess.Active = false
		if !ev.Usage.IsZero() {
			sess.TotalInputTokens += ev.Usage.InputTokens
			sess.TotalOutputTokens += ev.Usage.OutputTokens
			sess.TotalCacheCreationTokens += ev.Usage.CacheCreationTokens
			sess.TotalCacheReadTokens += ev.Usage.CacheReadTokens
		}
		sess.LastActivity = now

	case hooks.KindSessionStart:
		s.activeID = sess.ID
		sess.LastActivity = now
		if ev.CWD != "" {
			autoPin = ev.CWD
		} else {
			log.Printf("Session %s started without cwd; skipping auto-pin", sess.ID)
		}

	case hooks.KindNotification:
		if isPermissionRequest(ev) && !sess.WaitingForPermission {
			sess.WaitingForPermission = true
			sess.Active = false
			startAlerts = true
		}

	case hooks.KindUserPromptSubmit:
		sess.Active = true
		sess.LastActivity = now
		s.activeID = sess.ID
		s.touchLocked(now)

	default:
		sess.LastActivity = now
	}

	// Every ingested event counts toward global recency for the idle sweep,
	// but only tool start / prompt submit / pin clear an already-set idle flag.
	s.lastActivity = now

	s.broadcast(Change{Kind: ChangeSession, SessionID: sess.ID})
	s.mu.Unlock()

	// Side effects run outside the mutation lock: the registry's pin
	// callback re-enters the store, and the escalator is fire-and-forget.
	if stopAlerts {
		s.alerts.StopWaitingAlerts()
	}
	if startAlerts {
		s.alerts.StartWaitingAlerts()
	}
	if autoPin != "" && s.registry != nil {
		if _, err := s.registry.Pin(autoPin); err != nil {
			log.Printf("Auto-pin failed for %s: %v", autoPin, err)
		}
	}
}

// ensureSession must be called with s.mu held.
func (s *Store) ensureSession(ev *hooks.Event, now time.Time) *Session {
	if sess, ok := s.sessions[ev.SessionID]; ok {
		return sess
	}
	sess := newSession(ev.SessionID, ev, now)
	s.sessions[ev.SessionID] = sess
	return sess
}

// applySessionEnd must be called with s.mu held. Absent ids are a no-op.
// Reports whether the removed session was waiting for permission so the
// caller can silence alerts outside the lock.
func (s *Store) applySessionEnd(ev *hooks.Event) bool {
	sess, ok := s.sessions[ev.SessionID]
	if !ok {
		return false
	}
	delete(s.sessions, ev.SessionID)
	if s.activeID == ev.SessionID {
		s.activeID = ""
		// Reassign to the smallest remaining id; deterministic, and which
		// session a single-session view defaults to carries no semantics.
		ids := make([]string, 0, len(s.sessions))
		for id := range s.sessions {
			ids = append(ids, id)
		}
		if len(ids) > 0 {
			sort.Strings(ids)
			s.activeID = ids[0]
		}
	}
	s.broadcast(Change{Kind: ChangeSession, SessionID: ev.SessionID})
	return sess.WaitingForPermission
}

// touchLocked refreshes global activity and synchronously drops the idle
// flag. Must be called with s.mu held.
func (s *Store) touchLocked(now time.Time) {
	s.lastActivity = now
	if s.idle {
		s.idle = false
		s.broadcast(Change{Kind: ChangeIdle})
	}
}

// notePinActivity is the registry's pin callback: pinning alone surfaces
// the overlay, so it counts as global activity.
func (s *Store) notePinActivity() {
	s.mu.Lock()
	s.touchLocked(s.now())
	s.broadcast(Change{Kind: ChangePins})
	s.mu.Unlock()
}

func isPermissionRequest(ev *hooks.Event) bool {
	if ev.NotificationType == "permission_request" {
		return true
	}
	if strings.Contains(strings.ToLower(ev.NotificationType), "permission") {
		return true
	}
	return strings.Contains(strings.ToLower(ev.Message), "permission")
}

// sweepStuckTools clears in-flight tools on sessions whose last activity is
// older than timeout. Active is deliberately untouched: only Stop clears it,
// so a session may show as thinking with no tool indefinitely.
func (s *Store) sweepStuckTools(timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, sess := range s.sessions {
		if sess.Current != nil && now.Sub(sess.LastActivity) > timeout {
			log.Printf("Clearing stuck tool %s on session %s", sess.Current.Name, sess.ID)
			sess.Current = nil
			s.broadcast(Change{Kind: ChangeSession, SessionID: sess.ID})
		}
	}
}

// sweepIdle flips the global idle flag when nothing has been active for
// longer than timeout. This is the only place idle ever becomes true.
func (s *Store) sweepIdle(timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idle {
		return
	}
	for _, sess := range s.sessions {
		if sess.Active || sess.Current != nil {
			return
		}
	}
	if s.now().Sub(s.lastActivity) > timeout {
		s.idle = true
		s.broadcast(Change{Kind: ChangeIdle})
	}
}

// Idle reports the global idle flag.
func (s *Store) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

// Status is the aggregate snapshot served on /status.
type Status struct {
	SessionCount int
	AnyActive    bool
	CurrentTool  string
	Idle         bool
}

// Status returns the aggregate snapshot.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{SessionCount: len(s.sessions), Idle: s.idle}
	for _, sess := range s.sessions {
		if sess.Active || sess.Current != nil {
			st.AnyActive = true
			break
		}
	}
	if active, ok := s.sessions[s.activeID]; ok && active.Current != nil {
		st.CurrentTool = active.Current.Name
	} else {
		for _, sess := range s.sessions {
			if sess.Current != nil {
				st.CurrentTool = sess.Current.Name
				break
			}
		}
	}
	return st
}

// Snapshot is a copied, read-only view of one session for observers.
type Snapshot struct {
	ID                   string
	ProjectPath          string
	ProjectName          string
	Active               bool
	WaitingForPermission bool
	CurrentTool          string
	ContextPercent       float64
	TotalInputTokens     int64
	TotalOutputTokens    int64
}

// Sessions returns snapshots of all tracked sessions, sorted by id.
func (s *Store) Sessions() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps := make([]Snapshot, 0, len(s.sessions))
	for _, sess := range s.sessions {
		snap := Snapshot{
			ID:                   sess.ID,
			ProjectPath:          sess.ProjectPath,
			ProjectName:          sess.ProjectName,
			Active:               sess.Active,
			WaitingForPermission: sess.WaitingForPermission,
			ContextPercent:       sess.ContextPercent,
			TotalInputTokens:     sess.TotalInputTokens,
			TotalOutputTokens:    sess.TotalOutputTokens,
		}
		if sess.Current != nil {
			snap.CurrentTool = sess.Current.Name
		}
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	return snaps
}

// ProjectPath returns the project path recorded for a session id.
// Used by the legacy pin-by-session-id route.
func (s *Store) ProjectPath(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", false
	}
	return sess.ProjectPath, true
}

// get returns the live session for tests in this package.
func (s *Store) get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}
