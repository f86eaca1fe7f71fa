// Package hooks decodes lifecycle events posted by the coding assistant's
// hook scripts into typed records.
package hooks

// Kind identifies the lifecycle event type.
type Kind string

// Event kinds as they appear on the wire.
const (
	KindToolStart        Kind = "PreToolUse"
	KindToolEnd          Kind = "PostToolUse"
	KindStop             Kind = "Stop"
	KindSubagentStop     Kind = "SubagentStop"
	KindSessionStart     Kind = "SessionStart"
	KindSessionEnd       Kind = "SessionEnd"
	KindNotification     Kind = "Notification"
	KindUserPromptSubmit Kind = "UserPromptSubmit"
	KindUnknown          Kind = "unknown"
)

// DefaultSessionID is substituted when a producer omits the session id.
// Hook scripts are uncontrolled shell one-liners, so a missing id is
// tolerated rather than rejected.
const DefaultSessionID = "default"

// Usage holds the token counters attached to Stop events.
type Usage struct {
	InputTokens         int64 `json:"inputTokens"`
	OutputTokens        int64 `json:"outputTokens"`
	CacheCreationTokens int64 `json:"cacheCreationInputTokens"`
	CacheReadTokens     int64 `json:"cacheReadInputTokens"`
}

// IsZero reports whether no counter carries a value.
func (u Usage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0 &&
		u.CacheCreationTokens == 0 && u.CacheReadTokens == 0
}

// Event is one decoded lifecycle event. Constructed once by DecodeEvent,
// consumed once by the session store, then discarded. Every field besides
// Kind and SessionID is optional on the wire.
type Event struct {
	Kind             Kind
	SessionID        string
	CWD              string
	ProjectName      string
	PermissionMode   string
	ToolName         string
	ToolUseID        string
	ToolInput        Value
	ToolResponse     Value
	NotificationType string
	Message          string
	Usage            Usage
	ContextTokens    int64
	ContextPercent   float64
}
