package hooks

import (
	"encoding/json"
	"fmt"
)

// DecodeError describes a hook payload that could not be decoded. It is
// recovered locally: the listener turns it into a 400 response and moves on.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode hook event: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode hook event: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// wireEvent mirrors the flat JSON object hook scripts post to /hook.
// Unknown top-level keys are ignored by encoding/json.
type wireEvent struct {
	Event            string `json:"event"`
	HookEventName    string `json:"hook_event_name"` // older hook scripts
	SessionID        string `json:"sessionId"`
	CWD              string `json:"cwd"`
	ProjectName      string `json:"projectName"`
	PermissionMode   string `json:"permissionMode"`
	ToolName         string `json:"toolName"`
	ToolUseID        string `json:"toolUseId"`
	ToolInput        Value  `json:"toolInput"`
	ToolResponse     Value  `json:"toolResponse"`
	NotificationType string  `json:"notificationType"`
	Message          string  `json:"message"`
	Usage            *Usage  `json:"usage"`
	ContextTokens    int64   `json:"contextTokens"`
	ContextPercent   float64 `json:"contextPercent"`
}

// knownKinds maps wire names to kinds. Anything else is Unknown.
var knownKinds = map[string]Kind{
	string(KindToolStart):        KindToolStart,
	string(KindToolEnd):          KindToolEnd,
	string(KindStop):             KindStop,
	string(KindSubagentStop):     KindSubagentStop,
	string(KindSessionStart):     KindSessionStart,
	string(KindSessionEnd):       KindSessionEnd,
	string(KindNotification):     KindNotification,
	string(KindUserPromptSubmit): KindUserPromptSubmit,
}

// DecodeEvent parses the raw bytes of one hook payload. Malformed JSON fails
// with a DecodeError; a missing event name or session id does not, because
// partial producers are expected — they fall back to "unknown" / "default".
func DecodeEvent(raw []byte) (*Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &DecodeError{Reason: "malformed JSON", Err: err}
	}

	name := wire.Event
	if name == "" {
		name = wire.HookEventName
	}
	kind, ok := knownKinds[name]
	if !ok {
		kind = KindUnknown
	}

	sessionID := wire.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	ev := &Event{
		Kind:             kind,
		SessionID:        sessionID,
		CWD:              wire.CWD,
		ProjectName:      wire.ProjectName,
		PermissionMode:   wire.PermissionMode,
		ToolName:         wire.ToolName,
		ToolUseID:        wire.ToolUseID,
		ToolInput:        wire.ToolInput,
		ToolResponse:     wire.ToolResponse,
		NotificationType: wire.NotificationType,
		Message:          wire.Message,
		ContextTokens:    wire.ContextTokens,
		ContextPercent:   wire.ContextPercent,
	}
	if wire.Usage != nil {
		ev.Usage = *wire.Usage
	}
	return ev, nil
}
