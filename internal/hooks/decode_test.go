package hooks

import (
	"errors"
	"testing"
)

func TestDecodeEventKinds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{name: "tool start", raw: `{"event":"PreToolUse","sessionId":"s1"}`, want: KindToolStart},
		{name: "tool end", raw: `{"event":"PostToolUse","sessionId":"s1"}`, want: KindToolEnd},
		{name: "stop", raw: `{"event":"Stop","sessionId":"s1"}`, want: KindStop},
		{name: "subagent stop", raw: `{"event":"SubagentStop","sessionId":"s1"}`, want: KindSubagentStop},
		{name: "session start", raw: `{"event":"SessionStart","sessionId":"s1"}`, want: KindSessionStart},
		{name: "session end", raw: `{"event":"SessionEnd","sessionId":"s1"}`, want: KindSessionEnd},
		{name: "notification", raw: `{"event":"Notification","sessionId":"s1"}`, want: KindNotification},
		{name: "prompt submit", raw: `{"event":"UserPromptSubmit","sessionId":"s1"}`, want: KindUserPromptSubmit},
		{name: "legacy field name", raw: `{"hook_event_name":"Stop","sessionId":"s1"}`, want: KindStop},
		{name: "unrecognized", raw: `{"event":"SomethingNew","sessionId":"s1"}`, want: KindUnknown},
		{name: "missing event name", raw: `{"sessionId":"s1"}`, want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodeEvent(%s) error: %v", tt.raw, err)
			}
			if ev.Kind != tt.want {
				t.Errorf("DecodeEvent(%s) kind = %q, want %q", tt.raw, ev.Kind, tt.want)
			}
		})
	}
}

func TestDecodeEventDefaults(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"event":"Stop"}`))
	if err != nil {
		t.Fatalf("DecodeEvent error: %v", err)
	}
	if ev.SessionID != DefaultSessionID {
		t.Errorf("SessionID = %q, want %q", ev.SessionID, DefaultSessionID)
	}
}

func TestDecodeEventMalformed(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"event":`))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("error = %T, want *DecodeError", err)
	}
}

func TestDecodeEventFullPayload(t *testing.T) {
	raw := `{
		"event": "PreToolUse",
		"sessionId": "abc-123",
		"cwd": "/Users/dev/proj",
		"permissionMode": "acceptEdits",
		"toolName": "Bash",
		"toolUseId": "toolu_01",
		"toolInput": {"command": "ls -la", "timeout": 5000},
		"contextTokens": 52000,
		"contextPercent": 26.0,
		"someFutureKey": {"ignored": true}
	}`

	ev, err := DecodeEvent([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeEvent error: %v", err)
	}
	if ev.SessionID != "abc-123" || ev.CWD != "/Users/dev/proj" {
		t.Errorf("identity fields wrong: %+v", ev)
	}
	if ev.ToolName != "Bash" || ev.ToolUseID != "toolu_01" {
		t.Errorf("tool fields wrong: %+v", ev)
	}
	if got := ev.ToolInput.StringAt("command"); got != "ls -la" {
		t.Errorf("toolInput.command = %q, want %q", got, "ls -la")
	}
	if n, ok := ev.ToolInput.Get("timeout").AsInt(); !ok || n != 5000 {
		t.Errorf("toolInput.timeout = %d (ok=%v), want 5000", n, ok)
	}
	if ev.ContextPercent != 26.0 || ev.ContextTokens != 52000 {
		t.Errorf("context fields = %v/%v, want 26/52000", ev.ContextPercent, ev.ContextTokens)
	}
}

func TestDecodeEventUsage(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"event":"Stop","sessionId":"s1","usage":{"inputTokens":100,"outputTokens":50,"cacheReadInputTokens":7}}`))
	if err != nil {
		t.Fatalf("DecodeEvent error: %v", err)
	}
	if ev.Usage.InputTokens != 100 || ev.Usage.OutputTokens != 50 || ev.Usage.CacheReadTokens != 7 {
		t.Errorf("usage = %+v, want 100/50/7", ev.Usage)
	}
	if ev.Usage.IsZero() {
		t.Error("usage should not be zero")
	}

	ev, err = DecodeEvent([]byte(`{"event":"Stop","sessionId":"s1"}`))
	if err != nil {
		t.Fatalf("DecodeEvent error: %v", err)
	}
	if !ev.Usage.IsZero() {
		t.Errorf("absent usage should be zero, got %+v", ev.Usage)
	}
}
