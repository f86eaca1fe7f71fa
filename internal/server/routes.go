package server

import (
	"encoding/json"
	"log"

	"github.com/notchlight-io/notchlight/internal/hooks"
	"github.com/notchlight-io/notchlight/internal/pins"
	"github.com/notchlight-io/notchlight/internal/session"
)

// response is a routed handler's result.
type response struct {
	status int
	body   []byte
}

func jsonResponse(status int, v any) response {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return response{status: 500, body: []byte(`{"ok":false,"error":"internal error"}`)}
	}
	return response{status: status, body: body}
}

func okResponse(v any) response { return jsonResponse(200, v) }

func badRequest(msg string) response {
	return jsonResponse(400, map[string]any{"ok": false, "error": msg})
}

func notFound() response {
	return jsonResponse(404, map[string]any{"ok": false, "error": "not found"})
}

// pinRequest is the body of /pin and /unpin. The sessionId form predates
// cwd-based pinning and resolves through the session store.
type pinRequest struct {
	CWD       string `json:"cwd"`
	SessionID string `json:"sessionId"`
	All       bool   `json:"all"`
}

// NewControlPlane builds the listener with the four control-plane routes
// wired to the store and registry.
func NewControlPlane(port int, store *session.Store, registry *pins.Registry) *Server {
	s := New(port)

	s.Handle("POST", "/hook", func(body []byte) response {
		ev, err := hooks.DecodeEvent(body)
		if err != nil {
			return badRequest(err.Error())
		}
		store.Apply(ev)
		return okResponse(map[string]any{"ok": true})
	})

	s.Handle("GET", "/health", func([]byte) response {
		return okResponse(map[string]any{"healthy": true})
	})

	s.Handle("GET", "/status", func([]byte) response {
		st := store.Status()
		return okResponse(map[string]any{
			"ok":           true,
			"running":      true,
			"sessionCount": st.SessionCount,
			"active":       st.AnyActive,
			"idle":         st.Idle,
			"currentTool":  st.CurrentTool,
		})
	})

	s.Handle("POST", "/pin", func(body []byte) response {
		path, resp, ok := resolvePinPath(body, store)
		if !ok {
			return resp
		}
		normalized, err := registry.Pin(path)
		if err != nil {
			return badRequest(err.Error())
		}
		return okResponse(map[string]any{"ok": true, "path": normalized})
	})

	s.Handle("POST", "/unpin", func(body []byte) response {
		var req pinRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return badRequest("malformed request body")
		}
		if req.All {
			registry.UnpinAll()
			return okResponse(map[string]any{"ok": true})
		}
		path, resp, ok := resolvePinPath(body, store)
		if !ok {
			return resp
		}
		normalized, err := registry.Unpin(path)
		if err != nil {
			return badRequest(err.Error())
		}
		return okResponse(map[string]any{"ok": true, "path": normalized})
	})

	s.Handle("GET", "/pinned", func([]byte) response {
		paths := registry.Paths()
		if paths == nil {
			paths = []string{}
		}
		return okResponse(paths)
	})

	return s
}

// resolvePinPath extracts the target path from a pin/unpin body, preferring
// cwd over the legacy session id. The third return is false when the
// supplied response should be sent instead.
func resolvePinPath(body []byte, store *session.Store) (string, response, bool) {
	var req pinRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", badRequest("malformed request body"), false
	}
	if req.CWD != "" {
		return req.CWD, response{}, true
	}
	if req.SessionID != "" {
		path, ok := store.ProjectPath(req.SessionID)
		if !ok {
			return "", badRequest("unknown session id"), false
		}
		if path == "" {
			return "", badRequest("session has no project path"), false
		}
		return path, response{}, true
	}
	return "", badRequest("cwd or sessionId required"), false
}
