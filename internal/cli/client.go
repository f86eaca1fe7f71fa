package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/notchlight-io/notchlight/internal/config"
	"github.com/notchlight-io/notchlight/internal/models"
)

var daemonHTTP = &http.Client{Timeout: 5 * time.Second}

// daemonBaseURL returns the control plane base URL for the running daemon.
func daemonBaseURL() (string, error) {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return "", fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running || info == nil {
		return "", fmt.Errorf("daemon is not running (try: notchlight daemon start)")
	}
	return "http://" + info.Addr(), nil
}

// daemonGet issues a GET to the daemon and decodes the JSON response into out.
func daemonGet(path string, out any) error {
	base, err := daemonBaseURL()
	if err != nil {
		return err
	}

	resp, err := daemonHTTP.Get(base + path)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read daemon response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode daemon response: %w", err)
	}
	return nil
}

// daemonPost issues a POST with a JSON body and decodes the response into out.
func daemonPost(path string, payload, out any) error {
	base, err := daemonBaseURL()
	if err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := daemonHTTP.Post(base+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read daemon response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode daemon response: %w", err)
	}
	return nil
}

// daemonPort returns the port the daemon listens on, falling back to the
// configured port when the daemon is not running.
func daemonPort() int {
	if running, info, err := config.IsDaemonRunning(); err == nil && running && info != nil {
		return info.Port
	}
	if settings, err := config.LoadSettings(); err == nil {
		return settings.Port
	}
	return models.DefaultPort
}
