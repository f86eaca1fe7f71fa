package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// hookEvents are the lifecycle events the daemon consumes.
var hookEvents = []string{
	"PreToolUse",
	"PostToolUse",
	"Stop",
	"SubagentStop",
	"SessionStart",
	"SessionEnd",
	"Notification",
	"UserPromptSubmit",
}

var (
	installSettingsPath string
	installUninstall    bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install agent hooks that forward events to the daemon",
	Long: `Install hook entries into the coding agent's settings file so every
lifecycle event is forwarded to the Notchlight daemon. The hook pipes the
event JSON from stdin to the daemon's local listener via curl.

Existing settings are preserved; only Notchlight's own entries are added
or removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := installSettingsPath
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			path = filepath.Join(home, ".claude", "settings.json")
		}

		if installUninstall {
			return uninstallHooks(path)
		}
		return installHooks(path, daemonPort())
	},
}

func init() {
	installCmd.Flags().StringVar(&installSettingsPath, "settings", "", "Path to the agent settings file")
	installCmd.Flags().BoolVar(&installUninstall, "uninstall", false, "Remove Notchlight hook entries")
}

// hookCommand builds the curl invocation that forwards the stdin event JSON.
func hookCommand(port int) string {
	return fmt.Sprintf("curl -s -m 2 -X POST -H 'Content-Type: application/json' --data-binary @- http://127.0.0.1:%d/hook >/dev/null 2>&1 || true", port)
}

// isNotchlightHook reports whether a hook command entry was written by us.
func isNotchlightHook(entry map[string]any) bool {
	command, _ := entry["command"].(string)
	return strings.Contains(command, "/hook")
}

func installHooks(path string, port int) error {
	settings, err := loadSettingsJSON(path)
	if err != nil {
		return err
	}

	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		hooks = map[string]any{}
	}

	command := hookCommand(port)
	for _, event := range hookEvents {
		entries, _ := hooks[event].([]any)
		entries = removeNotchlightEntries(entries)
		entries = append(entries, map[string]any{
			"matcher": "",
			"hooks": []any{
				map[string]any{"type": "command", "command": command},
			},
		})
		hooks[event] = entries
	}
	settings["hooks"] = hooks

	if err := saveSettingsJSON(path, settings); err != nil {
		return err
	}

	fmt.Println(styleSuccess.Render("Installed hooks into ") + styleValue.Render(path))
	fmt.Println(styleHint.Render(fmt.Sprintf("Events will be forwarded to port %d.", port)))
	return nil
}

func uninstallHooks(path string) error {
	settings, err := loadSettingsJSON(path)
	if err != nil {
		return err
	}

	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		fmt.Println(styleLabel.Render("No hooks installed."))
		return nil
	}

	for event, raw := range hooks {
		entries, ok := raw.([]any)
		if !ok {
			continue
		}
		remaining := removeNotchlightEntries(entries)
		if len(remaining) == 0 {
			delete(hooks, event)
		} else {
			hooks[event] = remaining
		}
	}
	if len(hooks) == 0 {
		delete(settings, "hooks")
	} else {
		settings["hooks"] = hooks
	}

	if err := saveSettingsJSON(path, settings); err != nil {
		return err
	}

	fmt.Println(styleSuccess.Render("Removed hooks from ") + styleValue.Render(path))
	return nil
}

// removeNotchlightEntries filters out matcher groups whose only hooks are ours,
// leaving user-authored entries untouched.
func removeNotchlightEntries(entries []any) []any {
	var out []any
	for _, raw := range entries {
		group, ok := raw.(map[string]any)
		if !ok {
			out = append(out, raw)
			continue
		}
		groupHooks, _ := group["hooks"].([]any)
		var kept []any
		for _, h := range groupHooks {
			entry, ok := h.(map[string]any)
			if ok && isNotchlightHook(entry) {
				continue
			}
			kept = append(kept, h)
		}
		if len(kept) == 0 && len(groupHooks) > 0 {
			continue
		}
		if len(kept) != len(groupHooks) {
			group["hooks"] = kept
		}
		out = append(out, group)
	}
	return out
}

func loadSettingsJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

func saveSettingsJSON(path string, settings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
