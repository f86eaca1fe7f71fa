package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusResponse mirrors the daemon's GET /status payload.
type statusResponse struct {
	OK           bool   `json:"ok"`
	Running      bool   `json:"running"`
	SessionCount int    `json:"sessionCount"`
	Active       bool   `json:"active"`
	Idle         bool   `json:"idle"`
	CurrentTool  string `json:"currentTool"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and session status",
	RunE: func(cmd *cobra.Command, args []string) error {
		running, info, err := GetDaemonStatus()
		if err != nil {
			return err
		}
		if !running || info == nil {
			fmt.Println(styleWarning.Render("Daemon is not running."))
			fmt.Println(styleHint.Render("Start it with: notchlight daemon start"))
			return nil
		}

		uptime := time.Since(info.StartedAt).Truncate(time.Second)
		fmt.Println(styleSuccess.Render("Daemon is running."))
		fmt.Printf("  %s %s\n", styleLabel.Render("Port:   "), styleValue.Render(fmt.Sprintf("%d", info.Port)))
		fmt.Printf("  %s %s\n", styleLabel.Render("PID:    "), styleValue.Render(fmt.Sprintf("%d", info.PID)))
		fmt.Printf("  %s %s\n", styleLabel.Render("Uptime: "), styleValue.Render(uptime.String()))

		var status statusResponse
		if err := daemonGet("/status", &status); err != nil {
			fmt.Println(styleWarning.Render("Listener unreachable: " + err.Error()))
			return nil
		}

		fmt.Println()
		switch {
		case status.Idle:
			fmt.Println(badgeIdle.Render("Idle — no recent activity."))
		case status.SessionCount == 0:
			fmt.Println(styleLabel.Render("No sessions."))
		default:
			badge := badgeIdle
			label := "inactive"
			if status.Active {
				badge = badgeActive
				label = "active"
			}
			fmt.Printf("%s (%s)\n", badge.Render(fmt.Sprintf("%d session(s)", status.SessionCount)), label)
			if status.CurrentTool != "" {
				fmt.Printf("  %s %s\n", styleLabel.Render("Current tool:"), styleValue.Render(status.CurrentTool))
			}
		}

		return nil
	},
}
