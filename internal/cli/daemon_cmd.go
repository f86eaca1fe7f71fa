package cli

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/notchlight-io/notchlight/internal/config"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the Notchlight daemon",
	Long:  `Manage the Notchlight daemon process.`,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if running && info != nil {
		fmt.Printf("Daemon is already running (PID %d, port %d).\n", info.PID, info.Port)
		return nil
	}

	// Clean up stale daemon info if it exists
	if info != nil {
		_ = config.RemoveDaemonInfo()
	}

	fmt.Print("Starting daemon...")
	if startErr := startDaemon(); startErr != nil {
		fmt.Println()
		return startErr
	}

	// Fetch fresh status to display
	_, freshInfo, err := GetDaemonStatus()
	if err != nil || freshInfo == nil {
		fmt.Println(" started.")
		return nil
	}

	fmt.Printf(" started (PID %d, port %d).\n", freshInfo.PID, freshInfo.Port)
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	running, info, err := GetDaemonStatus()
	if err != nil {
		return err
	}

	if !running || info == nil {
		fmt.Println("Daemon is not running.")
		return nil
	}

	uptime := time.Since(info.StartedAt).Truncate(time.Second)

	fmt.Println("Daemon is running.")
	fmt.Printf("  Host:       %s\n", info.Host)
	fmt.Printf("  Port:       %d\n", info.Port)
	fmt.Printf("  PID:        %d\n", info.PID)
	fmt.Printf("  Uptime:     %s\n", uptime)

	var status statusResponse
	if err := daemonGet("/status", &status); err != nil {
		// Non-fatal: the process is alive even if the listener is not
		fmt.Println("\nListener unreachable.")
		return nil
	}

	if status.SessionCount == 0 {
		fmt.Println("\nNo sessions.")
	} else {
		fmt.Printf("\nSessions: %d\n", status.SessionCount)
		if status.CurrentTool != "" {
			fmt.Printf("  Current tool: %s\n", status.CurrentTool)
		}
	}

	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running || info == nil {
		fmt.Println("Daemon is not running.")
		return nil
	}

	// Send SIGTERM to the daemon process
	process, err := os.FindProcess(info.PID)
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send stop signal: %w", err)
	}

	// Poll for shutdown (max 5 seconds)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		stillRunning, _, err := config.IsDaemonRunning()
		if err == nil && !stillRunning {
			fmt.Println("Daemon stopped.")
			return nil
		}
	}

	return fmt.Errorf("daemon did not stop within timeout")
}
