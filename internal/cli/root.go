// Package cli implements the notchlight CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "notchlight",
	Short: "Menu bar companion for coding agent sessions",
	Long: `Notchlight tracks coding agent sessions from the menu bar.
It ingests lifecycle hook events from agent CLIs, shows which projects are
active or waiting for permission, and keeps a registry of pinned projects.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(pinnedCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(unpinCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}
