package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type pinPayload struct {
	CWD string `json:"cwd,omitempty"`
	All bool   `json:"all,omitempty"`
}

var pinCmd = &cobra.Command{
	Use:   "pin [path]",
	Short: "Pin a project directory",
	Long: `Pin a project directory so it stays visible in the menu bar even after
its sessions end. Defaults to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveArgPath(args)
		if err != nil {
			return err
		}

		var resp struct {
			Path string `json:"path"`
		}
		if err := daemonPost("/pin", pinPayload{CWD: path}, &resp); err != nil {
			return err
		}

		fmt.Println(styleSuccess.Render("Pinned: ") + styleValue.Render(resp.Path))
		return nil
	},
}

var unpinAll bool

var unpinCmd = &cobra.Command{
	Use:   "unpin [path]",
	Short: "Unpin a project directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if unpinAll {
			if err := daemonPost("/unpin", pinPayload{All: true}, nil); err != nil {
				return err
			}
			fmt.Println(styleSuccess.Render("Unpinned all projects."))
			return nil
		}

		path, err := resolveArgPath(args)
		if err != nil {
			return err
		}
		if err := daemonPost("/unpin", pinPayload{CWD: path}, nil); err != nil {
			return err
		}

		fmt.Println(styleSuccess.Render("Unpinned: ") + styleValue.Render(path))
		return nil
	},
}

var pinnedCmd = &cobra.Command{
	Use:   "pinned",
	Short: "List pinned project directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		var paths []string
		if err := daemonGet("/pinned", &paths); err != nil {
			return err
		}

		if len(paths) == 0 {
			fmt.Println(styleLabel.Render("No pinned projects."))
			return nil
		}
		for _, p := range paths {
			fmt.Println(styleValue.Render(p))
		}
		return nil
	},
}

func init() {
	unpinCmd.Flags().BoolVar(&unpinAll, "all", false, "Unpin every project")
}

// resolveArgPath returns the path argument or the working directory.
func resolveArgPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return cwd, nil
}
