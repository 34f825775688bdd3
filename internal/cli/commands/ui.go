package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/arcview/internal/loader"
	"github.com/leapstack-labs/arcview/internal/ui"
	"github.com/leapstack-labs/arcview/internal/workspace"
)

// UIOptions holds options for the ui command.
type UIOptions struct {
	Host      string
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	opts := &UIOptions{}

	cmd := &cobra.Command{
		Use:   "ui [task]",
		Short: "Start the web task viewer",
		Long: `Start a local web server for browsing task examples.

The viewer provides:
- Training and test sets, one example at a time or all together
- Task file upload
- Live transform code with match checking against the true outputs

Every browser session gets its own view. When a task file is given it is
shown to new sessions and, with --watch, reloaded whenever it changes.`,
		Example: `  # Start the viewer with an empty task
  arcview ui

  # Open a task and reload it on save
  arcview ui data/training/007bbfb7.json --watch

  # Custom port, no browser
  arcview ui --port 3000 --no-browser`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var task string
			if len(args) == 1 {
				task = args[0]
			}
			return runUI(cmd, task)
		},
	}

	// Defaults live in the configuration; these only override when set.
	cmd.Flags().StringVar(&opts.Host, "host", "", "Interface to listen on (default: localhost)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765, 0 in config picks a free port)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload the task file when it changes")
	addViewerFlags(cmd)
	addTransformFlags(cmd)

	return cmd
}

func runUI(cmd *cobra.Command, task string) error {
	cc := NewCommandContext(cmd)
	cfg := cc.Cfg
	logger := cc.Logger

	wsCfg, err := cc.workspaceConfig()
	if err != nil {
		return err
	}
	store := workspace.NewStore(wsCfg, workspace.DefaultMaxWorkspaces)

	if task != "" {
		ds, err := loader.LoadFile(task)
		if err != nil {
			return err
		}
		store.SetDefault(task, ds)
	}

	secret := cfg.UI.SessionSecret
	if secret == "" {
		// Sessions only need to survive this process.
		secret = uuid.NewString() + uuid.NewString()
	}

	server := ui.NewServer(ui.Config{
		Workspaces:    store,
		Host:          cfg.UI.Host,
		Port:          cfg.UI.Port,
		Watch:         cfg.UI.Watch,
		SessionSecret: secret,
		Logger:        logger,
		TaskPath:      task,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		select {
		case url := <-server.Ready():
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Viewer running at %s\nPress Ctrl+C to stop\n", url)
			if cfg.UI.AutoOpen {
				openBrowser(url)
			}
		case <-ctx.Done():
		}
	}()

	return server.Serve(ctx)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
