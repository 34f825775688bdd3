package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/arcview/internal/tui"
	"github.com/leapstack-labs/arcview/internal/workspace"
)

// NewViewCommand creates the view command.
func NewViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [task]",
		Short: "Browse a task in the terminal",
		Long: `Browse task examples in an interactive terminal viewer.

Keys: t switches train/test, m switches one/all, ←/→ page, o opens a task
file, e edits transform code, ctrl+s applies it, ? shows every key.`,
		Example: `  arcview view data/training/007bbfb7.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			wsCfg, err := cc.workspaceConfig()
			if err != nil {
				return err
			}
			ws := workspace.New(wsCfg)

			var opts tui.Options
			if len(args) == 1 {
				if err := ws.LoadFile(args[0]); err != nil {
					return err
				}
				opts.StartDir = filepath.Dir(args[0])
			}
			return tui.Run(cmd.Context(), ws, opts)
		},
	}

	addViewerFlags(cmd)
	addTransformFlags(cmd)

	return cmd
}
