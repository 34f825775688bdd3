package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/arcview/internal/cli/config"
	"github.com/leapstack-labs/arcview/internal/cli/output"
	"github.com/leapstack-labs/arcview/internal/workspace"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetCurrentConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// workspaceConfig builds the workspace settings from the loaded configuration.
func (c *CommandContext) workspaceConfig() (workspace.Config, error) {
	opts, err := c.Cfg.ViewerOptions()
	if err != nil {
		return workspace.Config{}, err
	}
	return workspace.Config{
		Viewer:   opts,
		Renderer: c.Cfg.NewRenderer(),
		Engine:   c.Cfg.NewEngine(c.Logger),
		Logger:   c.Logger,
	}, nil
}

// addSetFlag registers --set, defaulting to the training examples.
func addSetFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "set", "train", "Example set (train|test)")
	_ = cmd.RegisterFlagCompletionFunc("set", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"train", "test"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// addViewerFlags registers overrides for viewer.initial_mode and
// render.output_cell_size.
func addViewerFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Initial display mode (single|all)")
	cmd.Flags().Int("cell-size", 0, fmt.Sprintf("Output cell size in pixels (default %d)", config.DefaultOutputCellSize))
	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"single", "all"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// addTransformFlags registers overrides for the transform limits.
func addTransformFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("max-steps", 0, fmt.Sprintf("Starlark step budget per example (default %d)", config.DefaultMaxSteps))
	cmd.Flags().Duration("timeout", 0, fmt.Sprintf("Time limit per example (default %s)", config.DefaultTimeout))
}

func parseSet(s string) (grid.SetKind, error) {
	set, ok := grid.ParseSetKind(s)
	if !ok {
		return grid.SetTrain, fmt.Errorf("unknown example set %q (expected train or test)", s)
	}
	return set, nil
}

// setTitle returns "Train" or "Test".
func setTitle(set grid.SetKind) string {
	return cases.Title(language.English).String(set.String())
}

// readCode reads transform code from a file, or stdin for "-".
func readCode(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		buf, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read code from stdin: %w", err)
		}
		return string(buf), nil
	}
	b, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	return string(b), nil
}

// dims formats a matrix size, or "empty".
func dims(m grid.Matrix) string {
	if m.IsEmpty() {
		return "empty"
	}
	return m.Dims()
}
