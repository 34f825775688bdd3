package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/arcview/internal/cli/config"
	"github.com/leapstack-labs/arcview/internal/cli/output"
	"github.com/leapstack-labs/arcview/internal/loader"
	"github.com/leapstack-labs/arcview/internal/render"
	"github.com/leapstack-labs/arcview/internal/transform"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

// ShowOptions holds options for the show command.
type ShowOptions struct {
	Set      string
	Index    int
	All      bool
	CodeFile string
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show <task>",
		Short: "Print the grids of a task",
		Long: `Print the input, intermediate and output grids of task examples.

On a terminal grids are drawn as colored blocks; piped output uses digit
matrices in Markdown. With --code the intermediate grid is the result of
the transform instead of a copy of the input.`,
		Example: `  # First training example
  arcview show task.json

  # Every test example
  arcview show task.json --set test --all

  # Preview a transform
  arcview show task.json --all --code flip.star`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], opts)
		},
	}

	addSetFlag(cmd, &opts.Set)
	cmd.Flags().IntVarP(&opts.Index, "index", "i", 0, "Example index (0-based)")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Show every example of the set")
	cmd.Flags().StringVar(&opts.CodeFile, "code", "", "Starlark transform file to apply (- for stdin)")
	cmd.Flags().Int("cell-size", 0, fmt.Sprintf("Output cell size in pixels (default %d)", config.DefaultOutputCellSize))
	addTransformFlags(cmd)

	return cmd
}

// shownExample pairs a rendered example with the matrices behind it.
type shownExample struct {
	view   render.ExampleView
	input  grid.Matrix
	middle grid.Matrix
	output *grid.Matrix
}

func runShow(cmd *cobra.Command, path string, opts *ShowOptions) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	set, err := parseSet(opts.Set)
	if err != nil {
		return err
	}
	ds, err := loader.LoadFile(path)
	if err != nil {
		return err
	}

	count := ds.Count(set)
	var indices []int
	switch {
	case opts.All:
		for i := range count {
			indices = append(indices, i)
		}
	case count == 0:
		return fmt.Errorf("%s has no %s examples", path, set)
	case opts.Index < 0 || opts.Index >= count:
		return fmt.Errorf("index %d out of range: %s has %d %s examples", opts.Index, path, count, set)
	default:
		indices = []int{opts.Index}
	}

	var results []transform.Result
	if opts.CodeFile != "" {
		code, err := readCode(cmd, opts.CodeFile)
		if err != nil {
			return err
		}
		results, err = cc.Cfg.NewEngine(cc.Logger).Run(cmd.Context(), code, ds.Examples(set))
		if err != nil {
			return err
		}
	}

	renderer := cc.Cfg.NewRenderer()
	shown := make([]shownExample, 0, len(indices))
	for _, idx := range indices {
		ex, _ := ds.Example(set, idx)
		se := shownExample{input: ex.Input, middle: ex.Input, output: ex.Output}

		var transformed *grid.Matrix
		if idx < len(results) {
			res := results[idx]
			if res.Err == nil {
				transformed = &res.Output
				se.middle = res.Output
			}
		}
		se.view, _ = renderer.RenderExample(ds, set, idx, transformed)
		if idx < len(results) {
			res := results[idx]
			se.view.Transformed = res.Err == nil
			se.view.Matches = res.Matches
			if res.Err != nil {
				se.view.TransformErr = res.Err.Error()
			}
		}
		shown = append(shown, se)
	}

	views := make([]render.ExampleView, len(shown))
	for i, se := range shown {
		views[i] = se.view
	}
	if ok, err := r.Structured(views); ok {
		return err
	}

	if len(shown) == 0 {
		r.Muted(fmt.Sprintf("No %s examples.", set))
		return nil
	}

	blocks := r.EffectiveMode() == output.ModeText && r.IsTTY()
	for _, se := range shown {
		r.Header(2, fmt.Sprintf("%s Example %d", setTitle(set), se.view.Number()))
		if blocks {
			r.Println(showBlocks(r, se.view))
		} else {
			showDigits(r, se)
		}
		showOutcome(r, se.view)
	}
	return nil
}

// showBlocks lays out the panels of an example as colored blocks.
func showBlocks(r *output.Renderer, ev render.ExampleView) string {
	panels := []string{gridBlock(r, ev.Input), gridBlock(r, ev.Middle)}
	if ev.Output != nil {
		panels = append(panels, gridBlock(r, *ev.Output))
	}
	for i := range panels[:len(panels)-1] {
		panels[i] = lipgloss.NewStyle().MarginRight(3).Render(panels[i])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

// gridBlock draws one grid with two terminal columns per cell.
func gridBlock(r *output.Renderer, g render.Grid) string {
	var b strings.Builder
	b.WriteString(r.Styles().Bold.Render(g.Role.Title()))
	if len(g.Colors) == 0 {
		b.WriteString(" " + r.Styles().Muted.Render("empty"))
		return b.String()
	}
	b.WriteString(" " + r.Styles().Muted.Render(strconv.Itoa(g.Rows)+"x"+strconv.Itoa(g.Columns)))
	for i, c := range g.Colors {
		if i%g.Columns == 0 {
			b.WriteString("\n")
		}
		b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(c)).Render("  "))
	}
	return b.String()
}

// showDigits prints each panel as a fenced block of digits.
func showDigits(r *output.Renderer, se shownExample) {
	panel := func(title string, m grid.Matrix) {
		r.Println(output.FormatKeyValue(title, dims(m)))
		r.Println("```")
		if !m.IsEmpty() {
			r.Println(m.String())
		}
		r.Println("```")
	}
	panel(render.RoleInput.Title(), se.input)
	panel(render.RoleIntermediate.Title(), se.middle)
	if se.output != nil {
		panel(render.RoleOutput.Title(), *se.output)
	}
}

func showOutcome(r *output.Renderer, ev render.ExampleView) {
	switch {
	case ev.TransformErr != "":
		r.StatusLine("transform failed", "error", ev.TransformErr)
	case ev.Matches != nil && *ev.Matches:
		r.StatusLine("matches the true output", "success", "")
	case ev.Matches != nil:
		r.StatusLine("differs from the true output", "error", "")
	}
}
