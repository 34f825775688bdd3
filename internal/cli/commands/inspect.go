package commands

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/arcview/internal/cli/output"
	"github.com/leapstack-labs/arcview/internal/loader"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

// TaskSummary describes a task file without its grids.
type TaskSummary struct {
	Name     string           `json:"name" yaml:"name"`
	Path     string           `json:"path" yaml:"path"`
	Train    int              `json:"train" yaml:"train"`
	Test     int              `json:"test" yaml:"test"`
	Colors   []int            `json:"colors" yaml:"colors"`
	Examples []ExampleSummary `json:"examples" yaml:"examples"`
}

// ExampleSummary describes one example.
type ExampleSummary struct {
	Set    string `json:"set" yaml:"set"`
	Index  int    `json:"index" yaml:"index"`
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	Colors []int  `json:"colors" yaml:"colors"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <task>",
		Short: "Summarize the examples of a task",
		Long: `Summarize a task file: example counts, grid sizes and the colors used.

Output adapts to environment:
  - Terminal: table
  - Piped/Scripted: Markdown table

Use --output json or --output yaml for structured output.`,
		Example: `  arcview inspect task.json
  arcview inspect task.json -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}
}

func summarize(path string, ds *grid.Dataset) TaskSummary {
	s := TaskSummary{
		Name:     filepath.Base(path),
		Path:     path,
		Train:    len(ds.Train),
		Test:     len(ds.Test),
		Examples: []ExampleSummary{},
	}

	used := make(map[int]struct{})
	for _, set := range []grid.SetKind{grid.SetTrain, grid.SetTest} {
		for i, ex := range ds.Examples(set) {
			es := ExampleSummary{
				Set:   set.String(),
				Index: i,
				Input: dims(ex.Input),
			}
			seen := make(map[int]struct{})
			addColors(seen, ex.Input)
			if ex.Output != nil {
				es.Output = dims(*ex.Output)
				addColors(seen, *ex.Output)
			}
			es.Colors = slices.Sorted(maps.Keys(seen))
			for _, c := range es.Colors {
				used[c] = struct{}{}
			}
			s.Examples = append(s.Examples, es)
		}
	}

	s.Colors = slices.Sorted(maps.Keys(used))
	return s
}

func addColors(seen map[int]struct{}, m grid.Matrix) {
	for _, v := range m.ColorsUsed() {
		seen[v] = struct{}{}
	}
}

func runInspect(cmd *cobra.Command, path string) error {
	r := NewCommandContext(cmd).Renderer

	ds, err := loader.LoadFile(path)
	if err != nil {
		return err
	}
	summary := summarize(path, ds)

	if ok, err := r.Structured(summary); ok {
		return err
	}

	r.Header(1, summary.Name)
	r.Println(output.FormatKeyValue("Train examples", strconv.Itoa(summary.Train)))
	r.Println(output.FormatKeyValue("Test examples", strconv.Itoa(summary.Test)))
	r.Println(output.FormatKeyValue("Colors", colorNames(summary.Colors)))
	r.Println()

	rows := make([][]string, len(summary.Examples))
	for i, es := range summary.Examples {
		out := es.Output
		if out == "" {
			out = "-"
		}
		rows[i] = []string{setTitle(setOf(es.Set)), strconv.Itoa(es.Index + 1), es.Input, out, colorNames(es.Colors)}
	}
	r.Table([]string{"Set", "Example", "Input", "Output", "Colors"}, rows)
	return nil
}

func setOf(name string) grid.SetKind {
	set, _ := grid.ParseSetKind(name)
	return set
}

// colorNames formats values as "1 blue, 2 red".
func colorNames(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d %s", v, grid.ColorName(v))
	}
	return strings.Join(parts, ", ")
}
