package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/arcview/internal/loader"
	"github.com/leapstack-labs/arcview/internal/transform"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

// ApplyOptions holds options for the apply command.
type ApplyOptions struct {
	CodeFile string
	Set      string
	Strict   bool
}

// ApplyReport is the outcome of running a transform over a set.
type ApplyReport struct {
	Task    string        `json:"task" yaml:"task"`
	Set     string        `json:"set" yaml:"set"`
	Solved  int           `json:"solved" yaml:"solved"`
	Checked int           `json:"checked" yaml:"checked"`
	Results []ApplyResult `json:"results" yaml:"results"`
}

// ApplyResult is the outcome for one example.
type ApplyResult struct {
	Index   int         `json:"index" yaml:"index"`
	Matches *bool       `json:"matches,omitempty" yaml:"matches,omitempty"`
	Error   string      `json:"error,omitempty" yaml:"error,omitempty"`
	Output  grid.Matrix `json:"output,omitempty" yaml:"output,omitempty,flow"`
}

// ErrUnsolved is returned by apply --strict when an example does not match.
var ErrUnsolved = errors.New("transform does not solve every example")

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	opts := &ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <task>",
		Short: "Run a transform over task examples",
		Long: `Run a Starlark transform over every example of a set and compare the
results with the true outputs.

The code must define transform(grid), which receives the input as a list of
lists of ints and returns the transformed grid. The grid module provides
grid.new(rows, cols, fill=0), grid.size(g), grid.copy(g) and grid.transpose(g).`,
		Example: `  arcview apply task.json --code solve.star
  arcview apply task.json --code solve.star --set test -o json
  cat solve.star | arcview apply task.json --code - --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.CodeFile, "code", "c", "", "Starlark transform file (- for stdin)")
	_ = cmd.MarkFlagRequired("code")
	addSetFlag(cmd, &opts.Set)
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail unless every checked example matches")
	addTransformFlags(cmd)

	return cmd
}

func runApply(cmd *cobra.Command, path string, opts *ApplyOptions) error {
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
	code, err := readCode(cmd, opts.CodeFile)
	if err != nil {
		return err
	}

	results, err := cc.Cfg.NewEngine(cc.Logger).Run(cmd.Context(), code, ds.Examples(set))
	if err != nil {
		return err
	}

	report := ApplyReport{Task: path, Set: set.String(), Results: make([]ApplyResult, len(results))}
	report.Solved, report.Checked = transform.Summary(results)
	for i, res := range results {
		ar := ApplyResult{Index: res.Index, Matches: res.Matches}
		if res.Err != nil {
			ar.Error = res.Err.Error()
		} else {
			ar.Output = res.Output
		}
		report.Results[i] = ar
	}

	structured, err := r.Structured(report)
	if err != nil {
		return err
	}
	if !structured {
		r.Header(1, fmt.Sprintf("%s: %s examples", path, setTitle(set)))
		for _, ar := range report.Results {
			label := fmt.Sprintf("Example %d", ar.Index+1)
			switch {
			case ar.Error != "":
				r.StatusLine(label, "error", ar.Error)
			case ar.Matches == nil:
				r.StatusLine(label, "", "no true output, "+dims(ar.Output))
			case *ar.Matches:
				r.StatusLine(label, "success", "matches")
			default:
				r.StatusLine(label, "error", "differs from the true output")
			}
		}
		r.Println()
		if report.Checked > 0 {
			r.Println(fmt.Sprintf("Solved %d of %d.", report.Solved, report.Checked))
		} else {
			r.Println("No true outputs to check against.")
		}
	}

	if opts.Strict && report.Solved < report.Checked {
		return fmt.Errorf("%w: solved %d of %d", ErrUnsolved, report.Solved, report.Checked)
	}
	return nil
}
