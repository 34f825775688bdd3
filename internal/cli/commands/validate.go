package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/arcview/internal/loader"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

// ValidationResult is the outcome of validating one task file.
type ValidationResult struct {
	Path   string   `json:"path" yaml:"path"`
	Valid  bool     `json:"valid" yaml:"valid"`
	Train  int      `json:"train" yaml:"train"`
	Test   int      `json:"test" yaml:"test"`
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ErrInvalidTasks is returned when at least one file fails validation.
var ErrInvalidTasks = errors.New("invalid task files")

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <task>...",
		Short: "Check task files for structural problems",
		Long: `Check that task files parse and that every grid is a non-ragged matrix
of cell values 0-9. Every problem is reported with its location, for example
"train[1].output: row 2: has 3 cells, expected 4".

Exits non-zero when any file is invalid.`,
		Example: `  arcview validate data/training/*.json
  arcview validate task.json -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args)
		},
	}
}

func validateFile(path string) ValidationResult {
	res := ValidationResult{Path: path}
	ds, err := loader.LoadFile(path)
	if err == nil {
		res.Valid = true
		res.Train, res.Test = len(ds.Train), len(ds.Test)
		return res
	}

	if verrs := grid.ValidationErrors(err); len(verrs) > 0 && !loader.IsParseError(err) {
		for _, ve := range verrs {
			res.Errors = append(res.Errors, ve.Error())
		}
		return res
	}
	res.Errors = []string{err.Error()}
	return res
}

func runValidate(cmd *cobra.Command, paths []string) error {
	r := NewCommandContext(cmd).Renderer

	results := make([]ValidationResult, len(paths))
	invalid := 0
	for i, path := range paths {
		results[i] = validateFile(path)
		if !results[i].Valid {
			invalid++
		}
	}

	structured, err := r.Structured(results)
	if err != nil {
		return err
	}
	if !structured {
		for _, res := range results {
			if res.Valid {
				r.StatusLine(res.Path, "success", fmt.Sprintf("%d train, %d test", res.Train, res.Test))
				continue
			}
			r.StatusLine(res.Path, "error", fmt.Sprintf("%d problems", len(res.Errors)))
			for _, msg := range res.Errors {
				r.Println("    " + msg)
			}
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d", ErrInvalidTasks, invalid, len(paths))
	}
	return nil
}
