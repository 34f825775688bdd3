package grid

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SetKind
// =============================================================================

// SetKind selects one of the two example sequences of a task.
type SetKind int

// Example sets.
const (
	// SetTrain holds demonstration pairs with a known output.
	SetTrain SetKind = iota
	// SetTest holds inputs whose output is usually withheld.
	SetTest
)

// String returns the JSON key of the set.
func (s SetKind) String() string {
	switch s {
	case SetTrain:
		return "train"
	case SetTest:
		return "test"
	default:
		return "unknown"
	}
}

// MarshalText encodes the set by name.
func (s SetKind) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a set name accepted by ParseSetKind.
func (s *SetKind) UnmarshalText(text []byte) error {
	set, ok := ParseSetKind(string(text))
	if !ok {
		return fmt.Errorf("unknown example set %q", text)
	}
	*s = set
	return nil
}

// ParseSetKind converts "train" or "test" (case-insensitive) to a SetKind.
func ParseSetKind(s string) (SetKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "train", "training":
		return SetTrain, true
	case "test":
		return SetTest, true
	default:
		return SetTrain, false
	}
}

// =============================================================================
// Example / Dataset
// =============================================================================

// Example is an input grid and, for training examples, its expected output.
type Example struct {
	Input  Matrix  `json:"input" yaml:"input"`
	Output *Matrix `json:"output,omitempty" yaml:"output,omitempty"`
}

// HasOutput reports whether the example carries an output grid.
func (e Example) HasOutput() bool {
	return e.Output != nil
}

// Dataset is one loaded task: its training and test examples.
// A Dataset is never mutated after load; a new load replaces it wholesale.
type Dataset struct {
	Train []Example `json:"train" yaml:"train"`
	Test  []Example `json:"test" yaml:"test"`
}

// Examples returns the sequence for the given set.
func (d *Dataset) Examples(set SetKind) []Example {
	if d == nil {
		return nil
	}
	if set == SetTest {
		return d.Test
	}
	return d.Train
}

// Count returns the number of examples in the given set.
func (d *Dataset) Count(set SetKind) int {
	return len(d.Examples(set))
}

// Example returns the example at index in set, or false if out of range.
func (d *Dataset) Example(set SetKind, index int) (Example, bool) {
	examples := d.Examples(set)
	if index < 0 || index >= len(examples) {
		return Example{}, false
	}
	return examples[index], true
}

// MaxOutputRows returns the largest output row count in the set, or 0.
func (d *Dataset) MaxOutputRows(set SetKind) int {
	maxRows := 0
	for _, ex := range d.Examples(set) {
		if ex.Output != nil && ex.Output.Rows() > maxRows {
			maxRows = ex.Output.Rows()
		}
	}
	return maxRows
}

// Validate checks every example of both sets.
// Training examples need an input and an output; test examples need an input.
// All problems are reported, joined into one error of *ValidationError values.
func (d *Dataset) Validate() error {
	if d == nil {
		return errors.New("dataset is nil")
	}
	var errs []error
	errs = append(errs, validateSet(SetTrain, d.Train, true)...)
	errs = append(errs, validateSet(SetTest, d.Test, false)...)
	return errors.Join(errs...)
}

func validateSet(set SetKind, examples []Example, requireOutput bool) []error {
	var errs []error
	for i, ex := range examples {
		if ex.Input == nil {
			errs = append(errs, &ValidationError{
				Set: set, Index: i, Field: "input", Row: -1, Col: -1,
				Reason: "missing input grid",
			})
		} else if err := ex.Input.Validate(); err != nil {
			errs = append(errs, withContext(err, set, i, "input"))
		}

		switch {
		case ex.Output != nil:
			if err := ex.Output.Validate(); err != nil {
				errs = append(errs, withContext(err, set, i, "output"))
			}
		case requireOutput:
			errs = append(errs, &ValidationError{
				Set: set, Index: i, Field: "output", Row: -1, Col: -1,
				Reason: "missing output grid",
			})
		}
	}
	return errs
}

func withContext(err error, set SetKind, index int, field string) error {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("%s[%d].%s: %w", set, index, field, err)
	}
	out := *ve
	out.Set = set
	out.Index = index
	out.Field = field
	return &out
}

// =============================================================================
// ValidationError
// =============================================================================

// ValidationError describes one structural problem in a task document.
// Index, Row and Col are -1 when they do not apply; Field is empty for
// errors about the example as a whole.
type ValidationError struct {
	Set    SetKind
	Index  int
	Field  string // "input" or "output"
	Row    int
	Col    int
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var sb strings.Builder
	switch {
	case e.Index >= 0 && e.Field != "":
		fmt.Fprintf(&sb, "%s[%d].%s: ", e.Set, e.Index, e.Field)
	case e.Index >= 0:
		fmt.Fprintf(&sb, "%s[%d]: ", e.Set, e.Index)
	}
	switch {
	case e.Row >= 0 && e.Col >= 0:
		fmt.Fprintf(&sb, "row %d col %d: ", e.Row, e.Col)
	case e.Row >= 0:
		fmt.Fprintf(&sb, "row %d: ", e.Row)
	}
	sb.WriteString(e.Reason)
	return sb.String()
}

// ValidationErrors unpacks a joined validation error into its parts.
// Errors that are not *ValidationError are skipped.
func ValidationErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}
	var out []*ValidationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, ValidationErrors(e)...)
		}
		return out
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		out = append(out, ve)
	}
	return out
}
