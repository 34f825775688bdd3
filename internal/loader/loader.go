// Package loader parses task documents into validated datasets.
//
// A task document is a JSON object with optional "train" and "test" arrays
// of {"input": [[...]], "output": [[...]]} examples. Missing or non-array
// sets default to empty. Structural problems (ragged rows, cell values
// outside the palette, missing grids) are reported at load time as
// *grid.ValidationError values rather than surfacing when a grid is drawn.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/arcview/pkg/grid"
	"gopkg.in/yaml.v3"
)

// MaxDocumentSize bounds the size of a task document accepted by LoadFile
// and the upload handlers.
const MaxDocumentSize = 8 << 20

// ParseError indicates the document could not be decoded at all.
type ParseError struct {
	Source string
	Offset int64 // byte offset of a syntax error, 0 if unknown
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	src := e.Source
	if src == "" {
		src = "task"
	}
	if e.Offset > 0 {
		return fmt.Sprintf("error parsing %s at offset %d: %v", src, e.Offset, e.Err)
	}
	return fmt.Sprintf("error parsing %s: %v", src, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err (or anything it wraps) is a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Parse decodes a JSON task document and validates it.
// On any error the returned dataset is nil.
func Parse(content []byte) (*grid.Dataset, error) {
	return parseNamed("", content)
}

// LoadFile reads and parses a task file. Files ending in .yaml or .yml
// are decoded as YAML with the same shape; everything else is JSON.
func LoadFile(path string) (*grid.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access task file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("task path is a directory: %s", path)
	}
	if info.Size() > MaxDocumentSize {
		return nil, fmt.Errorf("task file %s is too large (%d bytes, max %d)", path, info.Size(), MaxDocumentSize)
	}

	content, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		content, err = yamlToJSON(content)
		if err != nil {
			return nil, &ParseError{Source: name, Err: err}
		}
	}
	return parseNamed(name, content)
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share
// one decoding and validation path.
func yamlToJSON(content []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func parseNamed(source string, content []byte) (*grid.Dataset, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(content, &doc); err != nil {
		pe := &ParseError{Source: source, Err: err}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			pe.Offset = syntaxErr.Offset
		case errors.As(err, &typeErr):
			pe.Err = fmt.Errorf("document must be a JSON object, got %s", typeErr.Value)
		}
		return nil, pe
	}
	if doc == nil {
		return nil, &ParseError{Source: source, Err: errors.New("document must be a JSON object, got null")}
	}

	var errs []error
	ds := &grid.Dataset{}
	ds.Train, errs = decodeSet(grid.SetTrain, doc["train"], errs)
	ds.Test, errs = decodeSet(grid.SetTest, doc["test"], errs)

	// Decode problems already cover the grids they replaced with placeholders,
	// so Validate only adds range, shape and missing-grid findings.
	if err := ds.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ds, nil
}

// decodeSet decodes one example sequence. Anything other than an array
// yields an empty set.
func decodeSet(set grid.SetKind, raw json.RawMessage, errs []error) ([]grid.Example, []error) {
	if !isArray(raw) {
		return []grid.Example{}, errs
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []grid.Example{}, append(errs, &grid.ValidationError{
			Set: set, Index: -1, Row: -1, Col: -1,
			Reason: fmt.Sprintf("%s: %v", set, err),
		})
	}

	examples := make([]grid.Example, len(items))
	for i, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			errs = append(errs, &grid.ValidationError{
				Set: set, Index: i, Row: -1, Col: -1,
				Reason: "example must be an object",
			})
			examples[i] = grid.Example{Input: grid.Matrix{}}
			continue
		}

		input, err := decodeMatrix(fields["input"])
		if err != nil {
			errs = append(errs, contextualize(err, set, i, "input"))
			input = grid.Matrix{}
		}
		examples[i].Input = input

		output, err := decodeMatrix(fields["output"])
		switch {
		case err != nil:
			errs = append(errs, contextualize(err, set, i, "output"))
			placeholder := grid.Matrix{}
			examples[i].Output = &placeholder
		case output != nil:
			examples[i].Output = &output
		}
	}
	return examples, errs
}

// decodeMatrix decodes a grid field. An absent or null field returns a nil
// matrix and no error.
func decodeMatrix(raw json.RawMessage) (grid.Matrix, error) {
	if isNull(raw) {
		return nil, nil
	}
	if !isArray(raw) {
		return nil, &grid.ValidationError{Index: -1, Row: -1, Col: -1, Reason: "grid must be an array of rows"}
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, &grid.ValidationError{Index: -1, Row: -1, Col: -1, Reason: err.Error()}
	}

	m := make(grid.Matrix, len(rows))
	for r, rawRow := range rows {
		if !isArray(rawRow) {
			return nil, &grid.ValidationError{Index: -1, Row: r, Col: -1, Reason: "row must be an array of integers"}
		}
		var cells []json.Number
		dec := json.NewDecoder(bytes.NewReader(rawRow))
		dec.UseNumber()
		if err := dec.Decode(&cells); err != nil {
			return nil, &grid.ValidationError{Index: -1, Row: r, Col: -1, Reason: "row must be an array of integers"}
		}
		row := make([]int, len(cells))
		for c, n := range cells {
			v, err := n.Int64()
			if err != nil {
				return nil, &grid.ValidationError{
					Index: -1, Row: r, Col: c,
					Reason: fmt.Sprintf("cell value %s is not an integer", n.String()),
				}
			}
			row[c] = int(v)
		}
		m[r] = row
	}
	return m, nil
}

func contextualize(err error, set grid.SetKind, index int, field string) error {
	var ve *grid.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("%s[%d].%s: %w", set, index, field, err)
	}
	out := *ve
	out.Set = set
	out.Index = index
	out.Field = field
	return &out
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
