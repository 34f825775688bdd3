package transform

import (
	"fmt"

	"github.com/leapstack-labs/arcview/pkg/grid"
	"go.starlark.net/starlark"
)

// MatrixToStarlark converts a matrix to a mutable list of lists of ints.
func MatrixToStarlark(m grid.Matrix) *starlark.List {
	rows := make([]starlark.Value, len(m))
	for r, row := range m {
		cells := make([]starlark.Value, len(row))
		for c, v := range row {
			cells[c] = starlark.MakeInt(v)
		}
		rows[r] = starlark.NewList(cells)
	}
	return starlark.NewList(rows)
}

// MatrixFromStarlark converts a sequence of sequences of ints back to a
// matrix. Shape and value range are not checked here; see grid.Matrix.Validate.
func MatrixFromStarlark(v starlark.Value) (grid.Matrix, error) {
	outer, ok := v.(starlark.Indexable)
	if !ok {
		return nil, fmt.Errorf("grid must be a list of rows, got %s", v.Type())
	}

	m := make(grid.Matrix, outer.Len())
	for r := 0; r < outer.Len(); r++ {
		rowVal := outer.Index(r)
		row, ok := rowVal.(starlark.Indexable)
		if !ok {
			return nil, fmt.Errorf("row %d must be a list of ints, got %s", r, rowVal.Type())
		}
		cells := make([]int, row.Len())
		for c := 0; c < row.Len(); c++ {
			n, err := starlark.AsInt32(row.Index(c))
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", r, c, err)
			}
			cells[c] = n
		}
		m[r] = cells
	}
	return m, nil
}
