package transform

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// maxHelperCells bounds grids built by grid.new so a single builtin call
// cannot allocate past the step budget.
const maxHelperCells = 100 * 100

// gridModule is exposed to transform code as the "grid" global.
var gridModule = &starlarkstruct.Module{
	Name: "grid",
	Members: starlark.StringDict{
		"new":       starlark.NewBuiltin("grid.new", gridNew),
		"size":      starlark.NewBuiltin("grid.size", gridSize),
		"copy":      starlark.NewBuiltin("grid.copy", gridCopy),
		"transpose": starlark.NewBuiltin("grid.transpose", gridTranspose),
	},
}

// Predeclared returns the globals available to transform code.
func Predeclared() starlark.StringDict {
	return starlark.StringDict{
		"grid": gridModule,
	}
}

// grid.new(rows, cols, fill=0) returns a rows x cols grid filled with fill.
func gridNew(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var rows, cols, fill int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "rows", &rows, "cols", &cols, "fill?", &fill); err != nil {
		return nil, err
	}
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%s: dimensions must be non-negative, got %dx%d", b.Name(), rows, cols)
	}
	// Divide rather than multiply: rows*cols can overflow int.
	if cols != 0 && rows > maxHelperCells/cols {
		return nil, fmt.Errorf("%s: %dx%d exceeds %d cells", b.Name(), rows, cols, maxHelperCells)
	}

	out := make([]starlark.Value, rows)
	for r := range out {
		cells := make([]starlark.Value, cols)
		for c := range cells {
			cells[c] = starlark.MakeInt(fill)
		}
		out[r] = starlark.NewList(cells)
	}
	return starlark.NewList(out), nil
}

// grid.size(g) returns (rows, cols).
func gridSize(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var g starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &g); err != nil {
		return nil, err
	}
	m, err := MatrixFromStarlark(g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.Tuple{starlark.MakeInt(m.Rows()), starlark.MakeInt(m.Cols())}, nil
}

// grid.copy(g) returns a deep copy of g.
func gridCopy(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var g starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &g); err != nil {
		return nil, err
	}
	m, err := MatrixFromStarlark(g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return MatrixToStarlark(m), nil
}

// grid.transpose(g) returns g with rows and columns swapped.
func gridTranspose(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var g starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &g); err != nil {
		return nil, err
	}
	m, err := MatrixFromStarlark(g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	rows, cols := m.Rows(), m.Cols()
	for r, row := range m {
		if len(row) != cols {
			return nil, fmt.Errorf("%s: row %d has %d cells, expected %d", b.Name(), r, len(row), cols)
		}
	}
	out := make([]starlark.Value, cols)
	for c := 0; c < cols; c++ {
		cells := make([]starlark.Value, rows)
		for r := 0; r < rows; r++ {
			cells[r] = starlark.MakeInt(m[r][c])
		}
		out[c] = starlark.NewList(cells)
	}
	return starlark.NewList(out), nil
}
