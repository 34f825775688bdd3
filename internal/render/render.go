// Package render turns matrices into display-neutral grid descriptions.
//
// A Grid carries everything a front end needs to draw a matrix: its
// dimensions, the size of one cell in display units and one palette color
// per cell in row-major order. The web UI maps it to CSS grid styles and the
// terminal viewer to colored blocks; neither touches palette lookup.
package render

import (
	"github.com/leapstack-labs/arcview/pkg/grid"
)

// InvalidColor is used for cells whose value is outside the palette.
// Datasets are validated on load, so this only appears for matrices that
// bypassed the loader.
const InvalidColor = "#FFFFFF"

// DefaultOutputCellSize is the output cell size, in display units, used
// when a Renderer is constructed with a zero size.
const DefaultOutputCellSize = 24

// Role tags which panel of an example a grid is drawn in.
type Role int

// Grid roles.
const (
	RoleInput Role = iota
	RoleIntermediate
	RoleOutput
)

// String returns a lowercase identifier for the role.
func (r Role) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleIntermediate:
		return "intermediate"
	case RoleOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Title returns the panel heading for the role.
func (r Role) Title() string {
	switch r {
	case RoleInput:
		return "Input"
	case RoleIntermediate:
		return "Intermediate"
	case RoleOutput:
		return "True Output"
	default:
		return ""
	}
}

// Grid is the description of one rendered matrix.
type Grid struct {
	Role     Role     `json:"role"`
	Rows     int      `json:"rows"`
	Columns  int      `json:"columns"`
	CellSize float64  `json:"cell_size"`
	Colors   []string `json:"colors"`
}

// Width returns the drawn width in display units.
func (g Grid) Width() float64 {
	return float64(g.Columns) * g.CellSize
}

// Height returns the drawn height in display units.
func (g Grid) Height() float64 {
	return float64(g.Rows) * g.CellSize
}

// Renderer computes grid descriptions.
type Renderer struct {
	// OutputCellSize is the fixed cell size of output grids.
	OutputCellSize int
	// Adaptive scales input and intermediate cells so their grids line up
	// with the tallest output grid of the active set.
	Adaptive bool
}

// New creates a Renderer, substituting DefaultOutputCellSize for a
// non-positive size.
func New(outputCellSize int, adaptive bool) *Renderer {
	if outputCellSize <= 0 {
		outputCellSize = DefaultOutputCellSize
	}
	return &Renderer{OutputCellSize: outputCellSize, Adaptive: adaptive}
}

// Render describes m drawn in the given role. maxOutputRows is the largest
// output row count of the active set and only matters in adaptive mode.
// Render is pure: equal arguments always produce equal grids.
func (r *Renderer) Render(m grid.Matrix, role Role, maxOutputRows int) Grid {
	rows := m.Rows()
	cols := m.Cols()
	if cols == 0 {
		cols = 1
	}

	colors := make([]string, 0, rows*m.Cols())
	for _, row := range m {
		for _, v := range row {
			c, ok := grid.Color(v)
			if !ok {
				c = InvalidColor
			}
			colors = append(colors, c)
		}
	}

	return Grid{
		Role:     role,
		Rows:     rows,
		Columns:  cols,
		CellSize: r.cellSize(role, rows, maxOutputRows),
		Colors:   colors,
	}
}

func (r *Renderer) cellSize(role Role, rows, maxOutputRows int) float64 {
	base := float64(r.OutputCellSize)
	if base <= 0 {
		base = DefaultOutputCellSize
	}
	if !r.Adaptive || role == RoleOutput || rows <= 0 || maxOutputRows <= 0 {
		return base
	}
	return base * float64(maxOutputRows) / float64(rows)
}

// ExampleView is the rendered form of one example.
type ExampleView struct {
	Set    grid.SetKind `json:"set"`
	Index  int          `json:"index"`
	Input  Grid         `json:"input"`
	Middle Grid         `json:"intermediate"`
	Output *Grid        `json:"output,omitempty"`

	// Transform outcome, filled in by the caller when code has been applied.
	Transformed  bool   `json:"transformed"`
	Matches      *bool  `json:"matches,omitempty"`
	TransformErr string `json:"transform_error,omitempty"`
}

// Number returns the 1-based example number shown in headings.
func (v ExampleView) Number() int {
	return v.Index + 1
}

// RenderExample renders the panels of one example. The intermediate panel
// shows transformed when it is non-nil and duplicates the input otherwise.
// The output panel is omitted for examples without an output.
func (r *Renderer) RenderExample(ds *grid.Dataset, set grid.SetKind, index int, transformed *grid.Matrix) (ExampleView, bool) {
	ex, ok := ds.Example(set, index)
	if !ok {
		return ExampleView{}, false
	}
	maxOut := ds.MaxOutputRows(set)

	middle := ex.Input
	if transformed != nil {
		middle = *transformed
	}

	view := ExampleView{
		Set:    set,
		Index:  index,
		Input:  r.Render(ex.Input, RoleInput, maxOut),
		Middle: r.Render(middle, RoleIntermediate, maxOut),
	}
	if ex.Output != nil {
		out := r.Render(*ex.Output, RoleOutput, maxOut)
		view.Output = &out
	}
	return view, true
}

// Legend is one palette entry.
type Legend struct {
	Value int
	Color string
	Name  string
}

// PaletteLegend returns the palette as legend entries.
func PaletteLegend() []Legend {
	p := grid.Palette()
	out := make([]Legend, len(p))
	for i, c := range p {
		out[i] = Legend{Value: i, Color: c, Name: grid.ColorName(i)}
	}
	return out
}
