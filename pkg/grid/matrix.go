package grid

import (
	"fmt"
	"sort"
	"strings"
)

// Matrix is a rectangular grid of cell values in [MinCell, MaxCell].
// Rows are ordered top to bottom, cells left to right.
type Matrix [][]int

// Rows returns the number of rows.
func (m Matrix) Rows() int {
	return len(m)
}

// Cols returns the length of the first row, or 0 for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Dims returns a "RxC" label such as "3x4".
func (m Matrix) Dims() string {
	return fmt.Sprintf("%dx%d", m.Rows(), m.Cols())
}

// IsEmpty reports whether the matrix has no cells.
func (m Matrix) IsEmpty() bool {
	return m.Rows() == 0 || m.Cols() == 0
}

// Validate checks that every row has the same length and every cell
// is a valid color index.
func (m Matrix) Validate() error {
	cols := m.Cols()
	for r, row := range m {
		if len(row) != cols {
			return &ValidationError{
				Index:  -1,
				Row:    r,
				Col:    -1,
				Reason: fmt.Sprintf("row has %d cells, expected %d", len(row), cols),
			}
		}
		for c, v := range row {
			if !ValidCell(v) {
				return &ValidationError{
					Index:  -1,
					Row:    r,
					Col:    c,
					Reason: fmt.Sprintf("cell value %d outside [%d,%d]", v, MinCell, MaxCell),
				}
			}
		}
	}
	return nil
}

// Equal reports whether two matrices have identical shape and values.
func (m Matrix) Equal(other Matrix) bool {
	if len(m) != len(other) {
		return false
	}
	for r := range m {
		if len(m[r]) != len(other[r]) {
			return false
		}
		for c := range m[r] {
			if m[r][c] != other[r][c] {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for r, row := range m {
		out[r] = append([]int(nil), row...)
	}
	return out
}

// Flatten returns the cells in row-major order.
func (m Matrix) Flatten() []int {
	out := make([]int, 0, m.Rows()*m.Cols())
	for _, row := range m {
		out = append(out, row...)
	}
	return out
}

// ColorsUsed returns the distinct cell values, sorted.
func (m Matrix) ColorsUsed() []int {
	seen := make(map[int]struct{})
	for _, row := range m {
		for _, v := range row {
			seen[v] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// String renders the matrix as rows of digits, e.g. "01\n23".
func (m Matrix) String() string {
	var sb strings.Builder
	for r, row := range m {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for _, v := range row {
			if ValidCell(v) {
				sb.WriteByte(byte('0' + v))
			} else {
				sb.WriteByte('?')
			}
		}
	}
	return sb.String()
}
