// Package grid reads spreadsheet-like files in several formats into a
// uniform 2-D grid of untyped cell values. Row 0 is data, not column
// names; callers locate headers themselves.
package grid

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Cell is an untyped scalar: string, float64, bool, time.Time or nil.
type Cell any

// Row is an ordered sequence of cells.
type Row []Cell

// Grid is an ordered sequence of rows, row-major, 0-indexed.
type Grid []Row

// CellString renders a cell as a trimmed string. Integral floats drop
// the trailing ".0" so habilitation codes read from numeric cells keep
// their expected form.
func CellString(c Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return v.Format("02/01/2006")
	default:
		return ""
	}
}

// CellFloat extracts a numeric value from a cell. String cells are
// parsed so grids sourced from text formats still yield tariffs.
func CellFloat(c Cell) (float64, bool) {
	switch v := c.(type) {
	case float64:
		return v, true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Empty reports whether a cell holds no usable value.
func Empty(c Cell) bool {
	return CellString(c) == ""
}

// Cell returns the cell at (row, col), or nil when out of range.
func (g Grid) Cell(row, col int) Cell {
	if row < 0 || row >= len(g) {
		return nil
	}
	r := g[row]
	if col < 0 || col >= len(r) {
		return nil
	}
	return r[col]
}

// RowText joins the string forms of a row's cells with single spaces.
// Used for marker scans over whole rows.
func (g Grid) RowText(row int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	parts := make([]string, 0, len(g[row]))
	for _, c := range g[row] {
		if s := CellString(c); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
