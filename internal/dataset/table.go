package dataset

import (
	"fmt"
	"strings"
)

// Table is an in-memory tabular dataset: a header row plus string-typed cells.
// All loaders normalize row width to the header width so downstream code can
// index cells without bounds checks.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New creates an empty table with the given header.
func New(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Index returns the position of the named column, matching case-insensitively
// on trimmed names, or -1 when absent.
func (t *Table) Index(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, c := range t.Columns {
		if strings.ToLower(strings.TrimSpace(c)) == want {
			return i
		}
	}
	return -1
}

// Require verifies that every named column exists and reports all missing ones
// in a single error, so configuration problems surface before any work begins.
func (t *Table) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if t.Index(n) < 0 {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required columns not found in input: %s (have: %s)",
			strings.Join(missing, ", "), strings.Join(t.Columns, ", "))
	}
	return nil
}

// Append adds a row, padding or truncating it to the header width.
func (t *Table) Append(row []string) {
	n := len(t.Columns)
	r := make([]string, n)
	copy(r, row)
	t.Rows = append(t.Rows, r)
}

// Cell returns the trimmed cell at (row, column index).
func (t *Table) Cell(row, col int) string {
	return strings.TrimSpace(t.Rows[row][col])
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }
