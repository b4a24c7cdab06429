package form

import "slices"

// Headers are the table column labels.
var Headers = []string{"ID", "Date", "Category", "Amount", "Description"}

// Table is the rendered result grid. It holds text cells only.
type Table struct {
	rows    [][]string
	current int
}

func NewTable() *Table {
	return &Table{current: -1}
}

// Clear drops every row and the selection.
func (t *Table) Clear() {
	t.rows = nil
	t.current = -1
}

// AppendRow inserts a row at the end.
func (t *Table) AppendRow(cells []string) {
	t.rows = append(t.rows, slices.Clone(cells))
}

func (t *Table) RowCount() int {
	return len(t.rows)
}

// Rows returns a copy of all rows.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Cell returns the text at row, col or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.rows[row]) {
		return ""
	}
	return t.rows[row][col]
}

// CurrentRow returns the selected row index, or -1 when nothing is selected.
func (t *Table) CurrentRow() int {
	return t.current
}

// SelectRow selects row i; out-of-range indexes clear the selection.
func (t *Table) SelectRow(i int) {
	if i < 0 || i >= len(t.rows) {
		t.current = -1
		return
	}
	t.current = i
}

// SelectByKey selects the first row whose first cell equals key.
// It reports whether a row was found.
func (t *Table) SelectByKey(key string) bool {
	for i, r := range t.rows {
		if len(r) > 0 && r[0] == key {
			t.current = i
			return true
		}
	}
	t.current = -1
	return false
}
