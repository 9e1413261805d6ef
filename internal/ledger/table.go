package ledger

import (
	"fmt"
	"strings"
)

// Table is a header row followed by data rows, every cell as text
type Table [][]string

// FromValues converts spreadsheet values into a Table. Nil cells become empty strings.
func FromValues(values [][]interface{}) Table {
	table := make(Table, 0, len(values))
	for _, row := range values {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				continue
			}
			cells[i] = fmt.Sprintf("%v", v)
		}
		table = append(table, cells)
	}
	return table
}

// Header returns the first row, or nil for an empty table
func (t Table) Header() []string {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Rows returns the data rows below the header
func (t Table) Rows() [][]string {
	if len(t) < 2 {
		return nil
	}
	return t[1:]
}

// HasData reports whether the table has at least one data row
func (t Table) HasData() bool {
	return len(t) > 1
}

// WithRows returns a table sharing this header and holding the given rows
func (t Table) WithRows(rows [][]string) Table {
	out := make(Table, 0, len(rows)+1)
	out = append(out, t.Header())
	return append(out, rows...)
}

// Cell returns the trimmed value of column c in row, or "" when the column is
// missing or the row is short.
func Cell(row []string, c Column) string {
	idx, ok := c.Index()
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// CellUpdate overwrites one cell of the sheet a Table was read from
type CellUpdate struct {
	Row    int // 1-based sheet row; the header is row 1
	Column int // 0-based column index
	Value  string
}

// SheetRow converts a data-row index from Rows() into its 1-based sheet row
func SheetRow(dataIndex int) int {
	return dataIndex + 2
}
