// Package dataset defines the tabular data structures exchanged between the
// repository layer, the aggregation engine and the chart builders: raw
// reference tables loaded from CSV sources and the immutable aggregated
// results derived from them.
package dataset

import (
	"strings"

	apperrors "biorempp-backend/internal/errors"
)

// Table is a raw tabular dataset as loaded from a reference database.
// Column resolution (alias handling) happens once at construction, not per
// row.
type Table struct {
	Columns []string
	Rows    [][]string

	// index maps canonical column name to position, built once per load.
	index map[string]int
}

// columnAliases maps alternate header spellings to the canonical column name.
// The KO identifier is the primary join key across reference databases and
// appears under several headers in the wild.
var columnAliases = map[string]string{
	"gene":         "ko",
	"ko":           "ko",
	"kegg":         "ko",
	"sample":       "sample",
	"compound":     "compoundname",
	"compoundname": "compoundname",
}

// canonicalColumn normalizes a raw header to its canonical name.
func canonicalColumn(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := columnAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// NewTable builds a table from raw headers and rows, resolving column aliases
// once.
func NewTable(columns []string, rows [][]string) *Table {
	canonical := make([]string, len(columns))
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		canonical[i] = canonicalColumn(col)
		// First occurrence wins for duplicate headers
		if _, exists := index[canonical[i]]; !exists {
			index[canonical[i]] = i
		}
	}
	return &Table{Columns: canonical, Rows: rows, index: index}
}

// ColumnIndex returns the position of a canonical column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if idx, ok := t.index[canonicalColumn(name)]; ok {
		return idx
	}
	return -1
}

// HasColumn reports whether the table has the given (canonical) column.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// RequireColumns verifies that all named columns are present and returns a
// DataError naming every missing column otherwise.
func (t *Table) RequireColumns(names ...string) error {
	var missing []string
	for _, name := range names {
		if !t.HasColumn(name) {
			missing = append(missing, canonicalColumn(name))
		}
	}
	if len(missing) > 0 {
		return apperrors.Data("MISSING_COLUMNS",
			"required column(s) not present: "+strings.Join(missing, ", ")).
			WithDetails("available: " + strings.Join(t.Columns, ", ")).
			Build()
	}
	return nil
}

// Value returns the value of the named column in the given row, or "".
func (t *Table) Value(row []string, column string) string {
	idx := t.ColumnIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Filter returns a new table containing only the rows for which keep returns
// true. The column layout is shared; rows are not copied.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	filtered := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if keep(row) {
			filtered = append(filtered, row)
		}
	}
	return &Table{Columns: t.Columns, Rows: filtered, index: t.index}
}
