// Package source exposes the three input tables and converts them into
// typed records.
package source

import (
	"context"

	"github.com/cognicore/dishgraph/pkg/dishgraph/record"
)

// Row maps a column name to its raw cell value.
type Row map[string]string

// Table is an ordered sequence of rows sharing a column list.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Tables is the full input of one run.
type Tables struct {
	Dishes       Table
	Ingredients  Table
	Associations Table
}

// Source supplies the input tables. Implementations wrap every failure
// with internalerr.ErrSourceUnavailable.
type Source interface {
	Load(ctx context.Context) (Tables, error)
}

// NewTable builds a table from a header and positional records. Short
// records are padded with blanks; extra cells are ignored.
func NewTable(name string, header []string, records [][]string) Table {
	t := Table{Name: name, Columns: append([]string(nil), header...)}
	for _, rec := range records {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// DropEmptyColumns removes every column that is unset on every row.
// A column present in the schema but unpopulated in this batch is
// omitted rather than carried as all-blank.
func DropEmptyColumns(t Table) Table {
	keep := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		for _, row := range t.Rows {
			if record.Parse(row[col]).Valid() {
				keep = append(keep, col)
				break
			}
		}
	}
	if len(keep) == len(t.Columns) {
		return t
	}

	out := Table{Name: t.Name, Columns: keep, Rows: make([]Row, len(t.Rows))}
	for i, row := range t.Rows {
		r := make(Row, len(keep))
		for _, col := range keep {
			r[col] = row[col]
		}
		out.Rows[i] = r
	}
	return out
}

// DropEmpty applies DropEmptyColumns to all three tables.
func (ts Tables) DropEmpty() Tables {
	return Tables{
		Dishes:       DropEmptyColumns(ts.Dishes),
		Ingredients:  DropEmptyColumns(ts.Ingredients),
		Associations: DropEmptyColumns(ts.Associations),
	}
}

// Has reports whether the table carries the column.
func (t Table) Has(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}
