// Package dataset provides the in-memory tabular data model shared by the
// validation and staging pipeline. A Dataset is an ordered sequence of
// records over a uniform column set; row position is a stable 0-based
// identity used by issue reports to reference records.
package dataset

import "strings"

// Record maps column names to cell values.
type Record map[string]Value

// Dataset is an ordered collection of uniform-schema records.
// Columns preserves the source column order; every Record shares that set.
type Dataset struct {
	Columns []string
	Rows    []Record
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.Rows)
}

// HasColumn reports whether the dataset contains the named column.
func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Value returns the cell at (row, column). Absent cells are null.
func (d Dataset) Value(row int, column string) Value {
	if row < 0 || row >= len(d.Rows) {
		return Value{}
	}
	return d.Rows[row][column]
}

// Clone returns a deep copy. Transformations return new datasets rather
// than mutating their input, so callers can hold the original.
func (d Dataset) Clone() Dataset {
	out := Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([]Record, len(d.Rows)),
	}
	for i, row := range d.Rows {
		rec := make(Record, len(row))
		for k, v := range row {
			rec[k] = v
		}
		out.Rows[i] = rec
	}
	return out
}

// Select returns a new dataset containing only the rows at the given
// indices, in the given order. Out-of-range indices are skipped.
func (d Dataset) Select(indices []int) Dataset {
	out := Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([]Record, 0, len(indices)),
	}
	for _, i := range indices {
		if i < 0 || i >= len(d.Rows) {
			continue
		}
		rec := make(Record, len(d.Rows[i]))
		for k, v := range d.Rows[i] {
			rec[k] = v
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// NormalizeColumn replaces embedded newlines in a column name with single
// spaces. Spreadsheet exports wrap long headers across lines; all
// column-name matching happens on the normalized form.
func NormalizeColumn(name string) string {
	name = strings.ReplaceAll(name, "\r\n", " ")
	return strings.ReplaceAll(name, "\n", " ")
}

// ResolveColumn finds the actual column whose normalized name matches the
// given normalized name. Returns the raw column name and whether it exists.
func (d Dataset) ResolveColumn(normalized string) (string, bool) {
	for _, c := range d.Columns {
		if NormalizeColumn(c) == normalized {
			return c, true
		}
	}
	return "", false
}
