package domain

import "strings"

// Row is one record of a Dataset keyed by column name.
type Row map[string]string

// Dataset is an ordered set of named columns and the rows holding them.
// A missing key and a blank cell are both treated as absent.
type Dataset struct {
	Columns []string
	Rows    []Row
}

func NewDataset(columns []string, rows ...Row) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	if rows == nil {
		rows = []Row{}
	}
	return &Dataset{Columns: cols, Rows: rows}
}

// EmptyDataset returns a non-nil dataset without columns or rows.
func EmptyDataset() *Dataset {
	return &Dataset{Columns: []string{}, Rows: []Row{}}
}

// Len is nil-safe: a nil dataset has zero rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

func (d *Dataset) IsEmpty() bool {
	return d.Len() == 0
}

func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	for _, col := range d.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// EnsureColumn appends the column when missing and fills def into rows
// that have no value for it.
func (d *Dataset) EnsureColumn(name, def string) {
	if d == nil {
		return
	}
	if !d.HasColumn(name) {
		d.Columns = append(d.Columns, name)
	}
	for _, row := range d.Rows {
		if _, ok := row[name]; !ok {
			row[name] = def
		}
	}
}

// DropColumn removes the column header and its cells.
func (d *Dataset) DropColumn(name string) {
	if d == nil {
		return
	}
	cols := d.Columns[:0]
	for _, col := range d.Columns {
		if col != name {
			cols = append(cols, col)
		}
	}
	d.Columns = cols
	for _, row := range d.Rows {
		delete(row, name)
	}
}

// Clone returns a deep copy so callers may change cells without touching d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Columns: make([]string, len(d.Columns)),
		Rows:    make([]Row, len(d.Rows)),
	}
	copy(out.Columns, d.Columns)
	for i, row := range d.Rows {
		out.Rows[i] = row.Clone()
	}
	return out
}

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Value returns the trimmed cell and whether it is present and non-blank.
func (r Row) Value(column string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r[column]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
