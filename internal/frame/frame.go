package frame

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cast"
)

// ExperimentID is the column every entity and design table is tagged with.
const ExperimentID = "exp_id"

var (
	ErrColumnMissing = errors.New("column missing")
	ErrNotNumeric    = errors.New("value is not numeric")
)

// Row is one record. Cells hold string, float64, int64, bool or nil.
type Row map[string]any

// Float returns the named cell as a float64.
func (r Row) Float(column string) (float64, error) {
	v, ok := r[column]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrColumnMissing, column)
	}
	return ToFloat(v)
}

// String returns the named cell rendered as a string, or "" when absent.
func (r Row) String(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToFloat converts a cell to float64. nil and empty strings are not numbers.
func ToFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: empty cell", ErrNotNumeric)
	case bool:
		return 0, fmt.Errorf("%w: %v", ErrNotNumeric, x)
	case string:
		if x == "" {
			return 0, fmt.Errorf("%w: empty cell", ErrNotNumeric)
		}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotNumeric, v)
	}
	return f, nil
}

// Table is an ordered set of columns over a list of rows. Tables handed
// between stages are treated as immutable; stages Clone before writing.
type Table struct {
	name    string
	columns []string
	rows    []Row
}

// NewTable builds a table. Columns missing from the list but present in rows
// are appended (sorted per row) so the column list is always complete.
func NewTable(name string, columns []string, rows []Row) *Table {
	t := &Table{name: name, columns: append([]string(nil), columns...), rows: rows}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}
	for _, r := range rows {
		var extra []string
		for k := range r {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		t.columns = append(t.columns, extra...)
	}
	return t
}

func (t *Table) Name() string { return t.name }
func (t *Table) Len() int     { return len(t.rows) }

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

func (t *Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Row returns the i-th row. Callers must not modify it.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Clone copies the table and every row map.
func (t *Table) Clone() *Table {
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = r.clone()
	}
	return &Table{name: t.name, columns: t.Columns(), rows: rows}
}

// SetColumn writes values into the table, one per row, adding the column if
// needed. Only call it on a table the caller owns (see Clone).
func (t *Table) SetColumn(name string, values []float64) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %s: %d values for %d rows", name, len(values), len(t.rows))
	}
	if !t.HasColumn(name) {
		t.columns = append(t.columns, name)
	}
	for i, v := range values {
		t.rows[i][name] = v
	}
	return nil
}

// ExperimentIDs returns the distinct experiment ids in first-seen order.
// Rows without an id are skipped.
func (t *Table) ExperimentIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range t.rows {
		id := r.String(ExperimentID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
