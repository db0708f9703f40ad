package rules

import "strings"

// #region row

// Row is one record of a rule table, keyed by header column name.
type Row struct {
	cols map[string]string
}

// NewRow builds a Row from a column map. Used by tests and in-memory tables.
func NewRow(cols map[string]string) Row {
	c := make(map[string]string, len(cols))
	for k, v := range cols {
		c[strings.TrimSpace(k)] = v
	}
	return Row{cols: c}
}

// Has reports whether the column exists in this row.
func (r Row) Has(col string) bool {
	_, ok := r.cols[col]
	return ok
}

// Get returns the trimmed column value, or "" when the column is absent.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r.cols[col])
}

// GetOr returns the trimmed column value, or def when the column is absent or blank.
func (r Row) GetOr(col, def string) string {
	if v := r.Get(col); v != "" {
		return v
	}
	return def
}

// Equal reports whether the column matches want, trimmed and case-insensitive.
func (r Row) Equal(col, want string) bool {
	return strings.EqualFold(r.Get(col), strings.TrimSpace(want))
}

// Bool reads a TRUE/FALSE column. Anything other than "true" is false.
func (r Row) Bool(col string) bool {
	return strings.EqualFold(r.Get(col), "true")
}

// #endregion row

// #region table

// Table is an immutable, ordered snapshot of a rule file. Row order is significant:
// every resolver takes the first matching row.
type Table struct {
	Path   string
	Header []string
	Rows   []Row
}

// NewTable builds an in-memory table, applying the same column synonyms as Load.
func NewTable(path string, rows ...map[string]string) *Table {
	t := &Table{Path: path}
	seen := map[string]bool{}
	for _, cols := range rows {
		row := NewRow(cols)
		for k := range row.cols {
			if !seen[k] {
				seen[k] = true
				t.Header = append(t.Header, k)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	normalizeSynonyms(t)
	return t
}

// Len returns the number of data rows. Safe on a nil table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// All returns the rows in file order. Safe on a nil table.
func (t *Table) All() []Row {
	if t == nil {
		return nil
	}
	return t.Rows
}

// HasColumn reports whether the header defines col.
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	for _, h := range t.Header {
		if h == col {
			return true
		}
	}
	return false
}

// #endregion table

// #region synonyms

// columnSynonyms maps a canonical column to legacy names that predate the
// actor_wheel_state / reflex_wheel_state split.
var columnSynonyms = map[string][]string{
	"wheel_state": {"actor_wheel_state", "reflex_wheel_state"},
	"containment": {"containment_strategy"},
}

// normalizeSynonyms copies a legacy column into its canonical name when the
// table does not carry the canonical column itself.
func normalizeSynonyms(t *Table) {
	for canonical, legacy := range columnSynonyms {
		if t.HasColumn(canonical) {
			continue
		}
		for _, old := range legacy {
			if !t.HasColumn(old) {
				continue
			}
			t.Header = append(t.Header, canonical)
			for i := range t.Rows {
				if v, ok := t.Rows[i].cols[old]; ok {
					t.Rows[i].cols[canonical] = v
				}
			}
			break
		}
	}
}

// #endregion synonyms
