package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindBoolean     Kind = "boolean"
	KindCategorical Kind = "categorical"
)

// Column is a named, typed column. Missing cells are empty strings.
type Column struct {
	Name   string
	Kind   Kind
	Values []string
}

// Table is an immutable rectangular collection of named, typed columns.
// Use NewTable or Infer to build one; accessors hand out copies.
type Table struct {
	name string
	cols []Column
	idx  map[string]int
	rows int
	fp   string
}

// NewTable validates columns (equal length, unique non-empty names) and
// returns a Table that owns copies of them.
func NewTable(name string, cols []Column) (*Table, error) {
	t := &Table{name: name, idx: make(map[string]int, len(cols))}
	for i, c := range cols {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("column %d has no name", i+1)
		}
		if _, dup := t.idx[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if i == 0 {
			t.rows = len(c.Values)
		} else if len(c.Values) != t.rows {
			return nil, fmt.Errorf("column %q has %d values, want %d", c.Name, len(c.Values), t.rows)
		}
		t.idx[c.Name] = i
		vals := make([]string, len(c.Values))
		copy(vals, c.Values)
		t.cols = append(t.cols, Column{Name: c.Name, Kind: c.Kind, Values: vals})
	}
	t.fp = fingerprint(t.cols)
	return t, nil
}

// Infer builds a Table from a header and row-major records, normalizing missing
// tokens and inferring each column's kind. Short rows are padded with missing cells.
func Infer(name string, header []string, records [][]string, opt LoadOptions) (*Table, error) {
	cols := make([]Column, len(header))
	for j, h := range header {
		vals := make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				vals[i] = normalizeCell(rec[j])
			}
		}
		kind := InferKind(vals, opt)
		if kind == KindNumeric && opt.localized() {
			// rewrite locale spellings so downstream parsing needs no options
			for i, v := range vals {
				if f, ok := parseNumeric(v, opt); ok {
					vals[i] = strconv.FormatFloat(f, 'g', -1, 64)
				}
			}
		}
		cols[j] = Column{Name: h, Kind: kind, Values: vals}
	}
	return NewTable(name, cols)
}

func (t *Table) Name() string { return t.name }
func (t *Table) NumRows() int { return t.rows }
func (t *Table) NumCols() int { return len(t.cols) }

// Fingerprint is a stable hash over names, kinds and cells.
func (t *Table) Fingerprint() string { return t.fp }

// ColumnNames returns column names in order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.idx[name]
	if !ok {
		return Column{}, false
	}
	return t.ColumnAt(i), true
}

// ColumnAt returns a copy of the i-th column.
func (t *Table) ColumnAt(i int) Column {
	c := t.cols[i]
	vals := make([]string, len(c.Values))
	copy(vals, c.Values)
	return Column{Name: c.Name, Kind: c.Kind, Values: vals}
}

// KindOf reports the kind of the named column.
func (t *Table) KindOf(name string) (Kind, bool) {
	i, ok := t.idx[name]
	if !ok {
		return "", false
	}
	return t.cols[i].Kind, true
}

// Cell returns the raw cell at row r of the named column.
func (t *Table) Cell(name string, r int) string {
	i, ok := t.idx[name]
	if !ok || r < 0 || r >= t.rows {
		return ""
	}
	return t.cols[i].Values[r]
}

// Row returns row r in column order.
func (t *Table) Row(r int) []string {
	out := make([]string, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Values[r]
	}
	return out
}

// Head returns up to n leading rows.
func (t *Table) Head(n int) [][]string {
	if n > t.rows || n < 0 {
		n = t.rows
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = t.Row(i)
	}
	return out
}

// Equal reports whether two tables hold the same names, kinds and cells.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.fp == o.fp && t.rows == o.rows && len(t.cols) == len(o.cols)
}

// pick builds a new table containing the given rows, in order.
func (t *Table) pick(rows []int) *Table {
	cols := make([]Column, len(t.cols))
	for j, c := range t.cols {
		vals := make([]string, len(rows))
		for i, r := range rows {
			vals[i] = c.Values[r]
		}
		cols[j] = Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	out, _ := NewTable(t.name, cols)
	return out
}

func fingerprint(cols []Column) string {
	h := sha256.New()
	for _, c := range cols {
		fmt.Fprintf(h, "%d:%s|%s|%d\n", len(c.Name), c.Name, c.Kind, len(c.Values))
		for _, v := range c.Values {
			fmt.Fprintf(h, "%d:%s", len(v), v)
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
