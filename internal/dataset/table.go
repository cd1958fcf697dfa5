// Package dataset provides the in-memory column-oriented table that the
// validator, feature deriver and KPI aggregator operate on, plus CSV load
// and save.
//
// Ownership contract: the validator and aggregator read the table and never
// mutate it; the feature deriver clones before adding columns. Numeric
// missing values are represented as NaN; text missing values are tracked
// per cell.
package dataset

import (
	"fmt"
	"math"
)

// Kind distinguishes numeric from text series.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
)

// Series is a single named column.
type Series struct {
	Name   string
	Kind   Kind
	Floats []float64 // KindNumeric values; NaN marks a missing cell
	Text   []string  // KindText values
	Absent []bool    // KindText missing markers; nil means no missing cells
}

// Len returns the number of cells in the series.
func (s *Series) Len() int {
	if s.Kind == KindNumeric {
		return len(s.Floats)
	}
	return len(s.Text)
}

// MissingCount returns how many cells are missing.
func (s *Series) MissingCount() int {
	n := 0
	if s.Kind == KindNumeric {
		for _, v := range s.Floats {
			if math.IsNaN(v) {
				n++
			}
		}
		return n
	}
	for _, m := range s.Absent {
		if m {
			n++
		}
	}
	return n
}

// clone returns a deep copy of the series.
func (s *Series) clone() *Series {
	cp := &Series{Name: s.Name, Kind: s.Kind}
	if s.Floats != nil {
		cp.Floats = append([]float64(nil), s.Floats...)
	}
	if s.Text != nil {
		cp.Text = append([]string(nil), s.Text...)
	}
	if s.Absent != nil {
		cp.Absent = append([]bool(nil), s.Absent...)
	}
	return cp
}

// Table is an ordered collection of equal-length named series.
type Table struct {
	names []string
	cols  map[string]*Series
}

// New returns an empty table.
func New() *Table {
	return &Table{cols: make(map[string]*Series)}
}

// AddColumn appends a series to the table. The series length must match the
// existing row count, and the name must be new.
func (t *Table) AddColumn(s *Series) error {
	if _, exists := t.cols[s.Name]; exists {
		return fmt.Errorf("column %q already exists", s.Name)
	}
	if len(t.names) > 0 && s.Len() != t.NumRows() {
		return fmt.Errorf("column %q has %d rows, table has %d", s.Name, s.Len(), t.NumRows())
	}
	t.names = append(t.names, s.Name)
	t.cols[s.Name] = s
	return nil
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int {
	if len(t.names) == 0 {
		return 0
	}
	return t.cols[t.names[0]].Len()
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.names)
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.names...)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the named series.
func (t *Table) Column(name string) (*Series, bool) {
	s, ok := t.cols[name]
	return s, ok
}

// Floats returns the values of a numeric column. The second return is false
// if the column is absent or not numeric. The returned slice is shared with
// the table and must not be modified.
func (t *Table) Floats(name string) ([]float64, bool) {
	s, ok := t.cols[name]
	if !ok || s.Kind != KindNumeric {
		return nil, false
	}
	return s.Floats, true
}

// Strings returns the values of a text column. The second return is false
// if the column is absent or not text. The returned slice is shared with
// the table and must not be modified.
func (t *Table) Strings(name string) ([]string, bool) {
	s, ok := t.cols[name]
	if !ok || s.Kind != KindText {
		return nil, false
	}
	return s.Text, true
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	cp := New()
	for _, name := range t.names {
		cp.names = append(cp.names, name)
		cp.cols[name] = t.cols[name].clone()
	}
	return cp
}
