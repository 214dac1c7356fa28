// Package table implements the labeled column table that carries one scan
// between pipeline stages: an ordered set of uniquely named float64 columns
// of equal length, one row per wavelength sample.
//
// Lookups are lenient by contract. A missing column is reported through the
// Present flag of [Column] rather than an error, [Table.Select] drops unknown
// names, and [Table.Records] includes only the columns that have a value at
// each index.
package table

import (
	"errors"
	"fmt"
)

// Canonical column names.
const (
	Wavelength      = "Wavelength"
	Absorbance      = "Absorbance"
	ReferenceSignal = "Reference Signal"
	SampleSignal    = "Sample Signal"

	Original = "Original"
	MSC      = "MSC"
	SNV      = "SNV"
	SG1      = "SG1"
	SG2      = "SG2"
)

var (
	// ErrLengthMismatch indicates columns of different length.
	ErrLengthMismatch = errors.New("table: columns differ in length")
	// ErrDuplicateColumn indicates a repeated column name.
	ErrDuplicateColumn = errors.New("table: duplicate column name")
)

// Column is the result of a column lookup. When Present is false the table
// has no column of that name and Values is empty.
type Column struct {
	Name    string
	Values  []float64
	Present bool
}

// OrEmpty returns the column values, or an empty non-nil slice when the
// column is absent.
func (c Column) OrEmpty() []float64 {
	if !c.Present || c.Values == nil {
		return []float64{}
	}
	return c.Values
}

// Len returns the number of values in the column.
func (c Column) Len() int { return len(c.Values) }

// Table is an immutable ordered collection of named columns. The zero value
// is the empty table.
type Table struct {
	names []string
	cols  map[string][]float64
}

// Empty returns the canonical empty table (zero columns).
func Empty() *Table {
	return &Table{}
}

// New builds a table from column names and values given in the same order.
// Values are copied. All columns must have the same length.
func New(names []string, values [][]float64) (*Table, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrLengthMismatch, len(names), len(values))
	}

	t := &Table{
		names: make([]string, 0, len(names)),
		cols:  make(map[string][]float64, len(names)),
	}
	for i, name := range names {
		if _, dup := t.cols[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		if i > 0 && len(values[i]) != len(values[0]) {
			return nil, fmt.Errorf("%w: %q has %d rows, %q has %d",
				ErrLengthMismatch, name, len(values[i]), names[0], len(values[0]))
		}
		col := make([]float64, len(values[i]))
		copy(col, values[i])
		t.names = append(t.names, name)
		t.cols[name] = col
	}

	return t, nil
}

// Empty reports whether the table has no columns. Consumers must check
// this before reading any column.
func (t *Table) Empty() bool {
	return t == nil || len(t.names) == 0
}

// Names returns the column names in table order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of rows, the length of the longest column.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, col := range t.cols {
		if len(col) > n {
			n = len(col)
		}
	}
	return n
}

// Has reports whether the table contains the named column.
func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.cols[name]
	return ok
}

// Column looks up a column by name. The returned values are a copy.
func (t *Table) Column(name string) Column {
	if t == nil {
		return Column{Name: name}
	}
	col, ok := t.cols[name]
	if !ok {
		return Column{Name: name}
	}
	out := make([]float64, len(col))
	copy(out, col)
	return Column{Name: name, Values: out, Present: true}
}

// Values returns the named column's values, or an empty slice if absent.
func (t *Table) Values(name string) []float64 {
	return t.Column(name).OrEmpty()
}

// Select returns a new table restricted to the named columns, in the order
// requested. Unknown and repeated names are skipped.
func (t *Table) Select(names ...string) *Table {
	out := &Table{cols: make(map[string][]float64, len(names))}
	if t == nil {
		return out
	}
	for _, name := range names {
		col, ok := t.cols[name]
		if !ok {
			continue
		}
		if _, dup := out.cols[name]; dup {
			continue
		}
		out.names = append(out.names, name)
		out.cols[name] = col
	}
	return out
}

// With returns a new table with the given columns appended, or replaced in
// place when a name already exists. New columns must match the table length
// unless the table is empty.
func (t *Table) With(names []string, values [][]float64) (*Table, error) {
	allNames := t.Names()
	allValues := make([][]float64, len(allNames))
	index := make(map[string]int, len(allNames))
	for i, name := range allNames {
		allValues[i] = t.cols[name]
		index[name] = i
	}
	if len(names) != len(values) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrLengthMismatch, len(names), len(values))
	}
	for i, name := range names {
		if j, ok := index[name]; ok {
			allValues[j] = values[i]
			continue
		}
		index[name] = len(allNames)
		allNames = append(allNames, name)
		allValues = append(allValues, values[i])
	}
	return New(allNames, allValues)
}
