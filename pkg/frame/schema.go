// Package frame implements the Data Frame / Row Batch abstraction: a
// schema bundled with a restartable sequence of rows, and the
// project/filter/groupBy/orderBy/distinct/skip/take/join operations
// spec.md 4.3 names. pkg/plan's physical operators stream rows
// one-at-a-time through the same semantics this package defines
// declaratively; DataFrame itself favors restartability (it is backed
// by a materialized row slice) over streaming, matching the "lazy,
// restartable sequence" wording rather than a single-pass iterator.
package frame

import "github.com/orneryd/lynxcore/pkg/value"

// Column names one output position and its static type.
type Column struct {
	Name string
	Type value.LynxType
}

// Schema is the ordered list of (name, type) pairs a DataFrame's rows
// conform to. Column order is significant: it is positional join/union
// alignment order and display order.
type Schema struct {
	Columns []Column
}

func NewSchema(cols ...Column) Schema {
	return Schema{Columns: cols}
}

func (s Schema) IndexOf(name string) (int, bool) {
	for i, c := range s.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Concat appends other's columns after this schema's, used by Join and
// by Apply-style operators (outer columns + inner columns).
func (s Schema) Concat(other Schema) Schema {
	cols := make([]Column, 0, len(s.Columns)+len(other.Columns))
	cols = append(cols, s.Columns...)
	cols = append(cols, other.Columns...)
	return Schema{Columns: cols}
}

func (s Schema) With(col Column) Schema {
	cols := make([]Column, len(s.Columns), len(s.Columns)+1)
	copy(cols, s.Columns)
	return Schema{Columns: append(cols, col)}
}

// SameShape reports whether two schemas line up positionally by name
// and type, the requirement Union imposes on its two inputs.
func (s Schema) SameShape(other Schema) bool {
	if len(s.Columns) != len(other.Columns) {
		return false
	}
	for i, c := range s.Columns {
		o := other.Columns[i]
		if c.Name != o.Name || !c.Type.Equal(o.Type) {
			return false
		}
	}
	return true
}
