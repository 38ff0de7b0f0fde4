// Package procedure implements pkg/expr.Registry: the callable
// namespace a running query resolves functions and procedures
// against. StandardLibrary covers the built-in scalar/list/string/
// numeric/temporal functions and aggregates; APOC adapts the teacher's
// apoc/label, apoc/meta, and apoc/schema introspection packages onto
// pkg/graph.Model.
package procedure

import "github.com/orneryd/lynxcore/pkg/expr"

// Registry is pkg/expr.Registry, re-exported so callers building a
// runner.Runner can name this package's concrete Lookup provider
// without importing pkg/expr themselves.
type Registry = expr.Registry

// Table is a flat map-backed expr.Registry. Namespace "" holds the
// built-in functions and aggregates; "apoc" holds the APOC adapters.
// Lookup ignores arity mismatches for variadic descriptors (Arity -1).
type Table struct {
	entries map[string]expr.Descriptor
}

func NewTable() *Table {
	return &Table{entries: make(map[string]expr.Descriptor)}
}

func (t *Table) register(d expr.Descriptor) {
	t.entries[key(d.Namespace, d.Name)] = d
}

func key(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

func (t *Table) Lookup(namespace, name string, arity int) (expr.Descriptor, bool) {
	d, ok := t.entries[key(namespace, name)]
	if !ok {
		return expr.Descriptor{}, false
	}
	if d.Arity != -1 && d.Arity != arity {
		return expr.Descriptor{}, false
	}
	return d, true
}

// Merge layers other's entries on top of t's own, returning a new
// Table so StandardLibrary() and APOC() can be combined without either
// mutating the other's backing map.
func (t *Table) Merge(other *Table) *Table {
	merged := NewTable()
	for k, v := range t.entries {
		merged.entries[k] = v
	}
	for k, v := range other.entries {
		merged.entries[k] = v
	}
	return merged
}
