package frame

import "github.com/orneryd/lynxcore/pkg/value"

// Row is one positional tuple of values, interpreted against whichever
// Schema it travels with. Rows never carry their schema themselves
// (it would duplicate the same slice on every row); callers always
// have the owning DataFrame or Operator's Schema() at hand.
type Row struct {
	Values []value.Value
}

func NewRow(values ...value.Value) Row {
	return Row{Values: values}
}

// Get reads the named column's value out of r under schema.
func (r Row) Get(schema Schema, name string) (value.Value, bool) {
	i, ok := schema.IndexOf(name)
	if !ok {
		return value.Null, false
	}
	return r.Values[i], true
}

// Vars projects r into a name->value map suitable for
// expr.Context.WithVars, the bridge between this package's columnar
// rows and the evaluator's variable bindings.
func (r Row) Vars(schema Schema) map[string]value.Value {
	vars := make(map[string]value.Value, len(schema.Columns))
	for i, c := range schema.Columns {
		vars[c.Name] = r.Values[i]
	}
	return vars
}

// Append returns a new Row with v appended, used by Unwind to add its
// element column onto each input row.
func (r Row) Append(v value.Value) Row {
	out := make([]value.Value, len(r.Values)+1)
	copy(out, r.Values)
	out[len(r.Values)] = v
	return Row{Values: out}
}

// Concat returns a new Row with other's values appended after r's,
// used by Join and Apply to combine two rows under a concatenated
// schema.
func (r Row) Concat(other Row) Row {
	out := make([]value.Value, len(r.Values)+len(other.Values))
	copy(out, r.Values)
	copy(out[len(r.Values):], other.Values)
	return Row{Values: out}
}
