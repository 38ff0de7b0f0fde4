package plan

import (
	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Filter is a three-valued filter: only rows where Predicate evaluates
// to Bool(true) pass through; Null and Bool(false) are both dropped.
type Filter struct {
	base
	Child     Operator
	Predicate expr.Expr

	vars map[string]value.Value
}

func (f *Filter) Schema() frame.Schema { return f.Child.Schema() }

func (f *Filter) Open(rc *RunContext, vars map[string]value.Value) error {
	f.open(rc)
	f.vars = vars
	return f.Child.Open(rc, vars)
}

func (f *Filter) Next() (frame.Row, bool, error) {
	if !f.ensureOpen() {
		return frame.Row{}, false, nil
	}
	schema := f.Child.Schema()
	for {
		row, ok, err := f.Child.Next()
		if err != nil {
			return frame.Row{}, false, err
		}
		if !ok {
			f.state = StateDraining
			return frame.Row{}, false, nil
		}
		ctx := expr.NewContext(f.rc.Exec, mergeVars(f.vars, row.Vars(schema)))
		v, err := expr.Eval(f.Predicate, ctx)
		if err != nil {
			return frame.Row{}, false, err
		}
		if !v.IsNull() && v.AsBool() {
			return row, true, nil
		}
	}
}

func (f *Filter) Close() error {
	f.close()
	return f.Child.Close()
}

// mergeVars layers row-local bindings over outer/correlated bindings,
// used by every operator that evaluates expressions against both an
// outer variable scope (Apply's outer row) and its own schema.
func mergeVars(outer, inner map[string]value.Value) map[string]value.Value {
	if len(outer) == 0 {
		return inner
	}
	merged := make(map[string]value.Value, len(outer)+len(inner))
	for k, v := range outer {
		merged[k] = v
	}
	for k, v := range inner {
		merged[k] = v
	}
	return merged
}
