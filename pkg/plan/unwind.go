package plan

import (
	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Unwind evaluates Expr to a list for each input row and emits one
// output row per element, extending the schema with (Alias,
// elementType). A Null or non-list Expr result produces zero rows for
// that input row, matching Cypher's UNWIND-of-null/scalar behavior.
type Unwind struct {
	base
	Child Operator
	Expr  expr.Expr
	Alias string

	vars    map[string]value.Value
	schema  frame.Schema
	current frame.Row
	pending []value.Value
	ppos    int
}

func (u *Unwind) Schema() frame.Schema {
	if u.schema.Columns == nil {
		env := make(expr.Env)
		for _, c := range u.Child.Schema().Columns {
			env[c.Name] = c.Type
		}
		elemType := value.TypeAny
		if t := expr.TypeOf(u.Expr, env); t.Name == "List" && t.Elem != nil {
			elemType = *t.Elem
		}
		u.schema = u.Child.Schema().With(frame.Column{Name: u.Alias, Type: elemType})
	}
	return u.schema
}

func (u *Unwind) Open(rc *RunContext, vars map[string]value.Value) error {
	u.open(rc)
	u.vars = vars
	u.schema = frame.Schema{}
	u.Schema()
	return u.Child.Open(rc, vars)
}

func (u *Unwind) Next() (frame.Row, bool, error) {
	if !u.ensureOpen() {
		return frame.Row{}, false, nil
	}
	childSchema := u.Child.Schema()
	for {
		if u.ppos < len(u.pending) {
			v := u.pending[u.ppos]
			u.ppos++
			return u.current.Append(v), true, nil
		}
		row, ok, err := u.Child.Next()
		if err != nil {
			return frame.Row{}, false, err
		}
		if !ok {
			u.state = StateDraining
			return frame.Row{}, false, nil
		}
		ctx := expr.NewContext(u.rc.Exec, mergeVars(u.vars, row.Vars(childSchema)))
		v, err := expr.Eval(u.Expr, ctx)
		if err != nil {
			return frame.Row{}, false, err
		}
		u.current = row
		u.ppos = 0
		if v.Kind() == value.KindList {
			u.pending = v.AsList()
		} else {
			u.pending = nil
		}
	}
}

func (u *Unwind) Close() error {
	u.close()
	return u.Child.Close()
}
