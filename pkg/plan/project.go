package plan

import (
	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Item names one projected/grouped/ordered output column: the alias it
// appears under and the expression producing it. Shared by Project,
// With, Aggregation and OrderBy.
type Item struct {
	Alias string
	Expr  expr.Expr
}

// Project evaluates Items against each child row, producing a new
// schema built from their aliases and §4.2-inferred types.
type Project struct {
	base
	Child Operator
	Items []Item

	vars   map[string]value.Value
	schema frame.Schema
}

func (p *Project) Schema() frame.Schema {
	if p.schema.Columns == nil {
		p.schema = computeSchema(p.Child.Schema(), p.Items)
	}
	return p.schema
}

func computeSchema(childSchema frame.Schema, items []Item) frame.Schema {
	env := make(expr.Env, len(childSchema.Columns))
	for _, c := range childSchema.Columns {
		env[c.Name] = c.Type
	}
	cols := make([]frame.Column, len(items))
	for i, it := range items {
		cols[i] = frame.Column{Name: it.Alias, Type: expr.TypeOf(it.Expr, env)}
	}
	return frame.NewSchema(cols...)
}

func (p *Project) Open(rc *RunContext, vars map[string]value.Value) error {
	p.open(rc)
	p.vars = vars
	p.schema = computeSchema(p.Child.Schema(), p.Items)
	return p.Child.Open(rc, vars)
}

func (p *Project) Next() (frame.Row, bool, error) {
	if !p.ensureOpen() {
		return frame.Row{}, false, nil
	}
	childSchema := p.Child.Schema()
	row, ok, err := p.Child.Next()
	if err != nil {
		return frame.Row{}, false, err
	}
	if !ok {
		p.state = StateDraining
		return frame.Row{}, false, nil
	}
	ctx := expr.NewContext(p.rc.Exec, mergeVars(p.vars, row.Vars(childSchema)))
	values := make([]value.Value, len(p.Items))
	for i, it := range p.Items {
		v, err := expr.Eval(it.Expr, ctx)
		if err != nil {
			return frame.Row{}, false, err
		}
		values[i] = v
	}
	return frame.NewRow(values...), true, nil
}

func (p *Project) Close() error {
	p.close()
	return p.Child.Close()
}
