package plan

import (
	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// NodeSpec names one node to create (or reuse, if Variable is already
// bound in the row) as part of a CreatePattern.
type NodeSpec struct {
	Variable string
	Labels   []string
	Props    map[string]expr.Expr
}

// RelSpec names one relationship to create between two NodeSpec
// variables of the same CreatePattern.
type RelSpec struct {
	Variable string
	From, To string
	Type     string
	Props    map[string]expr.Expr
}

// CreatePattern is one comma-separated pattern of a CREATE clause:
// zero or more nodes and the relationships connecting them.
type CreatePattern struct {
	Nodes []NodeSpec
	Rels  []RelSpec
}

// Create is a mutation operator: for each input row (or a single
// implicit row if Child is nil, for a standalone CREATE with no
// preceding MATCH) it creates every node/relationship named in
// Patterns not already bound in the row, accumulating the writes into
// the RunContext's Writer, and emits the input row extended with the
// newly bound variables. Writes become visible only after the single
// commit at the end of runner.Run, per the explicit write-journal
// design (spec.md 4.4 / design notes).
type Create struct {
	base
	Child    Operator
	Patterns []CreatePattern

	vars      map[string]value.Value
	schema    frame.Schema
	childRows func() (frame.Row, bool, error)
	done      bool
}

func (c *Create) newVars() []frame.Column {
	var cols []frame.Column
	for _, p := range c.Patterns {
		for _, n := range p.Nodes {
			cols = append(cols, frame.Column{Name: n.Variable, Type: value.TypeNode})
		}
		for _, r := range p.Rels {
			if r.Variable != "" {
				cols = append(cols, frame.Column{Name: r.Variable, Type: value.TypeRelationship})
			}
		}
	}
	return cols
}

func (c *Create) Schema() frame.Schema {
	if c.schema.Columns == nil {
		base := frame.NewSchema()
		if c.Child != nil {
			base = c.Child.Schema()
		}
		for _, col := range c.newVars() {
			if _, ok := base.IndexOf(col.Name); !ok {
				base = base.With(col)
			}
		}
		c.schema = base
	}
	return c.schema
}

func (c *Create) Open(rc *RunContext, vars map[string]value.Value) error {
	if rc.Writer == nil {
		return lyerr.InvalidArgument("CREATE requires a write-enabled run")
	}
	c.open(rc)
	c.vars = vars
	c.schema = frame.Schema{}
	c.Schema()
	c.done = false
	if c.Child != nil {
		return c.Child.Open(rc, vars)
	}
	return nil
}

func (c *Create) Next() (frame.Row, bool, error) {
	if !c.ensureOpen() {
		return frame.Row{}, false, nil
	}
	var inputVals []value.Value
	var inputVars map[string]value.Value
	if c.Child != nil {
		row, ok, err := c.Child.Next()
		if err != nil {
			return frame.Row{}, false, err
		}
		if !ok {
			c.state = StateDraining
			return frame.Row{}, false, nil
		}
		inputVals = row.Values
		inputVars = mergeVars(c.vars, row.Vars(c.Child.Schema()))
	} else {
		if c.done {
			c.state = StateDraining
			return frame.Row{}, false, nil
		}
		c.done = true
		inputVars = c.vars
	}

	bound := make(map[string]value.Value, len(inputVars))
	for k, v := range inputVars {
		bound[k] = v
	}
	ctx := expr.NewContext(c.rc.Exec, bound)

	for _, p := range c.Patterns {
		for _, n := range p.Nodes {
			if _, exists := bound[n.Variable]; exists {
				continue
			}
			props, err := evalProps(n.Props, ctx)
			if err != nil {
				return frame.Row{}, false, err
			}
			node := c.rc.Writer.CreateNode(n.Labels, props)
			bound[n.Variable] = value.NodeVal(node)
			ctx = expr.NewContext(c.rc.Exec, bound)
		}
		for _, r := range p.Rels {
			fromVal, ok := bound[r.From]
			if !ok || fromVal.Kind() != value.KindNode {
				return frame.Row{}, false, lyerr.InvalidArgument("CREATE relationship references unbound node %q", r.From)
			}
			toVal, ok := bound[r.To]
			if !ok || toVal.Kind() != value.KindNode {
				return frame.Row{}, false, lyerr.InvalidArgument("CREATE relationship references unbound node %q", r.To)
			}
			props, err := evalProps(r.Props, ctx)
			if err != nil {
				return frame.Row{}, false, err
			}
			rel, err := c.rc.Writer.CreateRelationship(fromVal.AsNode().ID, toVal.AsNode().ID, r.Type, props)
			if err != nil {
				return frame.Row{}, false, err
			}
			if r.Variable != "" {
				bound[r.Variable] = value.RelVal(rel)
				ctx = expr.NewContext(c.rc.Exec, bound)
			}
		}
	}

	values := append([]value.Value(nil), inputVals...)
	for _, col := range c.schema.Columns[len(inputVals):] {
		values = append(values, bound[col.Name])
	}
	return frame.NewRow(values...), true, nil
}

func (c *Create) Close() error {
	c.close()
	if c.Child != nil {
		return c.Child.Close()
	}
	return nil
}

func evalProps(props map[string]expr.Expr, ctx expr.Context) (map[string]value.Value, error) {
	out := make(map[string]value.Value, len(props))
	for k, e := range props {
		v, err := expr.Eval(e, ctx)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// SetProperty assigns Key on the entity bound to Target (a node or
// relationship variable) to Value's evaluation, for each input row.
type SetProperty struct {
	base
	Child  Operator
	Target string
	Key    string
	Value  expr.Expr

	vars map[string]value.Value
}

func (s *SetProperty) Schema() frame.Schema { return s.Child.Schema() }

func (s *SetProperty) Open(rc *RunContext, vars map[string]value.Value) error {
	if rc.Writer == nil {
		return lyerr.InvalidArgument("SET requires a write-enabled run")
	}
	s.open(rc)
	s.vars = vars
	return s.Child.Open(rc, vars)
}

func (s *SetProperty) Next() (frame.Row, bool, error) {
	if !s.ensureOpen() {
		return frame.Row{}, false, nil
	}
	row, ok, err := s.Child.Next()
	if err != nil {
		return frame.Row{}, false, err
	}
	if !ok {
		s.state = StateDraining
		return frame.Row{}, false, nil
	}
	rowVars := mergeVars(s.vars, row.Vars(s.Child.Schema()))
	ctx := expr.NewContext(s.rc.Exec, rowVars)
	target, ok := rowVars[s.Target]
	if !ok {
		return frame.Row{}, false, lyerr.UnboundVariable(s.Target)
	}
	v, err := expr.Eval(s.Value, ctx)
	if err != nil {
		return frame.Row{}, false, err
	}
	ref, err := entityRef(target)
	if err != nil {
		return frame.Row{}, false, err
	}
	if err := s.rc.Writer.SetProperty(ref, s.Key, v); err != nil {
		return frame.Row{}, false, err
	}
	return row, true, nil
}

func (s *SetProperty) Close() error {
	s.close()
	return s.Child.Close()
}

func entityRef(v value.Value) (EntityRef, error) {
	switch v.Kind() {
	case value.KindNode:
		return EntityRef{IsNode: true, NodeID: v.AsNode().ID}, nil
	case value.KindRel:
		return EntityRef{IsNode: false, RelID: v.AsRel().ID}, nil
	default:
		return EntityRef{}, lyerr.TypeMismatch("SET target must be a node or relationship")
	}
}

// Delete removes the entity bound to each name in Variables, for every
// input row; Detach controls whether a node's incident relationships
// are removed along with it (DETACH DELETE) or whether deleting a node
// with remaining relationships is an error.
type Delete struct {
	base
	Child     Operator
	Variables []string
	Detach    bool

	vars map[string]value.Value
}

func (d *Delete) Schema() frame.Schema { return d.Child.Schema() }

func (d *Delete) Open(rc *RunContext, vars map[string]value.Value) error {
	if rc.Writer == nil {
		return lyerr.InvalidArgument("DELETE requires a write-enabled run")
	}
	d.open(rc)
	d.vars = vars
	return d.Child.Open(rc, vars)
}

func (d *Delete) Next() (frame.Row, bool, error) {
	if !d.ensureOpen() {
		return frame.Row{}, false, nil
	}
	row, ok, err := d.Child.Next()
	if err != nil {
		return frame.Row{}, false, err
	}
	if !ok {
		d.state = StateDraining
		return frame.Row{}, false, nil
	}
	rowVars := mergeVars(d.vars, row.Vars(d.Child.Schema()))
	for _, name := range d.Variables {
		v, ok := rowVars[name]
		if !ok {
			return frame.Row{}, false, lyerr.UnboundVariable(name)
		}
		switch v.Kind() {
		case value.KindNode:
			if err := d.rc.Writer.DeleteNode(v.AsNode().ID, d.Detach); err != nil {
				return frame.Row{}, false, err
			}
		case value.KindRel:
			if err := d.rc.Writer.DeleteRelationship(v.AsRel().ID); err != nil {
				return frame.Row{}, false, err
			}
		default:
			return frame.Row{}, false, lyerr.TypeMismatch("DELETE target must be a node or relationship")
		}
	}
	return row, true, nil
}

func (d *Delete) Close() error {
	d.close()
	return d.Child.Close()
}
