package runner

import (
	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/plan"
	"github.com/orneryd/lynxcore/pkg/value"
)

// mergeVars layers row-local bindings over outer/correlated bindings,
// the same merge pkg/plan's own operators use; reimplemented here
// since pkg/plan's copy is unexported.
func mergeVars(outer, inner map[string]value.Value) map[string]value.Value {
	merged := make(map[string]value.Value, len(outer)+len(inner))
	for k, v := range outer {
		merged[k] = v
	}
	for k, v := range inner {
		merged[k] = v
	}
	return merged
}

func nullRow(schema frame.Schema) frame.Row {
	vals := make([]value.Value, len(schema.Columns))
	for i := range vals {
		vals[i] = value.Null
	}
	return frame.NewRow(vals...)
}

// single emits exactly one empty row, the implicit "one row, no
// columns" source a standalone CALL or UNWIND needs when it is the
// first clause of a query with no preceding MATCH, mirroring how
// plan.Create and plan.Merge already treat a nil Child as one implicit
// row.
type single struct {
	opened bool
	done   bool
}

func (s *single) Schema() frame.Schema { return frame.NewSchema() }

func (s *single) Open(rc *plan.RunContext, vars map[string]value.Value) error {
	s.opened = true
	s.done = false
	return nil
}

func (s *single) Next() (frame.Row, bool, error) {
	if !s.opened || s.done {
		return frame.Row{}, false, nil
	}
	s.done = true
	return frame.NewRow(), true, nil
}

func (s *single) Close() error {
	s.opened = false
	return nil
}

// carryVar re-exposes an already-bound variable as a one-row operator,
// used as the base of a pattern built inside an Apply/optionalApply's
// Inner so the pattern's first node isn't rescanned from the graph
// when it is already bound by an outer row.
type carryVar struct {
	Name string

	value  value.Value
	opened bool
	done   bool
}

func (c *carryVar) Schema() frame.Schema {
	return frame.NewSchema(frame.Column{Name: c.Name, Type: value.TypeNode})
}

func (c *carryVar) Open(rc *plan.RunContext, vars map[string]value.Value) error {
	v, ok := vars[c.Name]
	if !ok {
		return lyerr.UnboundVariable(c.Name)
	}
	c.value = v
	c.opened = true
	c.done = false
	return nil
}

func (c *carryVar) Next() (frame.Row, bool, error) {
	if !c.opened || c.done {
		return frame.Row{}, false, nil
	}
	c.done = true
	return frame.NewRow(c.value), true, nil
}

func (c *carryVar) Close() error {
	c.opened = false
	return nil
}

// optionalApply is plan.Apply with OPTIONAL MATCH's null-padding
// behavior: when Inner produces zero rows for a given Outer row, one
// row is still emitted with Inner's columns set to Null, instead of
// silently dropping that Outer row the way plan.Apply's inner-join
// semantics would. plan.Apply's Next never special-cases an empty
// Inner drain, so this variant lives in pkg/runner rather than as a
// pkg/plan change.
type optionalApply struct {
	Outer, Inner plan.Operator

	rc        *plan.RunContext
	outerVars map[string]value.Value
	outerRow  frame.Row
	innerOpen bool
	matched   bool
	opened    bool
}

func (a *optionalApply) Schema() frame.Schema {
	return a.Outer.Schema().Concat(a.Inner.Schema())
}

func (a *optionalApply) Open(rc *plan.RunContext, vars map[string]value.Value) error {
	a.rc = rc
	a.outerVars = vars
	a.opened = true
	return a.Outer.Open(rc, vars)
}

func (a *optionalApply) Next() (frame.Row, bool, error) {
	if !a.opened {
		return frame.Row{}, false, nil
	}
	outerSchema := a.Outer.Schema()
	for {
		if a.innerOpen {
			row, ok, err := a.Inner.Next()
			if err != nil {
				return frame.Row{}, false, err
			}
			if ok {
				a.matched = true
				return a.outerRow.Concat(row), true, nil
			}
			if err := a.Inner.Close(); err != nil {
				return frame.Row{}, false, err
			}
			a.innerOpen = false
			if !a.matched {
				return a.outerRow.Concat(nullRow(a.Inner.Schema())), true, nil
			}
		}
		row, ok, err := a.Outer.Next()
		if err != nil {
			return frame.Row{}, false, err
		}
		if !ok {
			a.opened = false
			return frame.Row{}, false, nil
		}
		a.outerRow = row
		a.matched = false
		innerVars := mergeVars(a.outerVars, row.Vars(outerSchema))
		if err := a.Inner.Open(a.rc, innerVars); err != nil {
			return frame.Row{}, false, err
		}
		a.innerOpen = true
	}
}

func (a *optionalApply) Close() error {
	a.opened = false
	if a.innerOpen {
		_ = a.Inner.Close()
		a.innerOpen = false
	}
	return a.Outer.Close()
}

// labelSet implements the SET n:Label:Other shorthand, which has no
// home in pkg/plan's Writer/SetAction/SetProperty (none of them carry
// a label mutation). It rewrites the bound node's Labels slice in
// place, outside the Writer: the change is visible to every other holder of that
// *value.Node pointer for graph.Memory, but does not persist through
// graph.Badger, which decodes a fresh struct per read.
type labelSet struct {
	Child  plan.Operator
	Target string
	Labels []string

	vars   map[string]value.Value
	opened bool
}

func (s *labelSet) Schema() frame.Schema { return s.Child.Schema() }

func (s *labelSet) Open(rc *plan.RunContext, vars map[string]value.Value) error {
	s.vars = vars
	s.opened = true
	return s.Child.Open(rc, vars)
}

func (s *labelSet) Next() (frame.Row, bool, error) {
	if !s.opened {
		return frame.Row{}, false, nil
	}
	row, ok, err := s.Child.Next()
	if err != nil {
		return frame.Row{}, false, err
	}
	if !ok {
		return frame.Row{}, false, nil
	}
	rowVars := mergeVars(s.vars, row.Vars(s.Child.Schema()))
	target, ok := rowVars[s.Target]
	if !ok {
		return frame.Row{}, false, lyerr.UnboundVariable(s.Target)
	}
	if target.Kind() != value.KindNode {
		return frame.Row{}, false, lyerr.TypeMismatch("SET label shorthand target must be a node, got %v", target.Kind())
	}
	n := target.AsNode()
	for _, l := range s.Labels {
		if !n.HasLabel(l) {
			n.Labels = append(n.Labels, l)
		}
	}
	return row, true, nil
}

func (s *labelSet) Close() error {
	s.opened = false
	return s.Child.Close()
}

// callYield runs a CALL ... [YIELD names] procedure invocation once
// per input row. With no YIELD it runs the procedure for its side
// effect and passes the row through unchanged. With one YIELD name it
// binds each element of a List result to that name (the apoc.label.*
// introspection shape: a scalar procedure returning a list, unwound
// one element per row, exactly like plan.Unwind). With more than one
// YIELD name it expects each element to be a Map and projects the
// named fields out of it.
type callYield struct {
	Child      plan.Operator
	Invocation expr.Invocation
	Yield      []string

	rc      *plan.RunContext
	vars    map[string]value.Value
	pending []frame.Row
	ppos    int
	opened  bool
}

func (c *callYield) Schema() frame.Schema {
	s := c.Child.Schema()
	for _, y := range c.Yield {
		s = s.With(frame.Column{Name: y, Type: value.TypeAny})
	}
	return s
}

func (c *callYield) Open(rc *plan.RunContext, vars map[string]value.Value) error {
	c.rc = rc
	c.vars = vars
	c.opened = true
	return c.Child.Open(rc, vars)
}

func (c *callYield) Next() (frame.Row, bool, error) {
	if !c.opened {
		return frame.Row{}, false, nil
	}
	childSchema := c.Child.Schema()
	for {
		if c.ppos < len(c.pending) {
			row := c.pending[c.ppos]
			c.ppos++
			return row, true, nil
		}
		row, ok, err := c.Child.Next()
		if err != nil {
			return frame.Row{}, false, err
		}
		if !ok {
			return frame.Row{}, false, nil
		}
		ctx := expr.NewContext(c.rc.Exec, mergeVars(c.vars, row.Vars(childSchema)))
		result, err := expr.Eval(expr.ProcedureExpression{Invocation: c.Invocation}, ctx)
		if err != nil {
			return frame.Row{}, false, err
		}
		if len(c.Yield) == 0 {
			return row, true, nil
		}
		rows, err := c.yieldRows(row, result)
		if err != nil {
			return frame.Row{}, false, err
		}
		c.pending = rows
		c.ppos = 0
	}
}

func (c *callYield) yieldRows(base frame.Row, result value.Value) ([]frame.Row, error) {
	elems := []value.Value{result}
	if result.Kind() == value.KindList {
		elems = result.AsList()
	}
	out := make([]frame.Row, 0, len(elems))
	for _, el := range elems {
		if len(c.Yield) == 1 && el.Kind() != value.KindMap {
			out = append(out, base.Append(el))
			continue
		}
		m := el.AsMap()
		if m == nil {
			return nil, lyerr.TypeMismatch("CALL ... YIELD %v expects a map result per row", c.Yield)
		}
		vals := make([]value.Value, len(c.Yield))
		for i, y := range c.Yield {
			v, ok := m.Get(y)
			if !ok {
				v = value.Null
			}
			vals[i] = v
		}
		out = append(out, base.Concat(frame.NewRow(vals...)))
	}
	return out, nil
}

func (c *callYield) Close() error {
	c.opened = false
	return c.Child.Close()
}
