package plan

import (
	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/value"
)

// NodeScan emits every node satisfying every named label and every
// property filter, bound to Variable. Schema: [(Variable, Node)].
type NodeScan struct {
	base
	Variable string
	Labels   []string
	Props    map[string]expr.Expr

	rows []*value.Node
	pos  int
}

func (n *NodeScan) Schema() frame.Schema {
	return frame.NewSchema(frame.Column{Name: n.Variable, Type: value.TypeNode})
}

func (n *NodeScan) Open(rc *RunContext, vars map[string]value.Value) error {
	n.open(rc)
	n.pos = 0
	props := map[string]value.Value{}
	ctx := expr.NewContext(rc.Exec, vars)
	for k, e := range n.Props {
		v, err := expr.Eval(e, ctx)
		if err != nil {
			return err
		}
		props[k] = v
	}
	nodes, err := rc.Graph.Nodes(n.Labels, props)
	if err != nil {
		return err
	}
	n.rows = nodes
	return nil
}

func (n *NodeScan) Next() (frame.Row, bool, error) {
	if !n.ensureOpen() || n.pos >= len(n.rows) {
		n.state = StateDraining
		return frame.Row{}, false, nil
	}
	node := n.rows[n.pos]
	n.pos++
	return frame.NewRow(value.NodeVal(node)), true, nil
}

func (n *NodeScan) Close() error {
	n.close()
	n.rows = nil
	return nil
}

// RelationshipScan emits every relationship satisfying the named type
// set, as a standalone (rel) row independent of any node binding.
// Schema: [(Variable, Relationship)].
type RelationshipScan struct {
	base
	Variable string
	Types    []string

	rows []*value.Relationship
	pos  int
}

func (r *RelationshipScan) Schema() frame.Schema {
	return frame.NewSchema(frame.Column{Name: r.Variable, Type: value.TypeRelationship})
}

func (r *RelationshipScan) Open(rc *RunContext, vars map[string]value.Value) error {
	r.open(rc)
	r.pos = 0
	rels, err := rc.Graph.Relationships(r.Types)
	if err != nil {
		return err
	}
	r.rows = rels
	return nil
}

func (r *RelationshipScan) Next() (frame.Row, bool, error) {
	if !r.ensureOpen() || r.pos >= len(r.rows) {
		r.state = StateDraining
		return frame.Row{}, false, nil
	}
	rel := r.rows[r.pos]
	r.pos++
	return frame.NewRow(value.RelVal(rel)), true, nil
}

func (r *RelationshipScan) Close() error {
	r.close()
	r.rows = nil
	return nil
}

// Expand traverses, for each binding of From produced by Child, every
// outbound/inbound/undirected edge whose type is in Types (or any type
// if Types is empty), emitting a (from, rel, to) triple per match.
// Schema: Child's schema extended with (RelVar, Relationship) and
// (ToVar, Node).
type Expand struct {
	base
	Child     Operator
	From      string
	RelVar    string
	ToVar     string
	Direction Direction
	Types     []string

	outerRow frame.Row
	pending  []Expansion
	ppos     int
}

func (e *Expand) Schema() frame.Schema {
	return e.Child.Schema().
		With(frame.Column{Name: e.RelVar, Type: value.TypeRelationship}).
		With(frame.Column{Name: e.ToVar, Type: value.TypeNode})
}

func (e *Expand) Open(rc *RunContext, vars map[string]value.Value) error {
	e.open(rc)
	return e.Child.Open(rc, vars)
}

func (e *Expand) Next() (frame.Row, bool, error) {
	if !e.ensureOpen() {
		return frame.Row{}, false, nil
	}
	for {
		if e.ppos < len(e.pending) {
			exp := e.pending[e.ppos]
			e.ppos++
			row := e.outerRow.Concat(frame.NewRow(value.RelVal(exp.Rel), value.NodeVal(exp.Node)))
			return row, true, nil
		}
		row, ok, err := e.Child.Next()
		if err != nil {
			return frame.Row{}, false, err
		}
		if !ok {
			e.state = StateDraining
			return frame.Row{}, false, nil
		}
		fromVal, found := row.Get(e.Child.Schema(), e.From)
		if !found || fromVal.IsNull() {
			continue
		}
		exps, err := e.rc.Graph.Expand(fromVal.AsNode().ID, e.Direction, e.Types)
		if err != nil {
			return frame.Row{}, false, err
		}
		e.outerRow = row
		e.pending = exps
		e.ppos = 0
	}
}

func (e *Expand) Close() error {
	e.close()
	return e.Child.Close()
}
