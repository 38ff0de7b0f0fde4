package plan

import (
	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// SetAction is one SET clause applied by a MERGE's ON CREATE / ON
// MATCH branch.
type SetAction struct {
	Target string
	Key    string
	Value  expr.Expr
}

// Merge matches an existing node by labels and literal property
// filters, falling back to creating one when no match exists; the
// scope is the single-node MERGE idiom ("MERGE (n:Label {key: val})").
// ON CREATE / ON MATCH SET actions run after
// the node is bound, depending on which branch fired.
type Merge struct {
	base
	Child    Operator
	Node     NodeSpec
	OnCreate []SetAction
	OnMatch  []SetAction

	vars   map[string]value.Value
	schema frame.Schema
	done   bool
}

func (m *Merge) Schema() frame.Schema {
	if m.schema.Columns == nil {
		base := frame.NewSchema()
		if m.Child != nil {
			base = m.Child.Schema()
		}
		if _, ok := base.IndexOf(m.Node.Variable); !ok {
			base = base.With(frame.Column{Name: m.Node.Variable, Type: value.TypeNode})
		}
		m.schema = base
	}
	return m.schema
}

func (m *Merge) Open(rc *RunContext, vars map[string]value.Value) error {
	if rc.Writer == nil {
		return lyerr.InvalidArgument("MERGE requires a write-enabled run")
	}
	m.open(rc)
	m.vars = vars
	m.schema = frame.Schema{}
	m.Schema()
	m.done = false
	if m.Child != nil {
		return m.Child.Open(rc, vars)
	}
	return nil
}

func (m *Merge) Next() (frame.Row, bool, error) {
	if !m.ensureOpen() {
		return frame.Row{}, false, nil
	}
	var inputVals []value.Value
	var rowVars map[string]value.Value
	if m.Child != nil {
		row, ok, err := m.Child.Next()
		if err != nil {
			return frame.Row{}, false, err
		}
		if !ok {
			m.state = StateDraining
			return frame.Row{}, false, nil
		}
		inputVals = row.Values
		rowVars = mergeVars(m.vars, row.Vars(m.Child.Schema()))
	} else {
		if m.done {
			m.state = StateDraining
			return frame.Row{}, false, nil
		}
		m.done = true
		rowVars = m.vars
	}

	ctx := expr.NewContext(m.rc.Exec, rowVars)
	props, err := evalProps(m.Node.Props, ctx)
	if err != nil {
		return frame.Row{}, false, err
	}
	matches, err := m.rc.Graph.Nodes(m.Node.Labels, props)
	if err != nil {
		return frame.Row{}, false, err
	}

	var node *value.Node
	var actions []SetAction
	if len(matches) > 0 {
		node = matches[0]
		actions = m.OnMatch
	} else {
		node = m.rc.Writer.CreateNode(m.Node.Labels, props)
		actions = m.OnCreate
	}

	bound := make(map[string]value.Value, len(rowVars)+1)
	for k, v := range rowVars {
		bound[k] = v
	}
	bound[m.Node.Variable] = value.NodeVal(node)
	actionCtx := expr.NewContext(m.rc.Exec, bound)
	for _, a := range actions {
		target, ok := bound[a.Target]
		if !ok {
			return frame.Row{}, false, lyerr.UnboundVariable(a.Target)
		}
		v, err := expr.Eval(a.Value, actionCtx)
		if err != nil {
			return frame.Row{}, false, err
		}
		ref, err := entityRef(target)
		if err != nil {
			return frame.Row{}, false, err
		}
		if err := m.rc.Writer.SetProperty(ref, a.Key, v); err != nil {
			return frame.Row{}, false, err
		}
	}

	values := append(append([]value.Value(nil), inputVals...), value.NodeVal(node))
	return frame.NewRow(values...), true, nil
}

func (m *Merge) Close() error {
	m.close()
	if m.Child != nil {
		return m.Child.Close()
	}
	return nil
}
