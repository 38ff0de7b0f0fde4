package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/value"
)

type fakeGraph struct {
	nodes []*value.Node
	rels  []*value.Relationship
}

func (g *fakeGraph) Nodes(labels []string, props map[string]value.Value) ([]*value.Node, error) {
	var out []*value.Node
	for _, n := range g.nodes {
		if !n.HasAllLabels(labels) {
			continue
		}
		match := true
		for k, v := range props {
			pv, ok := n.Property(k)
			eq := value.Equals(pv, v)
			if !ok || eq.IsNull() || !eq.AsBool() {
				match = false
				break
			}
		}
		if match {
			out = append(out, n)
		}
	}
	return out, nil
}

func (g *fakeGraph) Relationships(types []string) ([]*value.Relationship, error) {
	return g.rels, nil
}

func (g *fakeGraph) Expand(from value.NodeID, dir Direction, types []string) ([]Expansion, error) {
	var out []Expansion
	for _, r := range g.rels {
		if len(types) > 0 && !containsStr(types, r.Type) {
			continue
		}
		if r.StartID == from && (dir == DirOutgoing || dir == DirEither) {
			out = append(out, Expansion{Rel: r, Node: g.findNode(r.EndID), Forward: true})
		}
		if r.EndID == from && (dir == DirIncoming || dir == DirEither) {
			out = append(out, Expansion{Rel: r, Node: g.findNode(r.StartID), Forward: false})
		}
	}
	return out, nil
}

func (g *fakeGraph) findNode(id value.NodeID) *value.Node {
	for _, n := range g.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (g *fakeGraph) NodeByID(id value.NodeID) (*value.Node, bool) {
	n := g.findNode(id)
	return n, n != nil
}

func (g *fakeGraph) RelationshipByID(id value.RelID) (*value.Relationship, bool) {
	for _, r := range g.rels {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

func containsStr(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func nameProp(name string) *value.OrderedMap {
	m := value.NewOrderedMap()
	m.Set("name", value.Str(name))
	return m
}

func newRunContext(g *fakeGraph) *RunContext {
	return &RunContext{
		Exec:  &expr.ExecutionContext{Params: map[string]value.Value{}},
		Graph: g,
	}
}

func drain(t *testing.T, op Operator, rc *RunContext) []frameRowVals {
	t.Helper()
	require.NoError(t, op.Open(rc, nil))
	var out []frameRowVals
	for {
		row, ok, err := op.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, row.Values)
	}
	require.NoError(t, op.Close())
	return out
}

type frameRowVals = []value.Value

func TestNodeScanFiltersByLabelAndProps(t *testing.T) {
	g := &fakeGraph{nodes: []*value.Node{
		value.NewNode("1", []string{"Person"}, nameProp("Ada")),
		value.NewNode("2", []string{"Person"}, nameProp("Bob")),
		value.NewNode("3", []string{"Company"}, nameProp("Acme")),
	}}
	scan := &NodeScan{Variable: "n", Labels: []string{"Person"}, Props: map[string]expr.Expr{
		"name": expr.StringLiteral{Value: "Ada"},
	}}
	rows := drain(t, scan, newRunContext(g))
	require.Len(t, rows, 1)
	assert.Equal(t, value.NodeID("1"), rows[0][0].AsNode().ID)
}

func TestExpandTraversesOutgoing(t *testing.T) {
	a := value.NewNode("a", []string{"Person"}, nil)
	b := value.NewNode("b", []string{"Person"}, nil)
	rel := value.NewRelationship("r1", "a", "b", "KNOWS", nil)
	g := &fakeGraph{nodes: []*value.Node{a, b}, rels: []*value.Relationship{rel}}

	scan := &NodeScan{Variable: "a", Labels: nil}
	expand := &Expand{Child: scan, From: "a", RelVar: "r", ToVar: "b", Direction: DirOutgoing, Types: []string{"KNOWS"}}
	rows := drain(t, expand, newRunContext(g))
	// node a has one outgoing KNOWS edge, node b has none: only one
	// (from, rel, to) triple is emitted.
	require.Len(t, rows, 1)
	require.Len(t, rows[0], 3)
	assert.Equal(t, value.NodeID("b"), rows[0][2].AsNode().ID)
}

func TestFilterKeepsOnlyTrue(t *testing.T) {
	g := &fakeGraph{nodes: []*value.Node{
		value.NewNode("1", nil, nameProp("Ada")),
		value.NewNode("2", nil, nameProp("Bob")),
	}}
	scan := &NodeScan{Variable: "n"}
	pred := expr.Comparison{
		Op:    expr.OpEquals,
		Left:  expr.Property{Src: expr.Variable{Name: "n"}, Key: "name"},
		Right: expr.StringLiteral{Value: "Ada"},
	}
	f := &Filter{Child: scan, Predicate: pred}
	rows := drain(t, f, newRunContext(g))
	require.Len(t, rows, 1)
}

func TestProjectAndAggregationCountStar(t *testing.T) {
	g := &fakeGraph{nodes: []*value.Node{
		value.NewNode("1", []string{"Person"}, nil),
		value.NewNode("2", []string{"Person"}, nil),
	}}
	scan := &NodeScan{Variable: "n", Labels: []string{"Person"}}
	agg := &Aggregation{Child: scan, Aggregates: []Item{{Alias: "c", Expr: expr.CountStar{}}}}
	rows := drain(t, agg, newRunContext(g))
	require.Len(t, rows, 1)
	assert.Equal(t, value.Int(2), rows[0][0])
}

func TestSkipLimitRejectNegative(t *testing.T) {
	g := &fakeGraph{}
	rc := newRunContext(g)
	s := &Skip{Child: &NodeScan{Variable: "n"}, N: -1}
	assert.Error(t, s.Open(rc, nil))
	l := &Limit{Child: &NodeScan{Variable: "n"}, N: -1}
	assert.Error(t, l.Open(rc, nil))
}

func TestUnwindEmitsOneRowPerElement(t *testing.T) {
	g := &fakeGraph{nodes: []*value.Node{value.NewNode("1", nil, nil)}}
	scan := &NodeScan{Variable: "n"}
	u := &Unwind{Child: scan, Expr: expr.ListLiteral{Items: []expr.Expr{
		expr.IntegerLiteral{Value: 1}, expr.IntegerLiteral{Value: 2}, expr.IntegerLiteral{Value: 3},
	}}, Alias: "x"}
	rows := drain(t, u, newRunContext(g))
	require.Len(t, rows, 3)
}

func TestCreateBindsNewNode(t *testing.T) {
	g := &fakeGraph{}
	w := &fakeWriter{}
	rc := newRunContext(g)
	rc.Writer = w
	c := &Create{Patterns: []CreatePattern{{
		Nodes: []NodeSpec{{Variable: "n", Labels: []string{"Person"}, Props: map[string]expr.Expr{
			"name": expr.StringLiteral{Value: "Ada"},
		}}},
	}}}
	rows := drain(t, c, rc)
	require.Len(t, rows, 1)
	assert.Equal(t, value.KindNode, rows[0][0].Kind())
	assert.Len(t, w.created, 1)
}

type fakeWriter struct {
	created []*value.Node
}

func (w *fakeWriter) CreateNode(labels []string, props map[string]value.Value) *value.Node {
	m := value.NewOrderedMap()
	for k, v := range props {
		m.Set(k, v)
	}
	n := value.NewNode(value.NodeID("gen"), labels, m)
	w.created = append(w.created, n)
	return n
}

func (w *fakeWriter) CreateRelationship(from, to value.NodeID, relType string, props map[string]value.Value) (*value.Relationship, error) {
	return value.NewRelationship("gen-rel", from, to, relType, nil), nil
}

func (w *fakeWriter) SetProperty(ref EntityRef, key string, v value.Value) error { return nil }
func (w *fakeWriter) DeleteNode(id value.NodeID, detach bool) error              { return nil }
func (w *fakeWriter) DeleteRelationship(id value.RelID) error                    { return nil }
func (w *fakeWriter) Commit() error                                              { return nil }
func (w *fakeWriter) Discard()                                                   {}
