package value

import (
	"fmt"
	"strings"
)

// NodeID and RelID identify graph entities. They are opaque strings so
// pkg/graph implementations are free to choose their own ID scheme
// (UUIDs, monotonic counters, Badger keys, ...).
type NodeID string
type RelID string

// Node is a Cypher node value: an identity, its labels, and its
// property bag. Unlike the teacher's map[string]interface{}
// representation (which smuggled _nodeId/_labels alongside regular
// properties), identity and labels are dedicated fields here, so no
// property can ever collide with them.
type Node struct {
	ID         NodeID
	Labels     []string
	Properties *OrderedMap
}

func NewNode(id NodeID, labels []string, props *OrderedMap) *Node {
	if props == nil {
		props = NewOrderedMap()
	}
	return &Node{ID: id, Labels: labels, Properties: props}
}

func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func (n *Node) HasAllLabels(labels []string) bool {
	for _, l := range labels {
		if !n.HasLabel(l) {
			return false
		}
	}
	return true
}

func (n *Node) Property(key string) (Value, bool) {
	return n.Properties.Get(key)
}

func (n *Node) String() string {
	labels := ""
	if len(n.Labels) > 0 {
		labels = ":" + strings.Join(n.Labels, ":")
	}
	return fmt.Sprintf("(%s%s %s)", n.ID, labels, propsString(n.Properties))
}

// Relationship is a Cypher relationship value.
type Relationship struct {
	ID         RelID
	StartID    NodeID
	EndID      NodeID
	Type       string
	Properties *OrderedMap
}

func NewRelationship(id RelID, start, end NodeID, relType string, props *OrderedMap) *Relationship {
	if props == nil {
		props = NewOrderedMap()
	}
	return &Relationship{ID: id, StartID: start, EndID: end, Type: relType, Properties: props}
}

func (r *Relationship) Property(key string) (Value, bool) {
	return r.Properties.Get(key)
}

func (r *Relationship) String() string {
	return fmt.Sprintf("[%s:%s %s]", r.ID, r.Type, propsString(r.Properties))
}

func propsString(m *OrderedMap) string {
	if m == nil || m.Len() == 0 {
		return "{}"
	}
	parts := make([]string, 0, m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		parts = append(parts, fmt.Sprintf("%s: %s", k, v.String()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// PathStep is one link in a Path: a relationship traversed between two
// nodes. Path alternates Node, PathStep, Node, ... per invariant (e).
type PathStep struct {
	Rel     *Relationship
	Forward bool // true if traversed start->end
}

// Path is a first-class alternating node/relationship sequence, kept as
// a dedicated variant instead of the teacher's flattened
// interface{}-list representation (design note: "prefer a dedicated
// Path variant preserving node/relationship alternation").
type Path struct {
	Nodes []*Node
	Steps []PathStep
}

func NewPath(start *Node) *Path {
	return &Path{Nodes: []*Node{start}}
}

func (p *Path) Extend(step PathStep, next *Node) *Path {
	return &Path{
		Nodes: append(append([]*Node(nil), p.Nodes...), next),
		Steps: append(append([]PathStep(nil), p.Steps...), step),
	}
}

// Flatten returns the alternating node/relationship value list the
// Cypher PathExpression contract produces.
func (p *Path) Flatten() []Value {
	out := make([]Value, 0, len(p.Nodes)+len(p.Steps))
	out = append(out, NodeVal(p.Nodes[0]))
	for i, step := range p.Steps {
		out = append(out, RelVal(step.Rel))
		out = append(out, NodeVal(p.Nodes[i+1]))
	}
	return out
}

func (p *Path) Length() int { return len(p.Steps) }

func (p *Path) String() string {
	var sb strings.Builder
	for i, n := range p.Nodes {
		sb.WriteString(n.String())
		if i < len(p.Steps) {
			if p.Steps[i].Forward {
				sb.WriteString("-")
				sb.WriteString(p.Steps[i].Rel.String())
				sb.WriteString("->")
			} else {
				sb.WriteString("<-")
				sb.WriteString(p.Steps[i].Rel.String())
				sb.WriteString("-")
			}
		}
	}
	return sb.String()
}
