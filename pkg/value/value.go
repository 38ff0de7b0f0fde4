// Package value implements the Cypher runtime value model: a closed sum
// type over null, booleans, numbers, strings, lists, maps, graph
// entities, paths, and temporal values, with three-valued equality and
// ordering. See the teacher's antlr/expression.go (valuesEqual,
// compareValues, toFloat64) for the map-of-interface{} representation
// this rewrite closes into a tagged union, per the REDESIGN FLAGS item
// on open polymorphic dispatch.
package value

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindList
	KindMap
	KindNode
	KindRel
	KindPath
	KindDate
	KindTime
	KindDateTime
	KindDuration
)

// Value is the closed Cypher runtime value. Exactly one of the typed
// fields is meaningful, selected by Kind; callers should use the
// constructors and accessors below rather than touching fields
// directly.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    *OrderedMap
	node *Node
	rel  *Relationship
	path *Path
	t    Temporal
}

func (v Value) Kind() Kind { return v.kind }

var Null = Value{kind: KindNull}

func Bool(b bool) Value  { return Value{kind: KindBool, b: b} }
func Int(i int64) Value  { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Str(s string) Value { return Value{kind: KindStr, s: s} }
func List(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}
func Map(m *OrderedMap) Value {
	if m == nil {
		m = NewOrderedMap()
	}
	return Value{kind: KindMap, m: m}
}
func NodeVal(n *Node) Value             { return Value{kind: KindNode, node: n} }
func RelVal(r *Relationship) Value      { return Value{kind: KindRel, rel: r} }
func PathVal(p *Path) Value             { return Value{kind: KindPath, path: p} }
func DateTimeVal(t Temporal) Value      { return Value{kind: KindDateTime, t: t} }
func DateVal(t Temporal) Value          { return Value{kind: KindDate, t: t} }
func TimeVal(t Temporal) Value          { return Value{kind: KindTime, t: t} }
func DurationVal(d Temporal) Value      { return Value{kind: KindDuration, t: d} }

func (v Value) IsNull() bool  { return v.kind == KindNull }
func (v Value) AsBool() bool  { return v.b }
func (v Value) AsInt() int64  { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsStr() string { return v.s }
func (v Value) AsList() []Value { return v.list }
func (v Value) AsMap() *OrderedMap { return v.m }
func (v Value) AsNode() *Node { return v.node }
func (v Value) AsRel() *Relationship { return v.rel }
func (v Value) AsPath() *Path { return v.path }
func (v Value) AsTemporal() Temporal { return v.t }

// IsNumeric reports whether v is an Int or Float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// AsFloat64 returns the numeric value of an Int or Float as a float64.
// Callers must check IsNumeric first.
func (v Value) AsFloat64() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindStr:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, v.m.Len())
		for _, k := range v.m.Keys() {
			val, _ := v.m.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, val.String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindNode:
		return v.node.String()
	case KindRel:
		return v.rel.String()
	case KindPath:
		return v.path.String()
	case KindDate, KindTime, KindDateTime, KindDuration:
		return v.t.String()
	default:
		return "<unknown>"
	}
}

// OrderedMap is a string-keyed map that preserves insertion order, used
// for Cypher map values and node/relationship property bags.
type OrderedMap struct {
	keys   []string
	values map[string]Value
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]Value)}
}

func (m *OrderedMap) Set(key string, v Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *OrderedMap) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Keys() []string { return m.keys }
func (m *OrderedMap) Len() int       { return len(m.keys) }

func (m *OrderedMap) Clone() *OrderedMap {
	c := NewOrderedMap()
	for _, k := range m.keys {
		c.Set(k, m.values[k])
	}
	return c
}

// SortedKeys returns a copy of the keys sorted lexicographically; used
// by pkg/frame's row-key encoding, which needs a deterministic order.
func (m *OrderedMap) SortedKeys() []string {
	keys := append([]string(nil), m.keys...)
	sort.Strings(keys)
	return keys
}
