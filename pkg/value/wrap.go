package value

import (
	"fmt"
)

// Wrap lifts a host Go value into the Value sum type, following the
// same coercions the teacher's ExpressionEvaluator implicitly performs
// when it stuffs interface{} host values straight into evaluation
// (antlr/expression.go evaluateLiteral / ExtractProperties): integers
// become Int, floating point becomes Float, strings become Str,
// slice-like collections become List, map-like collections become Map.
func Wrap(host any) Value {
	switch v := host.(type) {
	case nil:
		return Null
	case Value:
		return v
	case bool:
		return Bool(v)
	case int:
		return Int(int64(v))
	case int8:
		return Int(int64(v))
	case int16:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint:
		return Int(int64(v))
	case uint32:
		return Int(int64(v))
	case uint64:
		return Int(int64(v))
	case float32:
		return Float(float64(v))
	case float64:
		return Float(v)
	case string:
		return Str(v)
	case []any:
		items := make([]Value, len(v))
		for i, e := range v {
			items[i] = Wrap(e)
		}
		return List(items)
	case []Value:
		return List(v)
	case map[string]any:
		m := NewOrderedMap()
		for k, e := range v {
			m.Set(k, Wrap(e))
		}
		return Map(m)
	case *OrderedMap:
		return Map(v)
	case *Node:
		return NodeVal(v)
	case *Relationship:
		return RelVal(v)
	case *Path:
		return PathVal(v)
	default:
		return Str(fmt.Sprintf("%v", v))
	}
}

// Unwrap lowers a Value to a plain Go value suitable for returning to a
// host caller (e.g. JSON export, Badger's on-disk encoding).
func Unwrap(v Value) any {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindBool:
		return v.AsBool()
	case KindInt:
		return v.AsInt()
	case KindFloat:
		return v.AsFloat()
	case KindStr:
		return v.AsStr()
	case KindList:
		items := v.AsList()
		out := make([]any, len(items))
		for i, e := range items {
			out[i] = Unwrap(e)
		}
		return out
	case KindMap:
		out := make(map[string]any, v.AsMap().Len())
		for _, k := range v.AsMap().Keys() {
			val, _ := v.AsMap().Get(k)
			out[k] = Unwrap(val)
		}
		return out
	case KindNode:
		n := v.AsNode()
		props := make(map[string]any, n.Properties.Len())
		for _, k := range n.Properties.Keys() {
			val, _ := n.Properties.Get(k)
			props[k] = Unwrap(val)
		}
		return map[string]any{"id": string(n.ID), "labels": n.Labels, "properties": props}
	case KindRel:
		r := v.AsRel()
		props := make(map[string]any, r.Properties.Len())
		for _, k := range r.Properties.Keys() {
			val, _ := r.Properties.Get(k)
			props[k] = Unwrap(val)
		}
		return map[string]any{"id": string(r.ID), "type": r.Type, "start": string(r.StartID), "end": string(r.EndID), "properties": props}
	case KindPath:
		flat := v.AsPath().Flatten()
		out := make([]any, len(flat))
		for i, e := range flat {
			out[i] = Unwrap(e)
		}
		return out
	case KindDate, KindTime, KindDateTime, KindDuration:
		return v.AsTemporal().String()
	default:
		return nil
	}
}
