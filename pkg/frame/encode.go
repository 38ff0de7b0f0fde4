package frame

import (
	"fmt"
	"strings"

	"github.com/orneryd/lynxcore/pkg/value"
)

// encodeKey builds a canonical string for a tuple of values, used by
// groupBy/distinct/join to bucket rows by value-equality without an
// O(n^2) pairwise Equals scan. Numerically equal values (Int(3) and
// Float(3.0)) must encode identically since value.Equals treats them
// as equal; everything else encodes by Kind plus rendered content so
// distinct kinds never collide.
func encodeKey(vs []value.Value) string {
	var sb strings.Builder
	for i, v := range vs {
		if i > 0 {
			sb.WriteByte('\x1f')
		}
		encodeValue(&sb, v)
	}
	return sb.String()
}

func encodeValue(sb *strings.Builder, v value.Value) {
	if v.IsNull() {
		sb.WriteString("null:")
		return
	}
	switch {
	case v.IsNumeric():
		fmt.Fprintf(sb, "num:%v", v.AsFloat64())
	case v.Kind() == value.KindStr:
		fmt.Fprintf(sb, "str:%s", v.AsStr())
	case v.Kind() == value.KindBool:
		fmt.Fprintf(sb, "bool:%t", v.AsBool())
	case v.Kind() == value.KindList:
		sb.WriteString("list:[")
		for i, e := range v.AsList() {
			if i > 0 {
				sb.WriteByte(',')
			}
			encodeValue(sb, e)
		}
		sb.WriteByte(']')
	case v.Kind() == value.KindMap:
		sb.WriteString("map:{")
		for _, k := range v.AsMap().SortedKeys() {
			val, _ := v.AsMap().Get(k)
			fmt.Fprintf(sb, "%s=", k)
			encodeValue(sb, val)
			sb.WriteByte(';')
		}
		sb.WriteByte('}')
	case v.Kind() == value.KindNode:
		fmt.Fprintf(sb, "node:%s", v.AsNode().ID)
	case v.Kind() == value.KindRel:
		fmt.Fprintf(sb, "rel:%s", v.AsRel().ID)
	default:
		fmt.Fprintf(sb, "%d:%s", v.Kind(), v.String())
	}
}
