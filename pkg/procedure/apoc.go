package procedure

import (
	"strings"

	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/graph"
	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// APOC adapts the teacher's apoc/label, apoc/meta, and apoc/schema
// packages onto graph.Model. Those packages held their own package-
// level storage.Storage variable (set once via SetStorage at process
// init); here every descriptor closes over the Model passed to this
// call instead, so a registry can be rebuilt per-run against whichever
// graph.Memory/graph.Badger the runner opened rather than pinning a
// single global backend.
//
// The original packages' node-labeling mutators (Add/Remove/Set/
// Clear/Merge/Replace) are not registered: every descriptor here only
// reads its arguments and the Model, and none of them changes a node.
func APOC(m graph.Model) *Table {
	t := NewTable()
	registerApocLabel(t, m)
	registerApocMeta(t, m)
	registerApocSchema(t, m)
	return t
}

func apocFn(t *Table, name string, arity int, f expr.ScalarFn) {
	t.register(expr.Descriptor{Namespace: "apoc", Name: name, Arity: arity, Fn: f})
}

func allLabels(m graph.Model) ([]string, error) {
	nodes, err := m.Nodes(nil, nil)
	if err != nil {
		return nil, err
	}
	set := map[string]bool{}
	for _, n := range nodes {
		for _, l := range n.Labels {
			set[l] = true
		}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	return out, nil
}

func allRelTypes(m graph.Model) ([]string, error) {
	rels, err := m.Relationships(nil)
	if err != nil {
		return nil, err
	}
	set := map[string]bool{}
	for _, r := range rels {
		set[r.Type] = true
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	return out, nil
}

func strList(items []string) value.Value {
	out := make([]value.Value, len(items))
	for i, s := range items {
		out[i] = value.Str(s)
	}
	return value.List(out)
}

func strSliceArg(v value.Value, fname string) ([]string, error) {
	list, err := requireList(v, fname)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, err := requireStr(item, fname)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// registerApocLabel grounds each descriptor on apoc/label/label.go's
// function of the matching name (Exists, List, Count, Has, HasAny,
// HasAll, Diff, Union, Intersection, Normalize, Pattern, FromPattern,
// ToString, FromString), rewritten onto
// graph.Model reads and *value.Node in place of the teacher's
// storage.Node snapshot copy.
func registerApocLabel(t *Table, m graph.Model) {
	apocFn(t, "label.exists", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		label, err := requireStr(args[0], "apoc.label.exists")
		if err != nil {
			return value.Null, err
		}
		nodes, err := m.Nodes([]string{label}, nil)
		if err != nil {
			return value.Null, err
		}
		return value.Bool(len(nodes) > 0), nil
	})
	apocFn(t, "label.list", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		labels, err := allLabels(m)
		if err != nil {
			return value.Null, err
		}
		return strList(labels), nil
	})
	apocFn(t, "label.count", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		label, err := requireStr(args[0], "apoc.label.count")
		if err != nil {
			return value.Null, err
		}
		nodes, err := m.Nodes([]string{label}, nil)
		if err != nil {
			return value.Null, err
		}
		return value.Int(int64(len(nodes))), nil
	})
	apocFn(t, "label.has", 2, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if args[0].Kind() != value.KindNode {
			return value.Null, lyerr.TypeMismatch("apoc.label.has() requires a node, got %v", args[0].Kind())
		}
		label, err := requireStr(args[1], "apoc.label.has")
		if err != nil {
			return value.Null, err
		}
		return value.Bool(args[0].AsNode().HasLabel(label)), nil
	})
	apocFn(t, "label.hasAny", 2, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if args[0].Kind() != value.KindNode {
			return value.Null, lyerr.TypeMismatch("apoc.label.hasAny() requires a node, got %v", args[0].Kind())
		}
		labels, err := strSliceArg(args[1], "apoc.label.hasAny")
		if err != nil {
			return value.Null, err
		}
		n := args[0].AsNode()
		for _, l := range labels {
			if n.HasLabel(l) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	apocFn(t, "label.hasAll", 2, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if args[0].Kind() != value.KindNode {
			return value.Null, lyerr.TypeMismatch("apoc.label.hasAll() requires a node, got %v", args[0].Kind())
		}
		labels, err := strSliceArg(args[1], "apoc.label.hasAll")
		if err != nil {
			return value.Null, err
		}
		return value.Bool(args[0].AsNode().HasAllLabels(labels)), nil
	})
	apocFn(t, "label.diff", 2, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		a, err := strSliceArg(args[0], "apoc.label.diff")
		if err != nil {
			return value.Null, err
		}
		b, err := strSliceArg(args[1], "apoc.label.diff")
		if err != nil {
			return value.Null, err
		}
		setA := toSet(a)
		setB := toSet(b)
		var added, removed, common []string
		for _, l := range b {
			if setA[l] {
				common = append(common, l)
			} else {
				added = append(added, l)
			}
		}
		for _, l := range a {
			if !setB[l] {
				removed = append(removed, l)
			}
		}
		out := value.NewOrderedMap()
		out.Set("added", strList(added))
		out.Set("removed", strList(removed))
		out.Set("common", strList(common))
		return value.Map(out), nil
	})
	apocFn(t, "label.union", -1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		set := map[string]bool{}
		for _, arg := range args {
			labels, err := strSliceArg(arg, "apoc.label.union")
			if err != nil {
				return value.Null, err
			}
			for _, l := range labels {
				set[l] = true
			}
		}
		return strList(setKeys(set)), nil
	})
	apocFn(t, "label.intersection", -1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.List(nil), nil
		}
		counts := map[string]int{}
		for _, arg := range args {
			labels, err := strSliceArg(arg, "apoc.label.intersection")
			if err != nil {
				return value.Null, err
			}
			seen := map[string]bool{}
			for _, l := range labels {
				if !seen[l] {
					counts[l]++
					seen[l] = true
				}
			}
		}
		var out []string
		for l, c := range counts {
			if c == len(args) {
				out = append(out, l)
			}
		}
		return strList(out), nil
	})
	apocFn(t, "label.normalize", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		label, err := requireStr(args[0], "apoc.label.normalize")
		if err != nil {
			return value.Null, err
		}
		label = strings.TrimSpace(label)
		if len(label) > 0 {
			label = strings.ToUpper(label[:1]) + label[1:]
		}
		return value.Str(label), nil
	})
	apocFn(t, "label.pattern", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		labels, err := strSliceArg(args[0], "apoc.label.pattern")
		if err != nil {
			return value.Null, err
		}
		if len(labels) == 0 {
			return value.Str(""), nil
		}
		return value.Str(":" + strings.Join(labels, ":")), nil
	})
	apocFn(t, "label.fromPattern", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		pattern, err := requireStr(args[0], "apoc.label.fromPattern")
		if err != nil {
			return value.Null, err
		}
		pattern = strings.TrimPrefix(pattern, ":")
		if pattern == "" {
			return value.List(nil), nil
		}
		return strList(strings.Split(pattern, ":")), nil
	})
	apocFn(t, "label.toString", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		labels, err := strSliceArg(args[0], "apoc.label.toString")
		if err != nil {
			return value.Null, err
		}
		return value.Str(strings.Join(labels, ", ")), nil
	})
	apocFn(t, "label.fromString", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		s, err := requireStr(args[0], "apoc.label.fromString")
		if err != nil {
			return value.Null, err
		}
		parts := strings.Split(s, ",")
		var out []string
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return strList(out), nil
	})
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

func setKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

// registerApocMeta grounds its descriptors on apoc/meta/meta.go's
// Schema, Graph, Stats, NodeLabels, RelTypes, PropertyKeys, and Type.
func registerApocMeta(t *Table, m graph.Model) {
	apocFn(t, "meta.nodeLabels", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		labels, err := allLabels(m)
		if err != nil {
			return value.Null, err
		}
		return strList(labels), nil
	})
	apocFn(t, "meta.relTypes", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		types, err := allRelTypes(m)
		if err != nil {
			return value.Null, err
		}
		return strList(types), nil
	})
	apocFn(t, "meta.propertyKeys", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		keys, err := propertyKeys(m, nil)
		if err != nil {
			return value.Null, err
		}
		return strList(keys), nil
	})
	apocFn(t, "meta.schema", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		labels, err := allLabels(m)
		if err != nil {
			return value.Null, err
		}
		types, err := allRelTypes(m)
		if err != nil {
			return value.Null, err
		}
		keys, err := propertyKeys(m, nil)
		if err != nil {
			return value.Null, err
		}
		out := value.NewOrderedMap()
		out.Set("labels", strList(labels))
		out.Set("relationshipTypes", strList(types))
		out.Set("propertyKeys", strList(keys))
		return value.Map(out), nil
	})
	apocFn(t, "meta.graph", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		nodes, err := m.Nodes(nil, nil)
		if err != nil {
			return value.Null, err
		}
		rels, err := m.Relationships(nil)
		if err != nil {
			return value.Null, err
		}
		labelCounts := value.NewOrderedMap()
		counts := map[string]int64{}
		for _, n := range nodes {
			for _, l := range n.Labels {
				counts[l]++
			}
		}
		for l, c := range counts {
			labelCounts.Set(l, value.Int(c))
		}
		relCounts := value.NewOrderedMap()
		rcounts := map[string]int64{}
		for _, r := range rels {
			rcounts[r.Type]++
		}
		for rt, c := range rcounts {
			relCounts.Set(rt, value.Int(c))
		}
		out := value.NewOrderedMap()
		out.Set("nodes", value.Int(int64(len(nodes))))
		out.Set("relationships", value.Int(int64(len(rels))))
		out.Set("labels", value.Map(labelCounts))
		out.Set("relTypes", value.Map(relCounts))
		return value.Map(out), nil
	})
	apocFn(t, "meta.stats", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		nodes, err := m.Nodes(nil, nil)
		if err != nil {
			return value.Null, err
		}
		rels, err := m.Relationships(nil)
		if err != nil {
			return value.Null, err
		}
		labelSet, propSet := map[string]bool{}, map[string]bool{}
		for _, n := range nodes {
			for _, l := range n.Labels {
				labelSet[l] = true
			}
			for _, k := range n.Properties.Keys() {
				propSet[k] = true
			}
		}
		relTypeSet := map[string]bool{}
		for _, r := range rels {
			relTypeSet[r.Type] = true
			for _, k := range r.Properties.Keys() {
				propSet[k] = true
			}
		}
		out := value.NewOrderedMap()
		out.Set("labelCount", value.Int(int64(len(labelSet))))
		out.Set("relTypeCount", value.Int(int64(len(relTypeSet))))
		out.Set("propertyKeyCount", value.Int(int64(len(propSet))))
		out.Set("nodeCount", value.Int(int64(len(nodes))))
		out.Set("relCount", value.Int(int64(len(rels))))
		return value.Map(out), nil
	})
	apocFn(t, "meta.type", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		return value.Str(cypherTypeName(args[0])), nil
	})
}

func cypherTypeName(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "NULL"
	case value.KindBool:
		return "BOOLEAN"
	case value.KindInt:
		return "INTEGER"
	case value.KindFloat:
		return "FLOAT"
	case value.KindStr:
		return "STRING"
	case value.KindList:
		return "LIST"
	case value.KindMap:
		return "MAP"
	case value.KindNode:
		return "NODE"
	case value.KindRel:
		return "RELATIONSHIP"
	case value.KindPath:
		return "PATH"
	case value.KindDate:
		return "DATE"
	case value.KindTime:
		return "TIME"
	case value.KindDateTime:
		return "DATE_TIME"
	case value.KindDuration:
		return "DURATION"
	default:
		return "UNKNOWN"
	}
}

func propertyKeys(m graph.Model, label []string) ([]string, error) {
	nodes, err := m.Nodes(label, nil)
	if err != nil {
		return nil, err
	}
	rels, err := m.Relationships(nil)
	if err != nil {
		return nil, err
	}
	set := map[string]bool{}
	for _, n := range nodes {
		for _, k := range n.Properties.Keys() {
			set[k] = true
		}
	}
	if len(label) == 0 {
		for _, r := range rels {
			for _, k := range r.Properties.Keys() {
				set[k] = true
			}
		}
	}
	return setKeys(set), nil
}

// registerApocSchema grounds its descriptors on apoc/schema/schema.go's
// Labels, Types, Properties, PropertiesDistinct, Nodes, Relationships,
// and Info. Index/constraint management (Assert, CreateIndex, ...) has
// no backing concept in graph.Model (no schema catalog exists), so it
// is not adapted here; see DESIGN.md for that decision.
func registerApocSchema(t *Table, m graph.Model) {
	apocFn(t, "schema.labels", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		labels, err := allLabels(m)
		if err != nil {
			return value.Null, err
		}
		return strList(labels), nil
	})
	apocFn(t, "schema.types", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		types, err := allRelTypes(m)
		if err != nil {
			return value.Null, err
		}
		return strList(types), nil
	})
	apocFn(t, "schema.properties", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		keys, err := propertyKeys(m, nil)
		if err != nil {
			return value.Null, err
		}
		return strList(keys), nil
	})
	apocFn(t, "schema.propertiesDistinct", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		label, err := requireStr(args[0], "apoc.schema.propertiesDistinct")
		if err != nil {
			return value.Null, err
		}
		keys, err := propertyKeys(m, []string{label})
		if err != nil {
			return value.Null, err
		}
		return strList(keys), nil
	})
	apocFn(t, "schema.nodes", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		labels, err := allLabels(m)
		if err != nil {
			return value.Null, err
		}
		out := make([]value.Value, len(labels))
		for i, l := range labels {
			keys, err := propertyKeys(m, []string{l})
			if err != nil {
				return value.Null, err
			}
			entry := value.NewOrderedMap()
			entry.Set("label", value.Str(l))
			entry.Set("properties", strList(keys))
			out[i] = value.Map(entry)
		}
		return value.List(out), nil
	})
	apocFn(t, "schema.relationships", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		types, err := allRelTypes(m)
		if err != nil {
			return value.Null, err
		}
		rels, err := m.Relationships(nil)
		if err != nil {
			return value.Null, err
		}
		out := make([]value.Value, len(types))
		for i, rt := range types {
			set := map[string]bool{}
			for _, r := range rels {
				if r.Type == rt {
					for _, k := range r.Properties.Keys() {
						set[k] = true
					}
				}
			}
			entry := value.NewOrderedMap()
			entry.Set("type", value.Str(rt))
			entry.Set("properties", strList(setKeys(set)))
			out[i] = value.Map(entry)
		}
		return value.List(out), nil
	})
	apocFn(t, "schema.info", 0, func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		nodes, err := m.Nodes(nil, nil)
		if err != nil {
			return value.Null, err
		}
		rels, err := m.Relationships(nil)
		if err != nil {
			return value.Null, err
		}
		labels, _ := allLabels(m)
		types, _ := allRelTypes(m)
		out := value.NewOrderedMap()
		out.Set("nodeCount", value.Int(int64(len(nodes))))
		out.Set("relCount", value.Int(int64(len(rels))))
		out.Set("labelCount", value.Int(int64(len(labels))))
		out.Set("relTypeCount", value.Int(int64(len(types))))
		return value.Map(out), nil
	})
}
