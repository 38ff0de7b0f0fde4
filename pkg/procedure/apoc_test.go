package procedure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/lynxcore/pkg/graph"
	"github.com/orneryd/lynxcore/pkg/value"
)

func seededGraph(t *testing.T) graph.Model {
	t.Helper()
	m := graph.NewMemory()
	w := m.NewWriter()
	a := w.CreateNode([]string{"Person"}, map[string]value.Value{"name": value.Str("Ada")})
	b := w.CreateNode([]string{"Person", "Employee"}, map[string]value.Value{"name": value.Str("Grace")})
	_, err := w.CreateRelationship(a.ID, b.ID, "KNOWS", map[string]value.Value{"since": value.Int(1843)})
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	return m
}

func TestApocLabelExistsAndCount(t *testing.T) {
	tbl := APOC(seededGraph(t))
	assert.True(t, call(t, tbl, "apoc", "label.exists", value.Str("Person")).AsBool())
	assert.False(t, call(t, tbl, "apoc", "label.exists", value.Str("Company")).AsBool())
	assert.Equal(t, int64(2), call(t, tbl, "apoc", "label.count", value.Str("Person")).AsInt())
	assert.Equal(t, int64(1), call(t, tbl, "apoc", "label.count", value.Str("Employee")).AsInt())
}

func TestApocLabelListAndPattern(t *testing.T) {
	tbl := APOC(seededGraph(t))
	list := call(t, tbl, "apoc", "label.list")
	require.Len(t, list.AsList(), 2)

	pattern := call(t, tbl, "apoc", "label.pattern", value.List([]value.Value{value.Str("Person"), value.Str("Employee")}))
	assert.Equal(t, ":Person:Employee", pattern.AsStr())

	back := call(t, tbl, "apoc", "label.fromPattern", pattern)
	require.Len(t, back.AsList(), 2)
	assert.Equal(t, "Person", back.AsList()[0].AsStr())
}

func TestApocLabelDiffUnionIntersection(t *testing.T) {
	tbl := APOC(seededGraph(t))
	a := value.List([]value.Value{value.Str("A"), value.Str("B")})
	b := value.List([]value.Value{value.Str("B"), value.Str("C")})

	diff := call(t, tbl, "apoc", "label.diff", a, b)
	added, _ := diff.AsMap().Get("added")
	removed, _ := diff.AsMap().Get("removed")
	common, _ := diff.AsMap().Get("common")
	require.Len(t, added.AsList(), 1)
	assert.Equal(t, "C", added.AsList()[0].AsStr())
	require.Len(t, removed.AsList(), 1)
	assert.Equal(t, "A", removed.AsList()[0].AsStr())
	require.Len(t, common.AsList(), 1)
	assert.Equal(t, "B", common.AsList()[0].AsStr())

	union := call(t, tbl, "apoc", "label.union", a, b)
	assert.Len(t, union.AsList(), 3)

	inter := call(t, tbl, "apoc", "label.intersection", a, b)
	require.Len(t, inter.AsList(), 1)
	assert.Equal(t, "B", inter.AsList()[0].AsStr())
}

func TestApocMetaGraphAndSchema(t *testing.T) {
	tbl := APOC(seededGraph(t))

	g := call(t, tbl, "apoc", "meta.graph")
	nodes, _ := g.AsMap().Get("nodes")
	rels, _ := g.AsMap().Get("relationships")
	assert.Equal(t, int64(2), nodes.AsInt())
	assert.Equal(t, int64(1), rels.AsInt())

	schema := call(t, tbl, "apoc", "meta.schema")
	labels, _ := schema.AsMap().Get("labels")
	relTypes, _ := schema.AsMap().Get("relationshipTypes")
	assert.Len(t, labels.AsList(), 2)
	require.Len(t, relTypes.AsList(), 1)
	assert.Equal(t, "KNOWS", relTypes.AsList()[0].AsStr())

	assert.Equal(t, "STRING", call(t, tbl, "apoc", "meta.type", value.Str("x")).AsStr())
	assert.Equal(t, "INTEGER", call(t, tbl, "apoc", "meta.type", value.Int(1)).AsStr())
}

func TestApocSchemaNodesAndRelationships(t *testing.T) {
	tbl := APOC(seededGraph(t))

	nodes := call(t, tbl, "apoc", "schema.nodes")
	require.Len(t, nodes.AsList(), 2)

	rels := call(t, tbl, "apoc", "schema.relationships")
	require.Len(t, rels.AsList(), 1)
	entry := rels.AsList()[0].AsMap()
	typ, _ := entry.Get("type")
	assert.Equal(t, "KNOWS", typ.AsStr())
}

func TestApocLabelHasOnNode(t *testing.T) {
	tbl := APOC(seededGraph(t))
	n := value.NewNode("x", []string{"Person", "Employee"}, nil)
	nv := value.NodeVal(n)

	assert.True(t, call(t, tbl, "apoc", "label.has", nv, value.Str("Person")).AsBool())
	assert.False(t, call(t, tbl, "apoc", "label.has", nv, value.Str("Company")).AsBool())
	assert.True(t, call(t, tbl, "apoc", "label.hasAny", nv,
		value.List([]value.Value{value.Str("Company"), value.Str("Person")})).AsBool())
	assert.True(t, call(t, tbl, "apoc", "label.hasAll", nv,
		value.List([]value.Value{value.Str("Person"), value.Str("Employee")})).AsBool())
}

// sanity: APOC table composes with StandardLibrary without name
// collisions, since APOC registers everything under the "apoc"
// namespace.
func TestAPOCMergesWithStandardLibrary(t *testing.T) {
	combined := StandardLibrary().Merge(APOC(seededGraph(t)))
	_, ok := combined.Lookup("", "size", 1)
	assert.True(t, ok)
	_, ok = combined.Lookup("apoc", "label.list", 0)
	assert.True(t, ok)
}
