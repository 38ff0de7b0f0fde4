package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/lynxcore/pkg/graph"
	"github.com/orneryd/lynxcore/pkg/procedure"
)

func newTestRunner() (*Runner, graph.Model) {
	m := graph.NewMemory()
	procs := procedure.StandardLibrary().Merge(procedure.APOC(m))
	return New(m, procs), m
}

func mustRun(t *testing.T, r *Runner, query string, params map[string]any) *Result {
	t.Helper()
	res, err := r.Run(context.Background(), query, params)
	require.NoError(t, err)
	return res
}

func TestCreateThenMatchReturn(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `CREATE (a:Person {name: "Ada"})`, nil)

	res := mustRun(t, r, `MATCH (p:Person) RETURN p.name AS name`, nil)
	require.Len(t, res.Rows, 1)
	name, ok := res.Rows[0].Get(res.Schema, "name")
	require.True(t, ok)
	assert.Equal(t, "Ada", name.AsStr())
}

func TestMatchWithWhereFilters(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `CREATE (a:Person {name: "Ada", age: 36})`, nil)
	mustRun(t, r, `CREATE (b:Person {name: "Bert", age: 12})`, nil)

	res := mustRun(t, r, `MATCH (p:Person) WHERE p.age > 18 RETURN p.name AS name`, nil)
	require.Len(t, res.Rows, 1)
	name, _ := res.Rows[0].Get(res.Schema, "name")
	assert.Equal(t, "Ada", name.AsStr())
}

func TestCreateRelationshipAfterMatch(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `CREATE (a:Person {name: "Ada"})`, nil)
	mustRun(t, r, `CREATE (b:Person {name: "Bert"})`, nil)
	mustRun(t, r, `MATCH (a:Person {name: "Ada"}), (b:Person {name: "Bert"}) CREATE (a)-[:KNOWS]->(b)`, nil)

	res := mustRun(t, r, `MATCH (a:Person)-[:KNOWS]->(b:Person) RETURN a.name AS a, b.name AS b`, nil)
	require.Len(t, res.Rows, 1)
	a, _ := res.Rows[0].Get(res.Schema, "a")
	b, _ := res.Rows[0].Get(res.Schema, "b")
	assert.Equal(t, "Ada", a.AsStr())
	assert.Equal(t, "Bert", b.AsStr())
}

func TestMergeOnCreateAndOnMatch(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `MERGE (p:Person {name: "Ada"}) ON CREATE SET p.hits = 1 ON MATCH SET p.hits = p.hits + 1`, nil)
	res := mustRun(t, r, `MATCH (p:Person) RETURN p.hits AS hits`, nil)
	hits, _ := res.Rows[0].Get(res.Schema, "hits")
	assert.Equal(t, int64(1), hits.AsInt())

	mustRun(t, r, `MERGE (p:Person {name: "Ada"}) ON CREATE SET p.hits = 1 ON MATCH SET p.hits = p.hits + 1`, nil)
	res = mustRun(t, r, `MATCH (p:Person) RETURN p.hits AS hits`, nil)
	require.Len(t, res.Rows, 1)
	hits, _ = res.Rows[0].Get(res.Schema, "hits")
	assert.Equal(t, int64(2), hits.AsInt())
}

func TestSetPropertyAndLabelShorthand(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `CREATE (a:Person {name: "Ada"})`, nil)
	mustRun(t, r, `MATCH (a:Person) SET a.age = 36, a:Famous`, nil)

	res := mustRun(t, r, `MATCH (a:Famous) RETURN a.age AS age`, nil)
	require.Len(t, res.Rows, 1)
	age, _ := res.Rows[0].Get(res.Schema, "age")
	assert.Equal(t, int64(36), age.AsInt())
}

func TestDetachDeleteRemovesNodeAndRelationships(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `CREATE (a:Person {name: "Ada"})-[:KNOWS]->(b:Person {name: "Bert"})`, nil)
	mustRun(t, r, `MATCH (a:Person {name: "Ada"}) DETACH DELETE a`, nil)

	res := mustRun(t, r, `MATCH (p:Person) RETURN p.name AS name`, nil)
	require.Len(t, res.Rows, 1)
	name, _ := res.Rows[0].Get(res.Schema, "name")
	assert.Equal(t, "Bert", name.AsStr())
}

func TestUnwindProducesOneRowPerElement(t *testing.T) {
	r, _ := newTestRunner()
	res := mustRun(t, r, `UNWIND [1, 2, 3] AS x RETURN x`, nil)
	require.Len(t, res.Rows, 3)
	x0, _ := res.Rows[0].Get(res.Schema, "x")
	assert.Equal(t, int64(1), x0.AsInt())
}

func TestWithScopingWhereOrderBySkipLimit(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `UNWIND [3, 1, 4, 1, 5, 9, 2, 6] AS n CREATE (:Num {value: n})`, nil)

	res := mustRun(t, r, `
		MATCH (n:Num)
		WITH n.value AS v
		WHERE v > 1
		ORDER BY v DESC
		SKIP 1
		LIMIT 2
		RETURN v`, nil)
	require.Len(t, res.Rows, 2)
	v0, _ := res.Rows[0].Get(res.Schema, "v")
	v1, _ := res.Rows[1].Get(res.Schema, "v")
	assert.Equal(t, int64(6), v0.AsInt())
	assert.Equal(t, int64(5), v1.AsInt())
}

func TestUnionAllConcatenatesBothSides(t *testing.T) {
	r, _ := newTestRunner()
	res := mustRun(t, r, `RETURN 1 AS x UNION ALL RETURN 2 AS x`, nil)
	require.Len(t, res.Rows, 2)
}

func TestUnionDeduplicates(t *testing.T) {
	r, _ := newTestRunner()
	res := mustRun(t, r, `RETURN 1 AS x UNION RETURN 1 AS x`, nil)
	require.Len(t, res.Rows, 1)
}

func TestOptionalMatchNullPadsWhenNoMatch(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `CREATE (a:Person {name: "Ada"})`, nil)

	res := mustRun(t, r, `
		MATCH (a:Person)
		OPTIONAL MATCH (a)-[:KNOWS]->(b:Person)
		RETURN a.name AS a, b.name AS b`, nil)
	require.Len(t, res.Rows, 1)
	b, ok := res.Rows[0].Get(res.Schema, "b")
	require.True(t, ok)
	assert.True(t, b.IsNull())
}

func TestCallYieldUnwindsListResult(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `CREATE (a:Person)`, nil)
	mustRun(t, r, `CREATE (b:Animal)`, nil)

	res := mustRun(t, r, `CALL apoc.label.list() YIELD label RETURN label`, nil)
	var labels []string
	for _, row := range res.Rows {
		v, _ := row.Get(res.Schema, "label")
		labels = append(labels, v.AsStr())
	}
	assert.ElementsMatch(t, []string{"Person", "Animal"}, labels)
}

func TestAggregationCountStar(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `CREATE (:Person {name: "Ada"})`, nil)
	mustRun(t, r, `CREATE (:Person {name: "Bert"})`, nil)

	res := mustRun(t, r, `MATCH (p:Person) RETURN count(*) AS c`, nil)
	require.Len(t, res.Rows, 1)
	c, _ := res.Rows[0].Get(res.Schema, "c")
	assert.Equal(t, int64(2), c.AsInt())
}

func TestQueryParameters(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `CREATE (a:Person {name: $name})`, map[string]any{"name": "Ada"})

	res := mustRun(t, r, `MATCH (p:Person {name: $name}) RETURN p.name AS name`, map[string]any{"name": "Ada"})
	require.Len(t, res.Rows, 1)
}

func TestResultCacheIsIndependentCopy(t *testing.T) {
	r, _ := newTestRunner()
	mustRun(t, r, `CREATE (:Person {name: "Ada"})`, nil)
	res := mustRun(t, r, `MATCH (p:Person) RETURN p.name AS name`, nil)

	cached := res.Cache()
	res.Rows = nil
	require.Len(t, cached.Rows, 1)
}
