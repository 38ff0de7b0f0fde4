package cyparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/lynxcore/pkg/expr"
)

func TestLexBasicTokens(t *testing.T) {
	tokens, err := Lex(`MATCH (n:Person {name: "Ada"}) WHERE n.age >= 30 RETURN n.name`)
	require.NoError(t, err)
	require.NotEmpty(t, tokens)
	assert.Equal(t, TokKeyword, tokens[0].Kind)
	assert.Equal(t, "MATCH", tokens[0].Text)
	assert.Equal(t, TokEOF, tokens[len(tokens)-1].Kind)
}

func TestLexParameterAndNumbers(t *testing.T) {
	tokens, err := Lex(`$limit 3 3.14 1e3`)
	require.NoError(t, err)
	require.Len(t, tokens, 5) // parameter, int, float, float, EOF
	assert.Equal(t, TokParameter, tokens[0].Kind)
	assert.Equal(t, "limit", tokens[0].Text)
	assert.Equal(t, TokInteger, tokens[1].Kind)
	assert.Equal(t, int64(3), tokens[1].IntVal)
	assert.Equal(t, TokFloat, tokens[2].Kind)
	assert.InDelta(t, 3.14, tokens[2].FloatVal, 0.0001)
	assert.Equal(t, TokFloat, tokens[3].Kind)
	assert.InDelta(t, 1000.0, tokens[3].FloatVal, 0.0001)
}

func TestParseExpressionArithmeticPrecedence(t *testing.T) {
	e, err := ParseExpression("1 + 2 * 3")
	require.NoError(t, err)
	arith, ok := e.(expr.Arithmetic)
	require.True(t, ok)
	assert.Equal(t, expr.OpAdd, arith.Op)
	right, ok := arith.Right.(expr.Arithmetic)
	require.True(t, ok)
	assert.Equal(t, expr.OpMultiply, right.Op)
}

func TestParseExpressionComparisonAndBoolean(t *testing.T) {
	e, err := ParseExpression("a.age >= 30 AND NOT a.retired")
	require.NoError(t, err)
	and, ok := e.(expr.And)
	require.True(t, ok)
	_, ok = and.Left.(expr.Comparison)
	require.True(t, ok)
	not, ok := and.Right.(expr.Not)
	require.True(t, ok)
	_, ok = not.Operand.(expr.Property)
	assert.True(t, ok)
}

func TestParseExpressionStringPredicatesAndIn(t *testing.T) {
	e, err := ParseExpression(`a.name STARTS WITH "A"`)
	require.NoError(t, err)
	sp, ok := e.(expr.StringPredicate)
	require.True(t, ok)
	assert.Equal(t, expr.OpStartsWith, sp.Op)

	e, err = ParseExpression("a.id IN [1, 2, 3]")
	require.NoError(t, err)
	in, ok := e.(expr.In)
	require.True(t, ok)
	list, ok := in.Right.(expr.ListLiteral)
	require.True(t, ok)
	assert.Len(t, list.Items, 3)
}

func TestParseExpressionFunctionCallAndCountStar(t *testing.T) {
	e, err := ParseExpression("toUpper(a.name)")
	require.NoError(t, err)
	inv, ok := e.(expr.ProcedureExpression)
	require.True(t, ok)
	assert.Equal(t, "toUpper", inv.Invocation.Name)
	require.Len(t, inv.Invocation.Args, 1)

	e, err = ParseExpression("count(*)")
	require.NoError(t, err)
	_, ok = e.(expr.CountStar)
	assert.True(t, ok)

	e, err = ParseExpression("apoc.label.list()")
	require.NoError(t, err)
	apocInv, ok := e.(expr.ProcedureExpression)
	require.True(t, ok)
	assert.Equal(t, "apoc.label", apocInv.Invocation.Namespace)
	assert.Equal(t, "list", apocInv.Invocation.Name)
}

func TestParseExpressionCase(t *testing.T) {
	e, err := ParseExpression(`CASE WHEN a.age < 18 THEN "minor" ELSE "adult" END`)
	require.NoError(t, err)
	c, ok := e.(expr.CaseExpression)
	require.True(t, ok)
	require.Len(t, c.Alternatives, 1)
	assert.NotNil(t, c.Default)
}

func TestParseSimpleMatchReturn(t *testing.T) {
	q, err := Parse(`MATCH (a:Person)-[:KNOWS]->(b:Person) WHERE a.name = "Ada" RETURN b.name AS name`)
	require.NoError(t, err)
	require.Len(t, q.Parts, 1)
	require.Len(t, q.Parts[0].Clauses, 2)

	match, ok := q.Parts[0].Clauses[0].(MatchClause)
	require.True(t, ok)
	require.Len(t, match.Patterns, 1)
	elem := match.Patterns[0].Elements[0]
	require.Len(t, elem.Nodes, 2)
	require.Len(t, elem.Rels, 1)
	assert.Equal(t, "a", elem.Nodes[0].Variable)
	assert.Equal(t, []string{"Person"}, elem.Nodes[0].Labels)
	assert.Equal(t, DirOut, elem.Rels[0].Dir)
	assert.Equal(t, []string{"KNOWS"}, elem.Rels[0].Types)
	assert.NotNil(t, match.Where)

	ret, ok := q.Parts[0].Clauses[1].(ReturnClause)
	require.True(t, ok)
	require.Len(t, ret.Items, 1)
	assert.Equal(t, "name", ret.Items[0].Alias)
}

func TestParseOptionalMatchVariableLengthPath(t *testing.T) {
	q, err := Parse(`OPTIONAL MATCH (a)-[:KNOWS*1..3]->(b) RETURN a, b`)
	require.NoError(t, err)
	match := q.Parts[0].Clauses[0].(MatchClause)
	assert.True(t, match.Optional)
	rel := match.Patterns[0].Elements[0].Rels[0]
	assert.True(t, rel.Quantified)
	assert.Equal(t, 1, rel.MinHops)
	assert.Equal(t, 3, rel.MaxHops)
}

func TestParseCreateAndSetAndDelete(t *testing.T) {
	q, err := Parse(`CREATE (n:Person {name: "Ada"}) SET n.age = 36, n:Scientist DETACH DELETE n`)
	require.NoError(t, err)
	require.Len(t, q.Parts[0].Clauses, 3)

	create := q.Parts[0].Clauses[0].(CreateClause)
	require.Len(t, create.Patterns, 1)

	set := q.Parts[0].Clauses[1].(SetClause)
	require.Len(t, set.Items, 2)
	assert.Equal(t, "age", set.Items[0].Target.(expr.Property).Key)
	assert.Equal(t, []string{"Scientist"}, set.Items[1].Labels)

	del := q.Parts[0].Clauses[2].(DeleteClause)
	assert.True(t, del.Detach)
	require.Len(t, del.Expressions, 1)
}

func TestParseMergeWithOnCreateOnMatch(t *testing.T) {
	q, err := Parse(`MERGE (n:Person {name: "Ada"}) ON CREATE SET n.created = true ON MATCH SET n.seen = true`)
	require.NoError(t, err)
	merge := q.Parts[0].Clauses[0].(MergeClause)
	require.Len(t, merge.Actions, 2)
	assert.True(t, merge.Actions[0].OnCreate)
	assert.False(t, merge.Actions[1].OnCreate)
}

func TestParseUnwindWithClauseAndOrderBy(t *testing.T) {
	q, err := Parse(`UNWIND [1, 2, 3] AS x WITH x ORDER BY x DESC LIMIT 2 RETURN x`)
	require.NoError(t, err)
	require.Len(t, q.Parts[0].Clauses, 3)

	unwind := q.Parts[0].Clauses[0].(UnwindClause)
	assert.Equal(t, "x", unwind.Alias)

	with := q.Parts[0].Clauses[1].(WithClause)
	require.Len(t, with.OrderBy, 1)
	assert.True(t, with.OrderBy[0].Descending)
	assert.NotNil(t, with.Limit)
}

func TestParseUnionAll(t *testing.T) {
	q, err := Parse(`MATCH (n:Person) RETURN n.name UNION ALL MATCH (n:Company) RETURN n.name`)
	require.NoError(t, err)
	require.Len(t, q.Parts, 2)
	require.Len(t, q.UnionAll, 1)
	assert.True(t, q.UnionAll[0])
}

func TestParseCallYield(t *testing.T) {
	q, err := Parse(`CALL apoc.label.list() YIELD label RETURN label`)
	require.NoError(t, err)
	require.Len(t, q.Parts[0].Clauses, 2)

	call := q.Parts[0].Clauses[0].(CallClause)
	assert.Equal(t, "apoc.label", call.Invocation.Namespace)
	assert.Equal(t, "list", call.Invocation.Name)
	assert.Equal(t, []string{"label"}, call.Yield)
}

func TestParseReturnStarAndDistinct(t *testing.T) {
	q, err := Parse(`MATCH (n) RETURN DISTINCT *`)
	require.NoError(t, err)
	ret := q.Parts[0].Clauses[1].(ReturnClause)
	assert.True(t, ret.Distinct)
	assert.True(t, ret.Star)
}
