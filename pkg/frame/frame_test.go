package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/value"
)

func newExec() *expr.ExecutionContext {
	return &expr.ExecutionContext{Params: map[string]value.Value{}}
}

func peopleFrame() DataFrame {
	schema := NewSchema(Column{Name: "name", Type: value.TypeString}, Column{Name: "age", Type: value.TypeInteger})
	rows := []Row{
		NewRow(value.Str("Ada"), value.Int(36)),
		NewRow(value.Str("Bob"), value.Int(24)),
		NewRow(value.Str("Cy"), value.Null),
		NewRow(value.Str("Ada"), value.Int(36)),
	}
	return New(schema, rows)
}

func TestProjectInfersTypes(t *testing.T) {
	df := peopleFrame()
	items := []ProjectItem{{Alias: "n", Expr: expr.Variable{Name: "name"}}}
	out, err := df.Project(items, newExec())
	require.NoError(t, err)
	assert.Equal(t, value.TypeString, out.Schema.Columns[0].Type)
	assert.Equal(t, value.Str("Ada"), out.Rows[0].Values[0])
}

func TestFilterDropsFalseAndNull(t *testing.T) {
	df := peopleFrame()
	pred := expr.Comparison{Op: expr.OpGreaterThan, Left: expr.Variable{Name: "age"}, Right: expr.IntegerLiteral{Value: 30}}
	out, err := df.Filter(pred, newExec())
	require.NoError(t, err)
	assert.Len(t, out.Rows, 2) // Ada, Ada (age 36); Bob and Cy (null age) excluded
}

func TestDistinctPreservesFirstOccurrence(t *testing.T) {
	df := peopleFrame()
	out := df.Distinct()
	assert.Len(t, out.Rows, 3)
	assert.Equal(t, value.Str("Ada"), out.Rows[0].Values[0])
}

func TestSkipTakeRejectNegative(t *testing.T) {
	df := peopleFrame()
	_, err := df.Skip(-1)
	assert.Error(t, err)
	_, err = df.Take(-1)
	assert.Error(t, err)
}

func TestSkipTake(t *testing.T) {
	df := peopleFrame()
	out, err := df.Skip(1)
	require.NoError(t, err)
	assert.Len(t, out.Rows, 3)

	out, err = out.Take(1)
	require.NoError(t, err)
	assert.Len(t, out.Rows, 1)
	assert.Equal(t, value.Str("Bob"), out.Rows[0].Values[0])
}

func TestOrderByNullsLastAscending(t *testing.T) {
	df := peopleFrame()
	keys := []OrderKey{{Expr: expr.Variable{Name: "age"}}}
	out, err := df.OrderBy(keys, newExec())
	require.NoError(t, err)
	last := out.Rows[len(out.Rows)-1]
	assert.True(t, last.Values[1].IsNull())
	assert.Equal(t, value.Int(24), out.Rows[0].Values[1])
}

func TestGroupByCountStar(t *testing.T) {
	df := peopleFrame()
	groupings := []ProjectItem{{Alias: "name", Expr: expr.Variable{Name: "name"}}}
	aggs := []ProjectItem{{Alias: "c", Expr: expr.CountStar{}}}
	out, err := df.GroupBy(groupings, aggs, newExec())
	require.NoError(t, err)
	assert.Len(t, out.Rows, 3)
	for _, row := range out.Rows {
		if row.Values[0].AsStr() == "Ada" {
			assert.Equal(t, value.Int(2), row.Values[1])
		}
	}
}

func TestGroupByEmptyInputStillEmitsOneRow(t *testing.T) {
	empty := New(peopleFrame().Schema, nil)
	aggs := []ProjectItem{{Alias: "c", Expr: expr.CountStar{}}}
	out, err := empty.GroupBy(nil, aggs, newExec())
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, value.Int(0), out.Rows[0].Values[0])
}

func TestJoinInnerAndLeftOuter(t *testing.T) {
	left := New(
		NewSchema(Column{Name: "id", Type: value.TypeInteger}),
		[]Row{NewRow(value.Int(1)), NewRow(value.Int(2))},
	)
	right := New(
		NewSchema(Column{Name: "id", Type: value.TypeInteger}, Column{Name: "label", Type: value.TypeString}),
		[]Row{NewRow(value.Int(1), value.Str("one"))},
	)
	inner, err := left.Join(right, []string{"id"}, InnerJoin)
	require.NoError(t, err)
	assert.Len(t, inner.Rows, 1)

	outer, err := left.Join(right, []string{"id"}, LeftOuterJoin)
	require.NoError(t, err)
	require.Len(t, outer.Rows, 2)
	assert.True(t, outer.Rows[1].Values[2].IsNull())
}
