package procedure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/value"
)

func call(t *testing.T, tbl *Table, namespace, name string, args ...value.Value) value.Value {
	t.Helper()
	d, ok := tbl.Lookup(namespace, name, len(args))
	require.Truef(t, ok, "no descriptor for %s.%s/%d", namespace, name, len(args))
	v, err := d.Fn(&expr.ExecutionContext{}, args)
	require.NoError(t, err)
	return v
}

func TestListFunctions(t *testing.T) {
	tbl := StandardLibrary()
	list := value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3)})

	assert.Equal(t, int64(3), call(t, tbl, "", "size", list).AsInt())
	assert.Equal(t, int64(1), call(t, tbl, "", "head", list).AsInt())
	assert.Equal(t, int64(3), call(t, tbl, "", "last", list).AsInt())

	tail := call(t, tbl, "", "tail", list)
	require.Len(t, tail.AsList(), 2)
	assert.Equal(t, int64(2), tail.AsList()[0].AsInt())

	rev := call(t, tbl, "", "reverse", list)
	assert.Equal(t, int64(3), rev.AsList()[0].AsInt())

	rng := call(t, tbl, "", "range", value.Int(1), value.Int(5))
	require.Len(t, rng.AsList(), 5)
	assert.Equal(t, int64(5), rng.AsList()[4].AsInt())
}

func TestStringFunctions(t *testing.T) {
	tbl := StandardLibrary()
	assert.Equal(t, "HELLO", call(t, tbl, "", "toUpper", value.Str("hello")).AsStr())
	assert.Equal(t, "hello", call(t, tbl, "", "toLower", value.Str("HELLO")).AsStr())
	assert.Equal(t, "hi", call(t, tbl, "", "trim", value.Str("  hi  ")).AsStr())
	assert.Equal(t, "hxllo", call(t, tbl, "", "replace", value.Str("hello"), value.Str("e"), value.Str("x")).AsStr())
	assert.Equal(t, "ell", call(t, tbl, "", "substring", value.Str("hello"), value.Int(1), value.Int(3)).AsStr())
	assert.Equal(t, "he", call(t, tbl, "", "left", value.Str("hello"), value.Int(2)).AsStr())
	assert.Equal(t, "lo", call(t, tbl, "", "right", value.Str("hello"), value.Int(2)).AsStr())

	parts := call(t, tbl, "", "split", value.Str("a,b,c"), value.Str(","))
	require.Len(t, parts.AsList(), 3)
	assert.Equal(t, "b", parts.AsList()[1].AsStr())
}

func TestNumericFunctions(t *testing.T) {
	tbl := StandardLibrary()
	assert.Equal(t, int64(5), call(t, tbl, "", "abs", value.Int(-5)).AsInt())
	assert.Equal(t, int64(3), call(t, tbl, "", "ceil", value.Float(2.1)).AsInt())
	assert.Equal(t, int64(2), call(t, tbl, "", "floor", value.Float(2.9)).AsInt())
	assert.Equal(t, int64(3), call(t, tbl, "", "round", value.Float(2.5)).AsInt())
	assert.Equal(t, int64(-1), call(t, tbl, "", "sign", value.Int(-7)).AsInt())
}

func TestPredicateFunctions(t *testing.T) {
	tbl := StandardLibrary()
	assert.True(t, call(t, tbl, "", "exists", value.Int(1)).AsBool())
	assert.False(t, call(t, tbl, "", "exists", value.Null).AsBool())

	got := call(t, tbl, "", "coalesce", value.Null, value.Null, value.Str("x"))
	assert.Equal(t, "x", got.AsStr())
}

func TestScalarFunctions(t *testing.T) {
	tbl := StandardLibrary()
	n := value.NewNode("n1", []string{"Person"}, nil)
	n.Properties.Set("name", value.Str("Ada"))
	nv := value.NodeVal(n)

	assert.Equal(t, "n1", call(t, tbl, "", "id", nv).AsStr())
	labels := call(t, tbl, "", "labels", nv)
	require.Len(t, labels.AsList(), 1)
	assert.Equal(t, "Person", labels.AsList()[0].AsStr())

	keys := call(t, tbl, "", "keys", nv)
	require.Len(t, keys.AsList(), 1)
	assert.Equal(t, "name", keys.AsList()[0].AsStr())

	props := call(t, tbl, "", "properties", nv)
	name, ok := props.AsMap().Get("name")
	require.True(t, ok)
	assert.Equal(t, "Ada", name.AsStr())
}

func TestCountAggregatesAllNonNull(t *testing.T) {
	tbl := StandardLibrary()
	d, ok := tbl.Lookup("", "count", 1)
	require.True(t, ok)
	require.True(t, d.Aggregating())

	agg := d.NewAgg()
	require.NoError(t, agg.Accumulate([]value.Value{value.Int(1)}))
	require.NoError(t, agg.Accumulate([]value.Value{value.Null}))
	require.NoError(t, agg.Accumulate([]value.Value{value.Int(2)}))

	result, err := agg.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.AsInt())
}

func TestSumAvgMinMaxCollect(t *testing.T) {
	tbl := StandardLibrary()
	vals := []value.Value{value.Int(3), value.Int(1), value.Int(4), value.Int(1)}

	sumD, _ := tbl.Lookup("", "sum", 1)
	sum := sumD.NewAgg()
	for _, v := range vals {
		require.NoError(t, sum.Accumulate([]value.Value{v}))
	}
	res, err := sum.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.AsInt())

	avgD, _ := tbl.Lookup("", "avg", 1)
	avg := avgD.NewAgg()
	for _, v := range vals {
		require.NoError(t, avg.Accumulate([]value.Value{v}))
	}
	res, err = avg.Result()
	require.NoError(t, err)
	assert.InDelta(t, 2.25, res.AsFloat(), 0.0001)

	minD, _ := tbl.Lookup("", "min", 1)
	min := minD.NewAgg()
	for _, v := range vals {
		require.NoError(t, min.Accumulate([]value.Value{v}))
	}
	res, err = min.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.AsInt())

	maxD, _ := tbl.Lookup("", "max", 1)
	maxAgg := maxD.NewAgg()
	for _, v := range vals {
		require.NoError(t, maxAgg.Accumulate([]value.Value{v}))
	}
	res, err = maxAgg.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.AsInt())

	collectD, _ := tbl.Lookup("", "collect", 1)
	coll := collectD.NewAgg()
	for _, v := range vals {
		require.NoError(t, coll.Accumulate([]value.Value{v}))
	}
	res, err = coll.Result()
	require.NoError(t, err)
	require.Len(t, res.AsList(), 4)
}
