package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustParseRFC3339(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEqualsNumericCrossType(t *testing.T) {
	assert.Equal(t, Bool(true), Equals(Int(3), Float(3.0)))
	assert.Equal(t, Bool(false), Equals(Int(3), Float(3.1)))
}

func TestEqualsNullPropagates(t *testing.T) {
	assert.True(t, Equals(Null, Null).IsNull())
	assert.True(t, Equals(Int(1), Null).IsNull())
}

func TestEqualsLists(t *testing.T) {
	a := List([]Value{Int(1), Str("x")})
	b := List([]Value{Int(1), Str("x")})
	c := List([]Value{Int(1), Str("y")})
	assert.Equal(t, Bool(true), Equals(a, b))
	assert.Equal(t, Bool(false), Equals(a, c))
}

func TestEqualsNodesByID(t *testing.T) {
	n1 := NewNode("1", []string{"Person"}, nil)
	n2 := NewNode("1", []string{"Other"}, nil)
	n3 := NewNode("2", nil, nil)
	assert.Equal(t, Bool(true), Equals(NodeVal(n1), NodeVal(n2)))
	assert.Equal(t, Bool(false), Equals(NodeVal(n1), NodeVal(n3)))
}

func TestCompareMixedFamilyIncomparable(t *testing.T) {
	_, ok := Compare(Int(1), Str("a"))
	assert.False(t, ok)
}

func TestCompareNumbers(t *testing.T) {
	c, ok := Compare(Int(1), Float(2.5))
	assert.True(t, ok)
	assert.Equal(t, -1, c)
}

func TestCompareStrings(t *testing.T) {
	c, ok := Compare(Str("apple"), Str("banana"))
	assert.True(t, ok)
	assert.Equal(t, -1, c)
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	host := map[string]any{"a": int64(1), "b": "x", "c": []any{int64(1), int64(2)}}
	v := Wrap(host)
	back := Unwrap(v)
	m, ok := back.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, int64(1), m["a"])
	assert.Equal(t, "x", m["b"])
}

func TestPathFlatten(t *testing.T) {
	a := NewNode("a", nil, nil)
	b := NewNode("b", nil, nil)
	r := NewRelationship("r1", "a", "b", "KNOWS", nil)
	p := NewPath(a).Extend(PathStep{Rel: r, Forward: true}, b)
	flat := p.Flatten()
	if assert.Len(t, flat, 3) {
		assert.Equal(t, KindNode, flat[0].Kind())
		assert.Equal(t, KindRel, flat[1].Kind())
		assert.Equal(t, KindNode, flat[2].Kind())
	}
}

func TestDateTimeComponents(t *testing.T) {
	dt := NewDateTime(mustParseRFC3339("2021-01-04T10:20:30.123456789Z"))
	v := DateTimeVal(dt)
	comp, err := v.AsTemporal().Component("week")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), comp.AsInt())

	comp, err = v.AsTemporal().Component("millisecond")
	assert.NoError(t, err)
	// millisecond is nanosecond/100000: 123456789 -> 1234.
	assert.Equal(t, int64(1234), comp.AsInt())

	_, err = v.AsTemporal().Component("bogus")
	assert.Error(t, err)
}
