package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orneryd/lynxcore/pkg/value"
)

func newCtx(vars map[string]value.Value) Context {
	exec := &ExecutionContext{Params: map[string]value.Value{}}
	return NewContext(exec, vars)
}

func TestEvalArithmeticIntegerAdd(t *testing.T) {
	v, err := Eval(Arithmetic{Op: OpAdd, Left: IntegerLiteral{Value: 2}, Right: IntegerLiteral{Value: 3}}, newCtx(nil))
	assert.NoError(t, err)
	assert.Equal(t, value.Int(5), v)
}

func TestEvalAddStringConcat(t *testing.T) {
	v, err := Eval(Arithmetic{Op: OpAdd, Left: StringLiteral{Value: "a"}, Right: StringLiteral{Value: "b"}}, newCtx(nil))
	assert.NoError(t, err)
	assert.Equal(t, value.Str("ab"), v)
}

func TestEvalAddListConcat(t *testing.T) {
	left := ListLiteral{Items: []Expr{IntegerLiteral{Value: 1}}}
	right := ListLiteral{Items: []Expr{IntegerLiteral{Value: 2}}}
	v, err := Eval(Arithmetic{Op: OpAdd, Left: left, Right: right}, newCtx(nil))
	assert.NoError(t, err)
	assert.Equal(t, value.List([]value.Value{value.Int(1), value.Int(2)}), v)
}

func TestEvalDivisionByZero(t *testing.T) {
	_, err := Eval(Arithmetic{Op: OpDivide, Left: IntegerLiteral{Value: 1}, Right: IntegerLiteral{Value: 0}}, newCtx(nil))
	assert.Error(t, err)
}

func TestEvalAndThreeValued(t *testing.T) {
	v, err := Eval(And{Left: BooleanLiteral{Value: false}, Right: NullLiteral{}}, newCtx(nil))
	assert.NoError(t, err)
	assert.Equal(t, value.Bool(false), v) // false wins regardless of null

	v, err = Eval(And{Left: BooleanLiteral{Value: true}, Right: NullLiteral{}}, newCtx(nil))
	assert.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEvalOrThreeValued(t *testing.T) {
	v, err := Eval(Or{Left: BooleanLiteral{Value: true}, Right: NullLiteral{}}, newCtx(nil))
	assert.NoError(t, err)
	assert.Equal(t, value.Bool(true), v)

	v, err = Eval(Or{Left: BooleanLiteral{Value: false}, Right: NullLiteral{}}, newCtx(nil))
	assert.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEvalVariableUnbound(t *testing.T) {
	_, err := Eval(Variable{Name: "n"}, newCtx(nil))
	assert.Error(t, err)
}

func TestEvalPropertyOnNode(t *testing.T) {
	props := value.NewOrderedMap()
	props.Set("name", value.Str("Ada"))
	node := value.NewNode("1", []string{"Person"}, props)
	ctx := newCtx(map[string]value.Value{"n": value.NodeVal(node)})
	v, err := Eval(Property{Src: Variable{Name: "n"}, Key: "name"}, ctx)
	assert.NoError(t, err)
	assert.Equal(t, value.Str("Ada"), v)
}

func TestEvalStringPredicateNullLeftIsFalse(t *testing.T) {
	v, err := Eval(StringPredicate{Op: OpContains, Left: NullLiteral{}, Right: StringLiteral{Value: "x"}}, newCtx(nil))
	assert.NoError(t, err)
	assert.Equal(t, value.Bool(false), v)
}

func TestEvalStringPredicateNullRightIsFalse(t *testing.T) {
	v, err := Eval(StringPredicate{Op: OpStartsWith, Left: StringLiteral{Value: "foo"}, Right: NullLiteral{}}, newCtx(nil))
	assert.NoError(t, err)
	assert.Equal(t, value.Bool(false), v)
}

func TestEvalRegexMatchCached(t *testing.T) {
	ctx := newCtx(nil)
	n := StringPredicate{Op: OpRegexMatch, Left: StringLiteral{Value: "hello123"}, Right: StringLiteral{Value: "^[a-z]+\\d+$"}}
	v, err := Eval(n, ctx)
	assert.NoError(t, err)
	assert.Equal(t, value.Bool(true), v)
	// second evaluation should hit the regex cache path without error
	v, err = Eval(n, ctx)
	assert.NoError(t, err)
	assert.Equal(t, value.Bool(true), v)
}

func TestEvalInWithNullPropagation(t *testing.T) {
	list := ListLiteral{Items: []Expr{IntegerLiteral{Value: 1}, NullLiteral{}}}
	v, err := Eval(In{Left: IntegerLiteral{Value: 1}, Right: list}, newCtx(nil))
	assert.NoError(t, err)
	assert.Equal(t, value.Bool(true), v)

	v, err = Eval(In{Left: IntegerLiteral{Value: 2}, Right: list}, newCtx(nil))
	assert.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEvalHasLabels(t *testing.T) {
	node := value.NewNode("1", []string{"Person", "Employee"}, nil)
	ctx := newCtx(map[string]value.Value{"n": value.NodeVal(node)})
	v, err := Eval(HasLabels{Operand: Variable{Name: "n"}, Labels: []string{"Person"}}, ctx)
	assert.NoError(t, err)
	assert.Equal(t, value.Bool(true), v)

	v, err = Eval(HasLabels{Operand: Variable{Name: "n"}, Labels: []string{"Manager"}}, ctx)
	assert.NoError(t, err)
	assert.Equal(t, value.Bool(false), v)
}

func TestEvalCaseNoSubject(t *testing.T) {
	c := CaseExpression{
		Alternatives: []CaseAlternative{
			{Predicate: BooleanLiteral{Value: false}, Result: StringLiteral{Value: "no"}},
			{Predicate: BooleanLiteral{Value: true}, Result: StringLiteral{Value: "yes"}},
		},
		Default: StringLiteral{Value: "default"},
	}
	v, err := Eval(c, newCtx(nil))
	assert.NoError(t, err)
	assert.Equal(t, value.Str("yes"), v)
}

func TestEvalCaseNullSubjectIsNull(t *testing.T) {
	c := CaseExpression{
		Subject: NullLiteral{},
		Alternatives: []CaseAlternative{
			{Predicate: IntegerLiteral{Value: 1}, Result: StringLiteral{Value: "a"}},
		},
		Default: StringLiteral{Value: "b"},
	}
	v, err := Eval(c, newCtx(nil))
	assert.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEvalCaseSubjectMatchesOnBooleanTruePredicate(t *testing.T) {
	c := CaseExpression{
		Subject: IntegerLiteral{Value: 5},
		Alternatives: []CaseAlternative{
			{Predicate: BooleanLiteral{Value: true}, Result: StringLiteral{Value: "yes"}},
		},
		Default: StringLiteral{Value: "no"},
	}
	v, err := Eval(c, newCtx(nil))
	assert.NoError(t, err)
	assert.Equal(t, value.Str("yes"), v)
}

func TestEvalCaseSubjectMatchesOnEquality(t *testing.T) {
	c := CaseExpression{
		Subject: IntegerLiteral{Value: 5},
		Alternatives: []CaseAlternative{
			{Predicate: IntegerLiteral{Value: 5}, Result: StringLiteral{Value: "yes"}},
		},
		Default: StringLiteral{Value: "no"},
	}
	v, err := Eval(c, newCtx(nil))
	assert.NoError(t, err)
	assert.Equal(t, value.Str("yes"), v)
}

func TestEvalCountStarFailsOutsideAggregateContext(t *testing.T) {
	_, err := Eval(CountStar{}, newCtx(nil))
	assert.Error(t, err)
}

func TestAggregateEvalCountStar(t *testing.T) {
	rows := []Context{newCtx(nil), newCtx(nil), newCtx(nil)}
	v, err := AggregateEval(CountStar{}, rows)
	assert.NoError(t, err)
	assert.Equal(t, value.Int(3), v)
}

type sumAggregator struct{ total int64 }

func (s *sumAggregator) Accumulate(args []value.Value) error {
	s.total += args[0].AsInt()
	return nil
}
func (s *sumAggregator) Result() (value.Value, error) { return value.Int(s.total), nil }

func TestAggregateEvalCustomAggregator(t *testing.T) {
	registry := stubRegistry{
		desc: Descriptor{Name: "sum", Arity: 1, NewAgg: func() Aggregator { return &sumAggregator{} }},
	}
	exec := &ExecutionContext{Params: map[string]value.Value{}, Procedures: registry}
	rows := []Context{
		NewContext(exec, map[string]value.Value{"x": value.Int(1)}),
		NewContext(exec, map[string]value.Value{"x": value.Int(2)}),
		NewContext(exec, map[string]value.Value{"x": value.Int(3)}),
	}
	inv := ProcedureExpression{Invocation: Invocation{Name: "sum", Args: []Expr{Variable{Name: "x"}}}}
	v, err := AggregateEval(inv, rows)
	assert.NoError(t, err)
	assert.Equal(t, value.Int(6), v)
}

type stubRegistry struct{ desc Descriptor }

func (s stubRegistry) Lookup(namespace, name string, arity int) (Descriptor, bool) {
	if name == s.desc.Name {
		return s.desc, true
	}
	return Descriptor{}, false
}

func TestTypeOfArithmetic(t *testing.T) {
	typ := TypeOf(Arithmetic{Op: OpAdd, Left: IntegerLiteral{Value: 1}, Right: IntegerLiteral{Value: 2}}, nil)
	assert.Equal(t, value.TypeInteger, typ)

	typ = TypeOf(Arithmetic{Op: OpDivide, Left: IntegerLiteral{Value: 1}, Right: IntegerLiteral{Value: 2}}, nil)
	assert.Equal(t, value.TypeInteger, typ)
}

func TestTypeOfCollectIsListOfArgType(t *testing.T) {
	inv := ProcedureExpression{Invocation: Invocation{Name: "collect", Args: []Expr{StringLiteral{Value: "x"}}}}
	typ := TypeOf(inv, nil)
	assert.True(t, value.ListType(value.TypeString).Equal(typ))
}

func TestTypeOfIdIsInteger(t *testing.T) {
	inv := ProcedureExpression{Invocation: Invocation{Name: "id", Args: []Expr{Variable{Name: "n"}}}}
	typ := TypeOf(inv, nil)
	assert.Equal(t, value.TypeInteger, typ)
}

func TestTypeOfUnknownProcedureIsAny(t *testing.T) {
	inv := ProcedureExpression{Invocation: Invocation{Name: "nope"}}
	assert.Equal(t, value.TypeAny, TypeOf(inv, nil))

	namespaced := ProcedureExpression{Invocation: Invocation{Namespace: "apoc", Name: "collect"}}
	assert.Equal(t, value.TypeAny, TypeOf(namespaced, nil))
}
