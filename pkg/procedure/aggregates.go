package procedure

import (
	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// registerAggregates wires count/sum/avg/min/max/collect as
// NewAgg-backed Descriptors, grounded on the teacher's ComputeAggregation
// switch (antlr/expression.go) but split into one Aggregator per call
// per the Descriptor.NewAgg contract (pkg/expr/context.go), rather than
// a funcName dispatch re-walking the whole group on every call.
func registerAggregates(t *Table) {
	t.register(expr.Descriptor{Name: "count", Arity: 1, NewAgg: func() expr.Aggregator { return &countAgg{} }})
	t.register(expr.Descriptor{Name: "sum", Arity: 1, NewAgg: func() expr.Aggregator { return &sumAgg{} }})
	t.register(expr.Descriptor{Name: "avg", Arity: 1, NewAgg: func() expr.Aggregator { return &avgAgg{} }})
	t.register(expr.Descriptor{Name: "min", Arity: 1, NewAgg: func() expr.Aggregator { return &minMaxAgg{wantMax: false} }})
	t.register(expr.Descriptor{Name: "max", Arity: 1, NewAgg: func() expr.Aggregator { return &minMaxAgg{wantMax: true} }})
	t.register(expr.Descriptor{Name: "collect", Arity: 1, NewAgg: func() expr.Aggregator { return &collectAgg{} }})
}

// countAgg counts non-null argument values. COUNT(*) is handled
// separately by expr.AggregateEval (it never has an argument to
// evaluate), matching the teacher's isCountAll branch.
type countAgg struct{ n int64 }

func (a *countAgg) Accumulate(args []value.Value) error {
	if len(args) > 0 && !args[0].IsNull() {
		a.n++
	}
	return nil
}
func (a *countAgg) Result() (value.Value, error) { return value.Int(a.n), nil }

type sumAgg struct {
	sum      float64
	anyFloat bool
}

func (a *sumAgg) Accumulate(args []value.Value) error {
	if len(args) == 0 || args[0].IsNull() {
		return nil
	}
	v := args[0]
	if !v.IsNumeric() {
		return lyerr.TypeMismatch("sum() requires a numeric argument, got %v", v.Kind())
	}
	if v.Kind() == value.KindFloat {
		a.anyFloat = true
	}
	a.sum += v.AsFloat64()
	return nil
}
func (a *sumAgg) Result() (value.Value, error) {
	if a.anyFloat {
		return value.Float(a.sum), nil
	}
	return value.Int(int64(a.sum)), nil
}

type avgAgg struct {
	sum   float64
	count int64
}

func (a *avgAgg) Accumulate(args []value.Value) error {
	if len(args) == 0 || args[0].IsNull() {
		return nil
	}
	v := args[0]
	if !v.IsNumeric() {
		return lyerr.TypeMismatch("avg() requires a numeric argument, got %v", v.Kind())
	}
	a.sum += v.AsFloat64()
	a.count++
	return nil
}
func (a *avgAgg) Result() (value.Value, error) {
	if a.count == 0 {
		return value.Null, nil
	}
	return value.Float(a.sum / float64(a.count)), nil
}

type minMaxAgg struct {
	wantMax bool
	have    bool
	best    value.Value
}

func (a *minMaxAgg) Accumulate(args []value.Value) error {
	if len(args) == 0 || args[0].IsNull() {
		return nil
	}
	v := args[0]
	if !a.have {
		a.best, a.have = v, true
		return nil
	}
	cmp, ok := value.Compare(v, a.best)
	if !ok {
		return nil
	}
	if (a.wantMax && cmp > 0) || (!a.wantMax && cmp < 0) {
		a.best = v
	}
	return nil
}
func (a *minMaxAgg) Result() (value.Value, error) {
	if !a.have {
		return value.Null, nil
	}
	return a.best, nil
}

type collectAgg struct{ items []value.Value }

func (a *collectAgg) Accumulate(args []value.Value) error {
	if len(args) > 0 && !args[0].IsNull() {
		a.items = append(a.items, args[0])
	}
	return nil
}
func (a *collectAgg) Result() (value.Value, error) { return value.List(a.items), nil }
