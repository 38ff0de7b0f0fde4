package procedure

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// StandardLibrary returns the built-in function and aggregate table
// every runner.New call wires into its expr.ExecutionContext, grounded
// on the teacher's antlr/expression.go evaluateBuiltInFunction/
// ComputeAggregation switch statements. Where that switch fell back to
// Go's fmt.Sprintf("%v", ...) or silently returned nil on a type
// mismatch, these rewrite to typed value.Value handling and an
// explicit lyerr.TypeMismatch, matching the tagged-union the REDESIGN
// FLAGS item asked for instead of carrying the map[string]interface{}
// coercions forward.
func StandardLibrary() *Table {
	t := NewTable()
	registerListFns(t)
	registerStringFns(t)
	registerNumericFns(t)
	registerPredicateFns(t)
	registerScalarFns(t)
	registerTemporalFns(t)
	registerAggregates(t)
	return t
}

func fn(name string, arity int, f expr.ScalarFn) expr.Descriptor {
	return expr.Descriptor{Name: name, Arity: arity, Fn: f}
}

func requireList(v value.Value, fname string) ([]value.Value, error) {
	if v.Kind() != value.KindList {
		return nil, lyerr.TypeMismatch("%s() requires a list argument, got %v", fname, v.Kind())
	}
	return v.AsList(), nil
}

func requireStr(v value.Value, fname string) (string, error) {
	if v.Kind() != value.KindStr {
		return "", lyerr.TypeMismatch("%s() requires a string argument, got %v", fname, v.Kind())
	}
	return v.AsStr(), nil
}

func requireNumeric(v value.Value, fname string) (float64, error) {
	if !v.IsNumeric() {
		return 0, lyerr.TypeMismatch("%s() requires a numeric argument, got %v", fname, v.Kind())
	}
	return v.AsFloat64(), nil
}

func maybeInt(f float64) value.Value {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return value.Int(int64(f))
	}
	return value.Float(f)
}

func registerListFns(t *Table) {
	t.register(fn("size", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		switch args[0].Kind() {
		case value.KindList:
			return value.Int(int64(len(args[0].AsList()))), nil
		case value.KindStr:
			return value.Int(int64(len(args[0].AsStr()))), nil
		case value.KindNull:
			return value.Null, nil
		default:
			return value.Null, lyerr.TypeMismatch("size() requires a list or string, got %v", args[0].Kind())
		}
	}))
	t.register(fn("length", 1, mustLookupFn(t, "size")))

	t.register(fn("head", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		list, err := requireList(args[0], "head")
		if err != nil {
			return value.Null, err
		}
		if len(list) == 0 {
			return value.Null, nil
		}
		return list[0], nil
	}))
	t.register(fn("last", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		list, err := requireList(args[0], "last")
		if err != nil {
			return value.Null, err
		}
		if len(list) == 0 {
			return value.Null, nil
		}
		return list[len(list)-1], nil
	}))
	t.register(fn("tail", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		list, err := requireList(args[0], "tail")
		if err != nil {
			return value.Null, err
		}
		if len(list) <= 1 {
			return value.List(nil), nil
		}
		return value.List(append([]value.Value(nil), list[1:]...)), nil
	}))
	t.register(fn("reverse", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		list, err := requireList(args[0], "reverse")
		if err != nil {
			return value.Null, err
		}
		out := make([]value.Value, len(list))
		for i, v := range list {
			out[len(list)-1-i] = v
		}
		return value.List(out), nil
	}))
	t.register(expr.Descriptor{Name: "range", Arity: -1, Fn: func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if len(args) < 2 || len(args) > 3 {
			return value.Null, lyerr.InvalidArgument("range() takes 2 or 3 arguments, got %d", len(args))
		}
		start, err := requireNumeric(args[0], "range")
		if err != nil {
			return value.Null, err
		}
		end, err := requireNumeric(args[1], "range")
		if err != nil {
			return value.Null, err
		}
		step := 1.0
		if len(args) == 3 {
			step, err = requireNumeric(args[2], "range")
			if err != nil {
				return value.Null, err
			}
		}
		if step == 0 {
			return value.Null, lyerr.InvalidArgument("range() step must not be 0")
		}
		var out []value.Value
		if step > 0 {
			for i := start; i <= end; i += step {
				out = append(out, value.Int(int64(i)))
			}
		} else {
			for i := start; i >= end; i += step {
				out = append(out, value.Int(int64(i)))
			}
		}
		return value.List(out), nil
	}})
}

// mustLookupFn aliases one descriptor's Fn under a second name
// (length -> size) without duplicating the body.
func mustLookupFn(t *Table, name string) expr.ScalarFn {
	d, ok := t.entries[name]
	if !ok {
		panic("procedure: mustLookupFn before " + name + " registered")
	}
	return d.Fn
}

func registerStringFns(t *Table) {
	unary := func(name string, f func(string) string) {
		t.register(fn(name, 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
			s, err := requireStr(args[0], name)
			if err != nil {
				return value.Null, err
			}
			return value.Str(f(s)), nil
		}))
	}
	unary("toUpper", strings.ToUpper)
	unary("toLower", strings.ToLower)
	unary("trim", strings.TrimSpace)
	unary("ltrim", func(s string) string { return strings.TrimLeft(s, " \t\n\r") })
	unary("rtrim", func(s string) string { return strings.TrimRight(s, " \t\n\r") })

	t.register(fn("replace", 3, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		s, err := requireStr(args[0], "replace")
		if err != nil {
			return value.Null, err
		}
		old, err := requireStr(args[1], "replace")
		if err != nil {
			return value.Null, err
		}
		repl, err := requireStr(args[2], "replace")
		if err != nil {
			return value.Null, err
		}
		return value.Str(strings.ReplaceAll(s, old, repl)), nil
	}))
	t.register(fn("split", 2, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		s, err := requireStr(args[0], "split")
		if err != nil {
			return value.Null, err
		}
		sep, err := requireStr(args[1], "split")
		if err != nil {
			return value.Null, err
		}
		parts := strings.Split(s, sep)
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.Str(p)
		}
		return value.List(out), nil
	}))
	t.register(expr.Descriptor{Name: "substring", Arity: -1, Fn: func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if len(args) < 2 || len(args) > 3 {
			return value.Null, lyerr.InvalidArgument("substring() takes 2 or 3 arguments, got %d", len(args))
		}
		s, err := requireStr(args[0], "substring")
		if err != nil {
			return value.Null, err
		}
		start, err := requireNumeric(args[1], "substring")
		if err != nil {
			return value.Null, err
		}
		i := int(start)
		if i < 0 {
			i = 0
		}
		if i >= len(s) {
			return value.Str(""), nil
		}
		if len(args) == 3 {
			length, err := requireNumeric(args[2], "substring")
			if err != nil {
				return value.Null, err
			}
			n := int(length)
			if i+n > len(s) {
				n = len(s) - i
			}
			return value.Str(s[i : i+n]), nil
		}
		return value.Str(s[i:]), nil
	}})
	t.register(fn("left", 2, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		s, err := requireStr(args[0], "left")
		if err != nil {
			return value.Null, err
		}
		n, err := requireNumeric(args[1], "left")
		if err != nil {
			return value.Null, err
		}
		i := int(n)
		if i >= len(s) {
			return value.Str(s), nil
		}
		if i < 0 {
			i = 0
		}
		return value.Str(s[:i]), nil
	}))
	t.register(fn("right", 2, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		s, err := requireStr(args[0], "right")
		if err != nil {
			return value.Null, err
		}
		n, err := requireNumeric(args[1], "right")
		if err != nil {
			return value.Null, err
		}
		i := int(n)
		if i >= len(s) {
			return value.Str(s), nil
		}
		if i < 0 {
			i = 0
		}
		return value.Str(s[len(s)-i:]), nil
	}))
}

func registerNumericFns(t *Table) {
	t.register(fn("abs", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		f, err := requireNumeric(args[0], "abs")
		if err != nil {
			return value.Null, err
		}
		return maybeInt(math.Abs(f)), nil
	}))
	t.register(fn("ceil", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		f, err := requireNumeric(args[0], "ceil")
		if err != nil {
			return value.Null, err
		}
		return value.Int(int64(math.Ceil(f))), nil
	}))
	t.register(fn("floor", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		f, err := requireNumeric(args[0], "floor")
		if err != nil {
			return value.Null, err
		}
		return value.Int(int64(math.Floor(f))), nil
	}))
	t.register(fn("round", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		f, err := requireNumeric(args[0], "round")
		if err != nil {
			return value.Null, err
		}
		return value.Int(int64(math.Floor(f + 0.5))), nil
	}))
	t.register(fn("sign", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		f, err := requireNumeric(args[0], "sign")
		if err != nil {
			return value.Null, err
		}
		switch {
		case f > 0:
			return value.Int(1), nil
		case f < 0:
			return value.Int(-1), nil
		default:
			return value.Int(0), nil
		}
	}))
	t.register(expr.Descriptor{Name: "rand", Arity: 0, Fn: func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		return value.Float(rand.Float64()), nil
	}})

	trig := func(name string, f func(float64) float64) {
		t.register(fn(name, 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
			v, err := requireNumeric(args[0], name)
			if err != nil {
				return value.Null, err
			}
			return value.Float(f(v)), nil
		}))
	}
	trig("sqrt", math.Sqrt)
	trig("log", math.Log)
	trig("log10", math.Log10)
	trig("exp", math.Exp)
	trig("sin", math.Sin)
	trig("cos", math.Cos)
	trig("tan", math.Tan)
	trig("asin", math.Asin)
	trig("acos", math.Acos)
	trig("atan", math.Atan)

	t.register(fn("atan2", 2, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		y, err := requireNumeric(args[0], "atan2")
		if err != nil {
			return value.Null, err
		}
		x, err := requireNumeric(args[1], "atan2")
		if err != nil {
			return value.Null, err
		}
		return value.Float(math.Atan2(y, x)), nil
	}))
	t.register(expr.Descriptor{Name: "pi", Arity: 0, Fn: func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		return value.Float(math.Pi), nil
	}})
	t.register(expr.Descriptor{Name: "e", Arity: 0, Fn: func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		return value.Float(math.E), nil
	}})
}

func registerPredicateFns(t *Table) {
	t.register(fn("exists", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		return value.Bool(!args[0].IsNull()), nil
	}))
	t.register(expr.Descriptor{Name: "coalesce", Arity: -1, Fn: func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		for _, a := range args {
			if !a.IsNull() {
				return a, nil
			}
		}
		return value.Null, nil
	}})
}

func registerScalarFns(t *Table) {
	t.register(fn("toInteger", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		switch args[0].Kind() {
		case value.KindInt:
			return args[0], nil
		case value.KindFloat:
			return value.Int(int64(args[0].AsFloat())), nil
		case value.KindStr:
			i, err := parseInt(args[0].AsStr())
			if err != nil {
				return value.Null, nil
			}
			return value.Int(i), nil
		case value.KindNull:
			return value.Null, nil
		default:
			return value.Null, lyerr.TypeMismatch("toInteger() cannot convert %v", args[0].Kind())
		}
	}))
	t.register(fn("toFloat", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		switch args[0].Kind() {
		case value.KindInt, value.KindFloat:
			return value.Float(args[0].AsFloat64()), nil
		case value.KindStr:
			f, err := parseFloat(args[0].AsStr())
			if err != nil {
				return value.Null, nil
			}
			return value.Float(f), nil
		case value.KindNull:
			return value.Null, nil
		default:
			return value.Null, lyerr.TypeMismatch("toFloat() cannot convert %v", args[0].Kind())
		}
	}))
	t.register(fn("toString", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if args[0].IsNull() {
			return value.Null, nil
		}
		return value.Str(args[0].String()), nil
	}))
	t.register(fn("toBoolean", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		switch args[0].Kind() {
		case value.KindBool:
			return args[0], nil
		case value.KindStr:
			switch strings.ToLower(args[0].AsStr()) {
			case "true":
				return value.Bool(true), nil
			case "false":
				return value.Bool(false), nil
			default:
				return value.Null, nil
			}
		case value.KindNull:
			return value.Null, nil
		default:
			return value.Null, lyerr.TypeMismatch("toBoolean() cannot convert %v", args[0].Kind())
		}
	}))

	t.register(fn("id", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		switch args[0].Kind() {
		case value.KindNode:
			return value.Str(string(args[0].AsNode().ID)), nil
		case value.KindRel:
			return value.Str(string(args[0].AsRel().ID)), nil
		default:
			return value.Null, lyerr.TypeMismatch("id() requires a node or relationship, got %v", args[0].Kind())
		}
	}))
	t.register(fn("labels", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if args[0].Kind() != value.KindNode {
			return value.Null, lyerr.TypeMismatch("labels() requires a node, got %v", args[0].Kind())
		}
		ls := args[0].AsNode().Labels
		out := make([]value.Value, len(ls))
		for i, l := range ls {
			out[i] = value.Str(l)
		}
		return value.List(out), nil
	}))
	t.register(fn("type", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if args[0].Kind() != value.KindRel {
			return value.Null, lyerr.TypeMismatch("type() requires a relationship, got %v", args[0].Kind())
		}
		return value.Str(args[0].AsRel().Type), nil
	}))
	t.register(fn("keys", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		props, err := propsOf(args[0])
		if err != nil {
			return value.Null, err
		}
		keys := props.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.Str(k)
		}
		return value.List(out), nil
	}))
	t.register(fn("properties", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		props, err := propsOf(args[0])
		if err != nil {
			return value.Null, err
		}
		return value.Map(props.Clone()), nil
	}))
	t.register(expr.Descriptor{Name: "timestamp", Arity: 0, Fn: func(_ *expr.ExecutionContext, _ []value.Value) (value.Value, error) {
		return value.Int(time.Now().UnixMilli()), nil
	}})
}

func propsOf(v value.Value) (*value.OrderedMap, error) {
	switch v.Kind() {
	case value.KindNode:
		return v.AsNode().Properties, nil
	case value.KindRel:
		return v.AsRel().Properties, nil
	case value.KindMap:
		return v.AsMap(), nil
	default:
		return nil, lyerr.TypeMismatch("expected a node, relationship, or map, got %v", v.Kind())
	}
}

func registerTemporalFns(t *Table) {
	t.register(expr.Descriptor{Name: "date", Arity: -1, Fn: func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.DateVal(value.NewDateTime(time.Now().UTC())), nil
		}
		s, err := requireStr(args[0], "date")
		if err != nil {
			return value.Null, err
		}
		ts, err := time.Parse("2006-01-02", s)
		if err != nil {
			return value.Null, lyerr.InvalidArgument("date() could not parse %q: %v", s, err)
		}
		return value.DateVal(value.NewDateTime(ts)), nil
	}})
	t.register(expr.Descriptor{Name: "datetime", Arity: -1, Fn: func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.DateTimeVal(value.NewDateTime(time.Now().UTC())), nil
		}
		s, err := requireStr(args[0], "datetime")
		if err != nil {
			return value.Null, err
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return value.Null, lyerr.InvalidArgument("datetime() could not parse %q: %v", s, err)
		}
		return value.DateTimeVal(value.NewDateTime(ts)), nil
	}})
	t.register(expr.Descriptor{Name: "time", Arity: -1, Fn: func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.TimeVal(value.NewDateTime(time.Now().UTC())), nil
		}
		s, err := requireStr(args[0], "time")
		if err != nil {
			return value.Null, err
		}
		ts, err := time.Parse("15:04:05", s)
		if err != nil {
			return value.Null, lyerr.InvalidArgument("time() could not parse %q: %v", s, err)
		}
		return value.TimeVal(value.NewDateTime(ts)), nil
	}})
	t.register(fn("duration", 1, func(_ *expr.ExecutionContext, args []value.Value) (value.Value, error) {
		s, err := requireStr(args[0], "duration")
		if err != nil {
			return value.Null, err
		}
		d, err := parseISODuration(s)
		if err != nil {
			return value.Null, lyerr.InvalidArgument("duration() could not parse %q: %v", s, err)
		}
		return value.DurationVal(value.NewDuration(d)), nil
	}))
}
