package expr

import (
	"math"
	"strings"

	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Eval evaluates e in a single-row Context. CountStar and any
// ProcedureExpression naming an aggregating Descriptor are rejected
// here; AggregateEval is the only entry point that can fold rows, per
// the REDESIGN FLAGS split between row-scalar and aggregating
// evaluation.
func Eval(e Expr, ctx Context) (value.Value, error) {
	switch n := e.(type) {
	case constLiteral:
		return n.v, nil
	case IntegerLiteral:
		return value.Int(n.Value), nil
	case DoubleLiteral:
		return value.Float(n.Value), nil
	case StringLiteral:
		return value.Str(n.Value), nil
	case BooleanLiteral:
		return value.Bool(n.Value), nil
	case NullLiteral:
		return value.Null, nil
	case ListLiteral:
		items := make([]value.Value, len(n.Items))
		for i, it := range n.Items {
			v, err := Eval(it, ctx)
			if err != nil {
				return value.Null, err
			}
			items[i] = v
		}
		return value.List(items), nil
	case MapExpression:
		m := value.NewOrderedMap()
		for _, entry := range n.Entries {
			v, err := Eval(entry.Value, ctx)
			if err != nil {
				return value.Null, err
			}
			m.Set(entry.Key, v)
		}
		return value.Map(m), nil
	case Variable:
		v, ok := ctx.Lookup(n.Name)
		if !ok {
			return value.Null, lyerr.UnboundVariable(n.Name)
		}
		return v, nil
	case Parameter:
		v, ok := ctx.Exec.Params[n.Name]
		if !ok {
			return value.Null, lyerr.UnknownParameter(n.Name)
		}
		return v, nil
	case Property:
		return evalProperty(n, ctx)
	case ContainerIndex:
		return evalContainerIndex(n, ctx)
	case Arithmetic:
		return evalArithmetic(n, ctx)
	case Comparison:
		return evalComparison(n, ctx)
	case And:
		return evalAnd(n.Left, n.Right, ctx)
	case Or:
		return evalOr(n.Left, n.Right, ctx)
	case Not:
		return evalNot(n.Operand, ctx)
	case Ands:
		return evalAnds(n.Operands, ctx)
	case Ors:
		return evalOrs(n.Operands, ctx)
	case IsNull:
		v, err := Eval(n.Operand, ctx)
		if err != nil {
			return value.Null, err
		}
		return value.Bool(v.IsNull()), nil
	case IsNotNull:
		v, err := Eval(n.Operand, ctx)
		if err != nil {
			return value.Null, err
		}
		return value.Bool(!v.IsNull()), nil
	case StringPredicate:
		return evalStringPredicate(n, ctx)
	case In:
		return evalIn(n, ctx)
	case HasLabels:
		return evalHasLabels(n, ctx)
	case PathExpression:
		return evalPathExpression(n.Step, ctx)
	case ProcedureExpression:
		return evalProcedure(n, ctx)
	case CaseExpression:
		return evalCase(n, ctx)
	case CountStar:
		return value.Null, lyerr.InvalidArgument("count(*) is only valid in an aggregation context")
	default:
		panic("expr: unhandled Expr in Eval")
	}
}

func evalProperty(n Property, ctx Context) (value.Value, error) {
	src, err := Eval(n.Src, ctx)
	if err != nil {
		return value.Null, err
	}
	if src.IsNull() {
		return value.Null, nil
	}
	switch src.Kind() {
	case value.KindNode:
		v, ok := src.AsNode().Property(n.Key)
		if !ok {
			return value.Null, nil
		}
		return v, nil
	case value.KindRel:
		v, ok := src.AsRel().Property(n.Key)
		if !ok {
			return value.Null, nil
		}
		return v, nil
	case value.KindMap:
		v, ok := src.AsMap().Get(n.Key)
		if !ok {
			return value.Null, nil
		}
		return v, nil
	case value.KindDate, value.KindTime, value.KindDateTime, value.KindDuration:
		v, cerr := src.AsTemporal().Component(n.Key)
		if cerr != nil {
			return value.Null, lyerr.UnsupportedTemporalAccessor(n.Key)
		}
		return v, nil
	default:
		return value.Null, lyerr.TypeMismatch("cannot access property %q of a %s value", n.Key, kindName(src))
	}
}

func evalContainerIndex(n ContainerIndex, ctx Context) (value.Value, error) {
	c, err := Eval(n.Container, ctx)
	if err != nil {
		return value.Null, err
	}
	idx, err := Eval(n.Index, ctx)
	if err != nil {
		return value.Null, err
	}
	if c.IsNull() || idx.IsNull() {
		return value.Null, nil
	}
	switch c.Kind() {
	case value.KindList:
		if !idx.IsNumeric() {
			return value.Null, lyerr.TypeMismatch("list index must be an integer, got %s", kindName(idx))
		}
		items := c.AsList()
		i := idx.AsInt()
		if idx.Kind() == value.KindFloat {
			i = int64(idx.AsFloat())
		}
		if i < 0 {
			i += int64(len(items))
		}
		if i < 0 || i >= int64(len(items)) {
			return value.Null, nil
		}
		return items[i], nil
	case value.KindMap:
		if idx.Kind() != value.KindStr {
			return value.Null, lyerr.TypeMismatch("map key must be a string, got %s", kindName(idx))
		}
		v, ok := c.AsMap().Get(idx.AsStr())
		if !ok {
			return value.Null, nil
		}
		return v, nil
	default:
		return value.Null, lyerr.TypeMismatch("cannot index into a %s value", kindName(c))
	}
}

func evalArithmetic(n Arithmetic, ctx Context) (value.Value, error) {
	l, err := Eval(n.Left, ctx)
	if err != nil {
		return value.Null, err
	}
	r, err := Eval(n.Right, ctx)
	if err != nil {
		return value.Null, err
	}
	if n.Op == OpAdd {
		if v, ok, addErr := evalAdd(l, r); ok {
			return v, addErr
		}
	}
	if l.IsNull() || r.IsNull() {
		return value.Null, nil
	}
	if !l.IsNumeric() || !r.IsNumeric() {
		return value.Null, lyerr.TypeMismatch("arithmetic operator requires numeric operands, got %s and %s", kindName(l), kindName(r))
	}
	bothInt := l.Kind() == value.KindInt && r.Kind() == value.KindInt
	switch n.Op {
	case OpSubtract:
		if bothInt {
			return value.Int(l.AsInt() - r.AsInt()), nil
		}
		return value.Float(l.AsFloat64() - r.AsFloat64()), nil
	case OpMultiply:
		if bothInt {
			return value.Int(l.AsInt() * r.AsInt()), nil
		}
		return value.Float(l.AsFloat64() * r.AsFloat64()), nil
	case OpDivide:
		if r.AsFloat64() == 0 {
			return value.Null, lyerr.InvalidArgument("division by zero")
		}
		if bothInt {
			return value.Int(l.AsInt() / r.AsInt()), nil
		}
		return value.Float(l.AsFloat64() / r.AsFloat64()), nil
	case OpModulo:
		if r.AsFloat64() == 0 {
			return value.Null, lyerr.InvalidArgument("modulo by zero")
		}
		if bothInt {
			return value.Int(l.AsInt() % r.AsInt()), nil
		}
		return value.Float(math.Mod(l.AsFloat64(), r.AsFloat64())), nil
	case OpPower:
		return value.Float(math.Pow(l.AsFloat64(), r.AsFloat64())), nil
	default:
		panic("expr: unhandled ArithOp")
	}
}

// evalAdd implements every overload of Add, mirroring Cypher's "+"
// polymorphism (spec.md design note on heterogeneous arithmetic): Null
// propagation, string concatenation (a numeric operand is rendered as
// text), list concatenation/append, and numeric addition. ok is false
// when no overload applies; the caller then reports a TypeMismatch.
func evalAdd(l, r value.Value) (value.Value, bool, error) {
	switch {
	case l.IsNull() || r.IsNull():
		return value.Null, true, nil
	case l.Kind() == value.KindStr || r.Kind() == value.KindStr:
		if l.Kind() != value.KindStr && !l.IsNumeric() {
			return value.Null, false, nil
		}
		if r.Kind() != value.KindStr && !r.IsNumeric() {
			return value.Null, false, nil
		}
		return value.Str(l.String() + r.String()), true, nil
	case l.Kind() == value.KindList && r.Kind() == value.KindList:
		return value.List(append(append([]value.Value(nil), l.AsList()...), r.AsList()...)), true, nil
	case l.Kind() == value.KindList:
		return value.List(append(append([]value.Value(nil), l.AsList()...), r)), true, nil
	case r.Kind() == value.KindList:
		return value.List(append([]value.Value{l}, r.AsList()...)), true, nil
	case l.IsNumeric() && r.IsNumeric():
		if l.Kind() == value.KindInt && r.Kind() == value.KindInt {
			return value.Int(l.AsInt() + r.AsInt()), true, nil
		}
		return value.Float(l.AsFloat64() + r.AsFloat64()), true, nil
	default:
		return value.Null, false, nil
	}
}

func evalComparison(n Comparison, ctx Context) (value.Value, error) {
	l, err := Eval(n.Left, ctx)
	if err != nil {
		return value.Null, err
	}
	r, err := Eval(n.Right, ctx)
	if err != nil {
		return value.Null, err
	}
	switch n.Op {
	case OpEquals:
		return value.Equals(l, r), nil
	case OpNotEquals:
		eq := value.Equals(l, r)
		if eq.IsNull() {
			return value.Null, nil
		}
		return value.Bool(!eq.AsBool()), nil
	default:
		c, ok := value.Compare(l, r)
		if !ok {
			return value.Null, nil
		}
		switch n.Op {
		case OpGreaterThan:
			return value.Bool(c > 0), nil
		case OpGreaterThanOrEqual:
			return value.Bool(c >= 0), nil
		case OpLessThan:
			return value.Bool(c < 0), nil
		case OpLessThanOrEqual:
			return value.Bool(c <= 0), nil
		default:
			panic("expr: unhandled CompareOp")
		}
	}
}

// evalAnd/evalOr/evalNot implement Kleene three-valued logic: a Null
// operand only infects the result when the other operand doesn't
// already settle it (false wins in And, true wins in Or).
func evalAnd(left, right Expr, ctx Context) (value.Value, error) {
	l, err := Eval(left, ctx)
	if err != nil {
		return value.Null, err
	}
	if !l.IsNull() && !l.AsBool() {
		return value.Bool(false), nil
	}
	r, err := Eval(right, ctx)
	if err != nil {
		return value.Null, err
	}
	if !r.IsNull() && !r.AsBool() {
		return value.Bool(false), nil
	}
	if l.IsNull() || r.IsNull() {
		return value.Null, nil
	}
	return value.Bool(true), nil
}

func evalOr(left, right Expr, ctx Context) (value.Value, error) {
	l, err := Eval(left, ctx)
	if err != nil {
		return value.Null, err
	}
	if !l.IsNull() && l.AsBool() {
		return value.Bool(true), nil
	}
	r, err := Eval(right, ctx)
	if err != nil {
		return value.Null, err
	}
	if !r.IsNull() && r.AsBool() {
		return value.Bool(true), nil
	}
	if l.IsNull() || r.IsNull() {
		return value.Null, nil
	}
	return value.Bool(false), nil
}

func evalNot(operand Expr, ctx Context) (value.Value, error) {
	v, err := Eval(operand, ctx)
	if err != nil {
		return value.Null, err
	}
	if v.IsNull() {
		return value.Null, nil
	}
	return value.Bool(!v.AsBool()), nil
}

func evalAnds(operands []Expr, ctx Context) (value.Value, error) {
	sawNull := false
	for _, o := range operands {
		v, err := Eval(o, ctx)
		if err != nil {
			return value.Null, err
		}
		if v.IsNull() {
			sawNull = true
			continue
		}
		if !v.AsBool() {
			return value.Bool(false), nil
		}
	}
	if sawNull {
		return value.Null, nil
	}
	return value.Bool(true), nil
}

func evalOrs(operands []Expr, ctx Context) (value.Value, error) {
	sawNull := false
	for _, o := range operands {
		v, err := Eval(o, ctx)
		if err != nil {
			return value.Null, err
		}
		if v.IsNull() {
			sawNull = true
			continue
		}
		if v.AsBool() {
			return value.Bool(true), nil
		}
	}
	if sawNull {
		return value.Null, nil
	}
	return value.Bool(false), nil
}

// evalStringPredicate implements StartsWith/EndsWith/Contains/
// RegexMatch. A Null left or right operand yields Bool(false) rather
// than Null: this preserves an observed behavior of the evaluator this
// package is grounded on rather than silently "fixing" semantics the
// spec didn't ask to change.
func evalStringPredicate(n StringPredicate, ctx Context) (value.Value, error) {
	l, err := Eval(n.Left, ctx)
	if err != nil {
		return value.Null, err
	}
	if l.IsNull() {
		return value.Bool(false), nil
	}
	r, err := Eval(n.Right, ctx)
	if err != nil {
		return value.Null, err
	}
	if r.IsNull() {
		return value.Bool(false), nil
	}
	if l.Kind() != value.KindStr || r.Kind() != value.KindStr {
		return value.Null, lyerr.TypeMismatch("string predicate requires string operands, got %s and %s", kindName(l), kindName(r))
	}
	switch n.Op {
	case OpStartsWith:
		return value.Bool(strings.HasPrefix(l.AsStr(), r.AsStr())), nil
	case OpEndsWith:
		return value.Bool(strings.HasSuffix(l.AsStr(), r.AsStr())), nil
	case OpContains:
		return value.Bool(strings.Contains(l.AsStr(), r.AsStr())), nil
	case OpRegexMatch:
		re, rerr := ctx.Exec.compileRegex(r.AsStr())
		if rerr != nil {
			return value.Null, lyerr.InvalidArgument("invalid regular expression %q: %v", r.AsStr(), rerr)
		}
		return value.Bool(re.MatchString(l.AsStr())), nil
	default:
		panic("expr: unhandled StringPredicateOp")
	}
}

func evalIn(n In, ctx Context) (value.Value, error) {
	l, err := Eval(n.Left, ctx)
	if err != nil {
		return value.Null, err
	}
	r, err := Eval(n.Right, ctx)
	if err != nil {
		return value.Null, err
	}
	if r.IsNull() {
		return value.Null, nil
	}
	if r.Kind() != value.KindList {
		return value.Null, lyerr.TypeMismatch("IN requires a list on the right-hand side, got %s", kindName(r))
	}
	sawNull := l.IsNull()
	for _, item := range r.AsList() {
		eq := value.Equals(l, item)
		if eq.IsNull() {
			sawNull = true
			continue
		}
		if eq.AsBool() {
			return value.Bool(true), nil
		}
	}
	if sawNull {
		return value.Null, nil
	}
	return value.Bool(false), nil
}

func evalHasLabels(n HasLabels, ctx Context) (value.Value, error) {
	v, err := Eval(n.Operand, ctx)
	if err != nil {
		return value.Null, err
	}
	if v.IsNull() {
		return value.Null, nil
	}
	if v.Kind() != value.KindNode {
		return value.Null, lyerr.TypeMismatch("label predicate requires a node, got %s", kindName(v))
	}
	return value.Bool(v.AsNode().HasAllLabels(n.Labels)), nil
}

func evalPathExpression(step PathStepExpr, ctx Context) (value.Value, error) {
	switch s := step.(type) {
	case NilPathStep:
		return value.Null, nil
	case NodePathStep:
		nv, err := Eval(s.Node, ctx)
		if err != nil {
			return value.Null, err
		}
		if nv.IsNull() {
			return value.Null, nil
		}
		path := value.NewPath(nv.AsNode())
		return extendPath(value.PathVal(path), s.Next, ctx)
	case SingleRelationshipPathStep:
		rv, err := Eval(s.Rel, ctx)
		if err != nil {
			return value.Null, err
		}
		nv, err := Eval(s.Node, ctx)
		if err != nil {
			return value.Null, err
		}
		if rv.IsNull() || nv.IsNull() {
			return value.Null, nil
		}
		return value.Null, lyerr.InvalidArgument("relationship path step reached before its base node was established")
	case MultiRelationshipPathStep:
		return value.Null, lyerr.InvalidArgument("variable-length path step reached before its base node was established")
	default:
		panic("expr: unhandled PathStepExpr")
	}
}

// extendPath walks the remaining steps of a path chain, appending each
// relationship/node pair onto the Path built so far.
func extendPath(acc value.Value, step PathStepExpr, ctx Context) (value.Value, error) {
	switch s := step.(type) {
	case nil, NilPathStep:
		return acc, nil
	case SingleRelationshipPathStep:
		rv, err := Eval(s.Rel, ctx)
		if err != nil {
			return value.Null, err
		}
		nv, err := Eval(s.Node, ctx)
		if err != nil {
			return value.Null, err
		}
		if rv.IsNull() || nv.IsNull() {
			return value.Null, nil
		}
		next := acc.AsPath().Extend(value.PathStep{Rel: rv.AsRel(), Forward: s.Forward}, nv.AsNode())
		return extendPath(value.PathVal(next), s.Next, ctx)
	case MultiRelationshipPathStep:
		rv, err := Eval(s.Rels, ctx)
		if err != nil {
			return value.Null, err
		}
		nv, err := Eval(s.Node, ctx)
		if err != nil {
			return value.Null, err
		}
		if rv.IsNull() || nv.IsNull() {
			return value.Null, nil
		}
		if rv.Kind() != value.KindList {
			return value.Null, lyerr.TypeMismatch("variable-length path step requires a list of relationships")
		}
		path := acc.AsPath()
		rels := rv.AsList()
		for i, rel := range rels {
			var endNode *value.Node
			if i == len(rels)-1 {
				endNode = nv.AsNode()
			} else {
				endNode = relEndpoint(rel.AsRel(), s.Forward)
			}
			path = path.Extend(value.PathStep{Rel: rel.AsRel(), Forward: s.Forward}, endNode)
		}
		return extendPath(value.PathVal(path), s.Next, ctx)
	default:
		panic("expr: unhandled PathStepExpr")
	}
}

func relEndpoint(r *value.Relationship, forward bool) *value.Node {
	id := r.EndID
	if !forward {
		id = r.StartID
	}
	return value.NewNode(id, nil, nil)
}

func evalProcedure(n ProcedureExpression, ctx Context) (value.Value, error) {
	inv := n.Invocation
	desc, ok := ctx.Exec.Procedures.Lookup(inv.Namespace, inv.Name, len(inv.Args))
	if !ok {
		return value.Null, lyerr.UnknownProcedure(inv.Namespace, inv.Name, len(inv.Args))
	}
	if desc.Aggregating() {
		return value.Null, lyerr.InvalidArgument("%s is an aggregating function and can only be used in an aggregation context", qualifiedName(inv))
	}
	args := make([]value.Value, len(inv.Args))
	for i, a := range inv.Args {
		v, err := Eval(a, ctx)
		if err != nil {
			return value.Null, err
		}
		args[i] = v
	}
	return desc.Fn(ctx.Exec, args)
}

func qualifiedName(inv Invocation) string {
	if inv.Namespace == "" {
		return inv.Name
	}
	return inv.Namespace + "." + inv.Name
}

func evalCase(n CaseExpression, ctx Context) (value.Value, error) {
	var subject value.Value
	hasSubject := n.Subject != nil
	if hasSubject {
		v, err := Eval(n.Subject, ctx)
		if err != nil {
			return value.Null, err
		}
		subject = v
		if subject.IsNull() {
			return value.Null, nil
		}
	}
	for _, alt := range n.Alternatives {
		pv, err := Eval(alt.Predicate, ctx)
		if err != nil {
			return value.Null, err
		}
		var matched bool
		if hasSubject {
			eq := value.Equals(subject, pv)
			matched = (pv.Kind() == value.KindBool && pv.AsBool()) || (!eq.IsNull() && eq.AsBool())
		} else {
			matched = !pv.IsNull() && pv.AsBool()
		}
		if matched {
			return Eval(alt.Result, ctx)
		}
	}
	if n.Default == nil {
		return value.Null, nil
	}
	return Eval(n.Default, ctx)
}

func kindName(v value.Value) string { return value.TypeOfValue(v).String() }
