package expr

import "github.com/orneryd/lynxcore/pkg/value"

// Env maps variable names to their static type, used by TypeOf to
// resolve Variable nodes without evaluating a row.
type Env map[string]value.LynxType

// TypeOf statically infers the LynxType an expression produces. It
// never touches row data; Property/ContainerIndex/ProcedureExpression
// widen to Any when the source type doesn't pin down a result,
// mirroring how the data frame layer assigns output schemas before any
// row has flowed (spec.md 4.2/4.3).
func TypeOf(e Expr, env Env) value.LynxType {
	switch n := e.(type) {
	case constLiteral:
		return value.TypeOfValue(n.v)
	case IntegerLiteral:
		return value.TypeInteger
	case DoubleLiteral:
		return value.TypeFloat
	case StringLiteral:
		return value.TypeString
	case BooleanLiteral:
		return value.TypeBoolean
	case NullLiteral:
		return value.TypeNull
	case ListLiteral:
		if len(n.Items) == 0 {
			return value.ListType(value.TypeAny)
		}
		return value.ListType(TypeOf(n.Items[0], env))
	case MapExpression:
		return value.TypeMapType
	case Variable:
		if t, ok := env[n.Name]; ok {
			return t
		}
		return value.TypeAny
	case Parameter:
		return value.TypeAny
	case Property:
		return value.TypeAny
	case ContainerIndex:
		container := TypeOf(n.Container, env)
		if container.Name == "List" && container.Elem != nil {
			return *container.Elem
		}
		return value.TypeAny
	case Arithmetic:
		return typeOfArithmetic(n, env)
	case Comparison, And, Or, Not, Ands, Ors, IsNull, IsNotNull, StringPredicate, In, HasLabels:
		return value.TypeBoolean
	case PathExpression:
		return value.TypePath
	case ProcedureExpression:
		return typeOfProcedure(n, env)
	case CaseExpression:
		if len(n.Alternatives) == 0 {
			return value.TypeAny
		}
		return TypeOf(n.Alternatives[0].Result, env)
	case CountStar:
		return value.TypeInteger
	default:
		panic("expr: unhandled Expr in TypeOf")
	}
}

// typeOfProcedure special-cases the two calls whose result type is
// pinned down by their argument rather than needing an actual
// Descriptor lookup: collect(x) -> List<typeOf(x)> and id(x) ->
// Integer. Every other call widens to Any, since a registered
// Descriptor carries no static return type to consult.
func typeOfProcedure(n ProcedureExpression, env Env) value.LynxType {
	if n.Invocation.Namespace != "" {
		return value.TypeAny
	}
	switch n.Invocation.Name {
	case "collect":
		if len(n.Invocation.Args) == 0 {
			return value.ListType(value.TypeAny)
		}
		return value.ListType(TypeOf(n.Invocation.Args[0], env))
	case "id":
		return value.TypeInteger
	default:
		return value.TypeAny
	}
}

func typeOfArithmetic(n Arithmetic, env Env) value.LynxType {
	l, r := TypeOf(n.Left, env), TypeOf(n.Right, env)
	if n.Op == OpAdd && (l.Name == "String" || r.Name == "String") {
		return value.TypeString
	}
	if n.Op == OpAdd && l.Name == "List" {
		return l
	}
	if n.Op == OpPower {
		return value.TypeFloat
	}
	if l.Name == value.TypeInteger.Name && r.Name == value.TypeInteger.Name {
		return value.TypeInteger
	}
	return value.TypeFloat
}
