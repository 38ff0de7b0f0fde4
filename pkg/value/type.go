package value

import "fmt"

// LynxType is the Cypher type lattice used by the planner to assemble
// output schemas (spec.md 3 / 4.2 typeOf). The name follows the
// original, pre-distillation system this spec traces back to.
type LynxType struct {
	Name string
	Elem *LynxType // set when Name == "List"
}

func (t LynxType) String() string {
	if t.Name == "List" && t.Elem != nil {
		return fmt.Sprintf("List<%s>", t.Elem.String())
	}
	return t.Name
}

func (t LynxType) Equal(o LynxType) bool {
	if t.Name != o.Name {
		return false
	}
	if t.Name != "List" {
		return true
	}
	if t.Elem == nil || o.Elem == nil {
		return t.Elem == o.Elem
	}
	return t.Elem.Equal(*o.Elem)
}

var (
	TypeAny          = LynxType{Name: "Any"}
	TypeBoolean      = LynxType{Name: "Boolean"}
	TypeInteger      = LynxType{Name: "Integer"}
	TypeFloat        = LynxType{Name: "Float"}
	TypeNumber       = LynxType{Name: "Number"}
	TypeString       = LynxType{Name: "String"}
	TypeNode         = LynxType{Name: "Node"}
	TypeRelationship = LynxType{Name: "Relationship"}
	TypePath         = LynxType{Name: "Path"}
	TypeMapType      = LynxType{Name: "Map"}
	TypeDateTime     = LynxType{Name: "DateTime"}
	TypeDate         = LynxType{Name: "Date"}
	TypeTime         = LynxType{Name: "Time"}
	TypeDuration     = LynxType{Name: "Duration"}
	TypeNull         = LynxType{Name: "Null"}
)

func ListType(elem LynxType) LynxType {
	e := elem
	return LynxType{Name: "List", Elem: &e}
}

// TypeOfValue infers the LynxType of a concrete runtime Value. Used by
// the data frame / projection layer when a literal's static type can be
// read straight off the value instead of an expression's declared type.
func TypeOfValue(v Value) LynxType {
	switch v.Kind() {
	case KindNull:
		return TypeNull
	case KindBool:
		return TypeBoolean
	case KindInt:
		return TypeInteger
	case KindFloat:
		return TypeFloat
	case KindStr:
		return TypeString
	case KindList:
		if len(v.AsList()) == 0 {
			return ListType(TypeAny)
		}
		return ListType(TypeOfValue(v.AsList()[0]))
	case KindMap:
		return TypeMapType
	case KindNode:
		return TypeNode
	case KindRel:
		return TypeRelationship
	case KindPath:
		return TypePath
	case KindDateTime:
		return TypeDateTime
	case KindDate:
		return TypeDate
	case KindTime:
		return TypeTime
	case KindDuration:
		return TypeDuration
	default:
		return TypeAny
	}
}
