package value

// Equals implements Cypher's three-valued equality (spec.md 4.1):
// numeric cross-comparison by numeric value, structural comparison for
// strings/booleans, element-wise for lists/maps, id-only for
// nodes/relationships, and Null for any comparison touching Null.
// The returned Value is always Bool or Null, never another kind.
func Equals(a, b Value) Value {
	if a.IsNull() || b.IsNull() {
		return Null
	}
	switch {
	case a.IsNumeric() && b.IsNumeric():
		return Bool(a.AsFloat64() == b.AsFloat64())
	case a.Kind() == KindBool && b.Kind() == KindBool:
		return Bool(a.AsBool() == b.AsBool())
	case a.Kind() == KindStr && b.Kind() == KindStr:
		return Bool(a.AsStr() == b.AsStr())
	case a.Kind() == KindList && b.Kind() == KindList:
		return listEquals(a.AsList(), b.AsList())
	case a.Kind() == KindMap && b.Kind() == KindMap:
		return mapEquals(a.AsMap(), b.AsMap())
	case a.Kind() == KindNode && b.Kind() == KindNode:
		return Bool(a.AsNode().ID == b.AsNode().ID)
	case a.Kind() == KindRel && b.Kind() == KindRel:
		return Bool(a.AsRel().ID == b.AsRel().ID)
	case a.Kind() != b.Kind():
		return Bool(false)
	default:
		return Bool(false)
	}
}

func listEquals(a, b []Value) Value {
	if len(a) != len(b) {
		return Bool(false)
	}
	sawNull := false
	for i := range a {
		eq := Equals(a[i], b[i])
		if eq.IsNull() {
			sawNull = true
			continue
		}
		if !eq.AsBool() {
			return Bool(false)
		}
	}
	if sawNull {
		return Null
	}
	return Bool(true)
}

func mapEquals(a, b *OrderedMap) Value {
	if a.Len() != b.Len() {
		return Bool(false)
	}
	sawNull := false
	for _, k := range a.Keys() {
		av, _ := a.Get(k)
		bv, ok := b.Get(k)
		if !ok {
			return Bool(false)
		}
		eq := Equals(av, bv)
		if eq.IsNull() {
			sawNull = true
			continue
		}
		if !eq.AsBool() {
			return Bool(false)
		}
	}
	if sawNull {
		return Null
	}
	return Bool(true)
}

// Family groups values for ordering purposes: numbers order with
// numbers, strings with strings, temporals with temporals. Mixed
// families are incomparable.
type Family int

const (
	FamilyNone Family = iota
	FamilyNumber
	FamilyString
	FamilyBool
	FamilyTemporal
	FamilyList
)

func familyOf(v Value) Family {
	switch v.Kind() {
	case KindInt, KindFloat:
		return FamilyNumber
	case KindStr:
		return FamilyString
	case KindBool:
		return FamilyBool
	case KindDate, KindTime, KindDateTime, KindDuration:
		return FamilyTemporal
	case KindList:
		return FamilyList
	default:
		return FamilyNone
	}
}

// Compare returns (-1|0|1, true) when a and b are ordering-comparable
// (same family, both non-null), or (0, false) otherwise - callers use
// the bool to realize spec.md's "mixed-family comparisons yield Null".
func Compare(a, b Value) (int, bool) {
	if a.IsNull() || b.IsNull() {
		return 0, false
	}
	fa, fb := familyOf(a), familyOf(b)
	if fa == FamilyNone || fa != fb {
		return 0, false
	}
	switch fa {
	case FamilyNumber:
		av, bv := a.AsFloat64(), b.AsFloat64()
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case FamilyString:
		switch {
		case a.AsStr() < b.AsStr():
			return -1, true
		case a.AsStr() > b.AsStr():
			return 1, true
		default:
			return 0, true
		}
	case FamilyBool:
		av, bv := a.AsBool(), b.AsBool()
		if av == bv {
			return 0, true
		}
		if !av && bv {
			return -1, true
		}
		return 1, true
	case FamilyTemporal:
		return compareTemporal(a, b)
	case FamilyList:
		return compareList(a.AsList(), b.AsList())
	default:
		return 0, false
	}
}

func compareTemporal(a, b Value) (int, bool) {
	at, aok := instantOf(a)
	bt, bok := instantOf(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case at < bt:
		return -1, true
	case at > bt:
		return 1, true
	default:
		return 0, true
	}
}

// instantOf reduces a temporal Value to a comparable int64 (nanoseconds
// since epoch for instants, plain duration nanoseconds for spans).
func instantOf(v Value) (int64, bool) {
	switch t := v.AsTemporal().(type) {
	case DateTime:
		return t.T.UnixNano(), true
	case Duration:
		return int64(t.D), true
	default:
		return 0, false
	}
}

func compareList(a, b []Value) (int, bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c, ok := Compare(a[i], b[i])
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	switch {
	case len(a) < len(b):
		return -1, true
	case len(a) > len(b):
		return 1, true
	default:
		return 0, true
	}
}
