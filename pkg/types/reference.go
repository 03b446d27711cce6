package types

import "fmt"

// Referent is anything a reference field can point at. RefID must be stable
// and unique for the referent's lifetime; lifetime managers key counts on it.
type Referent interface {
	RefID() uint64
}

// NilReferent is implemented by pointer referents that can report a nil
// receiver. A typed nil stored in a Referent is otherwise a non-nil interface.
type NilReferent interface {
	IsNil() bool
}

// IsNullReferent reports whether r is nil or a typed nil NilReferent.
func IsNullReferent(r Referent) bool {
	if r == nil {
		return true
	}
	n, ok := r.(NilReferent)
	return ok && n.IsNil()
}

// RefValue is a reference to another runtime value. The zero RefValue is the
// null reference.
type RefValue struct {
	Target Referent
}

// Ref builds a RefValue for target. A nil or typed-nil target yields the
// null reference.
func Ref(target Referent) RefValue {
	if IsNullReferent(target) {
		return RefValue{}
	}
	return RefValue{Target: target}
}

func (v RefValue) Kind() Kind {
	return RefKind
}

// IsNull reports whether v refers to nothing.
func (v RefValue) IsNull() bool {
	return IsNullReferent(v.Target)
}

func (v RefValue) String() string {
	if v.IsNull() {
		return "null"
	}
	return fmt.Sprintf("ref(%d)", v.Target.RefID())
}

// Equals compares referent identity, not referent contents.
func (v RefValue) Equals(other Value) bool {
	o, ok := other.(RefValue)
	if !ok {
		return false
	}
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	return v.Target.RefID() == o.Target.RefID()
}
