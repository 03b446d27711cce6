package types

import "strconv"

type BoolValue bool

func (v BoolValue) Kind() Kind {
	return BooleanKind
}

func (v BoolValue) String() string {
	return strconv.FormatBool(bool(v))
}

func (v BoolValue) Equals(other Value) bool {
	o, ok := other.(BoolValue)
	return ok && o == v
}
