package types

import "strconv"

// IntValue is a 64-bit signed integer
type IntValue int64

func (v IntValue) Kind() Kind {
	return IntKind
}

func (v IntValue) String() string {
	return strconv.FormatInt(int64(v), 10)
}

func (v IntValue) Equals(other Value) bool {
	o, ok := other.(IntValue)
	return ok && o == v
}
