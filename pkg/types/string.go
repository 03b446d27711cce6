package types

import "strconv"

// StringValue is an immutable string
type StringValue string

func (v StringValue) Kind() Kind {
	return StringKind
}

// String returns the quoted value.
func (v StringValue) String() string {
	return strconv.Quote(string(v))
}

func (v StringValue) Equals(other Value) bool {
	o, ok := other.(StringValue)
	return ok && o == v
}
