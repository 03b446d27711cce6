package types

import (
	"fmt"
	"strings"
)

// Kind is the primitive kind of a structure field. Kinds are ordered by their
// numeric value, which is part of the global lock order.
type Kind int

const (
	IntKind Kind = iota
	FloatKind
	StringKind
	BooleanKind
	BlobKind
	RefKind
)

// KindCount is the number of supported kinds.
const KindCount = int(RefKind) + 1

// AllKinds lists every kind in lock order.
var AllKinds = [KindCount]Kind{IntKind, FloatKind, StringKind, BooleanKind, BlobKind, RefKind}

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case StringKind:
		return "string"
	case BooleanKind:
		return "boolean"
	case BlobKind:
		return "blob"
	case RefKind:
		return "ref"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k >= IntKind && k <= RefKind
}

// ParseKind maps a kind name to a Kind. Accepts the String() names plus a few
// common aliases ("float64", "bool", "bytes", "reference").
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer", "int64":
		return IntKind, nil
	case "float", "float64":
		return FloatKind, nil
	case "string", "str":
		return StringKind, nil
	case "boolean", "bool":
		return BooleanKind, nil
	case "blob", "bytes":
		return BlobKind, nil
	case "ref", "reference":
		return RefKind, nil
	default:
		return 0, fmt.Errorf("unknown field kind %q", name)
	}
}

// ZeroValue returns the initial value of a field of kind k.
func ZeroValue(k Kind) Value {
	switch k {
	case IntKind:
		return IntValue(0)
	case FloatKind:
		return FloatValue(0)
	case StringKind:
		return StringValue("")
	case BooleanKind:
		return BoolValue(false)
	case BlobKind:
		return BlobValue(nil)
	case RefKind:
		return RefValue{}
	default:
		return nil
	}
}
