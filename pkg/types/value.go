package types

// Value is a runtime value that can be stored in a structure field.
type Value interface {
	// Kind is the runtime kind used for kind-checked stores.
	Kind() Kind

	String() string

	Equals(other Value) bool
}
