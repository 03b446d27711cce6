package structure

import (
	"fmt"
	"strings"

	rterr "github.com/isharak/ballerina/pkg/error"
	"github.com/isharak/ballerina/pkg/types"
)

// FieldDef declares one named field of a structure type.
type FieldDef struct {
	Name string
	Kind types.Kind
}

// FieldRef addresses a field inside the per-kind containers.
type FieldRef struct {
	Kind  types.Kind
	Index int
}

func (r FieldRef) String() string {
	return fmt.Sprintf("%s[%d]", r.Kind, r.Index)
}

// Type is the fixed shape of a structure: per-kind field counts and a name
// table. Indices are assigned densely per kind in declaration order, so the
// second int field is always int index 1.
type Type struct {
	Name string

	fields []FieldDef
	refs   []FieldRef
	byName map[string]FieldRef
	names  [types.KindCount][]string
	counts [types.KindCount]int
}

// NewType builds a type from ordered field declarations.
//
// Errors (INVALID_SHAPE):
//   - a field has an empty name or an unknown kind
//   - two fields share a name
func NewType(name string, fields []FieldDef) (*Type, error) {
	t := &Type{
		Name:   name,
		fields: make([]FieldDef, 0, len(fields)),
		refs:   make([]FieldRef, 0, len(fields)),
		byName: make(map[string]FieldRef, len(fields)),
	}

	for i, f := range fields {
		if f.Name == "" {
			return nil, invalidShape(name, fmt.Sprintf("field %d has no name", i))
		}
		if !f.Kind.Valid() {
			return nil, invalidShape(name, fmt.Sprintf("field %q has unknown kind %v", f.Name, f.Kind))
		}
		if _, dup := t.byName[f.Name]; dup {
			return nil, invalidShape(name, fmt.Sprintf("duplicate field %q", f.Name))
		}

		ref := FieldRef{Kind: f.Kind, Index: t.counts[f.Kind]}
		t.counts[f.Kind]++
		t.fields = append(t.fields, f)
		t.refs = append(t.refs, ref)
		t.byName[f.Name] = ref
		t.names[f.Kind] = append(t.names[f.Kind], f.Name)
	}
	return t, nil
}

// NewAnonymousType builds a type from per-kind counts. Fields are named
// "<kind>_<index>", e.g. "int_0".
func NewAnonymousType(name string, counts [types.KindCount]int) (*Type, error) {
	var fields []FieldDef
	for _, k := range types.AllKinds {
		if counts[k] < 0 {
			return nil, invalidShape(name, fmt.Sprintf("negative %s count", k))
		}
		for i := range counts[k] {
			fields = append(fields, FieldDef{Name: fmt.Sprintf("%s_%d", k, i), Kind: k})
		}
	}
	return NewType(name, fields)
}

// ParseFields parses "name:kind" pairs separated by commas, e.g.
// "balance:int, owner:string, next:ref".
func ParseFields(decl string) ([]FieldDef, error) {
	var fields []FieldDef
	for _, part := range strings.Split(decl, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, kindName, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("field %q: expected name:kind", part)
		}
		kind, err := types.ParseKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields = append(fields, FieldDef{Name: strings.TrimSpace(name), Kind: kind})
	}
	return fields, nil
}

func invalidShape(typeName, detail string) error {
	err := rterr.New(rterr.ErrCategoryProgrammer, rterr.CodeInvalidShape, "invalid structure type")
	err.Detail = fmt.Sprintf("%s: %s", typeName, detail)
	err.Operation = "NewType"
	err.Component = "StructureType"
	return err
}

// NumFields returns the total number of fields across kinds.
func (t *Type) NumFields() int {
	return len(t.fields)
}

// Count returns the number of fields of kind k.
func (t *Type) Count(k types.Kind) int {
	if !k.Valid() {
		return 0
	}
	return t.counts[k]
}

// Counts returns the per-kind field counts.
func (t *Type) Counts() [types.KindCount]int {
	return t.counts
}

// Lookup resolves a field name.
func (t *Type) Lookup(name string) (FieldRef, bool) {
	ref, ok := t.byName[name]
	return ref, ok
}

// FieldName returns the name of field (kind, index).
func (t *Type) FieldName(k types.Kind, index int) (string, bool) {
	if index < 0 || index >= t.Count(k) {
		return "", false
	}
	return t.names[k][index], true
}

// Fields returns the declarations in declaration order.
func (t *Type) Fields() []FieldDef {
	out := make([]FieldDef, len(t.fields))
	copy(out, t.fields)
	return out
}

// Equals reports whether two types have the same fields in the same order.
// Type names are not compared.
func (t *Type) Equals(other *Type) bool {
	if other == nil || len(t.fields) != len(other.fields) {
		return false
	}
	for i, f := range t.fields {
		if f != other.fields[i] {
			return false
		}
	}
	return true
}

// String returns "Name{field:kind,...}".
func (t *Type) String() string {
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		parts[i] = f.Name + ":" + f.Kind.String()
	}
	return t.Name + "{" + strings.Join(parts, ",") + "}"
}
