package structure

import (
	"fmt"

	rterr "github.com/isharak/ballerina/pkg/error"
	"github.com/isharak/ballerina/pkg/types"
)

// GetInt reads int field index.
func (s *Structure) GetInt(index int) (int64, error) {
	if err := s.check("GetInt", types.IntKind, index); err != nil {
		return 0, err
	}
	return s.ints[index], nil
}

// SetInt writes int field index.
func (s *Structure) SetInt(index int, v int64) error {
	if err := s.check("SetInt", types.IntKind, index); err != nil {
		return err
	}
	s.ints[index] = v
	return nil
}

// GetFloat reads float field index.
func (s *Structure) GetFloat(index int) (float64, error) {
	if err := s.check("GetFloat", types.FloatKind, index); err != nil {
		return 0, err
	}
	return s.floats[index], nil
}

// SetFloat writes float field index.
func (s *Structure) SetFloat(index int, v float64) error {
	if err := s.check("SetFloat", types.FloatKind, index); err != nil {
		return err
	}
	s.floats[index] = v
	return nil
}

// GetString reads string field index.
func (s *Structure) GetString(index int) (string, error) {
	if err := s.check("GetString", types.StringKind, index); err != nil {
		return "", err
	}
	return s.strings[index], nil
}

// SetString writes string field index.
func (s *Structure) SetString(index int, v string) error {
	if err := s.check("SetString", types.StringKind, index); err != nil {
		return err
	}
	s.strings[index] = v
	return nil
}

// GetBool reads boolean field index.
func (s *Structure) GetBool(index int) (bool, error) {
	if err := s.check("GetBool", types.BooleanKind, index); err != nil {
		return false, err
	}
	return s.bools[index], nil
}

// SetBool writes boolean field index.
func (s *Structure) SetBool(index int, v bool) error {
	if err := s.check("SetBool", types.BooleanKind, index); err != nil {
		return err
	}
	s.bools[index] = v
	return nil
}

// GetBlob returns a copy of the stored bytes.
func (s *Structure) GetBlob(index int) ([]byte, error) {
	if err := s.check("GetBlob", types.BlobKind, index); err != nil {
		return nil, err
	}
	return types.BlobValue(s.blobs[index]).Clone(), nil
}

// SetBlob stores a copy of v.
func (s *Structure) SetBlob(index int, v []byte) error {
	if err := s.check("SetBlob", types.BlobKind, index); err != nil {
		return err
	}
	s.blobs[index] = types.BlobValue(v).Clone()
	return nil
}

// GetRef reads ref field index. The zero RefValue is the null reference.
func (s *Structure) GetRef(index int) (types.RefValue, error) {
	if err := s.check("GetRef", types.RefKind, index); err != nil {
		return types.RefValue{}, err
	}
	return s.refs[index], nil
}

// SetRef stores target and updates ownership. A nil or typed-nil target
// stores the null reference.
func (s *Structure) SetRef(index int, target types.Referent) error {
	if err := s.check("SetRef", types.RefKind, index); err != nil {
		return err
	}
	s.setRef(index, types.Ref(target))
	return nil
}

func (s *Structure) lookup(op, name string) (FieldRef, error) {
	ref, ok := s.typ.Lookup(name)
	if !ok {
		err := rterr.New(rterr.ErrCategoryProgrammer, rterr.CodeFieldNotFound, "unknown field")
		err.Detail = fmt.Sprintf("%s has no field %q", s.typ.Name, name)
		err.Operation = op
		err.Component = "FieldStore"
		return FieldRef{}, err
	}
	return ref, nil
}

// GetField reads a field by name.
func (s *Structure) GetField(name string) (types.Value, error) {
	ref, err := s.lookup("GetField", name)
	if err != nil {
		return nil, err
	}
	return s.Get(ref.Kind, ref.Index)
}

// SetField writes a field by name.
func (s *Structure) SetField(name string, v types.Value) error {
	ref, err := s.lookup("SetField", name)
	if err != nil {
		return err
	}
	return s.Set(ref.Kind, ref.Index, v)
}

// NamedValue is one field in a Snapshot.
type NamedValue struct {
	Name  string
	Ref   FieldRef
	Value types.Value
}

// Snapshot copies every field in declaration order. The copy is only
// consistent if the caller holds every field (see lock.Request.AddAll).
func (s *Structure) Snapshot() []NamedValue {
	out := make([]NamedValue, 0, s.typ.NumFields())
	for i, f := range s.typ.fields {
		ref := s.typ.refs[i]
		v, err := s.Get(ref.Kind, ref.Index)
		if err != nil {
			v = types.ZeroValue(ref.Kind)
		}
		out = append(out, NamedValue{Name: f.Name, Ref: ref, Value: v})
	}
	return out
}
