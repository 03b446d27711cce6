package structure

import (
	"fmt"
	"sync/atomic"

	"github.com/isharak/ballerina/pkg/concurrency/lock"
	rterr "github.com/isharak/ballerina/pkg/error"
	"github.com/isharak/ballerina/pkg/lifetime"
	"github.com/isharak/ballerina/pkg/logging"
	"github.com/isharak/ballerina/pkg/types"
)

var structureCounter atomic.Uint64

// Structure is a fixed-shape composite value shared between workers.
type Structure struct {
	id  uint64
	typ *Type

	ints    []int64
	floats  []float64
	strings []string
	bools   []bool
	blobs   [][]byte
	refs    []types.RefValue

	locks    *lock.Table
	lifetime lifetime.Manager
	closed   atomic.Bool
}

// Option configures a Structure.
type Option func(*Structure)

// WithLifetime routes reference-field ownership hooks to m.
func WithLifetime(m lifetime.Manager) Option {
	return func(s *Structure) {
		s.lifetime = m
	}
}

// New creates a structure of type t with every field at its zero value.
func New(t *Type, opts ...Option) *Structure {
	id := structureCounter.Add(1)
	s := &Structure{
		id:       id,
		typ:      t,
		ints:     make([]int64, t.Count(types.IntKind)),
		floats:   make([]float64, t.Count(types.FloatKind)),
		strings:  make([]string, t.Count(types.StringKind)),
		bools:    make([]bool, t.Count(types.BooleanKind)),
		blobs:    make([][]byte, t.Count(types.BlobKind)),
		refs:     make([]types.RefValue, t.Count(types.RefKind)),
		locks:    lock.NewTable(id, t.Counts()),
		lifetime: lifetime.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID is the structure identity used by the global lock order.
func (s *Structure) ID() uint64 {
	return s.id
}

// RefID makes a structure a reference-field target.
func (s *Structure) RefID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// IsNil reports a nil *Structure stored in a types.Referent.
func (s *Structure) IsNil() bool {
	return s == nil
}

// Type returns the structure's shape.
func (s *Structure) Type() *Type {
	return s.typ
}

// LockTable returns the per-field lock entries.
func (s *Structure) LockTable() *lock.Table {
	return s.locks
}

// LookupField resolves a field name to its (kind, index).
func (s *Structure) LookupField(name string) (types.Kind, int, bool) {
	ref, ok := s.typ.Lookup(name)
	return ref.Kind, ref.Index, ok
}

func (s *Structure) String() string {
	return fmt.Sprintf("%s#%d", s.typ.Name, s.id)
}

func (s *Structure) check(op string, kind types.Kind, index int) error {
	if s.closed.Load() {
		err := rterr.New(rterr.ErrCategoryLifecycle, rterr.CodeStructureClosed, "structure is closed")
		err.Detail = s.String()
		err.Operation = op
		err.Component = "FieldStore"
		return err
	}
	size := s.typ.Count(kind)
	if index < 0 || index >= size {
		return rterr.OutOfBounds("FieldStore", op, kind, index, size)
	}
	return nil
}

// Get returns field (kind, index). Blob values are copies.
func (s *Structure) Get(kind types.Kind, index int) (types.Value, error) {
	if err := s.check("Get", kind, index); err != nil {
		return nil, err
	}

	switch kind {
	case types.IntKind:
		return types.IntValue(s.ints[index]), nil
	case types.FloatKind:
		return types.FloatValue(s.floats[index]), nil
	case types.StringKind:
		return types.StringValue(s.strings[index]), nil
	case types.BooleanKind:
		return types.BoolValue(s.bools[index]), nil
	case types.BlobKind:
		return types.BlobValue(s.blobs[index]).Clone(), nil
	default:
		return s.refs[index], nil
	}
}

// Set stores v in field (kind, index). v must already be of kind; nothing is
// coerced. Reference writes notify the lifetime manager.
func (s *Structure) Set(kind types.Kind, index int, v types.Value) error {
	if err := s.check("Set", kind, index); err != nil {
		return err
	}
	if v == nil {
		return rterr.TypeMismatch("FieldStore", "Set", kind, nilKind{})
	}
	if v.Kind() != kind {
		return rterr.TypeMismatch("FieldStore", "Set", kind, v.Kind())
	}

	switch val := v.(type) {
	case types.IntValue:
		s.ints[index] = int64(val)
	case types.FloatValue:
		s.floats[index] = float64(val)
	case types.StringValue:
		s.strings[index] = string(val)
	case types.BoolValue:
		s.bools[index] = bool(val)
	case types.BlobValue:
		s.blobs[index] = val.Clone()
	case types.RefValue:
		s.setRef(index, types.Ref(val.Target))
	default:
		// a foreign Value claiming a valid kind
		return rterr.TypeMismatch("FieldStore", "Set", kind, foreignKind{v})
	}
	return nil
}

// setRef expects v normalized by types.Ref.
func (s *Structure) setRef(index int, v types.RefValue) {
	old := s.refs[index]
	s.refs[index] = v
	if old.Equals(v) {
		return
	}
	if v.Target != nil {
		s.lifetime.Retain(v.Target)
	}
	if old.Target != nil {
		s.lifetime.Release(old.Target)
	}
}

// Close tears the structure down. It fails with STRUCTURE_BUSY, changing
// nothing, while any field lock is held. On success reference fields release
// their referents, the lifetime manager's Teardown hook runs, and later field
// access and lock acquisition fail with STRUCTURE_CLOSED.
func (s *Structure) Close() error {
	if s.closed.Load() {
		return nil
	}
	if err := s.locks.Close(); err != nil {
		return err
	}
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	for i, r := range s.refs {
		if r.Target != nil {
			s.lifetime.Release(r.Target)
			s.refs[i] = types.RefValue{}
		}
	}
	s.lifetime.Teardown(s)
	logging.WithStructure(s.id).Info("structure torn down", "type", s.typ.Name)
	return nil
}

// Closed reports whether Close has succeeded.
func (s *Structure) Closed() bool {
	return s.closed.Load()
}

type nilKind struct{}

func (nilKind) String() string { return "nil" }

type foreignKind struct{ v types.Value }

func (f foreignKind) String() string { return fmt.Sprintf("%T", f.v) }
