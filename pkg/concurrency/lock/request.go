package lock

import (
	"errors"
	"fmt"
	"slices"

	rterr "github.com/isharak/ballerina/pkg/error"
	"github.com/isharak/ballerina/pkg/types"
)

// Lockable is implemented by values whose fields can be locked.
type Lockable interface {
	// ID is the structure identity used by the global lock order.
	ID() uint64

	// LockTable returns the structure's per-field entries.
	LockTable() *Table

	// LookupField resolves a field name to its (kind, index).
	LookupField(name string) (types.Kind, int, bool)
}

// Request is a set of fields a worker wants to hold at once. Invalid fields
// are recorded on the request and reported by Manager.Acquire before any
// entry is touched.
//
// Building a request (Add, AddField, AddAll, Normalize) is not safe for
// concurrent use. Once built, the same request may be passed to Acquire by
// several workers at once; Acquire does not modify it.
type Request struct {
	entries    []*Entry
	errs       []error
	normalized bool
}

// NewRequest creates an empty request.
func NewRequest() *Request {
	return &Request{}
}

// Add includes field (kind, index) of target.
func (r *Request) Add(target Lockable, kind types.Kind, index int) *Request {
	e, err := target.LockTable().Entry(kind, index)
	if err != nil {
		r.errs = append(r.errs, err)
		return r
	}
	r.entries = append(r.entries, e)
	r.normalized = false
	return r
}

// AddField includes the named field of target.
func (r *Request) AddField(target Lockable, name string) *Request {
	kind, index, ok := target.LookupField(name)
	if !ok {
		err := rterr.New(rterr.ErrCategoryProgrammer, rterr.CodeFieldNotFound, "unknown field")
		err.Detail = fmt.Sprintf("structure %d has no field %q", target.ID(), name)
		err.Operation = "AddField"
		err.Component = "LockRequest"
		r.errs = append(r.errs, err)
		return r
	}
	return r.Add(target, kind, index)
}

// AddAll includes every field of target.
func (r *Request) AddAll(target Lockable) *Request {
	target.LockTable().Each(func(e *Entry) bool {
		r.entries = append(r.entries, e)
		return true
	})
	r.normalized = false
	return r
}

// Err returns the validation errors collected so far, joined.
func (r *Request) Err() error {
	return errors.Join(r.errs...)
}

// Normalize sorts the request in global lock order and drops duplicates.
func (r *Request) Normalize() *Request {
	if r.normalized {
		return r
	}
	r.entries = sortEntries(r.entries)
	r.normalized = true
	return r
}

// ordered returns the entries in global lock order without modifying r.
func (r *Request) ordered() []*Entry {
	if r.normalized {
		return r.entries
	}
	return sortEntries(slices.Clone(r.entries))
}

func sortEntries(entries []*Entry) []*Entry {
	slices.SortFunc(entries, func(a, b *Entry) int {
		return a.key.Compare(b.key)
	})
	return slices.CompactFunc(entries, func(a, b *Entry) bool {
		return a.key == b.key
	})
}

// Keys returns the distinct keys in acquisition order.
func (r *Request) Keys() []Key {
	entries := r.ordered()
	keys := make([]Key, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

// Len returns the number of distinct fields.
func (r *Request) Len() int {
	return len(r.ordered())
}
