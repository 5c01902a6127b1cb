package schema

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrUnknownField is returned when setting a field name the struct type
	// does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrTypeMismatch is returned by GetAs when the stored value does not
	// have the requested type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// Record is a generic struct-typed value: one slot per field, in declaration
// order, all unset (nil) at creation. Name lookups go through the shared
// position table for the record's struct type, so resolving a name costs one
// map hit no matter how many records share the schema.
//
// Reads by unknown name return nil; writes by unknown name fail. Unknown-name
// reads are normal when reading data written under an older schema, while an
// unknown-name write is a programmer error.
type Record struct {
	structType *StructType
	values     []any
	nameToPos  map[string]int
}

// NewRecord creates an all-unset record of the given struct type.
func NewRecord(st *StructType) *Record {
	return &Record{
		structType: st,
		values:     make([]any, st.Len()),
		nameToPos:  resolvePositions(st),
	}
}

func (r *Record) StructType() *StructType { return r.structType }

// GetField returns the value stored under name, or nil if the name is unknown
// or the slot is unset.
func (r *Record) GetField(name string) any {
	pos, ok := r.nameToPos[name]
	if !ok {
		return nil
	}
	return r.values[pos]
}

// SetField stores value under name, failing if the struct type does not
// declare it.
func (r *Record) SetField(name string, value any) error {
	pos, ok := r.nameToPos[name]
	if !ok {
		return fmt.Errorf("cannot set field named %q: %w", name, ErrUnknownField)
	}
	r.values[pos] = value
	return nil
}

// Get returns the value at pos.
func (r *Record) Get(pos int) any { return r.values[pos] }

// Set stores value at pos.
func (r *Record) Set(pos int, value any) { r.values[pos] = value }

// GetAs returns the value at pos, failing if it does not hold a T.
func GetAs[T any](r *Record, pos int) (T, error) {
	v, ok := r.values[pos].(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("position %d holds %T, not %T: %w",
			pos, r.values[pos], zero, ErrTypeMismatch)
	}
	return v, nil
}

// Equal reports deep value equality of the backing slots. Records of
// different struct types are equal when their values match element-wise.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return false
	}
	return reflect.DeepEqual(r.values, other.values)
}

// Hash returns a value-based hash consistent with Equal.
func (r *Record) Hash() uint64 {
	d := xxhash.New()
	for _, v := range r.values {
		fmt.Fprintf(d, "%v;", v)
	}
	return d.Sum64()
}

// Copy returns a deep copy: byte slices and nested records are duplicated, so
// mutating the original afterwards cannot leak into the copy.
func (r *Record) Copy() *Record {
	cp := NewRecord(r.structType)
	for i, v := range r.values {
		cp.values[i] = copyValue(v)
	}
	return cp
}

func copyValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return append([]byte(nil), t...)
	case *Record:
		return t.Copy()
	default:
		return v
	}
}
