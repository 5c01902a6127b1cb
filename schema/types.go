package schema

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Kind enumerates the closed set of value kinds a field can hold.
type Kind int

const (
	KindBoolean Kind = iota
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindDate
	KindTimestamp
	KindString
	KindUUID
	KindBinary
	KindStruct
)

var kindNames = [...]string{
	KindBoolean:   "boolean",
	KindInt:       "int",
	KindLong:      "long",
	KindFloat:     "float",
	KindDouble:    "double",
	KindDate:      "date",
	KindTimestamp: "timestamp",
	KindString:    "string",
	KindUUID:      "uuid",
	KindBinary:    "binary",
	KindStruct:    "struct",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Type is implemented by the closed set of field types: the primitive types
// below plus StructType.
type Type interface {
	Kind() Kind
	String() string
}

type PrimitiveType struct {
	kind Kind
}

func (t PrimitiveType) Kind() Kind     { return t.kind }
func (t PrimitiveType) String() string { return t.kind.String() }

var (
	BooleanType   = PrimitiveType{KindBoolean}
	IntType       = PrimitiveType{KindInt}
	LongType      = PrimitiveType{KindLong}
	FloatType     = PrimitiveType{KindFloat}
	DoubleType    = PrimitiveType{KindDouble}
	DateType      = PrimitiveType{KindDate}
	TimestampType = PrimitiveType{KindTimestamp}
	StringType    = PrimitiveType{KindString}
	UUIDType      = PrimitiveType{KindUUID}
	BinaryType    = PrimitiveType{KindBinary}
)

// TypeFromString maps a type name from table metadata back to a primitive
// type.
func TypeFromString(name string) (Type, error) {
	for k, n := range kindNames {
		if n == name && Kind(k) != KindStruct {
			return PrimitiveType{Kind(k)}, nil
		}
	}
	return nil, fmt.Errorf("unknown type name: %q", name)
}

// NestedField is one named, typed field of a struct type.
type NestedField struct {
	ID       int
	Name     string
	Type     Type
	Required bool
}

// StructType is an ordered, immutable sequence of named fields. Each instance
// carries a process-unique id used to key the field-position cache without
// keeping the instance itself alive.
type StructType struct {
	id     uint64
	fields []NestedField
}

var nextStructID atomic.Uint64

func NewStruct(fields ...NestedField) *StructType {
	st := &StructType{
		id:     nextStructID.Add(1),
		fields: make([]NestedField, len(fields)),
	}
	copy(st.fields, fields)
	return st
}

func (s *StructType) Kind() Kind { return KindStruct }

// Fields returns the fields in declaration order. Callers must not modify the
// returned slice.
func (s *StructType) Fields() []NestedField { return s.fields }

func (s *StructType) Len() int { return len(s.fields) }

// Field looks up a field by name.
func (s *StructType) Field(name string) (NestedField, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return NestedField{}, false
}

func (s *StructType) String() string {
	var b strings.Builder
	b.WriteString("struct<")
	for i, f := range s.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d: %s: %s", f.ID, f.Name, f.Type)
	}
	b.WriteString(">")
	return b.String()
}
