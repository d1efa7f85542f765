// Package cim defines the value types shared by the object model and the
// engine boundary: the CIM type system, element records, and the schema
// metadata descriptors (Qualifier, ParameterInfo, MethodInfo).
//
// Everything in this package is plain value data. Metadata returned from a
// schema lookup is always an independent copy; mutating it never affects the
// Class that produced it and carries no ownership obligations.
//
// # Types and values
//
// A Type names the declared CIM type of a property, parameter, or qualifier.
// Values are carried as `any` and normalized to one canonical Go type per
// CIM type (see Coerce). A nil value is the null representation for every
// type and is what ClearElement resets an element to.
//
// # Element access
//
// ElementAccess is the shared contract implemented by data instances and
// class definitions: name-based and index-based lookup over one ordered set
// of uniquely named elements. Both accessors return the same uniform Element
// record, and enumerating indexes 0..count-1 visits exactly the set of valid
// names.
package cim

import (
	"fmt"
	"strings"
	"time"
)

// Type identifies a CIM data type.
type Type int

const (
	// TypeBoolean is a true/false value.
	TypeBoolean Type = iota
	// TypeUint8 is an unsigned 8-bit integer.
	TypeUint8
	// TypeSint8 is a signed 8-bit integer.
	TypeSint8
	// TypeUint16 is an unsigned 16-bit integer.
	TypeUint16
	// TypeSint16 is a signed 16-bit integer.
	TypeSint16
	// TypeUint32 is an unsigned 32-bit integer.
	TypeUint32
	// TypeSint32 is a signed 32-bit integer.
	TypeSint32
	// TypeUint64 is an unsigned 64-bit integer.
	TypeUint64
	// TypeSint64 is a signed 64-bit integer.
	TypeSint64
	// TypeReal32 is a 32-bit float.
	TypeReal32
	// TypeReal64 is a 64-bit float.
	TypeReal64
	// TypeString is a text value.
	TypeString
	// TypeDatetime is a timestamp.
	TypeDatetime
	// TypeReference is a path referencing another instance.
	TypeReference

	// typeArray marks the array variant of a scalar type.
	typeArray Type = 1 << 6
)

// Array returns the array variant of a scalar type.
func (t Type) Array() Type {
	return t | typeArray
}

// IsArray reports whether t is an array type.
func (t Type) IsArray() bool {
	return t&typeArray != 0
}

// Elem returns the scalar element type of an array type. For scalar types it
// returns the type itself.
func (t Type) Elem() Type {
	return t &^ typeArray
}

var typeNames = map[Type]string{
	TypeBoolean:   "boolean",
	TypeUint8:     "uint8",
	TypeSint8:     "sint8",
	TypeUint16:    "uint16",
	TypeSint16:    "sint16",
	TypeUint32:    "uint32",
	TypeSint32:    "sint32",
	TypeUint64:    "uint64",
	TypeSint64:    "sint64",
	TypeReal32:    "real32",
	TypeReal64:    "real64",
	TypeString:    "string",
	TypeDatetime:  "datetime",
	TypeReference: "reference",
}

// String returns the canonical lower-case type name, e.g. "uint32" or
// "string[]" for arrays.
func (t Type) String() string {
	name, ok := typeNames[t.Elem()]
	if !ok {
		return fmt.Sprintf("unknown(%d)", int(t))
	}
	if t.IsArray() {
		return name + "[]"
	}
	return name
}

// ParseType parses a canonical type name as produced by Type.String.
// A trailing "[]" denotes the array variant.
func ParseType(s string) (Type, error) {
	name := strings.TrimSpace(strings.ToLower(s))
	array := strings.HasSuffix(name, "[]")
	if array {
		name = strings.TrimSuffix(name, "[]")
	}
	for t, n := range typeNames {
		if n == name {
			if array {
				return t.Array(), nil
			}
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown cim type %q", s)
}

// ElementFlags carries per-element metadata bits.
type ElementFlags uint32

const (
	// FlagNull marks an element whose value is the null representation.
	FlagNull ElementFlags = 1 << iota
	// FlagKey marks a key property.
	FlagKey
	// FlagIn marks an input parameter.
	FlagIn
	// FlagOut marks an output parameter.
	FlagOut
	// FlagReadOnly marks a property the schema declares read-only.
	FlagReadOnly
	// FlagStatic marks a static (class-level) method or property.
	FlagStatic
)

// Element is the uniform record returned by both name-based and index-based
// element lookup.
type Element struct {
	Name  string
	Value any
	Type  Type
	Flags ElementFlags
}

// ElementAccess is the shared name/index access contract implemented by
// Instance and Class. Implementations guarantee that names are unique, that
// index order is stable, and that index enumeration and name lookup denote
// the same element set.
type ElementAccess interface {
	// ElementCount returns the number of elements.
	ElementCount() (int, error)
	// GetElement returns the element with the given name.
	GetElement(name string) (Element, error)
	// GetElementAt returns the element at the given zero-based index.
	GetElementAt(index int) (Element, error)
}

// Coerce normalizes a value to the canonical Go representation of a CIM
// type. It accepts the canonical type itself plus the loosely typed values
// produced by untyped decoding (int, int64, uint64, float64). A nil value is
// valid for every type and stays nil. The second return is false when the
// value cannot represent the type.
func Coerce(value any, t Type) (any, bool) {
	if value == nil {
		return nil, true
	}
	if t.IsArray() {
		items, ok := value.([]any)
		if !ok {
			return nil, false
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, ok := Coerce(item, t.Elem())
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	}
	switch t {
	case TypeBoolean:
		v, ok := value.(bool)
		return v, ok
	case TypeString, TypeReference:
		v, ok := value.(string)
		return v, ok
	case TypeDatetime:
		switch v := value.(type) {
		case time.Time:
			return v, true
		case string:
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, false
			}
			return ts, true
		}
		return nil, false
	case TypeReal32:
		switch v := value.(type) {
		case float32:
			return v, true
		case float64:
			return float32(v), true
		}
		if i, ok := toInt64(value); ok {
			return float32(i), true
		}
		return nil, false
	case TypeReal64:
		switch v := value.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		}
		if i, ok := toInt64(value); ok {
			return float64(i), true
		}
		return nil, false
	}
	i, ok := toInt64(value)
	if !ok {
		return nil, false
	}
	switch t {
	case TypeUint8:
		if i < 0 || i > 0xff {
			return nil, false
		}
		return uint8(i), true
	case TypeSint8:
		if i < -0x80 || i > 0x7f {
			return nil, false
		}
		return int8(i), true
	case TypeUint16:
		if i < 0 || i > 0xffff {
			return nil, false
		}
		return uint16(i), true
	case TypeSint16:
		if i < -0x8000 || i > 0x7fff {
			return nil, false
		}
		return int16(i), true
	case TypeUint32:
		if i < 0 || i > 0xffffffff {
			return nil, false
		}
		return uint32(i), true
	case TypeSint32:
		if i < -0x80000000 || i > 0x7fffffff {
			return nil, false
		}
		return int32(i), true
	case TypeUint64:
		if i < 0 {
			return nil, false
		}
		return uint64(i), true
	case TypeSint64:
		return i, true
	}
	return nil, false
}

// toInt64 widens any integer value to int64. Unsigned values above the int64
// range are rejected.
func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), v <= 1<<63-1
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= 1<<63-1
	}
	return 0, false
}
