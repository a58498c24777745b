package registry

import "math"

// TypeID is a handle into a Registry. Negative handles are invalid;
// they mark declared-but-unmaterialized types.
type TypeID int32

// None is the invalid type handle.
const None TypeID = -1

func (t TypeID) Valid() bool { return t >= 0 }

// Shape is the structural kind of a type.
type Shape uint8

const (
	Any Shape = iota
	Int
	Float
	String
	Nilable
	Vector
	StructValue
	StructRef
	Class
)

func (s Shape) String() string {
	switch s {
	case Any:
		return "any"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Nilable:
		return "nil"
	case Vector:
		return "vector"
	case StructValue:
		return "struct"
	case StructRef:
		return "struct ref"
	case Class:
		return "class"
	default:
		return "unknown"
	}
}

// IsStruct reports whether the shape is a flattened aggregate with no
// heap identity of its own.
func (s Shape) IsStruct() bool { return s == StructValue || s == StructRef }

// IsUDT reports whether the shape is a user-declared aggregate.
func (s Shape) IsUDT() bool { return s.IsStruct() || s == Class }

// Field is one slot of an aggregate: its type and the scalar default
// used when input omits it. For float-shaped fields the default holds
// float32 bits; use FloatDefault to construct one.
type Field struct {
	Type    TypeID
	Name    string
	Default int64
}

// FloatDefault packs a float default into the scalar Field.Default form.
func FloatDefault(f float64) int64 {
	return int64(math.Float32bits(float32(f)))
}

// DefaultFloat unpacks a scalar default as a float.
func DefaultFloat(d int64) float64 {
	return float64(math.Float32frombits(uint32(d)))
}

// Type is a resolved type descriptor. Descriptors are immutable once
// registered; Snapshot hands out views of them.
type Type struct {
	Shape  Shape
	Name   string  // classes, structs and enums; empty otherwise
	Elem   TypeID  // vector element or nilable wrapped type
	Fields []Field // aggregate fields, declared order
	Super  TypeID  // declared supertype, None if root
	SerID  int32   // wire identity for polymorphic dispatch, -1 if none
	Enum   EnumID  // symbol table for int-shaped enum types, -1 otherwise
}

// EnumID names an enum symbol table within a Registry.
type EnumID int32

// NoEnum marks int types that are not enums.
const NoEnum EnumID = -1
