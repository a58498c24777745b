package value

import (
	"fmt"
	"strconv"

	"github.com/wirevm/serval/registry"
)

// Kind discriminates the payload carried by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindInt
	KindFloat
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindRef:
		return "ref"
	default:
		return "unknown"
	}
}

// Value is either an inline scalar or a handle to a heap-resident
// string, vector or object. The zero Value is nil.
type Value struct {
	ref  Ref
	i    int64
	f    float64
	kind Kind
}

// Nil returns the nil value.
func Nil() Value { return Value{} }

// Int returns an inline integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns an inline float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNil() bool  { return v.kind == KindNil }
func (v Value) IsRef() bool  { return v.kind == KindRef }
func (v Value) Int() int64   { return v.i }
func (v Value) Float() float64 { return v.f }

// Ref returns the heap reference, or nil for inline values.
func (v Value) Ref() Ref {
	if v.kind != KindRef {
		return nil
	}
	return v.ref
}

// Str returns the string payload. It panics if the value is not a string.
func (v Value) Str() *Str { return v.ref.(*Str) }

// Vector returns the vector payload. It panics if the value is not a vector.
func (v Value) Vector() *Vector { return v.ref.(*Vector) }

// Object returns the object payload. It panics if the value is not an object.
func (v Value) Object() *Object { return v.ref.(*Object) }

// Negate flips the sign of a numeric value in place.
// It reports false for non-numeric values.
func (v *Value) Negate() bool {
	switch v.kind {
	case KindInt:
		v.i = -v.i
		return true
	case KindFloat:
		v.f = -v.f
		return true
	}
	return false
}

// Equal reports deep structural equality. Two refs are equal when their
// payloads are equal element-wise; identity is not considered.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	}
	switch ra := a.ref.(type) {
	case *Str:
		rb, ok := b.ref.(*Str)
		return ok && ra.S == rb.S
	case *Vector:
		rb, ok := b.ref.(*Vector)
		if !ok || ra.Type != rb.Type || len(ra.Elems) != len(rb.Elems) {
			return false
		}
		for i := range ra.Elems {
			if !Equal(ra.Elems[i], rb.Elems[i]) {
				return false
			}
		}
		return true
	case *Object:
		rb, ok := b.ref.(*Object)
		if !ok || ra.Type != rb.Type || len(ra.Fields) != len(rb.Fields) {
			return false
		}
		for i := range ra.Fields {
			if !Equal(ra.Fields[i], rb.Fields[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Sprint renders a debug form of the value. It is not the data-literal
// text format; use the codec text encoder for that.
func (v Value) Sprint() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
	switch r := v.ref.(type) {
	case *Str:
		return strconv.Quote(r.S)
	case *Vector:
		s := "["
		for i, e := range r.Elems {
			if i > 0 {
				s += ", "
			}
			s += e.Sprint()
		}
		return s + "]"
	case *Object:
		s := fmt.Sprintf("object(%d){", r.Type)
		for i, e := range r.Fields {
			if i > 0 {
				s += ", "
			}
			s += e.Sprint()
		}
		return s + "}"
	}
	return "?"
}

// Ref is a heap-resident, reference-counted payload.
type Ref interface {
	refcount() *int32
}

// Str is a managed string.
type Str struct {
	rc int32
	S  string
}

func (s *Str) refcount() *int32 { return &s.rc }

// Vector is a managed vector. Elems holds the flattened element run:
// when the element type is a flattened struct of width W, every W
// consecutive entries form one logical element and Len*Width == len(Elems).
type Vector struct {
	rc    int32
	Type  registry.TypeID // the vector type, not the element type
	Width int
	Len   int
	Elems []Value
}

func (v *Vector) refcount() *int32 { return &v.rc }

// Object is a managed class instance.
type Object struct {
	rc     int32
	Type   registry.TypeID
	Fields []Value
}

func (o *Object) refcount() *int32 { return &o.rc }
