package value

import (
	"testing"

	"github.com/wirevm/serval/registry"
)

func TestScalars(t *testing.T) {
	if !Nil().IsNil() {
		t.Error("Nil() is not nil")
	}
	if v := Int(42); v.Kind() != KindInt || v.Int() != 42 {
		t.Errorf("Int(42) = %v", v)
	}
	if v := Float(1.5); v.Kind() != KindFloat || v.Float() != 1.5 {
		t.Errorf("Float(1.5) = %v", v)
	}
	v := Int(7)
	if !v.Negate() || v.Int() != -7 {
		t.Errorf("Negate int = %v", v)
	}
	f := Float(2.5)
	if !f.Negate() || f.Float() != -2.5 {
		t.Errorf("Negate float = %v", f)
	}
	n := Nil()
	if n.Negate() {
		t.Error("Negate of nil should fail")
	}
}

func TestHeapAccounting(t *testing.T) {
	h := NewHeap()
	s := h.NewString("hello")
	if h.Live() != 1 {
		t.Fatalf("Live = %d, want 1", h.Live())
	}
	if Refcount(s) != 1 {
		t.Fatalf("Refcount = %d, want 1", Refcount(s))
	}
	h.Retain(s)
	if Refcount(s) != 2 {
		t.Fatalf("Refcount after Retain = %d, want 2", Refcount(s))
	}
	h.Release(s)
	if h.Live() != 1 {
		t.Error("Release of retained value freed it")
	}
	h.Release(s)
	if h.Live() != 0 {
		t.Errorf("Live after final release = %d, want 0", h.Live())
	}
}

func TestReleaseRecursesIntoAggregates(t *testing.T) {
	h := NewHeap()
	a := h.NewString("a")
	b := h.NewString("b")
	vec := h.NewVector(registry.TypeID(10), 1, 2, []Value{a, b})
	if h.Live() != 3 {
		t.Fatalf("Live = %d, want 3", h.Live())
	}
	// The vector took over the element references; releasing it must
	// release both strings exactly once.
	h.Release(vec)
	if h.Live() != 0 {
		t.Errorf("Live after releasing vector = %d, want 0", h.Live())
	}
}

func TestObjectOwnership(t *testing.T) {
	h := NewHeap()
	s := h.NewString("name")
	obj := h.NewObject(registry.TypeID(4), []Value{Int(1), s})
	keep := h.Retain(s)
	h.Release(obj)
	if h.Live() != 1 {
		t.Fatalf("Live = %d, want 1 (retained string)", h.Live())
	}
	if keep.Str().S != "name" {
		t.Error("retained string corrupted by object release")
	}
	h.Release(keep)
	if h.Live() != 0 {
		t.Errorf("Live = %d, want 0", h.Live())
	}
}

func TestEqual(t *testing.T) {
	h := NewHeap()
	mk := func() Value {
		return h.NewObject(registry.TypeID(4), []Value{
			Int(1),
			h.NewString("x"),
			h.NewVector(registry.TypeID(9), 1, 2, []Value{Float(1.5), Float(2.5)}),
		})
	}
	a, b := mk(), mk()
	if !Equal(a, b) {
		t.Error("structurally equal objects compare unequal")
	}
	c := h.NewObject(registry.TypeID(4), []Value{Int(2), h.NewString("x"), Nil()})
	if Equal(a, c) {
		t.Error("different objects compare equal")
	}
	if Equal(Int(1), Float(1)) {
		t.Error("int and float compare equal")
	}
	if !Equal(Nil(), Nil()) {
		t.Error("nil values compare unequal")
	}
}

func TestReleaseDeadReferencePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on double release")
		}
	}()
	h := NewHeap()
	s := h.NewString("x")
	h.Release(s)
	h.Release(s)
}
