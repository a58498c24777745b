package value

import "github.com/wirevm/serval/registry"

// Heap allocates and reclaims managed values. Reference counts are
// manipulated exclusively through the heap so that allocation and free
// totals stay observable; decoders rely on that accounting to prove
// ownership safety on abort paths.
//
// The heap is not synchronized. Each top-level decode owns its stack
// and the caller owns the heap; concurrent use requires one heap per
// goroutine or external locking.
type Heap struct {
	allocs int
	frees  int
}

func NewHeap() *Heap {
	return &Heap{}
}

// Allocs returns the number of heap values allocated so far.
func (h *Heap) Allocs() int { return h.allocs }

// Frees returns the number of heap values reclaimed so far.
func (h *Heap) Frees() int { return h.frees }

// Live returns the number of heap values currently alive.
func (h *Heap) Live() int { return h.allocs - h.frees }

// NewString allocates a managed string with one reference.
func (h *Heap) NewString(s string) Value {
	h.allocs++
	return Value{kind: KindRef, ref: &Str{rc: 1, S: s}}
}

// NewVector allocates a managed vector with one reference, bulk-copying
// the flattened run elems. Counted references in elems are transferred
// to the vector, not re-counted.
func (h *Heap) NewVector(t registry.TypeID, width, n int, elems []Value) Value {
	h.allocs++
	v := &Vector{rc: 1, Type: t, Width: width, Len: n}
	if len(elems) > 0 {
		v.Elems = make([]Value, len(elems))
		copy(v.Elems, elems)
	}
	return Value{kind: KindRef, ref: v}
}

// NewObject allocates a managed class instance with one reference,
// bulk-copying fields. Counted references in fields are transferred to
// the object, not re-counted.
func (h *Heap) NewObject(t registry.TypeID, fields []Value) Value {
	h.allocs++
	o := &Object{rc: 1, Type: t}
	if len(fields) > 0 {
		o.Fields = make([]Value, len(fields))
		copy(o.Fields, fields)
	}
	return Value{kind: KindRef, ref: o}
}

// Retain increments the reference count of a managed value.
// Inline values pass through unchanged.
func (h *Heap) Retain(v Value) Value {
	if v.kind == KindRef {
		*v.ref.refcount()++
	}
	return v
}

// Release decrements the reference count of a managed value, reclaiming
// it and releasing its children when the count reaches zero.
func (h *Heap) Release(v Value) {
	if v.kind != KindRef {
		return
	}
	rc := v.ref.refcount()
	*rc--
	if *rc > 0 {
		return
	}
	if *rc < 0 {
		panic("value: release of dead reference")
	}
	h.frees++
	switch r := v.ref.(type) {
	case *Vector:
		for _, e := range r.Elems {
			h.Release(e)
		}
		r.Elems = nil
	case *Object:
		for _, e := range r.Fields {
			h.Release(e)
		}
		r.Fields = nil
	}
}

// Refcount returns the current reference count of a managed value, or
// zero for inline values. Intended for tests and diagnostics.
func Refcount(v Value) int32 {
	if v.kind != KindRef {
		return 0
	}
	return *v.ref.refcount()
}
