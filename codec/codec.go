package codec

import (
	"github.com/wirevm/serval/errors"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/value"
)

// decoder carries the per-call state shared by the three input formats.
// Each top-level operation builds a fresh decoder over an immutable
// registry snapshot, fills the stack recursively and claims the single
// result; the stack guard reclaims everything else on the way out.
type decoder struct {
	reg  *registry.Snapshot
	heap *value.Heap
	st   stack
}

func newDecoder(reg *registry.Registry, heap *value.Heap) *decoder {
	return &decoder{reg: reg.Snapshot(), heap: heap, st: stack{heap: heap}}
}

// finish claims the decode result. A flattened struct target leaves
// its slots on the stack; they are boxed into an object here so the
// call can hand back one value that re-encodes against the same type.
// A nilable struct target that decoded to nil stays unboxed.
func (d *decoder) finish(t registry.TypeID) value.Value {
	u := d.reg.Unwrap(t)
	if d.reg.Shape(u).IsStruct() && !(u != t && d.st.len() == 1 && d.st.top().IsNil()) {
		d.st.foldObject(u, 0)
	}
	return d.st.claim()
}

// expectShape checks a literal or node against the expected base shape.
func expectShape(phase errors.Phase, path []string, given, needed registry.Shape) error {
	if given != needed && needed != registry.Any {
		return errors.TypeMismatch(phase, path, needed.String(), given.String())
	}
	return nil
}
