package codec

import (
	"go.uber.org/zap"

	"github.com/wirevm/serval/errors"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/tree"
	"github.com/wirevm/serval/value"
)

// DecodeTree decodes a structurally verified tree against the expected
// type. Shape well-formedness is assumed; type compatibility is still
// checked node by node. Map fields are matched by name: absent or null
// entries fall back to the field's declared default, entries with no
// declared field are ignored. The caller owns the returned value.
func DecodeTree(reg *registry.Registry, heap *value.Heap, t registry.TypeID, n *tree.Node) (value.Value, error) {
	d := newDecoder(reg, heap)
	defer d.st.release()
	if err := d.decodeNode(t, n, nil); err != nil {
		Logger().Debug("tree decode failed", zap.Error(err))
		return value.Nil(), err
	}
	return d.finish(t), nil
}

func (d *decoder) decodeNode(t registry.TypeID, n *tree.Node, path []string) error {
	ti := d.reg.Lookup(t)
	if ti == nil {
		return errors.Structural(errors.PhaseDecode, path, "invalid type handle")
	}
	if ti.Shape == registry.Nilable && n.Kind != tree.NodeNull {
		t = ti.Elem
		if ti = d.reg.Lookup(t); ti == nil {
			return errors.Structural(errors.PhaseDecode, path, "invalid type handle")
		}
	}
	switch n.Kind {
	case tree.NodeInt, tree.NodeBool:
		if err := expectShape(errors.PhaseDecode, path, registry.Int, ti.Shape); err != nil {
			return err
		}
		d.st.push(value.Int(n.Int))

	case tree.NodeFloat:
		if err := expectShape(errors.PhaseDecode, path, registry.Float, ti.Shape); err != nil {
			return err
		}
		d.st.push(value.Float(n.Float))

	case tree.NodeString:
		if err := expectShape(errors.PhaseDecode, path, registry.String, ti.Shape); err != nil {
			return err
		}
		d.st.pushOwned(d.heap.NewString(n.Str))

	case tree.NodeNull:
		if err := expectShape(errors.PhaseDecode, path, registry.Nilable, ti.Shape); err != nil {
			return err
		}
		d.st.push(value.Nil())

	case tree.NodeVector:
		if err := expectShape(errors.PhaseDecode, path, registry.Vector, ti.Shape); err != nil {
			return err
		}
		elem := registry.AnyType
		width := 1
		if ti.Shape == registry.Vector {
			elem = ti.Elem
			width = d.reg.Width(elem)
		}
		start := d.st.len()
		for _, e := range n.Elems {
			if err := d.decodeNode(elem, e, path); err != nil {
				return err
			}
		}
		d.st.foldVector(t, width, start)

	case tree.NodeMap:
		if !ti.Shape.IsUDT() && ti.Shape != registry.Any {
			return errors.TypeMismatch(errors.PhaseDecode, path, "class/struct", ti.Shape.String())
		}
		tn := n.At(tree.TypeKey)
		if ti.Shape == registry.Any {
			if tn == nil || tn.Kind != tree.NodeString {
				return errors.Structural(errors.PhaseDecode, path, "map carries no type name to decode against any")
			}
			rt, err := d.udtByName(tn.Str, errors.PhaseDecode, path)
			if err != nil {
				return err
			}
			t = rt
			ti = d.reg.Lookup(t)
		} else if tn != nil && tn.Kind == tree.NodeString && tn.Str != d.reg.Name(t) {
			rt, err := d.resolveUDTName(t, tn.Str, errors.PhaseDecode, path)
			if err != nil {
				return err
			}
			t = rt
			ti = d.reg.Lookup(t)
		}
		arity := d.reg.FlatLen(t)
		start := d.st.len()
		for d.st.len()-start < arity {
			f, ok := d.reg.SlotAt(t, d.st.len()-start)
			if !ok {
				return errors.Structural(errors.PhaseDecode, path, "element count does not match type layout")
			}
			e := n.At(f.Name)
			if e == nil || e.Kind == tree.NodeNull {
				if err := d.synthesize(f.Type, f.Default, errors.PhaseDecode, path, f.Name); err != nil {
					return err
				}
			} else if err := d.decodeNode(f.Type, e, append(path, f.Name)); err != nil {
				return err
			}
		}
		if ti.Shape == registry.Class {
			d.st.foldObject(t, start)
		}
		// flattened structs stay in place, unfolded

	default:
		return errors.Structural(errors.PhaseDecode, path, "unknown tree node kind")
	}
	return nil
}
