package codec

import (
	"github.com/wirevm/serval/errors"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/value"
)

// synthesize pushes a well-typed placeholder for an absent field or
// element, derived from the field's declared scalar default. Aggregates
// recurse into their own field defaults, the scalar passed in being
// meaningful for scalar shapes only. Shapes with no derivable default
// (vectors, strings) report MissingDefault against fieldName.
func (d *decoder) synthesize(t registry.TypeID, def int64, phase errors.Phase, path []string, fieldName string) error {
	ti := d.reg.Lookup(t)
	if ti == nil {
		return errors.MissingDefault(phase, path, fieldName)
	}
	switch ti.Shape {
	case registry.Int:
		d.st.push(value.Int(def))
	case registry.Float:
		d.st.push(value.Float(registry.DefaultFloat(def)))
	case registry.Nilable:
		d.st.push(value.Nil())
	case registry.StructValue, registry.StructRef, registry.Class:
		start := d.st.len()
		for _, f := range ti.Fields {
			if err := d.synthesize(f.Type, f.Default, phase, path, f.Name); err != nil {
				return err
			}
		}
		if ti.Shape == registry.Class {
			d.st.foldObject(t, start)
		}
	default:
		return errors.MissingDefault(phase, path, fieldName)
	}
	return nil
}
