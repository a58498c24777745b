package codec

import (
	"github.com/wirevm/serval/errors"
	"github.com/wirevm/serval/registry"
)

// resolveUDTName maps a class or struct name written in the input to a
// concrete type. A name matching the expected type resolves to it;
// otherwise the registry's declared-name index is searched for a
// materialized direct subclass of the expected type. Resolution covers
// one level of subclassing only; names of deeper descendants do not
// resolve and the mismatch is reported as malformed input.
func (d *decoder) resolveUDTName(expected registry.TypeID, name string, phase errors.Phase, path []string) (registry.TypeID, error) {
	if d.reg.Name(expected) == name {
		return expected, nil
	}
	if sub, ok := d.reg.SubclassByName(name, expected); ok {
		return sub, nil
	}
	return registry.None, errors.New(phase, errors.KindStructural).
		Path(path...).
		Detail("class/struct type %s required, %s given", d.reg.Name(expected), name).
		Build()
}

// resolveSerID maps a wire serialization id to a concrete class
// compatible with the expected type. An id the registry cannot place
// under the expected type is a hard error, not a resolver miss.
func (d *decoder) resolveSerID(expected registry.TypeID, id uint64, path []string) (registry.TypeID, error) {
	if sub, ok := d.reg.SubclassBySerID(expected, uint32(id)); ok {
		return sub, nil
	}
	return registry.None, errors.New(errors.PhaseDecode, errors.KindUnknownIdentifier).
		Path(path...).
		Detail("serialization id %d is not a sub-class of %s", id, d.reg.Name(expected)).
		Build()
}

// udtByName resolves a class or struct name when no static type
// constrains the input (decoding against any).
func (d *decoder) udtByName(name string, phase errors.Phase, path []string) (registry.TypeID, error) {
	if t, ok := d.reg.TypeByName(name); ok && d.reg.Shape(t).IsUDT() {
		return t, nil
	}
	return registry.None, errors.UnknownIdentifier(phase, path, "class/struct", name)
}
