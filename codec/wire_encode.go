package codec

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/wirevm/serval/errors"
	"github.com/wirevm/serval/internal/leb128"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/value"
)

// EncodeWire renders a value in the compact binary format. The output
// is meant for transient exchange between peers sharing the same
// registry, not for storage: structs carry no self-description, and
// cyclic data is not detected and will not terminate. Classes must
// carry a serialization id to be encodable.
func EncodeWire(reg *registry.Registry, t registry.TypeID, v value.Value) ([]byte, error) {
	e := &wireEncoder{reg: reg.Snapshot()}
	var buf bytes.Buffer
	if err := e.encode(&buf, t, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type wireEncoder struct {
	reg *registry.Snapshot
}

func (e *wireEncoder) encode(buf *bytes.Buffer, t registry.TypeID, v value.Value) error {
	base := e.reg.Lookup(t)
	if base == nil {
		return errors.Unsupported(errors.PhaseEncode, "invalid type handle")
	}
	ti := base
	nilable := base.Shape == registry.Nilable
	if nilable {
		t = base.Elem
		if ti = e.reg.Lookup(t); ti == nil {
			return errors.Unsupported(errors.PhaseEncode, "invalid type handle")
		}
	}
	if v.IsNil() {
		switch {
		case !nilable:
			return errors.TypeMismatch(errors.PhaseEncode, nil, ti.Shape.String(), "nil")
		case ti.Shape == registry.String, ti.Shape == registry.Vector, ti.Shape == registry.Class:
			leb128.WriteU(buf, 0)
			return nil
		default:
			return errors.Unsupported(errors.PhaseEncode,
				"nil "+ti.Shape.String()+" has no compact encoding")
		}
	}
	switch ti.Shape {
	case registry.Int:
		if v.Kind() != value.KindInt {
			return errors.TypeMismatch(errors.PhaseEncode, nil, "int", v.Kind().String())
		}
		leb128.WriteS(buf, v.Int())

	case registry.Float:
		if v.Kind() != value.KindFloat {
			return errors.TypeMismatch(errors.PhaseEncode, nil, "float", v.Kind().String())
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(v.Float())))
		buf.Write(b[:])

	case registry.String:
		if !v.IsRef() {
			return errors.TypeMismatch(errors.PhaseEncode, nil, "string", v.Kind().String())
		}
		s, ok := v.Ref().(*value.Str)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, nil, "string", "ref")
		}
		leb128.WriteU(buf, uint64(len(s.S)))
		buf.WriteString(s.S)

	case registry.Vector:
		if err := e.encodeVector(buf, ti, v); err != nil {
			return err
		}

	case registry.Class:
		if err := e.encodeObject(buf, v); err != nil {
			return err
		}

	case registry.StructValue, registry.StructRef:
		// Boxed flattened struct, as produced by a top-level decode.
		r, ok := v.Ref().(*value.Object)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, nil, ti.Shape.String(), v.Kind().String())
		}
		return e.encodeRun(buf, t, r.Fields)

	default:
		return errors.Unsupported(errors.PhaseEncode,
			"cannot encode "+ti.Shape.String()+" in the compact format")
	}
	return nil
}

func (e *wireEncoder) encodeVector(buf *bytes.Buffer, ti *registry.Type, v value.Value) error {
	r, ok := v.Ref().(*value.Vector)
	if !ok {
		return errors.TypeMismatch(errors.PhaseEncode, nil, "vector", v.Kind().String())
	}
	elem := ti.Elem
	leb128.WriteU(buf, uint64(r.Len))
	width := r.Width
	if width < 1 {
		width = 1
	}
	for i := 0; i < r.Len; i++ {
		run := r.Elems[i*width : (i+1)*width]
		if eti := e.reg.Lookup(elem); eti != nil && eti.Shape.IsStruct() {
			if err := e.encodeRun(buf, elem, run); err != nil {
				return err
			}
		} else if err := e.encode(buf, elem, run[0]); err != nil {
			return err
		}
	}
	return nil
}

func (e *wireEncoder) encodeObject(buf *bytes.Buffer, v value.Value) error {
	r, ok := v.Ref().(*value.Object)
	if !ok {
		return errors.TypeMismatch(errors.PhaseEncode, nil, "class", v.Kind().String())
	}
	// Dispatch on the runtime type so subclasses survive the trip.
	rt := r.Type
	ti := e.reg.Lookup(rt)
	if ti == nil {
		return errors.Unsupported(errors.PhaseEncode, "unregistered class type")
	}
	if ti.SerID < 0 {
		return errors.Unsupported(errors.PhaseEncode,
			"type "+e.reg.Name(rt)+" has no serialization id")
	}
	leb128.WriteU(buf, uint64(len(r.Fields)))
	leb128.WriteU(buf, uint64(ti.SerID))
	return e.encodeRun(buf, rt, r.Fields)
}

// encodeRun writes a flattened field run in declared order.
func (e *wireEncoder) encodeRun(buf *bytes.Buffer, t registry.TypeID, run []value.Value) error {
	ti := e.reg.Lookup(t)
	if ti == nil {
		return errors.Unsupported(errors.PhaseEncode, "unregistered aggregate type")
	}
	off := 0
	for _, f := range ti.Fields {
		w := e.reg.Width(f.Type)
		if off+w > len(run) {
			return errors.New(errors.PhaseEncode, errors.KindStructural).
				Detail("value has fewer fields than type %s declares", e.reg.Name(t)).
				Build()
		}
		if fti := e.reg.Lookup(f.Type); fti != nil && fti.Shape.IsStruct() {
			if err := e.encodeRun(buf, f.Type, run[off:off+w]); err != nil {
				return err
			}
		} else if err := e.encode(buf, f.Type, run[off]); err != nil {
			return err
		}
		off += w
	}
	return nil
}
