package codec

import (
	"encoding/binary"
	"math"

	"go.uber.org/zap"

	"github.com/wirevm/serval/errors"
	"github.com/wirevm/serval/internal/leb128"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/value"
)

// DecodeWire decodes the compact binary format against the expected
// type. The encoding is type-directed and carries no tags except a
// class's declared field count and serialization id; decoding against
// a type that drifted from the encoder's is only detected for classes.
// Every read is bounds-checked and an exhausted buffer reports
// Truncated. The caller owns the returned value.
func DecodeWire(reg *registry.Registry, heap *value.Heap, t registry.TypeID, data []byte) (value.Value, error) {
	d := newDecoder(reg, heap)
	defer d.st.release()
	r := &wireReader{data: data}
	if err := d.decodeWire(r, t, nil); err != nil {
		Logger().Debug("wire decode failed", zap.Error(err))
		return value.Nil(), err
	}
	return d.finish(t), nil
}

type wireReader struct {
	data []byte
	pos  int
}

func (r *wireReader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errors.Truncated(nil)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *wireReader) remaining() int { return len(r.data) - r.pos }

func (d *decoder) readU(r *wireReader, path []string) (uint64, error) {
	v, err := leb128.ReadU(r)
	if err == leb128.ErrOverflow {
		return 0, errors.Structural(errors.PhaseDecode, path, "varint overflow")
	}
	if err != nil {
		return 0, errors.Truncated(path)
	}
	return v, nil
}

func (d *decoder) readS(r *wireReader, path []string) (int64, error) {
	v, err := leb128.ReadS(r)
	if err == leb128.ErrOverflow {
		return 0, errors.Structural(errors.PhaseDecode, path, "varint overflow")
	}
	if err != nil {
		return 0, errors.Truncated(path)
	}
	return v, nil
}

func (d *decoder) decodeWire(r *wireReader, t registry.TypeID, path []string) error {
	base := d.reg.Lookup(t)
	if base == nil {
		return errors.Structural(errors.PhaseDecode, path, "invalid type handle")
	}
	ti := base
	nilable := base.Shape == registry.Nilable
	if nilable {
		t = base.Elem
		if ti = d.reg.Lookup(t); ti == nil {
			return errors.Structural(errors.PhaseDecode, path, "invalid type handle")
		}
	}
	if r.remaining() == 0 {
		return errors.Truncated(path)
	}
	switch ti.Shape {
	case registry.Int:
		i, err := d.readS(r, path)
		if err != nil {
			return err
		}
		d.st.push(value.Int(i))

	case registry.Float:
		if r.remaining() < 4 {
			return errors.Truncated(path)
		}
		bits := binary.LittleEndian.Uint32(r.data[r.pos:])
		r.pos += 4
		d.st.push(value.Float(float64(math.Float32frombits(bits))))

	case registry.String:
		n, err := d.readU(r, path)
		if err != nil {
			return err
		}
		if n == 0 && nilable {
			d.st.push(value.Nil())
			break
		}
		if n > uint64(r.remaining()) {
			return errors.Truncated(path)
		}
		s := string(r.data[r.pos : r.pos+int(n)])
		r.pos += int(n)
		d.st.pushOwned(d.heap.NewString(s))

	case registry.Vector:
		n, err := d.readU(r, path)
		if err != nil {
			return err
		}
		if n == 0 && nilable {
			d.st.push(value.Nil())
			break
		}
		start := d.st.len()
		for i := uint64(0); i < n; i++ {
			if err := d.decodeWire(r, ti.Elem, path); err != nil {
				return err
			}
		}
		d.st.foldVector(t, d.reg.Width(ti.Elem), start)

	case registry.Class:
		cnt, err := d.readU(r, path)
		if err != nil {
			return err
		}
		if cnt == 0 && nilable {
			d.st.push(value.Nil())
			break
		}
		sid, err := d.readU(r, path)
		if err != nil {
			return err
		}
		rt, err := d.resolveSerID(t, sid, path)
		if err != nil {
			return err
		}
		arity := d.reg.FlatLen(rt)
		if cnt > uint64(arity) {
			// Newer data against an older type. There is no way to
			// skip the unknown fields without their type information.
			return errors.Structural(errors.PhaseDecode, path,
				"extra fields present in "+d.reg.Name(rt))
		}
		start := d.st.len()
		for d.st.len()-start < arity {
			slot := d.st.len() - start
			f, ok := d.reg.SlotAt(rt, slot)
			if !ok {
				return errors.Structural(errors.PhaseDecode, path, "element count does not match type layout")
			}
			if uint64(slot) >= cnt {
				if err := d.synthesize(f.Type, f.Default, errors.PhaseDecode, path, f.Name); err != nil {
					return err
				}
			} else if err := d.decodeWire(r, f.Type, append(path, f.Name)); err != nil {
				return err
			}
		}
		d.st.foldObject(rt, start)

	case registry.StructValue, registry.StructRef:
		// No length prefix and no identity check. A struct that changed
		// shape between encode and decode simply parses wrong.
		arity := d.reg.FlatLen(t)
		start := d.st.len()
		for d.st.len()-start < arity {
			f, ok := d.reg.SlotAt(t, d.st.len()-start)
			if !ok {
				return errors.Structural(errors.PhaseDecode, path, "element count does not match type layout")
			}
			if err := d.decodeWire(r, f.Type, append(path, f.Name)); err != nil {
				return err
			}
		}

	default:
		return errors.New(errors.PhaseDecode, errors.KindUnsupported).
			Path(path...).
			Detail("cannot decode %s from the compact format", ti.Shape).
			Build()
	}
	return nil
}
