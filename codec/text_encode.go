package codec

import (
	"strconv"
	"strings"

	"github.com/wirevm/serval/errors"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/value"
)

// EncodeText renders a value as a data literal the text parser accepts
// back. Enum-typed integers print their declared name when the value
// maps back to exactly one; floats always carry a decimal point or
// exponent so they re-parse as floats.
func EncodeText(reg *registry.Registry, t registry.TypeID, v value.Value) (string, error) {
	e := &textEncoder{reg: reg.Snapshot()}
	var b strings.Builder
	if err := e.encode(&b, t, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

type textEncoder struct {
	reg *registry.Snapshot
}

func (e *textEncoder) encode(b *strings.Builder, t registry.TypeID, v value.Value) error {
	ti := e.reg.Lookup(t)
	if ti != nil && ti.Shape == registry.Nilable && !v.IsNil() {
		t = ti.Elem
		ti = e.reg.Lookup(t)
	}
	switch v.Kind() {
	case value.KindNil:
		b.WriteString("nil")

	case value.KindInt:
		if ti != nil && ti.Enum != registry.NoEnum {
			if name, ok := e.reg.EnumValueName(ti.Enum, v.Int()); ok {
				b.WriteString(name)
				return nil
			}
		}
		b.WriteString(strconv.FormatInt(v.Int(), 10))

	case value.KindFloat:
		writeFloat(b, v.Float())

	case value.KindRef:
		switch r := v.Ref().(type) {
		case *value.Str:
			b.WriteString(strconv.Quote(r.S))

		case *value.Vector:
			elem := registry.AnyType
			if vti := e.reg.Lookup(r.Type); vti != nil && vti.Shape == registry.Vector {
				elem = vti.Elem
			} else if ti != nil && ti.Shape == registry.Vector {
				elem = ti.Elem
			}
			width := r.Width
			if width < 1 {
				width = 1
			}
			b.WriteByte('[')
			for i := 0; i < r.Len; i++ {
				if i > 0 {
					b.WriteString(", ")
				}
				run := r.Elems[i*width : (i+1)*width]
				if err := e.encodeElem(b, elem, run); err != nil {
					return err
				}
			}
			b.WriteByte(']')

		case *value.Object:
			ot := r.Type
			oti := e.reg.Lookup(ot)
			if oti == nil {
				return errors.Unsupported(errors.PhaseEncode, "unregistered class type")
			}
			b.WriteString(e.reg.Name(ot))
			b.WriteByte('{')
			if err := e.encodeRun(b, ot, r.Fields); err != nil {
				return err
			}
			b.WriteByte('}')
		}
	}
	return nil
}

// encodeElem renders one logical element from its flattened run.
func (e *textEncoder) encodeElem(b *strings.Builder, t registry.TypeID, run []value.Value) error {
	if ti := e.reg.Lookup(t); ti != nil && ti.Shape.IsStruct() {
		b.WriteString(e.reg.Name(t))
		b.WriteByte('{')
		if err := e.encodeRun(b, t, run); err != nil {
			return err
		}
		b.WriteByte('}')
		return nil
	}
	return e.encode(b, t, run[0])
}

// encodeRun renders a flattened field run in declared order.
func (e *textEncoder) encodeRun(b *strings.Builder, t registry.TypeID, run []value.Value) error {
	ti := e.reg.Lookup(t)
	if ti == nil {
		return errors.Unsupported(errors.PhaseEncode, "unregistered aggregate type")
	}
	off := 0
	for i, f := range ti.Fields {
		w := e.reg.Width(f.Type)
		if off+w > len(run) {
			return errors.New(errors.PhaseEncode, errors.KindStructural).
				Detail("value has fewer fields than type %s declares", e.reg.Name(t)).
				Build()
		}
		if i > 0 {
			b.WriteString(", ")
		}
		if err := e.encodeElem(b, f.Type, run[off:off+w]); err != nil {
			return err
		}
		off += w
	}
	return nil
}

// writeFloat renders a float that the lexer reads back as one.
func writeFloat(b *strings.Builder, f float64) {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	b.WriteString(s)
	if !strings.ContainsAny(s, ".eE") {
		b.WriteString(".0")
	}
}
