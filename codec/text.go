package codec

import (
	"go.uber.org/zap"

	"github.com/wirevm/serval/errors"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/value"
)

// ParseText decodes a data-literal string against the expected type.
// The grammar is type-directed: which productions are accepted at each
// point depends on the shape being decoded. The caller owns the
// returned value and releases it through the heap.
func ParseText(reg *registry.Registry, heap *value.Heap, t registry.TypeID, src string) (value.Value, error) {
	p := &textParser{decoder: newDecoder(reg, heap)}
	p.lx.init(src)
	defer p.st.release()
	if err := p.lx.next(); err != nil {
		return value.Nil(), err
	}
	if err := p.parseValue(t, nil); err != nil {
		Logger().Debug("text parse failed", zap.Error(err))
		return value.Nil(), err
	}
	if p.lx.tok == tokNewline {
		if err := p.lx.next(); err != nil {
			return value.Nil(), err
		}
	}
	if p.lx.tok != tokEOF {
		return value.Nil(), p.lx.errorf("end of input expected, found: %s", p.lx.tokStr())
	}
	return p.finish(t), nil
}

type textParser struct {
	*decoder
	lx lexer
}

func (p *textParser) parseValue(t registry.TypeID, path []string) error {
	ti := p.reg.Lookup(t)
	if ti == nil {
		return errors.Structural(errors.PhaseParse, path, "invalid type handle")
	}
	if ti.Shape == registry.Nilable && p.lx.tok != tokNil {
		t = ti.Elem
		if ti = p.reg.Lookup(t); ti == nil {
			return errors.Structural(errors.PhaseParse, path, "invalid type handle")
		}
	}
	switch p.lx.tok {
	case tokInt:
		if err := expectShape(errors.PhaseParse, path, registry.Int, ti.Shape); err != nil {
			return err
		}
		i := p.lx.ival
		if err := p.lx.next(); err != nil {
			return err
		}
		p.st.push(value.Int(i))

	case tokFloat:
		if err := expectShape(errors.PhaseParse, path, registry.Float, ti.Shape); err != nil {
			return err
		}
		f := p.lx.fval
		if err := p.lx.next(); err != nil {
			return err
		}
		p.st.push(value.Float(f))

	case tokString:
		if err := expectShape(errors.PhaseParse, path, registry.String, ti.Shape); err != nil {
			return err
		}
		s := p.lx.sval
		if err := p.lx.next(); err != nil {
			return err
		}
		p.st.pushOwned(p.heap.NewString(s))

	case tokNil:
		if err := expectShape(errors.PhaseParse, path, registry.Nilable, ti.Shape); err != nil {
			return err
		}
		if err := p.lx.next(); err != nil {
			return err
		}
		p.st.push(value.Nil())

	case tokMinus:
		// Negation applies to whatever numeric value follows,
		// including an enum identifier resolved to its constant.
		if err := p.lx.next(); err != nil {
			return err
		}
		if err := p.parseValue(t, path); err != nil {
			return err
		}
		if !p.st.top().Negate() {
			return p.lx.errorf("unary minus: numeric value expected")
		}

	case tokLBracket:
		if err := expectShape(errors.PhaseParse, path, registry.Vector, ti.Shape); err != nil {
			return err
		}
		if err := p.lx.next(); err != nil {
			return err
		}
		return p.parseElems(tokRBracket, t, -1, path)

	case tokIdent:
		if ti.Shape == registry.Int && ti.Enum != registry.NoEnum {
			v, ok := p.reg.EnumValue(ti.Enum, p.lx.sval)
			if !ok {
				return errors.UnknownIdentifier(errors.PhaseParse, path, "enum value", p.lx.sval)
			}
			if err := p.lx.next(); err != nil {
				return err
			}
			p.st.push(value.Int(v))
			return nil
		}
		if !ti.Shape.IsUDT() && ti.Shape != registry.Any {
			return errors.TypeMismatch(errors.PhaseParse, path, "class/struct", ti.Shape.String())
		}
		name := p.lx.sval
		if err := p.lx.next(); err != nil {
			return err
		}
		if p.lx.tok != tokLBrace {
			return p.lx.errorf("`{` expected, found: %s", p.lx.tokStr())
		}
		if err := p.lx.next(); err != nil {
			return err
		}
		var err error
		if ti.Shape == registry.Any {
			t, err = p.udtByName(name, errors.PhaseParse, path)
		} else {
			t, err = p.resolveUDTName(t, name, errors.PhaseParse, path)
		}
		if err != nil {
			return err
		}
		return p.parseElems(tokRBrace, t, p.reg.FlatLen(t), path)

	default:
		return p.lx.errorf("illegal start of expression: %s", p.lx.tokStr())
	}
	return nil
}

// parseElems parses the comma- or newline-separated elements of a
// vector or aggregate up to the closing token. For aggregates arity is
// the flattened slot count; each element's expected type is taken from
// the slot it lands on, and lexical elements beyond arity are decoded
// generically and dropped. For vectors arity is -1 and one element
// type applies throughout.
func (p *textParser) parseElems(end token, t registry.TypeID, arity int, path []string) error {
	if p.lx.tok == tokNewline {
		if err := p.lx.next(); err != nil {
			return err
		}
	}
	ti := p.reg.Lookup(t)
	start := p.st.len()
	n := func() int { return p.st.len() - start }
	if p.lx.tok == end {
		if err := p.lx.next(); err != nil {
			return err
		}
	} else {
		for {
			if arity >= 0 && n() == arity {
				mark := p.st.len()
				if err := p.parseValue(registry.AnyType, path); err != nil {
					return err
				}
				p.st.drop(p.st.len() - mark)
			} else if ti.Shape == registry.Vector {
				if err := p.parseValue(ti.Elem, path); err != nil {
					return err
				}
			} else if ti.Shape == registry.Any {
				if err := p.parseValue(registry.AnyType, path); err != nil {
					return err
				}
			} else {
				f, ok := p.reg.SlotAt(t, n())
				if !ok {
					return errors.Structural(errors.PhaseParse, path, "element count does not match type layout")
				}
				if err := p.parseValue(f.Type, append(path, f.Name)); err != nil {
					return err
				}
			}
			haslf := p.lx.tok == tokNewline
			if haslf {
				if err := p.lx.next(); err != nil {
					return err
				}
			}
			if p.lx.tok == end {
				break
			}
			if !haslf {
				if p.lx.tok != tokComma {
					return p.lx.errorf("%s expected, found: %s", end, p.lx.tokStr())
				}
				if err := p.lx.next(); err != nil {
					return err
				}
			}
		}
		if err := p.lx.next(); err != nil {
			return err
		}
	}
	if arity >= 0 {
		for n() < arity {
			f, ok := p.reg.SlotAt(t, n())
			if !ok {
				return errors.Structural(errors.PhaseParse, path, "element count does not match type layout")
			}
			if err := p.synthesize(f.Type, f.Default, errors.PhaseParse, path, f.Name); err != nil {
				return err
			}
		}
	}
	switch ti.Shape {
	case registry.Class:
		p.st.foldObject(t, start)
	case registry.Vector:
		p.st.foldVector(t, p.reg.Width(ti.Elem), start)
	case registry.Any:
		p.st.foldVector(t, 1, start)
	}
	// flattened structs stay in place, unfolded
	return nil
}
