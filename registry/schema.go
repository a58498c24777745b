package registry

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wirevm/serval/errors"
)

// Schema is the YAML form of a registry. Types may reference any name
// defined earlier in the document; builtin scalars are always in scope.
//
//	enums:
//	  - name: Direction
//	    values: {North: 0, East: 1, South: 2, West: 3}
//	types:
//	  - name: Point
//	    kind: struct
//	    fields:
//	      - {name: x, type: float}
//	      - {name: y, type: float}
//	  - name: Entity
//	    kind: class
//	    serid: 1
//	    fields:
//	      - {name: pos, type: Point}
//	      - {name: hp, type: int, default: 1}
//	  - name: Monster
//	    kind: class
//	    super: Entity
//	    serid: 2
//	    fields:
//	      - {name: tags, type: "[int]"}
//	      - {name: target, type: "Entity?"}
//
// Type references use `[T]` for vectors and `T?` for nilable types.
type Schema struct {
	Enums []SchemaEnum `yaml:"enums"`
	Types []SchemaType `yaml:"types"`
}

type SchemaEnum struct {
	Name   string           `yaml:"name"`
	Values map[string]int64 `yaml:"values"`
}

type SchemaType struct {
	Name    string        `yaml:"name"`
	Kind    string        `yaml:"kind"` // struct | structref | class
	Super   string        `yaml:"super"`
	SerID   *int32        `yaml:"serid"`
	Declare bool          `yaml:"declare"` // name+super only, no body yet
	Fields  []SchemaField `yaml:"fields"`
}

type SchemaField struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Default yaml.Node `yaml:"default"`
}

// ParseSchema builds a registry from a YAML schema document.
func ParseSchema(data []byte) (*Registry, error) {
	var sch Schema
	if err := yaml.Unmarshal(data, &sch); err != nil {
		return nil, errors.Wrap(errors.PhaseRegister, errors.KindInvalidInput, err, "parse schema yaml")
	}
	r := New()

	for _, e := range sch.Enums {
		vals := make([]EnumValue, 0, len(e.Values))
		for name, v := range e.Values {
			vals = append(vals, EnumValue{Name: name, Val: v})
		}
		if _, err := r.RegisterEnum(e.Name, vals); err != nil {
			return nil, err
		}
	}

	for _, st := range sch.Types {
		if st.Declare {
			super := None
			if st.Super != "" {
				id, ok := r.TypeByName(st.Super)
				if !ok {
					return nil, errors.Registration(st.Name, errors.UnknownIdentifier(errors.PhaseRegister, nil, "supertype", st.Super))
				}
				super = id
			}
			r.DeclareClass(st.Name, super)
			continue
		}
		fields, err := r.schemaFields(st)
		if err != nil {
			return nil, err
		}
		switch st.Kind {
		case "struct", "":
			if _, err := r.RegisterStruct(st.Name, false, fields); err != nil {
				return nil, err
			}
		case "structref":
			if _, err := r.RegisterStruct(st.Name, true, fields); err != nil {
				return nil, err
			}
		case "class":
			super := None
			if st.Super != "" {
				id, ok := r.TypeByName(st.Super)
				if !ok {
					return nil, errors.Registration(st.Name, errors.UnknownIdentifier(errors.PhaseRegister, nil, "supertype", st.Super))
				}
				super = id
			}
			serID := int32(-1)
			if st.SerID != nil {
				serID = *st.SerID
			}
			if _, err := r.RegisterClass(st.Name, super, serID, fields); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Registration(st.Name, errors.InvalidInput(errors.PhaseRegister, "unknown kind "+st.Kind))
		}
	}
	return r, nil
}

func (r *Registry) schemaFields(st SchemaType) ([]Field, error) {
	fields := make([]Field, 0, len(st.Fields))
	for _, f := range st.Fields {
		ft, err := r.resolveTypeRef(f.Type)
		if err != nil {
			return nil, errors.Registration(st.Name, err)
		}
		def, err := r.fieldDefault(ft, f.Default)
		if err != nil {
			return nil, errors.Registration(st.Name, err)
		}
		fields = append(fields, Field{Type: ft, Name: f.Name, Default: def})
	}
	return fields, nil
}

// resolveTypeRef parses the schema's type reference syntax: builtin
// names, registered names, [T] vectors and T? nilables.
func (r *Registry) resolveTypeRef(ref string) (TypeID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return None, errors.InvalidInput(errors.PhaseRegister, "empty type reference")
	}
	if strings.HasSuffix(ref, "?") {
		elem, err := r.resolveTypeRef(ref[:len(ref)-1])
		if err != nil {
			return None, err
		}
		return r.Nilable(elem), nil
	}
	if strings.HasPrefix(ref, "[") {
		if !strings.HasSuffix(ref, "]") {
			return None, errors.InvalidInput(errors.PhaseRegister, "unterminated vector reference "+ref)
		}
		elem, err := r.resolveTypeRef(ref[1 : len(ref)-1])
		if err != nil {
			return None, err
		}
		return r.VectorOf(elem), nil
	}
	switch ref {
	case "any":
		return AnyType, nil
	case "int":
		return IntType, nil
	case "float":
		return FloatType, nil
	case "string":
		return StringType, nil
	}
	if id, ok := r.TypeByName(ref); ok {
		return id, nil
	}
	return None, errors.UnknownIdentifier(errors.PhaseRegister, nil, "type", ref)
}

// fieldDefault converts a YAML default into the scalar Field.Default
// form appropriate for the field's shape.
func (r *Registry) fieldDefault(ft TypeID, node yaml.Node) (int64, error) {
	if node.IsZero() {
		return 0, nil
	}
	snap := r.Snapshot()
	shape := snap.Shape(snap.Unwrap(ft))
	switch shape {
	case Float:
		var f float64
		if err := node.Decode(&f); err != nil {
			return 0, errors.Wrap(errors.PhaseRegister, errors.KindInvalidInput, err, "float default")
		}
		return FloatDefault(f), nil
	case Int:
		var i int64
		if err := node.Decode(&i); err == nil {
			return i, nil
		}
		// An enum field may default to a named constant.
		if ti := snap.Lookup(snap.Unwrap(ft)); ti != nil && ti.Enum != NoEnum {
			var name string
			if err := node.Decode(&name); err == nil {
				if v, ok := snap.EnumValue(ti.Enum, name); ok {
					return v, nil
				}
				return 0, errors.UnknownIdentifier(errors.PhaseRegister, nil, "enum value", name)
			}
		}
		return 0, errors.InvalidInput(errors.PhaseRegister, fmt.Sprintf("bad int default on line %d", node.Line))
	default:
		var i int64
		if err := node.Decode(&i); err != nil {
			return 0, errors.InvalidInput(errors.PhaseRegister, fmt.Sprintf("scalar default not allowed for %s field", shape))
		}
		return i, nil
	}
}
