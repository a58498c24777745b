package codec

import (
	"github.com/wirevm/serval/errors"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/tree"
	"github.com/wirevm/serval/value"
)

// DefaultMaxDepth bounds tree encoding when TreeOptions leaves
// MaxDepth unset.
const DefaultMaxDepth = 100

// TreeOptions configures value-to-tree encoding.
type TreeOptions struct {
	// MaxDepth bounds nesting; zero means DefaultMaxDepth.
	MaxDepth int
	// DetectCycles rejects self-referential data instead of running
	// into the depth limit. Off by default, it costs a map insert per
	// reference visited.
	DetectCycles bool
}

// EncodeTree renders a value as a schema-less tree. Structs and
// classes become maps keyed by field name; a class whose runtime type
// differs from the static type records it under the reserved type key
// so decoding can resolve the subclass.
func EncodeTree(reg *registry.Registry, t registry.TypeID, v value.Value, opts TreeOptions) (*tree.Node, error) {
	e := &treeEncoder{reg: reg.Snapshot(), maxDepth: opts.MaxDepth}
	if e.maxDepth <= 0 {
		e.maxDepth = DefaultMaxDepth
	}
	if opts.DetectCycles {
		e.seen = make(map[value.Ref]bool)
	}
	return e.encode(t, v, 0)
}

type treeEncoder struct {
	reg      *registry.Snapshot
	maxDepth int
	seen     map[value.Ref]bool
}

func (e *treeEncoder) encode(t registry.TypeID, v value.Value, depth int) (*tree.Node, error) {
	if depth > e.maxDepth {
		return nil, errors.New(errors.PhaseEncode, errors.KindStructural).
			Detail("data structure exceeds max nesting depth %d", e.maxDepth).
			Build()
	}
	switch v.Kind() {
	case value.KindNil:
		return tree.Null(), nil
	case value.KindInt:
		return tree.Int(v.Int()), nil
	case value.KindFloat:
		return tree.Float(v.Float()), nil
	}
	r := v.Ref()
	if e.seen != nil {
		if e.seen[r] {
			return nil, errors.New(errors.PhaseEncode, errors.KindStructural).
				Detail("data structure contains a cycle").
				Build()
		}
		e.seen[r] = true
		defer delete(e.seen, r)
	}
	switch rv := r.(type) {
	case *value.Str:
		return tree.Str(rv.S), nil

	case *value.Vector:
		elem := registry.AnyType
		if ti := e.reg.Lookup(rv.Type); ti != nil && ti.Shape == registry.Vector {
			elem = ti.Elem
		}
		n := tree.Vec()
		width := rv.Width
		if width < 1 {
			width = 1
		}
		for i := 0; i < rv.Len; i++ {
			run := rv.Elems[i*width : (i+1)*width]
			c, err := e.encodeElem(elem, run, depth+1)
			if err != nil {
				return nil, err
			}
			n.Elems = append(n.Elems, c)
		}
		return n, nil

	case *value.Object:
		n := tree.Map()
		static := e.reg.Unwrap(t)
		if rv.Type != static {
			n.Set(tree.TypeKey, tree.Str(e.reg.Name(rv.Type)))
		}
		if err := e.encodeFields(n, rv.Type, rv.Fields, depth+1); err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, errors.Unsupported(errors.PhaseEncode, "unknown value kind")
}

// encodeElem renders one logical element from its flattened run.
func (e *treeEncoder) encodeElem(t registry.TypeID, run []value.Value, depth int) (*tree.Node, error) {
	if ti := e.reg.Lookup(t); ti != nil && ti.Shape.IsStruct() {
		n := tree.Map()
		if err := e.encodeFields(n, t, run, depth); err != nil {
			return nil, err
		}
		return n, nil
	}
	return e.encode(t, run[0], depth)
}

// encodeFields renders a flattened field run as named map entries,
// nested structs becoming nested maps.
func (e *treeEncoder) encodeFields(n *tree.Node, t registry.TypeID, run []value.Value, depth int) error {
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
		c, err := e.encodeElem(f.Type, run[off:off+w], depth)
		if err != nil {
			return err
		}
		n.Set(f.Name, c)
		off += w
	}
	return nil
}
