package tree

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/wirevm/serval/errors"
)

// JSONOptions controls the tree-to-JSON rendering.
type JSONOptions struct {
	// Indent is the per-level indentation string. Empty renders a
	// single line.
	Indent string
	// BareKeys emits identifier-shaped map keys without quotes. The
	// result is JavaScript-flavored, not strict JSON.
	BareKeys bool
}

// ToJSON renders a tree as JSON text. The conversion is driven purely
// by node tags; no type registry is involved.
func ToJSON(n *Node, opts JSONOptions) (string, error) {
	var b strings.Builder
	if err := writeJSON(&b, n, opts, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeJSON(b *strings.Builder, n *Node, opts JSONOptions, level int) error {
	if n == nil {
		b.WriteString("null")
		return nil
	}
	switch n.Kind {
	case NodeNull:
		b.WriteString("null")
	case NodeBool:
		if n.Int != 0 {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case NodeInt:
		b.WriteString(strconv.FormatInt(n.Int, 10))
	case NodeFloat:
		s := strconv.FormatFloat(n.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		b.WriteString(s)
	case NodeString:
		quoted, err := gojson.Marshal(n.Str)
		if err != nil {
			return errors.Wrap(errors.PhaseEncode, errors.KindInvalidInput, err, "encode string")
		}
		b.Write(quoted)
	case NodeVector:
		return writeElems(b, opts, level, len(n.Elems), '[', ']', func(i int) error {
			return writeJSON(b, n.Elems[i], opts, level+1)
		})
	case NodeMap:
		return writeElems(b, opts, level, len(n.Keys), '{', '}', func(i int) error {
			writeKey(b, n.Keys[i], opts)
			b.WriteString(": ")
			return writeJSON(b, n.Vals[i], opts, level+1)
		})
	}
	return nil
}

func writeElems(b *strings.Builder, opts JSONOptions, level, count int, open, close byte, elem func(int) error) error {
	b.WriteByte(open)
	for i := 0; i < count; i++ {
		if i > 0 {
			b.WriteByte(',')
			if opts.Indent == "" {
				b.WriteByte(' ')
			}
		}
		if opts.Indent != "" {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(opts.Indent, level+1))
		}
		if err := elem(i); err != nil {
			return err
		}
	}
	if opts.Indent != "" && count > 0 {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(opts.Indent, level))
	}
	b.WriteByte(close)
	return nil
}

func writeKey(b *strings.Builder, key string, opts JSONOptions) {
	if opts.BareKeys && isIdent(key) {
		b.WriteString(key)
		return
	}
	quoted, err := gojson.Marshal(key)
	if err != nil {
		b.WriteString(strconv.Quote(key))
		return
	}
	b.Write(quoted)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		alpha := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !alpha && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// FromJSON parses JSON text into a tree. Whole numbers become int
// nodes, map keys are sorted for determinism, and the result needs no
// further verification.
func FromJSON(data []byte) (*Node, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "parse json")
	}
	// Reject trailing content after the first document.
	var trailing any
	if err := dec.Decode(&trailing); err == nil {
		return nil, errors.InvalidInput(errors.PhaseParse, "trailing content after JSON document")
	}
	return fromJSONValue(v)
}

func fromJSONValue(v any) (*Node, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(val), nil
	case gojson.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, errors.InvalidInput(errors.PhaseParse, "unrepresentable number "+val.String())
		}
		return Float(f), nil
	case string:
		return Str(val), nil
	case []any:
		n := &Node{Kind: NodeVector, Elems: make([]*Node, 0, len(val))}
		for _, e := range val {
			c, err := fromJSONValue(e)
			if err != nil {
				return nil, err
			}
			n.Elems = append(n.Elems, c)
		}
		return n, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n := &Node{Kind: NodeMap}
		for _, k := range keys {
			c, err := fromJSONValue(val[k])
			if err != nil {
				return nil, err
			}
			n.Keys = append(n.Keys, k)
			n.Vals = append(n.Vals, c)
		}
		return n, nil
	default:
		return nil, errors.InvalidInput(errors.PhaseParse, "unsupported JSON value")
	}
}
