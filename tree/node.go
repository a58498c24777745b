package tree

// NodeKind tags a tree node's payload.
type NodeKind uint8

const (
	NodeNull NodeKind = iota
	NodeBool
	NodeInt
	NodeFloat
	NodeString
	NodeVector
	NodeMap
)

func (k NodeKind) String() string {
	switch k {
	case NodeNull:
		return "null"
	case NodeBool:
		return "bool"
	case NodeInt:
		return "int"
	case NodeFloat:
		return "float"
	case NodeString:
		return "string"
	case NodeVector:
		return "vector"
	case NodeMap:
		return "map"
	default:
		return "unknown"
	}
}

// TypeKey is the reserved map entry naming the concrete class of a map
// node when it differs from the statically expected type.
const TypeKey = "_type"

// Node is one element of a schema-less typed tree. Maps keep insertion
// order in parallel Keys/Vals slices.
type Node struct {
	Kind  NodeKind
	Int   int64
	Float float64
	Str   string
	Elems []*Node  // vector children
	Keys  []string // map keys
	Vals  []*Node  // map values, parallel to Keys
}

func Null() *Node            { return &Node{Kind: NodeNull} }
func Int(i int64) *Node      { return &Node{Kind: NodeInt, Int: i} }
func Float(f float64) *Node  { return &Node{Kind: NodeFloat, Float: f} }
func Str(s string) *Node     { return &Node{Kind: NodeString, Str: s} }
func Vec(elems ...*Node) *Node {
	return &Node{Kind: NodeVector, Elems: elems}
}

func Bool(b bool) *Node {
	n := &Node{Kind: NodeBool}
	if b {
		n.Int = 1
	}
	return n
}

// Map builds a map node from alternating key, value pairs.
func Map(pairs ...any) *Node {
	if len(pairs)%2 != 0 {
		panic("tree.Map: odd pair count")
	}
	n := &Node{Kind: NodeMap}
	for i := 0; i < len(pairs); i += 2 {
		n.Set(pairs[i].(string), pairs[i+1].(*Node))
	}
	return n
}

// Set appends or replaces a map entry.
func (n *Node) Set(key string, v *Node) *Node {
	for i, k := range n.Keys {
		if k == key {
			n.Vals[i] = v
			return n
		}
	}
	n.Keys = append(n.Keys, key)
	n.Vals = append(n.Vals, v)
	return n
}

// At returns the map entry for key, or nil when absent.
func (n *Node) At(key string) *Node {
	for i, k := range n.Keys {
		if k == key {
			return n.Vals[i]
		}
	}
	return nil
}

// Len returns the child count of a vector or map node.
func (n *Node) Len() int {
	if n.Kind == NodeMap {
		return len(n.Keys)
	}
	return len(n.Elems)
}
