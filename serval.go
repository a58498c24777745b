package serval

import (
	"github.com/wirevm/serval/codec"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/tree"
	"github.com/wirevm/serval/value"
)

// Session bundles a type registry with a value heap and exposes the
// decode and encode operations against that pair. It is a convenience
// wrapper over the codec package; callers that manage their own heap
// can use codec directly.
type Session struct {
	Registry *registry.Registry
	Heap     *value.Heap
}

// New returns a session over reg with a fresh heap.
func New(reg *registry.Registry) *Session {
	return &Session{Registry: reg, Heap: value.NewHeap()}
}

// ParseText decodes the text literal src against type t.
func (s *Session) ParseText(t registry.TypeID, src string) (value.Value, error) {
	return codec.ParseText(s.Registry, s.Heap, t, src)
}

// EncodeText renders v as a text literal of type t.
func (s *Session) EncodeText(t registry.TypeID, v value.Value) (string, error) {
	return codec.EncodeText(s.Registry, t, v)
}

// DecodeTree decodes the dynamic tree n against type t.
func (s *Session) DecodeTree(t registry.TypeID, n *tree.Node) (value.Value, error) {
	return codec.DecodeTree(s.Registry, s.Heap, t, n)
}

// EncodeTree converts v into a dynamic tree of type t.
func (s *Session) EncodeTree(t registry.TypeID, v value.Value) (*tree.Node, error) {
	return codec.EncodeTree(s.Registry, t, v, codec.TreeOptions{})
}

// DecodeWire decodes a compact binary buffer against type t.
func (s *Session) DecodeWire(t registry.TypeID, data []byte) (value.Value, error) {
	return codec.DecodeWire(s.Registry, s.Heap, t, data)
}

// EncodeWire renders v as a compact binary buffer of type t.
func (s *Session) EncodeWire(t registry.TypeID, v value.Value) ([]byte, error) {
	return codec.EncodeWire(s.Registry, t, v)
}

// ParseJSON decodes a JSON document against type t, going through the
// tree representation.
func (s *Session) ParseJSON(t registry.TypeID, data []byte) (value.Value, error) {
	n, err := tree.FromJSON(data)
	if err != nil {
		return value.Nil(), err
	}
	return s.DecodeTree(t, n)
}

// EncodeJSON renders v as a JSON document of type t.
func (s *Session) EncodeJSON(t registry.TypeID, v value.Value, opts tree.JSONOptions) (string, error) {
	n, err := s.EncodeTree(t, v)
	if err != nil {
		return "", err
	}
	return tree.ToJSON(n, opts)
}

// Release drops the caller's reference to a decoded value.
func (s *Session) Release(v value.Value) {
	s.Heap.Release(v)
}

// Live reports the number of heap values currently alive.
func (s *Session) Live() int {
	return s.Heap.Live()
}
