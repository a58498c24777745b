package tree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/wirevm/serval/errors"
	"github.com/wirevm/serval/internal/leb128"
)

// Packed tree format: a 4-byte magic header followed by one node in
// pre-order. Node payloads use varints; floats travel as 8 raw
// little-endian bytes. Unpack re-verifies the whole structure, so a
// buffer that unpacks cleanly needs no further shape checks.
var packMagic = [4]byte{'S', 'V', 'T', '1'}

const (
	tagNull byte = iota
	tagFalse
	tagTrue
	tagInt
	tagFloat
	tagString
	tagVector
	tagMap
)

// maxPackDepth bounds verifier recursion on hostile input.
const maxPackDepth = 1000

// Pack serializes a tree to its packed binary form.
func Pack(n *Node) []byte {
	var buf bytes.Buffer
	buf.Write(packMagic[:])
	packNode(&buf, n)
	return buf.Bytes()
}

func packNode(buf *bytes.Buffer, n *Node) {
	if n == nil {
		buf.WriteByte(tagNull)
		return
	}
	switch n.Kind {
	case NodeNull:
		buf.WriteByte(tagNull)
	case NodeBool:
		if n.Int != 0 {
			buf.WriteByte(tagTrue)
		} else {
			buf.WriteByte(tagFalse)
		}
	case NodeInt:
		buf.WriteByte(tagInt)
		leb128.WriteS(buf, n.Int)
	case NodeFloat:
		buf.WriteByte(tagFloat)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(n.Float))
		buf.Write(b[:])
	case NodeString:
		buf.WriteByte(tagString)
		leb128.WriteU(buf, uint64(len(n.Str)))
		buf.WriteString(n.Str)
	case NodeVector:
		buf.WriteByte(tagVector)
		leb128.WriteU(buf, uint64(len(n.Elems)))
		for _, e := range n.Elems {
			packNode(buf, e)
		}
	case NodeMap:
		buf.WriteByte(tagMap)
		leb128.WriteU(buf, uint64(len(n.Keys)))
		for i, k := range n.Keys {
			leb128.WriteU(buf, uint64(len(k)))
			buf.WriteString(k)
			packNode(buf, n.Vals[i])
		}
	}
}

// Unpack verifies and deserializes a packed tree. Any malformation is
// reported as a verification error; a tree returned by Unpack is
// structurally well-formed by construction.
func Unpack(data []byte) (*Node, error) {
	if len(data) < len(packMagic) || !bytes.Equal(data[:len(packMagic)], packMagic[:]) {
		return nil, errors.Verification("packed tree does not verify: bad magic", nil)
	}
	r := bytes.NewReader(data[len(packMagic):])
	n, err := unpackNode(r, 0)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Verification(fmt.Sprintf("packed tree does not verify: %d trailing bytes", r.Len()), nil)
	}
	return n, nil
}

// Verify checks a packed tree's structural well-formedness without
// keeping the result.
func Verify(data []byte) error {
	_, err := Unpack(data)
	return err
}

func badPack(detail string, cause error) error {
	return errors.Verification("packed tree does not verify: "+detail, cause)
}

func unpackNode(r *bytes.Reader, depth int) (*Node, error) {
	if depth > maxPackDepth {
		return nil, badPack("nesting too deep", nil)
	}
	tag, err := r.ReadByte()
	if err != nil {
		return nil, badPack("truncated node tag", err)
	}
	switch tag {
	case tagNull:
		return Null(), nil
	case tagFalse:
		return Bool(false), nil
	case tagTrue:
		return Bool(true), nil
	case tagInt:
		i, err := leb128.ReadS(r)
		if err != nil {
			return nil, badPack("truncated int", err)
		}
		return Int(i), nil
	case tagFloat:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, badPack("truncated float", err)
		}
		return Float(math.Float64frombits(binary.LittleEndian.Uint64(b[:]))), nil
	case tagString:
		s, err := unpackString(r)
		if err != nil {
			return nil, err
		}
		return Str(s), nil
	case tagVector:
		count, err := leb128.ReadU(r)
		if err != nil {
			return nil, badPack("truncated vector count", err)
		}
		if count > uint64(r.Len()) {
			return nil, badPack("vector count exceeds input", nil)
		}
		n := &Node{Kind: NodeVector, Elems: make([]*Node, 0, count)}
		for i := uint64(0); i < count; i++ {
			e, err := unpackNode(r, depth+1)
			if err != nil {
				return nil, err
			}
			n.Elems = append(n.Elems, e)
		}
		return n, nil
	case tagMap:
		count, err := leb128.ReadU(r)
		if err != nil {
			return nil, badPack("truncated map count", err)
		}
		if count > uint64(r.Len()) {
			return nil, badPack("map count exceeds input", nil)
		}
		n := &Node{Kind: NodeMap}
		for i := uint64(0); i < count; i++ {
			k, err := unpackString(r)
			if err != nil {
				return nil, err
			}
			v, err := unpackNode(r, depth+1)
			if err != nil {
				return nil, err
			}
			n.Keys = append(n.Keys, k)
			n.Vals = append(n.Vals, v)
		}
		return n, nil
	default:
		return nil, badPack(fmt.Sprintf("unknown node tag 0x%02x", tag), nil)
	}
}

func unpackString(r *bytes.Reader) (string, error) {
	ln, err := leb128.ReadU(r)
	if err != nil {
		return "", badPack("truncated string length", err)
	}
	if ln > uint64(r.Len()) {
		return "", badPack("string length exceeds input", nil)
	}
	b := make([]byte, ln)
	if ln > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return "", badPack("truncated string", err)
		}
	}
	return string(b), nil
}
