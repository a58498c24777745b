package codec

import (
	"bytes"
	stderrors "errors"
	"testing"

	serrors "github.com/wirevm/serval/errors"
	"github.com/wirevm/serval/internal/leb128"
	"github.com/wirevm/serval/registry"
	"github.com/wirevm/serval/value"
)

func TestWireRoundTrip(t *testing.T) {
	tt := newTestTypes(t)
	heap := value.NewHeap()
	tests := []struct {
		name string
		typ  registry.TypeID
		src  string
	}{
		{"int vector", tt.intVec, "[1, -300, 3]"},
		{"struct", tt.point, "Point{1.5, -2.5}"},
		{"class", tt.monster, `Monster{Point{1.0, 2.0}, 3, "grue", BLUE}`},
		{"subclass", tt.entity, "Player{1, 70}"},
		{"nil string", tt.nilString, "nil"},
		{"nil class", tt.nilEntity, "nil"},
		{"struct vector", tt.pointVec, "[Point{1.0, 2.0}, Point{3.0, 4.0}]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseText(tt.reg, heap, tc.typ, tc.src)
			if err != nil {
				t.Fatal(err)
			}
			defer heap.Release(v)
			data, err := EncodeWire(tt.reg, tc.typ, v)
			if err != nil {
				t.Fatal(err)
			}
			back, err := DecodeWire(tt.reg, heap, tc.typ, data)
			if err != nil {
				t.Fatalf("decode of % x: %v", data, err)
			}
			defer heap.Release(back)
			if !value.Equal(v, back) {
				t.Errorf("round trip through % x: %s != %s", data, back.Sprint(), v.Sprint())
			}
		})
	}
}

func TestDecodeWireSubclassDispatch(t *testing.T) {
	tt := newTestTypes(t)
	heap := value.NewHeap()
	v, err := ParseText(tt.reg, heap, tt.entity, "Player{1, 70}")
	if err != nil {
		t.Fatal(err)
	}
	defer heap.Release(v)
	data, err := EncodeWire(tt.reg, tt.entity, v)
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecodeWire(tt.reg, heap, tt.entity, data)
	if err != nil {
		t.Fatal(err)
	}
	defer heap.Release(back)
	if o := object(t, back); o.Type != tt.player {
		t.Errorf("decoded type %d, want Player", o.Type)
	}
}

func TestDecodeWireTruncated(t *testing.T) {
	tt := newTestTypes(t)
	tests := []struct {
		name string
		typ  registry.TypeID
		data []byte
	}{
		{"empty buffer", registry.IntType, nil},
		{"mid varint", registry.IntType, []byte{0x80}},
		{"short float", registry.FloatType, []byte{0x00, 0x00, 0x80}},
		{"string body short", registry.StringType, []byte{0x05, 'a', 'b'}},
		{"vector elements short", tt.intVec, []byte{0x03, 0x01}},
		{"class header short", tt.entity, []byte{0x01}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			heap := value.NewHeap()
			_, err := DecodeWire(tt.reg, heap, tc.typ, tc.data)
			if !stderrors.Is(err, &serrors.Error{Phase: serrors.PhaseDecode, Kind: serrors.KindTruncated}) {
				t.Fatalf("error = %v, want truncated", err)
			}
			if heap.Live() != 0 {
				t.Errorf("%d heap values leaked", heap.Live())
			}
		})
	}
}

func TestDecodeWireSchemaGrowth(t *testing.T) {
	tt := newTestTypes(t)
	heap := value.NewHeap()
	// Data written by an older, single-field version of Player: one
	// declared field, serialization id 2, id = 9. The missing score
	// back-fills from its declared default.
	var buf bytes.Buffer
	leb128.WriteU(&buf, 1)
	leb128.WriteU(&buf, 2)
	leb128.WriteS(&buf, 9)
	v, err := DecodeWire(tt.reg, heap, tt.entity, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	defer heap.Release(v)
	o := object(t, v)
	if o.Type != tt.player {
		t.Errorf("decoded type %d, want Player", o.Type)
	}
	if o.Fields[0].Int() != 9 || o.Fields[1].Int() != 5 {
		t.Errorf("decoded %s, want (9, 5)", v.Sprint())
	}
}

func TestDecodeWireSchemaShrink(t *testing.T) {
	tt := newTestTypes(t)
	heap := value.NewHeap()
	// Data claiming more fields than Player declares cannot be read
	// past; this must fail deterministically, never truncate silently.
	var buf bytes.Buffer
	leb128.WriteU(&buf, 4)
	leb128.WriteU(&buf, 2)
	leb128.WriteS(&buf, 9)
	leb128.WriteS(&buf, 70)
	leb128.WriteS(&buf, 1)
	leb128.WriteS(&buf, 2)
	_, err := DecodeWire(tt.reg, heap, tt.entity, buf.Bytes())
	if !stderrors.Is(err, &serrors.Error{Phase: serrors.PhaseDecode, Kind: serrors.KindStructural}) {
		t.Fatalf("error = %v, want structural", err)
	}
	if heap.Live() != 0 {
		t.Errorf("%d heap values leaked", heap.Live())
	}
}

func TestDecodeWireUnknownSerID(t *testing.T) {
	tt := newTestTypes(t)
	heap := value.NewHeap()
	var buf bytes.Buffer
	leb128.WriteU(&buf, 1)
	leb128.WriteU(&buf, 99)
	leb128.WriteS(&buf, 9)
	_, err := DecodeWire(tt.reg, heap, tt.entity, buf.Bytes())
	if !stderrors.Is(err, &serrors.Error{Phase: serrors.PhaseDecode, Kind: serrors.KindUnknownIdentifier}) {
		t.Fatalf("error = %v, want unknown_identifier", err)
	}
	// Monster's id 7 exists but is not in Entity's supertype chain.
	buf.Reset()
	leb128.WriteU(&buf, 1)
	leb128.WriteU(&buf, 7)
	leb128.WriteS(&buf, 9)
	_, err = DecodeWire(tt.reg, heap, tt.entity, buf.Bytes())
	if !stderrors.Is(err, &serrors.Error{Phase: serrors.PhaseDecode, Kind: serrors.KindUnknownIdentifier}) {
		t.Fatalf("error = %v, want unknown_identifier", err)
	}
}

func TestDecodeWireOwnershipOnAbort(t *testing.T) {
	tt := newTestTypes(t)
	heap := value.NewHeap()
	// A Monster missing its trailing bytes: pos, hp and name decode
	// (allocating the name on the heap) before the buffer runs out.
	v, err := ParseText(tt.reg, heap, tt.monster, `Monster{Point{1.0, 2.0}, 3, "grue", BLUE}`)
	if err != nil {
		t.Fatal(err)
	}
	data, err := EncodeWire(tt.reg, tt.monster, v)
	if err != nil {
		t.Fatal(err)
	}
	heap.Release(v)
	if heap.Live() != 0 {
		t.Fatalf("%d heap values live before decode", heap.Live())
	}
	_, err = DecodeWire(tt.reg, heap, tt.monster, data[:len(data)-1])
	if !stderrors.Is(err, &serrors.Error{Phase: serrors.PhaseDecode, Kind: serrors.KindTruncated}) {
		t.Fatalf("error = %v, want truncated", err)
	}
	if heap.Live() != 0 {
		t.Errorf("%d heap values leaked after failed decode", heap.Live())
	}
}

func TestEncodeWireNeedsSerID(t *testing.T) {
	tt := newTestTypes(t)
	reg := tt.reg
	heap := value.NewHeap()
	plain, err := reg.RegisterClass("Plain", registry.None, -1, []registry.Field{
		{Type: registry.IntType, Name: "n"},
	})
	if err != nil {
		t.Fatal(err)
	}
	v, err := ParseText(reg, heap, plain, "Plain{1}")
	if err != nil {
		t.Fatal(err)
	}
	defer heap.Release(v)
	if _, err := EncodeWire(reg, plain, v); err == nil {
		t.Error("encoding a class without a serialization id did not fail")
	}
}

func TestDecodeWireNilableEmptyString(t *testing.T) {
	tt := newTestTypes(t)
	heap := value.NewHeap()
	// Length zero with a nilable target reads back as nil, not as the
	// empty string.
	var buf bytes.Buffer
	leb128.WriteU(&buf, 0)
	v, err := DecodeWire(tt.reg, heap, tt.nilString, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsNil() {
		t.Errorf("decoded %s, want nil", v.Sprint())
	}
	// Against a plain string target the same bytes are an empty string.
	s, err := DecodeWire(tt.reg, heap, registry.StringType, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	defer heap.Release(s)
	if s.Str().S != "" {
		t.Errorf("decoded %q, want empty string", s.Str().S)
	}
}
