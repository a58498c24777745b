// Package serval provides type-directed deserialization of structured
// data into reference-counted runtime values.
//
// Values are read against a registered type: a human-readable text
// literal, a schema-less tree, or a compact binary buffer is checked
// and converted field by field into the shape the type declares, with
// missing trailing fields filled from declared defaults. Each format
// has a matching encoder, so data round-trips through any of the
// three.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	serval/              Root package with the Session convenience API
//	├── codec/           Text, tree and compact binary decoders and encoders
//	├── registry/        Type registration, snapshots and YAML schema loading
//	├── value/           Runtime values and the reference-counting heap
//	├── tree/            Dynamic tree nodes, JSON bridge and packed encoding
//	├── errors/          Structured error types for debugging
//	└── internal/leb128/ Variable-length integer encoding
//
// # Quick Start
//
// Register a type and parse a text literal against it:
//
//	reg := registry.New()
//	point, _ := reg.RegisterStruct("Point", false, []registry.Field{
//	    {Type: registry.FloatType, Name: "x"},
//	    {Type: registry.FloatType, Name: "y"},
//	})
//
//	s := serval.New(reg)
//	v, err := s.ParseText(point, "Point{1.0, 2.0}")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Release(v)
//
// # Formats
//
// Three input formats decode against the same type registry:
//
//   - Text literals: Monster{Point{1.0, 2.0}, 10, "grue"} with nested
//     vectors, enums by name and subclass dispatch by class name.
//   - Trees: dynamic Node values as produced by tree.FromJSON or
//     tree.Unpack, matched to class fields by map key.
//   - Compact binary: varint-packed buffers with subclass dispatch by
//     serialization id, suited for storage and transport.
//
// # Memory Model
//
// Heap values are reference counted, not garbage collected. Every
// value returned by a decode operation carries one reference owned by
// the caller; Release it when done. The heap tracks allocation and
// free counts, so tests can assert that aborted decodes leak nothing.
//
// # Thread Safety
//
// Registry is safe for concurrent use; decoders read an immutable
// snapshot taken per operation. Heap and Session are NOT thread-safe
// and should be used by a single goroutine, or access must be
// synchronized.
package serval
