// Package registry holds the runtime type descriptors that drive
// decoding: scalar shapes, vectors, nilable wrappers, flattened structs
// and heap classes with supertypes, serialization ids and enum tables.
//
// The registry itself is mutable and safe for concurrent registration.
// Decoders never consult it directly; they take an immutable [Snapshot]
// at the start of each top-level operation and resolve every handle
// against that view.
//
// A registry can be built programmatically or from a YAML schema
// document via [ParseSchema].
package registry
