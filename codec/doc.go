// Package codec implements type-directed conversion between runtime
// values and three external representations.
//
// # Formats
//
// All three formats are paired, with an encoder and a decoder each:
//
//	┌───────────────────────────────────────────────────────────┐
//	│ data-literal text  ←→ [codec] ←→ value.Value              │
//	│ schema-less tree   ←→ [codec] ←→ value.Value              │
//	│ compact binary     ←→ [codec] ←→ value.Value              │
//	└───────────────────────────────────────────────────────────┘
//
//	ParseText / EncodeText    human-authored, debuggable
//	DecodeTree / EncodeTree   self-describing, schema tolerant
//	DecodeWire / EncodeWire   dense, transient exchange only
//
// Decoding is driven by a type descriptor from the registry package:
// the expected shape at each position decides which input productions
// or byte layouts are accepted. Decoders work against an immutable
// registry snapshot taken when the call starts, so concurrent type
// registration cannot be observed half done.
//
// # Schema evolution
//
// The accommodations are deliberate and narrow. Missing trailing
// aggregate fields are synthesized from their declared defaults. Tree
// maps match fields by name, so unknown keys are ignored and field
// order is free. The compact format refuses class data carrying more
// fields than the target type declares, since unknown fields cannot be
// skipped without type information; compact structs carry no
// self-description at all and drift silently.
//
// # Ownership
//
// Heap values are reference counted through a value.Heap owned by the
// caller. Each decode stages partial results on an internal stack
// whose guard releases everything not claimed as the final result, so
// an abort partway through a nested aggregate leaks nothing. The
// caller owns the returned value and releases it through the heap.
//
// # Thread safety
//
// Decoder state is per call. Concurrent decodes are safe when each
// call uses its own heap or the caller serializes heap access.
package codec
