// Package tree implements the schema-less typed tree format: an
// in-memory node structure, a packed binary serialization with a
// structural verifier, and a registry-free JSON bridge in both
// directions.
//
// A tree produced by [Unpack] or [FromJSON] is structurally
// well-formed; the type-directed decoder in package codec assumes that
// and checks only type compatibility.
package tree
