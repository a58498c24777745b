// Package errors provides structured error types for the serval library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: field path, expected and
// given type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindTypeMismatch).
//		Path("player", "pos").
//		Expected("float").
//		Given("string").
//		Detail("cannot convert string literal to float").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseDecode, path, "int", "string")
//	err := errors.Truncated(path)
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Phase and Kind, so callers can test for a category:
//
//	errors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindTruncated})
package errors
