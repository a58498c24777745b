package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse    Phase = "parse"    // text literal parsing
	PhaseDecode   Phase = "decode"   // tree or wire decoding
	PhaseEncode   Phase = "encode"   // value to external form
	PhaseVerify   Phase = "verify"   // tree structural verification
	PhaseRegister Phase = "register" // type registration
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch      Kind = "type_mismatch"
	KindUnknownIdentifier Kind = "unknown_identifier"
	KindMissingDefault    Kind = "missing_default"
	KindStructural        Kind = "structural"
	KindTruncated         Kind = "truncated"
	KindVerification      Kind = "verification"
	KindUnsupported       Kind = "unsupported"
	KindInvalidInput      Kind = "invalid_input"
	KindRegistration      Kind = "registration"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	Expected string
	Given    string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Expected != "" || e.Given != "" {
		b.WriteString(": ")
		if e.Expected != "" && e.Given != "" {
			b.WriteString("type ")
			b.WriteString(e.Expected)
			b.WriteString(" required, ")
			b.WriteString(e.Given)
			b.WriteString(" given")
		} else if e.Expected != "" {
			b.WriteString("type ")
			b.WriteString(e.Expected)
			b.WriteString(" required")
		} else {
			b.WriteString(e.Given)
			b.WriteString(" given")
		}
	}

	if e.Detail != "" {
		if e.Expected != "" || e.Given != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Expected sets the expected type name
func (b *Builder) Expected(t string) *Builder {
	b.err.Expected = t
	return b
}

// Given sets the type name found in the input
func (b *Builder) Given(t string) *Builder {
	b.err.Given = t
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, expected, given string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		Expected: expected,
		Given:    given,
	}
}

// UnknownIdentifier creates an error for an enum name, subclass name or
// serialization id the registry cannot place
func UnknownIdentifier(phase Phase, path []string, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownIdentifier,
		Path:   path,
		Detail: fmt.Sprintf("unknown %s %q", what, name),
	}
}

// MissingDefault creates an error for a field with no derivable default
func MissingDefault(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingDefault,
		Path:   path,
		Detail: fmt.Sprintf("no default value exists for missing field %q", fieldName),
	}
}

// Structural creates a malformed-input error
func Structural(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStructural,
		Path:   path,
		Detail: detail,
	}
}

// Truncated creates an error for a binary buffer exhausted mid-decode
func Truncated(path []string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncated,
		Path:   path,
		Detail: "data truncated",
	}
}

// Verification creates an error for a tree that fails its structural check
func Verification(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseVerify,
		Kind:   KindVerification,
		Detail: detail,
		Cause:  cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a type registration error
func Registration(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register type %q", name),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
