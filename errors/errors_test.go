package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseParse,
				Kind:     KindTypeMismatch,
				Path:     []string{"player", "pos", "x"},
				Expected: "float",
				Given:    "string",
				Detail:   "cannot convert",
			},
			contains: []string{"[parse]", "type_mismatch", "player.pos.x", "float", "string", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindTruncated,
			},
			contains: []string{"[decode]", "truncated"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseVerify,
				Kind:   KindVerification,
				Detail: "bad node tag",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[verify]", "verification", "bad node tag", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindStructural,
		Cause: cause,
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find the cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap did not return the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := TypeMismatch(PhaseParse, nil, "int", "float")
	if !errors.Is(err, &Error{Phase: PhaseParse, Kind: KindTypeMismatch}) {
		t.Error("Is should match on Phase and Kind")
	}
	if errors.Is(err, &Error{Phase: PhaseDecode, Kind: KindTypeMismatch}) {
		t.Error("Is should not match a different Phase")
	}
	if errors.Is(err, &Error{Phase: PhaseParse, Kind: KindStructural}) {
		t.Error("Is should not match a different Kind")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseEncode, KindUnsupported).
		Path("root", "elems", "[2]").
		Expected("vector").
		Given("class").
		Detail("depth %d exceeds max %d", 101, 100).
		Cause(cause).
		Build()

	if err.Phase != PhaseEncode || err.Kind != KindUnsupported {
		t.Errorf("builder lost phase/kind: %+v", err)
	}
	if len(err.Path) != 3 || err.Path[2] != "[2]" {
		t.Errorf("builder lost path: %v", err.Path)
	}
	if err.Detail != "depth 101 exceeds max 100" {
		t.Errorf("builder did not format detail: %q", err.Detail)
	}
	if err.Cause != cause {
		t.Error("builder lost cause")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
		want string
	}{
		{"unknown identifier", UnknownIdentifier(PhaseParse, nil, "enum value", "Norht"), KindUnknownIdentifier, `unknown enum value "Norht"`},
		{"missing default", MissingDefault(PhaseDecode, nil, "hp"), KindMissingDefault, `no default value exists for missing field "hp"`},
		{"structural", Structural(PhaseParse, nil, "] expected, found: end of input"), KindStructural, "] expected"},
		{"truncated", Truncated(nil), KindTruncated, "data truncated"},
		{"verification", Verification("tree does not verify", nil), KindVerification, "tree does not verify"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", tt.err.Kind, tt.kind)
			}
			if !strings.Contains(tt.err.Error(), tt.want) {
				t.Errorf("message %q does not contain %q", tt.err.Error(), tt.want)
			}
		})
	}
}
