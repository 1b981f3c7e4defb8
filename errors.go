package pe

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a closed taxonomy of failure classes a PE32+ parse can produce.
type Kind int

const (
	// BadDosMagic means the DOS header's e_magic field was not "MZ".
	BadDosMagic Kind = iota
	// BadPeMagic means the NT headers signature was not "PE\0\0".
	BadPeMagic
	// UnsupportedMagic means the optional header magic was not 0x20B (PE32+).
	UnsupportedMagic
	// BadRva means an RVA did not resolve inside any section, or the
	// resolved range exceeded that section's raw bounds.
	BadRva
	// Truncated means a read would exceed the bounds of its cursor.
	Truncated
	// Malformed means a structural invariant was violated.
	Malformed
	// Absent means the requested directory's data-directory entry is zero.
	Absent
)

func (k Kind) String() string {
	switch k {
	case BadDosMagic:
		return "bad DOS magic"
	case BadPeMagic:
		return "bad PE magic"
	case UnsupportedMagic:
		return "unsupported optional header magic"
	case BadRva:
		return "RVA does not resolve"
	case Truncated:
		return "buffer truncated"
	case Malformed:
		return "malformed structure"
	case Absent:
		return "data directory absent"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type returned by every fallible operation in
// this package. Its Kind is stable and suitable for programmatic dispatch
// with errors.As; Field and cause exist only for diagnostics.
type Error struct {
	Kind  Kind
	Field string
	cause error
}

func (e *Error) Error() string {
	if e.Field == "" && e.cause == nil {
		return e.Kind.String()
	}
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Field, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// newErr constructs an *Error, wrapping cause (if any) with pkg/errors so a
// caller inspecting the chain still finds a stack trace at the innermost
// wrap point.
func newErr(kind Kind, field string, cause error) *Error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &Error{Kind: kind, Field: field, cause: cause}
}

// IsKind reports whether err is a *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
