package firewalld

import (
	"errors"
	"fmt"
)

// Kind classifies the failure modes a caller needs to distinguish per the
// error handling design: invalid input is the caller's problem, format and
// conflict errors need administrator attention, external failures abort the
// current commit, and assertions indicate a bug in this library.
type Kind int

const (
	// KindInvalidArgument covers nil/empty required input, unknown
	// protocols, and duplicate entries in a Service built by code.
	// Duplicate elements found while parsing a document are
	// KindInvalidFormat.
	KindInvalidArgument Kind = iota
	// KindInvalidRange covers port bounds outside [1,65535] or from > to.
	KindInvalidRange
	// KindInvalidPrefix covers malformed addresses, bad prefix lengths, or
	// a destination of the wrong address family.
	KindInvalidPrefix
	// KindInvalidFormat covers unexpected XML structure.
	KindInvalidFormat
	// KindNotFound covers a requested system or local service that is absent.
	KindNotFound
	// KindConflict covers a <template>-<k>.xml file found in the system directory.
	KindConflict
	// KindExternalFailure covers the external control program exiting
	// non-zero or failing to spawn.
	KindExternalFailure
	// KindAssertion covers an internal invariant violation. Never expected
	// to fire; indicates a bug in this library, not in caller input.
	KindAssertion
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvalidRange:
		return "InvalidRange"
	case KindInvalidPrefix:
		return "InvalidPrefix"
	case KindInvalidFormat:
		return "InvalidFormat"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindExternalFailure:
		return "ExternalFailure"
	case KindAssertion:
		return "Assertion"
	default:
		return "Unknown"
	}
}

// Error is the single error type raised by this module. Callers distinguish
// failure modes with errors.Is against the Kind* sentinels below, or by
// inspecting Kind directly after errors.As.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's Kind, so
// errors.Is(err, firewalld.ErrInvalidRange) works regardless of wrapping.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Sentinel errors, one per Kind, for use with errors.Is.
var (
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrInvalidRange    = &Error{Kind: KindInvalidRange, Message: "invalid range"}
	ErrInvalidPrefix   = &Error{Kind: KindInvalidPrefix, Message: "invalid prefix"}
	ErrInvalidFormat   = &Error{Kind: KindInvalidFormat, Message: "invalid format"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict        = &Error{Kind: KindConflict, Message: "conflict"}
	ErrExternalFailure = &Error{Kind: KindExternalFailure, Message: "external failure"}
	ErrAssertion       = &Error{Kind: KindAssertion, Message: "assertion failed"}
)
