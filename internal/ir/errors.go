package ir

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/kernelforge/kernelir/internal/irdebug"
)

// ErrorKind is the error taxonomy of spec.md §7.
type ErrorKind int

const (
	_ ErrorKind = iota

	// InvalidArgument: a caller-supplied value violates a documented
	// precondition (null operand, out-of-range index, incompatible types on
	// return/branch).
	InvalidArgument

	// InvalidState: a builder operation is attempted after disposal, on a
	// replaced value, or on a sealed target; a rebuild is requested for a
	// BuilderTerminator.
	InvalidState

	// Incompatible: Rebuild's parameter mapping does not cover the source
	// method, or scope/method mismatch on specialisation.
	Incompatible

	// Internal: an invariant violation that should have been prevented.
	// Raised via assertions when irdebug.AssertionsEnabled, propagated as a
	// plain error (for the caller to treat as a fatal compile failure)
	// otherwise.
	Internal
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case InvalidState:
		return "InvalidState"
	case Incompatible:
		return "Incompatible"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is kernelir's error type: every error the public API returns can be
// unwrapped to one of these via errors.As, and switched on by Kind.
type Error struct {
	Kind  ErrorKind
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.cause)
}

// Unwrap exposes the underlying github.com/pkg/errors-wrapped cause so that
// errors.Is/errors.As keep working through the chain.
func (e *Error) Unwrap() error {
	return e.cause
}

// newError builds an *Error of the given Kind, wrapping a formatted cause
// with github.com/pkg/errors so callers printing it get a stack trace.
// An Internal error additionally panics immediately when
// irdebug.AssertionsEnabled, mirroring the teacher's
// "panic(\"BUG: ...\")" pattern gated on wazevoapi.SSAValidationEnabled.
func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	err := &Error{Kind: kind, cause: pkgerrors.Errorf(format, args...)}
	if kind == Internal && irdebug.AssertionsEnabled {
		panic("BUG: " + err.Error())
	}
	return err
}

// NewInvalidArgument lets other kernelir packages (internal/ir/analysis,
// internal/ir/transform) raise the same ir.Error taxonomy the ir package
// itself uses, instead of inventing their own error type.
func NewInvalidArgument(format string, args ...interface{}) *Error {
	return newError(InvalidArgument, format, args...)
}

// NewInvalidState mirrors NewInvalidArgument for the InvalidState kind.
func NewInvalidState(format string, args ...interface{}) *Error {
	return newError(InvalidState, format, args...)
}

// NewIncompatible mirrors NewInvalidArgument for the Incompatible kind.
func NewIncompatible(format string, args ...interface{}) *Error {
	return newError(Incompatible, format, args...)
}

// NewInternal mirrors NewInvalidArgument for the Internal kind.
func NewInternal(format string, args ...interface{}) *Error {
	return newError(Internal, format, args...)
}
