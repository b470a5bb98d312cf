package domain

import "errors"

// ErrorKind discriminates operation failures so callers (the HTTP layer in
// particular) can map them to behavior without inspecting reason strings.
type ErrorKind string

const (
	ErrNotFound            ErrorKind = "not-found"
	ErrUnauthorized        ErrorKind = "unauthorized"
	ErrInvalidState        ErrorKind = "invalid-state"
	ErrValidation          ErrorKind = "validation"
	ErrNegotiationExceeded ErrorKind = "negotiation-exceeded"
	ErrConflict            ErrorKind = "conflict"
	ErrInternal            ErrorKind = "internal"
)

// Error is a recoverable operation failure with a human-readable reason.
// Every validation, authorization and state-precondition failure is one of
// these; nothing in the core throws.
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func NewError(kind ErrorKind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func NotFound(reason string) *Error     { return NewError(ErrNotFound, reason) }
func Unauthorized(reason string) *Error { return NewError(ErrUnauthorized, reason) }
func InvalidState(reason string) *Error { return NewError(ErrInvalidState, reason) }
func Validation(reason string) *Error   { return NewError(ErrValidation, reason) }
func Internal(reason string) *Error     { return NewError(ErrInternal, reason) }

// KindOf returns the discriminated kind of err, or ErrInternal for errors
// originating outside the core (driver failures and the like).
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrInternal
}
