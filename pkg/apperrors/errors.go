// Package apperrors defines the error taxonomy shared by services and handlers.
// Services create or wrap these errors; handlers map them to HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for HTTP mapping and machine-readable responses.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindPermission   Kind = "permission_denied"
	KindNotFound     Kind = "not_found"
	KindIllegalState Kind = "illegal_state"
	KindDependency   Kind = "dependency_error"
)

// Sentinel errors for errors.Is checks across package boundaries.
var (
	ErrValidation   = errors.New("validation error")
	ErrPermission   = errors.New("permission denied")
	ErrNotFound     = errors.New("not found")
	ErrIllegalState = errors.New("illegal state")
	ErrDependency   = errors.New("dependency error")
)

// Error carries a kind plus a human-readable message. It matches the
// corresponding sentinel via errors.Is so callers can branch without
// inspecting the message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindValidation:
		return target == ErrValidation
	case KindPermission:
		return target == ErrPermission
	case KindNotFound:
		return target == ErrNotFound
	case KindIllegalState:
		return target == ErrIllegalState
	case KindDependency:
		return target == ErrDependency
	}
	return false
}

// Validation returns a validation error (missing/empty required field).
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Permission returns a permission error (caller lacks a required capability).
func Permission(format string, args ...any) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error (unknown id or target object).
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// IllegalState returns an illegal-state error (transition from a state that
// disallows it, including double-decision races).
func IllegalState(format string, args ...any) *Error {
	return &Error{Kind: KindIllegalState, Message: fmt.Sprintf(format, args...)}
}

// Dependency returns a dependency error (an underlying content mutation or
// warehouse lookup failed; the request remains in its prior state).
func Dependency(message string, cause error) *Error {
	return &Error{Kind: KindDependency, Message: message, cause: cause}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error,
// or an empty Kind otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
