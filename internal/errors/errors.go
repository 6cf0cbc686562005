package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an application error so transports can map it to a response
type Kind int

const (
	ErrInternal Kind = iota
	ErrNotFound
	ErrValidation
	ErrConflict
	ErrInvalidInput
	ErrUnauthorized
	ErrForbidden
	ErrLocked
	ErrRateLimited
)

var kindNames = map[Kind]string{
	ErrInternal:     "internal",
	ErrNotFound:     "not_found",
	ErrValidation:   "validation",
	ErrConflict:     "conflict",
	ErrInvalidInput: "invalid_input",
	ErrUnauthorized: "unauthorized",
	ErrForbidden:    "forbidden",
	ErrLocked:       "locked",
	ErrRateLimited:  "rate_limited",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is an application-level error.
//
// Details carries structured hints a caller can act on, for example
// {"has_scores": true} when a delete must be retried with force.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail returns the error with an additional structured detail set
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(msg string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

// Unauthorized never says which part of a credential check failed
func Unauthorized() *Error {
	return &Error{Kind: ErrUnauthorized, Message: "Unauthorized"}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

// Locked reports a mutation attempted against a locked session
func Locked() *Error {
	return &Error{Kind: ErrLocked, Message: "Session is locked"}
}

// RateLimited reports too many attempts in a short window
func RateLimited() *Error {
	return &Error{Kind: ErrRateLimited, Message: "Too many attempts, try again shortly"}
}

func Internal(err error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal error", Err: err}
}

func Internalf(format string, args ...any) *Error {
	return &Error{Kind: ErrInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or ErrInternal
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
