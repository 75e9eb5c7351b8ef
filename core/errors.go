package core

import "github.com/pkg/errors"

// Kind classifies a domain failure so callers (the HTTP layer, mainly) can map it
// to a stable status class without inspecting messages.
type Kind uint8

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindOwnershipMismatch
	KindDuplicateKey
	KindCapacityExceeded
	KindInvalidRange
	KindRoleMismatch
	KindDenied
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindOwnershipMismatch:
		return "ownership mismatch"
	case KindDuplicateKey:
		return "duplicate key"
	case KindCapacityExceeded:
		return "capacity exceeded"
	case KindInvalidRange:
		return "invalid range"
	case KindRoleMismatch:
		return "role mismatch"
	case KindDenied:
		return "permission denied"
	}
	return "unexpected error"
}

// Error is a classified domain error. All recoverable failures returned by the
// domain services are of this type; anything else is treated as unexpected.
type Error struct {
	Kind Kind
	Msg  string
}

func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

// KindOf unwraps err and returns its classification; KindUnexpected when it is
// not a classified domain error.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnexpected
	}
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Kind
	}
	if _, ok := errors.Cause(err).(*ValidationError); ok {
		return KindInvalidRange
	}
	return KindUnexpected
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
