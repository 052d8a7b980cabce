package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Domain errors wrap one of these so the API layer can pick a status code.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrForbidden       = errors.New("forbidden")
)

// Error is a domain error carrying a message key that gets translated at the API boundary.
type Error struct {
	Kind   error
	Key    string
	Params []string
}

func NewError(kind error, key string, params ...string) *Error {
	return &Error{Kind: kind, Key: key, Params: params}
}

func (e *Error) Error() string {
	if len(e.Params) == 0 {
		return fmt.Sprintf("%v: %s", e.Kind, e.Key)
	}
	return fmt.Sprintf("%v: %s %v", e.Kind, e.Key, e.Params)
}

func (e *Error) Unwrap() error { return e.Kind }

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
