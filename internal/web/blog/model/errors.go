package model

import (
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
)

var (
	// ErrNotFound referenced id or slug does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict uniqueness violation or guarded delete
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized caller is not authenticated
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden caller lacks the privilege
	ErrForbidden = errors.New("forbidden")
	// ErrUpload rejected file upload
	ErrUpload = errors.New("upload rejected")
	// ErrTooLarge upload exceeds the size limit
	ErrTooLarge = errors.New("file too large")
)

// Error carries a user facing message for one of the sentinel kinds above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Unwrap lets errors.Is match the kind
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NotFound e.g. NotFound("post %q not found", slug)
func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

// Conflict builds an ErrConflict
func Conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

// Unauthorized builds an ErrUnauthorized
func Unauthorized(format string, args ...any) error {
	return newError(ErrUnauthorized, format, args...)
}

// Forbidden builds an ErrForbidden
func Forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

// UploadRejected builds an ErrUpload
func UploadRejected(format string, args ...any) error {
	return newError(ErrUpload, format, args...)
}

// TooLarge builds an ErrTooLarge
func TooLarge(format string, args ...any) error {
	return newError(ErrTooLarge, format, args...)
}

// FieldError one invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add records a problem with field
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns nil when nothing was recorded, so callers can
// `return verr.Err()` after collecting.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Invalid builds a ValidationError with a single field
func Invalid(field, format string, args ...any) error {
	verr := new(ValidationError)
	verr.Add(field, format, args...)
	return verr
}
