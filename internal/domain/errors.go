package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a catalog failure so callers can pick an outcome without
// inspecting messages.
type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindDuplicateValue Kind = "DUPLICATE_VALUE"
	KindNotFound       Kind = "NOT_FOUND"
	KindStorage        Kind = "STORAGE"
	KindNoFileProvided Kind = "NO_FILE_PROVIDED"
	KindReferenced     Kind = "REFERENCED"
)

// HTTPStatus returns the status code the admin API uses for this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindNoFileProvided:
		return http.StatusBadRequest
	case KindDuplicateValue, KindReferenced:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a catalog error carrying a Kind, a caller-facing message and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
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

// Is matches any *Error with the same Kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Details: e.Details, cause: err}
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Details: details, cause: e.cause}
}

var (
	ErrValidation     = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrDuplicateValue = &Error{Kind: KindDuplicateValue, Message: "value already exists"}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "not found"}
	ErrStorage        = &Error{Kind: KindStorage, Message: "storage failure"}
	ErrNoFileProvided = &Error{Kind: KindNoFileProvided, Message: "no file provided"}
	ErrReferenced     = &Error{Kind: KindReferenced, Message: "entity is still referenced"}
)

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func DuplicateValue(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDuplicateValue, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Referenced(format string, args ...interface{}) *Error {
	return &Error{Kind: KindReferenced, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps an I/O or database failure.
func Storage(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindStorage, Message: fmt.Sprintf(format, args...), cause: err}
}

// KindOf reports the Kind of err, or KindStorage for errors that did not
// originate in the catalog.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
