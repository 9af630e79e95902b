package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an engine failure. Handlers map kinds to HTTP statuses;
// the engine itself only deals in kinds.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthorization
	KindValidation
	KindConflict
	KindInvalidTransition
	KindNotFound
)

// Error is the typed error returned by the request workflow engine and its
// collaborators. Validation errors about the monthly cap additionally carry
// the remaining headroom so callers can report the exact number.
type Error struct {
	Kind      Kind
	Message   string
	Remaining *int  // remaining monthly headroom, when applicable
	Err       error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Constructors

func Authorization(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationRemaining builds a monthly-cap validation error carrying the
// signed remaining headroom.
func ValidationRemaining(remaining int, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...), Remaining: &remaining}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(from, to string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf("cannot transition request from %s to %s", from, to)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to an Error built by one of the constructors.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// KindOf extracts the Kind from err, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

func IsAuthorization(err error) bool     { return KindOf(err) == KindAuthorization }
func IsValidation(err error) bool        { return KindOf(err) == KindValidation }
func IsConflict(err error) bool          { return KindOf(err) == KindConflict }
func IsInvalidTransition(err error) bool { return KindOf(err) == KindInvalidTransition }
func IsNotFound(err error) bool          { return KindOf(err) == KindNotFound }

// RemainingOf returns the remaining headroom attached to err, if any.
func RemainingOf(err error) (int, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae.Remaining != nil {
		return *ae.Remaining, true
	}
	return 0, false
}

// HTTPStatus maps an error kind to the status code the API responds with.
// Untyped errors are treated as internal.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
