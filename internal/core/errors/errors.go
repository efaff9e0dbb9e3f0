package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind is one entry of the query/subscription error taxonomy.
type Kind string

const (
	KindQueryParameter        Kind = "QueryParameterException"
	KindNoSuchName            Kind = "NoSuchNameException"
	KindQueryTooLarge         Kind = "QueryTooLargeException"
	KindQueryTooComplex       Kind = "QueryTooComplexException"
	KindInvalidURI            Kind = "InvalidURIException"
	KindDuplicateSubscription Kind = "DuplicateSubscriptionException"
	KindSubscriptionControls  Kind = "SubscriptionControlsException"
	KindSubscribeNotPermitted Kind = "SubscribeNotPermittedException"
	KindNoSuchSubscription    Kind = "NoSuchSubscriptionException"
	KindValidation            Kind = "ValidationException"
	KindImplementation        Kind = "ImplementationException"
)

// HTTP error types for non-query endpoints (capture).
const (
	HttpInternalError       = "internal_error"
	HttpInvalidJsonError    = "invalid_json"
	HttpInvalidEventError   = "invalid_event"
	HttpDuplicateEventError = "duplicate_event"
)

// ErrorResponse is the JSON error body returned by every HTTP endpoint.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// Error carries a taxonomy kind, a human-readable reason and an optional cause.
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, errors.QueryTooLarge("")) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func QueryParameter(format string, args ...interface{}) *Error {
	return newf(KindQueryParameter, format, args...)
}

func NoSuchName(format string, args ...interface{}) *Error {
	return newf(KindNoSuchName, format, args...)
}

func QueryTooLarge(format string, args ...interface{}) *Error {
	return newf(KindQueryTooLarge, format, args...)
}

func QueryTooComplex(format string, args ...interface{}) *Error {
	return newf(KindQueryTooComplex, format, args...)
}

func InvalidURI(format string, args ...interface{}) *Error {
	return newf(KindInvalidURI, format, args...)
}

func DuplicateSubscription(format string, args ...interface{}) *Error {
	return newf(KindDuplicateSubscription, format, args...)
}

func SubscriptionControls(format string, args ...interface{}) *Error {
	return newf(KindSubscriptionControls, format, args...)
}

func SubscribeNotPermitted(format string, args ...interface{}) *Error {
	return newf(KindSubscribeNotPermitted, format, args...)
}

func NoSuchSubscription(format string, args ...interface{}) *Error {
	return newf(KindNoSuchSubscription, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

// Implementation wraps an unexpected internal or store failure, keeping cause for diagnostics.
func Implementation(cause error, format string, args ...interface{}) *Error {
	e := newf(KindImplementation, format, args...)
	e.Cause = cause
	return e
}

// KindOf returns the taxonomy kind carried by err. Errors outside the taxonomy
// are implementation errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindImplementation
}

// AsImplementation returns err unchanged when it already carries a kind, and
// wraps it as an ImplementationError otherwise.
func AsImplementation(err error, reason string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return err
	}
	return Implementation(err, "%s", reason)
}

// HTTPStatus maps a kind to the status code returned by the HTTP API.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindQueryParameter, KindValidation, KindSubscriptionControls,
		KindInvalidURI, KindSubscribeNotPermitted:
		return http.StatusBadRequest
	case KindNoSuchName, KindNoSuchSubscription:
		return http.StatusNotFound
	case KindDuplicateSubscription:
		return http.StatusConflict
	case KindQueryTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindQueryTooComplex:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Response builds the JSON error body for err.
func Response(err error) (int, ErrorResponse) {
	kind := KindOf(err)
	msg := err.Error()
	var e *Error
	if stderrors.As(err, &e) {
		msg = e.Reason
	}
	return HTTPStatus(kind), ErrorResponse{ErrorType: string(kind), Message: msg}
}
