// Package apperr defines the error taxonomy handlers translate to HTTP.
//
// Stores return plain sentinel errors or wrapped driver errors; features map
// them to an *Error at the boundary so that respond.Error can pick a status
// code and a client-safe message without inspecting driver details.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindNotFound   Kind = "NOT_FOUND"
	KindForbidden  Kind = "PERMISSION_DENIED"
	KindConflict   Kind = "CONFLICT"
	KindUpstream   Kind = "UPSTREAM_FAILURE"
	KindStore      Kind = "STORE_FAILURE"
	KindUnauth     Kind = "UNAUTHORIZED"
	KindRateLimit  Kind = "RATE_LIMITED"
)

// Error is a classified error. Message is safe to show clients; Cause is
// only logged.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindUnauth:
		return http.StatusUnauthorized
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauth, Message: msg} }

func RateLimited(msg string) *Error { return &Error{Kind: KindRateLimit, Message: msg} }

// Upstream wraps a failed third-party call.
func Upstream(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Cause: cause}
}

// Store wraps a failed MongoDB call.
func Store(msg string, cause error) *Error {
	return &Error{Kind: KindStore, Message: msg, Cause: cause}
}

// As extracts an *Error from err. Unclassified errors become a StoreFailure
// carrying fallback as the client message.
func As(err error, fallback string) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Store(fallback, err)
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
