// Package apierr carries a machine-readable error kind across service
// boundaries, so callers can branch on not-found vs conflict without string
// matching. Handlers map kinds to HTTP statuses; clients map statuses back.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindAlreadyExists   Kind = "already_exists"
	KindConflict        Kind = "conflict"
	KindInvalidArgument Kind = "invalid_argument"
	KindUnauthenticated Kind = "unauthenticated"
	KindUnavailable     Kind = "unavailable"
	KindInternal        Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func AlreadyExists(format string, args ...any) *Error {
	return New(KindAlreadyExists, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, format, args...)
}

func Unauthenticated(format string, args ...any) *Error {
	return New(KindUnauthenticated, format, args...)
}

func Unavailable(format string, args ...any) *Error {
	return New(KindUnavailable, format, args...)
}

// KindOf extracts the kind from err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsAlreadyExists(err error) bool { return KindOf(err) == KindAlreadyExists }
func IsConflict(err error) bool      { return KindOf(err) == KindConflict }
func IsUnavailable(err error) bool   { return KindOf(err) == KindUnavailable }

// HTTPStatus maps an error kind to the status code used on the wire.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists, KindConflict:
		return http.StatusConflict
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus is the client-side inverse of HTTPStatus. AlreadyExists and
// Conflict share 409; the wire code in the error body disambiguates, so this
// is only the fallback when no body was readable.
func FromHTTPStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest:
		return KindInvalidArgument
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return KindUnavailable
	default:
		return KindInternal
	}
}
