package restapi

import (
	"fmt"
	"net/http"
)

// ErrorKind is the fixed taxonomy of endpoint failures. Every kind maps
// to exactly one HTTP status; the dispatcher is the only place that
// performs the mapping.
type ErrorKind int

const (
	// KindInvalidInput covers malformed or missing request input. 400.
	KindInvalidInput ErrorKind = iota

	// KindUnauthorized covers missing or bad credentials for a specific
	// resource, raised by handlers rather than the dispatcher. 401.
	KindUnauthorized

	// KindForbidden covers authenticated but disallowed access. 403.
	KindForbidden

	// KindNotFound covers missing resources. 404.
	KindNotFound

	// KindIntegrity covers integrity conflicts such as duplicate rows.
	// 500, with the message surfaced to the client.
	KindIntegrity

	// KindServer covers true server-side failures. 500, with a generic
	// message; the real error is logged server-side only.
	KindServer
)

// Error is a typed endpoint failure carrying its taxonomy kind.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus maps the error kind to its HTTP status. The switch is
// exhaustive; an unknown kind degrades to 500.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindIntegrity, KindServer:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// InvalidInputError creates a KindInvalidInput error.
func InvalidInputError(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// UnauthorizedError creates a KindUnauthorized error.
func UnauthorizedError(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// ForbiddenError creates a KindForbidden error.
func ForbiddenError(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError creates a KindNotFound error.
func NotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// IntegrityError creates a KindIntegrity error.
func IntegrityError(format string, args ...any) *Error {
	return &Error{Kind: KindIntegrity, Message: fmt.Sprintf(format, args...)}
}

// ServerError creates a KindServer error.
func ServerError(format string, args ...any) *Error {
	return &Error{Kind: KindServer, Message: fmt.Sprintf(format, args...)}
}
