package messaging

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures crossing the messaging boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindBadRequest
	KindForbidden
	KindNotFound
	KindConflict
	// KindInvalidResponse is raised by the client when a server payload is
	// structurally malformed.
	KindInvalidResponse
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidResponse:
		return "invalid_response"
	default:
		return "internal"
	}
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed failure returned by the gate and the client.
// Msg is safe to show to the caller; Err carries internal detail and is
// only ever logged.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so callers can write errors.Is(err, ErrForbidden).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Public returns the text that may leave the server. Forbidden and
// internal failures never explain themselves.
func (e *Error) Public() string {
	switch e.Kind {
	case KindForbidden:
		return "access denied"
	case KindInternal:
		return "internal server error"
	case KindUnauthenticated:
		return "please sign in"
	}
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrBadRequest      = &Error{Kind: KindBadRequest}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrInternal        = &Error{Kind: KindInternal}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
)

func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Msg: msg} }
func BadRequest(msg string) *Error      { return &Error{Kind: KindBadRequest, Msg: msg} }
func NotFound(msg string) *Error        { return &Error{Kind: KindNotFound, Msg: msg} }

func Forbidden(msg string, cause error) *Error {
	return &Error{Kind: KindForbidden, Msg: msg, Err: cause}
}

func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: cause}
}

func InvalidResponse(msg string, cause error) *Error {
	return &Error{Kind: KindInvalidResponse, Msg: msg, Err: cause}
}

// ErrRoleMismatch is the internal cause attached to a Forbidden error when
// the caller's stored role does not match the slot they claim.
var ErrRoleMismatch = errors.New("role does not match conversation slot")

// KindOf extracts the kind of err, treating foreign errors as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError wraps foreign errors as internal so callers always get an *Error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("unexpected failure", err)
}

// KindFromStatus is the inverse of Kind.Status, used by the client to
// rebuild typed errors from HTTP responses.
func KindFromStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}
