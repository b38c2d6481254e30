package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. The HTTP layer maps it to a status code and
// never looks further into the error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindUnsupportedMethod
	KindConflict
	KindDatabase
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindUnsupportedMethod:
		return "unsupported_method"
	case KindConflict:
		return "conflict"
	case KindDatabase:
		return "database"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest, KindUnsupportedMethod:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure carrying its Kind and a message safe to return to
// clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of the given kind whose cause is err. The cause is
// logged but not sent to clients.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound is shorthand for New(KindNotFound, message).
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// KindOf returns the Kind of err, or KindInternal if err carries none.
func KindOf(err error) Kind {
	var aerr *Error
	if errors.As(err, &aerr) && aerr != nil {
		return aerr.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing message of err. Errors without a
// Kind get the generic status text so internals don't leak.
func PublicMessage(err error) string {
	var aerr *Error
	if errors.As(err, &aerr) && aerr != nil && aerr.Message != "" {
		return aerr.Message
	}
	return http.StatusText(KindOf(err).Status())
}
