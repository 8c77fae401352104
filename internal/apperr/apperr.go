// Package apperr classifies failures so transport code can map them to
// responses without knowing where they came from.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	// KindUnauthorized: the caller acts on a resource owned by someone else.
	KindUnauthorized
	// KindUnauthenticated: no valid identity was presented.
	KindUnauthenticated
	// KindDependency: a side-effect collaborator failed. Normally logged and
	// swallowed by the caller.
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindDependency:
		return "dependency"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Validation(msg string) *Error   { return New(KindValidation, msg, nil) }
func NotFound(msg string) *Error     { return New(KindNotFound, msg, nil) }
func Conflict(msg string) *Error     { return New(KindConflict, msg, nil) }
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg, nil) }

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg, nil) }

func Dependency(msg string, err error) *Error { return New(KindDependency, msg, err) }

func Internal(err error) *Error { return New(KindInternal, "", err) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing message. Dependency failures and
// internal failures without an explicit message collapse to a generic text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindDependency && e.Msg != "" {
		return e.Msg
	}
	return "Internal server error"
}
