// Package apperror carries the outcome kinds every service call can fail with.
// Handlers map a Kind to an HTTP status exactly once.
package apperror

import (
	"context"
	"errors"
	"fmt"
)

type Kind int

const (
	Upstream Kind = iota
	NotFound
	Forbidden
	InvalidArgument
	InvalidOperation
	Unauthenticated
	Conflict
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case InvalidArgument:
		return "invalid_argument"
	case InvalidOperation:
		return "invalid_operation"
	case Unauthenticated:
		return "unauthenticated"
	case Conflict:
		return "conflict"
	default:
		return "upstream"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
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

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf classifies err. A deadline or cancellation anywhere in the chain is an
// Upstream failure, as is anything that is not an *Error.
func KindOf(err error) Kind {
	if err == nil {
		return Upstream
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Upstream
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing text of err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// FromStore wraps a raw store or media failure, keeping an existing *Error as-is.
func FromStore(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(Upstream, err, "%s: timed out", fmt.Sprintf(format, args...))
	}
	return Wrap(Upstream, err, format, args...)
}
