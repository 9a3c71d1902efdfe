package failure

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error for retry and orchestration decisions.
type Kind string

const (
	// Transient errors (timeouts, 403/429, connection failures) are retried by the fetcher.
	Transient Kind = "transient"
	// Permanent errors (404, malformed provider payloads, missing fields) are not retried.
	Permanent Kind = "permanent"
	// Validation errors mean content was fetched but is not a transcript.
	Validation Kind = "validation-failed"
	// Input errors are malformed requests, rejected before any network activity.
	Input Kind = "input"
	// Timeout means the caller's deadline expired or the request was cancelled.
	Timeout Kind = "timeout"
	// Internal errors are unexpected failures such as recovered panics.
	Internal Kind = "internal"
)

// Error is a classified error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return e.Op + ": " + string(e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with kind and op. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a classified error from a format string.
func Newf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of err. Context cancellation and deadline errors are
// timeouts; unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Timeout
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable reports whether the fetcher should retry after err.
func IsRetryable(err error) bool {
	return Is(err, Transient)
}
