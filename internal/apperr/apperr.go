// Package apperr defines the failure kinds surfaced to users of the bot.
// Every kind carries a stable code that the router logs as err_code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	DatasetUnavailable Kind = "DATASET_UNAVAILABLE"
	MalformedUpload    Kind = "MALFORMED_UPLOAD"
	UnauthorizedAction Kind = "UNAUTHORIZED_ACTION"
	NothingPending     Kind = "NOTHING_PENDING"
	UnknownClass       Kind = "UNKNOWN_CLASS"
)

// Error wraps an underlying cause with a Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is checks.
var (
	ErrDatasetUnavailable = &Error{Kind: DatasetUnavailable}
	ErrMalformedUpload    = &Error{Kind: MalformedUpload}
	ErrUnauthorized       = &Error{Kind: UnauthorizedAction}
	ErrNothingPending     = &Error{Kind: NothingPending}
	ErrUnknownClass       = &Error{Kind: UnknownClass}
)

// New builds an Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds an Error whose cause is a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Code satisfies the router's error code extraction.
func (e *Error) Code() string { return string(e.Kind) }

// Is reports kind equality against sentinels (errors without Op and cause).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" && t.Err == nil {
		return e.Kind == t.Kind
	}
	return e == t
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
