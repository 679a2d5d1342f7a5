package errors

import (
	"errors"
	"fmt"
)

// Error is a typed failure carrying a stable code. Two errors with the same
// code match under errors.Is regardless of the wrapped cause.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports code equality so wrapped copies match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a cause and an optional detail to a sentinel.
func Wrap(base *Error, cause error, detail string) *Error {
	msg := base.Message
	if detail != "" {
		msg = base.Message + " (" + detail + ")"
	}
	return &Error{Code: base.Code, Message: msg, Err: cause}
}

var (
	ErrSourceUnavailable  = New("SOURCE_UNAVAILABLE", "schedule site is unavailable")
	ErrParseShapeMismatch = New("PARSE_SHAPE_MISMATCH", "unexpected page layout")
	ErrInvalidSelection   = New("INVALID_SELECTION", "input does not match any offered option")
	ErrNotFound           = New("NOT_FOUND", "nothing found")
	ErrCacheMiss          = New("CACHE_MISS", "cache miss")
)

// Code returns the code of the first *Error in the chain, or "" when absent.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Unavailable reports whether err means the data cannot be obtained right now:
// the site is down or its markup no longer has the expected shape.
func Unavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrParseShapeMismatch)
}
