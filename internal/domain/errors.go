package domain

import (
	"errors"
	"fmt"
)

// ErrDiscarded marks a notification filtered out by policy. It is an expected
// outcome, not a failure.
var ErrDiscarded = errors.New("discarded by policy")

// ErrDuplicateEvent is wrapped by store errors raised when an event id is
// already recorded.
var ErrDuplicateEvent = errors.New("event already recorded")

// Kind classifies failures so the caller can map them to exit codes.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindConfiguration
	KindConnection
	KindStore
	KindMatch
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindConnection:
		return "connection"
	case KindStore:
		return "store"
	case KindMatch:
		return "match"
	default:
		return "unknown"
	}
}

// Error is a classified failure raised by one of the processing stages.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a kind and the operation that failed.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func discard(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDiscarded, fmt.Sprintf(format, args...))
}

func invalid(op string, err error) error {
	return NewError(KindValidation, op, err)
}
