package ndvi

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures. Transport layers map kinds to status codes.
type Kind int

const (
	KindProcessing Kind = iota
	KindInvalid
	KindNotFound
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "processing"
	}
}

// ErrNotFound is returned when no scene satisfies the search filter.
var ErrNotFound = errors.New("no suitable Sentinel-2 data found")

// Error carries a Kind alongside the failing operation and its cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind of err. Errors not produced by this package are
// processing failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindProcessing
}
