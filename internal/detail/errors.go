package detail

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid movie id")
	ErrNotFound     = errors.New("movie not found")
	ErrMalformed    = errors.New("malformed upstream response")
	ErrSuperseded   = errors.New("request superseded by a newer request")
	ErrClosed       = errors.New("aggregator closed")
)

// Error is a terminal aggregation failure.
type Error struct {
	Kind    ErrorKind
	MovieID MovieID
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("movie %q: %s", e.MovieID, e.Kind)
	}
	return fmt.Sprintf("movie %q: %s: %v", e.MovieID, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps a load-bearing fetch error onto an ErrorKind. Anything
// that is not a known upstream verdict counts as a network failure.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrMalformed):
		return KindUpstreamMalformed
	default:
		return KindNetworkFailure
	}
}
