package service

import (
	"errors"
	"fmt"
)

var ErrTooFewHospitals = errors.New("at least 2 hospitals are required for comparison")

// InputError is a client-side precondition failure.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// FeedError means the item feed could not be retrieved; the comparison was aborted.
type FeedError struct {
	Status int // upstream HTTP status, 0 when unknown
	Err    error
}

func (e *FeedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch non-covered items: upstream status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("fetch non-covered items: %v", e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }

// statusCoder is implemented by upstream client errors that know the HTTP status.
type statusCoder interface {
	StatusCode() int
}

func newFeedError(err error) *FeedError {
	fe := &FeedError{Err: err}
	var sc statusCoder
	if errors.As(err, &sc) {
		fe.Status = sc.StatusCode()
	}
	return fe
}
