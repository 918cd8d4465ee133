package services

import "errors"

var (
	// ErrAllocationExhausted means no approved, available, conflict-free guide
	// could be found for the requested dates and languages.
	ErrAllocationExhausted = errors.New("no eligible guide available for the requested dates")

	// ErrInvalidStateTransition means the booking is not in the precondition
	// state for the attempted operation. Nothing is mutated and no activity is
	// logged when it is returned.
	ErrInvalidStateTransition = errors.New("booking state does not permit this operation")

	// ErrInvalidPin means the supplied completion PIN did not match.
	ErrInvalidPin = errors.New("completion PIN does not match")
)
