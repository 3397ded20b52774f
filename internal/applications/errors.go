package applications

import "errors"

var (
	// ErrNotFound indicates no record exists for a subject.
	ErrNotFound = errors.New("application not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")
)
