package category

import "errors"

var (
	// ErrInvalidInput indicates a blank name, description or text, or a
	// malformed batch item.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvariantViolation indicates a mutation that would leave the
	// registry without categories.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrNotFound indicates a category lookup for a name that is not registered.
	ErrNotFound = errors.New("category not found")
)
