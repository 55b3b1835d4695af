package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrHashMismatch     = errors.New("hash mismatch")
	ErrEmptyDataset     = errors.New("dataset is empty")
)

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// NewHashMismatchError reports a recorded digest that no longer matches
func NewHashMismatchError(what string, want, got Hash) error {
	return fmt.Errorf("%w: %s recorded %s, found %s", ErrHashMismatch, what, want.Short(), got.Short())
}
