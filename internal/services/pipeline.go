package services

import (
	"errors"
	"fmt"

	"github.com/pepperswap/apiserver/internal/sanitize"
	"github.com/pepperswap/apiserver/internal/store"
)

// cleanField runs the validate-then-sanitize pipeline for a single field.
// The validator's error propagates verbatim. If sanitizing the validated
// value would change it, the value is treated as an attempted injection
// and rejected with ErrInjectionDetected rather than silently corrected.
func cleanField(field, value string, validator func(string) (string, error)) (string, error) {
	normalized, err := validator(value)
	if err != nil {
		return "", err
	}
	if sanitize.Changed(normalized) {
		return "", fmt.Errorf("%s: %w", field, ErrInjectionDetected)
	}
	return normalized, nil
}

// mapStoreError translates store sentinels into the service error kinds.
// Anything the store does not classify is treated as a transient outage.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrInvalidID):
		return ErrInvalidID
	case errors.Is(err, store.ErrDuplicateUsername):
		return ErrUsernameTaken
	case errors.Is(err, store.ErrDuplicateEmail):
		return ErrEmailTaken
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
