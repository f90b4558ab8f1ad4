package services

import (
	"errors"
	"fmt"
)

// ErrEmptyName is returned for blank card-name input before any I/O.
var ErrEmptyName = errors.New("card name is required")

// UpstreamError indicates the Scryfall API returned a non-retryable
// failure or the retry budget was exhausted.
type UpstreamError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scryfall request failed for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("scryfall request failed for %s: status %d", e.URL, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NotFoundError indicates no card matched a lookup. Callers treat this as
// a normal "no result" outcome, not a system fault.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("card not found: %s", e.Name)
}
