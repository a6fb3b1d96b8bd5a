package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every stage of the search pipeline.
var (
	ErrValidation          = errors.New("validation error")
	ErrNetwork             = errors.New("network error")
	ErrNotFound            = errors.New("not found")
	ErrConfig              = errors.New("configuration error")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrLocationUnavailable = errors.New("device location unavailable")
	ErrUnauthorized        = errors.New("unauthorized")

	// ErrStale marks a reverse-geocode result whose marker has since moved.
	ErrStale = errors.New("stale marker generation")
)

// HTTPError is a non-2xx answer from the inventory service.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("inventory: bad status %d", e.Status)
	}
	return fmt.Sprintf("inventory: bad status %d: %s", e.Status, e.Body)
}

// ValidationError carries the offending field names so callers can
// render them; it matches ErrValidation under errors.Is.
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return "validation error: " + e.Err.Error()
	}
	return "validation error"
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }
