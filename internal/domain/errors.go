package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInstrumentNotFound means none of the alert's instrument names is registered on the platform.
	ErrInstrumentNotFound = errors.New("instrument not registered")
	// ErrMalformedAlert means a raw alert lacks a required field.
	ErrMalformedAlert = errors.New("malformed alert")
	// ErrTaxonomyNotConfigured means no taxonomy id is available for classification.
	ErrTaxonomyNotConfigured = errors.New("taxonomy not configured")
)

// StatusError is a non-200 reply from the platform.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform returned status %d", e.Code)
	}
	return fmt.Sprintf("platform returned status %d: %s", e.Code, e.Message)
}

// StatusCode extracts the platform status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
