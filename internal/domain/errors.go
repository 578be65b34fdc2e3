package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGeocodingExhausted is returned when every address variant and the
	// secondary provider failed to produce coordinates.
	ErrGeocodingExhausted = errors.New("geocoding exhausted")

	// ErrUpstreamUnavailable wraps any provider failure: timeout, transport
	// error, non-success status or an unparseable payload.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrProviderNotConfigured is returned in place of a call when the
	// provider has no credentials.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrRecapUnavailable is returned when the generative recap path fails.
	ErrRecapUnavailable = errors.New("recap generation failed")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is the only failure that aborts an assessment.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// upstream tags err as an upstream failure unless it already is one.
func upstream(provider string, err error) error {
	if errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrProviderNotConfigured) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", provider, ErrUpstreamUnavailable, err)
}
