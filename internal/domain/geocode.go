package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

var (
	trailingCountry    = regexp.MustCompile(`(?i)[\s,]+(usa|u\.s\.a\.|us|united states(?: of america)?)\s*$`)
	trailingPostalCode = regexp.MustCompile(`[\s,]+\d{5}(?:-\d{4})?\s*$`)
)

var errNoMatch = errors.New("no match")

// LayeredGeocoder resolves an address by trying progressively coarser forms
// of it against the primary provider, then the original form against the
// secondary provider.
type LayeredGeocoder struct {
	primary   GeocodingProvider
	secondary GeocodingProvider
	timeout   time.Duration
	logger    *slog.Logger
}

// NewLayeredGeocoder creates a geocoder. Either provider may be nil; each
// attempt is bounded by timeout.
func NewLayeredGeocoder(primary, secondary GeocodingProvider, timeout time.Duration, logger *slog.Logger) *LayeredGeocoder {
	return &LayeredGeocoder{
		primary:   primary,
		secondary: secondary,
		timeout:   timeout,
		logger:    logger,
	}
}

// Configured reports whether at least one provider is available.
func (g *LayeredGeocoder) Configured() bool {
	return g != nil && (g.primary != nil || g.secondary != nil)
}

// Locate returns the coordinates for address together with a record of every
// attempt. On exhaustion the error wraps ErrGeocodingExhausted.
func (g *LayeredGeocoder) Locate(ctx context.Context, address string) (Coordinates, GeocodeDiagnostics, error) {
	diag := GeocodeDiagnostics{Source: GeoSourceFailed}

	if g.primary != nil {
		for _, query := range AddressVariants(address) {
			if err := ctx.Err(); err != nil {
				return Coordinates{}, diag, fmt.Errorf("%w: %w", ErrGeocodingExhausted, err)
			}
			coords, ok := g.attempt(ctx, g.primary, query, &diag)
			if ok {
				diag.Source = GeoSourcePrimary
				return coords, diag, nil
			}
		}
	} else {
		diag.Attempts = append(diag.Attempts, GeocodeAttempt{
			Provider: "primary",
			Query:    address,
			Error:    ErrProviderNotConfigured.Error(),
		})
	}

	if g.secondary != nil {
		if err := ctx.Err(); err != nil {
			return Coordinates{}, diag, fmt.Errorf("%w: %w", ErrGeocodingExhausted, err)
		}
		coords, ok := g.attempt(ctx, g.secondary, strings.TrimSpace(address), &diag)
		if ok {
			diag.Source = GeoSourceSecondary
			return coords, diag, nil
		}
	}

	return Coordinates{}, diag, ErrGeocodingExhausted
}

func (g *LayeredGeocoder) attempt(ctx context.Context, p GeocodingProvider, query string, diag *GeocodeDiagnostics) (Coordinates, bool) {
	callCtx, cancel := WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := p.ForwardGeocode(callCtx, query)
	if err == nil && result.Empty() {
		err = errNoMatch
	}

	rec := GeocodeAttempt{Provider: p.Name(), Query: query, OK: err == nil}
	if err != nil {
		rec.Error = err.Error()
		g.logger.Warn("geocoding attempt failed",
			"provider", p.Name(),
			"query", query,
			"error", err,
		)
	}
	diag.Attempts = append(diag.Attempts, rec)

	if err != nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: result.Lat, Lon: result.Lon}, true
}

// AddressVariants returns the distinct query forms tried against the primary
// provider, in order: the address as given, without a trailing postal code,
// and reduced to "city, state".
func AddressVariants(address string) []string {
	original := strings.TrimSpace(address)
	if original == "" {
		return nil
	}

	stripped := trailingCountry.ReplaceAllString(original, "")
	stripped = strings.TrimSpace(trailingPostalCode.ReplaceAllString(stripped, ""))

	variants := []string{original}
	add := func(v string) {
		if v == "" {
			return
		}
		for _, existing := range variants {
			if strings.EqualFold(existing, v) {
				return
			}
		}
		variants = append(variants, v)
	}
	add(stripped)
	add(cityState(stripped))
	return variants
}

// cityState keeps the last two comma-separated parts of an address that has
// at least a street, a city and a state.
func cityState(address string) string {
	var parts []string
	for _, p := range strings.Split(address, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-2] + ", " + parts[len(parts)-1]
}
