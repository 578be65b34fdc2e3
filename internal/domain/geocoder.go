package domain

import (
	"context"
	"time"
)

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Empty reports whether the provider matched nothing.
func (r GeocodingResult) Empty() bool {
	return r.Lat == 0 && r.Lon == 0
}

// GeocodingProvider turns a free-form address into coordinates.
type GeocodingProvider interface {
	Name() string
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)
}

// PlaceCandidate is a point of interest returned by a place search.
type PlaceCandidate struct {
	Name         string
	Address      string
	Location     Coordinates
	ProviderID   string
	ExternalLink string
}

// PlaceSearcher finds points of interest matching a category near a point.
type PlaceSearcher interface {
	Name() string
	SearchPlaces(ctx context.Context, query string, near Coordinates, limit int) ([]PlaceCandidate, error)
}

// DistanceMatrix returns the driving distance in meters from points[0] to
// every entry of points, including points[0] itself. A nil entry means the
// provider found no route.
type DistanceMatrix interface {
	Name() string
	Distances(ctx context.Context, points []Coordinates) ([]*float64, error)
}

// RouteProvider returns the routed distance in meters between two points.
type RouteProvider interface {
	Name() string
	RouteDistance(ctx context.Context, from, to Coordinates) (float64, error)
}

// SoundProvider returns a 0–100 noise score where higher is quieter.
type SoundProvider interface {
	Name() string
	SoundScore(ctx context.Context, at Coordinates) (float64, error)
}

// AirQualityProvider returns hourly AQI samples (1–5) within [from, to].
type AirQualityProvider interface {
	Name() string
	HourlyAQI(ctx context.Context, at Coordinates, from, to time.Time) ([]int, error)
}

// BortleReading is a Bortle-scale value and the strategy that produced it.
type BortleReading struct {
	Value  float64
	Source string
}

// NightSkyProvider returns the Bortle class (1–9) for a point.
type NightSkyProvider interface {
	Name() string
	Bortle(ctx context.Context, at Coordinates) (BortleReading, error)
}

// GenerationOptions bounds a text generation call.
type GenerationOptions struct {
	MaxTokens   int32
	Temperature float32
}

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}
