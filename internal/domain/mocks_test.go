package domain

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// --- geocoding ---

type mockGeocoder struct {
	name    string
	results map[string]GeocodingResult
	err     error
	queries []string
}

func (m *mockGeocoder) Name() string { return m.name }

func (m *mockGeocoder) ForwardGeocode(_ context.Context, query string) (GeocodingResult, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return GeocodingResult{}, m.err
	}
	return m.results[query], nil
}

// --- proximity ---

type mockPlaces struct {
	candidates []PlaceCandidate
	err        error
	calls      int
	lastLimit  int
}

func (m *mockPlaces) Name() string { return "places" }

func (m *mockPlaces) SearchPlaces(_ context.Context, _ string, _ Coordinates, limit int) ([]PlaceCandidate, error) {
	m.calls++
	m.lastLimit = limit
	return m.candidates, m.err
}

type mockMatrix struct {
	meters []*float64
	err    error
	calls  int
	points []Coordinates
}

func (m *mockMatrix) Name() string { return "matrix" }

func (m *mockMatrix) Distances(_ context.Context, points []Coordinates) ([]*float64, error) {
	m.calls++
	m.points = points
	return m.meters, m.err
}

type mockRoutes struct {
	meters float64
	err    error
	calls  int
}

func (m *mockRoutes) Name() string { return "routes" }

func (m *mockRoutes) RouteDistance(_ context.Context, _, _ Coordinates) (float64, error) {
	m.calls++
	return m.meters, m.err
}

// --- signals ---

type mockSound struct {
	score float64
	err   error
}

func (m *mockSound) Name() string { return "sound" }

func (m *mockSound) SoundScore(_ context.Context, _ Coordinates) (float64, error) {
	return m.score, m.err
}

type mockAir struct {
	samples  []int
	err      error
	from, to time.Time
}

func (m *mockAir) Name() string { return "air" }

func (m *mockAir) HourlyAQI(_ context.Context, _ Coordinates, from, to time.Time) ([]int, error) {
	m.from, m.to = from, to
	return m.samples, m.err
}

type mockNightSky struct {
	name    string
	reading BortleReading
	err     error
	block   bool
	mu      sync.Mutex
	calls   int
}

func (m *mockNightSky) Name() string { return m.name }

func (m *mockNightSky) Bortle(ctx context.Context, _ Coordinates) (BortleReading, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return BortleReading{}, ctx.Err()
	}
	return m.reading, m.err
}

// --- recap ---

type mockGenerator struct {
	text   string
	err    error
	prompt string
	opts   GenerationOptions
}

func (m *mockGenerator) Name() string { return "generator" }

func (m *mockGenerator) Generate(_ context.Context, prompt string, opts GenerationOptions) (string, error) {
	m.prompt = prompt
	m.opts = opts
	return m.text, m.err
}
