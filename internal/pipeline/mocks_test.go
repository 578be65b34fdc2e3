package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/homefit-engine/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// barrier releases every caller once n callers have arrived. A caller whose
// context ends first gets the context error.
type barrier struct {
	remaining atomic.Int32
	release   chan struct{}
	once      sync.Once
}

func newBarrier(n int) *barrier {
	b := &barrier{release: make(chan struct{})}
	b.remaining.Store(int32(n))
	return b
}

func (b *barrier) wait(ctx context.Context) error {
	if b == nil {
		return nil
	}
	if b.remaining.Add(-1) <= 0 {
		b.once.Do(func() { close(b.release) })
	}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type mockGeocoder struct {
	name   string
	result domain.GeocodingResult
	err    error
	calls  atomic.Int32
}

func (m *mockGeocoder) Name() string { return m.name }

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	m.calls.Add(1)
	return m.result, m.err
}

type mockSound struct {
	score   float64
	err     error
	block   bool
	barrier *barrier
	calls   atomic.Int32
}

func (m *mockSound) Name() string { return "howloud" }

func (m *mockSound) SoundScore(ctx context.Context, _ domain.Coordinates) (float64, error) {
	m.calls.Add(1)
	if err := m.barrier.wait(ctx); err != nil {
		return 0, err
	}
	if m.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return m.score, m.err
}

type mockAir struct {
	samples []int
	err     error
	barrier *barrier
	calls   atomic.Int32
}

func (m *mockAir) Name() string { return "openweather" }

func (m *mockAir) HourlyAQI(ctx context.Context, _ domain.Coordinates, _, _ time.Time) ([]int, error) {
	m.calls.Add(1)
	if err := m.barrier.wait(ctx); err != nil {
		return nil, err
	}
	return m.samples, m.err
}

type mockNightSky struct {
	name    string
	reading domain.BortleReading
	err     error
	barrier *barrier
	calls   atomic.Int32
}

func (m *mockNightSky) Name() string { return m.name }

func (m *mockNightSky) Bortle(ctx context.Context, _ domain.Coordinates) (domain.BortleReading, error) {
	m.calls.Add(1)
	if err := m.barrier.wait(ctx); err != nil {
		return domain.BortleReading{}, err
	}
	return m.reading, m.err
}

type mockPlaces struct {
	byQuery map[string][]domain.PlaceCandidate
	err     error
	barrier *barrier
	calls   atomic.Int32
}

func (m *mockPlaces) Name() string { return "google" }

func (m *mockPlaces) SearchPlaces(ctx context.Context, query string, _ domain.Coordinates, limit int) ([]domain.PlaceCandidate, error) {
	m.calls.Add(1)
	if err := m.barrier.wait(ctx); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	found := m.byQuery[query]
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

// mockMatrix returns meters keyed by destination latitude.
type mockMatrix struct {
	metersByLat map[float64]float64
	err         error
}

func (m *mockMatrix) Name() string { return "mapbox" }

func (m *mockMatrix) Distances(_ context.Context, points []domain.Coordinates) ([]*float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*float64, len(points))
	out[0] = ptr(0.0)
	for i, p := range points[1:] {
		if v, ok := m.metersByLat[p.Lat]; ok {
			out[i+1] = ptr(v)
		}
	}
	return out, nil
}

type mockGenerator struct {
	text string
	err  error
}

func (m *mockGenerator) Name() string { return "gemini" }

func (m *mockGenerator) Generate(_ context.Context, _ string, _ domain.GenerationOptions) (string, error) {
	return m.text, m.err
}

type mockSink struct {
	mu        sync.Mutex
	published []domain.ScoreResult
	err       error
}

func (m *mockSink) Publish(_ context.Context, result domain.ScoreResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, result)
	return nil
}
