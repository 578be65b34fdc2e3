package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Signal labels shared by the sound, air and night-sky bands.
const (
	LabelExcellent = "Excellent"
	LabelGood      = "Good"
	LabelOkay      = "Okay"
	LabelNotGreat  = "Not Great"
	LabelNotGood   = "Not Good"
)

// Signal is a 0–100 score with its human label.
type Signal struct {
	Score int
	Label string
}

// airQualityWindowMonths is how far back hourly AQI samples are averaged.
const airQualityWindowMonths = 12

// SoundBand maps a raw 0–100 sound score to a signal.
func SoundBand(raw float64) Signal {
	score := int(math.Round(clamp(raw, 0, 100)))
	switch {
	case score >= 85:
		return Signal{Score: score, Label: LabelExcellent}
	case score >= 70:
		return Signal{Score: score, Label: LabelGood}
	case score >= 55:
		return Signal{Score: score, Label: LabelOkay}
	case score >= 40:
		return Signal{Score: score, Label: LabelNotGreat}
	default:
		return Signal{Score: score, Label: LabelNotGood}
	}
}

// AirQualityBand maps an average AQI (1 best, 5 worst) to a signal.
func AirQualityBand(avg float64) Signal {
	switch {
	case avg <= 1.5:
		return Signal{Score: 90, Label: LabelGood}
	case avg <= 2.5:
		return Signal{Score: 75, Label: LabelOkay}
	case avg <= 3.5:
		return Signal{Score: 55, Label: LabelNotGreat}
	default:
		return Signal{Score: 30, Label: LabelNotGood}
	}
}

// NightSkyBand maps a Bortle class to a stargazing signal.
func NightSkyBand(bortle float64) Signal {
	switch {
	case bortle <= 2.99:
		return Signal{Score: 98, Label: LabelExcellent}
	case bortle <= 3.99:
		return Signal{Score: 85, Label: LabelGood}
	case bortle <= 4.99:
		return Signal{Score: 70, Label: LabelOkay}
	case bortle <= 6.99:
		return Signal{Score: 45, Label: LabelNotGreat}
	default:
		return Signal{Score: 20, Label: LabelNotGood}
	}
}

// FetchSound reads the sound score for a point.
func FetchSound(ctx context.Context, p SoundProvider, at Coordinates) (Signal, error) {
	if p == nil {
		return Signal{}, ErrProviderNotConfigured
	}
	raw, err := p.SoundScore(ctx, at)
	if err != nil {
		return Signal{}, upstream(p.Name(), err)
	}
	if math.IsNaN(raw) {
		return Signal{}, upstream(p.Name(), errors.New("sound score is not a number"))
	}
	return SoundBand(raw), nil
}

// FetchAirQuality averages hourly AQI over the trailing twelve months.
func FetchAirQuality(ctx context.Context, p AirQualityProvider, at Coordinates) (Signal, error) {
	if p == nil {
		return Signal{}, ErrProviderNotConfigured
	}
	to := clock.Now().UTC()
	from := to.AddDate(0, -airQualityWindowMonths, 0)

	samples, err := p.HourlyAQI(ctx, at, from, to)
	if err != nil {
		return Signal{}, upstream(p.Name(), err)
	}
	if len(samples) == 0 {
		return Signal{}, upstream(p.Name(), errors.New("no AQI samples in window"))
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	return AirQualityBand(sum / float64(len(samples))), nil
}

// FetchNightSky reads the Bortle class for a point.
func FetchNightSky(ctx context.Context, p NightSkyProvider, at Coordinates) (Signal, BortleReading, error) {
	if p == nil {
		return Signal{}, BortleReading{}, ErrProviderNotConfigured
	}
	reading, err := p.Bortle(ctx, at)
	if err != nil {
		return Signal{}, BortleReading{}, upstream(p.Name(), err)
	}
	if !ValidBortle(reading.Value) {
		return Signal{}, reading, upstream(p.Name(), fmt.Errorf("bortle value %.2f out of range", reading.Value))
	}
	return NightSkyBand(reading.Value), reading, nil
}

// ValidBortle reports whether v lies on the 1–9 Bortle scale.
func ValidBortle(v float64) bool {
	return v >= 1 && v <= 9
}

// NightSkyFallback tries a primary night-sky provider and, on any failure,
// a secondary implementation of the same interface.
type NightSkyFallback struct {
	primary   NightSkyProvider
	secondary NightSkyProvider
	timeout   time.Duration
	logger    *slog.Logger
}

// NewNightSkyFallback wraps primary with secondary. Either may be nil. Each
// leg is bounded by timeout.
func NewNightSkyFallback(primary, secondary NightSkyProvider, timeout time.Duration, logger *slog.Logger) *NightSkyFallback {
	return &NightSkyFallback{primary: primary, secondary: secondary, timeout: timeout, logger: logger}
}

func (f *NightSkyFallback) call(ctx context.Context, p NightSkyProvider, at Coordinates) (BortleReading, error) {
	ctx, cancel := WithTimeout(ctx, f.timeout)
	defer cancel()
	return p.Bortle(ctx, at)
}

// Name identifies the combined provider.
func (f *NightSkyFallback) Name() string { return "nightsky" }

// Bortle implements NightSkyProvider.
func (f *NightSkyFallback) Bortle(ctx context.Context, at Coordinates) (BortleReading, error) {
	var primaryErr error
	if f.primary != nil {
		reading, err := f.call(ctx, f.primary, at)
		if err == nil && ValidBortle(reading.Value) {
			return reading, nil
		}
		if err == nil {
			err = fmt.Errorf("bortle value %.2f out of range", reading.Value)
		}
		primaryErr = fmt.Errorf("%s: %w", f.primary.Name(), err)
		f.logger.Warn("night sky api failed, falling back to scrape",
			"provider", f.primary.Name(),
			"error", err,
		)
	} else {
		primaryErr = ErrProviderNotConfigured
	}

	if f.secondary == nil || ctx.Err() != nil {
		return BortleReading{}, primaryErr
	}

	reading, err := f.call(ctx, f.secondary, at)
	if err != nil {
		return BortleReading{}, fmt.Errorf("%w; %s: %w", primaryErr, f.secondary.Name(), err)
	}
	return reading, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
