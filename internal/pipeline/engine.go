package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/homefit-engine/internal/domain"
	"github.com/couchcryptid/homefit-engine/internal/observability"
)

// ResultSink receives every finished assessment. Failures are logged and
// counted, never returned to the caller.
type ResultSink interface {
	Publish(ctx context.Context, result domain.ScoreResult) error
}

// Providers groups the collaborators an Engine orchestrates. Any field may be
// nil; the matching signal or target is then reported as not configured.
type Providers struct {
	Geocoder *domain.LayeredGeocoder
	Resolver *domain.ProximityResolver
	Sound    domain.SoundProvider
	Air      domain.AirQualityProvider
	NightSky domain.NightSkyProvider
	Recap    *domain.RecapWriter
}

// Engine runs one assessment per call: geocode, fan out to the signal
// fetchers and the proximity resolver, join, compose, then write the recap.
// It holds no state between calls.
type Engine struct {
	providers       Providers
	sink            ResultSink
	logger          *slog.Logger
	metrics         *observability.Metrics
	requestTimeout  time.Duration
	providerTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithResultSink publishes each finished assessment to sink.
func WithResultSink(sink ResultSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithRequestTimeout bounds a whole assessment.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) { e.requestTimeout = d }
}

// WithProviderTimeout bounds each signal fetch.
func WithProviderTimeout(d time.Duration) Option {
	return func(e *Engine) { e.providerTimeout = d }
}

// New creates an Engine over the given providers.
func New(providers Providers, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Engine {
	e := &Engine{
		providers:       providers,
		logger:          logger,
		metrics:         metrics,
		requestTimeout:  45 * time.Second,
		providerTimeout: 8 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.providers.Recap == nil {
		e.providers.Recap = domain.NewRecapWriter(nil, domain.GenerationOptions{}, 0, logger)
	}
	return e
}

// CheckReadiness reports whether the engine can locate addresses.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.providers.Geocoder.Configured() {
		return errors.New("no geocoding provider configured")
	}
	return nil
}

// Assess validates req and produces its ScoreResult. Only a validation
// failure is returned as an error; every provider failure is absorbed into
// the result's diagnostics.
func (e *Engine) Assess(ctx context.Context, req domain.AssessmentRequest, requestID string) (domain.ScoreResult, error) {
	start := domain.Now()

	if err := domain.ValidateRequest(req); err != nil {
		e.metrics.ValidationFailures.Inc()
		return domain.ScoreResult{}, err
	}

	ctx, cancel := domain.WithTimeout(ctx, e.requestTimeout)
	defer cancel()

	listing := *req.Listing
	prefs := *req.Prefs
	diag := domain.Diagnostics{
		RequestID: requestID,
		Stages:    []string{domain.StageReceived},
		Providers: []domain.ProviderOutcome{},
	}

	targets := domain.MergeTargets(prefs.PlaceTargets, listing.Targets)
	resolved := []domain.ProximityTarget{}
	var env domain.EnvironmentSignals

	origin, located := e.locate(ctx, listing, &diag)
	if located {
		env, resolved = e.gather(ctx, *origin, targets, &diag)
		diag.Stages = append(diag.Stages, domain.StageSignalsFetched, domain.StageTargetsResolve)
	}
	listing.Environment = env

	comp := domain.Compose(domain.CompositionInput{
		Listing:          listing,
		Prefs:            prefs,
		Environment:      env,
		Targets:          resolved,
		TargetsRequested: len(targets) > 0,
	})
	diag.SubScores = comp.SubScores
	diag.Stages = append(diag.Stages, domain.StageComposed)

	// Without a location nothing was searched, but requested targets are
	// still reported as unresolved. Composition keeps the empty list.
	if !located {
		comp.ScoredTargets = domain.ScoreTargets(unresolved(targets))
	}

	recap, recapDiag := e.providers.Recap.Write(ctx, domain.RecapInput{
		Address:           listing.Address,
		BasicScore:        comp.BasicScore,
		PersonalizedScore: comp.PersonalizedScore,
		IsPersonalized:    comp.IsPersonalized,
		Targets:           comp.ScoredTargets,
		Schools:           listing.Schools,
		Environment:       env,
		Notes:             prefs.Notes,
	})
	diag.Recap = recapDiag
	diag.Stages = append(diag.Stages, domain.StageRecapGenerated, domain.StageReturned)
	diag.DurationMs = domain.Since(start).Milliseconds()

	result := domain.ScoreResult{
		BasicScore:        comp.BasicScore,
		PersonalizedScore: comp.PersonalizedScore,
		IsPersonalized:    comp.IsPersonalized,
		Recap:             recap,
		ScoredTargets:     comp.ScoredTargets,
		Environment:       env,
		Coordinates:       origin,
		Diagnostics:       diag,
	}

	e.record(result, domain.Since(start))
	e.publish(ctx, result)

	e.logger.Info("assessment complete",
		"request_id", requestID,
		"basic_score", result.BasicScore,
		"personalized_score", result.PersonalizedScore,
		"geocode_source", diag.Geocode.Source,
		"recap_source", diag.Recap.Source,
	)
	return result, nil
}

// locate returns the listing's coordinates, geocoding the address when none
// were supplied. A nil result means location-dependent work is skipped.
func (e *Engine) locate(ctx context.Context, listing domain.ListingInput, diag *domain.Diagnostics) (*domain.Coordinates, bool) {
	if listing.Coordinates != nil {
		c := *listing.Coordinates
		diag.Geocode.Source = domain.GeoSourceInput
		diag.Stages = append(diag.Stages, domain.StageGeocodeSkipped)
		return &c, true
	}

	if !e.providers.Geocoder.Configured() {
		diag.Geocode = domain.GeocodeDiagnostics{
			Source: domain.GeoSourceFailed,
			Attempts: []domain.GeocodeAttempt{{
				Provider: "geocoder",
				Query:    listing.Address,
				Error:    domain.ErrProviderNotConfigured.Error(),
			}},
		}
		diag.Stages = append(diag.Stages, domain.StageGeocodeFailed)
		return nil, false
	}

	coords, geoDiag, err := e.providers.Geocoder.Locate(ctx, listing.Address)
	diag.Geocode = geoDiag
	if err != nil {
		e.logger.Warn("geocoding exhausted, skipping location signals",
			"request_id", diag.RequestID,
			"attempts", len(geoDiag.Attempts),
			"error", err,
		)
		diag.Stages = append(diag.Stages, domain.StageGeocodeFailed)
		return nil, false
	}
	diag.Stages = append(diag.Stages, domain.StageGeocoded)
	return &coords, true
}

// signalSlot is the disjoint output of one signal task.
type signalSlot struct {
	signal  domain.Signal
	ok      bool
	outcome domain.ProviderOutcome
}

// gather runs the three signal fetchers and one resolver task per target
// concurrently and waits for all of them. Each task writes only its own slot.
func (e *Engine) gather(ctx context.Context, at domain.Coordinates, targets []domain.ProximityTarget, diag *domain.Diagnostics) (domain.EnvironmentSignals, []domain.ProximityTarget) {
	var (
		sound, air, sky signalSlot
		resolved        = make([]domain.ProximityTarget, len(targets))
		targetOutcomes  = make([][]domain.ProviderOutcome, len(targets))
		g               errgroup.Group
	)

	g.Go(func() error {
		sound = e.fetchSignal(ctx, providerName(e.providers.Sound, "sound"), "sound", e.providerTimeout,
			func(ctx context.Context) (domain.Signal, error) {
				return domain.FetchSound(ctx, e.providers.Sound, at)
			})
		return nil
	})
	g.Go(func() error {
		air = e.fetchSignal(ctx, providerName(e.providers.Air, "air"), "aqi", e.providerTimeout,
			func(ctx context.Context) (domain.Signal, error) {
				return domain.FetchAirQuality(ctx, e.providers.Air, at)
			})
		return nil
	})
	g.Go(func() error {
		// The night-sky provider may try two legs, each bounded on its own.
		sky = e.fetchSignal(ctx, providerName(e.providers.NightSky, "nightsky"), "bortle", 2*e.providerTimeout,
			func(ctx context.Context) (domain.Signal, error) {
				signal, reading, err := domain.FetchNightSky(ctx, e.providers.NightSky, at)
				if err == nil {
					e.logger.Debug("night sky reading", "request_id", diag.RequestID, "source", reading.Source, "bortle", reading.Value)
				}
				return signal, err
			})
		return nil
	})

	for i, target := range targets {
		g.Go(func() error {
			resolved[i], targetOutcomes[i] = e.resolve(ctx, at, target)
			return nil
		})
	}

	_ = g.Wait()

	diag.Providers = append(diag.Providers, sound.outcome, air.outcome, sky.outcome)
	for _, outcomes := range targetOutcomes {
		diag.Providers = append(diag.Providers, outcomes...)
	}

	var env domain.EnvironmentSignals
	if sound.ok {
		env.SoundScore, env.SoundLabel = intPtr(sound.signal.Score), sound.signal.Label
	}
	if air.ok {
		env.AirScore, env.AirLabel = intPtr(air.signal.Score), air.signal.Label
	}
	if sky.ok {
		env.StargazeScore, env.StargazeLabel = intPtr(sky.signal.Score), sky.signal.Label
	}
	return env, resolved
}

func (e *Engine) resolve(ctx context.Context, at domain.Coordinates, target domain.ProximityTarget) (domain.ProximityTarget, []domain.ProviderOutcome) {
	if e.providers.Resolver == nil {
		target.Places = []domain.PlaceResult{}
		target.DistanceMiles = nil
		return target, []domain.ProviderOutcome{{
			Provider:  "places",
			Operation: "search",
			Target:    target.Label,
			Error:     domain.ErrProviderNotConfigured.Error(),
		}}
	}
	return e.providers.Resolver.Resolve(ctx, at, target)
}

func (e *Engine) fetchSignal(ctx context.Context, provider, operation string, timeout time.Duration, fetch func(context.Context) (domain.Signal, error)) signalSlot {
	ctx, cancel := domain.WithTimeout(ctx, timeout)
	defer cancel()

	start := domain.Now()
	signal, err := fetch(ctx)
	outcome := domain.ProviderOutcome{
		Provider:   provider,
		Operation:  operation,
		OK:         err == nil,
		DurationMs: domain.Since(start).Milliseconds(),
	}
	if err != nil {
		outcome.Error = err.Error()
		if !errors.Is(err, domain.ErrProviderNotConfigured) {
			e.logger.Warn("signal fetch failed",
				"provider", provider,
				"operation", operation,
				"error", err,
			)
		}
		return signalSlot{outcome: outcome}
	}
	return signalSlot{signal: signal, ok: true, outcome: outcome}
}

// record updates metrics from a finished result's diagnostics.
func (e *Engine) record(result domain.ScoreResult, elapsed time.Duration) {
	d := result.Diagnostics
	e.metrics.Assessments.WithLabelValues(strconv.FormatBool(result.IsPersonalized)).Inc()
	e.metrics.AssessmentDuration.Observe(elapsed.Seconds())
	e.metrics.GeocodeResults.WithLabelValues(d.Geocode.Source).Inc()
	for _, a := range d.Geocode.Attempts {
		e.metrics.GeocodeAttempts.WithLabelValues(a.Provider, outcomeLabel(a.OK)).Inc()
	}
	for _, p := range d.Providers {
		e.metrics.ProviderRequests.WithLabelValues(p.Provider, p.Operation, outcomeLabel(p.OK)).Inc()
		e.metrics.ProviderDuration.WithLabelValues(p.Provider, p.Operation).Observe(float64(p.DurationMs) / 1000)
	}
	e.metrics.RecapResults.WithLabelValues(d.Recap.Source).Inc()
}

// publish hands the result to the sink. The caller's cancellation does not
// abort a publish already in flight.
func (e *Engine) publish(ctx context.Context, result domain.ScoreResult) {
	if e.sink == nil {
		return
	}
	ctx, cancel := domain.WithTimeout(context.WithoutCancel(ctx), e.providerTimeout)
	defer cancel()

	if err := e.sink.Publish(ctx, result); err != nil {
		e.metrics.ResultPublishErrs.Inc()
		e.logger.Warn("publish assessment failed",
			"request_id", result.Diagnostics.RequestID,
			"error", err,
		)
	}
}

type named interface{ Name() string }

// providerName returns p.Name(), or fallback when p is nil.
func providerName(p named, fallback string) string {
	if p == nil {
		return fallback
	}
	return p.Name()
}

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

func intPtr(v int) *int { return &v }

func unresolved(targets []domain.ProximityTarget) []domain.ProximityTarget {
	out := make([]domain.ProximityTarget, len(targets))
	for i, t := range targets {
		t.Places = []domain.PlaceResult{}
		t.DistanceMiles = nil
		out[i] = t
	}
	return out
}
