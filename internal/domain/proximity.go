package domain

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	// MaxPlacesPerTarget caps the candidates kept per target.
	MaxPlacesPerTarget = 3

	metersPerMile     = 1609.344
	earthRadiusMiles  = 3958.8
	reroutePastMiles  = 5.0
	rerouteDetourRate = 2.0
)

// DistanceScore maps the closest distance in miles to a 0–10 score. The
// curve peaks between half a mile and two miles. A nil distance scores 2.
func DistanceScore(miles *float64) float64 {
	if miles == nil {
		return 2
	}
	d := *miles
	switch {
	case d <= 0.1:
		return 7
	case d <= 0.5:
		return 9
	case d <= 2:
		return 10
	case d <= 5:
		return 8
	case d <= 10:
		return 6
	case d <= 15:
		return 4
	default:
		return 2
	}
}

// GreatCircleMiles returns the haversine distance between two points.
func GreatCircleMiles(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

// MergeTargets returns the preference targets in order followed by listing
// targets whose label is not already present.
func MergeTargets(prefs []PlaceTarget, listing []ProximityTarget) []ProximityTarget {
	out := make([]ProximityTarget, 0, len(prefs)+len(listing))
	seen := make(map[string]bool, len(prefs)+len(listing))
	add := func(label string, maxMiles float64) {
		key := strings.ToLower(strings.TrimSpace(label))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, ProximityTarget{Label: strings.TrimSpace(label), MaxDistanceMiles: maxMiles})
	}
	for _, p := range prefs {
		add(p.Label, p.MaxDistanceMiles)
	}
	for _, t := range listing {
		add(t.Label, t.MaxDistanceMiles)
	}
	return out
}

// ProximityResolver finds the closest places for a target category.
type ProximityResolver struct {
	places     PlaceSearcher
	matrix     DistanceMatrix
	routes     RouteProvider
	candidates int
	timeout    time.Duration
	logger     *slog.Logger
}

// NewProximityResolver creates a resolver that searches for up to
// candidates places per target. Each external call is bounded by timeout.
func NewProximityResolver(places PlaceSearcher, matrix DistanceMatrix, routes RouteProvider, candidates int, timeout time.Duration, logger *slog.Logger) *ProximityResolver {
	return &ProximityResolver{
		places:     places,
		matrix:     matrix,
		routes:     routes,
		candidates: candidates,
		timeout:    timeout,
		logger:     logger,
	}
}

type rankedPlace struct {
	result   PlaceResult
	location Coordinates
}

// Resolve fills target.Places and target.DistanceMiles. Provider failures
// leave the target absent and are reported in the returned outcomes.
func (r *ProximityResolver) Resolve(ctx context.Context, origin Coordinates, target ProximityTarget) (ProximityTarget, []ProviderOutcome) {
	target.Places = []PlaceResult{}
	target.DistanceMiles = nil
	var outcomes []ProviderOutcome

	if r.places == nil || r.matrix == nil {
		outcomes = append(outcomes, ProviderOutcome{
			Provider:  "places",
			Operation: "search",
			Target:    target.Label,
			Error:     ErrProviderNotConfigured.Error(),
		})
		return target, outcomes
	}

	var candidates []PlaceCandidate
	outcome := r.track(r.places.Name(), "search", target.Label, func() error {
		ctx, cancel := WithTimeout(ctx, r.timeout)
		defer cancel()
		var err error
		candidates, err = r.places.SearchPlaces(ctx, target.Label, origin, r.candidates)
		return err
	})
	outcomes = append(outcomes, outcome)
	if !outcome.OK || len(candidates) == 0 {
		return target, outcomes
	}

	points := make([]Coordinates, 0, len(candidates)+1)
	points = append(points, origin)
	for _, c := range candidates {
		points = append(points, c.Location)
	}

	var distances []*float64
	outcome = r.track(r.matrix.Name(), "matrix", target.Label, func() error {
		ctx, cancel := WithTimeout(ctx, r.timeout)
		defer cancel()
		var err error
		distances, err = r.matrix.Distances(ctx, points)
		if err == nil && len(distances) != len(points) {
			err = errors.New("distance matrix size mismatch")
		}
		return err
	})
	outcomes = append(outcomes, outcome)
	if !outcome.OK {
		return target, outcomes
	}

	// distances[0] is origin to origin.
	ranked := make([]rankedPlace, 0, len(candidates))
	for i, c := range candidates {
		d := distances[i+1]
		if d == nil || *d < 0 {
			continue
		}
		ranked = append(ranked, rankedPlace{
			result: PlaceResult{
				Name:          c.Name,
				Address:       c.Address,
				DistanceMiles: *d / metersPerMile,
				ExternalLink:  c.ExternalLink,
				ProviderID:    c.ProviderID,
			},
			location: c.Location,
		})
	}
	if len(ranked) == 0 {
		return target, outcomes
	}

	sortRanked(ranked)
	if len(ranked) > MaxPlacesPerTarget {
		ranked = ranked[:MaxPlacesPerTarget]
	}

	closest := &ranked[0]
	straight := GreatCircleMiles(origin, closest.location)
	if r.routes != nil && (closest.result.DistanceMiles > reroutePastMiles || closest.result.DistanceMiles > rerouteDetourRate*straight) {
		var meters float64
		outcome = r.track(r.routes.Name(), "directions", target.Label, func() error {
			ctx, cancel := WithTimeout(ctx, r.timeout)
			defer cancel()
			var err error
			meters, err = r.routes.RouteDistance(ctx, origin, closest.location)
			if err == nil && meters < 0 {
				err = errors.New("negative route distance")
			}
			return err
		})
		outcomes = append(outcomes, outcome)
		if outcome.OK {
			closest.result.DistanceMiles = meters / metersPerMile
			sortRanked(ranked)
		}
	}

	for _, p := range ranked {
		target.Places = append(target.Places, p.result)
	}
	d := target.Places[0].DistanceMiles
	target.DistanceMiles = &d
	return target, outcomes
}

func (r *ProximityResolver) track(provider, operation, label string, call func() error) ProviderOutcome {
	start := clock.Now()
	err := call()
	out := ProviderOutcome{
		Provider:   provider,
		Operation:  operation,
		Target:     label,
		OK:         err == nil,
		DurationMs: clock.Since(start).Milliseconds(),
	}
	if err != nil {
		out.Error = upstream(provider, err).Error()
		r.logger.Warn("proximity lookup failed",
			"provider", provider,
			"operation", operation,
			"target", label,
			"error", err,
		)
	}
	return out
}

func sortRanked(ranked []rankedPlace) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].result.DistanceMiles < ranked[j].result.DistanceMiles
	})
}
