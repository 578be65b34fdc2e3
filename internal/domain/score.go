package domain

import "math"

const (
	neutralSubScore       = 5.0
	neutralEnvironment    = 5.0
	emptyTargetsSubScore  = 3.0
	coverageFloor         = 0.85
	coverageSpan          = 0.15
	genericWeightBasics   = 0.40
	genericWeightSchools  = 0.30
	genericWeightMobility = 0.20
	genericWeightEnv      = 0.10

	personalWeightTargets     = 0.40
	personalWeightMobility    = 0.25
	personalWeightEnvironment = 0.25
	remainderWeightSchools    = 0.20
	remainderWeightBasics     = 0.10
)

// CompositionInput is everything the composer reads. It performs no I/O.
type CompositionInput struct {
	Listing          ListingInput
	Prefs            UserPreferences
	Environment      EnvironmentSignals
	Targets          []ProximityTarget
	TargetsRequested bool
}

// Composition is the composer's output.
type Composition struct {
	BasicScore        int
	PersonalizedScore int
	IsPersonalized    bool
	ScoredTargets     []ScoredTarget
	SubScores         SubScores
}

// Compose computes the generic and personalized scores.
func Compose(in CompositionInput) Composition {
	sub := SubScores{
		Basics:             BasicsSubScore(in.Listing.Basics),
		Schools:            SchoolsSubScore(in.Listing.Schools),
		MobilityGeneric:    GenericMobilitySubScore(in.Listing.Mobility),
		EnvironmentNeutral: neutralEnvironment,
	}

	generic := genericWeightBasics*sub.Basics +
		genericWeightSchools*sub.Schools +
		genericWeightMobility*sub.MobilityGeneric +
		genericWeightEnv*sub.EnvironmentNeutral

	out := Composition{
		BasicScore:     toPercent(generic),
		IsPersonalized: in.Prefs.HasPreferences(),
		ScoredTargets:  ScoreTargets(in.Targets),
	}

	if !out.IsPersonalized {
		out.PersonalizedScore = out.BasicScore
		out.SubScores = sub
		return out
	}

	weights := make(map[string]float64)
	var personalized, allocated float64

	if in.TargetsRequested {
		targets, coverage := TargetsSubScore(in.Targets)
		sub.Targets = &targets
		sub.Coverage = coverage
		personalized += personalWeightTargets * targets
		allocated += personalWeightTargets
		weights["targets"] = personalWeightTargets
	}

	if len(in.Prefs.MobilitySignals) > 0 {
		mobility := PersonalizedMobilitySubScore(in.Listing.Mobility, in.Prefs.MobilitySignals)
		sub.MobilityPersonalized = &mobility
		personalized += personalWeightMobility * mobility
		allocated += personalWeightMobility
		weights["mobility"] = personalWeightMobility
	}

	if len(in.Prefs.EnvironmentalPrefs) > 0 {
		if env := PersonalizedEnvironmentSubScore(in.Environment, in.Prefs.EnvironmentalPrefs); env != nil {
			sub.EnvironmentPersonalized = env
			personalized += personalWeightEnvironment * *env
			allocated += personalWeightEnvironment
			weights["environment"] = personalWeightEnvironment
		}
	}

	// Any unallocated weight pulls in schools and basics at fixed fractions,
	// regardless of how much weight is left.
	if 1-allocated > 1e-9 {
		personalized += remainderWeightSchools*sub.Schools + remainderWeightBasics*sub.Basics
		weights["schools"] = remainderWeightSchools
		weights["basics"] = remainderWeightBasics
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	sub.Weights = weights
	sub.WeightSum = math.Round(sum*100) / 100

	out.PersonalizedScore = toPercent(personalized)
	out.SubScores = sub
	return out
}

// BasicsSubScore averages the tier scores of the attributes present.
func BasicsSubScore(b Basics) float64 {
	var scores []float64
	if b.Beds != nil {
		scores = append(scores, bedsTier(*b.Beds))
	}
	if b.Baths != nil {
		scores = append(scores, bathsTier(*b.Baths))
	}
	if b.Sqft != nil {
		scores = append(scores, sqftTier(*b.Sqft))
	}
	if b.YearBuilt != nil {
		scores = append(scores, yearTier(*b.YearBuilt))
	}
	return meanOr(scores, neutralSubScore)
}

func bedsTier(beds int) float64 {
	switch {
	case beds >= 4:
		return 10
	case beds == 3:
		return 9
	case beds == 2:
		return 7
	default:
		return 4
	}
}

func bathsTier(baths float64) float64 {
	switch {
	case baths >= 2:
		return 10
	case baths >= 1.5:
		return 8
	case baths >= 1:
		return 6
	default:
		return 4
	}
}

func sqftTier(sqft int) float64 {
	switch {
	case sqft >= 2000:
		return 10
	case sqft >= 1500:
		return 8
	case sqft >= 1000:
		return 6
	default:
		return 4
	}
}

func yearTier(year int) float64 {
	switch {
	case year >= 2000:
		return 10
	case year >= 1980:
		return 8
	case year >= 1960:
		return 6
	default:
		return 4
	}
}

// SchoolsSubScore is the mean school rating.
func SchoolsSubScore(schools []School) float64 {
	scores := make([]float64, 0, len(schools))
	for _, s := range schools {
		scores = append(scores, s.Score)
	}
	return clamp(meanOr(scores, neutralSubScore), 0, 10)
}

// GenericMobilitySubScore is the mean of the present mobility indices, on a
// 0–10 scale.
func GenericMobilitySubScore(m Mobility) float64 {
	return PersonalizedMobilitySubScore(m, []string{MobilityWalk, MobilityBike, MobilityTransit})
}

// PersonalizedMobilitySubScore is the mean of the selected mobility indices
// that are present, on a 0–10 scale.
func PersonalizedMobilitySubScore(m Mobility, selected []string) float64 {
	scores := make([]float64, 0, len(selected))
	for _, name := range selected {
		if v := m.Value(name); v != nil {
			scores = append(scores, clamp(*v, 0, 100)/10)
		}
	}
	return meanOr(scores, neutralSubScore)
}

// PersonalizedEnvironmentSubScore is the mean of the opted-in signals that
// were fetched, on a 0–10 scale. It is nil when none are available.
func PersonalizedEnvironmentSubScore(env EnvironmentSignals, prefs []string) *float64 {
	var scores []float64
	for _, pref := range prefs {
		if v := env.Score(pref); v != nil {
			scores = append(scores, clamp(float64(*v), 0, 100)/10)
		}
	}
	if len(scores) == 0 {
		return nil
	}
	m := meanOr(scores, 0)
	return &m
}

// CoverageModifier scales the target score by the share of targets that
// had at least one place.
func CoverageModifier(found, total int) float64 {
	if total <= 0 {
		return coverageFloor
	}
	return coverageFloor + coverageSpan*float64(found)/float64(total)
}

// TargetsSubScore is the mean distance score of the targets scaled by
// coverage. An empty list scores 3 with no coverage.
func TargetsSubScore(targets []ProximityTarget) (float64, *float64) {
	if len(targets) == 0 {
		return emptyTargetsSubScore, nil
	}
	scores := make([]float64, 0, len(targets))
	found := 0
	for _, t := range targets {
		scores = append(scores, DistanceScore(t.DistanceMiles))
		if t.Found() {
			found++
		}
	}
	coverage := CoverageModifier(found, len(targets))
	return clamp(meanOr(scores, 0)*coverage, 0, 10), &coverage
}

// ScoreTargets attaches the distance-curve score and max-distance flag to
// each target. Unresolved targets score 2 and are never within range.
func ScoreTargets(targets []ProximityTarget) []ScoredTarget {
	out := make([]ScoredTarget, 0, len(targets))
	for _, t := range targets {
		if t.Places == nil {
			t.Places = []PlaceResult{}
		}
		within := t.DistanceMiles != nil && (t.MaxDistanceMiles <= 0 || *t.DistanceMiles <= t.MaxDistanceMiles)
		out = append(out, ScoredTarget{
			ProximityTarget:   t,
			Score:             DistanceScore(t.DistanceMiles),
			WithinMaxDistance: within,
		})
	}
	return out
}

func meanOr(values []float64, def float64) float64 {
	if len(values) == 0 {
		return def
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// toPercent rescales a 0–10 composite to an integer 0–100.
func toPercent(v float64) int {
	return int(clamp(math.Round(v*10), 0, 100))
}
