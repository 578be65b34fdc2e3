package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func springfieldListing() ListingInput {
	return ListingInput{
		Address: fullAddress,
		Basics: Basics{
			Beds:      ptr(4),
			Baths:     ptr(2.0),
			Sqft:      ptr(2200),
			YearBuilt: ptr(2015),
		},
		Schools:  []School{{Label: "Lincoln Elementary", Score: 8}, {Label: "Douglas Middle", Score: 8}},
		Mobility: Mobility{Walk: ptr(78.0)},
	}
}

func TestBasicsSubScore(t *testing.T) {
	tests := []struct {
		name   string
		basics Basics
		want   float64
	}{
		{"none present", Basics{}, 5},
		{"four beds", Basics{Beds: ptr(5)}, 10},
		{"three beds", Basics{Beds: ptr(3)}, 9},
		{"two beds", Basics{Beds: ptr(2)}, 7},
		{"studio", Basics{Beds: ptr(0)}, 4},
		{"mixed", Basics{Beds: ptr(2), Baths: ptr(1.0), Sqft: ptr(1600), YearBuilt: ptr(1950)}, (7.0 + 6 + 8 + 4) / 4},
		{"all top tier", springfieldListing().Basics, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BasicsSubScore(tt.basics), 1e-9)
		})
	}
}

func TestSchoolsSubScore(t *testing.T) {
	assert.Equal(t, 5.0, SchoolsSubScore(nil))
	assert.InDelta(t, 7.0, SchoolsSubScore([]School{{Score: 6}, {Score: 8}}), 1e-9)
}

func TestMobilitySubScores(t *testing.T) {
	m := Mobility{Walk: ptr(78.0), Transit: ptr(40.0)}

	assert.InDelta(t, 5.9, GenericMobilitySubScore(m), 1e-9)
	assert.Equal(t, 5.0, GenericMobilitySubScore(Mobility{}))
	assert.InDelta(t, 7.8, PersonalizedMobilitySubScore(m, []string{MobilityWalk}), 1e-9)
	assert.Equal(t, 5.0, PersonalizedMobilitySubScore(m, []string{MobilityBike}))
}

func TestPersonalizedEnvironmentSubScore(t *testing.T) {
	env := EnvironmentSignals{SoundScore: ptr(80), AirScore: ptr(90)}

	got := PersonalizedEnvironmentSubScore(env, []string{EnvSoundScore, EnvAirQuality})
	require.NotNil(t, got)
	assert.InDelta(t, 8.5, *got, 1e-9)

	assert.Nil(t, PersonalizedEnvironmentSubScore(env, []string{EnvStargazeScore}))
	assert.Nil(t, PersonalizedEnvironmentSubScore(env, nil))
}

func TestCoverageModifier(t *testing.T) {
	assert.Equal(t, 0.85, CoverageModifier(0, 0))
	assert.Equal(t, 0.85, CoverageModifier(0, 3))
	assert.InDelta(t, 0.925, CoverageModifier(1, 2), 1e-9)
	assert.InDelta(t, 1.0, CoverageModifier(4, 4), 1e-9)
}

func TestTargetsSubScore(t *testing.T) {
	score, coverage := TargetsSubScore(nil)
	assert.Equal(t, 3.0, score)
	assert.Nil(t, coverage)

	targets := []ProximityTarget{
		{Label: "preschool", DistanceMiles: ptr(1.3), Places: []PlaceResult{{Name: "Bright Start", DistanceMiles: 1.3}}},
		{Label: "golf course", Places: []PlaceResult{}},
	}
	score, coverage = TargetsSubScore(targets)
	require.NotNil(t, coverage)
	assert.InDelta(t, 0.925, *coverage, 1e-9)
	assert.InDelta(t, 6*0.925, score, 1e-9)
}

func TestCompose_GenericOnly(t *testing.T) {
	got := Compose(CompositionInput{Listing: springfieldListing()})

	// 0.4·10 + 0.3·8 + 0.2·7.8 + 0.1·5 = 8.46
	assert.Equal(t, 85, got.BasicScore)
	assert.Equal(t, got.BasicScore, got.PersonalizedScore)
	assert.False(t, got.IsPersonalized)
	assert.Equal(t, 10.0, got.SubScores.Basics)
	assert.Equal(t, 8.0, got.SubScores.Schools)
	assert.InDelta(t, 7.8, got.SubScores.MobilityGeneric, 1e-9)
	assert.Equal(t, 5.0, got.SubScores.EnvironmentNeutral)
	assert.Nil(t, got.SubScores.Weights)
}

func TestCompose_AllDefaults(t *testing.T) {
	got := Compose(CompositionInput{})
	assert.Equal(t, 50, got.BasicScore)
	assert.Equal(t, 50, got.PersonalizedScore)
}

func TestCompose_TargetsAndUnavailableEnvironment(t *testing.T) {
	prefs := UserPreferences{
		PlaceTargets:       []PlaceTarget{{Label: "preschool", MaxDistanceMiles: 2}, {Label: "golf course", MaxDistanceMiles: 10}},
		EnvironmentalPrefs: []string{EnvStargazeScore},
	}
	targets := []ProximityTarget{
		{Label: "preschool", MaxDistanceMiles: 2, DistanceMiles: ptr(1.3), Places: []PlaceResult{{Name: "Bright Start", DistanceMiles: 1.3}}},
		{Label: "golf course", MaxDistanceMiles: 10, Places: []PlaceResult{}},
	}

	got := Compose(CompositionInput{
		Listing:          springfieldListing(),
		Prefs:            prefs,
		Targets:          targets,
		TargetsRequested: true,
	})

	assert.True(t, got.IsPersonalized)
	assert.Nil(t, got.SubScores.EnvironmentPersonalized)
	assert.NotContains(t, got.SubScores.Weights, "environment")
	assert.Equal(t, 0.40, got.SubScores.Weights["targets"])
	assert.Equal(t, 0.20, got.SubScores.Weights["schools"])
	assert.Equal(t, 0.10, got.SubScores.Weights["basics"])
	assert.InDelta(t, 0.7, got.SubScores.WeightSum, 1e-9)

	// 0.4·(6·0.925) + 0.2·8 + 0.1·10 = 4.82
	assert.Equal(t, 48, got.PersonalizedScore)

	require.Len(t, got.ScoredTargets, 2)
	assert.Equal(t, 10.0, got.ScoredTargets[0].Score)
	assert.True(t, got.ScoredTargets[0].WithinMaxDistance)
	assert.Equal(t, 2.0, got.ScoredTargets[1].Score)
	assert.False(t, got.ScoredTargets[1].WithinMaxDistance)
	assert.NotNil(t, got.ScoredTargets[1].Places)
}

func TestCompose_EveryPreferenceAddsRemainderLiterally(t *testing.T) {
	prefs := UserPreferences{
		PlaceTargets:       []PlaceTarget{{Label: "preschool"}},
		MobilitySignals:    []string{MobilityWalk},
		EnvironmentalPrefs: []string{EnvSoundScore},
	}
	targets := []ProximityTarget{
		{Label: "preschool", DistanceMiles: ptr(1.0), Places: []PlaceResult{{Name: "Bright Start", DistanceMiles: 1}}},
	}

	got := Compose(CompositionInput{
		Listing:          springfieldListing(),
		Prefs:            prefs,
		Environment:      EnvironmentSignals{SoundScore: ptr(90)},
		Targets:          targets,
		TargetsRequested: true,
	})

	// 0.4·10 + 0.25·7.8 + 0.25·9 + 0.2·8 + 0.1·10 = 10.8, clamped to 100
	assert.Equal(t, 100, got.PersonalizedScore)
	assert.InDelta(t, 1.2, got.SubScores.WeightSum, 1e-9)
	assert.Len(t, got.SubScores.Weights, 5)
}

func TestCompose_RequestedTargetsButResolverSkipped(t *testing.T) {
	prefs := UserPreferences{PlaceTargets: []PlaceTarget{{Label: "preschool"}}}

	got := Compose(CompositionInput{
		Listing:          springfieldListing(),
		Prefs:            prefs,
		TargetsRequested: true,
	})

	require.NotNil(t, got.SubScores.Targets)
	assert.Equal(t, 3.0, *got.SubScores.Targets)
	// 0.4·3 + 0.2·8 + 0.1·10 = 3.8
	assert.Equal(t, 38, got.PersonalizedScore)
}

func TestCompose_MobilityOnly(t *testing.T) {
	prefs := UserPreferences{MobilitySignals: []string{MobilityWalk, MobilityTransit}}
	listing := springfieldListing()
	listing.Mobility.Transit = ptr(50.0)

	got := Compose(CompositionInput{Listing: listing, Prefs: prefs})

	require.NotNil(t, got.SubScores.MobilityPersonalized)
	assert.InDelta(t, 6.4, *got.SubScores.MobilityPersonalized, 1e-9)
	// 0.25·6.4 + 0.2·8 + 0.1·10 = 4.2
	assert.Equal(t, 42, got.PersonalizedScore)
}

func TestCompose_ScoresStayInRange(t *testing.T) {
	listing := ListingInput{
		Basics:   Basics{Beds: ptr(0), Baths: ptr(0.0), Sqft: ptr(10), YearBuilt: ptr(1700)},
		Schools:  []School{{Score: 0}},
		Mobility: Mobility{Walk: ptr(0.0), Bike: ptr(0.0), Transit: ptr(0.0)},
	}
	got := Compose(CompositionInput{
		Listing: listing,
		Prefs:   UserPreferences{EnvironmentalPrefs: []string{EnvAirQuality}},
		Environment: EnvironmentSignals{
			AirScore: ptr(30),
		},
	})

	assert.GreaterOrEqual(t, got.BasicScore, 0)
	assert.LessOrEqual(t, got.BasicScore, 100)
	assert.GreaterOrEqual(t, got.PersonalizedScore, 0)
	assert.LessOrEqual(t, got.PersonalizedScore, 100)
	// 0.4·4 + 0 + 0 + 0.5 = 2.1
	assert.Equal(t, 21, got.BasicScore)
}
