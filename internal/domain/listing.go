package domain

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Basics holds the structural facts of a listing. Every field is optional.
type Basics struct {
	Beds      *int     `json:"beds,omitempty" validate:"omitempty,gte=0"`
	Baths     *float64 `json:"baths,omitempty" validate:"omitempty,gte=0"`
	Sqft      *int     `json:"sqft,omitempty" validate:"omitempty,gte=0"`
	YearBuilt *int     `json:"yearBuilt,omitempty" validate:"omitempty,gte=1600,lte=2200"`
}

// School is one rated school near the listing.
type School struct {
	Label string  `json:"label"`
	Score float64 `json:"score" validate:"gte=0,lte=10"`
}

// Mobility holds walk, bike and transit indices on a 0–100 scale.
type Mobility struct {
	Walk    *float64 `json:"walk,omitempty" validate:"omitempty,gte=0,lte=100"`
	Bike    *float64 `json:"bike,omitempty" validate:"omitempty,gte=0,lte=100"`
	Transit *float64 `json:"transit,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Value returns the index for a mobility signal name.
func (m Mobility) Value(signal string) *float64 {
	switch signal {
	case MobilityWalk:
		return m.Walk
	case MobilityBike:
		return m.Bike
	case MobilityTransit:
		return m.Transit
	}
	return nil
}

// EnvironmentSignals carries the live environmental readings. Each pair is
// independently nil when its provider failed or was never called.
type EnvironmentSignals struct {
	SoundScore    *int   `json:"soundScore"`
	SoundLabel    string `json:"soundLabel,omitempty"`
	AirScore      *int   `json:"airScore"`
	AirLabel      string `json:"airLabel,omitempty"`
	StargazeScore *int   `json:"stargazeScore"`
	StargazeLabel string `json:"stargazeLabel,omitempty"`
}

// Score returns the score for an environmental preference name.
func (e EnvironmentSignals) Score(pref string) *int {
	switch pref {
	case EnvAirQuality:
		return e.AirScore
	case EnvSoundScore:
		return e.SoundScore
	case EnvStargazeScore:
		return e.StargazeScore
	}
	return nil
}

// PlaceResult is a single resolved point of interest.
type PlaceResult struct {
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	DistanceMiles float64 `json:"distanceMiles"`
	ExternalLink  string  `json:"externalLink,omitempty"`
	ProviderID    string  `json:"providerId,omitempty"`
}

// ProximityTarget is a place category the user wants to be near. Places is
// sorted by ascending distance and holds at most MaxPlacesPerTarget entries.
type ProximityTarget struct {
	Label            string        `json:"label" validate:"required"`
	MaxDistanceMiles float64       `json:"maxDistanceMiles" validate:"gte=0"`
	DistanceMiles    *float64      `json:"distanceMiles"`
	Places           []PlaceResult `json:"places"`
}

// Found reports whether at least one candidate was resolved.
func (t ProximityTarget) Found() bool {
	return len(t.Places) > 0
}

// ListingInput is the listing payload submitted for assessment.
type ListingInput struct {
	Address     string             `json:"address" validate:"required_without=Coordinates"`
	Coordinates *Coordinates       `json:"coordinates,omitempty"`
	Basics      Basics             `json:"basics"`
	Schools     []School           `json:"schools" validate:"dive"`
	Mobility    Mobility           `json:"mobility"`
	Environment EnvironmentSignals `json:"environment"`
	Targets     []ProximityTarget  `json:"targets,omitempty" validate:"dive"`
}

// Mobility signal names.
const (
	MobilityWalk    = "walk"
	MobilityBike    = "bike"
	MobilityTransit = "transit"
)

// Environmental preference names.
const (
	EnvAirQuality    = "airQuality"
	EnvSoundScore    = "soundScore"
	EnvStargazeScore = "stargazeScore"
)

// PlaceTarget is a category the user asked to be near.
type PlaceTarget struct {
	Label            string  `json:"label" validate:"required"`
	MaxDistanceMiles float64 `json:"maxDistanceMiles" validate:"gte=0"`
}

// UserPreferences is the preference payload submitted alongside a listing.
type UserPreferences struct {
	PlaceTargets       []PlaceTarget `json:"placeTargets" validate:"dive"`
	MobilitySignals    []string      `json:"mobilitySignals" validate:"dive,oneof=walk bike transit"`
	EnvironmentalPrefs []string      `json:"environmentalPrefs" validate:"dive,oneof=airQuality soundScore stargazeScore"`
	Notes              string        `json:"notes,omitempty" validate:"max=2000"`
}

// HasPreferences reports whether any preference would change the score.
func (p UserPreferences) HasPreferences() bool {
	return len(p.PlaceTargets) > 0 || len(p.MobilitySignals) > 0 || len(p.EnvironmentalPrefs) > 0
}

// AssessmentRequest pairs a listing with the preferences to score it against.
type AssessmentRequest struct {
	Listing *ListingInput    `json:"listing" validate:"required"`
	Prefs   *UserPreferences `json:"prefs" validate:"required"`
}

// ScoredTarget is a resolved target with its distance-curve score.
type ScoredTarget struct {
	ProximityTarget
	Score             float64 `json:"score"`
	WithinMaxDistance bool    `json:"withinMaxDistance"`
}

// ScoreResult is the assessment returned to the caller.
type ScoreResult struct {
	BasicScore        int                `json:"basicScore"`
	PersonalizedScore int                `json:"personalizedScore"`
	IsPersonalized    bool               `json:"isPersonalized"`
	Recap             string             `json:"recap"`
	ScoredTargets     []ScoredTarget     `json:"scoredTargets"`
	Environment       EnvironmentSignals `json:"environment"`
	Coordinates       *Coordinates       `json:"coordinates"`
	Diagnostics       Diagnostics        `json:"diagnostics"`
}
