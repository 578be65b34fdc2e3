package domain

// Pipeline stages recorded in Diagnostics.Stages.
const (
	StageReceived       = "received"
	StageGeocoded       = "geocoded"
	StageGeocodeSkipped = "geocode_skipped"
	StageGeocodeFailed  = "geocode_failed"
	StageSignalsFetched = "signals_fetched"
	StageTargetsResolve = "targets_resolved"
	StageComposed       = "composed"
	StageRecapGenerated = "recap_generated"
	StageReturned       = "returned"
)

// Geocode sources.
const (
	GeoSourceInput     = "input"
	GeoSourcePrimary   = "primary"
	GeoSourceSecondary = "secondary"
	GeoSourceFailed    = "failed"
)

// Recap sources.
const (
	RecapSourceGenerated = "generated"
	RecapSourceTemplate  = "template"
)

// Diagnostics records how an assessment was produced. It never carries
// credentials.
type Diagnostics struct {
	RequestID  string             `json:"requestId"`
	Stages     []string           `json:"stages"`
	Geocode    GeocodeDiagnostics `json:"geocode"`
	Providers  []ProviderOutcome  `json:"providers"`
	SubScores  SubScores          `json:"subScores"`
	Recap      RecapDiagnostics   `json:"recap"`
	DurationMs int64              `json:"durationMs"`
}

// GeocodeDiagnostics lists every geocoding attempt in the order it was made.
type GeocodeDiagnostics struct {
	Source   string           `json:"source"`
	Attempts []GeocodeAttempt `json:"attempts,omitempty"`
}

// GeocodeAttempt is one bounded call to a geocoding provider.
type GeocodeAttempt struct {
	Provider string `json:"provider"`
	Query    string `json:"query"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// ProviderOutcome is the result of one external call made while assessing.
type ProviderOutcome struct {
	Provider   string `json:"provider"`
	Operation  string `json:"operation"`
	Target     string `json:"target,omitempty"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// SubScores exposes every intermediate value on the internal 0–10 scale.
type SubScores struct {
	Basics                  float64            `json:"basics"`
	Schools                 float64            `json:"schools"`
	MobilityGeneric         float64            `json:"mobilityGeneric"`
	EnvironmentNeutral      float64            `json:"environmentNeutral"`
	MobilityPersonalized    *float64           `json:"mobilityPersonalized,omitempty"`
	EnvironmentPersonalized *float64           `json:"environmentPersonalized,omitempty"`
	Targets                 *float64           `json:"targets,omitempty"`
	Coverage                *float64           `json:"coverage,omitempty"`
	Weights                 map[string]float64 `json:"weights,omitempty"`
	WeightSum               float64            `json:"weightSum,omitempty"`
}

// RecapDiagnostics records which recap path produced the text.
type RecapDiagnostics struct {
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
}
