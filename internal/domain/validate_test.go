package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() AssessmentRequest {
	listing := springfieldListing()
	return AssessmentRequest{
		Listing: &listing,
		Prefs: &UserPreferences{
			PlaceTargets:       []PlaceTarget{{Label: "preschool", MaxDistanceMiles: 2}},
			MobilitySignals:    []string{MobilityWalk},
			EnvironmentalPrefs: []string{EnvAirQuality, EnvStargazeScore},
		},
	}
}

func fieldNames(err error) []string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidateRequest_Valid(t *testing.T) {
	require.NoError(t, ValidateRequest(validRequest()))
}

func TestValidateRequest_CoordinatesWithoutAddress(t *testing.T) {
	req := validRequest()
	req.Listing.Address = ""
	req.Listing.Coordinates = &Coordinates{Lat: 39.78, Lon: -89.65}
	require.NoError(t, ValidateRequest(req))
}

func TestValidateRequest_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AssessmentRequest)
		field  string
	}{
		{"missing listing", func(r *AssessmentRequest) { r.Listing = nil }, "AssessmentRequest.Listing"},
		{"missing prefs", func(r *AssessmentRequest) { r.Prefs = nil }, "AssessmentRequest.Prefs"},
		{"no address or coordinates", func(r *AssessmentRequest) { r.Listing.Address = "" }, "AssessmentRequest.Listing.Address"},
		{"school score above ten", func(r *AssessmentRequest) { r.Listing.Schools[0].Score = 11 }, "AssessmentRequest.Listing.Schools[0].Score"},
		{"unknown mobility signal", func(r *AssessmentRequest) { r.Prefs.MobilitySignals = []string{"scooter"} }, "AssessmentRequest.Prefs.MobilitySignals[0]"},
		{"unknown environment pref", func(r *AssessmentRequest) { r.Prefs.EnvironmentalPrefs = []string{"pollen"} }, "AssessmentRequest.Prefs.EnvironmentalPrefs[0]"},
		{"target without label", func(r *AssessmentRequest) { r.Prefs.PlaceTargets[0].Label = "" }, "AssessmentRequest.Prefs.PlaceTargets[0].Label"},
		{"walk score out of range", func(r *AssessmentRequest) { r.Listing.Mobility.Walk = ptr(140.0) }, "AssessmentRequest.Listing.Mobility.Walk"},
		{"latitude out of range", func(r *AssessmentRequest) { r.Listing.Coordinates = &Coordinates{Lat: 120} }, "AssessmentRequest.Listing.Coordinates.Lat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := ValidateRequest(req)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, fieldNames(err), tt.field)
			assert.Contains(t, err.Error(), "invalid request")
		})
	}
}
