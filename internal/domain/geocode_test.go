package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullAddress = "123 Main St, Springfield, IL 62704"

func TestAddressVariants(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    []string
	}{
		{
			name:    "full address",
			address: fullAddress,
			want:    []string{fullAddress, "123 Main St, Springfield, IL", "Springfield, IL"},
		},
		{
			name:    "zip plus four and country",
			address: "9 Elm Rd, Austin, TX 78701-1234, USA",
			want:    []string{"9 Elm Rd, Austin, TX 78701-1234, USA", "9 Elm Rd, Austin, TX", "Austin, TX"},
		},
		{
			name:    "no postal code",
			address: "123 Main St, Springfield, IL",
			want:    []string{"123 Main St, Springfield, IL", "Springfield, IL"},
		},
		{
			name:    "already city and state",
			address: "Springfield, IL",
			want:    []string{"Springfield, IL"},
		},
		{
			name:    "blank",
			address: "   ",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddressVariants(tt.address))
		})
	}
}

func TestLayeredGeocoder_PrimaryFirstVariant(t *testing.T) {
	primary := &mockGeocoder{name: "mapbox", results: map[string]GeocodingResult{
		fullAddress: {Lat: 39.78, Lon: -89.65},
	}}
	secondary := &mockGeocoder{name: "google"}

	g := NewLayeredGeocoder(primary, secondary, time.Second, discardLogger())
	coords, diag, err := g.Locate(context.Background(), fullAddress)

	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 39.78, Lon: -89.65}, coords)
	assert.Equal(t, GeoSourcePrimary, diag.Source)
	assert.Equal(t, []string{fullAddress}, primary.queries)
	assert.Empty(t, secondary.queries)
}

func TestLayeredGeocoder_CityStateVariant(t *testing.T) {
	primary := &mockGeocoder{name: "mapbox", results: map[string]GeocodingResult{
		"Springfield, IL": {Lat: 39.8, Lon: -89.6},
	}}

	g := NewLayeredGeocoder(primary, nil, time.Second, discardLogger())
	coords, diag, err := g.Locate(context.Background(), fullAddress)

	require.NoError(t, err)
	assert.Equal(t, 39.8, coords.Lat)
	assert.Equal(t, GeoSourcePrimary, diag.Source)
	require.Len(t, diag.Attempts, 3)
	assert.False(t, diag.Attempts[0].OK)
	assert.False(t, diag.Attempts[1].OK)
	assert.True(t, diag.Attempts[2].OK)
	assert.Equal(t, "Springfield, IL", diag.Attempts[2].Query)
}

func TestLayeredGeocoder_SecondaryWithOriginalAddress(t *testing.T) {
	primary := &mockGeocoder{name: "mapbox", err: errors.New("status 500")}
	secondary := &mockGeocoder{name: "google", results: map[string]GeocodingResult{
		fullAddress: {Lat: 39.7817, Lon: -89.6501},
	}}

	g := NewLayeredGeocoder(primary, secondary, time.Second, discardLogger())
	coords, diag, err := g.Locate(context.Background(), fullAddress)

	require.NoError(t, err)
	assert.Equal(t, 39.7817, coords.Lat)
	assert.Equal(t, GeoSourceSecondary, diag.Source)
	assert.Len(t, primary.queries, 3)
	assert.Equal(t, []string{fullAddress}, secondary.queries)
	assert.Len(t, diag.Attempts, 4)
}

func TestLayeredGeocoder_Exhausted(t *testing.T) {
	primary := &mockGeocoder{name: "mapbox", results: map[string]GeocodingResult{}}
	secondary := &mockGeocoder{name: "google", err: errors.New("ZERO_RESULTS")}

	g := NewLayeredGeocoder(primary, secondary, time.Second, discardLogger())
	_, diag, err := g.Locate(context.Background(), fullAddress)

	require.ErrorIs(t, err, ErrGeocodingExhausted)
	assert.Equal(t, GeoSourceFailed, diag.Source)
	for _, a := range diag.Attempts {
		assert.False(t, a.OK)
		assert.NotEmpty(t, a.Error)
	}
}

func TestLayeredGeocoder_NoPrimaryConfigured(t *testing.T) {
	secondary := &mockGeocoder{name: "google", results: map[string]GeocodingResult{
		fullAddress: {Lat: 1, Lon: 2},
	}}

	g := NewLayeredGeocoder(nil, secondary, time.Second, discardLogger())
	coords, diag, err := g.Locate(context.Background(), fullAddress)

	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 1, Lon: 2}, coords)
	require.Len(t, diag.Attempts, 2)
	assert.Equal(t, ErrProviderNotConfigured.Error(), diag.Attempts[0].Error)
}

func TestLayeredGeocoder_CancelledContext(t *testing.T) {
	primary := &mockGeocoder{name: "mapbox"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewLayeredGeocoder(primary, nil, time.Second, discardLogger())
	_, _, err := g.Locate(ctx, fullAddress)

	require.ErrorIs(t, err, ErrGeocodingExhausted)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, primary.queries)
}
