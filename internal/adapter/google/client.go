// Package google adapts the Google Maps Geocoding and Places Text Search
// APIs to the domain provider interfaces.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/homefit-engine/internal/domain"
)

const (
	defaultBaseURL = "https://maps.googleapis.com"
	placeLinkBase  = "https://www.google.com/maps/place/?q=place_id:"

	// searchRadiusMeters biases text search results toward the listing.
	searchRadiusMeters = 40000
)

// Client implements domain.GeocodingProvider and domain.PlaceSearcher.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Google Maps client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		logger:     logger,
	}
}

// Name identifies the provider in diagnostics.
func (c *Client) Name() string { return "google" }

// ForwardGeocode converts a free-form address to coordinates. ZERO_RESULTS
// yields an empty result and no error.
func (c *Client) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	params := url.Values{
		"address": {query},
		"key":     {c.apiKey},
	}

	var resp geocodeResponse
	if err := c.get(ctx, "/maps/api/geocode/json", params, "geocode", &resp); err != nil {
		return domain.GeocodingResult{}, err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domain.GeocodingResult{}, nil
	default:
		return domain.GeocodingResult{}, statusError("geocode", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return domain.GeocodingResult{}, nil
	}

	r := resp.Results[0]
	return domain.GeocodingResult{
		Lat:              r.Geometry.Location.Lat,
		Lon:              r.Geometry.Location.Lng,
		FormattedAddress: r.FormattedAddress,
		PlaceName:        r.FormattedAddress,
		Confidence:       locationConfidence(r.Geometry.LocationType),
	}, nil
}

// SearchPlaces runs a text search biased toward near and returns at most
// limit candidates in provider order.
func (c *Client) SearchPlaces(ctx context.Context, query string, near domain.Coordinates, limit int) ([]domain.PlaceCandidate, error) {
	params := url.Values{
		"query":    {query},
		"location": {fmt.Sprintf("%f,%f", near.Lat, near.Lon)},
		"radius":   {fmt.Sprint(searchRadiusMeters)},
		"key":      {c.apiKey},
	}

	var resp placesResponse
	if err := c.get(ctx, "/maps/api/place/textsearch/json", params, "textsearch", &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, statusError("textsearch", resp.Status, resp.ErrorMessage)
	}

	out := make([]domain.PlaceCandidate, 0, min(limit, len(resp.Results)))
	for _, p := range resp.Results {
		if len(out) == limit {
			break
		}
		out = append(out, domain.PlaceCandidate{
			Name:         p.Name,
			Address:      p.FormattedAddress,
			Location:     domain.Coordinates{Lat: p.Geometry.Location.Lat, Lon: p.Geometry.Location.Lng},
			ProviderID:   p.PlaceID,
			ExternalLink: placeLink(p.PlaceID),
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, operation string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			// Drop the URL, it carries the key.
			return fmt.Errorf("%s request: %w", operation, uerr.Err)
		}
		return fmt.Errorf("%s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("google non-200 response", "operation", operation, "status", resp.StatusCode)
		return fmt.Errorf("google API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func statusError(operation, status, message string) error {
	if message == "" {
		return fmt.Errorf("google %s: status %s", operation, status)
	}
	return fmt.Errorf("google %s: status %s: %s", operation, status, message)
}

func placeLink(placeID string) string {
	if placeID == "" {
		return ""
	}
	return placeLinkBase + url.QueryEscape(placeID)
}

// locationConfidence maps Google's location_type precision to 0–1.
func locationConfidence(locationType string) float64 {
	switch locationType {
	case "ROOFTOP":
		return 1
	case "RANGE_INTERPOLATED":
		return 0.8
	case "GEOMETRIC_CENTER":
		return 0.6
	default:
		return 0.4
	}
}

// Google API response types.

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geometry struct {
	Location     latLng `json:"location"`
	LocationType string `json:"location_type"`
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         geometry `json:"geometry"`
}

type placesResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []placeResult `json:"results"`
}

type placeResult struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	PlaceID          string   `json:"place_id"`
	Geometry         geometry `json:"geometry"`
}
