package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/homefit-engine/internal/domain"
)

const defaultBaseURL = "https://api.mapbox.com"

// Client implements domain.GeocodingProvider, domain.DistanceMatrix and
// domain.RouteProvider using the Mapbox Geocoding, Matrix and Directions APIs.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Mapbox client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		logger:  logger,
	}
}

// Name identifies the provider in diagnostics.
func (c *Client) Name() string { return "mapbox" }

// ForwardGeocode converts a free-form address to coordinates.
func (c *Client) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	u := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"address,postcode,place,locality,neighborhood"},
	}

	var resp geocodeResponse
	if err := c.doRequest(ctx, u+"?"+params.Encode(), "geocode", &resp); err != nil {
		return domain.GeocodingResult{}, err
	}

	if len(resp.Features) == 0 {
		return domain.GeocodingResult{}, nil
	}

	f := resp.Features[0]
	result := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		result.Lon = f.Center[0]
		result.Lat = f.Center[1]
	}
	return result, nil
}

// Distances returns driving distances in meters from points[0] to every
// point, using a single Matrix API call.
func (c *Client) Distances(ctx context.Context, points []domain.Coordinates) ([]*float64, error) {
	if len(points) < 2 {
		return nil, errors.New("matrix needs an origin and at least one destination")
	}

	u := fmt.Sprintf("%s/directions-matrix/v1/mapbox/driving/%s", c.baseURL, coordinatePath(points))
	params := url.Values{
		"access_token": {c.token},
		"sources":      {"0"},
		"annotations":  {"distance"},
	}

	var resp matrixResponse
	if err := c.doRequest(ctx, u+"?"+params.Encode(), "matrix", &resp); err != nil {
		return nil, err
	}
	if resp.Code != "Ok" {
		return nil, fmt.Errorf("mapbox matrix: code %s: %s", resp.Code, resp.Message)
	}
	if len(resp.Distances) == 0 {
		return nil, errors.New("mapbox matrix: no distance rows")
	}
	return resp.Distances[0], nil
}

// RouteDistance returns the driving distance in meters of the fastest route.
func (c *Client) RouteDistance(ctx context.Context, from, to domain.Coordinates) (float64, error) {
	u := fmt.Sprintf("%s/directions/v5/mapbox/driving/%s", c.baseURL, coordinatePath([]domain.Coordinates{from, to}))
	params := url.Values{
		"access_token": {c.token},
		"overview":     {"false"},
		"alternatives": {"false"},
	}

	var resp directionsResponse
	if err := c.doRequest(ctx, u+"?"+params.Encode(), "directions", &resp); err != nil {
		return 0, err
	}
	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		return 0, fmt.Errorf("mapbox directions: code %s: %s", resp.Code, resp.Message)
	}
	return resp.Routes[0].Distance, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL, operation string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", operation, redact(err, c.token))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("mapbox non-200 response", "operation", operation, "status", resp.StatusCode)
		return fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// coordinatePath renders points as "lon,lat;lon,lat".
func coordinatePath(points []domain.Coordinates) string {
	parts := make([]string, len(points))
	for i, p := range points {
		// Mapbox uses lon,lat order.
		parts[i] = fmt.Sprintf("%.6f,%.6f", p.Lon, p.Lat)
	}
	return strings.Join(parts, ";")
}

// redact keeps the access token out of transport errors, which embed the URL.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// Mapbox API response types.

type geocodeResponse struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}

type matrixResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Distances [][]*float64 `json:"distances"`
}

type directionsResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Routes  []route `json:"routes"`
}

type route struct {
	Distance float64 `json:"distance"` // meters
}
