// Package lightpollution reads the Bortle dark-sky class for a coordinate,
// either from the JSON API or by extracting it from the rendered map page.
package lightpollution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/homefit-engine/internal/domain"
)

// Reading sources reported in diagnostics.
const (
	SourceAPI    = "api"
	SourceScrape = "scrape"
)

// ErrBlocked is returned when the API refuses the request outright.
var ErrBlocked = errors.New("light pollution api blocked")

// APIClient implements domain.NightSkyProvider against the JSON API.
type APIClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewAPIClient creates an API client rooted at baseURL.
func NewAPIClient(apiKey, baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// Name identifies the provider in diagnostics.
func (c *APIClient) Name() string { return "lightpollution-api" }

// Bortle returns the Bortle class at a point.
func (c *APIClient) Bortle(ctx context.Context, at domain.Coordinates) (domain.BortleReading, error) {
	params := url.Values{
		"lat": {strconv.FormatFloat(at.Lat, 'f', 6, 64)},
		"lon": {strconv.FormatFloat(at.Lon, 'f', 6, 64)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/bortle?"+params.Encode(), nil)
	if err != nil {
		return domain.BortleReading{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.BortleReading{}, fmt.Errorf("bortle request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return domain.BortleReading{}, fmt.Errorf("%w: status %d", ErrBlocked, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.BortleReading{}, fmt.Errorf("light pollution API error: status %d: %s", resp.StatusCode, body)
	}

	var br bortleResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return domain.BortleReading{}, fmt.Errorf("decode bortle response: %w", err)
	}
	if br.Bortle == nil {
		return domain.BortleReading{}, errors.New("bortle response has no value")
	}
	return domain.BortleReading{Value: *br.Bortle, Source: SourceAPI}, nil
}

type bortleResponse struct {
	Bortle *float64 `json:"bortle"`
}
