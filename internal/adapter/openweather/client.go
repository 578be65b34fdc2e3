// Package openweather reads historical air pollution from OpenWeather.
package openweather

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

const defaultBaseURL = "https://api.openweathermap.org"

// Client implements domain.AirQualityProvider.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an OpenWeather client.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
	}
}

// Name identifies the provider in diagnostics.
func (c *Client) Name() string { return "openweather" }

// HourlyAQI returns the hourly AQI index (1 good, 5 very poor) between from and to.
func (c *Client) HourlyAQI(ctx context.Context, at domain.Coordinates, from, to time.Time) ([]int, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(at.Lat, 'f', 6, 64)},
		"lon":   {strconv.FormatFloat(at.Lon, 'f', 6, 64)},
		"start": {strconv.FormatInt(from.Unix(), 10)},
		"end":   {strconv.FormatInt(to.Unix(), 10)},
		"appid": {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/air_pollution/history?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			// Drop the URL, it carries the appid.
			return nil, fmt.Errorf("air pollution request: %w", uerr.Err)
		}
		return nil, fmt.Errorf("air pollution request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	var hr historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return nil, fmt.Errorf("decode air pollution response: %w", err)
	}

	samples := make([]int, 0, len(hr.List))
	for _, entry := range hr.List {
		if entry.Main.AQI < 1 || entry.Main.AQI > 5 {
			continue
		}
		samples = append(samples, entry.Main.AQI)
	}
	return samples, nil
}

type historyResponse struct {
	List []historyEntry `json:"list"`
}

type historyEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		AQI int `json:"aqi"`
	} `json:"main"`
}
