// Package howloud reads the HowLoud soundscore for a coordinate.
package howloud

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

const defaultBaseURL = "https://api.howloud.com"

// Client implements domain.SoundProvider.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a HowLoud client.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
	}
}

// Name identifies the provider in diagnostics.
func (c *Client) Name() string { return "howloud" }

// SoundScore returns the 0–100 soundscore at a point.
func (c *Client) SoundScore(ctx context.Context, at domain.Coordinates) (float64, error) {
	params := url.Values{
		"lat": {strconv.FormatFloat(at.Lat, 'f', 6, 64)},
		"lng": {strconv.FormatFloat(at.Lon, 'f', 6, 64)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/score?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("score request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("howloud API error: status %d: %s", resp.StatusCode, body)
	}

	var sr scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return 0, fmt.Errorf("decode score response: %w", err)
	}
	if sr.Status != "" && sr.Status != "OK" {
		return 0, fmt.Errorf("howloud status %s", sr.Status)
	}
	if len(sr.Result) == 0 || sr.Result[0].Score == nil {
		return 0, errors.New("howloud response has no score")
	}
	return *sr.Result[0].Score, nil
}

type scoreResponse struct {
	Status string        `json:"status"`
	Result []scoreResult `json:"result"`
}

type scoreResult struct {
	Score *float64 `json:"score"`
}
