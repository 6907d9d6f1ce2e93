package kegtron

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// PortConfig is the user-editable configuration of one tap, as reported by
// the device-management API under the "config" map.
type PortConfig struct {
	Maker     string  `json:"maker"`
	Style     string  `json:"style"`
	UserName  string  `json:"userName"`
	UserDesc  string  `json:"userDesc"`
	DrinkSize float64 `json:"drinkSize"`
}

// PortUsage is the read-only volume counters of one tap, reported under the
// "config_readonly" map.
type PortUsage struct {
	VolStart float64 `json:"volStart"`
	VolDisp  float64 `json:"volDisp"`
}

// DeviceState is the reported shadow state for one physical device.
type DeviceState struct {
	Config         map[string]PortConfig `json:"config"`
	ConfigReadonly map[string]PortUsage  `json:"config_readonly"`
}

type deviceResponse struct {
	Shadow struct {
		State struct {
			Reported DeviceState `json:"reported"`
		} `json:"state"`
	} `json:"shadow"`
}

// Client fetches raw telemetry from the device-management API.
type Client struct {
	apiURL string
	client *http.Client
	logger zerolog.Logger
}

// NewClient creates a telemetry client for the given device-management endpoint.
func NewClient(apiURL string, logger zerolog.Logger) *Client {
	return &Client{
		apiURL: apiURL,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.With().Str("component", "kegtron.client").Logger(),
	}
}

// Fetch retrieves the reported state of the device identified by the given
// access token.
func (c *Client) Fetch(ctx context.Context, token string) (*DeviceState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	q := url.Values{}
	q.Set("access_token", token)
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var devResp deviceResponse
	if err := json.Unmarshal(body, &devResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device response: %w", err)
	}

	return &devResp.Shadow.State.Reported, nil
}
