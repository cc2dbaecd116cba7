package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

// Client implements domain.WeatherSignal against an OpenWeatherMap-compatible
// current-conditions API.
type Client struct {
	apiKey     string
	lat, lon   float64
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a weather API client for the given coordinates.
func NewClient(baseURL, apiKey string, lat, lon float64, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		lat:    lat,
		lon:    lon,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Current fetches the wind speed at the configured coordinates.
func (c *Client) Current(ctx context.Context) (domain.WindReading, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(c.lat, 'f', 4, 64)},
		"lon":   {strconv.FormatFloat(c.lon, 'f', 4, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WindReading{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WindReading{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.WindReading{}, fmt.Errorf("weather API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.WindReading{}, fmt.Errorf("decode response: %w", err)
	}
	if r.Wind.Speed == nil {
		return domain.WindReading{}, fmt.Errorf("weather API response has no wind speed")
	}
	speed := *r.Wind.Speed
	if speed < 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return domain.WindReading{}, fmt.Errorf("weather API returned invalid wind speed %v", speed)
	}

	c.logger.Debug("wind reading fetched", "speed_mps", speed)
	return domain.WindReading{SpeedMetersPerSecond: speed}, nil
}

// Weather API response types.

type response struct {
	Wind wind `json:"wind"`
}

type wind struct {
	Speed *float64 `json:"speed"` // m/s with units=metric
}
