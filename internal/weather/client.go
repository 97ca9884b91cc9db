// Package weather fetches current conditions from the weather provider and
// derives the display snapshot, including the mood line. Weather is the one
// mandatory source: its failures propagate and fail the whole pulse.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/localpulse/pulse-service/internal/circuitbreaker"
	"github.com/localpulse/pulse-service/internal/observability"
)

// Client fetches raw observations from the weather provider.
type Client interface {
	CurrentByPlace(ctx context.Context, place string) (Observation, error)
	CurrentByCoords(ctx context.Context, lat, lon float64) (Observation, error)
}

var (
	ErrMissingAPIKey = errors.New("weather API key missing")
	ErrPlaceNotFound = errors.New("place not found")
	ErrRateLimited   = errors.New("rate limited")
	ErrUpstream      = errors.New("weather unavailable")
)

// Observation is the provider response normalized to the fields the source
// needs, still in upstream units (celsius already via units=metric, wind in
// m/s, visibility in meters, sunrise/sunset as Unix seconds).
type Observation struct {
	Code         int
	TempC        float64
	FeelsLikeC   float64
	HumidityPct  int
	PressureHPa  int
	WindSpeedMS  float64
	WindDeg      int
	VisibilityM  int
	SunriseUnix  int64
	SunsetUnix   int64
	TZOffsetSec  int
	ObservedUnix int64
	Name         string
}

// HTTPClient talks to an OpenWeather-style current-conditions endpoint.
type HTTPClient struct {
	apiKey         string
	apiURL         string
	timeout        time.Duration
	client         *http.Client
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	breaker        *circuitbreaker.CircuitBreaker
}

// NewHTTPClient creates a weather client. The API key is mandatory; a missing
// or implausibly short key is a construction error because every weather call
// would be fatal anyway.
func NewHTTPClient(apiKey, apiURL string, timeout time.Duration) (*HTTPClient, error) {
	return NewHTTPClientWithRetry(apiKey, apiURL, timeout, 3, 100*time.Millisecond, 2*time.Second)
}

func NewHTTPClientWithRetry(apiKey, apiURL string, timeout time.Duration, retryAttempts int, retryBaseDelay, retryMaxDelay time.Duration) (*HTTPClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrMissingAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrMissingAPIKey)
	}

	return &HTTPClient{
		apiKey:         apiKey,
		apiURL:         apiURL,
		timeout:        timeout,
		retryAttempts:  retryAttempts,
		retryBaseDelay: retryBaseDelay,
		retryMaxDelay:  retryMaxDelay,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type providerResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Visibility int `json:"visibility"`
	Sys        struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	Dt       int64  `json:"dt"`
	Name     string `json:"name"`
}

// SetCircuitBreaker guards every fetch with cb. Only upstream-health
// failures trip the breaker; not-found and rate-limit responses pass through
// uncounted.
func (c *HTTPClient) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	c.breaker = cb
}

// CurrentByPlace fetches current conditions by place name.
func (c *HTTPClient) CurrentByPlace(ctx context.Context, place string) (Observation, error) {
	params := url.Values{}
	params.Set("q", place)
	return c.guardedFetch(ctx, params)
}

// CurrentByCoords fetches current conditions by coordinates.
func (c *HTTPClient) CurrentByCoords(ctx context.Context, lat, lon float64) (Observation, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	return c.guardedFetch(ctx, params)
}

func (c *HTTPClient) guardedFetch(ctx context.Context, params url.Values) (Observation, error) {
	if c.breaker == nil {
		return c.fetch(ctx, params)
	}
	var obs Observation
	err := c.breaker.Call(ctx, func() error {
		var ferr error
		obs, ferr = c.fetch(ctx, params)
		return ferr
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return Observation{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return obs, err
}

// fetch retries transient failures with exponential backoff. 404 and 429 are
// never retried: the caller needs the distinct error immediately.
func (c *HTTPClient) fetch(ctx context.Context, params url.Values) (Observation, error) {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return Observation{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.callAPI(ctx, params)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return Observation{}, err
		}
	}

	return Observation{}, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *HTTPClient) callAPI(ctx context.Context, params url.Values) (Observation, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, params)
	if err != nil {
		observability.SourceCallsTotal.WithLabelValues("weather", "error").Inc()
		return Observation{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.SourceCallsTotal.WithLabelValues("weather", "error").Inc()
		observability.SourceCallDuration.WithLabelValues("weather").Observe(time.Since(start).Seconds())

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Observation{}, fmt.Errorf("%w: request timeout: %v", ErrUpstream, err)
		}
		return Observation{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	observability.SourceCallsTotal.WithLabelValues("weather", statusLabel(resp.StatusCode)).Inc()
	observability.SourceCallDuration.WithLabelValues("weather").Observe(time.Since(start).Seconds())

	if err := handleErrorResponse(resp); err != nil {
		return Observation{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: read response body: %v", ErrUpstream, err)
	}

	var apiResp providerResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Observation{}, fmt.Errorf("%w: parse response: %v", ErrUpstream, err)
	}

	return mapResponse(apiResp), nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPlaceNotFound) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrMissingAPIKey) {
		return false
	}
	return errors.Is(err, ErrUpstream)
}

func (c *HTTPClient) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.retryMaxDelay) {
		delay = float64(c.retryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func (c *HTTPClient) buildRequest(ctx context.Context, params url.Values) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: key rejected by provider", ErrMissingAPIKey)
	case http.StatusNotFound:
		return ErrPlaceNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}

	return nil
}

func mapResponse(apiResp providerResponse) Observation {
	obs := Observation{
		TempC:        apiResp.Main.Temp,
		FeelsLikeC:   apiResp.Main.FeelsLike,
		HumidityPct:  apiResp.Main.Humidity,
		PressureHPa:  apiResp.Main.Pressure,
		WindSpeedMS:  apiResp.Wind.Speed,
		WindDeg:      apiResp.Wind.Deg,
		VisibilityM:  apiResp.Visibility,
		SunriseUnix:  apiResp.Sys.Sunrise,
		SunsetUnix:   apiResp.Sys.Sunset,
		TZOffsetSec:  apiResp.Timezone,
		ObservedUnix: apiResp.Dt,
		Name:         apiResp.Name,
	}
	if len(apiResp.Weather) > 0 {
		obs.Code = apiResp.Weather[0].ID
	}
	return obs
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
