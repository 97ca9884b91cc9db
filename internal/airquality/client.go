// Package airquality fetches AQI readings and bands them for display. The
// source is best-effort by contract: every failure mode, including a missing
// credential, resolves to "no data" and never fails the pulse.
package airquality

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

	"github.com/localpulse/pulse-service/internal/observability"
)

// Client fetches raw AQI readings from the air-quality provider.
type Client interface {
	ByCity(ctx context.Context, city string) (Reading, error)
	ByGeo(ctx context.Context, lat, lon float64) (Reading, error)
}

var errProvider = errors.New("air-quality provider failure")

// Reading is one raw provider measurement.
type Reading struct {
	AQI               int
	DominantPollutant string
	MeasuredISO       string
}

// HTTPClient talks to a WAQI-style feed API: /feed/<city>/?token=... and
// /feed/geo:<lat>;<lon>/?token=....
type HTTPClient struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates an air-quality client. Unlike weather, an empty token
// is not a construction error; callers check it and skip construction to get
// a permanently degraded source.
func NewHTTPClient(token, baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		token:   token,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type feedResponse struct {
	Status string `json:"status"`
	Data   struct {
		AQI         json.Number `json:"aqi"`
		Dominentpol string      `json:"dominentpol"`
		Time        struct {
			ISO string `json:"iso"`
		} `json:"time"`
	} `json:"data"`
}

// ByCity fetches the reading for a city-name feed path.
func (c *HTTPClient) ByCity(ctx context.Context, city string) (Reading, error) {
	return c.fetch(ctx, url.PathEscape(city))
}

// ByGeo fetches the reading for a geo feed path.
func (c *HTTPClient) ByGeo(ctx context.Context, lat, lon float64) (Reading, error) {
	segment := "geo:" + strconv.FormatFloat(lat, 'f', 4, 64) + ";" + strconv.FormatFloat(lon, 'f', 4, 64)
	return c.fetch(ctx, segment)
}

func (c *HTTPClient) fetch(ctx context.Context, segment string) (Reading, error) {
	start := time.Now()

	endpoint := fmt.Sprintf("%s/feed/%s/?token=%s", c.baseURL, segment, url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: build request: %v", errProvider, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		observability.SourceCallsTotal.WithLabelValues("air_quality", "error").Inc()
		return Reading{}, fmt.Errorf("%w: %v", errProvider, err)
	}
	defer resp.Body.Close()

	observability.SourceCallDuration.WithLabelValues("air_quality").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		observability.SourceCallsTotal.WithLabelValues("air_quality", "error").Inc()
		return Reading{}, fmt.Errorf("%w: HTTP %d", errProvider, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.SourceCallsTotal.WithLabelValues("air_quality", "error").Inc()
		return Reading{}, fmt.Errorf("%w: read body: %v", errProvider, err)
	}

	var parsed feedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		observability.SourceCallsTotal.WithLabelValues("air_quality", "error").Inc()
		return Reading{}, fmt.Errorf("%w: parse response: %v", errProvider, err)
	}
	if parsed.Status != "ok" {
		observability.SourceCallsTotal.WithLabelValues("air_quality", "error").Inc()
		return Reading{}, fmt.Errorf("%w: status %q", errProvider, parsed.Status)
	}

	// The feed reports "-" when a station has no current index.
	aqi, err := parsed.Data.AQI.Int64()
	if err != nil {
		observability.SourceCallsTotal.WithLabelValues("air_quality", "error").Inc()
		return Reading{}, fmt.Errorf("%w: non-numeric aqi %q", errProvider, parsed.Data.AQI.String())
	}

	observability.SourceCallsTotal.WithLabelValues("air_quality", "success").Inc()
	return Reading{
		AQI:               int(aqi),
		DominantPollutant: parsed.Data.Dominentpol,
		MeasuredISO:       parsed.Data.Time.ISO,
	}, nil
}
