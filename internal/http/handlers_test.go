package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/localpulse/pulse-service/internal/models"
	"github.com/localpulse/pulse-service/internal/pulse"
)

type mockPulser struct {
	snapshot models.PulseSnapshot
	err      error

	lastPlace  string
	lastUserID string
	lastLat    float64
	lastLon    float64
	refreshed  []string
}

func (m *mockPulser) ForPlace(ctx context.Context, place string) (models.PulseSnapshot, error) {
	m.lastPlace = place
	return m.snapshot, m.err
}

func (m *mockPulser) ForCoordinates(ctx context.Context, lat, lon float64) (models.PulseSnapshot, error) {
	m.lastLat, m.lastLon = lat, lon
	return m.snapshot, m.err
}

func (m *mockPulser) ForUser(ctx context.Context, userID string) (models.PulseSnapshot, error) {
	m.lastUserID = userID
	return m.snapshot, m.err
}

func (m *mockPulser) Refresh(ctx context.Context, place string) (models.PulseSnapshot, error) {
	m.refreshed = append(m.refreshed, place)
	return m.snapshot, m.err
}

func (m *mockPulser) Health() map[string]pulse.SourceHealth {
	return map[string]pulse.SourceHealth{
		"weather":    {Configured: true, CacheSize: 3},
		"airQuality": {Configured: false, CacheSize: 0},
		"news":       {Configured: true, CacheSize: 1},
	}
}

func testSnapshot() models.PulseSnapshot {
	return models.PulseSnapshot{
		Location: models.LocationInfo{
			City:           "Ferozepur",
			State:          "Punjab",
			CountryCode:    models.CountryIN,
			CountryName:    "India",
			FormattedLabel: "Ferozepur, Punjab",
			Region:         models.RegionDomestic,
		},
		Weather:        models.WeatherSnapshot{TemperatureC: 22, Condition: models.ConditionClear},
		Highlights:     []models.LocalHighlight{{ID: "h1", Title: "Local update"}},
		GeneratedAtISO: "2026-08-30T09:00:00Z",
		NextRefreshISO: "2026-08-30T09:10:00Z",
	}
}

func newTestRouter(p Pulser, limiter *rate.Limiter) http.Handler {
	h := NewHandler(p, zap.NewNop())
	return NewRouter(h, zap.NewNop(), limiter, 10*time.Second)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func doRequest(t *testing.T, router http.Handler, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return rec, env
}

// TestGetPulseByPlace_Success verifies the success envelope wraps the
// snapshot.
func TestGetPulseByPlace_Success(t *testing.T) {
	p := &mockPulser{snapshot: testSnapshot()}
	router := newTestRouter(p, nil)

	rec, env := doRequest(t, router, http.MethodGet, "/pulse/place/Ferozepur")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !env.Success {
		t.Fatal("success = false, want true")
	}
	var data models.PulseSnapshot
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Location.FormattedLabel != "Ferozepur, Punjab" {
		t.Errorf("label = %q, want %q", data.Location.FormattedLabel, "Ferozepur, Punjab")
	}
	if p.lastPlace != "Ferozepur" {
		t.Errorf("orchestrator called with %q, want Ferozepur", p.lastPlace)
	}
}

// TestErrorKindMapping verifies each pulse sentinel maps to the right kind
// and HTTP status.
func TestErrorKindMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   string
		wantStatus int
	}{
		{"location required", pulse.ErrLocationRequired, "LOCATION_REQUIRED", http.StatusBadRequest},
		{"not found", pulse.ErrLocationNotFound, "LOCATION_NOT_FOUND", http.StatusNotFound},
		{"rate limited", pulse.ErrRateLimited, "RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests},
		{"unavailable", pulse.ErrUnavailable, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&mockPulser{err: tc.err}, nil)

			rec, env := doRequest(t, router, http.MethodGet, "/pulse/place/Somewhere")

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if env.Success {
				t.Error("success = true, want false")
			}
			if env.Error != tc.wantKind {
				t.Errorf("error = %q, want %q", env.Error, tc.wantKind)
			}
			if env.Message == "" {
				t.Error("message must not be empty")
			}
		})
	}
}

// TestGetPulseByCoordinates_Success verifies query parameter parsing.
func TestGetPulseByCoordinates_Success(t *testing.T) {
	p := &mockPulser{snapshot: testSnapshot()}
	router := newTestRouter(p, nil)

	rec, env := doRequest(t, router, http.MethodGet, "/pulse/coordinates?lat=30.93&lon=74.61")

	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d success = %v, want 200/true", rec.Code, env.Success)
	}
	if p.lastLat != 30.93 || p.lastLon != 74.61 {
		t.Errorf("coordinates = (%v, %v), want (30.93, 74.61)", p.lastLat, p.lastLon)
	}
}

// TestGetPulseByCoordinates_NonNumeric verifies malformed query parameters
// fail before the orchestrator is called.
func TestGetPulseByCoordinates_NonNumeric(t *testing.T) {
	p := &mockPulser{snapshot: testSnapshot()}
	router := newTestRouter(p, nil)

	rec, env := doRequest(t, router, http.MethodGet, "/pulse/coordinates?lat=abc&lon=74.61")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.Error != "INVALID_COORDINATES" {
		t.Errorf("error = %q, want INVALID_COORDINATES", env.Error)
	}
}

// TestGetPulseByCoordinates_OutOfRange verifies the orchestrator's range
// check surfaces as INVALID_COORDINATES.
func TestGetPulseByCoordinates_OutOfRange(t *testing.T) {
	router := newTestRouter(&mockPulser{err: pulse.ErrInvalidCoordinates}, nil)

	rec, env := doRequest(t, router, http.MethodGet, "/pulse/coordinates?lat=91&lon=74.61")

	if rec.Code != http.StatusBadRequest || env.Error != "INVALID_COORDINATES" {
		t.Errorf("status/error = %d/%q, want 400/INVALID_COORDINATES", rec.Code, env.Error)
	}
}

// TestGetPulseForUser routes the user ID through to the orchestrator.
func TestGetPulseForUser(t *testing.T) {
	p := &mockPulser{snapshot: testSnapshot()}
	router := newTestRouter(p, nil)

	rec, _ := doRequest(t, router, http.MethodGet, "/pulse/user/u42")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if p.lastUserID != "u42" {
		t.Errorf("userID = %q, want u42", p.lastUserID)
	}
}

// TestPostRefresh verifies the refresh route requires POST and reaches the
// orchestrator.
func TestPostRefresh(t *testing.T) {
	p := &mockPulser{snapshot: testSnapshot()}
	router := newTestRouter(p, nil)

	rec, env := doRequest(t, router, http.MethodPost, "/pulse/refresh/Delhi")

	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d success = %v, want 200/true", rec.Code, env.Success)
	}
	if len(p.refreshed) != 1 || p.refreshed[0] != "Delhi" {
		t.Errorf("refreshed = %v, want [Delhi]", p.refreshed)
	}

	req := httptest.NewRequest(http.MethodGet, "/pulse/refresh/Delhi", nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)
	if getRec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET on refresh = %d, want 405", getRec.Code)
	}
}

// TestGetHealth verifies per-source health reporting and the shutting-down
// transition.
func TestGetHealth(t *testing.T) {
	p := &mockPulser{snapshot: testSnapshot()}
	h := NewHandler(p, zap.NewNop())
	router := NewRouter(h, zap.NewNop(), nil, 10*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status  string                        `json:"status"`
		Sources map[string]pulse.SourceHealth `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("status = %q, want healthy", body.Status)
	}
	if len(body.Sources) != 3 {
		t.Errorf("sources = %d, want 3", len(body.Sources))
	}
	if !body.Sources["weather"].Configured {
		t.Error("weather source must report configured")
	}

	h.SetShuttingDown(true)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("shutting-down status = %d, want 503", rec.Code)
	}
}

// TestRateLimit verifies the limiter denies with the envelope kind once the
// bucket is empty, and that /health is exempt.
func TestRateLimit(t *testing.T) {
	p := &mockPulser{snapshot: testSnapshot()}
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	router := newTestRouter(p, limiter)

	rec, _ := doRequest(t, router, http.MethodGet, "/pulse/place/Delhi")
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec, env := doRequest(t, router, http.MethodGet, "/pulse/place/Delhi")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if env.Error != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("error = %q, want RATE_LIMIT_EXCEEDED", env.Error)
	}

	healthRec := httptest.NewRecorder()
	router.ServeHTTP(healthRec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if healthRec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 (exempt from rate limit)", healthRec.Code)
	}
}

// TestCorrelationID verifies the header is echoed back or generated.
func TestCorrelationID(t *testing.T) {
	router := newTestRouter(&mockPulser{snapshot: testSnapshot()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/pulse/place/Delhi", nil)
	req.Header.Set("X-Correlation-ID", "fixed-id")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Correlation-ID"); got != "fixed-id" {
		t.Errorf("correlation ID = %q, want fixed-id", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pulse/place/Delhi", nil))
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("correlation ID must be generated when absent")
	}
}

// TestMetricsEndpoint verifies the metrics route serves the private registry.
func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&mockPulser{snapshot: testSnapshot()}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics body is empty")
	}
}
