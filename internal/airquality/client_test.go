package airquality

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestHTTPClient_ByCity_Success verifies feed path construction and response
// parsing against a stub provider.
func TestHTTPClient_ByCity_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/feed/delhi/") {
			t.Errorf("path = %q, want /feed/delhi/", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "demo-token" {
			t.Errorf("token = %q, want demo-token", r.URL.Query().Get("token"))
		}
		_, _ = w.Write([]byte(`{"status":"ok","data":{"aqi":168,"dominentpol":"pm25","time":{"iso":"2026-08-30T14:00:00+05:30"}}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("demo-token", srv.URL, time.Second)

	got, err := c.ByCity(context.Background(), "delhi")
	if err != nil {
		t.Fatalf("ByCity() error = %v", err)
	}
	if got.AQI != 168 {
		t.Errorf("AQI = %d, want 168", got.AQI)
	}
	if got.DominantPollutant != "pm25" {
		t.Errorf("DominantPollutant = %q, want pm25", got.DominantPollutant)
	}
}

// TestHTTPClient_ByGeo_PathSegment verifies the geo:lat;lon feed path form.
func TestHTTPClient_ByGeo_PathSegment(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status":"ok","data":{"aqi":40,"dominentpol":"o3","time":{"iso":""}}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("demo-token", srv.URL, time.Second)

	if _, err := c.ByGeo(context.Background(), 28.6139, 77.209); err != nil {
		t.Fatalf("ByGeo() error = %v", err)
	}
	if !strings.Contains(gotPath, "geo:28.6139;77.0") && !strings.Contains(gotPath, "geo:28.6139;77.2090") {
		t.Errorf("path = %q, want geo:lat;lon segment", gotPath)
	}
}

// TestHTTPClient_FailureModes verifies every upstream failure surfaces as an
// error (which the source maps to absent): non-200, error status, dash AQI,
// malformed JSON.
func TestHTTPClient_FailureModes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusNotFound, `{"status":"error","data":"Unknown station"}`},
		{"provider status error", http.StatusOK, `{"status":"error","data":"Invalid key"}`},
		{"no current index", http.StatusOK, `{"status":"ok","data":{"aqi":"-","dominentpol":"","time":{"iso":""}}}`},
		{"malformed json", http.StatusOK, `{nope`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewHTTPClient("demo-token", srv.URL, time.Second)
			if _, err := c.ByCity(context.Background(), "delhi"); err == nil {
				t.Error("ByCity() error = nil, want failure")
			}
		})
	}
}
