package weather

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/localpulse/pulse-service/internal/cache"
	"github.com/localpulse/pulse-service/internal/models"
)

type mockClient struct {
	obs   Observation
	err   error
	calls int
}

func (m *mockClient) CurrentByPlace(ctx context.Context, place string) (Observation, error) {
	m.calls++
	return m.obs, m.err
}

func (m *mockClient) CurrentByCoords(ctx context.Context, lat, lon float64) (Observation, error) {
	m.calls++
	return m.obs, m.err
}

func testObservation() Observation {
	return Observation{
		Code:         800,
		TempC:        21.6,
		FeelsLikeC:   22.4,
		HumidityPct:  40,
		PressureHPa:  1012,
		WindSpeedMS:  5.0,
		WindDeg:      90,
		VisibilityM:  8000,
		SunriseUnix:  1700000000,
		SunsetUnix:   1700040000,
		TZOffsetSec:  19800, // IST
		ObservedUnix: 1700020000,
		Name:         "Ferozepur",
	}
}

func newTestSource(c Client) *Source {
	mood := NewMoodPicker(rand.New(rand.NewSource(1)))
	return NewSource(c, cache.NewMemory[Cached](), 5*time.Minute, mood, zap.NewNop())
}

// TestSource_ByPlace_FetchAndConvert verifies unit conversions and condition
// mapping on a cache miss.
func TestSource_ByPlace_FetchAndConvert(t *testing.T) {
	client := &mockClient{obs: testObservation()}
	src := newTestSource(client)

	got, err := src.ByPlace(context.Background(), "Ferozepur")
	if err != nil {
		t.Fatalf("ByPlace() error = %v", err)
	}

	if got.TemperatureC != 22 {
		t.Errorf("TemperatureC = %d, want 22 (rounded)", got.TemperatureC)
	}
	if got.FeelsLikeC != 22 {
		t.Errorf("FeelsLikeC = %d, want 22", got.FeelsLikeC)
	}
	if got.Condition != models.ConditionClear {
		t.Errorf("Condition = %q, want Clear for code 800", got.Condition)
	}
	if got.ConditionCode != 800 {
		t.Errorf("ConditionCode = %d, want 800 preserved", got.ConditionCode)
	}
	if got.WindSpeedKmh != 18 {
		t.Errorf("WindSpeedKmh = %d, want 18 (5 m/s)", got.WindSpeedKmh)
	}
	if got.WindDirection != "E" {
		t.Errorf("WindDirection = %q, want E for 90°", got.WindDirection)
	}
	if got.VisibilityKm != 8.0 {
		t.Errorf("VisibilityKm = %v, want 8.0", got.VisibilityKm)
	}
	if got.MoodLine == "" {
		t.Error("MoodLine is empty")
	}
	if got.SunriseISO == "" || got.SunsetISO == "" {
		t.Error("sunrise/sunset ISO timestamps are empty")
	}
}

// TestSource_ByPlace_CacheHit verifies repeated lookups within TTL make
// exactly one upstream call.
func TestSource_ByPlace_CacheHit(t *testing.T) {
	client := &mockClient{obs: testObservation()}
	src := newTestSource(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := src.ByPlace(ctx, "Ferozepur"); err != nil {
			t.Fatalf("ByPlace() call %d error = %v", i, err)
		}
	}

	if client.calls != 1 {
		t.Errorf("upstream calls = %d, want 1 across repeated lookups", client.calls)
	}
}

// TestSource_ByPlace_KeyNormalization verifies that casings and whitespace
// variants of a place share one cache bucket.
func TestSource_ByPlace_KeyNormalization(t *testing.T) {
	client := &mockClient{obs: testObservation()}
	src := newTestSource(client)
	ctx := context.Background()

	_, _ = src.ByPlace(ctx, "Ferozepur")
	_, _ = src.ByPlace(ctx, "  FEROZEPUR ")
	_, _ = src.ByPlace(ctx, "ferozepur")

	if client.calls != 1 {
		t.Errorf("upstream calls = %d, want 1 for normalized variants", client.calls)
	}
}

// TestSource_ByPlace_TTLExpiry verifies that a lookup after expiry triggers
// exactly one new upstream call.
func TestSource_ByPlace_TTLExpiry(t *testing.T) {
	client := &mockClient{obs: testObservation()}
	mood := NewMoodPicker(rand.New(rand.NewSource(1)))
	src := NewSource(client, cache.NewMemory[Cached](), 1*time.Millisecond, mood, zap.NewNop())
	ctx := context.Background()

	_, _ = src.ByPlace(ctx, "Delhi")
	time.Sleep(5 * time.Millisecond)
	_, _ = src.ByPlace(ctx, "Delhi")

	if client.calls != 2 {
		t.Errorf("upstream calls = %d, want 2 after TTL expiry", client.calls)
	}
}

// TestSource_ByCoordinates_SharedBuckets verifies 2-decimal rounding folds
// GPS jitter into one cache bucket and the resolved place name survives
// cache hits.
func TestSource_ByCoordinates_SharedBuckets(t *testing.T) {
	client := &mockClient{obs: testObservation()}
	src := newTestSource(client)
	ctx := context.Background()

	_, place1, err := src.ByCoordinates(ctx, 30.9331, 74.6225)
	if err != nil {
		t.Fatalf("ByCoordinates() error = %v", err)
	}
	_, place2, err := src.ByCoordinates(ctx, 30.9329, 74.6254)
	if err != nil {
		t.Fatalf("ByCoordinates() error = %v", err)
	}

	if client.calls != 1 {
		t.Errorf("upstream calls = %d, want 1 for jittered coordinates", client.calls)
	}
	if place1 != "Ferozepur" || place2 != "Ferozepur" {
		t.Errorf("resolved places = %q, %q, want Ferozepur for both", place1, place2)
	}
}

// TestSource_ByPlace_ErrorPropagates verifies upstream failures are fatal and
// carry their sentinel through wrapping.
func TestSource_ByPlace_ErrorPropagates(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", ErrPlaceNotFound, ErrPlaceNotFound},
		{"rate limited", ErrRateLimited, ErrRateLimited},
		{"upstream failure", errors.New("boom"), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &mockClient{err: tc.err}
			src := newTestSource(client)

			_, err := src.ByPlace(context.Background(), "Delhi")
			if err == nil {
				t.Fatal("ByPlace() error = nil, want propagated failure")
			}
			if tc.sentinel != nil && !errors.Is(err, tc.sentinel) {
				t.Errorf("error %v does not wrap %v", err, tc.sentinel)
			}
		})
	}
}

// TestSource_ErrorNotCached verifies a failure does not poison the cache:
// the next lookup hits upstream again.
func TestSource_ErrorNotCached(t *testing.T) {
	client := &mockClient{err: ErrUpstream}
	src := newTestSource(client)
	ctx := context.Background()

	_, _ = src.ByPlace(ctx, "Delhi")
	client.err = nil
	client.obs = testObservation()

	if _, err := src.ByPlace(ctx, "Delhi"); err != nil {
		t.Fatalf("ByPlace() after recovery error = %v", err)
	}
	if client.calls != 2 {
		t.Errorf("upstream calls = %d, want 2", client.calls)
	}
}

// TestSource_Invalidate verifies refresh-path invalidation forces a refetch.
func TestSource_Invalidate(t *testing.T) {
	client := &mockClient{obs: testObservation()}
	src := newTestSource(client)
	ctx := context.Background()

	_, _ = src.ByPlace(ctx, "Ferozepur")
	if err := src.Invalidate(ctx, "Ferozepur"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	_, _ = src.ByPlace(ctx, "Ferozepur")

	if client.calls != 2 {
		t.Errorf("upstream calls = %d, want 2 after Invalidate", client.calls)
	}
}
