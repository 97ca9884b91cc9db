package airquality

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/localpulse/pulse-service/internal/cache"
	"github.com/localpulse/pulse-service/internal/location"
	"github.com/localpulse/pulse-service/internal/models"
	"github.com/localpulse/pulse-service/internal/observability"
)

// Source serves banded air-quality snapshots with a TTL cache. The comma-ok
// second return is the absence signal; no method of Source ever returns an
// error because air quality is enrichment, never a blocking dependency.
type Source struct {
	client Client
	cache  cache.Store[models.AirQualitySnapshot]
	ttl    time.Duration
	logger *zap.Logger
}

// NewSource creates an air-quality source. A nil client means no credential
// was configured: the source is permanently degraded and makes no network
// calls.
func NewSource(client Client, store cache.Store[models.AirQualitySnapshot], ttl time.Duration, logger *zap.Logger) *Source {
	if client == nil {
		logger.Warn("air-quality credential not configured; source disabled")
	}
	return &Source{
		client: client,
		cache:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// ByPlace returns the snapshot for a place name, or ok=false when no data is
// available for any reason.
func (s *Source) ByPlace(ctx context.Context, place string) (models.AirQualitySnapshot, bool) {
	key := location.Normalize(place)
	return s.cached(ctx, key, func() (Reading, error) {
		return s.client.ByCity(ctx, place)
	})
}

// ByCoordinates returns the snapshot for coordinates, rounded to 2 decimal
// places for shared cache buckets, or ok=false when no data is available.
func (s *Source) ByCoordinates(ctx context.Context, lat, lon float64) (models.AirQualitySnapshot, bool) {
	key := fmt.Sprintf("%.2f,%.2f", lat, lon)
	return s.cached(ctx, key, func() (Reading, error) {
		return s.client.ByGeo(ctx, lat, lon)
	})
}

// Invalidate drops the cached entry for a place. Used by the refresh path.
func (s *Source) Invalidate(ctx context.Context, place string) error {
	return s.cache.Delete(ctx, location.Normalize(place))
}

// CacheSize reports the cache entry count for the health surface.
func (s *Source) CacheSize() int {
	return s.cache.Size()
}

// Enabled reports whether a credential was configured.
func (s *Source) Enabled() bool {
	return s.client != nil
}

func (s *Source) cached(ctx context.Context, key string, fetch func() (Reading, error)) (models.AirQualitySnapshot, bool) {
	if s.client == nil {
		observability.AirQualityAbsentTotal.Inc()
		return models.AirQualitySnapshot{}, false
	}

	if hit, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		observability.CacheHitsTotal.WithLabelValues("air_quality").Inc()
		s.logger.Debug("air-quality cache hit", zap.String("key", key))
		return hit, true
	} else if err != nil {
		s.logger.Warn("air-quality cache get failed", zap.String("key", key), zap.Error(err))
	}

	reading, err := fetch()
	if err != nil {
		observability.AirQualityAbsentTotal.Inc()
		s.logger.Debug("air-quality unavailable", zap.String("key", key), zap.Error(err))
		return models.AirQualitySnapshot{}, false
	}

	snap := snapshotFrom(reading)
	if setErr := s.cache.Set(ctx, key, snap, s.ttl); setErr != nil {
		s.logger.Warn("air-quality cache set failed", zap.String("key", key), zap.Error(setErr))
	}
	return snap, true
}

// snapshotFrom bands a raw reading for display.
func snapshotFrom(r Reading) models.AirQualitySnapshot {
	b := bandFor(r.AQI)
	return models.AirQualitySnapshot{
		AQI:               r.AQI,
		Level:             b.level,
		DominantPollutant: pollutantLabel(r.DominantPollutant),
		ColorHint:         b.color,
		AdvisoryMessage:   b.message,
		Recommendation:    b.recommendation,
		FetchedAtISO:      time.Now().UTC().Format(time.RFC3339),
	}
}
