package weather

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/localpulse/pulse-service/internal/cache"
	"github.com/localpulse/pulse-service/internal/location"
	"github.com/localpulse/pulse-service/internal/models"
	"github.com/localpulse/pulse-service/internal/observability"
)

// Cached is the cache entry value: the display snapshot plus the provider's
// resolved place name, kept so a coordinate-key cache hit can still report
// its place without another provider call.
type Cached struct {
	Snapshot models.WeatherSnapshot `json:"snapshot"`
	Place    string                 `json:"place"`
}

// Source serves weather snapshots with a short-TTL cache in front of the
// provider. Concurrent misses for the same key may both hit the provider;
// last writer wins on the cache, which is fine for current conditions.
type Source struct {
	client Client
	cache  cache.Store[Cached]
	ttl    time.Duration
	mood   *MoodPicker
	logger *zap.Logger
}

// NewSource creates a weather source.
func NewSource(client Client, store cache.Store[Cached], ttl time.Duration, mood *MoodPicker, logger *zap.Logger) *Source {
	return &Source{
		client: client,
		cache:  store,
		ttl:    ttl,
		mood:   mood,
		logger: logger,
	}
}

// ByPlace returns the snapshot for a place name, cache-checked first. All
// failures propagate: weather is mandatory for the pulse.
func (s *Source) ByPlace(ctx context.Context, place string) (models.WeatherSnapshot, error) {
	key := location.Normalize(place)
	entry, err := s.cached(ctx, key, func() (Observation, error) {
		return s.client.CurrentByPlace(ctx, place)
	})
	return entry.Snapshot, err
}

// ByCoordinates returns the snapshot for coordinates, plus the provider's
// resolved place name so the caller can build location identity. Coordinates
// are rounded to 2 decimal places so GPS jitter shares cache buckets.
func (s *Source) ByCoordinates(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, string, error) {
	key := coordKey(lat, lon)
	entry, err := s.cached(ctx, key, func() (Observation, error) {
		return s.client.CurrentByCoords(ctx, lat, lon)
	})
	return entry.Snapshot, entry.Place, err
}

// Invalidate drops the cached entry for a place. Used by the refresh path.
func (s *Source) Invalidate(ctx context.Context, place string) error {
	return s.cache.Delete(ctx, location.Normalize(place))
}

// CacheSize reports the cache entry count for the health surface.
func (s *Source) CacheSize() int {
	return s.cache.Size()
}

// Configured reports whether the source has an upstream client.
func (s *Source) Configured() bool {
	return s.client != nil
}

// cached implements cache-aside for one key.
func (s *Source) cached(ctx context.Context, key string, fetch func() (Observation, error)) (Cached, error) {
	if hit, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		observability.CacheHitsTotal.WithLabelValues("weather").Inc()
		s.logger.Debug("weather cache hit", zap.String("key", key))
		return hit, nil
	} else if err != nil {
		s.logger.Warn("weather cache get failed", zap.String("key", key), zap.Error(err))
	}

	if s.client == nil {
		return Cached{}, fmt.Errorf("fetch weather: %w", ErrMissingAPIKey)
	}

	obs, err := fetch()
	if err != nil {
		return Cached{}, fmt.Errorf("fetch weather for %s: %w", key, err)
	}

	entry := Cached{Snapshot: s.snapshotFrom(obs), Place: obs.Name}
	if setErr := s.cache.Set(ctx, key, entry, s.ttl); setErr != nil {
		s.logger.Warn("weather cache set failed", zap.String("key", key), zap.Error(setErr))
	}
	s.logger.Debug("weather fetched",
		zap.String("key", key),
		zap.String("condition", string(entry.Snapshot.Condition)),
		zap.Int("temperatureC", entry.Snapshot.TemperatureC))
	return entry, nil
}

// snapshotFrom converts a raw observation to the display snapshot: condition
// mapping, m/s to km/h, degrees to compass, meters to km, Unix timestamps to
// ISO-8601 in the place's local offset, and the fetch-time mood line.
func (s *Source) snapshotFrom(obs Observation) models.WeatherSnapshot {
	loc := time.FixedZone("local", obs.TZOffsetSec)
	localHour := time.Unix(obs.ObservedUnix, 0).In(loc).Hour()

	cond := MapConditionCode(obs.Code)
	tempC := int(math.Round(obs.TempC))

	return models.WeatherSnapshot{
		TemperatureC:  tempC,
		FeelsLikeC:    int(math.Round(obs.FeelsLikeC)),
		HumidityPct:   obs.HumidityPct,
		Condition:     cond,
		ConditionCode: obs.Code,
		WindSpeedKmh:  int(math.Round(obs.WindSpeedMS * 3.6)),
		WindDirection: CompassDirection(obs.WindDeg),
		VisibilityKm:  math.Round(float64(obs.VisibilityM)/100) / 10,
		PressureHPa:   obs.PressureHPa,
		SunriseISO:    time.Unix(obs.SunriseUnix, 0).In(loc).Format(time.RFC3339),
		SunsetISO:     time.Unix(obs.SunsetUnix, 0).In(loc).Format(time.RFC3339),
		MoodLine:      s.mood.Line(cond, tempC, localHour),
		FetchedAtISO:  time.Now().UTC().Format(time.RFC3339),
	}
}

// coordKey rounds coordinates to 2 decimal places (~1km) so nearby GPS fixes
// land in the same cache bucket.
func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}
