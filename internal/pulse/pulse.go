// Package pulse composes the weather, air-quality, and news sources into a
// single snapshot for a place. Weather is mandatory: its failure fails the
// whole request and cancels the sibling fetches. Air quality and news only
// ever degrade the response, never fail it.
package pulse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/localpulse/pulse-service/internal/location"
	"github.com/localpulse/pulse-service/internal/models"
	"github.com/localpulse/pulse-service/internal/observability"
	"github.com/localpulse/pulse-service/internal/validation"
	"github.com/localpulse/pulse-service/internal/weather"
)

const (
	placeMinLen = 2
	placeMaxLen = 80

	// AQI above this threshold overrides the weather mood line, unless the
	// condition is a thunderstorm, which always wins.
	poorAirThreshold = 150
)

// WeatherSource is the mandatory source. Implemented by weather.Source.
type WeatherSource interface {
	ByPlace(ctx context.Context, place string) (models.WeatherSnapshot, error)
	ByCoordinates(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, string, error)
	Invalidate(ctx context.Context, place string) error
	CacheSize() int
	Configured() bool
}

// AirQualitySource is the optional source. Implemented by airquality.Source.
type AirQualitySource interface {
	ByPlace(ctx context.Context, place string) (models.AirQualitySnapshot, bool)
	ByCoordinates(ctx context.Context, lat, lon float64) (models.AirQualitySnapshot, bool)
	Invalidate(ctx context.Context, place string) error
	CacheSize() int
	Enabled() bool
}

// NewsSource never fails and never returns zero highlights. Implemented by
// news.Source.
type NewsSource interface {
	Highlights(ctx context.Context, city, state string, country models.CountryCode) []models.LocalHighlight
	Invalidate(ctx context.Context, city string, country models.CountryCode) error
	CacheSize() int
}

// SourceHealth reports one source's status for the health surface. A cache
// size of -1 means the backend cannot count entries.
type SourceHealth struct {
	Configured bool `json:"configured"`
	CacheSize  int  `json:"cacheSize"`
}

// Orchestrator fans requests out to the three sources and assembles
// PulseSnapshots.
type Orchestrator struct {
	weather         WeatherSource
	air             AirQualitySource
	news            NewsSource
	users           UserLocator
	mood            *weather.MoodPicker
	refreshInterval time.Duration
	logger          *zap.Logger
}

// NewOrchestrator wires the orchestrator. refreshInterval drives the
// nextRefresh hint on every snapshot.
func NewOrchestrator(ws WeatherSource, aq AirQualitySource, ns NewsSource, users UserLocator, mood *weather.MoodPicker, refreshInterval time.Duration, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		weather:         ws,
		air:             aq,
		news:            ns,
		users:           users,
		mood:            mood,
		refreshInterval: refreshInterval,
		logger:          logger,
	}
}

// ForPlace builds a pulse snapshot for a named place. The three sources are
// fetched concurrently; a weather failure cancels the in-flight air-quality
// and news fetches and fails the call.
func (o *Orchestrator) ForPlace(ctx context.Context, place string) (models.PulseSnapshot, error) {
	observability.PulseRequestsTotal.WithLabelValues("place").Inc()

	cleaned, err := validation.ValidatePlace(place, placeMinLen, placeMaxLen)
	if err != nil {
		if errors.Is(err, validation.ErrPlaceEmpty) {
			return models.PulseSnapshot{}, fmt.Errorf("%w: %s", ErrLocationRequired, err)
		}
		return models.PulseSnapshot{}, fmt.Errorf("%w: %s", ErrLocationNotFound, err)
	}

	loc := location.Resolve(cleaned)
	return o.assemble(ctx, loc, func(ctx context.Context) (models.WeatherSnapshot, error) {
		ws, werr := o.weather.ByPlace(ctx, cleaned)
		if werr != nil {
			return models.WeatherSnapshot{}, mapWeatherErr(werr)
		}
		return ws, nil
	})
}

// ForCoordinates builds a pulse snapshot for a lat/lon pair. The place name
// is not known until the weather provider resolves it, so the news fetch
// chains behind weather while air quality runs in parallel on the raw
// coordinates.
func (o *Orchestrator) ForCoordinates(ctx context.Context, lat, lon float64) (models.PulseSnapshot, error) {
	observability.PulseRequestsTotal.WithLabelValues("coordinates").Inc()

	if err := validation.ValidateCoordinates(lat, lon); err != nil {
		return models.PulseSnapshot{}, fmt.Errorf("%w: %s", ErrInvalidCoordinates, err)
	}

	var (
		ws         models.WeatherSnapshot
		loc        models.LocationInfo
		highlights []models.LocalHighlight
		aq         models.AirQualitySnapshot
		aqOK       bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snapshot, resolvedPlace, werr := o.weather.ByCoordinates(gctx, lat, lon)
		if werr != nil {
			return mapWeatherErr(werr)
		}
		ws = snapshot
		loc = location.Resolve(resolvedPlace)
		highlights = o.news.Highlights(gctx, loc.City, loc.State, loc.CountryCode)
		return nil
	})
	g.Go(func() error {
		aq, aqOK = o.air.ByCoordinates(gctx, lat, lon)
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.PulseSnapshot{}, err
	}

	return o.compose(loc, ws, aq, aqOK, highlights), nil
}

// ForUser builds a pulse snapshot for a stored user, resolving their
// location as current, then home, then last detected.
func (o *Orchestrator) ForUser(ctx context.Context, userID string) (models.PulseSnapshot, error) {
	observability.PulseRequestsTotal.WithLabelValues("user").Inc()

	profile, err := o.users.Profile(ctx, userID)
	if err != nil {
		return models.PulseSnapshot{}, fmt.Errorf("%w: %s", ErrLocationRequired, err)
	}
	place := profile.Location()
	if place == "" {
		return models.PulseSnapshot{}, fmt.Errorf("%w: user %s has no stored location", ErrLocationRequired, userID)
	}
	return o.ForPlace(ctx, place)
}

// Refresh drops the cached entries for a place across all three sources and
// rebuilds the snapshot from live data.
func (o *Orchestrator) Refresh(ctx context.Context, place string) (models.PulseSnapshot, error) {
	observability.PulseRequestsTotal.WithLabelValues("refresh").Inc()

	cleaned, err := validation.ValidatePlace(place, placeMinLen, placeMaxLen)
	if err != nil {
		if errors.Is(err, validation.ErrPlaceEmpty) {
			return models.PulseSnapshot{}, fmt.Errorf("%w: %s", ErrLocationRequired, err)
		}
		return models.PulseSnapshot{}, fmt.Errorf("%w: %s", ErrLocationNotFound, err)
	}

	loc := location.Resolve(cleaned)
	if invErr := o.weather.Invalidate(ctx, cleaned); invErr != nil {
		o.logger.Warn("weather invalidate failed", zap.String("place", cleaned), zap.Error(invErr))
	}
	if invErr := o.air.Invalidate(ctx, cleaned); invErr != nil {
		o.logger.Warn("air quality invalidate failed", zap.String("place", cleaned), zap.Error(invErr))
	}
	if invErr := o.news.Invalidate(ctx, loc.City, loc.CountryCode); invErr != nil {
		o.logger.Warn("news invalidate failed", zap.String("place", cleaned), zap.Error(invErr))
	}

	return o.ForPlace(ctx, cleaned)
}

// Health reports per-source configuration and cache occupancy.
func (o *Orchestrator) Health() map[string]SourceHealth {
	return map[string]SourceHealth{
		"weather":    {Configured: o.weather.Configured(), CacheSize: o.weather.CacheSize()},
		"airQuality": {Configured: o.air.Enabled(), CacheSize: o.air.CacheSize()},
		"news":       {Configured: true, CacheSize: o.news.CacheSize()},
	}
}

// assemble runs the place-keyed fan-out: weather via fetchWeather, air
// quality and news directly against the resolved location.
func (o *Orchestrator) assemble(ctx context.Context, loc models.LocationInfo, fetchWeather func(context.Context) (models.WeatherSnapshot, error)) (models.PulseSnapshot, error) {
	var (
		ws         models.WeatherSnapshot
		highlights []models.LocalHighlight
		aq         models.AirQualitySnapshot
		aqOK       bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snapshot, err := fetchWeather(gctx)
		if err != nil {
			return err
		}
		ws = snapshot
		return nil
	})
	g.Go(func() error {
		aq, aqOK = o.air.ByPlace(gctx, loc.City)
		return nil
	})
	g.Go(func() error {
		highlights = o.news.Highlights(gctx, loc.City, loc.State, loc.CountryCode)
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.PulseSnapshot{}, err
	}

	return o.compose(loc, ws, aq, aqOK, highlights), nil
}

// compose joins the fetched pieces into the final snapshot and applies the
// poor-air mood override.
func (o *Orchestrator) compose(loc models.LocationInfo, ws models.WeatherSnapshot, aq models.AirQualitySnapshot, aqOK bool, highlights []models.LocalHighlight) models.PulseSnapshot {
	if aqOK && aq.AQI > poorAirThreshold && ws.Condition != models.ConditionThunderstorm {
		ws.MoodLine = o.mood.PoorAirLine()
	}

	snapshot := models.PulseSnapshot{
		Location:       loc,
		Weather:        ws,
		Highlights:     highlights,
		GeneratedAtISO: time.Now().UTC().Format(time.RFC3339),
		NextRefreshISO: time.Now().UTC().Add(o.refreshInterval).Format(time.RFC3339),
	}
	if aqOK {
		snapshot.AirQuality = &aq
	}
	return snapshot
}

// mapWeatherErr translates weather-source sentinels into pulse-level ones so
// callers never import the weather package for error handling.
func mapWeatherErr(err error) error {
	switch {
	case errors.Is(err, weather.ErrPlaceNotFound):
		return fmt.Errorf("%w: %s", ErrLocationNotFound, err)
	case errors.Is(err, weather.ErrRateLimited):
		return fmt.Errorf("%w: %s", ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
}
