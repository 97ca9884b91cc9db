package news

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localpulse/pulse-service/internal/cache"
	"github.com/localpulse/pulse-service/internal/location"
	"github.com/localpulse/pulse-service/internal/models"
	"github.com/localpulse/pulse-service/internal/observability"
)

const (
	maxHighlights     = 3
	maxTitleLen       = 60
	maxDescriptionLen = 100
)

// Source serves local highlights with the shortest TTL of the three pulse
// sources, reflecting news volatility. It never fails and never returns an
// empty slice: feed failures and zero-relevance queries both yield the three
// synthesized fallback highlights.
type Source struct {
	feed   FeedClient
	cache  cache.Store[[]models.LocalHighlight]
	ttl    time.Duration
	logger *zap.Logger
}

// NewSource creates a news source.
func NewSource(feed FeedClient, store cache.Store[[]models.LocalHighlight], ttl time.Duration, logger *zap.Logger) *Source {
	return &Source{
		feed:   feed,
		cache:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Highlights returns at most three locally relevant highlights for a city,
// at least one always. The cache key includes the country code so identical
// city names in different countries never collide.
func (s *Source) Highlights(ctx context.Context, city, state string, country models.CountryCode) []models.LocalHighlight {
	key := cacheKey(city, country)

	if hit, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		observability.CacheHitsTotal.WithLabelValues("news").Inc()
		s.logger.Debug("news cache hit", zap.String("key", key))
		return hit
	} else if err != nil {
		s.logger.Warn("news cache get failed", zap.String("key", key), zap.Error(err))
	}

	highlights, cacheable := s.fetch(ctx, city, state, country)
	if cacheable {
		if setErr := s.cache.Set(ctx, key, highlights, s.ttl); setErr != nil {
			s.logger.Warn("news cache set failed", zap.String("key", key), zap.Error(setErr))
		}
	}
	return highlights
}

// Invalidate drops the cached entry for a city. Used by the refresh path.
func (s *Source) Invalidate(ctx context.Context, city string, country models.CountryCode) error {
	return s.cache.Delete(ctx, cacheKey(city, country))
}

// CacheSize reports the cache entry count for the health surface.
func (s *Source) CacheSize() int {
	return s.cache.Size()
}

func cacheKey(city string, country models.CountryCode) string {
	return location.Normalize(city) + "|" + string(country)
}

// fetch queries the feed and shapes the result. The second return reports
// whether the result may be cached: only answers backed by a completed feed
// request are. A feed error (including a cancelled context) yields fallback
// highlights that must stay out of the cache, or a healthy follow-up request
// would serve canned items for the rest of the TTL.
func (s *Source) fetch(ctx context.Context, city, state string, country models.CountryCode) ([]models.LocalHighlight, bool) {
	locale := location.LocaleParams(country)

	query := city
	if state != "" {
		query = city + " " + state
	}

	items, err := s.feed.Search(ctx, query, locale.Language, locale.NewsRegion)
	if err != nil {
		observability.FallbackHighlightsTotal.Inc()
		s.logger.Debug("news feed failed, synthesizing fallback",
			zap.String("city", city), zap.Error(err))
		return SynthesizeFallback(city, location.CountryName(country)), false
	}

	relevant := filterRelevant(items, city, state)
	if len(relevant) == 0 {
		observability.FallbackHighlightsTotal.Inc()
		s.logger.Debug("no relevant news items, synthesizing fallback",
			zap.String("city", city), zap.Int("feed_items", len(items)))
		return SynthesizeFallback(city, location.CountryName(country)), true
	}

	highlights := make([]models.LocalHighlight, 0, maxHighlights)
	for _, item := range relevant {
		cat := Classify(item.Title, item.Description)
		highlights = append(highlights, models.LocalHighlight{
			ID:             uuid.NewString(),
			Icon:           IconFor(cat),
			Title:          truncate(item.Title, maxTitleLen),
			Description:    truncate(item.Description, maxDescriptionLen),
			Category:       cat,
			Source:         item.Source,
			URL:            item.Link,
			PublishedAtISO: item.Published.UTC().Format(time.RFC3339),
		})
		if len(highlights) == maxHighlights {
			break
		}
	}
	return highlights, true
}

// filterRelevant keeps items whose title or description mentions the city or
// its state. A plain textual gate; no semantic matching.
func filterRelevant(items []Item, city, state string) []Item {
	cityLower := strings.ToLower(city)
	stateLower := strings.ToLower(state)

	var out []Item
	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Description)
		if strings.Contains(text, cityLower) {
			out = append(out, item)
			continue
		}
		if stateLower != "" && strings.Contains(text, stateLower) {
			out = append(out, item)
		}
	}
	return out
}

// truncate caps s at n runes, replacing the tail with an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
