package news

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/localpulse/pulse-service/internal/models"
)

// SynthesizeFallback builds exactly three canned highlights for a city when
// the feed fails or nothing relevant survives filtering. Fallback items
// carry no source or URL.
func SynthesizeFallback(city, countryName string) []models.LocalHighlight {
	place := city
	if countryName != "" {
		place = city + ", " + countryName
	}
	now := time.Now().UTC().Format(time.RFC3339)

	return []models.LocalHighlight{
		{
			ID:             uuid.NewString(),
			Icon:           IconFor(models.CategoryTraffic),
			Title:          truncate(fmt.Sprintf("Traffic moving normally across %s", city), maxTitleLen),
			Description:    truncate(fmt.Sprintf("No major congestion or closures reported on key routes in %s right now.", city), maxDescriptionLen),
			Category:       models.CategoryTraffic,
			PublishedAtISO: now,
		},
		{
			ID:             uuid.NewString(),
			Icon:           IconFor(models.CategoryMarket),
			Title:          truncate("Local markets trading steady today", maxTitleLen),
			Description:    truncate(fmt.Sprintf("Markets around %s are holding steady with no unusual movement.", place), maxDescriptionLen),
			Category:       models.CategoryMarket,
			PublishedAtISO: now,
		},
		{
			ID:             uuid.NewString(),
			Icon:           IconFor(models.CategoryGeneral),
			Title:          truncate(fmt.Sprintf("All quiet in %s", city), maxTitleLen),
			Description:    truncate(fmt.Sprintf("Nothing out of the ordinary reported in %s at the moment.", place), maxDescriptionLen),
			Category:       models.CategoryGeneral,
			PublishedAtISO: now,
		},
	}
}
