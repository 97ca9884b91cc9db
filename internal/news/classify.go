package news

import (
	"strings"

	"github.com/localpulse/pulse-service/internal/models"
)

// categoryOrder fixes the order categories are checked in; the first category
// with a keyword hit wins. General is the fallback, never matched by keyword.
var categoryOrder = []models.HighlightCategory{
	models.CategoryTraffic,
	models.CategoryMarket,
	models.CategoryWeatherAlert,
	models.CategoryEvent,
	models.CategoryUtility,
}

// categoryKeywords holds per-category match lists in English, transliterated
// Hindi, and Arabic, matched case-insensitively as substrings.
var categoryKeywords = map[models.HighlightCategory][]string{
	models.CategoryTraffic: {
		"traffic", "jam", "road closure", "accident", "diversion", "highway",
		"congestion", "flyover", "yatayat", "sadak", "مرور", "ازدحام", "حادث",
	},
	models.CategoryMarket: {
		"market", "sensex", "nifty", "stock", "economy", "inflation", "rupee",
		"prices", "mandi", "bazaar", "vyapar", "سوق", "أسعار", "اقتصاد",
	},
	models.CategoryWeatherAlert: {
		"rain", "storm", "flood", "heatwave", "cyclone", "monsoon", "hailstorm",
		"weather alert", "imd warning", "barish", "toofan", "baarish",
		"طقس", "أمطار", "عاصفة", "فيضان",
	},
	models.CategoryEvent: {
		"festival", "concert", "event", "celebration", "exhibition", "rally",
		"inauguration", "mela", "utsav", "مهرجان", "فعالية", "احتفال",
	},
	models.CategoryUtility: {
		"power cut", "electricity", "water supply", "outage", "load shedding",
		"pipeline", "bijli", "pani", "كهرباء", "مياه", "انقطاع",
	},
}

// categoryIcons maps each category to its display icon.
var categoryIcons = map[models.HighlightCategory]string{
	models.CategoryTraffic:      "🚦",
	models.CategoryMarket:       "📈",
	models.CategoryWeatherAlert: "⛈️",
	models.CategoryEvent:        "🎉",
	models.CategoryUtility:      "🔌",
	models.CategoryGeneral:      "📰",
}

// Classify assigns a category to a headline by keyword match over title and
// description, checking categories in fixed order. No match yields general.
func Classify(title, description string) models.HighlightCategory {
	text := strings.ToLower(title + " " + description)
	for _, cat := range categoryOrder {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(text, kw) {
				return cat
			}
		}
	}
	return models.CategoryGeneral
}

// IconFor returns the display icon for a category.
func IconFor(cat models.HighlightCategory) string {
	if icon, ok := categoryIcons[cat]; ok {
		return icon
	}
	return categoryIcons[models.CategoryGeneral]
}
