// Package location maps free-form place names to normalized location
// identities and supplies locale parameters for upstream queries. Pure data
// plus lookup functions; no network calls, no state.
package location

import (
	"strings"

	"github.com/localpulse/pulse-service/internal/models"
)

// entry is one row of the static place table.
type entry struct {
	state   string
	country models.CountryCode
}

// places maps a normalized place name to its state and country. The table
// covers the deployment's expected traffic; anything else degrades to
// CountryOther via Resolve.
var places = map[string]entry{
	// India
	"delhi":      {"Delhi", models.CountryIN},
	"new delhi":  {"Delhi", models.CountryIN},
	"mumbai":     {"Maharashtra", models.CountryIN},
	"pune":       {"Maharashtra", models.CountryIN},
	"nagpur":     {"Maharashtra", models.CountryIN},
	"bengaluru":  {"Karnataka", models.CountryIN},
	"bangalore":  {"Karnataka", models.CountryIN},
	"chennai":    {"Tamil Nadu", models.CountryIN},
	"kolkata":    {"West Bengal", models.CountryIN},
	"hyderabad":  {"Telangana", models.CountryIN},
	"ahmedabad":  {"Gujarat", models.CountryIN},
	"surat":      {"Gujarat", models.CountryIN},
	"jaipur":     {"Rajasthan", models.CountryIN},
	"lucknow":    {"Uttar Pradesh", models.CountryIN},
	"kanpur":     {"Uttar Pradesh", models.CountryIN},
	"chandigarh": {"Chandigarh", models.CountryIN},
	"amritsar":   {"Punjab", models.CountryIN},
	"ludhiana":   {"Punjab", models.CountryIN},
	"jalandhar":  {"Punjab", models.CountryIN},
	"patiala":    {"Punjab", models.CountryIN},
	"ferozepur":  {"Punjab", models.CountryIN},
	"bathinda":   {"Punjab", models.CountryIN},
	"shimla":     {"Himachal Pradesh", models.CountryIN},
	"dehradun":   {"Uttarakhand", models.CountryIN},
	"bhopal":     {"Madhya Pradesh", models.CountryIN},
	"indore":     {"Madhya Pradesh", models.CountryIN},
	"patna":      {"Bihar", models.CountryIN},
	"kochi":      {"Kerala", models.CountryIN},
	"goa":        {"Goa", models.CountryIN},

	// United States
	"new york":      {"New York", models.CountryUS},
	"seattle":       {"Washington", models.CountryUS},
	"san francisco": {"California", models.CountryUS},
	"los angeles":   {"California", models.CountryUS},
	"chicago":       {"Illinois", models.CountryUS},
	"austin":        {"Texas", models.CountryUS},
	"boston":        {"Massachusetts", models.CountryUS},

	// Elsewhere
	"london":     {"", models.CountryGB},
	"manchester": {"", models.CountryGB},
	"dubai":      {"", models.CountryAE},
	"abu dhabi":  {"", models.CountryAE},
	"sharjah":    {"", models.CountryAE},
	"toronto":    {"Ontario", models.CountryCA},
	"vancouver":  {"British Columbia", models.CountryCA},
	"sydney":     {"New South Wales", models.CountryAU},
	"melbourne":  {"Victoria", models.CountryAU},
	"singapore":  {"", models.CountrySG},
}

// countryNames maps a country code to its display name.
var countryNames = map[models.CountryCode]string{
	models.CountryIN: "India",
	models.CountryUS: "USA",
	models.CountryGB: "United Kingdom",
	models.CountryAE: "UAE",
	models.CountryCA: "Canada",
	models.CountryAU: "Australia",
	models.CountrySG: "Singapore",
}

// Params holds per-country upstream query parameters.
type Params struct {
	Language   string
	NewsRegion string
	Timezone   string
	Currency   string
}

var localeParams = map[models.CountryCode]Params{
	models.CountryIN: {"en-IN", "IN", "Asia/Kolkata", "INR"},
	models.CountryUS: {"en-US", "US", "America/New_York", "USD"},
	models.CountryGB: {"en-GB", "GB", "Europe/London", "GBP"},
	models.CountryAE: {"en-AE", "AE", "Asia/Dubai", "AED"},
	models.CountryCA: {"en-CA", "CA", "America/Toronto", "CAD"},
	models.CountryAU: {"en-AU", "AU", "Australia/Sydney", "AUD"},
	models.CountrySG: {"en-SG", "SG", "Asia/Singapore", "SGD"},
}

// defaultParams is used for CountryOther and any code missing from the table.
var defaultParams = Params{"en-US", "US", "UTC", "USD"}

// Resolve maps a free-form place name to a LocationInfo. Matching is
// case-insensitive with collapsed whitespace. Unknown names degrade to
// CountryOther with an empty state; Resolve never fails.
func Resolve(placeName string) models.LocationInfo {
	city := DisplayCase(placeName)
	e, ok := places[Normalize(placeName)]
	if !ok {
		return models.LocationInfo{
			City:           city,
			CountryCode:    models.CountryOther,
			FormattedLabel: FormatLabel(city, "", models.CountryOther),
			Region:         models.RegionInternational,
		}
	}

	region := models.RegionInternational
	if e.country == models.CountryIN {
		region = models.RegionDomestic
	}
	return models.LocationInfo{
		City:           city,
		State:          e.state,
		CountryCode:    e.country,
		CountryName:    countryNames[e.country],
		FormattedLabel: FormatLabel(city, e.state, e.country),
		Region:         region,
	}
}

// LocaleParams returns the upstream query parameters for a country code,
// falling back to defaults for unknown codes.
func LocaleParams(code models.CountryCode) Params {
	if p, ok := localeParams[code]; ok {
		return p
	}
	return defaultParams
}

// CountryName returns the display name for a country code, or "" for
// CountryOther and unknown codes.
func CountryName(code models.CountryCode) string {
	return countryNames[code]
}

// FormatLabel joins city, state and country into a display label.
// India joins city and state; the US appends ", USA"; every other known
// country appends its country name. Unknown countries yield the bare city.
func FormatLabel(city, state string, code models.CountryCode) string {
	switch code {
	case models.CountryIN:
		if state != "" {
			return city + ", " + state
		}
		return city + ", India"
	case models.CountryUS:
		return city + ", USA"
	default:
		if name := countryNames[code]; name != "" {
			return city + ", " + name
		}
		return city
	}
}

// Normalize lower-cases a place name and collapses internal whitespace.
// Used for table lookups and as the shared cache-key form.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// DisplayCase title-cases each word of a place name.
func DisplayCase(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	for i, f := range fields {
		r := []rune(f)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		fields[i] = string(r)
	}
	return strings.Join(fields, " ")
}
