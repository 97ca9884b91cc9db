package models

// CountryCode is an ISO-style country identifier for resolved locations.
// Places that cannot be matched against the registry resolve to CountryOther.
type CountryCode string

const (
	CountryIN    CountryCode = "IN"
	CountryUS    CountryCode = "US"
	CountryGB    CountryCode = "GB"
	CountryAE    CountryCode = "AE"
	CountryCA    CountryCode = "CA"
	CountryAU    CountryCode = "AU"
	CountrySG    CountryCode = "SG"
	CountryOther CountryCode = "OTHER"
)

// Region is a coarse grouping used for downstream display decisions.
type Region string

const (
	RegionDomestic      Region = "domestic"
	RegionInternational Region = "international"
)

// LocationInfo is the resolved identity of a place. FormattedLabel is always
// derived from the other fields via location.FormatLabel and never stored
// independently of them.
type LocationInfo struct {
	City           string      `json:"city"`
	State          string      `json:"state,omitempty"`
	CountryCode    CountryCode `json:"countryCode"`
	CountryName    string      `json:"countryName,omitempty"`
	FormattedLabel string      `json:"formattedLabel"`
	Region         Region      `json:"region"`
}

// Condition is the fixed weather condition enumeration. Upstream numeric
// condition codes are mapped onto it via an ordered range table.
type Condition string

const (
	ConditionClear        Condition = "Clear"
	ConditionPartlyCloudy Condition = "Partly Cloudy"
	ConditionCloudy       Condition = "Cloudy"
	ConditionOvercast     Condition = "Overcast"
	ConditionLightRain    Condition = "Light Rain"
	ConditionRain         Condition = "Rain"
	ConditionHeavyRain    Condition = "Heavy Rain"
	ConditionThunderstorm Condition = "Thunderstorm"
	ConditionSnow         Condition = "Snow"
	ConditionMist         Condition = "Mist"
	ConditionFog          Condition = "Fog"
	ConditionHaze         Condition = "Haze"
	ConditionDust         Condition = "Dust"
	ConditionSmoke        Condition = "Smoke"
)

// WeatherSnapshot holds current conditions for a place, already converted to
// display units (celsius, km/h, km). ConditionCode preserves the raw upstream
// code for debugging.
type WeatherSnapshot struct {
	TemperatureC  int       `json:"temperatureC"`
	FeelsLikeC    int       `json:"feelsLikeC"`
	HumidityPct   int       `json:"humidityPct"`
	Condition     Condition `json:"condition"`
	ConditionCode int       `json:"conditionCode"`
	WindSpeedKmh  int       `json:"windSpeedKmh"`
	WindDirection string    `json:"windDirection"`
	VisibilityKm  float64   `json:"visibilityKm"`
	PressureHPa   int       `json:"pressureHPa"`
	SunriseISO    string    `json:"sunriseISO"`
	SunsetISO     string    `json:"sunsetISO"`
	MoodLine      string    `json:"moodLine"`
	FetchedAtISO  string    `json:"fetchedAtISO"`
}

// AQILevel is one of six ordered air-quality bands.
type AQILevel string

const (
	AQIGood          AQILevel = "Good"
	AQIModerate      AQILevel = "Moderate"
	AQISensitive     AQILevel = "Unhealthy for Sensitive Groups"
	AQIUnhealthy     AQILevel = "Unhealthy"
	AQIVeryUnhealthy AQILevel = "Very Unhealthy"
	AQIHazardous     AQILevel = "Hazardous"
)

// AirQualitySnapshot holds a banded air-quality reading for a place.
type AirQualitySnapshot struct {
	AQI               int      `json:"aqi"`
	Level             AQILevel `json:"level"`
	DominantPollutant string   `json:"dominantPollutant,omitempty"`
	ColorHint         string   `json:"colorHint"`
	AdvisoryMessage   string   `json:"advisoryMessage"`
	Recommendation    string   `json:"recommendation"`
	FetchedAtISO      string   `json:"fetchedAtISO"`
}

// HighlightCategory classifies a local highlight.
type HighlightCategory string

const (
	CategoryTraffic      HighlightCategory = "traffic"
	CategoryMarket       HighlightCategory = "market"
	CategoryWeatherAlert HighlightCategory = "weather_alert"
	CategoryEvent        HighlightCategory = "event"
	CategoryUtility      HighlightCategory = "utility"
	CategoryGeneral      HighlightCategory = "general"
)

// LocalHighlight is a single locally relevant news item, or a synthesized
// fallback item when the feed yields nothing relevant. Source and URL are
// absent for synthesized items.
type LocalHighlight struct {
	ID             string            `json:"id"`
	Icon           string            `json:"icon"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Category       HighlightCategory `json:"category"`
	Source         string            `json:"source,omitempty"`
	URL            string            `json:"url,omitempty"`
	PublishedAtISO string            `json:"publishedAtISO"`
}

// PulseSnapshot is the aggregate response composed by the orchestrator.
// AirQuality is nil when the air-quality source had no data; Highlights
// always holds between 1 and 3 items.
type PulseSnapshot struct {
	Location       LocationInfo        `json:"location"`
	Weather        WeatherSnapshot     `json:"weather"`
	AirQuality     *AirQualitySnapshot `json:"airQuality,omitempty"`
	Highlights     []LocalHighlight    `json:"highlights"`
	GeneratedAtISO string              `json:"generatedAtISO"`
	NextRefreshISO string              `json:"nextRefreshISO"`
}
