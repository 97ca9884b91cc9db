package airquality

import (
	"math"

	"github.com/localpulse/pulse-service/internal/models"
)

// band is one row of the fixed AQI banding table, checked in order against
// the upper bound.
type band struct {
	max            int
	level          models.AQILevel
	color          string
	message        string
	recommendation string
}

var bands = []band{
	{50, models.AQIGood, "#009966",
		"Air quality is satisfactory.",
		"Enjoy your usual outdoor activities."},
	{100, models.AQIModerate, "#ffde33",
		"Air quality is acceptable.",
		"Unusually sensitive people should consider reducing prolonged outdoor exertion."},
	{150, models.AQISensitive, "#ff9933",
		"Members of sensitive groups may experience health effects.",
		"Children, the elderly, and people with respiratory conditions should limit prolonged outdoor exertion."},
	{200, models.AQIUnhealthy, "#cc0033",
		"Everyone may begin to experience health effects.",
		"Avoid prolonged outdoor exertion; sensitive groups should stay indoors."},
	{300, models.AQIVeryUnhealthy, "#660099",
		"Health alert: everyone may experience more serious health effects.",
		"Avoid all outdoor exertion; keep windows closed and run purifiers if available."},
	{math.MaxInt, models.AQIHazardous, "#7e0023",
		"Health warning of emergency conditions.",
		"Remain indoors; wear an N95 mask if you must go outside."},
}

// bandFor returns the banding row covering an AQI value.
func bandFor(aqi int) band {
	for _, b := range bands {
		if aqi <= b.max {
			return b
		}
	}
	return bands[len(bands)-1]
}

// pollutantLabels maps feed pollutant keys to human labels.
var pollutantLabels = map[string]string{
	"pm25": "PM2.5 (fine particulate matter)",
	"pm10": "PM10 (coarse particulate matter)",
	"o3":   "Ozone",
	"no2":  "Nitrogen dioxide",
	"so2":  "Sulphur dioxide",
	"co":   "Carbon monoxide",
}

// pollutantLabel returns the human label for a feed pollutant key, or the
// raw key when unrecognized.
func pollutantLabel(key string) string {
	if label, ok := pollutantLabels[key]; ok {
		return label
	}
	return key
}
