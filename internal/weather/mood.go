package weather

import (
	"math/rand"
	"sync"

	"github.com/localpulse/pulse-service/internal/models"
)

// dayPart buckets the local hour for phrase selection: 5-11 morning, 12-16
// afternoon, 17-20 evening, else night.
type dayPart int

const (
	partMorning dayPart = iota
	partAfternoon
	partEvening
	partNight
)

func dayPartForHour(hour int) dayPart {
	switch {
	case hour >= 5 && hour <= 11:
		return partMorning
	case hour >= 12 && hour <= 16:
		return partAfternoon
	case hour >= 17 && hour <= 20:
		return partEvening
	default:
		return partNight
	}
}

var thunderstormLines = []string{
	"Thunder rolling in, best to stay indoors.",
	"Stormy skies overhead, keep the chargers plugged in.",
	"Lightning about, hold off on that drive.",
}

var poorAirLines = []string{
	"Air's rough out there, a mask wouldn't hurt.",
	"Smoggy conditions, keep outdoor time short.",
	"Heavy air today, better to stay in.",
}

var fogLines = []string{
	"Visibility's low, drive slow and careful.",
	"A thick veil over the city this hour.",
	"Foggy out, headlights on and easy does it.",
}

var hotLines = []string{
	"Scorcher out there, keep the water bottle close.",
	"Proper heat today, shade is your friend.",
	"Blazing outside, save the errands for later.",
}

var coldLines = []string{
	"Chilly enough for a warm layer.",
	"Brisk out, carry that jacket.",
	"Cold snap in the air, tea weather for sure.",
}

var rainLines = map[dayPart][]string{
	partMorning:   {"Wet morning, pack an umbrella.", "Rain to start the day, allow extra travel time."},
	partAfternoon: {"Showers this afternoon, plan around them.", "Rainy spell through midday, roads will be slow."},
	partEvening:   {"Rainy evening ahead, head home early.", "Drizzle into the evening, carry cover."},
	partNight:     {"Rain tapping through the night.", "Wet night out there, drive careful."},
}

var cloudLines = map[dayPart][]string{
	partMorning:   {"Grey start, might clear up later.", "Soft clouded morning, easy light."},
	partAfternoon: {"Overcast afternoon, mild and muted.", "Clouds hanging around past lunch."},
	partEvening:   {"Cloudy dusk settling in.", "Muted evening under a grey lid."},
	partNight:     {"Clouded night, no stars on show.", "Overcast and quiet tonight."},
}

var clearLines = map[dayPart][]string{
	partMorning:   {"Crisp clear morning, good day to get out early.", "Bright start, make the most of it."},
	partAfternoon: {"Clear skies this afternoon, lovely out.", "Sunny and open, good walking weather."},
	partEvening:   {"Clear evening, catch the sunset.", "Open skies for the evening stroll."},
	partNight:     {"Clear night, stars are out.", "Calm clear night across town."},
}

// MoodPicker selects a mood line from prioritized phrase buckets. The random
// source is injected so tests can seed it and assert exact phrases.
type MoodPicker struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewMoodPicker creates a picker backed by r.
func NewMoodPicker(r *rand.Rand) *MoodPicker {
	return &MoodPicker{r: r}
}

func (p *MoodPicker) pick(lines []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lines[p.r.Intn(len(lines))]
}

// Line chooses a mood phrase by priority: thunderstorm always wins, then
// fog/mist, then a temperature override (above 35°C or below 15°C), then the
// rain family, then the cloud family, then clear skies. The rain, cloud, and
// clear buckets vary by time of day. The air-quality override sits between
// thunderstorm and fog and is applied by the caller via PoorAirLine, since
// air quality arrives from a different source.
func (p *MoodPicker) Line(cond models.Condition, tempC, localHour int) string {
	if cond == models.ConditionThunderstorm {
		return p.pick(thunderstormLines)
	}
	if cond == models.ConditionFog || cond == models.ConditionMist {
		return p.pick(fogLines)
	}
	if tempC > 35 {
		return p.pick(hotLines)
	}
	if tempC < 15 {
		return p.pick(coldLines)
	}

	part := dayPartForHour(localHour)
	switch cond {
	case models.ConditionLightRain, models.ConditionRain, models.ConditionHeavyRain:
		return p.pick(rainLines[part])
	case models.ConditionPartlyCloudy, models.ConditionCloudy, models.ConditionOvercast,
		models.ConditionSnow, models.ConditionHaze, models.ConditionDust, models.ConditionSmoke:
		return p.pick(cloudLines[part])
	default:
		return p.pick(clearLines[part])
	}
}

// PoorAirLine returns a phrase for the air-quality override (AQI above 150).
func (p *MoodPicker) PoorAirLine() string {
	return p.pick(poorAirLines)
}
