package weather

import "github.com/localpulse/pulse-service/internal/models"

// conditionRange maps a contiguous block of provider condition codes to one
// Condition. The table is checked in order; the first matching row wins, so
// the named 700-series exceptions sit above the catch-all haze row.
type conditionRange struct {
	lo, hi int
	cond   models.Condition
}

var conditionTable = []conditionRange{
	{200, 299, models.ConditionThunderstorm},
	{300, 399, models.ConditionLightRain},
	{500, 509, models.ConditionRain},
	{510, 599, models.ConditionHeavyRain},
	{600, 699, models.ConditionSnow},
	{701, 701, models.ConditionMist},
	{711, 711, models.ConditionSmoke},
	{721, 721, models.ConditionHaze},
	{731, 731, models.ConditionDust},
	{741, 741, models.ConditionFog},
	{751, 761, models.ConditionDust},
	{762, 799, models.ConditionHaze},
	{800, 800, models.ConditionClear},
	{801, 801, models.ConditionPartlyCloudy},
	{802, 802, models.ConditionCloudy},
	{803, 899, models.ConditionOvercast},
}

// MapConditionCode maps a raw provider condition code onto the fixed
// enumeration. Unknown codes fall back to Cloudy.
func MapConditionCode(code int) models.Condition {
	for _, r := range conditionTable {
		if code >= r.lo && code <= r.hi {
			return r.cond
		}
	}
	return models.ConditionCloudy
}

// compassPoints are the 8-point compass labels, clockwise from north.
var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassDirection converts wind degrees to an 8-point compass label.
func CompassDirection(deg int) string {
	deg = ((deg % 360) + 360) % 360
	idx := ((deg + 22) / 45) % 8
	return compassPoints[idx]
}
