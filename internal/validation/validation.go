package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrPlaceEmpty is returned when the place name is empty or whitespace-only after trim.
var ErrPlaceEmpty = errors.New("place name is required")

// ErrPlaceTooShort is returned when the place name length is below the minimum.
var ErrPlaceTooShort = errors.New("place name too short")

// ErrPlaceTooLong is returned when the place name length exceeds the maximum.
var ErrPlaceTooLong = errors.New("place name too long")

// ErrPlaceInvalidChars is returned when the place name contains disallowed characters.
var ErrPlaceInvalidChars = errors.New("place name contains invalid characters")

// ErrLatitudeOutOfRange is returned when latitude is outside [-90, 90].
var ErrLatitudeOutOfRange = errors.New("latitude must be between -90 and 90")

// ErrLongitudeOutOfRange is returned when longitude is outside [-180, 180].
var ErrLongitudeOutOfRange = errors.New("longitude must be between -180 and 180")

// ValidatePlace trims the input, enforces length bounds (minLen, maxLen in
// runes), and restricts to allowed characters: letters (Unicode), digits,
// space, comma, hyphen. Returns the trimmed string or an error suitable for
// a 400 response. Normalization (e.g. lowercase) is left to the sources.
func ValidatePlace(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrPlaceEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrPlaceTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrPlaceTooLong
	}
	for _, c := range r {
		if !isAllowedPlaceRune(c) {
			return "", ErrPlaceInvalidChars
		}
	}
	return s, nil
}

// ValidateCoordinates checks latitude and longitude bounds. Runs before any
// upstream call so invalid coordinates never reach a provider.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return ErrLatitudeOutOfRange
	}
	if lon < -180 || lon > 180 {
		return ErrLongitudeOutOfRange
	}
	return nil
}

// isAllowedPlaceRune returns true for letters (Unicode), digits, space, comma, hyphen.
func isAllowedPlaceRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-':
		return true
	}
	return false
}
