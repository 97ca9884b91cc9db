package pulse

import "errors"

// Pulse-level failure sentinels. The HTTP layer maps these onto response
// error kinds without importing the upstream source packages.
var (
	// ErrLocationRequired is returned when a user has no resolvable location
	// and no place was supplied.
	ErrLocationRequired = errors.New("location required")

	// ErrLocationNotFound is returned when the weather provider does not
	// recognize the requested place.
	ErrLocationNotFound = errors.New("location not found")

	// ErrInvalidCoordinates is returned when latitude or longitude falls
	// outside the valid range. No upstream call is made.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrRateLimited is returned when the weather provider rejects the call
	// for quota reasons.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnavailable is returned for any other weather-source failure.
	// Weather is the backbone of a pulse; without it there is no response.
	ErrUnavailable = errors.New("service unavailable")
)
