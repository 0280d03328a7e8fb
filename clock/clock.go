package clock

import "time"

// Clock allows injecting time into services.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock that always reports t. Used by tests.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// RestaurantLocation is the time zone "today" is computed in. Falls back to a
// fixed CET offset when the zoneinfo database is unavailable.
var RestaurantLocation = loadLocation()

func loadLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Brussels")
	if err != nil {
		return time.FixedZone("CET", 60*60)
	}
	return loc
}

// Today truncates now to midnight in the restaurant's time zone.
func Today(c Clock) time.Time {
	now := c.Now().In(RestaurantLocation)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, RestaurantLocation)
}
