// Package season holds the calculations the API derives from raw calendar and result
// data: projecting race times into the local display zone, deciding whether a race is
// upcoming or done, building championship standings, and finding the next race.
//
// Nothing in here performs I/O; callers fetch the data and hand it over.
package season

import (
	"fmt"
	"time"
)

// Clock fixes the zone race times are shown in and the time-of-day assumed when a
// race's start time is unknown. Now is replaceable so tests can freeze time.
type Clock struct {
	Zone           *time.Location
	FallbackHour   int
	FallbackMinute int
	Now            func() time.Time
}

// NewClock builds a Clock for zone with a "HH:MM" fallback start time.
func NewClock(zone *time.Location, fallback string) (Clock, error) {
	t, err := time.Parse("15:04", fallback)
	if err != nil {
		return Clock{}, fmt.Errorf("fallback race time %q: %w", fallback, err)
	}
	return Clock{
		Zone:           zone,
		FallbackHour:   t.Hour(),
		FallbackMinute: t.Minute(),
		Now:            time.Now,
	}, nil
}

// CurrentTime is "now" in the local zone.
func (c Clock) CurrentTime() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().In(c.zone())
}

func (c Clock) zone() *time.Location {
	if c.Zone == nil {
		return time.UTC
	}
	return c.Zone
}

// Local projects t into the local zone. The instant does not change.
func (c Clock) Local(t time.Time) time.Time {
	return t.In(c.zone())
}
