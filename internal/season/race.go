package season

import (
	"strings"
	"time"

	"github.com/nashfy/pitstop/internal/f1data"
)

// Status tells whether a race has been run.
type Status string

const (
	StatusUpcoming  Status = "upcoming"  // start time is in the future
	StatusDone      Status = "done"      // start time has passed
	StatusScheduled Status = "scheduled" // on the calendar but no usable date
)

// Precision tells whether a start time came from upstream or from the fallback.
type Precision string

const (
	PrecisionExact     Precision = "exact"
	PrecisionEstimated Precision = "estimated"
)

// Race is a calendar entry as the API presents it.
type Race struct {
	Round       int                `json:"round"`
	RaceName    string             `json:"raceName"`
	Country     string             `json:"country"`
	Locality    string             `json:"locality"`
	Circuit     string             `json:"circuit"`
	Year        int                `json:"year"`
	Date        *string            `json:"date"`
	Time        *string            `json:"time"`
	DateTime    *string            `json:"datetime"`
	DateTimeUTC *string            `json:"datetime_utc"`
	Precision   Precision          `json:"precision,omitempty"`
	Status      Status             `json:"status"`
	Sessions    map[string]*string `json:"sessions,omitempty"`

	// Start is the local start time; it is only meaningful when HasStart is true.
	Start    time.Time `json:"-"`
	HasStart bool      `json:"-"`
}

// sessionKeys maps upstream session codes to the keys used in Race.Sessions.
var sessionKeys = []struct {
	code   f1data.SessionCode
	key    string
	always bool
}{
	{f1data.Practice1, "fp1", true},
	{f1data.Practice2, "fp2", true},
	{f1data.Practice3, "fp3", true},
	{f1data.SprintQualifying, "sprint_qualifying", false},
	{f1data.Sprint, "sprint", false},
	{f1data.Qualifying, "qualifying", true},
}

// Project turns an upstream calendar event into a Race with local times and a status.
func (c Clock) Project(ev f1data.Event, includeSessions bool) Race {
	r := Race{
		Round:    ev.Round,
		RaceName: ev.Name,
		Country:  ev.Country,
		Locality: ev.Locality,
		Circuit:  ev.Circuit,
		Year:     ev.Season,
		Status:   StatusScheduled,
	}
	if ev.Race.Date != "" {
		r.Date = strPtr(ev.Race.Date)
	}

	if start, precision, ok := c.ResolveStart(ev.Race); ok {
		utc := start.UTC()
		r.Start, r.HasStart = start, true
		r.Precision = precision
		r.Date = strPtr(utc.Format("2006-01-02"))
		r.Time = strPtr(utc.Format("15:04:05"))
		r.DateTime = strPtr(start.Format(time.RFC3339))
		r.DateTimeUTC = strPtr(utc.Format(time.RFC3339))
		r.Status = StatusDone
		if start.After(c.CurrentTime()) {
			r.Status = StatusUpcoming
		}
	}

	if includeSessions {
		r.Sessions = map[string]*string{}
		for _, sk := range sessionKeys {
			st, scheduled := ev.Sessions[sk.code]
			if !scheduled {
				if sk.always {
					r.Sessions[sk.key] = nil
				}
				continue
			}
			if start, _, ok := c.ResolveStart(st); ok {
				r.Sessions[sk.key] = strPtr(start.Format(time.RFC3339))
			} else {
				r.Sessions[sk.key] = nil
			}
		}
		r.Sessions["race"] = r.DateTime
	}
	return r
}

// ResolveStart converts an upstream date and time into a local start time. A missing or
// unparsable time-of-day falls back to the clock's local fallback and is reported as
// estimated; a missing or unparsable date cannot be resolved at all.
func (c Clock) ResolveStart(st f1data.SessionTime) (time.Time, Precision, bool) {
	date := strings.TrimSpace(st.Date)
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, "", false
	}

	if start, ok := parseDateTime(date, st.Time); ok {
		return c.Local(start), PrecisionExact, true
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), c.FallbackHour, c.FallbackMinute, 0, 0, c.zone())
	return start, PrecisionEstimated, true
}

// parseDateTime joins a date with an upstream time such as "15:00:00Z",
// "15:00:00+03:00" or "15:00:00" (taken as UTC). The offset applies to the date too, so
// "01:00:00+03:00" lands on the previous UTC day.
func parseDateTime(date, tod string) (time.Time, bool) {
	tod = strings.TrimSpace(tod)
	if tod == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, date+"T"+tod); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// LatestCompleted returns the round of the most recent race that has already started.
func LatestCompleted(now time.Time, races []Race) (int, bool) {
	var latest *Race
	for i := range races {
		r := &races[i]
		if !r.HasStart || !r.Start.Before(now) {
			continue
		}
		if latest == nil || r.Start.After(latest.Start) {
			latest = r
		}
	}
	if latest == nil {
		return 0, false
	}
	return latest.Round, true
}

func strPtr(s string) *string {
	return &s
}
