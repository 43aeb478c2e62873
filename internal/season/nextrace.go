package season

import (
	"context"
	"time"
)

// Countdown is the time left until a race, broken into whole units.
type Countdown struct {
	Days         int   `json:"days"`
	Hours        int   `json:"hours"`
	Minutes      int   `json:"minutes"`
	Seconds      int   `json:"seconds"`
	TotalSeconds int64 `json:"total_seconds"`
}

// NewCountdown splits d into days, hours, minutes and seconds. Negative durations
// count as zero.
func NewCountdown(d time.Duration) Countdown {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	return Countdown{
		Days:         int(total / 86400),
		Hours:        int(total % 86400 / 3600),
		Minutes:      int(total % 3600 / 60),
		Seconds:      int(total % 60),
		TotalSeconds: total,
	}
}

// LocateNext returns the earliest race whose start is strictly after now. Races without
// a resolvable start are skipped.
func LocateNext(now time.Time, races []Race) (Race, Countdown, bool) {
	var next *Race
	for i := range races {
		r := &races[i]
		if !r.HasStart || !r.Start.After(now) {
			continue
		}
		if next == nil || r.Start.Before(next.Start) {
			next = r
		}
	}
	if next == nil {
		return Race{}, Countdown{}, false
	}
	return *next, NewCountdown(next.Start.Sub(now)), true
}

// Messages reported by FindNextRace when no countdown can be given.
const (
	MsgNextSeason   = "Next race is in next season"
	MsgNoneUpcoming = "No upcoming race found"
)

// NextRace is the answer to "when is the next race?". Countdown is nil when the race
// comes from next season's calendar; Race is nil when nothing was found at all.
type NextRace struct {
	Race       *Race      `json:"race"`
	Countdown  *Countdown `json:"countdown"`
	NextSeason bool       `json:"next_season"`
	Message    string     `json:"message,omitempty"`
}

// ScheduleLoader fetches the projected calendar for a season.
type ScheduleLoader func(ctx context.Context, year int) ([]Race, error)

// FindNextRace looks for the next race in the current season and, when the season is
// over, returns the first race of the following one without a countdown.
func (c Clock) FindNextRace(ctx context.Context, load ScheduleLoader) (NextRace, error) {
	now := c.CurrentTime()

	races, err := load(ctx, now.Year())
	if err != nil {
		return NextRace{}, err
	}
	if race, cd, ok := LocateNext(now, races); ok {
		return NextRace{Race: &race, Countdown: &cd}, nil
	}

	upcoming, err := load(ctx, now.Year()+1)
	if err != nil {
		return NextRace{}, err
	}
	if first, ok := firstByRound(upcoming); ok {
		return NextRace{Race: &first, NextSeason: true, Message: MsgNextSeason}, nil
	}
	return NextRace{Message: MsgNoneUpcoming}, nil
}

func firstByRound(races []Race) (Race, bool) {
	if len(races) == 0 {
		return Race{}, false
	}
	first := races[0]
	for _, r := range races[1:] {
		if r.Round < first.Round {
			first = r
		}
	}
	return first, true
}
