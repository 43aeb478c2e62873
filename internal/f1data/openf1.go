package f1data

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// meetingWindow is how far after a meeting's first session the race may fall.
const meetingWindow = 5 * 24 * time.Hour

// openTime decodes OpenF1 timestamps, which may be null.
type openTime struct {
	time.Time
	Valid bool
}

func (t *openTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) || len(b) < 2 {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	t.Time, t.Valid = parsed.UTC(), true
	return nil
}

func (t openTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

type openMeeting struct {
	MeetingKey          int      `json:"meeting_key"`
	MeetingName         string   `json:"meeting_name"`
	MeetingOfficialName string   `json:"meeting_official_name"`
	CountryName         string   `json:"country_name"`
	Location            string   `json:"location"`
	CircuitShortName    string   `json:"circuit_short_name"`
	DateStart           openTime `json:"date_start"`
}

type openSession struct {
	SessionKey  int      `json:"session_key"`
	MeetingKey  int      `json:"meeting_key"`
	SessionName string   `json:"session_name"`
	DateStart   openTime `json:"date_start"`
	DateEnd     openTime `json:"date_end"`
}

type openDriver struct {
	DriverNumber int    `json:"driver_number"`
	NameAcronym  string `json:"name_acronym"`
	FullName     string `json:"full_name"`
	TeamName     string `json:"team_name"`
}

type openLap struct {
	DriverNumber    int      `json:"driver_number"`
	LapNumber       int      `json:"lap_number"`
	LapDuration     *float64 `json:"lap_duration"`
	DurationSector1 *float64 `json:"duration_sector_1"`
	DurationSector2 *float64 `json:"duration_sector_2"`
	DurationSector3 *float64 `json:"duration_sector_3"`
	DateStart       openTime `json:"date_start"`
	IsPitOutLap     bool     `json:"is_pit_out_lap"`
}

type openStint struct {
	DriverNumber   int    `json:"driver_number"`
	StintNumber    int    `json:"stint_number"`
	Compound       string `json:"compound"`
	LapStart       int    `json:"lap_start"`
	LapEnd         int    `json:"lap_end"`
	TyreAgeAtStart int    `json:"tyre_age_at_start"`
}

type openCarData struct {
	Date     openTime `json:"date"`
	Speed    int      `json:"speed"`
	RPM      int      `json:"rpm"`
	Throttle int      `json:"throttle"`
	Brake    int      `json:"brake"`
	NGear    int      `json:"n_gear"`
	DRS      int      `json:"drs"`
}

type openRaceControl struct {
	Date      openTime `json:"date"`
	Category  string   `json:"category"`
	Flag      *string  `json:"flag"`
	Scope     *string  `json:"scope"`
	Message   string   `json:"message"`
	LapNumber *int     `json:"lap_number"`
}

// Session resolves (year, round, code) to an OpenF1 session. The round's race date from
// the calendar picks the meeting; the code picks the session inside it.
func (c *Client) Session(ctx context.Context, year, round int, code SessionCode) (*Session, error) {
	names, ok := sessionNames[code]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidSession, "session %q", code)
	}

	events, err := c.Schedule(ctx, year)
	if err != nil {
		return nil, err
	}
	var ev *Event
	for i := range events {
		if events[i].Round == round {
			ev = &events[i]
			break
		}
	}
	if ev == nil {
		return nil, errors.Wrapf(ErrNotFound, "round %d of %d", round, year)
	}
	raceDay, err := time.Parse("2006-01-02", ev.Race.Date)
	if err != nil {
		return nil, errors.Wrapf(ErrNotFound, "round %d of %d has no race date", round, year)
	}

	meeting, err := c.meetingFor(ctx, year, raceDay)
	if err != nil {
		return nil, errors.Wrapf(err, "round %d of %d", round, year)
	}

	var sessions []openSession
	if err := c.getJSON(ctx, fmt.Sprintf("%s/sessions?meeting_key=%d", c.openF1URL, meeting.Key), &sessions); err != nil {
		return nil, err
	}
	var match *openSession
	for i := range sessions {
		for _, name := range names {
			if strings.EqualFold(sessions[i].SessionName, name) {
				match = &sessions[i]
			}
		}
	}
	if match == nil {
		return nil, errors.Wrapf(ErrNotFound, "no %s session in %s", code, meeting.Name)
	}

	var drivers []openDriver
	if err := c.getJSON(ctx, fmt.Sprintf("%s/drivers?session_key=%d", c.openF1URL, match.SessionKey), &drivers); err != nil {
		return nil, err
	}

	s := &Session{
		Key:     match.SessionKey,
		Code:    code,
		Name:    match.SessionName,
		Start:   match.DateStart.Time,
		End:     match.DateEnd.Time,
		Year:    year,
		Round:   round,
		Meeting: meeting,
	}
	seen := map[int]bool{}
	for _, d := range drivers {
		if seen[d.DriverNumber] {
			continue
		}
		seen[d.DriverNumber] = true
		s.Drivers = append(s.Drivers, Driver{
			Number:   d.DriverNumber,
			Acronym:  d.NameAcronym,
			FullName: d.FullName,
			Team:     d.TeamName,
		})
	}
	sort.Slice(s.Drivers, func(i, j int) bool { return s.Drivers[i].Number < s.Drivers[j].Number })
	return s, nil
}

// meetingFor finds the non-testing meeting whose first session is at most
// meetingWindow before raceDay.
func (c *Client) meetingFor(ctx context.Context, year int, raceDay time.Time) (Meeting, error) {
	var meetings []openMeeting
	if err := c.getJSON(ctx, fmt.Sprintf("%s/meetings?year=%d", c.openF1URL, year), &meetings); err != nil {
		return Meeting{}, err
	}

	var best *openMeeting
	for i := range meetings {
		m := &meetings[i]
		if !m.DateStart.Valid || strings.Contains(strings.ToLower(m.MeetingName), "testing") {
			continue
		}
		startDay := m.DateStart.Truncate(24 * time.Hour)
		if raceDay.Before(startDay) || raceDay.Sub(startDay) > meetingWindow {
			continue
		}
		if best == nil || m.DateStart.After(best.DateStart.Time) {
			best = m
		}
	}
	if best == nil {
		return Meeting{}, errors.Wrapf(ErrNotFound, "no meeting around %s", raceDay.Format("2006-01-02"))
	}
	return Meeting{
		Key:          best.MeetingKey,
		Name:         best.MeetingName,
		OfficialName: best.MeetingOfficialName,
		Country:      best.CountryName,
		Location:     best.Location,
		Circuit:      best.CircuitShortName,
		Start:        best.DateStart.Time,
	}, nil
}

// Laps returns laps ordered by driver then lap number.
func (c *Client) Laps(ctx context.Context, s *Session, driverNumber int) ([]Lap, error) {
	url := fmt.Sprintf("%s/laps?session_key=%d", c.openF1URL, s.Key)
	if driverNumber > 0 {
		url += fmt.Sprintf("&driver_number=%d", driverNumber)
	}
	var raw []openLap
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, errors.Wrapf(err, "laps for session %d", s.Key)
	}

	laps := make([]Lap, 0, len(raw))
	for _, l := range raw {
		laps = append(laps, Lap{
			DriverNumber: l.DriverNumber,
			LapNumber:    l.LapNumber,
			Duration:     l.LapDuration,
			Sector1:      l.DurationSector1,
			Sector2:      l.DurationSector2,
			Sector3:      l.DurationSector3,
			Start:        l.DateStart.ptr(),
			PitOutLap:    l.IsPitOutLap,
		})
	}
	sort.SliceStable(laps, func(i, j int) bool {
		if laps[i].DriverNumber != laps[j].DriverNumber {
			return laps[i].DriverNumber < laps[j].DriverNumber
		}
		return laps[i].LapNumber < laps[j].LapNumber
	})
	return laps, nil
}

// Stints returns every tyre stint of the session.
func (c *Client) Stints(ctx context.Context, s *Session) ([]Stint, error) {
	var raw []openStint
	if err := c.getJSON(ctx, fmt.Sprintf("%s/stints?session_key=%d", c.openF1URL, s.Key), &raw); err != nil {
		return nil, errors.Wrapf(err, "stints for session %d", s.Key)
	}
	stints := make([]Stint, 0, len(raw))
	for _, st := range raw {
		stints = append(stints, Stint{
			DriverNumber:   st.DriverNumber,
			Number:         st.StintNumber,
			Compound:       st.Compound,
			LapStart:       st.LapStart,
			LapEnd:         st.LapEnd,
			TyreAgeAtStart: st.TyreAgeAtStart,
		})
	}
	return stints, nil
}

// CarData returns the telemetry samples of one driver in time order.
func (c *Client) CarData(ctx context.Context, s *Session, driverNumber int) ([]CarSample, error) {
	var raw []openCarData
	url := fmt.Sprintf("%s/car_data?session_key=%d&driver_number=%d", c.openF1URL, s.Key, driverNumber)
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, errors.Wrapf(err, "car data for driver %d", driverNumber)
	}
	samples := make([]CarSample, 0, len(raw))
	for _, d := range raw {
		if !d.Date.Valid {
			continue
		}
		samples = append(samples, CarSample{
			Date:     d.Date.Time,
			Speed:    d.Speed,
			RPM:      d.RPM,
			Throttle: d.Throttle,
			Brake:    d.Brake,
			Gear:     d.NGear,
			DRS:      d.DRS,
		})
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Date.Before(samples[j].Date) })
	return samples, nil
}

// RaceControl returns race-control messages in time order.
func (c *Client) RaceControl(ctx context.Context, s *Session) ([]RaceControlMessage, error) {
	var raw []openRaceControl
	if err := c.getJSON(ctx, fmt.Sprintf("%s/race_control?session_key=%d", c.openF1URL, s.Key), &raw); err != nil {
		return nil, errors.Wrapf(err, "race control for session %d", s.Key)
	}
	msgs := make([]RaceControlMessage, 0, len(raw))
	for _, m := range raw {
		msg := RaceControlMessage{
			Date:     m.Date.Time,
			Category: m.Category,
			Message:  m.Message,
			Lap:      m.LapNumber,
		}
		if m.Flag != nil {
			msg.Flag = *m.Flag
		}
		if m.Scope != nil {
			msg.Scope = *m.Scope
		}
		msgs = append(msgs, msg)
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Date.Before(msgs[j].Date) })
	return msgs, nil
}
