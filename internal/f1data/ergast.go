package f1data

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Wire format of the Ergast-compatible API. Every number arrives as a string.

type ergastResponse struct {
	MRData struct {
		RaceTable struct {
			Races []ergastRace `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

type ergastSession struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type ergastRace struct {
	Season   string `json:"season"`
	Round    string `json:"round"`
	RaceName string `json:"raceName"`
	Circuit  struct {
		CircuitName string `json:"circuitName"`
		Location    struct {
			Locality string `json:"locality"`
			Country  string `json:"country"`
		} `json:"Location"`
	} `json:"Circuit"`
	Date             string         `json:"date"`
	Time             string         `json:"time"`
	FirstPractice    *ergastSession `json:"FirstPractice"`
	SecondPractice   *ergastSession `json:"SecondPractice"`
	ThirdPractice    *ergastSession `json:"ThirdPractice"`
	Qualifying       *ergastSession `json:"Qualifying"`
	SprintQualifying *ergastSession `json:"SprintQualifying"`
	SprintShootout   *ergastSession `json:"SprintShootout"`
	Sprint           *ergastSession `json:"Sprint"`
	Results          []ergastResult `json:"Results"`
}

type ergastResult struct {
	Number       string `json:"number"`
	Position     string `json:"position"`
	PositionText string `json:"positionText"`
	Points       string `json:"points"`
	Driver       struct {
		DriverID   string `json:"driverId"`
		Code       string `json:"code"`
		GivenName  string `json:"givenName"`
		FamilyName string `json:"familyName"`
	} `json:"Driver"`
	Constructor struct {
		Name string `json:"name"`
	} `json:"Constructor"`
	Grid   string `json:"grid"`
	Laps   string `json:"laps"`
	Status string `json:"status"`
	Time   *struct {
		Time string `json:"time"`
	} `json:"Time"`
	FastestLap *struct {
		Time struct {
			Time string `json:"time"`
		} `json:"Time"`
	} `json:"FastestLap"`
}

// Schedule returns the season calendar in round order.
func (c *Client) Schedule(ctx context.Context, year int) ([]Event, error) {
	var resp ergastResponse
	url := fmt.Sprintf("%s/%d.json?limit=100", c.ergastURL, year)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, errors.Wrapf(err, "schedule %d", year)
	}

	events := make([]Event, 0, len(resp.MRData.RaceTable.Races))
	for _, r := range resp.MRData.RaceTable.Races {
		events = append(events, r.event(year))
	}
	return events, nil
}

// RaceResults returns the classification of one race. A race that has not been run
// yet comes back as ErrNotFound.
func (c *Client) RaceResults(ctx context.Context, year, round int) (*RaceResults, error) {
	var resp ergastResponse
	url := fmt.Sprintf("%s/%d/%d/results.json?limit=100", c.ergastURL, year, round)
	published := func() bool {
		races := resp.MRData.RaceTable.Races
		return len(races) > 0 && len(races[0].Results) > 0
	}
	if err := c.fetchJSON(ctx, url, &resp, published); err != nil {
		return nil, errors.Wrapf(err, "results %d round %d", year, round)
	}
	if !published() {
		return nil, errors.Wrapf(ErrNotFound, "results %d round %d", year, round)
	}

	race := resp.MRData.RaceTable.Races[0]
	rows := make([]ResultRow, 0, len(race.Results))
	for _, res := range race.Results {
		rows = append(rows, res.row())
	}
	return NewRaceResults(race.event(year), rows), nil
}

func (r ergastRace) event(year int) Event {
	season := atoi(r.Season)
	if season == 0 {
		season = year
	}
	ev := Event{
		Season:   season,
		Round:    atoi(r.Round),
		Name:     r.RaceName,
		Country:  r.Circuit.Location.Country,
		Locality: r.Circuit.Location.Locality,
		Circuit:  r.Circuit.CircuitName,
		Race:     SessionTime{Date: r.Date, Time: r.Time},
		Sessions: map[SessionCode]SessionTime{},
	}

	add := func(code SessionCode, s *ergastSession) {
		if s != nil && s.Date != "" {
			ev.Sessions[code] = SessionTime{Date: s.Date, Time: s.Time}
		}
	}
	add(Practice1, r.FirstPractice)
	add(Practice2, r.SecondPractice)
	add(Practice3, r.ThirdPractice)
	add(Qualifying, r.Qualifying)
	add(SprintQualifying, r.SprintShootout)
	add(SprintQualifying, r.SprintQualifying)
	add(Sprint, r.Sprint)
	return ev
}

func (res ergastResult) row() ResultRow {
	row := ResultRow{
		PositionText: res.PositionText,
		Number:       res.Number,
		Driver:       res.Driver.Code,
		DriverName:   strings.TrimSpace(res.Driver.GivenName + " " + res.Driver.FamilyName),
		Team:         res.Constructor.Name,
		Grid:         atoi(res.Grid),
		Laps:         atoi(res.Laps),
		Status:       res.Status,
	}
	if row.Driver == "" {
		row.Driver = strings.ToUpper(res.Driver.DriverID)
	}
	// positionText is numeric only for classified finishers ("R", "D", "W" otherwise).
	if p, err := strconv.Atoi(res.PositionText); err == nil {
		row.Position = &p
	}
	if pts, err := strconv.ParseFloat(res.Points, 64); err == nil {
		row.Points = pts
	}
	if res.Time != nil {
		row.Time = res.Time.Time
	}
	if res.FastestLap != nil {
		row.FastestLap = res.FastestLap.Time.Time
	}
	return row
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
