package season

import (
	"sort"

	"github.com/nashfy/pitstop/internal/f1data"
)

// RoundResult is the outcome of loading one round's classification. A round whose
// load failed carries Err and is left out of the standings.
type RoundResult struct {
	Round   int
	Results *f1data.RaceResults
	Err     error
}

// DriverStanding is one row of the drivers' championship.
type DriverStanding struct {
	Position   int     `json:"position"`
	Driver     string  `json:"driver"`
	DriverName string  `json:"driverName"`
	Team       string  `json:"team"`
	Points     float64 `json:"points"`
	Wins       int     `json:"wins"`
}

// ConstructorStanding is one row of the constructors' championship.
type ConstructorStanding struct {
	Position int     `json:"position"`
	Team     string  `json:"team"`
	Points   float64 `json:"points"`
	Wins     int     `json:"wins"`
}

// DriverStandings sums points and wins per driver over every loaded round up to and
// including afterRound (afterRound <= 0 means every round). Drivers are keyed by their
// abbreviation; the name and team are taken from the first round they appear in.
// Equal points keep the order in which drivers were first seen.
func DriverStandings(rounds []RoundResult, afterRound int) []DriverStanding {
	var out []DriverStanding
	index := map[string]int{}

	for _, rr := range included(rounds, afterRound) {
		for row := range rr.Results.Rows() {
			i, seen := index[row.Driver]
			if !seen {
				i = len(out)
				index[row.Driver] = i
				out = append(out, DriverStanding{Driver: row.Driver, DriverName: row.DriverName, Team: row.Team})
			}
			out[i].Points += row.Points
			if won(row) {
				out[i].Wins++
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Points > out[b].Points })
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// ConstructorStandings is DriverStandings keyed by team name.
func ConstructorStandings(rounds []RoundResult, afterRound int) []ConstructorStanding {
	var out []ConstructorStanding
	index := map[string]int{}

	for _, rr := range included(rounds, afterRound) {
		for row := range rr.Results.Rows() {
			i, seen := index[row.Team]
			if !seen {
				i = len(out)
				index[row.Team] = i
				out = append(out, ConstructorStanding{Team: row.Team})
			}
			out[i].Points += row.Points
			if won(row) {
				out[i].Wins++
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Points > out[b].Points })
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// included returns the successfully loaded rounds within the bound, in round order.
func included(rounds []RoundResult, afterRound int) []RoundResult {
	out := make([]RoundResult, 0, len(rounds))
	for _, rr := range rounds {
		if rr.Err != nil || rr.Results == nil {
			continue
		}
		if afterRound > 0 && rr.Round > afterRound {
			continue
		}
		out = append(out, rr)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Round < out[b].Round })
	return out
}

func won(row f1data.ResultRow) bool {
	return row.Position != nil && *row.Position == 1
}
