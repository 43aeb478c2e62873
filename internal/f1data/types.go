package f1data

import (
	"iter"
	"strings"
	"time"
)

// SessionCode names one session of a race weekend.
type SessionCode string

const (
	Practice1        SessionCode = "FP1"
	Practice2        SessionCode = "FP2"
	Practice3        SessionCode = "FP3"
	Qualifying       SessionCode = "Q"
	SprintQualifying SessionCode = "SQ"
	Sprint           SessionCode = "S"
	Race             SessionCode = "R"
)

// ParseSessionCode accepts the short codes (case-insensitive) and a few long names.
func ParseSessionCode(s string) (SessionCode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FP1", "PRACTICE 1":
		return Practice1, nil
	case "FP2", "PRACTICE 2":
		return Practice2, nil
	case "FP3", "PRACTICE 3":
		return Practice3, nil
	case "Q", "QUALIFYING":
		return Qualifying, nil
	case "SQ", "SS", "SPRINT QUALIFYING", "SPRINT SHOOTOUT":
		return SprintQualifying, nil
	case "S", "SPRINT":
		return Sprint, nil
	case "R", "RACE":
		return Race, nil
	}
	return "", ErrInvalidSession
}

// sessionNames lists the OpenF1 session_name values that match each code.
var sessionNames = map[SessionCode][]string{
	Practice1:        {"Practice 1"},
	Practice2:        {"Practice 2"},
	Practice3:        {"Practice 3"},
	Qualifying:       {"Qualifying"},
	SprintQualifying: {"Sprint Qualifying", "Sprint Shootout"},
	Sprint:           {"Sprint"},
	Race:             {"Race"},
}

// SessionTime is a scheduled start as published upstream: a UTC date and an optional
// UTC time-of-day ("15:00:00Z"). Either may be empty.
type SessionTime struct {
	Date string
	Time string
}

// Event is one round of a season's calendar.
type Event struct {
	Season   int
	Round    int
	Name     string
	Country  string
	Locality string
	Circuit  string

	Race     SessionTime
	Sessions map[SessionCode]SessionTime // non-race sessions that are on the calendar
}

// ResultRow is one driver's classification in a race. Position is nil when the driver
// was not classified (retired, disqualified, did not start).
type ResultRow struct {
	Position     *int
	PositionText string
	Number       string
	Driver       string // three-letter code, or the upstream driver id when no code exists
	DriverName   string
	Team         string
	Points       float64
	Grid         int
	Laps         int
	Time         string
	Status       string
	FastestLap   string
}

// RaceResults holds the classified results of one race.
type RaceResults struct {
	Event Event
	rows  []ResultRow
}

// NewRaceResults wraps rows; the slice is copied so later mutation by the caller
// cannot change what Rows yields.
func NewRaceResults(ev Event, rows []ResultRow) *RaceResults {
	return &RaceResults{Event: ev, rows: append([]ResultRow(nil), rows...)}
}

// Rows yields the result rows in classification order. Each call starts over.
func (r *RaceResults) Rows() iter.Seq[ResultRow] {
	return func(yield func(ResultRow) bool) {
		if r == nil {
			return
		}
		for _, row := range r.rows {
			if !yield(row) {
				return
			}
		}
	}
}

// Len is the number of classified rows.
func (r *RaceResults) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rows)
}

// Meeting is an OpenF1 race weekend.
type Meeting struct {
	Key          int
	Name         string
	OfficialName string
	Country      string
	Location     string
	Circuit      string
	Start        time.Time
}

// Driver is an entrant of a session.
type Driver struct {
	Number   int
	Acronym  string
	FullName string
	Team     string
}

// Session identifies one OpenF1 session plus the drivers who took part in it.
type Session struct {
	Key     int
	Code    SessionCode
	Name    string
	Start   time.Time
	End     time.Time
	Year    int
	Round   int
	Meeting Meeting
	Drivers []Driver
}

// DriverByAcronym finds an entrant by three-letter code (case-insensitive).
func (s *Session) DriverByAcronym(code string) (Driver, bool) {
	for _, d := range s.Drivers {
		if strings.EqualFold(d.Acronym, code) {
			return d, true
		}
	}
	return Driver{}, false
}

// Lap is one timed lap. Durations are in seconds; nil means not recorded.
type Lap struct {
	DriverNumber int
	LapNumber    int
	Duration     *float64
	Sector1      *float64
	Sector2      *float64
	Sector3      *float64
	Start        *time.Time
	PitOutLap    bool
}

// Stint is a run on one set of tyres.
type Stint struct {
	DriverNumber   int
	Number         int
	Compound       string
	LapStart       int
	LapEnd         int
	TyreAgeAtStart int
}

// Covers reports whether lap was driven during this stint.
func (s Stint) Covers(lap int) bool {
	return lap >= s.LapStart && (s.LapEnd == 0 || lap <= s.LapEnd)
}

// CarSample is one telemetry reading.
type CarSample struct {
	Date     time.Time
	Speed    int
	RPM      int
	Throttle int
	Brake    int
	Gear     int
	DRS      int
}

// RaceControlMessage is a message from race control: flags, safety car, penalties.
type RaceControlMessage struct {
	Date     time.Time
	Category string
	Flag     string
	Scope    string
	Message  string
	Lap      *int
}
