package racedata

import "time"

const timeLayout = time.RFC3339

// RaceResult is one race's classification as served by the API.
type RaceResult struct {
	Year     int           `json:"year"`
	Round    int           `json:"round"`
	RaceName string        `json:"raceName"`
	Country  string        `json:"country"`
	Circuit  string        `json:"circuit"`
	Date     *string       `json:"date"`
	Results  []ResultEntry `json:"results"`
}

type ResultEntry struct {
	Position   *int    `json:"position"`
	Driver     string  `json:"driver"`
	DriverName string  `json:"driverName"`
	Team       string  `json:"team"`
	Points     float64 `json:"points"`
	Time       *string `json:"time"`
	Status     *string `json:"status"`
	FastestLap *string `json:"fastestLap"`
}

// Telemetry is either one driver's car data or, when no driver was asked for, the list
// of drivers that can be asked for. Error is set instead when the driver has no data.
type Telemetry struct {
	Driver  string           `json:"driver,omitempty"`
	Laps    int              `json:"laps,omitempty"`
	Series  *TelemetrySeries `json:"telemetry,omitempty"`
	Drivers []string         `json:"drivers,omitempty"`
	Message string           `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// TelemetrySeries holds parallel columns; Time is seconds since the first sample.
type TelemetrySeries struct {
	Time     []float64 `json:"time"`
	Speed    []int     `json:"speed"`
	RPM      []int     `json:"rpm"`
	Throttle []int     `json:"throttle"`
	Brake    []int     `json:"brake"`
	Gear     []int     `json:"gear"`
	DRS      []int     `json:"drs"`
}

// LapTimes is either one driver's laps or a per-driver summary.
type LapTimes struct {
	Driver  string                `json:"driver,omitempty"`
	Laps    []LapEntry            `json:"laps,omitempty"`
	Drivers map[string]LapSummary `json:"drivers,omitempty"`
	Error   string                `json:"error,omitempty"`
}

type LapEntry struct {
	Lap      int     `json:"lap"`
	Time     *string `json:"time"`
	Sector1  *string `json:"sector1"`
	Sector2  *string `json:"sector2"`
	Sector3  *string `json:"sector3"`
	Compound *string `json:"compound"`
	TyreAge  *int    `json:"tyreAge"`
}

type LapSummary struct {
	TotalLaps int     `json:"totalLaps"`
	BestLap   *string `json:"bestLap"`
}

// RaceInfo gathers what is known about one session: the event, whether the session has
// run, track status changes, race-control messages and a lap-timing summary. Sections
// with no upstream data are left out.
type RaceInfo struct {
	Year          int                `json:"year"`
	Round         int                `json:"round"`
	Session       string             `json:"session"`
	EventName     string             `json:"event_name"`
	Country       string             `json:"country"`
	Location      string             `json:"location"`
	Circuit       string             `json:"circuit"`
	Date          *string            `json:"date"`
	SessionStatus SessionStatus      `json:"session_status"`
	TrackStatus   *TrackStatusSeries `json:"track_status,omitempty"`
	Messages      []ControlMessage   `json:"race_control_messages,omitempty"`
	TimingData    *TimingData        `json:"timing_data,omitempty"`
}

type SessionStatus struct {
	Status string `json:"status"`
}

// TrackStatusSeries is the track status history as parallel columns.
type TrackStatusSeries struct {
	Status  []string `json:"status"`
	Time    []string `json:"time"`
	Message []string `json:"message"`
}

type ControlMessage struct {
	Time     string `json:"time"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Flag     string `json:"flag,omitempty"`
	Lap      *int   `json:"lap,omitempty"`
}

type TimingData struct {
	Drivers   map[string]DriverTiming `json:"drivers"`
	TotalLaps int                     `json:"total_laps"`
}

type DriverTiming struct {
	TotalLaps      int     `json:"total_laps"`
	BestLapTime    *string `json:"best_lap_time"`
	AverageLapTime *string `json:"average_lap_time"`
}

// TrackStatus lists every track status change and the latest one.
type TrackStatus struct {
	Statuses      []TrackStatusEvent `json:"statuses"`
	CurrentStatus *string            `json:"current_status"`
}

type TrackStatusEvent struct {
	Time    string `json:"time"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
