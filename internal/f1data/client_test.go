package f1data

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const scheduleJSON = `{"MRData":{"RaceTable":{"season":"2024","Races":[
 {"season":"2024","round":"1","raceName":"Bahrain Grand Prix",
  "Circuit":{"circuitName":"Bahrain International Circuit","Location":{"locality":"Sakhir","country":"Bahrain"}},
  "date":"2024-03-02","time":"15:00:00Z",
  "FirstPractice":{"date":"2024-02-29","time":"11:30:00Z"},
  "Qualifying":{"date":"2024-03-01","time":"16:00:00Z"}},
 {"season":"2024","round":"2","raceName":"Saudi Arabian Grand Prix",
  "Circuit":{"circuitName":"Jeddah Corniche Circuit","Location":{"locality":"Jeddah","country":"Saudi Arabia"}},
  "date":"2024-03-09"}
]}}}`

const resultsJSON = `{"MRData":{"RaceTable":{"Races":[
 {"season":"2024","round":"1","raceName":"Bahrain Grand Prix",
  "Circuit":{"circuitName":"Bahrain International Circuit","Location":{"locality":"Sakhir","country":"Bahrain"}},
  "date":"2024-03-02","time":"15:00:00Z",
  "Results":[
   {"number":"1","position":"1","positionText":"1","points":"26",
    "Driver":{"driverId":"max_verstappen","code":"VER","givenName":"Max","familyName":"Verstappen"},
    "Constructor":{"name":"Red Bull"},"grid":"1","laps":"57","status":"Finished",
    "Time":{"millis":"5504742","time":"1:31:44.742"},"FastestLap":{"Time":{"time":"1:32.608"}}},
   {"number":"2","position":"20","positionText":"R","points":"0",
    "Driver":{"driverId":"sargeant","givenName":"Logan","familyName":"Sargeant"},
    "Constructor":{"name":"Williams"},"grid":"20","laps":"12","status":"Retired"}
  ]}
]}}}`

const meetingsJSON = `[
 {"meeting_key":1228,"meeting_name":"Pre-Season Testing","country_name":"Bahrain","location":"Sakhir","date_start":"2024-02-21T07:00:00+00:00"},
 {"meeting_key":1229,"meeting_name":"Bahrain Grand Prix","meeting_official_name":"FORMULA 1 GULF AIR BAHRAIN GRAND PRIX 2024","country_name":"Bahrain","location":"Sakhir","circuit_short_name":"Sakhir","date_start":"2024-02-29T11:30:00+00:00"}
]`

const sessionsJSON = `[
 {"session_key":9468,"meeting_key":1229,"session_name":"Practice 1","date_start":"2024-02-29T11:30:00+00:00","date_end":"2024-02-29T12:30:00+00:00"},
 {"session_key":9472,"meeting_key":1229,"session_name":"Race","date_start":"2024-03-02T15:00:00+00:00","date_end":"2024-03-02T17:00:00+00:00"}
]`

const driversJSON = `[
 {"driver_number":16,"name_acronym":"LEC","full_name":"Charles LECLERC","team_name":"Ferrari"},
 {"driver_number":1,"name_acronym":"VER","full_name":"Max VERSTAPPEN","team_name":"Red Bull Racing"},
 {"driver_number":1,"name_acronym":"VER","full_name":"Max VERSTAPPEN","team_name":"Red Bull Racing"}
]`

const lapsJSON = `[
 {"driver_number":1,"lap_number":2,"lap_duration":97.284,"duration_sector_1":31.2,"duration_sector_2":42.1,"duration_sector_3":23.984,"date_start":"2024-03-02T15:05:00.123000+00:00"},
 {"driver_number":1,"lap_number":1,"lap_duration":null,"duration_sector_1":null,"duration_sector_2":41.0,"duration_sector_3":24.0,"date_start":null,"is_pit_out_lap":false}
]`

const raceControlJSON = `[
 {"date":"2024-03-02T15:20:00+00:00","category":"Flag","flag":"YELLOW","scope":"Sector","message":"YELLOW IN TRACK SECTOR 7","lap_number":5},
 {"date":"2024-03-02T15:00:00+00:00","category":"Flag","flag":"GREEN","scope":"Track","message":"GREEN LIGHT - PIT EXIT OPEN","lap_number":null},
 {"date":"2024-03-02T15:30:00+00:00","category":"SafetyCar","flag":null,"scope":null,"message":"SAFETY CAR DEPLOYED","lap_number":9}
]`

type fakeUpstream struct {
	mu   sync.Mutex
	hits map[string]int
}

func newUpstream(t *testing.T) (*fakeUpstream, *httptest.Server) {
	t.Helper()
	up := &fakeUpstream{hits: map[string]int{}}
	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			up.mu.Lock()
			up.hits[r.URL.Path]++
			up.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/ergast/2024.json", serve(scheduleJSON))
	mux.HandleFunc("/ergast/2024/1/results.json", serve(resultsJSON))
	mux.HandleFunc("/ergast/2024/2/results.json", serve(`{"MRData":{"RaceTable":{"Races":[]}}}`))
	mux.HandleFunc("/ergast/2030.json", func(w http.ResponseWriter, r *http.Request) {
		up.mu.Lock()
		up.hits[r.URL.Path]++
		up.mu.Unlock()
		http.Error(w, "boom", http.StatusBadGateway)
	})
	mux.HandleFunc("/openf1/meetings", serve(meetingsJSON))
	mux.HandleFunc("/openf1/sessions", serve(sessionsJSON))
	mux.HandleFunc("/openf1/drivers", serve(driversJSON))
	mux.HandleFunc("/openf1/laps", serve(lapsJSON))
	mux.HandleFunc("/openf1/race_control", serve(raceControlJSON))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return up, srv
}

func (u *fakeUpstream) count(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func newTestClient(srv *httptest.Server, opts ...Option) *Client {
	return NewClient(srv.URL+"/ergast", srv.URL+"/openf1", opts...)
}

func TestSchedule(t *testing.T) {
	_, srv := newUpstream(t)
	c := newTestClient(srv)

	events, err := c.Schedule(context.Background(), 2024)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	bahrain := events[0]
	if bahrain.Round != 1 || bahrain.Name != "Bahrain Grand Prix" || bahrain.Circuit != "Bahrain International Circuit" {
		t.Errorf("unexpected event %+v", bahrain)
	}
	if bahrain.Race.Time != "15:00:00Z" {
		t.Errorf("race time = %q", bahrain.Race.Time)
	}
	if got := bahrain.Sessions[Practice1]; got.Date != "2024-02-29" {
		t.Errorf("FP1 = %+v", got)
	}
	if _, ok := bahrain.Sessions[Practice2]; ok {
		t.Error("FP2 should be absent")
	}
	if events[1].Race.Time != "" {
		t.Errorf("round 2 time = %q, want empty", events[1].Race.Time)
	}
}

func TestRaceResults(t *testing.T) {
	_, srv := newUpstream(t)
	c := newTestClient(srv)

	res, err := c.RaceResults(context.Background(), 2024, 1)
	if err != nil {
		t.Fatalf("RaceResults: %v", err)
	}
	if res.Len() != 2 {
		t.Fatalf("Len = %d", res.Len())
	}

	var rows []ResultRow
	for row := range res.Rows() {
		rows = append(rows, row)
	}
	ver := rows[0]
	if ver.Position == nil || *ver.Position != 1 || ver.Points != 26 || ver.Driver != "VER" || ver.FastestLap != "1:32.608" {
		t.Errorf("winner row = %+v", ver)
	}
	sar := rows[1]
	if sar.Position != nil {
		t.Errorf("retired driver has position %d", *sar.Position)
	}
	if sar.Driver != "SARGEANT" {
		t.Errorf("driver without code = %q, want upstream id", sar.Driver)
	}

	// Rows is restartable.
	n := 0
	for range res.Rows() {
		n++
	}
	if n != 2 {
		t.Errorf("second iteration yielded %d rows", n)
	}
}

func TestRaceResultsNotRunYet(t *testing.T) {
	_, srv := newUpstream(t)
	c := newTestClient(srv)

	_, err := c.RaceResults(context.Background(), 2024, 2)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpstreamFailure(t *testing.T) {
	_, srv := newUpstream(t)
	c := newTestClient(srv)

	_, err := c.Schedule(context.Background(), 2030)
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestSessionResolution(t *testing.T) {
	_, srv := newUpstream(t)
	c := newTestClient(srv)

	s, err := c.Session(context.Background(), 2024, 1, Race)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if s.Key != 9472 || s.Meeting.Key != 1229 {
		t.Errorf("session %d meeting %d, want 9472 / 1229", s.Key, s.Meeting.Key)
	}
	if len(s.Drivers) != 2 || s.Drivers[0].Acronym != "VER" {
		t.Errorf("drivers = %+v", s.Drivers)
	}
	if d, ok := s.DriverByAcronym("lec"); !ok || d.Number != 16 {
		t.Errorf("DriverByAcronym(lec) = %+v %v", d, ok)
	}

	if _, err := c.Session(context.Background(), 2024, 1, Qualifying); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing qualifying err = %v, want ErrNotFound", err)
	}
	if _, err := c.Session(context.Background(), 2024, 9, Race); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown round err = %v, want ErrNotFound", err)
	}
}

func TestLapsAndRaceControl(t *testing.T) {
	_, srv := newUpstream(t)
	c := newTestClient(srv)
	s := &Session{Key: 9472}

	laps, err := c.Laps(context.Background(), s, 1)
	if err != nil {
		t.Fatalf("Laps: %v", err)
	}
	if len(laps) != 2 || laps[0].LapNumber != 1 {
		t.Fatalf("laps not sorted by lap number: %+v", laps)
	}
	if laps[0].Duration != nil || laps[0].Start != nil {
		t.Errorf("lap 1 should have no duration or start: %+v", laps[0])
	}
	if laps[1].Duration == nil || *laps[1].Duration != 97.284 {
		t.Errorf("lap 2 duration = %v", laps[1].Duration)
	}

	msgs, err := c.RaceControl(context.Background(), s)
	if err != nil {
		t.Fatalf("RaceControl: %v", err)
	}
	if len(msgs) != 3 || msgs[0].Flag != "GREEN" || msgs[2].Category != "SafetyCar" {
		t.Errorf("messages = %+v", msgs)
	}
	if msgs[2].Flag != "" || msgs[2].Scope != "" {
		t.Errorf("null flag/scope should decode to empty: %+v", msgs[2])
	}
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapCache) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *mapCache) Put(key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = body
	return nil
}

func TestReadThroughCache(t *testing.T) {
	up, srv := newUpstream(t)
	cache := &mapCache{data: map[string][]byte{}}
	c := newTestClient(srv, WithCache(cache))

	for i := 0; i < 3; i++ {
		if _, err := c.Schedule(context.Background(), 2024); err != nil {
			t.Fatalf("Schedule: %v", err)
		}
	}
	if n := up.count("/ergast/2024.json"); n != 1 {
		t.Errorf("upstream hit %d times, want 1", n)
	}

	// Failed responses are never cached.
	_, _ = c.Schedule(context.Background(), 2030)
	_, _ = c.Schedule(context.Background(), 2030)
	if n := up.count("/ergast/2030.json"); n != 2 {
		t.Errorf("failing endpoint hit %d times, want 2", n)
	}
}

func TestCacheSkipsUnpublishedResults(t *testing.T) {
	var (
		mu        sync.Mutex
		hits      int
		published bool
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/ergast/2024/1/results.json", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		hits++
		w.Header().Set("Content-Type", "application/json")
		if !published {
			_, _ = w.Write([]byte(`{"MRData":{"RaceTable":{"Races":[]}}}`))
			return
		}
		_, _ = w.Write([]byte(resultsJSON))
	})
	mux.HandleFunc("/openf1/laps", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cache := &mapCache{data: map[string][]byte{}}
	c := newTestClient(srv, WithCache(cache))

	if _, err := c.RaceResults(context.Background(), 2024, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("before publishing: err = %v, want ErrNotFound", err)
	}
	if len(cache.data) != 0 {
		t.Fatalf("empty results were cached: %v", cache.data)
	}

	mu.Lock()
	published = true
	mu.Unlock()

	res, err := c.RaceResults(context.Background(), 2024, 1)
	if err != nil {
		t.Fatalf("after publishing: %v", err)
	}
	if res.Len() == 0 {
		t.Error("no rows after publishing")
	}
	if _, err := c.RaceResults(context.Background(), 2024, 1); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	n := hits
	mu.Unlock()
	if n != 2 {
		t.Errorf("upstream hit %d times, want 2", n)
	}

	var laps []openLap
	if err := c.getJSON(context.Background(), srv.URL+"/openf1/laps", &laps); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.data[srv.URL+"/openf1/laps"]; ok {
		t.Error("empty list was cached")
	}
}

func TestParseSessionCode(t *testing.T) {
	cases := map[string]SessionCode{
		"r": Race, "Race": Race, "fp2": Practice2, "Q": Qualifying, "sprint": Sprint, "SQ": SprintQualifying,
	}
	for in, want := range cases {
		got, err := ParseSessionCode(in)
		if err != nil || got != want {
			t.Errorf("ParseSessionCode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseSessionCode("warmup"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("warmup err = %v", err)
	}
}
