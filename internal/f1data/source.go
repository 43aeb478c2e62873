// Package f1data fetches Formula 1 schedules, results and session timing from public
// motorsport APIs.
//
// Calendars and classified results come from an Ergast-compatible API; laps, stints,
// car telemetry and race-control messages come from OpenF1. Responses can be kept in an
// on-disk cache that the caller opens once and injects into the Client.
package f1data

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound means the season, round, meeting or session does not exist upstream,
	// or exists but has no data yet (for example a race that has not been run).
	ErrNotFound = errors.New("f1data: not found")
	// ErrUpstream means the upstream API answered with an unexpected status.
	ErrUpstream = errors.New("f1data: upstream error")
	// ErrInvalidSession means a session code could not be recognised.
	ErrInvalidSession = errors.New("f1data: invalid session")
)

// Source is everything the API needs from the data provider.
type Source interface {
	Schedule(ctx context.Context, year int) ([]Event, error)
	RaceResults(ctx context.Context, year, round int) (*RaceResults, error)
	Session(ctx context.Context, year, round int, code SessionCode) (*Session, error)

	// Laps returns laps for one driver, or for every driver when driverNumber is 0.
	Laps(ctx context.Context, s *Session, driverNumber int) ([]Lap, error)
	Stints(ctx context.Context, s *Session) ([]Stint, error)
	CarData(ctx context.Context, s *Session, driverNumber int) ([]CarSample, error)
	RaceControl(ctx context.Context, s *Session) ([]RaceControlMessage, error)
}

// Cache stores raw upstream response bodies by request URL.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, body []byte) error
}
