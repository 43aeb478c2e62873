// Package racedata answers the API's Formula 1 questions by combining the upstream data
// source with the season calculations. Every upstream call is run on the worker pool so
// request handlers never wait on the network directly.
package racedata

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/nashfy/pitstop/internal/f1data"
	"github.com/nashfy/pitstop/internal/season"
	"github.com/nashfy/pitstop/internal/worker"
)

// ErrRoundRequired is returned when results are requested without a round and no
// completed race could stand in for it.
var ErrRoundRequired = errors.New("round number required or no completed races found")

// Service is safe for concurrent use.
type Service struct {
	src   f1data.Source
	pool  *worker.Pool
	clock season.Clock
}

// New wires a Service. The pool bounds how many upstream calls run at once.
func New(src f1data.Source, pool *worker.Pool, clock season.Clock) *Service {
	return &Service{src: src, pool: pool, clock: clock}
}

// CurrentYear is the season "now" falls in, in the local zone.
func (s *Service) CurrentYear() int {
	return s.clock.CurrentTime().Year()
}

// Schedule returns the season's calendar with local times and statuses.
func (s *Service) Schedule(ctx context.Context, year int, includeSessions bool) ([]season.Race, error) {
	events, err := worker.Do(ctx, s.pool, func(ctx context.Context) ([]f1data.Event, error) {
		return s.src.Schedule(ctx, year)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "schedule %d", year)
	}

	races := make([]season.Race, 0, len(events))
	for _, ev := range events {
		races = append(races, s.clock.Project(ev, includeSessions))
	}
	return races, nil
}

// RaceResults returns one race's classification. With latest set, round is ignored and
// the most recent race already run is used instead.
func (s *Service) RaceResults(ctx context.Context, year, round int, latest bool) (RaceResult, error) {
	if latest {
		races, err := s.Schedule(ctx, year, false)
		if err != nil {
			return RaceResult{}, err
		}
		last, ok := season.LatestCompleted(s.clock.CurrentTime(), races)
		if !ok {
			return RaceResult{}, ErrRoundRequired
		}
		round = last
	}
	if round <= 0 {
		return RaceResult{}, ErrRoundRequired
	}

	res, err := worker.Do(ctx, s.pool, func(ctx context.Context) (*f1data.RaceResults, error) {
		return s.src.RaceResults(ctx, year, round)
	})
	if err != nil {
		return RaceResult{}, errors.Wrapf(err, "results %d round %d", year, round)
	}
	return s.raceResult(year, round, res), nil
}

func (s *Service) raceResult(year, round int, res *f1data.RaceResults) RaceResult {
	out := RaceResult{
		Year:     year,
		Round:    round,
		RaceName: res.Event.Name,
		Country:  res.Event.Country,
		Circuit:  res.Event.Circuit,
		Results:  make([]ResultEntry, 0, res.Len()),
	}
	if start, _, ok := s.clock.ResolveStart(res.Event.Race); ok {
		out.Date = stringOrNil(start.Format(timeLayout))
	}
	for row := range res.Rows() {
		out.Results = append(out.Results, ResultEntry{
			Position:   row.Position,
			Driver:     row.Driver,
			DriverName: row.DriverName,
			Team:       row.Team,
			Points:     row.Points,
			Time:       stringOrNil(row.Time),
			Status:     stringOrNil(row.Status),
			FastestLap: stringOrNil(row.FastestLap),
		})
	}
	return out
}

// DriverStandings builds the drivers' championship up to afterRound (<= 0 for all).
func (s *Service) DriverStandings(ctx context.Context, year, afterRound int) ([]season.DriverStanding, error) {
	rounds, err := s.seasonResults(ctx, year, afterRound)
	if err != nil {
		return nil, err
	}
	return season.DriverStandings(rounds, afterRound), nil
}

// ConstructorStandings builds the constructors' championship up to afterRound.
func (s *Service) ConstructorStandings(ctx context.Context, year, afterRound int) ([]season.ConstructorStanding, error) {
	rounds, err := s.seasonResults(ctx, year, afterRound)
	if err != nil {
		return nil, err
	}
	return season.ConstructorStandings(rounds, afterRound), nil
}

// seasonResults loads the classification of every round up to the bound in parallel and
// returns them in round order. Rounds that have not been run are not requested; a round
// whose load fails is kept with its error so the aggregation can skip it.
func (s *Service) seasonResults(ctx context.Context, year, afterRound int) ([]season.RoundResult, error) {
	races, err := s.Schedule(ctx, year, false)
	if err != nil {
		return nil, err
	}

	type pending struct {
		round int
		ch    <-chan worker.Result[*f1data.RaceResults]
	}
	var jobs []pending
	for _, r := range races {
		if afterRound > 0 && r.Round > afterRound {
			continue
		}
		if r.Status == season.StatusUpcoming {
			continue
		}
		round := r.Round
		jobs = append(jobs, pending{round: round, ch: worker.Submit(ctx, s.pool, func(ctx context.Context) (*f1data.RaceResults, error) {
			return s.src.RaceResults(ctx, year, round)
		})})
	}

	rounds := make([]season.RoundResult, 0, len(jobs))
	for _, j := range jobs {
		var res worker.Result[*f1data.RaceResults]
		select {
		case res = <-j.ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if res.Err != nil && !errors.Is(res.Err, f1data.ErrNotFound) {
			log.Printf("standings %d: skipping round %d: %v", year, j.round, res.Err)
		}
		rounds = append(rounds, season.RoundResult{Round: j.round, Results: res.Value, Err: res.Err})
	}
	return rounds, nil
}

// NextRace finds the next race, falling back to next season's opener.
func (s *Service) NextRace(ctx context.Context) (season.NextRace, error) {
	return s.clock.FindNextRace(ctx, func(ctx context.Context, year int) ([]season.Race, error) {
		races, err := s.Schedule(ctx, year, false)
		if errors.Is(err, f1data.ErrNotFound) {
			return nil, nil
		}
		return races, err
	})
}

// session resolves a session on the pool.
func (s *Service) session(ctx context.Context, year, round int, code f1data.SessionCode) (*f1data.Session, error) {
	sess, err := worker.Do(ctx, s.pool, func(ctx context.Context) (*f1data.Session, error) {
		return s.src.Session(ctx, year, round, code)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "session %d round %d %s", year, round, code)
	}
	return sess, nil
}

func stringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
