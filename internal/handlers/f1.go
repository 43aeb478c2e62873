package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/nashfy/pitstop/internal/f1data"
	"github.com/nashfy/pitstop/internal/racedata"
	"github.com/nashfy/pitstop/internal/season"
)

// RaceData is what the F1 routes need from the race data service.
type RaceData interface {
	CurrentYear() int
	Schedule(ctx context.Context, year int, includeSessions bool) ([]season.Race, error)
	RaceResults(ctx context.Context, year, round int, latest bool) (racedata.RaceResult, error)
	DriverStandings(ctx context.Context, year, afterRound int) ([]season.DriverStanding, error)
	ConstructorStandings(ctx context.Context, year, afterRound int) ([]season.ConstructorStanding, error)
	Telemetry(ctx context.Context, year, round int, code f1data.SessionCode, driver string) (racedata.Telemetry, error)
	LapTimes(ctx context.Context, year, round int, code f1data.SessionCode, driver string) (racedata.LapTimes, error)
	RaceInfo(ctx context.Context, year, round int, code f1data.SessionCode) (racedata.RaceInfo, error)
	TrackStatus(ctx context.Context, year, round int, code f1data.SessionCode) (racedata.TrackStatus, error)
	NextRace(ctx context.Context) (season.NextRace, error)
}

// GetRaceSchedule handles GET /api/race-schedule?year=&include_sessions=.
func GetRaceSchedule(svc RaceData) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := queryPositive(c, "year", svc.CurrentYear())
		if err != nil {
			return err
		}
		withSessions, err := queryBool(c, "include_sessions")
		if err != nil {
			return err
		}

		log.Printf("race schedule %d (sessions=%t)", year, withSessions)
		races, err := svc.Schedule(c.UserContext(), year, withSessions)
		if err != nil {
			return failedTo("fetch race schedule", err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"year":    year,
			"races":   races,
			"count":   len(races),
		})
	}
}

// GetRaceResults handles GET /api/race-results?year=&round=&latest=.
func GetRaceResults(svc RaceData) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := queryPositive(c, "year", svc.CurrentYear())
		if err != nil {
			return err
		}
		round, err := queryPositive(c, "round", 0)
		if err != nil {
			return err
		}
		latest, err := queryBool(c, "latest")
		if err != nil {
			return err
		}

		log.Printf("race results %d round %d (latest=%t)", year, round, latest)
		results, err := svc.RaceResults(c.UserContext(), year, round, latest)
		if err != nil {
			return failedTo("fetch race results", err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"year":    year,
			"results": results,
		})
	}
}

// GetDriverStandings handles GET /api/driver-standings?year=&after_round=.
func GetDriverStandings(svc RaceData) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, afterRound, err := standingsParams(c, svc.CurrentYear())
		if err != nil {
			return err
		}
		log.Printf("driver standings %d after round %d", year, afterRound)
		standings, err := svc.DriverStandings(c.UserContext(), year, afterRound)
		if err != nil {
			return failedTo("fetch driver standings", err)
		}
		return c.JSON(fiber.Map{
			"success":   true,
			"year":      year,
			"standings": standings,
		})
	}
}

// GetConstructorStandings handles GET /api/constructor-standings?year=&after_round=.
func GetConstructorStandings(svc RaceData) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, afterRound, err := standingsParams(c, svc.CurrentYear())
		if err != nil {
			return err
		}
		log.Printf("constructor standings %d after round %d", year, afterRound)
		standings, err := svc.ConstructorStandings(c.UserContext(), year, afterRound)
		if err != nil {
			return failedTo("fetch constructor standings", err)
		}
		return c.JSON(fiber.Map{
			"success":   true,
			"year":      year,
			"standings": standings,
		})
	}
}

func standingsParams(c *fiber.Ctx, currentYear int) (year, afterRound int, err error) {
	if year, err = queryPositive(c, "year", currentYear); err != nil {
		return
	}
	// after_round <= 0 means no bound.
	afterRound, err = queryInt(c, "after_round", 0)
	if afterRound < 0 {
		afterRound = 0
	}
	return
}

// GetTelemetry handles GET /api/telemetry?year=&round=&session=&driver=.
func GetTelemetry(svc RaceData) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, round, code, err := sessionParams(c, svc.CurrentYear())
		if err != nil {
			return err
		}
		driver := c.Query("driver")
		log.Printf("telemetry %d round %d %s driver %q", year, round, code, driver)
		telemetry, err := svc.Telemetry(c.UserContext(), year, round, code, driver)
		if err != nil {
			return failedTo("fetch telemetry", err)
		}
		return c.JSON(fiber.Map{
			"success":   true,
			"year":      year,
			"round":     round,
			"session":   code,
			"telemetry": telemetry,
		})
	}
}

// GetLapTimes handles GET /api/lap-times?year=&round=&session=&driver=.
func GetLapTimes(svc RaceData) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, round, code, err := sessionParams(c, svc.CurrentYear())
		if err != nil {
			return err
		}
		driver := c.Query("driver")
		log.Printf("lap times %d round %d %s driver %q", year, round, code, driver)
		laps, err := svc.LapTimes(c.UserContext(), year, round, code, driver)
		if err != nil {
			return failedTo("fetch lap times", err)
		}
		return c.JSON(fiber.Map{
			"success":   true,
			"year":      year,
			"round":     round,
			"session":   code,
			"lap_times": laps,
		})
	}
}

// GetRaceInfo handles GET /api/race-info?year=&round=&session=.
func GetRaceInfo(svc RaceData) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, round, code, err := sessionParams(c, svc.CurrentYear())
		if err != nil {
			return err
		}
		log.Printf("race info %d round %d %s", year, round, code)
		info, err := svc.RaceInfo(c.UserContext(), year, round, code)
		if err != nil {
			return failedTo("fetch race info", err)
		}
		return c.JSON(fiber.Map{
			"success":   true,
			"year":      year,
			"round":     round,
			"session":   code,
			"race_info": info,
		})
	}
}

// GetTrackStatus handles GET /api/track-status?year=&round=&session=.
func GetTrackStatus(svc RaceData) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, round, code, err := sessionParams(c, svc.CurrentYear())
		if err != nil {
			return err
		}
		log.Printf("track status %d round %d %s", year, round, code)
		status, err := svc.TrackStatus(c.UserContext(), year, round, code)
		if err != nil {
			return failedTo("fetch track status", err)
		}
		return c.JSON(fiber.Map{
			"success":      true,
			"year":         year,
			"round":        round,
			"session":      code,
			"track_status": status,
		})
	}
}

// GetNextRace handles GET /api/next-race.
func GetNextRace(svc RaceData) fiber.Handler {
	return func(c *fiber.Ctx) error {
		next, err := svc.NextRace(c.UserContext())
		if err != nil {
			return failedTo("fetch next race", err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"race":    next,
		})
	}
}
