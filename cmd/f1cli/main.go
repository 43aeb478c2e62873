// cmd/f1cli/main.go
// f1cli prints the same data the API serves, as terminal tables, without starting the
// HTTP server. It reads the same environment as the server and shares its response cache.
//
//	f1cli schedule     [-year N]
//	f1cli standings    [-year N] [-after-round N]
//	f1cli constructors [-year N] [-after-round N]
//	f1cli next
//	f1cli admin-token  -subject NAME [-email ADDR] [-ttl 24h]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nashfy/pitstop/internal/config"
	"github.com/nashfy/pitstop/internal/f1data"
	"github.com/nashfy/pitstop/internal/f1data/cache"
	"github.com/nashfy/pitstop/internal/middleware"
	"github.com/nashfy/pitstop/internal/racedata"
	"github.com/nashfy/pitstop/internal/season"
	"github.com/nashfy/pitstop/internal/worker"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: f1cli schedule|standings|constructors|next|admin-token [flags]")
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}
	cmd, args := os.Args[1], os.Args[2:]
	cfg := config.Load()

	if cmd == "admin-token" {
		adminToken(cfg, args)
		return
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	year := fs.Int("year", 0, "season (default: current)")
	afterRound := fs.Int("after-round", 0, "only count rounds up to and including this one")
	_ = fs.Parse(args)

	svc, closeFn, err := newService(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeFn()

	if *year == 0 {
		*year = svc.CurrentYear()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cmd {
	case "schedule":
		err = printSchedule(ctx, svc, *year)
	case "standings":
		err = printDriverStandings(ctx, svc, *year, *afterRound)
	case "constructors":
		err = printConstructorStandings(ctx, svc, *year, *afterRound)
	case "next":
		err = printNextRace(ctx, svc)
	default:
		usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func newService(cfg *config.Config) (*racedata.Service, func(), error) {
	closeFn := func() {}
	var opts []f1data.Option
	if cfg.CachePath != "" {
		store, err := cache.Open(cfg.CachePath, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		closeFn = func() { store.Close() }
		opts = append(opts, f1data.WithCache(store))
	}

	clock, err := season.NewClock(cfg.LocalZone(), cfg.FallbackRaceTime)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	src := f1data.NewClient(cfg.ErgastBaseURL, cfg.OpenF1BaseURL, opts...)
	pool := worker.New(cfg.WorkerPoolSize, cfg.FetchTimeout)
	return racedata.New(src, pool, clock), closeFn, nil
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func printSchedule(ctx context.Context, svc *racedata.Service, year int) error {
	races, err := svc.Schedule(ctx, year, false)
	if err != nil {
		return err
	}
	t := newTable(fmt.Sprintf("%d calendar", year))
	t.AppendHeader(table.Row{"Rd", "Race", "Circuit", "Country", "Start (local)", "Status"})
	for _, r := range races {
		start := deref(r.DateTime)
		if r.Precision == season.PrecisionEstimated {
			start += " *"
		}
		t.AppendRow(table.Row{r.Round, r.RaceName, r.Circuit, r.Country, start, r.Status})
	}
	t.AppendFooter(table.Row{"", "", "", "", "* estimated start", ""})
	t.Render()
	return nil
}

func printDriverStandings(ctx context.Context, svc *racedata.Service, year, afterRound int) error {
	standings, err := svc.DriverStandings(ctx, year, afterRound)
	if err != nil {
		return err
	}
	t := newTable(fmt.Sprintf("%d drivers", year))
	t.AppendHeader(table.Row{"Pos", "Driver", "Name", "Team", "Points", "Wins"})
	for _, s := range standings {
		t.AppendRow(table.Row{s.Position, s.Driver, s.DriverName, s.Team, s.Points, s.Wins})
	}
	t.Render()
	return nil
}

func printConstructorStandings(ctx context.Context, svc *racedata.Service, year, afterRound int) error {
	standings, err := svc.ConstructorStandings(ctx, year, afterRound)
	if err != nil {
		return err
	}
	t := newTable(fmt.Sprintf("%d constructors", year))
	t.AppendHeader(table.Row{"Pos", "Team", "Points", "Wins"})
	for _, s := range standings {
		t.AppendRow(table.Row{s.Position, s.Team, s.Points, s.Wins})
	}
	t.Render()
	return nil
}

func printNextRace(ctx context.Context, svc *racedata.Service) error {
	next, err := svc.NextRace(ctx)
	if err != nil {
		return err
	}
	if next.Race == nil {
		fmt.Println(next.Message)
		return nil
	}

	r := next.Race
	t := newTable("Next race")
	t.AppendRow(table.Row{"Race", fmt.Sprintf("%d round %d: %s", r.Year, r.Round, r.RaceName)})
	t.AppendRow(table.Row{"Circuit", r.Circuit})
	t.AppendRow(table.Row{"Start (local)", deref(r.DateTime)})
	if c := next.Countdown; c != nil {
		t.AppendRow(table.Row{"Countdown", fmt.Sprintf("%dd %02dh %02dm %02ds", c.Days, c.Hours, c.Minutes, c.Seconds)})
	}
	if next.Message != "" {
		t.AppendRow(table.Row{"Note", next.Message})
	}
	t.Render()
	return nil
}

func adminToken(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("admin-token", flag.ExitOnError)
	subject := fs.String("subject", "", "admin identifier (required)")
	email := fs.String("email", "", "admin email")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	_ = fs.Parse(args)

	if cfg.AdminJWTSecret == "" {
		log.Fatal("ADMIN_JWT_SECRET is not set")
	}
	if *subject == "" {
		log.Fatal("-subject is required")
	}
	token, err := middleware.SignToken(cfg.AdminJWTSecret, *subject, *email, middleware.RoleAdmin, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
