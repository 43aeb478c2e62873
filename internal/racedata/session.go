package racedata

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/nashfy/pitstop/internal/f1data"
	"github.com/nashfy/pitstop/internal/worker"
)

// MsgSpecifyDriver accompanies the driver list when telemetry is requested without a driver.
const MsgSpecifyDriver = "Specify a driver to get detailed telemetry"

// Session status values.
const (
	SessionScheduled = "Scheduled"
	SessionStarted   = "Started"
	SessionFinished  = "Finished"
	SessionUnknown   = "Unknown"
)

func noDataFor(driver string) string {
	return fmt.Sprintf("No data found for driver %s", driver)
}

// Telemetry returns a driver's car data for a session, or the session's driver codes
// when driver is empty.
func (s *Service) Telemetry(ctx context.Context, year, round int, code f1data.SessionCode, driver string) (Telemetry, error) {
	driver = normalizeDriver(driver)
	sess, err := s.session(ctx, year, round, code)
	if err != nil {
		return Telemetry{}, err
	}

	if driver == "" {
		codes := make([]string, 0, len(sess.Drivers))
		for _, d := range sess.Drivers {
			codes = append(codes, d.Acronym)
		}
		return Telemetry{Drivers: codes, Message: MsgSpecifyDriver}, nil
	}

	d, ok := sess.DriverByAcronym(driver)
	if !ok {
		return Telemetry{Error: noDataFor(driver)}, nil
	}

	lapsCh := worker.Submit(ctx, s.pool, func(ctx context.Context) ([]f1data.Lap, error) {
		return s.src.Laps(ctx, sess, d.Number)
	})
	carCh := worker.Submit(ctx, s.pool, func(ctx context.Context) ([]f1data.CarSample, error) {
		return s.src.CarData(ctx, sess, d.Number)
	})
	laps, err := await(ctx, lapsCh)
	if err != nil {
		return Telemetry{}, errors.Wrapf(err, "laps for %s", d.Acronym)
	}
	samples, err := await(ctx, carCh)
	if err != nil {
		return Telemetry{}, errors.Wrapf(err, "car data for %s", d.Acronym)
	}
	if len(laps) == 0 {
		return Telemetry{Error: noDataFor(driver)}, nil
	}

	series := newSeries(samples)
	return Telemetry{Driver: d.Acronym, Laps: len(laps), Series: &series}, nil
}

func newSeries(samples []f1data.CarSample) TelemetrySeries {
	n := len(samples)
	ts := TelemetrySeries{
		Time:     make([]float64, 0, n),
		Speed:    make([]int, 0, n),
		RPM:      make([]int, 0, n),
		Throttle: make([]int, 0, n),
		Brake:    make([]int, 0, n),
		Gear:     make([]int, 0, n),
		DRS:      make([]int, 0, n),
	}
	for _, c := range samples {
		ts.Time = append(ts.Time, c.Date.Sub(samples[0].Date).Seconds())
		ts.Speed = append(ts.Speed, c.Speed)
		ts.RPM = append(ts.RPM, c.RPM)
		ts.Throttle = append(ts.Throttle, c.Throttle)
		ts.Brake = append(ts.Brake, c.Brake)
		ts.Gear = append(ts.Gear, c.Gear)
		ts.DRS = append(ts.DRS, c.DRS)
	}
	return ts
}

// LapTimes returns a driver's laps with sector times and tyres, or a per-driver summary
// of lap count and best lap when driver is empty.
func (s *Service) LapTimes(ctx context.Context, year, round int, code f1data.SessionCode, driver string) (LapTimes, error) {
	driver = normalizeDriver(driver)
	sess, err := s.session(ctx, year, round, code)
	if err != nil {
		return LapTimes{}, err
	}

	if driver == "" {
		laps, err := worker.Do(ctx, s.pool, func(ctx context.Context) ([]f1data.Lap, error) {
			return s.src.Laps(ctx, sess, 0)
		})
		if err != nil {
			return LapTimes{}, errors.Wrap(err, "laps")
		}
		summary := map[string]LapSummary{}
		for number, dl := range lapsByDriver(laps) {
			summary[acronym(sess, number)] = LapSummary{TotalLaps: len(dl), BestLap: formatLapPtr(bestLap(dl))}
		}
		return LapTimes{Drivers: summary}, nil
	}

	d, ok := sess.DriverByAcronym(driver)
	if !ok {
		return LapTimes{Error: noDataFor(driver)}, nil
	}
	lapsCh := worker.Submit(ctx, s.pool, func(ctx context.Context) ([]f1data.Lap, error) {
		return s.src.Laps(ctx, sess, d.Number)
	})
	stintsCh := worker.Submit(ctx, s.pool, func(ctx context.Context) ([]f1data.Stint, error) {
		return s.src.Stints(ctx, sess)
	})
	laps, err := await(ctx, lapsCh)
	if err != nil {
		return LapTimes{}, errors.Wrapf(err, "laps for %s", d.Acronym)
	}
	stints, err := await(ctx, stintsCh)
	if err != nil {
		return LapTimes{}, errors.Wrap(err, "stints")
	}
	if len(laps) == 0 {
		return LapTimes{Error: noDataFor(driver)}, nil
	}

	entries := make([]LapEntry, 0, len(laps))
	for _, l := range laps {
		e := LapEntry{
			Lap:     l.LapNumber,
			Time:    formatLapPtr(l.Duration),
			Sector1: formatLapPtr(l.Sector1),
			Sector2: formatLapPtr(l.Sector2),
			Sector3: formatLapPtr(l.Sector3),
		}
		if st, ok := stintFor(stints, d.Number, l.LapNumber); ok {
			age := st.TyreAgeAtStart + l.LapNumber - st.LapStart
			e.TyreAge = &age
			e.Compound = stringOrNil(st.Compound)
		}
		entries = append(entries, e)
	}
	return LapTimes{Driver: d.Acronym, Laps: entries}, nil
}

// RaceInfo combines the session reference with race-control and lap data. Missing
// race-control or lap data leaves the matching sections out.
func (s *Service) RaceInfo(ctx context.Context, year, round int, code f1data.SessionCode) (RaceInfo, error) {
	sess, err := s.session(ctx, year, round, code)
	if err != nil {
		return RaceInfo{}, err
	}

	msgCh := worker.Submit(ctx, s.pool, func(ctx context.Context) ([]f1data.RaceControlMessage, error) {
		return s.src.RaceControl(ctx, sess)
	})
	lapsCh := worker.Submit(ctx, s.pool, func(ctx context.Context) ([]f1data.Lap, error) {
		return s.src.Laps(ctx, sess, 0)
	})
	msgs, err := optional(await(ctx, msgCh))
	if err != nil {
		return RaceInfo{}, errors.Wrap(err, "race control")
	}
	laps, err := optional(await(ctx, lapsCh))
	if err != nil {
		return RaceInfo{}, errors.Wrap(err, "laps")
	}

	info := RaceInfo{
		Year:          year,
		Round:         round,
		Session:       string(code),
		EventName:     sess.Meeting.Name,
		Country:       sess.Meeting.Country,
		Location:      sess.Meeting.Location,
		Circuit:       sess.Meeting.Circuit,
		SessionStatus: SessionStatus{Status: s.sessionStatus(sess)},
	}
	if !sess.Start.IsZero() {
		info.Date = stringOrNil(s.clock.Local(sess.Start).Format(timeLayout))
	}

	if changes := trackChanges(msgs); len(changes) > 0 {
		series := &TrackStatusSeries{}
		for _, c := range changes {
			series.Status = append(series.Status, c.code)
			series.Time = append(series.Time, s.clock.Local(c.at).Format(timeLayout))
			series.Message = append(series.Message, trackLabels[c.code])
		}
		info.TrackStatus = series
	}

	for _, m := range msgs {
		info.Messages = append(info.Messages, ControlMessage{
			Time:     s.clock.Local(m.Date).Format(timeLayout),
			Message:  m.Message,
			Category: m.Category,
			Flag:     m.Flag,
			Lap:      m.Lap,
		})
	}

	if len(laps) > 0 {
		timing := &TimingData{Drivers: map[string]DriverTiming{}, TotalLaps: len(laps)}
		for number, dl := range lapsByDriver(laps) {
			timing.Drivers[acronym(sess, number)] = DriverTiming{
				TotalLaps:      len(dl),
				BestLapTime:    formatLapPtr(bestLap(dl)),
				AverageLapTime: formatLapPtr(averageLap(dl)),
			}
		}
		info.TimingData = timing
	}
	return info, nil
}

// TrackStatus returns the session's track status history and the latest status.
func (s *Service) TrackStatus(ctx context.Context, year, round int, code f1data.SessionCode) (TrackStatus, error) {
	sess, err := s.session(ctx, year, round, code)
	if err != nil {
		return TrackStatus{}, err
	}
	msgs, err := optional(worker.Do(ctx, s.pool, func(ctx context.Context) ([]f1data.RaceControlMessage, error) {
		return s.src.RaceControl(ctx, sess)
	}))
	if err != nil {
		return TrackStatus{}, errors.Wrap(err, "race control")
	}

	out := TrackStatus{Statuses: []TrackStatusEvent{}}
	for _, c := range trackChanges(msgs) {
		out.Statuses = append(out.Statuses, TrackStatusEvent{
			Time:    s.clock.Local(c.at).Format(timeLayout),
			Status:  c.code,
			Message: trackLabels[c.code],
		})
	}
	if n := len(out.Statuses); n > 0 {
		current := out.Statuses[n-1].Status
		out.CurrentStatus = &current
	}
	return out, nil
}

func (s *Service) sessionStatus(sess *f1data.Session) string {
	now := s.clock.CurrentTime()
	switch {
	case sess.Start.IsZero():
		return SessionUnknown
	case now.Before(sess.Start):
		return SessionScheduled
	case sess.End.IsZero() || now.Before(sess.End):
		return SessionStarted
	default:
		return SessionFinished
	}
}

// await waits for a submitted job or for ctx to end.
func await[T any](ctx context.Context, ch <-chan worker.Result[T]) (T, error) {
	select {
	case r := <-ch:
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// optional turns "no data upstream" into an empty value.
func optional[T any](v T, err error) (T, error) {
	if errors.Is(err, f1data.ErrNotFound) {
		var zero T
		return zero, nil
	}
	return v, err
}

func lapsByDriver(laps []f1data.Lap) map[int][]f1data.Lap {
	out := map[int][]f1data.Lap{}
	for _, l := range laps {
		out[l.DriverNumber] = append(out[l.DriverNumber], l)
	}
	return out
}

func acronym(sess *f1data.Session, number int) string {
	for _, d := range sess.Drivers {
		if d.Number == number {
			return d.Acronym
		}
	}
	return fmt.Sprint(number)
}

func stintFor(stints []f1data.Stint, driver, lap int) (f1data.Stint, bool) {
	for _, st := range stints {
		if st.DriverNumber == driver && st.Covers(lap) {
			return st, true
		}
	}
	return f1data.Stint{}, false
}

func bestLap(laps []f1data.Lap) *float64 {
	var best *float64
	for _, l := range laps {
		if l.Duration != nil && (best == nil || *l.Duration < *best) {
			best = l.Duration
		}
	}
	return best
}

func averageLap(laps []f1data.Lap) *float64 {
	var sum float64
	var n int
	for _, l := range laps {
		if l.Duration != nil {
			sum += *l.Duration
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// formatLap renders seconds as "1:32.608", or "31.200" under a minute.
func formatLap(sec float64) string {
	ms := int64(math.Round(sec * 1000))
	minutes, rest := ms/60000, ms%60000
	if minutes == 0 {
		return fmt.Sprintf("%d.%03d", rest/1000, rest%1000)
	}
	return fmt.Sprintf("%d:%02d.%03d", minutes, rest/1000, rest%1000)
}

func formatLapPtr(sec *float64) *string {
	if sec == nil {
		return nil
	}
	s := formatLap(*sec)
	return &s
}

// normalizeDriver upper-cases a driver code from a query string.
func normalizeDriver(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
