package racedata

import (
	"strings"
	"time"

	"github.com/nashfy/pitstop/internal/f1data"
)

// Track status codes as published by the F1 live timing feed.
const (
	TrackClear     = "1"
	TrackYellow    = "2"
	TrackSafetyCar = "4"
	TrackRed       = "5"
	TrackVSC       = "6"
	TrackVSCEnding = "7"
)

var trackLabels = map[string]string{
	TrackClear:     "AllClear",
	TrackYellow:    "Yellow",
	TrackSafetyCar: "SCDeployed",
	TrackRed:       "Red",
	TrackVSC:       "VSCDeployed",
	TrackVSCEnding: "VSCEnding",
}

type trackChange struct {
	at   time.Time
	code string
}

// trackChanges derives the track-wide status history from race-control messages.
// Sector-level flags do not change the track status. Repeated statuses are collapsed.
func trackChanges(msgs []f1data.RaceControlMessage) []trackChange {
	var out []trackChange
	for _, m := range msgs {
		code := trackCode(m)
		if code == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].code == code {
			continue
		}
		out = append(out, trackChange{at: m.Date, code: code})
	}
	return out
}

func trackCode(m f1data.RaceControlMessage) string {
	text := strings.ToUpper(m.Message)
	switch m.Category {
	case "SafetyCar":
		switch {
		case strings.Contains(text, "VIRTUAL SAFETY CAR DEPLOYED"):
			return TrackVSC
		case strings.Contains(text, "VIRTUAL SAFETY CAR ENDING"):
			return TrackVSCEnding
		case strings.Contains(text, "SAFETY CAR DEPLOYED"):
			return TrackSafetyCar
		}
	case "Flag":
		trackWide := m.Scope == "" || strings.EqualFold(m.Scope, "Track")
		switch strings.ToUpper(m.Flag) {
		case "RED":
			return TrackRed
		case "GREEN", "CLEAR":
			if trackWide {
				return TrackClear
			}
		case "YELLOW", "DOUBLE YELLOW":
			if trackWide {
				return TrackYellow
			}
		}
	}
	return ""
}
