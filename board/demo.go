package board

import (
	"strings"
	"time"
)

// Demo returns a fixed board with sample data so the display can be tried
// without network access. Times are relative to now.
func Demo(stationName string) *Board {
	type sample struct {
		line, dest string
		plannedMin int
		delayMin   int
		platform   string
		movedTo    string
		status     Status
		message    string
	}
	samples := []sample{
		{line: "ICE 1601", dest: "Hamburg-Altona", plannedMin: 5, platform: "12", status: StatusOnTime},
		{line: "IC 2083", dest: "Dresden Hbf", plannedMin: 12, delayMin: 8, platform: "6", movedTo: "8", status: StatusDelayed, message: "Technische Störung am Fahrzeug"},
		{line: "RE 3", dest: "Stralsund Hbf", plannedMin: 18, platform: "14", status: StatusOnTime},
		{line: "ICE 1078", dest: "München Hbf", plannedMin: 25, delayMin: 15, platform: "3", status: StatusDelayed, message: "Verspätung aus vorheriger Fahrt"},
		{line: "RB 25", dest: "Oranienburg", plannedMin: 32, delayMin: -1, platform: "16", status: StatusCancelled, message: "Zug fällt aus - Ersatzverkehr mit Bussen"},
		{line: "S3", dest: "Erkner", plannedMin: 38, delayMin: 3, platform: "S3", status: StatusDelayed},
		{line: "ICE 373", dest: "Paris Est", plannedMin: 45, platform: "1", status: StatusOnTime},
		{line: "RE 1", dest: "Brandenburg Hbf", plannedMin: 52, platform: "12", status: StatusOnTime},
	}

	now := time.Now()
	entries := make([]Entry, 0, len(samples))
	for _, sm := range samples {
		planned := now.Add(time.Duration(sm.plannedMin) * time.Minute)
		e := Entry{
			Line:            sm.line,
			Destination:     sm.dest,
			TripID:          "trip_" + strings.ReplaceAll(sm.line, " ", "_"),
			Planned:         planned,
			DelayMinutes:    sm.delayMin,
			Status:          sm.status,
			PlannedPlatform: sm.platform,
			Platform:        sm.platform,
			Message:         sm.message,
			Operator:        "Deutsche Bahn AG",
		}
		if sm.status != StatusCancelled {
			e.Realtime = planned.Add(time.Duration(sm.delayMin) * time.Minute)
		}
		if sm.movedTo != "" {
			e.Platform = sm.movedTo
			e.PlatformChanged = true
		}
		entries = append(entries, e)
	}

	return &Board{
		StationName: stationName,
		StationID:   "8011160",
		UpdatedAt:   now,
		Departures:  entries,
	}
}
