package board

import (
	"strings"
	"testing"
	"time"
)

func renderBoard() *Board {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &Board{
		StationName: "Berlin Hbf",
		StationID:   "8011160",
		UpdatedAt:   base,
		Departures: []Entry{
			{Line: "ICE 1601", Destination: "Hamburg-Altona", Planned: base.Add(5 * time.Minute),
				Realtime: base.Add(5 * time.Minute), Status: StatusOnTime, PlannedPlatform: "12", Platform: "12"},
			{Line: "IC 2083", Destination: "Dresden Hbf", Planned: base.Add(12 * time.Minute),
				Realtime: base.Add(20 * time.Minute), DelayMinutes: 8, Status: StatusDelayed,
				PlannedPlatform: "6", Platform: "8", PlatformChanged: true},
			{Line: "RB 25", Destination: "Oranienburg", Planned: base.Add(32 * time.Minute),
				Status: StatusCancelled, PlannedPlatform: "16", Platform: "16"},
		},
	}
}

func TestRender(t *testing.T) {
	out := Render(renderBoard(), 0)
	for _, want := range []string{
		"Departure Board - Berlin Hbf",
		"Last updated: 10:00:00",
		"Destination",
		"10:05",
		"On time",
		"+8'",
		"8*",
		"CANC",
		"Summary: 1 on time, 1 delayed, 1 cancelled",
		"* Platform changed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered board missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "more departures") {
		t.Error("a short board should not be truncated")
	}
}

func TestRenderCapsRows(t *testing.T) {
	out := Render(renderBoard(), 2)
	if !strings.Contains(out, "... and 1 more departures") {
		t.Errorf("expected truncation note:\n%s", out)
	}
	if strings.Contains(out, "RB 25") {
		t.Error("rows beyond the cap should not be listed")
	}
}

func TestRenderTruncatesDestination(t *testing.T) {
	long := strings.Repeat("Lutherstadt Wittenberg ", 3)
	b := &Board{
		StationName: "X",
		UpdatedAt:   time.Now(),
		Departures:  []Entry{{Line: "RE 1", Destination: long, Planned: time.Now(), Status: StatusOnTime}},
	}
	if out := Render(b, 0); strings.Contains(out, long) {
		t.Error("destination should be cut to the column width")
	}
}

func TestRenderEmpty(t *testing.T) {
	if got := Render(&Board{StationName: "X"}, 0); got != "No departures found." {
		t.Errorf("unexpected output %q", got)
	}
	if got := Render(nil, 0); got != "No departures found." {
		t.Errorf("unexpected output for nil board %q", got)
	}
}
