// Package board assembles station departure boards from realtime departure
// data: per-row delay and platform-change detection, status classification
// and a fixed-width terminal rendering.
package board

import (
	"sort"
	"strings"
	"time"

	"github.com/logic-arts-official/Better-Bahn/transport"
)

// Status classifies a single departure.
type Status int

const (
	StatusUnknown Status = iota
	StatusOnTime
	StatusDelayed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOnTime:
		return "on time"
	case StatusDelayed:
		return "delayed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Entry is one row of a departure board. Planned comes from the timetable,
// Realtime from live data; a zero Realtime means the upstream sent none.
type Entry struct {
	Line            string
	Destination     string
	TripID          string
	Planned         time.Time
	Realtime        time.Time
	DelayMinutes    int
	Status          Status
	PlannedPlatform string
	Platform        string
	PlatformChanged bool
	Message         string
	Operator        string
}

// FromDeparture converts an upstream board row into an Entry.
func FromDeparture(d transport.Departure) Entry {
	e := Entry{
		Line:            "Unknown",
		Destination:     "Unknown",
		TripID:          d.TripID,
		PlannedPlatform: d.PlannedPlatform,
		Platform:        d.Platform,
	}
	if d.Line != nil && d.Line.Name != "" {
		e.Line = d.Line.Name
	}
	if d.Direction != "" {
		e.Destination = d.Direction
	}
	if d.Line != nil && d.Line.Operator != nil {
		e.Operator = d.Line.Operator.Name
	}

	e.Planned = parseTime(d.PlannedWhen)
	e.Realtime = parseTime(d.When)
	if e.Realtime.IsZero() && !e.Planned.IsZero() && d.Delay != nil {
		e.Realtime = e.Planned.Add(time.Duration(*d.Delay) * time.Second)
	}

	if d.Cancelled {
		e.Status = StatusCancelled
	} else {
		e.updateDelay()
	}
	e.updatePlatformChange()

	var notes []string
	for _, r := range d.Remarks {
		if r.Text != "" {
			notes = append(notes, r.Text)
		}
	}
	e.Message = strings.Join(notes, "; ")
	return e
}

// updateDelay derives delay and status from the two departure times. A
// missing realtime estimate leaves the status unknown; an early departure
// keeps whatever status the entry already has.
func (e *Entry) updateDelay() {
	switch {
	case !e.Planned.IsZero() && !e.Realtime.IsZero():
		e.DelayMinutes = int(e.Realtime.Sub(e.Planned).Minutes())
		if e.DelayMinutes == 0 {
			e.Status = StatusOnTime
		} else if e.DelayMinutes > 0 {
			e.Status = StatusDelayed
		}
	case e.Realtime.IsZero() && !e.Planned.IsZero():
		e.Status = StatusUnknown
	}
}

func (e *Entry) updatePlatformChange() {
	e.PlatformChanged = e.PlannedPlatform != "" && e.Platform != "" && e.PlannedPlatform != e.Platform
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Board is the assembled departure board of one station.
type Board struct {
	StationName string
	StationID   string
	UpdatedAt   time.Time
	Departures  []Entry
}

// ByStatus returns the departures carrying the given status.
func (b *Board) ByStatus(s Status) []Entry {
	var out []Entry
	for _, d := range b.Departures {
		if d.Status == s {
			out = append(out, d)
		}
	}
	return out
}

// Delayed returns the delayed departures with at least min minutes of delay.
func (b *Board) Delayed(min int) []Entry {
	var out []Entry
	for _, d := range b.Departures {
		if d.Status == StatusDelayed && d.DelayMinutes >= min {
			out = append(out, d)
		}
	}
	return out
}

// sortByPlanned orders the rows by planned departure, rows without one
// first.
func sortByPlanned(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Planned.Before(entries[j].Planned)
	})
}
