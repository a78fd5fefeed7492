package transport

import (
	"encoding/json"
	"fmt"
)

// Position is a WGS84 coordinate as delivered inside location objects.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a station or stop from the locations endpoint.
type Location struct {
	Type     string    `json:"type"`
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Position *Position `json:"location,omitempty"`
}

// Operator identifies the company running a line.
type Operator struct {
	Name string `json:"name"`
}

// Line describes the service a departure or leg belongs to.
type Line struct {
	Name     string    `json:"name"`
	Product  string    `json:"product"`
	Operator *Operator `json:"operator,omitempty"`
}

// Remark is a free-text notice attached to a departure or leg.
type Remark struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Departure is one row of a departure or arrival board. Times are RFC3339
// strings as sent by the upstream; When is empty when the service no longer
// has a realtime estimate. Delay is in seconds.
type Departure struct {
	TripID          string   `json:"tripId"`
	When            string   `json:"when"`
	PlannedWhen     string   `json:"plannedWhen"`
	Delay           *int     `json:"delay"`
	Platform        string   `json:"platform"`
	PlannedPlatform string   `json:"plannedPlatform"`
	Direction       string   `json:"direction"`
	Cancelled       bool     `json:"cancelled"`
	Line            *Line    `json:"line,omitempty"`
	Remarks         []Remark `json:"remarks,omitempty"`
}

// Leg is one segment of a journey. Delays are in seconds; nil means the
// upstream reported none.
type Leg struct {
	TripID           string    `json:"tripId"`
	Origin           *Location `json:"origin,omitempty"`
	Destination      *Location `json:"destination,omitempty"`
	Departure        string    `json:"departure"`
	PlannedDeparture string    `json:"plannedDeparture"`
	DepartureDelay   *int      `json:"departureDelay"`
	Arrival          string    `json:"arrival"`
	PlannedArrival   string    `json:"plannedArrival"`
	ArrivalDelay     *int      `json:"arrivalDelay"`
	Cancelled        bool      `json:"cancelled"`
	Walking          bool      `json:"walking"`
	Line             *Line     `json:"line,omitempty"`
}

// Journey is a door-to-door connection consisting of one or more legs.
type Journey struct {
	Legs []Leg `json:"legs"`
}

// ParseLocations decodes a locations payload, keeping stations and stops and
// dropping addresses and points of interest.
func ParseLocations(data json.RawMessage) ([]Location, error) {
	var raw []Location
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	out := make([]Location, 0, len(raw))
	for _, loc := range raw {
		if loc.Type != "station" && loc.Type != "stop" {
			continue
		}
		if loc.ID == "" || loc.Name == "" {
			continue
		}
		out = append(out, loc)
	}
	return out, nil
}

// ParseJourneys decodes a journeys payload.
func ParseJourneys(data json.RawMessage) ([]Journey, error) {
	var wrapper struct {
		Journeys []Journey `json:"journeys"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decode journeys: %w", err)
	}
	return wrapper.Journeys, nil
}

// ParseStop decodes a single stop payload.
func ParseStop(data json.RawMessage) (Location, error) {
	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return Location{}, fmt.Errorf("decode stop: %w", err)
	}
	return loc, nil
}

// ParseDepartures decodes a board payload. Newer upstream versions wrap the
// rows in an object; older ones send a bare array. Both are accepted.
func ParseDepartures(data json.RawMessage) ([]Departure, error) {
	var wrapper struct {
		Departures []Departure `json:"departures"`
		Arrivals   []Departure `json:"arrivals"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil {
		if wrapper.Departures != nil {
			return wrapper.Departures, nil
		}
		if wrapper.Arrivals != nil {
			return wrapper.Arrivals, nil
		}
	}
	var rows []Departure
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode departures: %w", err)
	}
	return rows, nil
}
