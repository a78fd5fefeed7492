package transport

import (
	"context"
	"fmt"
	"time"
)

// LegStatus summarizes the realtime deviation of a single journey leg.
// Delays are whole minutes.
type LegStatus struct {
	TripID         string `json:"trip_id"`
	DepartureDelay int    `json:"departure_delay_minutes"`
	ArrivalDelay   int    `json:"arrival_delay_minutes"`
	Cancelled      bool   `json:"cancelled"`
}

// RealTimeStatus aggregates delays and cancellations across one journey.
type RealTimeStatus struct {
	HasDelays         bool        `json:"has_delays"`
	TotalDelayMinutes int         `json:"total_delay_minutes"`
	CancelledLegs     int         `json:"cancelled_legs"`
	Legs              []LegStatus `json:"legs"`
}

// Disrupted reports whether the journey currently runs late or incomplete.
func (s RealTimeStatus) Disrupted() bool {
	return s.HasDelays || s.CancelledLegs > 0
}

// SummarizeJourney computes the realtime status of a journey. The total
// counts each leg's departure delay plus any excess of its arrival delay
// over the departure delay, so a train that loses further time en route is
// charged for the loss exactly once.
func SummarizeJourney(j Journey) RealTimeStatus {
	st := RealTimeStatus{Legs: make([]LegStatus, 0, len(j.Legs))}
	for _, leg := range j.Legs {
		ls := LegStatus{TripID: leg.TripID, Cancelled: leg.Cancelled}
		if leg.DepartureDelay != nil {
			ls.DepartureDelay = *leg.DepartureDelay / 60
			st.TotalDelayMinutes += ls.DepartureDelay
			if ls.DepartureDelay != 0 {
				st.HasDelays = true
			}
		}
		if leg.ArrivalDelay != nil {
			ls.ArrivalDelay = *leg.ArrivalDelay / 60
			if ls.ArrivalDelay > ls.DepartureDelay {
				st.TotalDelayMinutes += ls.ArrivalDelay - ls.DepartureDelay
				st.HasDelays = true
			}
		}
		if leg.Cancelled {
			st.CancelledLegs++
		}
		st.Legs = append(st.Legs, ls)
	}
	return st
}

// JourneyOption is the realtime summary of one connection between the
// queried stations.
type JourneyOption struct {
	DurationMinutes int            `json:"duration_minutes"`
	Transfers       int            `json:"transfers"`
	Status          RealTimeStatus `json:"real_time_status"`
}

// JourneyInfo is the realtime overview for a station pair.
type JourneyInfo struct {
	FromID   string          `json:"from_id"`
	FromName string          `json:"from_name"`
	ToID     string          `json:"to_id"`
	ToName   string          `json:"to_name"`
	Journeys []JourneyOption `json:"journeys"`
}

// RealTimeJourneyInfo resolves two station names and summarizes the realtime
// state of the next connections between them.
func (c *Client) RealTimeJourneyInfo(ctx context.Context, fromName, toName string) (*JourneyInfo, error) {
	from, err := c.resolveStation(ctx, fromName)
	if err != nil {
		return nil, err
	}
	to, err := c.resolveStation(ctx, toName)
	if err != nil {
		return nil, err
	}
	res := c.GetJourneys(ctx, JourneyParams{From: from.ID, To: to.ID, Results: 3, Stopovers: true})
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("journeys %s -> %s: %w", from.Name, to.Name, err)
	}
	journeys, err := ParseJourneys(res.Data)
	if err != nil {
		return nil, err
	}
	if len(journeys) == 0 {
		return nil, fmt.Errorf("no journeys found from %s to %s", from.Name, to.Name)
	}
	info := &JourneyInfo{FromID: from.ID, FromName: from.Name, ToID: to.ID, ToName: to.Name}
	for _, j := range journeys {
		transfers := len(j.Legs) - 1
		if transfers < 0 {
			transfers = 0
		}
		info.Journeys = append(info.Journeys, JourneyOption{
			DurationMinutes: journeyDuration(j),
			Transfers:       transfers,
			Status:          SummarizeJourney(j),
		})
	}
	return info, nil
}

// resolveStation finds the best station match for a free-text name.
func (c *Client) resolveStation(ctx context.Context, name string) (*Location, error) {
	res := c.FindLocations(ctx, name, 1)
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("locations %q: %w", name, err)
	}
	locs, err := ParseLocations(res.Data)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("station %q not found", name)
	}
	return &locs[0], nil
}

// journeyDuration measures planned first departure to planned last arrival.
// Unparseable or missing timestamps yield zero.
func journeyDuration(j Journey) int {
	if len(j.Legs) == 0 {
		return 0
	}
	dep := j.Legs[0].PlannedDeparture
	if dep == "" {
		dep = j.Legs[0].Departure
	}
	arr := j.Legs[len(j.Legs)-1].PlannedArrival
	if arr == "" {
		arr = j.Legs[len(j.Legs)-1].Arrival
	}
	t0, err0 := time.Parse(time.RFC3339, dep)
	t1, err1 := time.Parse(time.RFC3339, arr)
	if err0 != nil || err1 != nil {
		return 0
	}
	return int(t1.Sub(t0).Minutes())
}
