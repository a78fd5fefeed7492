package board

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/logic-arts-official/Better-Bahn/transport"
)

// TransitAPI is the slice of the transport client the board service needs.
type TransitAPI interface {
	FindLocations(ctx context.Context, query string, results int) transport.Result
	GetStop(ctx context.Context, stopID string) transport.Result
	GetDepartures(ctx context.Context, stopID string, p transport.BoardParams) transport.Result
}

// Params controls the board window.
type Params struct {
	When     time.Time
	Duration int // minutes
	Results  int
}

// Service builds departure boards.
type Service struct {
	api TransitAPI
	log zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(api TransitAPI, opts ...Option) *Service {
	s := &Service{
		api: api,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindStation resolves a station name to a concrete stop.
func (s *Service) FindStation(ctx context.Context, name string) (transport.Location, error) {
	res := s.api.FindLocations(ctx, name, 1)
	if err := res.Err(); err != nil {
		return transport.Location{}, err
	}
	locs, err := transport.ParseLocations(res.Data)
	if err != nil {
		return transport.Location{}, err
	}
	if len(locs) == 0 {
		return transport.Location{}, fmt.Errorf("station %q not found", name)
	}
	return locs[0], nil
}

// Load builds the departure board for a station. Duration defaults to 120
// minutes and Results to 20 rows.
func (s *Service) Load(ctx context.Context, stationID string, p Params) (*Board, error) {
	if p.Duration <= 0 {
		p.Duration = 120
	}
	if p.Results <= 0 {
		p.Results = 20
	}

	res := s.api.GetStop(ctx, stationID)
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("station info for %s: %w", stationID, err)
	}
	stop, err := transport.ParseStop(res.Data)
	if err != nil {
		return nil, err
	}
	name := stop.Name
	if name == "" {
		name = stationID
	}

	res = s.api.GetDepartures(ctx, stationID, transport.BoardParams{
		When:     p.When,
		Duration: p.Duration,
		Results:  p.Results,
	})
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("departures for %s: %w", name, err)
	}
	rows, err := transport.ParseDepartures(res.Data)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, FromDeparture(row))
	}
	sortByPlanned(entries)
	s.log.Debug().Str("station", name).Int("departures", len(entries)).Msg("departure board loaded")

	return &Board{
		StationName: name,
		StationID:   stationID,
		UpdatedAt:   time.Now(),
		Departures:  entries,
	}, nil
}
