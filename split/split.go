// Package split searches for combinations of partial tickets that undercut
// the direct fare of a journey. Prices for all stop pairs are fetched through
// a PriceSource, then a shortest-path pass over the stop sequence yields the
// cheapest chain of tickets covering the whole trip.
package split

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// Stop is one halt of the journey under analysis. Departure and Arrival are
// times of day as reported by the timetable; the final stop carries its
// arrival time as departure so it can terminate a segment.
type Stop struct {
	ID        string
	Name      string
	Departure string
	Arrival   string
}

// Quote is the priced offer for a single segment. A covered quote costs
// nothing because an existing flat-rate ticket already pays for it.
type Quote struct {
	PriceCents int
	Covered    bool
	Departure  string
}

// PriceSource prices one segment of a journey on the given travel date.
type PriceSource interface {
	SegmentPrice(ctx context.Context, from, to Stop, date string) (*Quote, error)
}

// DefaultDelay spaces out consecutive price lookups.
const DefaultDelay = 500 * time.Millisecond

// Analyzer runs the split-ticket search. Lookups are sequential and paced,
// since each one is a full offer search against the booking system.
type Analyzer struct {
	source PriceSource
	delay  time.Duration
	log    zerolog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithDelay sets the pause between consecutive price lookups.
func WithDelay(d time.Duration) Option {
	return func(a *Analyzer) { a.delay = d }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}

// New builds an Analyzer around a price source.
func New(source PriceSource, opts ...Option) *Analyzer {
	a := &Analyzer{
		source: source,
		delay:  DefaultDelay,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type pair struct{ from, to int }

// Analyze prices every stop pair of the journey and reports the cheapest
// ticket chain. directCents is the fare of the through ticket; a split is
// only reported when it is strictly cheaper. Pairs that cannot be priced
// are skipped, so a sparse result is still analyzed.
func (a *Analyzer) Analyze(ctx context.Context, stops []Stop, date string, directCents int) (*Report, error) {
	n := len(stops)
	if n < 2 {
		return nil, errors.New("journey has fewer than two stops")
	}

	quotes := make(map[pair]*Quote)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			from, to := stops[i], stops[j]
			if from.Departure == "" {
				continue
			}
			if err := a.pause(ctx); err != nil {
				return nil, err
			}
			q, err := a.source.SegmentPrice(ctx, from, to, date)
			if err != nil {
				a.log.Debug().Err(err).
					Str("from", from.Name).
					Str("to", to.Name).
					Msg("segment could not be priced")
				continue
			}
			a.log.Debug().
				Str("from", from.Name).
				Str("to", to.Name).
				Int("price_cents", q.PriceCents).
				Bool("covered", q.Covered).
				Msg("segment priced")
			quotes[pair{i, j}] = q
		}
	}
	a.log.Info().Int("stops", n).Int("priced_segments", len(quotes)).Msg("segment pricing complete")

	const unreachable = math.MaxInt
	cost := make([]int, n)
	prev := make([]int, n)
	for i := range cost {
		cost[i] = unreachable
		prev[i] = -1
	}
	cost[0] = 0
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			q, ok := quotes[pair{j, i}]
			if !ok || cost[j] == unreachable {
				continue
			}
			if c := cost[j] + q.PriceCents; c < cost[i] {
				cost[i] = c
				prev[i] = j
			}
		}
	}

	report := &Report{DirectCents: directCents}
	total := cost[n-1]
	if total == unreachable || total >= directCents {
		return report, nil
	}
	report.Cheaper = true
	report.SplitCents = total
	report.SavingsCents = directCents - total
	for cur := n - 1; cur > 0 && prev[cur] >= 0; cur = prev[cur] {
		p := prev[cur]
		q := quotes[pair{p, cur}]
		report.Tickets = append(report.Tickets, Ticket{
			From:       stops[p],
			To:         stops[cur],
			PriceCents: q.PriceCents,
			Covered:    q.Covered,
			Departure:  q.Departure,
		})
	}
	for l, r := 0, len(report.Tickets)-1; l < r; l, r = l+1, r-1 {
		report.Tickets[l], report.Tickets[r] = report.Tickets[r], report.Tickets[l]
	}
	return report, nil
}

func (a *Analyzer) pause(ctx context.Context) error {
	if a.delay <= 0 {
		return nil
	}
	t := time.NewTimer(a.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
