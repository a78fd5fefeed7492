package vendo

import (
	"context"
	"fmt"

	"github.com/logic-arts-official/Better-Bahn/split"
)

// SegmentPricer prices journey segments through the offer search, making the
// client usable as the split analyzer's price source. Each lookup asks for
// connections leaving the segment's origin at its timetabled departure and
// takes the first offer.
type SegmentPricer struct {
	Client  *Client
	Options SearchOptions
}

// SegmentPrice implements split.PriceSource.
func (p *SegmentPricer) SegmentPrice(ctx context.Context, from, to split.Stop, date string) (*split.Quote, error) {
	offers, err := p.Client.SearchOffers(ctx, from.ID, to.ID, date, from.Departure, p.Options)
	if err != nil {
		return nil, err
	}
	if len(offers.Connections) == 0 {
		return nil, fmt.Errorf("no connection offered from %s to %s", from.Name, to.Name)
	}
	conn := offers.Connections[0]
	dep := conn.DepartureISO()
	if dep == "" {
		return nil, fmt.Errorf("offer from %s to %s has no departure time", from.Name, to.Name)
	}
	if p.Options.DeutschlandTicket && conn.CoveredByDeutschlandTicket() {
		return &split.Quote{Covered: true, Departure: dep}, nil
	}
	cents, ok := conn.PriceCents()
	if !ok {
		return nil, fmt.Errorf("no price offered from %s to %s", from.Name, to.Name)
	}
	return &split.Quote{PriceCents: cents, Departure: dep}, nil
}
