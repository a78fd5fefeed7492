package vendo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/logic-arts-official/Better-Bahn/split"
)

// Offers is the response of the offer search and recon endpoints.
type Offers struct {
	Connections []Connection `json:"verbindungen"`
}

// Connection is one bookable connection with its best offer price.
type Connection struct {
	Price    *Price    `json:"angebotsPreis"`
	Sections []Section `json:"verbindungsAbschnitte"`
}

// Price is an offer amount. Amount is in euros.
type Price struct {
	Amount   float64 `json:"betrag"`
	Currency string  `json:"waehrung"`
}

// Section is one leg of a connection, either a ride or a walk.
type Section struct {
	Transport Transport `json:"verkehrsmittel"`
	Halts     []Halt    `json:"halte"`
}

// Transport describes the vehicle serving a section.
type Transport struct {
	Type       string      `json:"typ"`
	Name       string      `json:"name"`
	Attributes []Attribute `json:"zugattribute"`
}

// Attribute is a keyed property of a train, such as fare-scheme flags.
type Attribute struct {
	Key string `json:"key"`
}

// Halt is a stop within a section. Timestamps are local ISO strings.
type Halt struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Departure string `json:"abfahrtsZeitpunkt"`
	Arrival   string `json:"ankunftsZeitpunkt"`
}

// deutschlandTicketAttr marks trains valid on the Deutschland-Ticket.
const deutschlandTicketAttr = "9G"

const sectionWalk = "WALK"

// PriceCents returns the offer price in euro cents.
func (c *Connection) PriceCents() (int, bool) {
	if c.Price == nil {
		return 0, false
	}
	return int(math.Round(c.Price.Amount * 100)), true
}

// DepartureISO returns the departure timestamp of the connection's first halt.
func (c *Connection) DepartureISO() string {
	if len(c.Sections) == 0 || len(c.Sections[0].Halts) == 0 {
		return ""
	}
	return c.Sections[0].Halts[0].Departure
}

// CoveredByDeutschlandTicket reports whether every ride of the connection is
// valid on the Deutschland-Ticket. Walks are ignored; a connection without
// any ride is not covered.
func (c *Connection) CoveredByDeutschlandTicket() bool {
	covered := false
	for _, s := range c.Sections {
		if s.Transport.Type == sectionWalk {
			continue
		}
		if !s.coveredByDeutschlandTicket() {
			return false
		}
		covered = true
	}
	return covered
}

func (s *Section) coveredByDeutschlandTicket() bool {
	for _, attr := range s.Transport.Attributes {
		if attr.Key == deutschlandTicketAttr {
			return true
		}
	}
	return false
}

// Stops flattens the connection into its distinct halts in travel order.
// Walk sections are skipped and halts appearing in several sections are kept
// once. The final stop has no departure of its own, so its arrival time is
// used there, letting it terminate a priced segment.
func (c *Connection) Stops() []split.Stop {
	var stops []split.Stop
	seen := make(map[string]bool)
	for _, section := range c.Sections {
		if section.Transport.Type == sectionWalk {
			continue
		}
		for _, halt := range section.Halts {
			if seen[halt.ID] {
				continue
			}
			seen[halt.ID] = true
			stops = append(stops, split.Stop{
				ID:        halt.ID,
				Name:      halt.Name,
				Departure: timeOfDay(halt.Departure),
				Arrival:   timeOfDay(halt.Arrival),
			})
		}
	}
	if len(stops) > 0 {
		stops[len(stops)-1].Departure = stops[len(stops)-1].Arrival
	}
	return stops
}

// timeOfDay cuts the date prefix off an ISO timestamp.
func timeOfDay(iso string) string {
	if i := strings.LastIndex(iso, "T"); i >= 0 {
		return iso[i+1:]
	}
	return iso
}

// Traveller is one passenger entry of the fare request.
type Traveller struct {
	Type      string     `json:"typ"`
	Discounts []Discount `json:"ermaessigungen"`
	Count     int        `json:"anzahl"`
	Ages      []string   `json:"alter"`
}

// Discount is a fare reduction held by a traveller.
type Discount struct {
	Kind  string `json:"art"`
	Class string `json:"klasse"`
}

// Travel classes accepted by the offer endpoints.
const (
	ClassFirst  = "KLASSE_1"
	ClassSecond = "KLASSE_2"
)

const (
	travellerAdult = "ERWACHSENER"
	travellerYouth = "JUGENDLICHER"
)

var noDiscount = Discount{Kind: "KEINE_ERMAESSIGUNG", Class: "KLASSENLOS"}

// bahncardDiscounts maps the CLI BahnCard codes onto fare request entries.
var bahncardDiscounts = map[string]Discount{
	"BC25_1": {Kind: "BAHNCARD25", Class: "KLASSE_1"},
	"BC25_2": {Kind: "BAHNCARD25", Class: "KLASSE_2"},
	"BC50_1": {Kind: "BAHNCARD50", Class: "KLASSE_1"},
	"BC50_2": {Kind: "BAHNCARD50", Class: "KLASSE_2"},
}

// Bahncards lists the accepted BahnCard codes.
func Bahncards() []string {
	return []string{"BC25_1", "BC25_2", "BC50_1", "BC50_2"}
}

// Travellers builds the passenger list for a single traveller of the given
// age. bahncard is one of the codes from Bahncards, or empty for no discount.
// Travellers up to 26 are sent as youths with their age attached, since some
// offers are age-bound; everyone else travels as an adult.
func Travellers(age int, bahncard string) ([]Traveller, error) {
	discount := noDiscount
	if bahncard != "" {
		d, ok := bahncardDiscounts[bahncard]
		if !ok {
			return nil, fmt.Errorf("unknown bahncard code %q", bahncard)
		}
		discount = d
	}
	t := Traveller{
		Type:      travellerAdult,
		Discounts: []Discount{discount},
		Count:     1,
		Ages:      []string{},
	}
	if age > 0 && age < 27 {
		t.Type = travellerYouth
		t.Ages = []string{strconv.Itoa(age)}
	}
	return []Traveller{t}, nil
}

func defaultTravellers() []Traveller {
	t, _ := Travellers(30, "")
	return t
}
