package vendo

import (
	"net/url"
	"strconv"
	"strings"
)

const bookingBase = "https://www.bahn.de/buchung/fahrplan/suche"

// bahncardCodes are the r fragment parameter values the booking page uses to
// preselect a discount.
var bahncardCodes = map[string]string{
	"BC25_1": "13:25:KLASSE_1:1",
	"BC25_2": "13:25:KLASSE_2:1",
	"BC50_1": "13:50:KLASSE_1:1",
	"BC50_2": "13:50:KLASSE_2:1",
}

// BookingParams describe one bookable segment of a split.
type BookingParams struct {
	FromName          string
	FromID            string
	ToName            string
	ToID              string
	Departure         string // ISO timestamp of the segment departure
	Bahncard          string
	DeutschlandTicket bool
}

// BookingLink builds a deep link into the bahn.de booking flow with origin,
// destination, departure and fare context preselected. Unknown BahnCard
// codes are omitted rather than rejected; the link still works without one.
func BookingLink(p BookingParams) string {
	hd, _, _ := strings.Cut(p.Departure, ".")
	var b strings.Builder
	b.WriteString(bookingBase)
	b.WriteString("#sts=true")
	b.WriteString("&so=")
	b.WriteString(fragmentEscape(p.FromName))
	b.WriteString("&zo=")
	b.WriteString(fragmentEscape(p.ToName))
	b.WriteString("&soid=")
	b.WriteString(fragmentEscape(p.FromID))
	b.WriteString("&zoid=")
	b.WriteString(fragmentEscape(p.ToID))
	b.WriteString("&hd=")
	b.WriteString(fragmentEscape(hd))
	b.WriteString("&dltv=")
	b.WriteString(strconv.FormatBool(p.DeutschlandTicket))
	if code, ok := bahncardCodes[p.Bahncard]; ok {
		b.WriteString("&r=")
		b.WriteString(fragmentEscape(code))
	}
	return b.String()
}

// fragmentEscape percent-encodes a fragment parameter value. The booking
// page decodes the fragment with decodeURIComponent, which leaves + alone,
// so spaces must become %20.
func fragmentEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
