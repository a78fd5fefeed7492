package vendo

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// JourneyRef identifies a connection pasted in from bahn.de. Share links
// resolve through their VBID; search links carry the stop IDs and departure
// directly.
type JourneyRef struct {
	VBID   string
	FromID string
	ToID   string
	Date   string // YYYY-MM-DD
	Time   string // time of day
}

// ParseJourneyURL extracts the connection reference from a bahn.de link.
// Short share links (including /buchung/start redirects) carry a vbid query
// parameter; long search links encode soid, zoid and hd as query parameters
// inside the URL fragment.
func ParseJourneyURL(raw string) (*JourneyRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse journey url: %w", err)
	}
	if vbid := u.Query().Get("vbid"); vbid != "" {
		return &JourneyRef{VBID: vbid}, nil
	}
	frag, err := url.ParseQuery(u.EscapedFragment())
	if err != nil {
		return nil, fmt.Errorf("parse journey url fragment: %w", err)
	}
	soid, zoid, hd := frag.Get("soid"), frag.Get("zoid"), frag.Get("hd")
	if soid == "" || zoid == "" || hd == "" {
		return nil, errors.New("journey url carries neither a vbid nor soid/zoid/hd")
	}
	date, tod, ok := strings.Cut(hd, "T")
	if !ok {
		return nil, fmt.Errorf("malformed departure timestamp %q in journey url", hd)
	}
	return &JourneyRef{FromID: soid, ToID: zoid, Date: date, Time: tod}, nil
}
