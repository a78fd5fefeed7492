// Package vendo talks to the public bahn.de booking endpoints to price
// connections and single segments. The endpoints are unauthenticated POST
// APIs with German field names; this client keeps the wire vocabulary at the
// edge and exposes connections, prices and stops in domain terms.
package vendo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://www.bahn.de/web/api"

// The booking endpoints answer browser user agents only.
const defaultUserAgent = "Mozilla/5.0"

// Client calls the bahn.de offer endpoints. The zero Option set talks to the
// production host with a 30 second timeout.
type Client struct {
	http      *http.Client
	baseURL   *url.URL
	userAgent string
	log       zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(opts ...Option) *Client {
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		baseURL:   u,
		userAgent: defaultUserAgent,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchOptions carries the fare context shared by every offer request of an
// analysis run. The zero value prices a single adult in second class.
type SearchOptions struct {
	Class             string
	Travellers        []Traveller
	DeutschlandTicket bool
}

func (o SearchOptions) class() string {
	if o.Class == "" {
		return ClassSecond
	}
	return o.Class
}

func (o SearchOptions) travellers() []Traveller {
	if len(o.Travellers) == 0 {
		return defaultTravellers()
	}
	return o.Travellers
}

// productClasses is the full product selection of the offer search.
var productClasses = []string{
	"ICE", "EC_IC", "IR", "REGIONAL", "SBAHN",
	"BUS", "SCHIFF", "UBAHN", "TRAM", "ANRUFPFLICHTIG",
}

type timetableRequest struct {
	DepartureStop     string      `json:"abfahrtsHalt"`
	RequestedAt       string      `json:"anfrageZeitpunkt"`
	ArrivalStop       string      `json:"ankunftsHalt"`
	SearchMode        string      `json:"ankunftSuche"`
	Class             string      `json:"klasse"`
	ProductClasses    []string    `json:"produktgattungen"`
	Travellers        []Traveller `json:"reisende"`
	FastConnections   bool        `json:"schnelleVerbindungen"`
	DeutschlandTicket bool        `json:"deutschlandTicketVorhanden"`
}

type reconRequest struct {
	Class             string      `json:"klasse"`
	Travellers        []Traveller `json:"reisende"`
	Context           string      `json:"ctxRecon"`
	DeutschlandTicket bool        `json:"deutschlandTicketVorhanden"`
}

type connectionRef struct {
	OutwardRecon string `json:"hinfahrtRecon"`
}

// SearchOffers prices connections from one stop to another, departing on
// date (YYYY-MM-DD) at the given time of day.
func (c *Client) SearchOffers(ctx context.Context, fromID, toID, date, departure string, opts SearchOptions) (*Offers, error) {
	body := timetableRequest{
		DepartureStop:     fromID,
		RequestedAt:       date + "T" + departure,
		ArrivalStop:       toID,
		SearchMode:        "ABFAHRT",
		Class:             opts.class(),
		ProductClasses:    productClasses,
		Travellers:        opts.travellers(),
		FastConnections:   true,
		DeutschlandTicket: opts.DeutschlandTicket,
	}
	var offers Offers
	if err := c.postJSON(ctx, "/angebote/fahrplan", body, &offers); err != nil {
		return nil, err
	}
	return &offers, nil
}

// ResolveShortLink expands a shared vbid link into priced connections. The
// share endpoint only returns a reconstruction context, so a second request
// reprices the connection with the caller's fare options.
func (c *Client) ResolveShortLink(ctx context.Context, vbid string, opts SearchOptions) (*Offers, error) {
	var ref connectionRef
	if err := c.getJSON(ctx, "/angebote/verbindung/"+url.PathEscape(vbid), &ref); err != nil {
		return nil, err
	}
	if ref.OutwardRecon == "" {
		return nil, fmt.Errorf("share link %s carries no reconstruction context", vbid)
	}
	return c.Reconstruct(ctx, ref.OutwardRecon, opts)
}

// Reconstruct reprices a known connection from its recon context.
func (c *Client) Reconstruct(ctx context.Context, recon string, opts SearchOptions) (*Offers, error) {
	body := reconRequest{
		Class:             opts.class(),
		Travellers:        opts.travellers(),
		Context:           recon,
		DeutschlandTicket: opts.DeutschlandTicket,
	}
	var offers Offers
	if err := c.postJSON(ctx, "/angebote/recon", body, &offers); err != nil {
		return nil, err
	}
	return &offers, nil
}

func (c *Client) getJSON(ctx context.Context, p string, out any) error {
	req, err := c.newReq(ctx, http.MethodGet, p, nil)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Client) postJSON(ctx context.Context, p string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := c.newReq(ctx, http.MethodPost, p, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	return c.send(req, out)
}

func (c *Client) newReq(ctx context.Context, method, p string, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("bahn.de request")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s %s: %s: %s", req.Method, req.URL.Path, resp.Status, bytes.TrimSpace(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}
