// Package transport implements a resilient client for the v6.db.transport.rest
// API. Every request runs through a token-bucket rate limiter and a bounded
// TTL+ETag cache with a stale-while-revalidate grace window; outcomes are
// returned as typed Results instead of errors, so callers can branch on the
// category and decide their own retry policy.
package transport

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL      = "https://v6.db.transport.rest"
	DefaultUserAgent    = "Better-Bahn/1.0"
	DefaultTimeout      = 30 * time.Second
	DefaultRateCapacity = 5
	DefaultRateWindow   = 5 * time.Second
	DefaultCacheSize    = 100
	DefaultMaxAge       = 2 * time.Minute
	DefaultStaleWindow  = 15 * time.Minute
)

// Per-resource freshness windows. Station data barely moves; journey prices
// and realtime boards do.
const (
	locationsMaxAge = 5 * time.Minute
	journeysMaxAge  = 2 * time.Minute
	boardMaxAge     = 30 * time.Second
)

// Metrics receives traffic observations from the client. Implementations
// must be safe for concurrent use.
type Metrics interface {
	RecordRequest(endpoint string, status int, duration time.Duration)
	RecordCacheHit(endpoint string, stale bool)
	RecordCacheMiss(endpoint string)
	RecordRateLimited(endpoint string)
	RecordError(endpoint, kind string)
}

type nopMetrics struct{}

func (nopMetrics) RecordRequest(string, int, time.Duration) {}
func (nopMetrics) RecordCacheHit(string, bool)              {}
func (nopMetrics) RecordCacheMiss(string)                   {}
func (nopMetrics) RecordRateLimited(string)                 {}
func (nopMetrics) RecordError(string, string)               {}

// Client is a rate-limited, caching HTTP client for the transport API.
// It is safe for concurrent use. The limiter and the cache each guard their
// own state; no lock is held across network I/O, so concurrent requests for
// the same key may both fetch, with the last write winning.
type Client struct {
	baseURL      string
	userAgent    string
	timeout      time.Duration
	httpClient   *http.Client
	rateCapacity float64
	rateWindow   time.Duration
	cacheSize    int
	maxAge       time.Duration
	staleWindow  time.Duration
	logger       zerolog.Logger
	metrics      Metrics

	limiter *TokenBucket
	cache   *memoryCache

	requestsMade  atomic.Int64
	cacheHits     atomic.Int64
	rateLimitHits atomic.Int64
	errors        atomic.Int64
}

// Option configures a Client at construction.
type Option func(*Client)

// WithBaseURL points the client at a different upstream.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithHTTPClient replaces the underlying HTTP client, overriding WithTimeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout bounds each network call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit allows capacity requests per window; the refill rate is
// capacity/window.
func WithRateLimit(capacity float64, window time.Duration) Option {
	return func(c *Client) {
		c.rateCapacity = capacity
		c.rateWindow = window
	}
}

// WithCacheSize bounds the cache to n entries. n <= 0 disables caching.
func WithCacheSize(n int) Option {
	return func(c *Client) { c.cacheSize = n }
}

// WithFreshness sets the default freshness window and the stale grace window
// applied to cached entries.
func WithFreshness(maxAge, staleWindow time.Duration) Option {
	return func(c *Client) {
		c.maxAge = maxAge
		c.staleWindow = staleWindow
	}
}

// WithoutCache disables caching entirely.
func WithoutCache() Option {
	return func(c *Client) { c.cacheSize = 0 }
}

// WithLogger attaches a logger; the client logs at debug level only.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New constructs a Client with the given options applied over the defaults.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		userAgent:    DefaultUserAgent,
		timeout:      DefaultTimeout,
		rateCapacity: DefaultRateCapacity,
		rateWindow:   DefaultRateWindow,
		cacheSize:    DefaultCacheSize,
		maxAge:       DefaultMaxAge,
		staleWindow:  DefaultStaleWindow,
		logger:       zerolog.Nop(),
		metrics:      nopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	refill := 0.0
	if c.rateWindow > 0 {
		refill = c.rateCapacity / c.rateWindow.Seconds()
	}
	c.limiter = NewTokenBucket(c.rateCapacity, refill)
	if c.cacheSize > 0 {
		c.cache = newMemoryCache(c.cacheSize)
	}
	return c
}

// do runs one logical request through the cache and the limiter. maxAge <= 0
// falls back to the client default.
func (c *Client) do(ctx context.Context, endpoint string, params map[string]string, maxAge time.Duration) Result {
	c.requestsMade.Add(1)
	if maxAge <= 0 {
		maxAge = c.maxAge
	}
	log := c.logger.With().
		Str("request_id", uuid.NewString()).
		Str("endpoint", endpoint).
		Logger()

	var (
		entry *cacheEntry
		key   string
	)
	if c.cache != nil {
		entry, key = c.cache.lookup(endpoint, params)
	}
	if entry != nil && entry.isFresh(time.Now()) {
		c.cacheHits.Add(1)
		c.metrics.RecordCacheHit(endpoint, false)
		log.Debug().Time("cached_at", entry.fetchedAt).Msg("served fresh from cache")
		return Result{Kind: KindSuccess, Data: entry.payload, FromCache: true, CachedAt: entry.fetchedAt}
	}
	c.metrics.RecordCacheMiss(endpoint)

	if !c.limiter.TryConsume(1) {
		c.rateLimitHits.Add(1)
		c.metrics.RecordRateLimited(endpoint)
		if res, ok := c.staleFallback(entry, endpoint, log, "rate limiter"); ok {
			return res
		}
		wait := int(math.Ceil(c.limiter.TimeUntilAvailable(1).Seconds()))
		log.Debug().Int("retry_after", wait).Msg("rejected by local rate limiter")
		return Result{Kind: KindRateLimited, Message: "local rate limit exceeded", RetryAfter: wait}
	}

	req, err := c.newRequest(ctx, endpoint, params, entry)
	if err != nil {
		c.errors.Add(1)
		c.metrics.RecordError(endpoint, "request")
		return Result{Kind: KindTransientError, Message: truncateMessage(err.Error())}
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.errors.Add(1)
		c.metrics.RecordError(endpoint, "transport")
		log.Debug().Err(err).Msg("transport failure")
		if res, ok := c.staleFallback(entry, endpoint, log, "transport failure"); ok {
			return res
		}
		return Result{Kind: KindTransientError, Message: truncateMessage(err.Error())}
	}
	defer resp.Body.Close()
	c.metrics.RecordRequest(endpoint, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return c.handleNotModified(entry, key, maxAge, endpoint, log)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return c.handleFreshBody(resp, key, maxAge, endpoint, log)
	default:
		return c.handleErrorStatus(resp, entry, endpoint, log)
	}
}

// staleFallback serves the stale entry when the failed attempt permits it.
func (c *Client) staleFallback(entry *cacheEntry, endpoint string, log zerolog.Logger, cause string) (Result, bool) {
	if entry == nil || !entry.isUsableStale(time.Now()) {
		return Result{}, false
	}
	c.metrics.RecordCacheHit(endpoint, true)
	log.Debug().Str("cause", cause).Time("cached_at", entry.fetchedAt).Msg("served stale from cache")
	return Result{Kind: KindSuccess, Data: entry.payload, FromCache: true, CachedAt: entry.fetchedAt}, true
}

// handleNotModified refreshes the cached entry's timestamp in place; payload
// and validator stay as they were.
func (c *Client) handleNotModified(entry *cacheEntry, key string, maxAge time.Duration, endpoint string, log zerolog.Logger) Result {
	if entry == nil {
		c.errors.Add(1)
		c.metrics.RecordError(endpoint, "protocol")
		return Result{Kind: KindTransientError, Message: "not modified response without a cached entry"}
	}
	refreshed := &cacheEntry{
		payload:     entry.payload,
		fetchedAt:   time.Now(),
		etag:        entry.etag,
		maxAge:      maxAge,
		staleWindow: c.staleWindow,
	}
	if c.cache != nil {
		c.cache.store(key, refreshed)
	}
	log.Debug().Msg("revalidated via etag")
	return Result{Kind: KindSuccess, Data: refreshed.payload, FromCache: true, CachedAt: refreshed.fetchedAt}
}

// handleFreshBody validates and caches a 2xx payload. Malformed JSON is a
// transient error and is never cached.
func (c *Client) handleFreshBody(resp *http.Response, key string, maxAge time.Duration, endpoint string, log zerolog.Logger) Result {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.errors.Add(1)
		c.metrics.RecordError(endpoint, "read")
		return Result{Kind: KindTransientError, Message: truncateMessage(err.Error())}
	}
	if !json.Valid(body) {
		c.errors.Add(1)
		c.metrics.RecordError(endpoint, "decode")
		return Result{Kind: KindTransientError, Message: "upstream returned malformed JSON"}
	}
	if c.cache != nil {
		c.cache.store(key, &cacheEntry{
			payload:     body,
			fetchedAt:   time.Now(),
			etag:        resp.Header.Get("ETag"),
			maxAge:      maxAge,
			staleWindow: c.staleWindow,
		})
	}
	log.Debug().Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("fetched fresh")
	return Result{Kind: KindSuccess, Data: body, HTTPStatus: resp.StatusCode}
}

// handleErrorStatus classifies a non-2xx, non-304 response. Retryable kinds
// may still be answered from a usable-stale entry.
func (c *Client) handleErrorStatus(resp *http.Response, entry *cacheEntry, endpoint string, log zerolog.Logger) Result {
	c.errors.Add(1)
	kind := classify(resp.StatusCode)
	c.metrics.RecordError(endpoint, kind.String())
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	log.Debug().Int("status", resp.StatusCode).Str("kind", kind.String()).Msg("upstream error status")

	if kind.retryable() {
		if res, ok := c.staleFallback(entry, endpoint, log, resp.Status); ok {
			return res
		}
	}
	res := Result{Kind: kind, HTTPStatus: resp.StatusCode, Message: truncateMessage(string(body))}
	if kind == KindRateLimited {
		res.RetryAfter = retryAfterSeconds(resp.Header, time.Now())
	}
	return res
}

func (c *Client) newRequest(ctx context.Context, endpoint string, params map[string]string, entry *cacheEntry) (*http.Request, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if entry != nil && entry.etag != "" {
		req.Header.Set("If-None-Match", entry.etag)
	}
	return req, nil
}

// FindLocations searches stations and stops matching query.
func (c *Client) FindLocations(ctx context.Context, query string, results int) Result {
	if results <= 0 {
		results = 10
	}
	params := map[string]string{
		"query":   query,
		"results": strconv.Itoa(results),
	}
	return c.do(ctx, "/locations", params, locationsMaxAge)
}

// JourneyParams narrows a journey search. From and To are station IDs.
// A nil Transfers means no constraint; pointing it at 0 requests direct
// connections only.
type JourneyParams struct {
	From          string
	To            string
	Departure     time.Time
	Arrival       time.Time
	Results       int
	Stopovers     bool
	Transfers     *int
	Accessibility string
}

// GetJourneys searches connections between two stations.
func (c *Client) GetJourneys(ctx context.Context, p JourneyParams) Result {
	params := map[string]string{
		"from": p.From,
		"to":   p.To,
	}
	if !p.Departure.IsZero() {
		params["departure"] = p.Departure.Format(time.RFC3339)
	}
	if !p.Arrival.IsZero() {
		params["arrival"] = p.Arrival.Format(time.RFC3339)
	}
	if p.Results > 0 {
		params["results"] = strconv.Itoa(p.Results)
	}
	if p.Stopovers {
		params["stopovers"] = "true"
	}
	if p.Transfers != nil && *p.Transfers >= 0 {
		params["transfers"] = strconv.Itoa(*p.Transfers)
	}
	if p.Accessibility != "" {
		params["accessibility"] = p.Accessibility
	}
	return c.do(ctx, "/journeys", params, journeysMaxAge)
}

// BoardParams narrows a departure or arrival board request.
type BoardParams struct {
	When     time.Time
	Duration int // minutes, default 120
	Results  int // default 10
}

func (p BoardParams) query() map[string]string {
	params := map[string]string{}
	if !p.When.IsZero() {
		params["when"] = p.When.Format(time.RFC3339)
	}
	d := p.Duration
	if d <= 0 {
		d = 120
	}
	params["duration"] = strconv.Itoa(d)
	r := p.Results
	if r <= 0 {
		r = 10
	}
	params["results"] = strconv.Itoa(r)
	return params
}

// GetDepartures fetches the departure board for a stop.
func (c *Client) GetDepartures(ctx context.Context, stopID string, p BoardParams) Result {
	return c.do(ctx, "/stops/"+url.PathEscape(stopID)+"/departures", p.query(), boardMaxAge)
}

// GetArrivals fetches the arrival board for a stop.
func (c *Client) GetArrivals(ctx context.Context, stopID string, p BoardParams) Result {
	return c.do(ctx, "/stops/"+url.PathEscape(stopID)+"/arrivals", p.query(), boardMaxAge)
}

// GetTrip fetches a single trip; lineName disambiguates where the upstream
// requires it.
func (c *Client) GetTrip(ctx context.Context, tripID, lineName string) Result {
	params := map[string]string{}
	if lineName != "" {
		params["lineName"] = lineName
	}
	return c.do(ctx, "/trips/"+url.PathEscape(tripID), params, boardMaxAge)
}

// GetStop fetches a single stop by ID.
func (c *Client) GetStop(ctx context.Context, stopID string) Result {
	return c.do(ctx, "/stops/"+url.PathEscape(stopID), nil, locationsMaxAge)
}

// NearbyParams narrows a nearby-stops search.
type NearbyParams struct {
	Distance int // meters, default 1000
	Results  int // default 8
}

// FindNearby lists stops around a coordinate.
func (c *Client) FindNearby(ctx context.Context, latitude, longitude float64, p NearbyParams) Result {
	d := p.Distance
	if d <= 0 {
		d = 1000
	}
	r := p.Results
	if r <= 0 {
		r = 8
	}
	params := map[string]string{
		"latitude":  strconv.FormatFloat(latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(longitude, 'f', -1, 64),
		"distance":  strconv.Itoa(d),
		"results":   strconv.Itoa(r),
	}
	return c.do(ctx, "/stops/nearby", params, locationsMaxAge)
}

// Available probes the upstream root directly, bypassing cache, limiter and
// statistics, and reports whether it answered.
func (c *Client) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
