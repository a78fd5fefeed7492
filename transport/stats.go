package transport

import "math"

// Stats is a point-in-time snapshot of client activity, suitable for JSON
// exposure. Counters are cumulative since construction.
type Stats struct {
	RequestsMade  int64   `json:"requests_made"`
	CacheHits     int64   `json:"cache_hits"`
	RateLimitHits int64   `json:"rate_limit_hits"`
	Errors        int64   `json:"errors"`
	CurrentTokens float64 `json:"current_tokens"`
	TokenCapacity float64 `json:"token_capacity"`
	CacheSize     int     `json:"cache_size"`
	CacheMaxSize  int     `json:"cache_max_size"`
}

// Stats returns a snapshot of the client's counters, limiter fill and cache
// occupancy.
func (c *Client) Stats() Stats {
	s := Stats{
		RequestsMade:  c.requestsMade.Load(),
		CacheHits:     c.cacheHits.Load(),
		RateLimitHits: c.rateLimitHits.Load(),
		Errors:        c.errors.Load(),
		CurrentTokens: math.Round(c.limiter.Tokens()*100) / 100,
		TokenCapacity: c.limiter.Capacity(),
	}
	if c.cache != nil {
		s.CacheSize = c.cache.size()
		s.CacheMaxSize = c.cache.maxSize
	}
	return s
}

// ClearCache drops every cached entry. Counters are unaffected.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.clear()
	}
}
