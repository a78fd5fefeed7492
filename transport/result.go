package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ResultKind identifies the category of a request outcome.
type ResultKind int

const (
	KindSuccess ResultKind = iota
	KindNotFound
	KindRateLimited
	KindUpstreamError
	KindTransientError
	KindPermanentError
)

var kindNames = map[ResultKind]string{
	KindSuccess:        "success",
	KindNotFound:       "not_found",
	KindRateLimited:    "rate_limited",
	KindUpstreamError:  "upstream_error",
	KindTransientError: "transient_error",
	KindPermanentError: "permanent_error",
}

func (k ResultKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// retryable reports whether outcomes of this kind may succeed on a later
// attempt. The same set of kinds is eligible for stale-cache fallback.
func (k ResultKind) retryable() bool {
	switch k {
	case KindRateLimited, KindUpstreamError, KindTransientError:
		return true
	}
	return false
}

// Result is the outcome of one logical request. Exactly one kind applies;
// the other fields are populated according to that kind. Payloads served
// from cache carry FromCache and CachedAt and no HTTP status.
type Result struct {
	Kind       ResultKind
	Data       json.RawMessage
	HTTPStatus int
	FromCache  bool
	CachedAt   time.Time
	Message    string
	RetryAfter int // seconds; 0 means no hint
}

// IsSuccess reports whether the request produced usable data, whether fresh
// from the upstream or served from cache.
func (r Result) IsSuccess() bool {
	return r.Kind == KindSuccess
}

// ShouldRetry reports whether the caller may reasonably retry later. This
// layer never retries on its own; backoff policy belongs to the caller.
func (r Result) ShouldRetry() bool {
	return r.Kind.retryable()
}

// CanFallbackToCache reports whether this outcome permits serving a
// usable-stale cached payload in its place.
func (r Result) CanFallbackToCache() bool {
	return r.Kind.retryable()
}

// Err converts a non-success result into an error; a success is nil. Useful
// where a caller has no use for the kind taxonomy and just wants to bail.
func (r Result) Err() error {
	if r.Kind == KindSuccess {
		return nil
	}
	if r.Message != "" {
		return fmt.Errorf("%s: %s", r.Kind, r.Message)
	}
	if r.HTTPStatus != 0 {
		return fmt.Errorf("%s: upstream status %d", r.Kind, r.HTTPStatus)
	}
	return errors.New(r.Kind.String())
}

// classify maps an HTTP status code to a result kind. Statuses outside the
// table, and transport failures carrying no status at all, are transient.
func classify(status int) ResultKind {
	switch {
	case status >= 200 && status <= 299:
		return KindSuccess
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 400 && status <= 499:
		return KindPermanentError
	case status >= 500 && status <= 599:
		return KindUpstreamError
	}
	return KindTransientError
}

const maxMessageLen = 500

// truncateMessage bounds upstream response bodies reused as error text.
func truncateMessage(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen]
}

// retryAfterSeconds extracts a backoff hint from upstream response headers:
// Retry-After as integer seconds when present, otherwise the distance to an
// X-Ratelimit-Reset epoch clamped to zero. Zero means no hint was given.
func retryAfterSeconds(h http.Header, now time.Time) int {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return secs
		}
	}
	if v := h.Get("X-Ratelimit-Reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			d := epoch - now.Unix()
			if d < 0 {
				d = 0
			}
			return int(d)
		}
	}
	return 0
}
