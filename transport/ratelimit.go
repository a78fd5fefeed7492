package transport

import (
	"math"
	"sync"
	"time"
)

// TokenBucket is a lazily refilled token bucket. Tokens accrue continuously
// at refillRate per second up to capacity; refill happens on access, never
// via a background timer.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64
	last       time.Time
}

// NewTokenBucket returns a bucket that holds capacity tokens and refills at
// refillRate tokens per second. The bucket starts full.
func NewTokenBucket(capacity, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		last:       time.Now(),
	}
}

// TryConsume takes n tokens from the bucket. It returns false and leaves the
// token count untouched when fewer than n tokens are available.
func (tb *TokenBucket) TryConsume(n float64) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(time.Now())
	if tb.tokens < n {
		return false
	}
	tb.tokens -= n
	return true
}

// TimeUntilAvailable reports how long the caller has to wait before n tokens
// will be available. Zero means they are available now.
func (tb *TokenBucket) TimeUntilAvailable(n float64) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(time.Now())
	if tb.tokens >= n {
		return 0
	}
	if tb.refillRate <= 0 {
		return time.Duration(math.MaxInt64)
	}
	secs := (n - tb.tokens) / tb.refillRate
	return time.Duration(secs * float64(time.Second))
}

// Tokens reports the number of tokens currently available.
func (tb *TokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(time.Now())
	return tb.tokens
}

// Capacity reports the maximum number of tokens the bucket can hold.
func (tb *TokenBucket) Capacity() float64 {
	return tb.capacity
}

// refill credits tokens for the time elapsed since the last refill.
// Callers must hold mu.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.last).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.last = now
}
