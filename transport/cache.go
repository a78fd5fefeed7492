package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sync"
	"time"
)

// cacheEntry holds one cached upstream payload together with the validator
// and aging state needed for conditional refresh.
type cacheEntry struct {
	payload     json.RawMessage
	fetchedAt   time.Time
	etag        string
	maxAge      time.Duration
	staleWindow time.Duration
}

func (e *cacheEntry) age(now time.Time) time.Duration {
	return now.Sub(e.fetchedAt)
}

// isFresh reports whether the entry may be served without revalidation.
func (e *cacheEntry) isFresh(now time.Time) bool {
	return e.age(now) < e.maxAge
}

// isUsableStale reports whether the entry is still inside the grace window
// and may be served as a degraded fallback. Fresh entries are usable too.
func (e *cacheEntry) isUsableStale(now time.Time) bool {
	return e.age(now) < e.maxAge+e.staleWindow
}

// cacheKey builds the canonical key for an endpoint and its parameters.
// Parameter order never changes the key.
func cacheKey(endpoint string, params map[string]string) string {
	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	sum := sha256.Sum256([]byte(endpoint + "?" + v.Encode()))
	return hex.EncodeToString(sum[:])
}

// memoryCache is a bounded in-process store mapping canonical request keys
// to entries, with a parallel access-time map for eviction. Eviction picks
// the least recently accessed key via a linear scan, which is fine at the
// sizes this client runs with.
type memoryCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*cacheEntry
	access  map[string]time.Time
}

func newMemoryCache(maxSize int) *memoryCache {
	return &memoryCache{
		maxSize: maxSize,
		entries: make(map[string]*cacheEntry),
		access:  make(map[string]time.Time),
	}
}

// lookup returns the entry stored for (endpoint, params), if any, along with
// the canonical key. Entries past maxAge+staleWindow are discarded here and
// reported as a miss; there is no background sweep. Probing a key refreshes
// its access time even on a miss.
func (mc *memoryCache) lookup(endpoint string, params map[string]string) (*cacheEntry, string) {
	key := cacheKey(endpoint, params)
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.access[key] = now
	e, ok := mc.entries[key]
	if !ok {
		return nil, key
	}
	if !e.isUsableStale(now) {
		delete(mc.entries, key)
		delete(mc.access, key)
		return nil, key
	}
	return e, key
}

// store inserts or overwrites key. Inserting a new key at capacity first
// evicts the single entry with the oldest access time.
func (mc *memoryCache) store(key string, e *cacheEntry) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, exists := mc.entries[key]; !exists && len(mc.entries) >= mc.maxSize {
		mc.evictOldest()
	}
	mc.entries[key] = e
	mc.access[key] = time.Now()
}

// evictOldest removes the least recently accessed entry. Callers hold mu.
func (mc *memoryCache) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for k := range mc.entries {
		at := mc.access[k]
		if oldestKey == "" || at.Before(oldestAt) {
			oldestKey = k
			oldestAt = at
		}
	}
	if oldestKey != "" {
		delete(mc.entries, oldestKey)
		delete(mc.access, oldestKey)
	}
}

func (mc *memoryCache) clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.entries = make(map[string]*cacheEntry)
	mc.access = make(map[string]time.Time)
}

func (mc *memoryCache) size() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.entries)
}
