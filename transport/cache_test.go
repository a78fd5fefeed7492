package transport

import (
	"encoding/json"
	"testing"
	"time"
)

func testEntry(payload string, age time.Duration) *cacheEntry {
	return &cacheEntry{
		payload:     json.RawMessage(payload),
		fetchedAt:   time.Now().Add(-age),
		etag:        `"v1"`,
		maxAge:      time.Minute,
		staleWindow: 5 * time.Minute,
	}
}

func TestCacheKeyDeterminism(t *testing.T) {
	a := cacheKey("/journeys", map[string]string{"from": "1", "to": "2"})
	b := cacheKey("/journeys", map[string]string{"to": "2", "from": "1"})
	if a != b {
		t.Errorf("same endpoint and params must yield the same key: %s vs %s", a, b)
	}

	c := cacheKey("/journeys", map[string]string{"from": "1", "to": "3"})
	if a == c {
		t.Error("different param values must yield different keys")
	}

	d := cacheKey("/locations", map[string]string{"from": "1", "to": "2"})
	if a == d {
		t.Error("different endpoints must yield different keys")
	}

	if a != cacheKey("/journeys", map[string]string{"from": "1", "to": "2"}) {
		t.Error("key must be stable across calls")
	}
}

func TestCacheEntryAging(t *testing.T) {
	now := time.Now()

	fresh := testEntry(`{}`, 10*time.Second)
	if !fresh.isFresh(now) {
		t.Error("10s old entry with 1m maxAge should be fresh")
	}
	if !fresh.isUsableStale(now) {
		t.Error("fresh entries are inside the stale window too")
	}

	stale := testEntry(`{}`, 2*time.Minute)
	if stale.isFresh(now) {
		t.Error("2m old entry with 1m maxAge should not be fresh")
	}
	if !stale.isUsableStale(now) {
		t.Error("2m old entry should still be usable within the 5m stale window")
	}

	dead := testEntry(`{}`, 10*time.Minute)
	if dead.isFresh(now) || dead.isUsableStale(now) {
		t.Error("entry past maxAge+staleWindow should be neither fresh nor usable")
	}
}

func TestCacheStoreRoundTrip(t *testing.T) {
	mc := newMemoryCache(10)
	params := map[string]string{"query": "Berlin"}

	e, key := mc.lookup("/locations", params)
	if e != nil {
		t.Fatal("lookup on empty cache should miss")
	}

	want := testEntry(`{"name":"Berlin Hbf"}`, 0)
	mc.store(key, want)

	got, key2 := mc.lookup("/locations", params)
	if key2 != key {
		t.Errorf("lookup key changed between calls: %s vs %s", key, key2)
	}
	if got == nil {
		t.Fatal("expected a hit after store")
	}
	if string(got.payload) != string(want.payload) {
		t.Errorf("payload mismatch: got %s", got.payload)
	}
	if mc.size() != 1 {
		t.Errorf("expected size 1, got %d", mc.size())
	}
}

func TestCacheLookupDiscardsAgedEntries(t *testing.T) {
	mc := newMemoryCache(10)
	_, key := mc.lookup("/stops/8011160", nil)
	mc.store(key, testEntry(`{}`, 10*time.Minute))

	if e, _ := mc.lookup("/stops/8011160", nil); e != nil {
		t.Error("entry past maxAge+staleWindow must be reported as a miss")
	}
	if mc.size() != 0 {
		t.Errorf("aged entry should be discarded on read, size is %d", mc.size())
	}
}

func TestCacheMissTouchesAccessTime(t *testing.T) {
	mc := newMemoryCache(10)
	mc.lookup("/trips/1", nil)

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if len(mc.access) != 1 {
		t.Errorf("probing a missing key should record an access time, got %d entries", len(mc.access))
	}
	if len(mc.entries) != 0 {
		t.Errorf("probing must not create entries, got %d", len(mc.entries))
	}
}

func TestCacheLRUEviction(t *testing.T) {
	mc := newMemoryCache(3)
	keys := make([]string, 4)
	for i, q := range []string{"a", "b", "c", "d"} {
		keys[i] = cacheKey("/locations", map[string]string{"query": q})
	}
	for i := 0; i < 3; i++ {
		mc.store(keys[i], testEntry(`{}`, 0))
	}

	// Make keys[1] the coldest, then insert a fourth key.
	now := time.Now()
	mc.mu.Lock()
	mc.access[keys[0]] = now
	mc.access[keys[1]] = now.Add(-time.Hour)
	mc.access[keys[2]] = now
	mc.mu.Unlock()

	mc.store(keys[3], testEntry(`{}`, 0))

	if mc.size() != 3 {
		t.Fatalf("store at capacity must evict exactly one entry, size is %d", mc.size())
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, ok := mc.entries[keys[1]]; ok {
		t.Error("least recently accessed key should have been evicted")
	}
	for _, k := range []string{keys[0], keys[2], keys[3]} {
		if _, ok := mc.entries[k]; !ok {
			t.Errorf("key %s should have survived eviction", k)
		}
	}
}

func TestCacheOverwriteDoesNotEvict(t *testing.T) {
	mc := newMemoryCache(2)
	_, k1 := mc.lookup("/a", nil)
	_, k2 := mc.lookup("/b", nil)
	mc.store(k1, testEntry(`{"v":1}`, 0))
	mc.store(k2, testEntry(`{}`, 0))

	mc.store(k1, testEntry(`{"v":2}`, 0))

	if mc.size() != 2 {
		t.Errorf("overwriting an existing key must not evict, size is %d", mc.size())
	}
	e, _ := mc.lookup("/a", nil)
	if e == nil || string(e.payload) != `{"v":2}` {
		t.Error("overwrite should replace the payload")
	}
}

func TestCacheClear(t *testing.T) {
	mc := newMemoryCache(5)
	_, key := mc.lookup("/locations", map[string]string{"query": "x"})
	mc.store(key, testEntry(`{}`, 0))

	mc.clear()

	if mc.size() != 0 {
		t.Errorf("clear should empty the cache, size is %d", mc.size())
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if len(mc.access) != 0 {
		t.Errorf("clear should empty the access map, got %d entries", len(mc.access))
	}
}
