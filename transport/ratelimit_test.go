package transport

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// rewind moves the bucket's refill anchor into the past, simulating elapsed
// time without sleeping.
func rewind(tb *TokenBucket, d time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.last = tb.last.Add(-d)
}

func TestTokenBucketStartsFull(t *testing.T) {
	tb := NewTokenBucket(5, 1)
	if got := tb.Tokens(); got != 5 {
		t.Errorf("new bucket should hold 5 tokens, got %v", got)
	}
	if got := tb.Capacity(); got != 5 {
		t.Errorf("capacity should be 5, got %v", got)
	}
}

func TestTokenBucketConsume(t *testing.T) {
	tb := NewTokenBucket(5, 0)
	if !tb.TryConsume(1) {
		t.Fatal("consuming 1 of 5 tokens should succeed")
	}
	if got := tb.Tokens(); got != 4 {
		t.Errorf("expected 4 tokens after consuming 1, got %v", got)
	}
	if !tb.TryConsume(4) {
		t.Fatal("consuming the remaining 4 tokens should succeed")
	}
	if tb.TryConsume(1) {
		t.Error("consuming from an empty bucket should fail")
	}
}

func TestFailedConsumeLeavesTokensUntouched(t *testing.T) {
	tb := NewTokenBucket(2, 0)
	if !tb.TryConsume(2) {
		t.Fatal("draining the bucket should succeed")
	}
	if tb.TryConsume(1) {
		t.Fatal("consume on empty bucket should fail")
	}
	if got := tb.Tokens(); got != 0 {
		t.Errorf("failed consume must not change tokens, got %v", got)
	}
}

func TestTokenConservation(t *testing.T) {
	// Consuming C tokens, waiting C/R seconds, then consuming C again must
	// work; C+1 without waiting must not.
	const capacity, rate = 4, 2
	tb := NewTokenBucket(capacity, rate)
	for i := 0; i < capacity; i++ {
		if !tb.TryConsume(1) {
			t.Fatalf("consume %d of %d should succeed", i+1, capacity)
		}
	}
	if tb.TryConsume(1) {
		t.Fatal("consume beyond capacity should fail without waiting")
	}
	rewind(tb, time.Duration(float64(capacity)/float64(rate)*float64(time.Second)))
	for i := 0; i < capacity; i++ {
		if !tb.TryConsume(1) {
			t.Fatalf("consume %d of %d after full refill should succeed", i+1, capacity)
		}
	}
	if tb.TryConsume(1) {
		t.Error("bucket should be empty again")
	}
}

func TestTokenBucketScenarioFiveThenRefill(t *testing.T) {
	tb := NewTokenBucket(5, 1)
	for i := 0; i < 5; i++ {
		if !tb.TryConsume(1) {
			t.Fatalf("consume %d should succeed", i+1)
		}
	}
	if tb.TryConsume(1) {
		t.Fatal("sixth consume should fail immediately")
	}
	rewind(tb, time.Second)
	if !tb.TryConsume(1) {
		t.Error("one token should be available after a 1s clock advance")
	}
	if tb.TryConsume(1) {
		t.Error("only one token should have refilled")
	}
}

func TestTokensNeverExceedCapacity(t *testing.T) {
	tb := NewTokenBucket(3, 10)
	rewind(tb, time.Minute)
	if got := tb.Tokens(); got != 3 {
		t.Errorf("tokens must cap at capacity, got %v", got)
	}
}

func TestTimeUntilAvailable(t *testing.T) {
	t.Run("available now", func(t *testing.T) {
		tb := NewTokenBucket(2, 1)
		if got := tb.TimeUntilAvailable(1); got != 0 {
			t.Errorf("full bucket should report 0 wait, got %v", got)
		}
	})

	t.Run("after drain", func(t *testing.T) {
		tb := NewTokenBucket(2, 1)
		tb.TryConsume(2)
		got := tb.TimeUntilAvailable(1)
		if got <= 900*time.Millisecond || got > time.Second {
			t.Errorf("expected roughly 1s wait for one token, got %v", got)
		}
	})

	t.Run("zero refill rate", func(t *testing.T) {
		tb := NewTokenBucket(1, 0)
		tb.TryConsume(1)
		if got := tb.TimeUntilAvailable(1); got != time.Duration(math.MaxInt64) {
			t.Errorf("zero-rate bucket should report an unbounded wait, got %v", got)
		}
	})
}

func TestTokenBucketConcurrentConsume(t *testing.T) {
	// With no refill, exactly capacity consumes may succeed no matter how
	// many goroutines race.
	const capacity = 50
	tb := NewTokenBucket(capacity, 0)

	var (
		wg        sync.WaitGroup
		successes atomic.Int64
	)
	for i := 0; i < 2*capacity; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tb.TryConsume(1) {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := successes.Load(); got != capacity {
		t.Errorf("expected exactly %d successful consumes, got %d", capacity, got)
	}
	if got := tb.Tokens(); got != 0 {
		t.Errorf("bucket should be empty, got %v tokens", got)
	}
}
