package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/logic-arts-official/Better-Bahn/transport"
)

var _ transport.Metrics = (*Collector)(nil)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector() returned nil")
	}
	if c.Registry() == nil {
		t.Fatal("expected the collector to own a registry")
	}
}

func TestNewCollectorWith(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWith(reg)
	if c.Registry() != nil {
		t.Error("external registerer should leave Registry nil")
	}
	c.RecordCacheMiss("locations")
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Error("expected metrics on the external registry")
	}
}

func TestRecordingCounters(t *testing.T) {
	c := NewCollector()

	c.RecordRequest("journeys", 200, 150*time.Millisecond)
	c.RecordRequest("journeys", 200, 80*time.Millisecond)
	c.RecordRequest("locations", 502, 10*time.Millisecond)
	c.RecordCacheHit("locations", false)
	c.RecordCacheHit("locations", true)
	c.RecordCacheMiss("journeys")
	c.RecordRateLimited("departures")
	c.RecordError("journeys", "upstream_error")

	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("journeys", "200")); got != 2 {
		t.Errorf("expected 2 journey requests, got %v", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("locations", "502")); got != 1 {
		t.Errorf("expected 1 failed locations request, got %v", got)
	}
	if got := testutil.ToFloat64(c.cacheHitsTotal.WithLabelValues("locations", "true")); got != 1 {
		t.Errorf("expected 1 stale hit, got %v", got)
	}
	if got := testutil.ToFloat64(c.cacheHitsTotal.WithLabelValues("locations", "false")); got != 1 {
		t.Errorf("expected 1 fresh hit, got %v", got)
	}
	if got := testutil.ToFloat64(c.cacheMissesTotal.WithLabelValues("journeys")); got != 1 {
		t.Errorf("expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(c.rateLimitedTotal.WithLabelValues("departures")); got != 1 {
		t.Errorf("expected 1 rate limited request, got %v", got)
	}
	if got := testutil.ToFloat64(c.errorsTotal.WithLabelValues("journeys", "upstream_error")); got != 1 {
		t.Errorf("expected 1 error, got %v", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.RecordRequest("journeys", 200, time.Second)
	c.RecordCacheHit("journeys", false)
	c.RecordCacheMiss("journeys")
	c.RecordRateLimited("journeys")
	c.RecordError("journeys", "transient_error")
	if c.Registry() != nil {
		t.Error("nil collector has no registry")
	}
}
