package split

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSource struct {
	quotes map[string]*Quote
	calls  []string
}

func (f *fakeSource) SegmentPrice(_ context.Context, from, to Stop, _ string) (*Quote, error) {
	key := from.ID + "-" + to.ID
	f.calls = append(f.calls, key)
	q, ok := f.quotes[key]
	if !ok {
		return nil, errors.New("no offer")
	}
	return q, nil
}

func testStop(id string) Stop {
	return Stop{ID: id, Name: "Stop " + id, Departure: "08:00:00", Arrival: "07:58:00"}
}

func TestAnalyzeFindsCheaperSplit(t *testing.T) {
	src := &fakeSource{quotes: map[string]*Quote{
		"A-B": {PriceCents: 3000, Departure: "2025-08-25T08:00:00"},
		"B-C": {PriceCents: 4000, Departure: "2025-08-25T09:00:00"},
		"A-C": {PriceCents: 9500, Departure: "2025-08-25T08:00:00"},
	}}
	a := New(src, WithDelay(0))
	stops := []Stop{testStop("A"), testStop("B"), testStop("C")}

	report, err := a.Analyze(context.Background(), stops, "2025-08-25", 10000)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !report.Cheaper {
		t.Fatal("expected a cheaper split")
	}
	if report.SplitCents != 7000 {
		t.Errorf("SplitCents = %d, want 7000", report.SplitCents)
	}
	if report.SavingsCents != 3000 {
		t.Errorf("SavingsCents = %d, want 3000", report.SavingsCents)
	}
	if got := report.SavingsPercent(); got != 30 {
		t.Errorf("SavingsPercent() = %v, want 30", got)
	}
	if len(report.Tickets) != 2 {
		t.Fatalf("got %d tickets, want 2", len(report.Tickets))
	}
	if report.Tickets[0].From.ID != "A" || report.Tickets[0].To.ID != "B" {
		t.Errorf("first ticket covers %s-%s, want A-B", report.Tickets[0].From.ID, report.Tickets[0].To.ID)
	}
	if report.Tickets[1].From.ID != "B" || report.Tickets[1].To.ID != "C" {
		t.Errorf("second ticket covers %s-%s, want B-C", report.Tickets[1].From.ID, report.Tickets[1].To.ID)
	}
}

func TestAnalyzeKeepsDirectWhenNotCheaper(t *testing.T) {
	src := &fakeSource{quotes: map[string]*Quote{
		"A-B": {PriceCents: 6000},
		"B-C": {PriceCents: 5000},
		"A-C": {PriceCents: 9900},
	}}
	a := New(src, WithDelay(0))
	stops := []Stop{testStop("A"), testStop("B"), testStop("C")}

	report, err := a.Analyze(context.Background(), stops, "2025-08-25", 9900)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Cheaper {
		t.Error("split equal to the direct fare must not be reported as cheaper")
	}
	if len(report.Tickets) != 0 {
		t.Errorf("got %d tickets, want none", len(report.Tickets))
	}
	if report.DirectCents != 9900 {
		t.Errorf("DirectCents = %d, want 9900", report.DirectCents)
	}
}

func TestAnalyzeSkipsUnpricedSegments(t *testing.T) {
	src := &fakeSource{quotes: map[string]*Quote{
		"A-C": {PriceCents: 9500},
	}}
	a := New(src, WithDelay(0))
	stops := []Stop{testStop("A"), testStop("B"), testStop("C")}

	report, err := a.Analyze(context.Background(), stops, "2025-08-25", 10000)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !report.Cheaper {
		t.Fatal("expected the repriced through ticket to win")
	}
	if len(report.Tickets) != 1 {
		t.Fatalf("got %d tickets, want 1", len(report.Tickets))
	}
	if report.Tickets[0].From.ID != "A" || report.Tickets[0].To.ID != "C" {
		t.Errorf("ticket covers %s-%s, want A-C", report.Tickets[0].From.ID, report.Tickets[0].To.ID)
	}
}

func TestAnalyzeNothingPriced(t *testing.T) {
	src := &fakeSource{quotes: map[string]*Quote{}}
	a := New(src, WithDelay(0))
	stops := []Stop{testStop("A"), testStop("B"), testStop("C")}

	report, err := a.Analyze(context.Background(), stops, "2025-08-25", 10000)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Cheaper {
		t.Error("no priced segments must not produce a split")
	}
	if len(src.calls) != 3 {
		t.Errorf("made %d lookups, want 3", len(src.calls))
	}
}

func TestAnalyzeSkipsStopsWithoutDeparture(t *testing.T) {
	noDep := testStop("B")
	noDep.Departure = ""
	src := &fakeSource{quotes: map[string]*Quote{
		"A-C": {PriceCents: 9500},
	}}
	a := New(src, WithDelay(0))
	stops := []Stop{testStop("A"), noDep, testStop("C")}

	if _, err := a.Analyze(context.Background(), stops, "2025-08-25", 10000); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, call := range src.calls {
		if call == "B-C" {
			t.Error("pair starting at a stop without departure time was priced")
		}
	}
	if len(src.calls) != 2 {
		t.Errorf("made %d lookups, want 2", len(src.calls))
	}
}

func TestAnalyzeCoveredSegment(t *testing.T) {
	src := &fakeSource{quotes: map[string]*Quote{
		"A-B": {Covered: true, Departure: "2025-08-25T08:00:00"},
		"B-C": {PriceCents: 4000, Departure: "2025-08-25T09:00:00"},
	}}
	a := New(src, WithDelay(0))
	stops := []Stop{testStop("A"), testStop("B"), testStop("C")}

	report, err := a.Analyze(context.Background(), stops, "2025-08-25", 10000)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !report.Cheaper || report.SplitCents != 4000 {
		t.Fatalf("Cheaper=%v SplitCents=%d, want cheaper split at 4000", report.Cheaper, report.SplitCents)
	}
	if !report.Tickets[0].Covered {
		t.Error("first ticket should be marked as covered")
	}
	if report.Tickets[0].PriceCents != 0 {
		t.Errorf("covered ticket costs %d, want 0", report.Tickets[0].PriceCents)
	}
}

func TestAnalyzeContextCancelled(t *testing.T) {
	src := &fakeSource{quotes: map[string]*Quote{}}
	a := New(src, WithDelay(50*time.Millisecond))
	stops := []Stop{testStop("A"), testStop("B")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Analyze(ctx, stops, "2025-08-25", 10000); !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze returned %v, want context.Canceled", err)
	}
}

func TestAnalyzeTooFewStops(t *testing.T) {
	a := New(&fakeSource{}, WithDelay(0))
	if _, err := a.Analyze(context.Background(), []Stop{testStop("A")}, "2025-08-25", 10000); err == nil {
		t.Fatal("expected an error for a single-stop journey")
	}
}

func TestFormatEuro(t *testing.T) {
	cases := []struct {
		cents int
		want  string
	}{
		{1799, "17.99 €"},
		{0, "0.00 €"},
		{9, "0.09 €"},
		{100, "1.00 €"},
		{-250, "-2.50 €"},
	}
	for _, tc := range cases {
		if got := FormatEuro(tc.cents); got != tc.want {
			t.Errorf("FormatEuro(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
