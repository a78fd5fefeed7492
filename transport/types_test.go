package transport

import (
	"encoding/json"
	"testing"
)

func TestParseLocations(t *testing.T) {
	payload := json.RawMessage(`[
		{"type":"station","id":"8000105","name":"Frankfurt(Main)Hbf","location":{"latitude":50.107,"longitude":8.663}},
		{"type":"stop","id":"8011160","name":"Berlin Hbf"},
		{"type":"location","id":"x","name":"Some Address"},
		{"type":"stop","id":"","name":"Nameless"},
		{"type":"stop","id":"123","name":""}
	]`)

	locs, err := ParseLocations(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("expected 2 usable locations, got %d", len(locs))
	}
	if locs[0].ID != "8000105" || locs[0].Name != "Frankfurt(Main)Hbf" {
		t.Errorf("unexpected first location: %+v", locs[0])
	}
	if locs[0].Position == nil || locs[0].Position.Latitude != 50.107 {
		t.Errorf("coordinates should be decoded, got %+v", locs[0].Position)
	}
	if locs[1].ID != "8011160" {
		t.Errorf("unexpected second location: %+v", locs[1])
	}
}

func TestParseLocationsRejectsGarbage(t *testing.T) {
	if _, err := ParseLocations(json.RawMessage(`{"not":"an array"}`)); err == nil {
		t.Error("expected an error for a non-array payload")
	}
}

func TestParseJourneys(t *testing.T) {
	payload := json.RawMessage(`{"journeys":[
		{"legs":[{"tripId":"t1","departure":"2026-08-25T10:00:00+02:00"}]},
		{"legs":[{"tripId":"t2"},{"tripId":"t3","walking":true}]}
	]}`)

	journeys, err := ParseJourneys(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(journeys) != 2 {
		t.Fatalf("expected 2 journeys, got %d", len(journeys))
	}
	if len(journeys[1].Legs) != 2 || !journeys[1].Legs[1].Walking {
		t.Errorf("leg decoding is off: %+v", journeys[1].Legs)
	}
}

func TestParseDepartures(t *testing.T) {
	t.Run("wrapped object", func(t *testing.T) {
		payload := json.RawMessage(`{"departures":[
			{"tripId":"t1","direction":"Hamburg-Altona","line":{"name":"ICE 76","product":"nationalExpress"}}
		],"realtimeDataUpdatedAt":1724580000}`)
		deps, err := ParseDepartures(payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(deps) != 1 || deps[0].Line == nil || deps[0].Line.Name != "ICE 76" {
			t.Errorf("unexpected departures: %+v", deps)
		}
	})

	t.Run("wrapped arrivals", func(t *testing.T) {
		payload := json.RawMessage(`{"arrivals":[{"tripId":"t2","direction":"München Hbf"}]}`)
		deps, err := ParseDepartures(payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(deps) != 1 || deps[0].TripID != "t2" {
			t.Errorf("unexpected arrivals: %+v", deps)
		}
	})

	t.Run("bare array", func(t *testing.T) {
		payload := json.RawMessage(`[{"tripId":"t3","cancelled":true}]`)
		deps, err := ParseDepartures(payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(deps) != 1 || !deps[0].Cancelled {
			t.Errorf("unexpected rows: %+v", deps)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseDepartures(json.RawMessage(`"nope"`)); err == nil {
			t.Error("expected an error for a string payload")
		}
	})
}
