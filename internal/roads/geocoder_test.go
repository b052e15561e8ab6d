package roads

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNominatimReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "jsonv2" {
			t.Fatalf("expected jsonv2 format param")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"category": "highway",
			"type": "motorway",
			"name": "A1",
			"display_name": "A1, Somewhere",
			"address": {"road": "A1"}
		}`))
	}))
	defer srv.Close()

	client := NewNominatimClient(srv.URL)
	place, err := client.Reverse(context.Background(), 52.1, 5.12)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if place.Class != "highway" || place.Type != "motorway" || place.Name != "A1" {
		t.Fatalf("unexpected place: %+v", place)
	}
}

func TestNominatimReverseLegacyClassField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"class": "highway", "type": "trunk", "display_name": "N2, Elsewhere"}`))
	}))
	defer srv.Close()

	place, err := NewNominatimClient(srv.URL).Reverse(context.Background(), 52.1, 5.12)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if place.Class != "highway" || place.Type != "trunk" {
		t.Fatalf("unexpected place: %+v", place)
	}
	if place.Name != "N2, Elsewhere" {
		t.Fatalf("expected display_name fallback, got %q", place.Name)
	}
}

func TestNominatimReverseServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewNominatimClient(srv.URL).Reverse(context.Background(), 52.1, 5.12); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestNominatimReverseMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	if _, err := NewNominatimClient(srv.URL).Reverse(context.Background(), 52.1, 5.12); err == nil {
		t.Fatalf("expected decode error")
	}
}
