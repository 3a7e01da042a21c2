package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolve_DebugLoopback(t *testing.T) {
	r := NewResolverWithProviders(true)

	info, err := r.Resolve(context.Background(), "127.0.0.1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Country != "Unknown" {
		t.Fatalf("expected placeholder country, got %q", info.Country)
	}

	// Outside debug mode loopback goes to providers like any other IP.
	r = NewResolverWithProviders(false)
	if _, err := r.Resolve(context.Background(), "127.0.0.1"); err == nil {
		t.Fatalf("expected failure with no providers")
	}
}

func TestResolve_InvalidIP(t *testing.T) {
	r := NewResolverWithProviders(false)
	if _, err := r.Resolve(context.Background(), "not-an-ip"); !errors.Is(err, ErrInvalidIP) {
		t.Fatalf("expected ErrInvalidIP, got %v", err)
	}
}

func TestResolve_PrimaryProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"countryCode":"DE","city":"Berlin","lat":52.52,"lon":13.4,"timezone":"Europe/Berlin"}`))
	}))
	defer srv.Close()

	r := NewResolver(Config{
		PrimaryURL:  srv.URL + "/json/%s",
		FallbackURL: srv.URL + "/unused/%s",
		Timeout:     time.Second,
	})

	info, err := r.Resolve(context.Background(), "93.184.216.34")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Country != "DE" || info.City != "Berlin" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if !info.IsEU {
		t.Fatalf("expected DE to be flagged EU")
	}
	if info.Latitude != 52.52 || info.Longitude != 13.4 {
		t.Fatalf("unexpected coordinates: %+v", info)
	}
}

func TestResolve_FallsBackToSecondProvider(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"country":"US","city":"Norwell","loc":"42.15,-70.82","timezone":"America/New_York"}`))
	}))
	defer fallback.Close()

	r := NewResolver(Config{
		PrimaryURL:  primary.URL + "/json/%s",
		FallbackURL: fallback.URL + "/%s/json",
		Timeout:     time.Second,
	})

	info, err := r.Resolve(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Country != "US" {
		t.Fatalf("expected US from fallback, got %q", info.Country)
	}
	if info.Latitude != 42.15 || info.Longitude != -70.82 {
		t.Fatalf("unexpected coordinates: %+v", info)
	}
	if info.IsEU {
		t.Fatalf("US must not be flagged EU")
	}
}

func TestResolve_AllProvidersFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewResolver(Config{
		PrimaryURL:  srv.URL + "/json/%s",
		FallbackURL: srv.URL + "/%s/json",
		Timeout:     time.Second,
	})

	if _, err := r.Resolve(context.Background(), "8.8.8.8"); !errors.Is(err, ErrAllProviders) {
		t.Fatalf("expected ErrAllProviders, got %v", err)
	}
}
