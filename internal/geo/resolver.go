package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"time"
)

// Info is the resolved location of a viewer IP.
type Info struct {
	IP        string
	Country   string // ISO 3166-1 alpha-2, "Unknown" for debug loopback
	City      string
	Latitude  float64
	Longitude float64
	Timezone  string
	IsEU      bool
}

// Provider is one upstream geolocation API.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, ip string) (Info, error)
}

var (
	ErrInvalidIP     = errors.New("geo: invalid ip address")
	ErrAllProviders  = errors.New("geo: all providers failed")
	errEmptyResponse = errors.New("geo: provider returned no country")
)

// Resolver tries providers in order and returns the first success.
//
// Geo resolution is a hard dependency of pricing (no country, no rate), so
// a full provider outage propagates as an error; callers surface it as an
// ingestion failure rather than guessing a region.
type Resolver struct {
	providers []Provider

	// debug short-circuits loopback addresses so local development does
	// not hit external APIs.
	debug bool
}

// Config carries the provider endpoints. URLs are templates with one %s
// verb for the IP address.
type Config struct {
	PrimaryURL  string
	FallbackURL string
	Timeout     time.Duration
	Debug       bool
}

func NewResolver(cfg Config) *Resolver {
	client := &http.Client{Timeout: cfg.Timeout}
	return &Resolver{
		providers: []Provider{
			&ipAPIProvider{url: cfg.PrimaryURL, client: client},
			&ipinfoProvider{url: cfg.FallbackURL, client: client},
		},
		debug: cfg.Debug,
	}
}

// NewResolverWithProviders builds a resolver over explicit providers (tests).
func NewResolverWithProviders(debug bool, providers ...Provider) *Resolver {
	return &Resolver{providers: providers, debug: debug}
}

func (r *Resolver) Resolve(ctx context.Context, ip string) (Info, error) {
	if r.debug && (ip == "127.0.0.1" || ip == "::1") {
		return Info{IP: ip, Country: "Unknown", City: "Unknown", Timezone: "Unknown"}, nil
	}

	if _, err := netip.ParseAddr(ip); err != nil {
		return Info{}, fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}

	var lastErr error
	for _, p := range r.providers {
		info, err := p.Lookup(ctx, ip)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", p.Name(), err)
			continue
		}
		return info, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no providers configured")
	}
	return Info{}, fmt.Errorf("%w: %v", ErrAllProviders, lastErr)
}
