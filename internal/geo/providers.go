package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// EU member states, used when the provider does not report membership.
var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

func isEU(countryCode string) bool {
	_, ok := euCountries[strings.ToUpper(countryCode)]
	return ok
}

func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// ipAPIProvider speaks the ip-api.com response shape.
type ipAPIProvider struct {
	url    string
	client *http.Client
}

func (p *ipAPIProvider) Name() string { return "ip-api" }

func (p *ipAPIProvider) Lookup(ctx context.Context, ip string) (Info, error) {
	var body struct {
		CountryCode string  `json:"countryCode"`
		City        string  `json:"city"`
		Lat         float64 `json:"lat"`
		Lon         float64 `json:"lon"`
		Timezone    string  `json:"timezone"`
		InEU        bool    `json:"inEU"`
	}
	if err := fetchJSON(ctx, p.client, fmt.Sprintf(p.url, ip), &body); err != nil {
		return Info{}, err
	}
	if body.CountryCode == "" {
		return Info{}, errEmptyResponse
	}
	inEU := body.InEU || isEU(body.CountryCode)
	return Info{
		IP:        ip,
		Country:   body.CountryCode,
		City:      body.City,
		Latitude:  body.Lat,
		Longitude: body.Lon,
		Timezone:  body.Timezone,
		IsEU:      inEU,
	}, nil
}

// ipinfoProvider speaks the ipinfo.io response shape, where coordinates
// arrive as a single "lat,lon" string.
type ipinfoProvider struct {
	url    string
	client *http.Client
}

func (p *ipinfoProvider) Name() string { return "ipinfo" }

func (p *ipinfoProvider) Lookup(ctx context.Context, ip string) (Info, error) {
	var body struct {
		Country  string `json:"country"`
		City     string `json:"city"`
		Loc      string `json:"loc"`
		Timezone string `json:"timezone"`
	}
	if err := fetchJSON(ctx, p.client, fmt.Sprintf(p.url, ip), &body); err != nil {
		return Info{}, err
	}
	if body.Country == "" {
		return Info{}, errEmptyResponse
	}

	lat, lon := parseLoc(body.Loc)
	tz := body.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return Info{
		IP:        ip,
		Country:   body.Country,
		City:      body.City,
		Latitude:  lat,
		Longitude: lon,
		Timezone:  tz,
		IsEU:      isEU(body.Country),
	}, nil
}

func parseLoc(loc string) (lat, lon float64) {
	parts := strings.SplitN(loc, ",", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	lat, _ = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, _ = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	return lat, lon
}
