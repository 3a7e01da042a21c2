package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func testTable() Table {
	return Table{
		Regions: map[string]RegionRates{
			"na": {
				Countries: []string{"US", "CA"},
				Rates: map[string]decimal.Decimal{
					InteractionImpression: decimal.RequireFromString("0.0008"),
					InteractionClick:      decimal.RequireFromString("0.25"),
					InteractionView:       decimal.RequireFromString("0.004"),
				},
				Currency: "USD",
			},
			"other": {
				Rates: map[string]decimal.Decimal{
					InteractionImpression: decimal.RequireFromString("0.0002"),
					InteractionClick:      decimal.RequireFromString("0.05"),
					InteractionView:       decimal.RequireFromString("0.001"),
				},
				Currency: "USD",
			},
		},
		DefaultCurrency: "USD",
		MinimumPayout:   decimal.RequireFromString("50"),
		PaymentSchedule: "net30",
		RateMultipliers: map[string]decimal.Decimal{
			"desktop": decimal.RequireFromString("1.0"),
			"mobile":  decimal.RequireFromString("0.8"),
		},
		PublisherShare: decimal.RequireFromString("0.65"),
		PlatformShare:  decimal.RequireFromString("0.35"),
		Version:        "test",
	}
}

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testTable())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestRegionForCountry(t *testing.T) {
	e := mustEngine(t)

	if got := e.RegionForCountry("US"); got != "na" {
		t.Fatalf("expected na, got %q", got)
	}
	if got := e.RegionForCountry("us"); got != "na" {
		t.Fatalf("expected case-insensitive match, got %q", got)
	}
	if got := e.RegionForCountry("BR"); got != "other" {
		t.Fatalf("expected other fallback, got %q", got)
	}
	if got := e.RegionForCountry(""); got != "other" {
		t.Fatalf("expected other for empty code, got %q", got)
	}
}

func TestBaseRate_UnknownInteraction(t *testing.T) {
	e := mustEngine(t)

	if _, err := e.BaseRate("US", "hover"); !errors.Is(err, ErrUnknownInteraction) {
		t.Fatalf("expected ErrUnknownInteraction, got %v", err)
	}
}

func TestDeviceMultiplier_UnknownDefaultsToOne(t *testing.T) {
	e := mustEngine(t)

	if got := e.DeviceMultiplier("smartfridge"); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected 1, got %s", got)
	}
	if got := e.DeviceMultiplier("MOBILE"); !got.Equal(decimal.RequireFromString("0.8")) {
		t.Fatalf("expected case-insensitive 0.8, got %s", got)
	}
}

func TestCalculateRevenue_FinalRateIsBaseTimesMultiplier(t *testing.T) {
	e := mustEngine(t)

	cases := []struct {
		country, interaction, device string
		want                         string
	}{
		{"US", InteractionClick, "desktop", "0.25"},
		{"US", InteractionClick, "mobile", "0.2"},
		{"CA", InteractionView, "mobile", "0.0032"},
		{"BR", InteractionImpression, "desktop", "0.0002"},
	}
	for _, tc := range cases {
		rev, err := e.CalculateRevenue(tc.country, tc.interaction, tc.device)
		if err != nil {
			t.Fatalf("CalculateRevenue(%s,%s,%s): %v", tc.country, tc.interaction, tc.device, err)
		}
		if !rev.FinalRate.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("final rate for %s/%s/%s: expected %s, got %s",
				tc.country, tc.interaction, tc.device, tc.want, rev.FinalRate)
		}
		if !rev.FinalRate.Equal(rev.BaseRate.Mul(rev.DeviceMultiplier)) {
			t.Fatalf("final rate must equal base x multiplier")
		}
		if rev.Currency != "USD" {
			t.Fatalf("expected USD, got %q", rev.Currency)
		}
	}

	// Determinism: same inputs, same outputs.
	a, _ := e.CalculateRevenue("US", InteractionClick, "mobile")
	b, _ := e.CalculateRevenue("US", InteractionClick, "mobile")
	if !a.FinalRate.Equal(b.FinalRate) {
		t.Fatalf("CalculateRevenue must be deterministic")
	}
}

func TestSplit_SumsToFinal(t *testing.T) {
	e := mustEngine(t)

	final := decimal.RequireFromString("0.2")
	platform, publisher := e.Split(final)

	if !platform.Equal(decimal.RequireFromString("0.07")) {
		t.Fatalf("expected platform 0.07, got %s", platform)
	}
	if !publisher.Equal(decimal.RequireFromString("0.13")) {
		t.Fatalf("expected publisher 0.13, got %s", publisher)
	}
	if !platform.Add(publisher).Equal(final) {
		t.Fatalf("shares must sum to final rate")
	}
}

func TestTableValidate(t *testing.T) {
	tbl := testTable()
	delete(tbl.Regions, "other")
	if err := tbl.Validate(); err == nil {
		t.Fatalf("expected error for missing other region")
	}

	tbl = testTable()
	tbl.PlatformShare = decimal.RequireFromString("0.5")
	if err := tbl.Validate(); err == nil {
		t.Fatalf("expected error for shares not summing to 1")
	}

	tbl = testTable()
	r := tbl.Regions["na"]
	r.Rates["click"] = decimal.RequireFromString("-1")
	if err := tbl.Validate(); err == nil {
		t.Fatalf("expected error for negative rate")
	}
}
