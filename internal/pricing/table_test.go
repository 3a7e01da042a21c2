package pricing

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoad_RateTableFile(t *testing.T) {
	tbl, err := Load(filepath.Join("testdata", "pricing_rates.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if tbl.Version == "" {
		t.Fatalf("expected versioned table")
	}
	if !tbl.MinimumPayout.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected minimum payout 50, got %s", tbl.MinimumPayout)
	}

	e, err := NewEngine(tbl)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	rev, err := e.CalculateRevenue("DE", InteractionClick, "tablet")
	if err != nil {
		t.Fatalf("CalculateRevenue: %v", err)
	}
	if !rev.FinalRate.Equal(decimal.RequireFromString("0.18")) {
		t.Fatalf("expected 0.18 for eu click on tablet, got %s", rev.FinalRate)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
