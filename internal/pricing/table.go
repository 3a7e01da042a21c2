package pricing

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Interaction types that generate revenue. These are part of the wire and
// storage contracts; keep them stable.
const (
	InteractionImpression = "impression"
	InteractionClick      = "click"
	InteractionView       = "view"
)

// RegionRates is the rate card for one pricing region.
type RegionRates struct {
	Description string                     `json:"description"`
	Countries   []string                   `json:"countries"`
	Rates       map[string]decimal.Decimal `json:"rates"`
	Currency    string                     `json:"currency"`
}

// Table is the complete versioned pricing configuration.
//
// It is loaded once at startup and treated as immutable afterwards; a rate
// change ships as a new file plus a restart (or an explicit re-Load by the
// operator). Nothing mutates a Table after NewEngine.
type Table struct {
	Regions         map[string]RegionRates     `json:"regions"`
	DefaultCurrency string                     `json:"default_currency"`
	MinimumPayout   decimal.Decimal            `json:"minimum_payout"`
	PaymentSchedule string                     `json:"payment_schedule"`
	RateMultipliers map[string]decimal.Decimal `json:"rate_multipliers"`
	PublisherShare  decimal.Decimal            `json:"publisher_share"`
	PlatformShare   decimal.Decimal            `json:"platform_share"`
	LastUpdated     time.Time                  `json:"last_updated"`
	Version         string                     `json:"version"`
}

// fallbackRegion receives every country not listed by any region.
const fallbackRegion = "other"

// Load reads and validates a rate table from a JSON file.
func Load(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("pricing: read rate table: %w", err)
	}

	var t Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return Table{}, fmt.Errorf("pricing: parse rate table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

func (t Table) Validate() error {
	if len(t.Regions) == 0 {
		return fmt.Errorf("pricing: rate table has no regions")
	}
	if _, ok := t.Regions[fallbackRegion]; !ok {
		return fmt.Errorf("pricing: rate table must define region %q", fallbackRegion)
	}
	for name, r := range t.Regions {
		if r.Currency == "" {
			return fmt.Errorf("pricing: region %q has no currency", name)
		}
		for interaction, rate := range r.Rates {
			switch interaction {
			case InteractionImpression, InteractionClick, InteractionView:
			default:
				return fmt.Errorf("pricing: region %q has unknown interaction %q", name, interaction)
			}
			if rate.IsNegative() {
				return fmt.Errorf("pricing: region %q has negative %s rate", name, interaction)
			}
		}
	}
	for device, m := range t.RateMultipliers {
		if !m.IsPositive() {
			return fmt.Errorf("pricing: multiplier for device %q must be positive", device)
		}
	}
	if t.MinimumPayout.IsNegative() {
		return fmt.Errorf("pricing: minimum_payout must not be negative")
	}
	if !t.PublisherShare.Add(t.PlatformShare).Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("pricing: publisher_share + platform_share must equal 1, got %s + %s",
			t.PublisherShare, t.PlatformShare)
	}
	if t.PublisherShare.IsNegative() || t.PlatformShare.IsNegative() {
		return fmt.Errorf("pricing: revenue shares must not be negative")
	}
	return nil
}

// regionIndex builds the country -> region map used for lookups.
// Country codes are matched upper-case (ISO 3166-1 alpha-2).
func (t Table) regionIndex() map[string]string {
	idx := make(map[string]string)
	for region, r := range t.Regions {
		for _, cc := range r.Countries {
			idx[strings.ToUpper(cc)] = region
		}
	}
	return idx
}
