package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Engine answers rate questions against one immutable Table.
//
// Contract:
// - pure lookups and arithmetic, no I/O and no clock
// - unknown country falls back to region "other"
// - unknown device multiplies by 1 (no error)
// - unknown interaction type is an error
type Engine struct {
	table     Table
	byCountry map[string]string
}

func NewEngine(t Table) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Engine{table: t, byCountry: t.regionIndex()}, nil
}

var ErrUnknownInteraction = errors.New("pricing: unknown interaction type")

// Revenue is the priced outcome of a single ad interaction.
type Revenue struct {
	BaseRate         decimal.Decimal
	DeviceMultiplier decimal.Decimal
	FinalRate        decimal.Decimal
	Currency         string
}

// RegionForCountry resolves an ISO 3166-1 alpha-2 country code to a pricing region.
func (e *Engine) RegionForCountry(countryCode string) string {
	if region, ok := e.byCountry[strings.ToUpper(countryCode)]; ok {
		return region
	}
	return fallbackRegion
}

// BaseRate returns the region rate for an interaction in a country.
func (e *Engine) BaseRate(countryCode, interaction string) (decimal.Decimal, error) {
	region := e.table.Regions[e.RegionForCountry(countryCode)]
	rate, ok := region.Rates[interaction]
	if !ok {
		return decimal.Decimal{}, ErrUnknownInteraction
	}
	return rate, nil
}

// DeviceMultiplier returns the configured factor for a device type.
func (e *Engine) DeviceMultiplier(deviceType string) decimal.Decimal {
	if m, ok := e.table.RateMultipliers[strings.ToLower(deviceType)]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// CalculateRevenue prices one interaction: final = base rate x device multiplier,
// in the region's currency.
func (e *Engine) CalculateRevenue(countryCode, interaction, deviceType string) (Revenue, error) {
	base, err := e.BaseRate(countryCode, interaction)
	if err != nil {
		return Revenue{}, err
	}
	mult := e.DeviceMultiplier(deviceType)

	region := e.table.Regions[e.RegionForCountry(countryCode)]
	return Revenue{
		BaseRate:         base,
		DeviceMultiplier: mult,
		FinalRate:        base.Mul(mult),
		Currency:         region.Currency,
	}, nil
}

// Split divides a final rate into platform and publisher earnings using the
// configured fractions. Publisher gets the remainder so the two always sum
// to the input exactly.
func (e *Engine) Split(final decimal.Decimal) (platform, publisher decimal.Decimal) {
	platform = final.Mul(e.table.PlatformShare)
	publisher = final.Sub(platform)
	return platform, publisher
}

func (e *Engine) MinimumPayout() decimal.Decimal { return e.table.MinimumPayout }
func (e *Engine) PaymentSchedule() string        { return e.table.PaymentSchedule }
func (e *Engine) Version() string                { return e.table.Version }
