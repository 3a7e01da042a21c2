package earnings

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyEarnings is the per-publisher revenue bucket, one row per
// (publisher_id, month). Months are truncated to the first day.
//
// Money invariants:
// - Counters and revenue only ever increment, and only together with a
//   tracking event insert in the same transaction.
// - Withdrawal state moves pending -> withdrawal_requested ->
//   withdrawal_completed | withdrawal_rejected. A rejected bucket may be
//   requested again.
type MonthlyEarnings struct {
	ID          string    `json:"id" db:"id"`
	PublisherID string    `json:"publisher_id" db:"publisher_id"`
	Month       time.Time `json:"month" db:"month"`

	Views       int64 `json:"views" db:"views"`
	Clicks      int64 `json:"clicks" db:"clicks"`
	Impressions int64 `json:"impressions" db:"impressions"`

	GrossRevenue   decimal.Decimal `json:"gross_revenue" db:"gross_revenue"`
	PublisherShare decimal.Decimal `json:"publisher_share" db:"publisher_share"`
	PlatformShare  decimal.Decimal `json:"platform_share" db:"platform_share"`
	Currency       string          `json:"currency" db:"currency"`

	WithdrawalStatus      WithdrawalStatus `json:"withdrawal_status" db:"withdrawal_status"`
	WithdrawalRequestedAt *time.Time       `json:"withdrawal_requested_at,omitempty" db:"withdrawal_requested_at"`
	ProcessedAt           *time.Time       `json:"processed_at,omitempty" db:"processed_at"`
	Notes                 string           `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type WithdrawalStatus string

const (
	StatusPending             WithdrawalStatus = "pending"
	StatusWithdrawalRequested WithdrawalStatus = "withdrawal_requested"
	StatusWithdrawalApproved  WithdrawalStatus = "withdrawal_approved"
	StatusWithdrawalCompleted WithdrawalStatus = "withdrawal_completed"
	StatusWithdrawalRejected  WithdrawalStatus = "withdrawal_rejected"
)

// Requestable reports whether a new withdrawal request may be opened for the
// bucket in its current state.
func (s WithdrawalStatus) Requestable() bool {
	return s == StatusPending || s == StatusWithdrawalRejected
}

// Delta is one event's contribution to a monthly bucket.
type Delta struct {
	PublisherID string
	Month       time.Time
	EventType   string

	Gross          decimal.Decimal
	PublisherShare decimal.Decimal
	PlatformShare  decimal.Decimal
	Currency       string
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// RevenueStats is a read-side recomputation over raw tracking events,
// independent of the monthly buckets.
type RevenueStats struct {
	PublisherID string    `json:"publisher_id"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`

	TotalEvents    int64           `json:"total_events"`
	GrossRevenue   decimal.Decimal `json:"gross_revenue"`
	PublisherShare decimal.Decimal `json:"publisher_share"`

	ByType    []TypeBreakdown    `json:"by_type"`
	ByCountry []CountryBreakdown `json:"by_country"`
	ByDevice  []DeviceBreakdown  `json:"by_device"`
	Daily     []DailyPoint       `json:"daily"`
}

type TypeBreakdown struct {
	EventType      string          `json:"event_type"`
	Count          int64           `json:"count"`
	GrossRevenue   decimal.Decimal `json:"gross_revenue"`
	PublisherShare decimal.Decimal `json:"publisher_share"`
}

type CountryBreakdown struct {
	Country        string          `json:"country"`
	Count          int64           `json:"count"`
	PublisherShare decimal.Decimal `json:"publisher_share"`
}

type DeviceBreakdown struct {
	DeviceType     string          `json:"device_type"`
	Count          int64           `json:"count"`
	PublisherShare decimal.Decimal `json:"publisher_share"`
}

type DailyPoint struct {
	Day            time.Time       `json:"day"`
	Count          int64           `json:"count"`
	PublisherShare decimal.Decimal `json:"publisher_share"`
}

// MonthlyStatsReport wraps the bucket list with the payout terms the
// dashboard renders next to it.
type MonthlyStatsReport struct {
	PublisherID     string            `json:"publisher_id"`
	Months          []MonthlyEarnings `json:"months"`
	TotalPublisher  decimal.Decimal   `json:"total_publisher_share"`
	MinimumPayout   decimal.Decimal   `json:"minimum_payout"`
	PaymentSchedule string            `json:"payment_schedule"`
}
