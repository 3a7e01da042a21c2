package campaign

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign is an advertiser-funded budget envelope.
//
// Money invariants:
// - budget_used never exceeds budget_total.
// - budget_used only moves forward, and only together with a tracking event
//   insert in the same transaction.
// - Only campaigns in status "active" accept debits.
type Campaign struct {
	ID              string `json:"id" db:"id"`
	AdvertisementID string `json:"advertisement_id" db:"advertisement_id"`

	// UserID is the advertiser account that owns and funds the campaign.
	UserID      string `json:"user_id" db:"user_id"`
	PublisherID string `json:"publisher_id" db:"publisher_id"`

	Name   string `json:"name" db:"name"`
	Status Status `json:"status" db:"status"`

	BudgetTotal decimal.Decimal `json:"budget_total" db:"budget_total"`
	BudgetUsed  decimal.Decimal `json:"budget_used" db:"budget_used"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// Remaining reports the budget still available for debits.
func (c Campaign) Remaining() decimal.Decimal {
	return c.BudgetTotal.Sub(c.BudgetUsed)
}
