package campaign

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("campaign not found")
	ErrInvalidAmount  = errors.New("invalid debit amount")
	ErrBudgetExceeded = errors.New("campaign budget exceeded")
	ErrInvalidStatus  = errors.New("invalid campaign status")
)

// Repository is the persistence contract for campaigns.
//
// Debit MUST be atomic: the budget check and the increment happen in one
// statement so concurrent debits cannot overspend the budget.
type Repository interface {
	Get(ctx context.Context, id string) (Campaign, error)

	// Debit adds amount to budget_used if the campaign is active and the
	// budget allows it. A debit that lands exactly on budget_total completes
	// the campaign. Returns ErrNotFound for missing or inactive campaigns
	// and ErrBudgetExceeded when the remaining budget is too small.
	Debit(ctx context.Context, id string, amount decimal.Decimal, now time.Time) (Campaign, error)

	UpdateStatus(ctx context.Context, id string, status Status, now time.Time) (Campaign, error)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresRepo persists campaigns in the campaigns table.
type PostgresRepo struct {
	db querier
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// NewPostgresTxRepo binds the repository to an open transaction so the debit
// commits or rolls back together with the event that caused it.
func NewPostgresTxRepo(tx *sql.Tx) *PostgresRepo { return &PostgresRepo{db: tx} }

const campaignColumns = `id, advertisement_id, user_id, publisher_id, name, status, budget_total, budget_used, created_at, updated_at`

func (r *PostgresRepo) Get(ctx context.Context, id string) (Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE id = $1`, id)
	return scanCampaign(row)
}

func (r *PostgresRepo) Debit(ctx context.Context, id string, amount decimal.Decimal, now time.Time) (Campaign, error) {
	if amount.IsNegative() || amount.IsZero() {
		return Campaign{}, ErrInvalidAmount
	}

	// Compare-and-increment: the WHERE clause is the budget guard, so two
	// concurrent debits can never push budget_used past budget_total.
	row := r.db.QueryRowContext(ctx, `
		UPDATE campaigns
		SET budget_used = budget_used + $2,
		    status = CASE WHEN budget_used + $2 >= budget_total THEN 'completed' ELSE status END,
		    updated_at = $3
		WHERE id = $1
		  AND status = 'active'
		  AND budget_used + $2 <= budget_total
		RETURNING `+campaignColumns, id, amount, now)

	c, err := scanCampaign(row)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Campaign{}, err
	}

	// The guarded update matched nothing. Look at the row to tell a missing
	// or inactive campaign apart from an exhausted budget.
	existing, getErr := r.Get(ctx, id)
	if getErr != nil {
		return Campaign{}, getErr
	}
	if existing.Status != StatusActive {
		return Campaign{}, ErrNotFound
	}
	return Campaign{}, ErrBudgetExceeded
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, status Status, now time.Time) (Campaign, error) {
	if !ValidStatus(status) {
		return Campaign{}, ErrInvalidStatus
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE campaigns
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+campaignColumns, id, string(status), now)
	return scanCampaign(row)
}

func scanCampaign(row *sql.Row) (Campaign, error) {
	var c Campaign
	err := row.Scan(
		&c.ID,
		&c.AdvertisementID,
		&c.UserID,
		&c.PublisherID,
		&c.Name,
		&c.Status,
		&c.BudgetTotal,
		&c.BudgetUsed,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	if err != nil {
		return Campaign{}, err
	}
	return c, nil
}
