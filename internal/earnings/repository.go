package earnings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoEarnings             = errors.New("no earnings for period")
	ErrWithdrawalInProgress   = errors.New("withdrawal already in progress")
	ErrWithdrawalTooEarly     = errors.New("withdrawal requested too early")
	ErrBelowMinimumPayout     = errors.New("earnings below minimum payout")
	ErrWithdrawalNotRequested = errors.New("withdrawal not in requested state")
)

// Repository is the persistence contract for monthly earnings buckets.
type Repository interface {
	// Apply increments one bucket by a single event's contribution,
	// creating the bucket on first touch. Must be race-safe: concurrent
	// applies for the same (publisher, month) both land.
	Apply(ctx context.Context, d Delta, now time.Time) error

	GetMonth(ctx context.Context, publisherID string, month time.Time) (MonthlyEarnings, error)
	GetByID(ctx context.Context, id string) (MonthlyEarnings, error)
	ListMonths(ctx context.Context, publisherID string, from, to time.Time) ([]MonthlyEarnings, error)
	ListByStatus(ctx context.Context, status WithdrawalStatus) ([]MonthlyEarnings, error)

	MarkRequested(ctx context.Context, id string, at time.Time) error
	MarkProcessed(ctx context.Context, id string, status WithdrawalStatus, notes string, at time.Time) error

	// PeriodicRevenue recomputes revenue from raw tracking events.
	PeriodicRevenue(ctx context.Context, publisherID string, from, to time.Time) (RevenueStats, error)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresRepo persists buckets in monthly_earnings and reads raw events
// from tracking_events.
type PostgresRepo struct {
	db querier
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// NewPostgresTxRepo binds the repository to an open transaction so the bucket
// increment commits or rolls back together with the event that caused it.
func NewPostgresTxRepo(tx *sql.Tx) *PostgresRepo { return &PostgresRepo{db: tx} }

func (r *PostgresRepo) Apply(ctx context.Context, d Delta, now time.Time) error {
	// The UNIQUE (publisher_id, month) index is the race guard: concurrent
	// first touches collapse into one insert plus increments.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_earnings
			(id, publisher_id, month, views, clicks, impressions,
			 gross_revenue, publisher_share, platform_share, currency,
			 withdrawal_status, created_at, updated_at)
		VALUES ($1, $2, $3,
			CASE WHEN $4 = 'view' THEN 1 ELSE 0 END,
			CASE WHEN $4 = 'click' THEN 1 ELSE 0 END,
			CASE WHEN $4 = 'impression' THEN 1 ELSE 0 END,
			$5, $6, $7, $8, 'pending', $9, $9)
		ON CONFLICT (publisher_id, month) DO UPDATE SET
			views        = monthly_earnings.views + EXCLUDED.views,
			clicks       = monthly_earnings.clicks + EXCLUDED.clicks,
			impressions  = monthly_earnings.impressions + EXCLUDED.impressions,
			gross_revenue   = monthly_earnings.gross_revenue + EXCLUDED.gross_revenue,
			publisher_share = monthly_earnings.publisher_share + EXCLUDED.publisher_share,
			platform_share  = monthly_earnings.platform_share + EXCLUDED.platform_share,
			updated_at      = EXCLUDED.updated_at`,
		uuid.NewString(), d.PublisherID, MonthStart(d.Month), d.EventType,
		d.Gross, d.PublisherShare, d.PlatformShare, d.Currency, now,
	)
	return err
}

const earningsColumns = `id, publisher_id, month, views, clicks, impressions,
	gross_revenue, publisher_share, platform_share, currency,
	withdrawal_status, withdrawal_requested_at, processed_at, COALESCE(notes, ''),
	created_at, updated_at`

func (r *PostgresRepo) GetMonth(ctx context.Context, publisherID string, month time.Time) (MonthlyEarnings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+earningsColumns+`
		FROM monthly_earnings
		WHERE publisher_id = $1 AND month = $2`, publisherID, MonthStart(month))
	return scanEarnings(row.Scan)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (MonthlyEarnings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+earningsColumns+`
		FROM monthly_earnings
		WHERE id = $1`, id)
	return scanEarnings(row.Scan)
}

func (r *PostgresRepo) ListMonths(ctx context.Context, publisherID string, from, to time.Time) ([]MonthlyEarnings, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+earningsColumns+`
		FROM monthly_earnings
		WHERE publisher_id = $1 AND month >= $2 AND month <= $3
		ORDER BY month DESC`, publisherID, MonthStart(from), MonthStart(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEarnings(rows)
}

func (r *PostgresRepo) ListByStatus(ctx context.Context, status WithdrawalStatus) ([]MonthlyEarnings, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+earningsColumns+`
		FROM monthly_earnings
		WHERE withdrawal_status = $1
		ORDER BY withdrawal_requested_at ASC NULLS LAST`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEarnings(rows)
}

func (r *PostgresRepo) MarkRequested(ctx context.Context, id string, at time.Time) error {
	// Guarded update: only requestable buckets transition.
	res, err := r.db.ExecContext(ctx, `
		UPDATE monthly_earnings
		SET withdrawal_status = 'withdrawal_requested',
		    withdrawal_requested_at = $2,
		    updated_at = $2
		WHERE id = $1 AND withdrawal_status IN ('pending', 'withdrawal_rejected')`, id, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWithdrawalInProgress
	}
	return nil
}

func (r *PostgresRepo) MarkProcessed(ctx context.Context, id string, status WithdrawalStatus, notes string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE monthly_earnings
		SET withdrawal_status = $2,
		    processed_at = $3,
		    notes = NULLIF($4, ''),
		    updated_at = $3
		WHERE id = $1 AND withdrawal_status = 'withdrawal_requested'`,
		id, string(status), at, notes)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWithdrawalNotRequested
	}
	return nil
}

func (r *PostgresRepo) PeriodicRevenue(ctx context.Context, publisherID string, from, to time.Time) (RevenueStats, error) {
	out := RevenueStats{PublisherID: publisherID, From: from, To: to}

	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(earnings), 0), COALESCE(SUM(publisher_earnings), 0)
		FROM tracking_events
		WHERE publisher_id = $1 AND created_at >= $2 AND created_at < $3`,
		publisherID, from, to)
	if err := row.Scan(&out.TotalEvents, &out.GrossRevenue, &out.PublisherShare); err != nil {
		return RevenueStats{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*), COALESCE(SUM(earnings), 0), COALESCE(SUM(publisher_earnings), 0)
		FROM tracking_events
		WHERE publisher_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY event_type
		ORDER BY event_type`, publisherID, from, to)
	if err != nil {
		return RevenueStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var b TypeBreakdown
		if err := rows.Scan(&b.EventType, &b.Count, &b.GrossRevenue, &b.PublisherShare); err != nil {
			return RevenueStats{}, err
		}
		out.ByType = append(out.ByType, b)
	}
	if err := rows.Err(); err != nil {
		return RevenueStats{}, err
	}

	crows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(country, 'unknown'), COUNT(*), COALESCE(SUM(publisher_earnings), 0)
		FROM tracking_events
		WHERE publisher_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY country
		ORDER BY SUM(publisher_earnings) DESC`, publisherID, from, to)
	if err != nil {
		return RevenueStats{}, err
	}
	defer crows.Close()
	for crows.Next() {
		var b CountryBreakdown
		if err := crows.Scan(&b.Country, &b.Count, &b.PublisherShare); err != nil {
			return RevenueStats{}, err
		}
		out.ByCountry = append(out.ByCountry, b)
	}
	if err := crows.Err(); err != nil {
		return RevenueStats{}, err
	}

	drows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(device_type, 'unknown'), COUNT(*), COALESCE(SUM(publisher_earnings), 0)
		FROM tracking_events
		WHERE publisher_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY device_type
		ORDER BY SUM(publisher_earnings) DESC`, publisherID, from, to)
	if err != nil {
		return RevenueStats{}, err
	}
	defer drows.Close()
	for drows.Next() {
		var b DeviceBreakdown
		if err := drows.Scan(&b.DeviceType, &b.Count, &b.PublisherShare); err != nil {
			return RevenueStats{}, err
		}
		out.ByDevice = append(out.ByDevice, b)
	}
	if err := drows.Err(); err != nil {
		return RevenueStats{}, err
	}

	trows, err := r.db.QueryContext(ctx, `
		SELECT date_trunc('day', created_at) AS day, COUNT(*), COALESCE(SUM(publisher_earnings), 0)
		FROM tracking_events
		WHERE publisher_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY day
		ORDER BY day`, publisherID, from, to)
	if err != nil {
		return RevenueStats{}, err
	}
	defer trows.Close()
	for trows.Next() {
		var p DailyPoint
		if err := trows.Scan(&p.Day, &p.Count, &p.PublisherShare); err != nil {
			return RevenueStats{}, err
		}
		out.Daily = append(out.Daily, p)
	}
	return out, trows.Err()
}

func scanEarnings(scan func(dest ...any) error) (MonthlyEarnings, error) {
	var (
		e           MonthlyEarnings
		requestedAt sql.NullTime
		processedAt sql.NullTime
	)
	err := scan(
		&e.ID, &e.PublisherID, &e.Month,
		&e.Views, &e.Clicks, &e.Impressions,
		&e.GrossRevenue, &e.PublisherShare, &e.PlatformShare, &e.Currency,
		&e.WithdrawalStatus, &requestedAt, &processedAt, &e.Notes,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return MonthlyEarnings{}, ErrNoEarnings
	}
	if err != nil {
		return MonthlyEarnings{}, err
	}
	if requestedAt.Valid {
		e.WithdrawalRequestedAt = &requestedAt.Time
	}
	if processedAt.Valid {
		e.ProcessedAt = &processedAt.Time
	}
	return e, nil
}

func collectEarnings(rows *sql.Rows) ([]MonthlyEarnings, error) {
	var out []MonthlyEarnings
	for rows.Next() {
		e, err := scanEarnings(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
