package tracking

import (
	"context"
	"database/sql"
	"time"

	"adserve-platform/internal/audit"
	"adserve-platform/internal/campaign"
	"adserve-platform/internal/earnings"
	"adserve-platform/pkg/utils"

	"github.com/shopspring/decimal"
)

// Store is the transactional boundary of the ingestion pipeline. InTx runs
// fn against a view where every write commits or rolls back together.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error
}

// TxStore is the set of writes the pipeline performs inside one transaction.
type TxStore interface {
	// RecentDuplicate is the authoritative duplicate check: does an event
	// for (campaign, ip, type) exist since the given instant.
	RecentDuplicate(ctx context.Context, campaignID, viewerIP, eventType string, since time.Time) (bool, error)

	InsertEvent(ctx context.Context, e TrackingEvent) error
	DebitCampaign(ctx context.Context, campaignID string, amount decimal.Decimal, now time.Time) (campaign.Campaign, error)
	ApplyEarnings(ctx context.Context, d earnings.Delta, now time.Time) error
	AppendLog(ctx context.Context, e audit.Entry) error
}

// PostgresStore implements Store over one database, delegating the campaign,
// earnings and log writes to their transaction-bound repositories.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &pgTxStore{tx: tx})
	})
}

type pgTxStore struct {
	tx *sql.Tx
}

func (s *pgTxStore) RecentDuplicate(ctx context.Context, campaignID, viewerIP, eventType string, since time.Time) (bool, error) {
	var exists bool
	err := s.tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tracking_events
			WHERE campaign_id = $1 AND viewer_ip = $2 AND event_type = $3
			  AND created_at >= $4
		)`, campaignID, viewerIP, eventType, since).Scan(&exists)
	return exists, err
}

func (s *pgTxStore) InsertEvent(ctx context.Context, e TrackingEvent) error {
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO tracking_events
			(id, ad_id, campaign_id, publisher_id, tracking_session_id,
			 event_type, event_timestamp,
			 viewer_ip, user_agent, screen_resolution, language,
			 country, timezone, device, device_type, os, browser,
			 earnings, platform_earnings, publisher_earnings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		e.ID, e.AdID, e.CampaignID, e.PublisherID, e.TrackingSession,
		e.EventType, e.EventTimestamp,
		e.ViewerIP, e.UserAgent, e.ScreenResolution, e.Language,
		e.Country, e.Timezone, e.Device, e.DeviceType, e.OS, e.Browser,
		e.Earnings, e.PlatformEarnings, e.PublisherEarnings, e.CreatedAt,
	)
	return err
}

func (s *pgTxStore) DebitCampaign(ctx context.Context, campaignID string, amount decimal.Decimal, now time.Time) (campaign.Campaign, error) {
	return campaign.NewPostgresTxRepo(s.tx).Debit(ctx, campaignID, amount, now)
}

func (s *pgTxStore) ApplyEarnings(ctx context.Context, d earnings.Delta, now time.Time) error {
	return earnings.NewPostgresTxRepo(s.tx).Apply(ctx, d, now)
}

func (s *pgTxStore) AppendLog(ctx context.Context, e audit.Entry) error {
	return audit.NewPostgresTxRepo(s.tx).Append(ctx, e)
}
