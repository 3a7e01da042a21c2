package tracking

import (
	"context"
	"sync"
	"time"

	"adserve-platform/internal/audit"
	"adserve-platform/internal/campaign"
	"adserve-platform/internal/earnings"

	"github.com/shopspring/decimal"
)

// MemoryStore mirrors PostgresStore semantics for tests. Writes buffer until
// the InTx callback returns nil; an error discards them, like a rollback.
type MemoryStore struct {
	mu     sync.Mutex
	Events []TrackingEvent

	Campaigns *campaign.MemoryRepo
	Earnings  *earnings.MemoryRepo
	Logs      *audit.MemoryRepo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Campaigns: campaign.NewMemoryRepo(),
		Earnings:  earnings.NewMemoryRepo(),
		Logs:      audit.NewMemoryRepo(),
	}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTxStore{store: s}
	if err := fn(ctx, tx); err != nil {
		// Roll back: restore the pre-debit campaign, drop buffered writes.
		if tx.debited != nil {
			s.Campaigns.Put(*tx.debited)
		}
		return err
	}

	s.Events = append(s.Events, tx.events...)
	for _, d := range tx.deltas {
		_ = s.Earnings.Apply(ctx, d, time.Now())
	}
	for _, e := range tx.logs {
		_ = s.Logs.Append(ctx, e)
	}
	return nil
}

type memTxStore struct {
	store  *MemoryStore
	events []TrackingEvent
	deltas []earnings.Delta
	logs   []audit.Entry

	// debited snapshots the campaign before its debit so a rollback can
	// restore it.
	debited *campaign.Campaign
}

func (t *memTxStore) RecentDuplicate(ctx context.Context, campaignID, viewerIP, eventType string, since time.Time) (bool, error) {
	for _, e := range t.store.Events {
		if e.CampaignID == campaignID && e.ViewerIP == viewerIP && e.EventType == eventType && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTxStore) InsertEvent(ctx context.Context, e TrackingEvent) error {
	t.events = append(t.events, e)
	return nil
}

func (t *memTxStore) DebitCampaign(ctx context.Context, campaignID string, amount decimal.Decimal, now time.Time) (campaign.Campaign, error) {
	before, err := t.store.Campaigns.Get(ctx, campaignID)
	if err != nil {
		return campaign.Campaign{}, err
	}
	c, err := t.store.Campaigns.Debit(ctx, campaignID, amount, now)
	if err != nil {
		return campaign.Campaign{}, err
	}
	t.debited = &before
	return c, nil
}

func (t *memTxStore) ApplyEarnings(ctx context.Context, d earnings.Delta, now time.Time) error {
	t.deltas = append(t.deltas, d)
	return nil
}

func (t *memTxStore) AppendLog(ctx context.Context, e audit.Entry) error {
	t.logs = append(t.logs, e)
	return nil
}
