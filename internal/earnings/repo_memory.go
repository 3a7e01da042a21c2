package earnings

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo mirrors PostgresRepo bucket semantics for tests. PeriodicRevenue
// returns a canned value settable via Stats.
type MemoryRepo struct {
	mu      sync.Mutex
	buckets map[string]MonthlyEarnings // keyed by id

	Stats RevenueStats
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{buckets: make(map[string]MonthlyEarnings)}
}

func (r *MemoryRepo) Put(e MonthlyEarnings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Month = MonthStart(e.Month)
	r.buckets[e.ID] = e
}

func (r *MemoryRepo) Apply(ctx context.Context, d Delta, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	month := MonthStart(d.Month)
	id := ""
	for k, e := range r.buckets {
		if e.PublisherID == d.PublisherID && e.Month.Equal(month) {
			id = k
			break
		}
	}
	if id == "" {
		id = uuid.NewString()
		r.buckets[id] = MonthlyEarnings{
			ID:               id,
			PublisherID:      d.PublisherID,
			Month:            month,
			Currency:         d.Currency,
			WithdrawalStatus: StatusPending,
			CreatedAt:        now,
		}
	}

	e := r.buckets[id]
	switch d.EventType {
	case "view":
		e.Views++
	case "click":
		e.Clicks++
	case "impression":
		e.Impressions++
	}
	e.GrossRevenue = e.GrossRevenue.Add(d.Gross)
	e.PublisherShare = e.PublisherShare.Add(d.PublisherShare)
	e.PlatformShare = e.PlatformShare.Add(d.PlatformShare)
	e.UpdatedAt = now
	r.buckets[id] = e
	return nil
}

func (r *MemoryRepo) GetMonth(ctx context.Context, publisherID string, month time.Time) (MonthlyEarnings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := MonthStart(month)
	for _, e := range r.buckets {
		if e.PublisherID == publisherID && e.Month.Equal(m) {
			return e, nil
		}
	}
	return MonthlyEarnings{}, ErrNoEarnings
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (MonthlyEarnings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.buckets[id]
	if !ok {
		return MonthlyEarnings{}, ErrNoEarnings
	}
	return e, nil
}

func (r *MemoryRepo) ListMonths(ctx context.Context, publisherID string, from, to time.Time) ([]MonthlyEarnings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []MonthlyEarnings
	lo, hi := MonthStart(from), MonthStart(to)
	for _, e := range r.buckets {
		if e.PublisherID != publisherID {
			continue
		}
		if e.Month.Before(lo) || e.Month.After(hi) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.After(out[j].Month) })
	return out, nil
}

func (r *MemoryRepo) ListByStatus(ctx context.Context, status WithdrawalStatus) ([]MonthlyEarnings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []MonthlyEarnings
	for _, e := range r.buckets {
		if e.WithdrawalStatus == status {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].WithdrawalRequestedAt, out[j].WithdrawalRequestedAt
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.Before(*tj)
		}
	})
	return out, nil
}

func (r *MemoryRepo) MarkRequested(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.buckets[id]
	if !ok || !e.WithdrawalStatus.Requestable() {
		return ErrWithdrawalInProgress
	}
	e.WithdrawalStatus = StatusWithdrawalRequested
	e.WithdrawalRequestedAt = &at
	e.UpdatedAt = at
	r.buckets[id] = e
	return nil
}

func (r *MemoryRepo) MarkProcessed(ctx context.Context, id string, status WithdrawalStatus, notes string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.buckets[id]
	if !ok || e.WithdrawalStatus != StatusWithdrawalRequested {
		return ErrWithdrawalNotRequested
	}
	e.WithdrawalStatus = status
	e.ProcessedAt = &at
	e.Notes = notes
	e.UpdatedAt = at
	r.buckets[id] = e
	return nil
}

func (r *MemoryRepo) PeriodicRevenue(ctx context.Context, publisherID string, from, to time.Time) (RevenueStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.Stats
	s.PublisherID = publisherID
	s.From, s.To = from, to
	return s, nil
}
