package earnings

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PayoutTerms are the withdrawal rules applied by the service. They come from
// the pricing rate table, not from per-publisher configuration.
type PayoutTerms struct {
	MinimumPayout decimal.Decimal
	Schedule      string

	// HoldPeriod is how long a bucket must exist before its earnings can be
	// withdrawn.
	HoldPeriod time.Duration
}

const defaultHoldPeriod = 7 * 24 * time.Hour

// Service owns the withdrawal state machine and the publisher-facing reads.
// Bucket increments stay on the Repository so the ingestion pipeline can run
// them inside its own transaction.
type Service struct {
	repo  Repository
	terms PayoutTerms
	clock func() time.Time
}

func NewService(repo Repository, terms PayoutTerms) *Service {
	if terms.HoldPeriod <= 0 {
		terms.HoldPeriod = defaultHoldPeriod
	}
	return &Service{repo: repo, terms: terms, clock: time.Now}
}

// RequestWithdrawal opens a withdrawal for a publisher's monthly bucket.
//
// Guards, in order:
// - the bucket must exist and have positive publisher earnings
// - no withdrawal may already be open or settled for it
// - the bucket must be older than the hold period
// - publisher earnings must reach the minimum payout
func (s *Service) RequestWithdrawal(ctx context.Context, publisherID string, month time.Time) (MonthlyEarnings, error) {
	e, err := s.repo.GetMonth(ctx, publisherID, month)
	if err != nil {
		return MonthlyEarnings{}, err
	}
	if e.PublisherShare.IsZero() || e.PublisherShare.IsNegative() {
		return MonthlyEarnings{}, ErrNoEarnings
	}
	if !e.WithdrawalStatus.Requestable() {
		return MonthlyEarnings{}, ErrWithdrawalInProgress
	}

	now := s.clock().UTC()
	if now.Before(e.CreatedAt.Add(s.terms.HoldPeriod)) {
		return MonthlyEarnings{}, ErrWithdrawalTooEarly
	}
	if e.PublisherShare.LessThan(s.terms.MinimumPayout) {
		return MonthlyEarnings{}, ErrBelowMinimumPayout
	}

	if err := s.repo.MarkRequested(ctx, e.ID, now); err != nil {
		return MonthlyEarnings{}, err
	}
	return s.repo.GetByID(ctx, e.ID)
}

// ProcessWithdrawal settles a requested withdrawal. Approval completes it,
// rejection returns the bucket to a requestable state.
func (s *Service) ProcessWithdrawal(ctx context.Context, earningsID string, approve bool, notes string) (MonthlyEarnings, error) {
	if _, err := s.repo.GetByID(ctx, earningsID); err != nil {
		return MonthlyEarnings{}, err
	}

	status := StatusWithdrawalRejected
	if approve {
		status = StatusWithdrawalCompleted
	}
	if err := s.repo.MarkProcessed(ctx, earningsID, status, notes, s.clock().UTC()); err != nil {
		return MonthlyEarnings{}, err
	}
	return s.repo.GetByID(ctx, earningsID)
}

// PendingWithdrawals lists open requests for the admin queue, oldest first.
func (s *Service) PendingWithdrawals(ctx context.Context) ([]MonthlyEarnings, error) {
	return s.repo.ListByStatus(ctx, StatusWithdrawalRequested)
}

// PeriodicRevenue recomputes revenue for a window from raw tracking events.
func (s *Service) PeriodicRevenue(ctx context.Context, publisherID string, from, to time.Time) (RevenueStats, error) {
	if publisherID == "" || from.IsZero() || to.IsZero() || !to.After(from) {
		return RevenueStats{}, errors.New("earnings: invalid revenue window")
	}
	return s.repo.PeriodicRevenue(ctx, publisherID, from, to)
}

// MonthlyStats returns bucket totals plus the payout terms the dashboard
// renders alongside them.
func (s *Service) MonthlyStats(ctx context.Context, publisherID string, from, to time.Time) (MonthlyStatsReport, error) {
	months, err := s.repo.ListMonths(ctx, publisherID, from, to)
	if err != nil {
		return MonthlyStatsReport{}, err
	}

	out := MonthlyStatsReport{
		PublisherID:     publisherID,
		Months:          months,
		MinimumPayout:   s.terms.MinimumPayout,
		PaymentSchedule: s.terms.Schedule,
	}
	for _, m := range months {
		out.TotalPublisher = out.TotalPublisher.Add(m.PublisherShare)
	}
	return out, nil
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}
