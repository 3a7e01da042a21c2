package campaign

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryRepo mirrors PostgresRepo semantics for tests.
type MemoryRepo struct {
	mu        sync.Mutex
	campaigns map[string]Campaign
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{campaigns: make(map[string]Campaign)}
}

func (r *MemoryRepo) Put(c Campaign) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[c.ID] = c
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) Debit(ctx context.Context, id string, amount decimal.Decimal, now time.Time) (Campaign, error) {
	if amount.IsNegative() || amount.IsZero() {
		return Campaign{}, ErrInvalidAmount
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.campaigns[id]
	if !ok || c.Status != StatusActive {
		return Campaign{}, ErrNotFound
	}
	next := c.BudgetUsed.Add(amount)
	if next.GreaterThan(c.BudgetTotal) {
		return Campaign{}, ErrBudgetExceeded
	}
	c.BudgetUsed = next
	if next.GreaterThanOrEqual(c.BudgetTotal) {
		c.Status = StatusCompleted
	}
	c.UpdatedAt = now
	r.campaigns[id] = c
	return c, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, status Status, now time.Time) (Campaign, error) {
	if !ValidStatus(status) {
		return Campaign{}, ErrInvalidStatus
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.campaigns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = now
	r.campaigns[id] = c
	return c, nil
}
