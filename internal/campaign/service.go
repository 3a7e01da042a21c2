package campaign

import (
	"context"
	"time"
)

// Service exposes campaign reads and status management. Budget debits stay on
// the Repository so the ingestion pipeline can run them inside its own
// transaction.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Get(ctx context.Context, id string) (Campaign, error) {
	if id == "" {
		return Campaign{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// TransitionStatus moves a campaign to the requested status. Unknown status
// values are rejected before touching storage.
func (s *Service) TransitionStatus(ctx context.Context, id string, status Status) (Campaign, error) {
	if !ValidStatus(status) {
		return Campaign{}, ErrInvalidStatus
	}
	if id == "" {
		return Campaign{}, ErrNotFound
	}
	return s.repo.UpdateStatus(ctx, id, status, s.clock().UTC())
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}
