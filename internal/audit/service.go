package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Service writes internal system log records.
//
// IMPORTANT:
// - The log is internal-only. Do not expose these records to publishers or
//   advertisers by default.
// - Callers should treat logging as best-effort unless they bind the
//   repository to their own transaction.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEntry = errors.New("audit: invalid entry")

var validLevels = map[Level]bool{
	LevelDebug: true, LevelInfo: true, LevelWarning: true,
	LevelError: true, LevelCritical: true,
}

var validCategories = map[Category]bool{
	CategoryTracking: true, CategoryBilling: true,
	CategoryAuth: true, CategorySystem: true,
}

func (s *Service) Append(ctx context.Context, e Entry) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if !validLevels[e.Level] {
		return ErrInvalidEntry
	}
	if !validCategories[e.Category] {
		return ErrInvalidEntry
	}
	if e.Message == "" {
		return ErrInvalidEntry
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// Info records a routine operational event.
func (s *Service) Info(ctx context.Context, category Category, message, requestID, ip, endpoint, metadata string) error {
	return s.Append(ctx, Entry{
		Level:     LevelInfo,
		Category:  category,
		Message:   message,
		RequestID: requestID,
		IPAddress: ip,
		Endpoint:  endpoint,
		Metadata:  metadata,
	})
}

// Error records a failed operation.
func (s *Service) Error(ctx context.Context, category Category, message, requestID, ip, endpoint, metadata string) error {
	return s.Append(ctx, Entry{
		Level:     LevelError,
		Category:  category,
		Message:   message,
		RequestID: requestID,
		IPAddress: ip,
		Endpoint:  endpoint,
		Metadata:  metadata,
	})
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}
