package session

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is a simple in-memory repository useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu       sync.Mutex
	sessions map[string]Session // keyed by token
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{sessions: make(map[string]Session)}
}

func (r *MemoryRepo) Create(ctx context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Token] = s
	return nil
}

func (r *MemoryRepo) FindValid(ctx context.Context, token, ip, userAgent, publisherID string, now time.Time) (Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return Session{}, false, nil
	}
	if s.ViewerIP != ip || s.ViewerUserAgent != userAgent || s.PublisherID != publisherID {
		return Session{}, false, nil
	}
	if !s.ExpiresAt.After(now) || s.IsBlacklisted {
		return Session{}, false, nil
	}
	return s, true, nil
}

func (r *MemoryRepo) FindByToken(ctx context.Context, token string) (Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	return s, ok, nil
}

func (r *MemoryRepo) Blacklist(ctx context.Context, token string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[token]; ok {
		s.IsBlacklisted = true
		s.BlacklistedAt = &at
		r.sessions[token] = s
	}
	return nil
}

func (r *MemoryRepo) CleanupBlacklist(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for token, s := range r.sessions {
		if s.IsBlacklisted && s.BlacklistedAt != nil && !s.BlacklistedAt.After(cutoff) {
			s.IsBlacklisted = false
			s.BlacklistedAt = nil
			r.sessions[token] = s
			n++
		}
	}
	return n, nil
}
