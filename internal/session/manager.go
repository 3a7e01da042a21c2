package session

import (
	"context"
	"fmt"
	"time"

	"adserve-platform/internal/device"
	"adserve-platform/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager issues and validates tracking sessions.
//
// Trust model: the signed token carries the fingerprint, the DB row carries
// the fingerprint, and Validate requires both to agree. Neither alone is
// sufficient (forged claims fail the signature, stolen-cookie replay from
// another IP fails the row match).
type Manager struct {
	tokens *TokenIssuer
	repo   Repository

	sessionTTL time.Duration
	// dbBuffer extends the row expiry past the token expiry to tolerate
	// clock skew between the signature check and the row check.
	dbBuffer        time.Duration
	blacklistMaxAge time.Duration

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

type ManagerConfig struct {
	SessionTTL      time.Duration
	DBExpiryBuffer  time.Duration
	BlacklistMaxAge time.Duration
}

func NewManager(tokens *TokenIssuer, repo Repository, cfg ManagerConfig) *Manager {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.DBExpiryBuffer <= 0 {
		cfg.DBExpiryBuffer = time.Minute
	}
	if cfg.BlacklistMaxAge <= 0 {
		cfg.BlacklistMaxAge = time.Hour
	}
	return &Manager{
		tokens:          tokens,
		repo:            repo,
		sessionTTL:      cfg.SessionTTL,
		dbBuffer:        cfg.DBExpiryBuffer,
		blacklistMaxAge: cfg.BlacklistMaxAge,
		clock:           time.Now,
	}
}

// TTL returns the session lifetime (drives the cookie max-age).
func (m *Manager) TTL() time.Duration { return m.sessionTTL }

type InitRequest struct {
	PublisherID      string
	ViewerIP         string
	ViewerUserAgent  string
	ScreenResolution string
	Language         string
}

// Init creates a tracking session: a signed token plus its mirrored DB row.
func (m *Manager) Init(ctx context.Context, req InitRequest) (string, Session, error) {
	if req.ViewerIP == "" || req.ViewerUserAgent == "" || req.PublisherID == "" {
		return "", Session{}, ErrMissingFingerprint
	}

	// Bot and email-client traffic never gets a session. Unknown device
	// types are tolerated here; they are rejected at ingestion time where
	// the device multiplier matters.
	if info, err := device.Classify(req.ViewerUserAgent); err == nil && (info.Bot || info.EmailClient) {
		return "", Session{}, ErrBotTraffic
	}

	now := m.clock().UTC()
	tokenExpiry := now.Add(m.sessionTTL)

	token, err := m.tokens.Issue(TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(tokenExpiry),
		},
		IP:          req.ViewerIP,
		UserAgent:   req.ViewerUserAgent,
		Resolution:  req.ScreenResolution,
		Language:    req.Language,
		PublisherID: req.PublisherID,
	})
	if err != nil {
		return "", Session{}, fmt.Errorf("session: issue token: %w", err)
	}

	s := Session{
		ID:               uuid.NewString(),
		Token:            token,
		ViewerIP:         req.ViewerIP,
		ViewerUserAgent:  req.ViewerUserAgent,
		ScreenResolution: req.ScreenResolution,
		Language:         req.Language,
		PublisherID:      req.PublisherID,
		CreatedAt:        now,
		ExpiresAt:        tokenExpiry.Add(m.dbBuffer),
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return "", Session{}, fmt.Errorf("session: persist: %w", err)
	}
	return token, s, nil
}

// Validate checks the token cryptographically, then requires a matching
// live DB row for the same fingerprint.
func (m *Manager) Validate(ctx context.Context, token, ip, userAgent, publisherID string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionInvalid
	}
	now := m.clock().UTC()

	claims, err := m.tokens.Verify(token, now)
	if err != nil {
		return Session{}, err
	}
	// Claims must agree with the request before we even hit the DB.
	if claims.IP != ip || claims.UserAgent != userAgent || claims.PublisherID != publisherID {
		return Session{}, ErrSessionInvalid
	}

	s, ok, err := m.repo.FindValid(ctx, token, ip, userAgent, publisherID, now)
	if err != nil {
		return Session{}, fmt.Errorf("session: lookup: %w", err)
	}
	if !ok {
		m.logMismatch(ctx, token, ip, userAgent, publisherID, now)
		return Session{}, ErrSessionInvalid
	}
	return s, nil
}

// logMismatch emits an operability diagnostic comparing the stored row with
// the received fingerprint. The detail stays in logs; callers only ever see
// ErrSessionInvalid.
func (m *Manager) logMismatch(ctx context.Context, token, ip, userAgent, publisherID string, now time.Time) {
	log := logger.From(ctx)
	stored, ok, err := m.repo.FindByToken(ctx, token)
	if err != nil || !ok {
		log.Debug("session validation failed: no row for token")
		return
	}
	log.Debug("session validation failed: row mismatch",
		"stored_ip", stored.ViewerIP, "received_ip", ip,
		"stored_ua", stored.ViewerUserAgent, "received_ua", userAgent,
		"stored_publisher", stored.PublisherID, "received_publisher", publisherID,
		"is_blacklisted", stored.IsBlacklisted,
		"expires_at", stored.ExpiresAt,
		"now", now,
	)
}

// Blacklist marks a session as abusive. It is a primitive for external
// abuse tooling; nothing in the ingestion path triggers it automatically.
func (m *Manager) Blacklist(ctx context.Context, token string) error {
	return m.repo.Blacklist(ctx, token, m.clock().UTC())
}

// CleanupBlacklist re-activates sessions blacklisted longer than the
// configured age. Idempotent; called opportunistically after successful
// ingestions.
func (m *Manager) CleanupBlacklist(ctx context.Context) (int64, error) {
	cutoff := m.clock().UTC().Add(-m.blacklistMaxAge)
	return m.repo.CleanupBlacklist(ctx, cutoff)
}

// WithClock overrides the time source (tests).
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	m.clock = clock
	return m
}
