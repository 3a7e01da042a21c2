package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository is the persistence contract for tracking sessions.
type Repository interface {
	Create(ctx context.Context, s Session) error

	// FindValid returns the session matching the full fingerprint that is
	// neither expired nor blacklisted. The token AND every fingerprint
	// field must match; the signature check alone is never trusted.
	FindValid(ctx context.Context, token, ip, userAgent, publisherID string, now time.Time) (Session, bool, error)

	// FindByToken is a diagnostics lookup used to log stored-vs-received
	// fingerprint mismatches. Never expose its result to callers.
	FindByToken(ctx context.Context, token string) (Session, bool, error)

	Blacklist(ctx context.Context, token string, at time.Time) error

	// CleanupBlacklist re-activates sessions blacklisted before the cutoff.
	// Must be idempotent and safe to run concurrently.
	CleanupBlacklist(ctx context.Context, cutoff time.Time) (int64, error)
}

// PostgresRepo stores sessions in the tracking_sessions table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Create(ctx context.Context, s Session) error {
	const q = `
INSERT INTO tracking_sessions (
  id, token, viewer_ip, viewer_user_agent, viewer_screen_resolution,
  viewer_language, publisher_id, created_at, expires_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := r.db.ExecContext(ctx, q,
		s.ID,
		s.Token,
		s.ViewerIP,
		s.ViewerUserAgent,
		s.ScreenResolution,
		s.Language,
		s.PublisherID,
		s.CreatedAt,
		s.ExpiresAt,
	)
	return err
}

func (r *PostgresRepo) FindValid(ctx context.Context, token, ip, userAgent, publisherID string, now time.Time) (Session, bool, error) {
	const q = `
SELECT id, token, viewer_ip, viewer_user_agent, viewer_screen_resolution,
       viewer_language, publisher_id, created_at, expires_at, is_blacklisted, blacklisted_at
FROM tracking_sessions
WHERE token = $1
  AND viewer_ip = $2
  AND viewer_user_agent = $3
  AND publisher_id = $4
  AND expires_at > $5
  AND is_blacklisted = FALSE
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, token, ip, userAgent, publisherID, now))
}

func (r *PostgresRepo) FindByToken(ctx context.Context, token string) (Session, bool, error) {
	const q = `
SELECT id, token, viewer_ip, viewer_user_agent, viewer_screen_resolution,
       viewer_language, publisher_id, created_at, expires_at, is_blacklisted, blacklisted_at
FROM tracking_sessions
WHERE token = $1
LIMIT 1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, token))
}

func (r *PostgresRepo) Blacklist(ctx context.Context, token string, at time.Time) error {
	const q = `
UPDATE tracking_sessions
SET is_blacklisted = TRUE, blacklisted_at = $2
WHERE token = $1
`
	_, err := r.db.ExecContext(ctx, q, token, at)
	return err
}

func (r *PostgresRepo) CleanupBlacklist(ctx context.Context, cutoff time.Time) (int64, error) {
	// Lock-free: a plain conditional update is idempotent and safe under
	// concurrent sweeps.
	const q = `
UPDATE tracking_sessions
SET is_blacklisted = FALSE, blacklisted_at = NULL
WHERE is_blacklisted = TRUE AND blacklisted_at <= $1
`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepo) scanOne(row *sql.Row) (Session, bool, error) {
	var s Session
	var resolution, language sql.NullString
	var blacklistedAt sql.NullTime
	err := row.Scan(
		&s.ID,
		&s.Token,
		&s.ViewerIP,
		&s.ViewerUserAgent,
		&resolution,
		&language,
		&s.PublisherID,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.IsBlacklisted,
		&blacklistedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}
	s.ScreenResolution = resolution.String
	s.Language = language.String
	if blacklistedAt.Valid {
		t := blacklistedAt.Time
		s.BlacklistedAt = &t
	}
	return s, true, nil
}
