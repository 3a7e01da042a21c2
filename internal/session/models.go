package session

import (
	"errors"
	"time"
)

// Session is the DB mirror of an issued tracking token.
//
// Invariants:
// - valid only while not expired, not blacklisted, and the (ip, user agent,
//   publisher) triple matches the request exactly
// - mutated only to flip the blacklist flag; the cleanup sweep re-activates
//   stale blacklist entries instead of deleting rows
type Session struct {
	ID    string `json:"id" db:"id"`
	Token string `json:"-" db:"token"`

	ViewerIP         string `json:"viewer_ip" db:"viewer_ip"`
	ViewerUserAgent  string `json:"viewer_user_agent" db:"viewer_user_agent"`
	ScreenResolution string `json:"viewer_screen_resolution,omitempty" db:"viewer_screen_resolution"`
	Language         string `json:"viewer_language,omitempty" db:"viewer_language"`

	PublisherID string `json:"publisher_id" db:"publisher_id"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`

	IsBlacklisted bool       `json:"-" db:"is_blacklisted"`
	BlacklistedAt *time.Time `json:"-" db:"blacklisted_at"`
}

var (
	// ErrMissingFingerprint rejects init calls lacking ip, user agent or publisher.
	ErrMissingFingerprint = errors.New("session: missing viewer fingerprint")

	// ErrBotTraffic rejects user agents classified as bots or email clients.
	ErrBotTraffic = errors.New("session: bot traffic not allowed")

	// ErrSessionExpired means the token signature is fine but its window has passed.
	ErrSessionExpired = errors.New("session: tracking session has expired")

	// ErrSessionInvalid covers every other validation failure. The caller
	// is deliberately not told which check failed.
	ErrSessionInvalid = errors.New("session: invalid tracking session")
)
