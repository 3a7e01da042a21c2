package auth

import (
	"testing"
	"time"

	"adserve-platform/internal/config"
)

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "secret",
		JWTIssuer:      "issuer",
		JWTAudience:    "aud",
		AccessTokenTTL: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.IssueAccessToken(now, "user-1", "pub-1", "publisher")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok == "" {
		t.Fatalf("expected token string")
	}

	claims, err := m.Verify(tok, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.PublisherID != "pub-1" || claims.Role != "publisher" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyUsesSuppliedClock(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: 15 * time.Minute})

	// Issued years in the past; a wall-clock check would reject it, but
	// expiry must be judged against the caller's clock.
	issued := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	tok, err := m.IssueAccessToken(issued, "u", "", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, issued.Add(14*time.Minute)); err != nil {
		t.Fatalf("verify within TTL: %v", err)
	}
	if _, err := m.Verify(tok, issued.Add(16*time.Minute)); err == nil {
		t.Fatalf("expected expiry past TTL")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute})

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.IssueAccessToken(now, "u", "", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a, _ := NewManager(config.AuthConfig{JWTSecret: "secret-a", AccessTokenTTL: time.Minute})
	b, _ := NewManager(config.AuthConfig{JWTSecret: "secret-b", AccessTokenTTL: time.Minute})

	now := time.Now()
	tok, err := a.IssueAccessToken(now, "u", "", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Verify(tok, now); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}
