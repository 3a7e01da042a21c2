package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testClaims(exp time.Time) TokenClaims {
	return TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		IP:          testIP,
		UserAgent:   testUA,
		Resolution:  "1920x1080",
		Language:    "en-US",
		PublisherID: testPub,
	}
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer(""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := issuer.Issue(testClaims(now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := issuer.Verify(token, now)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.IP != testIP || claims.UserAgent != testUA || claims.PublisherID != testPub {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.Resolution != "1920x1080" || claims.Language != "en-US" {
		t.Fatalf("fingerprint extras mismatch: %+v", claims)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	issuer, _ := NewTokenIssuer("test-secret")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := issuer.Issue(testClaims(now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Exactly at the expiry instant counts as expired.
	if _, err := issuer.Verify(token, now.Add(time.Hour)); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := issuer.Verify(token, now.Add(2*time.Hour)); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	a, _ := NewTokenIssuer("secret-a")
	b, _ := NewTokenIssuer("secret-b")

	now := time.Now()
	token, err := a.Issue(testClaims(now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := b.Verify(token, now); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	issuer, _ := NewTokenIssuer("test-secret")

	now := time.Now()
	token, err := issuer.Issue(testClaims(now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := issuer.Verify(tampered, now); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestVerify_RejectsIncompleteClaims(t *testing.T) {
	issuer, _ := NewTokenIssuer("test-secret")

	now := time.Now()
	claims := testClaims(now.Add(time.Hour))
	claims.PublisherID = ""
	token, err := issuer.Issue(claims)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := issuer.Verify(token, now); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for missing publisher, got %v", err)
	}
}
