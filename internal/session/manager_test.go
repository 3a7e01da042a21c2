package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

const (
	testIP  = "1.2.3.4"
	testUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	testPub = "pub1"
)

func newTestManager(t *testing.T, now time.Time) (*Manager, *MemoryRepo) {
	t.Helper()
	issuer, err := NewTokenIssuer("test-secret")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	repo := NewMemoryRepo()
	m := NewManager(issuer, repo, ManagerConfig{
		SessionTTL:      time.Hour,
		DBExpiryBuffer:  time.Minute,
		BlacklistMaxAge: time.Hour,
	}).WithClock(func() time.Time { return now })
	return m, repo
}

func TestInit_RejectsMissingFingerprint(t *testing.T) {
	m, _ := newTestManager(t, time.Now())

	cases := []InitRequest{
		{PublisherID: testPub, ViewerUserAgent: testUA},
		{PublisherID: testPub, ViewerIP: testIP},
		{ViewerIP: testIP, ViewerUserAgent: testUA},
	}
	for _, req := range cases {
		if _, _, err := m.Init(context.Background(), req); !errors.Is(err, ErrMissingFingerprint) {
			t.Fatalf("expected ErrMissingFingerprint for %+v, got %v", req, err)
		}
	}
}

func TestInit_RejectsBots(t *testing.T) {
	m, _ := newTestManager(t, time.Now())

	_, _, err := m.Init(context.Background(), InitRequest{
		PublisherID:     testPub,
		ViewerIP:        testIP,
		ViewerUserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	})
	if !errors.Is(err, ErrBotTraffic) {
		t.Fatalf("expected ErrBotTraffic, got %v", err)
	}
}

func TestInit_PersistsRowWithExpiryBuffer(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m, repo := newTestManager(t, now)

	token, s, err := m.Init(context.Background(), InitRequest{
		PublisherID:      testPub,
		ViewerIP:         testIP,
		ViewerUserAgent:  testUA,
		ScreenResolution: "1920x1080",
		Language:         "en-US",
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
	// Row outlives the token by the configured buffer.
	want := now.Add(time.Hour).Add(time.Minute)
	if !s.ExpiresAt.Equal(want) {
		t.Fatalf("expected row expiry %v, got %v", want, s.ExpiresAt)
	}

	stored, ok, _ := repo.FindByToken(context.Background(), token)
	if !ok || stored.ID != s.ID {
		t.Fatalf("expected persisted session")
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m, _ := newTestManager(t, now)

	token, s, err := m.Init(context.Background(), InitRequest{
		PublisherID: testPub, ViewerIP: testIP, ViewerUserAgent: testUA,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	got, err := m.Validate(context.Background(), token, testIP, testUA, testPub)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.ID != s.ID {
		t.Fatalf("expected same session row")
	}

	// Same token, same fingerprint, same row every time within the window.
	again, err := m.Validate(context.Background(), token, testIP, testUA, testPub)
	if err != nil || again.ID != s.ID {
		t.Fatalf("expected stable validation, got %v", err)
	}
}

func TestValidate_RejectsMismatchedFingerprint(t *testing.T) {
	m, _ := newTestManager(t, time.Now())

	token, _, err := m.Init(context.Background(), InitRequest{
		PublisherID: testPub, ViewerIP: testIP, ViewerUserAgent: testUA,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, err := m.Validate(context.Background(), token, "9.9.9.9", testUA, testPub); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for wrong ip, got %v", err)
	}
	if _, err := m.Validate(context.Background(), token, testIP, "other-agent", testPub); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for wrong ua, got %v", err)
	}
	if _, err := m.Validate(context.Background(), token, testIP, testUA, "pub2"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for wrong publisher, got %v", err)
	}
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	issuer, _ := NewTokenIssuer("test-secret")
	repo := NewMemoryRepo()
	m := NewManager(issuer, repo, ManagerConfig{SessionTTL: time.Hour}).
		WithClock(func() time.Time { return now })

	token, _, err := m.Init(context.Background(), InitRequest{
		PublisherID: testPub, ViewerIP: testIP, ViewerUserAgent: testUA,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	// One second before expiry: valid.
	now = start.Add(time.Hour - time.Second)
	if _, err := m.Validate(context.Background(), token, testIP, testUA, testPub); err != nil {
		t.Fatalf("expected valid just before expiry, got %v", err)
	}

	// At exactly the expiry instant: expired.
	now = start.Add(time.Hour)
	if _, err := m.Validate(context.Background(), token, testIP, testUA, testPub); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired at expiry instant, got %v", err)
	}
}

func TestValidate_BlacklistedSession(t *testing.T) {
	m, _ := newTestManager(t, time.Now())

	token, _, err := m.Init(context.Background(), InitRequest{
		PublisherID: testPub, ViewerIP: testIP, ViewerUserAgent: testUA,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.Blacklist(context.Background(), token); err != nil {
		t.Fatalf("Blacklist: %v", err)
	}
	if _, err := m.Validate(context.Background(), token, testIP, testUA, testPub); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for blacklisted session, got %v", err)
	}
}

func TestCleanupBlacklist_ReactivatesStaleEntries(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	issuer, _ := NewTokenIssuer("test-secret")
	repo := NewMemoryRepo()
	m := NewManager(issuer, repo, ManagerConfig{
		SessionTTL:      3 * time.Hour,
		BlacklistMaxAge: time.Hour,
	}).WithClock(func() time.Time { return now })

	token, _, err := m.Init(context.Background(), InitRequest{
		PublisherID: testPub, ViewerIP: testIP, ViewerUserAgent: testUA,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.Blacklist(context.Background(), token); err != nil {
		t.Fatalf("Blacklist: %v", err)
	}

	// Too fresh to clean.
	now = start.Add(30 * time.Minute)
	if n, _ := m.CleanupBlacklist(context.Background()); n != 0 {
		t.Fatalf("expected no cleanup before max age, cleaned %d", n)
	}

	// Old enough: the sweep re-activates, not deletes.
	now = start.Add(2 * time.Hour)
	if n, _ := m.CleanupBlacklist(context.Background()); n != 1 {
		t.Fatalf("expected 1 cleanup, got %d", n)
	}
	if _, err := m.Validate(context.Background(), token, testIP, testUA, testPub); err != nil {
		t.Fatalf("expected re-activated session to validate, got %v", err)
	}

	// Idempotent.
	if n, _ := m.CleanupBlacklist(context.Background()); n != 0 {
		t.Fatalf("expected idempotent sweep, cleaned %d", n)
	}
}
