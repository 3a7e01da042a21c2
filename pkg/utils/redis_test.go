package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestReserveWindow(t *testing.T) {
	mr, rdb := testRedis(t)
	ctx := context.Background()
	window := 30 * time.Minute

	ok, err := ReserveWindow(ctx, rdb, "dup:c1:ip:click", window)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !ok {
		t.Fatalf("first reserve must succeed")
	}
	if got := mr.TTL("dup:c1:ip:click"); got != window {
		t.Fatalf("reservation TTL must equal the window, got %s", got)
	}

	ok, err = ReserveWindow(ctx, rdb, "dup:c1:ip:click", window)
	if err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if ok {
		t.Fatalf("reserve within the window must be rejected")
	}

	// A different key is its own window.
	if ok, _ := ReserveWindow(ctx, rdb, "dup:c1:ip:view", window); !ok {
		t.Fatalf("unrelated key must reserve")
	}
}

func TestReserveWindowExpiry(t *testing.T) {
	mr, rdb := testRedis(t)
	ctx := context.Background()
	window := 30 * time.Minute

	if ok, _ := ReserveWindow(ctx, rdb, "k", window); !ok {
		t.Fatalf("first reserve must succeed")
	}
	mr.FastForward(window)
	if ok, err := ReserveWindow(ctx, rdb, "k", window); err != nil || !ok {
		t.Fatalf("reserve after expiry: ok=%v err=%v", ok, err)
	}
}

func TestReserveWindowReArmsTTLlessKey(t *testing.T) {
	mr, rdb := testRedis(t)
	ctx := context.Background()
	window := 30 * time.Minute

	// A key left without a TTL would otherwise block the window forever.
	if err := mr.Set("stale", "1"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ok, err := ReserveWindow(ctx, rdb, "stale", window)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok {
		t.Fatalf("held key must reject")
	}
	if got := mr.TTL("stale"); got != window {
		t.Fatalf("TTL-less key must be re-armed to the window, got %s", got)
	}
}

func TestReleaseWindow(t *testing.T) {
	_, rdb := testRedis(t)
	ctx := context.Background()
	window := 30 * time.Minute

	if ok, _ := ReserveWindow(ctx, rdb, "k", window); !ok {
		t.Fatalf("reserve must succeed")
	}
	if err := ReleaseWindow(ctx, rdb, "k"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := ReserveWindow(ctx, rdb, "k", window); !ok {
		t.Fatalf("reserve after release must succeed")
	}
}

func TestWindowArgumentErrors(t *testing.T) {
	_, rdb := testRedis(t)
	ctx := context.Background()

	if _, err := ReserveWindow(ctx, nil, "k", time.Minute); err == nil {
		t.Fatalf("nil client must error")
	}
	if _, err := ReserveWindow(ctx, rdb, "", time.Minute); err == nil {
		t.Fatalf("empty key must error")
	}
	if _, err := ReserveWindow(ctx, rdb, "k", 0); err == nil {
		t.Fatalf("zero window must error")
	}
	if err := ReleaseWindow(ctx, nil, "k"); err == nil {
		t.Fatalf("nil client must error")
	}
	if err := ReleaseWindow(ctx, rdb, ""); err == nil {
		t.Fatalf("empty key must error")
	}
}
