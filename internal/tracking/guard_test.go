package tracking

import (
	"context"
	"testing"
	"time"
)

func TestDuplicateGuard_FailsOpenWithoutRedis(t *testing.T) {
	g := NewDuplicateGuard(nil, 30*time.Minute)

	ok, err := g.Reserve(context.Background(), "c1", "1.2.3.4", "click")
	if err != nil || !ok {
		t.Fatalf("expected open guard, got ok=%v err=%v", ok, err)
	}
	if err := g.Release(context.Background(), "c1", "1.2.3.4", "click"); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestDupKey(t *testing.T) {
	if got := dupKey("c1", "1.2.3.4", "click"); got != "dup:c1:1.2.3.4:click" {
		t.Fatalf("unexpected key %q", got)
	}
}
