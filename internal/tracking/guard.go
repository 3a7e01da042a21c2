package tracking

import (
	"context"
	"fmt"
	"time"

	"adserve-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// DuplicateGuard is the Redis fast path of duplicate suppression. A
// reservation claims the (campaign, ip, type) slot for the window; the DB
// check inside the ingestion transaction remains authoritative.
//
// The guard fails open: a Redis error never blocks ingestion.
type DuplicateGuard struct {
	rdb    *redis.Client
	window time.Duration
}

func NewDuplicateGuard(rdb *redis.Client, window time.Duration) *DuplicateGuard {
	return &DuplicateGuard{rdb: rdb, window: window}
}

func (g *DuplicateGuard) Window() time.Duration { return g.window }

func dupKey(campaignID, viewerIP, eventType string) string {
	return fmt.Sprintf("dup:%s:%s:%s", campaignID, viewerIP, eventType)
}

// Reserve claims the slot. false means another event holds it within the
// window and the caller should reject with ErrRateLimited.
func (g *DuplicateGuard) Reserve(ctx context.Context, campaignID, viewerIP, eventType string) (bool, error) {
	if g == nil || g.rdb == nil {
		return true, nil
	}
	ok, err := utils.ReserveWindow(ctx, g.rdb, dupKey(campaignID, viewerIP, eventType), g.window)
	if err != nil {
		return true, err
	}
	return ok, nil
}

// Release frees a reservation after a failed pipeline run so the viewer's
// next attempt is not locked out for the whole window.
func (g *DuplicateGuard) Release(ctx context.Context, campaignID, viewerIP, eventType string) error {
	if g == nil || g.rdb == nil {
		return nil
	}
	return utils.ReleaseWindow(ctx, g.rdb, dupKey(campaignID, viewerIP, eventType))
}
