package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adserve-platform/internal/audit"
	"adserve-platform/internal/campaign"
	"adserve-platform/internal/device"
	"adserve-platform/internal/earnings"
	"adserve-platform/internal/geo"
	"adserve-platform/internal/pricing"
	"adserve-platform/internal/session"
	"adserve-platform/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// GeoResolver is the lookup the pipeline needs from the geo package.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) (geo.Info, error)
}

// BlacklistCleaner is the post-commit housekeeping hook.
type BlacklistCleaner interface {
	CleanupBlacklist(ctx context.Context) (int64, error)
}

// Pipeline ingests one billable event end to end: duplicate suppression,
// geo and device enrichment, pricing, and a single transaction covering the
// event insert, the budget debit, the earnings increment and the log entry.
type Pipeline struct {
	store     Store
	guard     *DuplicateGuard
	geo       GeoResolver
	engine    *pricing.Engine
	campaigns campaign.Repository
	logs      *audit.Service
	cleaner   BlacklistCleaner
	window    time.Duration
	clock     func() time.Time
}

type PipelineConfig struct {
	Store     Store
	Guard     *DuplicateGuard
	Geo       GeoResolver
	Engine    *pricing.Engine
	Campaigns campaign.Repository

	// Logs receives best-effort failure entries outside the transaction.
	Logs *audit.Service

	// Cleaner runs after a successful commit. Optional.
	Cleaner BlacklistCleaner

	// DuplicateWindow bounds the authoritative DB check.
	DuplicateWindow time.Duration
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		store:     cfg.Store,
		guard:     cfg.Guard,
		geo:       cfg.Geo,
		engine:    cfg.Engine,
		campaigns: cfg.Campaigns,
		logs:      cfg.Logs,
		cleaner:   cfg.Cleaner,
		window:    cfg.DuplicateWindow,
		clock:     time.Now,
	}
}

// Track records one event for a validated session. The returned event is for
// internal use; handlers must not expose its revenue figures to viewers.
func (p *Pipeline) Track(ctx context.Context, campaignID, publisherID string, payload Payload, sess session.Session) (TrackingEvent, error) {
	if !ValidEventType(payload.EventType) {
		return TrackingEvent{}, ErrInvalidEventType
	}
	// The session is pinned to one publisher at init; a track call for a
	// different publisher is a replayed or stolen cookie.
	if sess.PublisherID != publisherID {
		return TrackingEvent{}, session.ErrSessionInvalid
	}

	reserved, err := p.guard.Reserve(ctx, campaignID, sess.ViewerIP, payload.EventType)
	if err != nil {
		logger.From(ctx).Warn("duplicate guard unavailable, falling back to db check", "error", err)
	}
	if !reserved {
		return TrackingEvent{}, ErrRateLimited
	}

	event, err := p.ingest(ctx, campaignID, publisherID, payload, sess)
	if err != nil {
		// Free the reservation so a transient failure does not lock the
		// viewer out for the whole window.
		if relErr := p.guard.Release(ctx, campaignID, sess.ViewerIP, payload.EventType); relErr != nil {
			logger.From(ctx).Warn("duplicate guard release failed", "error", relErr)
		}
		p.logFailure(ctx, campaignID, publisherID, payload, err)
		return TrackingEvent{}, err
	}

	if p.cleaner != nil {
		n, err := p.cleaner.CleanupBlacklist(ctx)
		switch {
		case err != nil:
			logger.From(ctx).Warn("blacklist cleanup failed", "error", err)
		case n > 0 && p.logs != nil:
			meta, _ := json.Marshal(map[string]int64{"reactivated": n})
			if logErr := p.logs.Info(ctx, audit.CategorySystem, "blacklisted sessions re-activated", payload.RequestID, "", payload.Endpoint, string(meta)); logErr != nil {
				logger.From(ctx).Warn("cleanup entry not recorded", "error", logErr)
			}
		}
	}
	return event, nil
}

func (p *Pipeline) ingest(ctx context.Context, campaignID, publisherID string, payload Payload, sess session.Session) (TrackingEvent, error) {
	now := p.clock().UTC()

	// Geo and device both work off the session's pinned fingerprint, not
	// whatever the track request carries.
	location, err := p.geo.Resolve(ctx, sess.ViewerIP)
	if err != nil {
		return TrackingEvent{}, fmt.Errorf("resolve viewer location: %w", err)
	}
	dev, err := device.Classify(sess.ViewerUserAgent)
	if err != nil {
		return TrackingEvent{}, fmt.Errorf("classify viewer device: %w", err)
	}
	if dev.Bot || dev.EmailClient {
		return TrackingEvent{}, session.ErrBotTraffic
	}

	c, err := p.campaigns.Get(ctx, campaignID)
	if err != nil {
		return TrackingEvent{}, err
	}
	if c.Status != campaign.StatusActive {
		return TrackingEvent{}, campaign.ErrNotFound
	}

	rev, err := p.engine.CalculateRevenue(location.Country, payload.EventType, dev.Type)
	if err != nil {
		return TrackingEvent{}, fmt.Errorf("price event: %w", err)
	}
	platformShare, publisherShare := p.engine.Split(rev.FinalRate)

	event := TrackingEvent{
		ID:              uuid.NewString(),
		AdID:            c.AdvertisementID,
		CampaignID:      campaignID,
		PublisherID:     publisherID,
		TrackingSession: sess.ID,
		EventType:       payload.EventType,
		EventTimestamp:  now,

		ViewerIP:         sess.ViewerIP,
		UserAgent:        sess.ViewerUserAgent,
		ScreenResolution: firstNonEmpty(sess.ScreenResolution, payload.ScreenResolution),
		Language:         firstNonEmpty(sess.Language, payload.Language),

		Country:  location.Country,
		Timezone: location.Timezone,

		Device:     dev.Device,
		DeviceType: dev.Type,
		OS:         dev.OS,
		Browser:    dev.Browser,

		Earnings:          rev.FinalRate,
		PlatformEarnings:  platformShare,
		PublisherEarnings: publisherShare,
		CreatedAt:         now,
	}

	err = p.store.InTx(ctx, func(ctx context.Context, tx TxStore) error {
		// The debit's row update locks the campaign, so concurrent ingests
		// for the same campaign run one at a time. The windowed check comes
		// after the lock: the loser of a race re-reads once the winner has
		// committed and sees its event.
		if _, err := tx.DebitCampaign(ctx, campaignID, rev.FinalRate, now); err != nil {
			return err
		}

		dup, err := tx.RecentDuplicate(ctx, campaignID, sess.ViewerIP, payload.EventType, now.Add(-p.window))
		if err != nil {
			return err
		}
		if dup {
			return ErrRateLimited
		}

		if err := tx.InsertEvent(ctx, event); err != nil {
			return err
		}
		if err := tx.ApplyEarnings(ctx, earnings.Delta{
			PublisherID:    publisherID,
			Month:          now,
			EventType:      payload.EventType,
			Gross:          rev.FinalRate,
			PublisherShare: publisherShare,
			PlatformShare:  platformShare,
			Currency:       rev.Currency,
		}, now); err != nil {
			return err
		}

		meta, _ := json.Marshal(map[string]string{
			"event_id":    event.ID,
			"campaign_id": campaignID,
			"event_type":  payload.EventType,
			"country":     location.Country,
			"device_type": dev.Type,
		})
		return tx.AppendLog(ctx, audit.Entry{
			ID:        uuid.NewString(),
			Level:     audit.LevelInfo,
			Category:  audit.CategoryTracking,
			Message:   "tracking event recorded",
			RequestID: payload.RequestID,
			IPAddress: sess.ViewerIP,
			Endpoint:  payload.Endpoint,
			Metadata:  string(meta),
			CreatedAt: now,
		})
	})
	if err != nil {
		return TrackingEvent{}, err
	}
	return event, nil
}

// logFailure writes the best-effort ERROR entry for a failed ingestion. The
// taxonomy errors describe viewer mistakes and are recorded as warnings by
// the HTTP layer instead.
func (p *Pipeline) logFailure(ctx context.Context, campaignID, publisherID string, payload Payload, cause error) {
	if p.logs == nil {
		return
	}
	switch {
	case errors.Is(cause, ErrRateLimited),
		errors.Is(cause, ErrInvalidEventType),
		errors.Is(cause, session.ErrSessionInvalid),
		errors.Is(cause, session.ErrBotTraffic):
		return
	}

	meta, _ := json.Marshal(map[string]string{
		"campaign_id":  campaignID,
		"publisher_id": publisherID,
		"event_type":   payload.EventType,
		"error":        cause.Error(),
	})
	if err := p.logs.Error(ctx, audit.CategoryTracking, "event ingestion failed", payload.RequestID, ClientIPFromContext(ctx), payload.Endpoint, string(meta)); err != nil {
		logger.From(ctx).Warn("failure entry not recorded", "error", err)
	}
}

func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
