package tracking

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrRateLimited      = errors.New("duplicate event within window")
	ErrInvalidEventType = errors.New("invalid event type")
)

// TrackingEvent is the append-only record of one billable viewer
// interaction. Revenue figures are written once at insert time and never
// recomputed.
type TrackingEvent struct {
	ID              string `json:"id" db:"id"`
	AdID            string `json:"ad_id" db:"ad_id"`
	CampaignID      string `json:"campaign_id" db:"campaign_id"`
	PublisherID     string `json:"publisher_id" db:"publisher_id"`
	TrackingSession string `json:"tracking_session_id" db:"tracking_session_id"`

	EventType      string    `json:"event_type" db:"event_type"`
	EventTimestamp time.Time `json:"event_timestamp" db:"event_timestamp"`

	ViewerIP         string `json:"viewer_ip" db:"viewer_ip"`
	UserAgent        string `json:"user_agent" db:"user_agent"`
	ScreenResolution string `json:"screen_resolution" db:"screen_resolution"`
	Language         string `json:"language" db:"language"`

	Country  string `json:"country" db:"country"`
	Timezone string `json:"timezone" db:"timezone"`

	Device     string `json:"device" db:"device"`
	DeviceType string `json:"device_type" db:"device_type"`
	OS         string `json:"os" db:"os"`
	Browser    string `json:"browser" db:"browser"`

	Earnings          decimal.Decimal `json:"earnings" db:"earnings"`
	PlatformEarnings  decimal.Decimal `json:"platform_earnings" db:"platform_earnings"`
	PublisherEarnings decimal.Decimal `json:"publisher_earnings" db:"publisher_earnings"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Payload is the request body of a track call. Fingerprint fields are
// optional: the session's pinned values win, these only fill gaps.
type Payload struct {
	EventType        string `json:"event_type"`
	UserAgent        string `json:"viewer_user_agent,omitempty"`
	ScreenResolution string `json:"viewer_screen_resolution,omitempty"`
	Language         string `json:"viewer_language,omitempty"`

	// Request context, carried into the system log only.
	RequestID string `json:"-"`
	Endpoint  string `json:"-"`
}

func ValidEventType(t string) bool {
	switch t {
	case "impression", "click", "view":
		return true
	}
	return false
}
