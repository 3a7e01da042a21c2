package audit

import "time"

// Entry is an immutable, append-only system log record.
//
// Invariants:
// - Entries are never updated or deleted.
// - Request/endpoint capture is best-effort; do not block critical flows on
//   logging failures (the ingestion pipeline is the one exception: its error
//   entry is written in the same transaction as the event).

type Entry struct {
	ID string `json:"id" db:"id"`

	// Level is the severity of the record.
	Level Level `json:"level" db:"level"`

	// Category indicates the subsystem the record belongs to.
	Category Category `json:"category" db:"category"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message" db:"message"`

	// RequestID correlates the record with a single HTTP request.
	RequestID string `json:"request_id,omitempty" db:"request_id"`

	// IPAddress should capture the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Endpoint is the HTTP method and path that produced the record.
	Endpoint string `json:"endpoint,omitempty" db:"endpoint"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Level string

const (
	LevelDebug    Level = "debug"
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

type Category string

const (
	CategoryTracking Category = "tracking"
	CategoryBilling  Category = "billing"
	CategoryAuth     Category = "auth"
	CategorySystem   Category = "system"
)
