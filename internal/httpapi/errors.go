package httpapi

import (
	"errors"
	"net/http"

	"adserve-platform/internal/campaign"
	"adserve-platform/internal/earnings"
	"adserve-platform/internal/publisher"
	"adserve-platform/internal/session"
	"adserve-platform/internal/tracking"

	"github.com/gin-gonic/gin"
)

// trackError maps pipeline and session errors to the tracking endpoints'
// status codes. Anything outside the taxonomy surfaces as a generic 500 so
// internals never leak to viewers.
func trackError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrMissingFingerprint):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "ip and user agent required"})
	case errors.Is(err, session.ErrBotTraffic):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "automated traffic is not tracked"})
	case errors.Is(err, session.ErrSessionExpired):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
	case errors.Is(err, session.ErrSessionInvalid):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
	case errors.Is(err, tracking.ErrRateLimited):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "duplicate event"})
	case errors.Is(err, tracking.ErrInvalidEventType):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "event_type must be impression, click or view"})
	case errors.Is(err, campaign.ErrNotFound), errors.Is(err, publisher.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, campaign.ErrBudgetExceeded):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "campaign budget exhausted"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "event ingestion failed"})
	}
}

// withdrawalError maps the earnings state machine to 400-class responses.
func withdrawalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, earnings.ErrNoEarnings):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no earnings for period"})
	case errors.Is(err, earnings.ErrWithdrawalInProgress):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "withdrawal already in progress"})
	case errors.Is(err, earnings.ErrWithdrawalTooEarly):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "earnings not yet withdrawable"})
	case errors.Is(err, earnings.ErrBelowMinimumPayout):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "earnings below minimum payout"})
	case errors.Is(err, earnings.ErrWithdrawalNotRequested):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "withdrawal not in requested state"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "withdrawal processing failed"})
	}
}
