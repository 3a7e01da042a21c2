package httpapi

import (
	"errors"
	"net/http"
	"time"

	"adserve-platform/internal/auth"
	"adserve-platform/internal/campaign"
	"adserve-platform/internal/earnings"
	"adserve-platform/internal/publisher"
	"adserve-platform/internal/session"
	"adserve-platform/internal/tracking"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth       *auth.Manager
	Sessions   *session.Manager
	Pipeline   *tracking.Pipeline
	Campaigns  *campaign.Service
	Earnings   *earnings.Service
	Publishers publisher.Repository
	Cookie     CookieConfig
}

// --- Auth ---

type loginRequest struct {
	UserID      string `json:"user_id"`
	PublisherID string `json:"publisher_id"`
	Role        string `json:"role"`
}

// Login issues an access token.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id and role required"})
		return
	}
	token, err := h.Auth.IssueAccessToken(time.Now(), req.UserID, req.PublisherID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

// --- Campaigns ---

type campaignStatusRequest struct {
	NewStatus string `json:"new_status"`
}

// UpdateCampaignStatus moves a campaign through its lifecycle.
// RBAC: advertiser or admin.
func (h Handlers) UpdateCampaignStatus(c *gin.Context) {
	var req campaignStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updated, err := h.Campaigns.TransitionStatus(c.Request.Context(), c.Param("id"), campaign.Status(req.NewStatus))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, updated)
	case errors.Is(err, campaign.ErrInvalidStatus):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown campaign status"})
	case errors.Is(err, campaign.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaign update failed"})
	}
}

// --- Earnings ---

type withdrawalRequest struct {
	Month string `json:"month"` // YYYY-MM
}

// RequestWithdrawal opens a withdrawal for the authenticated publisher's
// monthly bucket.
func (h Handlers) RequestWithdrawal(c *gin.Context) {
	publisherID := auth.PublisherID(c.Request.Context())
	if publisherID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "publisher identity required"})
		return
	}

	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
		return
	}

	e, err := h.Earnings.RequestWithdrawal(c.Request.Context(), publisherID, month)
	if err != nil {
		withdrawalError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// PendingWithdrawals lists open withdrawal requests.
// RBAC: admin only.
func (h Handlers) PendingWithdrawals(c *gin.Context) {
	pending, err := h.Earnings.PendingWithdrawals(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": pending})
}

type processWithdrawalRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

// ProcessWithdrawal settles a requested withdrawal.
// RBAC: admin only.
func (h Handlers) ProcessWithdrawal(c *gin.Context) {
	var req processWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	e, err := h.Earnings.ProcessWithdrawal(c.Request.Context(), c.Param("id"), req.Approve, req.Notes)
	if err != nil {
		withdrawalError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// Revenue recomputes the authenticated publisher's revenue for a window from
// raw tracking events.
func (h Handlers) Revenue(c *gin.Context) {
	publisherID := auth.PublisherID(c.Request.Context())
	if publisherID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "publisher identity required"})
		return
	}

	from, err := parseDay(c.Query("start"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	to, err := parseDay(c.Query("end"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}
	// The end day is inclusive.
	to = to.Add(24 * time.Hour)

	stats, err := h.Earnings.PeriodicRevenue(c.Request.Context(), publisherID, from, to)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid revenue window"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// MonthlyStats returns the authenticated publisher's bucket totals with the
// payout terms.
func (h Handlers) MonthlyStats(c *gin.Context) {
	publisherID := auth.PublisherID(c.Request.Context())
	if publisherID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "publisher identity required"})
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(-1, 0, 0)
	if q := c.Query("from"); q != "" {
		m, err := time.Parse("2006-01", q)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM"})
			return
		}
		from = m
	}
	to := now
	if q := c.Query("to"); q != "" {
		m, err := time.Parse("2006-01", q)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM"})
			return
		}
		to = m
	}

	report, err := h.Earnings.MonthlyStats(c.Request.Context(), publisherID, from, to)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats lookup failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
