package httpapi

import (
	"net/http"

	"adserve-platform/internal/session"
	"adserve-platform/internal/tracking"
	"adserve-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls the tracking session cookie the viewer carries.
type CookieConfig struct {
	Name   string
	Secure bool
}

type trackInitRequest struct {
	ScreenResolution string `json:"viewer_screen_resolution"`
	Language         string `json:"viewer_language"`
}

// TrackInit opens a tracking session for a viewer and sets the session
// cookie. The fingerprint (ip, user agent) comes from the request itself.
func (h Handlers) TrackInit(c *gin.Context) {
	publisherID := c.Param("publisher_id")
	if _, err := h.Publishers.Get(c.Request.Context(), publisherID); err != nil {
		trackError(c, err)
		return
	}

	// Body is optional; only the extra fingerprint hints live there.
	var req trackInitRequest
	_ = c.ShouldBindJSON(&req)

	token, sess, err := h.Sessions.Init(c.Request.Context(), session.InitRequest{
		PublisherID:      publisherID,
		ViewerIP:         c.ClientIP(),
		ViewerUserAgent:  c.Request.UserAgent(),
		ScreenResolution: req.ScreenResolution,
		Language:         req.Language,
	})
	if err != nil {
		trackError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie.Name, token, int(h.Sessions.TTL().Seconds()), "/", "", h.Cookie.Secure, true)

	c.JSON(http.StatusCreated, gin.H{
		"session_id":   sess.ID,
		"publisher_id": sess.PublisherID,
		"expires_at":   sess.ExpiresAt,
	})
}

type trackEventRequest struct {
	EventType        string `json:"event_type"`
	UserAgent        string `json:"viewer_user_agent"`
	ScreenResolution string `json:"viewer_screen_resolution"`
	Language         string `json:"viewer_language"`
}

// TrackEvent records one billable interaction against the viewer's session.
// The acknowledgement never includes revenue figures.
func (h Handlers) TrackEvent(c *gin.Context) {
	campaignID := c.Param("campaign_id")
	publisherID := c.Param("publisher_id")

	token, err := c.Cookie(h.Cookie.Name)
	if err != nil || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tracking session required"})
		return
	}

	sess, err := h.Sessions.Validate(c.Request.Context(), token, c.ClientIP(), c.Request.UserAgent(), publisherID)
	if err != nil {
		trackError(c, err)
		return
	}

	var req trackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	// The pipeline logs through the context; hand it the request-scoped
	// logger so its warnings carry the request id.
	ctx := logger.With(c.Request.Context(), logger.FromGin(c))
	ctx = tracking.WithClientIP(ctx, c.ClientIP())
	event, err := h.Pipeline.Track(ctx, campaignID, publisherID, tracking.Payload{
		EventType:        req.EventType,
		UserAgent:        req.UserAgent,
		ScreenResolution: req.ScreenResolution,
		Language:         req.Language,
		RequestID:        logger.RequestID(c),
		Endpoint:         c.Request.Method + " " + c.FullPath(),
	}, sess)
	if err != nil {
		trackError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "recorded",
		"event_id": event.ID,
	})
}
