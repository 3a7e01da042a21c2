package main

import (
	"database/sql"
	"time"

	"adserve-platform/internal/httpapi"
	"adserve-platform/internal/rbac"
	"adserve-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, db *sql.DB) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Viewer-facing tracking endpoints. Cookie-authenticated, no bearer
	// tokens: the viewer is anonymous.
	r.POST("/track/init/:publisher_id", h.TrackInit)
	r.POST("/track/:campaign_id/:publisher_id", h.TrackEvent)

	// protected API group
	v1 := r.Group("/v1")
	{
		// Token issuance.
		// NOTE: placeholder credential check; see Handlers.Login.
		v1.POST("/auth/login", h.Login)

		protected := v1.Group("")
		protected.Use(authMW)
		{
			campaigns := protected.Group("/campaigns")
			campaigns.Use(rbac.RequireAnyRole(rbac.RoleAdvertiser, rbac.RoleAdmin))
			{
				campaigns.PATCH("/:id/status", h.UpdateCampaignStatus)
			}

			earnings := protected.Group("/earnings")
			{
				// Publisher self-service.
				earnings.POST("/withdrawals", rbac.RequireAnyRole(rbac.RolePublisher), rbac.RequirePublisher(), h.RequestWithdrawal)
				earnings.GET("/revenue", rbac.RequireAnyRole(rbac.RolePublisher), rbac.RequirePublisher(), h.Revenue)
				earnings.GET("/stats", rbac.RequireAnyRole(rbac.RolePublisher), rbac.RequirePublisher(), h.MonthlyStats)

				// Admin settlement queue.
				earnings.GET("/withdrawals/pending", rbac.RequireAnyRole(rbac.RoleAdmin), h.PendingWithdrawals)
				earnings.POST("/withdrawals/:id/process", rbac.RequireAnyRole(rbac.RoleAdmin), h.ProcessWithdrawal)
			}
		}
	}
}
