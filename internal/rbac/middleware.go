package rbac

import (
	"net/http"

	"adserve-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequirePublisher enforces that the caller carries a publisher identity.
// Earnings endpoints scope their queries to it instead of trusting request
// parameters.
func RequirePublisher() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.PublisherID(c.Request.Context()) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "publisher identity required"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller has any of the provided roles.
// admin bypasses all checks.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}

		if IsAdmin(role) {
			c.Next()
			return
		}

		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
