package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for dashboard access.
// PublisherID is set for publisher-role callers so earnings endpoints can
// scope queries without trusting request parameters.
type Claims struct {
	jwt.RegisteredClaims

	UserID      string `json:"user_id"`
	PublisherID string `json:"publisher_id,omitempty"`
	Role        string `json:"role"`
}
