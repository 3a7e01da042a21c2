package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the self-describing content of a tracking-session token.
// The token embeds the full fingerprint so forged cookies fail the
// signature check and stolen cookies fail the fingerprint comparison.
type TokenClaims struct {
	jwt.RegisteredClaims

	IP          string `json:"ip"`
	UserAgent   string `json:"ua"`
	Resolution  string `json:"res,omitempty"`
	Language    string `json:"lang,omitempty"`
	PublisherID string `json:"pub_id"`
}

// TokenIssuer signs and verifies tracking-session tokens (HS256).
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("session: token secret is required")
	}
	return &TokenIssuer{secret: []byte(secret)}, nil
}

func (i *TokenIssuer) Issue(claims TokenClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// Verify checks signature and expiry. Expiry at exactly the deadline counts
// as expired (zero leeway).
func (i *TokenIssuer) Verify(tokenString string, now time.Time) (TokenClaims, error) {
	var claims TokenClaims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrSessionExpired
		}
		return TokenClaims{}, ErrSessionInvalid
	}

	if claims.IP == "" || claims.UserAgent == "" || claims.PublisherID == "" {
		return TokenClaims{}, ErrSessionInvalid
	}
	return claims, nil
}
