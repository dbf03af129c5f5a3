package platform

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims the platform embeds in its session tokens.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID   string            `json:"uid"`
	Username string            `json:"usn"`
	Vars     map[string]string `json:"vrs,omitempty"`
}

// ParseSessionToken reads the claims of a platform session token without
// verifying its signature. Only the platform can verify it; callers use the
// claims to learn who they are and when to refresh.
func ParseSessionToken(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing uid claim", common.ErrInvalidToken)
	}
	return claims, nil
}

// Expired reports whether the claims carry an expiry that has passed at now.
func (c *SessionClaims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}
