// Package auth issues and reads the server's session cookie. The cookie is
// an HS256 JWT naming the user; the platform tokens it carries are sealed
// so the browser cannot read them.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/cryptox"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "todoboard_session"

// Claims are the session JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	Username string `json:"usn"`
	Sealed   string `json:"tok"`
}

// Session is what a valid cookie resolves to.
type Session struct {
	UserID       string
	Username     string
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
}

type sealedTokens struct {
	Token        string `json:"t"`
	RefreshToken string `json:"r"`
}

type Manager struct {
	secret []byte
	sealer *cryptox.Sealer
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager derives the sealing key from secret and returns a Manager whose
// cookies live for ttl.
func NewManager(secret string, ttl time.Duration, secure bool) (*Manager, error) {
	sealer, err := cryptox.NewSealer(cryptox.DeriveKey([]byte(secret), []byte("todoboard-session")))
	if err != nil {
		return nil, err
	}
	return &Manager{secret: []byte(secret), sealer: sealer, ttl: ttl, secure: secure, now: time.Now}, nil
}

// Issue signs a session for the platform session s.
func (m *Manager) Issue(s *platform.Session, userID, username string) (string, time.Time, error) {
	sealed, err := m.sealer.Seal(sealedTokens{Token: s.Token, RefreshToken: s.RefreshToken})
	if err != nil {
		return "", time.Time{}, err
	}
	now := m.now()
	exp := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID:   userID,
		Username: username,
		Sealed:   sealed,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies a cookie value and unseals its platform tokens.
func (m *Manager) Parse(value string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	var tokens sealedTokens
	if err := m.sealer.Open(claims.Sealed, &tokens); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	s := &Session{
		UserID:       claims.UserID,
		Username:     claims.Username,
		Token:        tokens.Token,
		RefreshToken: tokens.RefreshToken,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Cookie wraps a signed session value.
func (m *Manager) Cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest reads and verifies the session cookie of r.
func (m *Manager) FromRequest(r *http.Request) (*Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, common.ErrNoCredential
	}
	return m.Parse(c.Value)
}
