package fixture

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func (b *Backend) authenticateCustom(customID, username string, create bool) (*platform.Session, error) {
	if customID == "" {
		return nil, badRequest("Custom ID is required.")
	}

	b.mu.Lock()
	uid, exists := b.byCustom[customID]
	created := false
	if !exists {
		if !create {
			b.mu.Unlock()
			return nil, notFound("User account not found.")
		}
		if username == "" {
			username = strings.ToLower(common.MustRandHex(5))
		}
		for _, acc := range b.accounts {
			if acc.User.Username == username {
				b.mu.Unlock()
				return nil, &httpx.APIError{Status: http.StatusConflict, Message: "Username is already in use."}
			}
		}
		now := b.now().UTC()
		uid = uuid.NewString()
		b.accounts[uid] = &platform.Account{
			User: platform.User{
				ID:         uid,
				Username:   username,
				CreateTime: now,
				UpdateTime: now,
			},
			CustomID: customID,
		}
		if strings.Contains(customID, "@") {
			b.accounts[uid].Email = customID
		}
		b.byCustom[customID] = uid
		created = true
	}
	acc := *b.accounts[uid]
	b.mu.Unlock()

	s, err := b.issue(acc.User)
	if err != nil {
		return nil, err
	}
	s.Created = created
	return s, nil
}

func (b *Backend) issue(u platform.User) (*platform.Session, error) {
	now := b.now()
	access := platform.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(b.tokenTTL)),
		},
		UserID:   u.ID,
		Username: u.Username,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(b.secret)
	if err != nil {
		return nil, err
	}

	refresh := access
	refresh.ID = uuid.NewString()
	refresh.ExpiresAt = jwt.NewNumericDate(now.Add(b.refreshTTL))
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(b.refreshSecret)
	if err != nil {
		return nil, err
	}
	return &platform.Session{Token: token, RefreshToken: refreshToken}, nil
}

func (b *Backend) verify(token string, secret []byte) (*platform.SessionClaims, error) {
	claims := &platform.SessionClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(b.now))
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return secret, nil })
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &httpx.APIError{Status: http.StatusUnauthorized, Message: "Auth token expired"}
		}
		return nil, errUnauthenticated
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, gone := b.revoked[claims.ID]; gone {
		return nil, errUnauthenticated
	}
	if _, ok := b.accounts[claims.UserID]; !ok {
		return nil, errUnauthenticated
	}
	return claims, nil
}

// Authenticate resolves a bearer token issued by this backend to a user id.
func (b *Backend) Authenticate(token string) (string, error) {
	claims, err := b.verify(token, b.secret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (b *Backend) refresh(refreshToken string) (*platform.Session, error) {
	claims, err := b.verify(refreshToken, b.refreshSecret)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	acc := *b.accounts[claims.UserID]
	b.mu.Unlock()
	return b.issue(acc.User)
}

func (b *Backend) logout(tokens ...string) {
	for _, t := range tokens {
		if t == "" {
			continue
		}
		claims := &platform.SessionClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(t, claims); err != nil || claims.ID == "" {
			continue
		}
		b.mu.Lock()
		b.revoked[claims.ID] = struct{}{}
		b.mu.Unlock()
	}
}

func (b *Backend) account(uid string) (*platform.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[uid]
	if !ok {
		return nil, notFound("User account not found.")
	}
	out := *acc
	return &out, nil
}

// SetDisplayName updates a user's display name. Tests use it to exercise
// author-name fallbacks.
func (b *Backend) SetDisplayName(uid, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if acc, ok := b.accounts[uid]; ok {
		acc.User.DisplayName = name
	}
}
