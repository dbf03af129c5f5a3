package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, secret string, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(secret, ttl, false)
	require.NoError(t, err)
	return m
}

func TestIssueAndParse(t *testing.T) {
	t.Parallel()
	m := newManager(t, "super-secret", time.Hour)

	value, exp, err := m.Issue(&platform.Session{Token: "access-tok", RefreshToken: "refresh-tok"}, "u1", "alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)
	assert.False(t, strings.Contains(value, "access-tok"))

	s, err := m.Parse(value)
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, "access-tok", s.Token)
	assert.Equal(t, "refresh-tok", s.RefreshToken)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()
	m := newManager(t, "secret", -time.Second)

	value, _, err := m.Issue(&platform.Session{Token: "x"}, "u1", "alice")
	require.NoError(t, err)

	_, err = m.Parse(value)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()
	value, _, err := newManager(t, "right", time.Hour).Issue(&platform.Session{Token: "x"}, "u1", "a")
	require.NoError(t, err)

	_, err = newManager(t, "wrong", time.Hour).Parse(value)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = newManager(t, "right", time.Hour).Parse("not-a-jwt")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestFromRequestAndCookies(t *testing.T) {
	t.Parallel()
	m := newManager(t, "secret", time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := m.FromRequest(r)
	require.ErrorIs(t, err, common.ErrNoCredential)

	value, exp, err := m.Issue(&platform.Session{Token: "tok"}, "u1", "alice")
	require.NoError(t, err)
	c := m.Cookie(value, exp)
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	r.AddCookie(c)

	s, err := m.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "tok", s.Token)

	assert.Equal(t, -1, m.ClearCookie().MaxAge)
}
