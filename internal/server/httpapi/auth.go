package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/platform"
)

// SessionResponse is returned by the login and refresh routes.
type SessionResponse struct {
	Success      bool   `json:"success"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
}

// Profile is the caller's account as returned by /api/nakama-user.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreateTime  time.Time `json:"create_time,omitzero"`
}

func returnTo(r *http.Request) string {
	to := r.URL.Query().Get("returnTo")
	if to == "" || !strings.HasPrefix(to, "/") || strings.HasPrefix(to, "//") {
		return "/"
	}
	return to
}

func (s *Server) loginURL(to string) string {
	u, err := url.Parse(s.Identity.LoginURL)
	if err != nil {
		return s.Identity.LoginURL
	}
	q := u.Query()
	q.Set("returnTo", to)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Server) handleLoginRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.loginURL(returnTo(r)), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?authCompleted=true", http.StatusFound)
}

// handleLogout drops the session cookie and ends the platform session. The
// platform call is best effort.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.Sessions != nil {
		if sess, err := s.Sessions.FromRequest(r); err == nil {
			ctx := httpx.WithCredential(r.Context(), sess.Token)
			if err := s.Platform.Logout(ctx, sess.Token, sess.RefreshToken); err != nil {
				s.Log.Warn(ctx, "platform logout failed", "user_id", sess.UserID, "error", err)
			}
		}
		http.SetCookie(w, s.Sessions.ClearCookie())
	}
	to := s.Identity.LogoutURL
	if to == "" {
		to = "/"
	}
	http.Redirect(w, r, to, http.StatusFound)
}

// issue sets the session cookie for a fresh platform session and writes the
// session response.
func (s *Server) issue(w http.ResponseWriter, r *http.Request, sess *platform.Session) {
	claims, err := platform.ParseSessionToken(sess.Token)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.Sessions != nil {
		value, exp, err := s.Sessions.Issue(sess, claims.UserID, claims.Username)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		http.SetCookie(w, s.Sessions.Cookie(value, exp))
	}
	httpx.WriteJSON(w, http.StatusOK, SessionResponse{
		Success:      true,
		Token:        sess.Token,
		RefreshToken: sess.RefreshToken,
		UserID:       claims.UserID,
		Username:     claims.Username,
	})
}

// handleExchange trades the identity established by the upstream login
// proxy for a platform session.
func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.Header.Get(s.Identity.EmailHeader))
	if email == "" {
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":       "not signed in",
			"redirectUrl": "/api/auth/login?returnTo=" + url.QueryEscape("/"),
		})
		return
	}
	name := strings.TrimSpace(r.Header.Get(s.Identity.NameHeader))
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	sess, err := s.Platform.AuthenticateCustom(r.Context(), email, name, true)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Log.Info(r.Context(), "session exchanged", "created", sess.Created)
	s.issue(w, r, sess)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.ContentLength != 0 {
		if !s.decode(w, r, &body) {
			return
		}
	}
	if body.RefreshToken == "" && s.Sessions != nil {
		if sess, err := s.Sessions.FromRequest(r); err == nil {
			body.RefreshToken = sess.RefreshToken
		}
	}
	if body.RefreshToken == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "refresh token required")
		return
	}

	sess, err := s.Platform.RefreshSession(r.Context(), body.RefreshToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.issue(w, r, sess)
}

// handleProfile fetches the caller's account, giving up after ProfileTimeout.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.ProfileTimeout)
	defer cancel()

	acc, err := s.Platform.Account(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			httpx.WriteError(w, http.StatusGatewayTimeout, "profile request timed out")
			return
		}
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Profile{
		ID:          acc.User.ID,
		Username:    acc.User.Username,
		DisplayName: acc.User.DisplayName,
		AvatarURL:   acc.User.AvatarURL,
		CreateTime:  acc.User.CreateTime,
	})
}
