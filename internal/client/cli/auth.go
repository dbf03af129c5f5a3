package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/client/api"
	"github.com/dmitrijs2005/todoboard/internal/client/session"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/spf13/cobra"
)

// Login exchanges an identity for a platform session and stores it.
func (a *App) Login(ctx context.Context, email, name string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrorValidation)
	}
	s, err := a.api.Login(ctx, api.Identity{
		Email:       email,
		Name:        name,
		EmailHeader: a.config.EmailHeader,
		NameHeader:  a.config.NameHeader,
	})
	if err != nil {
		return err
	}
	if err := a.saveSession(ctx, s); err != nil {
		return err
	}
	a.printf("Logged in as %s\n", s.Username)
	return nil
}

func (a *App) saveSession(ctx context.Context, s *api.Session) error {
	return a.sessions.Save(ctx, session.Credentials{
		AccessToken:  s.Token,
		RefreshToken: s.RefreshToken,
		UserID:       s.UserID,
		Username:     s.Username,
	})
}

// Logout ends the platform session, best effort, and clears the local one.
func (a *App) Logout(ctx context.Context) error {
	cur := a.sessions.Current()
	if !cur.LoggedIn() {
		a.println("Not logged in")
		return nil
	}
	if err := a.platform.Logout(ctx, cur.AccessToken, cur.RefreshToken); err != nil {
		a.logger.Warn(ctx, "platform logout failed", "error", err)
	}
	if err := a.sessions.Clear(ctx); err != nil {
		return err
	}
	a.println("Logged out")
	return nil
}

// Refresh trades the stored refresh token for a new session.
func (a *App) Refresh(ctx context.Context) error {
	cur := a.sessions.Current()
	if cur.RefreshToken == "" {
		return common.ErrNoCredential
	}
	s, err := a.api.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		return err
	}
	if err := a.saveSession(ctx, s); err != nil {
		return err
	}
	a.println("Session refreshed")
	return nil
}

// Whoami races the profile fetch against the profile timeout. When the
// timer wins, the name stored at login is shown instead.
func (a *App) Whoami(ctx context.Context) error {
	cur := a.sessions.Current()
	if !cur.LoggedIn() {
		return common.ErrNoCredential
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		profile *api.Profile
		err     error
	}
	done := make(chan result, 1)
	go func() {
		p, err := a.api.Profile(ctx)
		done <- result{p, err}
	}()

	timer := time.NewTimer(a.config.ProfileTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			return r.err
		}
		a.printf("%s (%s)\n", r.profile.Username, r.profile.ID)
		if r.profile.DisplayName != "" {
			a.printf("display name: %s\n", r.profile.DisplayName)
		}
	case <-timer.C:
		a.printf("%s (%s) [profile request timed out]\n", cur.Username, cur.UserID)
	}
	return nil
}

func newLoginCommand(st *state) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: st.withApp(func(ctx context.Context, a *App, _ []string) error {
			var err error
			if email, err = promptIfEmpty(email, "Enter email", a.reader, a.out); err != nil {
				return err
			}
			if name, err = promptIfEmpty(name, "Enter name (empty for the part before @)", a.reader, a.out); err != nil {
				return err
			}
			return a.Login(ctx, email, name)
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&name, "name", "n", "", "username")
	return cmd
}

func newLogoutCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: st.withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Logout(ctx)
		}),
	}
}

func newRefreshCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the session with the stored refresh token",
		Args:  cobra.NoArgs,
		RunE: st.withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Refresh(ctx)
		}),
	}
}

func newWhoamiCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: st.withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Whoami(ctx)
		}),
	}
}
