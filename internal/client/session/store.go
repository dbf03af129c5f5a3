// Package session keeps the client's platform session in a local SQLite
// database and tells interested parties whenever it changes.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/todoboard/internal/client/session/migrations"
	"github.com/dmitrijs2005/todoboard/internal/common"
	"github.com/dmitrijs2005/todoboard/internal/dbx"
	"github.com/dmitrijs2005/todoboard/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyUserID       = "user_id"
	keyUsername     = "username"
)

// Credentials are the session values issued at login.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Username     string
}

// LoggedIn reports whether an access token is present.
func (c Credentials) LoggedIn() bool {
	return c.AccessToken != ""
}

// Store holds the current Credentials. Save and Clear replace all values at
// once; readers never observe a partial session.
type Store struct {
	db *sql.DB

	mu   sync.RWMutex
	cur  Credentials
	subs map[int]func(Credentials)
	next int
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the SQLite database at dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := filex.EnsureParentDir(dsn); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session migrations: %w", err)
	}
	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New loads the stored session from an already migrated db.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db, subs: make(map[int]func(Credentials))}
	values, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	s.cur = Credentials{
		AccessToken:  values[keyAccessToken],
		RefreshToken: values[keyRefreshToken],
		UserID:       values[keyUserID],
		Username:     values[keyUsername],
	}
	return s, nil
}

func (s *Store) list(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session`)
	if err != nil {
		return nil, fmt.Errorf("failed to list session: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	return result, nil
}

// Current returns a copy of the session.
func (s *Store) Current() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Credential implements httpx.CredentialProvider.
func (s *Store) Credential(context.Context) (string, error) {
	if token := s.Current().AccessToken; token != "" {
		return token, nil
	}
	return "", common.ErrNoCredential
}

// Save persists c in one transaction and notifies subscribers.
func (s *Store) Save(ctx context.Context, c Credentials) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for key, value := range map[string]string{
			keyAccessToken:  c.AccessToken,
			keyRefreshToken: c.RefreshToken,
			keyUserID:       c.UserID,
			keyUsername:     c.Username,
		} {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO session (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, key, value); err != nil {
				return fmt.Errorf("failed to set session[%s]: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(c)
	return nil
}

// Clear removes every session value and notifies subscribers.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.publish(Credentials{})
	return nil
}

func (s *Store) publish(c Credentials) {
	s.mu.Lock()
	s.cur = c
	fns := make([]func(Credentials), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Subscribe calls fn with the new Credentials after every Save or Clear
// until the returned cancel func is called.
func (s *Store) Subscribe(fn func(Credentials)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}
