// Package server wires the todoboard server together: the platform adapter
// picked by configuration, the board store, attachments and the HTTP API,
// and runs it until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/blob"
	"github.com/dmitrijs2005/todoboard/internal/board"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/dmitrijs2005/todoboard/internal/platform/fixture"
	"github.com/dmitrijs2005/todoboard/internal/platform/nakama"
	"github.com/dmitrijs2005/todoboard/internal/server/auth"
	"github.com/dmitrijs2005/todoboard/internal/server/config"
	"github.com/dmitrijs2005/todoboard/internal/server/httpapi"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	handler http.Handler
	db      *sql.DB
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// newPlatform picks the platform implementation. Both resolve the caller
// from the request context. The fixture also returns its REST handler.
func newPlatform(c *config.Config) (platform.Platform, http.Handler, error) {
	switch c.PlatformMode {
	case config.PlatformLive:
		return nakama.New(nakama.Config{
			BaseURL:         c.PlatformURL,
			ServerKey:       c.PlatformServerKey,
			ConsoleUser:     c.ConsoleUser,
			ConsolePassword: c.ConsolePassword,
		}, httpx.ContextCredential{}), nil, nil
	case config.PlatformFixture:
		b := fixture.NewBackend(
			fixture.WithServerKey(c.PlatformServerKey),
			fixture.WithConsole(c.ConsoleUser, c.ConsolePassword),
		)
		return b.Platform(httpx.ContextCredential{}), b.Handler(), nil
	default:
		return nil, nil, fmt.Errorf("unknown platform mode %q", c.PlatformMode)
	}
}

// newBoard opens the configured board store. The returned *sql.DB is nil for
// the in-memory store.
func newBoard(ctx context.Context, c *config.Config) (board.Repository, *sql.DB, error) {
	switch c.BoardStore {
	case config.BoardMemory:
		return board.NewMemoryRepository(), nil, nil
	case config.BoardPostgres:
		db, err := openDB(c.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		if err := board.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return board.NewPostgresRepository(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown board store %q", c.BoardStore)
	}
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	p, platformHandler, err := newPlatform(c)
	if err != nil {
		return nil, err
	}
	repo, db, err := newBoard(ctx, c)
	if err != nil {
		return nil, err
	}
	sessions, err := auth.NewManager(c.SessionSecret, c.SessionTTL, c.PlatformMode == config.PlatformLive)
	if err != nil {
		return nil, err
	}

	handler := httpapi.New(httpapi.Deps{
		Platform: p,
		Board:    board.NewService(repo, p, logger),
		Attachments: blob.NewPresigner(blob.Config{
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			Expires:      c.AttachmentURLTTL,
		}),
		Sessions: sessions,
		Identity: httpapi.Identity{
			LoginURL:    c.IdentityLoginURL,
			LogoutURL:   c.IdentityLogoutURL,
			EmailHeader: c.IdentityEmailHeader,
			NameHeader:  c.IdentityNameHeader,
		},
		ProfileTimeout:  c.ProfileTimeout,
		Log:             logger,
		PlatformHandler: platformHandler,
		Gzip:            c.Gzip,
	})

	return &App{config: c, logger: logger, handler: handler, db: db}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// serve runs the HTTP server on l until ctx is done, then shuts it down.
func (app *App) serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{Handler: app.handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "HTTP server listening", "addr", l.Addr().String())
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "platform", app.config.PlatformMode, "board", app.config.BoardStore)
	app.initSignalHandler(cancelFunc)

	l, err := net.Listen("tcp", app.config.Addr)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.serve(ctx, l); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()
	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}
}
