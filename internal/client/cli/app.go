package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/todoboard/internal/client/api"
	"github.com/dmitrijs2005/todoboard/internal/client/config"
	"github.com/dmitrijs2005/todoboard/internal/client/session"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/platform"
	"github.com/dmitrijs2005/todoboard/internal/platform/nakama"
	"github.com/dmitrijs2005/todoboard/internal/store"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	out      io.Writer
	reader   *bufio.Reader
	sessions *session.Store
	api      *api.Client
	platform platform.Platform
	titles   *store.TitleStore
	todos    *store.TodoStore
	files    *http.Client
}

// NewApp opens the session database and builds the server and platform
// clients. Both clients read the bearer token from the session store, and a
// 401 from either clears it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	sessions, err := session.Open(ctx, c.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("error initializing session store: %w", err)
	}

	onUnauthorized := httpx.WithUnauthorizedHook(func(ctx context.Context) {
		logger.Warn(ctx, "session rejected by server, clearing it")
		if err := sessions.Clear(ctx); err != nil {
			logger.Error(ctx, "clear session", "error", err)
		}
	})

	p := nakama.New(nakama.Config{BaseURL: c.Platform(), Timeout: c.RequestTimeout}, sessions, onUnauthorized)

	return &App{
		config:   c,
		logger:   logger,
		out:      out,
		reader:   bufio.NewReader(in),
		sessions: sessions,
		api:      api.New(c.ServerURL, sessions, httpx.WithTimeout(c.RequestTimeout), onUnauthorized),
		platform: p,
		titles:   store.NewTitleStore(p, logger),
		todos:    store.NewTodoStore(p, logger),
		files:    &http.Client{Timeout: c.RequestTimeout},
	}, nil
}

func (a *App) Close() error {
	return a.sessions.Close()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
