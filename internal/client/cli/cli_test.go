package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/blob"
	"github.com/dmitrijs2005/todoboard/internal/board"
	"github.com/dmitrijs2005/todoboard/internal/client/config"
	"github.com/dmitrijs2005/todoboard/internal/client/session"
	"github.com/dmitrijs2005/todoboard/internal/httpx"
	"github.com/dmitrijs2005/todoboard/internal/logging"
	"github.com/dmitrijs2005/todoboard/internal/platform/fixture"
	"github.com/dmitrijs2005/todoboard/internal/server/auth"
	"github.com/dmitrijs2005/todoboard/internal/server/httpapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	url string
	db  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	setTerminal(t, false)
	for _, k := range []string{"TODOBOARD_SERVER_URL", "TODOBOARD_PLATFORM_URL", "TODOBOARD_SESSION_DB"} {
		t.Setenv(k, "")
	}

	b := fixture.NewBackend()
	p := b.Platform(httpx.ContextCredential{})
	sessions, err := auth.NewManager("secret", time.Hour, false)
	require.NoError(t, err)

	srv := httptest.NewServer(httpapi.New(httpapi.Deps{
		Platform:    p,
		Board:       board.NewService(board.NewMemoryRepository(), p, logging.Discard()),
		Attachments: blob.NewPresigner(blob.Config{}),
		Sessions:    sessions,
		Identity: httpapi.Identity{
			EmailHeader: "X-Auth-Request-Email",
			NameHeader:  "X-Auth-Request-User",
		},
		Log:             logging.Discard(),
		PlatformHandler: b.Handler(),
	}))
	t.Cleanup(srv.Close)

	return &harness{url: srv.URL, db: filepath.Join(t.TempDir(), "session.db")}
}

func (h *harness) config() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.ServerURL = h.url
	c.SessionDB = h.db
	return c
}

// run executes one CLI invocation against the harness server.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--server", h.url, "--session-db", h.db}, args...)
	code := Execute(context.Background(), full, strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), code
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := h.run(t, "", args...)
	require.Equal(t, 0, code, "%v: %s", args, errOut)
	return out
}

var idPattern = regexp.MustCompile(`\(?([0-9a-f-]{6,})\)?\s*$`)

// lastID returns the id printed at the end of a "Created ..." or "Added ..." line.
func lastID(t *testing.T, out string) string {
	t.Helper()
	m := idPattern.FindStringSubmatch(strings.TrimSpace(out))
	require.NotNil(t, m, out)
	return m[1]
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "login", "--email", "alice@example.com", "--name", "alice")
	assert.Contains(t, out, "Logged in as alice")

	out = h.mustRun(t, "whoami")
	assert.True(t, strings.HasPrefix(out, "alice ("), out)

	out = h.mustRun(t, "refresh")
	assert.Contains(t, out, "Session refreshed")

	out = h.mustRun(t, "logout")
	assert.Contains(t, out, "Logged out")

	_, errOut, code := h.run(t, "", "whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error: no credential")
}

func TestCLI_LoginRequiresEmail(t *testing.T) {
	h := newHarness(t)

	_, errOut, code := h.run(t, "", "login")

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "email is required")
}

func TestCLI_RejectedSessionIsCleared(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	s, err := session.Open(ctx, h.db)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, session.Credentials{AccessToken: "bogus", UserID: "u1", Username: "alice"}))
	require.NoError(t, s.Close())

	_, _, code := h.run(t, "", "whoami")
	assert.Equal(t, 1, code)

	_, errOut, code := h.run(t, "", "whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no credential")
}

func TestCLI_TitlesAndTodos(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-e", "alice@example.com", "-n", "alice")

	out := h.mustRun(t, "title", "add", "groceries")
	assert.Contains(t, out, "Created list groceries")

	_, errOut, code := h.run(t, "", "title", "add", "groceries")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)

	id := lastID(t, h.mustRun(t, "todo", "add", "groceries", "milk"))
	rpcID := lastID(t, h.mustRun(t, "todo", "add", "--rpc", "groceries", "bread"))

	h.mustRun(t, "todo", "done", "groceries", id)
	out = h.mustRun(t, "todo", "ls", "groceries")
	assert.Contains(t, out, "[x] "+id+"\tmilk")
	assert.Contains(t, out, "[ ] "+rpcID+"\tbread")

	out = h.mustRun(t, "todo", "stats", "groceries")
	assert.Contains(t, out, "total: 2, completed: 1, remaining: 1")

	h.mustRun(t, "todo", "undo", "groceries", id)
	h.mustRun(t, "todo", "edit", "groceries", id, "oat", "milk")
	out = h.mustRun(t, "todo", "ls", "groceries")
	assert.Contains(t, out, "[ ] "+id+"\toat milk")

	h.mustRun(t, "todo", "rm", "--rpc", "groceries", rpcID)
	h.mustRun(t, "todo", "rm", "groceries", id)
	out = h.mustRun(t, "todo", "ls", "groceries")
	assert.Contains(t, out, "No items")

	out = h.mustRun(t, "title", "rename", "groceries", "food")
	assert.Contains(t, out, "Renamed list groceries to food")
	out = h.mustRun(t, "title", "ls")
	assert.Contains(t, out, "\tfood")

	h.mustRun(t, "title", "rm", "food")
	out = h.mustRun(t, "title", "ls")
	assert.Contains(t, out, "No lists")

	_, errOut, code = h.run(t, "", "todo", "ls", "missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")
}

func TestCLI_GroupsPostsComments(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-e", "alice@example.com", "-n", "alice")

	gid := lastID(t, h.mustRun(t, "group", "create", "team", "--description", "our team"))

	out := h.mustRun(t, "group", "ls")
	assert.Contains(t, out, "team")
	assert.Contains(t, out, " *")

	out = h.mustRun(t, "group", "mine")
	assert.Contains(t, out, gid+"\tteam\tsuperadmin")

	out = h.mustRun(t, "group", "info", gid)
	assert.Contains(t, out, "description: our team")

	out = h.mustRun(t, "group", "members", gid, "--state", "superadmin")
	assert.Contains(t, out, "alice")

	pid := lastID(t, h.mustRun(t, "post", "add", gid, "-t", "Hello", "-m", "World"))
	out = h.mustRun(t, "post", "ls", gid)
	assert.Contains(t, out, "Hello")

	h.mustRun(t, "comment", "add", pid, "nice", "post")
	out = h.mustRun(t, "comment", "ls", pid)
	assert.Contains(t, out, "alice: nice post")

	out = h.mustRun(t, "post", "show", pid)
	assert.Contains(t, out, "1 comments")
	assert.Contains(t, out, "World")

	h.mustRun(t, "post", "edit", pid, "-t", "Hi")
	out = h.mustRun(t, "post", "show", pid)
	assert.Contains(t, out, "Hi")

	_, errOut, code := h.run(t, "", "post", "attachment", pid)
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)

	h.mustRun(t, "post", "rm", pid)
	out = h.mustRun(t, "post", "ls", gid)
	assert.Contains(t, out, "No posts")

	// a second account joins the open group
	h2 := &harness{url: h.url, db: filepath.Join(t.TempDir(), "bob.db")}
	h2.mustRun(t, "login", "-e", "bob@example.com", "-n", "bob")
	_, _, code = h2.run(t, "", "post", "ls", gid)
	assert.Equal(t, 1, code)
	h2.mustRun(t, "group", "join", gid)
	out = h2.mustRun(t, "group", "mine")
	assert.Contains(t, out, gid+"\tteam\tmember")
}

func TestCLI_RPCAndRoles(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-e", "alice@example.com", "-n", "alice")

	h.mustRun(t, "role", "create", "editor", "--description", "edits", "--permission", "read")
	h.mustRun(t, "role", "grant", "editor", "write")

	out := h.mustRun(t, "role", "ls")
	assert.Contains(t, out, "editor\tread,write\tedits")

	out = h.mustRun(t, "rpc", "rbac_list_roles")
	assert.Contains(t, out, `"roles"`)

	_, errOut, code := h.run(t, "", "rpc", "rbac_list_roles", "{not json")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not valid JSON")

	h.mustRun(t, "role", "revoke", "editor", "write")
	out = h.mustRun(t, "role", "ls")
	assert.Contains(t, out, "editor\tread\tedits")

	h.mustRun(t, "role", "rm", "editor")
	out = h.mustRun(t, "role", "ls")
	assert.Contains(t, out, "No roles")
}

func TestApp_WhoamiFallsBackOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	c := &config.Config{}
	c.LoadDefaults()
	c.ServerURL = srv.URL
	c.SessionDB = filepath.Join(t.TempDir(), "session.db")
	c.ProfileTimeout = 50 * time.Millisecond

	var out bytes.Buffer
	a, err := NewApp(ctx, c, logging.Discard(), strings.NewReader(""), &out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.sessions.Save(ctx, session.Credentials{AccessToken: "t", UserID: "u1", Username: "alice"}))

	start := time.Now()
	require.NoError(t, a.Whoami(ctx))

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, out.String(), "alice (u1) [profile request timed out]")
}

func TestApp_UploadAttachment(t *testing.T) {
	var stored []byte
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("POST /api/groups/g1/attachments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"key":"groups/g1/k/notes.txt","url":"` + srv.URL + `/bucket/k","method":"PUT"}`))
	})
	mux.HandleFunc("PUT /bucket/k", func(w http.ResponseWriter, r *http.Request) {
		stored, _ = io.ReadAll(r.Body)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	c := &config.Config{}
	c.LoadDefaults()
	c.ServerURL = srv.URL
	c.SessionDB = filepath.Join(t.TempDir(), "session.db")

	a, err := NewApp(ctx, c, logging.Discard(), strings.NewReader(""), io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.sessions.Save(ctx, session.Credentials{AccessToken: "t", UserID: "u1", Username: "alice"}))

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("remember the milk"), 0o600))

	key, err := a.upload(ctx, "g1", path)

	require.NoError(t, err)
	assert.Equal(t, "groups/g1/k/notes.txt", key)
	assert.Equal(t, "remember the milk", string(stored))
}
