package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, "todoboard.db", c.SessionDB)
	assert.Equal(t, 5*time.Second, c.ProfileTimeout)
	assert.Equal(t, c.ServerURL, c.Platform())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}

func TestLoad_TOMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_url = "http://board.local"
platform_url = "http://nakama.local:7350"
profile_timeout = "2s"
`), 0o600))
	t.Setenv("TODOBOARD_SESSION_DB", "/tmp/other.db")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "http://board.local", cfg.ServerURL)
	assert.Equal(t, "http://nakama.local:7350", cfg.Platform())
	assert.Equal(t, 2*time.Second, cfg.ProfileTimeout)
	assert.Equal(t, "/tmp/other.db", cfg.SessionDB)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}

func TestLoad_JSONCWithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{
  // local dev
  "server_url": "http://localhost:9000",
  "request_timeout": "30s",
}`), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
