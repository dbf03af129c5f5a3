package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("toml overlays only set fields", func(t *testing.T) {
		path := writeTemp(t, "server.toml", `
addr = ":9999"
platform_mode = "live"
platform_url = "http://nakama:7350"
board_store = "postgres"
session_ttl = "2h"
gzip = false
s3_bucket = "attachments"
`)
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, ":9999", cfg.Addr)
		assert.Equal(t, PlatformLive, cfg.PlatformMode)
		assert.Equal(t, "http://nakama:7350", cfg.PlatformURL)
		assert.Equal(t, BoardPostgres, cfg.BoardStore)
		assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
		assert.False(t, cfg.Gzip)
		assert.Equal(t, "attachments", cfg.S3Bucket)
		assert.Equal(t, "info", cfg.LogLevel, "unset fields keep defaults")
		assert.Equal(t, 5*time.Second, cfg.ProfileTimeout)
	})

	t.Run("jsonc", func(t *testing.T) {
		path := writeTemp(t, "server.jsonc", `{
  // local dev
  "log_level": "debug",
  "profile_timeout": "2s",
}`)
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 2*time.Second, cfg.ProfileTimeout)
		assert.True(t, cfg.Gzip)
	})

	t.Run("no file leaves config alone", func(t *testing.T) {
		os.Args = []string{"testbin"}
		cfg := &Config{Addr: "keep"}
		parseFile(cfg)
		assert.Equal(t, &Config{Addr: "keep"}, cfg)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "nope.json")}
		require.Panics(t, func() { parseFile(&Config{}) })
	})
}
