package config

import (
	"time"

	"github.com/dmitrijs2005/todoboard/internal/flagx"
	"github.com/dmitrijs2005/todoboard/internal/timex"
)

// Config holds runtime settings for the todoboard CLI.
type Config struct {
	ServerURL      string
	PlatformURL    string
	SessionDB      string
	ProfileTimeout time.Duration
	RequestTimeout time.Duration

	// Identity headers sent by "login" when no auth proxy sits in front of
	// the server.
	EmailHeader string
	NameHeader  string
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.PlatformURL = ""
	c.SessionDB = "todoboard.db"
	c.ProfileTimeout = 5 * time.Second
	c.RequestTimeout = 15 * time.Second
	c.EmailHeader = "X-Auth-Request-Email"
	c.NameHeader = "X-Auth-Request-User"
}

// Platform returns the base URL of the external platform. A server in
// fixture mode serves the platform itself, so it defaults to ServerURL.
func (c *Config) Platform() string {
	if c.PlatformURL != "" {
		return c.PlatformURL
	}
	return c.ServerURL
}

// FileConfig is the on-disk shape of Config.
type FileConfig struct {
	ServerURL      string         `json:"server_url" toml:"server_url"`
	PlatformURL    string         `json:"platform_url" toml:"platform_url"`
	SessionDB      string         `json:"session_db" toml:"session_db"`
	ProfileTimeout timex.Duration `json:"profile_timeout" toml:"profile_timeout"`
	RequestTimeout timex.Duration `json:"request_timeout" toml:"request_timeout"`
	EmailHeader    string         `json:"identity_email_header" toml:"identity_email_header"`
	NameHeader     string         `json:"identity_name_header" toml:"identity_name_header"`
}

func set[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func (f *FileConfig) apply(c *Config) {
	set(&c.ServerURL, f.ServerURL)
	set(&c.PlatformURL, f.PlatformURL)
	set(&c.SessionDB, f.SessionDB)
	set(&c.ProfileTimeout, f.ProfileTimeout.Duration)
	set(&c.RequestTimeout, f.RequestTimeout.Duration)
	set(&c.EmailHeader, f.EmailHeader)
	set(&c.NameHeader, f.NameHeader)
}

func (c *Config) applyEnv() {
	flagx.EnvOverride(&c.ServerURL, "TODOBOARD_SERVER_URL")
	flagx.EnvOverride(&c.PlatformURL, "TODOBOARD_PLATFORM_URL")
	flagx.EnvOverride(&c.SessionDB, "TODOBOARD_SESSION_DB")
}

// Load builds a Config from defaults, the file at path (skipped when empty)
// and the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		f := &FileConfig{}
		if err := flagx.DecodeConfigFile(path, f); err != nil {
			return nil, err
		}
		f.apply(cfg)
	}
	cfg.applyEnv()
	return cfg, nil
}
