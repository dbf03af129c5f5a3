package config

import (
	"github.com/dmitrijs2005/todoboard/internal/flagx"
	"github.com/dmitrijs2005/todoboard/internal/timex"
)

// FileConfig is the on-disk shape of the server configuration. Durations are
// written as "1m30s"; zero values leave the current setting alone.
type FileConfig struct {
	Addr                string         `json:"addr" toml:"addr"`
	LogLevel            string         `json:"log_level" toml:"log_level"`
	Gzip                *bool          `json:"gzip" toml:"gzip"`
	PlatformMode        string         `json:"platform_mode" toml:"platform_mode"`
	PlatformURL         string         `json:"platform_url" toml:"platform_url"`
	PlatformServerKey   string         `json:"platform_server_key" toml:"platform_server_key"`
	ConsoleUser         string         `json:"console_user" toml:"console_user"`
	ConsolePassword     string         `json:"console_password" toml:"console_password"`
	BoardStore          string         `json:"board_store" toml:"board_store"`
	DatabaseDSN         string         `json:"database_dsn" toml:"database_dsn"`
	SessionSecret       string         `json:"session_secret" toml:"session_secret"`
	SessionTTL          timex.Duration `json:"session_ttl" toml:"session_ttl"`
	IdentityLoginURL    string         `json:"identity_login_url" toml:"identity_login_url"`
	IdentityLogoutURL   string         `json:"identity_logout_url" toml:"identity_logout_url"`
	IdentityEmailHeader string         `json:"identity_email_header" toml:"identity_email_header"`
	IdentityNameHeader  string         `json:"identity_name_header" toml:"identity_name_header"`
	ProfileTimeout      timex.Duration `json:"profile_timeout" toml:"profile_timeout"`
	S3AccessKey         string         `json:"s3_access_key" toml:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key" toml:"s3_secret_key"`
	S3Bucket            string         `json:"s3_bucket" toml:"s3_bucket"`
	S3Region            string         `json:"s3_region" toml:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint" toml:"s3_base_endpoint"`
	AttachmentURLTTL    timex.Duration `json:"attachment_url_ttl" toml:"attachment_url_ttl"`
}

func set[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func (f *FileConfig) apply(c *Config) {
	set(&c.Addr, f.Addr)
	set(&c.LogLevel, f.LogLevel)
	if f.Gzip != nil {
		c.Gzip = *f.Gzip
	}
	set(&c.PlatformMode, f.PlatformMode)
	set(&c.PlatformURL, f.PlatformURL)
	set(&c.PlatformServerKey, f.PlatformServerKey)
	set(&c.ConsoleUser, f.ConsoleUser)
	set(&c.ConsolePassword, f.ConsolePassword)
	set(&c.BoardStore, f.BoardStore)
	set(&c.DatabaseDSN, f.DatabaseDSN)
	set(&c.SessionSecret, f.SessionSecret)
	set(&c.SessionTTL, f.SessionTTL.Duration)
	set(&c.IdentityLoginURL, f.IdentityLoginURL)
	set(&c.IdentityLogoutURL, f.IdentityLogoutURL)
	set(&c.IdentityEmailHeader, f.IdentityEmailHeader)
	set(&c.IdentityNameHeader, f.IdentityNameHeader)
	set(&c.ProfileTimeout, f.ProfileTimeout.Duration)
	set(&c.S3AccessKey, f.S3AccessKey)
	set(&c.S3SecretKey, f.S3SecretKey)
	set(&c.S3Bucket, f.S3Bucket)
	set(&c.S3Region, f.S3Region)
	set(&c.S3BaseEndpoint, f.S3BaseEndpoint)
	set(&c.AttachmentURLTTL, f.AttachmentURLTTL.Duration)
}

// parseFile overlays the file named by -c/-config, if any. An unreadable or
// invalid file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	f := &FileConfig{}
	if err := flagx.DecodeConfigFile(path, f); err != nil {
		panic(err)
	}
	f.apply(config)
}
