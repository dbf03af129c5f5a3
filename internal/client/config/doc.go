// Package config loads runtime configuration for the todoboard CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file given with --config (.json, .jsonc or .toml).
//  3. TODOBOARD_* environment variables.
//  4. Command-line flags, applied by the cli package on top of the result.
//
// # File schema
//
// Durations are strings like "5s":
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "platform_url": "",          // empty: same as server_url
//	  "session_db": "todoboard.db",
//	  "profile_timeout": "5s",
//	  "request_timeout": "15s"
//	}
package config
