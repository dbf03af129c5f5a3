package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/todoboard/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-l string   log level (debug|info|warn|error)
//	-m string   platform mode (live|fixture)
//	-n string   platform base URL
//	-k string   platform server key
//	-b string   board store (memory|postgres)
//	-d string   PostgreSQL DSN
//	-s string   session secret
//	-t int      session lifetime, minutes
//	-e string   S3 base endpoint
//	-g bool     gzip responses
//
// Only the flags above are picked out of os.Args via flagx.FilterArgs.
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.PlatformMode, "m", config.PlatformMode, "platform mode: live or fixture")
	fs.StringVar(&config.PlatformURL, "n", config.PlatformURL, "platform base URL")
	fs.StringVar(&config.PlatformServerKey, "k", config.PlatformServerKey, "platform server key")
	fs.StringVar(&config.BoardStore, "b", config.BoardStore, "board store: memory or postgres")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret")
	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session lifetime (in minutes)")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.BoolVar(&config.Gzip, "g", config.Gzip, "gzip responses")

	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], fs)); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
}
