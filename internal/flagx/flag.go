package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

type boolFlag interface {
	IsBoolFlag() bool
}

// FilterArgs returns the arguments of args that set flags defined in fs,
// dropping everything else. Both -name and --name are recognized, with the
// value either joined by '=' or in the next argument. Boolean flags never
// take the next argument as their value. Several binaries share os.Args with
// other parsers this way, each picking out only its own flags.
func FilterArgs(args []string, fs *flag.FlagSet) []string {
	kept := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) < 2 || arg[0] != '-' {
			continue
		}
		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		kept = append(kept, arg)
		if hasValue {
			continue
		}
		if b, ok := f.Value.(boolFlag); ok && b.IsBoolFlag() {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			kept = append(kept, args[i+1])
			i++
		}
	}
	return kept
}

// ConfigFileFlag extracts the config file path given via -c or -config.
// Other arguments are ignored so callers can parse their own flags later.
// It returns "" when neither flag is present.
func ConfigFileFlag() string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "Path to config file (.json, .jsonc or .toml)")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(os.Args[1:], fs))

	return path
}

// EnvOverride replaces *dst with the value of the environment variable key
// when that variable is set and non-empty.
func EnvOverride(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
