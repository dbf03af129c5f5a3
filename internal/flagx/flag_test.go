package flagx

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("c", "", "")
	fs.String("config", "", "")
	fs.String("a", "", "")
	fs.Bool("g", false, "")
	return fs
}

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"separate value", []string{"-c", "conf.json", "-x", "1"}, []string{"-c", "conf.json"}},
		{"joined value", []string{"--config=alt.toml", "-x"}, []string{"--config=alt.toml"}},
		{"double dash with separate value", []string{"--config", "b.json"}, []string{"--config", "b.json"}},
		{"order kept", []string{"--config=first.json", "-c", "second.json"}, []string{"--config=first.json", "-c", "second.json"}},
		{"unknown flags and positionals dropped", []string{"-x", "1", "--y=2", "positional"}, []string{}},
		{"flag at end without value", []string{"-c"}, []string{"-c"}},
		{"next flag is not a value", []string{"-c", "-a", ":80"}, []string{"-c", "-a", ":80"}},
		{"value that looks like a flag after equals", []string{"--config=--weird.json"}, []string{"--config=--weird.json"}},
		{"bool flag does not eat the next argument", []string{"-g", "serve", "-a", ":80"}, []string{"-g", "-a", ":80"}},
		{"bool flag with explicit value", []string{"-g=false"}, []string{"-g=false"}},
		{"lone dashes ignored", []string{"-", "--"}, []string{}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, testFlagSet()))
		})
	}
}

func TestFilterArgs_ParsesCleanly(t *testing.T) {
	fs := testFlagSet()
	args := FilterArgs([]string{"shell", "-g", "extra", "--a=:9", "-unknown"}, fs)

	assert.NoError(t, fs.Parse(args))
	assert.Equal(t, ":9", fs.Lookup("a").Value.String())
	assert.Equal(t, "true", fs.Lookup("g").Value.String())
	assert.Empty(t, fs.Args())
}

func TestConfigFileFlag(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"bin", "-c", "/path/short.toml"}, "/path/short.toml"},
		{"long", []string{"bin", "-config", "/path/long.jsonc"}, "/path/long.jsonc"},
		{"double dash joined", []string{"bin", "--config=/path/x.json"}, "/path/x.json"},
		{"absent", []string{"bin", "-a", ":80"}, ""},
		{"last wins", []string{"bin", "-c", "/path/1.json", "-config", "/path/2.json"}, "/path/2.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			assert.Equal(t, tt.want, ConfigFileFlag())
		})
	}
}

func TestEnvOverride(t *testing.T) {
	v := "default"

	t.Setenv("TODOBOARD_TEST_VALUE", "")
	EnvOverride(&v, "TODOBOARD_TEST_VALUE")
	assert.Equal(t, "default", v)

	t.Setenv("TODOBOARD_TEST_VALUE", "from-env")
	EnvOverride(&v, "TODOBOARD_TEST_VALUE")
	assert.Equal(t, "from-env", v)

	EnvOverride(&v, "TODOBOARD_TEST_VALUE_UNSET")
	assert.Equal(t, "from-env", v)
}
