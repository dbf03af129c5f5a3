package flagx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
)

// DecodeConfigFile reads path into v. The format follows the extension:
// .toml is TOML, .jsonc is JSON with comments and trailing commas, anything
// else is plain JSON.
func DecodeConfigFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), v); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), v); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return nil
}
