package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"grimm.is/rime/internal/brand"
)

// LoadFile loads a config file (HCL or JSON). Fields the file does not
// name keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".hcl":
		if err := hclsimple.Decode(path, data, nil, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("JSON parse error: %w", err)
		}
	default:
		// Try HCL first, fall back to JSON. hclsimple picks its parser
		// off the file suffix, hence the synthetic name.
		if hclErr := hclsimple.Decode(path+".hcl", data, nil, cfg); hclErr != nil {
			if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
				return nil, fmt.Errorf("failed to decode config: %w", hclErr)
			}
		}
	}
	return cfg, nil
}

// LoadDefault loads the config from the default path. A missing file is
// not an error; the built-in defaults apply.
func LoadDefault() (*Config, error) {
	path := brand.DefaultConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFile(path)
}
