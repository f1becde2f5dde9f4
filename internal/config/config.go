// Package config loads the optional per-project anchorscope.yaml file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file looked up at the scan root.
const FileName = "anchorscope.yaml"

// EnvDB overrides the findings database location.
const EnvDB = "ANCHORSCOPE_DB"

// Config holds per-project settings. All fields are optional.
type Config struct {
	// TrustedAccounts extends the well-known system account set.
	TrustedAccounts []string `yaml:"trusted_accounts"`
	// Ignore lists gitignore-style patterns excluded from scanning, in
	// addition to the project's .gitignore.
	Ignore []string `yaml:"ignore"`
	// DB overrides the findings database path (relative to the root).
	DB string `yaml:"db"`
}

// Load reads anchorscope.yaml from the given root. A missing file yields an
// empty config, not an error.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// DBPath resolves the findings database location.
// Priority: $ANCHORSCOPE_DB -> config db -> <root>/.anchorscope/db.sqlite
func (c *Config) DBPath(root string) string {
	if env := os.Getenv(EnvDB); env != "" {
		return env
	}
	if c.DB != "" {
		if filepath.IsAbs(c.DB) {
			return c.DB
		}
		return filepath.Join(root, c.DB)
	}
	return filepath.Join(root, ".anchorscope", "db.sqlite")
}
