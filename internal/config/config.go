// Package config loads the tracker configuration file.
//
// The canonical format is JSON ({"repos": ["owner/name", ...]}); a TOML
// file with the same fields is accepted as well.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/naka-gawa/release-stats/internal/domain"
)

// Config is the top-level configuration.
type Config struct {
	Repos []string `json:"repos" toml:"repos"`

	path string
}

// Load reads and validates the configuration file at path. The format is
// chosen by file extension: ".toml" is TOML, everything else is JSON.
func Load(path string) (*Config, error) {
	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.path = path
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Repos) == 0 {
		return errors.New("at least one repository must be configured")
	}
	for _, repo := range c.Repos {
		if _, err := domain.ParseRepository(repo); err != nil {
			return err
		}
	}
	return nil
}

// DataDir returns the directory holding the per-repository history files:
// a "data" directory sibling to the configuration file.
func (c *Config) DataDir() string {
	return filepath.Join(filepath.Dir(c.path), "data")
}
