// Package config loads schemadrift.toml and resolves named sources
// into something the runner can open: a DDL tree, a warehouse DSN, or
// a snapshot path. Credentials come from .env.<source> files next to
// the config, never from the config itself.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// SourceConfig describes one named comparison side in schemadrift.toml.
type SourceConfig struct {
	// Kind is one of ddl, redshift, sqlite, iceberg.
	Kind string `toml:"kind"`
	// Path points at a DDL file/directory (ddl), a database file
	// (sqlite) or a snapshot document (iceberg).
	Path string `toml:"path"`
	// URL is the warehouse DSN; usually left empty and resolved from
	// the source's dotenv file instead.
	URL string `toml:"url"`
	// Schema restricts catalog sources to one schema (default public).
	Schema string `toml:"schema"`
	// Dialect overrides the type-synonym table for ddl sources.
	Dialect string `toml:"dialect"`
}

type Config struct {
	DefaultLeft  string                  `toml:"default_left"`
	DefaultRight string                  `toml:"default_right"`
	Sources      map[string]SourceConfig `toml:"sources"`

	ConfigFilePath string `toml:"-"`
}

// ConfigDir returns the directory holding the loaded config file, or
// "" when no file was found.
func (c *Config) ConfigDir() string {
	if c.ConfigFilePath == "" {
		return ""
	}
	return filepath.Dir(c.ConfigFilePath)
}

// Source returns the named source definition.
func (c *Config) Source(name string) (SourceConfig, error) {
	src, ok := c.Sources[name]
	if !ok {
		return SourceConfig{}, fmt.Errorf("source %q is not defined in %s", name, c.describeOrigin())
	}
	return src, nil
}

func (c *Config) describeOrigin() string {
	if c.ConfigFilePath != "" {
		return c.ConfigFilePath
	}
	return "schemadrift.toml (no config file found)"
}

// LoadConfig searches upward from the working directory for
// schemadrift.toml, stopping at a project root marker. A missing file
// is not an error; flags can define sources inline.
func LoadConfig() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	dir := startDir
	for {
		configPath := filepath.Join(dir, "schemadrift.toml")
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFile(configPath)
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return &Config{}, nil
}

func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	config.ConfigFilePath = path
	return &config, nil
}

// isProjectRoot checks if the directory is a project root based on common markers
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		return true
	}
	return false
}
