package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// ResolvedSource is a source with its credentials filled in from the
// environment.
type ResolvedSource struct {
	Name       string
	Kind       string
	Path       string
	URL        string
	Schema     string
	Dialect    string
	DotenvPath string
	FromDotenv bool
}

// ResolveSource merges a named source's config with its .env.<name>
// file. Dotenv values win for the DSN so credentials stay out of the
// checked-in config; process environment is the last fallback.
func ResolveSource(cfg *Config, name string) (*ResolvedSource, error) {
	src, err := cfg.Source(name)
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedSource{
		Name:    name,
		Kind:    src.Kind,
		Path:    src.Path,
		URL:     src.URL,
		Schema:  src.Schema,
		Dialect: src.Dialect,
	}

	baseDir := cfg.ConfigDir()
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}
	resolved.DotenvPath = filepath.Join(baseDir, ".env."+name)

	if info, err := os.Stat(resolved.DotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", resolved.DotenvPath, err)
		}
		resolved.FromDotenv = true

		if v := values["DATABASE_URL"]; v != "" {
			resolved.URL = v
		}
		if resolved.URL == "" {
			if v := values["REDSHIFT_URL"]; v != "" {
				resolved.URL = v
			}
		}
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to access %s: %w", resolved.DotenvPath, err)
	}

	if resolved.URL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			resolved.URL = v
		}
	}

	return resolved, nil
}
