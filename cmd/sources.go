package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schemadrift/schemadrift/internal/catalog/iceberg"
	"github.com/schemadrift/schemadrift/internal/catalog/redshift"
	sqlitecatalog "github.com/schemadrift/schemadrift/internal/catalog/sqlite"
	"github.com/schemadrift/schemadrift/internal/config"
	"github.com/schemadrift/schemadrift/internal/normalize"
	"github.com/schemadrift/schemadrift/internal/runner"
)

// openSource turns a source argument into a runner.Source. The argument
// is either a name from schemadrift.toml or an inline "kind:location"
// spec like ddl:./sql or redshift:postgres://host/db.
func openSource(cfg *config.Config, arg string) (runner.Source, func(), error) {
	resolved, err := resolveArg(cfg, arg)
	if err != nil {
		return nil, nil, err
	}

	noop := func() {}
	switch resolved.Kind {
	case "ddl":
		text, err := loadDDLText(resolved.Path)
		if err != nil {
			return nil, nil, err
		}
		dialect := normalize.DialectSource
		if resolved.Dialect != "" {
			dialect, err = normalize.ParseDialect(resolved.Dialect)
			if err != nil {
				return nil, nil, err
			}
		}
		return &runner.DDLSource{SourceName: resolved.Name, SQL: text, Dialect: dialect}, noop, nil

	case "redshift":
		if resolved.URL == "" {
			return nil, nil, fmt.Errorf("source %q has no DSN; set it in .env.%s or the config", resolved.Name, resolved.Name)
		}
		db, err := sql.Open("postgres", resolved.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", resolved.Name, err)
		}
		src := &runner.CatalogSource{
			SourceName: resolved.Name,
			Reader:     redshift.NewReader(db, resolved.Schema),
		}
		return src, func() { _ = db.Close() }, nil

	case "sqlite":
		driver := "sqlite"
		if strings.HasPrefix(resolved.Path, "libsql://") {
			driver = "libsql"
		}
		db, err := sql.Open(driver, resolved.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", resolved.Name, err)
		}
		src := &runner.CatalogSource{
			SourceName: resolved.Name,
			Reader:     sqlitecatalog.NewReader(db),
		}
		return src, func() { _ = db.Close() }, nil

	case "iceberg":
		rd, err := iceberg.Load(resolved.Path)
		if err != nil {
			return nil, nil, err
		}
		return &runner.CatalogSource{SourceName: resolved.Name, Reader: rd}, noop, nil
	}

	return nil, nil, fmt.Errorf("source %q has unsupported kind %q (expected ddl, redshift, sqlite or iceberg)", resolved.Name, resolved.Kind)
}

// resolveArg handles both config names and inline kind:location specs.
func resolveArg(cfg *config.Config, arg string) (*config.ResolvedSource, error) {
	if kind, location, ok := strings.Cut(arg, ":"); ok && isSourceKind(kind) {
		resolved := &config.ResolvedSource{Name: kind, Kind: kind}
		if kind == "redshift" {
			resolved.URL = location
		} else {
			resolved.Path = location
		}
		return resolved, nil
	}
	return config.ResolveSource(cfg, arg)
}

func isSourceKind(s string) bool {
	switch s {
	case "ddl", "redshift", "sqlite", "iceberg":
		return true
	}
	return false
}

// loadDDLText reads one .sql file, or every .sql file in a directory
// (shallow, sorted by name) concatenated in order.
func loadDDLText(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to read DDL path %s: %w", path, err)
	}

	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read SQL file %s: %w", path, err)
		}
		return string(data), nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("failed to read DDL directory %s: %w", path, err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".sql") {
			sqlFiles = append(sqlFiles, filepath.Join(path, entry.Name()))
		}
	}
	if len(sqlFiles) == 0 {
		return "", fmt.Errorf("no .sql files found in directory %s", path)
	}
	sort.Strings(sqlFiles)

	var builder strings.Builder
	for _, file := range sqlFiles {
		data, readErr := os.ReadFile(file)
		if readErr != nil {
			return "", fmt.Errorf("failed to read SQL file %s: %w", file, readErr)
		}
		builder.Write(data)
		if len(data) == 0 || data[len(data)-1] != '\n' {
			builder.WriteByte('\n')
		}
		builder.WriteByte('\n')
	}
	return builder.String(), nil
}
