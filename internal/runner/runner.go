// Package runner orchestrates one comparison: it loads both sides with
// a bounded fan-out (one unit of work per table), aggregates results at
// a single point after all workers finish, and hands the diff engine an
// immutable pair of collections. A failed table blocks only itself.
package runner

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/schemadrift/schemadrift/internal/catalog"
	"github.com/schemadrift/schemadrift/internal/diff"
	"github.com/schemadrift/schemadrift/internal/normalize"
	"github.com/schemadrift/schemadrift/internal/parser"
	"github.com/schemadrift/schemadrift/internal/reader"
	"github.com/schemadrift/schemadrift/internal/schema"
)

// Source is one side of a comparison. Load returns every definition it
// could produce plus the per-table failures; it never fails as a whole
// except on context cancellation.
type Source interface {
	Name() string
	Load(ctx context.Context) (*schema.Collection, []schema.TableError, error)
}

// DDLSource parses definitions out of raw SQL text.
type DDLSource struct {
	SourceName string
	SQL        string
	Dialect    normalize.Dialect
}

func (s *DDLSource) Name() string { return s.SourceName }

// Load splits the text into statements and parses them concurrently.
// Split errors and parse errors land in the error list; every statement
// that parses contributes a definition.
func (s *DDLSource) Load(ctx context.Context) (*schema.Collection, []schema.TableError, error) {
	statements, splitErrs := reader.Split(s.SQL)

	var tableErrs []schema.TableError
	for _, err := range splitErrs {
		tableErrs = append(tableErrs, schema.TableError{Table: "", Err: err.Error()})
	}

	defs := make([]*schema.TableDefinition, len(statements))
	errs := make([]error, len(statements))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultWorkers())
	for i, stmt := range statements {
		i, stmt := i, stmt
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defs[i], errs[i] = parser.Parse(stmt, s.Dialect)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	coll := &schema.Collection{Name: s.SourceName}
	for i := range statements {
		if errs[i] != nil {
			tableErrs = append(tableErrs, schema.TableError{
				Table: parser.ObjectName(statements[i]),
				Err:   errs[i].Error(),
			})
			continue
		}
		// Qualified names are unique within a run; a re-declaration is a
		// per-table failure, like a duplicate column inside a statement.
		if coll.Table(defs[i].Name) != nil {
			tableErrs = append(tableErrs, schema.TableError{
				Table: defs[i].Name,
				Err:   fmt.Sprintf("table %s is declared more than once", defs[i].Name),
			})
			continue
		}
		coll.Add(*defs[i])
	}
	return coll, tableErrs, nil
}

// CatalogSource fetches definitions from a live catalog adapter.
type CatalogSource struct {
	SourceName string
	Reader     catalog.Reader

	// Tables restricts the fetch to the given qualified names; empty
	// means everything the catalog lists.
	Tables []string
}

func (s *CatalogSource) Name() string { return s.SourceName }

// Load fetches every table concurrently through the adapter. A fetch
// failure for one table is recorded and the rest proceed.
func (s *CatalogSource) Load(ctx context.Context) (*schema.Collection, []schema.TableError, error) {
	names := s.Tables
	if len(names) == 0 {
		listed, err := s.Reader.ListTables(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list tables for %s: %w", s.SourceName, err)
		}
		names = listed
	}

	dialect := s.Reader.Dialect()
	defs := make([]*schema.TableDefinition, len(names))
	errs := make([]error, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultWorkers())
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := s.Reader.FetchTable(gctx, name)
			if err != nil {
				errs[i] = err
				return nil
			}
			defs[i] = catalog.BuildDefinition(data, dialect)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	coll := &schema.Collection{Name: s.SourceName}
	var tableErrs []schema.TableError
	for i, name := range names {
		if errs[i] != nil {
			tableErrs = append(tableErrs, schema.TableError{Table: normalize.Name(name), Err: errs[i].Error()})
			continue
		}
		if coll.Table(defs[i].Name) != nil {
			tableErrs = append(tableErrs, schema.TableError{
				Table: defs[i].Name,
				Err:   fmt.Sprintf("table %s is listed more than once", defs[i].Name),
			})
			continue
		}
		coll.Add(*defs[i])
	}
	return coll, tableErrs, nil
}

// Compare loads both sides, excludes any table that failed on either
// side from structural diffing, and assembles the run.
func Compare(ctx context.Context, left, right Source) (*schema.ComparisonRun, error) {
	var (
		leftColl, rightColl *schema.Collection
		leftErrs, rightErrs []schema.TableError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leftColl, leftErrs, err = left.Load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rightColl, rightErrs, err = right.Load(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	run := &schema.ComparisonRun{LeftName: left.Name(), RightName: right.Name()}
	run.Errors = append(run.Errors, leftErrs...)
	run.Errors = append(run.Errors, rightErrs...)

	// A table that failed on either side is excluded from diffing on
	// both; its failure is already in the error list.
	failed := make(map[string]bool, len(run.Errors))
	for _, te := range run.Errors {
		if te.Table != "" {
			failed[te.Table] = true
		}
	}

	entries, _, _ := diff.All(withoutFailed(leftColl, failed), withoutFailed(rightColl, failed))
	run.Entries = entries
	return run, nil
}

func withoutFailed(coll *schema.Collection, failed map[string]bool) *schema.Collection {
	if len(failed) == 0 {
		return coll
	}
	out := &schema.Collection{Name: coll.Name}
	for _, def := range coll.Tables {
		if !failed[def.Name] {
			out.Add(def)
		}
	}
	return out
}

func defaultWorkers() int {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		n = 2
	}
	return n
}
