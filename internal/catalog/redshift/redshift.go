// Package redshift reads table structure from a live Redshift cluster
// over the Postgres wire protocol (lib/pq) using information_schema,
// which Redshift serves with the same shape as PostgreSQL.
package redshift

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/internal/catalog"
	"github.com/schemadrift/schemadrift/internal/normalize"
	"github.com/schemadrift/schemadrift/internal/schema"
)

// Reader implements catalog.Reader for one Redshift schema.
type Reader struct {
	db         *sql.DB
	schemaName string
}

// NewReader wraps an open connection. schemaName defaults to "public".
func NewReader(db *sql.DB, schemaName string) *Reader {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Reader{db: db, schemaName: schemaName}
}

func (r *Reader) Dialect() normalize.Dialect { return normalize.DialectRedshift }

// ListTables returns qualified names of base tables and views in the
// configured schema.
func (r *Reader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name
	`, r.schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, r.schemaName+"."+name)
	}
	return names, rows.Err()
}

// FetchTable returns the raw column and constraint rows for one
// qualified name. A failure here concerns this table only.
func (r *Reader) FetchTable(ctx context.Context, name string) (*catalog.TableData, error) {
	schemaName, tableName := splitQualified(name, r.schemaName)

	kind, err := r.objectKind(ctx, schemaName, tableName)
	if err != nil {
		return nil, err
	}

	data := &catalog.TableData{Name: schemaName + "." + tableName, Kind: kind}

	data.Columns, err = r.fetchColumns(ctx, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", name, err)
	}

	if kind == schema.KindTable {
		data.Constraints, err = r.fetchConstraints(ctx, schemaName, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get constraints for table %s: %w", name, err)
		}
	}

	return data, nil
}

func (r *Reader) objectKind(ctx context.Context, schemaName, tableName string) (schema.ObjectKind, error) {
	var tableType string
	err := r.db.QueryRowContext(ctx, `
		SELECT table_type
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2
	`, schemaName, tableName).Scan(&tableType)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("table %s.%s not found", schemaName, tableName)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s.%s: %w", schemaName, tableName, err)
	}
	if tableType == "VIEW" {
		return schema.KindView, nil
	}
	return schema.KindTable, nil
}

func (r *Reader) fetchColumns(ctx context.Context, schemaName, tableName string) ([]catalog.RawColumn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.numeric_precision,
			c.numeric_scale,
			c.character_maximum_length
		FROM information_schema.columns c
		WHERE c.table_schema = $1
		  AND c.table_name = $2
		ORDER BY c.ordinal_position
	`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []catalog.RawColumn
	for rows.Next() {
		var (
			col        catalog.RawColumn
			nullable   string
			defaultVal sql.NullString
			precision  sql.NullInt64
			scale      sql.NullInt64
			maxLength  sql.NullInt64
		)
		if err := rows.Scan(&col.Name, &col.RawType, &nullable, &defaultVal, &precision, &scale, &maxLength); err != nil {
			return nil, err
		}

		col.RawType = strings.TrimSpace(col.RawType)
		col.Nullable = nullable == "YES"
		if defaultVal.Valid {
			normalized := stripTypeCast(defaultVal.String)
			col.Default = &normalized
		}
		// Redshift reports precision/scale for every numeric type; they
		// only describe structure for decimals, which the normalizer
		// keeps and everything else it scrubs.
		col.Precision = nullableInt(precision)
		col.Scale = nullableInt(scale)
		col.MaxLength = nullableInt(maxLength)

		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// fetchConstraints groups key_column_usage rows by constraint and maps
// the SQL constraint types onto the canonical kinds.
func (r *Reader) fetchConstraints(ctx context.Context, schemaName, tableName string) ([]catalog.RawConstraint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			tc.constraint_name,
			tc.constraint_type,
			kcu.column_name,
			ccu.table_schema AS foreign_table_schema,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		LEFT JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
			AND tc.constraint_type = 'FOREIGN KEY'
		WHERE tc.table_schema = $1
			AND tc.table_name = $2
			AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE', 'FOREIGN KEY')
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var scanned []constraintRow
	for rows.Next() {
		var cr constraintRow
		if err := rows.Scan(&cr.name, &cr.conType, &cr.column, &cr.refSchema, &cr.refTable, &cr.refColumn); err != nil {
			return nil, err
		}
		scanned = append(scanned, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groupConstraintRows(scanned), nil
}

// constraintRow is one joined row from the constraint query.
type constraintRow struct {
	name      string
	conType   string
	column    string
	refSchema sql.NullString
	refTable  sql.NullString
	refColumn sql.NullString
}

// groupConstraintRows folds joined rows into one descriptor per
// constraint name. The key_column_usage x constraint_column_usage join
// is a cross product for multi-column foreign keys, so each column list
// is deduplicated in first-seen order; ORDER BY ordinal_position keeps
// that order the declared one.
func groupConstraintRows(rows []constraintRow) []catalog.RawConstraint {
	type group struct {
		kind     schema.ConstraintKind
		columns  []string
		seenCols map[string]bool
		refTable string
		refCols  []string
		seenRefs map[string]bool
	}
	groups := make(map[string]*group)
	var order []string

	for _, cr := range rows {
		g, ok := groups[cr.name]
		if !ok {
			g = &group{seenCols: make(map[string]bool), seenRefs: make(map[string]bool)}
			switch cr.conType {
			case "PRIMARY KEY":
				g.kind = schema.PrimaryKey
			case "UNIQUE":
				g.kind = schema.Unique
			case "FOREIGN KEY":
				g.kind = schema.ForeignKey
			}
			groups[cr.name] = g
			order = append(order, cr.name)
		}

		if !g.seenCols[cr.column] {
			g.seenCols[cr.column] = true
			g.columns = append(g.columns, cr.column)
		}
		if cr.refTable.Valid {
			g.refTable = cr.refTable.String
			if cr.refSchema.Valid {
				g.refTable = cr.refSchema.String + "." + cr.refTable.String
			}
		}
		if cr.refColumn.Valid && !g.seenRefs[cr.refColumn.String] {
			g.seenRefs[cr.refColumn.String] = true
			g.refCols = append(g.refCols, cr.refColumn.String)
		}
	}

	var constraints []catalog.RawConstraint
	for _, name := range order {
		g := groups[name]
		rc := catalog.RawConstraint{Kind: g.kind, Columns: g.columns}
		if g.kind == schema.ForeignKey && g.refTable != "" {
			rc.Ref = &schema.Reference{Table: g.refTable, Columns: g.refCols}
		}
		constraints = append(constraints, rc)
	}
	return constraints
}

// splitQualified separates schema.table, falling back to the reader's
// configured schema for bare names.
func splitQualified(name, fallback string) (string, string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return strings.ToLower(name[:i]), strings.ToLower(name[i+1:])
	}
	return fallback, strings.ToLower(name)
}

// stripTypeCast removes a trailing ::type cast Redshift attaches to
// stored defaults, e.g. 'active'::character varying -> 'active'.
func stripTypeCast(defaultVal string) string {
	if idx := strings.LastIndex(defaultVal, "::"); idx > 0 {
		before := defaultVal[:idx]
		if strings.Count(before, "'")%2 == 0 {
			return before
		}
	}
	return defaultVal
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
