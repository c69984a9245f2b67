// Package sqlite reads table structure from a SQLite database via
// PRAGMA queries. It exists for local fixtures and tests: a checked-in
// .db file stands in for a warehouse without needing credentials.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/internal/catalog"
	"github.com/schemadrift/schemadrift/internal/normalize"
	"github.com/schemadrift/schemadrift/internal/schema"
)

// Reader implements catalog.Reader over an open SQLite handle.
type Reader struct {
	db *sql.DB
}

func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// SQLite type spellings are close enough to the textual source dialect
// that it shares the source synonym table.
func (r *Reader) Dialect() normalize.Dialect { return normalize.DialectSource }

// ListTables returns user tables and views from sqlite_master.
func (r *Reader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
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
		names = append(names, name)
	}
	return names, rows.Err()
}

// FetchTable reads one table's columns and key constraints through
// PRAGMA table_info, index_list and foreign_key_list.
func (r *Reader) FetchTable(ctx context.Context, name string) (*catalog.TableData, error) {
	kind, err := r.objectKind(ctx, name)
	if err != nil {
		return nil, err
	}

	data := &catalog.TableData{Name: name, Kind: kind}

	columns, pkCols, err := r.fetchColumns(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", name, err)
	}
	data.Columns = columns

	if kind == schema.KindView {
		return data, nil
	}

	if len(pkCols) > 0 {
		data.Constraints = append(data.Constraints, catalog.RawConstraint{
			Kind:    schema.PrimaryKey,
			Columns: pkCols,
		})
	}

	uniques, err := r.fetchUniqueIndexes(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes for table %s: %w", name, err)
	}
	data.Constraints = append(data.Constraints, uniques...)

	fks, err := r.fetchForeignKeys(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys for table %s: %w", name, err)
	}
	data.Constraints = append(data.Constraints, fks...)

	return data, nil
}

func (r *Reader) objectKind(ctx context.Context, name string) (schema.ObjectKind, error) {
	var objType string
	err := r.db.QueryRowContext(ctx, `
		SELECT type FROM sqlite_master WHERE name = ? AND type IN ('table', 'view')
	`, name).Scan(&objType)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("table %s not found", name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	if objType == "view" {
		return schema.KindView, nil
	}
	return schema.KindTable, nil
}

// fetchColumns maps PRAGMA table_info rows, returning primary key
// member names separately in key order.
func (r *Reader) fetchColumns(ctx context.Context, tableName string) ([]catalog.RawColumn, []string, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	type pkMember struct {
		name string
		pos  int
	}
	var (
		columns []catalog.RawColumn
		pk      []pkMember
	)
	for rows.Next() {
		var (
			cid        int
			col        catalog.RawColumn
			notNull    int
			defaultVal sql.NullString
			pkPos      int
		)
		// PRAGMA table_info returns: cid, name, type, notnull, dflt_value, pk
		if err := rows.Scan(&cid, &col.Name, &col.RawType, &notNull, &defaultVal, &pkPos); err != nil {
			return nil, nil, err
		}

		col.Nullable = notNull == 0
		if defaultVal.Valid {
			v := defaultVal.String
			col.Default = &v
		}
		if pkPos > 0 {
			col.Nullable = false
			pk = append(pk, pkMember{name: col.Name, pos: pkPos})
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	pkCols := make([]string, len(pk))
	for _, m := range pk {
		pkCols[m.pos-1] = m.name
	}
	return columns, pkCols, nil
}

// fetchUniqueIndexes turns explicit unique indexes and inline UNIQUE
// constraints into Unique descriptors. The PK autoindex is skipped.
func (r *Reader) fetchUniqueIndexes(ctx context.Context, tableName string) ([]catalog.RawConstraint, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%q)", tableName))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	type indexEntry struct {
		name   string
		origin string
	}
	var uniqueIndexes []indexEntry
	for rows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		// PRAGMA index_list returns: seq, name, unique, origin, partial
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		if unique == 1 && origin != "pk" {
			uniqueIndexes = append(uniqueIndexes, indexEntry{name: name, origin: origin})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var constraints []catalog.RawConstraint
	for _, idx := range uniqueIndexes {
		cols, err := r.indexColumns(ctx, idx.name)
		if err != nil {
			return nil, err
		}
		if len(cols) > 0 {
			constraints = append(constraints, catalog.RawConstraint{
				Kind:    schema.Unique,
				Columns: cols,
			})
		}
	}
	return constraints, nil
}

func (r *Reader) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%q)", indexName))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		// PRAGMA index_info returns: seqno, cid, name
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}

func (r *Reader) fetchForeignKeys(ctx context.Context, tableName string) ([]catalog.RawConstraint, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", tableName))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	type group struct {
		columns  []string
		refTable string
		refCols  []string
	}
	groups := make(map[int]*group)
	var order []int

	for rows.Next() {
		var (
			id, seq                         int
			table, from                     string
			to                              sql.NullString
			onUpdate, onDelete, matchClause string
		)
		// PRAGMA foreign_key_list returns: id, seq, table, from, to, on_update, on_delete, match
		// "to" is NULL when the reference targets the implicit rowid key.
		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &matchClause); err != nil {
			return nil, err
		}
		g, ok := groups[id]
		if !ok {
			g = &group{refTable: table}
			groups[id] = g
			order = append(order, id)
		}
		g.columns = append(g.columns, from)
		if to.Valid {
			g.refCols = append(g.refCols, to.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var constraints []catalog.RawConstraint
	for _, id := range order {
		g := groups[id]
		constraints = append(constraints, catalog.RawConstraint{
			Kind:    schema.ForeignKey,
			Columns: g.columns,
			Ref: &schema.Reference{
				Table:   strings.ToUpper(g.refTable),
				Columns: g.refCols,
			},
		})
	}
	return constraints, nil
}
