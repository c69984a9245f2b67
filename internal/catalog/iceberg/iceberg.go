// Package iceberg reads table structure from an exported lakehouse
// catalog snapshot: a single JSON document produced by a REST-catalog
// export job, listing namespaces, tables and fields. The document is
// validated against an embedded JSON Schema before any mapping happens,
// so a truncated or hand-edited export fails loudly instead of
// producing an empty comparison side.
package iceberg

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/schemadrift/schemadrift/internal/catalog"
	"github.com/schemadrift/schemadrift/internal/normalize"
	"github.com/schemadrift/schemadrift/internal/schema"
)

//go:embed snapshot_schema.json
var snapshotSchema []byte

// Snapshot mirrors the export document.
type Snapshot struct {
	ExportedAt string      `json:"exported_at,omitempty"`
	Catalog    string      `json:"catalog,omitempty"`
	Namespaces []Namespace `json:"namespaces"`
}

type Namespace struct {
	Name   string  `json:"name"`
	Tables []Table `json:"tables"`
}

type Table struct {
	Name             string   `json:"name"`
	Kind             string   `json:"kind,omitempty"`
	Fields           []Field  `json:"fields"`
	IdentifierFields []string `json:"identifier_fields,omitempty"`
}

type Field struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Required bool    `json:"required,omitempty"`
	Default  *string `json:"default,omitempty"`
}

// Reader implements catalog.Reader over a loaded snapshot.
type Reader struct {
	tables map[string]*catalog.TableData
	order  []string
}

func (r *Reader) Dialect() normalize.Dialect { return normalize.DialectIceberg }

// Load reads and validates a snapshot file.
func Load(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates the document against the embedded schema and indexes
// its tables by qualified name.
func Parse(data []byte) (*Reader, error) {
	schemaLoader := gojsonschema.NewBytesLoader(snapshotSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate snapshot: %w", err)
	}
	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return nil, fmt.Errorf("snapshot does not match the export format: %s", strings.Join(reasons, "; "))
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	r := &Reader{tables: make(map[string]*catalog.TableData)}
	for _, ns := range snap.Namespaces {
		for _, tbl := range ns.Tables {
			td := mapTable(ns.Name, tbl)
			r.tables[normalize.Name(td.Name)] = td
			r.order = append(r.order, td.Name)
		}
	}
	return r, nil
}

func (r *Reader) ListTables(ctx context.Context) ([]string, error) {
	return append([]string(nil), r.order...), nil
}

func (r *Reader) FetchTable(ctx context.Context, name string) (*catalog.TableData, error) {
	data, ok := r.tables[normalize.Name(name)]
	if !ok {
		return nil, fmt.Errorf("table %s not present in snapshot", name)
	}
	return data, nil
}

// mapTable converts one snapshot table into raw catalog rows. Iceberg
// fields are nullable unless required; identifier fields form the
// primary key.
func mapTable(namespace string, tbl Table) *catalog.TableData {
	kind := schema.KindTable
	if tbl.Kind == "view" {
		kind = schema.KindView
	}

	data := &catalog.TableData{Name: namespace + "." + tbl.Name, Kind: kind}
	for _, f := range tbl.Fields {
		data.Columns = append(data.Columns, catalog.RawColumn{
			Name:     f.Name,
			RawType:  f.Type,
			Nullable: !f.Required,
			Default:  f.Default,
		})
	}
	if len(tbl.IdentifierFields) > 0 {
		data.Constraints = append(data.Constraints, catalog.RawConstraint{
			Kind:    schema.PrimaryKey,
			Columns: tbl.IdentifierFields,
		})
	}
	return data
}
