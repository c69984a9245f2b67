// Package schema defines the canonical model shared by every source of
// table definitions: parsed DDL text, warehouse catalogs, and lakehouse
// snapshots. Definitions are built once by a parser or catalog adapter
// and never mutated afterwards; the diff engine only reads them.
package schema

import "strings"

// ObjectKind distinguishes tables from views.
type ObjectKind string

const (
	KindTable ObjectKind = "table"
	KindView  ObjectKind = "view"
)

// TypeKind is the closed canonical type enumeration populated by the
// normalizer. TypeUnknown carries the raw spelling so unfamiliar types
// degrade to textual comparison instead of comparing equal to each other.
type TypeKind string

const (
	TypeSmallInt    TypeKind = "SMALLINT"
	TypeInteger     TypeKind = "INTEGER"
	TypeBigInt      TypeKind = "BIGINT"
	TypeDecimal     TypeKind = "DECIMAL"
	TypeReal        TypeKind = "REAL"
	TypeDouble      TypeKind = "DOUBLE"
	TypeBoolean     TypeKind = "BOOLEAN"
	TypeChar        TypeKind = "CHAR"
	TypeVarchar     TypeKind = "VARCHAR"
	TypeDate        TypeKind = "DATE"
	TypeTime        TypeKind = "TIME"
	TypeTimestamp   TypeKind = "TIMESTAMP"
	TypeTimestampTZ TypeKind = "TIMESTAMPTZ"
	TypeBinary      TypeKind = "BINARY"
	TypeSuper       TypeKind = "SUPER"
	TypeUnknown     TypeKind = "UNKNOWN"
)

// ColumnType is a canonical type tag. Raw is set only for TypeUnknown,
// uppercased and space-collapsed by the normalizer, so the zero-value
// comparison (==) implements "unknown equals only the identical spelling".
type ColumnType struct {
	Kind TypeKind `json:"kind"`
	Raw  string   `json:"raw,omitempty"`
}

func (t ColumnType) String() string {
	if t.Kind == TypeUnknown {
		return "UNKNOWN(" + t.Raw + ")"
	}
	return string(t.Kind)
}

// IsCharacter reports whether the type belongs to the character family
// (the only family that carries a max length).
func (t ColumnType) IsCharacter() bool {
	return t.Kind == TypeChar || t.Kind == TypeVarchar
}

// IsDecimal reports whether the type carries precision and scale.
func (t ColumnType) IsDecimal() bool {
	return t.Kind == TypeDecimal
}

// ColumnDefinition is one column of a table or view.
type ColumnDefinition struct {
	Name      string     `json:"name"`
	Type      ColumnType `json:"type"`
	RawType   string     `json:"raw_type"`
	Nullable  bool       `json:"nullable"`
	Default   *string    `json:"default,omitempty"`
	Precision *int       `json:"precision,omitempty"`
	Scale     *int       `json:"scale,omitempty"`
	MaxLength *int       `json:"max_length,omitempty"`
}

// ConstraintKind is the closed constraint enumeration.
type ConstraintKind string

const (
	PrimaryKey ConstraintKind = "PrimaryKey"
	Unique     ConstraintKind = "Unique"
	ForeignKey ConstraintKind = "ForeignKey"
)

// Reference is the target of a foreign key.
type Reference struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

// Constraint is a table-level constraint. Columns keep declaration order
// for output; equality between constraints goes through the signature,
// which sorts them.
type Constraint struct {
	Kind    ConstraintKind `json:"kind"`
	Columns []string       `json:"columns"`
	Ref     *Reference     `json:"ref,omitempty"`
}

// TableDefinition is one parsed or fetched object. Name is the
// case-normalized (uppercased) schema.object identifier, unique within
// a comparison run. Columns preserve declaration order.
type TableDefinition struct {
	Name        string             `json:"name"`
	Kind        ObjectKind         `json:"kind"`
	Columns     []ColumnDefinition `json:"columns"`
	Constraints []Constraint       `json:"constraints,omitempty"`
}

// Column returns the named column or nil. Lookup is case-insensitive
// because all builders uppercase column names already.
func (t *TableDefinition) Column(name string) *ColumnDefinition {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// Collection is a named, ordered set of table definitions, e.g. the
// "git" side or the "redshift" side of a comparison.
type Collection struct {
	Name   string            `json:"name"`
	Tables []TableDefinition `json:"tables"`
}

// Table returns the definition with the given qualified name or nil.
func (c *Collection) Table(name string) *TableDefinition {
	for i := range c.Tables {
		if strings.EqualFold(c.Tables[i].Name, name) {
			return &c.Tables[i]
		}
	}
	return nil
}

// Add appends a definition, keeping arrival order.
func (c *Collection) Add(def TableDefinition) {
	c.Tables = append(c.Tables, def)
}

// DiffCategory is the closed set of discrepancy categories the diff
// engine can report.
type DiffCategory string

const (
	MissingInLeft            DiffCategory = "missing_in_left"
	MissingInRight           DiffCategory = "missing_in_right"
	TypeMismatch             DiffCategory = "type_mismatch"
	NullabilityMismatch      DiffCategory = "nullability_mismatch"
	LengthMismatch           DiffCategory = "length_mismatch"
	PrecisionMismatch        DiffCategory = "precision_mismatch"
	ScaleMismatch            DiffCategory = "scale_mismatch"
	DefaultMismatch          DiffCategory = "default_mismatch"
	ConstraintMissingInLeft  DiffCategory = "constraint_missing_in_left"
	ConstraintMissingInRight DiffCategory = "constraint_missing_in_right"
)

// DiffEntry is one reported discrepancy. Subject is a column name, a
// constraint signature, or empty for a whole-table entry.
type DiffEntry struct {
	Table    string       `json:"table"`
	Subject  string       `json:"subject"`
	Category DiffCategory `json:"category"`
	Detail   string       `json:"detail"`
}

// TableError records a table that failed to parse or fetch. The rest of
// the run proceeds without it.
type TableError struct {
	Table string `json:"table"`
	Err   string `json:"error"`
}

// ComparisonRun is the result of one invocation: both side names, the
// ordered diff entries, and the per-table failures. Immutable once the
// runner hands it to the caller.
type ComparisonRun struct {
	LeftName  string       `json:"left"`
	RightName string       `json:"right"`
	Entries   []DiffEntry  `json:"entries"`
	Errors    []TableError `json:"errors,omitempty"`
}
