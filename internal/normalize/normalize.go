// Package normalize maps dialect-specific type spellings and constraint
// encodings onto the canonical vocabulary in internal/schema, so that
// definitions parsed from text and definitions fetched from a live
// catalog compare attribute by attribute.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/schemadrift/schemadrift/internal/schema"
)

// Dialect selects which synonym table applies during normalization.
type Dialect string

const (
	DialectSource   Dialect = "source"
	DialectRedshift Dialect = "redshift"
	DialectIceberg  Dialect = "iceberg"
)

// ParseDialect converts a user-supplied dialect tag.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case DialectSource:
		return DialectSource, nil
	case DialectRedshift:
		return DialectRedshift, nil
	case DialectIceberg:
		return DialectIceberg, nil
	}
	return "", fmt.Errorf("unknown dialect %q (expected source, redshift or iceberg)", s)
}

// baseTypes covers spellings shared by the SQL dialects. Keys are
// uppercased with interior whitespace collapsed to single spaces.
var baseTypes = map[string]schema.TypeKind{
	"SMALLINT":                    schema.TypeSmallInt,
	"INT2":                        schema.TypeSmallInt,
	"INTEGER":                     schema.TypeInteger,
	"INT":                         schema.TypeInteger,
	"INT4":                        schema.TypeInteger,
	"BIGINT":                      schema.TypeBigInt,
	"INT8":                        schema.TypeBigInt,
	"DECIMAL":                     schema.TypeDecimal,
	"NUMERIC":                     schema.TypeDecimal,
	"REAL":                        schema.TypeReal,
	"FLOAT4":                      schema.TypeReal,
	"DOUBLE":                      schema.TypeDouble,
	"DOUBLE PRECISION":            schema.TypeDouble,
	"FLOAT":                       schema.TypeDouble,
	"FLOAT8":                      schema.TypeDouble,
	"BOOLEAN":                     schema.TypeBoolean,
	"BOOL":                        schema.TypeBoolean,
	"CHAR":                        schema.TypeChar,
	"CHARACTER":                   schema.TypeChar,
	"BPCHAR":                      schema.TypeChar,
	"NCHAR":                       schema.TypeChar,
	"VARCHAR":                     schema.TypeVarchar,
	"CHARACTER VARYING":           schema.TypeVarchar,
	"NVARCHAR":                    schema.TypeVarchar,
	"TEXT":                        schema.TypeVarchar,
	"DATE":                        schema.TypeDate,
	"TIME":                        schema.TypeTime,
	"TIME WITHOUT TIME ZONE":      schema.TypeTime,
	"TIMESTAMP":                   schema.TypeTimestamp,
	"TIMESTAMP WITHOUT TIME ZONE": schema.TypeTimestamp,
	"DATETIME":                    schema.TypeTimestamp,
	"TIMESTAMPTZ":                 schema.TypeTimestampTZ,
	"TIMESTAMP WITH TIME ZONE":    schema.TypeTimestampTZ,
	"VARBYTE":                     schema.TypeBinary,
	"BINARY":                      schema.TypeBinary,
	"BYTEA":                       schema.TypeBinary,
	"SUPER":                       schema.TypeSuper,
}

// dialectTypes holds per-dialect spellings layered over baseTypes.
var dialectTypes = map[Dialect]map[string]schema.TypeKind{
	DialectSource: {},
	DialectRedshift: {
		// information_schema reports long-form names; SHOW CREATE TABLE
		// emits the short ones, both appear in practice.
		"TIMETZ":              schema.TypeTime,
		"TIME WITH TIME ZONE": schema.TypeTime,
		"GEOMETRY":            schema.TypeBinary,
		"HLLSKETCH":           schema.TypeBinary,
	},
	DialectIceberg: {
		"STRING":        schema.TypeVarchar,
		"LONG":          schema.TypeBigInt,
		"FIXED":         schema.TypeBinary,
		"UUID":          schema.TypeVarchar,
		"TIMESTAMPNTZ":  schema.TypeTimestamp,
		"TIMESTAMP_NTZ": schema.TypeTimestamp,
	},
}

// Type normalizes a raw type spelling (without argument list) for the
// given dialect. Unknown spellings map to the Unknown variant carrying
// the cleaned raw text, which compares equal only to itself.
func Type(raw string, dialect Dialect) schema.ColumnType {
	cleaned := cleanSpelling(raw)
	if kind, ok := dialectTypes[dialect][cleaned]; ok {
		return schema.ColumnType{Kind: kind}
	}
	if kind, ok := baseTypes[cleaned]; ok {
		return schema.ColumnType{Kind: kind}
	}
	return schema.ColumnType{Kind: schema.TypeUnknown, Raw: cleaned}
}

// SplitTypeArgs splits a raw type token such as "DECIMAL(18,2)" or
// "character varying(256)" into its base spelling and integer arguments.
// Non-integer arguments (e.g. enum values) are discarded.
func SplitTypeArgs(raw string) (base string, args []int) {
	open := strings.IndexByte(raw, '(')
	if open < 0 {
		return strings.TrimSpace(raw), nil
	}
	end := strings.LastIndexByte(raw, ')')
	if end < open {
		return strings.TrimSpace(raw), nil
	}
	base = strings.TrimSpace(raw[:open]) + strings.TrimSpace(raw[end+1:])
	for _, part := range strings.Split(raw[open+1:end], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		args = append(args, n)
	}
	return base, args
}

// Name canonicalizes an identifier: trimmed and uppercased.
func Name(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Column builds a canonical column from raw attributes, assigning type
// arguments to the correct family and scrubbing attributes that do not
// belong to the canonical type's family: length only for character
// types, precision and scale only for decimals.
func Column(name, rawType string, nullable bool, def *string, precision, scale, maxLength *int, dialect Dialect) schema.ColumnDefinition {
	base, args := SplitTypeArgs(rawType)
	typ := Type(base, dialect)

	col := schema.ColumnDefinition{
		Name:     strings.ToUpper(strings.TrimSpace(name)),
		Type:     typ,
		RawType:  strings.TrimSpace(rawType),
		Nullable: nullable,
		Default:  def,
	}

	// Explicit attributes from a catalog win over parsed type arguments.
	switch {
	case typ.IsCharacter():
		col.MaxLength = maxLength
		if col.MaxLength == nil && len(args) > 0 {
			col.MaxLength = intPtr(args[0])
		}
	case typ.IsDecimal():
		col.Precision, col.Scale = precision, scale
		if col.Precision == nil && len(args) > 0 {
			col.Precision = intPtr(args[0])
		}
		if col.Scale == nil && len(args) > 1 {
			col.Scale = intPtr(args[1])
		}
	}
	return col
}

// Constraint canonicalizes a raw constraint: uppercased column names in
// declaration order, reference carried for foreign keys only.
func Constraint(kind schema.ConstraintKind, columns []string, ref *schema.Reference) schema.Constraint {
	c := schema.Constraint{Kind: kind, Columns: upperAll(columns)}
	if kind == schema.ForeignKey && ref != nil {
		c.Ref = &schema.Reference{
			Table:   strings.ToUpper(strings.TrimSpace(ref.Table)),
			Columns: upperAll(ref.Columns),
		}
	}
	return c
}

// Signature builds the canonical constraint identity used by the diff
// engine: kind plus the sorted column set, plus the reference for
// foreign keys. Two constraints with the same signature are the same
// constraint regardless of declared column order or name.
func Signature(c schema.Constraint) string {
	var b strings.Builder
	b.WriteString(string(c.Kind))
	b.WriteByte('[')
	b.WriteString(strings.Join(sortedUpper(c.Columns), ","))
	b.WriteByte(']')
	if c.Kind == schema.ForeignKey && c.Ref != nil {
		b.WriteString("->")
		b.WriteString(strings.ToUpper(c.Ref.Table))
		b.WriteByte('[')
		b.WriteString(strings.Join(sortedUpper(c.Ref.Columns), ","))
		b.WriteByte(']')
	}
	return b.String()
}

func cleanSpelling(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}

func upperAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return out
}

func sortedUpper(in []string) []string {
	out := upperAll(in)
	sort.Strings(out)
	return out
}

func intPtr(n int) *int { return &n }
