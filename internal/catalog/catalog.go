// Package catalog defines the boundary between the comparison core and
// live catalog accessors. An accessor returns raw column and constraint
// rows for one table; the core's only responsibility here is running
// those rows through the normalizer so a fetched definition has exactly
// the same shape as a parsed one.
package catalog

import (
	"context"

	"github.com/schemadrift/schemadrift/internal/normalize"
	"github.com/schemadrift/schemadrift/internal/schema"
)

// RawColumn is one column row as a catalog reports it, before
// normalization.
type RawColumn struct {
	Name      string
	RawType   string
	Nullable  bool
	Default   *string
	Precision *int
	Scale     *int
	MaxLength *int
}

// RawConstraint is one constraint descriptor as a catalog reports it.
type RawConstraint struct {
	Kind    schema.ConstraintKind
	Columns []string
	Ref     *schema.Reference
}

// TableData is the raw material for one table or view.
type TableData struct {
	Name        string
	Kind        schema.ObjectKind
	Columns     []RawColumn
	Constraints []RawConstraint
}

// Reader is implemented by each catalog accessor. A FetchTable failure
// concerns that one table only; callers record it and keep fetching.
type Reader interface {
	// Dialect names the type-synonym table this catalog's spellings
	// normalize through.
	Dialect() normalize.Dialect

	// ListTables returns the qualified names of every table and view
	// visible to the comparison.
	ListTables(ctx context.Context) ([]string, error)

	// FetchTable returns the raw rows for one qualified name.
	FetchTable(ctx context.Context, name string) (*TableData, error)
}

// BuildDefinition maps raw catalog rows through the normalizer into a
// canonical TableDefinition.
func BuildDefinition(data *TableData, dialect normalize.Dialect) *schema.TableDefinition {
	def := &schema.TableDefinition{
		Name: normalize.Name(data.Name),
		Kind: data.Kind,
	}
	if data.Kind == schema.KindView {
		// Views participate by presence only, matching their parsed form.
		return def
	}
	for _, rc := range data.Columns {
		def.Columns = append(def.Columns, normalize.Column(
			rc.Name, rc.RawType, rc.Nullable, rc.Default,
			rc.Precision, rc.Scale, rc.MaxLength, dialect))
	}
	for _, cons := range data.Constraints {
		def.Constraints = append(def.Constraints, normalize.Constraint(cons.Kind, cons.Columns, cons.Ref))
	}
	return def
}
