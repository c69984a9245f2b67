package catalog

import (
	"reflect"
	"testing"

	"github.com/schemadrift/schemadrift/internal/normalize"
	"github.com/schemadrift/schemadrift/internal/schema"
)

func intPtr(n int) *int { return &n }

func TestBuildDefinition(t *testing.T) {
	def := &TableData{
		Name: "public.users",
		Kind: schema.KindTable,
		Columns: []RawColumn{
			{Name: "id", RawType: "integer", Nullable: false},
			{Name: "email", RawType: "character varying", Nullable: true, MaxLength: intPtr(100)},
			{Name: "balance", RawType: "numeric", Nullable: true, Precision: intPtr(12), Scale: intPtr(2)},
		},
		Constraints: []RawConstraint{
			{Kind: schema.PrimaryKey, Columns: []string{"id"}},
			{Kind: schema.ForeignKey, Columns: []string{"org_id"}, Ref: &schema.Reference{Table: "public.orgs", Columns: []string{"id"}}},
		},
	}

	got := BuildDefinition(def, normalize.DialectRedshift)

	if got.Name != "PUBLIC.USERS" {
		t.Errorf("expected PUBLIC.USERS, got %s", got.Name)
	}
	if got.Kind != schema.KindTable {
		t.Errorf("expected table kind, got %s", got.Kind)
	}
	if len(got.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(got.Columns))
	}

	email := got.Column("email")
	if email.Type.Kind != schema.TypeVarchar {
		t.Errorf("expected VARCHAR, got %s", email.Type.Kind)
	}
	if email.MaxLength == nil || *email.MaxLength != 100 {
		t.Errorf("expected max length 100, got %v", email.MaxLength)
	}

	balance := got.Column("balance")
	if balance.Precision == nil || *balance.Precision != 12 || balance.Scale == nil || *balance.Scale != 2 {
		t.Errorf("unexpected precision/scale: %v %v", balance.Precision, balance.Scale)
	}

	if len(got.Constraints) != 2 {
		t.Fatalf("expected 2 constraints, got %#v", got.Constraints)
	}
	fk := got.Constraints[1]
	if !reflect.DeepEqual(fk.Columns, []string{"ORG_ID"}) {
		t.Errorf("constraint columns not canonicalized: %#v", fk.Columns)
	}
	if fk.Ref == nil || fk.Ref.Table != "PUBLIC.ORGS" {
		t.Errorf("reference not canonicalized: %#v", fk.Ref)
	}
}

func TestBuildDefinition_ViewIsPresenceOnly(t *testing.T) {
	got := BuildDefinition(&TableData{
		Name:    "s.report",
		Kind:    schema.KindView,
		Columns: []RawColumn{{Name: "total", RawType: "numeric"}},
	}, normalize.DialectSource)

	if got.Kind != schema.KindView || got.Name != "S.REPORT" {
		t.Errorf("unexpected view definition: %#v", got)
	}
	if len(got.Columns) != 0 {
		t.Errorf("view columns should be dropped to match the parsed form, got %d", len(got.Columns))
	}
}
