package normalize

import (
	"reflect"
	"testing"

	"github.com/schemadrift/schemadrift/internal/schema"
)

func TestType_Synonyms(t *testing.T) {
	cases := []struct {
		raw     string
		dialect Dialect
		want    schema.TypeKind
	}{
		{"INT4", DialectSource, schema.TypeInteger},
		{"integer", DialectSource, schema.TypeInteger},
		{"character   varying", DialectSource, schema.TypeVarchar},
		{"TEXT", DialectSource, schema.TypeVarchar},
		{"float8", DialectSource, schema.TypeDouble},
		{"timestamp without time zone", DialectRedshift, schema.TypeTimestamp},
		{"TIMESTAMPTZ", DialectRedshift, schema.TypeTimestampTZ},
		{"TIMETZ", DialectRedshift, schema.TypeTime},
		{"HLLSKETCH", DialectRedshift, schema.TypeBinary},
		{"string", DialectIceberg, schema.TypeVarchar},
		{"long", DialectIceberg, schema.TypeBigInt},
		{"timestamp_ntz", DialectIceberg, schema.TypeTimestamp},
		{"uuid", DialectIceberg, schema.TypeVarchar},
	}
	for _, tc := range cases {
		got := Type(tc.raw, tc.dialect)
		if got.Kind != tc.want {
			t.Errorf("Type(%q, %s) = %s, want %s", tc.raw, tc.dialect, got.Kind, tc.want)
		}
		if got.Raw != "" {
			t.Errorf("Type(%q, %s) should not carry raw text for a known type", tc.raw, tc.dialect)
		}
	}
}

func TestType_UnknownComparesTextually(t *testing.T) {
	a := Type("geography", DialectSource)
	b := Type("  GEOGRAPHY ", DialectSource)
	c := Type("interval", DialectSource)

	if a.Kind != schema.TypeUnknown {
		t.Fatalf("expected unknown kind, got %s", a.Kind)
	}
	if a != b {
		t.Errorf("same spelling should compare equal: %#v vs %#v", a, b)
	}
	if a == c {
		t.Errorf("different spellings should not compare equal: %#v vs %#v", a, c)
	}
}

func TestType_DialectSpellingsDoNotLeak(t *testing.T) {
	// STRING is an Iceberg spelling; in SQL dialects it stays unknown.
	if got := Type("STRING", DialectSource); got.Kind != schema.TypeUnknown {
		t.Errorf("STRING in source dialect should be unknown, got %s", got.Kind)
	}
}

func TestSplitTypeArgs(t *testing.T) {
	cases := []struct {
		raw  string
		base string
		args []int
	}{
		{"DECIMAL(18,2)", "DECIMAL", []int{18, 2}},
		{"character varying(256)", "character varying", []int{256}},
		{"INT", "INT", nil},
		{"VARCHAR( 100 )", "VARCHAR", []int{100}},
		{"ENUM('a','b')", "ENUM", nil},
	}
	for _, tc := range cases {
		base, args := SplitTypeArgs(tc.raw)
		if base != tc.base || !reflect.DeepEqual(args, tc.args) {
			t.Errorf("SplitTypeArgs(%q) = %q, %v; want %q, %v", tc.raw, base, args, tc.base, tc.args)
		}
	}
}

func TestColumn_FamilyAttributeScrubbing(t *testing.T) {
	five := 5

	v := Column("name", "VARCHAR(50)", true, nil, nil, nil, nil, DialectSource)
	if v.MaxLength == nil || *v.MaxLength != 50 {
		t.Errorf("expected max length 50 from type args, got %v", v.MaxLength)
	}
	if v.Precision != nil || v.Scale != nil {
		t.Error("character column must not carry precision or scale")
	}

	d := Column("amount", "NUMERIC(12,4)", false, nil, nil, nil, nil, DialectSource)
	if d.Precision == nil || *d.Precision != 12 || d.Scale == nil || *d.Scale != 4 {
		t.Errorf("expected precision 12 scale 4, got %v %v", d.Precision, d.Scale)
	}
	if d.MaxLength != nil {
		t.Error("decimal column must not carry a max length")
	}

	// (n) on a non-character, non-decimal type is scrubbed entirely.
	ts := Column("ts", "TIMESTAMP(6)", true, nil, nil, nil, nil, DialectSource)
	if ts.Precision != nil || ts.Scale != nil || ts.MaxLength != nil {
		t.Errorf("timestamp column should carry no length attributes: %#v", ts)
	}

	// Explicit catalog attributes win over parsed type arguments.
	c := Column("code", "VARCHAR(99)", true, nil, nil, nil, &five, DialectRedshift)
	if c.MaxLength == nil || *c.MaxLength != 5 {
		t.Errorf("catalog max length should win, got %v", c.MaxLength)
	}
}

func TestColumn_NameCanonicalized(t *testing.T) {
	col := Column("  OrderDate ", "date", true, nil, nil, nil, nil, DialectSource)
	if col.Name != "ORDERDATE" {
		t.Errorf("expected ORDERDATE, got %q", col.Name)
	}
}

func TestSignature(t *testing.T) {
	cases := []struct {
		cons schema.Constraint
		want string
	}{
		{
			Constraint(schema.Unique, []string{"email"}, nil),
			"Unique[EMAIL]",
		},
		{
			Constraint(schema.PrimaryKey, []string{"b", "a"}, nil),
			"PrimaryKey[A,B]",
		},
		{
			Constraint(schema.ForeignKey, []string{"customer_id"}, &schema.Reference{Table: "s.customers", Columns: []string{"id"}}),
			"ForeignKey[CUSTOMER_ID]->S.CUSTOMERS[ID]",
		},
	}
	for _, tc := range cases {
		if got := Signature(tc.cons); got != tc.want {
			t.Errorf("Signature(%#v) = %q, want %q", tc.cons, got, tc.want)
		}
	}
}

func TestSignature_OrderIndependent(t *testing.T) {
	a := Signature(Constraint(schema.PrimaryKey, []string{"x", "y"}, nil))
	b := Signature(Constraint(schema.PrimaryKey, []string{"Y", "X"}, nil))
	if a != b {
		t.Errorf("column order changed the signature: %q vs %q", a, b)
	}
}

func TestParseDialect(t *testing.T) {
	for _, s := range []string{"source", "Redshift", " ICEBERG "} {
		if _, err := ParseDialect(s); err != nil {
			t.Errorf("ParseDialect(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseDialect("oracle"); err == nil {
		t.Error("expected error for unsupported dialect")
	}
}
