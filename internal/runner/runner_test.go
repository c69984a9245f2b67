package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/schemadrift/schemadrift/internal/catalog"
	"github.com/schemadrift/schemadrift/internal/normalize"
	"github.com/schemadrift/schemadrift/internal/schema"
)

const fiveTables = `
CREATE TABLE s.users (id INT NOT NULL, email VARCHAR(100));
CREATE TABLE s.orders (id INT, user_id INT, amount DECIMAL(18,2));
CREATE TABLE s.broken (id);
CREATE TABLE s.items (id INT, sku VARCHAR(32));
CREATE VIEW s.report AS SELECT 1;
`

func TestDDLSource_PartialFailure(t *testing.T) {
	src := &DDLSource{SourceName: "git", SQL: fiveTables, Dialect: normalize.DialectSource}

	coll, tableErrs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(coll.Tables) != 4 {
		t.Fatalf("expected 4 definitions, got %d", len(coll.Tables))
	}
	if len(tableErrs) != 1 {
		t.Fatalf("expected 1 table error, got %#v", tableErrs)
	}
	if tableErrs[0].Table != "S.BROKEN" {
		t.Errorf("expected failure labeled S.BROKEN, got %q", tableErrs[0].Table)
	}

	// Statement order survives the concurrent parse.
	wantOrder := []string{"S.USERS", "S.ORDERS", "S.ITEMS", "S.REPORT"}
	for i, want := range wantOrder {
		if coll.Tables[i].Name != want {
			t.Errorf("position %d: expected %s, got %s", i, want, coll.Tables[i].Name)
		}
	}
}

func TestDDLSource_SplitErrorsRecorded(t *testing.T) {
	src := &DDLSource{
		SourceName: "git",
		SQL:        "CREATE TABLE bad (id INT;\nCREATE TABLE ok (id INT);",
		Dialect:    normalize.DialectSource,
	}

	coll, tableErrs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(coll.Tables) != 1 || coll.Tables[0].Name != "OK" {
		t.Fatalf("expected only OK to survive, got %#v", coll.Tables)
	}
	if len(tableErrs) != 1 || tableErrs[0].Table != "" {
		t.Fatalf("expected one unattributed split error, got %#v", tableErrs)
	}
}

func TestDDLSource_DuplicateDeclarationKeepsFirst(t *testing.T) {
	src := &DDLSource{
		SourceName: "git",
		SQL:        "CREATE TABLE s.t (id INT);\nCREATE TABLE s.t (id BIGINT);",
		Dialect:    normalize.DialectSource,
	}

	coll, tableErrs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(coll.Tables) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(coll.Tables))
	}
	if kind := coll.Tables[0].Column("id").Type.Kind; kind != schema.TypeInteger {
		t.Errorf("expected the first declaration to win, got %s", kind)
	}
	if len(tableErrs) != 1 || tableErrs[0].Table != "S.T" {
		t.Fatalf("expected one S.T error, got %#v", tableErrs)
	}
	if !strings.Contains(tableErrs[0].Err, "more than once") {
		t.Errorf("unexpected error text: %q", tableErrs[0].Err)
	}
}

func TestCatalogSource_DuplicateListingIsPerTable(t *testing.T) {
	src := &CatalogSource{
		SourceName: "warehouse",
		Reader:     newFakeReader(),
		Tables:     []string{"s.users", "S.USERS"},
	}

	coll, tableErrs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(coll.Tables) != 1 {
		t.Fatalf("expected 1 definition, got %#v", coll.Tables)
	}
	if len(tableErrs) != 1 || tableErrs[0].Table != "S.USERS" {
		t.Fatalf("expected one S.USERS error, got %#v", tableErrs)
	}
}

func TestCompare_DuplicateDeclarationProducesNoDrift(t *testing.T) {
	left := &DDLSource{
		SourceName: "git",
		SQL:        "CREATE TABLE s.t (id INT);\nCREATE TABLE s.t (id BIGINT);",
		Dialect:    normalize.DialectSource,
	}
	right := &DDLSource{
		SourceName: "other",
		SQL:        "CREATE TABLE s.t (id INT);",
		Dialect:    normalize.DialectSource,
	}

	run, err := Compare(context.Background(), left, right)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(run.Entries) != 0 {
		t.Errorf("ambiguously declared table must not be diffed, got %#v", run.Entries)
	}
	if len(run.Errors) != 1 || run.Errors[0].Table != "S.T" {
		t.Errorf("expected one S.T error, got %#v", run.Errors)
	}
}

// fakeReader serves canned table data and fails on demand.
type fakeReader struct {
	dialect normalize.Dialect
	tables  map[string]*catalog.TableData
	failing map[string]bool
	listErr error
}

func (f *fakeReader) Dialect() normalize.Dialect { return f.dialect }

func (f *fakeReader) ListTables(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var names []string
	for name := range f.tables {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeReader) FetchTable(ctx context.Context, name string) (*catalog.TableData, error) {
	key := normalize.Name(name)
	if f.failing[key] {
		return nil, fmt.Errorf("connection reset fetching %s", name)
	}
	data, ok := f.tables[key]
	if !ok {
		return nil, fmt.Errorf("table %s not found", name)
	}
	return data, nil
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		dialect: normalize.DialectRedshift,
		tables: map[string]*catalog.TableData{
			"S.USERS": {
				Name: "s.users",
				Kind: schema.KindTable,
				Columns: []catalog.RawColumn{
					{Name: "id", RawType: "integer", Nullable: false},
					{Name: "email", RawType: "character varying", Nullable: true, MaxLength: intPtr(100)},
				},
			},
			"S.ORDERS": {
				Name: "s.orders",
				Kind: schema.KindTable,
				Columns: []catalog.RawColumn{
					{Name: "id", RawType: "integer", Nullable: true},
					{Name: "user_id", RawType: "integer", Nullable: true},
					{Name: "amount", RawType: "numeric", Nullable: true, Precision: intPtr(18), Scale: intPtr(2)},
				},
			},
		},
		failing: map[string]bool{},
	}
}

func intPtr(n int) *int { return &n }

func TestCatalogSource_FetchFailureIsPerTable(t *testing.T) {
	fr := newFakeReader()
	fr.failing["S.ORDERS"] = true
	src := &CatalogSource{SourceName: "warehouse", Reader: fr, Tables: []string{"s.users", "s.orders"}}

	coll, tableErrs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(coll.Tables) != 1 || coll.Tables[0].Name != "S.USERS" {
		t.Fatalf("expected only S.USERS, got %#v", coll.Tables)
	}
	if len(tableErrs) != 1 || tableErrs[0].Table != "S.ORDERS" {
		t.Fatalf("expected S.ORDERS failure, got %#v", tableErrs)
	}
}

func TestCatalogSource_ListFailureIsFatal(t *testing.T) {
	fr := newFakeReader()
	fr.listErr = errors.New("permission denied")
	src := &CatalogSource{SourceName: "warehouse", Reader: fr}

	if _, _, err := src.Load(context.Background()); err == nil {
		t.Fatal("expected list failure to fail the load")
	}
}

func TestCompare_DDLAgainstCatalog(t *testing.T) {
	left := &DDLSource{
		SourceName: "git",
		SQL: `CREATE TABLE s.users (id INT NOT NULL, email VARCHAR(50));
CREATE TABLE s.orders (id INT, user_id INT, amount DECIMAL(18,2));`,
		Dialect: normalize.DialectSource,
	}
	right := &CatalogSource{SourceName: "warehouse", Reader: newFakeReader(), Tables: []string{"s.users", "s.orders"}}

	run, err := Compare(context.Background(), left, right)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if run.LeftName != "git" || run.RightName != "warehouse" {
		t.Errorf("unexpected side names: %s / %s", run.LeftName, run.RightName)
	}
	if len(run.Errors) != 0 {
		t.Fatalf("expected no errors, got %#v", run.Errors)
	}
	if len(run.Entries) != 1 {
		t.Fatalf("expected exactly one entry, got %#v", run.Entries)
	}
	e := run.Entries[0]
	if e.Table != "S.USERS" || e.Subject != "EMAIL" || e.Category != schema.LengthMismatch {
		t.Errorf("unexpected entry: %#v", e)
	}
}

func TestCompare_FailedTableExcludedFromBothSides(t *testing.T) {
	// s.users fails to parse on the left but exists on the right; it must
	// not show up as missing, only as an error.
	left := &DDLSource{
		SourceName: "git",
		SQL: `CREATE TABLE s.users (id);
CREATE TABLE s.orders (id INT, user_id INT, amount DECIMAL(18,2));`,
		Dialect: normalize.DialectSource,
	}
	right := &CatalogSource{SourceName: "warehouse", Reader: newFakeReader(), Tables: []string{"s.users", "s.orders"}}

	run, err := Compare(context.Background(), left, right)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(run.Errors) != 1 || run.Errors[0].Table != "S.USERS" {
		t.Fatalf("expected one S.USERS error, got %#v", run.Errors)
	}
	for _, e := range run.Entries {
		if strings.EqualFold(e.Table, "S.USERS") {
			t.Errorf("failed table leaked into the diff: %#v", e)
		}
	}
	if len(run.Entries) != 0 {
		t.Errorf("expected no entries, got %#v", run.Entries)
	}
}
