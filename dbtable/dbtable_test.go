package dbtable

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DSACMS/npd-plainerflow/engine"
)

/*
TestNewValidation is the table-driven core: hierarchy arity, table/view
exclusivity, and the naming rules (leading letter, charset, 60-char cap).
*/
func TestNewValidation(t *testing.T) {
	t.Parallel()

	long := "a" + strings.Repeat("b", 60) // 61 chars

	tests := []struct {
		name      string
		parts     Parts
		wantStr   string
		hierarchy bool // want *HierarchyError
		invalid   bool // want *ValidationError
	}{
		{
			name:    "mysql style two levels",
			parts:   Parts{Database: "mydb", Table: "users"},
			wantStr: "mydb.users",
		},
		{
			name:    "postgres style three levels",
			parts:   Parts{Database: "mydb", Schema: "public", Table: "users"},
			wantStr: "mydb.public.users",
		},
		{
			name:    "databricks style catalog",
			parts:   Parts{Catalog: "main", Database: "mydb", Table: "users"},
			wantStr: "main.mydb.users",
		},
		{
			name:    "view instead of table",
			parts:   Parts{Database: "mydb", View: "v_users"},
			wantStr: "mydb.v_users",
		},
		{
			name:    "dashes and digits allowed",
			parts:   Parts{Database: "db-1", Table: "users_2024"},
			wantStr: "db-1.users_2024",
		},
		{
			name:      "single level rejected",
			parts:     Parts{Table: "users"},
			hierarchy: true,
		},
		{
			name:      "empty rejected",
			parts:     Parts{},
			hierarchy: true,
		},
		{
			name:      "table and view conflict",
			parts:     Parts{Database: "mydb", Table: "t", View: "v"},
			hierarchy: true,
		},
		{
			name:    "leading digit rejected",
			parts:   Parts{Database: "mydb", Table: "1users"},
			invalid: true,
		},
		{
			name:    "leading underscore rejected",
			parts:   Parts{Database: "mydb", Table: "_users"},
			invalid: true,
		},
		{
			name:    "dots in a name rejected",
			parts:   Parts{Database: "my.db", Table: "users"},
			invalid: true,
		},
		{
			name:    "over 60 chars rejected",
			parts:   Parts{Database: "mydb", Table: long},
			invalid: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tab, err := New(tc.parts)
			switch {
			case tc.hierarchy:
				var he *HierarchyError
				if !errors.As(err, &he) {
					t.Fatalf("err=%v; want *HierarchyError", err)
				}
			case tc.invalid:
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("err=%v; want *ValidationError", err)
				}
			default:
				if err != nil {
					t.Fatalf("New: %v", err)
				}
				if got := tab.String(); got != tc.wantStr {
					t.Fatalf("String()=%q; want %q", got, tc.wantStr)
				}
			}
		})
	}
}

/*
TestMakeChild verifies suffix handling:
 1. plain suffixes append with an underscore,
 2. a leading underscore on the suffix does not double up,
 3. the parent is left untouched,
 4. invalid suffixes and tables without a table/view level are rejected.
*/
func TestMakeChild(t *testing.T) {
	t.Parallel()

	parent, err := New(Parts{Database: "mydb", Schema: "public", Table: "users"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	child, err := parent.MakeChild("stage")
	if err != nil {
		t.Fatalf("MakeChild: %v", err)
	}
	if got := child.String(); got != "mydb.public.users_stage" {
		t.Fatalf("child=%q; want mydb.public.users_stage", got)
	}
	if got := parent.String(); got != "mydb.public.users" {
		t.Fatalf("parent mutated: %q", got)
	}

	under, err := parent.MakeChild("_backup")
	if err != nil {
		t.Fatalf("MakeChild(_backup): %v", err)
	}
	if got := under.String(); got != "mydb.public.users_backup" {
		t.Fatalf("child=%q; want mydb.public.users_backup", got)
	}

	if _, err := parent.MakeChild("1bad"); err == nil {
		t.Fatalf("MakeChild should reject a suffix starting with a digit")
	}

	viewTab, err := New(Parts{Database: "mydb", View: "v_users"})
	if err != nil {
		t.Fatalf("New view: %v", err)
	}
	vc, err := viewTab.MakeChild("old")
	if err != nil {
		t.Fatalf("MakeChild on view: %v", err)
	}
	if got := vc.String(); got != "mydb.v_users_old" {
		t.Fatalf("view child=%q; want mydb.v_users_old", got)
	}
}

// TestColumnsReflection
// Columns runs a zero-row SELECT and reports the column names in order.
func TestColumnsReflection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reflect.db")
	e, err := engine.Connect(ctx, engine.Descriptor{
		engine.KeyType:     "SQLITE",
		engine.KeyDatabase: path,
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer e.Close()

	if _, err := e.Exec(ctx, "CREATE TABLE inventory (id INTEGER, sku TEXT, qty INTEGER)"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// SQLite has no enclosing database level for bare tables; "main" is
	// its built-in schema name and qualifies fine.
	tab, err := New(Parts{Database: "main", Table: "inventory"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cols, err := tab.Columns(ctx, e)
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	want := []string{"id", "sku", "qty"}
	if len(cols) != len(want) {
		t.Fatalf("cols=%v; want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("cols=%v; want %v", cols, want)
		}
	}
}
