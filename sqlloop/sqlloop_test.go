package sqlloop

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DSACMS/npd-plainerflow/engine"
	"github.com/DSACMS/npd-plainerflow/frostdict"
)

func sqliteEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Connect(context.Background(), engine.Descriptor{
		engine.KeyType:     "SQLITE",
		engine.KeyDatabase: filepath.Join(t.TempDir(), "loop.db"),
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// TestRunExecutesInOrder
// Statements run in insertion order inside one transaction; the banner
// lines and per-statement echo land on the writer.
func TestRunExecutesInOrder(t *testing.T) {
	t.Parallel()

	e := sqliteEngine(t)
	ctx := context.Background()

	stmts := frostdict.New[string]().
		MustSet("create_table", "CREATE TABLE users (id INTEGER, name TEXT)").
		MustSet("insert_data", "INSERT INTO users VALUES (1, 'Alice')")

	var out bytes.Buffer
	if err := Run(ctx, stmts, e, Options{Out: &out}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var n int
	if err := e.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows=%d; want 1", n)
	}

	text := out.String()
	for _, want := range []string{
		"===== EXECUTING SQL LOOP =====",
		"▶ create_table: CREATE TABLE users (id INTEGER, name TEXT)",
		"▶ insert_data: INSERT INTO users VALUES (1, 'Alice')",
		"===== SQL LOOP COMPLETE =====",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "create_table") > strings.Index(text, "insert_data") {
		t.Fatalf("statements echoed out of order:\n%s", text)
	}
}

// TestRunDryRunExecutesNothing
// Dry-run prints the plan with its own banners and never touches the
// database.
func TestRunDryRunExecutesNothing(t *testing.T) {
	t.Parallel()

	e := sqliteEngine(t)
	ctx := context.Background()

	stmts := frostdict.New[string]().
		MustSet("create_table", "CREATE TABLE ghosts (id INTEGER)")

	var out bytes.Buffer
	if err := Run(ctx, stmts, e, Options{DryRun: true, Out: &out}); err != nil {
		t.Fatalf("Run dry: %v", err)
	}

	if !strings.Contains(out.String(), "===== DRY-RUN MODE – NO SQL WILL BE EXECUTED =====") {
		t.Fatalf("missing dry-run banner:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "===== I AM NOT RUNNING SQL =====") {
		t.Fatalf("missing dry-run end banner:\n%s", out.String())
	}
	if _, err := e.Query(ctx, "SELECT * FROM ghosts"); err == nil {
		t.Fatalf("dry-run must not create tables")
	}
}

// TestRunFailureRollsBack
// The first failing statement aborts the loop and rolls back everything
// executed before it, so a half-applied plan never leaks.
func TestRunFailureRollsBack(t *testing.T) {
	t.Parallel()

	e := sqliteEngine(t)
	ctx := context.Background()

	stmts := frostdict.New[string]().
		MustSet("create_table", "CREATE TABLE half (id INTEGER)").
		MustSet("boom", "THIS IS NOT SQL")

	var out bytes.Buffer
	err := Run(ctx, stmts, e, Options{Out: &out})
	if err == nil {
		t.Fatalf("Run should propagate the driver error")
	}
	if !strings.Contains(err.Error(), `statement "boom"`) {
		t.Fatalf("error should name the failing statement: %v", err)
	}
	if _, qerr := e.Query(ctx, "SELECT * FROM half"); qerr == nil {
		t.Fatalf("rollback should have removed the table created earlier in the loop")
	}
}

// TestRunEmptyDict
// An empty plan still prints its banners and succeeds.
func TestRunEmptyDict(t *testing.T) {
	t.Parallel()

	e := sqliteEngine(t)
	var out bytes.Buffer
	if err := Run(context.Background(), frostdict.New[string](), e, Options{Out: &out}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "===== SQL LOOP COMPLETE =====") {
		t.Fatalf("missing end banner:\n%s", out.String())
	}
}
