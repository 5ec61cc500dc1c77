// Command flowdemo is a small end-to-end pipeline: resolve a database
// connection from the environment, run a loop of SQL statements against
// it, then validate the result with in-law checks. With no configuration
// at all it runs against a local SQLite fallback, which makes it a handy
// smoke test for the whole library.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/DSACMS/npd-plainerflow/credfind"
	"github.com/DSACMS/npd-plainerflow/dbtable"
	"github.com/DSACMS/npd-plainerflow/engine"
	"github.com/DSACMS/npd-plainerflow/frostdict"
	"github.com/DSACMS/npd-plainerflow/inlaw"
	"github.com/DSACMS/npd-plainerflow/sqlloop"
)

func main() {
	cfg := Load()
	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("❌ flowdemo: %v", err)
	}
}

func run(ctx context.Context, cfg *Config) error {
	opts := []credfind.Option{
		credfind.WithVerbose(cfg.Verbose),
		credfind.WithEnvPath(cfg.EnvPath),
		credfind.WithWorksheet(cfg.Worksheet),
	}
	if cfg.SQLiteDB != "" {
		opts = append(opts, credfind.WithSQLiteFile(cfg.SQLiteDB))
	}
	if cfg.ConfigFiles != "" {
		opts = append(opts, credfind.WithConfigFiles(strings.Split(cfg.ConfigFiles, ",")...))
	}
	if cfg.SheetURL != "" {
		opts = append(opts, credfind.WithSheetSource(credfind.NewHTTPSheet(cfg.SheetURL)))
	}
	if cfg.Verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
		opts = append(opts, credfind.WithLogger(logger))
	}

	resolved, err := credfind.New(opts...).Resolve(ctx)
	if err != nil {
		return err
	}
	eng := resolved.Engine
	defer eng.Close()

	fmt.Printf("connected via %s (%s)\n", resolved.Source, eng.RedactedDSN())

	users, err := dbtable.New(dbtable.Parts{Database: "main", Table: "demo_users"})
	if err != nil {
		return err
	}
	staging, err := users.MakeChild("stage")
	if err != nil {
		return err
	}

	// SQLite has no schema prefixes; qualified names are for the grown-up
	// dialects. The demo interpolates the bare table level.
	usersName, stagingName := users.Table(), staging.Table()

	stmts := frostdict.New[string]().
		MustSet("drop_stage", "DROP TABLE IF EXISTS "+stagingName).
		MustSet("create_stage", "CREATE TABLE "+stagingName+" (id INTEGER, name TEXT)").
		MustSet("seed_stage", "INSERT INTO "+stagingName+" VALUES (1, 'alice'), (2, 'bob')").
		MustSet("drop_final", "DROP TABLE IF EXISTS "+usersName).
		MustSet("publish", "CREATE TABLE "+usersName+" AS SELECT * FROM "+stagingName)

	if err := sqlloop.Run(ctx, stmts, eng, sqlloop.Options{DryRun: cfg.DryRun}); err != nil {
		return err
	}

	if !cfg.Checks || cfg.DryRun {
		return nil
	}

	summary := inlaw.RunAll(ctx, eng, inlaw.Options{},
		inlaw.CheckFunc{
			Name: "demo_users has the seeded rows",
			Fn: func(ctx context.Context, e *engine.Engine) error {
				return inlaw.ExpectRowCountBetween(ctx, e, usersName, 2, 2)
			},
		},
		inlaw.CheckFunc{
			Name: "demo_users ids are unique and non-null",
			Fn: func(ctx context.Context, e *engine.Engine) error {
				if err := inlaw.ExpectColumnNonNull(ctx, e, usersName, "id"); err != nil {
					return err
				}
				return inlaw.ExpectColumnValuesUnique(ctx, e, usersName, "id")
			},
		},
	)
	// In-law checks complain loudly but never block: report and move on.
	if summary.Failed+summary.Errors > 0 {
		fmt.Fprintln(os.Stderr, "some checks did not pass (see report above)")
	}
	return nil
}
