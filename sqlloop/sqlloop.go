// Package sqlloop runs an ordered collection of SQL statements against an
// engine, with a dry-run mode that prints what would execute. It is
// deliberately thin: one transaction, statements in insertion order, every
// driver error propagated to the caller untouched. No retries, no partial
// recovery.
package sqlloop

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/DSACMS/npd-plainerflow/engine"
	"github.com/DSACMS/npd-plainerflow/frostdict"
	"github.com/DSACMS/npd-plainerflow/internal/redact"
)

// Options tunes a single Run.
type Options struct {
	// DryRun prints every statement without executing anything.
	DryRun bool
	// Out receives the human-readable loop banners and statements
	// (default os.Stdout).
	Out io.Writer
	// Logger receives a structured trace per executed statement
	// (default no-op). SQL text is logged as an xxh3 fingerprint so
	// statements embedding literals never leak into structured logs.
	Logger *zap.Logger
}

// Run executes every statement in stmts, in insertion order, inside a
// single transaction. In dry-run mode nothing touches the database. The
// first failing statement aborts the loop; the transaction is rolled back
// and the driver error is returned wrapped with the statement's name.
func Run(ctx context.Context, stmts *frostdict.FrostDict[string], e *engine.Engine, opts Options) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if opts.DryRun {
		fmt.Fprintln(out, "===== DRY-RUN MODE – NO SQL WILL BE EXECUTED =====")
	} else {
		fmt.Fprintln(out, "===== EXECUTING SQL LOOP =====")
	}

	stmts.Range(func(name, sql string) bool {
		fmt.Fprintf(out, "▶ %s: %s\n", name, sql)
		return true
	})

	if !opts.DryRun && stmts.Len() > 0 {
		if err := runAll(ctx, stmts, e, log); err != nil {
			return err
		}
	}

	if opts.DryRun {
		fmt.Fprintln(out, "===== I AM NOT RUNNING SQL =====")
	} else {
		fmt.Fprintln(out, "===== SQL LOOP COMPLETE =====")
	}
	return nil
}

func runAll(ctx context.Context, stmts *frostdict.FrostDict[string], e *engine.Engine, log *zap.Logger) error {
	tx, err := e.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin sql loop: %w", err)
	}
	defer tx.Rollback() // no-op once committed

	var runErr error
	stmts.Range(func(name, sql string) bool {
		if _, err := tx.ExecContext(ctx, sql); err != nil {
			runErr = fmt.Errorf("statement %q: %w", name, err)
			return false
		}
		log.Debug("executed statement",
			zap.String("name", name),
			zap.String("sql_xxh3", redact.Fingerprint(sql)),
		)
		return true
	})
	if runErr != nil {
		return runErr
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sql loop: %w", err)
	}
	return nil
}
