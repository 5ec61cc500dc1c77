// Package engine turns a credential Descriptor into a live database handle.
//
// Connection construction is eager: Connect opens *and pings* the target so
// that a bad credential set fails at the call site instead of at first query
// time. The returned Engine is a thin wrapper over *sql.DB; it adds nothing
// beyond driver bookkeeping and a log-safe DSN.
package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DSACMS/npd-plainerflow/internal/redact"
)

// Engine owns a database/sql handle created from a Descriptor or a raw
// connection URL. Lifetime ends with Close (or process teardown); callers
// that received an Engine from a resolver treat it as borrowed.
type Engine struct {
	db          *sql.DB
	driver      string
	redactedDSN string
}

// Connect builds a DSN from d, opens the matching driver, and verifies the
// connection with a ping. On any failure the partially opened handle is
// closed and an error is returned; error text only ever contains the
// redacted DSN.
func Connect(ctx context.Context, d Descriptor) (*Engine, error) {
	driver, dsn, err := BuildURL(d)
	if err != nil {
		return nil, err
	}
	return open(ctx, driver, dsn)
}

// ConnectURL is Connect for callers that already hold a full connection URL
// (e.g. one extracted from an in-process compute session). The driver is
// inferred from the URL scheme.
func ConnectURL(ctx context.Context, rawURL string) (*Engine, error) {
	driver, dsn, err := driverForURL(rawURL)
	if err != nil {
		return nil, err
	}
	return open(ctx, driver, dsn)
}

func open(ctx context.Context, driver, dsn string) (*Engine, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s (%s): %w", driver, redact.URL(dsn), err)
	}
	return &Engine{db: db, driver: driver, redactedDSN: redact.URL(dsn)}, nil
}

// Driver returns the database/sql driver name backing this engine.
func (e *Engine) Driver() string { return e.driver }

// RedactedDSN returns the connection string with any password replaced by a
// fingerprint. Safe to log.
func (e *Engine) RedactedDSN() string { return e.redactedDSN }

// DB exposes the underlying *sql.DB for callers that need the raw handle.
func (e *Engine) DB() *sql.DB { return e.db }

// Exec runs a statement without returning rows.
func (e *Engine) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return e.db.ExecContext(ctx, query, args...)
}

// Query runs a query returning rows.
func (e *Engine) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return e.db.QueryContext(ctx, query, args...)
}

// QueryRow runs a query expected to return at most one row.
func (e *Engine) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return e.db.QueryRowContext(ctx, query, args...)
}

// Begin starts a transaction with default options.
func (e *Engine) Begin(ctx context.Context) (*sql.Tx, error) {
	return e.db.BeginTx(ctx, nil)
}

// Close releases the underlying handle.
func (e *Engine) Close() error { return e.db.Close() }
