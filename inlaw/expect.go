package inlaw

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DSACMS/npd-plainerflow/engine"
)

// Expectation helpers: each runs a query and returns nil, a *FailError
// when the expectation does not hold, or a plain error when the query
// itself broke. They are the building blocks checks are written from.

// ExpectScalarBetween runs query (which must return a single numeric
// value) and fails unless min <= value <= max. A NULL result is a failure,
// not an error: an absent metric is a broken expectation.
func ExpectScalarBetween(ctx context.Context, e *engine.Engine, query string, min, max float64) error {
	var v sql.NullFloat64
	if err := e.QueryRow(ctx, query).Scan(&v); err != nil {
		return fmt.Errorf("scalar query: %w", err)
	}
	if !v.Valid {
		return Failf("query returned NULL, expected a value in [%g, %g]", min, max)
	}
	if v.Float64 < min || v.Float64 > max {
		return Failf("value %g outside expected range [%g, %g]", v.Float64, min, max)
	}
	return nil
}

// ExpectRowCountBetween fails unless table's row count is within
// [min, max]. The table argument is interpolated verbatim; pass a
// dbtable.DBTable's String() for a qualified name.
func ExpectRowCountBetween(ctx context.Context, e *engine.Engine, table string, min, max int64) error {
	var n int64
	if err := e.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return fmt.Errorf("count %s: %w", table, err)
	}
	if n < min || n > max {
		return Failf("%s has %d rows, expected between %d and %d", table, n, min, max)
	}
	return nil
}

// ExpectNoRows fails if query returns any row. Use it for "no orphans",
// "no duplicates", "no future dates" style assertions where the query
// selects the offending rows.
func ExpectNoRows(ctx context.Context, e *engine.Engine, query string) error {
	rows, err := e.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("probe query: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		return Fail("query returned rows, expected none")
	}
	return rows.Err()
}

// ExpectColumnNonNull fails if table.column contains any NULL.
func ExpectColumnNonNull(ctx context.Context, e *engine.Engine, table, column string) error {
	var n int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL", table, column)
	if err := e.QueryRow(ctx, q).Scan(&n); err != nil {
		return fmt.Errorf("null count %s.%s: %w", table, column, err)
	}
	if n > 0 {
		return Failf("%s.%s has %d NULL value(s)", table, column, n)
	}
	return nil
}

// ExpectColumnValuesUnique fails if table.column contains duplicates
// (NULLs excluded).
func ExpectColumnValuesUnique(ctx context.Context, e *engine.Engine, table, column string) error {
	var total, distinct int64
	q := fmt.Sprintf(
		"SELECT COUNT(%[2]s), COUNT(DISTINCT %[2]s) FROM %[1]s WHERE %[2]s IS NOT NULL",
		table, column)
	if err := e.QueryRow(ctx, q).Scan(&total, &distinct); err != nil {
		return fmt.Errorf("uniqueness %s.%s: %w", table, column, err)
	}
	if total != distinct {
		return Failf("%s.%s has %d duplicate value(s)", table, column, total-distinct)
	}
	return nil
}
