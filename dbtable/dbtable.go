// Package dbtable provides a flexible database table identifier spanning
// the hierarchy catalog → database → schema → table/view, so pipeline SQL
// can interpolate fully qualified names without caring which dialect's
// subset of the hierarchy is in play.
//
// A MySQL-style name uses two levels (database.table), PostgreSQL three
// (database.schema.table), Databricks three with a catalog on top
// (catalog.database.table). At least two levels are always required; a
// one-level name is almost certainly a bug in pipeline code.
package dbtable

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/DSACMS/npd-plainerflow/engine"
)

// Name rules: start with a letter; then letters, digits, underscore, dash.
var nameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

const maxNameLen = 60

// ValidationError reports a single name that failed validation.
type ValidationError struct {
	Level  string // hierarchy level ("schema", "table", "suffix", ...)
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s name %q is invalid: %s", e.Level, e.Name, e.Reason)
}

// HierarchyError reports a structurally invalid combination of levels.
type HierarchyError struct {
	Reason string
}

func (e *HierarchyError) Error() string {
	return "invalid table hierarchy: " + e.Reason
}

// Parts names the hierarchy levels for New. Leave unused levels empty.
// Table and View occupy the same level and are mutually exclusive.
type Parts struct {
	Catalog  string
	Database string
	Schema   string
	Table    string
	View     string
}

// DBTable is a validated, immutable table identifier.
type DBTable struct {
	catalog  string
	database string
	schema   string
	table    string
	view     string
}

// New validates p and returns the identifier. At least two distinct
// hierarchy levels must be set, and every provided name must pass the
// naming rules.
func New(p Parts) (*DBTable, error) {
	if p.Table != "" && p.View != "" {
		return nil, &HierarchyError{Reason: "table and view are the same level; provide only one"}
	}

	levels := []struct {
		level string
		name  string
	}{
		{"catalog", p.Catalog},
		{"database", p.Database},
		{"schema", p.Schema},
		{"table", p.Table},
		{"view", p.View},
	}
	provided := 0
	for _, l := range levels {
		if l.name == "" {
			continue
		}
		provided++
		if err := validateName(l.name, l.level); err != nil {
			return nil, err
		}
	}
	if provided < 2 {
		return nil, &HierarchyError{
			Reason: fmt.Sprintf("at least 2 hierarchy levels required, got %d", provided),
		}
	}

	return &DBTable{
		catalog:  p.Catalog,
		database: p.Database,
		schema:   p.Schema,
		table:    p.Table,
		view:     p.View,
	}, nil
}

func validateName(name, level string) error {
	if len(name) > maxNameLen {
		return &ValidationError{Level: level, Name: name,
			Reason: fmt.Sprintf("exceeds %d character limit (got %d)", maxNameLen, len(name))}
	}
	if !nameRe.MatchString(name) {
		return &ValidationError{Level: level, Name: name,
			Reason: "must start with a letter and contain only letters, digits, underscores, and dashes"}
	}
	return nil
}

// Catalog returns the catalog level ("" when unset).
func (t *DBTable) Catalog() string { return t.catalog }

// Database returns the database level ("" when unset).
func (t *DBTable) Database() string { return t.database }

// Schema returns the schema level ("" when unset).
func (t *DBTable) Schema() string { return t.schema }

// Table returns the table level ("" when unset).
func (t *DBTable) Table() string { return t.table }

// View returns the view level ("" when unset).
func (t *DBTable) View() string { return t.view }

// String renders the fully qualified dot-joined name in hierarchy order,
// ready for interpolation into SQL.
func (t *DBTable) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{t.catalog, t.database, t.schema, t.table, t.view} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// MakeChild returns a new identifier with "_suffix" appended to the
// table/view name, keeping every other level. Leading underscores on the
// suffix are stripped first so callers can pass either "_stage" or "stage".
func (t *DBTable) MakeChild(suffix string) (*DBTable, error) {
	suffix = strings.TrimLeft(suffix, "_")
	if err := validateName(suffix, "suffix"); err != nil {
		return nil, err
	}

	child := *t
	switch {
	case t.table != "":
		child.table = t.table + "_" + suffix
		if err := validateName(child.table, "table"); err != nil {
			return nil, err
		}
	case t.view != "":
		child.view = t.view + "_" + suffix
		if err := validateName(child.view, "view"); err != nil {
			return nil, err
		}
	default:
		return nil, &HierarchyError{Reason: "cannot make child: no table or view name defined"}
	}
	return &child, nil
}

// Columns reflects the column names of the identified table by running a
// zero-row SELECT against e. It is the lightweight stand-in for full ORM
// reflection: enough for pipelines that want to assert shape.
func (t *DBTable) Columns(ctx context.Context, e *engine.Engine) ([]string, error) {
	if t.table == "" && t.view == "" {
		return nil, &HierarchyError{Reason: "cannot reflect columns: no table or view name defined"}
	}
	rows, err := e.Query(ctx, "SELECT * FROM "+t.String()+" WHERE 1=0")
	if err != nil {
		return nil, fmt.Errorf("reflect %s: %w", t.String(), err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reflect %s: %w", t.String(), err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reflect %s: %w", t.String(), err)
	}
	return cols, nil
}
