// Package credfind discovers database credentials from the runtime
// environment and materializes a ready-to-use engine, so ad-hoc pipelines
// always have something to run against.
//
// Resolution is a strictly ordered, short-circuiting chain:
//
//  1. SQLite override file (used unconditionally when supplied)
//  2. Explicit config files (authoritative; failure never falls through)
//  3. Active in-process compute session with a pre-configured URL
//  4. Linked spreadsheet credential store
//  5. Conventional env file on disk
//  6. Local SQLite fallback (effectively infallible)
//
// Each auto-detected tier has a cheap, side-effect-free applicability check
// and a three-outcome result: not applicable (fall through), a descriptor
// (connect eagerly and return), or fatal. A tier that is detected but
// broken always stops the chain.
package credfind

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/file"
	"go.uber.org/zap"

	"github.com/DSACMS/npd-plainerflow/engine"
)

// Keys that must be present in an env file before it is considered usable.
// The check runs before DB_TYPE dispatch, matching the credential-file
// convention this library has always read.
var requiredEnvKeys = []string{
	engine.KeyUsername,
	engine.KeyPassword,
	engine.KeyDatabase,
	engine.KeyPort,
	engine.KeyHost,
}

// maxSheetRows caps the credential sheet size. Exceeding it is a hard
// failure, not a truncation.
const maxSheetRows = 10000

const (
	defaultEnvPath      = ".env"
	defaultWorksheet    = "DatawarehouseUP"
	defaultFallbackFile = "plainerflow_fallback.db"
)

// SourceKind tags which credential source produced a Resolved config.
type SourceKind int

const (
	SourceOverride SourceKind = iota
	SourceExplicit
	SourceSession
	SourceSpreadsheet
	SourceEnvFile
	SourceFallback
)

// String returns a short human-readable tier name for traces.
func (k SourceKind) String() string {
	switch k {
	case SourceOverride:
		return "sqlite-override"
	case SourceExplicit:
		return "explicit-files"
	case SourceSession:
		return "compute-session"
	case SourceSpreadsheet:
		return "credential-sheet"
	case SourceEnvFile:
		return "env-file"
	case SourceFallback:
		return "sqlite-fallback"
	default:
		return "unknown"
	}
}

// Resolved is the single result record of a successful resolution. It is
// immutable after construction; on failure Resolve returns an error and no
// Resolved at all, so a caller can never hold both a handle and an error.
type Resolved struct {
	Source     SourceKind
	Descriptor engine.Descriptor
	Engine     *engine.Engine
}

// SessionProbe reports whether an in-process distributed-compute session is
// active and, if so, the pre-configured connection URL extracted from its
// configuration. Returning detected=false (or an empty URL) lets resolution
// continue to the next tier; returning an error marks the session as
// detected-but-broken, which is fatal.
type SessionProbe func(ctx context.Context) (url string, detected bool, err error)

// SheetSource is a linked spreadsheet credential store. Linked must be
// cheap and side-effect-free; Rows may block for its natural network
// duration.
type SheetSource interface {
	// Linked reports whether a credential sheet is available at all.
	Linked(ctx context.Context) bool
	// Rows returns the worksheet contents, one key=value pair per row
	// (first cell key, second cell value).
	Rows(ctx context.Context, worksheet string) ([][]string, error)
}

// Finder holds the knobs for one resolution run. Construct with New; the
// zero value is not usable.
type Finder struct {
	sqliteFile   string
	configFiles  []string
	envPath      string
	worksheet    string
	fallbackPath string
	session      SessionProbe
	sheet        SheetSource
	verbose      bool
	log          *zap.Logger

	// Connection seams, swapped in tests for hermetic runs.
	connect    func(context.Context, engine.Descriptor) (*engine.Engine, error)
	connectURL func(context.Context, string) (*engine.Engine, error)
}

// Option configures a Finder.
type Option func(*Finder)

// WithSQLiteFile forces SQLite at the given path, bypassing every other
// source. The only possible failure is an unusable path.
func WithSQLiteFile(path string) Option {
	return func(f *Finder) { f.sqliteFile = path }
}

// WithConfigFiles supplies an ordered list of dotenv-style credential
// files. Later files win on key conflicts. Supplying any file makes the
// explicit tier authoritative: a load or connection failure is fatal and
// auto-detection is never attempted.
func WithConfigFiles(paths ...string) Option {
	return func(f *Finder) { f.configFiles = append([]string(nil), paths...) }
}

// WithEnvPath changes where the env-file tier looks (default ".env").
// An empty path disables the tier entirely.
func WithEnvPath(path string) Option {
	return func(f *Finder) { f.envPath = path }
}

// WithWorksheet names the credential worksheet to read in spreadsheet mode
// (default "DatawarehouseUP").
func WithWorksheet(name string) Option {
	return func(f *Finder) { f.worksheet = name }
}

// WithFallbackPath changes where the fallback tier places its SQLite file
// (default ~/plainerflow_fallback.db).
func WithFallbackPath(path string) Option {
	return func(f *Finder) { f.fallbackPath = path }
}

// WithSessionProbe injects the in-process session check. The default probe
// never detects a session, which keeps resolution hermetic when no compute
// runtime is linked in.
func WithSessionProbe(p SessionProbe) Option {
	return func(f *Finder) { f.session = p }
}

// WithSheetSource injects the spreadsheet credential store, typically an
// *HTTPSheet.
func WithSheetSource(s SheetSource) Option {
	return func(f *Finder) { f.sheet = s }
}

// WithVerbose enables a one-line trace naming the selected source tier.
// It has no effect on control flow.
func WithVerbose(v bool) Option {
	return func(f *Finder) { f.verbose = v }
}

// WithLogger sets the logger used for verbose traces (default is a no-op
// logger; with verbose and no logger, a development logger is built).
func WithLogger(l *zap.Logger) Option {
	return func(f *Finder) { f.log = l }
}

// New builds a Finder with the given options applied over defaults.
func New(opts ...Option) *Finder {
	f := &Finder{
		envPath:    defaultEnvPath,
		worksheet:  defaultWorksheet,
		connect:    engine.Connect,
		connectURL: engine.ConnectURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.fallbackPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		f.fallbackPath = filepath.Join(home, defaultFallbackFile)
	}
	if f.log == nil {
		if f.verbose {
			f.log = zap.Must(zap.NewDevelopment())
		} else {
			f.log = zap.NewNop()
		}
	}
	return f
}

// Resolve runs the chain once and returns the selected source, its
// descriptor, and an eagerly connected engine. It is synchronous and keeps
// no state between calls.
func (f *Finder) Resolve(ctx context.Context) (*Resolved, error) {
	if f.sqliteFile != "" {
		return f.resolveOverride(ctx)
	}
	if len(f.configFiles) > 0 {
		return f.resolveExplicit(ctx)
	}

	tiers := []struct {
		kind  SourceKind
		probe func(context.Context) (engine.Descriptor, error)
	}{
		{SourceSession, f.probeSession},
		{SourceSpreadsheet, f.probeSheet},
		{SourceEnvFile, f.probeEnvFile},
	}
	for _, t := range tiers {
		desc, err := t.probe(ctx)
		if err != nil {
			return nil, err
		}
		if desc == nil {
			continue // tier not applicable
		}
		eng, err := f.connectDesc(ctx, desc)
		if err != nil {
			// Detected but broken: fatal, never demote to a lower tier.
			return nil, fmt.Errorf("%w: %v", fatalFor(t.kind), err)
		}
		return f.finish(t.kind, desc, eng), nil
	}

	return f.resolveFallback(ctx)
}

// fatalFor maps an auto-detected tier onto its sentinel error.
func fatalFor(kind SourceKind) error {
	switch kind {
	case SourceSession:
		return ErrSessionBroken
	case SourceSpreadsheet:
		return ErrSheetBroken
	default:
		return ErrEnvIncomplete
	}
}

// connectDesc dispatches DATABRICKS descriptors (which carry a ready URL)
// to the URL seam and everything else to the descriptor seam.
func (f *Finder) connectDesc(ctx context.Context, desc engine.Descriptor) (*engine.Engine, error) {
	if strings.EqualFold(desc.String(engine.KeyType, ""), "DATABRICKS") {
		return f.connectURL(ctx, desc[engine.KeyJDBCURL])
	}
	return f.connect(ctx, desc)
}

func (f *Finder) finish(kind SourceKind, desc engine.Descriptor, eng *engine.Engine) *Resolved {
	if f.verbose {
		f.log.Info("credential source selected",
			zap.Stringer("tier", kind),
			zap.String("dsn", eng.RedactedDSN()),
		)
	}
	return &Resolved{Source: kind, Descriptor: desc, Engine: eng}
}

// resolveOverride implements the unconditional SQLite override tier.
func (f *Finder) resolveOverride(ctx context.Context) (*Resolved, error) {
	desc, err := sqliteDescriptor(f.sqliteFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOverrideUnwritable, err)
	}
	eng, err := f.connect(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOverrideUnwritable, err)
	}
	return f.finish(SourceOverride, desc, eng), nil
}

// resolveExplicit loads the ordered config files with key-level
// last-write-wins merging and connects with the merged descriptor. Any
// failure here is final by contract.
func (f *Finder) resolveExplicit(ctx context.Context) (*Resolved, error) {
	k := koanf.New(".")
	for _, p := range f.configFiles {
		path := expandHome(p)
		if fi, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: missing configuration file %s", ErrExplicitInvalid, path)
		} else if fi.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory, expected a file", ErrExplicitInvalid, path)
		}
		if err := k.Load(file.Provider(path), dotenv.Parser()); err != nil {
			return nil, fmt.Errorf("%w: load %s: %v", ErrExplicitInvalid, path, err)
		}
	}

	desc := engine.Descriptor{}
	for key, v := range k.All() {
		desc[key] = fmt.Sprint(v)
	}

	eng, err := f.connect(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExplicitInvalid, err)
	}
	return f.finish(SourceExplicit, desc, eng), nil
}

// probeSession checks for an active in-process compute session. An active
// session without a configured URL is treated as not applicable; a probe
// error is fatal.
func (f *Finder) probeSession(ctx context.Context) (engine.Descriptor, error) {
	if f.session == nil {
		return nil, nil
	}
	url, detected, err := f.session(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionBroken, err)
	}
	if !detected || url == "" {
		return nil, nil
	}
	return engine.Descriptor{
		engine.KeyType:    "DATABRICKS",
		engine.KeyJDBCURL: url,
	}, nil
}

// probeSheet reads the linked credential sheet, if any. Rows parse as
// key=value pairs (first cell, second cell). When the sheet carries a
// header row naming username/password/server/port/database columns, the
// first data row is also mapped onto the canonical credential keys.
func (f *Finder) probeSheet(ctx context.Context) (engine.Descriptor, error) {
	if f.sheet == nil || !f.sheet.Linked(ctx) {
		return nil, nil
	}
	rows, err := f.sheet.Rows(ctx, f.worksheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSheetBroken, err)
	}
	if len(rows) > maxSheetRows {
		return nil, fmt.Errorf("%w: sheet %q has %d rows (limit %d)",
			ErrSheetRowLimit, f.worksheet, len(rows), maxSheetRows)
	}

	desc := engine.Descriptor{}
	for _, row := range rows {
		if len(row) >= 2 {
			desc[row[0]] = row[1]
		}
	}
	mapHeaderRow(desc, rows)
	return desc, nil
}

// mapHeaderRow translates a sheet laid out as a header row plus one
// credential row into canonical descriptor keys.
func mapHeaderRow(desc engine.Descriptor, rows [][]string) {
	if len(rows) < 2 {
		return
	}
	idx := map[string]int{}
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, want := range []string{"username", "password", "server", "port", "database"} {
		if _, ok := idx[want]; !ok {
			return
		}
	}
	data := rows[1]
	cell := func(name string) string {
		i := idx[name]
		if i < len(data) {
			return data[i]
		}
		return ""
	}
	desc[engine.KeyUsername] = cell("username")
	desc[engine.KeyPassword] = cell("password")
	desc[engine.KeyHost] = cell("server")
	desc[engine.KeyPort] = cell("port")
	desc[engine.KeyDatabase] = cell("database")
	desc[engine.KeyType] = "MYSQL"
}

// probeEnvFile loads the conventional env file. Absence is the only
// non-fatal outcome; a file that exists but is unparseable or missing
// required keys hard-fails so misconfiguration stays visible.
func (f *Finder) probeEnvFile(context.Context) (engine.Descriptor, error) {
	if f.envPath == "" {
		return nil, nil
	}
	path := expandHome(f.envPath)
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrEnvIncomplete, path, err)
	}

	var missing []string
	for _, k := range requiredEnvKeys {
		if vals[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s is missing %s",
			ErrEnvIncomplete, path, strings.Join(missing, ", "))
	}

	desc := engine.Descriptor{}
	for k, v := range vals {
		desc[k] = v
	}
	return desc, nil
}

// resolveFallback builds the local SQLite fallback. Defined to never fail
// except on an unwritable filesystem.
func (f *Finder) resolveFallback(ctx context.Context) (*Resolved, error) {
	desc, err := sqliteDescriptor(f.fallbackPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFallbackUnwritable, err)
	}
	eng, err := f.connect(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFallbackUnwritable, err)
	}
	return f.finish(SourceFallback, desc, eng), nil
}

// sqliteDescriptor expands the path, ensures its parent directory exists,
// and returns a SQLITE descriptor for it.
func sqliteDescriptor(path string) (engine.Descriptor, error) {
	path = expandHome(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return engine.Descriptor{
		engine.KeyType:     "SQLITE",
		engine.KeyDatabase: path,
	}, nil
}

// expandHome rewrites a leading "~/" to the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
