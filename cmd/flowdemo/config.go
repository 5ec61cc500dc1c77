package main

import (
	"flag"
	"os"
)

// Config holds flowdemo's process configuration, sourced from flags with
// environment-variable fallbacks. All fields are plain values so the
// struct can be copied freely after construction.
type Config struct {
	SQLiteDB    string // Force SQLite at this path (bypasses detection).
	EnvPath     string // Env-file tier location.
	ConfigFiles string // Comma-separated explicit credential files.
	SheetURL    string // CSV export URL of a linked credential sheet.
	Worksheet   string // Credential worksheet name.
	DryRun      bool   // Print SQL without executing.
	Verbose     bool   // One-line resolver trace.
	Checks      bool   // Run validation checks after the loop.
}

// LoadFromArgs builds a Config by defining flags on fs, seeding each
// default from getenv, and parsing args. Tests supply a private FlagSet
// and a map-backed getenv to stay hermetic.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	cfg := &Config{}

	envOrDefaultFn := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}

	fs.StringVar(&cfg.SQLiteDB, "sqlite_db", getenv("SQLITE_DB"), "Force SQLite at this path")
	fs.StringVar(&cfg.EnvPath, "env_path", envOrDefaultFn("ENV_PATH", ".env"), "Env-file location (empty disables the tier)")
	fs.StringVar(&cfg.ConfigFiles, "config_files", getenv("CONFIG_FILES"), "Comma-separated explicit credential files")
	fs.StringVar(&cfg.SheetURL, "sheet_url", getenv("SHEET_URL"), "CSV export URL of a linked credential sheet")
	fs.StringVar(&cfg.Worksheet, "worksheet", envOrDefaultFn("WORKSHEET", "DatawarehouseUP"), "Credential worksheet name")
	fs.BoolVar(&cfg.DryRun, "dry_run", false, "Print SQL without executing")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Trace the selected credential source")
	fs.BoolVar(&cfg.Checks, "checks", true, "Run validation checks after the loop")

	if args == nil {
		args = []string{}
	}
	_ = fs.Parse(args)
	return cfg
}

// Load is the production entry point: process flag set, real environment,
// real arguments.
func Load() *Config {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}
