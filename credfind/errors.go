package credfind

import "errors"

// Sentinel errors for every way resolution can fail. Each fatal outcome
// wraps exactly one of these, so callers can classify with errors.Is
// instead of string matching.
//
// The split matters: a tier whose applicability check failed is simply
// skipped, but a tier that was detected and then could not produce a
// working connection surfaces one of these and stops the chain. Real
// misconfiguration must never be masked as mere unavailability.
var (
	// ErrOverrideUnwritable: the caller forced a SQLite file and its path
	// cannot be created or opened.
	ErrOverrideUnwritable = errors.New("sqlite override path is not usable")

	// ErrExplicitInvalid: explicit config files were supplied but could not
	// be loaded, or the merged credentials could not build a connection.
	// Explicit input is authoritative; this never falls through to
	// auto-detection.
	ErrExplicitInvalid = errors.New("explicit config files did not yield a working connection")

	// ErrSessionBroken: an in-process compute session was detected but its
	// connection URL is missing support or unusable.
	ErrSessionBroken = errors.New("compute session detected but connection failed")

	// ErrSheetBroken: a linked credential sheet was detected but could not
	// be read.
	ErrSheetBroken = errors.New("credential sheet detected but unreadable")

	// ErrSheetRowLimit: the credential sheet parsed, but with more rows
	// than the hard cap. Exceeding the cap fails rather than truncates so a
	// malformed credential set is never silently half-loaded.
	ErrSheetRowLimit = errors.New("credential sheet exceeds row limit")

	// ErrEnvIncomplete: an env file exists but is unparseable, is missing
	// required keys, or its credentials cannot build a connection. A
	// present-but-broken file hard-fails; only an absent file falls
	// through.
	ErrEnvIncomplete = errors.New("env file present but unusable")

	// ErrFallbackUnwritable: the local SQLite fallback could not be
	// created. This is the only way an auto-detecting Resolve can fail
	// when no higher tier was detected.
	ErrFallbackUnwritable = errors.New("fallback sqlite path is not writable")
)
