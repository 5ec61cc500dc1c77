package redact

import (
	"strings"
	"testing"
)

// TestFingerprint
// The fingerprint must be stable for equal inputs, distinct for different
// inputs, carry the xxh3 prefix, and never echo the raw value.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := Fingerprint("hunter2")
	b := Fingerprint("hunter2")
	c := Fingerprint("hunter3")

	if a != b {
		t.Fatalf("fingerprint not stable: %q vs %q", a, b)
	}
	if a == c {
		t.Fatalf("distinct inputs collided: %q", a)
	}
	if !strings.HasPrefix(a, "xxh3:") {
		t.Fatalf("missing xxh3 prefix: %q", a)
	}
	if strings.Contains(a, "hunter2") {
		t.Fatalf("fingerprint leaks raw value: %q", a)
	}
	if got := Fingerprint(""); got != "" {
		t.Fatalf("Fingerprint(\"\")=%q; want empty", got)
	}
}

/*
TestURL verifies password redaction across DSN shapes:
 1. URL-style DSNs (postgres://),
 2. mysql-style DSNs (user:pass@tcp(...)),
 3. DSNs without credentials pass through unchanged.
*/
func TestURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dsn     string
		keeps   string // substring that must survive
		redacts string // substring that must disappear
	}{
		{"postgres url", "postgres://alice:s3cret@db:5432/etl", "alice", "s3cret"},
		{"mysql dsn", "alice:s3cret@tcp(db:3306)/etl", "tcp(db:3306)", "s3cret"},
		{"password with at sign", "postgres://alice:p@ss@db:5432/etl", "db:5432", "p@ss"},
		{"no credentials", "sqlite:///tmp/x.db", "sqlite:///tmp/x.db", ""},
		{"bare path", "/tmp/plain.db", "/tmp/plain.db", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := URL(tc.dsn)
			if !strings.Contains(got, tc.keeps) {
				t.Fatalf("URL(%q)=%q; want it to keep %q", tc.dsn, got, tc.keeps)
			}
			if tc.redacts != "" && strings.Contains(got, tc.redacts) {
				t.Fatalf("URL(%q)=%q; must not contain %q", tc.dsn, got, tc.redacts)
			}
		})
	}
}
