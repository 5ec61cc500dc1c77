package engine

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildURL maps a Descriptor onto a registered database/sql driver name and
// its DSN. DB_TYPE selects the dialect; when absent it defaults to MYSQL to
// match the historical behavior of the credential files this library reads.
//
// SQLITE needs only DB_DATABASE (the file path; host/port/user are ignored).
// DATABRICKS expects a ready-made connection URL in JDBC_URL. Every other
// dialect requires the full five-key credential set, and a missing key is
// reported by name rather than surfacing later as a cryptic dial error.
func BuildURL(d Descriptor) (driver, dsn string, err error) {
	dbType := strings.ToUpper(d.String(KeyType, "MYSQL"))

	switch dbType {
	case "DATABRICKS":
		jdbc := d.String(KeyJDBCURL, "")
		if jdbc == "" {
			return "", "", fmt.Errorf("missing %s for DATABRICKS connection", KeyJDBCURL)
		}
		return driverForURL(jdbc)

	case "SQLITE":
		path := d.String(KeyDatabase, "plainerflow.db")
		return "sqlite", path, nil
	}

	if missing := missingKeys(d, KeyUsername, KeyPassword, KeyHost, KeyPort, KeyDatabase); len(missing) > 0 {
		return "", "", fmt.Errorf("missing required database credential(s): %s", strings.Join(missing, ", "))
	}

	user := d[KeyUsername]
	pass := d[KeyPassword]
	host := d[KeyHost]
	port := d[KeyPort]
	name := d[KeyDatabase]

	switch dbType {
	case "POSTGRESQL", "POSTGRES":
		return "pgx", fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
			url.QueryEscape(user), url.QueryEscape(pass), host, port, name), nil
	case "MYSQL":
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", user, pass, host, port, name), nil
	case "MSSQL", "SQLSERVER":
		return "sqlserver", fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			url.QueryEscape(user), url.QueryEscape(pass), host, port, url.QueryEscape(name)), nil
	default:
		return "", "", fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
}

// driverForURL picks a registered driver from a connection URL's scheme.
// Session-provided URLs arrive pre-built, so the scheme is the only hint.
func driverForURL(raw string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return "pgx", raw, nil
	case strings.HasPrefix(raw, "sqlserver://"):
		return "sqlserver", raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		return "sqlite", strings.TrimPrefix(raw, "sqlite://"), nil
	case strings.HasPrefix(raw, "mysql://"):
		u, perr := url.Parse(raw)
		if perr != nil {
			return "", "", fmt.Errorf("parse mysql URL: %w", perr)
		}
		pass, _ := u.User.Password()
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s)/%s",
			u.User.Username(), pass, u.Host, strings.TrimPrefix(u.Path, "/")), nil
	default:
		return "", "", fmt.Errorf("unsupported connection URL scheme in %q", redactSchemeHint(raw))
	}
}

// redactSchemeHint trims a URL down to its scheme for error messages so an
// unparseable DSN never leaks credentials into logs.
func redactSchemeHint(raw string) string {
	if scheme, _, ok := strings.Cut(raw, "://"); ok {
		return scheme + "://…"
	}
	if len(raw) > 16 {
		return raw[:16] + "…"
	}
	return raw
}

// missingKeys returns the subset of keys that are absent or empty in d.
func missingKeys(d Descriptor, keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if d.String(k, "") == "" {
			missing = append(missing, k)
		}
	}
	return missing
}
