package engine

import "strconv"

// Canonical descriptor keys. The vocabulary is fixed: every credential
// source (override, explicit files, session, spreadsheet, env file,
// fallback) normalizes into these keys before an engine is built.
const (
	KeyType     = "DB_TYPE"
	KeyHost     = "DB_HOST"
	KeyPort     = "DB_PORT"
	KeyDatabase = "DB_DATABASE"
	KeyUsername = "GX_USERNAME"
	KeyPassword = "GX_PASSWORD"
	KeyJDBCURL  = "JDBC_URL"
)

// Descriptor is the normalized key-value bundle sufficient to construct a
// database connection. It may carry extra keys beyond the canonical
// vocabulary (e.g. arbitrary key=value rows read from a credential sheet);
// BuildURL only consults the keys it needs.
type Descriptor map[string]string

// String returns the value for key, or def when the key is absent or empty.
func (d Descriptor) String(key, def string) string {
	if v, ok := d[key]; ok && v != "" {
		return v
	}
	return def
}

// Int returns the value for key parsed as a decimal integer, or def when
// the key is absent or does not parse.
func (d Descriptor) Int(key string, def int) int {
	if v, ok := d[key]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// Clone returns an independent copy of d.
func (d Descriptor) Clone() Descriptor {
	out := make(Descriptor, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge copies every key from other into d, overwriting on conflict.
// Callers use it to apply "later file wins" semantics at the key level.
func (d Descriptor) Merge(other Descriptor) {
	for k, v := range other {
		d[k] = v
	}
}
