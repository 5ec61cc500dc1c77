// Package frostdict provides an ordered, write-once string-keyed mapping
// for configuration values and SQL templates. Reads behave like a normal
// map; re-assigning an existing key is an error, which turns the classic
// copy-paste "two templates under one name" bug into an immediate, loud
// failure instead of a silently clobbered statement.
//
// Insertion order is preserved and is the iteration order, so a dict of
// SQL templates doubles as an execution plan.
package frostdict

import "fmt"

// FrozenKeyError is returned by Set when a key already exists.
type FrozenKeyError struct {
	Key string
}

func (e *FrozenKeyError) Error() string {
	return fmt.Sprintf("cannot reassign existing key %q", e.Key)
}

// FrostDict is an insertion-ordered mapping whose top-level keys can be
// written exactly once. Values themselves are not deep-frozen; a mutable
// value stays mutable.
type FrostDict[V any] struct {
	keys []string
	vals map[string]V
}

// New returns an empty FrostDict.
func New[V any]() *FrostDict[V] {
	return &FrostDict[V]{vals: make(map[string]V)}
}

// Set stores v under key. Setting a key that already exists returns a
// *FrozenKeyError and leaves the dict unchanged.
func (d *FrostDict[V]) Set(key string, v V) error {
	if _, exists := d.vals[key]; exists {
		return &FrozenKeyError{Key: key}
	}
	d.keys = append(d.keys, key)
	d.vals[key] = v
	return nil
}

// MustSet is Set for literal construction sites; it panics on a frozen key
// and returns the dict so calls can chain.
func (d *FrostDict[V]) MustSet(key string, v V) *FrostDict[V] {
	if err := d.Set(key, v); err != nil {
		panic(err)
	}
	return d
}

// Get returns the value for key, or the zero value when absent.
func (d *FrostDict[V]) Get(key string) V {
	return d.vals[key]
}

// Lookup returns the value for key and whether it was present.
func (d *FrostDict[V]) Lookup(key string) (V, bool) {
	v, ok := d.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (d *FrostDict[V]) Has(key string) bool {
	_, ok := d.vals[key]
	return ok
}

// Len returns the number of entries.
func (d *FrostDict[V]) Len() int { return len(d.keys) }

// Keys returns the keys in insertion order. The slice is a copy.
func (d *FrostDict[V]) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (d *FrostDict[V]) Range(fn func(key string, v V) bool) {
	for _, k := range d.keys {
		if !fn(k, d.vals[k]) {
			return
		}
	}
}
