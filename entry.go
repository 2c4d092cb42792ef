package bibparse

import (
	"maps"
	"slices"
)

// Fields maps uppercase field names to resolved values.
type Fields map[string]string

// Names returns the field names in ascending order.
func (f Fields) Names() []string {
	return slices.Sorted(maps.Keys(f))
}

// Entry is one parsed record. The entry type (ARTICLE, BOOK...) is not kept.
type Entry struct {
	Key    string // uppercase citation key
	Fields Fields
	Line   int // line of the citation key
}

// Field returns the value of the named field or "" if absent.
func (e *Entry) Field(name string) string {
	return e.Fields[name]
}

// Entries maps citation keys to entries. A later entry with the same key
// replaces the earlier one.
type Entries map[string]*Entry

func (es Entries) add(e *Entry) {
	es[e.Key] = e
}

// Keys returns the citation keys in ascending order.
func (es Entries) Keys() []string {
	return slices.Sorted(maps.Keys(es))
}

// Map returns the plain key -> field -> value form of the collection.
func (es Entries) Map() map[string]map[string]string {
	m := make(map[string]map[string]string, len(es))
	for k, e := range es {
		m[k] = maps.Clone(map[string]string(e.Fields))
	}
	return m
}
