package bibparse

import (
	"maps"
	"strings"
)

// Macros maps uppercase @STRING names to their values.
type Macros map[string]string

var months = [...]struct{ abbrev, name string }{
	{"JAN", "January"}, {"FEB", "February"}, {"MAR", "March"},
	{"APR", "April"}, {"MAY", "May"}, {"JUN", "June"},
	{"JUL", "July"}, {"AUG", "August"}, {"SEP", "September"},
	{"OCT", "October"}, {"NOV", "November"}, {"DEC", "December"},
}

// DefaultMacros returns a fresh table holding the twelve month abbreviations.
func DefaultMacros() Macros {
	m := make(Macros, len(months))
	for _, mo := range months {
		m[mo.abbrev] = mo.name
	}
	return m
}

// Set stores value under the uppercased name, replacing any earlier value.
func (m Macros) Set(name, value string) {
	m[strings.ToUpper(name)] = value
}

// Lookup is a case-insensitive read.
func (m Macros) Lookup(name string) (string, bool) {
	v, ok := m[strings.ToUpper(name)]
	return v, ok
}

// Clone returns an independent copy.
func (m Macros) Clone() Macros {
	return maps.Clone(m)
}
