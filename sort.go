package bibparse

import (
	"cmp"
	"slices"
	"strconv"
)

const (
	Missing = 1<<32 - 1
)

// year returns the numeric YEAR of e, or Missing.
func year(e *Entry) int {
	y, err := strconv.Atoi(e.Field("YEAR"))
	if err != nil {
		return Missing
	}
	return y
}

// SortByYear returns the entries newest first. Entries without a numeric
// YEAR come before all others. Equal years are ordered by key.
func SortByYear(entries Entries) []*Entry {
	recs := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		recs = append(recs, e)
	}
	slices.SortFunc(recs, func(a, b *Entry) int {
		if c := cmp.Compare(year(b), year(a)); c != 0 { // descending
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return recs
}
