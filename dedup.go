package bibparse

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/samber/lo"
)

type SetActionType int8

const (
	SetNoAction SetActionType = iota
	// SetIntersect keeps the first record of every duplicate set.
	SetIntersect
	// SetUnion keeps the first record of every set, duplicated or not.
	SetUnion
)

// ParseSetAction maps "none", "intersect" and "union" to their action.
func ParseSetAction(s string) (SetActionType, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return SetNoAction, nil
	case "intersect":
		return SetIntersect, nil
	case "union":
		return SetUnion, nil
	}
	return SetNoAction, fmt.Errorf("invalid set action %q", s)
}

// CiteKeyField names the citation key in a Deduplicate field list.
const CiteKeyField = "citekey"

// File is a named collection, typically the entries parsed from one source.
type File struct {
	Name    string
	Entries Entries
}

type NodeInfo struct {
	Node   *Entry
	Parent *File
}

type DedupMap = map[string][]NodeInfo

type DedupReport struct {
	DuplicateSetCount int
	DuplicateSet      DedupMap
	ResultSetCount    int
}

func (dr *DedupReport) Print(w io.Writer) (err error) {
	if dr == nil || dr.DuplicateSetCount == 0 {
		return nil
	}
	if _, err = fmt.Fprintf(w, "%d duplicate sets found\n", dr.DuplicateSetCount); err != nil {
		return err
	}
	terms := lo.Keys(dr.DuplicateSet)
	slices.Sort(terms)
	for _, idxTerm := range terms {
		nodes := dr.DuplicateSet[idxTerm]
		if len(nodes) < 2 {
			continue
		}
		if _, err = fmt.Fprintf(w, "%s\n[%s] has %d occurrences\n", strings.Repeat("*", 60), idxTerm, len(nodes)); err != nil {
			return err
		}
		for _, n := range nodes {
			if _, err = fmt.Fprintf(w, "%s:%d %s\n", n.Parent.Name, n.Node.Line, n.Node.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (dr DedupReport) String() string {
	var b = new(bytes.Buffer)
	if err := dr.Print(b); err != nil {
		b.WriteString("error: " + err.Error())
	}
	return b.String()
}

// indexEntry returns the concatenated values of the named fields reduced to
// lowercase ASCII letters and digits.
func indexEntry(rec *Entry, fldNames []string) string {
	var sb strings.Builder
	for _, fldname := range fldNames {
		sb.WriteString(rec.Field(strings.ToUpper(fldname)))
	}
	return foldTerm(sb.String())
}

// Deduplicate groups the records of one or more files by the concatenated
// values of fldNames. With no field names, or when fldNames contains
// "citekey", the citation key is part of the index term. With SetNoAction
// only the report is returned.
func Deduplicate(files []*File, fldNames []string, action SetActionType) (Entries, *DedupReport, error) {
	total := 0
	for _, f := range files {
		total += len(f.Entries)
	}
	if total == 0 {
		return nil, nil, fmt.Errorf("nothing to deduplicate")
	}
	if action != SetNoAction && action != SetIntersect && action != SetUnion {
		return nil, nil, fmt.Errorf("invalid set action")
	}
	fields := lo.Reject(fldNames, func(s string, _ int) bool { return strings.EqualFold(s, CiteKeyField) })
	citekey := len(fields) == 0 || len(fields) != len(fldNames)

	dupSet := make(DedupMap, total)
	var order []string // first-seen order of index terms
	for _, f := range files {
		for _, k := range f.Entries.Keys() {
			rec := f.Entries[k]
			idx := indexEntry(rec, fields)
			if citekey {
				idx = idx + rec.Key
			}
			if _, seen := dupSet[idx]; !seen {
				order = append(order, idx)
			}
			dupSet[idx] = append(dupSet[idx], NodeInfo{rec, f})
		}
	}
	duplicateSets := 0
	for _, nodes := range dupSet {
		if len(nodes) > 1 {
			duplicateSets++
		}
	}
	dr := &DedupReport{DuplicateSetCount: duplicateSets, DuplicateSet: dupSet}
	if action == SetNoAction {
		return nil, dr, nil
	}
	if action == SetIntersect && duplicateSets == 0 {
		return nil, nil, fmt.Errorf("no common records")
	}
	res := make(Entries)
	for _, idx := range order {
		recs := dupSet[idx]
		if action == SetIntersect && len(recs) < 2 {
			continue
		}
		if _, taken := res[recs[0].Node.Key]; taken {
			continue // first record with a citation key wins
		}
		res.add(recs[0].Node)
		dr.ResultSetCount++
	}
	return res, dr, nil
}

// ValidKeys reports whether no citation key occurs in more than one file.
func ValidKeys(files ...*File) bool {
	_, dr, err := Deduplicate(files, nil, SetNoAction)
	if err != nil {
		return true // only error is nothing to deduplicate
	}
	return dr.DuplicateSetCount == 0
}
