package bibparse

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultEntryType is written by Format when no type is given; parsing does
// not keep entry types.
const DefaultEntryType = "misc"

// Format writes entries as BibTeX in ascending key order with sorted fields.
func Format(w io.Writer, entries Entries, typ string) error {
	if typ == "" {
		typ = DefaultEntryType
	}
	bw := bufio.NewWriter(w)
	for i, k := range entries.Keys() {
		if i > 0 {
			bw.WriteByte('\n')
		}
		writeEntry(bw, entries[k], typ)
	}
	return bw.Flush()
}

func writeEntry(w *bufio.Writer, e *Entry, typ string) {
	fmt.Fprintf(w, "@%s{%s,\n", typ, e.Key)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(w, "  %s = %s,\n", name, delimit(e.Fields[name]))
	}
	w.WriteString("}\n")
}

// delimit wraps v in braces when they would parse back to v, and in quotes
// otherwise.
func delimit(v string) string {
	if balanced(v) {
		return "{" + v + "}"
	}
	return `"` + v + `"`
}

// balanced reports whether v could sit between braces, using the same rules as
// the value parser: an unescaped } at depth 0 would close the value early.
func balanced(v string) bool {
	depth := 0
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case LBRACE:
			depth++
		case RBRACE:
			if i > 0 && v[i-1] == BACKSLASH {
				continue
			}
			if depth == 0 {
				return false
			}
			depth--
		}
	}
	// a trailing backslash would escape the closing brace
	return depth == 0 && !strings.HasSuffix(v, `\`)
}
