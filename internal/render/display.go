package render

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/drgo/bibparse"
)

// Item is an entry prepared for display.
type Item struct {
	Key    string
	Fields bibparse.Fields
}

// Prepare orders entries newest first and rewrites their values for display:
// authors as "First Last", journal without backslashes, page ranges with a
// single hyphen, and LaTeX markup resolved by FixValue. Entries are not
// modified.
func Prepare(entries bibparse.Entries) ([]Item, error) {
	sorted := bibparse.SortByYear(entries)
	items := make([]Item, 0, len(sorted))
	for _, e := range sorted {
		fields := make(bibparse.Fields, len(e.Fields))
		for name, v := range e.Fields {
			switch name {
			case "AUTHOR":
				a, err := ReformatAuthors(v)
				if err != nil {
					return nil, fmt.Errorf("entry %s: %w", e.Key, err)
				}
				v = a
			case "JOURNAL":
				v = strings.ReplaceAll(v, `\`, "")
			case "PAGES":
				v = strings.ReplaceAll(v, "--", "-")
			}
			fields[name] = FixValue(v)
		}
		items = append(items, Item{Key: e.Key, Fields: fields})
	}
	return items, nil
}

const nbsp = "\u00a0"

var andSep = regexp.MustCompile(`\s+and\s+`)

// ReformatAuthors turns a BibTeX author list into "A", "A and B" or
// "A, B, and C", rewriting each "Last, First" as "First Last".
func ReformatAuthors(s string) (string, error) {
	parts := andSep.Split(strings.TrimSpace(s), -1)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		switch name := strings.Split(p, ","); len(name) {
		case 1:
			names = append(names, strings.TrimSpace(name[0]))
		case 2:
			names = append(names, strings.TrimSpace(name[1])+" "+strings.TrimSpace(name[0]))
		default:
			return "", fmt.Errorf("unable to parse author %q", p)
		}
	}
	switch len(names) {
	case 1:
		return names[0], nil
	case 2:
		return names[0] + " and " + names[1], nil
	}
	return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1], nil
}

// combining marks for LaTeX accent commands
var accents = map[string]rune{
	"`": '\u0300', "'": '\u0301', "^": '\u0302', "~": '\u0303',
	"=": '\u0304', "u": '\u0306', ".": '\u0307', `"`: '\u0308',
	"r": '\u030a', "H": '\u030b', "v": '\u030c', "d": '\u0323',
	"c": '\u0327', "k": '\u0328',
}

var (
	// \"a \"{a} \" a
	symbolAccent = regexp.MustCompile("\\\\([`'^~=.\"])\\s*(?:\\{([A-Za-z])\\}|([A-Za-z]))")
	// \c{c} \c c; a letter command needs braces or a space
	letterAccent = regexp.MustCompile(`\\([uvrHdck])(?:\{([A-Za-z])\}|\s+([A-Za-z]))`)
	// \ss \o{} \ae
	specialLetter = regexp.MustCompile(`\\(ss|ae|AE|oe|OE|o|O|l|L)(?:\{\}|\s|\b)`)
	glqq          = regexp.MustCompile(`\\glqq\s?`)
	grqq          = regexp.MustCompile(`\\grqq\s?`)
)

var specials = map[string]string{
	"ss": "ß", "ae": "æ", "AE": "Æ", "oe": "œ", "OE": "Œ",
	"o": "ø", "O": "Ø", "l": "ł", "L": "Ł",
}

func accent(re *regexp.Regexp) func(string) string {
	return func(m string) string {
		sub := re.FindStringSubmatch(m)
		letter := sub[2]
		if letter == "" {
			letter = sub[3]
		}
		return letter + string(accents[sub[1]])
	}
}

// FixValue renders LaTeX markup in a field value as plain Unicode text.
func FixValue(v string) string {
	v = glqq.ReplaceAllString(v, "„")
	v = grqq.ReplaceAllString(v, "”")
	v = strings.ReplaceAll(v, `\ `, nbsp)
	v = strings.ReplaceAll(v, `\url`, "")
	v = strings.ReplaceAll(v, "---", "—")
	v = strings.ReplaceAll(v, "--", "–")
	v = symbolAccent.ReplaceAllStringFunc(v, accent(symbolAccent))
	v = letterAccent.ReplaceAllStringFunc(v, accent(letterAccent))
	v = specialLetter.ReplaceAllStringFunc(v, func(m string) string {
		return specials[specialLetter.FindStringSubmatch(m)[1]]
	})
	return norm.NFC.String(stripBraces(v))
}

// stripBraces drops grouping braces, turns ~ into a no-break space and
// unescapes \{ \} \% \$ \& \# \_ and \~.
func stripBraces(v string) string {
	var sb strings.Builder
	sb.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == '\\' && i+1 < len(v) && strings.IndexByte(`{}%$&#_~`, v[i+1]) >= 0:
			i++
			sb.WriteByte(v[i])
		case c == '{' || c == '}':
		case c == '~':
			sb.WriteString(nbsp)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
