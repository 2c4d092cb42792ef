package bibparse

import "strings"

// delimited returns the text between the opening delimiter under the cursor
// and the first unescaped closing delimiter at depth 0. Content is returned
// verbatim. Quoted values pass nest=false since braces do not nest there.
func (p *parser) delimited(closing byte, nest bool) (string, error) {
	open := p.pos
	p.pos++
	start := p.pos
	depth := 0
	for ; p.pos < len(p.input); p.pos++ {
		c := p.input[p.pos]
		switch {
		case nest && c == LBRACE:
			depth++
		case c == closing && p.input[p.pos-1] != BACKSLASH:
			if depth > 0 {
				depth--
				continue
			}
			val := p.input[start:p.pos]
			p.pos++
			p.skipWhitespace()
			return val, nil
		}
	}
	return "", p.errorAt(open, UnterminatedValue, string(closing))
}

// singleValue reads one braced, quoted or bare value.
func (p *parser) singleValue() (string, error) {
	switch {
	case p.tryMatch("{"):
		return p.delimited(RBRACE, true)
	case p.tryMatch(`"`):
		return p.delimited(QUOTE, false)
	}
	start := p.pos
	k, err := p.key()
	if err != nil {
		return "", err
	}
	if v, ok := p.macros[k]; ok {
		return v, nil
	}
	if isNumber(k) {
		return k, nil
	}
	return "", p.errorAt(start, UndefinedReference, k)
}

// value reads a #-concatenation of single values.
func (p *parser) value() (string, error) {
	first, err := p.singleValue()
	if err != nil {
		return "", err
	}
	if !p.tryMatch("#") {
		return first, nil
	}
	var sb strings.Builder
	sb.WriteString(first)
	for p.tryMatch("#") {
		if err := p.match("#"); err != nil {
			return "", err
		}
		v, err := p.singleValue()
		if err != nil {
			return "", err
		}
		sb.WriteString(v)
	}
	return sb.String(), nil
}

// keyEqualsValue reads `name = value`.
func (p *parser) keyEqualsValue() (string, string, error) {
	k, err := p.key()
	if err != nil {
		return "", "", err
	}
	if err := p.match("="); err != nil {
		return "", "", err
	}
	v, err := p.value()
	if err != nil {
		return "", "", err
	}
	return k, v, nil
}
