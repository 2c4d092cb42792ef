package bibparse

import "strings"

// isKeyChar reports membership in [A-Za-z0-9_:./-].
func isKeyChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '_', c == ':', c == '.', c == '/', c == '-':
		return true
	}
	return false
}

// key reads a run of key characters starting exactly at the cursor and
// returns it uppercased. A run that reaches end of input is a RunawayKey: some
// literal must always follow a key.
func (p *parser) key() (string, error) {
	start := p.pos
	for {
		if p.eof() {
			return "", p.errorAt(start, RunawayKey, "")
		}
		if !isKeyChar(p.input[p.pos]) {
			return strings.ToUpper(p.input[start:p.pos]), nil
		}
		p.pos++
	}
}

// isNumber reports whether s is one or more ASCII digits.
func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
