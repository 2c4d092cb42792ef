package bibparse

import (
	"strings"
)

// snippetLen bounds the input context carried by an Error.
const snippetLen = 40

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

// skipWhitespace consumes whitespace and %-comments, in any order, up to the
// next significant byte or the end of input.
func (p *parser) skipWhitespace() {
	for !p.eof() {
		switch c := p.input[p.pos]; {
		case isWhitespace(c):
			p.pos++
		case c == PERCENT:
			// a comment on the last line may lack its newline
			if i := strings.IndexByte(p.input[p.pos:], '\n'); i >= 0 {
				p.pos += i + 1
			} else {
				p.pos = len(p.input)
			}
		default:
			return
		}
	}
}

// tryMatch reports whether lit follows the skipped whitespace. It never
// consumes lit itself.
func (p *parser) tryMatch(lit string) bool {
	p.skipWhitespace()
	return strings.HasPrefix(p.input[p.pos:], lit)
}

// match requires lit at the next significant position and steps over it and
// any whitespace after it.
func (p *parser) match(lit string) error {
	if !p.tryMatch(lit) {
		return p.errorf(SyntaxError, lit)
	}
	p.pos += len(lit)
	p.skipWhitespace()
	return nil
}

// lineCol converts an offset into a 1-based line and column. Offsets only grow
// during a parse so counting resumes from the last answer.
func (p *parser) lineCol(offset int) (line, col int) {
	if offset < p.lineOff {
		p.lineOff, p.lineNum, p.lineStart = 0, 1, 0
	}
	for i := p.lineOff; i < offset; i++ {
		if p.input[i] == '\n' {
			p.lineNum++
			p.lineStart = i + 1
		}
	}
	p.lineOff = offset
	return p.lineNum, offset - p.lineStart + 1
}

func (p *parser) errorAt(offset int, kind ErrorKind, expected string) *Error {
	line, col := p.lineCol(offset)
	end := min(offset+snippetLen, len(p.input))
	return &Error{
		Kind:     kind,
		Offset:   offset,
		Line:     line,
		Column:   col,
		Expected: expected,
		Found:    p.input[offset:end],
	}
}

func (p *parser) errorf(kind ErrorKind, expected string) *Error {
	return p.errorAt(p.pos, kind, expected)
}
