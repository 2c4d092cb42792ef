package bibparse

import (
	"log/slog"
	"strings"
)

const (
	LBRACE    byte = '{'
	RBRACE    byte = '}'
	QUOTE     byte = '"'
	COMMA     byte = ','
	EQUAL     byte = '='
	AT        byte = '@'
	HASH      byte = '#'
	PERCENT   byte = '%'
	BACKSLASH byte = '\\'
)

// Options tunes a single Parse call.
type Options struct {
	// Macros are added to the month abbreviations before parsing starts.
	// Names are case-insensitive. The map is not modified.
	Macros Macros
	// Logger receives debug events. Nil discards them.
	Logger *slog.Logger
}

// Parse parses BibTeX text into entries keyed by uppercase citation key.
// Field values have @STRING macros and # concatenation resolved; outer
// delimiters are stripped and everything inside them is kept verbatim.
//
// Parsing stops silently at the first significant byte that is not '@'. Any
// structural error aborts the whole parse and is returned as an *Error.
func Parse(text string, opts Options) (Entries, error) {
	return newParser(text, opts).parse()
}

// parser is the state of one parse. It is never shared or reused.
type parser struct {
	input   string
	pos     int
	macros  Macros
	entries Entries
	log     *slog.Logger

	// lineCol cache
	lineOff, lineNum, lineStart int
}

func newParser(text string, opts Options) *parser {
	macros := DefaultMacros()
	for k, v := range opts.Macros {
		macros.Set(k, v)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &parser{
		input:   text,
		macros:  macros,
		entries: make(Entries),
		log:     log,
		lineNum: 1,
	}
}

type directive int8

const (
	dirEntry directive = iota
	dirString
	dirPreamble
	dirComment
)

func directiveOf(name string) directive {
	switch strings.ToUpper(name) {
	case "STRING":
		return dirString
	case "PREAMBLE":
		return dirPreamble
	case "COMMENT":
		return dirComment
	}
	return dirEntry
}

func (p *parser) parse() (Entries, error) {
	for p.tryMatch("@") {
		if err := p.match("@"); err != nil {
			return nil, err
		}
		name, err := p.key()
		if err != nil {
			return nil, err
		}
		if err := p.match("{"); err != nil {
			return nil, err
		}
		switch directiveOf(name) {
		case dirString:
			err = p.stringDef()
		case dirPreamble, dirComment:
			// parsed for well-formedness only
			_, err = p.value()
		default:
			err = p.entry(name)
		}
		if err != nil {
			return nil, err
		}
		if err := p.match("}"); err != nil {
			return nil, err
		}
	}
	p.log.Debug("parsed bibtex", "entries", len(p.entries), "stopped_at", p.pos)
	return p.entries, nil
}

func (p *parser) stringDef() error {
	name, val, err := p.keyEqualsValue()
	if err != nil {
		return err
	}
	p.macros.Set(name, val)
	p.log.Debug("string defined", "name", name)
	return nil
}

// entry reads `key, field = value, ...` and stores the entry as soon as its
// key is known.
func (p *parser) entry(typ string) error {
	line, _ := p.lineCol(p.pos)
	k, err := p.key()
	if err != nil {
		return err
	}
	e := &Entry{Key: k, Fields: make(Fields), Line: line}
	p.entries.add(e)
	p.log.Debug("entry", "type", typ, "key", k, "line", line)
	if err := p.match(","); err != nil {
		return err
	}
	for {
		name, val, err := p.keyEqualsValue()
		if err != nil {
			return err
		}
		e.Fields[name] = val
		if !p.tryMatch(",") {
			return nil
		}
		if err := p.match(","); err != nil {
			return err
		}
		// trailing comma before the closing brace
		if p.tryMatch("}") {
			return nil
		}
	}
}
