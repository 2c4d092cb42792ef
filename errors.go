package bibparse

import (
	"fmt"
	"strings"
)

// ErrorKind tags the structural violation that aborted a parse.
type ErrorKind int8

const (
	_ ErrorKind = iota
	// SyntaxError is a required literal missing at the current position.
	SyntaxError
	// UnterminatedValue is a braced or quoted value running past end of input.
	UnterminatedValue
	// RunawayKey is a key scan reaching end of input.
	RunawayKey
	// UndefinedReference is a bare value that is neither numeric nor a known macro.
	UndefinedReference
)

var kindNames = [...]string{
	SyntaxError:        "syntax error",
	UnterminatedValue:  "unterminated value",
	RunawayKey:         "runaway key",
	UndefinedReference: "undefined reference",
}

func (k ErrorKind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown error"
}

// Sentinels for errors.Is; only the Kind is compared.
var (
	ErrSyntax             = &Error{Kind: SyntaxError}
	ErrUnterminatedValue  = &Error{Kind: UnterminatedValue}
	ErrRunawayKey         = &Error{Kind: RunawayKey}
	ErrUndefinedReference = &Error{Kind: UndefinedReference}
)

// Error is returned by Parse. Every Error is fatal to the parse that raised it.
type Error struct {
	Kind   ErrorKind
	Offset int // byte offset into the input
	Line   int // 1-based
	Column int // 1-based, in bytes
	// Expected is the missing literal for SyntaxError and the offending token
	// for UndefinedReference.
	Expected string
	// Found is a snippet of the input remaining at Offset.
	Found string
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d:%d: %s", e.Line, e.Column, e.Kind)
	switch e.Kind {
	case SyntaxError:
		fmt.Fprintf(&sb, ": expected %q", e.Expected)
	case UndefinedReference:
		fmt.Fprintf(&sb, ": %q is neither a number nor a defined string", e.Expected)
	}
	if e.Found != "" {
		fmt.Fprintf(&sb, ", found %q", e.Found)
	}
	return sb.String()
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
