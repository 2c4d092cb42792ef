// Package bibparse parses BibTeX text into citation records, resolving
// @STRING macros and the # concatenation operator, and provides ordering,
// deduplication and BibTeX output over the parsed records.
package bibparse

// BNF
// Database     ::= (Directive)* Junk
// Directive    ::= '@' Name '{' Body '}'
// Body         ::= String | Preamble | Comment | Record
// String       ::= Name '=' Value                     -- name is "string"
// Preamble     ::= Value                              -- name is "preamble"; discarded
// Comment      ::= Value                              -- name is "comment"; discarded
// Record       ::= Key ',' Field (',' Field)* [',']   -- any other name
// Field        ::= Name '=' Value
// Value        ::= Single ('#' Single)*
// Single       ::= '{' balanced '}'
//               |  '"' ([^"]|\\'"')* '"'
//               |  Name                               -- macro or [0-9]+
// Name, Key    ::= [A-Za-z0-9_:./-]*
// Whitespace and '%' line comments may appear wherever a literal is matched.
