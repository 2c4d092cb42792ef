package bibparse

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bib1 = `
@string{goossens = "Goossens, Michel"}

@article{FuMetalhalideperovskite2019,
    author = goossens # " and Yongping Fu",
    doi = {10.1038/s41578-019-0080-9},
    journal = {Nature Reviews Materials},
    month = feb,
    number = {3},
    pages = {169--188},
    publisher = {Springer Science and Business Media {LLC}},
    title = {Metal halide perovskite nanostructures},
    volume = 4,
    year = {2019}
}

@comment{{
    This is a comment.
    Spanning over two lines.
}}

@preamble{"e = mc^2"}

% a line comment between entries
@inproceedings{LiuPhotocatalytichydrogenproduction2016,
    author = {Maochang Liu and Yubin Chen},
    journal = "Nature Energy",
    month = sep,
    pages = {16151},
    title = {Photocatalytic hydrogen production using {NiSx}},
    year = 2016,
}

This trailing text is ignored.
`

func parseTest(t *testing.T, text string) Entries {
	t.Helper()
	es, err := Parse(text, Options{})
	require.NoError(t, err)
	require.NotNil(t, es)
	return es
}

func TestParser(t *testing.T) {
	es := parseTest(t, bib1)
	require.Len(t, es, 2)

	fu := es["FUMETALHALIDEPEROVSKITE2019"]
	require.NotNil(t, fu)
	assert.Equal(t, "Goossens, Michel and Yongping Fu", fu.Field("AUTHOR"))
	assert.Equal(t, "February", fu.Field("MONTH"))
	assert.Equal(t, "169--188", fu.Field("PAGES"))
	assert.Equal(t, "Springer Science and Business Media {LLC}", fu.Field("PUBLISHER"))
	assert.Equal(t, "4", fu.Field("VOLUME"))
	assert.Equal(t, 4, fu.Line)
	assert.Len(t, fu.Fields, 10)

	liu := es["LIUPHOTOCATALYTICHYDROGENPRODUCTION2016"]
	require.NotNil(t, liu)
	assert.Equal(t, "Nature Energy", liu.Field("JOURNAL"))
	assert.Equal(t, "September", liu.Field("MONTH"))
	assert.Equal(t, "2016", liu.Field("YEAR"))
}

func TestParseResults(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]map[string]string
	}{
		{
			name:  "single entry",
			input: `@article{k1, title = "T"}`,
			want:  map[string]map[string]string{"K1": {"TITLE": "T"}},
		},
		{
			name:  "concatenation",
			input: `@article{k, title = "A" # "B"}`,
			want:  map[string]map[string]string{"K": {"TITLE": "AB"}},
		},
		{
			name:  "concatenation with comments around hash",
			input: "@article{k, title = \"A\" % one\n # % two\n {B} # 12}",
			want:  map[string]map[string]string{"K": {"TITLE": "AB12"}},
		},
		{
			name:  "month macro",
			input: `@article{k, month = jan}`,
			want:  map[string]map[string]string{"K": {"MONTH": "January"}},
		},
		{
			name:  "month macro overridden",
			input: `@string{jan = "Jan."} @article{k, month = JaN}`,
			want:  map[string]map[string]string{"K": {"MONTH": "Jan."}},
		},
		{
			name:  "later string definition wins",
			input: `@string{x = "1"} @string{X = "2"} @article{k, a = x}`,
			want:  map[string]map[string]string{"K": {"A": "2"}},
		},
		{
			name:  "macro defined as empty string",
			input: `@string{e = ""} @article{k, a = e # "x"}`,
			want:  map[string]map[string]string{"K": {"A": "x"}},
		},
		{
			name:  "macro built from concatenation",
			input: `@string{pre = "Proc. " # "of"} @article{k, a = pre # { the ACM}}`,
			want:  map[string]map[string]string{"K": {"A": "Proc. of the ACM"}},
		},
		{
			name:  "nested braces",
			input: `@article{k, note = {a {b} c}}`,
			want:  map[string]map[string]string{"K": {"NOTE": "a {b} c"}},
		},
		{
			name:  "escaped closing brace",
			input: `@article{k, note = {a \} b}}`,
			want:  map[string]map[string]string{"K": {"NOTE": `a \} b`}},
		},
		{
			name:  "escaped quote",
			input: `@article{k, title = "a \" b"}`,
			want:  map[string]map[string]string{"K": {"TITLE": `a \" b`}},
		},
		{
			name:  "braces inside quotes",
			input: `@article{k, title = "a {B} c"}`,
			want:  map[string]map[string]string{"K": {"TITLE": "a {B} c"}},
		},
		{
			name:  "delimited content kept verbatim",
			input: "@article{k, title = {  two\n lines }}",
			want:  map[string]map[string]string{"K": {"TITLE": "  two\n lines "}},
		},
		{
			name:  "trailing comma",
			input: `@article{k, a = "1", }`,
			want:  map[string]map[string]string{"K": {"A": "1"}},
		},
		{
			name:  "numeric bare value",
			input: `@article{k, year = 2019}`,
			want:  map[string]map[string]string{"K": {"YEAR": "2019"}},
		},
		{
			name:  "duplicate entry key overwrites",
			input: `@article{k, a = "1"} @book{K, b = "2"}`,
			want:  map[string]map[string]string{"K": {"B": "2"}},
		},
		{
			name:  "duplicate field overwrites",
			input: `@article{k, a = "1", A = "2"}`,
			want:  map[string]map[string]string{"K": {"A": "2"}},
		},
		{
			name:  "key characters",
			input: `@article{doe:2019/x_1.a-b, a = "1"}`,
			want:  map[string]map[string]string{"DOE:2019/X_1.A-B": {"A": "1"}},
		},
		{
			name:  "comment line between fields",
			input: "@article{k,\n  a = \"1\",\n% b = \"ignored\",\n  c = \"3\"\n}",
			want:  map[string]map[string]string{"K": {"A": "1", "C": "3"}},
		},
		{
			name:  "comment on last line without newline",
			input: `@article{k, a = "1"} % done`,
			want:  map[string]map[string]string{"K": {"A": "1"}},
		},
		{
			name:  "comment and preamble discarded",
			input: `@comment{{free text}} @PREAMBLE{"x" # "y"} @article{k, a = "1"}`,
			want:  map[string]map[string]string{"K": {"A": "1"}},
		},
		{
			name:  "whitespace after at sign",
			input: "@ article\n{k, a = \"1\"}",
			want:  map[string]map[string]string{"K": {"A": "1"}},
		},
		{
			name:  "text before the first directive stops the parse",
			input: `junk @article{k, a = "1"}`,
			want:  map[string]map[string]string{},
		},
		{
			name:  "trailing text ignored",
			input: `@article{k, a = "1"} trailing {junk`,
			want:  map[string]map[string]string{"K": {"A": "1"}},
		},
		{
			name:  "empty input",
			input: "",
			want:  map[string]map[string]string{},
		},
		{
			name:  "only comments",
			input: "% nothing\n%here",
			want:  map[string]map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			es := parseTest(t, tt.input)
			if diff := cmp.Diff(tt.want, es.Map()); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		kind     *Error
		expected string
	}{
		{"missing equals", `@article{k, a "1"}`, ErrSyntax, "="},
		{"missing comma after key", `@article{k a = "1"}`, ErrSyntax, ","},
		{"missing closing brace", `@article{k, a = "1" b = "2"}`, ErrSyntax, "}"},
		{"missing opening brace", `@article k, a = "1"}`, ErrSyntax, "{"},
		{"entry without fields", `@article{k,}`, ErrSyntax, "="},
		{"unterminated braces", `@article{k, a = {unterminated`, ErrUnterminatedValue, "}"},
		{"unterminated nested braces", `@article{k, a = {a {b}`, ErrUnterminatedValue, "}"},
		{"unterminated quotes", `@article{k, a = "open}`, ErrUnterminatedValue, `"`},
		{"escaped quote at end", `@article{k, a = "open\"`, ErrUnterminatedValue, `"`},
		{"undefined word", `@article{k, a = undefinedword}`, ErrUndefinedReference, "UNDEFINEDWORD"},
		{"digits prefix is not a number", `@article{k, a = 2019a}`, ErrUndefinedReference, "2019A"},
		{"empty bare value", `@article{k, a = ,}`, ErrUndefinedReference, ""},
		{"free text comment", `@comment{this is free text}`, ErrUndefinedReference, "THIS"},
		{"runaway directive name", `@article`, ErrRunawayKey, ""},
		{"runaway citation key", `@article{k`, ErrRunawayKey, ""},
		{"runaway bare value", `@article{k, a = b`, ErrRunawayKey, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			es, err := Parse(tt.input, Options{})
			require.Error(t, err)
			assert.Nil(t, es)
			assert.ErrorIs(t, err, tt.kind)
			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.expected, perr.Expected)
		})
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := Parse("@article{k,\n  a \"1\"}", Options{})
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, SyntaxError, perr.Kind)
	assert.Equal(t, 16, perr.Offset)
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, 5, perr.Column)
	assert.Equal(t, `"1"}`, perr.Found)
	assert.Equal(t, `2:5: syntax error: expected "=", found "\"1\"}"`, perr.Error())

	_, err = Parse("@article{k,\n a = {open", Options{})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, UnterminatedValue, perr.Kind)
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, 6, perr.Column)
}

func TestErrorKinds(t *testing.T) {
	assert.False(t, errors.Is(&Error{Kind: SyntaxError}, ErrRunawayKey))
	assert.True(t, errors.Is(&Error{Kind: RunawayKey, Offset: 3}, ErrRunawayKey))
	assert.Equal(t, "undefined reference", UndefinedReference.String())
	assert.Equal(t, "unknown error", ErrorKind(0).String())
}

func TestParseOptionsMacros(t *testing.T) {
	seed := Macros{"acm": "ACM"}
	es, err := Parse(`@string{acm = "Association"} @article{k, a = acm # jan}`, Options{Macros: seed})
	require.NoError(t, err)
	assert.Equal(t, "AssociationJanuary", es["K"].Field("A"))
	assert.Equal(t, Macros{"acm": "ACM"}, seed, "caller's macros must not change")

	es, err = Parse(`@article{k, a = acm}`, Options{Macros: seed})
	require.NoError(t, err)
	assert.Equal(t, "ACM", es["K"].Field("A"))
}

func TestParseIsolation(t *testing.T) {
	_ = parseTest(t, `@string{jan = "Jan."} @article{k, month = jan}`)
	es := parseTest(t, `@article{k, month = jan}`)
	assert.Equal(t, "January", es["K"].Field("MONTH"))
}

func TestDefaultMacros(t *testing.T) {
	m := DefaultMacros()
	assert.Len(t, m, 12)
	v, ok := m.Lookup("dec")
	assert.True(t, ok)
	assert.Equal(t, "December", v)

	m.Set("dec", "Dez.")
	assert.Equal(t, "December", DefaultMacros()["DEC"])
}

func TestEntriesKeys(t *testing.T) {
	es := parseTest(t, `@a{b, x = 1} @a{a, y = 2, x = 3}`)
	assert.Equal(t, []string{"A", "B"}, es.Keys())
	assert.Equal(t, []string{"X", "Y"}, es["A"].Fields.Names())
}
