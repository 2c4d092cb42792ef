// Package render turns parsed BibTeX entries into displayable output.
package render

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/drgo/bibparse"
)

// Renderer writes a display of entries to w.
type Renderer interface {
	Render(w io.Writer, entries bibparse.Entries) error
}

// Formats lists the names accepted by New.
var Formats = []string{"html", "table", "json", "yaml"}

// Options configures renderers. Fields a renderer does not use are ignored.
type Options struct {
	// Template replaces the default HTML template.
	Template string
	// Title is the HTML page title.
	Title string
}

// New returns the renderer for format.
func New(format string, opts Options) (Renderer, error) {
	switch strings.ToLower(format) {
	case "html":
		return NewHTML(opts)
	case "table", "text":
		return Table{}, nil
	case "json":
		return JSON{}, nil
	case "yaml", "yml":
		return YAML{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

// DefaultTemplate follows the layout of the bibtex_template block used by
// bibtex-js pages.
const DefaultTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div class="bibtex_display">
{{- range .Items}}
<div class="bibtex_entry" id="{{.Key}}">
{{- if .Fields.AUTHOR}}
<div style="font-weight: bold;">
  {{with .Fields.YEAR}}<span class="year">{{.}}</span>, {{end}}<span class="author">{{.Fields.AUTHOR}}</span>
  {{- with .Fields.URL}}
  <span style="margin-left: 20px"><a class="url" href="{{.}}" style="color:black; font-size:10px">(view online)</a></span>
  {{- end}}
</div>
{{- end}}
<div style="margin-left: 10px; margin-bottom:5px;">
  <span class="title">{{.Fields.TITLE}}</span>
</div>
</div>
{{- end}}
</div>
</body>
</html>
`

// HTML renders prepared entries through an html/template.
type HTML struct {
	tmpl  *template.Template
	title string
}

func NewHTML(opts Options) (*HTML, error) {
	text := opts.Template
	if text == "" {
		text = DefaultTemplate
	}
	tmpl, err := template.New("bibliography").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	title := opts.Title
	if title == "" {
		title = "Bibliography"
	}
	return &HTML{tmpl: tmpl, title: title}, nil
}

func (h *HTML) Render(w io.Writer, entries bibparse.Entries) error {
	items, err := Prepare(entries)
	if err != nil {
		return err
	}
	return h.tmpl.Execute(w, struct {
		Title string
		Items []Item
	}{h.title, items})
}

// Table renders prepared entries as a text table.
type Table struct{}

func (Table) Render(w io.Writer, entries bibparse.Entries) error {
	items, err := Prepare(entries)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		_, err = fmt.Fprintln(w, "(0 entries)")
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"KEY", "YEAR", "AUTHOR", "TITLE"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 40},
		{Number: 4, WidthMax: 60},
	})
	for _, it := range items {
		t.AppendRow(table.Row{it.Key, it.Fields["YEAR"], it.Fields["AUTHOR"], it.Fields["TITLE"]})
	}
	t.Render()
	_, err = fmt.Fprintf(w, "(%d entries)\n", len(items))
	return err
}

// JSON writes the raw entry mapping with sorted keys.
type JSON struct{}

func (JSON) Render(w io.Writer, entries bibparse.Entries) error {
	b, err := json.Marshal(entries.Map(), json.Deterministic(true), jsontext.WithIndent("  "))
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// YAML writes the raw entry mapping.
type YAML struct{}

func (YAML) Render(w io.Writer, entries bibparse.Entries) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries.Map()); err != nil {
		return err
	}
	return enc.Close()
}
