// Package render turns scan results into the generated Markdown documents.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"git.home.luguber.info/inful/gendocs/internal/config"
	"git.home.luguber.info/inful/gendocs/internal/git"
	"git.home.luguber.info/inful/gendocs/internal/markdown"
	"git.home.luguber.info/inful/gendocs/internal/version"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

// TOCMarker is replaced with the table of contents in documents that carry one.
const TOCMarker = "<!-- toc -->"

var blankRuns = regexp.MustCompile(`\n{3,}`)

type layout struct {
	template string
	lang     language.Tag
	toc      bool
	other    config.DocumentKind // README in the other language
	title    string
}

var layouts = map[config.DocumentKind]layout{
	config.DocOverview: {template: "overview.md.tmpl", lang: language.English, toc: true, title: "Project Overview"},
	config.DocTesting:  {template: "testing.md.tmpl", lang: language.English, title: "Testing Report"},
	config.DocReadme:   {template: "readme.md.tmpl", lang: language.English, other: config.DocReadmeCN},
	config.DocReadmeCN: {template: "readme.md.tmpl", lang: language.SimplifiedChinese, other: config.DocReadme},
}

// Renderer executes the embedded document templates.
type Renderer struct {
	base    *template.Template
	catalog catalog.Catalog
}

// New parses the embedded templates and builds the message catalog.
func New() (*Renderer, error) {
	cat, err := newCatalog()
	if err != nil {
		return nil, fmt.Errorf("build message catalog: %w", err)
	}
	base, err := template.New("documents").
		Funcs(funcMap(newPrinter(cat, language.English), language.English)).
		Option("missingkey=error").
		ParseFS(templateFS, "templates/*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{base: base, catalog: cat}, nil
}

// Render produces the Markdown body of a document. Frontmatter is not included.
func (r *Renderer) Render(kind config.DocumentKind, data *Data) ([]byte, error) {
	l, ok := layouts[kind]
	if !ok {
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
	if data == nil || data.Project == nil {
		return nil, fmt.Errorf("render %s: project data is required", kind)
	}

	tpl, err := r.base.Clone()
	if err != nil {
		return nil, fmt.Errorf("clone templates: %w", err)
	}
	tpl.Funcs(funcMap(newPrinter(r.catalog, l.lang), l.lang))

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, l.template, newView(data, l.other, version.Generator())); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}

	body := tidy(buf.Bytes())
	if l.toc {
		body = insertTOC(body)
	}
	return body, nil
}

// Frontmatter returns the static frontmatter fields for report documents,
// or nil for documents that carry none.
func (r *Renderer) Frontmatter(kind config.DocumentKind, data *Data) map[string]any {
	l, ok := layouts[kind]
	if !ok || !kind.IsReport() {
		return nil
	}
	title := l.title
	if data != nil && data.Project != nil && data.Project.Name != "" {
		title = data.Project.Name + " " + l.title
	}
	return map[string]any{
		"title":     title,
		"generator": version.Generator(),
	}
}

// sentenceSep separates adjacent sentences in a paragraph. Chinese text
// follows the full stop directly.
func sentenceSep(lang language.Tag) string {
	if base, _ := lang.Base(); base.String() == "zh" {
		return ""
	}
	return " "
}

func funcMap(p *message.Printer, lang language.Tag) template.FuncMap {
	sep := sentenceSep(lang)
	return template.FuncMap{
		"sep": func() string { return sep },
		"T": func(key string, args ...any) string {
			return p.Sprintf(key, args...)
		},
		"num": func(n int) string {
			return p.Sprintf("%d", n)
		},
		"pct": func(f float64) string {
			return p.Sprintf("%.1f%%", f)
		},
		"ratio": func(f float64) string {
			return p.Sprintf("%.2f", f)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2006-01-02")
		},
		"commits": func(info *git.Info) string {
			s := p.Sprintf("%d", info.CommitCount)
			if info.CountCapped {
				s += "+"
			}
			return s
		},
		"join":   strings.Join,
		"cell":   cell,
		"remote": redactURL,
	}
}

// tidy collapses runs of blank lines and ends the document with one newline.
func tidy(b []byte) []byte {
	s := strings.ReplaceAll(string(b), "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return []byte(strings.Trim(s, "\n") + "\n")
}

func insertTOC(body []byte) []byte {
	if !bytes.Contains(body, []byte(TOCMarker)) {
		return body
	}
	toc := markdown.TOC(markdown.Headings(body), 2, 3)
	return bytes.Replace(body, []byte(TOCMarker), []byte(strings.TrimSuffix(toc, "\n")), 1)
}
