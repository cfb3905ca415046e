package document

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// A key is any run of characters other than braces, so accented or spaced
// keys such as "número série" are addressable.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// ValidKey reports whether key can be referenced as a placeholder.
func ValidKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !strings.ContainsAny(key, "{}")
}

// Field is a table row definition of a template.
type Field struct {
	Label string
	Key   string
}

// Row is a rendered table row.
type Row struct {
	Label string
	Value string
}

// Template is the renderable part of a term template.
type Template struct {
	Title  string
	Body   string
	Fields []Field
	Seals  []string
}

// Rendered is a term ready for display.
type Rendered struct {
	Title string
	Body  string
	HTML  string
	Rows  []Row
	Seals []string
}

// Substitute replaces every {{key}} occurrence with data[key]. Keys missing
// from data render as the empty string.
func Substitute(text string, data map[string]string) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		return data[key]
	})
}

// Placeholders lists the distinct keys referenced by text in order of first use.
func Placeholders(text string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			keys = append(keys, match[1])
		}
	}
	return keys
}

// Undeclared lists the placeholder keys used by the title, body or field
// labels of tmpl that are neither in declared nor a field key.
func Undeclared(tmpl Template, declared []string) []string {
	known := make(map[string]bool, len(declared)+len(tmpl.Fields))
	for _, key := range declared {
		known[strings.TrimSpace(key)] = true
	}
	for _, field := range tmpl.Fields {
		known[strings.TrimSpace(field.Key)] = true
	}
	text := tmpl.Title + "\n" + tmpl.Body
	for _, field := range tmpl.Fields {
		text += "\n" + field.Label
	}
	var missing []string
	for _, key := range Placeholders(text) {
		if !known[key] {
			missing = append(missing, key)
		}
	}
	return missing
}

// Render binds data into the template. A field value is the data value of
// its key; labels are substituted as well so a label may carry placeholders.
func Render(tmpl Template, data map[string]string) Rendered {
	body := Substitute(tmpl.Body, data)
	rows := make([]Row, 0, len(tmpl.Fields))
	for _, field := range tmpl.Fields {
		rows = append(rows, Row{
			Label: Substitute(field.Label, data),
			Value: Substitute("{{"+field.Key+"}}", data),
		})
	}
	seals := make([]string, len(tmpl.Seals))
	copy(seals, tmpl.Seals)
	return Rendered{
		Title: Substitute(tmpl.Title, data),
		Body:  body,
		HTML:  MarkdownToHTML(body),
		Rows:  rows,
		Seals: seals,
	}
}

// MarkdownToHTML converts a rendered body to HTML. Raw HTML in the source is dropped.
func MarkdownToHTML(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	// parsers keep state between calls
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	out := markdown.ToHTML([]byte(source), p, renderer)
	return string(bytes.TrimSpace(out))
}
