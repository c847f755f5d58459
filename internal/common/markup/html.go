// Package markup turns model output into the HTML fragment the planner UI
// renders.
package markup

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Ordered list wrappers and list item tags are removed; the UI numbers
// activities itself. <ul> is left alone.
var listTags = regexp.MustCompile(`</?li>|<ol[^>]*>|</ol>`)

// Formatter converts raw completion text into the final response text.
type Formatter interface {
	Format(text string) (string, error)
}

// FormatterFunc adapts a plain function to Formatter.
type FormatterFunc func(text string) (string, error)

func (f FormatterFunc) Format(text string) (string, error) { return f(text) }

// Identity returns text unchanged.
var Identity Formatter = FormatterFunc(func(text string) (string, error) { return text, nil })

type HTMLFormatter struct {
	md goldmark.Markdown
}

func NewHTMLFormatter() *HTMLFormatter {
	return &HTMLFormatter{
		md: goldmark.New(
			goldmark.WithRendererOptions(
				// raw HTML in replies is emitted as-is; output is not sanitized
				html.WithUnsafe(),
			),
		),
	}
}

// Format renders markdown to HTML and strips ordered-list markup.
func (f *HTMLFormatter) Format(text string) (string, error) {
	var buf bytes.Buffer
	if err := f.md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(listTags.ReplaceAllString(buf.String(), "")), nil
}
