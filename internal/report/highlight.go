package report

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultCodeStyle is the chroma style used for source listings.
const DefaultCodeStyle = "monokai"

// Highlighter renders source files as class-annotated HTML with line numbers.
type Highlighter struct {
	style     *chroma.Style
	formatter *html.Formatter
}

// NewHighlighter creates a highlighter for the named chroma style. Unknown
// names fall back to chroma's default style.
func NewHighlighter(styleName string) *Highlighter {
	return &Highlighter{
		style:     styles.Get(styleName),
		formatter: html.New(html.WithClasses(true), html.WithLineNumbers(true)),
	}
}

// Highlight returns source as HTML. The lexer is picked from the file name,
// falling back to plain text.
func (h *Highlighter) Highlight(filename, source string) (template.HTML, error) {
	lexer := lexers.Match(filepath.Base(filename))
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", filename, err)
	}

	var b strings.Builder
	b.WriteString(`<div class="codehilite">`)
	if err := h.formatter.Format(&b, h.style, it); err != nil {
		return "", fmt.Errorf("highlight %s: %w", filename, err)
	}
	b.WriteString(`</div>`)
	return template.HTML(b.String()), nil
}

// CSS returns the style sheet matching the classes Highlight emits.
func (h *Highlighter) CSS() (template.CSS, error) {
	var b strings.Builder
	if err := h.formatter.WriteCSS(&b, h.style); err != nil {
		return "", fmt.Errorf("write code css: %w", err)
	}
	return template.CSS(b.String()), nil
}
