package extract

import (
	"context"
	"html"
	"os"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// HTMLExtractor strips markup from HTML documents
type HTMLExtractor struct {
	policy *bluemonday.Policy
}

// NewHTMLExtractor creates an HTML extractor that keeps no elements at all
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{policy: bluemonday.StrictPolicy()}
}

// Tags that end a visual line; a newline is inserted so words on either side stay apart
var blockBoundary = regexp.MustCompile(`(?i)<(br|hr)\b[^>]*>|</(p|div|li|tr|h[1-6]|section|article|header|footer|table|ul|ol)\s*>`)

var (
	inlineSpace = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines  = regexp.MustCompile(`\n\s*\n+`)
)

// Extract reads the file and returns its visible text
func (e *HTMLExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return e.Text(string(data)), nil
}

// Text returns the visible text of an HTML fragment or document.
// Script and style contents are dropped.
func (e *HTMLExtractor) Text(markup string) string {
	marked := blockBoundary.ReplaceAllStringFunc(normalizeText(markup), func(tag string) string {
		return tag + "\n"
	})
	stripped := html.UnescapeString(e.policy.Sanitize(marked))

	lines := strings.Split(stripped, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
	}
	text := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}

// Extensions returns file extensions this extractor handles
func (e *HTMLExtractor) Extensions() []string {
	return []string{".html", ".htm"}
}
