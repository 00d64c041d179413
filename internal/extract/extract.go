// Package extract turns document files into the plain text a comparison reads.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extractor reads one kind of document and returns its text
type Extractor interface {
	// Extract returns the text content of the document at path
	Extract(ctx context.Context, path string) (string, error)

	// Extensions returns the file extensions this extractor handles (".txt")
	Extensions() []string
}

// Registry picks an extractor by file extension
type Registry struct {
	byExt    map[string]Extractor
	fallback Extractor
}

// NewRegistry creates a registry with the plain text, HTML and PDF extractors.
// Files with an unknown extension are read as plain text.
func NewRegistry(pdfServiceURL string) *Registry {
	r := &Registry{
		byExt:    make(map[string]Extractor),
		fallback: NewTextExtractor(),
	}
	r.Register(NewTextExtractor())
	r.Register(NewHTMLExtractor())
	r.Register(NewPDFServiceExtractor(pdfServiceURL))
	return r
}

// Register adds e for each of its extensions, replacing any previous extractor
func (r *Registry) Register(e Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// For returns the extractor that handles path
func (r *Registry) For(path string) Extractor {
	if e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return e
	}
	return r.fallback
}

// Extract reads the document at path with the matching extractor
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	text, err := r.For(path).Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}
	return text, nil
}

// Extensions returns all registered extensions, sorted
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// TextExtractor reads plain text and Markdown files
type TextExtractor struct{}

// NewTextExtractor creates a plain text extractor
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract reads the file, dropping a UTF-8 byte order mark and normalizing line endings
func (e *TextExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return normalizeText(string(data)), nil
}

// Extensions returns file extensions this extractor handles
func (e *TextExtractor) Extensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

func normalizeText(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
