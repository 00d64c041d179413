package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPDFServiceURL is where the PDF text service listens by default
const DefaultPDFServiceURL = "http://localhost:8081"

// PDFServiceExtractor sends PDF files to an HTTP text extraction service.
// The service accepts the raw file on POST /parse and answers
// {"text": "...", "pages": n, "error": "..."}.
type PDFServiceExtractor struct {
	serviceURL string
	client     *http.Client
}

// NewPDFServiceExtractor creates a PDF extractor for the service at serviceURL
func NewPDFServiceExtractor(serviceURL string) *PDFServiceExtractor {
	if serviceURL == "" {
		serviceURL = DefaultPDFServiceURL
	}
	return &PDFServiceExtractor{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// parseResponse is the text service response format
type parseResponse struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Error string `json:"error,omitempty"`
}

// Extract reads the PDF at path and returns the text the service extracted
func (e *PDFServiceExtractor) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return e.Parse(ctx, data, filepath.Base(path))
}

// Parse extracts text from PDF bytes
func (e *PDFServiceExtractor) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	if filename != "" {
		req.Header.Set("X-Filename", filename)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling PDF service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("PDF service returned status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("PDF parse error: %s", result.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("PDF service returned status %d", resp.StatusCode)
	}

	return normalizeText(result.Text), nil
}

// Healthy reports whether the service answers its health check
func (e *PDFServiceExtractor) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.serviceURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Extensions returns file extensions this extractor handles
func (e *PDFServiceExtractor) Extensions() []string {
	return []string{".pdf"}
}
