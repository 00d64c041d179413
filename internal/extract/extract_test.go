package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTextExtractor(t *testing.T) {
	path := writeFile(t, "cv.txt", "\ufeffName: Jo\r\nRole: Manager\r\n")

	text, err := NewTextExtractor().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Name: Jo\nRole: Manager\n", text)
}

func TestTextExtractorMissingFile(t *testing.T) {
	_, err := NewTextExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestHTMLExtractor(t *testing.T) {
	markup := `<html><head><style>p { color: red }</style><script>alert(1)</script></head>
<body><h1>Jo Smith</h1><p>Role: Manager &amp; Lead</p><ul><li>Go</li><li>Rust</li></ul>
<p>Line one<br>Line   two</p></body></html>`

	text := NewHTMLExtractor().Text(markup)

	assert.Equal(t, "Jo Smith\nRole: Manager & Lead\nGo\nRust\n\nLine one\nLine two", text)
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color")
}

func TestHTMLExtractorFile(t *testing.T) {
	path := writeFile(t, "cv.HTML", "<div>Jo</div><div>Eng</div>")

	text, err := NewRegistry("").Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Jo\nEng", text)
}

func TestPDFServiceExtractor(t *testing.T) {
	var gotBody []byte
	var gotName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		assert.Equal(t, "/parse", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotBody, _ = io.ReadAll(r.Body)
		gotName = r.Header.Get("X-Filename")
		_ = json.NewEncoder(w).Encode(parseResponse{Text: "Jo\r\nManager", Pages: 1})
	}))
	defer server.Close()

	path := writeFile(t, "cv.pdf", "%PDF-1.7 fake")
	e := NewPDFServiceExtractor(server.URL + "/")

	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Jo\nManager", text)
	assert.Equal(t, "%PDF-1.7 fake", string(gotBody))
	assert.Equal(t, "cv.pdf", gotName)
	assert.True(t, e.Healthy(context.Background()))
}

func TestPDFServiceExtractorErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "service reports error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(parseResponse{Error: "encrypted document"})
			},
			wantErr: "PDF parse error: encrypted document",
		},
		{
			name: "non-JSON failure status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
			wantErr: "status 502",
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			wantErr: "decoding response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewPDFServiceExtractor(server.URL).Parse(context.Background(), []byte("%PDF"), "cv.pdf")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPDFServiceUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	e := NewPDFServiceExtractor(url)
	_, err := e.Parse(context.Background(), []byte("%PDF"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calling PDF service")
	assert.False(t, e.Healthy(context.Background()))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry("")

	assert.IsType(t, &TextExtractor{}, r.For("cv.md"))
	assert.IsType(t, &HTMLExtractor{}, r.For("cv.htm"))
	assert.IsType(t, &PDFServiceExtractor{}, r.For("CV.PDF"))
	assert.IsType(t, &TextExtractor{}, r.For("cv"), "unknown extensions read as text")
	assert.Equal(t, []string{".htm", ".html", ".markdown", ".md", ".pdf", ".txt"}, r.Extensions())
}

func TestRegistryWrapsErrors(t *testing.T) {
	_, err := NewRegistry("").Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extracting missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeFile(t, "cv.txt", "x")
	_, err := NewTextExtractor().Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
