package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/steveyegge/cvcheck/internal/types"
)

// DefaultOllamaURL is where a local Ollama server listens
const DefaultOllamaURL = "http://localhost:11434"

// OllamaCapability compares chunks with a local model served by Ollama
type OllamaCapability struct {
	baseURL string
	model   string
	client  *http.Client
}

// Compile-time check that OllamaCapability implements Capability
var _ Capability = (*OllamaCapability)(nil)

// NewOllama creates an Ollama-backed capability. No credential is needed.
func NewOllama(cfg ProviderConfig) (*OllamaCapability, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 300 * time.Second // local models are slow on long chunks
	}
	return &OllamaCapability{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// CompareChunk sends one chunk to Ollama's generate endpoint in JSON mode
func (c *OllamaCapability) CompareChunk(ctx context.Context, req ChunkRequest) ([]types.RawFinding, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   c.model,
		Prompt:  BuildPrompt(req),
		Stream:  false,
		Format:  "json",
		Options: map[string]any{"temperature": 0},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &CapabilityError{
			Kind:       KindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Provider:   ProviderOllama,
			Err:        fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)),
		}
	}

	var genResp ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if genResp.Error != "" {
		// Errors inside a 200 answer are model or request problems, never transient
		return nil, &CapabilityError{
			Kind:     KindFatal,
			Provider: ProviderOllama,
			Err:      fmt.Errorf("Ollama error: %s", genResp.Error),
		}
	}

	return DecodeFindings(genResp.Response)
}
