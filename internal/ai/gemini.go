package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/steveyegge/cvcheck/internal/types"
)

// GeminiCapability compares chunks with a Gemini model using a JSON response
// schema, so the model cannot answer outside the findings shape.
type GeminiCapability struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// Compile-time check that GeminiCapability implements Capability
var _ Capability = (*GeminiCapability)(nil)

// NewGemini creates a Gemini-backed capability
func NewGemini(ctx context.Context, cfg ProviderConfig) (*GeminiCapability, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	temperature := float32(0)
	genCfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   FindingsSchema(),
	}
	if cfg.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(cfg.MaxTokens)
	}

	return &GeminiCapability{client: client, model: model, config: genCfg}, nil
}

// FindingsSchema is the response schema handed to Gemini
func FindingsSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"mismatches": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"fieldIndex": {Type: genai.TypeInteger},
						"expected":   str,
						"actual":     str,
						"message":    str,
					},
					Required: []string{"fieldIndex", "expected", "actual", "message"},
				},
			},
		},
		Required: []string{"mismatches"},
	}
}

// CompareChunk sends one chunk to Gemini and decodes the findings
func (c *GeminiCapability) CompareChunk(ctx context.Context, req ChunkRequest) ([]types.RawFinding, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(BuildPrompt(req), genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, c.config)
	if err != nil {
		if code, ok := genaiStatus(err); ok {
			return nil, &CapabilityError{
				Kind:       KindForStatus(code),
				StatusCode: code,
				Provider:   ProviderGemini,
				Err:        err,
			}
		}
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	var b strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil {
				b.WriteString(part.Text)
			}
		}
	}
	return DecodeFindings(b.String())
}
