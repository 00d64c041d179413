package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/steveyegge/cvcheck/internal/types"
)

// AnthropicCapability compares chunks with a Claude model
type AnthropicCapability struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// Compile-time check that AnthropicCapability implements Capability
var _ Capability = (*AnthropicCapability)(nil)

// NewAnthropic creates a Claude-backed capability.
// The SDK's own retries are disabled; Retrier owns the retry policy.
func NewAnthropic(cfg ProviderConfig) (*AnthropicCapability, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	client := anthropic.NewClient(opts...)
	return &AnthropicCapability{
		client:    &client,
		model:     model,
		maxTokens: int64(maxTokens),
	}, nil
}

// CompareChunk sends one chunk to Claude and decodes the findings
func (c *AnthropicCapability) CompareChunk(ctx context.Context, req ChunkRequest) ([]types.RawFinding, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(req))),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &CapabilityError{
				Kind:       KindForStatus(apiErr.StatusCode),
				StatusCode: apiErr.StatusCode,
				Provider:   ProviderAnthropic,
				Err:        err,
			}
		}
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return DecodeFindings(text)
}
