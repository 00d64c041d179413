package ai

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/steveyegge/cvcheck/internal/types"
)

// Capability is the external inference service consulted once per chunk.
// Each call is a single stateless request/response exchange. Failures must be
// classifiable by Classify: transport and SDK errors as returned by the
// provider, and *ParseError when the answer is not a findings document.
type Capability interface {
	CompareChunk(ctx context.Context, req ChunkRequest) ([]types.RawFinding, error)
}

// CapabilityFunc adapts a function to the Capability interface
type CapabilityFunc func(ctx context.Context, req ChunkRequest) ([]types.RawFinding, error)

// CompareChunk calls f(ctx, req)
func (f CapabilityFunc) CompareChunk(ctx context.Context, req ChunkRequest) ([]types.RawFinding, error) {
	return f(ctx, req)
}

// ChunkRequest is everything the capability needs to judge one chunk
type ChunkRequest struct {
	Index  types.AddressIndex
	Record []byte // record as JSON
	Chunk  types.Chunk
}

// Supported providers
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// Default models per provider
const (
	DefaultAnthropicModel = "claude-3-5-haiku-20241022"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultOllamaModel    = "llama3.2"
)

// ProviderConfig selects and configures a capability implementation
type ProviderConfig struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration

	// MaxConcurrentCalls caps in-flight calls across every comparison sharing
	// this capability (0 = unlimited).
	MaxConcurrentCalls int
}

// New builds the capability described by cfg. It is meant to be called once at
// process start; a missing credential is reported here, not on first use.
func New(ctx context.Context, cfg ProviderConfig) (Capability, error) {
	var (
		capability Capability
		err        error
	)
	switch cfg.Provider {
	case ProviderAnthropic, "":
		capability, err = NewAnthropic(cfg)
	case ProviderGemini:
		capability, err = NewGemini(ctx, cfg)
	case ProviderOllama:
		capability, err = NewOllama(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s, %s or %s)",
			cfg.Provider, ProviderAnthropic, ProviderGemini, ProviderOllama)
	}
	if err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentCalls > 0 {
		capability = WithCallLimit(capability, cfg.MaxConcurrentCalls)
	}
	return capability, nil
}

// WithCallLimit wraps c so that at most n calls are in flight at once
func WithCallLimit(c Capability, n int) Capability {
	return &limitedCapability{next: c, sem: semaphore.NewWeighted(int64(n))}
}

type limitedCapability struct {
	next Capability
	sem  *semaphore.Weighted
}

func (l *limitedCapability) CompareChunk(ctx context.Context, req ChunkRequest) ([]types.RawFinding, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire concurrency slot: %w", err)
	}
	defer l.sem.Release(1)
	return l.next.CompareChunk(ctx, req)
}

// findingsEnvelope is the document every provider is asked to return
type findingsEnvelope struct {
	Mismatches *[]types.RawFinding `json:"mismatches"`
}

// DecodeFindings parses model output into raw findings. Anything that is not a
// findings document yields a *ParseError.
func DecodeFindings(text string) ([]types.RawFinding, error) {
	result := Parse[findingsEnvelope](text)
	if !result.Success {
		return nil, &ParseError{Reason: result.Error, Text: text}
	}
	if result.Data.Mismatches == nil {
		return nil, &ParseError{Reason: `missing "mismatches" array`, Text: text}
	}
	return *result.Data.Mismatches, nil
}
