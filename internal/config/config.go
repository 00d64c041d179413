// Package config loads cvcheck settings from a YAML file and CVCHECK_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/cvcheck/internal/ai"
	"github.com/steveyegge/cvcheck/internal/pipeline"
	"github.com/steveyegge/cvcheck/internal/types"
)

// DefaultPath is where the CLI looks for a config file when none is given
const DefaultPath = ".cvcheck.yaml"

// DefaultRequestTimeout bounds a single capability call
const DefaultRequestTimeout = 2 * time.Minute

// Config holds everything needed to build a capability and run comparisons
type Config struct {
	// Provider selects the capability: "anthropic", "gemini" or "ollama"
	// Default: "anthropic"
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model
	Model string `yaml:"model,omitempty"`

	// BaseURL overrides the provider endpoint (proxies, local Ollama on another host)
	BaseURL string `yaml:"base_url,omitempty"`

	// MaxTokens caps the answer length per chunk. 0 = provider default
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// RequestTimeout bounds one capability call, e.g. "2m"
	RequestTimeout Duration `yaml:"request_timeout"`

	// ChunkSize is the window length in characters. Tune it to the model's
	// context: the default suits models with a few thousand tokens of input.
	// Default: 9000
	ChunkSize int `yaml:"chunk_size"`

	// Overlap is how many characters consecutive windows share. Must be < ChunkSize
	// Default: 300
	Overlap int `yaml:"overlap"`

	// Concurrency is the number of chunks compared at once
	// Default: 3
	Concurrency int `yaml:"concurrency"`

	// FailOnChunkError makes a comparison with failed chunks exit with an error
	// instead of reporting best-effort results
	// Default: false
	FailOnChunkError bool `yaml:"fail_on_chunk_error"`

	// MaxConcurrentCalls caps in-flight capability calls across all comparisons
	// in the process. 0 = only Concurrency applies
	MaxConcurrentCalls int `yaml:"max_concurrent_calls,omitempty"`

	Retry RetryConfig `yaml:"retry"`

	// PDFServiceURL is the text extraction service used for .pdf documents
	PDFServiceURL string `yaml:"pdf_service_url,omitempty"`

	// Credentials, from the environment only
	AnthropicAPIKey string `yaml:"-"`
	GeminiAPIKey    string `yaml:"-"`
}

// RetryConfig is the YAML form of types.RetryPolicy
type RetryConfig struct {
	MaxRetries  int `yaml:"max_retries"`
	BaseDelayMs int `yaml:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms"`
	JitterMaxMs int `yaml:"jitter_max_ms"`
}

// Policy converts the retry settings to a types.RetryPolicy
func (r RetryConfig) Policy() types.RetryPolicy {
	return types.RetryPolicy{
		MaxRetries: r.MaxRetries,
		BaseDelay:  time.Duration(r.BaseDelayMs) * time.Millisecond,
		MaxDelay:   time.Duration(r.MaxDelayMs) * time.Millisecond,
		JitterMax:  time.Duration(r.JitterMaxMs) * time.Millisecond,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	policy := types.DefaultRetryPolicy()
	return &Config{
		Provider:       ai.ProviderAnthropic,
		RequestTimeout: Duration(DefaultRequestTimeout),
		ChunkSize:      pipeline.DefaultChunkSize,
		Overlap:        pipeline.DefaultOverlap,
		Concurrency:    pipeline.DefaultConcurrency,
		Retry: RetryConfig{
			MaxRetries:  policy.MaxRetries,
			BaseDelayMs: int(policy.BaseDelay / time.Millisecond),
			MaxDelayMs:  int(policy.MaxDelay / time.Millisecond),
			JitterMaxMs: int(policy.JitterMax / time.Millisecond),
		},
	}
}

// Load reads a YAML config file on top of the defaults. Keys missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return cfg, nil
}

// YAML renders the config as a YAML document. Credentials are never included.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	switch c.Provider {
	case ai.ProviderAnthropic, ai.ProviderGemini, ai.ProviderOllama:
	default:
		return fmt.Errorf("provider must be %q, %q or %q (got %q)",
			ai.ProviderAnthropic, ai.ProviderGemini, ai.ProviderOllama, c.Provider)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens cannot be negative (got %d)", c.MaxTokens)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout cannot be negative (got %v)", c.RequestTimeout)
	}
	if c.MaxConcurrentCalls < 0 {
		return fmt.Errorf("max_concurrent_calls cannot be negative (got %d)", c.MaxConcurrentCalls)
	}
	return c.PipelineConfig().Validate()
}

// PipelineConfig returns the comparison settings
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		ChunkSize:        c.ChunkSize,
		Overlap:          c.Overlap,
		Concurrency:      c.Concurrency,
		Retry:            c.Retry.Policy(),
		FailOnChunkError: c.FailOnChunkError,
	}
}

// ProviderConfig returns the capability settings with the selected provider's credential
func (c *Config) ProviderConfig() ai.ProviderConfig {
	pc := ai.ProviderConfig{
		Provider:           c.Provider,
		Model:              c.Model,
		BaseURL:            c.BaseURL,
		MaxTokens:          c.MaxTokens,
		Timeout:            time.Duration(c.RequestTimeout),
		MaxConcurrentCalls: c.MaxConcurrentCalls,
	}
	switch c.Provider {
	case ai.ProviderAnthropic:
		pc.APIKey = c.AnthropicAPIKey
	case ai.ProviderGemini:
		pc.APIKey = c.GeminiAPIKey
	}
	return pc
}

// String returns a human-readable representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Provider: %s, Model: %s, ChunkSize: %d, Overlap: %d, Concurrency: %d, "+
			"MaxRetries: %d, BaseDelay: %dms, MaxDelay: %dms, Jitter: %dms, "+
			"Timeout: %v, FailOnChunkError: %t, Credentials: %s}",
		c.Provider, c.Model, c.ChunkSize, c.Overlap, c.Concurrency,
		c.Retry.MaxRetries, c.Retry.BaseDelayMs, c.Retry.MaxDelayMs, c.Retry.JitterMaxMs,
		c.RequestTimeout, c.FailOnChunkError, c.CredentialStatus(),
	)
}

// CredentialStatus reports whether the selected provider has its API key: "set", "missing" or "not needed"
func (c *Config) CredentialStatus() string {
	if c.ProviderConfig().APIKey != "" {
		return "set"
	}
	if c.Provider == ai.ProviderOllama {
		return "not needed"
	}
	return "missing"
}

// Duration is a time.Duration written as "90s" or "2m" in YAML
type Duration time.Duration

// String formats the duration the way time.Duration does
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Bare integers are read as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var seconds int
	if err := value.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}
