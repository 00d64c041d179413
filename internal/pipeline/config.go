package pipeline

import (
	"fmt"

	"github.com/steveyegge/cvcheck/internal/chunker"
	"github.com/steveyegge/cvcheck/internal/types"
)

// Default chunking and concurrency. The chunk size suits models with a context
// of a few thousand tokens; tune it to the capability in use.
const (
	DefaultChunkSize   = 9000
	DefaultOverlap     = 300
	DefaultConcurrency = 3
)

// Config holds the knobs of one comparison
type Config struct {
	// ChunkSize is the window length in characters
	ChunkSize int `json:"chunk_size"`

	// Overlap is how many characters consecutive windows share; must be < ChunkSize
	Overlap int `json:"overlap"`

	// Concurrency is the ceiling on chunks compared at once
	Concurrency int `json:"concurrency"`

	// Retry is the policy applied to every capability call
	Retry types.RetryPolicy `json:"retry"`

	// FailOnChunkError makes Compare return a *PartialError when any chunk fails
	// after retries. The report is returned either way.
	FailOnChunkError bool `json:"fail_on_chunk_error"`
}

// DefaultConfig returns the default comparison configuration
func DefaultConfig() Config {
	return Config{
		ChunkSize:   DefaultChunkSize,
		Overlap:     DefaultOverlap,
		Concurrency: DefaultConcurrency,
		Retry:       types.DefaultRetryPolicy(),
	}
}

// ConfigError reports configuration that is rejected before any work starts
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid comparison config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if err := chunker.Validate(c.ChunkSize, c.Overlap); err != nil {
		return &ConfigError{Err: err}
	}
	if c.Concurrency <= 0 {
		return &ConfigError{Err: fmt.Errorf("concurrency must be positive (got %d)", c.Concurrency)}
	}
	if err := c.Retry.Validate(); err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}
