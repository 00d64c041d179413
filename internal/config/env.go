package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by ApplyEnv
const (
	EnvProvider           = "CVCHECK_PROVIDER"
	EnvModel              = "CVCHECK_MODEL"
	EnvBaseURL            = "CVCHECK_BASE_URL"
	EnvMaxTokens          = "CVCHECK_MAX_TOKENS"
	EnvRequestTimeout     = "CVCHECK_REQUEST_TIMEOUT"
	EnvChunkSize          = "CVCHECK_CHUNK_SIZE"
	EnvOverlap            = "CVCHECK_OVERLAP"
	EnvConcurrency        = "CVCHECK_CONCURRENCY"
	EnvFailOnChunkError   = "CVCHECK_FAIL_ON_CHUNK_ERROR"
	EnvMaxConcurrentCalls = "CVCHECK_MAX_CONCURRENT_CALLS"
	EnvMaxRetries         = "CVCHECK_MAX_RETRIES"
	EnvBaseDelayMs        = "CVCHECK_BASE_DELAY_MS"
	EnvMaxDelayMs         = "CVCHECK_MAX_DELAY_MS"
	EnvJitterMaxMs        = "CVCHECK_JITTER_MAX_MS"
	EnvPDFServiceURL      = "CVCHECK_PDF_SERVICE_URL"

	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
)

// ApplyEnv overrides c with any CVCHECK_* variables that are set and picks up
// provider credentials. Credentials are only ever read from the environment.
//
// Returns an error if any environment variable has an invalid value.
func (c *Config) ApplyEnv() error {
	if err := parseEnvString(EnvProvider, &c.Provider); err != nil {
		return err
	}
	if err := parseEnvString(EnvModel, &c.Model); err != nil {
		return err
	}
	if err := parseEnvString(EnvBaseURL, &c.BaseURL); err != nil {
		return err
	}
	if err := parseEnvInt(EnvMaxTokens, &c.MaxTokens); err != nil {
		return err
	}
	if err := parseEnvDuration(EnvRequestTimeout, &c.RequestTimeout); err != nil {
		return err
	}
	if err := parseEnvInt(EnvChunkSize, &c.ChunkSize); err != nil {
		return err
	}
	if err := parseEnvInt(EnvOverlap, &c.Overlap); err != nil {
		return err
	}
	if err := parseEnvInt(EnvConcurrency, &c.Concurrency); err != nil {
		return err
	}
	if err := parseEnvBool(EnvFailOnChunkError, &c.FailOnChunkError); err != nil {
		return err
	}
	if err := parseEnvInt(EnvMaxConcurrentCalls, &c.MaxConcurrentCalls); err != nil {
		return err
	}
	if err := parseEnvInt(EnvMaxRetries, &c.Retry.MaxRetries); err != nil {
		return err
	}
	if err := parseEnvInt(EnvBaseDelayMs, &c.Retry.BaseDelayMs); err != nil {
		return err
	}
	if err := parseEnvInt(EnvMaxDelayMs, &c.Retry.MaxDelayMs); err != nil {
		return err
	}
	if err := parseEnvInt(EnvJitterMaxMs, &c.Retry.JitterMaxMs); err != nil {
		return err
	}
	if err := parseEnvString(EnvPDFServiceURL, &c.PDFServiceURL); err != nil {
		return err
	}

	c.AnthropicAPIKey = os.Getenv(EnvAnthropicAPIKey)
	c.GeminiAPIKey = os.Getenv(EnvGeminiAPIKey)
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}

// parseEnvDuration parses a duration string ("90s", "2m") from an environment variable
func parseEnvDuration(key string, dest *Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = Duration(parsed)
	return nil
}
