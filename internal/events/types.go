// Package events describes what happens during a comparison run so that
// callers can observe progress without the pipeline writing to any output
// itself.
package events

import (
	"time"
)

// EventType represents the type of event that occurred during a comparison run.
type EventType string

const (
	// EventTypeComparisonStarted indicates the record was indexed and the document chunked
	EventTypeComparisonStarted EventType = "comparison_started"
	// EventTypeComparisonCompleted indicates all chunks were merged into the final findings
	EventTypeComparisonCompleted EventType = "comparison_completed"

	// Per-chunk events
	// EventTypeChunkCompleted indicates a chunk was compared and its findings normalized
	EventTypeChunkCompleted EventType = "chunk_completed"
	// EventTypeChunkFailed indicates a chunk failed after all retries
	EventTypeChunkFailed EventType = "chunk_failed"
	// EventTypeChunkMalformed indicates the capability answered a chunk with something
	// that is not a findings document
	EventTypeChunkMalformed EventType = "chunk_malformed"
	// EventTypeRetryScheduled indicates a capability call will be retried after a backoff
	EventTypeRetryScheduled EventType = "retry_scheduled"
)

// EventSeverity represents the severity level of an event.
type EventSeverity string

const (
	// SeverityInfo indicates informational events
	SeverityInfo EventSeverity = "info"
	// SeverityWarning indicates potentially problematic events
	SeverityWarning EventSeverity = "warning"
	// SeverityError indicates error events
	SeverityError EventSeverity = "error"
)

// Event is one observation from a comparison run.
type Event struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// RunID groups the events of one comparison
	RunID string `json:"run_id"`
	// Type is the type of event
	Type EventType `json:"type"`
	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`
	// Severity is the severity level of this event
	Severity EventSeverity `json:"severity"`
	// Message is a human-readable description of the event
	Message string `json:"message"`
	// Data contains structured, type-specific data (must be JSON-serializable)
	Data map[string]interface{} `json:"data"`
}

// ComparisonStartedData contains structured data for comparison_started events.
type ComparisonStartedData struct {
	// FieldCount is the number of leaf addresses in the record
	FieldCount int `json:"field_count"`
	// DocumentLength is the document length in characters
	DocumentLength int `json:"document_length"`
	// ChunkCount is the number of chunks that will be dispatched
	ChunkCount int `json:"chunk_count"`
	// Concurrency is the worker ceiling in effect
	Concurrency int `json:"concurrency"`
}

// ChunkCompletedData contains structured data for chunk_completed events.
type ChunkCompletedData struct {
	ChunkIndex int `json:"chunk_index"`
	Start      int `json:"start"`
	End        int `json:"end"`
	// Findings is the number of findings that survived normalization
	Findings int `json:"findings"`
	// Dropped is the number of findings whose field reference did not resolve
	Dropped int `json:"dropped"`
}

// ChunkFailedData contains structured data for chunk_failed and chunk_malformed events.
type ChunkFailedData struct {
	ChunkIndex int `json:"chunk_index"`
	// Kind is the error classification (rate_limited, server_error, fatal, malformed)
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// RetryScheduledData contains structured data for retry_scheduled events.
type RetryScheduledData struct {
	ChunkIndex int `json:"chunk_index"`
	// Attempt is the 1-based retry number
	Attempt int `json:"attempt"`
	// DelayMs is the backoff before the retry, jitter included
	DelayMs int64  `json:"delay_ms"`
	Error   string `json:"error"`
}

// ComparisonCompletedData contains structured data for comparison_completed events.
type ComparisonCompletedData struct {
	Status          string `json:"status"`
	Findings        int    `json:"findings"`
	Duplicates      int    `json:"duplicates"`
	DroppedFindings int    `json:"dropped_findings"`
	ChunkCount      int    `json:"chunk_count"`
	FailedChunks    int    `json:"failed_chunks"`
	MalformedChunks int    `json:"malformed_chunks"`
	DurationMs      int64  `json:"duration_ms"`
}
