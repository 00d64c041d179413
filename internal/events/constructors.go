package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewRunID returns a fresh identifier for one comparison run
func NewRunID() string {
	return uuid.New().String()
}

// NewEvent creates an Event with no specific data structure.
func NewEvent(eventType EventType, runID string, severity EventSeverity, message string, data map[string]interface{}) *Event {
	if data == nil {
		data = make(map[string]interface{})
	}
	return &Event{
		ID:        uuid.New().String(),
		RunID:     runID,
		Type:      eventType,
		Timestamp: time.Now(),
		Severity:  severity,
		Message:   message,
		Data:      data,
	}
}

// NewComparisonStartedEvent creates a comparison_started event with type-safe data.
func NewComparisonStartedEvent(runID string, data ComparisonStartedData) (*Event, error) {
	event := NewEvent(EventTypeComparisonStarted, runID, SeverityInfo,
		fmt.Sprintf("Comparing %d fields against %d chunks", data.FieldCount, data.ChunkCount), nil)
	if err := event.SetComparisonStartedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewChunkCompletedEvent creates a chunk_completed event with type-safe data.
func NewChunkCompletedEvent(runID string, data ChunkCompletedData) (*Event, error) {
	event := NewEvent(EventTypeChunkCompleted, runID, SeverityInfo,
		fmt.Sprintf("Chunk %d: %d findings", data.ChunkIndex, data.Findings), nil)
	if err := event.SetChunkCompletedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewChunkFailedEvent creates a chunk_failed event with type-safe data.
func NewChunkFailedEvent(runID string, data ChunkFailedData) (*Event, error) {
	event := NewEvent(EventTypeChunkFailed, runID, SeverityError,
		fmt.Sprintf("Chunk %d failed (%s): %s", data.ChunkIndex, data.Kind, data.Error), nil)
	if err := event.SetChunkFailedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewChunkMalformedEvent creates a chunk_malformed event with type-safe data.
func NewChunkMalformedEvent(runID string, data ChunkFailedData) (*Event, error) {
	event := NewEvent(EventTypeChunkMalformed, runID, SeverityWarning,
		fmt.Sprintf("Chunk %d returned a malformed response, treating as no findings", data.ChunkIndex), nil)
	if err := event.SetChunkFailedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewRetryScheduledEvent creates a retry_scheduled event with type-safe data.
func NewRetryScheduledEvent(runID string, data RetryScheduledData) (*Event, error) {
	event := NewEvent(EventTypeRetryScheduled, runID, SeverityWarning,
		fmt.Sprintf("Chunk %d: retry %d in %dms", data.ChunkIndex, data.Attempt, data.DelayMs), nil)
	if err := event.SetRetryScheduledData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewComparisonCompletedEvent creates a comparison_completed event with type-safe data.
func NewComparisonCompletedEvent(runID string, data ComparisonCompletedData) (*Event, error) {
	severity := SeverityInfo
	if data.FailedChunks > 0 {
		severity = SeverityWarning
	}
	event := NewEvent(EventTypeComparisonCompleted, runID, severity,
		fmt.Sprintf("Comparison %s: %d findings, %d of %d chunks failed",
			data.Status, data.Findings, data.FailedChunks, data.ChunkCount), nil)
	if err := event.SetComparisonCompletedData(data); err != nil {
		return nil, err
	}
	return event, nil
}
