package events_test

import (
	"fmt"

	"github.com/steveyegge/cvcheck/internal/events"
)

// ExampleNewChunkFailedEvent demonstrates creating a chunk failure event with type-safe data.
func ExampleNewChunkFailedEvent() {
	event, _ := events.NewChunkFailedEvent("run-1", events.ChunkFailedData{
		ChunkIndex: 2,
		Kind:       "rate_limited",
		Error:      "429 Too Many Requests",
	})

	fmt.Println(event.Type, event.Severity)
	fmt.Println(event.Message)
	// Output:
	// chunk_failed error
	// Chunk 2 failed (rate_limited): 429 Too Many Requests
}

// ExampleEvent_GetRetryScheduledData demonstrates type-safe data handling.
func ExampleEvent_GetRetryScheduledData() {
	event := events.NewEvent(events.EventTypeRetryScheduled, "run-1", events.SeverityWarning, "retrying", nil)

	_ = event.SetRetryScheduledData(events.RetryScheduledData{ChunkIndex: 0, Attempt: 1, DelayMs: 1000})

	retrieved, _ := event.GetRetryScheduledData()
	fmt.Printf("Chunk: %d, Attempt: %d, Delay: %dms\n", retrieved.ChunkIndex, retrieved.Attempt, retrieved.DelayMs)
	// Output: Chunk: 0, Attempt: 1, Delay: 1000ms
}
