package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/cvcheck/internal/types"
)

// Status is the verdict on a record after a comparison
type Status string

const (
	// StatusPassed means every chunk was compared and nothing disagreed
	StatusPassed Status = "PASSED"
	// StatusFailed means at least one field disagrees with the document
	StatusFailed Status = "FAILED"
	// StatusIncomplete means nothing disagreed, but some chunks were never judged
	StatusIncomplete Status = "INCOMPLETE"
)

// Report is the result of one comparison
type Report struct {
	RunID string `json:"run_id"`

	// Findings are deduplicated and ordered by the chunk that first reported them
	Findings []types.Finding `json:"findings"`

	FieldCount int `json:"field_count"`
	ChunkCount int `json:"chunk_count"`

	// FailedChunks is the number of chunks whose capability call failed after retries
	FailedChunks int `json:"failed_chunks"`

	// MalformedChunks is the number of chunks answered with something that was
	// not a findings document; they contribute no findings
	MalformedChunks int `json:"malformed_chunks"`

	// DroppedFindings is the number of findings whose field reference did not resolve
	DroppedFindings int `json:"dropped_findings"`

	// DuplicateFindings is the number of findings merged away by deduplication
	DuplicateFindings int `json:"duplicate_findings"`

	// ChunkErrors lists failed and malformed chunks in chunk order
	ChunkErrors []ChunkError `json:"chunk_errors,omitempty"`

	Duration time.Duration `json:"duration"`
}

// ChunkError records why one chunk produced no findings
type ChunkError struct {
	ChunkIndex int    `json:"chunk_index"`
	Kind       string `json:"kind"`
	Message    string `json:"error"`
	Err        error  `json:"-"`
}

// Status returns the verdict for the compared record
func (r *Report) Status() Status {
	switch {
	case len(r.Findings) > 0:
		return StatusFailed
	case r.FailedChunks > 0 || r.MalformedChunks > 0:
		return StatusIncomplete
	default:
		return StatusPassed
	}
}

// Complete reports whether every chunk was judged by the capability
func (r *Report) Complete() bool {
	return r.FailedChunks == 0 && r.MalformedChunks == 0
}

// PartialError is returned with the report when FailOnChunkError is set and
// some chunks failed.
type PartialError struct {
	Failed int
	Total  int
	Errors []ChunkError
}

func (e *PartialError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d chunks failed", e.Failed, e.Total)
	for i, ce := range e.Errors {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(e.Errors)-i)
			break
		}
		fmt.Fprintf(&b, "; chunk %d: %s", ce.ChunkIndex, ce.Message)
	}
	return b.String()
}

// Unwrap exposes the underlying chunk errors to errors.Is and errors.As
func (e *PartialError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, ce := range e.Errors {
		if ce.Err != nil {
			errs = append(errs, ce.Err)
		}
	}
	return errs
}
