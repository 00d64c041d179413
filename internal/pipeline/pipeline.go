// Package pipeline checks a record against document text: it indexes the
// record, chunks the text, compares every chunk through the capability with
// bounded concurrency and retries, and merges the answers into one report.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/steveyegge/cvcheck/internal/ai"
	"github.com/steveyegge/cvcheck/internal/chunker"
	"github.com/steveyegge/cvcheck/internal/deduplication"
	"github.com/steveyegge/cvcheck/internal/dispatch"
	"github.com/steveyegge/cvcheck/internal/events"
	"github.com/steveyegge/cvcheck/internal/normalize"
	"github.com/steveyegge/cvcheck/internal/pointer"
	"github.com/steveyegge/cvcheck/internal/types"
)

// Comparator runs comparisons against one capability. It holds no per-run
// state and is safe for concurrent use.
type Comparator struct {
	capability ai.Capability
	logger     *zap.Logger
	sink       events.Sink
	retryOpts  []ai.RetryOption
}

// Option configures a Comparator
type Option func(*Comparator)

// WithLogger sets the logger for diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(c *Comparator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEventSink sets where run events are sent. Events for different chunks
// are emitted from different goroutines.
func WithEventSink(sink events.Sink) Option {
	return func(c *Comparator) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithRetryOptions passes extra options to the retrier of every chunk
func WithRetryOptions(opts ...ai.RetryOption) Option {
	return func(c *Comparator) {
		c.retryOpts = append(c.retryOpts, opts...)
	}
}

// New creates a Comparator around capability
func New(capability ai.Capability, opts ...Option) (*Comparator, error) {
	if capability == nil {
		return nil, fmt.Errorf("capability cannot be nil")
	}
	c := &Comparator{
		capability: capability,
		logger:     zap.NewNop(),
		sink:       events.NopSink{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chunkOutcome struct {
	findings []types.Finding
	dropped  int
}

// Compare checks record against documentText.
//
// Configuration problems are returned as *ConfigError before anything else
// happens, and a cyclic record fails indexing. Empty text yields an empty
// report without contacting the capability. A chunk that still fails after
// its retries contributes no findings and is counted in the report; with
// cfg.FailOnChunkError the report comes back together with a *PartialError.
// If ctx is canceled the partial report is returned with ctx's error.
func (c *Comparator) Compare(ctx context.Context, record any, documentText string, cfg Config) (*Report, error) {
	started := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	index, err := pointer.Index(record)
	if err != nil {
		return nil, fmt.Errorf("failed to index record: %w", err)
	}
	recordJSON, err := marshalRecord(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	chunks, err := chunker.Split(documentText, cfg.ChunkSize, cfg.Overlap)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	report := &Report{
		RunID:      events.NewRunID(),
		Findings:   []types.Finding{},
		FieldCount: index.Len(),
		ChunkCount: len(chunks),
	}
	logger := c.logger.With(zap.String("run_id", report.RunID))

	c.emit(events.NewComparisonStartedEvent(report.RunID, events.ComparisonStartedData{
		FieldCount:     index.Len(),
		DocumentLength: len([]rune(documentText)),
		ChunkCount:     len(chunks),
		Concurrency:    cfg.Concurrency,
	}))
	logger.Debug("comparison started",
		zap.Int("fields", index.Len()),
		zap.Int("chunks", len(chunks)),
		zap.Int("concurrency", cfg.Concurrency))

	if len(chunks) > 0 {
		results := dispatch.Run(ctx, chunks, cfg.Concurrency, func(ctx context.Context, i int, chunk types.Chunk) (chunkOutcome, error) {
			return c.compareChunk(ctx, report.RunID, logger, cfg.Retry, index, recordJSON, chunk)
		})
		c.merge(report, results, logger)
	}

	report.Duration = time.Since(started)
	c.emit(events.NewComparisonCompletedEvent(report.RunID, events.ComparisonCompletedData{
		Status:          string(report.Status()),
		Findings:        len(report.Findings),
		Duplicates:      report.DuplicateFindings,
		DroppedFindings: report.DroppedFindings,
		ChunkCount:      report.ChunkCount,
		FailedChunks:    report.FailedChunks,
		MalformedChunks: report.MalformedChunks,
		DurationMs:      report.Duration.Milliseconds(),
	}))
	logger.Debug("comparison completed",
		zap.String("status", string(report.Status())),
		zap.Int("findings", len(report.Findings)),
		zap.Int("failed_chunks", report.FailedChunks),
		zap.Int("malformed_chunks", report.MalformedChunks),
		zap.Duration("duration", report.Duration))

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("comparison interrupted: %w", err)
	}
	if cfg.FailOnChunkError && report.FailedChunks > 0 {
		var failed []ChunkError
		for _, ce := range report.ChunkErrors {
			if ce.Kind != ai.KindMalformed.String() {
				failed = append(failed, ce)
			}
		}
		return report, &PartialError{Failed: report.FailedChunks, Total: report.ChunkCount, Errors: failed}
	}
	return report, nil
}

// compareChunk asks the capability about one chunk under the retry policy and
// normalizes the answer
func (c *Comparator) compareChunk(ctx context.Context, runID string, logger *zap.Logger, policy types.RetryPolicy,
	index types.AddressIndex, recordJSON []byte, chunk types.Chunk) (chunkOutcome, error) {

	opts := append([]ai.RetryOption{
		ai.WithRetryLogger(logger),
		ai.WithOnRetry(func(n ai.RetryNotice) {
			c.emit(events.NewRetryScheduledEvent(runID, events.RetryScheduledData{
				ChunkIndex: chunk.Index,
				Attempt:    n.Attempt,
				DelayMs:    n.Delay.Milliseconds(),
				Error:      errString(n.Err),
			}))
		}),
	}, c.retryOpts...)

	retrier, err := ai.NewRetrier(policy, opts...)
	if err != nil {
		return chunkOutcome{}, err
	}

	req := ai.ChunkRequest{Index: index, Record: recordJSON, Chunk: chunk}
	var raw []types.RawFinding
	err = retrier.Do(ctx, fmt.Sprintf("chunk %d", chunk.Index), func(ctx context.Context) error {
		var callErr error
		raw, callErr = c.capability.CompareChunk(ctx, req)
		return callErr
	})
	if err != nil {
		return chunkOutcome{}, err
	}

	findings, dropped := normalize.Findings(raw, index)
	if dropped > 0 {
		logger.Debug("dropped findings with unresolved field references",
			zap.Int("chunk", chunk.Index),
			zap.Int("dropped", dropped))
	}
	c.emit(events.NewChunkCompletedEvent(runID, events.ChunkCompletedData{
		ChunkIndex: chunk.Index,
		Start:      chunk.Start,
		End:        chunk.End,
		Findings:   len(findings),
		Dropped:    dropped,
	}))
	return chunkOutcome{findings: findings, dropped: dropped}, nil
}

// merge folds chunk results into the report in chunk order, then deduplicates
func (c *Comparator) merge(report *Report, results []dispatch.Result[chunkOutcome], logger *zap.Logger) {
	var all []types.Finding
	for i, res := range results {
		if res.Err != nil {
			kind := ai.Classify(res.Err)
			ce := ChunkError{ChunkIndex: i, Kind: kind.String(), Message: res.Err.Error(), Err: res.Err}
			report.ChunkErrors = append(report.ChunkErrors, ce)

			data := events.ChunkFailedData{ChunkIndex: i, Kind: ce.Kind, Error: ce.Message}
			if kind == ai.KindMalformed {
				report.MalformedChunks++
				c.emit(events.NewChunkMalformedEvent(report.RunID, data))
				logger.Warn("chunk answer was not a findings document", zap.Int("chunk", i), zap.Error(res.Err))
			} else {
				report.FailedChunks++
				c.emit(events.NewChunkFailedEvent(report.RunID, data))
				logger.Warn("chunk comparison failed", zap.Int("chunk", i), zap.Stringer("kind", kind), zap.Error(res.Err))
			}
			continue
		}
		all = append(all, res.Value.findings...)
		report.DroppedFindings += res.Value.dropped
	}

	unique, stats := deduplication.Dedupe(all)
	report.Findings = unique
	report.DuplicateFindings = stats.Duplicates
}

func (c *Comparator) emit(event *events.Event, err error) {
	if err != nil {
		c.logger.Debug("failed to build event", zap.Error(err))
		return
	}
	c.sink.Emit(event)
}

// marshalRecord returns the record as JSON for the capability prompt
func marshalRecord(record any) ([]byte, error) {
	switch r := record.(type) {
	case json.RawMessage:
		return r, nil
	case []byte:
		return r, nil
	}
	return json.Marshal(record)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
