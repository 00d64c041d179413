package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/steveyegge/cvcheck/internal/events"
	"github.com/steveyegge/cvcheck/internal/pipeline"
	"github.com/steveyegge/cvcheck/internal/pointer"
	"github.com/steveyegge/cvcheck/internal/schema"
)

// printReport writes a human-readable report
func printReport(w io.Writer, report *pipeline.Report) {
	bold := color.New(color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Fprintln(w)
	for i, f := range report.Findings {
		fmt.Fprintf(w, "%s %s %s\n", red("✗"), bold(string(f.Field)), gray("("+pointer.ToColumn(f.Field)+")"))
		fmt.Fprintf(w, "    record:   %s\n", quoteValue(f.ExpectedText))
		fmt.Fprintf(w, "    document: %s\n", quoteValue(f.ActualText))
		if f.Message != "" {
			fmt.Fprintf(w, "    %s\n", gray(f.Message))
		}
		if i < len(report.Findings)-1 {
			fmt.Fprintln(w)
		}
	}
	if len(report.Findings) == 0 {
		fmt.Fprintf(w, "%s No disagreements found\n", green("✓"))
	}

	if len(report.ChunkErrors) > 0 {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintln(w)
		for _, ce := range report.ChunkErrors {
			fmt.Fprintf(w, "%s chunk %d %s: %s\n", yellow("⚠"), ce.ChunkIndex, ce.Kind, truncateString(ce.Message, 100))
		}
	}

	fmt.Fprintf(w, "\n%s  %s\n", statusColor(report.Status()).Sprint(report.Status()), gray(summaryLine(report)))
}

func summaryLine(report *pipeline.Report) string {
	fields := []string{
		fmt.Sprintf("%d findings", len(report.Findings)),
		fmt.Sprintf("%d fields", report.FieldCount),
		fmt.Sprintf("%d chunks", report.ChunkCount),
	}
	if report.FailedChunks > 0 {
		fields = append(fields, fmt.Sprintf("%d failed", report.FailedChunks))
	}
	if report.MalformedChunks > 0 {
		fields = append(fields, fmt.Sprintf("%d malformed", report.MalformedChunks))
	}
	if report.DuplicateFindings > 0 {
		fields = append(fields, fmt.Sprintf("%d duplicates merged", report.DuplicateFindings))
	}
	if report.DroppedFindings > 0 {
		fields = append(fields, fmt.Sprintf("%d unresolved dropped", report.DroppedFindings))
	}
	fields = append(fields, formatDurationMs(int(report.Duration.Milliseconds())))
	return joinFields(fields)
}

func statusColor(status pipeline.Status) *color.Color {
	switch status {
	case pipeline.StatusPassed:
		return color.New(color.FgGreen, color.Bold)
	case pipeline.StatusFailed:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow, color.Bold)
	}
}

func quoteValue(s string) string {
	if s == "" {
		return "(empty)"
	}
	return fmt.Sprintf("%q", s)
}

// jsonFinding is a finding as printed by --json
type jsonFinding struct {
	Field    string `json:"field"`
	Column   string `json:"column"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Message  string `json:"message"`
}

type jsonReport struct {
	Status            pipeline.Status       `json:"status"`
	RunID             string                `json:"run_id"`
	Findings          []jsonFinding         `json:"findings"`
	FieldCount        int                   `json:"field_count"`
	ChunkCount        int                   `json:"chunk_count"`
	FailedChunks      int                   `json:"failed_chunks"`
	MalformedChunks   int                   `json:"malformed_chunks"`
	DroppedFindings   int                   `json:"dropped_findings"`
	DuplicateFindings int                   `json:"duplicate_findings"`
	ChunkErrors       []pipeline.ChunkError `json:"chunk_errors,omitempty"`
	DurationMs        int64                 `json:"duration_ms"`
}

// writeJSONReport writes the report as indented JSON
func writeJSONReport(w io.Writer, report *pipeline.Report) error {
	out := jsonReport{
		Status:            report.Status(),
		RunID:             report.RunID,
		Findings:          make([]jsonFinding, 0, len(report.Findings)),
		FieldCount:        report.FieldCount,
		ChunkCount:        report.ChunkCount,
		FailedChunks:      report.FailedChunks,
		MalformedChunks:   report.MalformedChunks,
		DroppedFindings:   report.DroppedFindings,
		DuplicateFindings: report.DuplicateFindings,
		ChunkErrors:       report.ChunkErrors,
		DurationMs:        report.Duration.Milliseconds(),
	}
	for _, f := range report.Findings {
		out.Findings = append(out.Findings, jsonFinding{
			Field:    string(f.Field),
			Column:   pointer.ToColumn(f.Field),
			Expected: f.ExpectedText,
			Actual:   f.ActualText,
			Message:  f.Message,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// printViolations lists schema violations
func printViolations(w io.Writer, verr *schema.ValidationError) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(w, "\n%s Record does not match its schema:\n\n", red("✗"))
	for _, v := range verr.Violations {
		fmt.Fprintf(w, "  %s  %s\n", color.New(color.Bold).Sprint(v.Field), v.Reason)
	}
	fmt.Fprintln(w)
}

// eventPrinter renders run events as they happen. Events for different chunks
// arrive from different goroutines.
type eventPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func newEventPrinter(w io.Writer) *eventPrinter {
	return &eventPrinter{w: w}
}

func (p *eventPrinter) Emit(event *events.Event) {
	if shouldSkipEvent(event) {
		return
	}

	line := fmt.Sprintf("%s [%s] %s",
		getEventEmoji(event),
		event.Timestamp.Format("15:04:05"),
		getSeverityColor(event.Severity).Sprint(event.Message),
	)
	metadata := extractEventMetadata(event)

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, line)
	if metadata != "" {
		fmt.Fprintf(p.w, "  %s\n", color.New(color.FgHiBlack).Sprint(metadata))
	}
}

// shouldSkipEvent returns true for events that only repeat what the report shows
func shouldSkipEvent(event *events.Event) bool {
	return event.Type == events.EventTypeComparisonCompleted
}

// getEventEmoji returns the appropriate emoji for each event type
func getEventEmoji(event *events.Event) string {
	switch event.Type {
	case events.EventTypeComparisonStarted:
		return "🔍"
	case events.EventTypeChunkCompleted:
		if getIntField(event.Data, "findings", 0) > 0 {
			return "🚩"
		}
		return "✅"
	case events.EventTypeChunkMalformed:
		return "🧩"
	case events.EventTypeRetryScheduled:
		return "🔁"
	}

	// Fallback to severity-based icons
	switch event.Severity {
	case events.SeverityInfo:
		return "ℹ️"
	case events.SeverityWarning:
		return "⚠️"
	case events.SeverityError:
		return "❌"
	default:
		return "•"
	}
}

// getSeverityColor returns the appropriate color for a severity level
func getSeverityColor(severity events.EventSeverity) *color.Color {
	switch severity {
	case events.SeverityInfo:
		return color.New(color.FgCyan)
	case events.SeverityWarning:
		return color.New(color.FgYellow)
	case events.SeverityError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}

// extractEventMetadata extracts a few key metadata fields for each event type
func extractEventMetadata(event *events.Event) string {
	var fields []string

	switch event.Type {
	case events.EventTypeComparisonStarted:
		// comparison_started: fields | chars | chunks | workers
		fields = []string{
			fmt.Sprintf("%d fields", getIntField(event.Data, "field_count", 0)),
			fmt.Sprintf("%d chars", getIntField(event.Data, "document_length", 0)),
			fmt.Sprintf("%d chunks", getIntField(event.Data, "chunk_count", 0)),
			fmt.Sprintf("%d workers", getIntField(event.Data, "concurrency", 0)),
		}

	case events.EventTypeChunkCompleted:
		// chunk_completed: range | findings | dropped
		fields = []string{
			fmt.Sprintf("chars %d-%d", getIntField(event.Data, "start", 0), getIntField(event.Data, "end", 0)),
			fmt.Sprintf("%d findings", getIntField(event.Data, "findings", 0)),
		}
		if dropped := getIntField(event.Data, "dropped", 0); dropped > 0 {
			fields = append(fields, fmt.Sprintf("%d dropped", dropped))
		}

	case events.EventTypeChunkFailed, events.EventTypeChunkMalformed:
		// chunk_failed: kind | error
		fields = []string{
			getStringField(event.Data, "kind", "unknown"),
			truncateString(getStringField(event.Data, "error", ""), 50),
		}

	case events.EventTypeRetryScheduled:
		// retry_scheduled: attempt | delay | error
		fields = []string{
			fmt.Sprintf("attempt %d", getIntField(event.Data, "attempt", 0)),
			formatDurationMs(getIntField(event.Data, "delay_ms", 0)),
			truncateString(getStringField(event.Data, "error", ""), 40),
		}

	default:
		if err, ok := event.Data["error"].(string); ok {
			fields = append(fields, truncateString(err, 50))
		}
		if duration := getIntField(event.Data, "duration_ms", 0); duration > 0 {
			fields = append(fields, formatDurationMs(duration))
		}
	}

	if len(fields) == 0 {
		return ""
	}
	return truncateString(joinFields(fields), 70)
}

// Helper functions to safely extract typed fields from event data
func getStringField(data map[string]interface{}, key, defaultValue string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return defaultValue
}

func getIntField(data map[string]interface{}, key string, defaultValue int) int {
	if val, ok := data[key].(int); ok {
		return val
	}
	if val, ok := data[key].(float64); ok {
		return int(val)
	}
	return defaultValue
}

// formatDurationMs formats milliseconds into a human-readable duration
func formatDurationMs(ms int) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%.1fm", float64(ms)/60000)
}

// joinFields joins metadata fields with " | ", skipping empty ones
func joinFields(fields []string) string {
	nonEmpty := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	return strings.Join(nonEmpty, " | ")
}

// truncateString shortens s to maxLen runes, marking the cut with "..."
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
