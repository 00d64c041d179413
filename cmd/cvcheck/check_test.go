package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/cvcheck/internal/ai"
	"github.com/steveyegge/cvcheck/internal/config"
	"github.com/steveyegge/cvcheck/internal/pipeline"
	"github.com/steveyegge/cvcheck/internal/pointer"
	"github.com/steveyegge/cvcheck/internal/schema"
	"github.com/steveyegge/cvcheck/internal/types"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// roleChecker reports /role whenever the chunk mentions a manager
func roleChecker(calls *int32) ai.Capability {
	return ai.CapabilityFunc(func(ctx context.Context, req ai.ChunkRequest) ([]types.RawFinding, error) {
		atomic.AddInt32(calls, 1)
		if !strings.Contains(req.Chunk.Text, "Manager") {
			return nil, nil
		}
		i := req.Index.Position("/role")
		return []types.RawFinding{{
			FieldIndex: &i,
			Expected:   json.RawMessage(`"Eng"`),
			Actual:     json.RawMessage(`"Manager"`),
			Message:    "Document says Manager",
		}}, nil
	})
}

func TestLoadRecord(t *testing.T) {
	dir := t.TempDir()

	t.Run("json keeps key order", func(t *testing.T) {
		path := writeTemp(t, dir, "form.json", `{"role": "Eng", "name": "Jo"}`)
		record, err := loadRecord(path)
		require.NoError(t, err)
		assert.Equal(t, `{"role": "Eng", "name": "Jo"}`, string(record))
	})

	t.Run("yaml", func(t *testing.T) {
		path := writeTemp(t, dir, "form.yml", "name: Jo\nskills:\n  - Go\n  - Rust\n")
		record, err := loadRecord(path)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name": "Jo", "skills": ["Go", "Rust"]}`, string(record))
	})

	t.Run("yaml keeps key order", func(t *testing.T) {
		path := writeTemp(t, dir, "ordered.yaml", "name: Jo\nrole: Eng\nage: 30\nlinks:\n  site: x\n  blog: null\ntags: &t [a, b]\nagain: *t\n")
		record, err := loadRecord(path)
		require.NoError(t, err)
		assert.Equal(t, `{"name":"Jo","role":"Eng","age":30,"links":{"site":"x","blog":null},"tags":["a","b"],"again":["a","b"]}`, string(record))

		index, err := pointer.Index(record)
		require.NoError(t, err)
		assert.Equal(t, []types.Address{
			"/name", "/role", "/age", "/links/site", "/links/blog",
			"/tags/0", "/tags/1", "/again/0", "/again/1",
		}, index.Addresses())
	})

	t.Run("empty yaml", func(t *testing.T) {
		path := writeTemp(t, dir, "empty.yaml", "")
		record, err := loadRecord(path)
		require.NoError(t, err)
		assert.Equal(t, "null", string(record))
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeTemp(t, dir, "broken.json", `{"name": `)
		_, err := loadRecord(path)
		assert.ErrorContains(t, err, "not valid JSON")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := loadRecord(filepath.Join(dir, "nope.json"))
		assert.ErrorContains(t, err, "reading record")
	})
}

func TestCheckExit(t *testing.T) {
	passed := &pipeline.Report{}
	failed := &pipeline.Report{Findings: []types.Finding{{Field: "/a"}}}
	incomplete := &pipeline.Report{FailedChunks: 1}

	assert.NoError(t, checkExit(passed, nil))

	var exit *exitError
	require.ErrorAs(t, checkExit(failed, nil), &exit)
	assert.Equal(t, 1, exit.code)
	require.ErrorAs(t, checkExit(incomplete, nil), &exit)

	boom := assert.AnError
	assert.Same(t, boom, checkExit(passed, boom))
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	record := writeTemp(t, dir, "form.json", `{"name": "Jo", "role": "Eng"}`)
	document := writeTemp(t, dir, "cv.txt", "Name: Jo. Role: Manager.")

	var calls int32
	var out bytes.Buffer
	report, err := runCheck(context.Background(), &out, config.DefaultConfig(), roleChecker(&calls), checkOptions{
		RecordPath:   record,
		DocumentPath: document,
		ShowEvents:   true,
	})
	require.NoError(t, err)

	require.Len(t, report.Findings, 1)
	assert.Equal(t, types.Address("/role"), report.Findings[0].Field)
	assert.Equal(t, pipeline.StatusFailed, report.Status())
	assert.EqualValues(t, 1, calls)
	assert.Contains(t, out.String(), "Comparing 2 fields against 1 chunks")
	assert.Contains(t, out.String(), "/role (role)")
}

func TestRunCheckJSON(t *testing.T) {
	dir := t.TempDir()
	record := writeTemp(t, dir, "form.json", `{"name": "Jo", "role": "Eng"}`)
	document := writeTemp(t, dir, "cv.html", "<p>Name: Jo</p><p>Role: Eng</p>")

	var calls int32
	var out bytes.Buffer
	report, err := runCheck(context.Background(), &out, config.DefaultConfig(), roleChecker(&calls), checkOptions{
		RecordPath:   record,
		DocumentPath: document,
		JSON:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusPassed, report.Status())

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got), "output is a single JSON document: %s", out.String())
	assert.Equal(t, "PASSED", got["status"])
}

func TestRunCheckSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	record := writeTemp(t, dir, "form.json", `{"name": "Jo", "age": "thirty"}`)
	document := writeTemp(t, dir, "cv.txt", "Name: Jo")
	schemaPath := writeTemp(t, dir, "form.schema.yaml", "type: object\nproperties:\n  age:\n    type: integer\n")

	var calls int32
	var out bytes.Buffer
	report, err := runCheck(context.Background(), &out, config.DefaultConfig(), roleChecker(&calls), checkOptions{
		RecordPath:   record,
		DocumentPath: document,
		SchemaPath:   schemaPath,
	})

	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, report)
	assert.Zero(t, calls, "an invalid record is never compared")
	assert.Contains(t, out.String(), "/age")
}

func TestRunCheckInvalidChunking(t *testing.T) {
	dir := t.TempDir()
	record := writeTemp(t, dir, "form.json", `{"name": "Jo"}`)
	document := writeTemp(t, dir, "cv.txt", "Name: Jo")

	cfg := config.DefaultConfig()
	cfg.ChunkSize, cfg.Overlap = 100, 100

	var calls int32
	_, err := runCheck(context.Background(), &bytes.Buffer{}, cfg, roleChecker(&calls), checkOptions{
		RecordPath:   record,
		DocumentPath: document,
	})

	var cfgErr *pipeline.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, calls)
}

func TestRelevantChange(t *testing.T) {
	dir := t.TempDir()
	watchedPath, err := filepath.Abs(filepath.Join(dir, "cv.txt"))
	require.NoError(t, err)
	watched := map[string]bool{watchedPath: true}

	assert.True(t, relevantChange(fsnotify.Event{Name: watchedPath, Op: fsnotify.Write}, watched))
	assert.True(t, relevantChange(fsnotify.Event{Name: watchedPath, Op: fsnotify.Create}, watched))
	assert.False(t, relevantChange(fsnotify.Event{Name: watchedPath, Op: fsnotify.Chmod}, watched))
	assert.False(t, relevantChange(fsnotify.Event{Name: filepath.Join(dir, "other.txt"), Op: fsnotify.Write}, watched))
}

func TestWatchFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "cv.txt", "v1")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runs := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{path}, func() { runs <- struct{}{} })
	}()

	select {
	case <-runs:
	case <-ctx.Done():
		t.Fatal("initial run did not happen")
	}

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	select {
	case <-runs:
	case <-ctx.Done():
		t.Fatal("change did not trigger a run")
	}

	cancel()
	assert.NoError(t, <-done)
}
