package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/cvcheck/internal/types"
)

// TestSplitRejectsInvalidConfig tests that bad parameters fail fast
func TestSplitRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{name: "overlap equals size", chunkSize: 100, overlap: 100},
		{name: "overlap larger than size", chunkSize: 10, overlap: 11},
		{name: "zero size", chunkSize: 0, overlap: 0},
		{name: "negative size", chunkSize: -5, overlap: 0},
		{name: "negative overlap", chunkSize: 10, overlap: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split("some text", tt.chunkSize, tt.overlap)
			require.Error(t, err)
			assert.Nil(t, chunks)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.chunkSize, cfgErr.ChunkSize)
			assert.Equal(t, tt.overlap, cfgErr.Overlap)
		})
	}
}

func TestSplitEmptyText(t *testing.T) {
	chunks, err := Split("", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	chunks, err := Split("Name: Jo.", 100, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, types.Chunk{Index: 0, Start: 0, End: 9, Text: "Name: Jo."}, chunks[0])
}

func TestSplitWindows(t *testing.T) {
	chunks, err := Split("abcdefghij", 4, 1)
	require.NoError(t, err)

	want := []types.Chunk{
		{Index: 0, Start: 0, End: 4, Text: "abcd"},
		{Index: 1, Start: 3, End: 7, Text: "defg"},
		{Index: 2, Start: 6, End: 10, Text: "ghij"},
	}
	assert.Equal(t, want, chunks)
}

// TestSplitStopsAtEnd verifies no trailing chunk is emitted once the end is reached
func TestSplitStopsAtEnd(t *testing.T) {
	chunks, err := Split("0123456789", 10, 3)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 10, chunks[0].End)
}

func TestSplitCountsRunes(t *testing.T) {
	text := "héllo wörld ✓✓✓"
	chunks, err := Split(text, 5, 2)
	require.NoError(t, err)

	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c.Text), "chunk %d split a rune", c.Index)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 5)
		assert.Equal(t, c.Len(), utf8.RuneCountInString(c.Text))
	}
	assert.Equal(t, utf8.RuneCountInString(text), chunks[len(chunks)-1].End)
}

// TestSplitCoverageAndCount checks the coverage property and the chunk count
// formula over a grid of sizes
func TestSplitCoverageAndCount(t *testing.T) {
	for n := 0; n <= 60; n++ {
		text := strings.Repeat("x", n)
		for size := 1; size <= 12; size++ {
			for overlap := 0; overlap < size; overlap++ {
				chunks, err := Split(text, size, overlap)
				require.NoError(t, err)

				assert.Len(t, chunks, Count(n, size, overlap), "n=%d size=%d overlap=%d", n, size, overlap)
				if n > overlap {
					step := size - overlap
					want := (n - overlap + step - 1) / step
					assert.Len(t, chunks, want, "formula n=%d size=%d overlap=%d", n, size, overlap)
				}

				covered := make([]bool, n)
				for i, c := range chunks {
					assert.LessOrEqual(t, c.End-c.Start, size)
					assert.Equal(t, i, c.Index)
					if i > 0 {
						assert.Equal(t, chunks[i-1].Start+size-overlap, c.Start)
					}
					for p := c.Start; p < c.End; p++ {
						covered[p] = true
					}
				}
				for p, ok := range covered {
					if !ok {
						t.Fatalf("position %d not covered (n=%d size=%d overlap=%d)", p, n, size, overlap)
					}
				}
			}
		}
	}
}

func TestCountEdgeCases(t *testing.T) {
	assert.Equal(t, 0, Count(0, 10, 2))
	assert.Equal(t, 1, Count(1, 10, 5))
	assert.Equal(t, 0, Count(10, 10, 10))
	assert.Equal(t, 0, Count(10, 0, 0))
}
