// Package chunker splits long document text into overlapping fixed-size windows
// that fit the capability's input limit.
package chunker

import (
	"fmt"

	"github.com/steveyegge/cvcheck/internal/types"
)

// ConfigError reports invalid chunking parameters. It is always raised before
// any text is processed.
type ConfigError struct {
	ChunkSize int
	Overlap   int
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid chunking (chunk_size=%d, overlap=%d): %s", e.ChunkSize, e.Overlap, e.Reason)
}

// Validate checks chunking parameters without splitting anything
func Validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return &ConfigError{ChunkSize: chunkSize, Overlap: overlap, Reason: "chunk_size must be positive"}
	}
	if overlap < 0 {
		return &ConfigError{ChunkSize: chunkSize, Overlap: overlap, Reason: "overlap cannot be negative"}
	}
	if overlap >= chunkSize {
		return &ConfigError{ChunkSize: chunkSize, Overlap: overlap, Reason: "overlap must be smaller than chunk_size"}
	}
	return nil
}

// Split cuts text into windows of at most chunkSize runes, each starting
// chunkSize-overlap runes after the previous one. The scan stops at the first
// window that reaches the end of the text, so every rune is covered and the
// last window is never fully contained in its predecessor.
//
// Empty text yields no chunks.
func Split(text string, chunkSize, overlap int) ([]types.Chunk, error) {
	if err := Validate(chunkSize, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	step := chunkSize - overlap
	chunks := make([]types.Chunk, 0, Count(n, chunkSize, overlap))
	for start := 0; ; start += step {
		end := min(start+chunkSize, n)
		chunks = append(chunks, types.Chunk{
			Index: len(chunks),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
		if end == n {
			break
		}
	}
	return chunks, nil
}

// Count returns how many chunks Split produces for a text of n runes.
// For n > overlap this is ceil((n - overlap) / (chunkSize - overlap)); any
// non-empty text yields at least one chunk.
func Count(n, chunkSize, overlap int) int {
	if n <= 0 || chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return 0
	}
	if n <= overlap {
		return 1
	}
	step := chunkSize - overlap
	return (n - overlap + step - 1) / step
}
