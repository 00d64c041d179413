package deduplication

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/cvcheck/internal/types"
)

func finding(field, expected, actual, message string) types.Finding {
	return types.Finding{Field: types.Address(field), ExpectedText: expected, ActualText: actual, Message: message}
}

// TestDedupe_FirstMessageWins tests that two chunks reporting the same
// mismatch collapse to the first one
func TestDedupe_FirstMessageWins(t *testing.T) {
	in := []types.Finding{
		finding("/email", "a@x.com", "b@x.com", "mismatch"),
		finding("/email", "a@x.com", "b@x.com", "email on page 2 differs"),
	}

	out, stats := Dedupe(in)

	require.Len(t, out, 1)
	assert.Equal(t, "mismatch", out[0].Message)
	assert.Equal(t, Stats{Total: 2, Unique: 1, Duplicates: 1}, stats)
}

// TestDedupe_KeyFields tests that any difference in field, expected or actual keeps both
func TestDedupe_KeyFields(t *testing.T) {
	in := []types.Finding{
		finding("/email", "a@x.com", "b@x.com", "m"),
		finding("/phone", "a@x.com", "b@x.com", "m"),
		finding("/email", "c@x.com", "b@x.com", "m"),
		finding("/email", "a@x.com", "d@x.com", "m"),
	}

	out, stats := Dedupe(in)

	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("Dedupe() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, stats.Duplicates)
}

// TestDedupe_StableOrder tests survivors keep their first-seen order
func TestDedupe_StableOrder(t *testing.T) {
	in := []types.Finding{
		finding("/b", "1", "2", "first b"),
		finding("/a", "1", "2", "first a"),
		finding("/b", "1", "2", "second b"),
		finding("/c", "1", "2", "first c"),
		finding("/a", "1", "2", "second a"),
	}

	result := Deduplicate(in)

	want := []types.Finding{in[0], in[1], in[3]}
	if diff := cmp.Diff(want, result.Unique); diff != "" {
		t.Errorf("Deduplicate() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[int]int{2: 0, 4: 1}, result.Duplicates)
	require.NoError(t, result.Validate())
}

// TestDedupe_Empty tests empty and nil input
func TestDedupe_Empty(t *testing.T) {
	out, stats := Dedupe(nil)
	assert.Empty(t, out)
	assert.Equal(t, Stats{}, stats)

	result := Deduplicate([]types.Finding{})
	require.NoError(t, result.Validate())
}

// TestDedupe_Idempotent tests that deduplicating twice changes nothing
func TestDedupe_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		n := rng.IntN(30)
		in := make([]types.Finding, n)
		for i := range in {
			in[i] = finding(
				fmt.Sprintf("/f%d", rng.IntN(4)),
				fmt.Sprintf("e%d", rng.IntN(2)),
				fmt.Sprintf("a%d", rng.IntN(2)),
				fmt.Sprintf("message %d", i),
			)
		}

		once, _ := Dedupe(in)
		twice, stats := Dedupe(once)

		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("round %d: Dedupe not idempotent (-once +twice):\n%s", round, diff)
		}
		assert.Equal(t, 0, stats.Duplicates)
		require.NoError(t, Deduplicate(in).Validate())
	}
}

// TestStatsValidation tests count consistency checks
func TestStatsValidation(t *testing.T) {
	tests := []struct {
		name        string
		stats       Stats
		expectError bool
	}{
		{name: "zero", stats: Stats{}, expectError: false},
		{name: "consistent", stats: Stats{Total: 5, Unique: 3, Duplicates: 2}, expectError: false},
		{name: "does not add up", stats: Stats{Total: 5, Unique: 3, Duplicates: 1}, expectError: true},
		{name: "negative", stats: Stats{Total: 0, Unique: 1, Duplicates: -1}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stats.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestResultValidation tests the structural checks on a Result
func TestResultValidation(t *testing.T) {
	a := finding("/a", "1", "2", "m")
	b := finding("/b", "1", "2", "m")

	tests := []struct {
		name     string
		result   Result
		errorMsg string
	}{
		{
			name:   "valid",
			result: Result{Unique: []types.Finding{a, b}, Duplicates: map[int]int{2: 0}, Stats: Stats{Total: 3, Unique: 2, Duplicates: 1}},
		},
		{
			name:     "unique count mismatch",
			result:   Result{Unique: []types.Finding{a}, Stats: Stats{Total: 2, Unique: 2}},
			errorMsg: "does not match unique length",
		},
		{
			name:     "duplicate points forward",
			result:   Result{Unique: []types.Finding{a}, Duplicates: map[int]int{0: 1}, Stats: Stats{Total: 2, Unique: 1, Duplicates: 1}},
			errorMsg: "must be before duplicate index",
		},
		{
			name:     "duplicate index out of range",
			result:   Result{Unique: []types.Finding{a}, Duplicates: map[int]int{5: 0}, Stats: Stats{Total: 2, Unique: 1, Duplicates: 1}},
			errorMsg: "invalid index 5",
		},
		{
			name:     "repeated key in unique",
			result:   Result{Unique: []types.Finding{a, a}, Stats: Stats{Total: 2, Unique: 2}},
			errorMsg: "repeats an earlier key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
