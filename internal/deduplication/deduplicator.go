package deduplication

import (
	"fmt"

	"github.com/steveyegge/cvcheck/internal/types"
)

// Result represents the outcome of deduplicating one finding list
type Result struct {
	// Unique are the surviving findings, in first-seen order
	Unique []types.Finding `json:"unique"`

	// Duplicates maps a discarded finding's input position to the input
	// position of the finding that was kept in its place
	Duplicates map[int]int `json:"duplicates,omitempty"`

	// Statistics about the pass
	Stats Stats `json:"stats"`
}

// Stats provides counts about one deduplication pass
type Stats struct {
	// Total is the number of findings seen
	Total int `json:"total"`

	// Unique is the number of findings kept
	Unique int `json:"unique"`

	// Duplicates is the number of findings discarded
	Duplicates int `json:"duplicates"`
}

// Validate checks that the counts add up
func (s Stats) Validate() error {
	if s.Total < 0 || s.Unique < 0 || s.Duplicates < 0 {
		return fmt.Errorf("stats cannot be negative (total %d, unique %d, duplicates %d)",
			s.Total, s.Unique, s.Duplicates)
	}
	if s.Unique+s.Duplicates != s.Total {
		return fmt.Errorf("unique (%d) + duplicates (%d) does not match total (%d)",
			s.Unique, s.Duplicates, s.Total)
	}
	return nil
}

// Validate checks if the result is internally consistent
func (r *Result) Validate() error {
	if err := r.Stats.Validate(); err != nil {
		return err
	}
	if r.Stats.Unique != len(r.Unique) {
		return fmt.Errorf("stats.unique (%d) does not match unique length (%d)",
			r.Stats.Unique, len(r.Unique))
	}
	if r.Stats.Duplicates != len(r.Duplicates) {
		return fmt.Errorf("stats.duplicates (%d) does not match duplicates length (%d)",
			r.Stats.Duplicates, len(r.Duplicates))
	}
	for dupIdx, origIdx := range r.Duplicates {
		if dupIdx < 0 || dupIdx >= r.Stats.Total {
			return fmt.Errorf("duplicates contains invalid index %d (total: %d)", dupIdx, r.Stats.Total)
		}
		if origIdx < 0 || origIdx >= dupIdx {
			return fmt.Errorf("duplicates: kept index %d must be before duplicate index %d", origIdx, dupIdx)
		}
		if _, isDup := r.Duplicates[origIdx]; isDup {
			return fmt.Errorf("duplicates references index %d as kept, but it is also a duplicate", origIdx)
		}
	}

	seen := make(map[types.FindingKey]struct{}, len(r.Unique))
	for i, f := range r.Unique {
		if _, ok := seen[f.Key()]; ok {
			return fmt.Errorf("unique finding %d (%s) repeats an earlier key", i, f.Field)
		}
		seen[f.Key()] = struct{}{}
	}
	return nil
}

// Deduplicate keeps the first finding for every (field, expected, actual) key
// and records where each discarded one came from.
func Deduplicate(findings []types.Finding) *Result {
	result := &Result{
		Unique:     make([]types.Finding, 0, len(findings)),
		Duplicates: make(map[int]int),
	}
	first := make(map[types.FindingKey]int, len(findings))

	for i, f := range findings {
		key := f.Key()
		if orig, seen := first[key]; seen {
			result.Duplicates[i] = orig
			continue
		}
		first[key] = i
		result.Unique = append(result.Unique, f)
	}

	result.Stats = Stats{
		Total:      len(findings),
		Unique:     len(result.Unique),
		Duplicates: len(result.Duplicates),
	}
	return result
}

// Dedupe returns findings without duplicates, in first-seen order
func Dedupe(findings []types.Finding) ([]types.Finding, Stats) {
	r := Deduplicate(findings)
	return r.Unique, r.Stats
}
