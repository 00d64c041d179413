// Package deduplication merges the findings of every chunk into one ordered,
// duplicate-free list.
//
// # Identity
//
// Two findings are duplicates when they name the same field with the same
// expected and actual text. The message is not part of the identity: chunks
// overlap, and two windows that both see the same disagreement usually word
// it differently.
//
// # Ordering
//
// Dedupe is a single stable pass. The first occurrence of a key is kept with
// its own message and every later one is discarded. Callers feed findings in
// chunk-index order, so the output is deterministic for a given set of chunk
// answers.
//
// # Usage
//
//	unique, stats := deduplication.Dedupe(findings)
//	log.Printf("dedup: %d findings, %d unique, %d duplicates",
//	    stats.Total, stats.Unique, stats.Duplicates)
//
// Deduplicate returns the same list plus, for every discarded finding, the
// position of the occurrence that was kept:
//
//	result := deduplication.Deduplicate(findings)
//	for dup, orig := range result.Duplicates {
//	    fmt.Printf("%d repeats %d\n", dup, orig)
//	}
//
// Applying Dedupe to its own output returns the output unchanged.
package deduplication
