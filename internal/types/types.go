package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Address identifies one leaf field of a record, e.g. "/experience/0/company".
// A record that is itself a scalar is addressed as "/".
type Address string

// RootAddress is the address of a record that is a single scalar value
const RootAddress Address = "/"

// AddressIndex is the ordered, duplicate-free list of leaf addresses of one record.
// Positions are the contract the capability uses to refer to a field, so an index
// is never mutated after construction.
type AddressIndex struct {
	addrs []Address
	pos   map[Address]int
}

// NewAddressIndex builds an index from addrs, keeping the first occurrence of any
// repeated address.
func NewAddressIndex(addrs []Address) AddressIndex {
	ix := AddressIndex{
		addrs: make([]Address, 0, len(addrs)),
		pos:   make(map[Address]int, len(addrs)),
	}
	for _, a := range addrs {
		if _, seen := ix.pos[a]; seen {
			continue
		}
		ix.pos[a] = len(ix.addrs)
		ix.addrs = append(ix.addrs, a)
	}
	return ix
}

// Len returns the number of addresses in the index
func (ix AddressIndex) Len() int {
	return len(ix.addrs)
}

// At returns the address at position i, or false if i is out of range
func (ix AddressIndex) At(i int) (Address, bool) {
	if i < 0 || i >= len(ix.addrs) {
		return "", false
	}
	return ix.addrs[i], true
}

// Contains reports whether a is one of the canonical addresses
func (ix AddressIndex) Contains(a Address) bool {
	_, ok := ix.pos[a]
	return ok
}

// Position returns the index position of a, or -1 when a is unknown
func (ix AddressIndex) Position(a Address) int {
	if i, ok := ix.pos[a]; ok {
		return i
	}
	return -1
}

// Addresses returns a copy of the ordered address list
func (ix AddressIndex) Addresses() []Address {
	out := make([]Address, len(ix.addrs))
	copy(out, ix.addrs)
	return out
}

// Chunk is a half-open window [Start, End) of the source text.
// Offsets count runes, not bytes, so a chunk never splits a UTF-8 sequence.
type Chunk struct {
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Len returns the chunk length in runes
func (c Chunk) Len() int {
	return c.End - c.Start
}

// RawFinding is one judgment as returned by the capability, before normalization.
// The field is referenced either by a literal address or by its position in the
// AddressIndex that was sent with the request.
type RawFinding struct {
	Field      Address         `json:"field,omitempty"`
	FieldIndex *int            `json:"fieldIndex,omitempty"`
	Expected   json.RawMessage `json:"expected,omitempty"`
	Actual     json.RawMessage `json:"actual,omitempty"`
	Message    string          `json:"message"`
}

// Finding is a normalized disagreement between a record field and the document.
type Finding struct {
	Field        Address `json:"field"`
	ExpectedText string  `json:"expected"`
	ActualText   string  `json:"actual"`
	Message      string  `json:"message"`
}

// Key returns the deduplication identity of the finding. Message is not part of it.
func (f Finding) Key() FindingKey {
	return FindingKey{Field: f.Field, Expected: f.ExpectedText, Actual: f.ActualText}
}

// FindingKey is the identity of a Finding for deduplication
type FindingKey struct {
	Field    Address
	Expected string
	Actual   string
}

// RetryPolicy controls how a failed capability call is retried
type RetryPolicy struct {
	MaxRetries int           `json:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay"`
	JitterMax  time.Duration `json:"jitter_max"`
}

// DefaultRetryPolicy returns the default retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		JitterMax:  250 * time.Millisecond,
	}
}

// Validate checks if the retry policy has valid values
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative (got %d)", p.MaxRetries)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("base_delay cannot be negative (got %v)", p.BaseDelay)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("max_delay cannot be negative (got %v)", p.MaxDelay)
	}
	if p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("max_delay (%v) must be >= base_delay (%v)", p.MaxDelay, p.BaseDelay)
	}
	if p.JitterMax < 0 {
		return fmt.Errorf("jitter_max cannot be negative (got %v)", p.JitterMax)
	}
	return nil
}

// Backoff returns the delay before retry attempt n (n >= 1), without jitter:
// min(BaseDelay * 2^(n-1), MaxDelay).
func (p RetryPolicy) Backoff(n int) time.Duration {
	if n < 1 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < n; i++ {
		if d >= p.MaxDelay || d > p.MaxDelay/2 {
			return p.MaxDelay
		}
		d *= 2
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
