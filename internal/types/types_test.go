package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewAddressIndex verifies ordering, lookups and first-occurrence dedup
func TestNewAddressIndex(t *testing.T) {
	ix := NewAddressIndex([]Address{"/name", "/role", "/name", "/skills/0"})

	require.Equal(t, 3, ix.Len())
	assert.Equal(t, []Address{"/name", "/role", "/skills/0"}, ix.Addresses())

	a, ok := ix.At(1)
	assert.True(t, ok)
	assert.Equal(t, Address("/role"), a)

	_, ok = ix.At(3)
	assert.False(t, ok)
	_, ok = ix.At(-1)
	assert.False(t, ok)

	assert.True(t, ix.Contains("/skills/0"))
	assert.False(t, ix.Contains("/skills"))
	assert.Equal(t, 2, ix.Position("/skills/0"))
	assert.Equal(t, -1, ix.Position("/missing"))
}

// TestAddressIndexIsNotMutableThroughAddresses checks that callers get a copy
func TestAddressIndexIsNotMutableThroughAddresses(t *testing.T) {
	ix := NewAddressIndex([]Address{"/a", "/b"})
	out := ix.Addresses()
	out[0] = "/changed"

	a, _ := ix.At(0)
	assert.Equal(t, Address("/a"), a)
}

func TestFindingKeyIgnoresMessage(t *testing.T) {
	a := Finding{Field: "/email", ExpectedText: "a@x.com", ActualText: "b@x.com", Message: "mismatch"}
	b := a
	b.Message = "different wording"

	assert.Equal(t, a.Key(), b.Key())

	c := a
	c.ActualText = "c@x.com"
	assert.NotEqual(t, a.Key(), c.Key())
}

// TestRetryPolicyValidate tests validation of retry policies
func TestRetryPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  RetryPolicy
		wantErr bool
	}{
		{name: "default", policy: DefaultRetryPolicy()},
		{name: "zero retries", policy: RetryPolicy{MaxRetries: 0}},
		{name: "negative retries", policy: RetryPolicy{MaxRetries: -1}, wantErr: true},
		{name: "negative base", policy: RetryPolicy{BaseDelay: -time.Second}, wantErr: true},
		{name: "max below base", policy: RetryPolicy{BaseDelay: 2 * time.Second, MaxDelay: time.Second}, wantErr: true},
		{name: "negative jitter", policy: RetryPolicy{JitterMax: -time.Millisecond}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestRetryPolicyBackoff tests min(base*2^(n-1), max) growth
func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, time.Duration(0), p.Backoff(0))
	assert.Equal(t, 100*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 200*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 400*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 800*time.Millisecond, p.Backoff(4))
	assert.Equal(t, time.Second, p.Backoff(5))
	assert.Equal(t, time.Second, p.Backoff(500), "large attempt numbers must not overflow")
}

func TestChunkLen(t *testing.T) {
	c := Chunk{Start: 10, End: 25}
	assert.Equal(t, 15, c.Len())
}
