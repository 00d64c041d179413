package ai

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/steveyegge/cvcheck/internal/types"
)

// RetryNotice describes a retry that is about to be slept for
type RetryNotice struct {
	Operation string
	Attempt   int // 1-based retry number (the first call is attempt 0)
	Delay     time.Duration
	Err       error
}

// Retrier runs one capability call under a RetryPolicy.
//
// Rate-limit and server errors are retried up to MaxRetries more times; every
// other error is returned at once. The delay before retry n is
// min(BaseDelay*2^(n-1), MaxDelay) plus a uniform jitter in [0, JitterMax].
type Retrier struct {
	policy  types.RetryPolicy
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	jitter  func(max time.Duration) time.Duration
	onRetry func(RetryNotice)
}

// RetryOption configures a Retrier
type RetryOption func(*Retrier)

// WithRetryLogger sets the logger used for retry diagnostics
func WithRetryLogger(logger *zap.Logger) RetryOption {
	return func(r *Retrier) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOnRetry registers a callback invoked before each backoff sleep
func WithOnRetry(fn func(RetryNotice)) RetryOption {
	return func(r *Retrier) { r.onRetry = fn }
}

// WithSleeper replaces the backoff sleep (tests use it to avoid real waits)
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *Retrier) { r.sleep = fn }
}

// WithJitter replaces the jitter source
func WithJitter(fn func(max time.Duration) time.Duration) RetryOption {
	return func(r *Retrier) { r.jitter = fn }
}

// NewRetrier creates a Retrier for policy
func NewRetrier(policy types.RetryPolicy, opts ...RetryOption) (*Retrier, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}
	r := &Retrier{
		policy: policy,
		logger: zap.NewNop(),
		sleep:  sleepContext,
		jitter: uniformJitter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Policy returns the retry policy in effect
func (r *Retrier) Policy() types.RetryPolicy {
	return r.policy
}

// Do executes fn, retrying retriable failures with exponential backoff.
// It never makes more than MaxRetries+1 calls.
func (r *Retrier) Do(ctx context.Context, operation string, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.policy.Backoff(attempt) + r.jitter(r.policy.JitterMax)
			if r.onRetry != nil {
				r.onRetry(RetryNotice{Operation: operation, Attempt: attempt, Delay: delay, Err: lastErr})
			}
			r.logger.Debug("capability call failed, retrying",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", r.policy.MaxRetries+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))

			if err := r.sleep(ctx, delay); err != nil {
				return fmt.Errorf("%s failed: context canceled during backoff: %w", operation, err)
			}
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				r.logger.Debug("capability call succeeded after retries",
					zap.String("operation", operation),
					zap.Int("retries", attempt))
			}
			return nil
		}
		lastErr = err

		kind := Classify(err)
		if !kind.Retriable() {
			r.logger.Debug("capability call failed with non-retriable error",
				zap.String("operation", operation),
				zap.Stringer("kind", kind),
				zap.Error(err))
			return err
		}

		if ctx.Err() != nil {
			return fmt.Errorf("%s failed: context canceled: %w", operation, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, r.policy.MaxRetries+1, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func uniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max) + 1))
}
