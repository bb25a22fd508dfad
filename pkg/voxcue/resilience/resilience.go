// Package resilience provides the retry and circuit-breaking primitives
// the provider adapter layer uses around remote synthesis calls. The
// shapes follow harunnryd/ranya's pkg/resilience; the backoff schedule
// itself is delegated to cenkalti/backoff/v4 rather than a hand-rolled
// sleep loop, matching the library the teacher already depends on.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy runs fn with exponential backoff, bounded by MaxElapsed and
// MaxRetries, honoring ctx cancellation between attempts.
type RetryPolicy struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxElapsed  time.Duration
}

// NewRetryPolicy applies the teacher's pattern of sane defaults instead of
// zero values (engine.go's EngineConfig defaulting).
func NewRetryPolicy(maxRetries int, initialWait, maxElapsed time.Duration) RetryPolicy {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	if initialWait <= 0 {
		initialWait = 150 * time.Millisecond
	}
	if maxElapsed <= 0 {
		maxElapsed = 10 * time.Second
	}
	return RetryPolicy{MaxRetries: maxRetries, InitialWait: initialWait, MaxElapsed: maxElapsed}
}

// Do retries fn, stopping on success, context cancellation, MaxElapsed
// running out, or once the first attempt and MaxRetries retries after it
// have all failed — whichever comes first.
func (r RetryPolicy) Do(ctx context.Context, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialWait
	b.MaxElapsedTime = r.MaxElapsed
	bctx := backoff.WithContext(b, ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if attempt > r.MaxRetries {
			return backoff.Permanent(err)
		}
		return err
	}, bctx)
}

// RateLimitError marks a provider response as a rate-limit rejection, so
// CircuitBreaker can distinguish it from ordinary transport failures.
type RateLimitError struct {
	Provider string
	Message  string
}

func (e RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "rate limited"
}

func IsRateLimit(err error) bool {
	var rl RateLimitError
	return errors.As(err, &rl)
}

// CircuitBreaker opens (rejects calls) after a run of rate-limit failures
// for one provider, and closes again after a cooldown window.
type CircuitBreaker struct {
	mu        sync.Mutex
	failures  int
	threshold int
	cooldown  time.Duration
	openUntil time.Time
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown}
}

func (c *CircuitBreaker) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !time.Now().Before(c.openUntil)
}

func (c *CircuitBreaker) OnSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.openUntil = time.Time{}
}

func (c *CircuitBreaker) OnError(err error) {
	if !IsRateLimit(err) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.failures >= c.threshold {
		c.openUntil = time.Now().Add(c.cooldown)
	}
}
