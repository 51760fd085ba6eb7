// Package resilience provides fault-tolerance patterns for outbound lookups:
// retry with exponential backoff, per-provider circuit breakers, and a bulkhead.
//
// None of these ever change the order in which providers are consulted. They
// only decide whether a single call is attempted, repeated or rejected.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds retry parameters.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. RetryWithBackoff returns the
// wrapped error immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryWithBackoff executes fn with exponential backoff + jitter.
// It respects context cancellation and stops on errors wrapped by Permanent.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}

		if attempt < cfg.MaxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * cfg.InitialBackoff
			wait := backoff
			if half := int64(backoff / 2); half > 0 {
				wait += time.Duration(rand.Int63n(half))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return lastErr
}

type abandonedError struct{ err error }

func (e *abandonedError) Error() string { return e.err.Error() }
func (e *abandonedError) Unwrap() error { return e.err }

// Abandoned marks err as the caller giving up on a call rather than the
// dependency failing it. Breakers do not count abandoned calls as failures.
func Abandoned(err error) error {
	if err == nil {
		return nil
	}
	return &abandonedError{err: err}
}

func isSuccessful(err error) bool {
	var ae *abandonedError
	return err == nil || errors.As(err, &ae)
}

// StateChangeFunc is notified when a breaker changes state.
type StateChangeFunc func(name string, from, to gobreaker.State)

// NewCircuitBreaker creates a circuit breaker with sensible defaults.
func NewCircuitBreaker(name string, onChange StateChangeFunc) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: isSuccessful,
	}
	if onChange != nil {
		settings.OnStateChange = onChange
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// Breakers hands out one circuit breaker per provider name, created lazily.
type Breakers struct {
	mu       sync.Mutex
	items    map[string]*gobreaker.CircuitBreaker
	onChange StateChangeFunc
}

// NewBreakers creates an empty breaker registry.
func NewBreakers(onChange StateChangeFunc) *Breakers {
	return &Breakers{items: make(map[string]*gobreaker.CircuitBreaker), onChange: onChange}
}

// Get returns the breaker for name, creating it on first use.
func (b *Breakers) Get(name string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	cb, ok := b.items[name]
	if !ok {
		cb = NewCircuitBreaker(name, b.onChange)
		b.items[name] = cb
	}
	return cb
}

// States reports the current state of every known breaker.
func (b *Breakers) States() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]string, len(b.items))
	for name, cb := range b.items {
		out[name] = cb.State().String()
	}
	return out
}

// IsOpen reports whether err was produced by a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}
