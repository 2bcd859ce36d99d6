// Package retry re-invokes remote calls that fail with a rate-limit error,
// waiting exponentially longer between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/kiosk404/pixelmind/pkg/errorx"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMultiplier = 2.0

	MinMultiplier = 1.5
	MaxMultiplier = 2.0
)

// Policy bounds how often and how slowly a call is retried.
//
// The delay before retry n (0-indexed) is BaseDelay * Multiplier^n, capped by
// MaxDelay when MaxDelay is positive. Total attempts are MaxRetries + 1.
type Policy struct {
	MaxRetries uint
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration

	// Notify, when set, is called before each wait with the error that
	// triggered the retry and the delay about to be applied.
	Notify func(err error, attempt uint, next time.Duration)
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Multiplier: DefaultMultiplier,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.BaseDelay <= 0 {
		return fmt.Errorf("retry base delay must be positive, got %s", p.BaseDelay)
	}
	if p.Multiplier < MinMultiplier || p.Multiplier > MaxMultiplier {
		return fmt.Errorf("retry multiplier must be in [%.1f, %.1f], got %g", MinMultiplier, MaxMultiplier, p.Multiplier)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("retry max delay must not be negative, got %s", p.MaxDelay)
	}
	return nil
}

// Delay returns the wait applied before retry attempt n (0-indexed).
func (p Policy) Delay(attempt uint) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.multiplier(), float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

func (p Policy) multiplier() float64 {
	if p.Multiplier == 0 {
		return DefaultMultiplier
	}
	return p.Multiplier
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	maxInterval := p.MaxDelay
	if maxInterval <= 0 {
		maxInterval = time.Duration(math.MaxInt64)
	}
	return &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          p.multiplier(),
		MaxInterval:         maxInterval,
	}
}

// Do runs op and retries it while it fails with a retryable error and the
// policy allows another attempt. The first success is returned immediately.
// Non-retryable errors, and the last retryable error once attempts are
// exhausted, are returned unchanged.
//
// Each call owns its backoff state; concurrent calls never delay each other.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		last    error
		attempt uint
	)

	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.MaxRetries + 1),
		backoff.WithMaxElapsedTime(0),
	}
	if p.Notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
			p.Notify(err, attempt-1, next)
		}))
	}

	value, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		last = err
		if !errorx.IsRetryable(err) {
			return zero, backoff.Permanent(err)
		}
		return zero, err
	}, opts...)
	if err == nil {
		return value, nil
	}

	// Retry stopped for a reason other than the operation itself.
	if last == nil || (ctx.Err() != nil && !errors.Is(last, ctx.Err())) {
		if cause := context.Cause(ctx); cause != nil {
			return zero, cause
		}
	}
	return zero, last
}
