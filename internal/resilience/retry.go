// Package resilience adds transient-failure handling around the external
// provider calls. A desktop dictation tool lives on flaky home and mobile
// networks; one dropped request must not cost the user a re-recording.
//
// The package provides a generic bounded-retry helper with exponential
// backoff and decorators for the stt and parse provider interfaces.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig bounds the retry loop. Zero values select the defaults.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first.
	// Default: 3.
	Attempts int

	// InitialDelay is the pause before the first retry; it doubles after
	// every failed attempt. Default: 250ms.
	InitialDelay time.Duration

	// MaxDelay caps the backoff growth. Default: 2s.
	MaxDelay time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 250 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 2 * time.Second
	}
	return c
}

// Do runs fn up to cfg.Attempts times and returns the first success.
// Backoff between attempts is exponential and honours ctx cancellation;
// a cancelled context stops the loop immediately, since the caller is gone.
// The name labels retry log lines.
func Do[T any](ctx context.Context, cfg RetryConfig, name string, fn func() (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		if attempt == cfg.Attempts {
			break
		}

		slog.Debug("retrying after failure", "op", name, "attempt", attempt, "delay", delay, "err", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
		if delay *= 2; delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	slog.Warn("giving up after repeated failures", "op", name, "attempts", cfg.Attempts, "err", lastErr)
	return zero, fmt.Errorf("resilience: %s failed after %d attempts: %w", name, cfg.Attempts, lastErr)
}
