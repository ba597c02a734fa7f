// Package retry implements a small fixed-delay retry policy, invoked
// imperatively around calls that may transiently fail.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted marks a failure that persisted through every allowed attempt.
// Callers use errors.Is to tell it apart from a single transient failure.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Policy retries an operation up to MaxAttempts times with a fixed Delay
// between attempts.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Do runs fn until it succeeds, the attempts are exhausted, or ctx is
// canceled. On exhaustion the returned error wraps both ErrExhausted and the
// last failure.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		last = fn(ctx)
		if last == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		if p.Delay > 0 {
			t := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, last)
}
