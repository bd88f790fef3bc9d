// Package retry provides exponential backoff for transient provider
// failures and a Generator decorator built on it.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/flowmate/ai"
)

// ErrInvalidAttempts is returned when attempts is not positive.
var ErrInvalidAttempts = errors.New("attempts must be greater than 0")

// WithBackoff runs op until it succeeds, attempts are exhausted, or ctx is
// done. The delay starts at baseDelay and doubles after each failure.
// It returns the last error from op, or the context error.
func WithBackoff(ctx context.Context, op func() error, attempts int, baseDelay time.Duration) error {
	if attempts <= 0 {
		return ErrInvalidAttempts
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if permanent(lastErr) {
			return lastErr
		}

		slog.Debug("operation failed", "attempt", attempt, "attempts", attempts, "err", lastErr)
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}

// permanent reports errors that another attempt cannot fix.
func permanent(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type generator struct {
	next      ai.Generator
	attempts  int
	baseDelay time.Duration
}

// Generator wraps g so failed calls are retried with backoff. Context
// cancellation and deadline errors are returned without retrying.
// An attempts value below 2 returns g unchanged.
func Generator(g ai.Generator, attempts int, baseDelay time.Duration) ai.Generator {
	if attempts < 2 {
		return g
	}
	return &generator{next: g, attempts: attempts, baseDelay: baseDelay}
}

func (r *generator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	var out string
	err := WithBackoff(ctx, func() error {
		var err error
		out, err = r.next.Generate(ctx, prompt, opts)
		return err
	}, r.attempts, r.baseDelay)
	if err != nil {
		return "", err
	}
	return out, nil
}
