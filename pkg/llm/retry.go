package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig bounds how long and how often a generation is attempted.
type RetryConfig struct {
	// Timeout caps each attempt. Zero means no per-attempt timeout.
	Timeout time.Duration

	// Retries is the number of extra attempts after the first fails.
	Retries int

	// Backoff is slept before retry n as n*Backoff.
	Backoff time.Duration
}

type retrying struct {
	next   Generator
	cfg    RetryConfig
	logger *slog.Logger
}

// WithRetry wraps g with a per-attempt timeout and bounded linear backoff.
// The caller's context cancels everything, including the backoff sleep.
func WithRetry(g Generator, cfg RetryConfig, logger *slog.Logger) Generator {
	return &retrying{next: g, cfg: cfg, logger: logger}
}

func (r *retrying) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * r.cfg.Backoff
			r.logger.Warn("retrying generation",
				"attempt", attempt+1,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ErrGeneration, ctx.Err())
			case <-time.After(delay):
			}
		}

		out, err := r.attempt(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %w", ErrGeneration, r.cfg.Retries+1, lastErr)
}

func (r *retrying) attempt(ctx context.Context, prompt string) (string, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	return r.next.Generate(ctx, prompt)
}
