package predictor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jamesainslie/go-srl/dataset"
)

// RetryConfig configures the readiness wait.
type RetryConfig struct {
	// MaxAttempts is the maximum number of probes, the first included.
	// Default: 10
	MaxAttempts int

	// Delay is the fixed pause between probes.
	// Default: 10s
	Delay time.Duration

	// Logger receives one line per failed probe. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultRetryConfig returns the readiness defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 10,
		Delay:       10 * time.Second,
	}
}

// WaitReady sends probe to p until it answers. Only ErrUnavailable is
// retried; any other error, a malformed response included, fails at once.
func WaitReady(ctx context.Context, p Predictor, probe dataset.Input, cfg RetryConfig) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		_, err := p.Predict(ctx, probe)
		if err == nil {
			logger.Info("prediction service ready", "attempt", attempt)
			return nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return fmt.Errorf("probe attempt %d: %w", attempt, err)
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}
		logger.Info("prediction service not ready",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"retry_in", cfg.Delay,
		)

		timer := time.NewTimer(cfg.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("waiting cancelled after %d attempts: %w", attempt, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("service not ready after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
