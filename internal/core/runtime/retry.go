package runtime

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig controls retry behavior for package manager commands that
// touch the network.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries).
	MaxRetries int
	// InitialBackoff is the initial delay before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff is the maximum delay between retries.
	MaxBackoff time.Duration
	// Multiplier is the factor by which backoff increases with each retry.
	Multiplier float64
}

// DefaultRetryConfig returns the retry configuration used for installs.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     15 * time.Second,
		Multiplier:     2.0,
	}
}

func (c *RetryConfig) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.InitialBackoff
	exp.MaxInterval = c.MaxBackoff
	exp.Multiplier = c.Multiplier
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.MaxRetries)), ctx)
}

// isRetryableError reports whether a failed command may succeed when run
// again. Missing executables and cancellation are final.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// executeWithRetry executes fn, retrying transient failures with exponential
// backoff.
func executeWithRetry(ctx context.Context, config *RetryConfig, logger Logger, fn func() error) error {
	if config == nil || config.MaxRetries <= 0 {
		return fn()
	}

	attempts := 0
	operation := func() error {
		attempts++
		err := fn()
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn(ctx, "command failed, retrying", Field("attempt", attempts), Field("wait", wait.String()), Field("error", err.Error()))
	}

	if err := backoff.RetryNotify(operation, config.backOff(ctx), notify); err != nil {
		if attempts > 1 {
			return fmt.Errorf("retry exhausted after %d attempts: %w", attempts, err)
		}
		return err
	}
	return nil
}
