package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"taskflow/internal/domain"
)

// =============================================================================
// Config
// =============================================================================

// Config controls retry behaviour for external calls (database wake-up).
type Config struct {
	MaxRetries     int           // Maximum number of retry attempts (0 = no retries)
	InitialBackoff time.Duration // Delay before first retry
	MaxBackoff     time.Duration // Upper bound on backoff duration
	Multiplier     float64       // Backoff multiplier (e.g. 2.0 for exponential)
}

// DefaultConfig returns sensible retry defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     5,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// FromDomain converts the persisted millisecond-based config.
func FromDomain(rc domain.RetryConfig) Config {
	cfg := Config{
		MaxRetries:     rc.MaxRetries,
		InitialBackoff: time.Duration(rc.InitialBackoff) * time.Millisecond,
		MaxBackoff:     time.Duration(rc.MaxBackoff) * time.Millisecond,
		Multiplier:     float64(rc.Multiplier),
	}
	if cfg.Validate() != nil {
		return DefaultConfig()
	}
	return cfg
}

// Validate checks that all Config fields are within acceptable ranges.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New("retry: MaxRetries must be >= 0")
	}
	if c.InitialBackoff <= 0 {
		return errors.New("retry: InitialBackoff must be > 0")
	}
	if c.MaxBackoff <= 0 {
		return errors.New("retry: MaxBackoff must be > 0")
	}
	if c.Multiplier < 1.0 {
		return errors.New("retry: Multiplier must be >= 1.0")
	}
	return nil
}

// =============================================================================
// Error Classification
// =============================================================================

// retryableStatusCodes are HTTP status codes that indicate a transient failure.
var retryableStatusCodes = []string{"429", "500", "502", "503", "504"}

// IsRetryable returns true when err represents a transient failure that may
// succeed on retry (5xx, 429, timeout, connection refused, EOF, or a
// serverless database still waking up). Context errors are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are never retryable — the caller chose to cancel.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, code := range retryableStatusCodes {
		if strings.Contains(msg, code) {
			return true
		}
	}
	if strings.Contains(msg, "connection refused") {
		return true
	}
	if strings.Contains(msg, "EOF") {
		return true
	}
	// Neon/Turso answer with these while resuming a suspended database.
	if strings.Contains(msg, "starting up") || strings.Contains(msg, "database is locked") {
		return true
	}

	return false
}

// sleepFunc is swappable so tests don't actually sleep.
var sleepFunc = time.Sleep

// Do calls fn, retrying on transient errors with exponential backoff.
// Returns nil on the first success, or the last error once retries are
// exhausted or a non-retryable error occurs.
func Do(ctx context.Context, cfg Config, fn func(context.Context) error) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		sleepFunc(backoff)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		next := time.Duration(float64(backoff) * cfg.Multiplier)
		if next > cfg.MaxBackoff {
			next = cfg.MaxBackoff
		}
		backoff = next
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}
