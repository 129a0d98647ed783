// Package retry bounds how many times an operation is attempted.
//
// It deliberately has no exponential growth: callers get a fixed pause between
// attempts and a hard ceiling, which is enough to turn an unbounded
// "try this page again" loop into one that terminates.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds attempt configuration.
type Config struct {
	// MaxAttempts is the total number of calls made before giving up (minimum 1).
	MaxAttempts int
	// Pause is the delay between two attempts.
	Pause time.Duration
}

// DefaultConfig returns the defaults used for paginated listings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Pause:       500 * time.Millisecond,
	}
}

// ErrorClassifier determines if an error is worth another attempt.
type ErrorClassifier func(error) bool

// permanentError marks an error that must not be attempted again.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that IsRetryable reports false for it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetryable is the default classifier. Context errors and errors wrapped
// with Permanent are final; everything else may be attempted again.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var perm *permanentError
	return !errors.As(err, &perm)
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do calls fn until it succeeds, the classifier rejects the error, the
// context ends, or cfg.MaxAttempts calls have been made.
func Do(ctx context.Context, cfg Config, classifier ErrorClassifier, fn func(context.Context) error) error {
	if classifier == nil {
		classifier = IsRetryable
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !classifier(err) {
			return err
		}

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(cfg.Pause):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}
