package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrNetwork marks transport failures talking to a remote cache.
var ErrNetwork = errors.New("cache network error")

// RetryableError marks a backend failure worth repeating, such as a
// dropped connection or a timeout.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. It returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// networkError tags a backend failure with ErrNetwork. Timeouts and
// connection-level errors are also marked retryable.
func networkError(op string, err error) error {
	wrapped := fmt.Errorf("%w: %s: %v", ErrNetwork, op, err)
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, net.ErrClosed) {
		return Retryable(wrapped)
	}
	return wrapped
}

// retryDelay is the first backoff delay; tests shorten it.
var retryDelay = 200 * time.Millisecond

// retryAttempts bounds every retried backend call.
const retryAttempts = 3

// RetryWithBackoff runs fn until it succeeds, fails with an error that is
// not retryable, or runs out of attempts. The delay doubles each time.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := retryDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
