package session

import (
	"context"
	stderrors "errors"
	"time"
)

// RetryableError marks a transient backend failure worth retrying.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return stderrors.As(err, &re)
}

// Backoff configures RetryWithBackoff.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff tries three times starting at one second.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

// RetryWithBackoff retries fn with exponential backoff.
// Only errors wrapped with Retryable trigger retries.
func RetryWithBackoff(ctx context.Context, b Backoff, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// retryStore retries transient failures of a networked backend.
type retryStore struct {
	Store
	backoff Backoff
}

// WithRetry wraps s so operations failing with a Retryable error are
// retried with backoff b.
func WithRetry(s Store, b Backoff) Store {
	return &retryStore{Store: s, backoff: b}
}

func (r *retryStore) Get(ctx context.Context, id string) (*Session, error) {
	var sess *Session
	err := RetryWithBackoff(ctx, r.backoff, func() error {
		var err error
		sess, err = r.Store.Get(ctx, id)
		return err
	})
	return sess, err
}

func (r *retryStore) Set(ctx context.Context, sess *Session) error {
	return RetryWithBackoff(ctx, r.backoff, func() error { return r.Store.Set(ctx, sess) })
}

func (r *retryStore) Delete(ctx context.Context, id string) error {
	return RetryWithBackoff(ctx, r.backoff, func() error { return r.Store.Delete(ctx, id) })
}

func (r *retryStore) List(ctx context.Context) ([]*Session, error) {
	var list []*Session
	err := RetryWithBackoff(ctx, r.backoff, func() error {
		var err error
		list, err = r.Store.List(ctx)
		return err
	})
	return list, err
}
