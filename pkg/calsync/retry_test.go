package calsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecuteSucceedsOnFirstAttempt(t *testing.T) {
	policy := NewRetryPolicy()
	attempts := 0

	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	}, fastRetryOptions())

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestExecuteRetriesTransientErrors(t *testing.T) {
	policy := NewRetryPolicy()
	attempts := 0

	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &NetworkError{Message: "connection reset"}
		}
		return nil
	}, fastRetryOptions())

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecuteStopsOnNonRetryableError(t *testing.T) {
	policy := NewRetryPolicy()
	attempts := 0

	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return NewValidationError("birthday is malformed")
	}, fastRetryOptions())

	assert.Error(t, err)
	assert.Equal(t, 1, attempts, "validation errors must not be retried")
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestExecuteExhaustsRetries(t *testing.T) {
	policy := NewRetryPolicy()
	attempts := 0
	cause := &NetworkError{Message: "calendar store unreachable"}

	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return cause
	}, RetryOptions{MaxRetries: 2, BaseDelay: time.Millisecond})

	assert.Error(t, err)
	assert.Equal(t, 3, attempts, "initial attempt plus two retries")
}

func TestExecuteInvokesOnRetryWithGrowingDelay(t *testing.T) {
	policy := NewRetryPolicy()
	var delays []time.Duration
	var notedAttempts []int

	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		return &SyncError{Op: "store event", Err: errors.New("conflict")}
	}, RetryOptions{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		OnRetry: func(err error, attempt int, delay time.Duration) {
			notedAttempts = append(notedAttempts, attempt)
			delays = append(delays, delay)
		},
	})

	assert.Error(t, err)
	assert.Equal(t, []int{1, 2}, notedAttempts)
	if assert.Len(t, delays, 2) {
		assert.Equal(t, time.Millisecond, delays[0])
		assert.Equal(t, 2*time.Millisecond, delays[1], "delay doubles per attempt")
	}
}

func TestExecuteCustomShouldRetry(t *testing.T) {
	policy := NewRetryPolicy()
	attempts := 0

	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("opaque failure")
	}, RetryOptions{
		MaxRetries:  2,
		BaseDelay:   time.Millisecond,
		ShouldRetry: func(err error) bool { return true },
	})

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecuteDefaultsDoNotRetryUnknownErrors(t *testing.T) {
	policy := NewRetryPolicy()
	attempts := 0

	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("something odd happened")
	}, fastRetryOptions())

	assert.Error(t, err)
	assert.Equal(t, 1, attempts, "unknown errors are not considered transient")
}
