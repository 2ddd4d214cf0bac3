package calsync

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// RetryOptions configures a single Execute call. Zero values fall back to the
// package defaults; ShouldRetry defaults to IsRetryable.
type RetryOptions struct {
	MaxRetries  int
	BaseDelay   time.Duration
	ShouldRetry func(error) bool
	OnRetry     func(err error, attempt int, delay time.Duration)
}

// RetryPolicy executes operations with exponential backoff. It is stateless
// and safe to share; inject it rather than reaching for a global so tests can
// substitute deterministic delays.
type RetryPolicy struct{}

func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{}
}

// Execute runs op, retrying transient failures with exponential backoff
// (delay = BaseDelay * 2^(attempt-1)). Non-retryable errors are returned
// after the first attempt; otherwise the last error is returned once
// MaxRetries additional attempts are exhausted. OnRetry is invoked before
// each backoff sleep.
func (p *RetryPolicy) Execute(ctx context.Context, op func(ctx context.Context) error, opts RetryOptions) error {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	shouldRetry := opts.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsRetryable
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = baseDelay << 16
	b.MaxElapsedTime = 0
	b.Reset()

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !shouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		log.Debugf("retrying after attempt %d failed: %v (next delay %s)", attempt, err, delay)
		if opts.OnRetry != nil {
			opts.OnRetry(err, attempt, delay)
		}
	}

	return backoff.RetryNotify(operation,
		backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(maxRetries)), notify)
}
