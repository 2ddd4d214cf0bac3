package calsync

import (
	"context"
	"time"

	"github.com/crewplan/crewplan/pkg/calendar"
)

// flakyEventRepo wraps the in-memory store and fails the first N StoreEvent
// calls with the configured error.
type flakyEventRepo struct {
	*calendar.StubRepository
	storeFailures int
	storeCalls    int
	failWith      error
}

func (f *flakyEventRepo) StoreEvent(ctx context.Context, event calendar.Event) (calendar.Event, error) {
	f.storeCalls++
	if f.storeFailures > 0 {
		f.storeFailures--
		return calendar.Event{}, f.failWith
	}
	return f.StubRepository.StoreEvent(ctx, event)
}

func fastRetryOptions() RetryOptions {
	return RetryOptions{MaxRetries: DefaultMaxRetries, BaseDelay: time.Millisecond}
}

func mustParse(layout, value string) time.Time {
	t, err := time.Parse(layout, value)
	if err != nil {
		panic(err)
	}
	return t
}
