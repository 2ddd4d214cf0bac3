package calsync

import (
	"context"
	"testing"
	"time"

	"github.com/crewplan/crewplan/internal/event_bus"
	"github.com/crewplan/crewplan/pkg/calendar"
	"github.com/crewplan/crewplan/pkg/duty"
	"github.com/crewplan/crewplan/pkg/outofoffice"
	"github.com/crewplan/crewplan/pkg/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMaterializer(events calendar.Repository, bus *event_bus.EventBus) *EventMaterializer {
	return NewEventMaterializer(events, NewRetryPolicy(), fastRetryOptions(), bus)
}

func TestCreateEventRetriesTransientStoreFailure(t *testing.T) {
	repo := &flakyEventRepo{
		StubRepository: &calendar.StubRepository{},
		storeFailures:  2,
		failWith:       &NetworkError{Message: "store unreachable"},
	}
	materializer := newTestMaterializer(repo, nil)

	event, err := materializer.CreateEvent(context.Background(), calendar.Event{
		Title: "1:1 with Grace", Type: calendar.EventTypeOneOnOne, LinkedEntityID: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, repo.storeCalls)
	assert.Len(t, repo.Events, 1)
	assert.NotEmpty(t, event.UID)
}

func TestCreateEventGivesUpOnValidationFailure(t *testing.T) {
	repo := &flakyEventRepo{
		StubRepository: &calendar.StubRepository{},
		storeFailures:  1,
		failWith:       NewValidationError("event is malformed"),
	}
	materializer := newTestMaterializer(repo, nil)

	_, err := materializer.CreateEvent(context.Background(), calendar.Event{Type: calendar.EventTypeDuty})

	assert.Error(t, err)
	assert.Equal(t, 1, repo.storeCalls, "validation failures are not retried")
	assert.Empty(t, repo.Events)
}

func TestCreateEventPublishesNotification(t *testing.T) {
	repo := &calendar.StubRepository{}
	bus := event_bus.NewEventBus()
	published := 0
	bus.Subscribe(EventCreated, func(event event_bus.Event) error {
		published++
		return nil
	})
	materializer := newTestMaterializer(repo, bus)

	_, err := materializer.CreateEvent(context.Background(), calendar.Event{
		Title: "on-call", Type: calendar.EventTypeDuty, LinkedEntityID: 4,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, published)
}

func TestEnsureEventIsIdempotent(t *testing.T) {
	repo := &calendar.StubRepository{}
	materializer := newTestMaterializer(repo, nil)
	build := func() (calendar.Event, error) {
		return calendar.Event{
			Title:          "on-call",
			Type:           calendar.EventTypeDuty,
			LinkedEntityID: 12,
		}, nil
	}

	first, created, err := materializer.EnsureEvent(context.Background(), calendar.EventTypeDuty, 12, build)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := materializer.EnsureEvent(context.Background(), calendar.EventTypeDuty, 12, build)
	require.NoError(t, err)
	assert.False(t, created, "second call must find the existing event")
	assert.Equal(t, first.UID, second.UID)
	assert.Len(t, repo.Events, 1)
}

func TestEnsureEventRejectsMissingEntityID(t *testing.T) {
	materializer := newTestMaterializer(&calendar.StubRepository{}, nil)

	_, _, err := materializer.EnsureEvent(context.Background(), calendar.EventTypeDuty, 0, func() (calendar.Event, error) {
		t.Fatal("build must not be called for invalid input")
		return calendar.Event{}, nil
	})

	assert.Error(t, err)
	assert.Equal(t, CategoryValidation, Classify(err))
}

func TestEnsureDutyEvent(t *testing.T) {
	repo := &calendar.StubRepository{}
	materializer := newTestMaterializer(repo, nil)
	member := &team.TeamMember{ID: 3, Name: "Grace Hopper"}
	assignment := duty.Assignment{
		ID:           8,
		TeamMemberID: 3,
		DutyType:     duty.TypeOnCall,
		StartTime:    mustParse(time.RFC3339, "2025-09-01T00:00:00Z"),
		EndTime:      mustParse(time.RFC3339, "2025-09-07T23:59:59Z"),
	}

	event, created, err := materializer.EnsureDutyEvent(context.Background(), assignment, member)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Grace Hopper: on call duty", event.Title)
	assert.True(t, event.AllDay)
	assert.Equal(t, calendar.LinkedDuty, event.LinkedEntityType)
	assert.Equal(t, 8, event.LinkedEntityID)
	assert.Equal(t, 3, event.TeamMemberID)
}

func TestEnsureDutyEventMissingMember(t *testing.T) {
	repo := &calendar.StubRepository{}
	materializer := newTestMaterializer(repo, nil)
	assignment := duty.Assignment{
		ID:           8,
		TeamMemberID: 99,
		StartTime:    mustParse(time.RFC3339, "2025-09-01T00:00:00Z"),
		EndTime:      mustParse(time.RFC3339, "2025-09-07T23:59:59Z"),
	}

	_, _, err := materializer.EnsureDutyEvent(context.Background(), assignment, nil)

	assert.Error(t, err)
	assert.Equal(t, CategoryValidation, Classify(err))
	assert.Empty(t, repo.Events)
}

func TestEnsureOutOfOfficeEvent(t *testing.T) {
	repo := &calendar.StubRepository{}
	materializer := newTestMaterializer(repo, nil)
	member := &team.TeamMember{ID: 5, Name: "Alan Turing"}
	period := outofoffice.Period{
		ID:           21,
		TeamMemberID: 5,
		PeriodType:   outofoffice.TypeSickLeave,
		StartTime:    mustParse(time.RFC3339, "2025-10-01T00:00:00Z"),
		EndTime:      mustParse(time.RFC3339, "2025-10-03T23:59:59Z"),
	}

	event, created, err := materializer.EnsureOutOfOfficeEvent(context.Background(), period, member)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Alan Turing: out of office (sick leave)", event.Title)
	assert.True(t, event.AllDay)
	assert.Equal(t, calendar.LinkedOutOfOffice, event.LinkedEntityType)
	assert.Equal(t, 21, event.LinkedEntityID)
}
