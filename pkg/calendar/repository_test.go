package calendar

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/crewplan/crewplan/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db *sql.DB

func TestMain(m *testing.M) {
	container, connect := test_utils.TestWithDB()
	db = connect()
	code := m.Run()
	db.Close()
	_ = container.Terminate(context.Background())
	os.Exit(code)
}

func setupRepositoryTest(t *testing.T) (context.Context, *RepositoryImpl) {
	t.Helper()
	ctx := context.Background()
	repository := NewRepository(db)
	t.Cleanup(func() {
		_, err := db.Exec("DELETE FROM calendar_event")
		require.NoError(t, err)
	})
	return ctx, repository
}

func testEvent(title string, start, end time.Time) Event {
	return Event{
		Title:            title,
		StartTime:        start,
		EndTime:          end,
		Type:             EventTypeOneOnOne,
		TeamMemberID:     1,
		LinkedEntityType: LinkedOneOnOne,
		LinkedEntityID:   1,
	}
}

func TestRepositoryImpl_StoreAndGetEvent(t *testing.T) {
	ctx, repository := setupRepositoryTest(t)
	baseTime := time.Now().UTC().Truncate(time.Millisecond)

	stored, err := repository.StoreEvent(ctx, testEvent("1:1 with Grace", baseTime, baseTime.Add(30*time.Minute)))
	require.NoError(t, err)
	require.NotEmpty(t, stored.UID)
	require.False(t, stored.CreatedAt.IsZero())

	fetched, err := repository.GetEvent(ctx, stored.UID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, stored.UID, fetched.UID)
	assert.Equal(t, "1:1 with Grace", fetched.Title)
	assert.Equal(t, baseTime, fetched.StartTime)
	assert.Equal(t, baseTime.Add(30*time.Minute), fetched.EndTime)
	assert.Equal(t, EventTypeOneOnOne, fetched.Type)
	assert.Equal(t, LinkedOneOnOne, fetched.LinkedEntityType)
	assert.Nil(t, fetched.Recurrence)
}

func TestRepositoryImpl_GetEventNotFound(t *testing.T) {
	ctx, repository := setupRepositoryTest(t)

	stored, err := repository.StoreEvent(ctx, testEvent("temp", time.Now(), time.Now().Add(time.Hour)))
	require.NoError(t, err)
	require.NoError(t, repository.DeleteEvent(ctx, stored.UID))

	fetched, err := repository.GetEvent(ctx, stored.UID)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestRepositoryImpl_StoreEventWithRecurrence(t *testing.T) {
	ctx, repository := setupRepositoryTest(t)
	start := time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)

	event := testEvent("Grace's birthday", start, start.Add(24*time.Hour-time.Second))
	event.Type = EventTypeBirthday
	event.AllDay = true
	event.LinkedEntityType = LinkedTeamMember
	event.Recurrence = &Recurrence{Type: RecurrenceYearly, Interval: 1}

	stored, err := repository.StoreEvent(ctx, event)
	require.NoError(t, err)

	fetched, err := repository.GetEvent(ctx, stored.UID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.True(t, fetched.AllDay)
	require.NotNil(t, fetched.Recurrence)
	assert.Equal(t, RecurrenceYearly, fetched.Recurrence.Type)
	assert.Equal(t, 1, fetched.Recurrence.Interval)
}

func TestRepositoryImpl_GetEventsOverlap(t *testing.T) {
	testCases := []struct {
		name          string
		eventStart    time.Duration
		eventEnd      time.Duration
		shouldBeFound bool
	}{
		{"event fully inside query period", 30 * time.Minute, 45 * time.Minute, true},
		{"event fully contains query period", -30 * time.Minute, 2 * time.Hour, true},
		{"event overlaps query start", -30 * time.Minute, 30 * time.Minute, true},
		{"event overlaps query end", 30 * time.Minute, 90 * time.Minute, true},
		{"event ends exactly at query start", -30 * time.Minute, 0, true},
		{"event starts exactly at query end", time.Hour, 90 * time.Minute, true},
		{"event entirely before query period", -2 * time.Hour, -time.Hour, false},
		{"event entirely after query period", 2 * time.Hour, 3 * time.Hour, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, repository := setupRepositoryTest(t)
			baseTime := time.Now().UTC().Truncate(time.Millisecond)

			_, err := repository.StoreEvent(ctx, testEvent(tc.name, baseTime.Add(tc.eventStart), baseTime.Add(tc.eventEnd)))
			require.NoError(t, err)

			fetched, err := repository.GetEvents(ctx, baseTime, baseTime.Add(time.Hour))
			require.NoError(t, err)

			if tc.shouldBeFound {
				assert.Len(t, fetched, 1)
			} else {
				assert.Empty(t, fetched)
			}
		})
	}
}

func TestRepositoryImpl_GetEventsByType(t *testing.T) {
	ctx, repository := setupRepositoryTest(t)
	baseTime := time.Now().UTC().Truncate(time.Millisecond)

	for i, eventType := range []EventType{EventTypeOneOnOne, EventTypeDuty, EventTypeDuty} {
		event := testEvent("typed", baseTime, baseTime.Add(time.Hour))
		event.Type = eventType
		event.LinkedEntityID = i + 1
		_, err := repository.StoreEvent(ctx, event)
		require.NoError(t, err)
	}

	dutyEvents, err := repository.GetEventsByType(ctx, EventTypeDuty)
	require.NoError(t, err)
	assert.Len(t, dutyEvents, 2)
	for _, event := range dutyEvents {
		assert.Equal(t, EventTypeDuty, event.Type)
	}
}

func TestRepositoryImpl_GetByLinkedEntity(t *testing.T) {
	ctx, repository := setupRepositoryTest(t)
	baseTime := time.Now().UTC().Truncate(time.Millisecond)

	matching := testEvent("linked", baseTime, baseTime.Add(time.Hour))
	matching.Type = EventTypeDuty
	matching.LinkedEntityType = LinkedDuty
	matching.LinkedEntityID = 42
	stored, err := repository.StoreEvent(ctx, matching)
	require.NoError(t, err)

	other := testEvent("other", baseTime, baseTime.Add(time.Hour))
	other.Type = EventTypeDuty
	other.LinkedEntityID = 43
	_, err = repository.StoreEvent(ctx, other)
	require.NoError(t, err)

	fetched, err := repository.GetByLinkedEntity(ctx, EventTypeDuty, 42)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, stored.UID, fetched[0].UID)
}

func TestRepositoryImpl_GetBirthdayEvents(t *testing.T) {
	ctx, repository := setupRepositoryTest(t)
	start := time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)

	for _, memberID := range []int{1, 1, 2} {
		event := testEvent("birthday", start, start.Add(time.Hour))
		event.Type = EventTypeBirthday
		event.TeamMemberID = memberID
		event.LinkedEntityType = LinkedTeamMember
		event.LinkedEntityID = memberID
		_, err := repository.StoreEvent(ctx, event)
		require.NoError(t, err)
	}

	forMember, err := repository.GetBirthdayEvents(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, forMember, 2)

	all, err := repository.GetBirthdayEvents(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "zero means all members")
}

func TestRepositoryImpl_GetByLinkedEntityOrdersByCreation(t *testing.T) {
	ctx, repository := setupRepositoryTest(t)
	baseTime := time.Now().UTC().Truncate(time.Millisecond)

	older := testEvent("older", baseTime, baseTime.Add(time.Hour))
	older.CreatedAt = baseTime.Add(-time.Hour)
	first, err := repository.StoreEvent(ctx, older)
	require.NoError(t, err)

	newer := testEvent("newer", baseTime, baseTime.Add(time.Hour))
	newer.CreatedAt = baseTime
	_, err = repository.StoreEvent(ctx, newer)
	require.NoError(t, err)

	fetched, err := repository.GetByLinkedEntity(ctx, EventTypeOneOnOne, 1)
	require.NoError(t, err)
	require.Len(t, fetched, 2)
	assert.Equal(t, first.UID, fetched[0].UID, "oldest event comes first")
}

func TestRepositoryImpl_UpdateEvent(t *testing.T) {
	ctx, repository := setupRepositoryTest(t)
	baseTime := time.Now().UTC().Truncate(time.Millisecond)

	stored, err := repository.StoreEvent(ctx, testEvent("initial", baseTime, baseTime.Add(30*time.Minute)))
	require.NoError(t, err)

	updated := stored
	updated.Title = "updated"
	updated.StartTime = baseTime.Add(time.Hour)
	updated.EndTime = baseTime.Add(90 * time.Minute)
	require.NoError(t, repository.UpdateEvent(ctx, updated))

	fetched, err := repository.GetEvent(ctx, stored.UID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "updated", fetched.Title)
	assert.Equal(t, baseTime.Add(time.Hour), fetched.StartTime)
	assert.Equal(t, stored.CreatedAt, fetched.CreatedAt, "creation time is immutable")
}

func TestRepositoryImpl_DeleteEvent(t *testing.T) {
	ctx, repository := setupRepositoryTest(t)
	baseTime := time.Now().UTC().Truncate(time.Millisecond)

	keep, err := repository.StoreEvent(ctx, testEvent("keep", baseTime, baseTime.Add(time.Hour)))
	require.NoError(t, err)
	remove, err := repository.StoreEvent(ctx, testEvent("remove", baseTime, baseTime.Add(time.Hour)))
	require.NoError(t, err)

	require.NoError(t, repository.DeleteEvent(ctx, remove.UID))

	fetched, err := repository.GetEvents(ctx, baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, keep.UID, fetched[0].UID)
}
