package calsync

import (
	"context"
	"testing"
	"time"

	"github.com/crewplan/crewplan/internal/event_bus"
	"github.com/crewplan/crewplan/internal/utils"
	"github.com/crewplan/crewplan/pkg/calendar"
	"github.com/crewplan/crewplan/pkg/duty"
	"github.com/crewplan/crewplan/pkg/oneonone"
	"github.com/crewplan/crewplan/pkg/outofoffice"
	"github.com/crewplan/crewplan/pkg/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orchestratorFixture struct {
	team         *team.StubRepository
	records      *oneonone.StubRepository
	duties       *duty.StubRepository
	outOfOffice  *outofoffice.StubRepository
	events       *calendar.StubRepository
	bus          *event_bus.EventBus
	orchestrator *Orchestrator
}

func newOrchestratorFixture(now time.Time) *orchestratorFixture {
	f := &orchestratorFixture{
		team:        &team.StubRepository{},
		records:     &oneonone.StubRepository{},
		duties:      &duty.StubRepository{},
		outOfOffice: &outofoffice.StubRepository{},
		events:      &calendar.StubRepository{},
		bus:         event_bus.NewEventBus(),
	}
	materializer := NewEventMaterializer(f.events, NewRetryPolicy(), fastRetryOptions(), f.bus)
	clock := &utils.MockClock{FixedNow: now}
	birthdays := NewBirthdayReconciler(f.team, f.events, materializer, clock, DefaultYearsAhead)
	synchronizer := newTestSynchronizer(f.records, f.team, f.events)
	f.orchestrator = NewOrchestrator(f.team, f.duties, f.outOfOffice, materializer, birthdays, synchronizer, f.bus)
	return f
}

func TestSynchronizeAllRunsEveryPath(t *testing.T) {
	now := mustParse(time.RFC3339, "2025-06-01T12:00:00Z")
	f := newOrchestratorFixture(now)
	f.team.Members = []team.TeamMember{{ID: 1, Name: "Grace Hopper", Birthday: "1906-12-09"}}
	start := mustParse(time.RFC3339, "2025-09-01T00:00:00Z")
	f.duties.Assignments = []duty.Assignment{
		{ID: 1, TeamMemberID: 1, DutyType: duty.TypeOnCall, StartTime: start, EndTime: start.Add(7 * 24 * time.Hour)},
	}
	f.outOfOffice.Periods = []outofoffice.Period{
		{ID: 1, TeamMemberID: 1, PeriodType: outofoffice.TypeVacation, StartTime: start, EndTime: start.Add(5 * 24 * time.Hour)},
	}
	meeting := mustParse(time.RFC3339, "2025-09-10T14:00:00Z")
	f.records.Records = []oneonone.OneOnOne{
		{ID: 1, TeamMemberID: 1, NextMeetingTime: timePtr(meeting)},
	}

	result, err := f.orchestrator.SynchronizeAll(context.Background(), DefaultOrchestratorOptions())

	require.NoError(t, err)
	assert.True(t, result.Summary.Success)
	assert.Equal(t, 3, result.BirthdayEvents.EventsCreated, "current year plus two")
	assert.Len(t, result.DutyEvents, 1)
	assert.Len(t, result.OutOfOfficeEvents, 1)
	assert.Equal(t, 1, result.OneOnOnes.CreatedCount)
	assert.Equal(t, 6, result.Summary.TotalCreated)

	byType := map[calendar.EventType]int{}
	for _, event := range f.events.Events {
		byType[event.Type]++
	}
	assert.Equal(t, 3, byType[calendar.EventTypeBirthday])
	assert.Equal(t, 1, byType[calendar.EventTypeDuty])
	assert.Equal(t, 1, byType[calendar.EventTypeOutOfOffice])
	assert.Equal(t, 1, byType[calendar.EventTypeOneOnOne])
}

func TestSynchronizeAllIsIdempotent(t *testing.T) {
	now := mustParse(time.RFC3339, "2025-06-01T12:00:00Z")
	f := newOrchestratorFixture(now)
	f.team.Members = []team.TeamMember{{ID: 1, Name: "Grace Hopper", Birthday: "1906-12-09"}}
	start := mustParse(time.RFC3339, "2025-09-01T00:00:00Z")
	f.duties.Assignments = []duty.Assignment{
		{ID: 1, TeamMemberID: 1, DutyType: duty.TypeOnCall, StartTime: start, EndTime: start.Add(24 * time.Hour)},
	}

	_, err := f.orchestrator.SynchronizeAll(context.Background(), DefaultOrchestratorOptions())
	require.NoError(t, err)
	count := len(f.events.Events)

	second, err := f.orchestrator.SynchronizeAll(context.Background(), DefaultOrchestratorOptions())
	require.NoError(t, err)

	assert.Zero(t, second.Summary.TotalCreated)
	assert.Len(t, f.events.Events, count, "re-running creates nothing new")
}

func TestSynchronizeAllPathsAreIndependent(t *testing.T) {
	now := mustParse(time.RFC3339, "2025-06-01T12:00:00Z")
	f := newOrchestratorFixture(now)
	f.team.Members = []team.TeamMember{{ID: 1, Name: "Grace Hopper", Birthday: "1906-12-09"}}
	start := mustParse(time.RFC3339, "2025-09-01T00:00:00Z")
	// Assignment referencing a member that does not exist.
	f.duties.Assignments = []duty.Assignment{
		{ID: 1, TeamMemberID: 99, DutyType: duty.TypeOnCall, StartTime: start, EndTime: start.Add(24 * time.Hour)},
	}

	result, err := f.orchestrator.SynchronizeAll(context.Background(), DefaultOrchestratorOptions())

	require.NoError(t, err)
	assert.False(t, result.Summary.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CategoryValidation, result.Errors[0].Category)
	assert.Equal(t, 3, result.BirthdayEvents.EventsCreated, "birthday path still completes")
	assert.Empty(t, result.DutyEvents)
}

func TestSynchronizeAllSelectivePaths(t *testing.T) {
	now := mustParse(time.RFC3339, "2025-06-01T12:00:00Z")
	f := newOrchestratorFixture(now)
	f.team.Members = []team.TeamMember{{ID: 1, Name: "Grace Hopper", Birthday: "1906-12-09"}}
	start := mustParse(time.RFC3339, "2025-09-01T00:00:00Z")
	f.duties.Assignments = []duty.Assignment{
		{ID: 1, TeamMemberID: 1, DutyType: duty.TypeOnCall, StartTime: start, EndTime: start.Add(24 * time.Hour)},
	}

	result, err := f.orchestrator.SynchronizeAll(context.Background(), OrchestratorOptions{IncludeDuties: true})

	require.NoError(t, err)
	assert.Len(t, result.DutyEvents, 1)
	assert.Zero(t, result.BirthdayEvents.EventsCreated)
	assert.Equal(t, 1, result.Summary.TotalCreated)
}

func TestSynchronizeAllPublishesRunCompleted(t *testing.T) {
	now := mustParse(time.RFC3339, "2025-06-01T12:00:00Z")
	f := newOrchestratorFixture(now)
	var published []RunSummary
	f.bus.Subscribe(RunCompleted, func(event event_bus.Event) error {
		if summary, ok := event.Data.(RunSummary); ok {
			published = append(published, summary)
		}
		return nil
	})

	_, err := f.orchestrator.SynchronizeAll(context.Background(), DefaultOrchestratorOptions())

	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.True(t, published[0].Success)
}
