package calsync

import (
	"context"
	"testing"
	"time"

	"github.com/crewplan/crewplan/pkg/calendar"
	"github.com/crewplan/crewplan/pkg/duty"
	"github.com/crewplan/crewplan/pkg/oneonone"
	"github.com/crewplan/crewplan/pkg/outofoffice"
	"github.com/crewplan/crewplan/pkg/team"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatorFixture struct {
	records     *oneonone.StubRepository
	team        *team.StubRepository
	duties      *duty.StubRepository
	outOfOffice *outofoffice.StubRepository
	events      *calendar.StubRepository
	validator   *Validator
}

func newValidatorFixture() *validatorFixture {
	f := &validatorFixture{
		records:     &oneonone.StubRepository{},
		team:        &team.StubRepository{},
		duties:      &duty.StubRepository{},
		outOfOffice: &outofoffice.StubRepository{},
		events:      &calendar.StubRepository{},
	}
	f.validator = NewValidator(f.records, f.team, f.duties, f.outOfOffice, f.events)
	return f
}

func TestValidateEmptyStoreIsConsistent(t *testing.T) {
	f := newValidatorFixture()

	report, err := f.validator.Validate(context.Background())

	require.NoError(t, err)
	assert.True(t, report.Summary.IsConsistent)
	assert.Zero(t, report.Summary.TotalIssues)
}

func TestValidateConsistentStore(t *testing.T) {
	f := newValidatorFixture()
	meeting := mustParse(time.RFC3339, "2025-09-10T14:00:00Z")
	f.team.Members = []team.TeamMember{{ID: 1, Name: "Grace Hopper"}}
	stored, err := f.events.StoreEvent(context.Background(), calendar.Event{
		Title:            OneOnOneTitle("Grace Hopper"),
		StartTime:        meeting,
		EndTime:          meeting.Add(30 * time.Minute),
		Type:             calendar.EventTypeOneOnOne,
		TeamMemberID:     1,
		LinkedEntityType: calendar.LinkedOneOnOne,
		LinkedEntityID:   1,
	})
	require.NoError(t, err)
	f.records.Records = []oneonone.OneOnOne{
		{ID: 1, TeamMemberID: 1, NextMeetingTime: timePtr(meeting), NextMeetingEventID: &stored.UID},
	}

	report, err := f.validator.Validate(context.Background())

	require.NoError(t, err)
	assert.True(t, report.Summary.IsConsistent)
}

func TestValidateDetectsOrphanedEvents(t *testing.T) {
	f := newValidatorFixture()
	start := mustParse(time.RFC3339, "2025-09-10T00:00:00Z")

	// Events referencing source records that do not exist.
	for _, seed := range []calendar.Event{
		{Type: calendar.EventTypeOneOnOne, LinkedEntityID: 5, StartTime: start, EndTime: start.Add(time.Hour)},
		{Type: calendar.EventTypeDuty, LinkedEntityID: 9, StartTime: start, EndTime: start.Add(time.Hour)},
		{Type: calendar.EventTypeOutOfOffice, LinkedEntityID: 4, StartTime: start, EndTime: start.Add(time.Hour)},
		{Type: calendar.EventTypeBirthday, TeamMemberID: 7, StartTime: start, EndTime: start.Add(time.Hour)},
	} {
		_, err := f.events.StoreEvent(context.Background(), seed)
		require.NoError(t, err)
	}

	report, err := f.validator.Validate(context.Background())

	require.NoError(t, err)
	assert.False(t, report.Summary.IsConsistent)
	assert.Equal(t, 4, report.Summary.OrphanedCount)
}

func TestValidateDetectsMissingLink(t *testing.T) {
	f := newValidatorFixture()
	f.team.Members = []team.TeamMember{{ID: 1, Name: "Grace Hopper"}}
	meeting := mustParse(time.RFC3339, "2025-09-10T14:00:00Z")
	f.records.Records = []oneonone.OneOnOne{
		{ID: 1, TeamMemberID: 1, NextMeetingTime: timePtr(meeting)},
		{ID: 2, TeamMemberID: 1}, // no date, nothing to link
	}

	report, err := f.validator.Validate(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Inconsistencies.MissingLinks, 1)
	assert.Equal(t, 1, report.Inconsistencies.MissingLinks[0].OneOnOneID)
}

func TestValidateDetectsBrokenReference(t *testing.T) {
	f := newValidatorFixture()
	f.team.Members = []team.TeamMember{{ID: 1, Name: "Grace Hopper"}}
	dangling := uuid.New()
	f.records.Records = []oneonone.OneOnOne{
		{ID: 1, TeamMemberID: 1, NextMeetingEventID: &dangling},
	}

	report, err := f.validator.Validate(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Inconsistencies.BrokenReferences, 1)
	assert.Equal(t, dangling.String(), report.Inconsistencies.BrokenReferences[0].EventUID)
	assert.Empty(t, report.Inconsistencies.MissingLinks, "a record without a date has no missing link")
}

func TestValidateDetectsInvalidData(t *testing.T) {
	f := newValidatorFixture()
	f.team.Members = []team.TeamMember{{ID: 1, Name: "Grace Hopper"}}
	meeting := mustParse(time.RFC3339, "2025-09-10T14:00:00Z")
	stored, err := f.events.StoreEvent(context.Background(), calendar.Event{
		Title:            "Stale title",
		StartTime:        meeting.Add(2 * time.Hour),
		EndTime:          meeting.Add(3 * time.Hour),
		Type:             calendar.EventTypeOneOnOne,
		TeamMemberID:     1,
		LinkedEntityType: calendar.LinkedOneOnOne,
		LinkedEntityID:   1,
	})
	require.NoError(t, err)
	f.records.Records = []oneonone.OneOnOne{
		{ID: 1, TeamMemberID: 1, NextMeetingTime: timePtr(meeting), NextMeetingEventID: &stored.UID},
	}

	report, err := f.validator.Validate(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Inconsistencies.InvalidData, 1)
	mismatch := report.Inconsistencies.InvalidData[0]
	assert.Equal(t, 1, mismatch.OneOnOneID)
	assert.Len(t, mismatch.Mismatches, 2, "title and start date disagree")
}

func TestValidateDetectsDuplicateDutyEvents(t *testing.T) {
	f := newValidatorFixture()
	f.team.Members = []team.TeamMember{{ID: 1, Name: "Grace Hopper"}}
	start := mustParse(time.RFC3339, "2025-09-01T00:00:00Z")
	f.duties.Assignments = []duty.Assignment{
		{ID: 3, TeamMemberID: 1, DutyType: duty.TypeOnCall, StartTime: start, EndTime: start.Add(7 * 24 * time.Hour)},
	}
	first, err := f.events.StoreEvent(context.Background(), calendar.Event{
		Type: calendar.EventTypeDuty, TeamMemberID: 1, LinkedEntityID: 3, StartTime: start, EndTime: start.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = f.events.StoreEvent(context.Background(), calendar.Event{
		Type: calendar.EventTypeDuty, TeamMemberID: 1, LinkedEntityID: 3, StartTime: start, EndTime: start.Add(time.Hour),
	})
	require.NoError(t, err)

	report, err := f.validator.Validate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.DuplicatesCount, "two events for one assignment form one group")
	require.Len(t, report.Inconsistencies.DuplicateEvents, 1)
	group := report.Inconsistencies.DuplicateEvents[0]
	require.Len(t, group.EventUIDs, 2)
	assert.Equal(t, first.UID.String(), group.EventUIDs[0], "the oldest event leads the group")
}

func TestValidateRecoversLinkFromScan(t *testing.T) {
	// A record with no back-reference but a matching event must not be
	// reported as a missing link.
	f := newValidatorFixture()
	f.team.Members = []team.TeamMember{{ID: 1, Name: "Grace Hopper"}}
	meeting := mustParse(time.RFC3339, "2025-09-10T14:00:00Z")
	_, err := f.events.StoreEvent(context.Background(), calendar.Event{
		Title:            OneOnOneTitle("Grace Hopper"),
		StartTime:        meeting,
		EndTime:          meeting.Add(30 * time.Minute),
		Type:             calendar.EventTypeOneOnOne,
		TeamMemberID:     1,
		LinkedEntityType: calendar.LinkedOneOnOne,
		LinkedEntityID:   1,
	})
	require.NoError(t, err)
	f.records.Records = []oneonone.OneOnOne{
		{ID: 1, TeamMemberID: 1, NextMeetingTime: timePtr(meeting)},
	}

	report, err := f.validator.Validate(context.Background())

	require.NoError(t, err)
	assert.Empty(t, report.Inconsistencies.MissingLinks)
	assert.True(t, report.Summary.IsConsistent)
}

func TestValidateSummaryTotals(t *testing.T) {
	f := newValidatorFixture()
	f.team.Members = []team.TeamMember{{ID: 1, Name: "Grace Hopper"}}
	meeting := mustParse(time.RFC3339, "2025-09-10T14:00:00Z")
	dangling := uuid.New()
	f.records.Records = []oneonone.OneOnOne{
		{ID: 1, TeamMemberID: 1, NextMeetingTime: timePtr(meeting), NextMeetingEventID: &dangling},
	}
	_, err := f.events.StoreEvent(context.Background(), calendar.Event{
		Type: calendar.EventTypeDuty, LinkedEntityID: 77,
		StartTime: meeting, EndTime: meeting.Add(time.Hour),
	})
	require.NoError(t, err)

	report, err := f.validator.Validate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.OrphanedCount)
	assert.Equal(t, 1, report.Summary.BrokenReferencesCount)
	assert.Equal(t, 1, report.Summary.MissingLinksCount, "the dangling reference also leaves the meeting unlinked")
	assert.Equal(t, 3, report.Summary.TotalIssues)
	assert.False(t, report.Summary.IsConsistent)
}
