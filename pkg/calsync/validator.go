package calsync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/crewplan/crewplan/pkg/calendar"
	"github.com/crewplan/crewplan/pkg/duty"
	"github.com/crewplan/crewplan/pkg/oneonone"
	"github.com/crewplan/crewplan/pkg/outofoffice"
	"github.com/crewplan/crewplan/pkg/team"
)

// OrphanedEvent is a derived event whose source record no longer exists.
type OrphanedEvent struct {
	EventUID       string `json:"eventUid"`
	EventType      string `json:"eventType"`
	LinkedEntityID int    `json:"linkedEntityId"`
	Title          string `json:"title"`
}

// MissingLink is a one-on-one record with a meeting date but no resolvable event.
type MissingLink struct {
	OneOnOneID   int    `json:"oneOnOneId"`
	TeamMemberID int    `json:"teamMemberId"`
	MeetingTime  string `json:"meetingTime"`
}

// BrokenReference is a one-on-one record whose stored event id does not exist.
type BrokenReference struct {
	OneOnOneID int    `json:"oneOnOneId"`
	EventUID   string `json:"eventUid"`
}

// DataMismatch lists the specific fields where a linked event disagrees with
// its source record.
type DataMismatch struct {
	OneOnOneID int      `json:"oneOnOneId"`
	EventUID   string   `json:"eventUid"`
	Mismatches []string `json:"mismatches"`
}

// DuplicateGroup is a set of events sharing one identity key, ordered by
// creation time. Everything after the first is redundant.
type DuplicateGroup struct {
	Key       string   `json:"key"`
	EventUIDs []string `json:"eventUids"`
}

type ReportSummary struct {
	IsConsistent          bool `json:"isConsistent"`
	OrphanedCount         int  `json:"orphanedCount"`
	MissingLinksCount     int  `json:"missingLinksCount"`
	BrokenReferencesCount int  `json:"brokenReferencesCount"`
	InvalidDataCount      int  `json:"invalidDataCount"`
	DuplicatesCount       int  `json:"duplicatesCount"`
	TotalIssues           int  `json:"totalIssues"`
}

type Inconsistencies struct {
	OrphanedEvents   []OrphanedEvent   `json:"orphanedEvents"`
	MissingLinks     []MissingLink     `json:"missingLinks"`
	BrokenReferences []BrokenReference `json:"brokenReferences"`
	InvalidData      []DataMismatch    `json:"invalidData"`
	DuplicateEvents  []DuplicateGroup  `json:"duplicateEvents"`
}

type Report struct {
	Summary         ReportSummary   `json:"summary"`
	Inconsistencies Inconsistencies `json:"inconsistencies"`
}

// Validator scans the whole store and classifies every disagreement between
// source records and derived events into five categories.
type Validator struct {
	records     oneonone.Repository
	team        team.Repository
	duties      duty.Repository
	outOfOffice outofoffice.Repository
	events      calendar.Repository
}

func NewValidator(records oneonone.Repository, teamRepo team.Repository, duties duty.Repository,
	outOfOffice outofoffice.Repository, events calendar.Repository) *Validator {
	return &Validator{records: records, team: teamRepo, duties: duties, outOfOffice: outOfOffice, events: events}
}

func (v *Validator) Validate(ctx context.Context) (Report, error) {
	report := Report{
		Inconsistencies: Inconsistencies{
			OrphanedEvents:   []OrphanedEvent{},
			MissingLinks:     []MissingLink{},
			BrokenReferences: []BrokenReference{},
			InvalidData:      []DataMismatch{},
			DuplicateEvents:  []DuplicateGroup{},
		},
	}

	store, err := v.loadStore(ctx)
	if err != nil {
		return report, err
	}

	v.findOrphans(store, &report)
	v.checkRecords(store, &report)
	v.findDuplicates(store, &report)

	summary := &report.Summary
	summary.OrphanedCount = len(report.Inconsistencies.OrphanedEvents)
	summary.MissingLinksCount = len(report.Inconsistencies.MissingLinks)
	summary.BrokenReferencesCount = len(report.Inconsistencies.BrokenReferences)
	summary.InvalidDataCount = len(report.Inconsistencies.InvalidData)
	summary.DuplicatesCount = len(report.Inconsistencies.DuplicateEvents)
	summary.TotalIssues = summary.OrphanedCount + summary.MissingLinksCount +
		summary.BrokenReferencesCount + summary.InvalidDataCount + summary.DuplicatesCount
	summary.IsConsistent = summary.TotalIssues == 0
	return report, nil
}

type storeSnapshot struct {
	members       map[int]team.TeamMember
	records       []oneonone.OneOnOne
	recordsByID   map[int]oneonone.OneOnOne
	duties        map[int]duty.Assignment
	outOfOffice   map[int]outofoffice.Period
	oneOnOneEvts  []calendar.Event
	dutyEvts      []calendar.Event
	outOfOffEvts  []calendar.Event
	birthdayEvts  []calendar.Event
	eventsByUID   map[string]calendar.Event
	evtsByRecord  map[int][]calendar.Event
}

func (v *Validator) loadStore(ctx context.Context) (*storeSnapshot, error) {
	snapshot := &storeSnapshot{
		members:      map[int]team.TeamMember{},
		recordsByID:  map[int]oneonone.OneOnOne{},
		duties:       map[int]duty.Assignment{},
		outOfOffice:  map[int]outofoffice.Period{},
		eventsByUID:  map[string]calendar.Event{},
		evtsByRecord: map[int][]calendar.Event{},
	}

	members, err := v.team.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	for _, member := range members {
		snapshot.members[member.ID] = member
	}

	snapshot.records, err = v.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load one-on-one records: %w", err)
	}
	for _, record := range snapshot.records {
		snapshot.recordsByID[record.ID] = record
	}

	assignments, err := v.duties.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load duty assignments: %w", err)
	}
	for _, assignment := range assignments {
		snapshot.duties[assignment.ID] = assignment
	}

	periods, err := v.outOfOffice.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load out-of-office periods: %w", err)
	}
	for _, period := range periods {
		snapshot.outOfOffice[period.ID] = period
	}

	for _, load := range []struct {
		eventType calendar.EventType
		target    *[]calendar.Event
	}{
		{calendar.EventTypeOneOnOne, &snapshot.oneOnOneEvts},
		{calendar.EventTypeDuty, &snapshot.dutyEvts},
		{calendar.EventTypeOutOfOffice, &snapshot.outOfOffEvts},
		{calendar.EventTypeBirthday, &snapshot.birthdayEvts},
	} {
		events, err := v.events.GetEventsByType(ctx, load.eventType)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s events: %w", load.eventType, err)
		}
		*load.target = events
		for _, event := range events {
			snapshot.eventsByUID[event.UID.String()] = event
		}
	}
	for _, event := range snapshot.oneOnOneEvts {
		snapshot.evtsByRecord[event.LinkedEntityID] = append(snapshot.evtsByRecord[event.LinkedEntityID], event)
	}

	return snapshot, nil
}

func (v *Validator) findOrphans(store *storeSnapshot, report *Report) {
	appendOrphan := func(event calendar.Event) {
		report.Inconsistencies.OrphanedEvents = append(report.Inconsistencies.OrphanedEvents, OrphanedEvent{
			EventUID:       event.UID.String(),
			EventType:      string(event.Type),
			LinkedEntityID: event.LinkedEntityID,
			Title:          event.Title,
		})
	}

	for _, event := range store.oneOnOneEvts {
		if _, ok := store.recordsByID[event.LinkedEntityID]; !ok {
			appendOrphan(event)
		}
	}
	for _, event := range store.dutyEvts {
		if _, ok := store.duties[event.LinkedEntityID]; !ok {
			appendOrphan(event)
		}
	}
	for _, event := range store.outOfOffEvts {
		if _, ok := store.outOfOffice[event.LinkedEntityID]; !ok {
			appendOrphan(event)
		}
	}
	for _, event := range store.birthdayEvts {
		if _, ok := store.members[event.TeamMemberID]; !ok {
			appendOrphan(event)
		}
	}
}

func (v *Validator) checkRecords(store *storeSnapshot, report *Report) {
	for _, record := range store.records {
		var brokenRef bool
		if record.NextMeetingEventID != nil {
			if _, ok := store.eventsByUID[record.NextMeetingEventID.String()]; !ok {
				brokenRef = true
				report.Inconsistencies.BrokenReferences = append(report.Inconsistencies.BrokenReferences, BrokenReference{
					OneOnOneID: record.ID,
					EventUID:   record.NextMeetingEventID.String(),
				})
			}
		}

		if record.NextMeetingTime == nil {
			continue
		}

		linked := v.resolveLink(store, record, brokenRef)
		if linked == nil {
			report.Inconsistencies.MissingLinks = append(report.Inconsistencies.MissingLinks, MissingLink{
				OneOnOneID:   record.ID,
				TeamMemberID: record.TeamMemberID,
				MeetingTime:  record.NextMeetingTime.UTC().Format(time.RFC3339),
			})
			continue
		}

		mismatches := v.compareRecordEvent(store, record, *linked)
		if len(mismatches) > 0 {
			report.Inconsistencies.InvalidData = append(report.Inconsistencies.InvalidData, DataMismatch{
				OneOnOneID: record.ID,
				EventUID:   linked.UID.String(),
				Mismatches: mismatches,
			})
		}
	}
}

// resolveLink finds the event a record is tied to: the stored back-reference
// first, then a scan by linked entity id so a lost reference does not hide an
// existing event.
func (v *Validator) resolveLink(store *storeSnapshot, record oneonone.OneOnOne, brokenRef bool) *calendar.Event {
	if record.NextMeetingEventID != nil && !brokenRef {
		if event, ok := store.eventsByUID[record.NextMeetingEventID.String()]; ok {
			return &event
		}
	}
	if linked := store.evtsByRecord[record.ID]; len(linked) > 0 {
		event := sortByCreation(linked)[0]
		return &event
	}
	return nil
}

func (v *Validator) compareRecordEvent(store *storeSnapshot, record oneonone.OneOnOne, event calendar.Event) []string {
	var mismatches []string

	if event.Type != calendar.EventTypeOneOnOne {
		mismatches = append(mismatches, fmt.Sprintf("eventType: have %q, want %q", event.Type, calendar.EventTypeOneOnOne))
	}
	if event.LinkedEntityType != calendar.LinkedOneOnOne {
		mismatches = append(mismatches, fmt.Sprintf("linkedEntityType: have %q, want %q", event.LinkedEntityType, calendar.LinkedOneOnOne))
	}
	if event.LinkedEntityID != record.ID {
		mismatches = append(mismatches, fmt.Sprintf("linkedEntityId: have %d, want %d", event.LinkedEntityID, record.ID))
	}
	if event.TeamMemberID != record.TeamMemberID {
		mismatches = append(mismatches, fmt.Sprintf("teamMemberId: have %d, want %d", event.TeamMemberID, record.TeamMemberID))
	}
	if !event.StartTime.Equal(*record.NextMeetingTime) {
		mismatches = append(mismatches, fmt.Sprintf("startDate: have %s, want %s",
			event.StartTime.UTC().Format(time.RFC3339), record.NextMeetingTime.UTC().Format(time.RFC3339)))
	}
	if member, ok := store.members[record.TeamMemberID]; ok {
		if want := OneOnOneTitle(member.Name); event.Title != want {
			mismatches = append(mismatches, fmt.Sprintf("title: have %q, want %q", event.Title, want))
		}
	}
	return mismatches
}

func (v *Validator) findDuplicates(store *storeSnapshot, report *Report) {
	groups := make(map[string][]calendar.Event)
	order := make([]string, 0)
	add := func(key string, event calendar.Event) {
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], event)
	}

	// One-on-one identity is (member, calendar day): a record can only hold a
	// single next meeting, so two same-day events for one member are drift.
	for _, event := range store.oneOnOneEvts {
		add(fmt.Sprintf("one_on_one|%d|%s", event.TeamMemberID, event.StartTime.UTC().Format("2006-01-02")), event)
	}
	for _, event := range store.dutyEvts {
		add(fmt.Sprintf("duty|%d", event.LinkedEntityID), event)
	}
	for _, event := range store.outOfOffEvts {
		add(fmt.Sprintf("out_of_office|%d", event.LinkedEntityID), event)
	}
	for _, event := range store.birthdayEvts {
		add(fmt.Sprintf("birthday|%d|%s", event.TeamMemberID, event.StartTime.UTC().Format("2006-01-02")), event)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		sorted := sortByCreation(group)
		uids := make([]string, 0, len(sorted))
		for _, event := range sorted {
			uids = append(uids, event.UID.String())
		}
		report.Inconsistencies.DuplicateEvents = append(report.Inconsistencies.DuplicateEvents, DuplicateGroup{
			Key:       key,
			EventUIDs: uids,
		})
	}
}

// sortByCreation orders events oldest first, breaking ties by UID so repair
// decisions are stable.
func sortByCreation(events []calendar.Event) []calendar.Event {
	sorted := make([]calendar.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].UID.String() < sorted[j].UID.String()
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}
