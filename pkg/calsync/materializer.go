package calsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crewplan/crewplan/internal/event_bus"
	"github.com/crewplan/crewplan/pkg/calendar"
	"github.com/crewplan/crewplan/pkg/duty"
	"github.com/crewplan/crewplan/pkg/outofoffice"
	"github.com/crewplan/crewplan/pkg/team"
	log "github.com/sirupsen/logrus"
)

// Bus event types published by the sync engine.
const (
	EventCreated  event_bus.EventType = "calsync.event.created"
	RunCompleted  event_bus.EventType = "calsync.run.completed"
	RepairApplied event_bus.EventType = "calsync.repair.applied"
)

// Titles are derived deterministically from the member name so the validator
// can recompute them when checking for drift.

func OneOnOneTitle(memberName string) string {
	return fmt.Sprintf("1:1 with %s", memberName)
}

func BirthdayTitle(memberName string) string {
	return fmt.Sprintf("%s's birthday", memberName)
}

func dutyTitle(assignment duty.Assignment, memberName string) string {
	if assignment.Title != "" {
		return assignment.Title
	}
	return fmt.Sprintf("%s: %s duty", memberName, strings.ReplaceAll(assignment.DutyType, "_", " "))
}

func outOfOfficeTitle(period outofoffice.Period, memberName string) string {
	return fmt.Sprintf("%s: out of office (%s)", memberName, strings.ReplaceAll(period.PeriodType, "_", " "))
}

// EventMaterializer provides idempotent create and find-or-create primitives
// for derived calendar events. Lookups go by (eventType, linkedEntityId), so
// re-running any generation path is a no-op for events that already exist.
type EventMaterializer struct {
	events    calendar.Repository
	retry     *RetryPolicy
	retryOpts RetryOptions
	bus       *event_bus.EventBus
}

func NewEventMaterializer(events calendar.Repository, retry *RetryPolicy, retryOpts RetryOptions, bus *event_bus.EventBus) *EventMaterializer {
	return &EventMaterializer{events: events, retry: retry, retryOpts: retryOpts, bus: bus}
}

// CreateEvent persists an event, retrying transient store failures. The
// caller is responsible for any exists-check; use EnsureEvent when the
// (eventType, linkedEntityId) key is unique.
func (m *EventMaterializer) CreateEvent(ctx context.Context, event calendar.Event) (calendar.Event, error) {
	var stored calendar.Event
	err := m.retry.Execute(ctx, func(ctx context.Context) error {
		var err error
		stored, err = m.events.StoreEvent(ctx, event)
		return err
	}, m.retryOpts)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("failed to store %s event: %w", event.Type, err)
	}
	m.publishCreated(ctx, stored)
	return stored, nil
}

// EnsureEvent looks up an existing event by (eventType, linkedEntityId) and
// returns it unchanged when present. Otherwise it builds one via build and
// persists it. The boolean return is true when a new event was created.
// Errors from build are treated as validation failures and never retried.
func (m *EventMaterializer) EnsureEvent(ctx context.Context, eventType calendar.EventType, linkedEntityID int,
	build func() (calendar.Event, error)) (calendar.Event, bool, error) {

	if linkedEntityID <= 0 {
		return calendar.Event{}, false, NewValidationError("linked entity id is required for %s event", eventType)
	}

	existing, err := m.events.GetByLinkedEntity(ctx, eventType, linkedEntityID)
	if err != nil {
		return calendar.Event{}, false, fmt.Errorf("failed to look up %s event for entity %d: %w", eventType, linkedEntityID, err)
	}
	if len(existing) > 0 {
		log.Debugf("%s event for entity %d already exists, skipping creation", eventType, linkedEntityID)
		return existing[0], false, nil
	}

	event, err := build()
	if err != nil {
		return calendar.Event{}, false, err
	}

	stored, err := m.CreateEvent(ctx, event)
	if err != nil {
		return calendar.Event{}, false, err
	}
	return stored, true, nil
}

// EnsureDutyEvent materializes the calendar entry for a duty assignment.
func (m *EventMaterializer) EnsureDutyEvent(ctx context.Context, assignment duty.Assignment, member *team.TeamMember) (calendar.Event, bool, error) {
	return m.EnsureEvent(ctx, calendar.EventTypeDuty, assignment.ID, func() (calendar.Event, error) {
		if member == nil {
			return calendar.Event{}, NewValidationError("team member %d not found for duty assignment %d", assignment.TeamMemberID, assignment.ID)
		}
		if assignment.StartTime.IsZero() || assignment.EndTime.IsZero() {
			return calendar.Event{}, NewValidationError("duty assignment %d is missing start or end date", assignment.ID)
		}
		return calendar.Event{
			Title:            dutyTitle(assignment, member.Name),
			Description:      assignment.Description,
			StartTime:        assignment.StartTime,
			EndTime:          assignment.EndTime,
			AllDay:           true,
			Type:             calendar.EventTypeDuty,
			TeamMemberID:     member.ID,
			LinkedEntityType: calendar.LinkedDuty,
			LinkedEntityID:   assignment.ID,
		}, nil
	})
}

// EnsureOutOfOfficeEvent materializes the calendar entry for an out-of-office period.
func (m *EventMaterializer) EnsureOutOfOfficeEvent(ctx context.Context, period outofoffice.Period, member *team.TeamMember) (calendar.Event, bool, error) {
	return m.EnsureEvent(ctx, calendar.EventTypeOutOfOffice, period.ID, func() (calendar.Event, error) {
		if member == nil {
			return calendar.Event{}, NewValidationError("team member %d not found for out-of-office period %d", period.TeamMemberID, period.ID)
		}
		if period.StartTime.IsZero() || period.EndTime.IsZero() {
			return calendar.Event{}, NewValidationError("out-of-office period %d is missing start or end date", period.ID)
		}
		return calendar.Event{
			Title:            outOfOfficeTitle(period, member.Name),
			StartTime:        period.StartTime,
			EndTime:          period.EndTime,
			AllDay:           true,
			Type:             calendar.EventTypeOutOfOffice,
			TeamMemberID:     member.ID,
			LinkedEntityType: calendar.LinkedOutOfOffice,
			LinkedEntityID:   period.ID,
		}, nil
	})
}

func (m *EventMaterializer) publishCreated(ctx context.Context, event calendar.Event) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(event_bus.NewEvent(ctx, EventCreated, event)); err != nil {
		log.Warnf("failed to publish event notification: %v", err)
	}
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
