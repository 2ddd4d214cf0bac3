package calsync

import (
	"context"
	"fmt"
	"time"

	"github.com/crewplan/crewplan/internal/utils"
	"github.com/crewplan/crewplan/pkg/calendar"
	"github.com/crewplan/crewplan/pkg/team"
	log "github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"
)

// DefaultYearsAhead is the rolling window: birthday events are maintained for
// the current year through current year + DefaultYearsAhead.
const DefaultYearsAhead = 2

const birthdayLayout = "2006-01-02"

// GenerateResult reports one generation pass for a single team member.
// Per-year failures are collected instead of aborting the range.
type GenerateResult struct {
	Created []calendar.EventDTO `json:"created"`
	Errors  []string            `json:"errors"`
}

// DeleteResult reports a best-effort deletion pass.
type DeleteResult struct {
	DeletedCount int      `json:"deletedCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}

// EnsureAllResult aggregates a batch generation pass over the whole team.
type EnsureAllResult struct {
	TotalTeamMembers        int     `json:"totalTeamMembers"`
	MembersWithBirthdays    int     `json:"membersWithBirthdays"`
	MembersWithoutBirthdays int     `json:"membersWithoutBirthdays"`
	EventsCreated           int     `json:"eventsCreated"`
	ErrorsEncountered       int     `json:"errorsEncountered"`
	SuccessRate             float64 `json:"successRate"`
}

// DedupResult reports a duplicate-removal pass.
type DedupResult struct {
	DuplicatesFound   int      `json:"duplicatesFound"`
	DuplicatesRemoved int      `json:"duplicatesRemoved"`
	Errors            []string `json:"errors"`
}

// BirthdayReconciler maintains yearly birthday events for team members over a
// rolling year window. Yearly occurrences are expanded with an RRULE, which
// also settles the leap-day question: a Feb 29 birthday only materializes in
// leap years.
type BirthdayReconciler struct {
	team         team.Repository
	events       calendar.Repository
	materializer *EventMaterializer
	clock        utils.Clock
	yearsAhead   int
}

func NewBirthdayReconciler(teamRepo team.Repository, events calendar.Repository, materializer *EventMaterializer,
	clock utils.Clock, yearsAhead int) *BirthdayReconciler {
	if yearsAhead <= 0 {
		yearsAhead = DefaultYearsAhead
	}
	return &BirthdayReconciler{team: teamRepo, events: events, materializer: materializer, clock: clock, yearsAhead: yearsAhead}
}

func parseBirthday(s string) (time.Time, error) {
	t, err := time.Parse(birthdayLayout, s)
	if err != nil {
		return time.Time{}, NewValidationError("birthday %q is not a valid YYYY-MM-DD date", s)
	}
	return t.UTC(), nil
}

// GenerateForYears creates one birthday event per year in [startYear, endYear]
// for the given member, skipping years that already have one. Events are
// all-day and tagged with a yearly recurrence. Failures for individual years
// are collected in the result; only invalid input fails the call.
func (r *BirthdayReconciler) GenerateForYears(ctx context.Context, member team.TeamMember, startYear, endYear int) (GenerateResult, error) {
	result := GenerateResult{Created: []calendar.EventDTO{}, Errors: []string{}}

	if member.ID <= 0 {
		return result, NewValidationError("team member id is required")
	}
	if member.Name == "" {
		return result, NewValidationError("team member %d has no name", member.ID)
	}
	if startYear > endYear {
		return result, NewValidationError("start year %d is after end year %d", startYear, endYear)
	}
	birthDate, err := parseBirthday(member.Birthday)
	if err != nil {
		return result, err
	}

	existing, err := r.events.GetBirthdayEvents(ctx, member.ID)
	if err != nil {
		return result, fmt.Errorf("failed to load birthday events for member %d: %w", member.ID, err)
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.YEARLY,
		Interval: 1,
		Dtstart:  birthDate,
	})
	if err != nil {
		return result, fmt.Errorf("failed to build recurrence rule for member %d: %w", member.ID, err)
	}

	windowStart := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(endYear, time.December, 31, 23, 59, 59, 0, time.UTC)

	for _, occurrence := range rule.Between(windowStart, windowEnd, true) {
		if hasEventOnDay(existing, occurrence) {
			log.Debugf("birthday event for member %d on %s already exists", member.ID, occurrence.Format(birthdayLayout))
			continue
		}
		event := calendar.Event{
			Title:            BirthdayTitle(member.Name),
			StartTime:        occurrence,
			EndTime:          endOfDay(occurrence),
			AllDay:           true,
			Type:             calendar.EventTypeBirthday,
			TeamMemberID:     member.ID,
			LinkedEntityType: calendar.LinkedTeamMember,
			LinkedEntityID:   member.ID,
			Recurrence:       &calendar.Recurrence{Type: calendar.RecurrenceYearly, Interval: 1},
		}
		created, err := r.materializer.CreateEvent(ctx, event)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("year %d: %v", occurrence.Year(), err))
			continue
		}
		result.Created = append(result.Created, calendar.EventToDTO(created))
	}

	return result, nil
}

// UpdateForTeamMember replaces a member's birthday events after their
// birthday changed: existing future events are deleted (best effort, never
// in-place date mutation) and the default window is regenerated from the new
// date.
func (r *BirthdayReconciler) UpdateForTeamMember(ctx context.Context, teamMemberID int, newBirthday string) (GenerateResult, error) {
	if teamMemberID <= 0 {
		return GenerateResult{}, NewValidationError("team member id is required")
	}
	if _, err := parseBirthday(newBirthday); err != nil {
		return GenerateResult{}, err
	}

	member, err := r.team.Get(ctx, teamMemberID)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("failed to load team member %d: %w", teamMemberID, err)
	}
	if member == nil {
		return GenerateResult{}, NewValidationError("team member %d not found", teamMemberID)
	}

	existing, err := r.events.GetBirthdayEvents(ctx, teamMemberID)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("failed to load birthday events for member %d: %w", teamMemberID, err)
	}
	now := r.clock.Now()
	for _, event := range existing {
		if event.StartTime.Before(now) {
			continue
		}
		if err := r.events.DeleteEvent(ctx, event.UID); err != nil {
			log.Warnf("failed to delete stale birthday event %s for member %d: %v", event.UID, teamMemberID, err)
		}
	}

	member.Birthday = newBirthday
	currentYear := now.Year()
	return r.GenerateForYears(ctx, *member, currentYear, currentYear+r.yearsAhead)
}

// DeleteForTeamMember removes all birthday events for a member, deleting each
// independently. Partial failure never raises; it is reported in the result.
func (r *BirthdayReconciler) DeleteForTeamMember(ctx context.Context, teamMemberID int) (DeleteResult, error) {
	result := DeleteResult{Errors: []string{}}
	if teamMemberID <= 0 {
		return result, NewValidationError("team member id is required")
	}

	events, err := r.events.GetBirthdayEvents(ctx, teamMemberID)
	if err != nil {
		return result, fmt.Errorf("failed to load birthday events for member %d: %w", teamMemberID, err)
	}
	for _, event := range events {
		if err := r.events.DeleteEvent(ctx, event.UID); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("event %s: %v", event.UID, err))
			continue
		}
		result.DeletedCount++
	}
	return result, nil
}

// BirthdayChanged reacts to a birthday edit on a team member. A cleared
// birthday removes the member's events; a new date replaces them via
// UpdateForTeamMember. Implements team.BirthdayEvents.
func (r *BirthdayReconciler) BirthdayChanged(ctx context.Context, teamMemberID int, newBirthday string) error {
	if newBirthday == "" {
		_, err := r.DeleteForTeamMember(ctx, teamMemberID)
		return err
	}
	_, err := r.UpdateForTeamMember(ctx, teamMemberID, newBirthday)
	return err
}

// MemberDeleted removes all birthday events once their member is gone.
// Implements team.BirthdayEvents.
func (r *BirthdayReconciler) MemberDeleted(ctx context.Context, teamMemberID int) error {
	_, err := r.DeleteForTeamMember(ctx, teamMemberID)
	return err
}

// EnsureExistForAll runs GenerateForYears for every member with a birthday.
// A nil members slice means the whole team; nil targetYears means the default
// rolling window. Invalid entries are skipped defensively.
func (r *BirthdayReconciler) EnsureExistForAll(ctx context.Context, members []team.TeamMember, targetYears []int) (EnsureAllResult, error) {
	result := EnsureAllResult{}

	if members == nil {
		loaded, err := r.team.List(ctx)
		if err != nil {
			return result, fmt.Errorf("failed to load team members: %w", err)
		}
		members = loaded
	}

	startYear, endYear, ok := yearRange(targetYears)
	if !ok {
		currentYear := r.clock.Now().Year()
		startYear, endYear = currentYear, currentYear+r.yearsAhead
	}

	membersSucceeded := 0
	for _, member := range members {
		if member.ID <= 0 {
			log.Warnf("skipping team member entry with missing id (%q)", member.Name)
			continue
		}
		result.TotalTeamMembers++
		if member.Birthday == "" {
			result.MembersWithoutBirthdays++
			continue
		}
		result.MembersWithBirthdays++

		generated, err := r.GenerateForYears(ctx, member, startYear, endYear)
		if err != nil {
			log.Warnf("birthday generation failed for member %d: %v", member.ID, err)
			result.ErrorsEncountered++
			continue
		}
		result.EventsCreated += len(generated.Created)
		result.ErrorsEncountered += len(generated.Errors)
		if len(generated.Errors) == 0 {
			membersSucceeded++
		}
	}

	if result.MembersWithBirthdays > 0 {
		result.SuccessRate = float64(membersSucceeded) / float64(result.MembersWithBirthdays)
	} else {
		result.SuccessRate = 1.0
	}
	return result, nil
}

// RemoveDuplicates deletes redundant birthday events, keeping the first by
// creation order for each (member, day) pair.
func (r *BirthdayReconciler) RemoveDuplicates(ctx context.Context) (DedupResult, error) {
	result := DedupResult{Errors: []string{}}

	events, err := r.events.GetBirthdayEvents(ctx, 0)
	if err != nil {
		return result, fmt.Errorf("failed to load birthday events: %w", err)
	}

	groups := make(map[string][]calendar.Event)
	order := make([]string, 0, len(events))
	for _, event := range events {
		key := fmt.Sprintf("%d|%s", event.TeamMemberID, event.StartTime.UTC().Format(birthdayLayout))
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], event)
	}

	for _, key := range order {
		group := sortByCreation(groups[key])
		if len(group) < 2 {
			continue
		}
		for _, extra := range group[1:] {
			result.DuplicatesFound++
			if err := r.events.DeleteEvent(ctx, extra.UID); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("event %s: %v", extra.UID, err))
				continue
			}
			result.DuplicatesRemoved++
		}
	}
	return result, nil
}

func hasEventOnDay(events []calendar.Event, day time.Time) bool {
	for _, event := range events {
		if event.SameCalendarDay(day) {
			return true
		}
	}
	return false
}

func yearRange(years []int) (int, int, bool) {
	start, end := 0, 0
	found := false
	for _, year := range years {
		if year < 1900 || year > 3000 {
			log.Warnf("skipping invalid target year %d", year)
			continue
		}
		if !found || year < start {
			start = year
		}
		if !found || year > end {
			end = year
		}
		found = true
	}
	return start, end, found
}
