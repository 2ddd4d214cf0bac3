package calsync

import (
	"context"
	"fmt"
	"time"

	"github.com/crewplan/crewplan/pkg/calendar"
	"github.com/crewplan/crewplan/pkg/oneonone"
	"github.com/crewplan/crewplan/pkg/team"
	log "github.com/sirupsen/logrus"
)

const oneOnOneDuration = 30 * time.Minute

// SyncOptions controls a one-on-one synchronization pass.
type SyncOptions struct {
	DryRun         bool `json:"dryRun"`
	CreateMissing  bool `json:"createMissing"`
	UpdateExisting bool `json:"updateExisting"`
}

func DefaultSyncOptions() SyncOptions {
	return SyncOptions{CreateMissing: true}
}

// SyncItem describes the outcome for a single one-on-one record.
type SyncItem struct {
	OneOnOneID   int    `json:"oneOnOneId"`
	TeamMemberID int    `json:"teamMemberId,omitempty"`
	EventUID     string `json:"eventUid,omitempty"`
	Reason       string `json:"reason,omitempty"`
	DryRun       bool   `json:"dryRun,omitempty"`
}

// SyncIssue is a per-record failure recorded instead of aborting the batch.
type SyncIssue struct {
	OneOnOneID int      `json:"oneOnOneId,omitempty"`
	Message    string   `json:"message"`
	Category   Category `json:"category"`
}

type SyncSummary struct {
	Success      bool `json:"success"`
	CreatedCount int  `json:"createdCount"`
	UpdatedCount int  `json:"updatedCount"`
	SkippedCount int  `json:"skippedCount"`
	ErrorCount   int  `json:"errorCount"`
}

type SyncResult struct {
	TotalOneOnOnes int         `json:"totalOneOnOnes"`
	Processed      int         `json:"processed"`
	Created        []SyncItem  `json:"created"`
	Updated        []SyncItem  `json:"updated"`
	Skipped        []SyncItem  `json:"skipped"`
	Errors         []SyncIssue `json:"errors"`
	Summary        SyncSummary `json:"summary"`
}

// VisibilityOptions controls a visibility check. A zero From/To means no date
// filter; a zero TeamMemberID means all members.
type VisibilityOptions struct {
	TeamMemberID  int       `json:"teamMemberId,omitempty"`
	From          time.Time `json:"from,omitempty"`
	To            time.Time `json:"to,omitempty"`
	CreateMissing bool      `json:"createMissing"`
}

type VisibilityEntry struct {
	OneOnOneID   int    `json:"oneOnOneId"`
	TeamMemberID int    `json:"teamMemberId"`
	EventUID     string `json:"eventUid,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type VisibilityResult struct {
	TotalRecords int               `json:"totalRecords"`
	Visible      []VisibilityEntry `json:"visible"`
	Missing      []VisibilityEntry `json:"missing"`
	CreatedCount int               `json:"createdCount"`
	Errors       []SyncIssue       `json:"errors"`
}

// Synchronizer keeps one-on-one meeting records and their linked calendar
// events in sync. Records are processed sequentially, one fully resolved
// (including retries) before the next, which keeps dry-run previews and
// duplicate prevention deterministic.
type Synchronizer struct {
	records oneonone.Repository
	team    team.Repository
	events  calendar.Repository
	retry   *RetryPolicy
	opts    RetryOptions
}

func NewSynchronizer(records oneonone.Repository, teamRepo team.Repository, events calendar.Repository,
	retry *RetryPolicy, retryOpts RetryOptions) *Synchronizer {
	return &Synchronizer{records: records, team: teamRepo, events: events, retry: retry, opts: retryOpts}
}

// Sync walks every one-on-one record and materializes, updates, or skips its
// calendar event. Malformed records are recorded as errors rather than
// aborting the batch.
func (s *Synchronizer) Sync(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	result := SyncResult{Created: []SyncItem{}, Updated: []SyncItem{}, Skipped: []SyncItem{}, Errors: []SyncIssue{}}

	records, err := s.records.List(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load one-on-one records: %w", err)
	}
	members, err := s.loadMembers(ctx)
	if err != nil {
		return result, err
	}

	result.TotalOneOnOnes = len(records)
	for _, record := range records {
		result.Processed++
		s.syncRecord(ctx, record, members, opts, &result)
	}

	result.Summary = SyncSummary{
		CreatedCount: len(result.Created),
		UpdatedCount: len(result.Updated),
		SkippedCount: len(result.Skipped),
		ErrorCount:   len(result.Errors),
	}
	result.Summary.Success = result.Summary.ErrorCount == 0
	return result, nil
}

func (s *Synchronizer) syncRecord(ctx context.Context, record oneonone.OneOnOne, members map[int]team.TeamMember,
	opts SyncOptions, result *SyncResult) {

	if record.ID <= 0 || record.TeamMemberID <= 0 {
		result.Errors = append(result.Errors, SyncIssue{
			OneOnOneID: record.ID,
			Message:    fmt.Sprintf("one-on-one record %d is missing required identifiers", record.ID),
			Category:   CategoryValidation,
		})
		return
	}
	member, ok := members[record.TeamMemberID]
	if !ok {
		result.Errors = append(result.Errors, SyncIssue{
			OneOnOneID: record.ID,
			Message:    fmt.Sprintf("team member %d not found for one-on-one %d", record.TeamMemberID, record.ID),
			Category:   CategoryData,
		})
		return
	}
	if record.NextMeetingTime == nil {
		result.Skipped = append(result.Skipped, SyncItem{
			OneOnOneID: record.ID, TeamMemberID: record.TeamMemberID, Reason: "no date set",
		})
		return
	}

	linked, err := s.findLinkedEvent(ctx, record)
	if err != nil {
		result.Errors = append(result.Errors, SyncIssue{
			OneOnOneID: record.ID, Message: err.Error(), Category: Classify(err),
		})
		return
	}

	if linked == nil {
		if !opts.CreateMissing {
			result.Skipped = append(result.Skipped, SyncItem{
				OneOnOneID: record.ID, TeamMemberID: record.TeamMemberID, Reason: "missing event, creation disabled",
			})
			return
		}
		if opts.DryRun {
			result.Created = append(result.Created, SyncItem{
				OneOnOneID: record.ID, TeamMemberID: record.TeamMemberID, Reason: "would create", DryRun: true,
			})
			return
		}
		stored, err := s.createForRecord(ctx, record, member)
		if err != nil {
			result.Errors = append(result.Errors, SyncIssue{
				OneOnOneID: record.ID, Message: err.Error(), Category: Classify(err),
			})
			return
		}
		result.Created = append(result.Created, SyncItem{
			OneOnOneID: record.ID, TeamMemberID: record.TeamMemberID, EventUID: stored.UID.String(),
		})
		return
	}

	if !linked.StartTime.Equal(*record.NextMeetingTime) {
		if !opts.UpdateExisting {
			result.Skipped = append(result.Skipped, SyncItem{
				OneOnOneID: record.ID, TeamMemberID: record.TeamMemberID,
				EventUID: linked.UID.String(), Reason: "date differs, update disabled",
			})
			return
		}
		if opts.DryRun {
			result.Updated = append(result.Updated, SyncItem{
				OneOnOneID: record.ID, TeamMemberID: record.TeamMemberID,
				EventUID: linked.UID.String(), Reason: "would update", DryRun: true,
			})
			return
		}
		updated := *linked
		updated.Title = OneOnOneTitle(member.Name)
		updated.StartTime = *record.NextMeetingTime
		updated.EndTime = record.NextMeetingTime.Add(oneOnOneDuration)
		err := s.retry.Execute(ctx, func(ctx context.Context) error {
			return s.events.UpdateEvent(ctx, updated)
		}, s.opts)
		if err != nil {
			result.Errors = append(result.Errors, SyncIssue{
				OneOnOneID: record.ID, Message: err.Error(), Category: Classify(err),
			})
			return
		}
		result.Updated = append(result.Updated, SyncItem{
			OneOnOneID: record.ID, TeamMemberID: record.TeamMemberID, EventUID: updated.UID.String(),
		})
		return
	}

	// Reattach a lost back-reference when the event was found by scan.
	if !opts.DryRun && (record.NextMeetingEventID == nil || *record.NextMeetingEventID != linked.UID) {
		uid := linked.UID
		record.NextMeetingEventID = &uid
		if err := s.records.Update(ctx, record); err != nil {
			log.Warnf("failed to reattach event %s to one-on-one %d: %v", uid, record.ID, err)
		}
	}
	result.Skipped = append(result.Skipped, SyncItem{
		OneOnOneID: record.ID, TeamMemberID: record.TeamMemberID,
		EventUID: linked.UID.String(), Reason: "up to date",
	})
}

// EnsureVisibility cross-references stored one-on-one events against source
// records instead of trusting the stored back-reference, classifying each
// record as visible or missing. With CreateMissing it repairs in place.
func (s *Synchronizer) EnsureVisibility(ctx context.Context, opts VisibilityOptions) (VisibilityResult, error) {
	result := VisibilityResult{Visible: []VisibilityEntry{}, Missing: []VisibilityEntry{}, Errors: []SyncIssue{}}

	records, err := s.records.List(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load one-on-one records: %w", err)
	}
	members, err := s.loadMembers(ctx)
	if err != nil {
		return result, err
	}
	events, err := s.events.GetEventsByType(ctx, calendar.EventTypeOneOnOne)
	if err != nil {
		return result, fmt.Errorf("failed to load one-on-one events: %w", err)
	}
	byRecord := make(map[int][]calendar.Event)
	for _, event := range events {
		byRecord[event.LinkedEntityID] = append(byRecord[event.LinkedEntityID], event)
	}

	for _, record := range records {
		if opts.TeamMemberID != 0 && record.TeamMemberID != opts.TeamMemberID {
			continue
		}
		if record.NextMeetingTime == nil {
			continue
		}
		if !opts.From.IsZero() && record.NextMeetingTime.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && record.NextMeetingTime.After(opts.To) {
			continue
		}
		result.TotalRecords++

		if linked := byRecord[record.ID]; len(linked) > 0 {
			result.Visible = append(result.Visible, VisibilityEntry{
				OneOnOneID: record.ID, TeamMemberID: record.TeamMemberID, EventUID: linked[0].UID.String(),
			})
			continue
		}

		reason := "no event linked"
		if record.NextMeetingEventID != nil {
			reason = "linked event not found"
			referenced, err := s.events.GetEvent(ctx, *record.NextMeetingEventID)
			if err != nil {
				log.Warnf("failed to look up event %s for one-on-one %d: %v", *record.NextMeetingEventID, record.ID, err)
			} else if referenced != nil {
				reason = "linked event belongs to another entity"
			}
		}
		result.Missing = append(result.Missing, VisibilityEntry{
			OneOnOneID: record.ID, TeamMemberID: record.TeamMemberID, Reason: reason,
		})

		if !opts.CreateMissing {
			continue
		}
		member, ok := members[record.TeamMemberID]
		if !ok {
			result.Errors = append(result.Errors, SyncIssue{
				OneOnOneID: record.ID,
				Message:    fmt.Sprintf("team member %d not found for one-on-one %d", record.TeamMemberID, record.ID),
				Category:   CategoryData,
			})
			continue
		}
		if _, err := s.createForRecord(ctx, record, member); err != nil {
			result.Errors = append(result.Errors, SyncIssue{
				OneOnOneID: record.ID, Message: err.Error(), Category: Classify(err),
			})
			continue
		}
		result.CreatedCount++
	}
	return result, nil
}

// createForRecord stores a new event for the record and writes the
// back-reference, the only source-record mutation the engine performs.
func (s *Synchronizer) createForRecord(ctx context.Context, record oneonone.OneOnOne, member team.TeamMember) (calendar.Event, error) {
	if record.NextMeetingTime == nil {
		return calendar.Event{}, NewValidationError("one-on-one %d has no meeting date", record.ID)
	}
	event := calendar.Event{
		Title:            OneOnOneTitle(member.Name),
		StartTime:        *record.NextMeetingTime,
		EndTime:          record.NextMeetingTime.Add(oneOnOneDuration),
		Type:             calendar.EventTypeOneOnOne,
		TeamMemberID:     member.ID,
		LinkedEntityType: calendar.LinkedOneOnOne,
		LinkedEntityID:   record.ID,
	}

	var stored calendar.Event
	err := s.retry.Execute(ctx, func(ctx context.Context) error {
		var err error
		stored, err = s.events.StoreEvent(ctx, event)
		return err
	}, s.opts)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("failed to store one-on-one event for record %d: %w", record.ID, err)
	}

	uid := stored.UID
	record.NextMeetingEventID = &uid
	if err := s.records.Update(ctx, record); err != nil {
		return calendar.Event{}, fmt.Errorf("failed to link event %s to one-on-one %d: %w", uid, record.ID, err)
	}
	return stored, nil
}

func (s *Synchronizer) findLinkedEvent(ctx context.Context, record oneonone.OneOnOne) (*calendar.Event, error) {
	if record.NextMeetingEventID != nil {
		event, err := s.events.GetEvent(ctx, *record.NextMeetingEventID)
		if err != nil {
			return nil, fmt.Errorf("failed to load event %s for one-on-one %d: %w", record.NextMeetingEventID, record.ID, err)
		}
		if event != nil {
			return event, nil
		}
		log.Debugf("one-on-one %d references missing event %s", record.ID, record.NextMeetingEventID)
	}

	// The back-reference may be stale; fall back to a lookup by source id.
	linked, err := s.events.GetByLinkedEntity(ctx, calendar.EventTypeOneOnOne, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up events for one-on-one %d: %w", record.ID, err)
	}
	if len(linked) == 0 {
		return nil, nil
	}
	return &linked[0], nil
}

func (s *Synchronizer) loadMembers(ctx context.Context) (map[int]team.TeamMember, error) {
	members, err := s.team.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	byID := make(map[int]team.TeamMember, len(members))
	for _, member := range members {
		byID[member.ID] = member
	}
	return byID, nil
}
