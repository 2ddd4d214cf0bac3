package calsync

import (
	"context"
	"fmt"

	"github.com/crewplan/crewplan/internal/event_bus"
	"github.com/crewplan/crewplan/pkg/calendar"
	"github.com/crewplan/crewplan/pkg/duty"
	"github.com/crewplan/crewplan/pkg/outofoffice"
	"github.com/crewplan/crewplan/pkg/team"
	log "github.com/sirupsen/logrus"
)

// OrchestratorOptions selects which generation paths a batch run covers.
// All paths are on by default.
type OrchestratorOptions struct {
	IncludeBirthdays   bool `json:"includeBirthdays"`
	IncludeDuties      bool `json:"includeDuties"`
	IncludeOutOfOffice bool `json:"includeOutOfOffice"`
	IncludeOneOnOnes   bool `json:"includeOneOnOnes"`
}

func DefaultOrchestratorOptions() OrchestratorOptions {
	return OrchestratorOptions{IncludeBirthdays: true, IncludeDuties: true, IncludeOutOfOffice: true, IncludeOneOnOnes: true}
}

type RunSummary struct {
	TotalCreated int  `json:"totalCreated"`
	TotalErrors  int  `json:"totalErrors"`
	Success      bool `json:"success"`
}

// RunResult aggregates one batch synchronization across every path. Paths are
// independent: a failing path lands in Errors while the others complete.
type RunResult struct {
	Summary           RunSummary          `json:"summary"`
	BirthdayEvents    EnsureAllResult     `json:"birthdayEvents"`
	DutyEvents        []calendar.EventDTO `json:"dutyEvents"`
	OutOfOfficeEvents []calendar.EventDTO `json:"outOfOfficeEvents"`
	OneOnOnes         SyncSummary         `json:"oneOnOnes"`
	Errors            []SyncIssue         `json:"errors"`
}

// Orchestrator runs every event generation path in one batch: birthdays,
// duty assignments, out-of-office periods, and one-on-one meetings.
type Orchestrator struct {
	team         team.Repository
	duties       duty.Repository
	outOfOffice  outofoffice.Repository
	materializer *EventMaterializer
	birthdays    *BirthdayReconciler
	oneOnOnes    *Synchronizer
	bus          *event_bus.EventBus
}

func NewOrchestrator(teamRepo team.Repository, duties duty.Repository, outOfOffice outofoffice.Repository,
	materializer *EventMaterializer, birthdays *BirthdayReconciler, oneOnOnes *Synchronizer,
	bus *event_bus.EventBus) *Orchestrator {
	return &Orchestrator{
		team:         teamRepo,
		duties:       duties,
		outOfOffice:  outOfOffice,
		materializer: materializer,
		birthdays:    birthdays,
		oneOnOnes:    oneOnOnes,
		bus:          bus,
	}
}

// SynchronizeAll runs the selected paths sequentially and aggregates their
// results. Path failures are captured per path, never propagated, so the
// returned error only covers being unable to start at all.
func (o *Orchestrator) SynchronizeAll(ctx context.Context, opts OrchestratorOptions) (RunResult, error) {
	result := RunResult{DutyEvents: []calendar.EventDTO{}, OutOfOfficeEvents: []calendar.EventDTO{}, Errors: []SyncIssue{}}

	members, err := o.loadMembers(ctx)
	if err != nil {
		return result, err
	}

	if opts.IncludeBirthdays {
		o.runBirthdays(ctx, &result)
	}
	if opts.IncludeDuties {
		o.runDuties(ctx, members, &result)
	}
	if opts.IncludeOutOfOffice {
		o.runOutOfOffice(ctx, members, &result)
	}
	if opts.IncludeOneOnOnes {
		o.runOneOnOnes(ctx, &result)
	}

	result.Summary.TotalCreated = result.BirthdayEvents.EventsCreated +
		len(result.DutyEvents) + len(result.OutOfOfficeEvents) + result.OneOnOnes.CreatedCount
	result.Summary.TotalErrors = len(result.Errors) + result.BirthdayEvents.ErrorsEncountered + result.OneOnOnes.ErrorCount
	result.Summary.Success = result.Summary.TotalErrors == 0

	log.Infof("synchronization run finished: %d created, %d errors", result.Summary.TotalCreated, result.Summary.TotalErrors)
	o.publishRun(ctx, result)
	return result, nil
}

func (o *Orchestrator) runBirthdays(ctx context.Context, result *RunResult) {
	ensured, err := o.birthdays.EnsureExistForAll(ctx, nil, nil)
	if err != nil {
		result.Errors = append(result.Errors, SyncIssue{
			Message:  fmt.Sprintf("birthday synchronization failed: %v", err),
			Category: Classify(err),
		})
		return
	}
	result.BirthdayEvents = ensured
}

func (o *Orchestrator) runDuties(ctx context.Context, members map[int]team.TeamMember, result *RunResult) {
	assignments, err := o.duties.List(ctx)
	if err != nil {
		result.Errors = append(result.Errors, SyncIssue{
			Message:  fmt.Sprintf("failed to load duty assignments: %v", err),
			Category: Classify(err),
		})
		return
	}
	for _, assignment := range assignments {
		member := lookupMember(members, assignment.TeamMemberID)
		event, created, err := o.materializer.EnsureDutyEvent(ctx, assignment, member)
		if err != nil {
			result.Errors = append(result.Errors, SyncIssue{
				Message:  fmt.Sprintf("duty assignment %d: %v", assignment.ID, err),
				Category: Classify(err),
			})
			continue
		}
		if created {
			result.DutyEvents = append(result.DutyEvents, calendar.EventToDTO(event))
		}
	}
}

func (o *Orchestrator) runOutOfOffice(ctx context.Context, members map[int]team.TeamMember, result *RunResult) {
	periods, err := o.outOfOffice.List(ctx)
	if err != nil {
		result.Errors = append(result.Errors, SyncIssue{
			Message:  fmt.Sprintf("failed to load out-of-office periods: %v", err),
			Category: Classify(err),
		})
		return
	}
	for _, period := range periods {
		member := lookupMember(members, period.TeamMemberID)
		event, created, err := o.materializer.EnsureOutOfOfficeEvent(ctx, period, member)
		if err != nil {
			result.Errors = append(result.Errors, SyncIssue{
				Message:  fmt.Sprintf("out-of-office period %d: %v", period.ID, err),
				Category: Classify(err),
			})
			continue
		}
		if created {
			result.OutOfOfficeEvents = append(result.OutOfOfficeEvents, calendar.EventToDTO(event))
		}
	}
}

func (o *Orchestrator) runOneOnOnes(ctx context.Context, result *RunResult) {
	synced, err := o.oneOnOnes.Sync(ctx, DefaultSyncOptions())
	if err != nil {
		result.Errors = append(result.Errors, SyncIssue{
			Message:  fmt.Sprintf("one-on-one synchronization failed: %v", err),
			Category: Classify(err),
		})
		return
	}
	result.OneOnOnes = synced.Summary
}

func (o *Orchestrator) loadMembers(ctx context.Context) (map[int]team.TeamMember, error) {
	members, err := o.team.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	byID := make(map[int]team.TeamMember, len(members))
	for _, member := range members {
		byID[member.ID] = member
	}
	return byID, nil
}

func lookupMember(members map[int]team.TeamMember, id int) *team.TeamMember {
	if member, ok := members[id]; ok {
		return &member
	}
	return nil
}

func (o *Orchestrator) publishRun(ctx context.Context, result RunResult) {
	if o.bus == nil {
		return
	}
	if err := o.bus.Publish(event_bus.NewEvent(ctx, RunCompleted, result.Summary)); err != nil {
		log.Warnf("failed to publish run notification: %v", err)
	}
}
