package app

import (
	"database/sql"
	"time"

	"github.com/crewplan/crewplan/internal/config"
	"github.com/crewplan/crewplan/internal/event_bus"
	"github.com/crewplan/crewplan/internal/utils"
	"github.com/crewplan/crewplan/pkg/calendar"
	"github.com/crewplan/crewplan/pkg/calsync"
	"github.com/crewplan/crewplan/pkg/duty"
	"github.com/crewplan/crewplan/pkg/oneonone"
	"github.com/crewplan/crewplan/pkg/outofoffice"
	"github.com/crewplan/crewplan/pkg/team"
)

// Dependencies holds all repositories, engine components, and handlers.
type Dependencies struct {
	TeamRepo    *team.RepositoryImpl
	TeamHandler *team.Handler

	OneOnOneRepo    *oneonone.RepositoryImpl
	OneOnOneHandler *oneonone.Handler

	DutyRepo    *duty.RepositoryImpl
	DutyHandler *duty.Handler

	OutOfOfficeRepo    *outofoffice.RepositoryImpl
	OutOfOfficeHandler *outofoffice.Handler

	CalendarRepo    *calendar.RepositoryImpl
	CalendarHandler *calendar.Handler

	RetryPolicy  *calsync.RetryPolicy
	Materializer *calsync.EventMaterializer
	Birthdays    *calsync.BirthdayReconciler
	Synchronizer *calsync.Synchronizer
	Validator    *calsync.Validator
	Repairer     *calsync.Repairer
	Orchestrator *calsync.Orchestrator
	SyncHandler  *calsync.Handler

	EventBus *event_bus.EventBus
	Clock    utils.Clock
}

// BuildDependencies initializes and wires all application components.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.TeamRepo = team.NewRepository(db)

	deps.OneOnOneRepo = oneonone.NewRepository(db)
	deps.OneOnOneHandler = oneonone.NewHandler(deps.OneOnOneRepo)

	deps.DutyRepo = duty.NewRepository(db)
	deps.DutyHandler = duty.NewHandler(deps.DutyRepo)

	deps.OutOfOfficeRepo = outofoffice.NewRepository(db)
	deps.OutOfOfficeHandler = outofoffice.NewHandler(deps.OutOfOfficeRepo)

	deps.CalendarRepo = calendar.NewRepository(db)
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarRepo)

	retryOpts := calsync.RetryOptions{
		MaxRetries: cfg.Sync.MaxRetries,
		BaseDelay:  time.Duration(cfg.Sync.BaseDelayMillis) * time.Millisecond,
	}
	deps.RetryPolicy = calsync.NewRetryPolicy()
	deps.Materializer = calsync.NewEventMaterializer(deps.CalendarRepo, deps.RetryPolicy, retryOpts, deps.EventBus)
	deps.Birthdays = calsync.NewBirthdayReconciler(deps.TeamRepo, deps.CalendarRepo, deps.Materializer, deps.Clock, cfg.Sync.BirthdayYearsAhead)
	deps.Synchronizer = calsync.NewSynchronizer(deps.OneOnOneRepo, deps.TeamRepo, deps.CalendarRepo, deps.RetryPolicy, retryOpts)
	deps.Validator = calsync.NewValidator(deps.OneOnOneRepo, deps.TeamRepo, deps.DutyRepo, deps.OutOfOfficeRepo, deps.CalendarRepo)
	deps.Repairer = calsync.NewRepairer(deps.Validator, deps.OneOnOneRepo, deps.CalendarRepo, deps.Synchronizer, deps.EventBus)
	deps.Orchestrator = calsync.NewOrchestrator(deps.TeamRepo, deps.DutyRepo, deps.OutOfOfficeRepo,
		deps.Materializer, deps.Birthdays, deps.Synchronizer, deps.EventBus)
	deps.SyncHandler = calsync.NewHandler(deps.Orchestrator, deps.Synchronizer, deps.Validator, deps.Repairer, deps.Birthdays)

	// The team handler drives the birthday event lifecycle, so it is wired
	// after the engine.
	deps.TeamHandler = team.NewHandler(deps.TeamRepo, deps.Birthdays)

	return deps
}
