package app

import (
	"context"

	"github.com/crewplan/crewplan/internal/config"
	"github.com/crewplan/crewplan/pkg/calsync"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// StartScheduler runs the orchestrator on the configured cron schedule. An
// empty schedule disables background runs. The returned cron is already
// started; callers stop it on shutdown.
func StartScheduler(deps *Dependencies, cfg config.Application) (*cron.Cron, error) {
	if cfg.Sync.Schedule == "" {
		log.Info("Sync schedule is empty, background synchronization disabled")
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(cfg.Sync.Schedule, func() {
		ctx := context.Background()
		result, err := deps.Orchestrator.SynchronizeAll(ctx, calsync.DefaultOrchestratorOptions())
		if err != nil {
			log.Errorf("scheduled synchronization failed: %v", err)
			return
		}
		log.Infof("scheduled synchronization: %d created, %d errors", result.Summary.TotalCreated, result.Summary.TotalErrors)

		if !cfg.Sync.RepairOnSchedule {
			return
		}
		repaired, err := deps.Repairer.Repair(ctx, calsync.DefaultRepairOptions())
		if err != nil {
			log.Errorf("scheduled repair failed: %v", err)
			return
		}
		if repaired.Summary.ActionsPerformed > 0 {
			log.Infof("scheduled repair applied %d actions", repaired.Summary.ActionsPerformed)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Infof("Background synchronization scheduled: %q", cfg.Sync.Schedule)
	return c, nil
}
