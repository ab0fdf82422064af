/**
 * @description
 * Cron scheduler setup for the sync jobs.
 */

package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/goldstone/sync-service/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron      *cron.Cron
	syncer    *Syncer
	publisher Publisher
	logger    *slog.Logger
	config    *config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(syncer *Syncer, publisher Publisher, logger *slog.Logger, cfg *config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:      c,
		syncer:    syncer,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.CatalogJobSchedule, s.runCatalogSync); err != nil {
		s.logger.Error("failed to schedule catalog sync job", "error", err)
	} else {
		s.logger.Info("scheduled catalog sync job", "schedule", s.config.CatalogJobSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.EnqueueJobSchedule, s.runEnqueue); err != nil {
		s.logger.Error("failed to schedule enqueue job", "error", err)
	} else {
		s.logger.Info("scheduled enqueue job", "schedule", s.config.EnqueueJobSchedule)
	}

	s.cron.Start()
}

func (s *Scheduler) runCatalogSync() {
	s.logger.Info("starting catalog sync job")
	if err := s.syncer.SyncAllCatalogs(context.Background()); err != nil {
		s.logger.Error("catalog sync job failed", "error", err)
		return
	}
	s.logger.Info("catalog sync job finished")
}

func (s *Scheduler) runEnqueue() {
	s.logger.Info("starting enqueue job")
	if err := s.syncer.EnqueueTransactionSyncJobs(context.Background(), s.publisher); err != nil {
		s.logger.Error("enqueue job failed", "error", err)
		return
	}
	s.logger.Info("enqueue job finished")
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
