package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
)

// Service runs scheduled background housekeeping, currently just the
// periodic purge of old task executions.
type Service struct {
	tasks     interfaces.TaskService
	config    common.TasksConfig
	scheduler *cron.Cron
	logger    arbor.ILogger
}

// NewService creates the maintenance scheduler
func NewService(tasks interfaces.TaskService, config common.TasksConfig, logger arbor.ILogger) *Service {
	return &Service{
		tasks:     tasks,
		config:    config,
		scheduler: cron.New(),
		logger:    logger,
	}
}

// Start registers the cleanup job and starts the scheduler
func (s *Service) Start() error {
	_, err := s.scheduler.AddFunc(s.config.CleanupSchedule, s.runCleanup)
	if err != nil {
		return err
	}

	s.scheduler.Start()
	s.logger.Info().
		Str("schedule", s.config.CleanupSchedule).
		Int("retention_days", s.config.RetentionDays).
		Msg("Maintenance scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish
func (s *Service) Stop() {
	ctx := s.scheduler.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Maintenance scheduler stopped")
}

func (s *Service) runCleanup() {
	deleted, err := s.tasks.CleanupOldTasks(context.Background(), s.config.RetentionDays)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Task cleanup failed")
		return
	}
	s.logger.Debug().Int("deleted", deleted).Msg("Task cleanup completed")
}
