package jobs

import (
	"time"

	"lendhub-backend/internal/config"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/repository"
	"lendhub-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store  repository.Store
	email  service.EmailService
	config *config.Config
	now    func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Store, email service.EmailService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:  store,
		email:  email,
		config: cfg,
		now:    time.Now,
	}
}

// Config exposes the configuration for the scheduler
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllDailyJobs runs all daily jobs (for manual execution)
func (jr *JobRunner) RunAllDailyJobs() {
	jr.SendReservationReminders()
	jr.SendDueReminders()
	jr.SendMissingReturnNotices()
}
