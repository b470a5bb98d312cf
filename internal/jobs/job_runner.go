package jobs

import (
	"lendtrust-backend/internal/config"
	"lendtrust-backend/internal/logger"
	"lendtrust-backend/internal/repository"
	"lendtrust-backend/internal/security"
	"lendtrust-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	lendingRepo repository.LendingRepository
	itemRepo    repository.ItemRepository
	userSvc     service.UserService
	activitySvc service.ActivityService
	emailSvc    service.EmailService
	sessions    security.SessionManager
	config      *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(
	lendingRepo repository.LendingRepository,
	itemRepo repository.ItemRepository,
	userSvc service.UserService,
	activitySvc service.ActivityService,
	emailSvc service.EmailService,
	sessions security.SessionManager,
	cfg *config.Config,
) *JobRunner {
	return &JobRunner{
		lendingRepo: lendingRepo,
		itemRepo:    itemRepo,
		userSvc:     userSvc,
		activitySvc: activitySvc,
		emailSvc:    emailSvc,
		sessions:    sessions,
		config:      cfg,
	}
}

// Config returns the loaded configuration.
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

// RunAllReminderJobs runs the reminder jobs once (for manual execution)
func (jr *JobRunner) RunAllReminderJobs() {
	jr.SendDueSoonReminders()
	jr.SendOverdueReminders()
}
