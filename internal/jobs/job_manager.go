package jobs

import (
	"fmt"
	"log/slog"
	"time"
)

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	reminderJob  *ScheduledOrderReminderJob
	lockPruneJob *LockPruneJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	reminderHandler DueScheduledOrdersHandler,
	locks Pruner,
	now func() time.Time,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		reminderJob:  NewScheduledOrderReminderJob(reminderHandler, now, logger),
		lockPruneJob: NewLockPruneJob(locks, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.lockPruneJob.Start(); err != nil {
		return fmt.Errorf("failed to start lock prune job: %w", err)
	}

	if err := jm.reminderJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.lockPruneJob.Stop()
		return fmt.Errorf("failed to start scheduled order reminder job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs and waits for running ticks to finish.
func (jm *JobManager) StopAll() {
	jm.reminderJob.Stop()
	jm.lockPruneJob.Stop()
}
