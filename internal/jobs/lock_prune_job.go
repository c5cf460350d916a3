package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// LockPruneSchedule runs the prune every minute, offset from the reminder.
const LockPruneSchedule = "30 * * * * *"

// Pruner drops idle entries and reports how many were removed.
type Pruner interface {
	Prune() int
	Len() int
}

// LockPruneJob keeps the per-order and per-user lock table from growing with
// every order ever touched.
type LockPruneJob struct {
	locks  Pruner
	cron   *cron.Cron
	logger *slog.Logger
}

func NewLockPruneJob(locks Pruner, logger *slog.Logger) *LockPruneJob {
	return &LockPruneJob{
		locks:  locks,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "lock_prune_job"),
	}
}

func (j *LockPruneJob) Start() error {
	if _, err := j.cron.AddFunc(LockPruneSchedule, j.Run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Lock prune job started", "schedule", LockPruneSchedule)
	return nil
}

func (j *LockPruneJob) Run() {
	if pruned := j.locks.Prune(); pruned > 0 {
		j.logger.DebugContext(context.Background(), "Pruned idle locks", "pruned", pruned, "remaining", j.locks.Len())
	}
}

func (j *LockPruneJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Lock prune job stopped")
}
