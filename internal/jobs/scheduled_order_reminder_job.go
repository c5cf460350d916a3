package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pizzeria/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// ReminderSchedule runs the reminder at the top of every minute.
const ReminderSchedule = "0 * * * * *"

type DueScheduledOrdersHandler interface {
	Handle(ctx context.Context, cmd commands.NotifyDueScheduledOrdersCommand) (int, error)
}

// ScheduledOrderReminderJob announces scheduled orders whose preparation window
// opened since the previous successful run. A failed run is retried with the
// widened window on the next tick, so no order is skipped.
type ScheduledOrderReminderJob struct {
	handler DueScheduledOrdersHandler
	cron    *cron.Cron
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.Mutex
	lastRun time.Time
}

func NewScheduledOrderReminderJob(
	handler DueScheduledOrdersHandler, now func() time.Time, logger *slog.Logger,
) *ScheduledOrderReminderJob {
	return &ScheduledOrderReminderJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		now:     now,
		logger:  logger.With("component", "scheduled_order_reminder_job"),
		lastRun: now().UTC(),
	}
}

func (j *ScheduledOrderReminderJob) Start() error {
	if _, err := j.cron.AddFunc(ReminderSchedule, func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Scheduled order reminder job started", "schedule", ReminderSchedule)
	return nil
}

// Run processes the window [lastRun, now) once.
func (j *ScheduledOrderReminderJob) Run(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().UTC()
	if !j.lastRun.Before(now) {
		return
	}

	cmd, err := commands.NewNotifyDueScheduledOrdersCommand(j.lastRun, now)
	if err != nil {
		j.logger.ErrorContext(ctx, "Scheduled order reminder job failed", "error", err)
		return
	}

	count, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Scheduled order reminder job failed",
			"from", j.lastRun, "to", now, "error", err)
		return
	}

	if count > 0 {
		j.logger.InfoContext(ctx, "Scheduled orders entered preparation window", "count", count)
	}
	j.lastRun = now
}

func (j *ScheduledOrderReminderJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Scheduled order reminder job stopped")
}
