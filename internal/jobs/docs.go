// Package jobs provides scheduled background tasks built on github.com/robfig/cron/v3.
//
// # Available Jobs
//
//  1. ScheduledOrderReminderJob - every minute, announces scheduled orders whose
//     one-hour preparation window opened since the previous run
//  2. LockPruneJob - every minute, releases idle per-order and per-user lock entries
//
// # Usage
//
//	jobManager := jobs.NewJobManager(notifyDueHandler, locks, time.Now, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Failures are logged and never stop the schedule. The reminder keeps its window
// start on failure so the next tick covers the missed interval.
package jobs
