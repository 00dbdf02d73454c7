package jobs

import (
	"attendance/services/logger"

	"github.com/robfig/cron/v3"
)

// SyncKicker restarts a stalled spreadsheet mirror
type SyncKicker interface {
	Kick() bool
}

// InitCronJobs registers the sync retry job when schedule is set and starts
// the scheduler. An empty schedule leaves retries to the next enqueue.
func InitCronJobs(c *cron.Cron, kicker SyncKicker, schedule string, log logger.Logger) error {
	if schedule == "" {
		log.Info("Sync retry job disabled")
		return nil
	}

	_, err := c.AddFunc(schedule, func() {
		if kicker.Kick() {
			log.Info("🔁 Retrying pending spreadsheet updates")
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	log.Info("✅ Cron jobs initialized successfully (sync retry: %s)", schedule)
	return nil
}
