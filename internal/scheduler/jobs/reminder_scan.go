package jobs

import (
	"context"

	"github.com/tradefin/cfaam/internal/reminder"
	"github.com/tradefin/cfaam/pkg/logger"
)

// ReminderScanJob runs the daily reminder sweep on its cron schedule.
type ReminderScanJob struct {
	service  *reminder.Service
	schedule string
	logger   *logger.Logger
}

// NewReminderScanJob creates the scheduled scan job.
func NewReminderScanJob(service *reminder.Service, schedule string, log *logger.Logger) *ReminderScanJob {
	return &ReminderScanJob{
		service:  service,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name.
func (j *ReminderScanJob) Name() string {
	return "reminder_scan"
}

// Schedule returns the cron schedule from config (default daily 08:00).
func (j *ReminderScanJob) Schedule() string {
	return j.schedule
}

// Run executes one reminder scan for today's logical date.
func (j *ReminderScanJob) Run(ctx context.Context) error {
	summary, err := j.service.RunNow(ctx)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"run_date":       summary.RunDate.String(),
		"initial_alerts": summary.InitialAlerts,
		"escalations":    summary.Escalations,
		"emails_sent":    summary.EmailsSent,
		"errors":         summary.ErrorCount(),
	}).Info("Scheduled reminder scan finished")

	return nil
}
