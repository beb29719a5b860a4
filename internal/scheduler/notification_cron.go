package cron

import (
	"context"

	"github.com/famsphere/famsphere-server/internal/jobs"
	"github.com/famsphere/famsphere-server/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartNotificationCronJobs schedules the recurring notification scans.
func StartNotificationCronJobs(notificationService *services.NotificationService, eventReminder *jobs.EventReminder) {
	c := cron.New()

	// Goal deadlines approaching
	c.AddFunc("@hourly", func() {
		if err := notificationService.CheckGoalsDueSoon(context.Background()); err != nil {
			logrus.WithError(err).Error("CheckGoalsDueSoon failed")
		}
	})

	// Remind parents about the approval queue every morning
	c.AddFunc("0 8 * * *", func() {
		if err := notificationService.CheckPendingApprovals(context.Background()); err != nil {
			logrus.WithError(err).Error("CheckPendingApprovals failed")
		}
	})

	// Calendar event reminders
	c.AddFunc("@every 15m", func() {
		if err := eventReminder.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("Event reminder scan failed")
		}
	})

	// Clean up expired notifications nightly
	c.AddFunc("0 0 * * *", func() {
		if err := notificationService.DeleteExpiredNotifications(context.Background()); err != nil {
			logrus.WithError(err).Error("DeleteExpiredNotifications failed")
		}
	})

	c.Start()
}
