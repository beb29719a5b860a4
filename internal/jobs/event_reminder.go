package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/famsphere/famsphere-server/internal/repository"
	"github.com/famsphere/famsphere-server/internal/services"
	"github.com/sirupsen/logrus"
)

// EventReminder scans upcoming calendar events and notifies the family when
// an event's reminder window opens.
type EventReminder struct {
	EventRepo           *repository.EventRepository
	MemberRepo          *repository.MemberRepository
	NotificationService *services.NotificationService
}

func NewEventReminder(eventRepo *repository.EventRepository, memberRepo *repository.MemberRepository, notifService *services.NotificationService) *EventReminder {
	return &EventReminder{
		EventRepo:           eventRepo,
		MemberRepo:          memberRepo,
		NotificationService: notifService,
	}
}

// Run checks events starting within the next 24 hours whose reminder lead
// time has been reached and notifies every family member once per event.
func (j *EventReminder) Run(ctx context.Context) error {
	now := time.Now()
	events, err := j.EventRepo.GetEventsInRange(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to fetch upcoming events: %v", err)
	}

	members, err := j.MemberRepo.GetAllMembers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch members: %v", err)
	}

	for _, event := range events {
		if event.ReminderMinutesBefore == nil {
			continue
		}
		remindAt := event.EventDate.Add(-time.Duration(*event.ReminderMinutesBefore) * time.Minute)
		if remindAt.After(now) {
			continue
		}

		message := fmt.Sprintf("\"%s\" starts at %s.", event.Title, event.EventDate.Format("Jan 2 15:04"))
		notifType := fmt.Sprintf("event_reminder_%s", event.ID.Hex())
		for _, member := range members {
			// one reminder per member per event
			existing, err := j.NotificationService.GetLatestByType(ctx, member.ID, notifType)
			if err == nil && existing != nil {
				continue
			}
			if err := j.NotificationService.CreateNotification(ctx, member.ID, notifType, "Upcoming Event", message, &event.ID); err != nil {
				logrus.WithError(err).Warnf("Failed to send event reminder to %s", member.Name)
			}
		}
	}

	logrus.WithField("events", len(events)).Info("Event reminder scan completed")
	return nil
}
