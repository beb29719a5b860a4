package services

import (
	"context"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/internal/repository"
	"github.com/sirupsen/logrus"
)

// EventDispatcher fans goal events out to the activity feed, the family chat
// and per-member notifications. Dispatch failures are logged but never fail
// the transition that produced the event; the mutation is already durable by
// the time Publish runs.
type EventDispatcher struct {
	chat          *ChatService
	notifications *NotificationService
	activity      *ActivityService
	members       *repository.MemberRepository
}

func NewEventDispatcher(chat *ChatService, notifications *NotificationService, activity *ActivityService, members *repository.MemberRepository) *EventDispatcher {
	return &EventDispatcher{
		chat:          chat,
		notifications: notifications,
		activity:      activity,
		members:       members,
	}
}

func (d *EventDispatcher) Publish(ctx context.Context, goal *models.Goal, event models.GoalEvent) {
	log := logrus.WithFields(logrus.Fields{
		"goal_id": event.GoalID.Hex(),
		"kind":    event.Kind,
	})

	if err := d.activity.LogGoalEvent(ctx, event); err != nil {
		log.WithError(err).Warn("Failed to log activity for goal event")
	}

	if text := d.chatText(goal, event); text != "" {
		if _, err := d.chat.PostSystemMessage(ctx, text, event.Kind == models.GoalEventMilestone); err != nil {
			log.WithError(err).Warn("Failed to post system chat message")
		}
	}

	d.notify(ctx, goal, event, log)
}

// chatText decides whether an event surfaces in the family chat. Completions
// are shared only when the goal opted in; milestones and the approval and
// deletion protocols are always shared.
func (d *EventDispatcher) chatText(goal *models.Goal, event models.GoalEvent) string {
	if event.Kind == models.GoalEventCompleted && !goal.ShareCompletionToChat {
		return ""
	}
	return event.ChatText()
}

// notify routes the event to the family members it concerns: decisions go to
// the owning child, child-initiated events go to the parents.
func (d *EventDispatcher) notify(ctx context.Context, goal *models.Goal, event models.GoalEvent, log *logrus.Entry) {
	message := event.ChatText()
	if message == "" {
		message = event.NotificationTitle()
	}

	switch event.Kind {
	case models.GoalEventApproved, models.GoalEventRejected, models.GoalEventDeletionApproved, models.GoalEventDeletionDenied:
		member, err := d.members.GetMemberByName(ctx, event.OwnerName)
		if err != nil {
			log.WithError(err).WithField("member", event.OwnerName).Warn("Failed to resolve goal owner for notification")
			return
		}
		if err := d.notifications.CreateNotification(ctx, member.ID, string(event.Kind), event.NotificationTitle(), message, &event.GoalID); err != nil {
			log.WithError(err).Warn("Failed to create owner notification")
		}

	case models.GoalEventCreated, models.GoalEventCompleted, models.GoalEventMilestone, models.GoalEventDeletionRequested:
		// a goal created pre-approved needs no parent attention
		if event.Kind == models.GoalEventCreated && goal.Status != models.GoalStatusPending {
			return
		}
		parents, err := d.members.GetMembersByRole(ctx, models.RoleParent)
		if err != nil {
			log.WithError(err).Warn("Failed to resolve parents for notification")
			return
		}
		for _, parent := range parents {
			if parent.Name == event.ActorName {
				continue
			}
			if err := d.notifications.CreateNotification(ctx, parent.ID, string(event.Kind), event.NotificationTitle(), message, &event.GoalID); err != nil {
				log.WithError(err).Warn("Failed to create parent notification")
			}
		}
	}
}
