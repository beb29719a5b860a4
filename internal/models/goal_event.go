package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GoalEventKind string

const (
	GoalEventCreated           GoalEventKind = "goal_created"
	GoalEventApproved          GoalEventKind = "goal_approved"
	GoalEventRejected          GoalEventKind = "goal_rejected"
	GoalEventCompleted         GoalEventKind = "goal_completed"
	GoalEventMilestone         GoalEventKind = "goal_milestone"
	GoalEventDeletionRequested GoalEventKind = "goal_deletion_requested"
	GoalEventDeletionApproved  GoalEventKind = "goal_deletion_approved"
	GoalEventDeletionDenied    GoalEventKind = "goal_deletion_denied"
	GoalEventDeleted           GoalEventKind = "goal_deleted"
)

// GoalEvent is a structured record of a notable goal transition, emitted by
// the domain methods and dispatched to chat, notifications and the activity
// feed only after the mutation has been durably persisted.
type GoalEvent struct {
	Kind       GoalEventKind      `json:"kind"`
	GoalID     primitive.ObjectID `json:"goal_id"`
	GoalTitle  string             `json:"goal_title"`
	ActorName  string             `json:"actor_name"`
	OwnerName  string             `json:"owner_name"`
	Milestone  int                `json:"milestone,omitempty"`
	Streak     int                `json:"streak,omitempty"`
	Points     int                `json:"points,omitempty"`
	Note       string             `json:"note,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// ChatText renders the system chat message for this event, or "" when the
// event kind has no chat representation.
func (e GoalEvent) ChatText() string {
	switch e.Kind {
	case GoalEventApproved:
		return fmt.Sprintf("'%s' has been approved for %s by %s (%d points)!", e.GoalTitle, e.OwnerName, e.ActorName, e.Points)
	case GoalEventRejected:
		return fmt.Sprintf("'%s' was not approved. %s left a note for %s.", e.GoalTitle, e.ActorName, e.OwnerName)
	case GoalEventCompleted:
		return fmt.Sprintf("%s completed '%s' and earned %d points!", e.OwnerName, e.GoalTitle, e.Points)
	case GoalEventMilestone:
		return fmt.Sprintf("%s reached a %d-day streak on '%s'! Amazing!", e.OwnerName, e.Milestone, e.GoalTitle)
	case GoalEventDeletionRequested:
		return fmt.Sprintf("%s has requested to delete the goal '%s'. Please review.", e.OwnerName, e.GoalTitle)
	case GoalEventDeletionApproved:
		return fmt.Sprintf("%s approved the deletion of '%s'.", e.ActorName, e.GoalTitle)
	case GoalEventDeletionDenied:
		return fmt.Sprintf("%s kept the goal '%s'; the deletion request was declined.", e.ActorName, e.GoalTitle)
	default:
		return ""
	}
}

// NotificationTitle is the short headline used for the in-app notification.
func (e GoalEvent) NotificationTitle() string {
	switch e.Kind {
	case GoalEventApproved:
		return "Goal Approved"
	case GoalEventRejected:
		return "Goal Not Approved"
	case GoalEventCompleted:
		return "Goal Completed"
	case GoalEventMilestone:
		return fmt.Sprintf("%d-Day Streak!", e.Milestone)
	case GoalEventDeletionRequested:
		return "Deletion Requested"
	case GoalEventDeletionApproved:
		return "Goal Deleted"
	case GoalEventDeletionDenied:
		return "Goal Kept"
	default:
		return "Goal Update"
	}
}
