package services

import (
	"context"
	"fmt"
	"time"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService struct {
	repo       *repository.NotificationRepository
	memberRepo *repository.MemberRepository
	goalStore  GoalStore
}

func NewNotificationService(repo *repository.NotificationRepository, memberRepo *repository.MemberRepository, goalStore GoalStore) *NotificationService {
	return &NotificationService{
		repo:       repo,
		memberRepo: memberRepo,
		goalStore:  goalStore,
	}
}

// CreateNotification records a new notification for a member.
func (s *NotificationService) CreateNotification(ctx context.Context, memberID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) error {
	notif := &models.Notification{
		MemberID: memberID,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Read:     false,
		TargetID: targetID,
	}
	return s.repo.CreateNotification(ctx, notif)
}

func (s *NotificationService) GetMemberNotifications(ctx context.Context, memberID primitive.ObjectID) ([]models.Notification, error) {
	return s.repo.GetMemberNotifications(ctx, memberID)
}

// GetLatestByType returns the newest notification of a type for a member,
// used by reminder jobs to avoid duplicates.
func (s *NotificationService) GetLatestByType(ctx context.Context, memberID primitive.ObjectID, notifType string) (*models.Notification, error) {
	return s.repo.GetLatestNotificationByType(ctx, memberID, notifType)
}

func (s *NotificationService) MarkNotificationAsRead(ctx context.Context, notifID primitive.ObjectID) error {
	return s.repo.MarkAsRead(ctx, notifID)
}

func (s *NotificationService) DeleteNotification(ctx context.Context, notifID primitive.ObjectID) error {
	return s.repo.DeleteNotification(ctx, notifID)
}

func (s *NotificationService) DeleteExpiredNotifications(ctx context.Context) error {
	deleted, err := s.repo.DeleteExpiredNotifications(ctx)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logrus.WithField("deleted", deleted).Info("Expired notifications cleaned up")
	}
	return nil
}

// CheckGoalsDueSoon reminds the owning child about goals whose target date
// falls within the next 24 hours. An existing reminder for the same goal
// suppresses a duplicate.
func (s *NotificationService) CheckGoalsDueSoon(ctx context.Context) error {
	goals, err := s.goalStore.GetGoalsWithTargetDates(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch goals: %w", err)
	}

	now := time.Now()
	for _, goal := range goals {
		if goal.TargetDate == nil {
			continue
		}
		timeLeft := goal.TargetDate.Sub(now)
		if timeLeft <= 0 || timeLeft > 24*time.Hour {
			continue
		}

		member, err := s.memberRepo.GetMemberByName(ctx, goal.OwnerChildName)
		if err != nil {
			logrus.WithError(err).Warnf("Failed to resolve owner %s for due-soon reminder", goal.OwnerChildName)
			continue
		}

		existing, err := s.repo.GetLatestNotificationByType(ctx, member.ID, "goal_due_soon")
		if err == nil && existing != nil && existing.TargetID != nil && *existing.TargetID == goal.ID {
			continue
		}

		message := fmt.Sprintf("Goal \"%s\" is due soon! Don't forget to complete it.", goal.Title)
		if err := s.CreateNotification(ctx, member.ID, "goal_due_soon", "Goal Due Soon", message, &goal.ID); err != nil {
			logrus.WithError(err).Warnf("Failed to send due-soon notification for goal %s", goal.ID.Hex())
		}
	}
	return nil
}

// CheckPendingApprovals sends parents a daily reminder when goals sit in the
// approval queue.
func (s *NotificationService) CheckPendingApprovals(ctx context.Context) error {
	pending, err := s.goalStore.GetGoals(ctx, "", models.GoalStatusPending)
	if err != nil {
		return fmt.Errorf("failed to fetch pending goals: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	parents, err := s.memberRepo.GetMembersByRole(ctx, models.RoleParent)
	if err != nil {
		return fmt.Errorf("failed to fetch parents: %w", err)
	}

	now := time.Now()
	message := fmt.Sprintf("%d goal(s) are waiting for your approval.", len(pending))
	for _, parent := range parents {
		existing, err := s.repo.GetLatestNotificationByType(ctx, parent.ID, "approval_queue")
		if err == nil && existing != nil && now.Sub(existing.CreatedAt) < 24*time.Hour {
			continue
		}
		if err := s.CreateNotification(ctx, parent.ID, "approval_queue", "Goals Awaiting Approval", message, nil); err != nil {
			logrus.WithError(err).Warnf("Failed to send approval reminder to %s", parent.Name)
		}
	}
	return nil
}
