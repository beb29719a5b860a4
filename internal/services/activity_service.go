package services

import (
	"context"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/internal/repository"
	"github.com/sirupsen/logrus"
)

type ActivityService struct {
	repo *repository.ActivityRepository
}

func NewActivityService(repo *repository.ActivityRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

// LogGoalEvent appends a goal event to the family activity feed.
func (s *ActivityService) LogGoalEvent(ctx context.Context, event models.GoalEvent) error {
	message := event.ChatText()
	if message == "" {
		message = event.NotificationTitle()
	}

	activity := &models.Activity{
		ActorName: event.ActorName,
		Type:      string(event.Kind),
		TargetID:  event.GoalID,
		Message:   message,
		Timestamp: event.OccurredAt,
	}

	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		logrus.WithError(err).Error("Failed to log activity in service")
		return err
	}
	return nil
}

// GetRecentActivities returns the newest feed entries.
func (s *ActivityService) GetRecentActivities(ctx context.Context, limit int64) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.GetRecentActivities(ctx, limit)
}
