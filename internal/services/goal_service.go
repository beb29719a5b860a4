package services

import (
	"context"
	"fmt"
	"time"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/pkg/apperrors"
	"github.com/famsphere/famsphere-server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalStore is the persistence surface the goal service needs. The Mongo
// repository satisfies it; tests use an in-memory implementation.
type GoalStore interface {
	CreateGoal(ctx context.Context, goal *models.Goal) (*models.Goal, error)
	GetGoalByID(ctx context.Context, id primitive.ObjectID) (*models.Goal, error)
	UpdateGoal(ctx context.Context, id primitive.ObjectID, goal *models.Goal) (*models.Goal, error)
	DeleteGoal(ctx context.Context, id primitive.ObjectID) error
	GetGoals(ctx context.Context, childName string, status models.GoalStatus) ([]models.Goal, error)
	GetGoalsWithTargetDates(ctx context.Context) ([]models.Goal, error)
}

// EventSink receives domain events after the mutation that produced them has
// been durably persisted.
type EventSink interface {
	Publish(ctx context.Context, goal *models.Goal, event models.GoalEvent)
}

// GoalService encapsulates the goal lifecycle: creation, approval, completion
// tracking and the deletion-request protocol.
type GoalService struct {
	store  GoalStore
	events EventSink
	now    func() time.Time
}

func NewGoalService(store GoalStore, events EventSink) *GoalService {
	return &GoalService{
		store:  store,
		events: events,
		now:    time.Now,
	}
}

// SetClock overrides the service's time source.
func (s *GoalService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateGoalInput carries the fields accepted at goal creation.
type CreateGoalInput struct {
	Title          string
	ChildName      string // required when a parent assigns the goal
	HasHabit       bool
	HabitFrequency models.HabitFrequency
	ShareToChat    bool
	PointValue     int
	TargetDate     *time.Time
}

// CreateGoal creates a goal for the acting child (status pending) or, when a
// parent assigns it to a child, directly approved.
func (s *GoalService) CreateGoal(ctx context.Context, actor models.Actor, input CreateGoalInput) (*models.Goal, error) {
	owner := actor.Name
	assignedBy := ""
	if actor.IsParent() {
		owner = input.ChildName
		assignedBy = actor.Name
	}

	goal, err := models.NewGoal(input.Title, owner, assignedBy, input.HasHabit, input.HabitFrequency, input.ShareToChat, input.PointValue, input.TargetDate, s.now())
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateGoal(ctx, goal)
	if err != nil {
		logger.Log.WithError(err).Error("Service failed to create goal")
		return nil, fmt.Errorf("failed to create goal: %v", err)
	}

	s.events.Publish(ctx, created, models.GoalEvent{
		Kind:       models.GoalEventCreated,
		GoalID:     created.ID,
		GoalTitle:  created.Title,
		ActorName:  actor.Name,
		OwnerName:  created.OwnerChildName,
		OccurredAt: s.now(),
	})

	logger.Log.WithField("goal_id", created.ID.Hex()).Info("Goal created in service layer")
	return created, nil
}

// GetGoal retrieves a goal the actor is allowed to see.
func (s *GoalService) GetGoal(ctx context.Context, actor models.Actor, id string) (*models.Goal, error) {
	goal, err := s.loadGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	if !goal.CanView(actor) {
		return nil, apperrors.Permission("you may only view your own goals")
	}
	return goal, nil
}

// ListGoals returns goals visible to the actor. Children are always scoped
// to their own goals; parents may filter by child and status.
func (s *GoalService) ListGoals(ctx context.Context, actor models.Actor, childFilter string, statusFilter models.GoalStatus) ([]models.Goal, error) {
	if !actor.IsParent() {
		childFilter = actor.Name
	}
	goals, err := s.store.GetGoals(ctx, childFilter, statusFilter)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch goals in service")
		return nil, fmt.Errorf("failed to fetch goals: %v", err)
	}
	return goals, nil
}

// PendingGoals returns the parent approval queue.
func (s *GoalService) PendingGoals(ctx context.Context, actor models.Actor) ([]models.Goal, error) {
	if !actor.IsParent() {
		return nil, apperrors.Permission("only a parent may view the approval queue")
	}
	return s.store.GetGoals(ctx, "", models.GoalStatusPending)
}

// UpdateGoal edits a goal under the role/ownership rules of the domain.
func (s *GoalService) UpdateGoal(ctx context.Context, actor models.Actor, id string, edit models.GoalEdit) (*models.Goal, error) {
	goal, err := s.loadGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := goal.ApplyEdit(actor, edit, s.now()); err != nil {
		return nil, err
	}
	return s.persist(ctx, goal, nil)
}

// ApproveGoal moves a pending goal to approved, optionally overriding its
// point value.
func (s *GoalService) ApproveGoal(ctx context.Context, actor models.Actor, id string, pointOverride int) (*models.Goal, error) {
	goal, err := s.loadGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := goal.Approve(actor, pointOverride, s.now())
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, goal, []models.GoalEvent{*event})
}

// RejectGoal moves a pending goal to rejected with a mandatory note.
func (s *GoalService) RejectGoal(ctx context.Context, actor models.Actor, id, note string) (*models.Goal, error) {
	goal, err := s.loadGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := goal.Reject(actor, note, s.now())
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, goal, []models.GoalEvent{*event})
}

// CompleteGoal records a completion for the given date (nil means now).
func (s *GoalService) CompleteGoal(ctx context.Context, actor models.Actor, id string, date *time.Time) (*models.Goal, error) {
	goal, err := s.loadGoal(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	when := now
	if date != nil {
		when = *date
	}
	events, err := goal.MarkCompleted(actor, when, now)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		// already completed that day; nothing to persist
		return goal, nil
	}
	return s.persist(ctx, goal, events)
}

// RemoveCompletion deletes the completion entry for a calendar day.
func (s *GoalService) RemoveCompletion(ctx context.Context, actor models.Actor, id string, day time.Time) (*models.Goal, error) {
	goal, err := s.loadGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := goal.RemoveCompletion(actor, day); err != nil {
		return nil, err
	}
	return s.persist(ctx, goal, nil)
}

// RequestDeletion flags a goal for parent-approved deletion.
func (s *GoalService) RequestDeletion(ctx context.Context, actor models.Actor, id string) (*models.Goal, error) {
	goal, err := s.loadGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := goal.RequestDeletion(actor, s.now())
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, goal, []models.GoalEvent{*event})
}

// DenyDeletion clears a pending deletion request; the goal survives.
func (s *GoalService) DenyDeletion(ctx context.Context, actor models.Actor, id string) (*models.Goal, error) {
	goal, err := s.loadGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := goal.DenyDeletion(actor, s.now())
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, goal, []models.GoalEvent{*event})
}

// ApproveDeletion destroys a goal whose deletion the child requested.
func (s *GoalService) ApproveDeletion(ctx context.Context, actor models.Actor, id string) error {
	goal, err := s.loadGoal(ctx, id)
	if err != nil {
		return err
	}
	event, err := goal.ApproveDeletion(actor, s.now())
	if err != nil {
		return err
	}

	if err := s.store.DeleteGoal(ctx, goal.ID); err != nil {
		logger.Log.WithError(err).WithField("goal_id", id).Error("Failed to delete goal")
		return fmt.Errorf("failed to delete goal: %v", err)
	}

	s.events.Publish(ctx, goal, *event)
	logger.Log.WithField("goal_id", id).Info("Goal deleted after approved request")
	return nil
}

// DeleteGoal is the parent's direct delete, bypassing the request protocol.
func (s *GoalService) DeleteGoal(ctx context.Context, actor models.Actor, id string) error {
	goal, err := s.loadGoal(ctx, id)
	if err != nil {
		return err
	}
	if err := goal.AuthorizeDelete(actor); err != nil {
		return err
	}

	if err := s.store.DeleteGoal(ctx, goal.ID); err != nil {
		logger.Log.WithError(err).WithField("goal_id", id).Error("Failed to delete goal")
		return fmt.Errorf("failed to delete goal: %v", err)
	}

	s.events.Publish(ctx, goal, models.GoalEvent{
		Kind:       models.GoalEventDeleted,
		GoalID:     goal.ID,
		GoalTitle:  goal.Title,
		ActorName:  actor.Name,
		OwnerName:  goal.OwnerChildName,
		OccurredAt: s.now(),
	})
	return nil
}

// GoalProgress is the derived-state payload exposed to the dashboard.
type GoalProgress struct {
	GoalID             string  `json:"goal_id"`
	DaysUntilDeadline  *int    `json:"days_until_deadline,omitempty"`
	TotalCompletions   int     `json:"total_completions"`
	CompletionRate     float64 `json:"completion_rate"`
	ProgressPercentage float64 `json:"progress_percentage"`
	IsCompletedToday   bool    `json:"is_completed_today"`
	CurrentStreak      int     `json:"current_streak"`
	LongestStreak      int     `json:"longest_streak"`
	TotalPointsEarned  int     `json:"total_points_earned"`
}

// Progress computes the goal's derived state as of now.
func (s *GoalService) Progress(ctx context.Context, actor models.Actor, id string) (*GoalProgress, error) {
	goal, err := s.GetGoal(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &GoalProgress{
		GoalID:             goal.ID.Hex(),
		DaysUntilDeadline:  goal.DaysUntilDeadline(now),
		TotalCompletions:   goal.TotalCompletions(),
		CompletionRate:     goal.CompletionRate(now),
		ProgressPercentage: goal.ProgressPercentage(now),
		IsCompletedToday:   goal.IsCompletedToday(now),
		CurrentStreak:      goal.CurrentStreak,
		LongestStreak:      goal.LongestStreak,
		TotalPointsEarned:  goal.TotalPointsEarned,
	}, nil
}

// PointTotals sums earned points per child across all goals.
func (s *GoalService) PointTotals(ctx context.Context) (map[string]int, error) {
	goals, err := s.store.GetGoals(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch goals: %v", err)
	}
	totals := make(map[string]int)
	for _, goal := range goals {
		totals[goal.OwnerChildName] += goal.TotalPointsEarned
	}
	return totals, nil
}

func (s *GoalService) loadGoal(ctx context.Context, id string) (*models.Goal, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		logger.Log.WithField("goal_id", id).WithError(err).Warn("Invalid goal ID")
		return nil, fmt.Errorf("invalid goal ID: %v", err)
	}
	goal, err := s.store.GetGoalByID(ctx, objID)
	if err != nil {
		return nil, fmt.Errorf("goal not found: %v", err)
	}
	return goal, nil
}

// persist validates invariants, writes the goal, then publishes any events.
// Events are never published for a failed write.
func (s *GoalService) persist(ctx context.Context, goal *models.Goal, events []models.GoalEvent) (*models.Goal, error) {
	if err := goal.CheckInvariants(); err != nil {
		logger.Log.WithError(err).WithField("goal_id", goal.ID.Hex()).Error("Goal invariant violated")
		return nil, err
	}

	updated, err := s.store.UpdateGoal(ctx, goal.ID, goal)
	if err != nil {
		logger.Log.WithError(err).WithField("goal_id", goal.ID.Hex()).Error("Failed to update goal")
		return nil, fmt.Errorf("failed to update goal: %v", err)
	}

	for _, event := range events {
		s.events.Publish(ctx, updated, event)
	}
	return updated, nil
}
