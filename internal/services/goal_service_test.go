package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/pkg/apperrors"
	"github.com/famsphere/famsphere-server/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

// memoryGoalStore is an in-memory GoalStore for exercising the service
// without Mongo.
type memoryGoalStore struct {
	goals      map[primitive.ObjectID]*models.Goal
	failWrites bool
}

func newMemoryGoalStore() *memoryGoalStore {
	return &memoryGoalStore{goals: make(map[primitive.ObjectID]*models.Goal)}
}

func (s *memoryGoalStore) CreateGoal(ctx context.Context, goal *models.Goal) (*models.Goal, error) {
	if s.failWrites {
		return nil, errors.New("write failed")
	}
	goal.ID = primitive.NewObjectID()
	copied := *goal
	s.goals[goal.ID] = &copied
	return goal, nil
}

func (s *memoryGoalStore) GetGoalByID(ctx context.Context, id primitive.ObjectID) (*models.Goal, error) {
	goal, ok := s.goals[id]
	if !ok {
		return nil, errors.New("no documents in result")
	}
	copied := *goal
	return &copied, nil
}

func (s *memoryGoalStore) UpdateGoal(ctx context.Context, id primitive.ObjectID, goal *models.Goal) (*models.Goal, error) {
	if s.failWrites {
		return nil, errors.New("write failed")
	}
	copied := *goal
	s.goals[id] = &copied
	return goal, nil
}

func (s *memoryGoalStore) DeleteGoal(ctx context.Context, id primitive.ObjectID) error {
	if s.failWrites {
		return errors.New("write failed")
	}
	delete(s.goals, id)
	return nil
}

func (s *memoryGoalStore) GetGoals(ctx context.Context, childName string, status models.GoalStatus) ([]models.Goal, error) {
	var out []models.Goal
	for _, goal := range s.goals {
		if childName != "" && goal.OwnerChildName != childName {
			continue
		}
		if status != "" && goal.Status != status {
			continue
		}
		out = append(out, *goal)
	}
	return out, nil
}

func (s *memoryGoalStore) GetGoalsWithTargetDates(ctx context.Context) ([]models.Goal, error) {
	var out []models.Goal
	for _, goal := range s.goals {
		if goal.TargetDate != nil {
			out = append(out, *goal)
		}
	}
	return out, nil
}

// capturingSink records published events in order.
type capturingSink struct {
	events []models.GoalEvent
}

func (s *capturingSink) Publish(ctx context.Context, goal *models.Goal, event models.GoalEvent) {
	s.events = append(s.events, event)
}

var (
	testChild  = models.Actor{Name: "Emma", Role: models.RoleChild}
	testParent = models.Actor{Name: "Sarah", Role: models.RoleParent}
)

func fixedDay(offset int) time.Time {
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func newTestService() (*GoalService, *memoryGoalStore, *capturingSink) {
	store := newMemoryGoalStore()
	sink := &capturingSink{}
	svc := NewGoalService(store, sink)
	svc.SetClock(func() time.Time { return fixedDay(0) })
	return svc, store, sink
}

func TestCreateGoalChildPending(t *testing.T) {
	svc, _, sink := newTestService()

	goal, err := svc.CreateGoal(context.Background(), testChild, CreateGoalInput{Title: "Learn guitar"})
	require.NoError(t, err)

	assert.Equal(t, models.GoalStatusPending, goal.Status)
	assert.Equal(t, testChild.Name, goal.OwnerChildName)
	require.Len(t, sink.events, 1)
	assert.Equal(t, models.GoalEventCreated, sink.events[0].Kind)
}

func TestCreateGoalParentAssigned(t *testing.T) {
	svc, _, _ := newTestService()

	goal, err := svc.CreateGoal(context.Background(), testParent, CreateGoalInput{
		Title:     "Make your bed",
		ChildName: testChild.Name,
	})
	require.NoError(t, err)

	assert.Equal(t, models.GoalStatusApproved, goal.Status)
	assert.Equal(t, testChild.Name, goal.OwnerChildName)
	assert.Equal(t, testParent.Name, goal.AssignedByParentName)
}

func TestCompleteGoalPublishesAfterPersist(t *testing.T) {
	svc, _, sink := newTestService()

	goal, err := svc.CreateGoal(context.Background(), testParent, CreateGoalInput{
		Title:     "Read 20 minutes",
		ChildName: testChild.Name,
		HasHabit:  true, HabitFrequency: models.FrequencyDaily,
	})
	require.NoError(t, err)
	sink.events = nil

	updated, err := svc.CompleteGoal(context.Background(), testChild, goal.ID.Hex(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, updated.CurrentStreak)
	require.Len(t, sink.events, 1)
	assert.Equal(t, models.GoalEventCompleted, sink.events[0].Kind)
}

func TestCompleteGoalIdempotentSkipsPersist(t *testing.T) {
	svc, store, sink := newTestService()

	goal, err := svc.CreateGoal(context.Background(), testParent, CreateGoalInput{
		Title:     "Read 20 minutes",
		ChildName: testChild.Name,
	})
	require.NoError(t, err)

	_, err = svc.CompleteGoal(context.Background(), testChild, goal.ID.Hex(), nil)
	require.NoError(t, err)
	sink.events = nil

	// The repeat write would fail; the idempotent path never reaches it.
	store.failWrites = true
	updated, err := svc.CompleteGoal(context.Background(), testChild, goal.ID.Hex(), nil)
	require.NoError(t, err)

	assert.Equal(t, 10, updated.TotalPointsEarned)
	assert.Empty(t, sink.events)
}

func TestCompleteGoalSameDayDifferentOffset(t *testing.T) {
	svc, _, sink := newTestService()

	goal, err := svc.CreateGoal(context.Background(), testParent, CreateGoalInput{
		Title:     "Read 20 minutes",
		ChildName: testChild.Name,
	})
	require.NoError(t, err)

	// March 10 06:00 UTC+5 and March 10 12:00 UTC are the same day.
	offset := time.FixedZone("UTC+5", 5*60*60)
	first := time.Date(2026, time.March, 10, 6, 0, 0, 0, offset)
	second := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	_, err = svc.CompleteGoal(context.Background(), testChild, goal.ID.Hex(), &first)
	require.NoError(t, err)
	sink.events = nil

	updated, err := svc.CompleteGoal(context.Background(), testChild, goal.ID.Hex(), &second)
	require.NoError(t, err)

	assert.Equal(t, 10, updated.TotalPointsEarned)
	assert.Len(t, updated.CompletedDates, 1)
	assert.Empty(t, sink.events)
}

func TestNoEventsOnFailedWrite(t *testing.T) {
	svc, store, sink := newTestService()

	goal, err := svc.CreateGoal(context.Background(), testChild, CreateGoalInput{Title: "Learn chess"})
	require.NoError(t, err)
	sink.events = nil

	store.failWrites = true
	_, err = svc.ApproveGoal(context.Background(), testParent, goal.ID.Hex(), 0)
	require.Error(t, err)
	assert.Empty(t, sink.events)

	// The stored goal is untouched.
	store.failWrites = false
	stored, err := svc.GetGoal(context.Background(), testParent, goal.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.GoalStatusPending, stored.Status)
}

func TestApproveAndRejectPermissions(t *testing.T) {
	svc, _, _ := newTestService()

	goal, err := svc.CreateGoal(context.Background(), testChild, CreateGoalInput{Title: "Learn chess"})
	require.NoError(t, err)

	_, err = svc.ApproveGoal(context.Background(), testChild, goal.ID.Hex(), 0)
	assert.ErrorAs(t, err, new(*apperrors.PermissionError))

	_, err = svc.RejectGoal(context.Background(), testParent, goal.ID.Hex(), "")
	assert.ErrorAs(t, err, new(*apperrors.ValidationError))

	updated, err := svc.RejectGoal(context.Background(), testParent, goal.ID.Hex(), "Too vague")
	require.NoError(t, err)
	assert.Equal(t, models.GoalStatusRejected, updated.Status)
}

func TestDeletionProtocol(t *testing.T) {
	svc, store, sink := newTestService()

	goal, err := svc.CreateGoal(context.Background(), testParent, CreateGoalInput{
		Title:     "Practice piano",
		ChildName: testChild.Name,
	})
	require.NoError(t, err)
	sink.events = nil

	updated, err := svc.RequestDeletion(context.Background(), testChild, goal.ID.Hex())
	require.NoError(t, err)
	assert.True(t, updated.DeletionRequested)

	denied, err := svc.DenyDeletion(context.Background(), testParent, goal.ID.Hex())
	require.NoError(t, err)
	assert.False(t, denied.DeletionRequested)
	assert.Nil(t, denied.DeletionRequestedDate)

	_, err = svc.RequestDeletion(context.Background(), testChild, goal.ID.Hex())
	require.NoError(t, err)
	err = svc.ApproveDeletion(context.Background(), testParent, goal.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, store.goals)

	kinds := make([]models.GoalEventKind, 0, len(sink.events))
	for _, e := range sink.events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []models.GoalEventKind{
		models.GoalEventDeletionRequested,
		models.GoalEventDeletionDenied,
		models.GoalEventDeletionRequested,
		models.GoalEventDeletionApproved,
	}, kinds)
}

func TestDirectDeleteParentOnly(t *testing.T) {
	svc, store, _ := newTestService()

	goal, err := svc.CreateGoal(context.Background(), testChild, CreateGoalInput{Title: "Learn chess"})
	require.NoError(t, err)

	err = svc.DeleteGoal(context.Background(), testChild, goal.ID.Hex())
	assert.ErrorAs(t, err, new(*apperrors.PermissionError))
	assert.Len(t, store.goals, 1)

	err = svc.DeleteGoal(context.Background(), testParent, goal.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, store.goals)
}

func TestListGoalsScopesChildren(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateGoal(context.Background(), testChild, CreateGoalInput{Title: "Learn guitar"})
	require.NoError(t, err)
	other := models.Actor{Name: "Liam", Role: models.RoleChild}
	_, err = svc.CreateGoal(context.Background(), other, CreateGoalInput{Title: "Score a goal"})
	require.NoError(t, err)

	// A child asking for another child's goals still gets only their own.
	goals, err := svc.ListGoals(context.Background(), testChild, other.Name, "")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, testChild.Name, goals[0].OwnerChildName)

	goals, err = svc.ListGoals(context.Background(), testParent, "", "")
	require.NoError(t, err)
	assert.Len(t, goals, 2)
}

func TestPendingGoalsParentOnly(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateGoal(context.Background(), testChild, CreateGoalInput{Title: "Learn guitar"})
	require.NoError(t, err)

	_, err = svc.PendingGoals(context.Background(), testChild)
	assert.ErrorAs(t, err, new(*apperrors.PermissionError))

	pending, err := svc.PendingGoals(context.Background(), testParent)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestGetGoalVisibility(t *testing.T) {
	svc, _, _ := newTestService()

	goal, err := svc.CreateGoal(context.Background(), testChild, CreateGoalInput{Title: "Learn guitar"})
	require.NoError(t, err)

	_, err = svc.GetGoal(context.Background(), models.Actor{Name: "Liam", Role: models.RoleChild}, goal.ID.Hex())
	assert.ErrorAs(t, err, new(*apperrors.PermissionError))

	_, err = svc.GetGoal(context.Background(), testParent, goal.ID.Hex())
	assert.NoError(t, err)
}

func TestProgressSnapshot(t *testing.T) {
	svc, _, _ := newTestService()

	target := fixedDay(5)
	goal, err := svc.CreateGoal(context.Background(), testParent, CreateGoalInput{
		Title:     "Read 20 minutes",
		ChildName: testChild.Name,
		HasHabit:  true, HabitFrequency: models.FrequencyDaily,
		TargetDate: &target,
	})
	require.NoError(t, err)

	_, err = svc.CompleteGoal(context.Background(), testChild, goal.ID.Hex(), nil)
	require.NoError(t, err)

	progress, err := svc.Progress(context.Background(), testParent, goal.ID.Hex())
	require.NoError(t, err)

	require.NotNil(t, progress.DaysUntilDeadline)
	assert.Equal(t, 5, *progress.DaysUntilDeadline)
	assert.Equal(t, 1, progress.TotalCompletions)
	assert.True(t, progress.IsCompletedToday)
	assert.Equal(t, 1, progress.CurrentStreak)
	assert.Equal(t, 10, progress.TotalPointsEarned)
}

func TestPointTotals(t *testing.T) {
	svc, _, _ := newTestService()

	first, err := svc.CreateGoal(context.Background(), testParent, CreateGoalInput{
		Title: "Read", ChildName: testChild.Name,
	})
	require.NoError(t, err)
	second, err := svc.CreateGoal(context.Background(), testParent, CreateGoalInput{
		Title: "Tidy up", ChildName: "Liam", PointValue: 5,
	})
	require.NoError(t, err)

	_, err = svc.CompleteGoal(context.Background(), testChild, first.ID.Hex(), nil)
	require.NoError(t, err)
	liam := models.Actor{Name: "Liam", Role: models.RoleChild}
	_, err = svc.CompleteGoal(context.Background(), liam, second.ID.Hex(), nil)
	require.NoError(t, err)

	totals, err := svc.PointTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, totals[testChild.Name])
	assert.Equal(t, 5, totals["Liam"])
}

func TestUpdateGoalResubmitsRejected(t *testing.T) {
	svc, _, _ := newTestService()

	goal, err := svc.CreateGoal(context.Background(), testChild, CreateGoalInput{Title: "Learn chess"})
	require.NoError(t, err)
	_, err = svc.RejectGoal(context.Background(), testParent, goal.ID.Hex(), "Be more specific")
	require.NoError(t, err)

	title := "Learn three chess openings"
	updated, err := svc.UpdateGoal(context.Background(), testChild, goal.ID.Hex(), models.GoalEdit{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, models.GoalStatusPending, updated.Status)
	assert.Empty(t, updated.ParentNote)
}
