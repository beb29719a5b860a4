package models

import (
	"testing"
	"time"

	"github.com/famsphere/famsphere-server/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	child  = Actor{Name: "Emma", Role: RoleChild}
	parent = Actor{Name: "Sarah", Role: RoleParent}
)

func day(offset int) time.Time {
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func newApprovedHabit(t *testing.T) *Goal {
	t.Helper()
	goal, err := NewGoal("Read 20 minutes", child.Name, "", true, FrequencyDaily, true, 10, nil, day(0))
	require.NoError(t, err)
	_, err = goal.Approve(parent, 0, day(0))
	require.NoError(t, err)
	return goal
}

func TestNewGoalChildStartsPending(t *testing.T) {
	goal, err := NewGoal("Learn guitar", child.Name, "", false, "", false, 0, nil, day(0))
	require.NoError(t, err)

	assert.Equal(t, GoalStatusPending, goal.Status)
	assert.Equal(t, DefaultPointValue, goal.PointValue)
	assert.Empty(t, goal.CompletedDates)
}

func TestNewGoalParentAssignedIsApproved(t *testing.T) {
	goal, err := NewGoal("Make your bed", child.Name, parent.Name, true, FrequencyDaily, false, 5, nil, day(0))
	require.NoError(t, err)

	assert.Equal(t, GoalStatusApproved, goal.Status)
	assert.Equal(t, parent.Name, goal.AssignedByParentName)
}

func TestNewGoalValidation(t *testing.T) {
	_, err := NewGoal("  ", child.Name, "", false, "", false, 0, nil, day(0))
	assert.ErrorAs(t, err, new(*apperrors.ValidationError))

	_, err = NewGoal("Run", child.Name, "", true, "monthly", false, 0, nil, day(0))
	assert.ErrorAs(t, err, new(*apperrors.ValidationError))

	_, err = NewGoal("Run", child.Name, "", false, FrequencyDaily, false, 0, nil, day(0))
	assert.ErrorAs(t, err, new(*apperrors.ValidationError))

	past := day(-3)
	_, err = NewGoal("Run", child.Name, "", false, "", false, 0, &past, day(0))
	assert.ErrorAs(t, err, new(*apperrors.ValidationError))
}

func TestMarkCompletedIdempotentPerDay(t *testing.T) {
	goal := newApprovedHabit(t)

	events, err := goal.MarkCompleted(child, day(0), day(0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, GoalEventCompleted, events[0].Kind)
	assert.Equal(t, 10, goal.TotalPointsEarned)
	assert.Equal(t, 1, goal.CurrentStreak)

	// Same calendar day, different time of day: no change, no events.
	events, err = goal.MarkCompleted(child, day(0).Add(8*time.Hour), day(0).Add(8*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, events)
	assert.Equal(t, 10, goal.TotalPointsEarned)
	assert.Len(t, goal.CompletedDates, 1)
}

func TestMarkCompletedIdempotentAcrossZoneOffsets(t *testing.T) {
	goal := newApprovedHabit(t)

	offset := time.FixedZone("UTC+5", 5*60*60)
	morning := time.Date(2026, time.March, 10, 6, 0, 0, 0, offset)
	noon := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	events, err := goal.MarkCompleted(child, morning, morning)
	require.NoError(t, err)
	require.Len(t, events, 1)

	// Same UTC day expressed in a different zone: no-op.
	events, err = goal.MarkCompleted(child, noon, noon)
	require.NoError(t, err)
	assert.Nil(t, events)
	assert.Equal(t, 10, goal.TotalPointsEarned)
	assert.Len(t, goal.CompletedDates, 1)
}

func TestMarkCompletedBackfillKeepsUpdatedAt(t *testing.T) {
	goal := newApprovedHabit(t)

	_, err := goal.MarkCompleted(child, day(-3), day(0))
	require.NoError(t, err)

	assert.True(t, goal.UpdatedAt.Equal(day(0)))
	require.NotNil(t, goal.LastCompletedDate)
	assert.True(t, goal.LastCompletedDate.Equal(day(-3)))
}

func TestMarkCompletedRequiresOwnerAndApproval(t *testing.T) {
	goal := newApprovedHabit(t)

	_, err := goal.MarkCompleted(parent, day(0), day(0))
	assert.ErrorAs(t, err, new(*apperrors.PermissionError))

	_, err = goal.MarkCompleted(Actor{Name: "Liam", Role: RoleChild}, day(0), day(0))
	assert.ErrorAs(t, err, new(*apperrors.PermissionError))

	pending, err := NewGoal("Learn chess", child.Name, "", false, "", false, 0, nil, day(0))
	require.NoError(t, err)
	_, err = pending.MarkCompleted(child, day(0), day(0))
	assert.ErrorAs(t, err, new(*apperrors.ValidationError))
}

func TestStreakConsecutiveDays(t *testing.T) {
	goal := newApprovedHabit(t)

	for i := 0; i < 3; i++ {
		_, err := goal.MarkCompleted(child, day(i), day(i))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, goal.CurrentStreak)
	assert.Equal(t, 3, goal.LongestStreak)
}

func TestStreakBrokenByGap(t *testing.T) {
	goal := newApprovedHabit(t)

	for _, offset := range []int{0, 1, 5} {
		_, err := goal.MarkCompleted(child, day(offset), day(offset))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, goal.CurrentStreak)
	assert.Equal(t, 2, goal.LongestStreak)
}

func TestStreakKeepsLastRunWhenStale(t *testing.T) {
	// A run that ended days ago still reports its length as the current
	// streak until a new completion starts a fresh run.
	goal := newApprovedHabit(t)

	for _, offset := range []int{0, 1, 2} {
		_, err := goal.MarkCompleted(child, day(offset), day(offset))
		require.NoError(t, err)
	}
	goal.RecalculateStreak()

	assert.Equal(t, 3, goal.CurrentStreak)
	assert.Equal(t, 3, goal.LongestStreak)
}

func TestStreakIgnoresDuplicateAndUnorderedDates(t *testing.T) {
	goal := newApprovedHabit(t)
	goal.CompletedDates = []time.Time{
		day(2), day(0), day(1), day(0).Add(5 * time.Hour),
	}

	goal.RecalculateStreak()

	assert.Equal(t, 3, goal.CurrentStreak)
	assert.Equal(t, 3, goal.LongestStreak)
}

func TestMilestoneFiresOnceAtThreshold(t *testing.T) {
	goal := newApprovedHabit(t)

	for i := 0; i < 6; i++ {
		_, err := goal.MarkCompleted(child, day(i), day(i))
		require.NoError(t, err)
	}

	events, err := goal.MarkCompleted(child, day(6), day(6))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, GoalEventMilestone, events[1].Kind)
	assert.Equal(t, 7, events[1].Milestone)

	// The day after a milestone produces only the completion event.
	events, err = goal.MarkCompleted(child, day(7), day(7))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, GoalEventCompleted, events[0].Kind)
}

func TestCrossedMilestone(t *testing.T) {
	assert.Equal(t, 3, crossedMilestone(2, 3))
	assert.Equal(t, 14, crossedMilestone(13, 14))
	assert.Equal(t, 0, crossedMilestone(3, 4))
	assert.Equal(t, 0, crossedMilestone(7, 7))
	// Jumping over several thresholds reports the first one crossed.
	assert.Equal(t, 3, crossedMilestone(0, 20))
}

func TestRemoveCompletionKeepsPoints(t *testing.T) {
	goal := newApprovedHabit(t)

	for i := 0; i < 3; i++ {
		_, err := goal.MarkCompleted(child, day(i), day(i))
		require.NoError(t, err)
	}
	require.Equal(t, 30, goal.TotalPointsEarned)

	err := goal.RemoveCompletion(child, day(2))
	require.NoError(t, err)

	assert.Len(t, goal.CompletedDates, 2)
	assert.Equal(t, 2, goal.CurrentStreak)
	assert.Equal(t, 30, goal.TotalPointsEarned)
	require.NotNil(t, goal.LastCompletedDate)
	assert.True(t, goal.LastCompletedDate.Equal(day(1)))
}

func TestRemoveCompletionRequiresOwner(t *testing.T) {
	goal := newApprovedHabit(t)
	_, err := goal.MarkCompleted(child, day(0), day(0))
	require.NoError(t, err)

	err = goal.RemoveCompletion(parent, day(0))
	assert.ErrorAs(t, err, new(*apperrors.PermissionError))
	assert.Len(t, goal.CompletedDates, 1)
}

func TestApproveByChildFails(t *testing.T) {
	goal, err := NewGoal("Learn chess", child.Name, "", false, "", false, 0, nil, day(0))
	require.NoError(t, err)

	_, err = goal.Approve(child, 0, day(0))
	assert.ErrorAs(t, err, new(*apperrors.PermissionError))
	assert.Equal(t, GoalStatusPending, goal.Status)
}

func TestApprovePointOverride(t *testing.T) {
	goal, err := NewGoal("Learn chess", child.Name, "", false, "", false, 10, nil, day(0))
	require.NoError(t, err)

	event, err := goal.Approve(parent, 25, day(1))
	require.NoError(t, err)

	assert.Equal(t, GoalStatusApproved, goal.Status)
	assert.Equal(t, 25, goal.PointValue)
	assert.Equal(t, GoalEventApproved, event.Kind)
}

func TestApproveZeroKeepsProposedPoints(t *testing.T) {
	goal, err := NewGoal("Learn chess", child.Name, "", false, "", false, 15, nil, day(0))
	require.NoError(t, err)

	_, err = goal.Approve(parent, 0, day(1))
	require.NoError(t, err)
	assert.Equal(t, 15, goal.PointValue)
}

func TestApproveNonPendingFails(t *testing.T) {
	goal := newApprovedHabit(t)

	_, err := goal.Approve(parent, 0, day(1))
	assert.ErrorAs(t, err, new(*apperrors.ValidationError))
}

func TestRejectRequiresNote(t *testing.T) {
	goal, err := NewGoal("Learn chess", child.Name, "", false, "", false, 0, nil, day(0))
	require.NoError(t, err)

	_, err = goal.Reject(parent, "   ", day(1))
	assert.ErrorAs(t, err, new(*apperrors.ValidationError))
	assert.Equal(t, GoalStatusPending, goal.Status)

	event, err := goal.Reject(parent, "Too vague, what does done look like?", day(1))
	require.NoError(t, err)
	assert.Equal(t, GoalStatusRejected, goal.Status)
	assert.NotEmpty(t, goal.ParentNote)
	assert.Equal(t, GoalEventRejected, event.Kind)
}

func TestEditRejectedResubmitsToPending(t *testing.T) {
	goal, err := NewGoal("Learn chess", child.Name, "", false, "", false, 0, nil, day(0))
	require.NoError(t, err)
	_, err = goal.Reject(parent, "Be more specific", day(1))
	require.NoError(t, err)

	title := "Learn three chess openings"
	err = goal.ApplyEdit(child, GoalEdit{Title: &title}, day(2))
	require.NoError(t, err)

	assert.Equal(t, GoalStatusPending, goal.Status)
	assert.Empty(t, goal.ParentNote)
	assert.Equal(t, title, goal.Title)
}

func TestChildCannotEditApprovedGoal(t *testing.T) {
	goal := newApprovedHabit(t)

	title := "Read 30 minutes"
	err := goal.ApplyEdit(child, GoalEdit{Title: &title}, day(1))
	assert.ErrorAs(t, err, new(*apperrors.PermissionError))
	assert.Equal(t, "Read 20 minutes", goal.Title)
}

func TestParentEditsAnyGoal(t *testing.T) {
	goal := newApprovedHabit(t)

	points := 20
	target := day(10)
	err := goal.ApplyEdit(parent, GoalEdit{PointValue: &points, TargetDate: &target}, day(1))
	require.NoError(t, err)

	assert.Equal(t, 20, goal.PointValue)
	require.NotNil(t, goal.TargetDate)
}

func TestApplyEditClearsFrequencyWithHabit(t *testing.T) {
	goal := newApprovedHabit(t)

	noHabit := false
	err := goal.ApplyEdit(parent, GoalEdit{HasHabit: &noHabit}, day(1))
	require.NoError(t, err)

	assert.False(t, goal.HasHabit)
	assert.Empty(t, string(goal.HabitFrequency))
}

func TestDeletionRequestLifecycle(t *testing.T) {
	goal := newApprovedHabit(t)

	_, err := goal.RequestDeletion(parent, day(1))
	assert.ErrorAs(t, err, new(*apperrors.PermissionError))

	event, err := goal.RequestDeletion(child, day(1))
	require.NoError(t, err)
	assert.Equal(t, GoalEventDeletionRequested, event.Kind)
	assert.True(t, goal.DeletionRequested)
	require.NotNil(t, goal.DeletionRequestedDate)

	_, err = goal.RequestDeletion(child, day(2))
	assert.ErrorAs(t, err, new(*apperrors.ValidationError))

	_, err = goal.DenyDeletion(child, day(2))
	assert.ErrorAs(t, err, new(*apperrors.PermissionError))

	event, err = goal.DenyDeletion(parent, day(2))
	require.NoError(t, err)
	assert.Equal(t, GoalEventDeletionDenied, event.Kind)
	assert.False(t, goal.DeletionRequested)
	assert.Nil(t, goal.DeletionRequestedDate)
	assert.Equal(t, GoalStatusApproved, goal.Status)
}

func TestApproveDeletionRequiresPendingRequest(t *testing.T) {
	goal := newApprovedHabit(t)

	_, err := goal.ApproveDeletion(parent, day(1))
	assert.ErrorAs(t, err, new(*apperrors.ValidationError))

	_, err = goal.RequestDeletion(child, day(1))
	require.NoError(t, err)

	event, err := goal.ApproveDeletion(parent, day(2))
	require.NoError(t, err)
	assert.Equal(t, GoalEventDeletionApproved, event.Kind)
}

func TestDaysUntilDeadline(t *testing.T) {
	goal := newApprovedHabit(t)

	assert.Nil(t, goal.DaysUntilDeadline(day(0)))

	target := day(5)
	goal.TargetDate = &target

	days := goal.DaysUntilDeadline(day(0))
	require.NotNil(t, days)
	assert.Equal(t, 5, *days)

	days = goal.DaysUntilDeadline(day(5).Add(3 * time.Hour))
	require.NotNil(t, days)
	assert.Equal(t, 0, *days)

	days = goal.DaysUntilDeadline(day(8))
	require.NotNil(t, days)
	assert.Equal(t, -3, *days)
}

func TestCompletionRateThirtyDayWindow(t *testing.T) {
	goal := newApprovedHabit(t)
	goal.CompletedDates = []time.Time{day(-40), day(-2), day(-1), day(0)}

	rate := goal.CompletionRate(day(0))
	assert.InDelta(t, 3.0/30.0, rate, 1e-9)
}

func TestProgressPercentage(t *testing.T) {
	goal := newApprovedHabit(t)

	// Day of creation, nothing completed yet.
	assert.Equal(t, 0.0, goal.ProgressPercentage(day(0)))

	for i := 0; i < 3; i++ {
		_, err := goal.MarkCompleted(child, day(i), day(i))
		require.NoError(t, err)
	}

	assert.InDelta(t, 1.0, goal.ProgressPercentage(day(3)), 1e-9)
	assert.InDelta(t, 0.5, goal.ProgressPercentage(day(6)), 1e-9)

	nonHabit, err := NewGoal("Learn chess", child.Name, parent.Name, false, "", false, 0, nil, day(0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, nonHabit.ProgressPercentage(day(10)))
}

func TestProgressPercentageWeekly(t *testing.T) {
	goal, err := NewGoal("Clean room", child.Name, parent.Name, true, FrequencyWeekly, false, 0, nil, day(0))
	require.NoError(t, err)

	// Less than a week in, no full period expected yet.
	assert.Equal(t, 0.0, goal.ProgressPercentage(day(5)))

	_, err = goal.MarkCompleted(child, day(3), day(3))
	require.NoError(t, err)

	assert.InDelta(t, 1.0, goal.ProgressPercentage(day(7)), 1e-9)
	assert.InDelta(t, 0.5, goal.ProgressPercentage(day(14)), 1e-9)
}

func TestIsCompletedToday(t *testing.T) {
	goal := newApprovedHabit(t)

	assert.False(t, goal.IsCompletedToday(day(0)))

	_, err := goal.MarkCompleted(child, day(0), day(0))
	require.NoError(t, err)

	assert.True(t, goal.IsCompletedToday(day(0).Add(10*time.Hour)))
	assert.False(t, goal.IsCompletedToday(day(1)))
}

func TestCanView(t *testing.T) {
	goal := newApprovedHabit(t)

	assert.True(t, goal.CanView(parent))
	assert.True(t, goal.CanView(child))
	assert.False(t, goal.CanView(Actor{Name: "Liam", Role: RoleChild}))
}

func TestCheckInvariants(t *testing.T) {
	goal := newApprovedHabit(t)
	require.NoError(t, goal.CheckInvariants())

	goal.CompletedDates = []time.Time{day(0), day(0).Add(2 * time.Hour)}
	assert.ErrorAs(t, goal.CheckInvariants(), new(*apperrors.InvariantViolation))

	// Duplicate day hidden behind different zone offsets.
	offset := time.FixedZone("UTC+5", 5*60*60)
	goal.CompletedDates = []time.Time{
		time.Date(2026, time.March, 10, 6, 0, 0, 0, offset),
		time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
	assert.ErrorAs(t, goal.CheckInvariants(), new(*apperrors.InvariantViolation))

	goal.CompletedDates = nil
	goal.DeletionRequested = true
	assert.ErrorAs(t, goal.CheckInvariants(), new(*apperrors.InvariantViolation))

	goal.DeletionRequested = false
	goal.HasHabit = false
	assert.ErrorAs(t, goal.CheckInvariants(), new(*apperrors.InvariantViolation))
}
