package models

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/famsphere/famsphere-server/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GoalStatus string

const (
	GoalStatusPending  GoalStatus = "pending"
	GoalStatusApproved GoalStatus = "approved"
	GoalStatusRejected GoalStatus = "rejected"
	// GoalStatusCompleted is reserved: no transition currently produces it.
	GoalStatusCompleted GoalStatus = "completed"
)

type HabitFrequency string

const (
	FrequencyDaily  HabitFrequency = "daily"
	FrequencyWeekly HabitFrequency = "weekly"
)

// StreakMilestones are the streak lengths that trigger a celebration, in
// ascending order. Only the first threshold crossed by a completion fires.
var StreakMilestones = []int{3, 7, 14, 30, 50, 100}

const DefaultPointValue = 10

// Goal is a trackable objective owned by a child, optionally recurring
// (habit), subject to parent approval. Streak counters and points are
// maintained by the completion methods below and are always recomputable
// from CompletedDates.
type Goal struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title                 string             `bson:"title" json:"title"`
	OwnerChildName        string             `bson:"owner_child_name" json:"owner_child_name"`
	AssignedByParentName  string             `bson:"assigned_by_parent_name,omitempty" json:"assigned_by_parent_name,omitempty"`
	HasHabit              bool               `bson:"has_habit" json:"has_habit"`
	HabitFrequency        HabitFrequency     `bson:"habit_frequency,omitempty" json:"habit_frequency,omitempty"`
	CompletedDates        []time.Time        `bson:"completed_dates" json:"completed_dates"`
	ShareCompletionToChat bool               `bson:"share_completion_to_chat" json:"share_completion_to_chat"`
	PointValue            int                `bson:"point_value" json:"point_value"`
	TotalPointsEarned     int                `bson:"total_points_earned" json:"total_points_earned"`
	Status                GoalStatus         `bson:"status" json:"status"`
	ParentNote            string             `bson:"parent_note,omitempty" json:"parent_note,omitempty"`
	CurrentStreak         int                `bson:"current_streak" json:"current_streak"`
	LongestStreak         int                `bson:"longest_streak" json:"longest_streak"`
	LastCompletedDate     *time.Time         `bson:"last_completed_date,omitempty" json:"last_completed_date,omitempty"`
	TargetDate            *time.Time         `bson:"target_date,omitempty" json:"target_date,omitempty"`
	DeletionRequested     bool               `bson:"deletion_requested" json:"deletion_requested"`
	DeletionRequestedDate *time.Time         `bson:"deletion_requested_date,omitempty" json:"deletion_requested_date,omitempty"`
	CreatedAt             time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt             time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewGoal constructs a goal. A goal created by a child starts pending; a goal
// assigned by a parent is approved immediately and never enters the queue.
func NewGoal(title, ownerChildName, assignedByParentName string, hasHabit bool, frequency HabitFrequency, shareToChat bool, pointValue int, targetDate *time.Time, now time.Time) (*Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.Validation("goal title is required")
	}
	if ownerChildName == "" {
		return nil, apperrors.Validation("goal owner is required")
	}
	if pointValue <= 0 {
		pointValue = DefaultPointValue
	}
	if hasHabit {
		if frequency != FrequencyDaily && frequency != FrequencyWeekly {
			return nil, apperrors.Validation("habit frequency must be daily or weekly")
		}
	} else if frequency != "" {
		return nil, apperrors.Validation("habit frequency requires a habit goal")
	}
	if targetDate != nil && startOfDay(*targetDate).Before(startOfDay(now)) {
		return nil, apperrors.Validation("target date cannot be in the past")
	}

	status := GoalStatusPending
	if assignedByParentName != "" {
		status = GoalStatusApproved
	}

	return &Goal{
		Title:                 title,
		OwnerChildName:        ownerChildName,
		AssignedByParentName:  assignedByParentName,
		HasHabit:              hasHabit,
		HabitFrequency:        frequency,
		CompletedDates:        []time.Time{},
		ShareCompletionToChat: shareToChat,
		PointValue:            pointValue,
		Status:                status,
		TargetDate:            targetDate,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// startOfDay truncates a timestamp to midnight UTC. Completion dates arrive
// with arbitrary zone offsets; truncating in a single location keeps every
// representation of an instant on the same calendar day.
func startOfDay(t time.Time) time.Time {
	t = t.In(time.UTC)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole calendar days from a to b (negative if b < a).
func daysBetween(a, b time.Time) int {
	hours := startOfDay(b).Sub(startOfDay(a)).Hours()
	return int(math.Round(hours / 24))
}

// DaysUntilDeadline returns whole days from today until the target date:
// positive for future, 0 for today, negative for overdue. Nil without a
// target date.
func (g *Goal) DaysUntilDeadline(now time.Time) *int {
	if g.TargetDate == nil {
		return nil
	}
	days := daysBetween(now, *g.TargetDate)
	return &days
}

// TotalCompletions is the number of completion entries recorded.
func (g *Goal) TotalCompletions() int {
	return len(g.CompletedDates)
}

// CompletionRate is the proportion of days with completions over a fixed
// trailing 30-day window, in [0,1]. The denominator does not shrink for
// young goals: a goal created two days ago shows a low rate.
func (g *Goal) CompletionRate(now time.Time) float64 {
	start := now.AddDate(0, 0, -30)
	days := daysBetween(start, now)
	if days < 1 {
		days = 1
	}

	count := 0
	for _, d := range g.CompletedDates {
		if !d.Before(start) {
			count++
		}
	}
	return float64(count) / float64(days)
}

// ProgressPercentage is actual completions over expected completions since
// creation, capped at 1.0. Only meaningful for habit goals.
func (g *Goal) ProgressPercentage(now time.Time) float64 {
	if !g.HasHabit {
		return 0.0
	}

	daysSinceCreation := daysBetween(g.CreatedAt, now)
	if daysSinceCreation < 1 {
		daysSinceCreation = 1
	}

	expected := 0
	switch g.HabitFrequency {
	case FrequencyDaily:
		expected = daysSinceCreation
	case FrequencyWeekly:
		expected = daysSinceCreation / 7
	}
	if expected <= 0 {
		return 0.0
	}

	return math.Min(1.0, float64(g.TotalCompletions())/float64(expected))
}

// IsCompletedToday reports whether a completion entry exists for now's
// calendar day.
func (g *Goal) IsCompletedToday(now time.Time) bool {
	return g.hasCompletionOn(now)
}

func (g *Goal) hasCompletionOn(date time.Time) bool {
	day := startOfDay(date)
	for _, d := range g.CompletedDates {
		if startOfDay(d).Equal(day) {
			return true
		}
	}
	return false
}

// RecalculateStreak rebuilds CurrentStreak and LongestStreak from
// CompletedDates. CurrentStreak is the length of the last chronological run
// of consecutive days; it is not reset to 0 when that run ended in the past,
// matching the app's historical behavior.
func (g *Goal) RecalculateStreak() {
	days := make([]time.Time, 0, len(g.CompletedDates))
	seen := make(map[time.Time]bool, len(g.CompletedDates))
	for _, d := range g.CompletedDates {
		day := startOfDay(d)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	current, longest := 0, 0
	var prev time.Time
	for _, day := range days {
		if !prev.IsZero() && daysBetween(prev, day) == 1 {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
		prev = day
	}

	g.CurrentStreak = current
	g.LongestStreak = longest
}

// MarkCompleted records a completion for date's calendar day, which may lie
// in the past; now is the wall clock and stamps UpdatedAt. Idempotent: a
// second call on the same day mutates nothing and emits no events. On a new
// completion the streaks are recomputed, points accumulate, and a completion
// event (plus at most one milestone event) is returned.
func (g *Goal) MarkCompleted(actor Actor, date, now time.Time) ([]GoalEvent, error) {
	if actor.IsParent() || actor.Name != g.OwnerChildName {
		return nil, apperrors.Permission("only %s may record completions on this goal", g.OwnerChildName)
	}
	if g.Status != GoalStatusApproved {
		return nil, apperrors.Validation("goal must be approved before completions are recorded")
	}

	if g.hasCompletionOn(date) {
		return nil, nil
	}

	previousStreak := g.CurrentStreak
	g.CompletedDates = append(g.CompletedDates, date)
	g.RecalculateStreak()
	g.TotalPointsEarned += g.PointValue
	g.LastCompletedDate = &date
	g.UpdatedAt = now

	events := []GoalEvent{{
		Kind:       GoalEventCompleted,
		GoalID:     g.ID,
		GoalTitle:  g.Title,
		ActorName:  actor.Name,
		OwnerName:  g.OwnerChildName,
		Streak:     g.CurrentStreak,
		Points:     g.PointValue,
		OccurredAt: now,
	}}

	if milestone := crossedMilestone(previousStreak, g.CurrentStreak); milestone > 0 {
		events = append(events, GoalEvent{
			Kind:       GoalEventMilestone,
			GoalID:     g.ID,
			GoalTitle:  g.Title,
			ActorName:  actor.Name,
			OwnerName:  g.OwnerChildName,
			Milestone:  milestone,
			Streak:     g.CurrentStreak,
			OccurredAt: now,
		})
	}
	return events, nil
}

// crossedMilestone returns the first milestone threshold crossed when the
// streak moves from prev to cur, or 0 if none was crossed.
func crossedMilestone(prev, cur int) int {
	for _, m := range StreakMilestones {
		if prev < m && cur >= m {
			return m
		}
	}
	return 0
}

// RemoveCompletion deletes every completion entry on day's calendar day and
// recomputes the streaks. TotalPointsEarned is intentionally not decremented.
func (g *Goal) RemoveCompletion(actor Actor, day time.Time) error {
	if actor.IsParent() || actor.Name != g.OwnerChildName {
		return apperrors.Permission("only %s may remove completions on this goal", g.OwnerChildName)
	}

	target := startOfDay(day)
	kept := g.CompletedDates[:0]
	for _, d := range g.CompletedDates {
		if !startOfDay(d).Equal(target) {
			kept = append(kept, d)
		}
	}
	g.CompletedDates = kept
	g.RecalculateStreak()

	if g.LastCompletedDate != nil && startOfDay(*g.LastCompletedDate).Equal(target) {
		g.LastCompletedDate = latestDate(g.CompletedDates)
	}
	return nil
}

func latestDate(dates []time.Time) *time.Time {
	var latest *time.Time
	for i := range dates {
		if latest == nil || dates[i].After(*latest) {
			latest = &dates[i]
		}
	}
	return latest
}

// Approve moves a pending goal to approved. The parent may override the point
// value at approval time (0 keeps the proposed value). Clears any prior
// rejection note.
func (g *Goal) Approve(actor Actor, pointOverride int, now time.Time) (*GoalEvent, error) {
	if !actor.IsParent() {
		return nil, apperrors.Permission("only a parent may approve goals")
	}
	if g.Status != GoalStatusPending {
		return nil, apperrors.Validation("only pending goals can be approved")
	}
	if pointOverride < 0 {
		return nil, apperrors.Validation("point value must be positive")
	}

	if pointOverride > 0 {
		g.PointValue = pointOverride
	}
	g.Status = GoalStatusApproved
	g.ParentNote = ""
	g.UpdatedAt = now

	return &GoalEvent{
		Kind:       GoalEventApproved,
		GoalID:     g.ID,
		GoalTitle:  g.Title,
		ActorName:  actor.Name,
		OwnerName:  g.OwnerChildName,
		Points:     g.PointValue,
		OccurredAt: now,
	}, nil
}

// Reject moves a pending goal to rejected. A non-empty note explaining the
// decision is required and stored for the child to read.
func (g *Goal) Reject(actor Actor, note string, now time.Time) (*GoalEvent, error) {
	if !actor.IsParent() {
		return nil, apperrors.Permission("only a parent may reject goals")
	}
	if g.Status != GoalStatusPending {
		return nil, apperrors.Validation("only pending goals can be rejected")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperrors.Validation("a rejection note is required")
	}

	g.Status = GoalStatusRejected
	g.ParentNote = note
	g.UpdatedAt = now

	return &GoalEvent{
		Kind:       GoalEventRejected,
		GoalID:     g.ID,
		GoalTitle:  g.Title,
		ActorName:  actor.Name,
		OwnerName:  g.OwnerChildName,
		Note:       note,
		OccurredAt: now,
	}, nil
}

// RequestDeletion flags the goal for parent-approved deletion. Does not
// change the goal's status.
func (g *Goal) RequestDeletion(actor Actor, now time.Time) (*GoalEvent, error) {
	if actor.IsParent() || actor.Name != g.OwnerChildName {
		return nil, apperrors.Permission("only %s may request deletion of this goal", g.OwnerChildName)
	}
	if g.DeletionRequested {
		return nil, apperrors.Validation("deletion has already been requested")
	}

	g.DeletionRequested = true
	g.DeletionRequestedDate = &now
	g.UpdatedAt = now

	return &GoalEvent{
		Kind:       GoalEventDeletionRequested,
		GoalID:     g.ID,
		GoalTitle:  g.Title,
		ActorName:  actor.Name,
		OwnerName:  g.OwnerChildName,
		OccurredAt: now,
	}, nil
}

// DenyDeletion clears a pending deletion request; the goal survives with its
// status unchanged.
func (g *Goal) DenyDeletion(actor Actor, now time.Time) (*GoalEvent, error) {
	if !actor.IsParent() {
		return nil, apperrors.Permission("only a parent may deny a deletion request")
	}
	if !g.DeletionRequested {
		return nil, apperrors.Validation("no deletion request is pending")
	}

	g.DeletionRequested = false
	g.DeletionRequestedDate = nil
	g.UpdatedAt = now

	return &GoalEvent{
		Kind:       GoalEventDeletionDenied,
		GoalID:     g.ID,
		GoalTitle:  g.Title,
		ActorName:  actor.Name,
		OwnerName:  g.OwnerChildName,
		OccurredAt: now,
	}, nil
}

// ApproveDeletion authorizes destroying the goal. The caller is responsible
// for the actual removal from storage after this succeeds.
func (g *Goal) ApproveDeletion(actor Actor, now time.Time) (*GoalEvent, error) {
	if !actor.IsParent() {
		return nil, apperrors.Permission("only a parent may approve a deletion request")
	}
	if !g.DeletionRequested {
		return nil, apperrors.Validation("no deletion request is pending")
	}

	return &GoalEvent{
		Kind:       GoalEventDeletionApproved,
		GoalID:     g.ID,
		GoalTitle:  g.Title,
		ActorName:  actor.Name,
		OwnerName:  g.OwnerChildName,
		OccurredAt: now,
	}, nil
}

// AuthorizeDelete checks whether the actor may delete this goal outright,
// with no pending request. Only parents can.
func (g *Goal) AuthorizeDelete(actor Actor) error {
	if !actor.IsParent() {
		return apperrors.Permission("only a parent may delete goals directly")
	}
	return nil
}

// GoalEdit carries the editable goal fields. Nil pointers leave a field
// unchanged.
type GoalEdit struct {
	Title          *string
	HasHabit       *bool
	HabitFrequency *HabitFrequency
	PointValue     *int
	TargetDate     *time.Time
	ClearTarget    bool
	ShareToChat    *bool
}

// ApplyEdit updates editable fields. Parents may edit any goal; a child may
// edit a goal they own while it is pending or rejected. Editing a rejected
// goal resubmits it to the approval queue and clears the parent's note.
func (g *Goal) ApplyEdit(actor Actor, edit GoalEdit, now time.Time) error {
	if !actor.IsParent() {
		if actor.Name != g.OwnerChildName {
			return apperrors.Permission("you may only edit your own goals")
		}
		if g.Status == GoalStatusApproved {
			return apperrors.Permission("approved goals can only be edited by a parent")
		}
	}

	if edit.Title != nil {
		title := strings.TrimSpace(*edit.Title)
		if title == "" {
			return apperrors.Validation("goal title is required")
		}
		g.Title = title
	}
	if edit.PointValue != nil {
		if *edit.PointValue <= 0 {
			return apperrors.Validation("point value must be positive")
		}
		g.PointValue = *edit.PointValue
	}
	if edit.HasHabit != nil {
		g.HasHabit = *edit.HasHabit
		if !g.HasHabit {
			g.HabitFrequency = ""
		}
	}
	if edit.HabitFrequency != nil {
		if !g.HasHabit {
			return apperrors.Validation("habit frequency requires a habit goal")
		}
		if *edit.HabitFrequency != FrequencyDaily && *edit.HabitFrequency != FrequencyWeekly {
			return apperrors.Validation("habit frequency must be daily or weekly")
		}
		g.HabitFrequency = *edit.HabitFrequency
	}
	if edit.ClearTarget {
		g.TargetDate = nil
	} else if edit.TargetDate != nil {
		if startOfDay(*edit.TargetDate).Before(startOfDay(now)) {
			return apperrors.Validation("target date cannot be in the past")
		}
		g.TargetDate = edit.TargetDate
	}
	if edit.ShareToChat != nil {
		g.ShareCompletionToChat = *edit.ShareToChat
	}

	if !actor.IsParent() && g.Status == GoalStatusRejected {
		g.Status = GoalStatusPending
		g.ParentNote = ""
	}
	g.UpdatedAt = now
	return nil
}

// CanView reports whether the actor may read this goal. Parents see all
// goals; children see their own.
func (g *Goal) CanView(actor Actor) bool {
	return actor.IsParent() || actor.Name == g.OwnerChildName
}

// CheckInvariants guards against state that should be impossible through the
// public API: duplicate same-day completions or a dangling deletion flag.
func (g *Goal) CheckInvariants() error {
	seen := make(map[time.Time]bool, len(g.CompletedDates))
	for _, d := range g.CompletedDates {
		day := startOfDay(d)
		if seen[day] {
			return apperrors.Invariant("duplicate completion entries on %s", day.Format("2006-01-02"))
		}
		seen[day] = true
	}
	if g.DeletionRequested && g.DeletionRequestedDate == nil {
		return apperrors.Invariant("deletion requested without a request date")
	}
	if !g.DeletionRequested && g.DeletionRequestedDate != nil {
		return apperrors.Invariant("deletion request date set without a pending request")
	}
	if g.HabitFrequency != "" && !g.HasHabit {
		return apperrors.Invariant("habit frequency set on a non-habit goal")
	}
	return nil
}
