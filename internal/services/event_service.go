package services

import (
	"context"
	"fmt"
	"time"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/internal/repository"
	"github.com/famsphere/famsphere-server/pkg/apperrors"
	"github.com/famsphere/famsphere-server/pkg/logger"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventService manages the shared family calendar, including expansion of
// weekly-recurring events into individual occurrences.
type EventService struct {
	repo *repository.EventRepository
}

func NewEventService(repo *repository.EventRepository) *EventService {
	return &EventService{repo: repo}
}

// CreateEvent validates and stores an event. A recurring event is expanded
// into one document per matching weekday between its first occurrence and the
// recurrence end date, all sharing a recurrence group id.
func (s *EventService) CreateEvent(ctx context.Context, actor models.Actor, event models.CalendarEvent) ([]models.CalendarEvent, error) {
	event.CreatedByName = actor.Name
	if err := event.Validate(); err != nil {
		return nil, err
	}

	occurrences := []models.CalendarEvent{event}
	if event.IsRecurring {
		occurrences = expandRecurrence(event, uuid.NewString())
	}

	created, err := s.repo.InsertEvents(ctx, occurrences)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %v", err)
	}
	logger.Log.WithField("count", len(created)).Info("Calendar event created in service layer")
	return created, nil
}

// expandRecurrence generates an occurrence on every day between the first
// event date and the recurrence end whose weekday appears in RecurrenceDays,
// preserving the time of day and duration of the template event.
func expandRecurrence(template models.CalendarEvent, groupID string) []models.CalendarEvent {
	wanted := make(map[time.Weekday]bool, len(template.RecurrenceDays))
	for _, d := range template.RecurrenceDays {
		wanted[time.Weekday(d)] = true
	}

	var duration time.Duration
	if template.EndDate != nil {
		duration = template.EndDate.Sub(template.EventDate)
	}

	var occurrences []models.CalendarEvent
	end := *template.RecurrenceEndDate
	for day := template.EventDate; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !wanted[day.Weekday()] {
			continue
		}
		occ := template
		occ.EventDate = day
		if template.EndDate != nil {
			occEnd := day.Add(duration)
			occ.EndDate = &occEnd
		}
		occ.RecurrenceGroupID = groupID
		occurrences = append(occurrences, occ)
	}

	if len(occurrences) == 0 {
		// recurrence window never hits a wanted weekday; keep the first date
		occ := template
		occ.RecurrenceGroupID = groupID
		occurrences = append(occurrences, occ)
	}
	return occurrences
}

// GetEventsInRange lists events between from (inclusive) and to (exclusive).
func (s *EventService) GetEventsInRange(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	if !to.After(from) {
		return nil, apperrors.Validation("range end must be after range start")
	}
	return s.repo.GetEventsInRange(ctx, from, to)
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.CalendarEvent, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID: %v", err)
	}
	return s.repo.GetEventByID(ctx, objID)
}

// UpdateEvent modifies a single occurrence. Creators and parents may edit.
func (s *EventService) UpdateEvent(ctx context.Context, actor models.Actor, id string, updated models.CalendarEvent) (*models.CalendarEvent, error) {
	existing, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsParent() && existing.CreatedByName != actor.Name {
		return nil, apperrors.Permission("you may only edit events you created")
	}

	updated.ID = existing.ID
	updated.CreatedByName = existing.CreatedByName
	updated.CreatedAt = existing.CreatedAt
	updated.RecurrenceGroupID = existing.RecurrenceGroupID
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return s.repo.UpdateEvent(ctx, existing.ID, &updated)
}

// DeleteEvent removes one occurrence, or the whole recurrence group when
// wholeGroup is set and the event belongs to one.
func (s *EventService) DeleteEvent(ctx context.Context, actor models.Actor, id string, wholeGroup bool) error {
	existing, err := s.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsParent() && existing.CreatedByName != actor.Name {
		return apperrors.Permission("you may only delete events you created")
	}

	if wholeGroup && existing.RecurrenceGroupID != "" {
		deleted, err := s.repo.DeleteRecurrenceGroup(ctx, existing.RecurrenceGroupID)
		if err != nil {
			return err
		}
		logger.Log.WithField("deleted", deleted).Info("Recurrence group deleted")
		return nil
	}
	return s.repo.DeleteEvent(ctx, existing.ID)
}
