package models

import (
	"time"

	"github.com/famsphere/famsphere-server/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string

const (
	EventTypeSchool   EventType = "school"
	EventTypeSports   EventType = "sports"
	EventTypeFamily   EventType = "family"
	EventTypePersonal EventType = "personal"
)

var allowedEventTypes = map[EventType]bool{
	EventTypeSchool:   true,
	EventTypeSports:   true,
	EventTypeFamily:   true,
	EventTypePersonal: true,
}

// CalendarEvent is a shared family calendar entry. Recurring events are
// stored as one document per occurrence, linked by RecurrenceGroupID.
type CalendarEvent struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title                 string             `bson:"title" json:"title"`
	EventDate             time.Time          `bson:"event_date" json:"event_date"`
	EndDate               *time.Time         `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Notes                 string             `bson:"notes,omitempty" json:"notes,omitempty"`
	EventType             EventType          `bson:"event_type" json:"event_type"`
	CreatedByName         string             `bson:"created_by_name" json:"created_by_name"`
	ColorHex              string             `bson:"color_hex" json:"color_hex"`
	IsRecurring           bool               `bson:"is_recurring" json:"is_recurring"`
	RecurrenceDays        []int              `bson:"recurrence_days,omitempty" json:"recurrence_days,omitempty"`
	RecurrenceEndDate     *time.Time         `bson:"recurrence_end_date,omitempty" json:"recurrence_end_date,omitempty"`
	RecurrenceGroupID     string             `bson:"recurrence_group_id,omitempty" json:"recurrence_group_id,omitempty"`
	ReminderMinutesBefore *int               `bson:"reminder_minutes_before,omitempty" json:"reminder_minutes_before,omitempty"`
	CreatedAt             time.Time          `bson:"created_at" json:"created_at"`
}

// Validate checks the fields a handler cannot express through tags alone.
func (e *CalendarEvent) Validate() error {
	if e.Title == "" {
		return apperrors.Validation("event title is required")
	}
	if !allowedEventTypes[e.EventType] {
		return apperrors.Validation("unknown event type %q", e.EventType)
	}
	if e.EndDate != nil && e.EndDate.Before(e.EventDate) {
		return apperrors.Validation("event end date cannot precede its start")
	}
	if e.IsRecurring {
		if len(e.RecurrenceDays) == 0 {
			return apperrors.Validation("recurring events need at least one weekday")
		}
		for _, d := range e.RecurrenceDays {
			if d < 0 || d > 6 {
				return apperrors.Validation("recurrence weekdays must be 0 (Sunday) through 6 (Saturday)")
			}
		}
		if e.RecurrenceEndDate == nil {
			return apperrors.Validation("recurring events need a recurrence end date")
		}
		if e.RecurrenceEndDate.Before(e.EventDate) {
			return apperrors.Validation("recurrence end date cannot precede the first occurrence")
		}
	}
	return nil
}
