package services

import (
	"testing"
	"time"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRecurrenceWeekdays(t *testing.T) {
	// Monday March 2, 2026.
	start := time.Date(2026, time.March, 2, 16, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	recurrenceEnd := start.AddDate(0, 0, 13)

	template := models.CalendarEvent{
		Title:             "Soccer practice",
		EventDate:         start,
		EndDate:           &end,
		EventType:         models.EventTypeSports,
		IsRecurring:       true,
		RecurrenceDays:    []int{int(time.Monday), int(time.Wednesday)},
		RecurrenceEndDate: &recurrenceEnd,
	}

	occurrences := expandRecurrence(template, "group-1")

	// Two weeks of Mondays and Wednesdays.
	require.Len(t, occurrences, 4)
	for _, occ := range occurrences {
		assert.Equal(t, "group-1", occ.RecurrenceGroupID)
		assert.Contains(t, []time.Weekday{time.Monday, time.Wednesday}, occ.EventDate.Weekday())
		assert.Equal(t, 16, occ.EventDate.Hour())
		require.NotNil(t, occ.EndDate)
		assert.Equal(t, 90*time.Minute, occ.EndDate.Sub(occ.EventDate))
	}
	assert.True(t, occurrences[0].EventDate.Equal(start))
}

func TestExpandRecurrenceNoMatchKeepsFirstDate(t *testing.T) {
	// Tuesday with a one-day window that never hits a Friday.
	start := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	recurrenceEnd := start

	template := models.CalendarEvent{
		Title:             "Violin lesson",
		EventDate:         start,
		EventType:         models.EventTypePersonal,
		IsRecurring:       true,
		RecurrenceDays:    []int{int(time.Friday)},
		RecurrenceEndDate: &recurrenceEnd,
	}

	occurrences := expandRecurrence(template, "group-2")

	require.Len(t, occurrences, 1)
	assert.True(t, occurrences[0].EventDate.Equal(start))
	assert.Equal(t, "group-2", occurrences[0].RecurrenceGroupID)
}

func TestCalendarEventValidate(t *testing.T) {
	start := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)

	event := models.CalendarEvent{Title: "Dentist", EventDate: start, EventType: models.EventTypeFamily}
	assert.NoError(t, event.Validate())

	event.Title = ""
	assert.Error(t, event.Validate())

	event.Title = "Dentist"
	event.EventType = "holiday"
	assert.Error(t, event.Validate())

	event.EventType = models.EventTypeFamily
	before := start.Add(-time.Hour)
	event.EndDate = &before
	assert.Error(t, event.Validate())

	event.EndDate = nil
	event.IsRecurring = true
	assert.Error(t, event.Validate())

	event.RecurrenceDays = []int{7}
	assert.Error(t, event.Validate())

	event.RecurrenceDays = []int{int(time.Tuesday)}
	assert.Error(t, event.Validate())

	recurrenceEnd := start.AddDate(0, 0, 7)
	event.RecurrenceEndDate = &recurrenceEnd
	assert.NoError(t, event.Validate())
}
