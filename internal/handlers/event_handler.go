package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/internal/services"
	"github.com/famsphere/famsphere-server/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// EventHandler handles the shared family calendar.
type EventHandler struct {
	Service *services.EventService
}

func NewEventHandler(service *services.EventService) *EventHandler {
	return &EventHandler{Service: service}
}

type createEventRequest struct {
	Title                 string     `json:"title" validate:"required"`
	EventDate             time.Time  `json:"event_date" validate:"required"`
	EndDate               *time.Time `json:"end_date"`
	Notes                 string     `json:"notes"`
	EventType             string     `json:"event_type" validate:"required,oneof=school sports family personal"`
	ColorHex              string     `json:"color_hex"`
	IsRecurring           bool       `json:"is_recurring"`
	RecurrenceDays        []int      `json:"recurrence_days" validate:"omitempty,dive,gte=0,lte=6"`
	RecurrenceEndDate     *time.Time `json:"recurrence_end_date"`
	ReminderMinutesBefore *int       `json:"reminder_minutes_before" validate:"omitempty,gte=0"`
}

func (req *createEventRequest) toModel() models.CalendarEvent {
	return models.CalendarEvent{
		Title:                 req.Title,
		EventDate:             req.EventDate,
		EndDate:               req.EndDate,
		Notes:                 req.Notes,
		EventType:             models.EventType(req.EventType),
		ColorHex:              req.ColorHex,
		IsRecurring:           req.IsRecurring,
		RecurrenceDays:        req.RecurrenceDays,
		RecurrenceEndDate:     req.RecurrenceEndDate,
		ReminderMinutesBefore: req.ReminderMinutesBefore,
	}
}

// CreateEventHandler stores an event, expanding recurring ones into their
// occurrences.
func (h *EventHandler) CreateEventHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.Service.CreateEvent(r.Context(), actorFromClaims(claims), req.toModel())
	if err != nil {
		logrus.WithError(err).Warn("Failed to create calendar event")
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// GetEventsHandler lists events in ?from=RFC3339&to=RFC3339 (default: the
// next 30 days).
func (h *EventHandler) GetEventsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	from := time.Now().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, 30)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid from date", http.StatusBadRequest)
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid to date", http.StatusBadRequest)
			return
		}
		to = parsed
	}

	events, err := h.Service.GetEventsInRange(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// GetEventHandler fetches one event.
func (h *EventHandler) GetEventHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	event, err := h.Service.GetEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// UpdateEventHandler modifies a single occurrence.
func (h *EventHandler) UpdateEventHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	eventID := mux.Vars(r)["id"]

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.Service.UpdateEvent(r.Context(), actorFromClaims(claims), eventID, req.toModel())
	if err != nil {
		logrus.WithField("eventID", eventID).WithError(err).Warn("Failed to update calendar event")
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteEventHandler removes an occurrence, or its whole recurrence group
// with ?group=true.
func (h *EventHandler) DeleteEventHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	eventID := mux.Vars(r)["id"]
	wholeGroup := r.URL.Query().Get("group") == "true"

	if err := h.Service.DeleteEvent(r.Context(), actorFromClaims(claims), eventID, wholeGroup); err != nil {
		logrus.WithField("eventID", eventID).WithError(err).Warn("Failed to delete calendar event")
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
