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

// GoalHandler handles HTTP requests related to goals.
type GoalHandler struct {
	Service *services.GoalService
}

func NewGoalHandler(goalService *services.GoalService) *GoalHandler {
	return &GoalHandler{Service: goalService}
}

type createGoalRequest struct {
	Title          string     `json:"title" validate:"required"`
	ChildName      string     `json:"child_name"`
	HasHabit       bool       `json:"has_habit"`
	HabitFrequency string     `json:"habit_frequency" validate:"omitempty,oneof=daily weekly"`
	ShareToChat    bool       `json:"share_completion_to_chat"`
	PointValue     int        `json:"point_value" validate:"omitempty,gt=0"`
	TargetDate     *time.Time `json:"target_date"`
}

// CreateGoalHandler creates a goal for the acting child, or assigns one to a
// child when called by a parent.
func (h *GoalHandler) CreateGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		logrus.Warn("Unauthorized access attempt during goal creation")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logrus.WithError(err).Warn("Invalid request payload during goal creation")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	actor := actorFromClaims(claims)
	if actor.IsParent() && req.ChildName == "" {
		http.Error(w, "child_name is required when a parent assigns a goal", http.StatusBadRequest)
		return
	}

	goal, err := h.Service.CreateGoal(r.Context(), actor, services.CreateGoalInput{
		Title:          req.Title,
		ChildName:      req.ChildName,
		HasHabit:       req.HasHabit,
		HabitFrequency: models.HabitFrequency(req.HabitFrequency),
		ShareToChat:    req.ShareToChat,
		PointValue:     req.PointValue,
		TargetDate:     req.TargetDate,
	})
	if err != nil {
		logrus.WithError(err).Warn("Failed to create goal")
		writeDomainError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"actor":  actor.Name,
		"goalID": goal.ID.Hex(),
	}).Info("Goal successfully created")
	respondJSON(w, http.StatusCreated, goal)
}

// GetGoalHandler fetches a single goal.
func (h *GoalHandler) GetGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	goalID := mux.Vars(r)["id"]

	goal, err := h.Service.GetGoal(r.Context(), actorFromClaims(claims), goalID)
	if err != nil {
		logrus.WithField("goalID", goalID).WithError(err).Warn("Goal fetch failed")
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// GetGoalsHandler lists goals visible to the actor, with optional ?child=
// and ?status= filters (parents only).
func (h *GoalHandler) GetGoalsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	child := r.URL.Query().Get("child")
	status := models.GoalStatus(r.URL.Query().Get("status"))

	goals, err := h.Service.ListGoals(r.Context(), actorFromClaims(claims), child, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

// GetPendingGoalsHandler returns the parent approval queue.
func (h *GoalHandler) GetPendingGoalsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	goals, err := h.Service.PendingGoals(r.Context(), actorFromClaims(claims))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

type updateGoalRequest struct {
	Title          *string    `json:"title"`
	HasHabit       *bool      `json:"has_habit"`
	HabitFrequency *string    `json:"habit_frequency" validate:"omitempty,oneof=daily weekly"`
	PointValue     *int       `json:"point_value" validate:"omitempty,gt=0"`
	TargetDate     *time.Time `json:"target_date"`
	ClearTarget    bool       `json:"clear_target"`
	ShareToChat    *bool      `json:"share_completion_to_chat"`
}

// UpdateGoalHandler edits a goal's fields.
func (h *GoalHandler) UpdateGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	goalID := mux.Vars(r)["id"]

	var req updateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	edit := models.GoalEdit{
		Title:       req.Title,
		HasHabit:    req.HasHabit,
		PointValue:  req.PointValue,
		TargetDate:  req.TargetDate,
		ClearTarget: req.ClearTarget,
		ShareToChat: req.ShareToChat,
	}
	if req.HabitFrequency != nil {
		freq := models.HabitFrequency(*req.HabitFrequency)
		edit.HabitFrequency = &freq
	}

	goal, err := h.Service.UpdateGoal(r.Context(), actorFromClaims(claims), goalID, edit)
	if err != nil {
		logrus.WithField("goalID", goalID).WithError(err).Warn("Goal update failed")
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

type approveGoalRequest struct {
	PointValue int `json:"point_value" validate:"omitempty,gte=0"`
}

// ApproveGoalHandler approves a pending goal, optionally adjusting points.
func (h *GoalHandler) ApproveGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	goalID := mux.Vars(r)["id"]

	var req approveGoalRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request payload", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()
	}

	goal, err := h.Service.ApproveGoal(r.Context(), actorFromClaims(claims), goalID, req.PointValue)
	if err != nil {
		logrus.WithField("goalID", goalID).WithError(err).Warn("Goal approval failed")
		writeDomainError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{"goalID": goalID, "actor": claims.Name}).Info("Goal approved")
	respondJSON(w, http.StatusOK, goal)
}

type rejectGoalRequest struct {
	Note string `json:"note" validate:"required"`
}

// RejectGoalHandler rejects a pending goal with a mandatory note.
func (h *GoalHandler) RejectGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	goalID := mux.Vars(r)["id"]

	var req rejectGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	goal, err := h.Service.RejectGoal(r.Context(), actorFromClaims(claims), goalID, req.Note)
	if err != nil {
		logrus.WithField("goalID", goalID).WithError(err).Warn("Goal rejection failed")
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

type completeGoalRequest struct {
	Date *time.Time `json:"date"`
}

// CompleteGoalHandler records today's (or a given day's) completion.
func (h *GoalHandler) CompleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	goalID := mux.Vars(r)["id"]

	var req completeGoalRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request payload", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()
	}

	goal, err := h.Service.CompleteGoal(r.Context(), actorFromClaims(claims), goalID, req.Date)
	if err != nil {
		logrus.WithField("goalID", goalID).WithError(err).Warn("Goal completion failed")
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// UncompleteGoalHandler removes a day's completion entry. The day comes from
// ?date=2006-01-02 and defaults to today.
func (h *GoalHandler) UncompleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	goalID := mux.Vars(r)["id"]

	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	goal, err := h.Service.RemoveCompletion(r.Context(), actorFromClaims(claims), goalID, day)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// RequestDeletionHandler lets the owning child ask for the goal's removal.
func (h *GoalHandler) RequestDeletionHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	goalID := mux.Vars(r)["id"]

	goal, err := h.Service.RequestDeletion(r.Context(), actorFromClaims(claims), goalID)
	if err != nil {
		logrus.WithField("goalID", goalID).WithError(err).Warn("Deletion request failed")
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// ApproveDeletionHandler destroys a goal whose deletion was requested.
func (h *GoalHandler) ApproveDeletionHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	goalID := mux.Vars(r)["id"]

	if err := h.Service.ApproveDeletion(r.Context(), actorFromClaims(claims), goalID); err != nil {
		logrus.WithField("goalID", goalID).WithError(err).Warn("Deletion approval failed")
		writeDomainError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{"goalID": goalID, "actor": claims.Name}).Info("Goal deletion approved")
	w.WriteHeader(http.StatusNoContent)
}

// DenyDeletionHandler clears a pending deletion request.
func (h *GoalHandler) DenyDeletionHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	goalID := mux.Vars(r)["id"]

	goal, err := h.Service.DenyDeletion(r.Context(), actorFromClaims(claims), goalID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// DeleteGoalHandler is the parent's direct delete.
func (h *GoalHandler) DeleteGoalHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	goalID := mux.Vars(r)["id"]

	if err := h.Service.DeleteGoal(r.Context(), actorFromClaims(claims), goalID); err != nil {
		logrus.WithField("goalID", goalID).WithError(err).Warn("Goal delete failed")
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGoalProgressHandler returns the derived progress payload for a goal.
func (h *GoalHandler) GetGoalProgressHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	goalID := mux.Vars(r)["id"]

	progress, err := h.Service.Progress(r.Context(), actorFromClaims(claims), goalID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

// GetPointTotalsHandler sums earned points per child for the dashboard.
func (h *GoalHandler) GetPointTotalsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	totals, err := h.Service.PointTotals(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}
