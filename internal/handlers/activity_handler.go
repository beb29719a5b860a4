package handlers

import (
	"net/http"
	"strconv"

	"github.com/famsphere/famsphere-server/internal/services"
	"github.com/famsphere/famsphere-server/pkg/middleware"
	"github.com/sirupsen/logrus"
)

type ActivityHandler struct {
	Service *services.ActivityService
}

func NewActivityHandler(service *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{Service: service}
}

// GetRecentActivitiesHandler returns the family activity feed, newest first.
func (h *ActivityHandler) GetRecentActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var limit int64 = 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = parsed
		}
	}

	activities, err := h.Service.GetRecentActivities(r.Context(), limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch activity feed")
		http.Error(w, "Failed to fetch activity feed", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, activities)
}
