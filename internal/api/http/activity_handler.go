package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/service"
)

// ActivityHandler serves the activity feed
type ActivityHandler struct {
	activitySvc service.ActivityService
}

func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			respondError(w, domain.Validation("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	activities, err := h.activitySvc.ListActivities(r.Context(), usernameFrom(r), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if activities == nil {
		activities = []domain.Activity{}
	}
	respondJSON(w, http.StatusOK, map[string][]domain.Activity{"activities": activities})
}

func (h *ActivityHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.activitySvc.MarkAsRead(r.Context(), usernameFrom(r), mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
