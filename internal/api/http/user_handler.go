package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/service"
)

// UserHandler serves public trust profiles
type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (h *UserHandler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userSvc.GetPublicProfile(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]*domain.PublicProfile{"profile": profile})
}
