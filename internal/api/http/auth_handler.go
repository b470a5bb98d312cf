package http

import (
	"net/http"
	"time"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/service"
)

// AuthHandler handles signup, login, logout and session introspection
type AuthHandler struct {
	authSvc    service.AuthService
	userSvc    service.UserService
	sessionTTL time.Duration
}

func NewAuthHandler(authSvc service.AuthService, userSvc service.UserService, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, userSvc: userSvc, sessionTTL: sessionTTL}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	user, token, err := h.authSvc.Signup(r.Context(), req.Username, req.Email, req.Phone, req.Name, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	h.setSessionCookie(w, token, h.sessionTTL)
	respondJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	user, token, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	h.setSessionCookie(w, token, h.sessionTTL)
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.authSvc.Logout(r.Context(), cookie.Value); err != nil {
			respondError(w, err)
			return
		}
	}
	h.setSessionCookie(w, "", -time.Second)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated user's own record.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	user, err := h.userSvc.GetUser(r.Context(), username)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]*domain.User{"user": user})
}
