package http

import (
	"context"
	"net/http"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/service"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "lendtrust_session"

type contextKey string

const usernameKey contextKey = "username"

// usernameFrom returns the authenticated username placed by requireAuth.
func usernameFrom(r *http.Request) string {
	username, _ := r.Context().Value(usernameKey).(string)
	return username
}

// requireAuth resolves the session cookie to a username and rejects the
// request when the session is missing, expired or revoked.
func requireAuth(authSvc service.AuthService, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			respondError(w, domain.Unauthorized("Authentication required"))
			return
		}
		username, err := authSvc.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			respondError(w, domain.Unauthorized("Invalid or expired session"))
			return
		}
		ctx := context.WithValue(r.Context(), usernameKey, username)
		next(w, r.WithContext(ctx))
	}
}
