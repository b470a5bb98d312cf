package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"lendtrust-backend/internal/service"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Auth     service.AuthService
	Users    service.UserService
	Items    service.ItemService
	Lendings service.LendingService
	Activity service.ActivityService
}

// NewRouter builds the full REST surface. sessionTTL controls the session
// cookie lifetime and must match the token expiry.
func NewRouter(svcs Services, sessionTTL time.Duration) *mux.Router {
	authHandler := NewAuthHandler(svcs.Auth, svcs.Users, sessionTTL)
	userHandler := NewUserHandler(svcs.Users)
	itemHandler := NewItemHandler(svcs.Items, svcs.Lendings)
	lendingHandler := NewLendingHandler(svcs.Lendings)
	activityHandler := NewActivityHandler(svcs.Activity)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	auth := func(h http.HandlerFunc) http.HandlerFunc { return requireAuth(svcs.Auth, h) }

	api.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	api.HandleFunc("/auth/me", auth(authHandler.Me)).Methods("GET")

	api.HandleFunc("/items", auth(itemHandler.AddItem)).Methods("POST")
	api.HandleFunc("/items", auth(itemHandler.ListItems)).Methods("GET")
	api.HandleFunc("/items/{id}", auth(itemHandler.GetItem)).Methods("GET")
	api.HandleFunc("/items/{id}", auth(itemHandler.UpdateItem)).Methods("PUT")
	api.HandleFunc("/items/{itemId}/borrow-request", auth(lendingHandler.CreateBorrowRequest)).Methods("POST")
	api.HandleFunc("/items/{itemId}/history", auth(itemHandler.ItemHistory)).Methods("GET")

	api.HandleFunc("/lendings", auth(lendingHandler.CreateLending)).Methods("POST")
	api.HandleFunc("/lendings", auth(lendingHandler.ListLendings)).Methods("GET")
	api.HandleFunc("/lendings/active", auth(lendingHandler.ListActiveLendings)).Methods("GET")
	api.HandleFunc("/lendings/pending", auth(lendingHandler.ListPending)).Methods("GET")
	api.HandleFunc("/lendings/outgoing", auth(lendingHandler.ListOutgoing)).Methods("GET")
	api.HandleFunc("/lendings/overdue", auth(lendingHandler.ListOverdue)).Methods("GET")
	api.HandleFunc("/lendings/due-soon", auth(lendingHandler.ListDueSoon)).Methods("GET")
	api.HandleFunc("/lendings/{id}", auth(lendingHandler.GetLending)).Methods("GET")
	api.HandleFunc("/lendings/{id}/accept", auth(lendingHandler.Accept)).Methods("POST")
	api.HandleFunc("/lendings/{id}/decline", auth(lendingHandler.Decline)).Methods("POST")
	api.HandleFunc("/lendings/{id}/cancel", auth(lendingHandler.Cancel)).Methods("POST")
	api.HandleFunc("/lendings/{id}/negotiate", auth(lendingHandler.Negotiate)).Methods("POST")
	api.HandleFunc("/lendings/{id}/dispute", auth(lendingHandler.Dispute)).Methods("POST")
	api.HandleFunc("/lendings/{id}/extension", auth(lendingHandler.RequestExtension)).Methods("POST")
	api.HandleFunc("/lendings/{id}/extension/respond", auth(lendingHandler.RespondToExtension)).Methods("POST")
	api.HandleFunc("/lendings/{id}/return/initiate", auth(lendingHandler.InitiateReturn)).Methods("POST")
	api.HandleFunc("/lendings/{id}/return/confirm", auth(lendingHandler.ConfirmReturn)).Methods("POST")
	api.HandleFunc("/lendings/{id}/rate", auth(lendingHandler.Rate)).Methods("POST")

	api.HandleFunc("/borrowings", auth(lendingHandler.ListBorrowings)).Methods("GET")
	api.HandleFunc("/borrowings/active", auth(lendingHandler.ListActiveBorrowings)).Methods("GET")

	api.HandleFunc("/users/{username}", auth(userHandler.GetPublicProfile)).Methods("GET")

	api.HandleFunc("/activities", auth(activityHandler.ListActivities)).Methods("GET")
	api.HandleFunc("/activities/{id}/read", auth(activityHandler.MarkAsRead)).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods("GET")

	return r
}
