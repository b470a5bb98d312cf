package service

import (
	"context"

	"lendtrust-backend/internal/domain"
)

type AuthService interface {
	Signup(ctx context.Context, username, email, phone, name, password string) (*domain.User, string, error) // user, session token
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (string, error) // resolves a session token to a username
}

// UserService is the user directory: profile reads plus the trust-statistic
// mutators the lending lifecycle drives. Every mutator recomputes and
// persists the trust score.
type UserService interface {
	GetUser(ctx context.Context, username string) (*domain.User, error)
	GetPublicProfile(ctx context.Context, username string) (*domain.PublicProfile, error)
	IncrementLendings(ctx context.Context, username string) error
	IncrementBorrowings(ctx context.Context, username string) error
	RecordReturn(ctx context.Context, username string, onTime bool) error
	RecordRating(ctx context.Context, username string, rating int) error
	RecordDispute(ctx context.Context, username string) error
}

// ItemService is the item registry. MarkLent and MarkAvailable are the
// lock/unlock operations the lending state machine calls on transitions.
type ItemService interface {
	AddItem(ctx context.Context, owner string, item *domain.Item) (*domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	UpdateItem(ctx context.Context, owner string, item *domain.Item) (*domain.Item, error)
	ListMyItems(ctx context.Context, owner string) ([]domain.Item, error)
	ListAvailableItems(ctx context.Context) ([]domain.Item, error)
	MarkLent(ctx context.Context, itemID, lendingID string) error
	MarkAvailable(ctx context.Context, itemID string) error
}

// ActivityService appends best-effort notifications to a user's feed.
// Notify never fails the caller; delivery errors are logged and dropped.
type ActivityService interface {
	Notify(ctx context.Context, username, activityType, message string)
	ListActivities(ctx context.Context, username string, limit int) ([]domain.Activity, error)
	MarkAsRead(ctx context.Context, username, activityID string) error
}

// TermsProposal carries the subset of terms a counter-proposal may change.
// Nil fields are left untouched.
type TermsProposal struct {
	ExpectedReturnDate   *int64
	DepositAmount        *float64
	ConditionExpectation *string
}

// CreateLendingInput is the payload for a lender-initiated offer.
type CreateLendingInput struct {
	ItemID             string
	Borrower           domain.BorrowerInfo
	Terms              domain.LendingTerms
	ConditionAtLending string
}

// LendingService owns the lending lifecycle state machine. Every operation
// takes the acting username; authorization, status preconditions and
// validation failures come back as *domain.Error values, never panics.
type LendingService interface {
	CreateLending(ctx context.Context, lenderUsername string, in CreateLendingInput) (*domain.Lending, error)
	CreateBorrowRequest(ctx context.Context, borrowerUsername, itemID string, terms domain.LendingTerms, message string) (*domain.Lending, error)
	AcceptLending(ctx context.Context, lendingID, username string) (*domain.Lending, error)
	DeclineLending(ctx context.Context, lendingID, username, reason string) (*domain.Lending, error)
	CancelLending(ctx context.Context, lendingID, username string) (*domain.Lending, error)
	// ProposeTerms returns both a lending and an error when the proposal
	// exhausts the negotiation budget: the lending has been force-declined
	// (a deliberate side-effecting failure) and the error carries kind
	// ErrNegotiationExceeded.
	ProposeTerms(ctx context.Context, lendingID, username string, proposal TermsProposal, message string) (*domain.Lending, error)
	RequestExtension(ctx context.Context, lendingID, username string, newReturnDate int64, reason string) (*domain.Lending, error)
	RespondToExtension(ctx context.Context, lendingID, username string, approved bool) (*domain.Lending, error)
	InitiateReturn(ctx context.Context, lendingID, username string) (*domain.Lending, error)
	ConfirmReturn(ctx context.Context, lendingID, username, condition, notes string) (*domain.Lending, error)
	RaiseDispute(ctx context.Context, lendingID, username, reason string) (*domain.Lending, error)
	AddRating(ctx context.Context, lendingID, username string, rating int, isLenderRating bool) (*domain.Lending, error)

	GetLending(ctx context.Context, lendingID, username string) (*domain.Lending, error)
	ListLendings(ctx context.Context, username string) ([]domain.Lending, error)
	ListBorrowings(ctx context.Context, username string) ([]domain.Lending, error)
	ListActive(ctx context.Context, username string, asLender bool) ([]domain.Lending, error)
	ListPendingRequests(ctx context.Context, username string) ([]domain.Lending, error)
	ListOutgoingRequests(ctx context.Context, username string) ([]domain.Lending, error)
	ListOverdue(ctx context.Context, username string) ([]domain.Lending, error)
	ListDueSoon(ctx context.Context, username string, daysAhead int) ([]domain.Lending, error)
	ItemHistory(ctx context.Context, itemID string) ([]domain.Lending, error)
}

type EmailService interface {
	SendLendingRequestNotification(ctx context.Context, email, fromName, itemName string) error
	SendLendingAcceptedNotification(ctx context.Context, email, byName, itemName string) error
	SendLendingDeclinedNotification(ctx context.Context, email, byName, itemName, reason string) error
	SendReturnReminderNotification(ctx context.Context, email, itemName string, overdue bool) error
	SendLendingCompletedNotification(ctx context.Context, email, itemName string) error
}
