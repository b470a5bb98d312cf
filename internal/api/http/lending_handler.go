package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/service"
)

// LendingHandler exposes the lending lifecycle over REST. Authorization and
// state checks live in the service; handlers only decode, dispatch and encode.
type LendingHandler struct {
	lendingSvc service.LendingService
}

func NewLendingHandler(lendingSvc service.LendingService) *LendingHandler {
	return &LendingHandler{lendingSvc: lendingSvc}
}

type createLendingRequest struct {
	ItemID             string              `json:"item_id"`
	Borrower           domain.BorrowerInfo `json:"borrower"`
	Terms              domain.LendingTerms `json:"terms"`
	ConditionAtLending string              `json:"condition_at_lending"`
}

type borrowRequest struct {
	Terms   domain.LendingTerms `json:"terms"`
	Message string              `json:"message"`
}

type declineRequest struct {
	Reason string `json:"reason"`
}

type negotiateRequest struct {
	ExpectedReturnDate   *int64   `json:"expected_return_date"`
	DepositAmount        *float64 `json:"deposit_amount"`
	ConditionExpectation *string  `json:"condition_expectation"`
	Message              string   `json:"message"`
}

type extensionRequest struct {
	NewReturnDate int64  `json:"new_return_date"`
	Reason        string `json:"reason"`
}

type extensionResponseRequest struct {
	Approved bool `json:"approved"`
}

type confirmReturnRequest struct {
	Condition string `json:"condition"`
	Notes     string `json:"notes"`
}

type disputeRequest struct {
	Reason string `json:"reason"`
}

type ratingRequest struct {
	Rating         int  `json:"rating"`
	IsLenderRating bool `json:"is_lender_rating"`
}

func (h *LendingHandler) respondLending(w http.ResponseWriter, status int, lending *domain.Lending, err error) {
	if err != nil {
		// A negotiation-cap failure still carries the force-declined lending.
		if lending != nil && domain.KindOf(err) == domain.ErrNegotiationExceeded {
			respondJSON(w, statusFor(domain.ErrNegotiationExceeded), map[string]interface{}{
				"error":   string(domain.ErrNegotiationExceeded),
				"message": err.Error(),
				"lending": lending,
			})
			return
		}
		respondError(w, err)
		return
	}
	respondJSON(w, status, map[string]*domain.Lending{"lending": lending})
}

func (h *LendingHandler) CreateLending(w http.ResponseWriter, r *http.Request) {
	var req createLendingRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	lending, err := h.lendingSvc.CreateLending(r.Context(), usernameFrom(r), service.CreateLendingInput{
		ItemID:             req.ItemID,
		Borrower:           req.Borrower,
		Terms:              req.Terms,
		ConditionAtLending: req.ConditionAtLending,
	})
	h.respondLending(w, http.StatusCreated, lending, err)
}

func (h *LendingHandler) CreateBorrowRequest(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	lending, err := h.lendingSvc.CreateBorrowRequest(r.Context(), usernameFrom(r), mux.Vars(r)["itemId"], req.Terms, req.Message)
	h.respondLending(w, http.StatusCreated, lending, err)
}

func (h *LendingHandler) Accept(w http.ResponseWriter, r *http.Request) {
	lending, err := h.lendingSvc.AcceptLending(r.Context(), mux.Vars(r)["id"], usernameFrom(r))
	h.respondLending(w, http.StatusOK, lending, err)
}

func (h *LendingHandler) Decline(w http.ResponseWriter, r *http.Request) {
	var req declineRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	lending, err := h.lendingSvc.DeclineLending(r.Context(), mux.Vars(r)["id"], usernameFrom(r), req.Reason)
	h.respondLending(w, http.StatusOK, lending, err)
}

func (h *LendingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	lending, err := h.lendingSvc.CancelLending(r.Context(), mux.Vars(r)["id"], usernameFrom(r))
	h.respondLending(w, http.StatusOK, lending, err)
}

func (h *LendingHandler) Negotiate(w http.ResponseWriter, r *http.Request) {
	var req negotiateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	lending, err := h.lendingSvc.ProposeTerms(r.Context(), mux.Vars(r)["id"], usernameFrom(r), service.TermsProposal{
		ExpectedReturnDate:   req.ExpectedReturnDate,
		DepositAmount:        req.DepositAmount,
		ConditionExpectation: req.ConditionExpectation,
	}, req.Message)
	h.respondLending(w, http.StatusOK, lending, err)
}

func (h *LendingHandler) RequestExtension(w http.ResponseWriter, r *http.Request) {
	var req extensionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	lending, err := h.lendingSvc.RequestExtension(r.Context(), mux.Vars(r)["id"], usernameFrom(r), req.NewReturnDate, req.Reason)
	h.respondLending(w, http.StatusOK, lending, err)
}

func (h *LendingHandler) RespondToExtension(w http.ResponseWriter, r *http.Request) {
	var req extensionResponseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	lending, err := h.lendingSvc.RespondToExtension(r.Context(), mux.Vars(r)["id"], usernameFrom(r), req.Approved)
	h.respondLending(w, http.StatusOK, lending, err)
}

func (h *LendingHandler) InitiateReturn(w http.ResponseWriter, r *http.Request) {
	lending, err := h.lendingSvc.InitiateReturn(r.Context(), mux.Vars(r)["id"], usernameFrom(r))
	h.respondLending(w, http.StatusOK, lending, err)
}

func (h *LendingHandler) ConfirmReturn(w http.ResponseWriter, r *http.Request) {
	var req confirmReturnRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	lending, err := h.lendingSvc.ConfirmReturn(r.Context(), mux.Vars(r)["id"], usernameFrom(r), req.Condition, req.Notes)
	h.respondLending(w, http.StatusOK, lending, err)
}

func (h *LendingHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	var req disputeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	lending, err := h.lendingSvc.RaiseDispute(r.Context(), mux.Vars(r)["id"], usernameFrom(r), req.Reason)
	h.respondLending(w, http.StatusOK, lending, err)
}

func (h *LendingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	lending, err := h.lendingSvc.AddRating(r.Context(), mux.Vars(r)["id"], usernameFrom(r), req.Rating, req.IsLenderRating)
	h.respondLending(w, http.StatusOK, lending, err)
}

func (h *LendingHandler) GetLending(w http.ResponseWriter, r *http.Request) {
	lending, err := h.lendingSvc.GetLending(r.Context(), mux.Vars(r)["id"], usernameFrom(r))
	h.respondLending(w, http.StatusOK, lending, err)
}

func (h *LendingHandler) respondList(w http.ResponseWriter, lendings []domain.Lending, err error) {
	if err != nil {
		respondError(w, err)
		return
	}
	if lendings == nil {
		lendings = []domain.Lending{}
	}
	respondJSON(w, http.StatusOK, map[string][]domain.Lending{"lendings": lendings})
}

func (h *LendingHandler) ListLendings(w http.ResponseWriter, r *http.Request) {
	lendings, err := h.lendingSvc.ListLendings(r.Context(), usernameFrom(r))
	h.respondList(w, lendings, err)
}

func (h *LendingHandler) ListBorrowings(w http.ResponseWriter, r *http.Request) {
	lendings, err := h.lendingSvc.ListBorrowings(r.Context(), usernameFrom(r))
	h.respondList(w, lendings, err)
}

func (h *LendingHandler) ListActiveLendings(w http.ResponseWriter, r *http.Request) {
	lendings, err := h.lendingSvc.ListActive(r.Context(), usernameFrom(r), true)
	h.respondList(w, lendings, err)
}

func (h *LendingHandler) ListActiveBorrowings(w http.ResponseWriter, r *http.Request) {
	lendings, err := h.lendingSvc.ListActive(r.Context(), usernameFrom(r), false)
	h.respondList(w, lendings, err)
}

func (h *LendingHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	lendings, err := h.lendingSvc.ListPendingRequests(r.Context(), usernameFrom(r))
	h.respondList(w, lendings, err)
}

func (h *LendingHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	lendings, err := h.lendingSvc.ListOutgoingRequests(r.Context(), usernameFrom(r))
	h.respondList(w, lendings, err)
}

func (h *LendingHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	lendings, err := h.lendingSvc.ListOverdue(r.Context(), usernameFrom(r))
	h.respondList(w, lendings, err)
}

func (h *LendingHandler) ListDueSoon(w http.ResponseWriter, r *http.Request) {
	days := 3
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			respondError(w, domain.Validation("days must be a positive integer"))
			return
		}
		days = parsed
	}
	lendings, err := h.lendingSvc.ListDueSoon(r.Context(), usernameFrom(r), days)
	h.respondList(w, lendings, err)
}
