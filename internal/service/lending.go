package service

import (
	"context"
	"fmt"
	"time"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/logger"
	"lendtrust-backend/internal/repository"
	"lendtrust-backend/internal/utils"

	"github.com/google/uuid"
)

type lendingService struct {
	lendingRepo repository.LendingRepository
	itemRepo    repository.ItemRepository
	userSvc     UserService
	itemSvc     ItemService
	activitySvc ActivityService
	emailSvc    EmailService
}

func NewLendingService(
	lendingRepo repository.LendingRepository,
	itemRepo repository.ItemRepository,
	userSvc UserService,
	itemSvc ItemService,
	activitySvc ActivityService,
	emailSvc EmailService,
) LendingService {
	return &lendingService{
		lendingRepo: lendingRepo,
		itemRepo:    itemRepo,
		userSvc:     userSvc,
		itemSvc:     itemSvc,
		activitySvc: activitySvc,
		emailSvc:    emailSvc,
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func validateTerms(terms *domain.LendingTerms) error {
	if terms.DateLent == 0 {
		return domain.Validation("Date lent is required")
	}
	if terms.ExpectedReturnDate == 0 {
		return domain.Validation("Expected return date is required")
	}
	if terms.ExpectedReturnDate <= terms.DateLent {
		return domain.Validation("Return date must be after lending date")
	}
	if terms.RequireDeposit && terms.DepositAmount <= 0 {
		return domain.Validation("Deposit amount must be greater than zero")
	}
	if !terms.RequireDeposit {
		terms.DepositAmount = 0
	}
	terms.ConditionExpectation = utils.SanitizeText(terms.ConditionExpectation)
	terms.Notes = utils.SanitizeText(terms.Notes)
	return nil
}

func (s *lendingService) CreateLending(ctx context.Context, lenderUsername string, in CreateLendingInput) (*domain.Lending, error) {
	if err := validateTerms(&in.Terms); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerUsername != lenderUsername {
		return nil, domain.Unauthorized("Only the item owner can lend it")
	}
	if item.Status != domain.ItemStatusAvailable {
		return nil, domain.InvalidState("Item is not available for lending")
	}

	borrower := in.Borrower
	borrower.Name = utils.SanitizeText(borrower.Name)
	borrower.Email = utils.SanitizeText(borrower.Email)
	borrower.Phone = utils.SanitizeText(borrower.Phone)
	borrower.IsPlatformUser = false
	if borrower.Username != "" {
		if _, err := s.userSvc.GetUser(ctx, borrower.Username); err != nil {
			return nil, err
		}
		borrower.IsPlatformUser = true
	}

	now := nowMillis()
	lending := &domain.Lending{
		ID:                 uuid.NewString(),
		ItemID:             item.ID,
		LenderUsername:     lenderUsername,
		BorrowerUsername:   borrower.Username,
		BorrowerInfo:       borrower,
		Terms:              in.Terms,
		IsBorrowRequest:    false,
		ConditionAtLending: utils.SanitizeText(in.ConditionAtLending),
		CreatedOn:          now,
		UpdatedOn:          now,
	}
	if lending.ConditionAtLending == "" {
		lending.ConditionAtLending = string(item.Condition)
	}

	// A platform borrower must accept first; an external borrower cannot,
	// so the lending takes effect immediately.
	if borrower.IsPlatformUser {
		lending.Status = domain.LendingStatusPending
	} else {
		lending.Status = domain.LendingStatusActive
	}

	if err := s.lendingRepo.Create(ctx, lending); err != nil {
		return nil, err
	}

	if lending.Status == domain.LendingStatusActive {
		if err := s.itemSvc.MarkLent(ctx, item.ID, lending.ID); err != nil {
			logger.Error("Failed to mark item lent", "item_id", item.ID, "error", err)
		}
		if err := s.userSvc.IncrementLendings(ctx, lenderUsername); err != nil {
			logger.Error("Failed to increment lendings", "username", lenderUsername, "error", err)
		}
	} else {
		s.activitySvc.Notify(ctx, borrower.Username, "lending_offer",
			fmt.Sprintf("%s offered to lend you %s", lenderUsername, item.Name))
	}

	return lending, nil
}

func (s *lendingService) CreateBorrowRequest(ctx context.Context, borrowerUsername, itemID string, terms domain.LendingTerms, message string) (*domain.Lending, error) {
	if err := validateTerms(&terms); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerUsername == borrowerUsername {
		return nil, domain.Validation("You cannot borrow your own item")
	}
	if item.Status != domain.ItemStatusAvailable {
		return nil, domain.InvalidState("Item is not available for lending")
	}

	borrower, err := s.userSvc.GetUser(ctx, borrowerUsername)
	if err != nil {
		return nil, err
	}

	now := nowMillis()
	lending := &domain.Lending{
		ID:               uuid.NewString(),
		ItemID:           item.ID,
		LenderUsername:   item.OwnerUsername,
		BorrowerUsername: borrowerUsername,
		BorrowerInfo: domain.BorrowerInfo{
			Name:           borrower.Name,
			Email:          borrower.Email,
			Phone:          borrower.PhoneNumber,
			Username:       borrowerUsername,
			IsPlatformUser: true,
		},
		Terms:              terms,
		Status:             domain.LendingStatusPending,
		IsBorrowRequest:    true,
		ConditionAtLending: string(item.Condition),
		CreatedOn:          now,
		UpdatedOn:          now,
	}

	if err := s.lendingRepo.Create(ctx, lending); err != nil {
		return nil, err
	}

	s.activitySvc.Notify(ctx, item.OwnerUsername, "borrow_request",
		fmt.Sprintf("%s requested to borrow %s", borrowerUsername, item.Name))
	if owner, err := s.userSvc.GetUser(ctx, item.OwnerUsername); err == nil {
		_ = s.emailSvc.SendLendingRequestNotification(ctx, owner.Email, borrower.Name, item.Name)
	}

	return lending, nil
}

// accepter returns the username of the party who must accept or decline the
// terms: the lender for borrow requests, the borrower for offers.
func accepter(l *domain.Lending) string {
	if l.IsBorrowRequest {
		return l.LenderUsername
	}
	return l.BorrowerUsername
}

func (s *lendingService) AcceptLending(ctx context.Context, lendingID, username string) (*domain.Lending, error) {
	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		return nil, err
	}
	if lending.Status != domain.LendingStatusPending && lending.Status != domain.LendingStatusNegotiating {
		return nil, domain.InvalidState("Lending cannot be accepted in its current status")
	}
	if username != accepter(lending) {
		return nil, domain.Unauthorized("You are not authorized to accept this lending")
	}

	lending.Status = domain.LendingStatusActive
	if err := s.lendingRepo.Update(ctx, lending); err != nil {
		return nil, err
	}

	if err := s.itemSvc.MarkLent(ctx, lending.ItemID, lending.ID); err != nil {
		logger.Error("Failed to mark item lent", "item_id", lending.ItemID, "error", err)
	}
	if err := s.userSvc.IncrementLendings(ctx, lending.LenderUsername); err != nil {
		logger.Error("Failed to increment lendings", "username", lending.LenderUsername, "error", err)
	}
	if lending.BorrowerUsername != "" {
		if err := s.userSvc.IncrementBorrowings(ctx, lending.BorrowerUsername); err != nil {
			logger.Error("Failed to increment borrowings", "username", lending.BorrowerUsername, "error", err)
		}
	}

	s.notifyOther(ctx, lending, username, "lending_accepted", "accepted the lending terms")
	if email := s.otherPartyEmail(ctx, lending, username); email != "" {
		_ = s.emailSvc.SendLendingAcceptedNotification(ctx, email, username, s.itemName(ctx, lending.ItemID))
	}
	return lending, nil
}

func (s *lendingService) DeclineLending(ctx context.Context, lendingID, username, reason string) (*domain.Lending, error) {
	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		return nil, err
	}
	if lending.Status != domain.LendingStatusPending && lending.Status != domain.LendingStatusNegotiating {
		return nil, domain.InvalidState("Lending cannot be declined in its current status")
	}
	if !lending.IsParty(username) {
		return nil, domain.Unauthorized("You are not a party to this lending")
	}

	lending.Status = domain.LendingStatusDeclined
	lending.DeclineReason = utils.SanitizeText(reason)
	lending.DeclinedBy = username
	if err := s.lendingRepo.Update(ctx, lending); err != nil {
		return nil, err
	}

	s.notifyOther(ctx, lending, username, "lending_declined", "declined the lending")
	if email := s.otherPartyEmail(ctx, lending, username); email != "" {
		_ = s.emailSvc.SendLendingDeclinedNotification(ctx, email, username, s.itemName(ctx, lending.ItemID), lending.DeclineReason)
	}
	return lending, nil
}

func (s *lendingService) CancelLending(ctx context.Context, lendingID, username string) (*domain.Lending, error) {
	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		return nil, err
	}
	if lending.Status != domain.LendingStatusPending && lending.Status != domain.LendingStatusNegotiating {
		return nil, domain.InvalidState("Lending cannot be cancelled in its current status")
	}
	initiator := lending.LenderUsername
	if lending.IsBorrowRequest {
		initiator = lending.BorrowerUsername
	}
	if username != initiator {
		return nil, domain.Unauthorized("Only the requesting party can cancel")
	}

	lending.Status = domain.LendingStatusCancelled
	lending.CancelledBy = username
	if err := s.lendingRepo.Update(ctx, lending); err != nil {
		return nil, err
	}

	s.notifyOther(ctx, lending, username, "lending_cancelled", "cancelled the lending request")
	return lending, nil
}

func (s *lendingService) ProposeTerms(ctx context.Context, lendingID, username string, proposal TermsProposal, message string) (*domain.Lending, error) {
	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		return nil, err
	}
	if lending.Status != domain.LendingStatusPending && lending.Status != domain.LendingStatusNegotiating {
		return nil, domain.InvalidState("Lending cannot be negotiated in its current status")
	}
	if !lending.IsParty(username) {
		return nil, domain.Unauthorized("You are not a party to this lending")
	}

	if lending.NegotiationRounds >= domain.MaxNegotiationRounds {
		// Side-effecting failure: the lending is force-declined and the
		// caller is told the call failed. The mutated record is returned
		// alongside the error so the decline is visible to the caller.
		lending.Status = domain.LendingStatusDeclined
		lending.DeclineReason = "Maximum negotiation rounds exceeded"
		lending.DeclinedBy = username
		if err := s.lendingRepo.Update(ctx, lending); err != nil {
			return nil, err
		}
		s.notifyOther(ctx, lending, username, "lending_declined", "let the negotiation lapse")
		return lending, domain.NewError(domain.ErrNegotiationExceeded, "Maximum negotiation rounds exceeded. Lending declined.")
	}

	if proposal.ExpectedReturnDate != nil {
		lending.Terms.ExpectedReturnDate = *proposal.ExpectedReturnDate
	}
	if proposal.DepositAmount != nil {
		lending.Terms.DepositAmount = *proposal.DepositAmount
	}
	if proposal.ConditionExpectation != nil {
		lending.Terms.ConditionExpectation = utils.SanitizeText(*proposal.ConditionExpectation)
	}

	lending.NegotiationRounds++
	lending.NegotiationHistory = append(lending.NegotiationHistory, domain.NegotiationEntry{
		Round:      lending.NegotiationRounds,
		ProposedBy: username,
		Terms:      lending.Terms,
		Message:    utils.SanitizeText(message),
		Timestamp:  nowMillis(),
	})
	lending.Status = domain.LendingStatusNegotiating
	if err := s.lendingRepo.Update(ctx, lending); err != nil {
		return nil, err
	}

	s.notifyOther(ctx, lending, username, "terms_proposed", "proposed different lending terms")
	return lending, nil
}

func (s *lendingService) RequestExtension(ctx context.Context, lendingID, username string, newReturnDate int64, reason string) (*domain.Lending, error) {
	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		return nil, err
	}
	if lending.BorrowerUsername == "" || username != lending.BorrowerUsername {
		return nil, domain.Unauthorized("Only the borrower can request an extension")
	}
	if lending.Status != domain.LendingStatusActive {
		return nil, domain.InvalidState("Extensions can only be requested on an active lending")
	}
	if !lending.Terms.AllowExtensions {
		return nil, domain.Validation("Extensions are not allowed for this lending")
	}
	if newReturnDate <= lending.Terms.ExpectedReturnDate {
		return nil, domain.Validation("New return date must be after the current return date")
	}

	// A new request supersedes any prior one, whatever its outcome was.
	lending.ExtensionRequest = &domain.ExtensionRequest{
		NewReturnDate: newReturnDate,
		Reason:        utils.SanitizeText(reason),
		RequestedAt:   nowMillis(),
		Status:        domain.ExtensionStatusPending,
	}
	if err := s.lendingRepo.Update(ctx, lending); err != nil {
		return nil, err
	}

	s.activitySvc.Notify(ctx, lending.LenderUsername, "extension_requested",
		fmt.Sprintf("%s requested a return date extension", username))
	return lending, nil
}

func (s *lendingService) RespondToExtension(ctx context.Context, lendingID, username string, approved bool) (*domain.Lending, error) {
	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		return nil, err
	}
	if username != lending.LenderUsername {
		return nil, domain.Unauthorized("Only the lender can respond to an extension request")
	}
	if lending.ExtensionRequest == nil || lending.ExtensionRequest.Status != domain.ExtensionStatusPending {
		return nil, domain.InvalidState("No pending extension request")
	}

	if approved {
		lending.Terms.ExpectedReturnDate = lending.ExtensionRequest.NewReturnDate
		lending.ExtensionRequest.Status = domain.ExtensionStatusApproved
	} else {
		lending.ExtensionRequest.Status = domain.ExtensionStatusDenied
	}
	if err := s.lendingRepo.Update(ctx, lending); err != nil {
		return nil, err
	}

	outcome := "denied"
	if approved {
		outcome = "approved"
	}
	s.activitySvc.Notify(ctx, lending.BorrowerUsername, "extension_"+outcome,
		fmt.Sprintf("%s %s your extension request", username, outcome))
	return lending, nil
}

func (s *lendingService) InitiateReturn(ctx context.Context, lendingID, username string) (*domain.Lending, error) {
	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		return nil, err
	}
	if lending.BorrowerUsername == "" || username != lending.BorrowerUsername {
		return nil, domain.Unauthorized("Only the borrower can initiate a return")
	}
	if lending.Status != domain.LendingStatusActive {
		return nil, domain.InvalidState("Returns can only be initiated on an active lending")
	}

	now := nowMillis()
	lending.ReturnInitiatedAt = &now
	lending.Status = domain.LendingStatusReturnInitiated
	if err := s.lendingRepo.Update(ctx, lending); err != nil {
		return nil, err
	}

	s.activitySvc.Notify(ctx, lending.LenderUsername, "return_initiated",
		fmt.Sprintf("%s initiated the return of your item", username))
	return lending, nil
}

func (s *lendingService) ConfirmReturn(ctx context.Context, lendingID, username, condition, notes string) (*domain.Lending, error) {
	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		return nil, err
	}
	if username != lending.LenderUsername {
		return nil, domain.Unauthorized("Only the lender can confirm a return")
	}
	// Direct confirmation without a prior initiate step is accepted.
	if lending.Status != domain.LendingStatusReturnInitiated && lending.Status != domain.LendingStatusActive {
		return nil, domain.InvalidState("Lending is not awaiting return confirmation")
	}

	now := nowMillis()
	lending.ConditionAtReturn = utils.SanitizeText(condition)
	if lending.ConditionAtReturn == "" {
		lending.ConditionAtReturn = lending.ConditionAtLending
	}
	lending.ActualReturnDate = &now
	lending.ReturnNotes = utils.SanitizeText(notes)
	lending.Status = domain.LendingStatusCompleted
	if err := s.lendingRepo.Update(ctx, lending); err != nil {
		return nil, err
	}

	if err := s.itemSvc.MarkAvailable(ctx, lending.ItemID); err != nil {
		logger.Error("Failed to mark item available", "item_id", lending.ItemID, "error", err)
	}
	if lending.BorrowerUsername != "" {
		onTime := now <= lending.Terms.ExpectedReturnDate
		if err := s.userSvc.RecordReturn(ctx, lending.BorrowerUsername, onTime); err != nil {
			logger.Error("Failed to record return", "username", lending.BorrowerUsername, "error", err)
		}
		s.activitySvc.Notify(ctx, lending.BorrowerUsername, "return_confirmed",
			fmt.Sprintf("%s confirmed the return", username))
		if borrower, err := s.userSvc.GetUser(ctx, lending.BorrowerUsername); err == nil {
			_ = s.emailSvc.SendLendingCompletedNotification(ctx, borrower.Email, s.itemName(ctx, lending.ItemID))
		}
	}

	return lending, nil
}

func (s *lendingService) RaiseDispute(ctx context.Context, lendingID, username, reason string) (*domain.Lending, error) {
	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		return nil, err
	}
	if !lending.IsParty(username) {
		return nil, domain.Unauthorized("You are not a party to this lending")
	}
	if lending.Status != domain.LendingStatusActive && lending.Status != domain.LendingStatusReturnInitiated {
		return nil, domain.InvalidState("Disputes can only be raised on an active lending")
	}

	lending.Status = domain.LendingStatusDisputed
	lending.DisputeReason = utils.SanitizeText(reason)
	if err := s.lendingRepo.Update(ctx, lending); err != nil {
		return nil, err
	}

	// The dispute counts against the other party's trust score. No further
	// resolution workflow exists; the record just stays disputed.
	other := lending.OtherParty(username)
	if other != "" {
		if err := s.userSvc.RecordDispute(ctx, other); err != nil {
			logger.Error("Failed to record dispute", "username", other, "error", err)
		}
		s.activitySvc.Notify(ctx, other, "dispute_raised",
			fmt.Sprintf("%s raised a dispute over a lending", username))
	}

	return lending, nil
}

func (s *lendingService) AddRating(ctx context.Context, lendingID, username string, rating int, isLenderRating bool) (*domain.Lending, error) {
	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		return nil, err
	}
	if lending.Status != domain.LendingStatusCompleted {
		return nil, domain.InvalidState("Ratings can only be added to a completed lending")
	}
	if rating < 1 || rating > 5 {
		return nil, domain.Validation("Rating must be between 1 and 5")
	}

	var ratee string
	if isLenderRating {
		// Rating the lender: only the borrower may do this.
		if lending.BorrowerUsername == "" || username != lending.BorrowerUsername {
			return nil, domain.Unauthorized("Only the borrower can rate the lender")
		}
		if lending.LenderRating != nil {
			return nil, domain.InvalidState("Rating already submitted")
		}
		lending.LenderRating = &rating
		ratee = lending.LenderUsername
	} else {
		if username != lending.LenderUsername {
			return nil, domain.Unauthorized("Only the lender can rate the borrower")
		}
		if lending.BorrowerRating != nil {
			return nil, domain.InvalidState("Rating already submitted")
		}
		lending.BorrowerRating = &rating
		ratee = lending.BorrowerUsername
	}

	if err := s.lendingRepo.Update(ctx, lending); err != nil {
		return nil, err
	}

	if ratee != "" {
		if err := s.userSvc.RecordRating(ctx, ratee, rating); err != nil {
			logger.Error("Failed to record rating", "username", ratee, "error", err)
		}
		s.activitySvc.Notify(ctx, ratee, "rating_received",
			fmt.Sprintf("%s rated you %d out of 5", username, rating))
	}

	return lending, nil
}

func (s *lendingService) GetLending(ctx context.Context, lendingID, username string) (*domain.Lending, error) {
	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		return nil, err
	}
	if !lending.IsParty(username) {
		return nil, domain.Unauthorized("You are not a party to this lending")
	}
	return lending, nil
}

func (s *lendingService) ListLendings(ctx context.Context, username string) ([]domain.Lending, error) {
	return s.lendingRepo.ListByLender(ctx, username)
}

func (s *lendingService) ListBorrowings(ctx context.Context, username string) ([]domain.Lending, error) {
	return s.lendingRepo.ListByBorrower(ctx, username)
}

func (s *lendingService) ListActive(ctx context.Context, username string, asLender bool) ([]domain.Lending, error) {
	return s.lendingRepo.ListActiveByUser(ctx, username, asLender)
}

// ListPendingRequests returns open lendings where username is the party who
// must act next: borrow requests against their items, and offers made to
// them.
func (s *lendingService) ListPendingRequests(ctx context.Context, username string) ([]domain.Lending, error) {
	open, err := s.lendingRepo.ListByStatusForUser(ctx, username,
		[]domain.LendingStatus{domain.LendingStatusPending, domain.LendingStatusNegotiating})
	if err != nil {
		return nil, err
	}
	var out []domain.Lending
	for _, l := range open {
		if accepter(&l) == username {
			out = append(out, l)
		}
	}
	return out, nil
}

// ListOutgoingRequests is the symmetric complement of ListPendingRequests:
// open lendings username initiated and is waiting on the other party for.
func (s *lendingService) ListOutgoingRequests(ctx context.Context, username string) ([]domain.Lending, error) {
	open, err := s.lendingRepo.ListByStatusForUser(ctx, username,
		[]domain.LendingStatus{domain.LendingStatusPending, domain.LendingStatusNegotiating})
	if err != nil {
		return nil, err
	}
	var out []domain.Lending
	for _, l := range open {
		if accepter(&l) != username {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *lendingService) ListOverdue(ctx context.Context, username string) ([]domain.Lending, error) {
	all, err := s.lendingRepo.ListOverdue(ctx, nowMillis())
	if err != nil {
		return nil, err
	}
	return filterParty(all, username), nil
}

func (s *lendingService) ListDueSoon(ctx context.Context, username string, daysAhead int) ([]domain.Lending, error) {
	now := nowMillis()
	until := now + int64(daysAhead)*86400000
	all, err := s.lendingRepo.ListDueSoon(ctx, now, until)
	if err != nil {
		return nil, err
	}
	return filterParty(all, username), nil
}

func (s *lendingService) ItemHistory(ctx context.Context, itemID string) ([]domain.Lending, error) {
	return s.lendingRepo.ListByItem(ctx, itemID)
}

func filterParty(lendings []domain.Lending, username string) []domain.Lending {
	var out []domain.Lending
	for _, l := range lendings {
		if l.IsParty(username) {
			out = append(out, l)
		}
	}
	return out
}

func (s *lendingService) itemName(ctx context.Context, itemID string) string {
	if item, err := s.itemRepo.GetByID(ctx, itemID); err == nil {
		return item.Name
	}
	return itemID
}

// otherPartyEmail resolves the counterparty's email, falling back to the
// contact email on record for external borrowers.
func (s *lendingService) otherPartyEmail(ctx context.Context, lending *domain.Lending, actor string) string {
	other := lending.OtherParty(actor)
	if other == "" {
		if actor == lending.LenderUsername {
			return lending.BorrowerInfo.Email
		}
		return ""
	}
	if user, err := s.userSvc.GetUser(ctx, other); err == nil {
		return user.Email
	}
	return ""
}

func (s *lendingService) notifyOther(ctx context.Context, lending *domain.Lending, actor, activityType, what string) {
	other := lending.OtherParty(actor)
	if other == "" {
		return
	}
	s.activitySvc.Notify(ctx, other, activityType, fmt.Sprintf("%s %s", actor, what))
}
