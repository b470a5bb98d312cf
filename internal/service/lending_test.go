package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository/memory"
)

// stubEmailService records calls instead of sending anything.
type stubEmailService struct {
	sent []string
}

func (s *stubEmailService) SendLendingRequestNotification(_ context.Context, email, _, _ string) error {
	s.sent = append(s.sent, "request:"+email)
	return nil
}

func (s *stubEmailService) SendLendingAcceptedNotification(_ context.Context, email, _, _ string) error {
	s.sent = append(s.sent, "accepted:"+email)
	return nil
}

func (s *stubEmailService) SendLendingDeclinedNotification(_ context.Context, email, _, _, _ string) error {
	s.sent = append(s.sent, "declined:"+email)
	return nil
}

func (s *stubEmailService) SendReturnReminderNotification(_ context.Context, email, _ string, _ bool) error {
	s.sent = append(s.sent, "reminder:"+email)
	return nil
}

func (s *stubEmailService) SendLendingCompletedNotification(_ context.Context, email, _ string) error {
	s.sent = append(s.sent, "completed:"+email)
	return nil
}

type testEnv struct {
	store      *memory.Store
	userSvc    UserService
	itemSvc    ItemService
	lendingSvc LendingService
	email      *stubEmailService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	email := &stubEmailService{}
	userSvc := NewUserService(store.UserRepository)
	itemSvc := NewItemService(store.ItemRepository)
	activitySvc := NewActivityService(store.ActivityRepository)
	lendingSvc := NewLendingService(store.LendingRepository, store.ItemRepository, userSvc, itemSvc, activitySvc, email)
	return &testEnv{
		store:      store,
		userSvc:    userSvc,
		itemSvc:    itemSvc,
		lendingSvc: lendingSvc,
		email:      email,
	}
}

func (e *testEnv) seedUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:   username,
		Email:      username + "@example.com",
		Name:       username,
		TrustScore: domain.DefaultTrustScore,
	}
	require.NoError(t, e.store.UserRepository.Create(context.Background(), user))
	return user
}

func (e *testEnv) seedItem(t *testing.T, owner, name string) *domain.Item {
	t.Helper()
	item, err := e.itemSvc.AddItem(context.Background(), owner, &domain.Item{Name: name, Category: "tools"})
	require.NoError(t, err)
	return item
}

func validTerms() domain.LendingTerms {
	now := time.Now().UnixMilli()
	return domain.LendingTerms{
		DateLent:           now,
		ExpectedReturnDate: now + 7*86400000,
		AllowExtensions:    true,
	}
}

func (e *testEnv) user(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := e.userSvc.GetUser(context.Background(), username)
	require.NoError(t, err)
	return u
}

// createAccepted drives a platform-to-platform lending to active.
func (e *testEnv) createAccepted(t *testing.T, lender, borrower string) *domain.Lending {
	t.Helper()
	ctx := context.Background()
	item := e.seedItem(t, lender, "Ladder")
	lending, err := e.lendingSvc.CreateLending(ctx, lender, CreateLendingInput{
		ItemID:   item.ID,
		Borrower: domain.BorrowerInfo{Username: borrower},
		Terms:    validTerms(),
	})
	require.NoError(t, err)
	lending, err = e.lendingSvc.AcceptLending(ctx, lending.ID, borrower)
	require.NoError(t, err)
	return lending
}

func TestCreateLendingValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice")
	env.seedUser(t, "bob")
	item := env.seedItem(t, "alice", "Drill")

	create := func(terms domain.LendingTerms) error {
		_, err := env.lendingSvc.CreateLending(ctx, "alice", CreateLendingInput{
			ItemID:   item.ID,
			Borrower: domain.BorrowerInfo{Username: "bob"},
			Terms:    terms,
		})
		return err
	}

	t.Run("Missing date lent", func(t *testing.T) {
		terms := validTerms()
		terms.DateLent = 0
		err := create(terms)
		require.Error(t, err)
		assert.Equal(t, "Date lent is required", err.Error())
		assert.Equal(t, domain.ErrValidation, domain.KindOf(err))
	})

	t.Run("Missing expected return date", func(t *testing.T) {
		terms := validTerms()
		terms.ExpectedReturnDate = 0
		err := create(terms)
		require.Error(t, err)
		assert.Equal(t, "Expected return date is required", err.Error())
	})

	t.Run("Return date not after date lent", func(t *testing.T) {
		terms := validTerms()
		terms.ExpectedReturnDate = terms.DateLent
		err := create(terms)
		require.Error(t, err)
		assert.Equal(t, "Return date must be after lending date", err.Error())
	})

	t.Run("Deposit required but zero", func(t *testing.T) {
		terms := validTerms()
		terms.RequireDeposit = true
		terms.DepositAmount = 0
		err := create(terms)
		require.Error(t, err)
		assert.Equal(t, "Deposit amount must be greater than zero", err.Error())
	})

	t.Run("Deposit zeroed when not required", func(t *testing.T) {
		terms := validTerms()
		terms.RequireDeposit = false
		terms.DepositAmount = 25.0
		lending, err := env.lendingSvc.CreateLending(ctx, "alice", CreateLendingInput{
			ItemID:   item.ID,
			Borrower: domain.BorrowerInfo{Username: "bob"},
			Terms:    terms,
		})
		require.NoError(t, err)
		assert.Zero(t, lending.Terms.DepositAmount)
	})

	t.Run("Only the owner can lend", func(t *testing.T) {
		_, err := env.lendingSvc.CreateLending(ctx, "bob", CreateLendingInput{
			ItemID:   item.ID,
			Borrower: domain.BorrowerInfo{Username: "alice"},
			Terms:    validTerms(),
		})
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))
	})
}

func TestCreateLendingStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Platform borrower starts pending", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		item := env.seedItem(t, "alice", "Drill")

		lending, err := env.lendingSvc.CreateLending(ctx, "alice", CreateLendingInput{
			ItemID:   item.ID,
			Borrower: domain.BorrowerInfo{Username: "bob"},
			Terms:    validTerms(),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusPending, lending.Status)
		assert.True(t, lending.BorrowerInfo.IsPlatformUser)
		assert.Equal(t, "bob", lending.BorrowerUsername)

		// Item stays unlocked until acceptance.
		got, err := env.itemSvc.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ItemStatusAvailable, got.Status)
		assert.Zero(t, env.user(t, "alice").TotalLendings)
	})

	t.Run("External borrower starts active", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		item := env.seedItem(t, "alice", "Drill")

		lending, err := env.lendingSvc.CreateLending(ctx, "alice", CreateLendingInput{
			ItemID:   item.ID,
			Borrower: domain.BorrowerInfo{Name: "Cousin Joe", Email: "joe@example.com"},
			Terms:    validTerms(),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusActive, lending.Status)
		assert.False(t, lending.BorrowerInfo.IsPlatformUser)
		assert.Empty(t, lending.BorrowerUsername)

		got, err := env.itemSvc.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ItemStatusLent, got.Status)
		require.NotNil(t, got.CurrentLendingID)
		assert.Equal(t, lending.ID, *got.CurrentLendingID)
		assert.Equal(t, 1, env.user(t, "alice").TotalLendings)
	})

	t.Run("Unknown platform borrower rejected", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		item := env.seedItem(t, "alice", "Drill")

		_, err := env.lendingSvc.CreateLending(ctx, "alice", CreateLendingInput{
			ItemID:   item.ID,
			Borrower: domain.BorrowerInfo{Username: "nobody"},
			Terms:    validTerms(),
		})
		require.Error(t, err)
		assert.Equal(t, domain.ErrNotFound, domain.KindOf(err))
	})
}

func TestCreateBorrowRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice")
	env.seedUser(t, "bob")
	item := env.seedItem(t, "alice", "Drill")

	t.Run("Cannot borrow own item", func(t *testing.T) {
		_, err := env.lendingSvc.CreateBorrowRequest(ctx, "alice", item.ID, validTerms(), "")
		require.Error(t, err)
		assert.Equal(t, "You cannot borrow your own item", err.Error())
	})

	t.Run("Creates a pending request", func(t *testing.T) {
		lending, err := env.lendingSvc.CreateBorrowRequest(ctx, "bob", item.ID, validTerms(), "please")
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusPending, lending.Status)
		assert.True(t, lending.IsBorrowRequest)
		assert.Equal(t, "alice", lending.LenderUsername)
		assert.Equal(t, "bob", lending.BorrowerUsername)
		assert.Contains(t, env.email.sent, "request:alice@example.com")
	})
}

func TestAcceptAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("Offer is accepted by the borrower", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		item := env.seedItem(t, "alice", "Drill")
		lending, err := env.lendingSvc.CreateLending(ctx, "alice", CreateLendingInput{
			ItemID:   item.ID,
			Borrower: domain.BorrowerInfo{Username: "bob"},
			Terms:    validTerms(),
		})
		require.NoError(t, err)

		_, err = env.lendingSvc.AcceptLending(ctx, lending.ID, "alice")
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))

		accepted, err := env.lendingSvc.AcceptLending(ctx, lending.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusActive, accepted.Status)
		assert.Equal(t, 1, env.user(t, "alice").TotalLendings)
		assert.Equal(t, 1, env.user(t, "bob").TotalBorrowings)
	})

	t.Run("Borrow request is accepted by the lender", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		item := env.seedItem(t, "alice", "Drill")
		lending, err := env.lendingSvc.CreateBorrowRequest(ctx, "bob", item.ID, validTerms(), "")
		require.NoError(t, err)

		_, err = env.lendingSvc.AcceptLending(ctx, lending.ID, "bob")
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))

		accepted, err := env.lendingSvc.AcceptLending(ctx, lending.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusActive, accepted.Status)
	})

	t.Run("Stranger cannot accept", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		env.seedUser(t, "mallory")
		item := env.seedItem(t, "alice", "Drill")
		lending, err := env.lendingSvc.CreateBorrowRequest(ctx, "bob", item.ID, validTerms(), "")
		require.NoError(t, err)

		_, err = env.lendingSvc.AcceptLending(ctx, lending.ID, "mallory")
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))
	})

	t.Run("Accept on a terminal lending fails", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		item := env.seedItem(t, "alice", "Drill")
		lending, err := env.lendingSvc.CreateBorrowRequest(ctx, "bob", item.ID, validTerms(), "")
		require.NoError(t, err)
		_, err = env.lendingSvc.DeclineLending(ctx, lending.ID, "alice", "not this week")
		require.NoError(t, err)

		_, err = env.lendingSvc.AcceptLending(ctx, lending.ID, "alice")
		require.Error(t, err)
		assert.Equal(t, domain.ErrInvalidState, domain.KindOf(err))
	})
}

func TestDeclineAndCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Either party can decline", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		item := env.seedItem(t, "alice", "Drill")
		lending, err := env.lendingSvc.CreateBorrowRequest(ctx, "bob", item.ID, validTerms(), "")
		require.NoError(t, err)

		declined, err := env.lendingSvc.DeclineLending(ctx, lending.ID, "bob", "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusDeclined, declined.Status)
		assert.Equal(t, "bob", declined.DeclinedBy)
		assert.Equal(t, "changed my mind", declined.DeclineReason)
	})

	t.Run("Only the initiator can cancel", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		item := env.seedItem(t, "alice", "Drill")
		lending, err := env.lendingSvc.CreateBorrowRequest(ctx, "bob", item.ID, validTerms(), "")
		require.NoError(t, err)

		_, err = env.lendingSvc.CancelLending(ctx, lending.ID, "alice")
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))

		cancelled, err := env.lendingSvc.CancelLending(ctx, lending.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusCancelled, cancelled.Status)
		assert.Equal(t, "bob", cancelled.CancelledBy)
	})

	t.Run("Cancel after acceptance fails", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		lending := env.createAccepted(t, "alice", "bob")

		_, err := env.lendingSvc.CancelLending(ctx, lending.ID, "alice")
		require.Error(t, err)
		assert.Equal(t, domain.ErrInvalidState, domain.KindOf(err))
	})
}

func TestNegotiation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	env.seedUser(t, "bob")
	item := env.seedItem(t, "alice", "Drill")
	lending, err := env.lendingSvc.CreateBorrowRequest(ctx, "bob", item.ID, validTerms(), "")
	require.NoError(t, err)

	newDate := validTerms().ExpectedReturnDate + 86400000
	deposit := 10.0

	t.Run("Three rounds are allowed", func(t *testing.T) {
		parties := []string{"alice", "bob", "alice"}
		for i, who := range parties {
			updated, err := env.lendingSvc.ProposeTerms(ctx, lending.ID, who, TermsProposal{
				ExpectedReturnDate: &newDate,
				DepositAmount:      &deposit,
			}, "counter")
			require.NoError(t, err)
			assert.Equal(t, domain.LendingStatusNegotiating, updated.Status)
			assert.Equal(t, i+1, updated.NegotiationRounds)
			assert.Len(t, updated.NegotiationHistory, i+1)
			assert.Equal(t, who, updated.NegotiationHistory[i].ProposedBy)
			assert.Equal(t, newDate, updated.Terms.ExpectedReturnDate)
			assert.Equal(t, deposit, updated.Terms.DepositAmount)
		}
	})

	t.Run("Fourth proposal force-declines", func(t *testing.T) {
		declined, err := env.lendingSvc.ProposeTerms(ctx, lending.ID, "bob", TermsProposal{
			ExpectedReturnDate: &newDate,
		}, "one more")
		require.Error(t, err)
		assert.Equal(t, "Maximum negotiation rounds exceeded. Lending declined.", err.Error())
		assert.Equal(t, domain.ErrNegotiationExceeded, domain.KindOf(err))
		require.NotNil(t, declined)
		assert.Equal(t, domain.LendingStatusDeclined, declined.Status)

		// The decline is persisted, not just returned.
		stored, err := env.lendingSvc.GetLending(ctx, lending.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusDeclined, stored.Status)
	})

	t.Run("Nil proposal fields leave terms untouched", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		item := env.seedItem(t, "alice", "Saw")
		terms := validTerms()
		lending, err := env.lendingSvc.CreateBorrowRequest(ctx, "bob", item.ID, terms, "")
		require.NoError(t, err)

		updated, err := env.lendingSvc.ProposeTerms(ctx, lending.ID, "alice", TermsProposal{DepositAmount: &deposit}, "")
		require.NoError(t, err)
		assert.Equal(t, terms.ExpectedReturnDate, updated.Terms.ExpectedReturnDate)
		assert.Equal(t, deposit, updated.Terms.DepositAmount)
	})
}

func TestExtensionFlow(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*testEnv, *domain.Lending) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		return env, env.createAccepted(t, "alice", "bob")
	}

	t.Run("Only the borrower can request", func(t *testing.T) {
		env, lending := setup(t)
		_, err := env.lendingSvc.RequestExtension(ctx, lending.ID, "alice", lending.Terms.ExpectedReturnDate+86400000, "")
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))
	})

	t.Run("New date must be later", func(t *testing.T) {
		env, lending := setup(t)
		_, err := env.lendingSvc.RequestExtension(ctx, lending.ID, "bob", lending.Terms.ExpectedReturnDate, "")
		require.Error(t, err)
		assert.Equal(t, "New return date must be after the current return date", err.Error())
	})

	t.Run("Disallowed by terms", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		item := env.seedItem(t, "alice", "Drill")
		terms := validTerms()
		terms.AllowExtensions = false
		lending, err := env.lendingSvc.CreateLending(ctx, "alice", CreateLendingInput{
			ItemID:   item.ID,
			Borrower: domain.BorrowerInfo{Username: "bob"},
			Terms:    terms,
		})
		require.NoError(t, err)
		lending, err = env.lendingSvc.AcceptLending(ctx, lending.ID, "bob")
		require.NoError(t, err)

		_, err = env.lendingSvc.RequestExtension(ctx, lending.ID, "bob", terms.ExpectedReturnDate+86400000, "")
		require.Error(t, err)
		assert.Equal(t, "Extensions are not allowed for this lending", err.Error())
	})

	t.Run("Approval moves the return date", func(t *testing.T) {
		env, lending := setup(t)
		newDate := lending.Terms.ExpectedReturnDate + 3*86400000

		requested, err := env.lendingSvc.RequestExtension(ctx, lending.ID, "bob", newDate, "need more time")
		require.NoError(t, err)
		require.NotNil(t, requested.ExtensionRequest)
		assert.Equal(t, domain.ExtensionStatusPending, requested.ExtensionRequest.Status)

		_, err = env.lendingSvc.RespondToExtension(ctx, lending.ID, "bob", true)
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))

		approved, err := env.lendingSvc.RespondToExtension(ctx, lending.ID, "alice", true)
		require.NoError(t, err)
		assert.Equal(t, newDate, approved.Terms.ExpectedReturnDate)
		assert.Equal(t, domain.ExtensionStatusApproved, approved.ExtensionRequest.Status)
	})

	t.Run("Denial keeps the return date", func(t *testing.T) {
		env, lending := setup(t)
		oldDate := lending.Terms.ExpectedReturnDate

		_, err := env.lendingSvc.RequestExtension(ctx, lending.ID, "bob", oldDate+86400000, "")
		require.NoError(t, err)
		denied, err := env.lendingSvc.RespondToExtension(ctx, lending.ID, "alice", false)
		require.NoError(t, err)
		assert.Equal(t, oldDate, denied.Terms.ExpectedReturnDate)
		assert.Equal(t, domain.ExtensionStatusDenied, denied.ExtensionRequest.Status)

		_, err = env.lendingSvc.RespondToExtension(ctx, lending.ID, "alice", false)
		require.Error(t, err)
		assert.Equal(t, "No pending extension request", err.Error())
	})
}

func TestReturnFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("Only the borrower initiates", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		lending := env.createAccepted(t, "alice", "bob")

		_, err := env.lendingSvc.InitiateReturn(ctx, lending.ID, "alice")
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))

		initiated, err := env.lendingSvc.InitiateReturn(ctx, lending.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusReturnInitiated, initiated.Status)
		require.NotNil(t, initiated.ReturnInitiatedAt)
	})

	t.Run("Only the lender confirms", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		lending := env.createAccepted(t, "alice", "bob")
		_, err := env.lendingSvc.InitiateReturn(ctx, lending.ID, "bob")
		require.NoError(t, err)

		_, err = env.lendingSvc.ConfirmReturn(ctx, lending.ID, "bob", "good", "")
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))
	})

	t.Run("On-time return unlocks the item and credits the borrower", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		lending := env.createAccepted(t, "alice", "bob")
		_, err := env.lendingSvc.InitiateReturn(ctx, lending.ID, "bob")
		require.NoError(t, err)

		completed, err := env.lendingSvc.ConfirmReturn(ctx, lending.ID, "alice", "good", "all fine")
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusCompleted, completed.Status)
		assert.Equal(t, "good", completed.ConditionAtReturn)
		require.NotNil(t, completed.ActualReturnDate)

		item, err := env.itemSvc.GetItem(ctx, lending.ItemID)
		require.NoError(t, err)
		assert.Equal(t, domain.ItemStatusAvailable, item.Status)
		assert.Nil(t, item.CurrentLendingID)

		borrower := env.user(t, "bob")
		assert.Equal(t, 1, borrower.OnTimeReturns)
		assert.Zero(t, borrower.LateReturns)
		assert.Contains(t, env.email.sent, "completed:bob@example.com")
	})

	t.Run("Late return is recorded as late", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		item := env.seedItem(t, "alice", "Drill")
		terms := validTerms()
		terms.DateLent = time.Now().UnixMilli() - 10*86400000
		terms.ExpectedReturnDate = time.Now().UnixMilli() - 3*86400000
		lending, err := env.lendingSvc.CreateLending(ctx, "alice", CreateLendingInput{
			ItemID:   item.ID,
			Borrower: domain.BorrowerInfo{Username: "bob"},
			Terms:    terms,
		})
		require.NoError(t, err)
		_, err = env.lendingSvc.AcceptLending(ctx, lending.ID, "bob")
		require.NoError(t, err)

		// Direct confirmation from active, without the initiate step.
		completed, err := env.lendingSvc.ConfirmReturn(ctx, lending.ID, "alice", "", "")
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusCompleted, completed.Status)

		borrower := env.user(t, "bob")
		assert.Zero(t, borrower.OnTimeReturns)
		assert.Equal(t, 1, borrower.LateReturns)
	})
}

func TestDispute(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	env.seedUser(t, "bob")
	lending := env.createAccepted(t, "alice", "bob")

	t.Run("Stranger cannot dispute", func(t *testing.T) {
		env.seedUser(t, "mallory")
		_, err := env.lendingSvc.RaiseDispute(ctx, lending.ID, "mallory", "mine")
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))
	})

	t.Run("Dispute marks the lending and the counterparty", func(t *testing.T) {
		disputed, err := env.lendingSvc.RaiseDispute(ctx, lending.ID, "alice", "came back broken")
		require.NoError(t, err)
		assert.Equal(t, domain.LendingStatusDisputed, disputed.Status)
		assert.Equal(t, "came back broken", disputed.DisputeReason)
		assert.Equal(t, 1, env.user(t, "bob").DisputesAgainst)
	})

	t.Run("Dispute is terminal for further disputes", func(t *testing.T) {
		_, err := env.lendingSvc.RaiseDispute(ctx, lending.ID, "bob", "no it was fine")
		require.Error(t, err)
		assert.Equal(t, domain.ErrInvalidState, domain.KindOf(err))
	})
}

func TestRating(t *testing.T) {
	ctx := context.Background()

	complete := func(t *testing.T) (*testEnv, *domain.Lending) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		lending := env.createAccepted(t, "alice", "bob")
		_, err := env.lendingSvc.InitiateReturn(ctx, lending.ID, "bob")
		require.NoError(t, err)
		completed, err := env.lendingSvc.ConfirmReturn(ctx, lending.ID, "alice", "good", "")
		require.NoError(t, err)
		return env, completed
	}

	t.Run("Only on a completed lending", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "alice")
		env.seedUser(t, "bob")
		lending := env.createAccepted(t, "alice", "bob")

		_, err := env.lendingSvc.AddRating(ctx, lending.ID, "alice", 5, false)
		require.Error(t, err)
		assert.Equal(t, domain.ErrInvalidState, domain.KindOf(err))
	})

	t.Run("Rating bounds", func(t *testing.T) {
		env, lending := complete(t)
		for _, bad := range []int{0, 6, -1} {
			_, err := env.lendingSvc.AddRating(ctx, lending.ID, "alice", bad, false)
			require.Error(t, err)
			assert.Equal(t, "Rating must be between 1 and 5", err.Error())
		}
	})

	t.Run("Role checks", func(t *testing.T) {
		env, lending := complete(t)

		// Lender cannot rate the lender; borrower cannot rate the borrower.
		_, err := env.lendingSvc.AddRating(ctx, lending.ID, "alice", 5, true)
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))

		_, err = env.lendingSvc.AddRating(ctx, lending.ID, "bob", 5, false)
		require.Error(t, err)
		assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))
	})

	t.Run("Second rating is rejected", func(t *testing.T) {
		env, lending := complete(t)

		_, err := env.lendingSvc.AddRating(ctx, lending.ID, "alice", 4, false)
		require.NoError(t, err)
		_, err = env.lendingSvc.AddRating(ctx, lending.ID, "alice", 5, false)
		require.Error(t, err)
		assert.Equal(t, "Rating already submitted", err.Error())
	})

	t.Run("Rating feeds the ratee's trust score", func(t *testing.T) {
		env, lending := complete(t)

		_, err := env.lendingSvc.AddRating(ctx, lending.ID, "alice", 5, false)
		require.NoError(t, err)

		bob := env.user(t, "bob")
		assert.Equal(t, 1, bob.TotalRatings)
		assert.Equal(t, 5, bob.RatingSum)
		// 50 base + 30 on-time + 15 rating + 0 loyalty
		assert.Equal(t, 95, bob.TrustScore)
	})
}

func TestFullRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	env.seedUser(t, "bob")
	item := env.seedItem(t, "alice", "Pressure washer")

	lending, err := env.lendingSvc.CreateLending(ctx, "alice", CreateLendingInput{
		ItemID:   item.ID,
		Borrower: domain.BorrowerInfo{Username: "bob"},
		Terms:    validTerms(),
	})
	require.NoError(t, err)

	_, err = env.lendingSvc.AcceptLending(ctx, lending.ID, "bob")
	require.NoError(t, err)
	_, err = env.lendingSvc.InitiateReturn(ctx, lending.ID, "bob")
	require.NoError(t, err)
	_, err = env.lendingSvc.ConfirmReturn(ctx, lending.ID, "alice", "good", "")
	require.NoError(t, err)

	_, err = env.lendingSvc.AddRating(ctx, lending.ID, "alice", 5, false)
	require.NoError(t, err)
	final, err := env.lendingSvc.AddRating(ctx, lending.ID, "bob", 4, true)
	require.NoError(t, err)

	assert.Equal(t, domain.LendingStatusCompleted, final.Status)
	require.NotNil(t, final.LenderRating)
	require.NotNil(t, final.BorrowerRating)
	assert.Equal(t, 4, *final.LenderRating)
	assert.Equal(t, 5, *final.BorrowerRating)

	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	assert.Equal(t, 1, alice.TotalLendings)
	assert.Equal(t, 1, bob.TotalBorrowings)
	assert.Equal(t, 1, bob.OnTimeReturns)
	// Alice has no returns of her own; 50 + round(4/5*15) = 62.
	assert.Equal(t, 62, alice.TrustScore)
	assert.Equal(t, 95, bob.TrustScore)
}

func TestPendingAndOutgoingQueries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	env.seedUser(t, "bob")
	item := env.seedItem(t, "alice", "Drill")
	other := env.seedItem(t, "bob", "Sander")

	// bob asks for alice's drill; alice offers bob nothing yet.
	request, err := env.lendingSvc.CreateBorrowRequest(ctx, "bob", item.ID, validTerms(), "")
	require.NoError(t, err)
	offer, err := env.lendingSvc.CreateLending(ctx, "bob", CreateLendingInput{
		ItemID:   other.ID,
		Borrower: domain.BorrowerInfo{Username: "alice"},
		Terms:    validTerms(),
	})
	require.NoError(t, err)

	alicePending, err := env.lendingSvc.ListPendingRequests(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alicePending, 2)
	ids := []string{alicePending[0].ID, alicePending[1].ID}
	assert.Contains(t, ids, request.ID)
	assert.Contains(t, ids, offer.ID)

	bobOutgoing, err := env.lendingSvc.ListOutgoingRequests(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobOutgoing, 2)

	bobPending, err := env.lendingSvc.ListPendingRequests(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobPending)
}

func TestGetLendingAuthorization(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	env.seedUser(t, "bob")
	env.seedUser(t, "mallory")
	lending := env.createAccepted(t, "alice", "bob")

	_, err := env.lendingSvc.GetLending(ctx, lending.ID, "mallory")
	require.Error(t, err)
	assert.Equal(t, domain.ErrUnauthorized, domain.KindOf(err))

	got, err := env.lendingSvc.GetLending(ctx, lending.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, lending.ID, got.ID)
}
