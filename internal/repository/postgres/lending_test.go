package postgres

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendtrust-backend/internal/domain"
)

var lendingColumnNames = []string{
	"id", "item_id", "lender_username", "borrower_username", "borrower_info", "terms", "status",
	"is_borrow_request", "negotiation_rounds", "negotiation_history", "condition_at_lending",
	"condition_at_return", "actual_return_date", "return_initiated_at",
	"return_notes", "decline_reason", "declined_by",
	"cancelled_by", "dispute_reason", "extension_request",
	"lender_rating", "borrower_rating", "reminders", "version", "created_on", "updated_on",
}

func lendingRow(t *testing.T, l *domain.Lending) *sqlmock.Rows {
	t.Helper()
	borrowerInfo, err := json.Marshal(l.BorrowerInfo)
	require.NoError(t, err)
	terms, err := json.Marshal(l.Terms)
	require.NoError(t, err)
	history, err := json.Marshal(l.NegotiationHistory)
	require.NoError(t, err)
	reminders, err := json.Marshal(l.Reminders)
	require.NoError(t, err)
	var extension []byte
	if l.ExtensionRequest != nil {
		extension, err = json.Marshal(l.ExtensionRequest)
		require.NoError(t, err)
	}

	return sqlmock.NewRows(lendingColumnNames).AddRow(
		l.ID, l.ItemID, l.LenderUsername, l.BorrowerUsername, borrowerInfo, terms, string(l.Status),
		l.IsBorrowRequest, l.NegotiationRounds, history, l.ConditionAtLending,
		l.ConditionAtReturn, int64Value(l.ActualReturnDate), int64Value(l.ReturnInitiatedAt),
		l.ReturnNotes, l.DeclineReason, l.DeclinedBy,
		l.CancelledBy, l.DisputeReason, extension,
		intValue(l.LenderRating), intValue(l.BorrowerRating), reminders, l.Version, l.CreatedOn, l.UpdatedOn,
	)
}

func int64Value(p *int64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func intValue(p *int) interface{} {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func sampleLending() *domain.Lending {
	return &domain.Lending{
		ID:               "lend-1",
		ItemID:           "item-1",
		LenderUsername:   "alice",
		BorrowerUsername: "bob",
		BorrowerInfo: domain.BorrowerInfo{
			Name:           "Bob",
			Username:       "bob",
			IsPlatformUser: true,
		},
		Terms: domain.LendingTerms{
			DateLent:           1700000000000,
			ExpectedReturnDate: 1700600000000,
			AllowExtensions:    true,
		},
		Status:             domain.LendingStatusActive,
		ConditionAtLending: "good",
		Version:            2,
		CreatedOn:          1700000000000,
		UpdatedOn:          1700000000000,
	}
}

func TestLendingRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLendingRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		want := sampleLending()
		mock.ExpectQuery("SELECT (.+) FROM lendings WHERE id = \\$1").
			WithArgs("lend-1").
			WillReturnRows(lendingRow(t, want))

		got, err := repo.GetByID(ctx, "lend-1")
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, domain.LendingStatusActive, got.Status)
		assert.Equal(t, "bob", got.BorrowerUsername)
		assert.True(t, got.BorrowerInfo.IsPlatformUser)
		assert.Equal(t, want.Terms.ExpectedReturnDate, got.Terms.ExpectedReturnDate)
		assert.Equal(t, int32(2), got.Version)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM lendings WHERE id = \\$1").
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(lendingColumnNames))

		_, err := repo.GetByID(ctx, "nope")
		require.Error(t, err)
		assert.Equal(t, domain.ErrNotFound, domain.KindOf(err))
	})
}

func TestLendingRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLendingRepository(db)
	l := sampleLending()
	l.Version = 0

	mock.ExpectExec("INSERT INTO lendings").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), l))
	assert.Equal(t, int32(1), l.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLendingRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLendingRepository(db)
	ctx := context.Background()

	t.Run("Success bumps the version", func(t *testing.T) {
		l := sampleLending()
		mock.ExpectExec("UPDATE lendings SET").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(ctx, l))
		assert.Equal(t, int32(3), l.Version)
	})

	t.Run("Version mismatch is a conflict", func(t *testing.T) {
		l := sampleLending()
		mock.ExpectExec("UPDATE lendings SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, l)
		require.Error(t, err)
		assert.Equal(t, domain.ErrConflict, domain.KindOf(err))
		assert.Equal(t, int32(2), l.Version)
	})
}

func TestLendingRepository_ListOverdue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewLendingRepository(db)

	overdue := sampleLending()
	mock.ExpectQuery("SELECT (.+) FROM lendings").
		WithArgs(int64(1800000000000)).
		WillReturnRows(lendingRow(t, overdue))

	got, err := repo.ListOverdue(context.Background(), 1800000000000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "lend-1", got[0].ID)
}
