package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository"
)

type lendingRepository struct {
	db *sql.DB
}

func NewLendingRepository(db *sql.DB) repository.LendingRepository {
	return &lendingRepository{db: db}
}

const lendingColumns = `id, item_id, lender_username, borrower_username, borrower_info, terms, status,
	is_borrow_request, negotiation_rounds, negotiation_history, condition_at_lending,
	COALESCE(condition_at_return, ''), actual_return_date, return_initiated_at,
	COALESCE(return_notes, ''), COALESCE(decline_reason, ''), COALESCE(declined_by, ''),
	COALESCE(cancelled_by, ''), COALESCE(dispute_reason, ''), extension_request,
	lender_rating, borrower_rating, reminders, version, created_on, updated_on`

func (r *lendingRepository) Create(ctx context.Context, l *domain.Lending) error {
	borrowerInfo, _ := json.Marshal(l.BorrowerInfo)
	terms, _ := json.Marshal(l.Terms)
	history, _ := json.Marshal(l.NegotiationHistory)
	reminders, _ := json.Marshal(l.Reminders)

	l.Version = 1
	query := `INSERT INTO lendings (id, item_id, lender_username, borrower_username, borrower_info, terms, status,
	            is_borrow_request, negotiation_rounds, negotiation_history, condition_at_lending, reminders, version, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.ItemID, l.LenderUsername, nullString(l.BorrowerUsername), borrowerInfo, terms, l.Status,
		l.IsBorrowRequest, l.NegotiationRounds, history, l.ConditionAtLending, reminders, l.Version, l.CreatedOn, l.UpdatedOn)
	return err
}

func (r *lendingRepository) GetByID(ctx context.Context, id string) (*domain.Lending, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+lendingColumns+` FROM lendings WHERE id = $1`, id)
	l, err := scanLending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Lending not found")
	}
	return l, err
}

// Update writes the whole mutable portion of the record guarded by the
// version column; zero affected rows means another writer won the race.
func (r *lendingRepository) Update(ctx context.Context, l *domain.Lending) error {
	terms, _ := json.Marshal(l.Terms)
	history, _ := json.Marshal(l.NegotiationHistory)
	reminders, _ := json.Marshal(l.Reminders)
	var extension []byte
	if l.ExtensionRequest != nil {
		extension, _ = json.Marshal(l.ExtensionRequest)
	}

	query := `UPDATE lendings SET terms=$1, status=$2, negotiation_rounds=$3, negotiation_history=$4,
	            condition_at_return=$5, actual_return_date=$6, return_initiated_at=$7, return_notes=$8,
	            decline_reason=$9, declined_by=$10, cancelled_by=$11, dispute_reason=$12, extension_request=$13,
	            lender_rating=$14, borrower_rating=$15, reminders=$16, version=version+1, updated_on=$17
	          WHERE id=$18 AND version=$19`
	res, err := r.db.ExecContext(ctx, query,
		terms, l.Status, l.NegotiationRounds, history,
		nullString(l.ConditionAtReturn), l.ActualReturnDate, l.ReturnInitiatedAt, nullString(l.ReturnNotes),
		nullString(l.DeclineReason), nullString(l.DeclinedBy), nullString(l.CancelledBy), nullString(l.DisputeReason), extension,
		l.LenderRating, l.BorrowerRating, reminders, time.Now().UnixMilli(),
		l.ID, l.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NewError(domain.ErrConflict, "Lending was modified concurrently")
	}
	l.Version++
	return nil
}

func (r *lendingRepository) ListByLender(ctx context.Context, username string) ([]domain.Lending, error) {
	return r.query(ctx, `SELECT `+lendingColumns+` FROM lendings WHERE lender_username = $1 ORDER BY created_on DESC`, username)
}

func (r *lendingRepository) ListByBorrower(ctx context.Context, username string) ([]domain.Lending, error) {
	return r.query(ctx, `SELECT `+lendingColumns+` FROM lendings WHERE borrower_username = $1 ORDER BY created_on DESC`, username)
}

func (r *lendingRepository) ListActiveByUser(ctx context.Context, username string, asLender bool) ([]domain.Lending, error) {
	col := "borrower_username"
	if asLender {
		col = "lender_username"
	}
	query := `SELECT ` + lendingColumns + ` FROM lendings
	          WHERE ` + col + ` = $1 AND status IN ('active', 'return-initiated') ORDER BY created_on DESC`
	return r.query(ctx, query, username)
}

func (r *lendingRepository) ListByStatusForUser(ctx context.Context, username string, statuses []domain.LendingStatus) ([]domain.Lending, error) {
	statusStrs, _ := json.Marshal(statuses)
	query := `SELECT ` + lendingColumns + ` FROM lendings
	          WHERE (lender_username = $1 OR borrower_username = $1)
	            AND status = ANY(SELECT jsonb_array_elements_text($2::jsonb))
	          ORDER BY created_on DESC`
	return r.query(ctx, query, username, statusStrs)
}

func (r *lendingRepository) ListOverdue(ctx context.Context, now int64) ([]domain.Lending, error) {
	query := `SELECT ` + lendingColumns + ` FROM lendings
	          WHERE status IN ('active', 'return-initiated')
	            AND (terms->>'expected_return_date')::bigint < $1
	          ORDER BY created_on DESC`
	return r.query(ctx, query, now)
}

func (r *lendingRepository) ListDueSoon(ctx context.Context, now, until int64) ([]domain.Lending, error) {
	query := `SELECT ` + lendingColumns + ` FROM lendings
	          WHERE status IN ('active', 'return-initiated')
	            AND (terms->>'expected_return_date')::bigint > $1
	            AND (terms->>'expected_return_date')::bigint <= $2
	          ORDER BY created_on DESC`
	return r.query(ctx, query, now, until)
}

func (r *lendingRepository) ListByItem(ctx context.Context, itemID string) ([]domain.Lending, error) {
	return r.query(ctx, `SELECT `+lendingColumns+` FROM lendings WHERE item_id = $1 ORDER BY created_on DESC`, itemID)
}

func (r *lendingRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Lending, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lendings []domain.Lending
	for rows.Next() {
		l, err := scanLending(rows)
		if err != nil {
			return nil, err
		}
		lendings = append(lendings, *l)
	}
	return lendings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLending(row rowScanner) (*domain.Lending, error) {
	l := &domain.Lending{}
	var borrowerUsername sql.NullString
	var borrowerInfo, terms, history, reminders []byte
	var extension []byte

	err := row.Scan(
		&l.ID, &l.ItemID, &l.LenderUsername, &borrowerUsername, &borrowerInfo, &terms, &l.Status,
		&l.IsBorrowRequest, &l.NegotiationRounds, &history, &l.ConditionAtLending,
		&l.ConditionAtReturn, &l.ActualReturnDate, &l.ReturnInitiatedAt,
		&l.ReturnNotes, &l.DeclineReason, &l.DeclinedBy,
		&l.CancelledBy, &l.DisputeReason, &extension,
		&l.LenderRating, &l.BorrowerRating, &reminders, &l.Version, &l.CreatedOn, &l.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}

	l.BorrowerUsername = borrowerUsername.String
	if err := json.Unmarshal(borrowerInfo, &l.BorrowerInfo); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(terms, &l.Terms); err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &l.NegotiationHistory); err != nil {
			return nil, err
		}
	}
	if len(reminders) > 0 {
		if err := json.Unmarshal(reminders, &l.Reminders); err != nil {
			return nil, err
		}
	}
	if len(extension) > 0 {
		l.ExtensionRequest = &domain.ExtensionRequest{}
		if err := json.Unmarshal(extension, l.ExtensionRequest); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
