package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `username, email, COALESCE(phone_number, ''), password_hash, name,
	trust_score, total_lendings, total_borrowings, on_time_returns, late_returns,
	disputes_against, total_ratings, rating_sum, created_on, updated_on`

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (username, email, phone_number, password_hash, name,
	            trust_score, total_lendings, total_borrowings, on_time_returns, late_returns,
	            disputes_against, total_ratings, rating_sum, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	now := time.Now().Format("2006-01-02")
	u.CreatedOn = now
	u.UpdatedOn = now
	_, err := r.db.ExecContext(ctx, query, u.Username, u.Email, u.PhoneNumber, u.PasswordHash, u.Name,
		u.TrustScore, u.TotalLendings, u.TotalBorrowings, u.OnTimeReturns, u.LateReturns,
		u.DisputesAgainst, u.TotalRatings, u.RatingSum, u.CreatedOn, u.UpdatedOn)
	return err
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *userRepository) get(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	u := &domain.User{}
	var createdOn, updatedOn time.Time
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.Username, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.Name,
		&u.TrustScore, &u.TotalLendings, &u.TotalBorrowings, &u.OnTimeReturns, &u.LateReturns,
		&u.DisputesAgainst, &u.TotalRatings, &u.RatingSum, &createdOn, &updatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	u.CreatedOn = createdOn.Format("2006-01-02")
	u.UpdatedOn = updatedOn.Format("2006-01-02")
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET email=$1, phone_number=$2, name=$3,
	            trust_score=$4, total_lendings=$5, total_borrowings=$6, on_time_returns=$7,
	            late_returns=$8, disputes_against=$9, total_ratings=$10, rating_sum=$11, updated_on=$12
	          WHERE username=$13`
	u.UpdatedOn = time.Now().Format("2006-01-02")
	_, err := r.db.ExecContext(ctx, query, u.Email, u.PhoneNumber, u.Name,
		u.TrustScore, u.TotalLendings, u.TotalBorrowings, u.OnTimeReturns,
		u.LateReturns, u.DisputesAgainst, u.TotalRatings, u.RatingSum, u.UpdatedOn, u.Username)
	return err
}
