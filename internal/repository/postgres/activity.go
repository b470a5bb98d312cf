package postgres

import (
	"context"
	"database/sql"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository"
)

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, a *domain.Activity) error {
	query := `INSERT INTO activities (id, username, type, message, read, created_on) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Username, a.Type, a.Message, a.Read, a.CreatedOn)
	return err
}

func (r *activityRepository) ListByUser(ctx context.Context, username string, limit int) ([]domain.Activity, error) {
	query := `SELECT id, username, type, message, read, created_on FROM activities WHERE username = $1 ORDER BY created_on DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.Username, &a.Type, &a.Message, &a.Read, &a.CreatedOn); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *activityRepository) MarkAsRead(ctx context.Context, id, username string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE activities SET read = TRUE WHERE id = $1 AND username = $2`, id, username)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("Activity not found")
	}
	return nil
}
