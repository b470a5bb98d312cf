package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository"
)

type itemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, owner_username, name, COALESCE(description, ''), COALESCE(category, ''),
	condition, status, current_lending_id, created_on, updated_on`

func (r *itemRepository) Create(ctx context.Context, it *domain.Item) error {
	query := `INSERT INTO items (id, owner_username, name, description, category, condition, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	now := time.Now().Format("2006-01-02")
	it.CreatedOn = now
	it.UpdatedOn = now
	_, err := r.db.ExecContext(ctx, query, it.ID, it.OwnerUsername, it.Name, it.Description, it.Category, it.Condition, it.Status, it.CreatedOn, it.UpdatedOn)
	return err
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	it := &domain.Item{}
	var createdOn, updatedOn time.Time
	err := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id).Scan(
		&it.ID, &it.OwnerUsername, &it.Name, &it.Description, &it.Category,
		&it.Condition, &it.Status, &it.CurrentLendingID, &createdOn, &updatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Item not found")
	}
	if err != nil {
		return nil, err
	}
	it.CreatedOn = createdOn.Format("2006-01-02")
	it.UpdatedOn = updatedOn.Format("2006-01-02")
	return it, nil
}

func (r *itemRepository) Update(ctx context.Context, it *domain.Item) error {
	query := `UPDATE items SET name=$1, description=$2, category=$3, condition=$4, status=$5, current_lending_id=$6, updated_on=$7 WHERE id=$8`
	it.UpdatedOn = time.Now().Format("2006-01-02")
	_, err := r.db.ExecContext(ctx, query, it.Name, it.Description, it.Category, it.Condition, it.Status, it.CurrentLendingID, it.UpdatedOn, it.ID)
	return err
}

func (r *itemRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Item, error) {
	return r.query(ctx, `SELECT `+itemColumns+` FROM items WHERE owner_username = $1 ORDER BY created_on DESC`, owner)
}

func (r *itemRepository) ListAvailable(ctx context.Context) ([]domain.Item, error) {
	return r.query(ctx, `SELECT `+itemColumns+` FROM items WHERE status = 'available' ORDER BY created_on DESC`)
}

func (r *itemRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		var createdOn, updatedOn time.Time
		if err := rows.Scan(&it.ID, &it.OwnerUsername, &it.Name, &it.Description, &it.Category,
			&it.Condition, &it.Status, &it.CurrentLendingID, &createdOn, &updatedOn); err != nil {
			return nil, err
		}
		it.CreatedOn = createdOn.Format("2006-01-02")
		it.UpdatedOn = updatedOn.Format("2006-01-02")
		items = append(items, it)
	}
	return items, rows.Err()
}
