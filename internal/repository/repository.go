package repository

import (
	"context"

	"lendtrust-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	ListByOwner(ctx context.Context, ownerUsername string) ([]domain.Item, error)
	ListAvailable(ctx context.Context) ([]domain.Item, error)
}

// LendingRepository persists lending records. Update performs a versioned
// check-and-set: it compares the record's Version against the stored row and
// fails with a conflict when another writer got there first, so concurrent
// transitions on the same lending cannot both apply.
type LendingRepository interface {
	Create(ctx context.Context, lending *domain.Lending) error
	GetByID(ctx context.Context, id string) (*domain.Lending, error)
	Update(ctx context.Context, lending *domain.Lending) error

	ListByLender(ctx context.Context, username string) ([]domain.Lending, error)
	ListByBorrower(ctx context.Context, username string) ([]domain.Lending, error)
	ListActiveByUser(ctx context.Context, username string, asLender bool) ([]domain.Lending, error)
	ListByStatusForUser(ctx context.Context, username string, statuses []domain.LendingStatus) ([]domain.Lending, error)
	ListOverdue(ctx context.Context, now int64) ([]domain.Lending, error)
	ListDueSoon(ctx context.Context, now, until int64) ([]domain.Lending, error)
	ListByItem(ctx context.Context, itemID string) ([]domain.Lending, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	ListByUser(ctx context.Context, username string, limit int) ([]domain.Activity, error)
	MarkAsRead(ctx context.Context, id, username string) error
}
