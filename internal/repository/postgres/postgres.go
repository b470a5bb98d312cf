package postgres

import (
	"database/sql"

	"lendtrust-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.ItemRepository
	repository.LendingRepository
	repository.ActivityRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                 db,
		UserRepository:     NewUserRepository(db),
		ItemRepository:     NewItemRepository(db),
		LendingRepository:  NewLendingRepository(db),
		ActivityRepository: NewActivityRepository(db),
	}
}
