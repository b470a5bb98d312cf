// Package memory provides mutex-guarded map implementations of the
// repository interfaces. Used by unit and handler tests, and runnable for
// local development with `database.driver: memory`.
package memory

import "lendtrust-backend/internal/repository"

type Store struct {
	repository.UserRepository
	repository.ItemRepository
	repository.LendingRepository
	repository.ActivityRepository
}

func NewStore() *Store {
	return &Store{
		UserRepository:     NewUserRepository(),
		ItemRepository:     NewItemRepository(),
		LendingRepository:  NewLendingRepository(),
		ActivityRepository: NewActivityRepository(),
	}
}
