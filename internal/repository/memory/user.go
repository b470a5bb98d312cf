package memory

import (
	"context"
	"strings"
	"sync"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() repository.UserRepository {
	return &userRepository{users: make(map[string]domain.User)}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[u.Username]; exists {
		return domain.Validation("Username is already taken")
	}
	r.users[u.Username] = *u
	return nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, domain.NotFound("User not found")
	}
	c := u
	return &c, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			c := u
			return &c, nil
		}
	}
	return nil, domain.NotFound("User not found")
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; !ok {
		return domain.NotFound("User not found")
	}
	r.users[u.Username] = *u
	return nil
}
