package memory

import (
	"context"
	"sort"
	"sync"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository"
)

type activityRepository struct {
	mu         sync.RWMutex
	activities map[string]domain.Activity
}

func NewActivityRepository() repository.ActivityRepository {
	return &activityRepository{activities: make(map[string]domain.Activity)}
}

func (r *activityRepository) Create(ctx context.Context, a *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities[a.ID] = *a
	return nil
}

func (r *activityRepository) ListByUser(ctx context.Context, username string, limit int) ([]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Activity
	for _, a := range r.activities {
		if a.Username == username {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn > out[j].CreatedOn })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *activityRepository) MarkAsRead(ctx context.Context, id, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.activities[id]
	if !ok || a.Username != username {
		return domain.NotFound("Activity not found")
	}
	a.Read = true
	r.activities[id] = a
	return nil
}
