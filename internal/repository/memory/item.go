package memory

import (
	"context"
	"sort"
	"sync"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository"
)

type itemRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Item
}

func NewItemRepository() repository.ItemRepository {
	return &itemRepository{items: make(map[string]domain.Item)}
}

func cloneItem(it domain.Item) domain.Item {
	c := it
	if it.CurrentLendingID != nil {
		id := *it.CurrentLendingID
		c.CurrentLendingID = &id
	}
	return c
}

func (r *itemRepository) Create(ctx context.Context, it *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[it.ID] = cloneItem(*it)
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domain.NotFound("Item not found")
	}
	c := cloneItem(it)
	return &c, nil
}

func (r *itemRepository) Update(ctx context.Context, it *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[it.ID]; !ok {
		return domain.NotFound("Item not found")
	}
	r.items[it.ID] = cloneItem(*it)
	return nil
}

func (r *itemRepository) list(pred func(domain.Item) bool) []domain.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Item
	for _, it := range r.items {
		if pred(it) {
			out = append(out, cloneItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn > out[j].CreatedOn })
	return out
}

func (r *itemRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Item, error) {
	return r.list(func(it domain.Item) bool { return it.OwnerUsername == owner }), nil
}

func (r *itemRepository) ListAvailable(ctx context.Context) ([]domain.Item, error) {
	return r.list(func(it domain.Item) bool { return it.Status == domain.ItemStatusAvailable }), nil
}
