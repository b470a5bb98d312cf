package memory

import (
	"context"
	"sort"
	"sync"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository"
)

type lendingRepository struct {
	mu       sync.RWMutex
	lendings map[string]domain.Lending
}

func NewLendingRepository() repository.LendingRepository {
	return &lendingRepository{lendings: make(map[string]domain.Lending)}
}

func cloneLending(l domain.Lending) domain.Lending {
	c := l
	c.NegotiationHistory = append([]domain.NegotiationEntry(nil), l.NegotiationHistory...)
	c.Reminders = append([]domain.Reminder(nil), l.Reminders...)
	if l.ExtensionRequest != nil {
		req := *l.ExtensionRequest
		c.ExtensionRequest = &req
	}
	if l.ActualReturnDate != nil {
		v := *l.ActualReturnDate
		c.ActualReturnDate = &v
	}
	if l.ReturnInitiatedAt != nil {
		v := *l.ReturnInitiatedAt
		c.ReturnInitiatedAt = &v
	}
	if l.LenderRating != nil {
		v := *l.LenderRating
		c.LenderRating = &v
	}
	if l.BorrowerRating != nil {
		v := *l.BorrowerRating
		c.BorrowerRating = &v
	}
	return c
}

func (r *lendingRepository) Create(ctx context.Context, l *domain.Lending) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.Version = 1
	r.lendings[l.ID] = cloneLending(*l)
	return nil
}

func (r *lendingRepository) GetByID(ctx context.Context, id string) (*domain.Lending, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lendings[id]
	if !ok {
		return nil, domain.NotFound("Lending not found")
	}
	c := cloneLending(l)
	return &c, nil
}

// Update applies a versioned check-and-set so two concurrent transitions on
// the same lending cannot both pass their status precondition and write.
func (r *lendingRepository) Update(ctx context.Context, l *domain.Lending) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.lendings[l.ID]
	if !ok {
		return domain.NotFound("Lending not found")
	}
	if current.Version != l.Version {
		return domain.NewError(domain.ErrConflict, "Lending was modified concurrently")
	}
	l.Version++
	r.lendings[l.ID] = cloneLending(*l)
	return nil
}

func (r *lendingRepository) filter(pred func(domain.Lending) bool) []domain.Lending {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Lending
	for _, l := range r.lendings {
		if pred(l) {
			out = append(out, cloneLending(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn > out[j].CreatedOn })
	return out
}

func (r *lendingRepository) ListByLender(ctx context.Context, username string) ([]domain.Lending, error) {
	return r.filter(func(l domain.Lending) bool { return l.LenderUsername == username }), nil
}

func (r *lendingRepository) ListByBorrower(ctx context.Context, username string) ([]domain.Lending, error) {
	return r.filter(func(l domain.Lending) bool { return l.BorrowerUsername == username }), nil
}

func (r *lendingRepository) ListActiveByUser(ctx context.Context, username string, asLender bool) ([]domain.Lending, error) {
	return r.filter(func(l domain.Lending) bool {
		if l.Status != domain.LendingStatusActive && l.Status != domain.LendingStatusReturnInitiated {
			return false
		}
		if asLender {
			return l.LenderUsername == username
		}
		return l.BorrowerUsername == username
	}), nil
}

func (r *lendingRepository) ListByStatusForUser(ctx context.Context, username string, statuses []domain.LendingStatus) ([]domain.Lending, error) {
	return r.filter(func(l domain.Lending) bool {
		if l.LenderUsername != username && l.BorrowerUsername != username {
			return false
		}
		for _, s := range statuses {
			if l.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *lendingRepository) ListOverdue(ctx context.Context, now int64) ([]domain.Lending, error) {
	return r.filter(func(l domain.Lending) bool {
		if l.Status != domain.LendingStatusActive && l.Status != domain.LendingStatusReturnInitiated {
			return false
		}
		return l.Terms.ExpectedReturnDate < now
	}), nil
}

func (r *lendingRepository) ListDueSoon(ctx context.Context, now, until int64) ([]domain.Lending, error) {
	return r.filter(func(l domain.Lending) bool {
		if l.Status != domain.LendingStatusActive && l.Status != domain.LendingStatusReturnInitiated {
			return false
		}
		return l.Terms.ExpectedReturnDate > now && l.Terms.ExpectedReturnDate <= until
	}), nil
}

func (r *lendingRepository) ListByItem(ctx context.Context, itemID string) ([]domain.Lending, error) {
	return r.filter(func(l domain.Lending) bool { return l.ItemID == itemID }), nil
}
