package service

import (
	"context"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository"
	"lendtrust-backend/internal/utils"

	"github.com/google/uuid"
)

type itemService struct {
	itemRepo repository.ItemRepository
}

func NewItemService(itemRepo repository.ItemRepository) ItemService {
	return &itemService{itemRepo: itemRepo}
}

func (s *itemService) AddItem(ctx context.Context, owner string, item *domain.Item) (*domain.Item, error) {
	item.Name = utils.SanitizeText(item.Name)
	if item.Name == "" {
		return nil, domain.Validation("Item name is required")
	}
	item.ID = uuid.NewString()
	item.OwnerUsername = owner
	item.Description = utils.SanitizeText(item.Description)
	item.Category = utils.SanitizeText(item.Category)
	if item.Condition == "" {
		item.Condition = domain.ItemConditionGood
	}
	item.Status = domain.ItemStatusAvailable
	item.CurrentLendingID = nil

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	return s.itemRepo.GetByID(ctx, id)
}

func (s *itemService) UpdateItem(ctx context.Context, owner string, item *domain.Item) (*domain.Item, error) {
	existing, err := s.itemRepo.GetByID(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerUsername != owner {
		return nil, domain.Unauthorized("Only the item owner can update it")
	}

	existing.Name = utils.SanitizeText(item.Name)
	existing.Description = utils.SanitizeText(item.Description)
	existing.Category = utils.SanitizeText(item.Category)
	if item.Condition != "" {
		existing.Condition = item.Condition
	}
	if err := s.itemRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *itemService) ListMyItems(ctx context.Context, owner string) ([]domain.Item, error) {
	return s.itemRepo.ListByOwner(ctx, owner)
}

func (s *itemService) ListAvailableItems(ctx context.Context) ([]domain.Item, error) {
	return s.itemRepo.ListAvailable(ctx)
}

func (s *itemService) MarkLent(ctx context.Context, itemID, lendingID string) error {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	item.Status = domain.ItemStatusLent
	item.CurrentLendingID = &lendingID
	return s.itemRepo.Update(ctx, item)
}

func (s *itemService) MarkAvailable(ctx context.Context, itemID string) error {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	item.Status = domain.ItemStatusAvailable
	item.CurrentLendingID = nil
	return s.itemRepo.Update(ctx, item)
}
