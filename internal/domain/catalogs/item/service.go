package item

import (
	"context"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/domain"
	"ritel/pkg/logger"
)

// Service provides business operations for the Item catalog.
type Service struct {
	repo Repository
}

// NewService creates a new Item service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new item.
func (s *Service) Create(ctx context.Context, it *Item) error {
	if err := it.Validate(ctx); err != nil {
		return err
	}

	if it.Code != "" {
		if existing, err := s.repo.GetByCode(ctx, it.Code); err == nil && existing != nil {
			return apperror.NewDuplicate("item", "code", it.Code)
		}
	}

	if err := s.repo.Create(ctx, it); err != nil {
		return err
	}

	logger.Info(ctx, "item created", "id", it.ID, "code", it.Code)
	return nil
}

// Update modifies catalog fields. OnHand is deliberately not writable here;
// stock changes go through the ledger.
func (s *Service) Update(ctx context.Context, it *Item) error {
	if err := it.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, it.ID)
	if err != nil {
		return err
	}
	it.OnHand = current.OnHand

	return s.repo.Update(ctx, it)
}

// GetByID retrieves an item.
func (s *Service) GetByID(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.repo.GetByID(ctx, itemID)
}

// List retrieves items with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Item], error) {
	return s.repo.List(ctx, filter)
}

// Delete soft-deletes an item.
func (s *Service) Delete(ctx context.Context, itemID id.ID) error {
	return s.repo.Delete(ctx, itemID)
}
