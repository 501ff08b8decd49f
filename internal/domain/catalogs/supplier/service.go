package supplier

import (
	"context"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/domain"
)

// Service provides business operations for the Supplier catalog.
type Service struct {
	repo Repository
}

// NewService creates a new Supplier service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new supplier.
func (s *Service) Create(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}

	if sup.Code != "" {
		if existing, err := s.repo.GetByCode(ctx, sup.Code); err == nil && existing != nil {
			return apperror.NewDuplicate("supplier", "code", sup.Code)
		}
	}

	return s.repo.Create(ctx, sup)
}

// Update modifies catalog fields. Payable is derived and not writable here.
func (s *Service) Update(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, sup.ID)
	if err != nil {
		return err
	}
	sup.Payable = current.Payable

	return s.repo.Update(ctx, sup)
}

// GetByID retrieves a supplier.
func (s *Service) GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, supplierID)
}

// List retrieves suppliers with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Supplier], error) {
	return s.repo.List(ctx, filter)
}

// Delete soft-deletes a supplier.
func (s *Service) Delete(ctx context.Context, supplierID id.ID) error {
	return s.repo.Delete(ctx, supplierID)
}
