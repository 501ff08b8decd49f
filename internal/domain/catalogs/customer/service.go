package customer

import (
	"context"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/domain"
)

// Service provides business operations for the Customer catalog.
type Service struct {
	repo Repository
}

// NewService creates a new Customer service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new customer.
func (s *Service) Create(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}

	if c.Code != "" {
		if existing, err := s.repo.GetByCode(ctx, c.Code); err == nil && existing != nil {
			return apperror.NewDuplicate("customer", "code", c.Code)
		}
	}

	return s.repo.Create(ctx, c)
}

// Update modifies catalog fields including the credit limit.
// Receivable is derived and not writable here.
func (s *Service) Update(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Receivable = current.Receivable

	return s.repo.Update(ctx, c)
}

// GetByID retrieves a customer.
func (s *Service) GetByID(ctx context.Context, customerID id.ID) (*Customer, error) {
	return s.repo.GetByID(ctx, customerID)
}

// List retrieves customers with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Customer], error) {
	return s.repo.List(ctx, filter)
}

// Delete soft-deletes a customer.
func (s *Service) Delete(ctx context.Context, customerID id.ID) error {
	return s.repo.Delete(ctx, customerID)
}
